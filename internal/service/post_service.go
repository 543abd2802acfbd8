package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"crwn/internal/models"
	"crwn/internal/observability"
	"crwn/internal/repository"
	"crwn/internal/result"
	"crwn/internal/storage"
	"crwn/internal/validation"
)

const (
	maxPostTitle  = 300
	maxPostImages = 10
)

// PostService handles the community feed.
type PostService struct {
	posts     repository.PostRepository
	profiles  repository.ProfileRepository
	storage   storage.Provider
	notifier  *NotificationService
	maxUpload int64
	now       func() time.Time
}

// ListPostsInput selects a page of posts as seen by ViewerID. UserID limits
// the page to one author.
type ListPostsInput struct {
	UserID   uint
	ViewerID uint
	Limit    int
	Offset   int
}

// CreatePostInput is a new post with its raw images in display order.
type CreatePostInput struct {
	UserID      uint
	Title       string
	Description string
	StylistID   *uint
	Tags        []string
	Images      [][]byte
	Private     bool
}

func NewPostService(
	posts repository.PostRepository,
	profiles repository.ProfileRepository,
	store storage.Provider,
	notifier *NotificationService,
	maxUpload int64,
) *PostService {
	return &PostService{
		posts:     posts,
		profiles:  profiles,
		storage:   store,
		notifier:  notifier,
		maxUpload: maxUpload,
		now:       time.Now,
	}
}

// ListPosts returns public posts newest first, or one author's posts when
// in.UserID is set.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) result.Result[[]*models.Post] {
	if in.UserID != 0 {
		return s.ListUserPosts(ctx, in)
	}
	limit, offset := page(in.Limit, in.Offset)
	return result.From(s.posts.ListPublic(ctx, limit, offset, in.ViewerID))
}

// ListUserPosts returns in.UserID's posts. Private posts are included only for the author.
func (s *PostService) ListUserPosts(ctx context.Context, in ListPostsInput) result.Result[[]*models.Post] {
	limit, offset := page(in.Limit, in.Offset)
	return result.From(s.posts.ListByUser(ctx, in.UserID, limit, offset, in.ViewerID))
}

// GetPost returns a post. Private posts look missing to everyone but their author.
func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) result.Result[*models.Post] {
	post, err := s.posts.GetByID(ctx, id, viewerID)
	if err != nil {
		return result.Fail[*models.Post](err)
	}
	if !post.IsPublic && post.UserID != viewerID {
		return result.Fail[*models.Post](models.NewNotFoundError("Post", id))
	}
	return result.Ok(post)
}

// CreatePost inserts the post, then uploads its images one at a time and
// records each as post media. A failure partway returns the error and keeps
// what was already stored.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) result.Result[*models.Post] {
	span, ctx := observability.TraceService(ctx, "PostService", "CreatePost")
	defer span.End()

	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return result.Fail[*models.Post](models.NewValidationError("Title is required"))
	case utf8.RuneCountInString(title) > maxPostTitle:
		return result.Fail[*models.Post](models.NewValidationError(
			fmt.Sprintf("Title must be at most %d characters", maxPostTitle)))
	case len(in.Images) == 0:
		return result.Fail[*models.Post](models.NewValidationError("Add at least one photo"))
	case len(in.Images) > maxPostImages:
		return result.Fail[*models.Post](models.NewValidationError(
			fmt.Sprintf("A post can have at most %d photos", maxPostImages)))
	}

	images := make([]*storage.NormalizedImage, len(in.Images))
	for i, data := range in.Images {
		img, err := storage.NormalizeImage(data, s.maxUpload)
		if err != nil {
			return result.Fail[*models.Post](imageError(err))
		}
		images[i] = img
	}
	bucket, err := s.storage.Bucket(storage.BucketPostMedia)
	if err != nil {
		return result.Fail[*models.Post](models.NewInternalError(err))
	}

	if in.StylistID != nil && *in.StylistID == 0 {
		in.StylistID = nil
	}
	post := &models.Post{
		UserID:      in.UserID,
		StylistID:   in.StylistID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Tags:        validation.NormalizeTags(in.Tags),
		IsPublic:    !in.Private,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		span.SetError(err)
		return result.Fail[*models.Post](err)
	}

	ts := s.now().UnixMilli()
	for i, img := range images {
		objectPath := fmt.Sprintf("%d/%d/%d-%d.jpg", in.UserID, post.ID, ts, i)
		stored, err := bucket.Upload(ctx, objectPath, img.JPEG, "image/jpeg")
		if err != nil {
			span.SetError(err)
			return result.Fail[*models.Post](models.NewInternalError(
				fmt.Errorf("upload image %d of post %d: %w", i, post.ID, err)))
		}
		uploadWebPSibling(ctx, bucket, stored, img.WebP)

		media := models.PostMedia{
			PostID:    post.ID,
			MediaURL:  bucket.PublicURL(stored),
			MediaType: "image",
			Position:  i,
		}
		if err := s.posts.CreateMedia(ctx, &media); err != nil {
			span.SetError(err)
			return result.Fail[*models.Post](err)
		}
		post.Media = append(post.Media, media)
	}
	return result.Ok(post)
}

// DeletePost soft-deletes a post owned by userID.
func (s *PostService) DeletePost(ctx context.Context, id, userID uint) result.Result[Empty] {
	post, err := s.posts.GetByID(ctx, id, userID)
	if err != nil {
		return result.Fail[Empty](err)
	}
	if post.UserID != userID {
		return result.Fail[Empty](models.NewForbiddenError("You can only delete your own posts"))
	}
	if err := s.posts.Delete(ctx, id, userID); err != nil {
		return result.Fail[Empty](err)
	}
	return empty()
}

// Like records userID's like and notifies the author the first time.
func (s *PostService) Like(ctx context.Context, userID, postID uint) result.Result[bool] {
	res := s.GetPost(ctx, postID, userID)
	if !res.IsOk() {
		return result.Fail[bool](res.Err())
	}
	created, err := s.posts.Like(ctx, userID, postID)
	if err != nil {
		return result.Fail[bool](err)
	}
	if created {
		s.notifyOwner(ctx, res.Value(), userID, models.NotificationLike, "liked your post")
	}
	return result.Ok(created)
}

func (s *PostService) Unlike(ctx context.Context, userID, postID uint) result.Result[Empty] {
	if err := s.posts.Unlike(ctx, userID, postID); err != nil {
		return result.Fail[Empty](err)
	}
	return empty()
}

func (s *PostService) HasLiked(ctx context.Context, userID, postID uint) result.Result[bool] {
	return result.From(s.posts.IsLiked(ctx, userID, postID))
}

// Bookmark saves a post for userID and notifies the author the first time.
func (s *PostService) Bookmark(ctx context.Context, userID, postID uint) result.Result[bool] {
	res := s.GetPost(ctx, postID, userID)
	if !res.IsOk() {
		return result.Fail[bool](res.Err())
	}
	created, err := s.posts.Bookmark(ctx, userID, postID)
	if err != nil {
		return result.Fail[bool](err)
	}
	if created {
		s.notifyOwner(ctx, res.Value(), userID, models.NotificationBookmark, "saved your post")
	}
	return result.Ok(created)
}

func (s *PostService) RemoveBookmark(ctx context.Context, userID, postID uint) result.Result[Empty] {
	if err := s.posts.RemoveBookmark(ctx, userID, postID); err != nil {
		return result.Fail[Empty](err)
	}
	return empty()
}

// ListBookmarked returns userID's saved posts, most recently saved first.
func (s *PostService) ListBookmarked(ctx context.Context, userID uint, limit, offset int) result.Result[[]*models.Post] {
	limit, offset = page(limit, offset)
	return result.From(s.posts.ListBookmarked(ctx, userID, limit, offset))
}

func (s *PostService) notifyOwner(ctx context.Context, post *models.Post, actorID uint, kind, verb string) {
	postID := post.ID
	s.notifier.notifyQuietly(ctx, &models.Notification{
		UserID:  post.UserID,
		ActorID: &actorID,
		Type:    kind,
		PostID:  &postID,
		Message: fmt.Sprintf("%s %s %q", actorName(ctx, s.profiles, actorID), verb, post.Title),
	})
}
