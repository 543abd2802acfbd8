package repository

import (
	"context"

	"crwn/internal/models"
	"crwn/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	CreateMedia(ctx context.Context, media *models.PostMedia) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	ListPublic(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error)
	ListBookmarked(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	Delete(ctx context.Context, id, userID uint) error
	Like(ctx context.Context, userID, postID uint) (bool, error)
	Unlike(ctx context.Context, userID, postID uint) error
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	Bookmark(ctx context.Context, userID, postID uint) (bool, error)
	RemoveBookmark(ctx context.Context, userID, postID uint) error
	IsBookmarked(ctx context.Context, userID, postID uint) (bool, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": post.ID, "user_id": post.UserID})
	return nil
}

func (r *postRepository) CreateMedia(ctx context.Context, media *models.PostMedia) error {
	if err := r.db.WithContext(ctx).Create(media).Error; err != nil {
		r.log.LogError(ctx, err, "create_media")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	var post models.Post
	err := r.withDetails(r.db.WithContext(ctx), currentUserID).First(&post, id).Error
	if err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) ListPublic(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.withDetails(r.db.WithContext(ctx), currentUserID).
		Where("posts.is_public = ?", true).
		Order("posts.created_at DESC, posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// ListByUser returns a user's posts; private ones only when the viewer is the author.
func (r *postRepository) ListByUser(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	var posts []*models.Post
	q := r.withDetails(r.db.WithContext(ctx), currentUserID).Where("posts.user_id = ?", userID)
	if userID != currentUserID {
		q = q.Where("posts.is_public = ?", true)
	}
	err := q.Order("posts.created_at DESC, posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListBookmarked(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.withDetails(r.db.WithContext(ctx), userID).
		Joins("JOIN bookmarks ON bookmarks.post_id = posts.id AND bookmarks.user_id = ?", userID).
		Order("bookmarks.created_at DESC, bookmarks.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Delete(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Post{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id, "user_id": userID})
	return nil
}

// Like records a like and reports whether it was new.
func (r *postRepository) Like(ctx context.Context, userID, postID uint) (bool, error) {
	return r.insertJoin(ctx, &models.Like{UserID: userID, PostID: postID}, "like")
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) error {
	return r.deleteJoin(ctx, &models.Like{}, userID, postID, "unlike")
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return r.exists(ctx, &models.Like{}, userID, postID)
}

// Bookmark saves a post for the user and reports whether it was new.
func (r *postRepository) Bookmark(ctx context.Context, userID, postID uint) (bool, error) {
	return r.insertJoin(ctx, &models.Bookmark{UserID: userID, PostID: postID}, "bookmark")
}

func (r *postRepository) RemoveBookmark(ctx context.Context, userID, postID uint) error {
	return r.deleteJoin(ctx, &models.Bookmark{}, userID, postID, "remove_bookmark")
}

func (r *postRepository) IsBookmarked(ctx context.Context, userID, postID uint) (bool, error) {
	return r.exists(ctx, &models.Bookmark{}, userID, postID)
}

func (r *postRepository) insertJoin(ctx context.Context, row interface{}, op string) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, op)
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *postRepository) deleteJoin(ctx context.Context, model interface{}, userID, postID uint, op string) error {
	err := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(model).Error
	if err != nil {
		r.log.LogError(ctx, err, op)
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) exists(ctx context.Context, model interface{}, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// withDetails selects the computed counters and preloads author, stylist and ordered media.
func (r *postRepository) withDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) as likes_count, " +
		"(SELECT COUNT(*) FROM bookmarks WHERE bookmarks.post_id = posts.id) as bookmarks_count"

	if currentUserID != 0 {
		db = db.Select(selectQuery+
			", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) as liked"+
			", EXISTS(SELECT 1 FROM bookmarks WHERE bookmarks.post_id = posts.id AND bookmarks.user_id = ?) as bookmarked",
			currentUserID, currentUserID)
	} else {
		db = db.Select(selectQuery + ", false as liked, false as bookmarked")
	}

	return db.
		Preload("Profile").
		Preload("Stylist").
		Preload("Media", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		})
}
