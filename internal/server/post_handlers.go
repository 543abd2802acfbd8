package server

import (
	"strconv"
	"strings"

	"crwn/internal/models"
	"crwn/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts. With user_id set it lists one author.
// @Summary Public feed, newest first
// @Tags posts
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Param user_id query int false "Author"
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	authorID := c.QueryInt("user_id", 0)
	if authorID < 0 {
		authorID = 0
	}
	return respond(c, fiber.StatusOK, s.svc.Posts.ListPosts(c.UserContext(), service.ListPostsInput{
		UserID:   uint(authorID),
		ViewerID: currentUserID(c),
		Limit:    page.Limit,
		Offset:   page.Offset,
	}))
}

// GetPost handles GET /api/posts/:id
// @Summary One post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return respond(c, fiber.StatusOK, s.svc.Posts.GetPost(c.UserContext(), id, currentUserID(c)))
}

// CreatePost handles POST /api/posts as multipart form data. Photos come in
// "media[]" (or "media") parts in display order; tags may be repeated or
// comma separated.
// @Summary Create a post
// @Tags posts
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param stylist_id formData int false "Credited stylist"
// @Param tags formData string false "Tags"
// @Param private formData bool false "Only visible to the author"
// @Param media[] formData file true "Photos"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Expected multipart form data"))
	}

	in := service.CreatePostInput{
		UserID:      currentUserID(c),
		Title:       firstValue(form.Value, "title"),
		Description: firstValue(form.Value, "description"),
		Private:     firstValue(form.Value, "private") == "true",
	}
	if raw := firstValue(form.Value, "stylist_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid stylist ID"))
		}
		stylistID := uint(id)
		in.StylistID = &stylistID
	}
	for _, key := range []string{"tags", "tags[]"} {
		for _, v := range form.Value[key] {
			in.Tags = append(in.Tags, strings.Split(v, ",")...)
		}
	}

	for _, key := range []string{"media[]", "media"} {
		for _, fh := range form.File[key] {
			data, err := readUpload(fh, s.remote.MaxUploadBytes)
			if err != nil {
				return models.RespondWithAppError(c, models.AsAppError(err))
			}
			in.Images = append(in.Images, data)
		}
	}

	return respond(c, fiber.StatusCreated, s.svc.Posts.CreatePost(c.UserContext(), in))
}

func firstValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete an own post
// @Tags posts
// @Security BearerAuth
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return respondEmpty(c, s.svc.Posts.DeletePost(c.UserContext(), id, currentUserID(c)))
}

// LikePost handles POST /api/posts/:id/like
// @Summary Like a post
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{liked=bool,created=bool}
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	created, err := s.svc.Posts.Like(c.UserContext(), currentUserID(c), id).Unwrap()
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"liked": true, "created": created})
}

// UnlikePost handles DELETE /api/posts/:id/like
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return respondEmpty(c, s.svc.Posts.Unlike(c.UserContext(), currentUserID(c), id))
}

// GetLikeStatus handles GET /api/posts/:id/like
func (s *Server) GetLikeStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	liked, err := s.svc.Posts.HasLiked(c.UserContext(), currentUserID(c), id).Unwrap()
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"liked": liked})
}

// BookmarkPost handles POST /api/posts/:id/bookmark
// @Summary Save a post
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{bookmarked=bool,created=bool}
// @Router /posts/{id}/bookmark [post]
func (s *Server) BookmarkPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	created, err := s.svc.Posts.Bookmark(c.UserContext(), currentUserID(c), id).Unwrap()
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"bookmarked": true, "created": created})
}

// RemoveBookmark handles DELETE /api/posts/:id/bookmark
func (s *Server) RemoveBookmark(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return respondEmpty(c, s.svc.Posts.RemoveBookmark(c.UserContext(), currentUserID(c), id))
}
