package server

import (
	"crwn/internal/models"
	"crwn/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/user/profile
// @Summary Current user's profile
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Profile
// @Router /user/profile [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, s.svc.Profiles.GetProfile(c.UserContext(), currentUserID(c)))
}

// UpdateMyProfile handles PUT /api/user/profile
// @Summary Replace the editable profile fields
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.UpdateProfileInput true "Profile fields"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /user/profile [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	return respond(c, fiber.StatusOK, s.svc.Profiles.UpdateProfile(c.UserContext(), currentUserID(c), req))
}

// UpdateHairProfile handles PUT /api/user/profile/hair
// @Summary Create or replace the hair profile
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.HairProfileInput true "Hair profile"
// @Success 200 {object} models.HairProfile
// @Router /user/profile/hair [put]
func (s *Server) UpdateHairProfile(c *fiber.Ctx) error {
	var req service.HairProfileInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	return respond(c, fiber.StatusOK, s.svc.Profiles.UpdateHairProfile(c.UserContext(), currentUserID(c), req))
}

// UploadAvatar handles POST /api/user/profile/avatar with a multipart "avatar" file.
// @Summary Upload a new avatar
// @Tags users
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Image"
// @Success 200 {object} object{avatar_url=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /user/profile/avatar [post]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	fh, err := c.FormFile("avatar")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("avatar file is required"))
	}
	data, err := readUpload(fh, s.remote.MaxUploadBytes)
	if err != nil {
		return models.RespondWithAppError(c, models.AsAppError(err))
	}

	url, err := s.svc.Profiles.UploadAvatar(c.UserContext(), currentUserID(c), data).Unwrap()
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"avatar_url": url})
}

// GetSettings handles GET /api/user/settings
// @Summary Current user's settings
// @Tags settings
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.UserSettings
// @Router /user/settings [get]
func (s *Server) GetSettings(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, s.svc.Settings.Get(c.UserContext(), currentUserID(c)))
}

// UpdateSettings handles PUT /api/user/settings. Absent fields keep their value.
// @Summary Change settings
// @Tags settings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.SettingsPatch true "Changed settings"
// @Success 200 {object} models.UserSettings
// @Router /user/settings [put]
func (s *Server) UpdateSettings(c *fiber.Ctx) error {
	var req service.SettingsPatch
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	return respond(c, fiber.StatusOK, s.svc.Settings.Update(c.UserContext(), currentUserID(c), req))
}

// GetBookmarks handles GET /api/user/bookmarks
// @Summary Posts the current user saved
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Post
// @Router /user/bookmarks [get]
func (s *Server) GetBookmarks(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	return respond(c, fiber.StatusOK,
		s.svc.Posts.ListBookmarked(c.UserContext(), currentUserID(c), page.Limit, page.Offset))
}

// SubmitFeedback handles POST /api/user/feedback
// @Summary Send feedback to support
// @Tags settings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{type=string,message=string} true "Feedback"
// @Success 201 {object} models.Feedback
// @Router /user/feedback [post]
func (s *Server) SubmitFeedback(c *fiber.Ctx) error {
	var req struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	return respond(c, fiber.StatusCreated,
		s.svc.Feedback.Submit(c.UserContext(), currentUserID(c), req.Type, req.Message))
}

// GetUserProfile handles GET /api/users/:id
// @Summary A user's public profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return respond(c, fiber.StatusOK, s.svc.Profiles.GetProfile(c.UserContext(), id))
}

// GetUserPosts handles GET /api/users/:id/posts
// @Summary A user's posts, newest first
// @Tags posts
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.Post
// @Router /users/{id}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)
	return respond(c, fiber.StatusOK, s.svc.Posts.ListUserPosts(c.UserContext(), service.ListPostsInput{
		UserID:   id,
		ViewerID: currentUserID(c),
		Limit:    page.Limit,
		Offset:   page.Offset,
	}))
}

// FollowUser handles POST /api/users/:id/follow
// @Summary Follow a user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{following=bool,created=bool}
// @Router /users/{id}/follow [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	created, err := s.svc.Profiles.Follow(c.UserContext(), currentUserID(c), id).Unwrap()
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"following": true, "created": created})
}

// UnfollowUser handles DELETE /api/users/:id/follow
// @Summary Unfollow a user
// @Tags users
// @Security BearerAuth
// @Success 204
// @Router /users/{id}/follow [delete]
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return respondEmpty(c, s.svc.Profiles.Unfollow(c.UserContext(), currentUserID(c), id))
}

// ListStylists handles GET /api/stylists
// @Summary Stylist directory
// @Tags users
// @Produce json
// @Success 200 {array} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /stylists [get]
func (s *Server) ListStylists(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	return respond(c, fiber.StatusOK, s.svc.Profiles.ListStylists(c.UserContext(), page.Limit, page.Offset))
}

// GetNotifications handles GET /api/notifications
// @Summary Newest notifications for the current user
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Notification
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	return respond(c, fiber.StatusOK, s.svc.Notifications.List(c.UserContext(), currentUserID(c), limit))
}

// MarkNotificationRead handles POST /api/notifications/:id/read
// @Summary Mark a notification read
// @Tags notifications
// @Security BearerAuth
// @Success 204
// @Router /notifications/{id}/read [post]
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return respondEmpty(c, s.svc.Notifications.MarkAsRead(c.UserContext(), id, currentUserID(c)))
}
