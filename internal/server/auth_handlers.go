package server

import (
	"crwn/internal/service"

	"github.com/gofiber/fiber/v2"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
// @Summary Create an account
// @Description Creates the account, its profile and optional hair profile, and returns a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.SignUpInput true "Sign-up request"
// @Success 201 {object} service.SignUpOutput
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.SignUpInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	return respond(c, fiber.StatusCreated, s.svc.Auth.SignUp(c.UserContext(), req))
}

// Login handles POST /api/auth/login
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} auth.Session
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req credentials
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	return respond(c, fiber.StatusOK, s.svc.Auth.SignIn(c.UserContext(), req.Email, req.Password))
}

// Logout handles POST /api/auth/logout
// @Summary Revoke the current session
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	return respondEmpty(c, s.svc.Auth.SignOut(c.UserContext(), accessToken(c)))
}

// Refresh handles POST /api/auth/refresh
// @Summary Exchange the current token for a new one
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} auth.Session
// @Router /auth/refresh [post]
func (s *Server) Refresh(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, s.svc.Auth.Refresh(c.UserContext(), accessToken(c)))
}

// GetSession handles GET /api/auth/session
// @Summary Current session
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} auth.Session
// @Router /auth/session [get]
func (s *Server) GetSession(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, s.svc.Auth.GetSession(c.UserContext(), accessToken(c)))
}
