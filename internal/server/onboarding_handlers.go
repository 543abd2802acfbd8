package server

import (
	"errors"

	"crwn/internal/auth"
	"crwn/internal/models"
	"crwn/internal/onboarding"

	"github.com/gofiber/fiber/v2"
)

// DraftView is the client's view of an onboarding draft.
type DraftView struct {
	ID          string          `json:"id"`
	Step        onboarding.Step `json:"step"`
	Form        onboarding.Form `json:"form"`
	CanContinue bool            `json:"can_continue"`
	CanGoBack   bool            `json:"can_go_back"`
	Progress    *Progress       `json:"progress,omitempty"`
	Error       string          `json:"error,omitempty"`
	Session     *auth.Session   `json:"session,omitempty"`
}

// Progress is the position among the steps that show a progress bar.
type Progress struct {
	Position int `json:"position"`
	Total    int `json:"total"`
}

func draftView(id string, seq *onboarding.Sequencer) DraftView {
	step := seq.Step()
	v := DraftView{
		ID:          id,
		Step:        step,
		Form:        seq.Form().Redacted(),
		CanContinue: seq.CanContinue(),
		CanGoBack:   seq.CanGoBack(),
		Session:     seq.Session(),
	}
	if pos, total, ok := seq.Catalog().Progress(step); ok {
		v.Progress = &Progress{Position: pos, Total: total}
	}
	if err := seq.Err(); err != nil {
		v.Error = models.AsAppError(err).Message
	}
	return v
}

func (s *Server) draft(c *fiber.Ctx) (string, *onboarding.Sequencer, bool) {
	id := c.Params("id")
	seq, ok := s.drafts.Get(id)
	if !ok {
		_ = models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Onboarding draft", id))
	}
	return id, seq, ok
}

// GetCatalog handles GET /api/onboard/catalog
// @Summary Answer choices for the onboarding steps
// @Tags onboarding
// @Produce json
// @Success 200 {object} onboarding.Catalog
// @Router /onboard/catalog [get]
func (s *Server) GetCatalog(c *fiber.Ctx) error {
	return c.JSON(onboarding.DefaultCatalog())
}

// CreateDraft handles POST /api/onboard
// @Summary Start an onboarding draft
// @Tags onboarding
// @Produce json
// @Success 201 {object} DraftView
// @Router /onboard [post]
func (s *Server) CreateDraft(c *fiber.Ctx) error {
	id, seq := s.drafts.Create()
	return c.Status(fiber.StatusCreated).JSON(draftView(id, seq))
}

// GetDraft handles GET /api/onboard/:id
func (s *Server) GetDraft(c *fiber.Ctx) error {
	id, seq, ok := s.draft(c)
	if !ok {
		return nil
	}
	return c.JSON(draftView(id, seq))
}

// UpdateDraft handles PATCH /api/onboard/:id. Only fields present in the body
// change; toggle_goals flips each listed goal.
// @Summary Merge answers into a draft
// @Tags onboarding
// @Accept json
// @Produce json
// @Param request body onboarding.Patch true "Changed fields"
// @Success 200 {object} DraftView
// @Router /onboard/{id} [patch]
func (s *Server) UpdateDraft(c *fiber.Ctx) error {
	id, seq, ok := s.draft(c)
	if !ok {
		return nil
	}
	var patch onboarding.Patch
	if err := parseBody(c, &patch); err != nil {
		return nil
	}
	seq.Update(patch)
	return c.JSON(draftView(id, seq))
}

// NextStep handles POST /api/onboard/:id/next. Leaving the hair goals step
// registers the account; a failed registration answers with the error and
// leaves the draft on the email step. Only the response that reaches the
// complete step carries the session; the draft is removed with it.
// @Summary Continue to the next step
// @Tags onboarding
// @Produce json
// @Success 200 {object} DraftView
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /onboard/{id}/next [post]
func (s *Server) NextStep(c *fiber.Ctx) error {
	id, seq, ok := s.draft(c)
	if !ok {
		return nil
	}
	if err := seq.Continue(c.UserContext()); err != nil {
		if errors.Is(err, onboarding.ErrStepIncomplete) {
			return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
		}
		return models.RespondWithAppError(c, models.AsAppError(err))
	}
	view := draftView(id, seq)
	if seq.Step() == onboarding.StepComplete {
		s.drafts.Delete(id)
	}
	return c.JSON(view)
}

// RegistrationLimit applies limit to a continue that would register the
// account, so drafts share the sign-up budget of /auth/register.
func (s *Server) RegistrationLimit(limit fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if seq, ok := s.drafts.Get(c.Params("id")); ok && seq.Step() == onboarding.StepHairGoals {
			return limit(c)
		}
		return c.Next()
	}
}

// PreviousStep handles POST /api/onboard/:id/back
// @Summary Go back one step
// @Tags onboarding
// @Produce json
// @Success 200 {object} DraftView
// @Failure 400 {object} models.ErrorResponse
// @Router /onboard/{id}/back [post]
func (s *Server) PreviousStep(c *fiber.Ctx) error {
	id, seq, ok := s.draft(c)
	if !ok {
		return nil
	}
	if err := seq.Back(); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
	}
	return c.JSON(draftView(id, seq))
}
