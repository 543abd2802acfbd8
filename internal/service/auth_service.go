package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"crwn/internal/auth"
	"crwn/internal/mailer"
	"crwn/internal/models"
	"crwn/internal/observability"
	"crwn/internal/onboarding"
	"crwn/internal/repository"
	"crwn/internal/result"
	"crwn/internal/validation"
)

// AuthService creates accounts with their profiles and manages sessions.
type AuthService struct {
	auth     *auth.Provider
	profiles repository.ProfileRepository
	notifier *NotificationService
	mailer   mailer.Mailer
	catalog  *onboarding.Catalog
}

// SignUpInput is an account request with the profile data gathered alongside it.
type SignUpInput struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FullName  string   `json:"full_name"`
	Username  string   `json:"username"`
	Location  string   `json:"location"`
	UserType  string   `json:"user_type"`
	HairType  string   `json:"hair_type"`
	Porosity  string   `json:"porosity"`
	HairGoals []string `json:"hair_goals"`
}

// SignUpOutput is a new account's session and profile.
type SignUpOutput struct {
	Session *auth.Session   `json:"session"`
	Profile *models.Profile `json:"profile"`
}

func NewAuthService(
	provider *auth.Provider,
	profiles repository.ProfileRepository,
	notifier *NotificationService,
	m mailer.Mailer,
	catalog *onboarding.Catalog,
) *AuthService {
	return &AuthService{auth: provider, profiles: profiles, notifier: notifier, mailer: m, catalog: catalog}
}

// SignUp creates the account, then its profile, then the optional hair
// profile. Hair profile, welcome notification and welcome mail failures are
// logged and do not fail the sign-up.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) result.Result[*SignUpOutput] {
	span, ctx := observability.TraceService(ctx, "AuthService", "SignUp")
	defer span.End()

	userType := strings.TrimSpace(in.UserType)
	if userType == "" {
		userType = models.UserTypeExplorer
	}
	if !s.catalog.IsUserType(userType) {
		return result.Fail[*SignUpOutput](models.NewValidationError("user_type must be explorer or stylist"))
	}

	user, err := s.auth.SignUp(ctx, in.Email, in.Password)
	if err != nil {
		span.SetError(err)
		return result.Fail[*SignUpOutput](internal(err))
	}

	username, err := s.availableUsername(ctx, in.Username, user)
	if err != nil {
		span.SetError(err)
		return result.Fail[*SignUpOutput](models.NewProfileSetupError(err))
	}
	profile := &models.Profile{
		ID:       user.ID,
		Email:    user.Email,
		Username: username,
		FullName: strings.TrimSpace(in.FullName),
		Location: strings.TrimSpace(in.Location),
		UserType: userType,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		span.SetError(err)
		return result.Fail[*SignUpOutput](models.NewProfileSetupError(err))
	}

	if in.HairType != "" || in.Porosity != "" || len(in.HairGoals) > 0 {
		hp := &models.HairProfile{UserID: user.ID, HairType: in.HairType, Porosity: in.Porosity, Goals: in.HairGoals}
		if err := s.profiles.UpsertHairProfile(ctx, hp); err != nil {
			observability.GlobalLogger.WarnContext(ctx, "hair profile setup failed",
				slog.Uint64("user_id", uint64(user.ID)),
				slog.String("error", err.Error()),
			)
		} else {
			profile.HairProfile = hp
		}
	}

	if res := s.notifier.Notify(ctx, &models.Notification{
		UserID:  user.ID,
		Type:    models.NotificationWelcome,
		Message: "Welcome to CRWN! Every crown tells a story.",
	}); !res.IsOk() {
		observability.GlobalLogger.WarnContext(ctx, "welcome notification failed",
			slog.Uint64("user_id", uint64(user.ID)),
			slog.String("error", res.Err().Error()),
		)
	}
	msg := mailer.Welcome(user.Email, profile.FullName)
	background(ctx, "welcome_mail", map[string]interface{}{"user_id": user.ID}, func(ctx context.Context) error {
		return s.mailer.Send(ctx, msg)
	})

	session, err := s.auth.IssueSession(user)
	if err != nil {
		return result.Fail[*SignUpOutput](internal(err))
	}
	return result.Ok(&SignUpOutput{Session: session, Profile: profile})
}

// availableUsername picks the requested username, or the e-mail local part,
// suffixed with the user id when it is taken or too short.
func (s *AuthService) availableUsername(ctx context.Context, requested string, user *models.User) (string, error) {
	base := validation.NormalizeUsername(requested)
	if base == "" {
		base = validation.UsernameFromEmail(user.Email)
	}
	if len(base) < validation.MinUsername {
		return fmt.Sprintf("%s%d", base, user.ID), nil
	}
	existing, err := s.profiles.GetByUsername(ctx, base)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return fmt.Sprintf("%s%d", base, user.ID), nil
	}
	return base, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) result.Result[*auth.Session] {
	if strings.TrimSpace(email) == "" || password == "" {
		return result.Fail[*auth.Session](models.NewValidationError("Email and password are required"))
	}
	return result.From(s.auth.SignIn(ctx, email, password))
}

// SignOut revokes token.
func (s *AuthService) SignOut(ctx context.Context, token string) result.Result[Empty] {
	if err := s.auth.SignOut(ctx, token); err != nil {
		return result.Fail[Empty](internal(err))
	}
	return empty()
}

func (s *AuthService) GetSession(ctx context.Context, token string) result.Result[*auth.Session] {
	return result.From(s.auth.GetSession(ctx, token))
}

// CurrentUser returns the profile of the token's owner.
func (s *AuthService) CurrentUser(ctx context.Context, token string) result.Result[*models.Profile] {
	userID, err := s.auth.VerifyUserID(ctx, token)
	if err != nil {
		return result.Fail[*models.Profile](internal(err))
	}
	return result.From(s.profiles.GetByID(ctx, userID))
}

// Refresh exchanges token for a new one and revokes the old.
func (s *AuthService) Refresh(ctx context.Context, token string) result.Result[*auth.Session] {
	return result.From(s.auth.Refresh(ctx, token))
}

// Registrar adapts SignUp for the onboarding sequencer.
func (s *AuthService) Registrar() onboarding.Registrar {
	return onboarding.RegistrarFunc(func(ctx context.Context, reg onboarding.Registration) (*auth.Session, error) {
		out, err := s.SignUp(ctx, SignUpInput{
			Email:     reg.Email,
			Password:  reg.Password,
			FullName:  reg.FullName,
			Username:  reg.Username,
			Location:  reg.Location,
			UserType:  reg.UserType,
			HairType:  reg.HairType,
			Porosity:  reg.Porosity,
			HairGoals: reg.HairGoals,
		}).Unwrap()
		if err != nil {
			return nil, err
		}
		return out.Session, nil
	})
}
