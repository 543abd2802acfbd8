// Package service wraps the remote client in domain operations. Every exported
// operation returns a result.Result; expected failures are *models.AppError values.
package service

import (
	"context"
	"time"

	"crwn/internal/mailer"
	"crwn/internal/models"
	"crwn/internal/observability"
	"crwn/internal/onboarding"
	"crwn/internal/remote"
	"crwn/internal/result"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Empty is the value of results that carry no data.
type Empty = struct{}

// Services groups every domain service built over one remote client.
type Services struct {
	Auth          *AuthService
	Profiles      *ProfileService
	Posts         *PostService
	Notifications *NotificationService
	Settings      *SettingsService
	Feedback      *FeedbackService
	Affirmations  *AffirmationService
}

// Options configures NewServices.
type Options struct {
	Mailer       mailer.Mailer
	SupportEmail string
	Catalog      *onboarding.Catalog
}

// NewServices wires the domain services over rc.
func NewServices(rc *remote.Client, opts Options) *Services {
	if opts.Mailer == nil {
		opts.Mailer = mailer.LogMailer{}
	}
	if opts.Catalog == nil {
		opts.Catalog = onboarding.DefaultCatalog()
	}

	notifier := NewNotificationService(rc.Notifications, rc.Settings, rc.Realtime)
	profiles := NewProfileService(rc.Profiles, rc.Follows, rc.Storage, notifier, opts.Catalog, rc.MaxUploadBytes)
	return &Services{
		Auth:          NewAuthService(rc.Auth, rc.Profiles, notifier, opts.Mailer, opts.Catalog),
		Profiles:      profiles,
		Posts:         NewPostService(rc.Posts, rc.Profiles, rc.Storage, notifier, rc.MaxUploadBytes),
		Notifications: notifier,
		Settings:      NewSettingsService(rc.Settings),
		Feedback:      NewFeedbackService(rc.Settings, rc.Profiles, opts.Mailer, opts.SupportEmail),
		Affirmations:  NewAffirmationService(rc.Settings, notifier),
	}
}

func empty() result.Result[Empty] {
	return result.Ok(Empty{})
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// background runs fn detached from the caller's cancellation and logs its outcome.
func background(ctx context.Context, operation string, fields map[string]interface{}, fn func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		observability.LogAsyncOperationStart(ctx, operation, fields)
		if err := fn(ctx); err != nil {
			observability.LogAsyncOperationError(ctx, operation, err, fields)
			return
		}
		observability.LogAsyncOperationEnd(ctx, operation, fields)
	}()
}

// internal wraps unexpected errors, leaving AppErrors as they are.
func internal(err error) error {
	return models.AsAppError(err)
}
