package service

import (
	"context"
	"log/slog"

	"crwn/internal/models"
	"crwn/internal/observability"
	"crwn/internal/realtime"
	"crwn/internal/repository"
	"crwn/internal/result"
)

const (
	defaultNotificationLimit = 50
	notificationsTable       = "notifications"
)

type NotificationService struct {
	repo     repository.NotificationRepository
	settings repository.SettingsRepository
	feed     realtime.Feed
}

func NewNotificationService(
	repo repository.NotificationRepository,
	settings repository.SettingsRepository,
	feed realtime.Feed,
) *NotificationService {
	return &NotificationService{repo: repo, settings: settings, feed: feed}
}

// List returns the newest notifications for userID with their actors.
func (s *NotificationService) List(ctx context.Context, userID uint, limit int) result.Result[[]*models.Notification] {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return result.From(s.repo.ListForUser(ctx, userID, limit))
}

// MarkAsRead marks a notification read. Only its recipient may do so.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uint) result.Result[Empty] {
	if err := s.repo.MarkAsRead(ctx, id, userID); err != nil {
		return result.Fail[Empty](err)
	}
	return empty()
}

// Notify stores n unless the recipient's settings mute its type or the actor
// is the recipient. It reports whether the notification was stored.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) result.Result[bool] {
	if n.ActorID != nil && *n.ActorID == n.UserID {
		return result.Ok(false)
	}
	prefs, err := s.settings.Get(ctx, n.UserID)
	if err != nil {
		return result.Fail[bool](err)
	}
	if prefs == nil {
		prefs = models.DefaultSettings(n.UserID)
	}
	if !prefs.AllowsNotification(n.Type) {
		return result.Ok(false)
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return result.Fail[bool](err)
	}
	return result.Ok(true)
}

// notifyQuietly is Notify for side effects of other operations; failures are logged.
func (s *NotificationService) notifyQuietly(ctx context.Context, n *models.Notification) {
	if res := s.Notify(ctx, n); !res.IsOk() {
		observability.GlobalLogger.WarnContext(ctx, "notification not delivered",
			slog.String("type", n.Type),
			slog.Uint64("user_id", uint64(n.UserID)),
			slog.String("error", res.Err().Error()),
		)
	}
}

// Subscribe calls fn with every notification inserted for userID until the
// subscription is closed or ctx ends.
func (s *NotificationService) Subscribe(
	ctx context.Context, userID uint, fn func(*models.Notification),
) result.Result[realtime.Subscription] {
	sub, err := s.feed.Subscribe(ctx, notificationsTable, realtime.Eq("user_id", userID), func(c realtime.Change) {
		var n models.Notification
		if err := c.Decode(&n); err != nil {
			observability.GlobalLogger.WarnContext(ctx, "undecodable notification change", slog.String("error", err.Error()))
			return
		}
		fn(&n)
	})
	if err != nil {
		return result.Fail[realtime.Subscription](models.NewInternalError(err))
	}
	return result.Ok(sub)
}
