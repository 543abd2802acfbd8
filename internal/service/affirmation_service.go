package service

import (
	"context"
	"log/slog"

	"crwn/internal/models"
	"crwn/internal/observability"
	"crwn/internal/repository"
	"crwn/internal/result"
)

var affirmations = map[string][]string{
	models.ToneGentle: {
		"Your hair journey is yours alone. Be patient with it today.",
		"Every curl and coil is exactly right. Take a moment for yourself.",
		"Small steps count. Your crown is growing with you.",
	},
	models.ToneEmpowering: {
		"Your crown is a statement. Wear it with pride today.",
		"You know your hair best. Trust the routine you built.",
		"Growth takes consistency, and you are showing up.",
	},
	models.ToneBold: {
		"Crown up. Nobody wears it like you.",
		"Your hair, your rules. Own the room today.",
		"Big hair, bigger energy. Go get it.",
	},
}

// AffirmationService sends scheduled affirmations.
type AffirmationService struct {
	settings repository.SettingsRepository
	notifier *NotificationService
}

func NewAffirmationService(settings repository.SettingsRepository, notifier *NotificationService) *AffirmationService {
	return &AffirmationService{settings: settings, notifier: notifier}
}

// SendDue notifies every user whose settings ask for affirmations at
// frequency and returns how many were sent.
func (s *AffirmationService) SendDue(ctx context.Context, frequency string) result.Result[int] {
	if frequency != models.FrequencyDaily && frequency != models.FrequencyWeekly {
		return result.Fail[int](models.NewValidationError("frequency must be daily or weekly"))
	}
	recipients, err := s.settings.ListAffirmationRecipients(ctx, frequency)
	if err != nil {
		return result.Fail[int](err)
	}

	sent := 0
	for _, r := range recipients {
		if err := ctx.Err(); err != nil {
			return result.Fail[int](models.NewInternalError(err))
		}
		res := s.notifier.Notify(ctx, &models.Notification{
			UserID:  r.UserID,
			Type:    models.NotificationAffirmation,
			Message: Affirmation(r.LanguageTone, r.UserID),
		})
		if !res.IsOk() {
			observability.GlobalLogger.WarnContext(ctx, "affirmation not sent",
				slog.Uint64("user_id", uint64(r.UserID)),
				slog.String("error", res.Err().Error()),
			)
			continue
		}
		if res.Value() {
			sent++
		}
	}
	return result.Ok(sent)
}

// Affirmation picks a message in tone, rotating by seed. Unknown tones are gentle.
func Affirmation(tone string, seed uint) string {
	msgs, ok := affirmations[tone]
	if !ok {
		msgs = affirmations[models.ToneGentle]
	}
	return msgs[int(seed%uint(len(msgs)))]
}
