// Package bootstrap wires the runtime shared by the server and the command-line tools.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"crwn/internal/config"
	"crwn/internal/mailer"
	"crwn/internal/observability"
	"crwn/internal/remote"
	"crwn/internal/seed"
	"crwn/internal/service"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty development database with demo data.
	SeedDemo bool
}

// Runtime is an opened backend with its domain services.
type Runtime struct {
	Remote   *remote.Client
	Services *service.Services
}

// Close releases the backend connections.
func (r *Runtime) Close() error {
	return r.Remote.Close()
}

// InitRuntime connects every backing resource and builds the services.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	rc, err := remote.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("remote connection failed: %w", err)
	}

	svc := service.NewServices(rc, service.Options{
		Mailer: mailer.New(mailer.Config{
			APIKey:   cfg.SendGridAPIKey,
			From:     cfg.MailFrom,
			FromName: "CRWN",
		}),
		SupportEmail: cfg.SupportEmail,
	})
	rt := &Runtime{Remote: rc, Services: svc}

	if opts.SeedDemo {
		if err := seedIfEmpty(ctx, cfg, rt); err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}
	return rt, nil
}

func seedIfEmpty(ctx context.Context, cfg *config.Config, rt *Runtime) error {
	if !strings.EqualFold(cfg.Env, "development") {
		return nil
	}
	var n int64
	if err := rt.Remote.DB.WithContext(ctx).Table("profiles").Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		observability.GlobalLogger.DebugContext(ctx, "demo seed skipped", slog.Int64("profiles", n))
		return nil
	}
	_, err := seed.NewSeeder(rt.Services, seed.DefaultOptions()).Run(ctx)
	return err
}
