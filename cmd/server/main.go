// Command server is the entry point for the CRWN backend.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crwn/internal/bootstrap"
	"crwn/internal/config"
	"crwn/internal/observability"
	"crwn/internal/scheduler"
	"crwn/internal/server"
)

// @title CRWN API
// @version 1.0.0
// @description Hair care community API: onboarding, profiles, posts and notifications
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@crwn.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "crwn-api",
		ServiceVersion: config.AppVersion,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampler,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedDemo: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	srv := server.NewServer(cfg, rt.Remote, rt.Services)

	jobs, err := scheduler.New(ctx, scheduler.Config{
		DailyAffirmations:  cfg.DailyAffirmationSchedule,
		WeeklyAffirmations: cfg.WeeklyAffirmationSchedule,
		DraftSweep:         "@every 5m",
	}, rt.Services.Affirmations, srv.Drafts())
	if err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}
	jobs.Start()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down server...")
	case err := <-errCh:
		if err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	jobs.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := rt.Close(); err != nil {
		log.Printf("Backend close error: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("Tracing shutdown error: %v", err)
	}
}
