package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"boardly/internal/api"
	"boardly/internal/api/handlers"
	"boardly/internal/api/middleware"
	"boardly/internal/engine/changelog"
	"boardly/internal/engine/feedback"
	"boardly/internal/engine/integrations"
	"boardly/internal/engine/webhooks"
	"boardly/internal/pkg/logger"
	"boardly/internal/platform/audit"
	"boardly/internal/platform/auth"
	"boardly/internal/platform/config"
	"boardly/internal/platform/database"
	"boardly/internal/platform/repositories"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}

	logger.Init(cfg.Logging)

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("jwt.secret is required")
	}
	if cfg.Integrations.StateSecret == "" {
		cfg.Integrations.StateSecret = cfg.JWT.Secret
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	// Repositories
	orgRepo := repositories.NewOrganizationRepository(db)
	orgCache := repositories.NewOrganizationCache(orgRepo, cfg.Embed.OrgCacheTTL)
	webhookRepo := repositories.NewWebhookRepository(db)
	postRepo := repositories.NewPostRepository(db)
	voteRepo := repositories.NewVoteRepository(db)
	commentRepo := repositories.NewCommentRepository(db)
	changelogRepo := repositories.NewChangelogRepository(db)
	integrationRepo := repositories.NewIntegrationRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	auditLogger := audit.NewLogger(db)
	dispatcher := webhooks.NewDispatcher(webhookRepo, cfg.Webhooks)
	feedbackSvc := feedback.NewService(postRepo, voteRepo, commentRepo, dispatcher)
	changelogSvc := changelog.NewService(changelogRepo, dispatcher)
	integrationSvc := integrations.NewService(cfg.Integrations, integrationRepo)

	deps := &api.Dependencies{
		HealthHandler:      handlers.NewHealthHandler(db),
		OrgHandler:         handlers.NewOrgHandler(orgCache, auditLogger),
		WebhookHandler:     handlers.NewWebhookHandler(webhookRepo, auditLogger),
		PostHandler:        handlers.NewPostHandler(feedbackSvc, auditLogger),
		ChangelogHandler:   handlers.NewChangelogHandler(changelogSvc, auditLogger),
		PublicHandler:      handlers.NewPublicHandler(feedbackSvc, changelogSvc),
		EmbedHandler:       handlers.NewEmbedHandler(orgCache, changelogSvc, cfg.Embed.LoaderCacheMaxAge),
		IntegrationHandler: handlers.NewIntegrationHandler(integrationSvc, integrationRepo),
		AuditHandler:       handlers.NewAuditHandler(auditLogger),
		AuthMiddleware:     middleware.NewAuthMiddleware(tokenSvc),
		TenantMiddleware:   middleware.NewTenantMiddleware(orgCache),
		RateLimit:          middleware.NewRateLimitMiddleware(cfg.RateLimit),
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	// Requests have drained, so no new dispatches can start past this point.
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("webhook deliveries still in flight at shutdown")
	}
	auditLogger.Wait()

	log.Info().Msg("server stopped")
}
