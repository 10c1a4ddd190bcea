package app

import (
	"context"
	"fmt"
	"time"

	_ "github.com/DIMO-Network/agent-relay/docs" // Import Swagger docs
	"github.com/DIMO-Network/agent-relay/internal/clients/agent"
	"github.com/DIMO-Network/agent-relay/internal/clients/iam"
	"github.com/DIMO-Network/agent-relay/internal/clients/line"
	"github.com/DIMO-Network/agent-relay/internal/config"
	"github.com/DIMO-Network/agent-relay/internal/controllers/webhook"
	"github.com/DIMO-Network/agent-relay/internal/services/relay"
	"github.com/DIMO-Network/agent-relay/internal/services/sessions"
	"github.com/DIMO-Network/server-garage/pkg/fibercommon"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/rs/zerolog"
)

const sessionReportInterval = 10 * time.Minute

func CreateServers(ctx context.Context, settings *config.Settings, logger zerolog.Logger) (*fiber.App, error) {
	iamClient, err := iam.New(settings.IAMTokenURL, settings.WatsonxAPIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create IAM client: %w", err)
	}
	tokenCache := iam.NewTokenCache(iamClient, settings.TokenRefreshLeeway)

	agentClient, err := agent.New(agent.Config{
		BaseURL:       settings.AgentAPIURL,
		InstanceID:    settings.AgentInstanceID,
		AgentID:       settings.AgentID,
		EnvironmentID: settings.AgentEnvironmentID,
		Timeout:       settings.AgentTimeout,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent client: %w", err)
	}

	replyClient, err := line.NewReplyClient(settings.LineReplyURL, settings.LineChannelToken, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create reply client: %w", err)
	}

	sessionStore := sessions.NewStore(settings.SessionTTL, settings.SessionCleanupInterval)
	go reportSessions(ctx, logger, sessionStore)

	if settings.DisableEmbedSecurity {
		disableEmbedSecurity(ctx, logger, tokenCache, agentClient)
	}

	relayService := relay.New(tokenCache, agentClient, sessionStore, replyClient)
	webhookController := webhook.NewWebhookController(settings.LineChannelSecret, relayService)

	return CreateFiberApp(logger, webhookController), nil
}

// CreateFiberApp sets up the API routes.
func CreateFiberApp(logger zerolog.Logger, webhookController *webhook.WebhookController) *fiber.App {
	logger.Info().Msg("Starting Agent Relay...")

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return fibercommon.ErrorHandler(c, err)
		},
		DisableStartupMessage: true,
	})
	app.Use(fibercommon.ContextLoggerMiddleware)

	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("LINE webhook relay is running")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"data": "Server is up and running",
		})
	})

	logger.Info().Msg("Registering routes...")
	app.Post("/webhook", webhookController.ReceiveEvents)

	return app
}

// disableEmbedSecurity turns off embedded chat security on the agent instance.
// Failures are logged; the relay still serves webhooks.
func disableEmbedSecurity(ctx context.Context, logger zerolog.Logger, tokens *iam.TokenCache, agentClient *agent.Client) {
	ctx = logger.WithContext(ctx)
	token, err := tokens.AcquireToken(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Could not disable embed security")
		return
	}
	if err := agentClient.DisableEmbedSecurity(ctx, token); err != nil {
		logger.Warn().Err(err).Msg("Could not disable embed security")
		return
	}
	logger.Info().Msg("Embed security disabled successfully")
}

// reportSessions periodically logs how many conversations are being tracked.
func reportSessions(ctx context.Context, logger zerolog.Logger, store *sessions.Store) {
	ticker := time.NewTicker(sessionReportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info().Int("session_count", store.Count()).Msg("Conversation sessions")
		}
	}
}
