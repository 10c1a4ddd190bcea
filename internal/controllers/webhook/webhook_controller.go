package webhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/DIMO-Network/agent-relay/internal/services/relay"
	"github.com/DIMO-Network/server-garage/pkg/richerrors"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentEvents bounds how many events of one delivery are relayed at once.
const maxConcurrentEvents = 4

// Relay answers a single inbound text message.
type Relay interface {
	HandleMessage(ctx context.Context, msg relay.Message) error
}

// WebhookController receives messaging platform webhook deliveries.
type WebhookController struct {
	channelSecret string
	relay         Relay
}

// NewWebhookController creates a new WebhookController.
func NewWebhookController(channelSecret string, r Relay) *WebhookController {
	return &WebhookController{
		channelSecret: channelSecret,
		relay:         r,
	}
}

// ReceiveEvents godoc
// @Summary      Receive webhook events
// @Description  Verifies the delivery signature and relays every text message event to the agent. Responds 200 once all events are handled, even when the agent fails.
// @Tags         Webhook
// @Accept       json
// @Produce      plain
// @Param        X-Line-Signature  header    string           true  "base64 HMAC-SHA256 of the body"
// @Param        request           body      CallbackRequest  true  "Webhook delivery"
// @Success      200               {string}  string           "OK"
// @Failure      400               "Invalid request payload"
// @Failure      403               "Invalid signature"
// @Router       /webhook [post]
func (w *WebhookController) ReceiveEvents(c *fiber.Ctx) error {
	body := c.Body()
	if !ValidSignature(w.channelSecret, body, c.Get(SignatureHeaderKey)) {
		return richerrors.Error{
			ExternalMsg: "Invalid signature",
			Err:         errors.New("webhook signature mismatch"),
			Code:        fiber.StatusForbidden,
		}
	}

	var payload CallbackRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		return richerrors.Error{
			ExternalMsg: "Invalid request payload",
			Err:         err,
			Code:        fiber.StatusBadRequest,
		}
	}

	logger := zerolog.Ctx(c.UserContext()).With().Str("delivery_id", uuid.NewString()).Logger()
	ctx := logger.WithContext(c.UserContext())

	group := new(errgroup.Group)
	group.SetLimit(maxConcurrentEvents)
	for _, event := range payload.Events {
		if !event.IsTextMessage() {
			logger.Debug().Str("event_type", event.Type).Msg("Skipping non-text event")
			continue
		}
		eventLogger := logger.With().Str("webhook_event_id", event.WebhookEventID).Logger()
		if event.DeliveryContext != nil && event.DeliveryContext.IsRedelivery {
			eventLogger.Info().Msg("Handling redelivered event")
		}
		msg := relay.Message{
			UserID:     event.Source.UserID,
			Text:       event.Message.Text,
			ReplyToken: event.ReplyToken,
		}
		group.Go(func() error {
			if err := w.relay.HandleMessage(eventLogger.WithContext(ctx), msg); err != nil {
				eventLogger.Error().Err(err).Msg("Failed to reply to event")
			}
			return nil
		})
	}
	_ = group.Wait()

	return c.SendString("OK")
}
