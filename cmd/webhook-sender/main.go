package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/DIMO-Network/agent-relay/internal/config"
	"github.com/DIMO-Network/agent-relay/internal/controllers/webhook"
	"github.com/DIMO-Network/server-garage/pkg/env"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sends a signed text message delivery to a running relay, for local testing.
func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	envFile := flag.String("env-file", ".env", "path to env file")
	target := flag.String("url", "http://localhost:10000/webhook", "relay webhook URL")
	userID := flag.String("user", "U-local-test", "sender user id")
	text := flag.String("text", "hello", "message text")
	flag.Parse()

	settings, err := env.LoadSettings[config.Settings](*envFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("Could not load settings")
	}
	if settings.LineChannelSecret == "" {
		logger.Fatal().Msg("LINE_CHANNEL_SECRET is required to sign the delivery")
	}

	body, err := json.Marshal(newDelivery(*userID, *text, time.Now()))
	if err != nil {
		logger.Fatal().Err(err).Msg("Could not encode delivery")
	}

	req, err := http.NewRequest(http.MethodPost, *target, bytes.NewReader(body))
	if err != nil {
		logger.Fatal().Err(err).Msg("Could not build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhook.SignatureHeaderKey, webhook.ComputeSignature(settings.LineChannelSecret, body))

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		logger.Fatal().Err(err).Msg("Delivery failed")
	}
	defer resp.Body.Close() // nolint:errcheck

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	logger.Info().Int("status_code", resp.StatusCode).Str("body", string(respBody)).Msg("Delivery sent")
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func newDelivery(userID, text string, now time.Time) webhook.CallbackRequest {
	return webhook.CallbackRequest{
		Destination: "local",
		Events: []webhook.Event{{
			Type:           webhook.EventTypeMessage,
			Mode:           "active",
			Timestamp:      now.UnixMilli(),
			WebhookEventID: uuid.NewString(),
			ReplyToken:     fmt.Sprintf("local-%d", now.UnixNano()),
			Source:         webhook.EventSource{Type: "user", UserID: userID},
			Message: &webhook.EventMessage{
				ID:   uuid.NewString(),
				Type: webhook.MessageTypeText,
				Text: text,
			},
			DeliveryContext: &webhook.DeliveryContext{},
		}},
	}
}
