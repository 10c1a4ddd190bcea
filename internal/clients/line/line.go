package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/DIMO-Network/server-garage/pkg/richerrors"
)

const (
	// ReplyFailureCode is the code returned when a reply could not be delivered
	ReplyFailureCode = -1

	// MaxTextLength is the longest text message the platform accepts, in characters.
	MaxTextLength = 5000

	// Default timeout for reply requests
	defaultReplyTimeout = 30 * time.Second
	// Maximum response body size to read for error logging
	maxResponseBodySize = 1024
)

// ReplyRequest is the body of a reply API call.
type ReplyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []TextMessage `json:"messages"`
}

// TextMessage is a single text message in a reply.
type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ReplyClient delivers reply messages to the messaging platform.
type ReplyClient struct {
	replyURL     string
	channelToken string
	client       *http.Client
}

// NewReplyClient creates a new ReplyClient. A nil client gets a default with a timeout.
func NewReplyClient(replyURL, channelToken string, client *http.Client) (*ReplyClient, error) {
	parsedURL, err := url.Parse(replyURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reply URL: %w", err)
	}
	if client == nil {
		client = &http.Client{
			Timeout: defaultReplyTimeout,
		}
	}
	return &ReplyClient{
		replyURL:     parsedURL.String(),
		channelToken: channelToken,
		client:       client,
	}, nil
}

// Reply sends text as the answer to the event identified by replyToken.
// Returns error for failures, nil for success
func (r *ReplyClient) Reply(ctx context.Context, replyToken, text string) error {
	if replyToken == "" {
		return richerrors.Error{
			Code: ReplyFailureCode,
			Err:  errors.New("missing reply token"),
		}
	}
	body, err := json.Marshal(ReplyRequest{
		ReplyToken: replyToken,
		Messages:   []TextMessage{{Type: "text", Text: TruncateText(text)}},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal reply payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.replyURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.channelToken)

	resp, err := r.client.Do(req)
	if err != nil {
		return richerrors.Error{
			Code: ReplyFailureCode,
			Err:  fmt.Errorf("failed to POST reply: %w", err),
		}
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
		return richerrors.Error{
			Code: ReplyFailureCode,
			Err:  fmt.Errorf("reply API returned status code %d: %s", resp.StatusCode, string(respBody)),
		}
	}
	return nil
}

// TruncateText cuts text to MaxTextLength characters.
func TruncateText(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxTextLength {
		return text
	}
	return string(runes[:MaxTextLength])
}
