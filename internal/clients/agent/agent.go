package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/DIMO-Network/server-garage/pkg/richerrors"
	"github.com/tidwall/gjson"
)

const (
	// DefaultTimeout bounds a single agent call.
	DefaultTimeout = 10 * time.Second

	// Maximum response body size kept for error logging
	maxResponseBodySize = 1024
)

// ErrTimeout is returned when the agent does not answer within the call timeout.
var ErrTimeout = errors.New("agent request timed out")

// replyPaths are the response locations that may carry the reply text, in priority order.
var replyPaths = []string{
	"output.generic.0.text",
	"output.text",
	"result.message",
	"output.response",
}

// Config identifies the agent deployment messages are sent to.
type Config struct {
	BaseURL       string
	InstanceID    string
	AgentID       string
	EnvironmentID string
	Timeout       time.Duration
}

// MessageRequest is the body sent to the messages endpoint.
type MessageRequest struct {
	Agent    AgentRef     `json:"agent"`
	Input    MessageInput `json:"input"`
	ThreadID string       `json:"thread_id,omitempty"`
}

// AgentRef selects the agent and its environment.
type AgentRef struct {
	ID            string `json:"id"`
	EnvironmentID string `json:"environmentId"`
}

// MessageInput carries the user's text.
type MessageInput struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Reply is the useful part of an agent response.
type Reply struct {
	// Text is empty when the response had no recognised reply field.
	Text     string
	ThreadID string
}

// Client for the conversational agent API.
type Client struct {
	messagesURL    string
	embedConfigURL string
	agent          AgentRef
	timeout        time.Duration
	httpClient     *http.Client
}

// New creates a new Client. A nil httpClient uses http.DefaultClient; the
// per-call bound comes from cfg.Timeout.
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse agent API URL: %w", err)
	}
	if cfg.InstanceID == "" {
		return nil, errors.New("agent instance ID is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	instanceURL := baseURL.JoinPath("instances", cfg.InstanceID)
	return &Client{
		messagesURL:    instanceURL.JoinPath("v1", "messages").String(),
		embedConfigURL: instanceURL.JoinPath("v1", "embed", "secure", "config").String(),
		agent: AgentRef{
			ID:            cfg.AgentID,
			EnvironmentID: cfg.EnvironmentID,
		},
		timeout:    timeout,
		httpClient: httpClient,
	}, nil
}

// SendMessage forwards text to the agent, continuing threadID when it is not empty.
// Non-2xx responses are returned as richerrors.Error with the upstream status as Code.
func (c *Client) SendMessage(ctx context.Context, token, text, threadID string) (*Reply, error) {
	body, err := json.Marshal(MessageRequest{
		Agent:    c.agent,
		Input:    MessageInput{Type: "text", Text: text},
		ThreadID: threadID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal agent request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	respBody, err := c.post(ctx, c.messagesURL, token, body)
	if err != nil {
		return nil, err
	}
	return ParseReply(respBody), nil
}

// DisableEmbedSecurity turns off embedded chat security for the instance.
func (c *Client) DisableEmbedSecurity(ctx context.Context, token string) error {
	body, err := json.Marshal(map[string]any{
		"public_key":          "",
		"client_public_key":   "",
		"is_security_enabled": false,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal embed config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.post(ctx, c.embedConfigURL, token, body); err != nil {
		return fmt.Errorf("failed to disable embed security: %w", err)
	}
	return nil
}

// ParseReply extracts the reply text and thread id from an agent response body.
func ParseReply(body []byte) *Reply {
	reply := &Reply{
		ThreadID: gjson.GetBytes(body, "thread_id").String(),
	}
	for _, path := range replyPaths {
		if text := gjson.GetBytes(body, path).String(); text != "" {
			reply.Text = text
			break
		}
	}
	return reply
}

func (c *Client) post(ctx context.Context, target, token string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create agent request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, fmt.Errorf("failed to POST to agent: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, fmt.Errorf("failed to read agent response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(respBody) > maxResponseBodySize {
			respBody = respBody[:maxResponseBodySize]
		}
		return nil, richerrors.Error{
			Code:        resp.StatusCode,
			ExternalMsg: gjson.GetBytes(respBody, "message").String(),
			Err:         fmt.Errorf("agent returned status code %d: %s", resp.StatusCode, string(respBody)),
		}
	}
	return respBody, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
