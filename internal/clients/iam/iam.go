package iam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// APIKeyGrantType is the grant used to trade an API key for a bearer token.
	APIKeyGrantType = "urn:ibm:params:oauth:grant-type:apikey"

	defaultTimeout = 30 * time.Second
	// Maximum response body size kept for diagnostics
	maxResponseBodySize = 1024
)

// TokenResponse is the subset of the identity service response the relay uses.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// AuthenticationError is returned when an API key exchange does not produce a token.
type AuthenticationError struct {
	// StatusCode is the identity service status, 0 when no response was received.
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("token exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("token exchange failed with status code %d: %v: %s", e.StatusCode, e.Err, e.Body)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Client for the identity service token endpoint.
type Client struct {
	tokenURL   string
	apiKey     string
	httpClient *http.Client
}

// New creates a new Client. A nil httpClient gets a default with a timeout.
func New(tokenURL, apiKey string, httpClient *http.Client) (*Client, error) {
	parsedURL, err := url.Parse(tokenURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse IAM token URL: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		tokenURL:   parsedURL.String(),
		apiKey:     apiKey,
		httpClient: httpClient,
	}, nil
}

// ExchangeAPIKey trades the configured API key for a bearer token.
func (c *Client) ExchangeAPIKey(ctx context.Context) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", APIKeyGrantType)
	form.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &AuthenticationError{Err: fmt.Errorf("failed to create token request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AuthenticationError{Err: fmt.Errorf("failed to send token request: %w", err)}
	}
	defer resp.Body.Close() // nolint:errcheck

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AuthenticationError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to read token response body: %w", err),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &AuthenticationError{
			StatusCode: resp.StatusCode,
			Body:       truncate(bodyBytes),
			Err:        errors.New("unexpected status"),
		}
	}

	var token TokenResponse
	if err := json.Unmarshal(bodyBytes, &token); err != nil {
		return nil, &AuthenticationError{
			StatusCode: resp.StatusCode,
			Body:       truncate(bodyBytes),
			Err:        fmt.Errorf("failed to unmarshal token response: %w", err),
		}
	}
	if token.AccessToken == "" {
		return nil, &AuthenticationError{
			StatusCode: resp.StatusCode,
			Body:       truncate(bodyBytes),
			Err:        errors.New("access_token not found in response"),
		}
	}
	return &token, nil
}

func truncate(body []byte) string {
	if len(body) > maxResponseBodySize {
		body = body[:maxResponseBodySize]
	}
	return string(body)
}
