package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/DIMO-Network/agent-relay/internal/clients/agent"
	"github.com/DIMO-Network/server-garage/pkg/richerrors"
	"github.com/rs/zerolog"
)

// User-facing replies sent when the agent cannot answer.
const (
	MsgAuthFailed      = "Sorry, I couldn't connect to the assistant right now. Please try again later."
	MsgReauthenticate  = "The assistant session expired. Please send your message again."
	MsgNotFound        = "The assistant could not be found. Please contact the administrator."
	MsgTimeout         = "The assistant took too long to respond. Please try again."
	MsgUnavailable     = "The assistant is unreachable right now. Please try again later."
	MsgUpstreamFailure = "The assistant returned an error (status %d). Please try again later."
	FallbackReply      = "Sorry, I didn't understand that."
)

// TokenSource supplies bearer tokens for the agent API.
type TokenSource interface {
	AcquireToken(ctx context.Context) (string, error)
	Invalidate()
}

// AgentClient sends a user's message to the agent.
type AgentClient interface {
	SendMessage(ctx context.Context, token, text, threadID string) (*agent.Reply, error)
}

// SessionStore tracks the agent thread of each user.
type SessionStore interface {
	GetThread(userID string) (string, bool)
	RecordThread(userID, threadID string)
	Forget(userID string)
}

// Replier delivers the answer back to the messaging platform.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// Message is one inbound text message.
type Message struct {
	UserID     string
	Text       string
	ReplyToken string
}

// Relay forwards user messages to the agent and answers with the agent's reply.
type Relay struct {
	tokens   TokenSource
	agent    AgentClient
	sessions SessionStore
	replier  Replier
}

// New creates a new Relay.
func New(tokens TokenSource, agentClient AgentClient, sessions SessionStore, replier Replier) *Relay {
	return &Relay{
		tokens:   tokens,
		agent:    agentClient,
		sessions: sessions,
		replier:  replier,
	}
}

// HandleMessage answers msg. The returned error only reports a failed reply
// delivery; agent failures are turned into a user-facing reply.
func (r *Relay) HandleMessage(ctx context.Context, msg Message) error {
	text := r.Respond(ctx, msg)
	if err := r.replier.Reply(ctx, msg.ReplyToken, text); err != nil {
		repliesTotal.WithLabelValues(outcomeDeliveryFailed).Inc()
		return fmt.Errorf("failed to deliver reply: %w", err)
	}
	return nil
}

// Respond asks the agent about msg and returns the text to send back.
func (r *Relay) Respond(ctx context.Context, msg Message) string {
	logger := zerolog.Ctx(ctx).With().Str("user_id", msg.UserID).Logger()

	token, err := r.tokens.AcquireToken(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to acquire IAM token")
		repliesTotal.WithLabelValues(outcomeAuthFailed).Inc()
		return MsgAuthFailed
	}

	threadID, _ := r.sessions.GetThread(msg.UserID)
	reply, err := r.agent.SendMessage(ctx, token, msg.Text, threadID)
	if err != nil {
		return r.failureReply(&logger, msg.UserID, threadID, err)
	}

	if reply.ThreadID != "" {
		r.sessions.RecordThread(msg.UserID, reply.ThreadID)
	}
	if reply.Text == "" {
		logger.Warn().Str("thread_id", reply.ThreadID).Msg("Agent response had no reply text")
		repliesTotal.WithLabelValues(outcomeFallback).Inc()
		return FallbackReply
	}
	repliesTotal.WithLabelValues(outcomeReplied).Inc()
	return reply.Text
}

func (r *Relay) failureReply(logger *zerolog.Logger, userID, threadID string, err error) string {
	if errors.Is(err, agent.ErrTimeout) {
		logger.Warn().Err(err).Msg("Agent call timed out")
		repliesTotal.WithLabelValues(outcomeTimeout).Inc()
		return MsgTimeout
	}

	richErr, ok := richerrors.AsRichError(err)
	if !ok {
		logger.Error().Err(err).Msg("Agent call failed")
		repliesTotal.WithLabelValues(outcomeUnavailable).Inc()
		return MsgUnavailable
	}

	logger.Error().Err(err).Int("status_code", richErr.Code).Msg("Agent rejected message")
	switch richErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		r.tokens.Invalidate()
		repliesTotal.WithLabelValues(outcomeRejected).Inc()
		return MsgReauthenticate
	case http.StatusNotFound:
		// a stale thread is the usual culprit once the deployment is configured
		if threadID != "" {
			r.sessions.Forget(userID)
		}
		repliesTotal.WithLabelValues(outcomeNotFound).Inc()
		return MsgNotFound
	default:
		repliesTotal.WithLabelValues(outcomeUpstreamError).Inc()
		return fmt.Sprintf(MsgUpstreamFailure, richErr.Code)
	}
}
