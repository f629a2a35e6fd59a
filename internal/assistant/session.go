// Package assistant exposes the public turn-level API: a Session binds a
// compiled graph runner to one conversation and resolves user turns.
package assistant

import (
	"context"
	"time"

	"github.com/depato-store/shopper-assistant/internal/assistant/graph"
	"github.com/depato-store/shopper-assistant/internal/assistant/metrics"
	"github.com/depato-store/shopper-assistant/internal/assistant/model"
	logx "github.com/depato-store/shopper-assistant/pkg/logger"
)

const defaultTurnTimeout = 90 * time.Second

// Session handles one conversation. Turns are resolved strictly one at a
// time by the caller; the session itself holds no mutable turn state.
type Session struct {
	runner         graph.Runner
	conversationID string
	turnTimeout    time.Duration
}

// NewSession binds a runner to a conversation. The turn timeout comes from
// ConversationConfig; an unparseable value falls back to the default.
func NewSession(runner graph.Runner, conversationID string, conv model.ConversationConfig) *Session {
	timeout, err := time.ParseDuration(conv.Turn.Timeout)
	if err != nil || timeout <= 0 {
		timeout = defaultTurnTimeout
	}
	return &Session{
		runner:         runner,
		conversationID: conversationID,
		turnTimeout:    timeout,
	}
}

// HandleTurn resolves one user turn end-to-end under the turn deadline and
// returns the assistant's reply.
func (s *Session) HandleTurn(ctx context.Context, userText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.turnTimeout)
	defer cancel()

	start := time.Now()
	out, err := s.runner.Invoke(ctx, model.QueryInput{
		ConversationID: s.conversationID,
		Query:          userText,
	})
	metrics.TurnDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		logx.Error().
			Str("conversation_id", s.conversationID).
			Err(err).
			Msg("turn failed")
		return "", err
	}
	return out, nil
}
