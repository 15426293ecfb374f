package orchestratornode

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
	storex "github.com/tanpawarit/agentic-services/agent/store"
)

// PersistUserMessage appends the newest user message. Failures are logged
// and never fail the turn.
func PersistUserMessage(ctx context.Context, in *GraphState, messages MessageLog, timeout time.Duration) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Context.SessionID == nil {
		return in, nil
	}

	ctx, cancel := bounded(ctx, timeout)
	defer cancel()

	if _, err := messages.AppendMessage(ctx, storex.NewMessage{
		SessionID: in.Context.Session(),
		UserID:    in.Context.User(),
		Role:      string(contractx.RoleUser),
		Content:   in.Input,
		CreatedAt: in.Now,
	}); err != nil {
		log.Error().Err(err).Str("session_id", in.Context.Session()).Msg("persist user message failed")
	}
	return in, nil
}

// PersistReply appends the assistant reply and refreshes the session
// metadata. Failures are logged and never fail the turn.
func PersistReply(ctx context.Context, in *GraphState, messages MessageLog, timeout time.Duration, nowFn func() time.Time) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Context.SessionID == nil || in.Reply == "" {
		return in, nil
	}

	ctx, cancel := bounded(ctx, timeout)
	defer cancel()

	sessionID := in.Context.Session()
	at := nowFn().UTC()
	logger := log.With().Str("session_id", sessionID).Logger()

	if _, err := messages.AppendMessage(ctx, storex.NewMessage{
		SessionID: sessionID,
		UserID:    in.Context.User(),
		Role:      string(contractx.RoleAssistant),
		Content:   in.Reply,
		CreatedAt: at,
	}); err != nil {
		logger.Error().Err(err).Msg("persist assistant message failed")
	}

	if err := messages.UpdateSessionMetadata(ctx, sessionID, storex.SessionMetadata{
		LastUserMessage: in.Input,
		LastAIMessage:   in.Reply,
		LastMessageAt:   at,
	}); err != nil {
		logger.Error().Err(err).Msg("update session metadata failed")
	}
	return in, nil
}
