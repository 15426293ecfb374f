package orchestratornode

import (
	"context"
	"errors"
	"time"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
	storex "github.com/tanpawarit/agentic-services/agent/store"
)

var (
	ErrMessagesRequired = errors.New("messages is required")
	ErrUnknownAgentType = errors.New("unknown agent type")
)

type GraphInput = contractx.ChatRequest

type GraphOutput = contractx.ChatResponse

// GraphState is threaded through every node of one chat turn.
type GraphState struct {
	Req contractx.ChatRequest
	Now time.Time

	// Input is the newest user message; Transcript is what the specialist sees.
	Input      string
	Transcript string

	AgentType  contractx.AgentType
	Definition contractx.SpecialistDefinition
	Context    contractx.AgentContext

	// Clarifying is set when the intent router asked a question instead of
	// handing off; no specialist runs in that case.
	Clarifying bool
	Reply      string
	ToolCalls  []contractx.ToolCallRecord
}

type ContextResolver interface {
	Resolve(ctx context.Context, bearerToken string) contractx.AgentContext
	EnsureSession(ctx context.Context, actx contractx.AgentContext, sessionID string, def contractx.SpecialistDefinition) (contractx.AgentContext, error)
}

type MessageLog interface {
	AppendMessage(ctx context.Context, in storex.NewMessage) (*storex.Message, error)
	UpdateSessionMetadata(ctx context.Context, id string, meta storex.SessionMetadata) error
}

func bounded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
