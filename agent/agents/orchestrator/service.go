package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
	nodex "github.com/tanpawarit/agentic-services/agent/nodes"
)

var (
	ErrMessagesRequired = nodex.ErrMessagesRequired
	ErrUnknownAgentType = nodex.ErrUnknownAgentType
)

const defaultStoreTimeout = 5 * time.Second

type Config struct {
	// StoreTimeout bounds each best-effort persistence step.
	StoreTimeout time.Duration `split_words:"true" default:"5s"`
}

type Orchestrator struct {
	models   contractx.Registry
	resolver nodex.ContextResolver
	messages nodex.MessageLog

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	storeTimeout time.Duration
	now          func() time.Time
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func New(
	models contractx.Registry,
	resolver nodex.ContextResolver,
	messages nodex.MessageLog,
	cfg Config,
	opts ...Option,
) (*Orchestrator, error) {
	if models == nil {
		return nil, errors.New("agent registry is required")
	}
	if resolver == nil {
		return nil, errors.New("context resolver is required")
	}
	if messages == nil {
		return nil, errors.New("message log is required")
	}

	storeTimeout := cfg.StoreTimeout
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}

	o := &Orchestrator{
		models:       models,
		resolver:     resolver,
		messages:     messages,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	graphRunner, err := o.compileHandleChatGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleChat runs one conversational turn end to end.
func (o *Orchestrator) HandleChat(ctx context.Context, req contractx.ChatRequest) (contractx.ChatResponse, error) {
	return o.graphRunner.Invoke(ctx, req)
}
