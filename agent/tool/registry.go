package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

const defaultToolTimeout = 20 * time.Second

// Registry holds every tool and the subset each agent type may call.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]*Tool
	toolsets map[contractx.AgentType][]string
	timeout  time.Duration
}

var _ contractx.ToolGateway = (*Registry)(nil)

type RegistryOption func(*Registry)

// WithTimeout bounds a single tool execution. Zero or negative disables it.
func WithTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.timeout = d
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		tools:    make(map[string]*Tool),
		toolsets: make(map[contractx.AgentType][]string),
		timeout:  defaultToolTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Register(t *Tool) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, t.Name)
	}
	r.tools[t.Name] = t
	return nil
}

func (r *Registry) MustRegister(t *Tool) {
	if err := r.Register(t); err != nil {
		panic(fmt.Sprintf("register tool: %v", err))
	}
}

// Bind sets the tools an agent type may call. Every name must be registered.
func (r *Registry) Bind(agentType contractx.AgentType, names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range names {
		if _, ok := r.tools[name]; !ok {
			return fmt.Errorf("%w: bind %s to agent=%s", contractx.ErrToolNotFound, name, agentType)
		}
	}
	r.toolsets[agentType] = append([]string(nil), names...)
	return nil
}

func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Toolset returns the tool names bound to agentType in binding order.
func (r *Registry) Toolset(agentType contractx.AgentType) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.toolsets[agentType]...)
}

// InfosFor returns the schemas handed to the model for agentType.
func (r *Registry) InfosFor(agentType contractx.AgentType) []*schema.ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.toolsets[agentType]
	infos := make([]*schema.ToolInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, r.tools[name].Info())
	}
	return infos
}

func (r *Registry) allowed(agentType contractx.AgentType, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.toolsets[agentType] {
		if n == name {
			return true
		}
	}
	return false
}

// Execute runs one tool call for agentType. Calls outside the agent's
// toolset, unknown tools and invalid arguments are rejected before any
// handler runs: the returned result is a failure envelope and the error
// says why. Domain failures come back as a failure envelope with a nil error.
func (r *Registry) Execute(
	ctx context.Context,
	agentType contractx.AgentType,
	actx contractx.AgentContext,
	req contractx.ToolRequest,
) (contractx.ToolResult, error) {
	logger := log.With().Str("agent_type", string(agentType)).Str("tool", req.Tool).Logger()

	if !r.allowed(agentType, req.Tool) {
		if _, known := r.Get(req.Tool); !known {
			logger.Warn().Msg("tool call rejected: unknown tool")
			return Fail(req.Tool, fmt.Sprintf("Tool %q does not exist.", req.Tool)),
				fmt.Errorf("%w: %s", contractx.ErrToolNotFound, req.Tool)
		}
		logger.Warn().Msg("tool call rejected: not in agent toolset")
		return Fail(req.Tool, fmt.Sprintf("Tool %q is not available to this agent.", req.Tool)),
			fmt.Errorf("%w: tool=%s agent=%s", contractx.ErrToolNotAllowed, req.Tool, agentType)
	}

	t, ok := r.Get(req.Tool)
	if !ok {
		return Fail(req.Tool, fmt.Sprintf("Tool %q does not exist.", req.Tool)),
			fmt.Errorf("%w: %s", contractx.ErrToolNotFound, req.Tool)
	}

	args := req.Args
	if args == nil {
		args = map[string]any{}
	}
	if err := validateArgs(t, args); err != nil {
		logger.Warn().Err(err).Msg("tool call rejected: invalid arguments")
		return Fail(t.Name, "Invalid arguments: "+err.Error()), err
	}

	if t.RequiresAuth && !actx.Authenticated() {
		msg := t.AuthMessage
		if msg == "" {
			msg = "Not authenticated."
		}
		logger.Info().Msg("tool call blocked: caller is not authenticated")
		return Fail(t.Name, msg), nil
	}

	return r.run(ctx, t, actx, Args(args)), nil
}

func (r *Registry) run(ctx context.Context, t *Tool, actx contractx.AgentContext, args Args) (out contractx.ToolResult) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("tool", t.Name).Interface("panic", rec).Msg("tool handler panicked")
			out = Fail(t.Name, "The tool failed unexpectedly.")
		}
		if !out.Success && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			out = Fail(t.Name, "The tool timed out. Please try again.")
		}
		out.Tool = t.Name
		log.Debug().
			Str("tool", t.Name).
			Bool("success", out.Success).
			Dur("duration", time.Since(start)).
			Msg("tool executed")
	}()

	return t.Handler(ctx, actx, args)
}
