package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

const defaultMaxToolIterations = 8

type specialistImpl struct {
	def           contractx.SpecialistDefinition
	step          modelStep
	tools         contractx.ToolGateway
	maxIterations int

	runtimeRunner compose.Runnable[contractx.SpecialistRequest, contractx.SpecialistResponse]
}

var _ contractx.Specialist = (*specialistImpl)(nil)

func newSpecialist(
	ctx context.Context,
	def contractx.SpecialistDefinition,
	chatModel einomodel.ToolCallingChatModel,
	toolInfos []*schema.ToolInfo,
	tools contractx.ToolGateway,
	cfg Config,
) (*specialistImpl, error) {
	if strings.TrimSpace(def.Instructions) == "" {
		return nil, fmt.Errorf("%w: agent=%s", contractx.ErrPromptMissing, def.AgentType)
	}
	if tools == nil {
		return nil, fmt.Errorf("%w: tool gateway is required for agent=%s", contractx.ErrValidation, def.AgentType)
	}

	toolModel, err := chatModel.WithTools(toolInfos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for specialist=%s: %v", contractx.ErrModelInvoke, def.AgentType, err)
	}
	runner, err := compileModelStepGraph(ctx, toolModel, "specialist."+string(def.AgentType)+".model_step")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	maxIterations := cfg.MaxToolIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxToolIterations
	}

	s := &specialistImpl{
		def:           def,
		step:          modelStep{runner: runner, timeout: cfg.ModelTimeout},
		tools:         tools,
		maxIterations: maxIterations,
	}

	runtimeRunner, err := compileSpecialistRuntimeGraph(ctx, def.AgentType, s.runToolLoop)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	s.runtimeRunner = runtimeRunner
	return s, nil
}

func (s *specialistImpl) Definition() contractx.SpecialistDefinition {
	return s.def
}

func (s *specialistImpl) Run(ctx context.Context, req contractx.SpecialistRequest) (contractx.SpecialistResponse, error) {
	return s.runtimeRunner.Invoke(ctx, req)
}

// runToolLoop lets the model call tools until it answers in plain text.
// Calls run one at a time in the order the model listed them, and every
// result goes back to the model before its next decision.
func (s *specialistImpl) runToolLoop(ctx context.Context, req contractx.SpecialistRequest) (contractx.SpecialistResponse, error) {
	logger := log.With().
		Str("agent_type", string(s.def.AgentType)).
		Str("session_id", req.Context.Session()).
		Logger()

	msgs := []*schema.Message{
		schema.SystemMessage(s.def.Instructions),
		schema.UserMessage(req.Input),
	}
	var records []contractx.ToolCallRecord

	for i := 0; i < s.maxIterations; i++ {
		msg, err := s.step.generate(ctx, msgs)
		if err != nil {
			return contractx.SpecialistResponse{}, fmt.Errorf("specialist=%s: %w", s.def.AgentType, err)
		}

		if len(msg.ToolCalls) == 0 {
			content := strings.TrimSpace(msg.Content)
			if content == "" {
				return contractx.SpecialistResponse{}, fmt.Errorf("%w: specialist=%s returned an empty message", contractx.ErrSchemaViolation, s.def.AgentType)
			}
			logger.Debug().Int("iterations", i+1).Int("tool_calls", len(records)).Msg("specialist answered")
			return contractx.SpecialistResponse{Message: content, ToolCalls: records}, nil
		}

		msgs = append(msgs, msg)
		for _, call := range msg.ToolCalls {
			result, record := s.execute(ctx, req.Context, call)
			records = append(records, record)

			payload, err := json.Marshal(result)
			if err != nil {
				return contractx.SpecialistResponse{}, fmt.Errorf("marshal tool result for tool=%s: %w", record.Tool, err)
			}
			msgs = append(msgs, schema.ToolMessage(string(payload), call.ID))
		}
	}

	return contractx.SpecialistResponse{}, fmt.Errorf("%w: specialist=%s stopped after %d iterations",
		contractx.ErrToolLoopExhausted, s.def.AgentType, s.maxIterations)
}

func (s *specialistImpl) execute(ctx context.Context, actx contractx.AgentContext, call schema.ToolCall) (contractx.ToolResult, contractx.ToolCallRecord) {
	name := strings.TrimSpace(call.Function.Name)
	record := contractx.ToolCallRecord{Tool: name}

	args, err := decodeArgs(call.Function.Arguments)
	if err != nil {
		log.Warn().Err(err).Str("agent_type", string(s.def.AgentType)).Str("tool", name).Msg("tool call rejected: malformed arguments")
		record.Blocked = true
		return contractx.ToolResult{Tool: name, Message: "Invalid arguments: expected a JSON object."}, record
	}

	result, err := s.tools.Execute(ctx, s.def.AgentType, actx, contractx.ToolRequest{Tool: name, Args: args})
	if err != nil {
		record.Blocked = true
	}
	record.Success = result.Success
	return result, record
}

func decodeArgs(raw string) (map[string]any, error) {
	args := map[string]any{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrSchemaViolation, err)
	}
	return args, nil
}

type Config struct {
	MaxToolIterations int           `split_words:"true" default:"8"`
	ModelTimeout      time.Duration `split_words:"true" default:"45s"`
}
