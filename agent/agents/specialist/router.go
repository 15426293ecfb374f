package specialist

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
	toolx "github.com/tanpawarit/agentic-services/agent/tool"
)

// routerImpl is the intent-based orchestrator. Its only tools are the
// handoff tools, so it can pick a specialist or ask a question, nothing else.
type routerImpl struct {
	instructions string
	step         modelStep
	tools        contractx.ToolGateway
}

var _ contractx.Router = (*routerImpl)(nil)

func newRouter(
	ctx context.Context,
	instructions string,
	chatModel einomodel.ToolCallingChatModel,
	toolInfos []*schema.ToolInfo,
	tools contractx.ToolGateway,
	cfg Config,
) (*routerImpl, error) {
	if strings.TrimSpace(instructions) == "" {
		return nil, fmt.Errorf("%w: agent=%s", contractx.ErrPromptMissing, contractx.AgentTypeOrchestrator)
	}
	toolModel, err := chatModel.WithTools(toolInfos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind handoff tools: %v", contractx.ErrModelInvoke, err)
	}
	runner, err := compileModelStepGraph(ctx, toolModel, "router.model_step")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	return &routerImpl{
		instructions: instructions,
		step:         modelStep{runner: runner, timeout: cfg.ModelTimeout},
		tools:        tools,
	}, nil
}

func (r *routerImpl) Route(ctx context.Context, req contractx.RouteRequest) (contractx.RouteDecision, error) {
	input := strings.TrimSpace(req.Input)
	if input == "" {
		return contractx.RouteDecision{}, fmt.Errorf("%w: route input is required", contractx.ErrValidation)
	}

	msg, err := r.step.generate(ctx, []*schema.Message{
		schema.SystemMessage(r.instructions),
		schema.UserMessage(input),
	})
	if err != nil {
		return contractx.RouteDecision{}, fmt.Errorf("router: %w", err)
	}

	if len(msg.ToolCalls) == 0 {
		reply := strings.TrimSpace(msg.Content)
		if reply == "" {
			return contractx.RouteDecision{}, fmt.Errorf("%w: router returned neither a handoff nor a question", contractx.ErrSchemaViolation)
		}
		return contractx.RouteDecision{Reply: reply}, nil
	}
	if len(msg.ToolCalls) > 1 {
		log.Warn().Int("tool_calls", len(msg.ToolCalls)).Msg("router emitted several handoffs, using the first")
	}

	call := msg.ToolCalls[0]
	name := strings.TrimSpace(call.Function.Name)
	args, err := decodeArgs(call.Function.Arguments)
	if err != nil {
		return contractx.RouteDecision{}, fmt.Errorf("router handoff=%s: %w", name, err)
	}

	res, err := r.tools.Execute(ctx, contractx.AgentTypeOrchestrator, contractx.AgentContext{}, contractx.ToolRequest{Tool: name, Args: args})
	if err != nil {
		return contractx.RouteDecision{}, fmt.Errorf("%w: router called %s: %v", contractx.ErrSchemaViolation, name, err)
	}
	target, ok := toolx.HandoffTarget(name)
	if !ok || !res.Success {
		return contractx.RouteDecision{}, fmt.Errorf("%w: %s is not a handoff", contractx.ErrSchemaViolation, name)
	}

	reason, _ := args["reason"].(string)
	log.Info().Str("agent_type", string(target)).Str("reason", reason).Msg("router handed off")
	return contractx.RouteDecision{AgentType: target, Reason: strings.TrimSpace(reason)}, nil
}
