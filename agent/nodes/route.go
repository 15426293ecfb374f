package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

// Route picks the specialist for the turn. A known agent type is a direct
// table lookup; the orchestrator type asks the intent router.
func Route(ctx context.Context, in *GraphState, models contractx.Registry) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if in.AgentType == contractx.AgentTypeOrchestrator {
		decision, err := models.Router().Route(ctx, contractx.RouteRequest{Input: in.Transcript})
		if err != nil {
			return nil, err
		}
		if !decision.HandedOff() {
			in.Clarifying = true
			in.Reply = decision.Reply
			def, ok := models.Definition(contractx.AgentTypeOrchestrator)
			if !ok {
				return nil, fmt.Errorf("%w: no definition for %s", contractx.ErrValidation, contractx.AgentTypeOrchestrator)
			}
			in.Definition = def
			return in, nil
		}
		log.Debug().Str("agent_type", string(decision.AgentType)).Str("reason", decision.Reason).Msg("intent routed")
		in.AgentType = decision.AgentType
	}

	def, ok := models.Definition(in.AgentType)
	if !ok {
		return nil, contractx.InvalidRequest(ErrUnknownAgentType, "%s %q", ErrUnknownAgentType, in.AgentType)
	}
	in.Definition = def
	return in, nil
}
