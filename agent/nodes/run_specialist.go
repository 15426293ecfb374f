package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

func RunSpecialist(ctx context.Context, in *GraphState, models contractx.Registry) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Clarifying {
		return in, nil
	}

	specialist, ok := models.Specialist(in.AgentType)
	if !ok {
		return nil, contractx.InvalidRequest(ErrUnknownAgentType, "%s %q", ErrUnknownAgentType, in.AgentType)
	}

	resp, err := specialist.Run(ctx, contractx.SpecialistRequest{
		Input:   in.Transcript,
		Context: in.Context,
	})
	if err != nil {
		return nil, err
	}

	in.Reply = strings.TrimSpace(resp.Message)
	in.ToolCalls = resp.ToolCalls
	return in, nil
}
