package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: specialist returned empty message", contractx.ErrSchemaViolation)
	}

	out := GraphOutput{Response: reply}
	if in.Context.SessionID != nil {
		id := in.Context.Session()
		out.SessionID = &id
	}
	return out, nil
}
