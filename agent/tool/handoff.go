package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

// HandoffToolName is the orchestrator tool that transfers a conversation to
// the given specialist.
func HandoffToolName(agentType contractx.AgentType) string {
	return fmt.Sprintf("transfer_to_%s_agent", agentType)
}

// HandoffTarget maps a handoff tool name back to its specialist.
func HandoffTarget(name string) (contractx.AgentType, bool) {
	for _, t := range contractx.SpecialistTypes {
		if HandoffToolName(t) == name {
			return t, true
		}
	}
	return "", false
}

var handoffDescriptions = map[contractx.AgentType]string{
	contractx.AgentTypeSales:     "Hand off to the Sales Agent for browsing products, prices, stock, the shopping cart and checkout.",
	contractx.AgentTypeSupport:   "Hand off to the Customer Support Agent for account, billing, order or technical problems and support tickets.",
	contractx.AgentTypeNavigator: "Hand off to the Website Navigator to find pages, documentation and where something lives on the site.",
	contractx.AgentTypeAssistant: "Hand off to the Personal Assistant for the user's tasks, to-dos and sending emails.",
}

func handoffTools() []*Tool {
	tools := make([]*Tool, 0, len(contractx.SpecialistTypes))
	for _, target := range contractx.SpecialistTypes {
		target := target
		tools = append(tools, &Tool{
			Name: HandoffToolName(target),
			Desc: handoffDescriptions[target],
			Params: map[string]*schema.ParameterInfo{
				"reason": {Type: schema.String, Desc: "One short sentence explaining why this specialist fits the request", Required: true},
			},
			Handler: func(_ context.Context, _ contractx.AgentContext, args Args) contractx.ToolResult {
				return Ok(HandoffToolName(target), "Transferring conversation.", map[string]any{
					"agent_type": string(target),
					"reason":     args.String("reason"),
				})
			},
		})
	}
	return tools
}
