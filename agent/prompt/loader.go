package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

var (
	//go:embed template/orchestrator.txt
	orchestratorRaw string

	//go:embed template/sales.txt
	salesRaw string

	//go:embed template/support.txt
	supportRaw string

	//go:embed template/navigator.txt
	navigatorRaw string

	//go:embed template/assistant.txt
	assistantRaw string
)

// PromptSet holds the trimmed instructions for every agent.
type PromptSet struct {
	Orchestrator string
	Sales        string
	Support      string
	Navigator    string
	Assistant    string
}

func LoadPromptSet() PromptSet {
	return PromptSet{
		Orchestrator: strings.TrimSpace(orchestratorRaw),
		Sales:        strings.TrimSpace(salesRaw),
		Support:      strings.TrimSpace(supportRaw),
		Navigator:    strings.TrimSpace(navigatorRaw),
		Assistant:    strings.TrimSpace(assistantRaw),
	}
}

// For returns the instructions for agentType.
func (p PromptSet) For(agentType contractx.AgentType) (string, error) {
	var out string
	switch agentType {
	case contractx.AgentTypeOrchestrator:
		out = p.Orchestrator
	case contractx.AgentTypeSales:
		out = p.Sales
	case contractx.AgentTypeSupport:
		out = p.Support
	case contractx.AgentTypeNavigator:
		out = p.Navigator
	case contractx.AgentTypeAssistant:
		out = p.Assistant
	}
	if out == "" {
		return "", fmt.Errorf("%w: agent=%s", contractx.ErrPromptMissing, agentType)
	}
	return out, nil
}
