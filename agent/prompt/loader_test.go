package prompt

import (
	"errors"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

func TestLoadPromptSetMentionsTools(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	cases := map[contractx.AgentType][]string{
		contractx.AgentTypeOrchestrator: {"transfer tool"},
		contractx.AgentTypeSales:        {"get_all_products", "search_product", "add_to_cart", "remove_from_cart", "clear_cart", "checkout"},
		contractx.AgentTypeSupport:      {"load_knowledge_base", "create_support_ticket"},
		contractx.AgentTypeNavigator:    {"search_navigation", "get_page_content", "find_related_pages"},
		contractx.AgentTypeAssistant:    {"fetch_tasks", "manage_task", "send_email"},
	}
	for agentType, names := range cases {
		text, err := set.For(agentType)
		if err != nil {
			t.Fatalf("For(%s) error = %v", agentType, err)
		}
		if text != strings.TrimSpace(text) {
			t.Fatalf("For(%s) is not trimmed", agentType)
		}
		for _, name := range names {
			if !strings.Contains(text, name) {
				t.Fatalf("prompt for %s does not mention %q", agentType, name)
			}
		}
	}
}

func TestForUnknownAgent(t *testing.T) {
	t.Parallel()

	_, err := LoadPromptSet().For(contractx.AgentType("billing"))
	if !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("For() error = %v, want ErrPromptMissing", err)
	}
}
