package tool

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

func TestSearchNavigation(t *testing.T) {
	t.Parallel()

	r := seededCatalog(t)
	res := call(t, r, contractx.AgentTypeNavigator, contractx.AgentContext{}, ToolSearchNavigation, map[string]any{"query": "pricing"})
	if !res.Success {
		t.Fatalf("search_navigation = %+v", res)
	}
	rows := res.Data["results"].([]map[string]any)
	if rows[0]["path"] != "/pricing" || rows[0]["relevance"] != "high" {
		t.Fatalf("top result = %+v", rows[0])
	}
	if len(rows) > maxNavResults {
		t.Fatalf("results = %d, want at most %d", len(rows), maxNavResults)
	}

	res = call(t, r, contractx.AgentTypeNavigator, contractx.AgentContext{}, ToolSearchNavigation, map[string]any{"query": "zzzz"})
	if res.Success {
		t.Fatalf("nonsense query succeeded: %+v", res)
	}
}

func TestGetPageContent(t *testing.T) {
	t.Parallel()

	r := seededCatalog(t)
	full := call(t, r, contractx.AgentTypeNavigator, contractx.AgentContext{}, ToolGetPageContent, map[string]any{"path": "/docs/quickstart", "summarize": "no"})
	summary := call(t, r, contractx.AgentTypeNavigator, contractx.AgentContext{}, ToolGetPageContent, map[string]any{"path": "/docs/quickstart", "summarize": "yes"})
	if !full.Success || !summary.Success {
		t.Fatalf("get_page_content = %+v / %+v", full, summary)
	}
	fullPage := full.Data["page"].(map[string]any)
	summaryPage := summary.Data["page"].(map[string]any)
	if summaryPage["content"] != summaryPage["description"] || fullPage["content"] == fullPage["description"] {
		t.Fatalf("summary content = %v, full content = %v", summaryPage["content"], fullPage["content"])
	}

	missing := call(t, r, contractx.AgentTypeNavigator, contractx.AgentContext{}, ToolGetPageContent, map[string]any{"path": "/nope", "summarize": "no"})
	if missing.Success {
		t.Fatalf("missing page succeeded: %+v", missing)
	}
}

func TestFindRelatedPages(t *testing.T) {
	t.Parallel()

	r := seededCatalog(t)
	res := call(t, r, contractx.AgentTypeNavigator, contractx.AgentContext{}, ToolFindRelatedPages, map[string]any{"current_path": "/docs/quickstart", "topic": ""})
	if !res.Success {
		t.Fatalf("find_related_pages = %+v", res)
	}
	var paths []string
	for _, p := range res.Data["related_pages"].([]map[string]any) {
		paths = append(paths, p["path"].(string))
	}
	if diff := cmp.Diff([]string{"/docs/api", "/docs/authentication"}, paths); diff != "" {
		t.Fatalf("related pages mismatch (-want +got):\n%s", diff)
	}

	res = call(t, r, contractx.AgentTypeNavigator, contractx.AgentContext{}, ToolFindRelatedPages, map[string]any{"current_path": "/docs/quickstart", "topic": "support"})
	related := res.Data["related_pages"].([]map[string]any)
	if len(related) != 4 {
		t.Fatalf("related with topic = %d, want 4", len(related))
	}
}
