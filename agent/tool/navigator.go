package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
	storex "github.com/tanpawarit/agentic-services/agent/store"
)

const (
	maxNavResults     = 5
	maxTopicRelations = 2
)

func (k *toolkit) navigatorTools() []*Tool {
	return []*Tool{
		{
			Name: ToolSearchNavigation,
			Desc: "Search the website's pages to find where something lives. Returns page titles, routes, step-by-step directions and a relevance label. Use this when users ask 'where can I find...' or 'how do I...'.",
			Params: map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Desc: "The user's intent or question, e.g. 'how do I change my plan' or 'billing settings'", Required: true},
			},
			Handler: k.searchNavigation,
		},
		{
			Name: ToolGetPageContent,
			Desc: "Retrieve the content of one page by its exact route. Use when the user asks what is on a specific page.",
			Params: map[string]*schema.ParameterInfo{
				"path":      {Type: schema.String, Desc: "Exact page route, e.g. '/docs/quickstart'", Required: true},
				"summarize": {Type: schema.String, Desc: "'yes' returns only the short description, 'no' returns the full content", Enum: []string{"yes", "no"}, Required: true},
			},
			Handler: k.getPageContent,
		},
		{
			Name: ToolFindRelatedPages,
			Desc: "Find pages related to the current page or a topic. Use when the user finishes reading a page or asks what else to read.",
			Params: map[string]*schema.ParameterInfo{
				"current_path": {Type: schema.String, Desc: "Route of the page the user is on", Required: true},
				"topic":        {Type: schema.String, Desc: "Optional topic to widen the search. Use empty string '' if none.", Required: true},
			},
			Handler: k.findRelatedPages,
		},
	}
}

func pageSummary(p storex.NavPath) map[string]any {
	out := map[string]any{
		"path":        p.Route,
		"title":       p.Title,
		"description": p.Description,
		"section":     "",
	}
	if p.Module != nil {
		out["section"] = p.Module.Slug
	}
	return out
}

func (k *toolkit) loadPages(ctx context.Context, tool string) ([]storex.NavPath, *contractx.ToolResult) {
	pages, err := k.store.ListNavPaths(ctx)
	if err != nil {
		log.Warn().Err(err).Str("tool", tool).Msg("list nav paths failed")
		res := Fail(tool, "Could not load the site map right now.")
		return nil, &res
	}
	return pages, nil
}

func (k *toolkit) searchNavigation(ctx context.Context, _ contractx.AgentContext, args Args) contractx.ToolResult {
	query := args.String("query")
	pages, failed := k.loadPages(ctx, ToolSearchNavigation)
	if failed != nil {
		return *failed
	}

	results := rank(pages, pageScore(query), maxNavResults, positive)
	if len(results) == 0 {
		return FailWith(ToolSearchNavigation, fmt.Sprintf("No pages found for %q. Try different keywords or browse our main sections.", query), map[string]any{
			"suggestions": []string{
				"Check the /docs section for documentation",
				"Visit /products for product information",
				"See /support for help and FAQs",
			},
		})
	}

	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		p := pageSummary(r.item)
		p["steps"] = r.item.Steps
		p["relevance"] = relevanceLabel(r.score)
		out = append(out, p)
	}
	return Ok(ToolSearchNavigation, fmt.Sprintf("Found %d page(s) matching %q.", len(out), query), map[string]any{
		"results":      out,
		"search_query": query,
	})
}

func findPage(pages []storex.NavPath, route string) (storex.NavPath, bool) {
	for _, p := range pages {
		if p.Route == route {
			return p, true
		}
	}
	return storex.NavPath{}, false
}

func (k *toolkit) getPageContent(ctx context.Context, _ contractx.AgentContext, args Args) contractx.ToolResult {
	route := args.String("path")
	pages, failed := k.loadPages(ctx, ToolGetPageContent)
	if failed != nil {
		return *failed
	}

	page, ok := findPage(pages, route)
	if !ok {
		return FailWith(ToolGetPageContent, fmt.Sprintf("Page %q not found. Please verify the path.", route), map[string]any{
			"suggestion": "Use the search_navigation tool to find the correct page path.",
		})
	}

	summarize := args.String("summarize") == "yes"
	out := pageSummary(page)
	out["keywords"] = page.Keywords
	out["steps"] = page.Steps
	out["related_pages"] = page.RelatedRoutes
	out["content"] = page.Content
	msg := "Showing full page content."
	if summarize {
		out["content"] = page.Description
		msg = "Showing page summary. Set summarize to 'no' for full content."
	}
	return Ok(ToolGetPageContent, msg, map[string]any{"page": out})
}

func (k *toolkit) findRelatedPages(ctx context.Context, _ contractx.AgentContext, args Args) contractx.ToolResult {
	route := args.String("current_path")
	pages, failed := k.loadPages(ctx, ToolFindRelatedPages)
	if failed != nil {
		return *failed
	}

	page, ok := findPage(pages, route)
	if !ok {
		return Fail(ToolFindRelatedPages, fmt.Sprintf("Page %q not found.", route))
	}

	explicit := make(map[string]bool, len(page.RelatedRoutes))
	for _, r := range page.RelatedRoutes {
		explicit[r] = true
	}

	var related []storex.NavPath
	for _, p := range pages {
		if explicit[p.Route] {
			related = append(related, p)
		}
	}

	if topic := args.String("topic"); topic != "" {
		matches := 0
		matchesTopic := pageMatchesTopic(topic)
		for _, p := range pages {
			if matches == maxTopicRelations {
				break
			}
			if p.Route == route || explicit[p.Route] || !matchesTopic(p) {
				continue
			}
			related = append(related, p)
			matches++
		}
	}

	current := map[string]any{"path": page.Route, "title": page.Title}
	if len(related) == 0 {
		return Ok(ToolFindRelatedPages, "No related pages found.", map[string]any{
			"current_page":  current,
			"related_pages": []any{},
		})
	}

	out := make([]map[string]any, 0, len(related))
	for _, p := range related {
		out = append(out, pageSummary(p))
	}
	return Ok(ToolFindRelatedPages, fmt.Sprintf("Found %d related page(s).", len(out)), map[string]any{
		"current_page":  current,
		"related_pages": out,
	})
}
