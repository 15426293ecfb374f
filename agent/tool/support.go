package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
	storex "github.com/tanpawarit/agentic-services/agent/store"
)

const maxArticles = 10

func (k *toolkit) supportTools() []*Tool {
	return []*Tool{
		{
			Name: ToolLoadKnowledgeBase,
			Desc: "Fetch the active knowledge base articles and return the ones most relevant to the user's question. Always call this first when a user asks a support question.",
			Params: map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Desc: "The user's question or topic so the tool can return the most relevant articles", Required: true},
			},
			Handler: k.loadKnowledgeBase,
		},
		{
			Name: ToolCreateSupportTicket,
			Desc: "Create a support ticket when the user has a specific issue, complaint, or request that needs to be tracked. Use this when the user asks to open a ticket, or when the knowledge base cannot resolve their issue.",
			Params: map[string]*schema.ParameterInfo{
				"subject":          {Type: schema.String, Desc: "Short subject line summarising the user's issue", Required: true},
				"message":          {Type: schema.String, Desc: "Full description of the user's issue or request", Required: true},
				"priority":         {Type: schema.String, Desc: "Urgency level of the ticket", Enum: []string{"low", "medium", "high", "urgent"}, Required: true},
				"referenced_kb_id": {Type: schema.String, Desc: "Id of a related knowledge base article, or empty string '' if not applicable", Required: true},
			},
			RequiresAuth: true,
			AuthMessage:  "You must be signed in to create a support ticket. Please log in and try again.",
			Handler:      k.createSupportTicket,
		},
	}
}

func (k *toolkit) loadKnowledgeBase(ctx context.Context, _ contractx.AgentContext, args Args) contractx.ToolResult {
	articles, err := k.store.ListKBArticles(ctx)
	if err != nil {
		log.Warn().Err(err).Str("tool", ToolLoadKnowledgeBase).Msg("list kb articles failed")
		return FailWith(ToolLoadKnowledgeBase, "Failed to load knowledge base.", map[string]any{"articles": []any{}})
	}
	if len(articles) == 0 {
		return Ok(ToolLoadKnowledgeBase,
			"The knowledge base is currently empty. Please let the user know and offer to create a support ticket.",
			map[string]any{"articles": []any{}})
	}

	results := rank(articles, articleScore(args.String("query")), maxArticles, nil)
	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		a := map[string]any{
			"id":              r.item.ID,
			"title":           r.item.Title,
			"description":     r.item.Description,
			"content":         r.item.Content,
			"relevance_score": r.score,
			"category":        nil,
		}
		if c := r.item.Category; c != nil {
			a["category"] = map[string]any{"name": c.Name, "slug": c.Slug}
		}
		out = append(out, a)
	}
	return Ok(ToolLoadKnowledgeBase, fmt.Sprintf("Loaded %d article(s) from the knowledge base.", len(out)), map[string]any{
		"articles": out,
	})
}

func (k *toolkit) createSupportTicket(ctx context.Context, actx contractx.AgentContext, args Args) contractx.ToolResult {
	subject := args.String("subject")
	message := args.String("message")
	if subject == "" || message == "" {
		return Fail(ToolCreateSupportTicket, "A subject and a message are required to create a support ticket.")
	}

	ticket := &storex.SupportTicket{
		UserID:         actx.User(),
		Subject:        subject,
		Message:        message,
		Priority:       args.String("priority"),
		Status:         storex.TicketStatusOpen,
		ReferencedKBID: args.String("referenced_kb_id"),
		CreatedAt:      k.now().UTC(),
	}
	if err := k.store.CreateSupportTicket(ctx, ticket); err != nil {
		log.Warn().Err(err).Str("tool", ToolCreateSupportTicket).Str("user_id", actx.User()).Msg("create ticket failed")
		return Fail(ToolCreateSupportTicket, "Failed to create support ticket.")
	}

	return Ok(ToolCreateSupportTicket, "Support ticket created successfully.", map[string]any{
		"ticket": map[string]any{
			"id":         ticket.ID,
			"subject":    ticket.Subject,
			"status":     ticket.Status,
			"priority":   ticket.Priority,
			"created_at": ticket.CreatedAt.Format(time.RFC3339),
		},
		"next_steps": []string{
			"Your ticket ID is: " + ticket.ID,
			"Our support team will review your request and get back to you shortly.",
			"You will be notified once there is an update on your ticket.",
		},
	})
}
