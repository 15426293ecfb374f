// Package api exposes the agent services over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
	storex "github.com/tanpawarit/agentic-services/agent/store"
)

const maxBodyBytes = 1 << 20

type ChatService interface {
	HandleChat(ctx context.Context, req contractx.ChatRequest) (contractx.ChatResponse, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (*storex.User, error)
}

type AccountStore interface {
	GetSession(ctx context.Context, id string) (*storex.Session, error)
	ListSessions(ctx context.Context, userID string, limit int) ([]storex.Session, error)
	ListMessages(ctx context.Context, sessionID string) ([]storex.Message, error)
	GetCartItems(ctx context.Context, userID string) ([]storex.CartItem, error)
	ListInvoices(ctx context.Context, userID string) ([]storex.Invoice, error)
	ListTasks(ctx context.Context, userID string, filter storex.TaskFilter, now time.Time) ([]storex.Task, error)
	ListSupportTickets(ctx context.Context, userID string) ([]storex.SupportTicket, error)
}

// Handler serves the chat endpoint and the signed-in account views.
type Handler struct {
	chat     ChatService
	auth     Authenticator
	accounts AccountStore
	now      func() time.Time
}

func NewHandler(chat ChatService, auth Authenticator, accounts AccountStore) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("chat service is required")
	}
	if auth == nil {
		return nil, errors.New("authenticator is required")
	}
	if accounts == nil {
		return nil, errors.New("account store is required")
	}
	return &Handler{chat: chat, auth: auth, accounts: accounts, now: time.Now}, nil
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/agent/chat", h.Chat)
		r.Get("/account/overview", h.AccountOverview)
		r.Get("/sessions/{sessionID}/messages", h.SessionMessages)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response failed")
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// currentUser resolves the caller for endpoints that require sign-in.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*storex.User, bool) {
	user, err := h.auth.Authenticate(r.Context(), bearerToken(r))
	if err != nil {
		log.Warn().Err(err).Msg("authenticate request failed")
	}
	if err != nil || user == nil {
		Error(w, http.StatusUnauthorized, contractx.ErrNotAuthenticated.Error())
		return nil, false
	}
	return user, true
}
