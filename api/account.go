package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	storex "github.com/tanpawarit/agentic-services/agent/store"
)

const overviewSessionLimit = 20

type accountOverview struct {
	Cart     []storex.CartItem      `json:"cart"`
	Invoices []storex.Invoice       `json:"invoices"`
	Tasks    []storex.Task          `json:"tasks"`
	Tickets  []storex.SupportTicket `json:"tickets"`
	Sessions []storex.Session       `json:"sessions"`
}

// AccountOverview returns everything the signed-in user owns in one payload.
func (h *Handler) AccountOverview(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	out := accountOverview{}
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		out.Cart, err = h.accounts.GetCartItems(ctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		out.Invoices, err = h.accounts.ListInvoices(ctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		out.Tasks, err = h.accounts.ListTasks(ctx, user.ID, storex.TaskFilterAll, h.now())
		return err
	})
	g.Go(func() (err error) {
		out.Tickets, err = h.accounts.ListSupportTickets(ctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		out.Sessions, err = h.accounts.ListSessions(ctx, user.ID, overviewSessionLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("load account overview failed")
		Error(w, http.StatusInternalServerError, "failed to load account")
		return
	}

	JSON(w, http.StatusOK, out)
}

// SessionMessages returns a session transcript ordered by sequence number.
func (h *Handler) SessionMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	sess, err := h.accounts.GetSession(r.Context(), sessionID)
	switch {
	case errors.Is(err, storex.ErrNotFound):
		Error(w, http.StatusNotFound, "session not found")
		return
	case err != nil:
		log.Error().Err(err).Str("session_id", sessionID).Msg("get session failed")
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	case sess.UserID != user.ID:
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	msgs, err := h.accounts.ListMessages(r.Context(), sess.ID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("list messages failed")
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"session":  sess,
		"messages": msgs,
	})
}
