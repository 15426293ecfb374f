package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

type chatRequest struct {
	Messages  []contractx.ChatMessage `json:"messages"`
	AgentType string                  `json:"agentType"`
	SessionID string                  `json:"sessionId"`
}

// Chat runs one conversational turn: POST /api/agent/chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var body chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start := time.Now()
	logger := log.With().
		Str("request_id", chiMiddleware.GetReqID(r.Context())).
		Str("agent_type", body.AgentType).
		Logger()

	out, err := h.chat.HandleChat(r.Context(), contractx.ChatRequest{
		Messages:    body.Messages,
		AgentType:   body.AgentType,
		SessionID:   body.SessionID,
		BearerToken: bearerToken(r),
	})
	if err != nil {
		status, message := chatError(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("chat turn failed")
		}
		Error(w, status, message)
		return
	}

	logger.Info().Dur("duration", time.Since(start)).Bool("persisted", out.SessionID != nil).Msg("chat turn completed")
	JSON(w, http.StatusOK, out)
}

func chatError(err error) (int, string) {
	var reqErr *contractx.RequestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, reqErr.Msg
	case errors.Is(err, contractx.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	default:
		return http.StatusInternalServerError, "failed to process request"
	}
}
