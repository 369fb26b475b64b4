package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Rrens/onboarding-agent/internal/agent"
	"github.com/Rrens/onboarding-agent/internal/api/response"
	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/Rrens/onboarding-agent/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// ChatService is the part of service.ChatService used over HTTP
type ChatService interface {
	Submit(ctx context.Context, threadID, text string) (*service.TurnResult, error)
	History(ctx context.Context, threadID string) (*domain.Session, error)
}

// ChatHandler handles conversation endpoints
type ChatHandler struct {
	chat ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type postMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// PostMessage runs one turn on the thread
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.chat.Submit(r.Context(), threadID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyInput):
			response.BadRequest(w, "content must not be blank")
		case errors.Is(err, domain.ErrCheckpointConflict):
			response.Conflict(w, "thread was updated concurrently, please retry")
		case errors.Is(err, agent.ErrLLMTimeout):
			log.Error().Err(err).Str("thread_id", threadID).Msg("turn timed out")
			response.Error(w, http.StatusGatewayTimeout, service.FallbackReply)
		default:
			log.Error().Err(err).Str("thread_id", threadID).Msg("turn failed")
			response.Error(w, http.StatusBadGateway, service.FallbackReply)
		}
		return
	}

	response.OK(w, result)
}

type threadView struct {
	ThreadID string            `json:"thread_id"`
	Messages []domain.Message  `json:"messages"`
	Profile  map[string]string `json:"profile"`
	Summary  string            `json:"summary"`
	Version  int64             `json:"version"`
}

// GetThread returns the transcript and memory of the thread
func (h *ChatHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	session, err := h.chat.History(r.Context(), threadID)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, threadView{
		ThreadID: session.ThreadID,
		Messages: session.Messages,
		Profile:  session.Profile,
		Summary:  session.Summary,
		Version:  session.Version,
	})
}
