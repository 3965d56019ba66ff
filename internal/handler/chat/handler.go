package chat

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	chatmodel "github.com/lukewhite/docuchat/internal/model/chat"
	chatservice "github.com/lukewhite/docuchat/internal/service/chat"
	"github.com/lukewhite/docuchat/internal/service/conversation"
	"github.com/lukewhite/docuchat/pkg/utils"
)

// Publisher receives a state snapshot after every mutation, for push delivery
// to connected UI shells.
type Publisher interface {
	Publish(state conversation.State)
}

// Handler exposes the conversation store and query pipeline over HTTP.
type Handler struct {
	store    *conversation.Service
	pipeline *chatservice.Pipeline
	events   Publisher
	logger   *zap.Logger
}

// New creates the chat handler. events may be nil when no push feed is wired.
func New(store *conversation.Service, pipeline *chatservice.Pipeline, events Publisher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:    store,
		pipeline: pipeline,
		events:   events,
		logger:   logger,
	}
}

// RegisterRoutes mounts the conversation and messaging endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/conversations", h.handleCreate)
	r.Get("/conversations", h.handleList)
	r.Post("/conversations/{id}/activate", h.handleActivate)
	r.Delete("/conversations/{id}", h.handleDelete)
	r.Post("/messages", h.handleSend)
	r.Get("/state", h.handleState)
	r.Post("/error/dismiss", h.handleDismissError)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	conv := h.store.Create(r.Context())
	h.publish()
	utils.RespondJSON(w, http.StatusCreated, conv)
}

func (h *Handler) handleList(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.List())
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.store.Switch(r.Context(), id)
	h.publish()
	utils.RespondJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.store.Delete(r.Context(), id)
	h.publish()
	utils.RespondNoContent(w)
}

type sendRequest struct {
	Message string `json:"message"`
}

type sendResponse struct {
	Success bool               `json:"success"`
	Skipped bool               `json:"skipped,omitempty"`
	Reason  string             `json:"reason,omitempty"`
	Message *chatmodel.Message `json:"message,omitempty"`
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload sendRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome := h.pipeline.Send(r.Context(), payload.Message)
	h.publish()

	switch outcome.Status {
	case chatservice.StatusCommitted:
		utils.RespondJSON(w, http.StatusOK, sendResponse{
			Success: true,
			Message: &outcome.Assistant,
		})
	case chatservice.StatusSkipped:
		utils.RespondJSON(w, http.StatusAccepted, sendResponse{
			Success: true,
			Skipped: true,
			Reason:  outcome.Reason,
		})
	default:
		utils.RespondError(w, http.StatusBadGateway, outcome.Reason)
	}
}

func (h *Handler) handleState(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handler) handleDismissError(w http.ResponseWriter, _ *http.Request) {
	h.store.DismissError()
	h.publish()
	utils.RespondJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handler) publish() {
	if h.events != nil {
		h.events.Publish(h.store.Snapshot())
	}
}
