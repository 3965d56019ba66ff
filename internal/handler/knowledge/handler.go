package knowledge

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lukewhite/docuchat/internal/service/knowledge"
	"github.com/lukewhite/docuchat/pkg/utils"
)

// Event kinds the upload/delete subsystem reports.
const (
	EventUpload = "upload"
	EventDelete = "delete"
)

// Handler relays knowledge-base subsystem events into the notifier.
type Handler struct {
	notifier *knowledge.Notifier
}

// New creates the knowledge event handler.
func New(notifier *knowledge.Notifier) *Handler {
	return &Handler{notifier: notifier}
}

// RegisterRoutes mounts the knowledge event endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/knowledge/events", h.handleEvent)
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Event string `json:"event"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch payload.Event {
	case EventUpload:
		h.notifier.NotifyUploadSuccess()
	case EventDelete:
		h.notifier.NotifyDeleteSuccess()
	default:
		utils.RespondError(w, http.StatusBadRequest, "unknown event")
		return
	}

	utils.RespondJSON(w, http.StatusAccepted, map[string]string{
		"status":          "notified",
		"knowledgeBaseId": h.notifier.BaseID(),
	})
}
