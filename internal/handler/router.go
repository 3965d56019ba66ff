package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	chatHandler "github.com/lukewhite/docuchat/internal/handler/chat"
	"github.com/lukewhite/docuchat/internal/handler/events"
	knowledgeHandler "github.com/lukewhite/docuchat/internal/handler/knowledge"
	middlewarePkg "github.com/lukewhite/docuchat/internal/middleware"
	chatService "github.com/lukewhite/docuchat/internal/service/chat"
	"github.com/lukewhite/docuchat/internal/service/conversation"
	knowledgeService "github.com/lukewhite/docuchat/internal/service/knowledge"
	"github.com/lukewhite/docuchat/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(store *conversation.Service, pipeline *chatService.Pipeline, notifier *knowledgeService.Notifier, hub *events.Hub, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatH := chatHandler.New(store, pipeline, hub, logger)
	knowledgeH := knowledgeHandler.New(notifier)

	r.Route("/api", func(api chi.Router) {
		chatH.RegisterRoutes(api)
		knowledgeH.RegisterRoutes(api)
		hub.RegisterRoutes(api)

		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}
