package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	gameHandler "github.com/wyldephyre/nexus-arcanum/backend/internal/handler/game"
	testbedHandler "github.com/wyldephyre/nexus-arcanum/backend/internal/handler/testbed"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/handler/watch"
	middlewarePkg "github.com/wyldephyre/nexus-arcanum/backend/internal/middleware"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/service/gm"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/service/session"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/testbed"
	"github.com/wyldephyre/nexus-arcanum/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(store *session.Store, engine *gm.Engine, runner *testbed.Runner, hub *watch.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	gh := gameHandler.New(store, engine)
	th := testbedHandler.New(runner)

	r.Route("/api", func(api chi.Router) {
		gh.RegisterRoutes(api)
		th.RegisterRoutes(api)
		if hub != nil {
			hub.RegisterRoutes(api)
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
