package testbed

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wyldephyre/nexus-arcanum/backend/internal/testbed"
	"github.com/wyldephyre/nexus-arcanum/backend/pkg/utils"
)

// Handler exposes the scripted evaluation scenarios over HTTP.
type Handler struct {
	runner *testbed.Runner
}

// New creates the testbed handler.
func New(runner *testbed.Runner) *Handler {
	return &Handler{runner: runner}
}

// RegisterRoutes registers routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/test-scenarios", h.handleList)
	r.Post("/test-scenarios/run", h.handleRunAll)
	r.Post("/test-scenarios/{scenarioID}/run", h.handleRun)
}

func (h *Handler) handleList(w http.ResponseWriter, _ *http.Request) {
	type entry struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Steps       int    `json:"steps"`
	}

	var scenarios []entry
	for _, id := range testbed.List() {
		sc, ok := testbed.Get(id)
		if !ok {
			continue
		}
		scenarios = append(scenarios, entry{
			ID:          sc.ID,
			Name:        sc.Name,
			Description: sc.Description,
			Steps:       len(sc.Steps),
		})
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"scenarios": scenarios})
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	scenarioID := chi.URLParam(r, "scenarioID")
	if _, ok := testbed.Get(scenarioID); !ok {
		utils.RespondError(w, http.StatusNotFound, "unknown scenario: "+scenarioID)
		return
	}

	report, err := h.runner.Run(r.Context(), scenarioID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, report)
}

func (h *Handler) handleRunAll(w http.ResponseWriter, r *http.Request) {
	reports, err := h.runner.RunAll(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	passed := true
	for _, rep := range reports {
		if !rep.Passed {
			passed = false
			break
		}
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"passed":  passed,
		"reports": reports,
	})
}
