package game

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wyldephyre/nexus-arcanum/backend/internal/character"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/model/game"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/service/gm"
	"github.com/wyldephyre/nexus-arcanum/backend/internal/service/session"
	"github.com/wyldephyre/nexus-arcanum/backend/pkg/utils"
)

// Handler exposes the session lifecycle and turn operations over HTTP.
type Handler struct {
	store  *session.Store
	engine *gm.Engine
}

// New creates the game handler.
func New(store *session.Store, engine *gm.Engine) *Handler {
	return &Handler{store: store, engine: engine}
}

// RegisterRoutes registers routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/catalog", h.handleCatalog)
	r.Get("/sessions", h.handleListSessions)
	r.Post("/sessions", h.handleCreateSession)
	r.Post("/sessions/import", h.handleImport)
	r.Route("/sessions/{sessionID}", func(sr chi.Router) {
		sr.Get("/", h.handleGetSession)
		sr.Delete("/", h.handleEndSession)
		sr.Get("/export", h.handleExport)
		sr.Post("/characters", h.handleAddCharacter)
		sr.Post("/actions", h.handleAction)
		sr.Post("/rolls", h.handleRoll)
		sr.Post("/recoveries", h.handleRecovery)
		sr.Post("/damage", h.handleDamage)
		sr.Post("/intrusions", h.handleIntrusion)
	})
}

type characterPayload struct {
	Name       string `json:"name"`
	Descriptor string `json:"descriptor"`
	Archetype  string `json:"archetype"`
	Focus      string `json:"focus"`
}

// handleCatalog lists the character building blocks.
func (h *Handler) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string][]string{
		"archetypes":  character.Archetypes(),
		"descriptors": character.Descriptors(),
		"foci":        character.Foci(),
	})
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string][]string{
		"active": h.store.Active(r.Context()),
	})
}

// handleCreateSession starts a session and, when a character is supplied,
// immediately narrates the opening scene.
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Owner     string            `json:"owner"`
		Mode      string            `json:"mode"`
		Theme     string            `json:"theme"`
		Character *characterPayload `json:"character,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Owner) == "" {
		utils.RespondError(w, http.StatusBadRequest, "owner is required")
		return
	}

	mode := game.ModeSolo
	switch payload.Mode {
	case "", string(game.ModeSolo):
	case string(game.ModeParty):
		mode = game.ModeParty
	default:
		writeDomainError(w, game.NewValidationError("mode", payload.Mode, string(game.ModeSolo), string(game.ModeParty)))
		return
	}

	sess, err := h.store.Create(r.Context(), payload.Owner, mode, payload.Theme)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response := map[string]any{"session": sess}

	if payload.Character != nil {
		ch, err := character.Create(payload.Character.Name, payload.Character.Descriptor, payload.Character.Archetype, payload.Character.Focus)
		if err != nil {
			// Roll back the half-made session so a bad character spec
			// does not leak an empty session.
			_ = h.store.End(r.Context(), sess.ID)
			writeDomainError(w, err)
			return
		}
		if err := h.store.SetCharacter(r.Context(), sess.ID, payload.Owner, ch); err != nil {
			writeDomainError(w, err)
			return
		}

		opening, err := h.engine.OpenSession(r.Context(), sess.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response["character"] = ch
		response["turn"] = opening
	}

	utils.RespondJSON(w, http.StatusCreated, response)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.store.End(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeDomainError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": string(game.StatusEnded)})
}

func (h *Handler) handleAddCharacter(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Participant string `json:"participant"`
		characterPayload
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Participant) == "" {
		utils.RespondError(w, http.StatusBadRequest, "participant is required")
		return
	}

	ch, err := character.Create(payload.Name, payload.Descriptor, payload.Archetype, payload.Focus)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if err := h.store.SetCharacter(r.Context(), sessionID, payload.Participant, ch); err != nil {
		writeDomainError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, ch)
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Actor string `json:"actor"`
		Input string `json:"input"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Input) == "" {
		utils.RespondError(w, http.StatusBadRequest, "input is required")
		return
	}

	turn, err := h.engine.ProcessAction(r.Context(), chi.URLParam(r, "sessionID"), payload.Actor, payload.Input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, turn)
}

func (h *Handler) handleRoll(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Actor      string `json:"actor"`
		Pool       string `json:"pool"`
		Difficulty int    `json:"difficulty"`
		Effort     int    `json:"effort"`
		Skill      string `json:"skill,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := h.engine.ResolveRoll(r.Context(), chi.URLParam(r, "sessionID"), payload.Actor,
		game.PoolName(payload.Pool), payload.Difficulty, payload.Effort, payload.Skill)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, turn)
}

func (h *Handler) handleRecovery(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Actor string `json:"actor"`
		Pool  string `json:"pool"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := h.engine.RecoverPool(r.Context(), chi.URLParam(r, "sessionID"), payload.Actor, game.PoolName(payload.Pool))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, turn)
}

func (h *Handler) handleDamage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Actor  string `json:"actor"`
		Pool   string `json:"pool"`
		Damage int    `json:"damage"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := h.engine.ApplyDamage(r.Context(), chi.URLParam(r, "sessionID"), payload.Actor, game.PoolName(payload.Pool), payload.Damage)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, turn)
}

func (h *Handler) handleIntrusion(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Description string `json:"description"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := h.engine.TriggerIntrusion(r.Context(), chi.URLParam(r, "sessionID"), payload.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, turn)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Export(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	var rec session.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.store.Import(r.Context(), rec)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, sess)
}

// writeDomainError maps domain errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var validation *game.ValidationError
	var insufficient *game.InsufficientPoolError

	switch {
	case errors.As(err, &validation):
		utils.RespondError(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, game.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrSessionEnded):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrTurnInFlight):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &insufficient):
		utils.RespondError(w, http.StatusUnprocessableEntity, insufficient.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
