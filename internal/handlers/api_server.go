// internal/handlers/api_server.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/jason-s-yu/onecard/internal/ai"
	"github.com/jason-s-yu/onecard/internal/auth"
	"github.com/jason-s-yu/onecard/internal/cache"
	"github.com/jason-s-yu/onecard/internal/gamestore"
	"github.com/jason-s-yu/onecard/internal/inference"
	"github.com/jason-s-yu/onecard/internal/models"
)

// DefaultSettings seed every game; request settings merge over them.
var DefaultSettings = models.GameSettings{
	Mode:            models.ModeSingle,
	NumberOfPlayers: 4,
	IncludeJokers:   false,
	InitHandSize:    5,
	MaxHandSize:     7,
	Difficulty:      models.DifficultyEasy,
}

// Server wires the HTTP surface over the session store, the turn
// orchestrator and the policy service.
type Server struct {
	store        *gamestore.Store
	orchestrator *ai.Orchestrator
	policy       *inference.PolicyService
	logger       *log.Logger
	mux          *http.ServeMux
}

// NewServer builds the route table. A nil logger falls back to the
// standard one.
func NewServer(store *gamestore.Store, orchestrator *ai.Orchestrator, policy *inference.PolicyService, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.StandardLogger()
	}
	s := &Server{
		store:        store,
		orchestrator: orchestrator,
		policy:       policy,
		logger:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /games", s.handleCreateGame)
	mux.HandleFunc("GET /games/{id}", s.handleGetGame)
	mux.HandleFunc("POST /games/{id}/actions", s.handleApplyAction)
	mux.HandleFunc("POST /games/{id}/ai-turns", s.handleAITurn)
	mux.HandleFunc("POST /games/{id}/reset", s.handleReset)
	mux.HandleFunc("DELETE /games/{id}", s.handleDeleteGame)
	mux.HandleFunc("GET /games/{id}/ws", s.handleGameWS)
	mux.HandleFunc("GET /onnx/health", s.handleOnnxHealth)
	s.mux = mux
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// SettingsDTO carries partial settings; absent fields keep their base value.
type SettingsDTO struct {
	Mode            *string `json:"mode"`
	NumberOfPlayers *int    `json:"numberOfPlayers"`
	IncludeJokers   *bool   `json:"includeJokers"`
	InitHandSize    *int    `json:"initHandSize"`
	MaxHandSize     *int    `json:"maxHandSize"`
	Difficulty      *string `json:"difficulty"`
}

// Merge overlays the DTO's set fields onto base.
func (d SettingsDTO) Merge(base models.GameSettings) models.GameSettings {
	merged := base
	if d.Mode != nil {
		merged.Mode = models.Mode(*d.Mode)
	}
	if d.NumberOfPlayers != nil {
		merged.NumberOfPlayers = *d.NumberOfPlayers
	}
	if d.IncludeJokers != nil {
		merged.IncludeJokers = *d.IncludeJokers
	}
	if d.InitHandSize != nil {
		merged.InitHandSize = *d.InitHandSize
	}
	if d.MaxHandSize != nil {
		merged.MaxHandSize = *d.MaxHandSize
	}
	if d.Difficulty != nil {
		merged.Difficulty = models.Difficulty(*d.Difficulty)
	}
	return merged
}

func validateSettings(settings models.GameSettings) error {
	if settings.Mode != models.ModeSingle && settings.Mode != models.ModeMulti {
		return errors.New("mode must be 'single' or 'multi'")
	}
	if settings.NumberOfPlayers < 2 || settings.NumberOfPlayers > 6 {
		return errors.New("numberOfPlayers must be between 2 and 6")
	}
	if settings.InitHandSize < 1 {
		return errors.New("initHandSize must be at least 1")
	}
	if settings.MaxHandSize < settings.InitHandSize {
		return errors.New("maxHandSize must be at least initHandSize")
	}
	if settings.NumberOfPlayers*settings.InitHandSize+1 > settings.DeckSize() {
		return errors.New("not enough cards to deal these settings")
	}
	switch settings.Difficulty {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
	default:
		return errors.New("difficulty must be 'easy', 'medium' or 'hard'")
	}
	return nil
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var dto SettingsDTO
	if err := decodeBody(r, &dto); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	settings := dto.Merge(DefaultSettings)
	if err := validateSettings(settings); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.store.Create(settings)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	token, err := auth.CreateGameToken(session.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue session token")
		return
	}

	state := session.Snapshot()
	s.mirrorSnapshot(r, session, state)
	s.logger.WithField("gameId", session.ID).Info("game created")

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"gameId": session.ID,
		"token":  token,
		"state":  state,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessionFromRequest(w, r, false)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"state": session.Snapshot()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessionFromRequest(w, r, true)
	if !ok {
		return
	}
	var dto SettingsDTO
	if err := decodeBody(r, &dto); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	settings := dto.Merge(session.Snapshot().Settings)
	if err := validateSettings(settings); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := session.Reset(settings)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.mirrorSnapshot(r, session, state)
	writeJSON(w, http.StatusOK, map[string]interface{}{"state": state})
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessionFromRequest(w, r, true)
	if !ok {
		return
	}
	s.store.Delete(session.ID)
	if err := cache.DeleteGameSnapshot(r.Context(), session.ID); err != nil {
		s.logger.WithError(err).Warn("failed to delete game snapshot")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOnnxHealth(w http.ResponseWriter, r *http.Request) {
	settings := DefaultSettings
	q := r.URL.Query()
	if v := q.Get("numberOfPlayers"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid numberOfPlayers")
			return
		}
		settings.NumberOfPlayers = n
	}
	if v := q.Get("includeJokers"); v != "" {
		settings.IncludeJokers = v == "true" || v == "1"
	}
	if v := q.Get("maxHandSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid maxHandSize")
			return
		}
		settings.MaxHandSize = n
	}
	if v := q.Get("initHandSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid initHandSize")
			return
		}
		settings.InitHandSize = n
	}
	if v := q.Get("difficulty"); v != "" {
		settings.Difficulty = models.Difficulty(v)
	}
	if v := q.Get("mode"); v != "" {
		settings.Mode = models.Mode(v)
	}

	health, err := s.policy.CheckHealth(r.Context(), settings)
	if err != nil {
		writeError(w, policyErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, health)
}

// policyErrorStatus maps policy configuration errors onto HTTP codes for
// the standalone surface. Inside an AI turn the same errors never reach
// the client; they trigger the rule-based fallback instead.
func policyErrorStatus(err error) int {
	switch {
	case errors.Is(err, inference.ErrMetadataNotFound):
		return http.StatusNotFound
	case errors.Is(err, inference.ErrMetadataInvalid),
		errors.Is(err, inference.ErrSettingsMismatch),
		errors.Is(err, inference.ErrDimensionMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody tolerates an absent body and rejects malformed JSON.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.New("invalid request body")
	}
	return nil
}
