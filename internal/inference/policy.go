// internal/inference/policy.go
package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jason-s-yu/onecard/internal/game"
	"github.com/jason-s-yu/onecard/internal/models"
)

// Configuration errors. Inside an AI turn these trigger the rule-based
// fallback; through the standalone health/prediction surface they are fatal
// for the request.
var (
	ErrMetadataNotFound  = errors.New("model metadata not found")
	ErrMetadataInvalid   = errors.New("model metadata is invalid")
	ErrSettingsMismatch  = errors.New("model settings do not match the game settings")
	ErrDimensionMismatch = errors.New("model dimensions do not match the observation spec")
)

// Metadata is the sidecar JSON exported next to each model artifact.
type Metadata struct {
	ObservationDim int                 `json:"observation_dim"`
	ActionDim      int                 `json:"action_dim"`
	Settings       models.GameSettings `json:"settings"`
	OpsetVersion   int                 `json:"opset_version,omitempty"`
}

// Scorer produces one real-valued score per action slot for an observation.
type Scorer interface {
	Score(observation []float32) ([]float32, error)
}

type loadedModel struct {
	scorer   Scorer
	metadata Metadata
	spec     ObservationSpec
}

// Prediction is one validated policy decision. Action is expressed in the
// original state's frame (seat indices unrotated).
type Prediction struct {
	ActionIndex int         `json:"actionIndex"`
	Logits      []float32   `json:"logits"`
	Action      game.Action `json:"action"`
}

// Health reports the loaded model's declared dimensions for a settings
// signature.
type Health struct {
	Suffix         string              `json:"suffix"`
	ObservationDim int                 `json:"observationDim"`
	ActionDim      int                 `json:"actionDim"`
	Settings       models.GameSettings `json:"settings"`
}

// PolicyService loads, validates and caches one scoring model per settings
// signature and turns game states into masked, validated engine actions.
// Models are immutable once loaded; loading happens at most once per
// signature.
type PolicyService struct {
	modelDir   string
	openScorer func(modelPath string, metadata Metadata) (Scorer, error)

	mu    sync.Mutex
	cache map[string]*loadedModel
}

// NewPolicyService builds a service reading artifacts from modelDir, or
// from ONNX_MODEL_DIR / ./assets/onnx when modelDir is empty.
func NewPolicyService(modelDir string) *PolicyService {
	if modelDir == "" {
		modelDir = os.Getenv("ONNX_MODEL_DIR")
	}
	if modelDir == "" {
		modelDir = filepath.Join("assets", "onnx")
	}
	return &PolicyService{
		modelDir:   modelDir,
		openScorer: newOnnxScorer,
		cache:      make(map[string]*loadedModel),
	}
}

// suffix derives the artifact signature from the settings the models were
// trained per: player count and joker inclusion.
func suffix(settings models.GameSettings) string {
	joker := "off"
	if settings.IncludeJokers {
		joker = "on"
	}
	return fmt.Sprintf("p%d_joker%s", settings.NumberOfPlayers, joker)
}

func (s *PolicyService) resolvePaths(settings models.GameSettings) (modelPath, metadataPath string) {
	base := filepath.Join(s.modelDir, fmt.Sprintf("ppo-onecard_%s.onnx", suffix(settings)))
	return base, base + ".json"
}

func (s *PolicyService) loadModel(settings models.GameSettings) (*loadedModel, error) {
	key := suffix(settings)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[key]; ok {
		return cached, nil
	}

	modelPath, metadataPath := s.resolvePaths(settings)
	metadata, err := readMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	spec := BuildObservationSpec(metadata.Settings)
	if spec.VectorSize != metadata.ObservationDim {
		return nil, fmt.Errorf("%w: metadata observation_dim %d, spec %d",
			ErrDimensionMismatch, metadata.ObservationDim, spec.VectorSize)
	}
	if metadata.ActionDim != spec.MaxHandSize+1 {
		return nil, fmt.Errorf("%w: metadata action_dim %d, want maxHandSize+1 = %d",
			ErrDimensionMismatch, metadata.ActionDim, spec.MaxHandSize+1)
	}

	scorer, err := s.openScorer(modelPath, metadata)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelPath, err)
	}

	loaded := &loadedModel{scorer: scorer, metadata: metadata, spec: spec}
	s.cache[key] = loaded
	return loaded, nil
}

func readMetadata(metadataPath string) (Metadata, error) {
	raw, err := os.ReadFile(metadataPath)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %s", ErrMetadataNotFound, metadataPath)
	}
	var metadata Metadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: %v", ErrMetadataInvalid, metadataPath, err)
	}
	if metadata.ObservationDim <= 0 || metadata.ActionDim <= 0 || metadata.Settings.NumberOfPlayers == 0 {
		return Metadata{}, fmt.Errorf("%w: %s", ErrMetadataInvalid, metadataPath)
	}
	return metadata, nil
}

func assertSettingsCompatible(model, live models.GameSettings) error {
	switch {
	case model.NumberOfPlayers != live.NumberOfPlayers:
		return fmt.Errorf("%w: numberOfPlayers", ErrSettingsMismatch)
	case model.IncludeJokers != live.IncludeJokers:
		return fmt.Errorf("%w: includeJokers", ErrSettingsMismatch)
	case model.MaxHandSize != live.MaxHandSize:
		return fmt.Errorf("%w: maxHandSize", ErrSettingsMismatch)
	case model.InitHandSize != live.InitHandSize:
		return fmt.Errorf("%w: initHandSize", ErrSettingsMismatch)
	case model.Mode != live.Mode:
		return fmt.Errorf("%w: mode", ErrSettingsMismatch)
	case model.Difficulty != live.Difficulty:
		return fmt.Errorf("%w: difficulty", ErrSettingsMismatch)
	}
	return nil
}

// CheckHealth loads (or reuses) the model for the given settings and
// reports its declared metadata.
func (s *PolicyService) CheckHealth(ctx context.Context, settings models.GameSettings) (*Health, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loaded, err := s.loadModel(settings)
	if err != nil {
		return nil, err
	}
	return &Health{
		Suffix:         suffix(settings),
		ObservationDim: loaded.metadata.ObservationDim,
		ActionDim:      loaded.metadata.ActionDim,
		Settings:       loaded.metadata.Settings,
	}, nil
}

// PredictAction encodes the state, masks illegal slots, scores the
// observation and returns the arg-max as a validated engine action in the
// original seat frame.
func (s *PolicyService) PredictAction(ctx context.Context, state models.GameState) (*Prediction, error) {
	loaded, err := s.loadModel(state.Settings)
	if err != nil {
		return nil, err
	}
	if err := assertSettingsCompatible(loaded.metadata.Settings, state.Settings); err != nil {
		return nil, err
	}

	// The models are trained from seat 0's perspective; rotate so the
	// acting seat sits there, whatever seat the engine is on.
	normalized := rotateToCurrent(state)

	observation, err := EncodeObservation(normalized, loaded.spec)
	if err != nil {
		return nil, err
	}
	if len(observation) != loaded.metadata.ObservationDim {
		return nil, fmt.Errorf("%w: observation length %d, model expects %d",
			ErrDimensionMismatch, len(observation), loaded.metadata.ObservationDim)
	}

	mask := BuildActionMask(normalized, loaded.spec.MaxHandSize)
	if len(mask) != loaded.metadata.ActionDim {
		return nil, fmt.Errorf("%w: mask length %d, model expects %d",
			ErrDimensionMismatch, len(mask), loaded.metadata.ActionDim)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logits, err := loaded.scorer.Score(observation)
	if err != nil {
		return nil, err
	}

	masked, err := ApplyActionMask(logits, mask)
	if err != nil {
		return nil, err
	}
	actionIndex, err := SelectAction(masked)
	if err != nil {
		return nil, err
	}

	action, err := MapActionIndex(actionIndex, normalized, loaded.spec.MaxHandSize)
	if err != nil {
		return nil, err
	}
	if action.Type == game.ActionPlayCard {
		action.PlayerIndex = state.CurrentPlayerIndex
	}

	return &Prediction{ActionIndex: actionIndex, Logits: logits, Action: action}, nil
}

// rotateToCurrent reorders the seats so the acting player occupies index 0,
// stepping around the table in the current play direction.
func rotateToCurrent(state models.GameState) models.GameState {
	normalized := state.Clone()
	total := len(state.Players)
	if total == 0 {
		return normalized
	}
	step := 1
	if state.Direction != models.DirectionClockwise {
		step = -1
	}
	for i := 0; i < total; i++ {
		idx := ((state.CurrentPlayerIndex+i*step)%total + total) % total
		normalized.Players[i] = state.Players[idx].Clone()
	}
	normalized.CurrentPlayerIndex = 0
	return normalized
}
