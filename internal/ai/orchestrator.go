// internal/ai/orchestrator.go
package ai

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/jason-s-yu/onecard/internal/game"
	"github.com/jason-s-yu/onecard/internal/inference"
	"github.com/jason-s-yu/onecard/internal/models"
)

// Strategy identifies how an autonomous turn gets decided.
type Strategy string

const (
	// StrategyRuleSearch scans the hand for the first legal card.
	StrategyRuleSearch Strategy = "rule-search"
	// StrategyExternalPolicy consults the trained policy, with rule
	// search wrapped underneath as its fallback.
	StrategyExternalPolicy Strategy = "external-policy"
)

// StrategyFor maps a difficulty tier to its decision strategy. Only medium
// consults the external policy.
func StrategyFor(difficulty models.Difficulty) Strategy {
	if difficulty == models.DifficultyMedium {
		return StrategyExternalPolicy
	}
	return StrategyRuleSearch
}

// Source tags on TurnResult identifying what actually produced the turn.
// Rule-search turns carry no tag.
const (
	SourceOnnx     = "onnx"
	SourceFallback = "fallback"
)

// TurnResult is one completed autonomous turn: the resulting state, the
// ordered actions that produced it, and whether the game ended.
type TurnResult struct {
	State   models.GameState `json:"state"`
	Actions []game.Action    `json:"actions"`
	Done    bool             `json:"done"`
	Source  string           `json:"source,omitempty"`
	Reason  string           `json:"reason,omitempty"`
}

// Predictor yields one masked, validated policy decision for a state.
// *inference.PolicyService is the production implementation.
type Predictor interface {
	PredictAction(ctx context.Context, state models.GameState) (*inference.Prediction, error)
}

// Orchestrator drives complete autonomous turns against the transition
// engine. The predictor may be nil; medium-difficulty turns then run as
// fallbacks.
type Orchestrator struct {
	policy Predictor
	logger *log.Logger
}

// New builds an orchestrator. A nil logger falls back to the standard one.
func New(policy Predictor, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Orchestrator{policy: policy, logger: logger}
}

// IsAITurn reports whether the seat to act is autonomous.
func IsAITurn(state models.GameState) bool {
	player := state.CurrentPlayer()
	return player != nil && player.IsAI
}

// PlayAITurn executes exactly one autonomous turn and returns the result,
// or nil when it is not applicable: the game is not single-player mode, or
// the current seat is not autonomous. That is a caller-logic question, not
// an error.
func (o *Orchestrator) PlayAITurn(ctx context.Context, state models.GameState) (*TurnResult, error) {
	if state.Settings.Mode != models.ModeSingle || !IsAITurn(state) {
		return nil, nil
	}
	if StrategyFor(state.CurrentPlayer().Difficulty) == StrategyExternalPolicy {
		return o.playWithPolicy(ctx, state)
	}
	return o.executeTurn(state)
}

// executeTurn is the rule-search strategy: play the first legal card, or
// draw the pending damage (at least one card) and retry the refreshed hand
// once, then hand the turn off.
func (o *Orchestrator) executeTurn(state models.GameState) (*TurnResult, error) {
	player := state.CurrentPlayer()
	if player == nil || !player.IsAI {
		return nil, nil
	}

	current := state
	var actions []game.Action
	apply := func(action game.Action) error {
		o.logAction(current, action)
		next, err := game.Transition(current, action)
		if err != nil {
			return err
		}
		current = next
		actions = append(actions, action)
		return nil
	}

	playIdx := -1
	if top := current.TopCard(); top != nil {
		playIdx = game.FindPlayableCard(player.Hand, *top, current.Damage)
	}

	if playIdx >= 0 {
		if err := o.playWithEffect(apply, player.Hand[playIdx], current.CurrentPlayerIndex, playIdx, &current); err != nil {
			return nil, err
		}
	} else {
		amount := current.Damage
		if amount < 1 {
			amount = 1
		}
		if err := apply(game.DrawCardAction(amount)); err != nil {
			return nil, err
		}
		// One draw-then-retry per turn; if still blocked, the turn passes.
		refreshed := current.CurrentPlayer()
		if top := current.TopCard(); refreshed != nil && top != nil {
			if idx := game.FindPlayableCard(refreshed.Hand, *top, current.Damage); idx >= 0 {
				if err := o.playWithEffect(apply, refreshed.Hand[idx], current.CurrentPlayerIndex, idx, &current); err != nil {
					return nil, err
				}
			}
		}
	}

	if current.Status != models.StatusFinished {
		if err := apply(game.NextTurnAction()); err != nil {
			return nil, err
		}
	}

	return &TurnResult{
		State:   current,
		Actions: actions,
		Done:    current.Status == models.StatusFinished,
	}, nil
}

// playWithEffect applies a play and, when the card carries a rule effect
// and the game is still running, its special effect.
func (o *Orchestrator) playWithEffect(apply func(game.Action) error, card models.Card, playerIndex, cardIndex int, current *models.GameState) error {
	if err := apply(game.PlayCardAction(playerIndex, cardIndex)); err != nil {
		return err
	}
	if game.HasSpecialEffect(card) && current.Status != models.StatusFinished {
		return apply(game.ApplySpecialEffectAction(card))
	}
	return nil
}

// playWithPolicy runs the external-policy strategy. Any failure of the
// first prediction, loading, or action application redoes the entire turn
// with rule search and tags the result as a fallback.
func (o *Orchestrator) playWithPolicy(ctx context.Context, state models.GameState) (*TurnResult, error) {
	result, err := o.tryPolicyTurn(ctx, state)
	if err == nil {
		return result, nil
	}
	o.logger.WithError(err).Error("policy turn failed, falling back to rule search")

	fallback, ferr := o.executeTurn(state)
	if ferr != nil || fallback == nil {
		return fallback, ferr
	}
	fallback.Source = SourceFallback
	fallback.Reason = err.Error()
	return fallback, nil
}

func (o *Orchestrator) tryPolicyTurn(ctx context.Context, state models.GameState) (*TurnResult, error) {
	if o.policy == nil {
		return nil, errors.New("policy service not configured")
	}

	current := state
	var actions []game.Action
	apply := func(action game.Action) error {
		o.logAction(current, action)
		next, err := game.Transition(current, action)
		if err != nil {
			return err
		}
		current = next
		actions = append(actions, action)
		return nil
	}

	prediction, err := o.policy.PredictAction(ctx, current)
	if err != nil {
		return nil, err
	}
	first := prediction.Action
	isDraw := first.Type == game.ActionDrawCard

	o.logger.WithFields(log.Fields{
		"actionIndex": prediction.ActionIndex,
		"actionType":  first.Type,
	}).Info("policy decision")

	if err := apply(first); err != nil {
		return nil, err
	}

	if !isDraw {
		// Resolve the played card's effect from the pre-play hand.
		player := state.Players[state.CurrentPlayerIndex]
		if first.CardIndex >= 0 && first.CardIndex < len(player.Hand) {
			card := player.Hand[first.CardIndex]
			if game.HasSpecialEffect(card) && current.Status != models.StatusFinished {
				if err := apply(game.ApplySpecialEffectAction(card)); err != nil {
					return nil, err
				}
			}
		}
	}

	if isDraw && current.Status != models.StatusFinished {
		// After a draw the policy gets one more look: it may choose to
		// play immediately. Failures here only cost the extra play.
		if err := o.applySecondPrediction(ctx, apply, &current); err != nil {
			o.logger.WithError(err).Warn("second policy prediction failed")
		}
	}

	if current.Status != models.StatusFinished {
		if err := apply(game.NextTurnAction()); err != nil {
			return nil, err
		}
	}

	return &TurnResult{
		State:   current,
		Actions: actions,
		Done:    current.Status == models.StatusFinished,
		Source:  SourceOnnx,
	}, nil
}

func (o *Orchestrator) applySecondPrediction(ctx context.Context, apply func(game.Action) error, current *models.GameState) error {
	second, err := o.policy.PredictAction(ctx, *current)
	if err != nil {
		return err
	}
	if second.Action.Type != game.ActionPlayCard {
		return nil
	}
	player := current.CurrentPlayer()
	cardIndex := second.Action.CardIndex
	if player == nil || cardIndex < 0 || cardIndex >= len(player.Hand) {
		return nil
	}
	card := player.Hand[cardIndex]
	if err := apply(second.Action); err != nil {
		return err
	}
	if game.HasSpecialEffect(card) && current.Status != models.StatusFinished {
		return apply(game.ApplySpecialEffectAction(card))
	}
	return nil
}

// logAction records every sub-action an autonomous player takes.
func (o *Orchestrator) logAction(state models.GameState, action game.Action) {
	actor := state.CurrentPlayer()
	if actor == nil || !actor.IsAI {
		return
	}
	o.logger.WithFields(log.Fields{
		"event":      "ai-action",
		"playerId":   actor.ID,
		"playerName": actor.Name,
		"actionType": action.Type,
	}).Info("[AI]")
}
