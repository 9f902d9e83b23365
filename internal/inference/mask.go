// internal/inference/mask.go
package inference

import (
	"errors"
	"fmt"

	"github.com/jason-s-yu/onecard/internal/game"
	"github.com/jason-s-yu/onecard/internal/models"
)

// maskedLogit is the score an illegal slot collapses to. SelectAction
// treats anything at or below the selection floor as masked.
const (
	maskedLogit    = float32(-1e9)
	selectionFloor = float32(-1e8)
)

// ErrNoLegalAction means every slot was masked out. The draw slot's
// availability rule makes this unreachable for any well-formed state, so
// seeing it indicates a broken invariant, not a game situation.
var ErrNoLegalAction = errors.New("no legal action after masking")

// BuildActionMask marks which of the maxHandSize+1 policy slots are legal
// for the acting player (seat 0): one slot per hand position plus a final
// draw slot, legal iff the hand has room.
func BuildActionMask(state models.GameState, maxHandSize int) []bool {
	mask := make([]bool, maxHandSize+1)
	var hand []models.Card
	if len(state.Players) > 0 {
		hand = state.Players[0].Hand
	}

	top := state.TopCard()
	if top == nil {
		// No active card yet: every occupied slot is playable.
		for i := 0; i < len(hand) && i < maxHandSize; i++ {
			mask[i] = true
		}
		mask[maxHandSize] = len(hand) < maxHandSize
		return mask
	}

	for i := 0; i < maxHandSize; i++ {
		if i >= len(hand) {
			continue
		}
		mask[i] = game.IsValidPlay(hand[i], *top, state.Damage)
	}
	mask[maxHandSize] = len(hand) < maxHandSize
	return mask
}

// ApplyActionMask collapses the logits of illegal slots to effectively
// negative infinity.
func ApplyActionMask(logits []float32, mask []bool) ([]float32, error) {
	if len(logits) != len(mask) {
		return nil, fmt.Errorf("logits length %d and mask length %d mismatch", len(logits), len(mask))
	}
	masked := make([]float32, len(logits))
	for i, v := range logits {
		if mask[i] {
			masked[i] = v
		} else {
			masked[i] = maskedLogit
		}
	}
	return masked, nil
}

// SelectAction picks the arg-max slot of the masked logits.
func SelectAction(masked []float32) (int, error) {
	if len(masked) == 0 {
		return 0, ErrNoLegalAction
	}
	bestIdx := 0
	bestVal := masked[0]
	for i, v := range masked[1:] {
		if v > bestVal {
			bestIdx = i + 1
			bestVal = v
		}
	}
	if bestVal <= selectionFloor {
		return 0, ErrNoLegalAction
	}
	return bestIdx, nil
}

// MapActionIndex converts a chosen slot into an engine action in the
// normalized (acting player at seat 0) frame. The final slot draws a
// single card; pending damage is absorbed by the draw transition itself,
// never by inflating the amount. Every other slot plays that hand position.
func MapActionIndex(actionIndex int, state models.GameState, maxHandSize int) (game.Action, error) {
	if actionIndex == maxHandSize {
		return game.DrawCardAction(1), nil
	}
	if actionIndex < 0 || actionIndex > maxHandSize {
		return game.Action{}, fmt.Errorf("action index %d out of bounds", actionIndex)
	}
	var hand []models.Card
	if len(state.Players) > 0 {
		hand = state.Players[0].Hand
	}
	if actionIndex >= len(hand) {
		return game.Action{}, fmt.Errorf("action index %d exceeds hand length %d", actionIndex, len(hand))
	}
	return game.PlayCardAction(0, actionIndex), nil
}
