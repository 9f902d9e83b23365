// internal/game/engine.go
package game

import (
	"errors"

	"github.com/jason-s-yu/onecard/internal/models"
)

// ActionType enumerates the engine's action variants.
type ActionType string

const (
	ActionStartGame          ActionType = "START_GAME"
	ActionPlayCard           ActionType = "PLAY_CARD"
	ActionDrawCard           ActionType = "DRAW_CARD"
	ActionNextTurn           ActionType = "NEXT_TURN"
	ActionApplySpecialEffect ActionType = "APPLY_SPECIAL_EFFECT"
	ActionEndGame            ActionType = "END_GAME"
)

// Action is one input to the transition function. Only the fields relevant
// to Type are read.
type Action struct {
	Type        ActionType   `json:"type"`
	PlayerIndex int          `json:"playerIndex,omitempty"`
	CardIndex   int          `json:"cardIndex,omitempty"`
	Amount      int          `json:"amount,omitempty"`
	EffectCard  *models.Card `json:"effectCard,omitempty"`
	WinnerIndex int          `json:"winnerIndex,omitempty"`
}

// StartGameAction reinitializes a game from its settings.
func StartGameAction() Action { return Action{Type: ActionStartGame} }

// PlayCardAction moves the card at cardIndex from playerIndex's hand to the
// top of the discard pile.
func PlayCardAction(playerIndex, cardIndex int) Action {
	return Action{Type: ActionPlayCard, PlayerIndex: playerIndex, CardIndex: cardIndex}
}

// DrawCardAction draws up to amount cards into the current player's hand.
func DrawCardAction(amount int) Action { return Action{Type: ActionDrawCard, Amount: amount} }

// NextTurnAction advances the turn pointer one seat.
func NextTurnAction() Action { return Action{Type: ActionNextTurn} }

// ApplySpecialEffectAction resolves the rule effect of the given card.
func ApplySpecialEffectAction(card models.Card) Action {
	return Action{Type: ActionApplySpecialEffect, EffectCard: &card}
}

// EndGameAction forces the game to finish with the given winner.
func EndGameAction(winnerIndex int) Action {
	return Action{Type: ActionEndGame, WinnerIndex: winnerIndex}
}

var (
	// ErrGameFinished rejects any action other than START_GAME on a
	// finished state.
	ErrGameFinished = errors.New("game is already finished")
	// ErrNotPlaying rejects plays against a state that has not started.
	ErrNotPlaying = errors.New("game is not in play")
	// ErrInvalidPlayerIndex rejects actions referencing a missing seat.
	ErrInvalidPlayerIndex = errors.New("player index out of range")
	// ErrInvalidCardIndex rejects actions referencing a missing hand slot.
	ErrInvalidCardIndex = errors.New("card index out of range")
	// ErrMissingEffectCard rejects APPLY_SPECIAL_EFFECT without a card.
	ErrMissingEffectCard = errors.New("apply special effect requires a card")
	// ErrIllegalPlay rejects a full move whose card fails the legality check.
	ErrIllegalPlay = errors.New("card is not legal against the discard top")
	// ErrEmptyDeck rejects starting a game with no cards to flip.
	ErrEmptyDeck = errors.New("cannot start a game without cards in the deck")
)

// Transition is the pure reducer: it maps (state, action) to a new state
// and never mutates its input. Unrecognized action types return the state
// unchanged. Nothing but START_GAME applies to a finished state.
func Transition(state models.GameState, action Action) (models.GameState, error) {
	if action.Type == ActionStartGame {
		return startGame(state.Settings)
	}
	if state.Status == models.StatusFinished {
		return state, ErrGameFinished
	}

	switch action.Type {
	case ActionPlayCard:
		return playCard(state, action.PlayerIndex, action.CardIndex)
	case ActionDrawCard:
		return drawCards(state, action.Amount), nil
	case ActionNextTurn:
		next := state.Clone()
		next.CurrentPlayerIndex = NextPlayerIndex(state)
		return next, nil
	case ActionApplySpecialEffect:
		if action.EffectCard == nil {
			return state, ErrMissingEffectCard
		}
		return applySpecialEffect(state, *action.EffectCard), nil
	case ActionEndGame:
		return endGame(state, action.WinnerIndex)
	default:
		return state, nil
	}
}

// StepResult pairs the state produced by one transition with a terminal
// flag and the action that produced it, for tracing.
type StepResult struct {
	State  models.GameState `json:"state"`
	Done   bool             `json:"done"`
	Action Action           `json:"action"`
}

// Step runs one transition and wraps the outcome.
func Step(state models.GameState, action Action) (StepResult, error) {
	next, err := Transition(state, action)
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{State: next, Done: next.Status == models.StatusFinished, Action: action}, nil
}

// ApplyMove performs one complete human move: the play itself, its special
// effect when the card carries one, and the turn handoff. The card must be
// legal against the current discard top.
func ApplyMove(state models.GameState, playerIndex, cardIndex int) (models.GameState, []Action, error) {
	if state.Status != models.StatusPlaying {
		if state.Status == models.StatusFinished {
			return state, nil, ErrGameFinished
		}
		return state, nil, ErrNotPlaying
	}
	if playerIndex < 0 || playerIndex >= len(state.Players) {
		return state, nil, ErrInvalidPlayerIndex
	}
	hand := state.Players[playerIndex].Hand
	if cardIndex < 0 || cardIndex >= len(hand) {
		return state, nil, ErrInvalidCardIndex
	}
	card := hand[cardIndex]
	if top := state.TopCard(); top != nil && !IsValidPlay(card, *top, state.Damage) {
		return state, nil, ErrIllegalPlay
	}

	var actions []Action
	current := state

	apply := func(action Action) error {
		next, err := Transition(current, action)
		if err != nil {
			return err
		}
		current = next
		actions = append(actions, action)
		return nil
	}

	if err := apply(PlayCardAction(playerIndex, cardIndex)); err != nil {
		return state, nil, err
	}
	if HasSpecialEffect(card) && current.Status != models.StatusFinished {
		if err := apply(ApplySpecialEffectAction(card)); err != nil {
			return state, nil, err
		}
	}
	if current.Status != models.StatusFinished {
		if err := apply(NextTurnAction()); err != nil {
			return state, nil, err
		}
	}
	return current, actions, nil
}

func playCard(state models.GameState, playerIndex, cardIndex int) (models.GameState, error) {
	if state.Status != models.StatusPlaying {
		return state, ErrNotPlaying
	}
	if playerIndex < 0 || playerIndex >= len(state.Players) {
		return state, ErrInvalidPlayerIndex
	}
	if cardIndex < 0 || cardIndex >= len(state.Players[playerIndex].Hand) {
		return state, ErrInvalidCardIndex
	}

	next := state.Clone()
	hand := next.Players[playerIndex].Hand
	played := hand[cardIndex]
	next.Players[playerIndex].Hand = append(hand[:cardIndex:cardIndex], hand[cardIndex+1:]...)
	next.DiscardPile = append([]models.Card{played}, next.DiscardPile...)

	if winner := CheckWinner(next.Players); winner != nil {
		w := winner.Clone()
		next.Status = models.StatusFinished
		next.Winner = &w
	}
	return next, nil
}

// drawCards moves up to amount cards from the deck into the current hand,
// recycling the discard pile when the deck runs dry and stopping early at
// the hand cap or true exhaustion. Pending damage always resets afterwards.
func drawCards(state models.GameState, amount int) models.GameState {
	next := state.Clone()
	maxHandSize := next.Settings.MaxHandSize

	for i := 0; i < amount; i++ {
		hand := next.Players[next.CurrentPlayerIndex].Hand
		if len(hand) >= maxHandSize {
			break
		}
		if len(next.Deck) == 0 {
			next.Deck, next.DiscardPile = RefillDrawPile(next.Deck, next.DiscardPile)
		}
		if len(next.Deck) == 0 {
			break
		}
		drawn := next.Deck[0]
		next.Deck = next.Deck[1:]
		next.Players[next.CurrentPlayerIndex].Hand = append(hand, drawn)
	}

	next.Damage = 0
	return next
}

func applySpecialEffect(state models.GameState, card models.Card) models.GameState {
	next := state.Clone()
	next.CurrentPlayerIndex = SpecialEffectTarget(card, state)
	next.Direction = ChangeDirection(card, state.Direction)
	next.Damage = state.Damage + AttackValue(card)
	return next
}

func endGame(state models.GameState, winnerIndex int) (models.GameState, error) {
	if winnerIndex < 0 || winnerIndex >= len(state.Players) {
		return state, ErrInvalidPlayerIndex
	}
	next := state.Clone()
	winner := next.Players[winnerIndex].Clone()
	next.Status = models.StatusFinished
	next.Winner = &winner
	return next, nil
}
