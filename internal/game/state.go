// internal/game/state.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/onecard/internal/models"
)

// NewWaitingState builds an empty pre-deal state for the given settings.
func NewWaitingState(settings models.GameSettings) models.GameState {
	return models.GameState{
		Players:            []models.Player{},
		CurrentPlayerIndex: 0,
		Deck:               []models.Card{},
		DiscardPile:        []models.Card{},
		Direction:          models.DirectionClockwise,
		Damage:             0,
		Status:             models.StatusWaiting,
		Settings:           settings,
	}
}

// InitializeGameState shuffles a fresh deck and deals every seat its
// starting hand. The result is still waiting; no card has been discarded.
func InitializeGameState(settings models.GameSettings) models.GameState {
	if settings.Mode == models.ModeSingle {
		return initializeSinglePlayGame(settings)
	}
	// TODO: separate multiplayer initialization once the multi mode lands.
	return initializeSinglePlayGame(settings)
}

func initializeSinglePlayGame(settings models.GameSettings) models.GameState {
	deck := ShuffleDeck(NewDeck(settings.IncludeJokers))
	players := initializePlayerRoles(settings.NumberOfPlayers, settings.Difficulty)
	players, deck = DealCards(players, deck, settings.InitHandSize)

	state := NewWaitingState(settings)
	state.Players = players
	state.Deck = deck
	return state
}

// initializePlayerRoles seats the human at index 0 and fills the remaining
// seats with autonomous players at the configured difficulty.
func initializePlayerRoles(numberOfPlayers int, difficulty models.Difficulty) []models.Player {
	players := make([]models.Player, 0, numberOfPlayers)
	for i := 0; i < numberOfPlayers; i++ {
		id := fmt.Sprintf("player-%d", i)
		if i == 0 {
			players = append(players, models.NewSelfPlayer(id, "me"))
		} else {
			players = append(players, models.NewAIPlayer(id, fmt.Sprintf("cpu-%d", i), difficulty))
		}
	}
	return players
}

// CreateStartedState initializes and immediately starts a game: one card is
// flipped from the deck onto the discard pile and play begins.
func CreateStartedState(settings models.GameSettings) (models.GameState, error) {
	return startGame(settings)
}

func startGame(settings models.GameSettings) (models.GameState, error) {
	state := InitializeGameState(settings)
	if len(state.Deck) == 0 {
		return state, ErrEmptyDeck
	}
	state.DiscardPile = []models.Card{state.Deck[0]}
	state.Deck = state.Deck[1:]
	state.Status = models.StatusPlaying
	return state, nil
}
