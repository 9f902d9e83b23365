// internal/inference/observation.go
package inference

import (
	"fmt"

	"github.com/jason-s-yu/onecard/internal/models"
)

// Feature ordering is fixed by the trained models: ranks Ace..King, suits
// alphabetical. This is independent of deck construction order.
var (
	observationRanks = []models.Rank{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}
	observationSuits = []models.Suit{models.SuitClubs, models.SuitDiamonds, models.SuitHearts, models.SuitSpades}
)

// ObservationSpec fixes the layout of the feature vector for one settings
// combination. Vector size varies only with the player count.
type ObservationSpec struct {
	Ranks           []models.Rank
	Suits           []models.Suit
	MaxHandSize     int
	PlayerCount     int
	InitialDeckSize int
	VectorSize      int
}

// BuildObservationSpec derives the vector layout from game settings.
func BuildObservationSpec(settings models.GameSettings) ObservationSpec {
	initialDeckSize := settings.DeckSize() - settings.NumberOfPlayers*settings.InitHandSize - 1
	if initialDeckSize < 1 {
		initialDeckSize = 1
	}
	spec := ObservationSpec{
		Ranks:           observationRanks,
		Suits:           observationSuits,
		MaxHandSize:     settings.MaxHandSize,
		PlayerCount:     settings.NumberOfPlayers,
		InitialDeckSize: initialDeckSize,
	}
	spec.VectorSize = computeVectorSize(spec)
	return spec
}

func computeVectorSize(spec ObservationSpec) int {
	rankDim := len(spec.Ranks)
	suitDim := len(spec.Suits)
	opponentDim := spec.PlayerCount - 1
	if opponentDim < 0 {
		opponentDim = 0
	}
	// hand histograms + joker count + top card one-hots + joker flag +
	// damage + direction + current player one-hot + deck size + opponents
	return rankDim + suitDim + 1 + rankDim + suitDim + 1 + 1 + 1 + spec.PlayerCount + 1 + opponentDim
}

// EncodeObservation serializes the state into the fixed-size [0,1] feature
// vector from the acting player's perspective. The acting player must sit
// at index 0; only hand counts of the other seats are encoded, never their
// contents.
func EncodeObservation(state models.GameState, spec ObservationSpec) ([]float32, error) {
	var hand []models.Card
	if len(state.Players) > 0 {
		hand = state.Players[0].Hand
	}

	maxHand := float32(spec.MaxHandSize)
	if maxHand < 1 {
		maxHand = 1
	}

	rankCounts := make([]float32, len(spec.Ranks))
	suitCounts := make([]float32, len(spec.Suits))
	var jokerCount float32
	for _, card := range hand {
		if card.IsJoker {
			jokerCount++
			continue
		}
		if idx := rankIndex(spec.Ranks, card.Rank); idx >= 0 {
			rankCounts[idx]++
		}
		if idx := suitIndex(spec.Suits, card.Suit); idx >= 0 {
			suitCounts[idx]++
		}
	}
	for i := range rankCounts {
		rankCounts[i] /= maxHand
	}
	for i := range suitCounts {
		suitCounts[i] /= maxHand
	}

	topRank := make([]float32, len(spec.Ranks))
	topSuit := make([]float32, len(spec.Suits))
	var topJoker float32
	if top := state.TopCard(); top != nil {
		if top.IsJoker {
			topJoker = 1
		} else {
			if idx := rankIndex(spec.Ranks, top.Rank); idx >= 0 {
				topRank[idx] = 1
			}
			if idx := suitIndex(spec.Suits, top.Suit); idx >= 0 {
				topSuit[idx] = 1
			}
		}
	}

	damage := float32(state.Damage)
	if damage > float32(spec.MaxHandSize) {
		damage = float32(spec.MaxHandSize)
	}
	damage /= maxHand

	var direction float32
	if state.Direction == models.DirectionClockwise {
		direction = 1
	}

	currentPlayer := make([]float32, spec.PlayerCount)
	if state.CurrentPlayerIndex >= 0 && state.CurrentPlayerIndex < spec.PlayerCount {
		currentPlayer[state.CurrentPlayerIndex] = 1
	}

	deckSize := float32(len(state.Deck)) / float32(spec.InitialDeckSize)
	if deckSize > 1 {
		deckSize = 1
	}

	opponents := make([]float32, 0, len(state.Players))
	if len(state.Players) > 1 {
		for _, p := range state.Players[1:] {
			size := float32(len(p.Hand)) / maxHand
			if size > 1 {
				size = 1
			}
			opponents = append(opponents, size)
		}
	}

	vector := make([]float32, 0, spec.VectorSize)
	vector = append(vector, rankCounts...)
	vector = append(vector, suitCounts...)
	vector = append(vector, jokerCount/maxHand)
	vector = append(vector, topRank...)
	vector = append(vector, topSuit...)
	vector = append(vector, topJoker, damage, direction)
	vector = append(vector, currentPlayer...)
	vector = append(vector, deckSize)
	vector = append(vector, opponents...)

	if len(vector) != spec.VectorSize {
		return nil, fmt.Errorf("observation length %d does not match spec %d", len(vector), spec.VectorSize)
	}
	return vector, nil
}

func rankIndex(ranks []models.Rank, rank models.Rank) int {
	for i, r := range ranks {
		if r == rank {
			return i
		}
	}
	return -1
}

func suitIndex(suits []models.Suit, suit models.Suit) int {
	for i, s := range suits {
		if s == suit {
			return i
		}
	}
	return -1
}
