// internal/game/deck_test.go
package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/onecard/internal/models"
)

func cardKey(c models.Card) string {
	if c.IsJoker {
		return "joker"
	}
	return fmt.Sprintf("%d-%s", c.Rank, c.Suit)
}

func countCards(cards []models.Card) map[string]int {
	counts := make(map[string]int)
	for _, c := range cards {
		counts[cardKey(c)]++
	}
	return counts
}

func TestNewDeck(t *testing.T) {
	deck := NewDeck(false)
	require.Len(t, deck, 52)

	suitCounts := make(map[models.Suit]int)
	for _, c := range deck {
		assert.False(t, c.IsJoker)
		suitCounts[c.Suit]++
	}
	for _, suit := range []models.Suit{models.SuitHearts, models.SuitDiamonds, models.SuitClubs, models.SuitSpades} {
		assert.Equal(t, 13, suitCounts[suit])
	}

	withJokers := NewDeck(true)
	require.Len(t, withJokers, 54)
	jokers := 0
	for _, c := range withJokers {
		if c.IsJoker {
			jokers++
		}
	}
	assert.Equal(t, 2, jokers)
}

func TestShuffleDeckPreservesCards(t *testing.T) {
	deck := NewDeck(true)
	original := append([]models.Card(nil), deck...)

	shuffled := ShuffleDeck(deck)

	assert.Equal(t, original, deck, "input deck must not be touched")
	assert.Equal(t, countCards(deck), countCards(shuffled))
}

func TestDealCards(t *testing.T) {
	deck := NewDeck(false)
	players := []models.Player{
		models.NewSelfPlayer("a", "a"),
		models.NewAIPlayer("b", "b", models.DifficultyEasy),
		models.NewAIPlayer("c", "c", models.DifficultyEasy),
	}

	dealt, rest := DealCards(players, deck, 5)

	require.Len(t, dealt, 3)
	for _, p := range dealt {
		assert.Len(t, p.Hand, 5)
	}
	assert.Len(t, rest, 52-15)
	assert.Equal(t, deck[:5], dealt[0].Hand, "seat order from the front of the deck")
	assert.Equal(t, deck[5:10], dealt[1].Hand)
}

func TestRefillDrawPileRecyclesAllButTop(t *testing.T) {
	discard := []models.Card{
		card(models.Rank(9), models.SuitHearts),
		card(models.Rank(3), models.SuitClubs),
		card(models.Rank(4), models.SuitClubs),
		card(models.Rank(5), models.SuitClubs),
		card(models.Rank(6), models.SuitClubs),
		card(models.Rank(7), models.SuitClubs),
	}

	deck, rest := RefillDrawPile(nil, discard)

	require.Len(t, rest, 1)
	assert.Equal(t, discard[0], rest[0], "active top card stays in place")
	assert.Len(t, deck, 5)
	assert.NotContains(t, deck, discard[0])
}

func TestRefillDrawPileNoopWithSingleDiscard(t *testing.T) {
	discard := []models.Card{card(models.Rank(9), models.SuitHearts)}

	deck, rest := RefillDrawPile(nil, discard)

	assert.Empty(t, deck)
	assert.Equal(t, discard, rest)
}
