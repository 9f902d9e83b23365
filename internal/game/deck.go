// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/jason-s-yu/onecard/internal/models"
)

// NewDeck builds an unshuffled 52-card deck, plus two jokers when asked.
func NewDeck(includeJokers bool) []models.Card {
	suits := []models.Suit{models.SuitHearts, models.SuitDiamonds, models.SuitClubs, models.SuitSpades}

	deck := make([]models.Card, 0, 54)
	for _, suit := range suits {
		for rank := models.RankAce; rank <= models.RankKing; rank++ {
			deck = append(deck, models.NewCard(rank, suit))
		}
	}
	if includeJokers {
		deck = append(deck, models.NewJoker(), models.NewJoker())
	}
	return deck
}

// ShuffleDeck returns a uniformly shuffled copy of deck. The input is left
// untouched.
func ShuffleDeck(deck []models.Card) []models.Card {
	shuffled := append([]models.Card(nil), deck...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// DealCards hands out initHandSize cards to each player in seat order from
// the front of the deck and returns the players and the remaining deck.
func DealCards(players []models.Player, deck []models.Card, initHandSize int) ([]models.Player, []models.Card) {
	dealt := make([]models.Player, len(players))
	for i, p := range players {
		cp := p.Clone()
		cp.Hand = append([]models.Card(nil), deck[i*initHandSize:(i+1)*initHandSize]...)
		dealt[i] = cp
	}
	rest := append([]models.Card(nil), deck[len(players)*initHandSize:]...)
	return dealt, rest
}

// RefillDrawPile rebuilds the draw pile when it runs dry: every discarded
// card except the active top is shuffled together with whatever remains of
// the deck. With fewer than two discards there is nothing to recycle and
// both piles come back unchanged.
func RefillDrawPile(deck, discardPile []models.Card) ([]models.Card, []models.Card) {
	if len(discardPile) < 2 {
		return deck, discardPile
	}

	recycled := make([]models.Card, 0, len(deck)+len(discardPile)-1)
	recycled = append(recycled, deck...)
	recycled = append(recycled, discardPile[1:]...)

	return ShuffleDeck(recycled), []models.Card{discardPile[0]}
}
