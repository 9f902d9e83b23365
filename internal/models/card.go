// internal/models/card.go
package models

import "github.com/google/uuid"

// Rank is a card's numeric rank, Ace (1) through King (13). RankNone marks
// cards without a rank, i.e. jokers.
type Rank int

const (
	RankNone  Rank = 0
	RankAce   Rank = 1
	RankTwo   Rank = 2
	RankJack  Rank = 11
	RankQueen Rank = 12
	RankKing  Rank = 13
)

// Suit is a card's suit name. SuitNone marks jokers.
type Suit string

const (
	SuitNone     Suit = ""
	SuitHearts   Suit = "hearts"
	SuitDiamonds Suit = "diamonds"
	SuitClubs    Suit = "clubs"
	SuitSpades   Suit = "spades"
)

// Card is one physical card. The ID keeps cards distinguishable across
// shuffles even when rank and suit collide. IsFlipped and Draggable are
// presentation state carried for clients; the rules never read them.
type Card struct {
	ID        uuid.UUID `json:"id"`
	Rank      Rank      `json:"rank"`
	Suit      Suit      `json:"suit"`
	IsJoker   bool      `json:"isJoker"`
	IsFlipped bool      `json:"isFlipped"`
	Draggable bool      `json:"draggable"`
}

// NewCard creates a regular suited card.
func NewCard(rank Rank, suit Suit) Card {
	return Card{ID: uuid.New(), Rank: rank, Suit: suit}
}

// NewJoker creates a joker, which carries neither rank nor suit.
func NewJoker() Card {
	return Card{ID: uuid.New(), Rank: RankNone, Suit: SuitNone, IsJoker: true}
}
