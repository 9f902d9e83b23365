// internal/models/game.go
package models

// Mode distinguishes single-player (vs AI) games from multiplayer ones.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
)

// Direction is the order in which turns pass around the table.
type Direction string

const (
	DirectionClockwise        Direction = "clockwise"
	DirectionCounterclockwise Direction = "counterclockwise"
)

// Status is the lifecycle phase of a game. Finished is terminal.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// GameSettings configures one game. It is fixed for the lifetime of a
// GameState; a reset produces a new state, never an in-place change.
type GameSettings struct {
	Mode            Mode       `json:"mode"`
	NumberOfPlayers int        `json:"numberOfPlayers"`
	IncludeJokers   bool       `json:"includeJokers"`
	InitHandSize    int        `json:"initHandSize"`
	MaxHandSize     int        `json:"maxHandSize"`
	Difficulty      Difficulty `json:"difficulty"`
}

// DeckSize is the total number of cards dealt into this game: 52, or 54
// with jokers. It is conserved across the whole life of a state lineage.
func (s GameSettings) DeckSize() int {
	if s.IncludeJokers {
		return 54
	}
	return 52
}

// GameState is the complete state of one game. Transitions never mutate a
// state in place; they return a fresh value with copied containers, so a
// state may be shared across goroutines freely.
type GameState struct {
	Players            []Player     `json:"players"`
	CurrentPlayerIndex int          `json:"currentPlayerIndex"`
	Deck               []Card       `json:"deck"`
	DiscardPile        []Card       `json:"discardPile"`
	Direction          Direction    `json:"direction"`
	Damage             int          `json:"damage"`
	Status             Status       `json:"gameStatus"`
	Settings           GameSettings `json:"settings"`
	Winner             *Player      `json:"winner,omitempty"`
}

// Clone deep-copies the state so the copy can be mutated independently.
func (s GameState) Clone() GameState {
	cp := s
	cp.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		cp.Players[i] = p.Clone()
	}
	cp.Deck = append([]Card(nil), s.Deck...)
	cp.DiscardPile = append([]Card(nil), s.DiscardPile...)
	if s.Winner != nil {
		w := s.Winner.Clone()
		cp.Winner = &w
	}
	return cp
}

// CurrentPlayer returns the seat whose turn it is, or nil when the index is
// out of range (empty pre-init states).
func (s GameState) CurrentPlayer() *Player {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return &s.Players[s.CurrentPlayerIndex]
}

// TopCard returns the active discard top, or nil before the first discard.
func (s GameState) TopCard() *Card {
	if len(s.DiscardPile) == 0 {
		return nil
	}
	return &s.DiscardPile[0]
}

// TotalCards counts every card across the deck, discard pile and all hands.
func (s GameState) TotalCards() int {
	n := len(s.Deck) + len(s.DiscardPile)
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	return n
}
