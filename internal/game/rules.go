// internal/game/rules.go
package game

import "github.com/jason-s-yu/onecard/internal/models"

// IsValidPlay reports whether played may legally land on top while damage is
// pending. A joker is always legal. With pending damage only a block is
// legal; otherwise the play must match the top card's rank or suit.
func IsValidPlay(played, top models.Card, damage int) bool {
	if played.IsJoker {
		return true
	}
	if damage > 0 {
		return canBlock(played, top)
	}
	if played.Rank == models.RankNone || played.Suit == models.SuitNone ||
		top.Rank == models.RankNone || top.Suit == models.SuitNone {
		return false
	}
	return played.Rank == top.Rank || played.Suit == top.Suit
}

// canBlock implements the block table: a 2 is blocked by any 2 or by the
// Ace of the same suit, an Ace only by another Ace, a joker only by a joker.
func canBlock(played, top models.Card) bool {
	switch top.Rank {
	case models.RankTwo:
		return played.Rank == models.RankTwo ||
			(played.Suit == top.Suit && played.Rank == models.RankAce)
	case models.RankAce:
		return played.Rank == models.RankAce
	default:
		return played.IsJoker
	}
}

// AttackValue is the pending damage a card adds when played: 2 for a 2,
// 5 for an Ace, 7 for a joker, 0 for everything else.
func AttackValue(card models.Card) int {
	switch {
	case card.Rank == models.RankTwo:
		return 2
	case card.Rank == models.RankAce:
		return 5
	case card.IsJoker:
		return 7
	default:
		return 0
	}
}

// ChangeDirection flips the play direction on a Queen and leaves it alone
// for every other card.
func ChangeDirection(card models.Card, current models.Direction) models.Direction {
	if card.Rank != models.RankQueen {
		return current
	}
	if current == models.DirectionClockwise {
		return models.DirectionCounterclockwise
	}
	return models.DirectionClockwise
}

// NextPlayerIndex is the seat one step ahead in the current direction.
func NextPlayerIndex(state models.GameState) int {
	count := len(state.Players)
	if state.Direction == models.DirectionClockwise {
		return (state.CurrentPlayerIndex + 1) % count
	}
	return (state.CurrentPlayerIndex - 1 + count) % count
}

// PrevPlayerIndex is the seat one step behind in the current direction.
// It is always the mirror of NextPlayerIndex.
func PrevPlayerIndex(state models.GameState) int {
	count := len(state.Players)
	if state.Direction == models.DirectionClockwise {
		return (state.CurrentPlayerIndex - 1 + count) % count
	}
	return (state.CurrentPlayerIndex + 1) % count
}

// SpecialEffectTarget pre-positions the turn pointer for skip and reversal
// cards: a Jack targets the next seat, a King the previous one. Other cards
// leave the current seat unchanged.
func SpecialEffectTarget(card models.Card, state models.GameState) int {
	switch card.Rank {
	case models.RankJack:
		return NextPlayerIndex(state)
	case models.RankKing:
		return PrevPlayerIndex(state)
	default:
		return state.CurrentPlayerIndex
	}
}

// HasSpecialEffect reports whether playing the card requires a follow-up
// APPLY_SPECIAL_EFFECT: jokers and ranks Ace, 2, Jack, Queen, King.
func HasSpecialEffect(card models.Card) bool {
	if card.IsJoker {
		return true
	}
	switch card.Rank {
	case models.RankAce, models.RankTwo, models.RankJack, models.RankQueen, models.RankKing:
		return true
	default:
		return false
	}
}

// CheckWinner returns the first seat (in seating order) with an empty hand,
// or nil if nobody has gone out yet.
func CheckWinner(players []models.Player) *models.Player {
	for i := range players {
		if len(players[i].Hand) == 0 {
			return &players[i]
		}
	}
	return nil
}

// FindPlayableCard scans the hand in hand order and returns the index of
// the first card legal against top, or -1. No lookahead.
func FindPlayableCard(hand []models.Card, top models.Card, damage int) int {
	for i, card := range hand {
		if IsValidPlay(card, top, damage) {
			return i
		}
	}
	return -1
}
