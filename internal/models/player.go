// internal/models/player.go
package models

// Difficulty selects how an autonomous player decides its moves.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Player is one seat at the table. Hand order is display order only and
// never affects the rules. Difficulty is set only when IsAI is true.
type Player struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Hand       []Card     `json:"hand"`
	IsSelf     bool       `json:"isSelf"`
	IsAI       bool       `json:"isAI"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
}

// NewSelfPlayer creates the human seat.
func NewSelfPlayer(id, name string) Player {
	return Player{ID: id, Name: name, Hand: []Card{}, IsSelf: true}
}

// NewAIPlayer creates an autonomous seat at the given difficulty.
func NewAIPlayer(id, name string, difficulty Difficulty) Player {
	return Player{ID: id, Name: name, Hand: []Card{}, IsAI: true, Difficulty: difficulty}
}

// Clone returns a copy of the player with its own hand slice.
func (p Player) Clone() Player {
	cp := p
	cp.Hand = append([]Card(nil), p.Hand...)
	return cp
}
