// internal/database/game.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jason-s-yu/onecard/internal/models"
)

// InsertGameResult records a finished game. No-op without a connected pool.
func InsertGameResult(ctx context.Context, gameID uuid.UUID, winner models.Player, settings models.GameSettings) error {
	if DB == nil {
		return nil
	}
	_, err := DB.Exec(ctx, `
		INSERT INTO game_results
			(id, winner_id, winner_name, winner_is_ai, mode, num_players, include_jokers, init_hand_size, max_hand_size, difficulty, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`, gameID, winner.ID, winner.Name, winner.IsAI,
		string(settings.Mode), settings.NumberOfPlayers, settings.IncludeJokers,
		settings.InitHandSize, settings.MaxHandSize, string(settings.Difficulty),
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert game result for %s: %w", gameID, err)
	}
	return nil
}
