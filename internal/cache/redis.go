// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jason-s-yu/onecard/internal/models"
)

// Rdb is the global Redis client. Connect it once at application startup.
// All cache operations are best-effort; a nil client is a silent no-op.
var Rdb *redis.Client

// DefaultQueueName is the Redis list (queue) name for game action records.
var DefaultQueueName = "onecard_actions"

// snapshotTTL bounds how long a mirrored game state outlives its session.
const snapshotTTL = 24 * time.Hour

// GameActionRecord is one applied engine action, queued for offline
// analysis and replay.
type GameActionRecord struct {
	GameID      uuid.UUID   `json:"game_id"`
	ActionIndex int         `json:"action_index"`
	ActorID     string      `json:"actor_id"`
	ActionType  string      `json:"action_type"`
	Action      interface{} `json:"action"`
	Source      string      `json:"source,omitempty"`
	Timestamp   int64       `json:"timestamp"`
}

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		Rdb = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

func snapshotKey(gameID uuid.UUID) string {
	return fmt.Sprintf("onecard:game:%s", gameID)
}

// SaveGameSnapshot mirrors a game state to Redis so external tooling can
// inspect live games.
func SaveGameSnapshot(ctx context.Context, gameID uuid.UUID, state models.GameState) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal game snapshot: %w", err)
	}
	if err := Rdb.Set(ctx, snapshotKey(gameID), data, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("failed to SET game snapshot: %w", err)
	}
	return nil
}

// LoadGameSnapshot reads a mirrored game state back, if one exists.
func LoadGameSnapshot(ctx context.Context, gameID uuid.UUID) (*models.GameState, error) {
	if Rdb == nil {
		return nil, nil
	}
	data, err := Rdb.Get(ctx, snapshotKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to GET game snapshot: %w", err)
	}
	var state models.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game snapshot: %w", err)
	}
	return &state, nil
}

// DeleteGameSnapshot drops the mirror for a removed session.
func DeleteGameSnapshot(ctx context.Context, gameID uuid.UUID) error {
	if Rdb == nil {
		return nil
	}
	return Rdb.Del(ctx, snapshotKey(gameID)).Err()
}

// PublishGameAction serializes the given record to JSON, then pushes it to
// the Redis queue. This does not block the calling logic (other than a
// quick network send).
func PublishGameAction(ctx context.Context, record GameActionRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal GameActionRecord: %w", err)
	}
	queueName := getEnv("ACTION_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
