package scorestore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	namesKey  = "snakegame:names"
	scoresKey = "snakegame:scores"
	leavesKey = "snakegame:leaves"
)

// RedisStore is a Store backed by Redis, for running several game servers
// against one shared scoreboard. Names live in a hash, scores in a sorted
// set keyed by player id, leave times in a second hash.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a score store on top of the given Redis client.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := scorestore.NewRedisStore(client)
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// RecordScore implements Store.
func (r *RedisStore) RecordScore(ctx context.Context, playerID int, name string, score int) error {
	member := strconv.Itoa(playerID)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, namesKey, member, name)
	pipe.ZAdd(ctx, scoresKey, redis.Z{Score: float64(score), Member: member})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("scorestore: record score: %w", err)
	}

	return nil
}

// RecordLeave implements Store.
func (r *RedisStore) RecordLeave(ctx context.Context, playerID int, leftAt time.Time) error {
	member := strconv.Itoa(playerID)
	if err := r.client.HSet(ctx, leavesKey, member, leftAt.UTC().Format(time.RFC3339)).Err(); err != nil {
		return fmt.Errorf("scorestore: record leave: %w", err)
	}

	return nil
}

// TopScores implements Store.
func (r *RedisStore) TopScores(ctx context.Context, n int) ([]Score, error) {
	stop := int64(n) - 1
	if n <= 0 {
		stop = -1
	}

	entries, err := r.client.ZRevRangeWithScores(ctx, scoresKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("scorestore: top scores: %w", err)
	}

	scores := make([]Score, 0, len(entries))
	for _, e := range entries {
		member, ok := e.Member.(string)
		if !ok {
			continue
		}

		id, err := strconv.Atoi(member)
		if err != nil {
			continue
		}

		name, err := r.client.HGet(ctx, namesKey, member).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("scorestore: top scores: %w", err)
		}

		scores = append(scores, Score{PlayerID: id, Name: name, Score: int(e.Score)})
	}

	return scores, nil
}
