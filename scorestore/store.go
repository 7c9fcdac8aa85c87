// Package scorestore persists player scores and leave times. The game
// core treats it as best-effort: store failures are logged by callers and
// never reach a receive loop or the engine tick.
package scorestore

import (
	"context"
	"time"
)

// Score is one player's persisted standing.
type Score struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// Store is the persistence boundary. Implementations must be safe for
// concurrent use; every method honors the context for cancellation.
type Store interface {
	// RecordScore upserts the player's display name and current score.
	// Last write wins per player.
	RecordScore(ctx context.Context, playerID int, name string, score int) error

	// RecordLeave stores the time the player's session ended. Recording a
	// leave for an unknown player is not an error.
	RecordLeave(ctx context.Context, playerID int, leftAt time.Time) error

	// TopScores returns up to n scores sorted by score descending.
	TopScores(ctx context.Context, n int) ([]Score, error)
}

type nopStore struct{}

// Nop returns a Store that discards writes and returns no scores, for
// tests and for running the server without persistence.
func Nop() Store {
	return nopStore{}
}

func (nopStore) RecordScore(context.Context, int, string, int) error { return nil }
func (nopStore) RecordLeave(context.Context, int, time.Time) error   { return nil }
func (nopStore) TopScores(context.Context, int) ([]Score, error)     { return nil, nil }
