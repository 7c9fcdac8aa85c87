package scorestore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// record is what MemoryStore keeps per player.
type record struct {
	Name   string
	Score  int
	LeftAt time.Time
}

// MemoryStore is an in-process Store backed by go-cache. Entries never
// expire; the store lives as long as the server process. A singleflight
// group collapses concurrent TopScores computations onto one pass over
// the cache.
type MemoryStore struct {
	cache *cache.Cache
	group singleflight.Group
}

// NewMemoryStore creates an empty in-memory score store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

func playerKey(playerID int) string {
	return fmt.Sprintf("player:%d", playerID)
}

// RecordScore implements Store. Last write wins per player.
func (m *MemoryStore) RecordScore(ctx context.Context, playerID int, name string, score int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := playerKey(playerID)
	rec := record{Name: name, Score: score}
	if prev, found := m.cache.Get(key); found {
		rec.LeftAt = prev.(record).LeftAt
	}

	m.cache.Set(key, rec, cache.NoExpiration)
	return nil
}

// RecordLeave implements Store. Unknown players are ignored.
func (m *MemoryStore) RecordLeave(ctx context.Context, playerID int, leftAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := playerKey(playerID)
	prev, found := m.cache.Get(key)
	if !found {
		return nil
	}

	rec := prev.(record)
	rec.LeftAt = leftAt
	m.cache.Set(key, rec, cache.NoExpiration)
	return nil
}

// TopScores implements Store. Concurrent callers share one computation
// via singleflight.
func (m *MemoryStore) TopScores(ctx context.Context, n int) ([]Score, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, err, _ := m.group.Do("top", func() (interface{}, error) {
		items := m.cache.Items()
		scores := make([]Score, 0, len(items))

		for key, item := range items {
			rec, ok := item.Object.(record)
			if !ok {
				continue
			}

			var id int
			if _, err := fmt.Sscanf(key, "player:%d", &id); err != nil {
				continue
			}

			scores = append(scores, Score{PlayerID: id, Name: rec.Name, Score: rec.Score})
		}

		sort.Slice(scores, func(i, j int) bool {
			if scores[i].Score != scores[j].Score {
				return scores[i].Score > scores[j].Score
			}
			return scores[i].PlayerID < scores[j].PlayerID
		})

		return scores, nil
	})
	if err != nil {
		return nil, err
	}

	scores := v.([]Score)
	if n > 0 && len(scores) > n {
		scores = scores[:n]
	}

	return scores, nil
}
