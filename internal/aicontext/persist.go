package aicontext

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
	"github.com/westinedu/ai-courses-gcp/internal/models"
)

// StepResult records where one step's artifact was written.
type StepResult struct {
	Step int
	Path string
}

// Persist writes the text artifact of every step in steps and updates the
// daily index only for the highest step in this call (spec §4.7
// "Persistence and indexing").
func Persist(ctx context.Context, store interfaces.ObjectStore, entity, date string, now time.Time, steps map[int]string) (map[int]StepResult, error) {
	results := make(map[int]StepResult, len(steps))
	highest := 0
	for step := range steps {
		if step > highest {
			highest = step
		}
	}

	for step, text := range steps {
		path := artifactPath(entity, date, step, now)
		if err := store.Put(ctx, path, []byte(text), "text/plain; charset=utf-8"); err != nil {
			return results, fmt.Errorf("aicontext: persist step %d for %s: %w", step, entity, err)
		}
		results[step] = StepResult{Step: step, Path: path}

		if step == highest {
			if err := updateDailyIndex(ctx, store, entity, date, path, now); err != nil {
				return results, fmt.Errorf("aicontext: update daily index for %s: %w", entity, err)
			}
		}
	}

	return results, nil
}

func artifactPath(entity, date string, step int, now time.Time) string {
	return fmt.Sprintf("ai_context/%s/%s__step%d_%s_UTC.txt", entity, date, step, now.UTC().Format("20060102150405"))
}

func dailyIndexPath(date string) string {
	return fmt.Sprintf("ai_context/daily_index/%s.json", date)
}

// updateDailyIndex applies the spec §4.7 append rule: remove any existing
// entry sharing (ticker, path), append the new entry with the current UTC
// timestamp, then sort strictly by timestamp descending.
func updateDailyIndex(ctx context.Context, store interfaces.ObjectStore, entity, date, path string, now time.Time) error {
	index, err := loadDailyIndex(ctx, store, date)
	if err != nil {
		return err
	}

	filtered := index.Entries[:0:0]
	for _, e := range index.Entries {
		if e.Ticker == entity && e.Path == path {
			continue
		}
		filtered = append(filtered, e)
	}
	filtered = append(filtered, models.DailyIndexEntry{
		Ticker:    entity,
		Path:      path,
		Timestamp: now.UTC(),
	})
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})
	index.Entries = filtered

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	return store.Put(ctx, dailyIndexPath(date), data, "application/json")
}

func loadDailyIndex(ctx context.Context, store interfaces.ObjectStore, date string) (*models.DailyIndex, error) {
	data, err := store.Get(ctx, dailyIndexPath(date))
	if err != nil {
		return &models.DailyIndex{}, nil // cold start: no index yet for this date
	}
	var index models.DailyIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return &models.DailyIndex{}, nil
	}
	return &index, nil
}
