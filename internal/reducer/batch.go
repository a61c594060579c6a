package reducer

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/cs2econ/internal/econ"
	"github.com/roach88/cs2econ/internal/rules"
)

// MatchFailure records one failed match in a batch run.
type MatchFailure struct {
	MatchID string `json:"match_id"`
	Error   string `json:"error"`
}

// BatchResult summarizes a batch reduction. One bad match never blocks the
// rest: failures are collected and reported alongside the successes.
type BatchResult struct {
	Results  []MatchResult
	Failures []MatchFailure
}

// EventSource yields one match's raw events on demand. The store satisfies
// this; tests use in-memory maps.
type EventSource func(ctx context.Context, matchID string) ([]econ.Event, error)

// ReduceBatch reduces many independent matches concurrently with at most
// `workers` goroutines. Match states never interact, so this is the one
// place the pipeline parallelizes; within each match the fold stays
// strictly sequential.
//
// Cancellation is coarse-grained: ctx is checked between matches, never
// mid-fold. Results and failures come back sorted by match ID so batch
// output is deterministic regardless of completion order.
func ReduceBatch(ctx context.Context, matchIDs []string, source EventSource, r rules.Rules, workers int) (BatchResult, error) {
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	var batch BatchResult

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, matchID := range matchIDs {
		matchID := matchID
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			events, err := source(ctx, matchID)
			if err != nil {
				// Source errors (I/O) cancel the batch; reduction errors
				// below do not.
				return err
			}

			result, err := ReduceMatchEvents(events, r)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				batch.Failures = append(batch.Failures, MatchFailure{MatchID: matchID, Error: err.Error()})
				return nil
			}
			batch.Results = append(batch.Results, result)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	sort.Slice(batch.Results, func(i, j int) bool {
		return batch.Results[i].MatchID < batch.Results[j].MatchID
	})
	sort.Slice(batch.Failures, func(i, j int) bool {
		return batch.Failures[i].MatchID < batch.Failures[j].MatchID
	})
	return batch, nil
}
