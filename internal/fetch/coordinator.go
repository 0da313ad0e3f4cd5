// Package fetch fans a per-key usage query out across every API key with a
// bounded worker pool and merges the results.
package fetch

import (
	"context"
	"sync"

	"github.com/teamflex/teamcredits/internal/analytics"
)

// DefaultWorkers is the pool size used when the caller passes a
// non-positive value.
const DefaultWorkers = 20

// MaxWorkers caps caller-supplied pool sizes.
const MaxWorkers = 64

// Fetcher runs one usage query for a single API key.
type Fetcher func(ctx context.Context, apiKey string) ([]analytics.UsageRecord, error)

// Outcome is the tagged result of one per-key fetch. Err being non-nil is a
// failed fetch; an empty Records with a nil Err is a user with no usage.
type Outcome struct {
	APIKey  string
	Records []analytics.UsageRecord
	Err     error
}

// Progress is an observational snapshot emitted after each completed key.
type Progress struct {
	Completed int
	Total     int
	Active    int
	Records   int
	Failed    int
}

// Result is the merged output of one parallel run.
type Result struct {
	// Records is the union of all successful fetches. No element order is
	// guaranteed; downstream aggregation is order-independent.
	Records []analytics.UsageRecord
	// ActiveUsers counts keys that returned at least one record.
	ActiveUsers int
	// Failures holds one outcome per failed key, in completion order.
	Failures []Outcome
}

// Parallel fetches usage for every key with at most workers concurrent
// queries and merges completions in arrival order. A failing key never
// aborts the batch: its outcome lands in Result.Failures and the run
// continues. onProgress, when non-nil, is called once per completed key
// from the merging goroutine only.
func Parallel(ctx context.Context, apiKeys []string, workers int, fetcher Fetcher, onProgress func(Progress)) Result {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	outcomes := make(chan Outcome, len(apiKeys))

	for _, key := range apiKeys {
		wg.Add(1)
		go func(apiKey string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			records, err := fetcher(ctx, apiKey)
			outcomes <- Outcome{APIKey: apiKey, Records: records, Err: err}
		}(key)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	// Single-threaded merge phase: workers never touch shared state.
	var result Result
	completed := 0
	for outcome := range outcomes {
		completed++

		switch {
		case outcome.Err != nil:
			result.Failures = append(result.Failures, outcome)
		case len(outcome.Records) > 0:
			result.Records = append(result.Records, outcome.Records...)
			result.ActiveUsers++
		}

		if onProgress != nil {
			onProgress(Progress{
				Completed: completed,
				Total:     len(apiKeys),
				Active:    result.ActiveUsers,
				Records:   len(result.Records),
				Failed:    len(result.Failures),
			})
		}
	}

	return result
}
