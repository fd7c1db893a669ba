package scanner

import (
	"context"
	"sync"
)

// Prober executes one probe. *Requester implements it.
type Prober interface {
	Do(ctx context.Context, item WorkItem) (*Response, error)
}

// WorkerConfig holds options for the worker pool.
type WorkerConfig struct {
	Threads int // maximum probes in flight
}

// RunWorkerPool fans out work items across workers and returns a channel
// of results in completion order. At most cfg.Threads probes run at once.
// The channel is closed when all items have been processed, or early if
// ctx is cancelled.
func RunWorkerPool(
	ctx context.Context,
	req Prober,
	items []WorkItem,
	cfg WorkerConfig,
) <-chan ScanResult {
	threads := cfg.Threads
	if threads < 1 {
		threads = 1
	}
	if threads > len(items) && len(items) > 0 {
		threads = len(items)
	}
	itemsCh := make(chan WorkItem, threads*2)
	resultsCh := make(chan ScanResult, threads*2)

	var wg sync.WaitGroup

	// Producer: feed items into channel.
	go func() {
		defer close(itemsCh)
		for _, item := range items {
			select {
			case itemsCh <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Workers: consume items, produce results.
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemsCh {
				resp, err := req.Do(ctx, item)
				if err != nil && ctx.Err() != nil {
					return
				}
				select {
				case resultsCh <- ScanResult{Item: item, Response: resp, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Closer: when all workers finish, close the results channel.
	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	return resultsCh
}
