package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProber records peak concurrency and fails items whose path is "/fail".
type fakeProber struct {
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32

	mu   sync.Mutex
	seen map[string]int
}

func (f *fakeProber) Do(ctx context.Context, item WorkItem) (*Response, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	if f.seen == nil {
		f.seen = make(map[string]int)
	}
	f.seen[item.FullURL()]++
	f.mu.Unlock()

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if item.Path == "/fail" {
		return nil, errors.New("connection refused")
	}
	return &Response{RequestURL: item.FullURL(), StatusCode: 200}, nil
}

func makeItems(n int, path string) []WorkItem {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("http://host%d.test", i)
	}
	return BatchItems(urls, path)
}

func TestRunWorkerPoolRespectsConcurrencyCap(t *testing.T) {
	for _, threads := range []int{1, 3, 8} {
		t.Run(fmt.Sprintf("threads=%d", threads), func(t *testing.T) {
			p := &fakeProber{delay: 10 * time.Millisecond}
			items := makeItems(30, "/admin")

			count := 0
			for range RunWorkerPool(context.Background(), p, items, WorkerConfig{Threads: threads}) {
				count++
			}
			require.Equal(t, len(items), count)
			assert.LessOrEqual(t, p.peak.Load(), int32(threads), "peak in-flight exceeds cap")
		})
	}
}

func TestRunWorkerPoolProbesEachItemOnce(t *testing.T) {
	p := &fakeProber{}
	items := makeItems(50, "/x")
	for range RunWorkerPool(context.Background(), p, items, WorkerConfig{Threads: 7}) {
	}
	for _, item := range items {
		assert.Equal(t, 1, p.seen[item.FullURL()], item.FullURL())
	}
}

func TestRunWorkerPoolFailuresDoNotStopBatch(t *testing.T) {
	p := &fakeProber{}
	items := append(makeItems(5, "/fail"), makeItems(5, "/ok")...)

	var ok, failed int
	for r := range RunWorkerPool(context.Background(), p, items, WorkerConfig{Threads: 2}) {
		if r.OK() {
			ok++
		} else {
			failed++
			assert.Error(t, r.Err)
		}
	}
	assert.Equal(t, 5, ok)
	assert.Equal(t, 5, failed)
}

func TestRunWorkerPoolEmpty(t *testing.T) {
	p := &fakeProber{}
	count := 0
	for range RunWorkerPool(context.Background(), p, nil, WorkerConfig{Threads: 4}) {
		count++
	}
	assert.Zero(t, count)
}

func TestRunWorkerPoolCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &fakeProber{delay: time.Second}
	results := RunWorkerPool(ctx, p, makeItems(100, "/slow"), WorkerConfig{Threads: 4})

	cancel()
	done := make(chan struct{})
	go func() {
		for range results {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "results channel not closed after cancel")
	}
}
