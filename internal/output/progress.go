package output

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Progress tracks and displays run progress on a terminal. It also acts as
// an io.Writer for diagnostic output so log lines do not collide with the
// progress line.
type Progress struct {
	w         io.Writer
	enabled   bool
	total     atomic.Int64
	completed atomic.Int64
	errors    atomic.Int64
	start     time.Time

	mu      sync.Mutex
	path    string
	running bool
	done    chan struct{}
	stopped chan struct{}
}

// NewProgress creates a progress tracker writing to w. When enabled is
// false nothing is drawn, but counters still work and Write passes through.
func NewProgress(w io.Writer, total int, enabled bool) *Progress {
	p := &Progress{
		w:       w,
		enabled: enabled,
		start:   time.Now(),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	p.total.Store(int64(total))
	return p
}

// Start begins periodically redrawing the progress line.
func (p *Progress) Start() {
	if !p.enabled {
		close(p.stopped)
		return
	}
	p.mu.Lock()
	p.running = true
	p.mu.Unlock()

	go func() {
		defer close(p.stopped)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Redraw()
			case <-p.done:
				p.mu.Lock()
				p.draw()
				fmt.Fprint(p.w, "\n")
				p.running = false
				p.mu.Unlock()
				return
			}
		}
	}()
}

// SetPath records the path of the batch in flight.
func (p *Progress) SetPath(path string) {
	p.mu.Lock()
	p.path = path
	p.mu.Unlock()
}

// Increment records a completed probe.
func (p *Progress) Increment() {
	p.completed.Add(1)
}

// IncrementErrors records a failed probe or write.
func (p *Progress) IncrementErrors() {
	p.errors.Add(1)
}

// Stop ends the progress display and waits for the final redraw.
func (p *Progress) Stop() {
	close(p.done)
	<-p.stopped
}

// ClearLine erases the progress line so other output can be printed.
func (p *Progress) ClearLine() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		fmt.Fprint(p.w, "\r\033[K")
	}
}

// Redraw prints the progress line again.
func (p *Progress) Redraw() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		p.draw()
	}
}

// Write prints b above the progress line.
func (p *Progress) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		fmt.Fprint(p.w, "\r\033[K")
	}
	n, err := p.w.Write(b)
	if p.running {
		p.draw()
	}
	return n, err
}

// draw must be called with p.mu held.
func (p *Progress) draw() {
	completed := p.completed.Load()
	total := p.total.Load()
	elapsed := time.Since(p.start).Seconds()
	rate := float64(0)
	if elapsed > 0 {
		rate = float64(completed) / elapsed
	}

	pct := float64(0)
	if total > 0 {
		pct = float64(completed) / float64(total) * 100
	}

	eta := ""
	if rate > 0 && completed < total {
		remaining := float64(total-completed) / rate
		eta = fmt.Sprintf("ETA: %s", time.Duration(remaining*float64(time.Second)).Round(time.Second))
	}

	fmt.Fprintf(p.w, "\r\033[K[%3.0f%%] %d/%d | %.0f req/s | Errors: %d | Path: %s | %s",
		pct, completed, total, rate, p.errors.Load(), p.path, eta)
}
