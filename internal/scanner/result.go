package scanner

import (
	"errors"
	"time"
)

// ErrDecode marks a response whose body could not be turned into text.
var ErrDecode = errors.New("undecodable response body")

// Header is one response header line as it appeared on the wire.
type Header struct {
	Name  string
	Value string
}

// Response is the successful outcome of a probe.
type Response struct {
	RequestURL string // URL as requested (item.FullURL())
	FinalURL   string // URL reported by the client; redirects are never followed
	StatusCode int
	Reason     string   // canonical reason phrase, may be empty for unknown codes
	Headers    []Header // wire order, duplicates preserved
	Body       []byte   // decoded to UTF-8
	Truncated  bool     // body hit the size cap
	Duration   time.Duration
}

// ScanResult holds the outcome of a single probe: either Response or Err
// is set.
type ScanResult struct {
	Item     WorkItem
	Response *Response
	Err      error
}

// OK reports whether the probe produced a response.
func (r ScanResult) OK() bool {
	return r.Err == nil && r.Response != nil
}
