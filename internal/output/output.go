package output

import "time"

// Stats holds aggregate run statistics.
type Stats struct {
	TotalRequests  int
	Saved          int
	ErrorCount     int
	WriteErrors    int
	Duration       time.Duration
	RequestsPerSec float64
}
