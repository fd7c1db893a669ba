package output

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/JohnWoodman/fes/internal/scanner"
)

// TextWriter prints one line per saved transcript.
type TextWriter struct {
	w       io.Writer
	noColor bool
	quiet   bool
}

// NewTextWriter creates a text writer on w. noColor disables ANSI escape
// codes and quiet suppresses everything.
func NewTextWriter(w io.Writer, noColor, quiet bool) *TextWriter {
	return &TextWriter{w: w, noColor: noColor, quiet: quiet}
}

// WriteResult prints "<file> <url> (<status>)".
func (t *TextWriter) WriteResult(file string, result *scanner.ScanResult) error {
	if t.quiet || !result.OK() {
		return nil
	}
	resp := result.Response
	status := fmt.Sprintf("%d", resp.StatusCode)
	if resp.Reason != "" {
		status += " " + resp.Reason
	}
	_, err := fmt.Fprintf(t.w, "%s %s (%s)\n",
		file,
		result.Item.FullURL(),
		t.colorForStatus(resp.StatusCode).Sprint(status),
	)
	return err
}

// WriteFooter prints the run summary to w.
func (t *TextWriter) WriteFooter(w io.Writer, stats Stats) error {
	if t.quiet {
		return nil
	}
	label := color.New(color.Faint)
	if t.noColor {
		label.DisableColor()
	}
	_, err := fmt.Fprintf(w,
		"\n%s %d requests | Saved: %d | Failed: %d | Write errors: %d | Duration: %s | %.1f req/s\n",
		label.Sprint("Completed:"),
		stats.TotalRequests,
		stats.Saved,
		stats.ErrorCount,
		stats.WriteErrors,
		stats.Duration.Round(time.Millisecond),
		stats.RequestsPerSec,
	)
	return err
}

func (t *TextWriter) colorForStatus(code int) *color.Color {
	var c *color.Color
	switch {
	case code >= 200 && code < 300:
		c = color.New(color.FgGreen)
	case code >= 300 && code < 400:
		c = color.New(color.FgCyan)
	case code >= 400 && code < 500:
		c = color.New(color.FgYellow)
	case code >= 500:
		c = color.New(color.FgRed)
	default:
		c = color.New(color.Reset)
	}
	if t.noColor {
		c.DisableColor()
	}
	return c
}
