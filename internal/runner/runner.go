package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/JohnWoodman/fes/internal/config"
	"github.com/JohnWoodman/fes/internal/logging"
	"github.com/JohnWoodman/fes/internal/output"
	"github.com/JohnWoodman/fes/internal/scanner"
	"github.com/JohnWoodman/fes/internal/wordlist"
	"github.com/JohnWoodman/fes/pkg/version"
)

// Run executes a full probing run: every path in the path list against
// every URL in the URL list, one path batch at a time. Probe failures are
// logged and skipped. Transcript write failures are logged, counted and
// returned together once the run has finished.
func Run(ctx context.Context, opts *config.Options) error {
	return run(ctx, opts, os.Stdout, os.Stderr, isTerminal(os.Stderr))
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func run(ctx context.Context, opts *config.Options, stdout, stderr io.Writer, tty bool) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	// 1. Load target lists. Nothing is probed unless both are readable.
	urls, err := wordlist.Load(opts.URLsFile)
	if err != nil {
		return fmt.Errorf("loading URL list: %w", err)
	}
	paths, err := wordlist.Load(opts.PathsFile)
	if err != nil {
		return fmt.Errorf("loading path list: %w", err)
	}

	// 2. Create HTTP requester and transcript writer.
	req, err := scanner.NewRequester(opts)
	if err != nil {
		return fmt.Errorf("creating requester: %w", err)
	}
	transcripts, err := output.NewTranscriptWriter(opts.OutputDir)
	if err != nil {
		return err
	}

	batches := scanner.Plan(urls, paths)
	total := len(urls) * len(paths)

	// 3. Progress display and logger. Log lines go through the progress
	// writer so they are printed above the progress line.
	progress := output.NewProgress(stderr, total, tty && !opts.Quiet)
	log, err := logging.New(logging.Options{
		Console: progress,
		File:    opts.LogFile,
		Verbose: opts.Verbose,
		NoColor: opts.NoColor || !tty,
		RunID:   uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	text := output.NewTextWriter(stdout, opts.NoColor, opts.Quiet)

	if !opts.Quiet {
		printBanner(stderr, opts, len(urls), len(paths))
	}
	log.Debug("run started",
		zap.Int("urls", len(urls)),
		zap.Int("paths", len(paths)),
		zap.Int("concurrency", opts.Concurrency),
		zap.Duration("timeout", opts.Timeout),
		zap.String("output", opts.OutputDir),
	)

	progress.Start()
	startTime := time.Now()

	var stats output.Stats
	var writeErrs error

	// 4. One batch per path, strictly in order.
	for _, batch := range batches {
		if ctx.Err() != nil {
			break
		}
		progress.SetPath(batch.Path)
		log.Debug("batch started", zap.String("path", batch.Path), zap.Int("targets", len(batch.Items)))

		results := scanner.RunWorkerPool(ctx, req, batch.Items, scanner.WorkerConfig{
			Threads: opts.Concurrency,
		})
		for result := range results {
			stats.TotalRequests++
			progress.Increment()

			if result.Err != nil {
				stats.ErrorCount++
				progress.IncrementErrors()
				log.Warn("probe failed",
					zap.String("url", result.Item.FullURL()),
					zap.String("kind", failureKind(result.Err)),
					zap.Error(result.Err),
				)
				continue
			}

			file, err := transcripts.WriteResult(&result)
			if err != nil {
				stats.WriteErrors++
				progress.IncrementErrors()
				log.Error("writing transcript failed",
					zap.String("url", result.Item.FullURL()),
					zap.Error(err),
				)
				writeErrs = multierr.Append(writeErrs, err)
				continue
			}
			stats.Saved++
			if result.Response.Truncated {
				log.Warn("body truncated",
					zap.String("url", result.Item.FullURL()),
					zap.Int64("max_body", opts.MaxBody),
				)
			}

			progress.ClearLine()
			if err := text.WriteResult(file, &result); err != nil {
				progress.Stop()
				return err
			}
			progress.Redraw()
		}
	}

	progress.Stop()

	stats.Duration = time.Since(startTime)
	if stats.Duration.Seconds() > 0 {
		stats.RequestsPerSec = float64(stats.TotalRequests) / stats.Duration.Seconds()
	}
	if err := text.WriteFooter(stderr, stats); err != nil {
		return err
	}

	if ctx.Err() != nil {
		return multierr.Append(ctx.Err(), writeErrs)
	}
	if writeErrs != nil {
		n := len(multierr.Errors(writeErrs))
		return fmt.Errorf("%d transcript(s) could not be written: %w", n, writeErrs)
	}
	return nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, scanner.ErrDecode):
		return "decode"
	case errors.Is(err, context.DeadlineExceeded), isTimeout(err):
		return "timeout"
	default:
		return "transport"
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func printBanner(w io.Writer, opts *config.Options, urlCount, pathCount int) {
	c := color.New(color.FgCyan)
	d := color.New(color.Faint)
	y := color.New(color.FgYellow)
	if opts.NoColor {
		c.DisableColor()
		d.DisableColor()
		y.DisableColor()
	}

	c.Fprintf(w, `
    ____
   / __/__  _____
  / /_/ _ \/ ___/
 / __/  __(__  )
/_/  \___/____/   `)
	d.Fprintf(w, "v%s\n\n", version.Version)
	d.Fprintf(w, "    Fast Endpoint Scanner\n")

	d.Fprintln(w, "  ──────────────────────────────────────")
	fmt.Fprintf(w, "  %s   %d\n", d.Sprint("URLs:"), urlCount)
	fmt.Fprintf(w, "  %s  %d\n", d.Sprint("Paths:"), pathCount)
	fmt.Fprintf(w, "  %s %s\n", d.Sprint("Threads:"), y.Sprint(opts.Concurrency))
	fmt.Fprintf(w, "  %s %s\n", d.Sprint("Timeout:"), opts.Timeout)
	fmt.Fprintf(w, "  %s  %s\n", d.Sprint("Output:"), opts.OutputDir)
	d.Fprintln(w, "  ──────────────────────────────────────")
	fmt.Fprintln(w)
}
