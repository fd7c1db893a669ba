package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JohnWoodman/fes/internal/config"
	"github.com/JohnWoodman/fes/internal/runner"
	"github.com/JohnWoodman/fes/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	opts       = config.Defaults()
	configFile string
)

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"TARGET", []string{"urls", "path"}},
	{"PERFORMANCE", []string{"concurrency", "timeout", "max-body"}},
	{"OUTPUT", []string{"output", "quiet", "no-color", "verbose", "log-file"}},
	{"CONFIGURATION", []string{"config", "version"}},
}

var rootCmd = &cobra.Command{
	Use:     "fes -u <urls-file> -p <paths-file> [flags]",
	Short:   "Fast endpoint scanner",
	Version: version.Version,
	Long: `fes requests every path in a path list against every base URL in a URL
list and saves one transcript per response under the output directory.
Transcripts are grouped by host and named by the SHA-256 of the requested URL.`,
	Example: `  fes -u urls.txt -p paths.txt
  fes -u urls.txt -p paths.txt -c 100 -o out
  fes -u urls.txt -p paths.txt --timeout 5s --max-body 1048576
  fes --config fes.yaml -q`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			if err := config.LoadFile(configFile, &opts, cmd.Flags().Changed); err != nil {
				return err
			}
		}
		if opts.URLsFile == "" || opts.PathsFile == "" {
			_ = cmd.Help()
			fmt.Fprintln(os.Stderr)
		}
		return opts.Validate()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runner.Run(ctx, &opts)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.Flags()

	// Target
	f.StringVarP(&opts.URLsFile, "urls", "u", "", "File with one base URL per line")
	f.StringVarP(&opts.PathsFile, "path", "p", "", "File with one path per line")

	// Performance
	f.IntVarP(&opts.Concurrency, "concurrency", "c", config.DefaultConcurrency, "Maximum requests in flight")
	f.DurationVar(&opts.Timeout, "timeout", config.DefaultTimeout, "Per-request timeout")
	f.Int64Var(&opts.MaxBody, "max-body", config.DefaultMaxBody, "Truncate response bodies after this many bytes (0 for no limit)")

	// Output
	f.StringVarP(&opts.OutputDir, "output", "o", config.DefaultOutputDir, "Directory for response transcripts")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "Minimal output")
	f.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "Print debug logs")
	f.StringVar(&opts.LogFile, "log-file", "", "Also write JSON logs to this file (rotated)")

	// Configuration
	f.StringVar(&configFile, "config", "", "YAML file with default option values")

	// Custom help: categorized flags.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		w := os.Stderr
		fmt.Fprint(w, helpBanner(cmd.Version))
		fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
		fmt.Fprintf(w, "\nExamples:\n%s\n", cmd.Example)
		fmt.Fprintf(w, "\nFlags:\n")
		for _, g := range helpGroups {
			fmt.Fprintf(w, "\n%s:\n", g.title)
			for _, name := range g.flags {
				if f := cmd.Flags().Lookup(name); f != nil {
					fmt.Fprintln(w, formatFlag(f))
				}
			}
		}
		fmt.Fprintln(w)
	})
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}

	typ := f.Value.Type()
	if typ != "bool" {
		left += " " + typ
	}

	// Pad to fixed column width for aligned descriptions.
	const col = 32
	for len(left) < col {
		left += " "
	}

	right := f.Usage
	def := f.DefValue
	if def != "" && def != "false" && def != "0" && def != "0s" {
		right += fmt.Sprintf(" (default %s)", def)
	}

	return "   " + left + right
}

func helpBanner(ver string) string {
	if ver != "dev" && ver != "" && !strings.HasPrefix(ver, "v") {
		ver = "v" + ver
	}
	return fmt.Sprintf(`
    ____
   / __/__  _____
  / /_/ _ \/ ___/
 / __/  __(__  )
/_/  \___/____/   %s

`, ver)
}
