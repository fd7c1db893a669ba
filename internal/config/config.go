package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for a fes run.
const (
	DefaultConcurrency = 20
	DefaultOutputDir   = "fes_out"
	DefaultTimeout     = 3 * time.Second
	DefaultMaxBody     = 0 // no limit
)

// UserAgent is sent on every request and echoed in each transcript banner.
const UserAgent = "Mozilla/5.0 (compatible; fes/0.1; +https://github.com/JohnWoodman/fes)"

// ErrNoTargets is returned by Validate when a list file is missing.
var ErrNoTargets = errors.New("both a URL list (-u) and a path list (-p) are required")

// Options holds all configuration for a fes run.
type Options struct {
	// Target
	URLsFile  string `yaml:"urls"`
	PathsFile string `yaml:"path"`

	// Performance
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxBody     int64         `yaml:"max-body"` // 0 = unlimited

	// Output
	OutputDir string `yaml:"output"`
	Quiet     bool   `yaml:"quiet"`
	NoColor   bool   `yaml:"no-color"`

	// Logging
	LogFile string `yaml:"log-file"` // empty = stderr only
	Verbose bool   `yaml:"verbose"`
}

// Defaults returns Options populated with the built-in defaults.
func Defaults() Options {
	return Options{
		Concurrency: DefaultConcurrency,
		Timeout:     DefaultTimeout,
		MaxBody:     DefaultMaxBody,
		OutputDir:   DefaultOutputDir,
	}
}

// LoadFile overlays values from a YAML file onto opts. A field is only
// taken from the file when changed reports that the matching flag was not
// set on the command line. changed may be nil.
func LoadFile(path string, opts *Options, changed func(name string) bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	// Decode into a copy so only keys present in the file are touched.
	file := *opts
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	isSet := func(name string) bool {
		if _, ok := raw[name]; !ok {
			return false
		}
		return changed == nil || !changed(name)
	}

	if isSet("urls") {
		opts.URLsFile = file.URLsFile
	}
	if isSet("path") {
		opts.PathsFile = file.PathsFile
	}
	if isSet("concurrency") {
		opts.Concurrency = file.Concurrency
	}
	if isSet("timeout") {
		opts.Timeout = file.Timeout
	}
	if isSet("max-body") {
		opts.MaxBody = file.MaxBody
	}
	if isSet("output") {
		opts.OutputDir = file.OutputDir
	}
	if isSet("quiet") {
		opts.Quiet = file.Quiet
	}
	if isSet("no-color") {
		opts.NoColor = file.NoColor
	}
	if isSet("log-file") {
		opts.LogFile = file.LogFile
	}
	if isSet("verbose") {
		opts.Verbose = file.Verbose
	}
	return nil
}

// Validate checks that the options describe a runnable scan.
func (o *Options) Validate() error {
	if o.URLsFile == "" || o.PathsFile == "" {
		return ErrNoTargets
	}
	if o.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", o.Concurrency)
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", o.Timeout)
	}
	if o.MaxBody < 0 {
		return fmt.Errorf("max-body must not be negative, got %d", o.MaxBody)
	}
	if o.OutputDir == "" {
		return errors.New("output directory must not be empty")
	}
	return nil
}
