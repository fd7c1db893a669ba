package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	opts := Defaults()
	assert.Equal(t, 20, opts.Concurrency)
	assert.Equal(t, 3*time.Second, opts.Timeout)
	assert.Equal(t, "fes_out", opts.OutputDir)
}

func TestLoadFileOverlaysUnsetFlags(t *testing.T) {
	path := writeConfig(t, `
urls: hosts.txt
path: paths.txt
concurrency: 50
timeout: 5s
output: archive
`)
	opts := Defaults()
	opts.OutputDir = "from-flag"

	changed := func(name string) bool { return name == "output" }
	require.NoError(t, LoadFile(path, &opts, changed))

	assert.Equal(t, "hosts.txt", opts.URLsFile)
	assert.Equal(t, "paths.txt", opts.PathsFile)
	assert.Equal(t, 50, opts.Concurrency)
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.Equal(t, "from-flag", opts.OutputDir, "explicit flag must win over config file")
}

func TestLoadFileKeepsDefaultsForMissingKeys(t *testing.T) {
	path := writeConfig(t, "quiet: true\n")
	opts := Defaults()
	require.NoError(t, LoadFile(path, &opts, nil))

	assert.True(t, opts.Quiet)
	assert.Equal(t, DefaultConcurrency, opts.Concurrency)
	assert.Equal(t, DefaultTimeout, opts.Timeout)
}

func TestLoadFileErrors(t *testing.T) {
	opts := Defaults()
	err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &opts, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := writeConfig(t, "concurrency: [1, 2\n")
	require.Error(t, LoadFile(bad, &opts, nil))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr bool
	}{
		{name: "valid", mutate: func(o *Options) {}},
		{name: "missing urls", mutate: func(o *Options) { o.URLsFile = "" }, wantErr: true},
		{name: "missing paths", mutate: func(o *Options) { o.PathsFile = "" }, wantErr: true},
		{name: "zero concurrency", mutate: func(o *Options) { o.Concurrency = 0 }, wantErr: true},
		{name: "negative timeout", mutate: func(o *Options) { o.Timeout = -time.Second }, wantErr: true},
		{name: "negative max body", mutate: func(o *Options) { o.MaxBody = -1 }, wantErr: true},
		{name: "unlimited body", mutate: func(o *Options) { o.MaxBody = 0 }},
		{name: "empty output", mutate: func(o *Options) { o.OutputDir = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Defaults()
			opts.URLsFile = "urls.txt"
			opts.PathsFile = "paths.txt"
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	opts := Defaults()
	assert.ErrorIs(t, opts.Validate(), ErrNoTargets)
}
