package output

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JohnWoodman/fes/internal/config"
	"github.com/JohnWoodman/fes/internal/scanner"
)

// requestBanner is the fixed request description printed in every
// transcript. It does not reflect the actual request line or host.
const requestBanner = "> GET /test.html HTTP/1.1\n" +
	"> Host: test.\n" +
	"> User-Agent: " + config.UserAgent + "\n"

// SiteDir returns the directory segment for a requested URL: everything
// from two bytes past the first '/' up to the next '/'.
func SiteDir(rawURL string) string {
	i := strings.IndexByte(rawURL, '/')
	if i < 0 {
		return rawURL
	}
	start := i + 2
	if start > len(rawURL) {
		return ""
	}
	rest := rawURL[start:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		return rest[:j]
	}
	return rest
}

// FileName is the lowercase hex SHA-256 of the requested URL.
func FileName(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// TranscriptPath is where the transcript for rawURL lives under root.
func TranscriptPath(root, rawURL string) string {
	return filepath.Join(root, SiteDir(rawURL), FileName(rawURL))
}

// EncodeTranscript renders one response. The body is written as-is with no
// trailing newline.
func EncodeTranscript(w io.Writer, requestURL string, resp *scanner.Response) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(requestURL)
	bw.WriteString("\n")
	bw.WriteString(requestBanner)
	bw.WriteString("\n")

	status := strconv.Itoa(resp.StatusCode)
	if resp.Reason != "" {
		status += " " + resp.Reason
	}
	bw.WriteString("< " + status + "\n")
	for _, h := range resp.Headers {
		bw.WriteString("< " + h.Name + ": " + h.Value + "\n")
	}
	bw.WriteString("\n")
	bw.Write(resp.Body)

	return bw.Flush()
}

// TranscriptWriter persists successful probes under a root directory.
type TranscriptWriter struct {
	root string
}

// NewTranscriptWriter creates the root directory if needed.
func NewTranscriptWriter(root string) (*TranscriptWriter, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &TranscriptWriter{root: root}, nil
}

// WriteResult stores result and returns the transcript path. The file is
// written to a temporary name and renamed into place, so readers see
// either the previous transcript or the complete new one.
func (t *TranscriptWriter) WriteResult(result *scanner.ScanResult) (string, error) {
	if !result.OK() {
		return "", fmt.Errorf("no response to write for %s", result.Item.FullURL())
	}
	target := result.Item.FullURL()
	dir := filepath.Join(t.root, SiteDir(target))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating site directory: %w", err)
	}
	dest := filepath.Join(dir, FileName(target))

	tmp, err := os.CreateTemp(dir, ".fes-*")
	if err != nil {
		return "", fmt.Errorf("creating transcript for %s: %w", target, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close() // may already be closed
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := EncodeTranscript(tmp, target, result.Response); err != nil {
		return "", fmt.Errorf("writing transcript for %s: %w", target, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return "", fmt.Errorf("writing transcript for %s: %w", target, err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("writing transcript for %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing transcript for %s: %w", target, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("saving transcript for %s: %w", target, err)
	}
	committed = true
	return dest, nil
}
