package wordlist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads a newline-delimited list and returns its entries in file order.
// Surrounding whitespace (including a trailing \r) is trimmed and blank
// lines are skipped. Duplicates are kept: every entry is probed as given.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var result []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024) // long URLs with query strings
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		result = append(result, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return result, nil
}
