package wordlist

import (
	"os"
	"path/filepath"
	"testing"
)

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "list.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadKeepsOrder(t *testing.T) {
	path := writeList(t, "/admin\n/login\n/.git/config\n")

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"/admin", "/login", "/.git/config"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadKeepsDuplicates(t *testing.T) {
	path := writeList(t, "http://a.test\nhttp://a.test\nhttp://b.test\n")

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 entries (duplicates kept), got %d: %v", len(got), got)
	}
}

func TestLoadSkipsBlankLinesAndCR(t *testing.T) {
	path := writeList(t, "http://a.test\r\n\r\n   \nhttp://b.test  \n")

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("unexpected entries: %q", got)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	got, err := Load(writeList(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no entries, got %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
