package upload

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestSaveWritesFile(t *testing.T) {
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "uploads"), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.MaxBytes() != DefaultMaxBytes {
		t.Fatalf("expected default limit, got %d", s.MaxBytes())
	}

	name, err := s.Save("party cat.GIF", strings.NewReader("GIF89a..."))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(name, "partycat-") || !strings.HasSuffix(name, ".gif") {
		t.Fatalf("unexpected generated name %q", name)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(), name))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "GIF89a..." {
		t.Fatalf("unexpected content %q", data)
	}

	if err := s.Remove(name); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(name); err != nil {
		t.Fatalf("Remove of missing file: %v", err)
	}
}

func TestSaveRejectsOversizedAndEmpty(t *testing.T) {
	s, err := New(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := s.Save("big.gif", bytes.NewReader(make([]byte, 9))); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, err := s.Save("exact.gif", bytes.NewReader(make([]byte, 8))); err != nil {
		t.Fatalf("expected exact-size upload to pass, got %v", err)
	}
	if _, err := s.Save("empty.gif", bytes.NewReader(nil)); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}

	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the accepted file to remain, got %d entries", len(entries))
	}
}

func TestGenerateName(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Za-z0-9_-]+-[0-9a-f]{12}(\.[a-z0-9]+)?$`)

	for _, in := range []string{"cat.gif", "../../etc/passwd", `C:\temp\dog.GIF`, "", "ünïcode.gif", ".gif"} {
		name := GenerateName(in)
		if !pattern.MatchString(name) {
			t.Errorf("GenerateName(%q) = %q has unexpected shape", in, name)
		}
		if strings.Contains(name, "/") || strings.Contains(name, "..") {
			t.Errorf("GenerateName(%q) = %q escapes the upload dir", in, name)
		}
	}

	if GenerateName("cat.gif") == GenerateName("cat.gif") {
		t.Fatalf("expected unique names")
	}
}
