package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewManagerCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "work")
	if _, err := NewManager(dir, 0); err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("temp dir not created: %v", err)
	}

	if _, err := NewManager("", 0); err == nil {
		t.Fatal("want error for empty dir")
	}
}

func TestCheckSize(t *testing.T) {
	m, err := NewManager(t.TempDir(), 100)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if err := m.CheckSize(100); err != nil {
		t.Fatalf("size at the limit rejected: %v", err)
	}
	if err := m.CheckSize(101); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}

	unlimited, err := NewManager(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := unlimited.CheckSize(1 << 40); err != nil {
		t.Fatalf("unlimited manager rejected size: %v", err)
	}
}

func TestTrimmedPath(t *testing.T) {
	m, err := NewManager(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cases := map[string]string{
		"/tmp/a.mp3":  "/tmp/a.trimmed.mp3",
		"/tmp/b.flac": "/tmp/b.trimmed.flac",
		"/tmp/noext":  "/tmp/noext.trimmed",
	}
	for src, want := range cases {
		if got := m.TrimmedPath(src); got != want {
			t.Errorf("TrimmedPath(%q) = %q, want %q", src, got, want)
		}
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, 0)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	path := filepath.Join(dir, "x.mp3")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	m.Remove(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file still present: %v", err)
	}

	// Removing again, or removing nothing, must stay quiet.
	m.Remove(path)
	m.Remove("")
}
