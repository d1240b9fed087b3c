package site

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/folio/internal/apperr"
)

func TestClean(t *testing.T) {
	tests := map[string]string{
		"index.html":        "index.html",
		"/index.html":       "index.html",
		"a//b/./c.html":     "a/b/c.html",
		"":                  "",
		"assets\\style.css": "assets/style.css",
	}
	for in, want := range tests {
		got, err := Clean(in)
		if err != nil || got != want {
			t.Errorf("Clean(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := Clean("../etc/passwd"); !errors.Is(err, apperr.ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
}

func TestMemory_ReadWrite(t *testing.T) {
	m := NewMemory()
	if err := m.Write("/a/b.html", []byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !m.Has("a/b.html") {
		t.Fatal("Has = false after Write")
	}
	data, err := m.Read("a/b.html")
	if err != nil || string(data) != "hello" {
		t.Fatalf("Read = %q, %v", data, err)
	}
	if _, err := m.Read("missing.html"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_ReplaceKeepsOldGenerationOnFailure(t *testing.T) {
	m := NewMemory()
	_ = m.Write("old.html", []byte("old"))

	boom := errors.New("boom")
	err := m.Replace(func(s Store) error {
		_ = s.Write("new.html", []byte("new"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Replace error = %v", err)
	}
	if !m.Has("old.html") || m.Has("new.html") {
		t.Fatalf("failed Replace changed content: %v", m.Paths())
	}

	if err := m.Replace(func(s Store) error { return s.Write("new.html", []byte("new")) }); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if m.Has("old.html") || !m.Has("new.html") {
		t.Fatalf("Replace did not swap generations: %v", m.Paths())
	}
}

func TestMemory_Copy(t *testing.T) {
	src := filepath.Join(t.TempDir(), "logo.png")
	if err := os.WriteFile(src, []byte{0x89, 'P', 'N', 'G'}, 0o644); err != nil {
		t.Fatal(err)
	}
	m := NewMemory()
	if err := m.Copy(src, "img/logo.png"); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	data, _ := m.Read("img/logo.png")
	if string(data) != "\x89PNG" {
		t.Errorf("copied content = %q", data)
	}
}

func TestDisk_WriteReadHas(t *testing.T) {
	out := filepath.Join(t.TempDir(), "site")
	d, err := NewDisk(out)
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}

	if err := d.Write("nested/page.html", []byte("<p>x</p>")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !d.Has("nested/page.html") {
		t.Fatal("Has = false after Write")
	}
	if d.Has("nested") {
		t.Error("directories are not artifacts")
	}
	data, err := d.Read("nested/page.html")
	if err != nil || string(data) != "<p>x</p>" {
		t.Fatalf("Read = %q, %v", data, err)
	}
	if _, err := d.Read("nope.html"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := d.Write("../escape.html", nil); !errors.Is(err, apperr.ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}

	entries, _ := os.ReadDir(filepath.Join(out, "nested"))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestDisk_ReplaceClearsPreviousOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "site")
	d, _ := NewDisk(out)
	_ = d.Write("stale.html", []byte("stale"))

	if err := d.Replace(func(s Store) error { return s.Write("fresh.html", []byte("fresh")) }); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if d.Has("stale.html") {
		t.Error("stale artifact survived Replace")
	}
	if !d.Has("fresh.html") {
		t.Error("fresh artifact missing")
	}
}

func TestNewDisk_RejectsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	_ = os.WriteFile(f, nil, 0o644)
	if _, err := NewDisk(f); err == nil {
		t.Fatal("expected error for file root")
	}
}
