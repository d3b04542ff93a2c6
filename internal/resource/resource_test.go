package resource

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestFileManager_ReadFileSearchesDirectoriesInOrder(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "include")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "tile.bin"), []byte("tiles"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := FileManager{}
	res, err := m.ReadFile("tile.bin", []string{sub})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer res.Close()

	data, err := io.ReadAll(res)
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if string(data) != "tiles" {
		t.Fatalf("got %q, want %q", data, "tiles")
	}
	if res.CanonicalPath == "" {
		t.Fatal("expected a resolved canonical path")
	}
}

func TestFileManager_CreateMakesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "build", "game.nes")

	m := FileManager{}
	w, err := m.Create(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := w.Write([]byte{1, 2, 3}); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("expected the file to exist: %v", err)
	}
	if string(data) != "\x01\x02\x03" {
		t.Fatalf("got % X", data)
	}
}
