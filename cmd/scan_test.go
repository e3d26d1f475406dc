package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"modpack-downloader/cache"
	"modpack-downloader/catalog"
	"modpack-downloader/db"
	"modpack-downloader/modpack"
)

func TestCalculateSHA1(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "test.txt")
	content := []byte("hello world")

	if err := os.WriteFile(filePath, content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	// echo -n "hello world" | sha1sum
	// 2aae6c35c94fcfb415dbe95f408b9ce91ee846ed
	expected := "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed"

	hash, err := calculateSHA1(filePath)
	if err != nil {
		t.Fatalf("calculateSHA1 failed: %v", err)
	}

	if hash != expected {
		t.Errorf("calculateSHA1() = %s, want %s", hash, expected)
	}
}

func TestCalculateSHA1FileNotFound(t *testing.T) {
	_, err := calculateSHA1("non-existent-file")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

// hashLookup knows the SHA-1 of "hello world".
type hashLookup struct{}

func (hashLookup) VersionByHash(_ context.Context, hash string) (*catalog.Version, error) {
	if hash == "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed" {
		return &catalog.Version{ID: "v1", ProjectID: "AANobbMI", VersionNumber: "0.5.0"}, nil
	}
	return nil, errors.New("HTTP 404")
}

func (hashLookup) Project(_ context.Context, id string) (*catalog.Project, error) {
	return &catalog.Project{ID: id, Slug: "sodium", Title: "Sodium"}, nil
}

func TestScanAddsKnownFiles(t *testing.T) {
	store, err := db.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	library := modpack.NewLibrary(store)
	if err := library.Add(modpack.Modpack{Name: "pack", Version: "1.20.1", Modloader: modpack.LoaderFabric}); err != nil {
		t.Fatalf("Failed to add modpack: %v", err)
	}
	metadata, err := cache.New(store, catalog.NewRegistry(), nil)
	if err != nil {
		t.Fatalf("Failed to load cache: %v", err)
	}

	dir := t.TempDir()
	files := map[string]string{
		"sodium.jar":  "hello world",
		"copy.jar":    "hello world",
		"unknown.zip": "something else",
		"notes.txt":   "hello world",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	s := scanner{client: hashLookup{}, library: library, cache: metadata}
	res, err := s.scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if res.scanned != 3 || res.added != 1 || res.present != 1 {
		t.Errorf("scan() = %+v, want 3 scanned, 1 added, 1 present", res)
	}
	if len(res.unknown) != 1 || res.unknown[0] != "unknown.zip" {
		t.Errorf("unknown = %v, want [unknown.zip]", res.unknown)
	}

	m, err := library.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	want := modpack.ModReference{ID: "AANobbMI", Provider: modpack.ProviderModrinth, Enabled: true}
	if len(m.Mods) != 1 || m.Mods[0] != want {
		t.Errorf("mods = %v, want [%v]", m.Mods, want)
	}

	cached, ok := metadata.Lookup(want)
	if !ok || cached.Title != "Sodium" || cached.URL != "https://modrinth.com/mod/sodium" {
		t.Errorf("cached metadata = %+v, %v", cached, ok)
	}
}
