// Package catalog normalizes the Modrinth and CurseForge APIs into one shape.
//
// Adapters never return errors: a failed call is logged and surfaces as an
// empty file list or as modpack.ErrorMetadata.
package catalog

import (
	"context"
	"time"

	"modpack-downloader/modpack"
)

// File is one downloadable file of a candidate.
type File struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Candidate is one upstream version/file entry in catalog-neutral form.
type Candidate struct {
	URL          string
	Filename     string
	GameVersions []string
	Loaders      []string
	PublishedAt  time.Time
	// Files holds every file attached to the entry. Modrinth versions may
	// carry several (main jar plus extras).
	Files []File
}

// HasGameVersion reports whether v is one of the candidate's game versions.
func (c Candidate) HasGameVersion(v string) bool {
	return contains(c.GameVersions, v)
}

// HasLoader reports whether l is one of the candidate's loaders.
func (c Candidate) HasLoader(l string) bool {
	return contains(c.Loaders, l)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Adapter is implemented once per catalog.
type Adapter interface {
	Provider() modpack.Provider
	ListFiles(ctx context.Context, id string) []Candidate
	FetchMetadata(ctx context.Context, id string) modpack.Metadata
}

// Registry dispatches to the adapter of a reference's provider.
type Registry map[modpack.Provider]Adapter

// NewRegistry indexes adapters by provider.
func NewRegistry(adapters ...Adapter) Registry {
	r := make(Registry, len(adapters))
	for _, a := range adapters {
		r[a.Provider()] = a
	}
	return r
}

// For returns the adapter for p.
func (r Registry) For(p modpack.Provider) (Adapter, bool) {
	a, ok := r[p]
	return a, ok
}
