package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"modpack-downloader/modpack"

	"go.uber.org/zap"
)

const modrinthSiteURL = "https://modrinth.com"

// Modrinth adapts the Modrinth v2 API.
type Modrinth struct {
	BaseURL string
	client  *Client
	log     *zap.SugaredLogger
}

var _ Adapter = (*Modrinth)(nil)

func NewModrinth(baseURL string, client *Client, log *zap.SugaredLogger) *Modrinth {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Modrinth{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     log.With(zap.String("provider", string(modpack.ProviderModrinth))),
	}
}

func (m *Modrinth) Provider() modpack.Provider { return modpack.ProviderModrinth }

// ListFiles returns the project's versions in API order.
func (m *Modrinth) ListFiles(ctx context.Context, id string) []Candidate {
	var versions []Version
	err := m.client.getJSON(ctx, fmt.Sprintf("%s/project/%s/version", m.BaseURL, url.PathEscape(id)), &versions)
	if err != nil {
		m.log.Warnw("Failed to list project versions", zap.String("id", id), zap.Error(err))
		return nil
	}

	candidates := make([]Candidate, 0, len(versions))
	for _, v := range versions {
		candidates = append(candidates, v.candidate())
	}
	return candidates
}

// FetchMetadata returns the project's display information.
func (m *Modrinth) FetchMetadata(ctx context.Context, id string) modpack.Metadata {
	project, err := m.Project(ctx, id)
	if err != nil {
		m.log.Warnw("Failed to fetch project", zap.String("id", id), zap.Error(err))
		return modpack.ErrorMetadata
	}
	return modpack.Metadata{
		ID:          id,
		Provider:    modpack.ProviderModrinth,
		Slug:        project.Slug,
		Title:       project.Title,
		Description: project.Description,
		IconURL:     project.IconURL,
		URL:         fmt.Sprintf("%s/mod/%s", modrinthSiteURL, project.Slug),
	}
}

// Project retrieves details for a specific project.
func (m *Modrinth) Project(ctx context.Context, id string) (*Project, error) {
	var project Project
	if err := m.client.getJSON(ctx, fmt.Sprintf("%s/project/%s", m.BaseURL, url.PathEscape(id)), &project); err != nil {
		return nil, fmt.Errorf("failed to get project '%s': %w", id, err)
	}
	return &project, nil
}

// VersionByHash retrieves version information using the file's SHA1 hash.
func (m *Modrinth) VersionByHash(ctx context.Context, hash string) (*Version, error) {
	var version Version
	if err := m.client.getJSON(ctx, fmt.Sprintf("%s/version_file/%s?algorithm=sha1", m.BaseURL, hash), &version); err != nil {
		return nil, fmt.Errorf("failed to get version by hash '%s': %w", hash, err)
	}
	return &version, nil
}

// Project represents a Modrinth project.
type Project struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
	Color       int    `json:"color"`
	ProjectType string `json:"project_type"`
}

// Version represents a Modrinth project version.
type Version struct {
	ID            string         `json:"id"`
	ProjectID     string         `json:"project_id"`
	Name          string         `json:"name"`
	VersionNumber string         `json:"version_number"`
	GameVersions  []string       `json:"game_versions"`
	Loaders       []string       `json:"loaders"`
	DatePublished string         `json:"date_published"`
	Files         []ModrinthFile `json:"files"`
}

// ModrinthFile is a file attached to a Modrinth version.
type ModrinthFile struct {
	Filename string            `json:"filename"`
	URL      string            `json:"url"`
	Primary  bool              `json:"primary"`
	Size     int               `json:"size"`
	Hashes   map[string]string `json:"hashes"`
}

// PrimaryFile returns the file marked primary, or the first file.
func (v Version) PrimaryFile() *ModrinthFile {
	for i := range v.Files {
		if v.Files[i].Primary {
			return &v.Files[i]
		}
	}
	if len(v.Files) > 0 {
		return &v.Files[0]
	}
	return nil
}

func (v Version) candidate() Candidate {
	c := Candidate{
		GameVersions: v.GameVersions,
		Loaders:      v.Loaders,
		Files:        make([]File, 0, len(v.Files)),
	}
	if t, err := time.Parse(time.RFC3339Nano, v.DatePublished); err == nil {
		c.PublishedAt = t
	}
	for _, f := range v.Files {
		c.Files = append(c.Files, File{URL: f.URL, Filename: f.Filename})
	}
	if primary := v.PrimaryFile(); primary != nil {
		c.URL = primary.URL
		c.Filename = primary.Filename
	}
	return c
}
