package catalog

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"modpack-downloader/modpack"

	"go.uber.org/zap"
)

// CurseForge adapts the CurseForge addon proxy API.
type CurseForge struct {
	BaseURL string
	client  *Client
	log     *zap.SugaredLogger
}

var _ Adapter = (*CurseForge)(nil)

func NewCurseForge(baseURL string, client *Client, log *zap.SugaredLogger) *CurseForge {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &CurseForge{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     log.With(zap.String("provider", string(modpack.ProviderCurseForge))),
	}
}

func (c *CurseForge) Provider() modpack.Provider { return modpack.ProviderCurseForge }

// ListFiles returns the addon's files newest first. The API does not sort
// them, and its gameVersion list mixes game versions with loader names in
// inconsistent case, so every tag is lower-cased and used for both.
func (c *CurseForge) ListFiles(ctx context.Context, id string) []Candidate {
	var files []AddonFile
	err := c.client.getJSON(ctx, fmt.Sprintf("%s/addon/%s/files", c.BaseURL, url.PathEscape(id)), &files)
	if err != nil {
		c.log.Warnw("Failed to list addon files", zap.String("id", id), zap.Error(err))
		return nil
	}

	candidates := make([]Candidate, 0, len(files))
	for _, f := range files {
		candidates = append(candidates, f.candidate(c.log))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PublishedAt.After(candidates[j].PublishedAt)
	})
	return candidates
}

// FetchMetadata returns the addon's display information.
func (c *CurseForge) FetchMetadata(ctx context.Context, id string) modpack.Metadata {
	var addon Addon
	err := c.client.getJSON(ctx, fmt.Sprintf("%s/addon/%s", c.BaseURL, url.PathEscape(id)), &addon)
	if err != nil {
		c.log.Warnw("Failed to fetch addon", zap.String("id", id), zap.Error(err))
		return modpack.ErrorMetadata
	}

	m := modpack.Metadata{
		ID:          id,
		Provider:    modpack.ProviderCurseForge,
		Slug:        addon.Slug,
		Title:       addon.Name,
		Description: addon.Summary,
		URL:         addon.WebsiteURL,
	}
	if len(addon.Attachments) > 0 {
		m.IconURL = addon.Attachments[0].URL
	}
	return m
}

// Addon is the CurseForge project document.
type Addon struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	Summary     string       `json:"summary"`
	WebsiteURL  string       `json:"websiteUrl"`
	Attachments []Attachment `json:"attachments"`
}

type Attachment struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	IsDefault    bool   `json:"isDefault"`
}

// AddonFile is one uploaded file of an addon.
type AddonFile struct {
	ID          int      `json:"id"`
	FileName    string   `json:"fileName"`
	FileDate    string   `json:"fileDate"`
	DownloadURL string   `json:"downloadUrl"`
	GameVersion []string `json:"gameVersion"`
}

var fileDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseFileDate(s string) (time.Time, bool) {
	for _, layout := range fileDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (f AddonFile) candidate(log *zap.SugaredLogger) Candidate {
	tags := make([]string, 0, len(f.GameVersion))
	for _, v := range f.GameVersion {
		tags = append(tags, strings.ToLower(v))
	}
	c := Candidate{
		URL:          f.DownloadURL,
		Filename:     f.FileName,
		GameVersions: tags,
		Loaders:      tags,
	}
	if f.DownloadURL != "" {
		c.Files = []File{{URL: f.DownloadURL, Filename: f.FileName}}
	}
	if t, ok := parseFileDate(f.FileDate); ok {
		c.PublishedAt = t
	} else {
		log.Debugw("Unparseable file date", zap.Int("file_id", f.ID), zap.String("file_date", f.FileDate))
	}
	return c
}
