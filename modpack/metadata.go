package modpack

// Metadata is the descriptive information shown for a mod.
type Metadata struct {
	ID          string   `json:"id,omitempty"`
	Provider    Provider `json:"provider,omitempty"`
	Slug        string   `json:"slug,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	IconURL     string   `json:"icon_url,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// ErrorMetadata stands in for a mod whose metadata could not be fetched.
// Its ID is always empty.
var ErrorMetadata = Metadata{
	Title:       "Error",
	Description: "An error occurred while loading the mod",
	IconURL:     "https://www.iconfinder.com/icons/4781855/download/png/128",
	URL:         "https://modrinth.com",
}

// IsError reports whether m is a failed-fetch placeholder.
func (m Metadata) IsError() bool {
	return m.ID == ""
}

// Merge returns m with every non-empty field of update laid over it.
func (m Metadata) Merge(update Metadata) Metadata {
	if update.ID != "" {
		m.ID = update.ID
	}
	if update.Provider != "" {
		m.Provider = update.Provider
	}
	if update.Slug != "" {
		m.Slug = update.Slug
	}
	if update.Title != "" {
		m.Title = update.Title
	}
	if update.Description != "" {
		m.Description = update.Description
	}
	if update.IconURL != "" {
		m.IconURL = update.IconURL
	}
	if update.URL != "" {
		m.URL = update.URL
	}
	return m
}

// DisplayName falls back to the reference id when no title is known.
func (m Metadata) DisplayName(ref ModReference) string {
	if m.Title != "" {
		return m.Title
	}
	return ref.ID
}
