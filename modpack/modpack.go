package modpack

import (
	"encoding/json"
	"strings"
)

// Provider identifies the catalog a mod is hosted on.
type Provider string

const (
	ProviderModrinth   Provider = "modrinth"
	ProviderCurseForge Provider = "curseforge"
)

// Valid reports whether p is one of the supported catalogs.
func (p Provider) Valid() bool {
	return p == ProviderModrinth || p == ProviderCurseForge
}

// ParseProvider accepts the catalog names users tend to type.
func ParseProvider(s string) (Provider, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "modrinth", "mr":
		return ProviderModrinth, true
	case "curseforge", "curse", "cf":
		return ProviderCurseForge, true
	}
	return "", false
}

// Loader is the mod loader a modpack targets.
type Loader string

const (
	LoaderForge    Loader = "forge"
	LoaderFabric   Loader = "fabric"
	LoaderQuilt    Loader = "quilt"
	LoaderNeoForge Loader = "neoforge"
)

// ModReference points at one mod within one catalog.
type ModReference struct {
	ID       string   `json:"id"`
	Provider Provider `json:"provider"`
	Enabled  bool     `json:"enabled"`
}

// UnmarshalJSON treats a missing "enabled" field as enabled.
func (r *ModReference) UnmarshalJSON(data []byte) error {
	type alias ModReference
	aux := struct {
		alias
		Enabled *bool `json:"enabled"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = ModReference(aux.alias)
	r.Enabled = aux.Enabled == nil || *aux.Enabled
	return nil
}

// Same reports whether both references identify the same mod.
func (r ModReference) Same(other ModReference) bool {
	return r.ID == other.ID && r.Provider == other.Provider
}

// Modpack is a named, ordered collection of mod references plus its target.
type Modpack struct {
	Name      string         `json:"name"`
	Version   string         `json:"version"`
	Modloader Loader         `json:"modloader"`
	Mods      []ModReference `json:"mods"`
}

// EnabledMods returns the enabled references in manifest order.
func (m Modpack) EnabledMods() []ModReference {
	enabled := make([]ModReference, 0, len(m.Mods))
	for _, mod := range m.Mods {
		if mod.Enabled {
			enabled = append(enabled, mod)
		}
	}
	return enabled
}

// Clone returns a deep copy so callers can hand out an export copy.
func (m Modpack) Clone() Modpack {
	c := m
	c.Mods = append([]ModReference(nil), m.Mods...)
	return c
}

// IndexOf returns the position of ref in the mod list, or -1.
func (m Modpack) IndexOf(ref ModReference) int {
	for i, mod := range m.Mods {
		if mod.Same(ref) {
			return i
		}
	}
	return -1
}
