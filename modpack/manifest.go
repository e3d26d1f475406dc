package modpack

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrInvalidJSON    = errors.New("invalid JSON file")
	ErrInvalidModpack = errors.New("invalid modpack file")
)

// illegalNameChars are stripped from modpack names before they become file names.
const illegalNameChars = `\/:*?"<>|`

// SanitizeName removes characters that are not allowed in file names.
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(illegalNameChars, r) {
			return -1
		}
		return r
	}, name)
}

// ManifestFileName is the name of the exported manifest for m.
func ManifestFileName(m Modpack) string {
	return SanitizeName(m.Name) + ".json"
}

// Export renders the manifest as 4-space indented JSON.
func Export(m Modpack) ([]byte, error) {
	if m.Mods == nil {
		m.Mods = []ModReference{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("failed to encode modpack %q: %w", m.Name, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Import decodes a manifest. The document must carry version, modloader and
// mods; anything else is rejected with ErrInvalidModpack.
func Import(r io.Reader) (Modpack, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Modpack{}, fmt.Errorf("failed to read modpack file: %w", err)
	}

	var doc struct {
		Name      *string         `json:"name"`
		Version   *string         `json:"version"`
		Modloader *Loader         `json:"modloader"`
		Mods      *[]ModReference `json:"mods"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Modpack{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if doc.Version == nil || doc.Modloader == nil || doc.Mods == nil {
		return Modpack{}, ErrInvalidModpack
	}

	m := Modpack{
		Version:   *doc.Version,
		Modloader: *doc.Modloader,
		Mods:      *doc.Mods,
	}
	if doc.Name != nil {
		m.Name = *doc.Name
	}
	for i, mod := range m.Mods {
		if mod.ID == "" || !mod.Provider.Valid() {
			return Modpack{}, fmt.Errorf("%w: mod %d has no id or an unknown provider", ErrInvalidModpack, i)
		}
	}
	return m, nil
}
