package modpack

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Store keys used by the library.
const (
	KeyModpacks = "modpacks"
	KeyCurrent  = "current"
)

var (
	ErrNoModpack   = errors.New("no modpack selected")
	ErrModNotFound = errors.New("mod not found in modpack")
	ErrOutOfRange  = errors.New("index out of range")
)

// Store is the key-value persistence the library is written against.
type Store interface {
	Get(keys ...string) (map[string]json.RawMessage, error)
	Set(values map[string]any) error
	Remove(keys ...string) error
}

// Library manages the stored modpacks and which one is current.
type Library struct {
	store Store
}

func NewLibrary(store Store) *Library {
	return &Library{store: store}
}

type state struct {
	modpacks []Modpack
	current  int
}

func (l *Library) load() (state, error) {
	values, err := l.store.Get(KeyModpacks, KeyCurrent)
	if err != nil {
		return state{}, fmt.Errorf("failed to load modpacks: %w", err)
	}
	var s state
	if raw, ok := values[KeyModpacks]; ok {
		if err := json.Unmarshal(raw, &s.modpacks); err != nil {
			return state{}, fmt.Errorf("failed to decode stored modpacks: %w", err)
		}
	}
	if raw, ok := values[KeyCurrent]; ok {
		if err := json.Unmarshal(raw, &s.current); err != nil {
			return state{}, fmt.Errorf("failed to decode current modpack index: %w", err)
		}
	}
	return s, nil
}

func (l *Library) save(s state) error {
	if s.modpacks == nil {
		s.modpacks = []Modpack{}
	}
	return l.store.Set(map[string]any{KeyModpacks: s.modpacks, KeyCurrent: s.current})
}

// update loads the current modpack, applies fn and stores the result.
func (l *Library) update(fn func(*Modpack) error) error {
	s, err := l.load()
	if err != nil {
		return err
	}
	if s.current < 0 || s.current >= len(s.modpacks) {
		return ErrNoModpack
	}
	if err := fn(&s.modpacks[s.current]); err != nil {
		return err
	}
	return l.save(s)
}

// List returns all stored modpacks and the index of the current one.
func (l *Library) List() ([]Modpack, int, error) {
	s, err := l.load()
	if err != nil {
		return nil, 0, err
	}
	return s.modpacks, s.current, nil
}

// Current returns the selected modpack.
func (l *Library) Current() (Modpack, error) {
	s, err := l.load()
	if err != nil {
		return Modpack{}, err
	}
	if s.current < 0 || s.current >= len(s.modpacks) {
		return Modpack{}, ErrNoModpack
	}
	return s.modpacks[s.current].Clone(), nil
}

// Add appends a modpack and makes it current.
func (l *Library) Add(m Modpack) error {
	s, err := l.load()
	if err != nil {
		return err
	}
	if m.Mods == nil {
		m.Mods = []ModReference{}
	}
	s.modpacks = append(s.modpacks, m)
	s.current = len(s.modpacks) - 1
	return l.save(s)
}

// RemoveCurrent deletes the selected modpack and selects the first one.
func (l *Library) RemoveCurrent() error {
	s, err := l.load()
	if err != nil {
		return err
	}
	if s.current < 0 || s.current >= len(s.modpacks) {
		return ErrNoModpack
	}
	s.modpacks = append(s.modpacks[:s.current], s.modpacks[s.current+1:]...)
	s.current = 0
	return l.save(s)
}

// SetCurrent selects the modpack at index.
func (l *Library) SetCurrent(index int) error {
	s, err := l.load()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(s.modpacks) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	s.current = index
	return l.save(s)
}

// AddMod appends ref to the current modpack unless it is already there.
// It reports whether the mod was added.
func (l *Library) AddMod(ref ModReference) (bool, error) {
	if ref.ID == "" || !ref.Provider.Valid() {
		return false, fmt.Errorf("invalid mod reference %q/%q", ref.Provider, ref.ID)
	}
	added := false
	err := l.update(func(m *Modpack) error {
		if m.IndexOf(ref) != -1 {
			return nil
		}
		m.Mods = append(m.Mods, ref)
		added = true
		return nil
	})
	return added, err
}

// RemoveMod deletes ref from the current modpack.
func (l *Library) RemoveMod(ref ModReference) error {
	return l.update(func(m *Modpack) error {
		i := m.IndexOf(ref)
		if i == -1 {
			return ErrModNotFound
		}
		m.Mods = append(m.Mods[:i], m.Mods[i+1:]...)
		return nil
	})
}

// ToggleMod flips the enabled state of ref and returns the new state.
func (l *Library) ToggleMod(ref ModReference) (bool, error) {
	var enabled bool
	err := l.update(func(m *Modpack) error {
		i := m.IndexOf(ref)
		if i == -1 {
			return ErrModNotFound
		}
		m.Mods[i].Enabled = !m.Mods[i].Enabled
		enabled = m.Mods[i].Enabled
		return nil
	})
	return enabled, err
}

// MoveMod moves ref to position to, shifting the mods in between.
func (l *Library) MoveMod(ref ModReference, to int) error {
	return l.update(func(m *Modpack) error {
		from := m.IndexOf(ref)
		if from == -1 {
			return ErrModNotFound
		}
		if to < 0 || to >= len(m.Mods) {
			return fmt.Errorf("%w: %d", ErrOutOfRange, to)
		}
		mod := m.Mods[from]
		m.Mods = append(m.Mods[:from], m.Mods[from+1:]...)
		m.Mods = append(m.Mods[:to], append([]ModReference{mod}, m.Mods[to:]...)...)
		return nil
	})
}

// SetMods replaces the mod list of the current modpack.
func (l *Library) SetMods(mods []ModReference) error {
	return l.update(func(m *Modpack) error {
		m.Mods = append([]ModReference{}, mods...)
		return nil
	})
}

func (l *Library) SetVersion(version string) error {
	return l.update(func(m *Modpack) error {
		m.Version = version
		return nil
	})
}

func (l *Library) SetModloader(loader Loader) error {
	return l.update(func(m *Modpack) error {
		m.Modloader = loader
		return nil
	})
}

// ImportFrom decodes a manifest and adds it as the current modpack.
// Storage is left untouched when the manifest is rejected.
func (l *Library) ImportFrom(r io.Reader) (Modpack, error) {
	m, err := Import(r)
	if err != nil {
		return Modpack{}, err
	}
	if err := l.Add(m); err != nil {
		return Modpack{}, err
	}
	return m, nil
}
