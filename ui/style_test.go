package ui

import (
	"strings"
	"testing"

	"modpack-downloader/modpack"
)

func TestProviderColor(t *testing.T) {
	tests := []struct {
		provider modpack.Provider
		expected int
	}{
		{modpack.ProviderModrinth, ModrinthColor},
		{modpack.ProviderCurseForge, CurseForgeColor},
		{"nexus", 0xc0c0c0},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			if got := ProviderColor(tt.provider); got != tt.expected {
				t.Errorf("ProviderColor(%q) = %#x, want %#x", tt.provider, got, tt.expected)
			}
		})
	}
}

func TestProviderLabelKeepsText(t *testing.T) {
	label := ProviderLabel(modpack.ProviderCurseForge)
	if !strings.Contains(label, "curseforge") {
		t.Errorf("ProviderLabel() = %q, want it to contain the provider name", label)
	}
}
