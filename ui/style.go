package ui

import (
	"fmt"

	"modpack-downloader/modpack"

	"github.com/charmbracelet/lipgloss"
)

// Brand colors of the supported catalogs.
const (
	ModrinthColor   = 0x1bd96a
	CurseForgeColor = 0xf16436
)

// Colorize applies the given color to the text using lipgloss.
// color is an RGB integer such as 0x1bd96a.
func Colorize(text string, color int) string {
	hexColor := fmt.Sprintf("#%06x", color)
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor))
	return style.Render(text)
}

// ProviderColor returns the brand color of p, or light gray.
func ProviderColor(p modpack.Provider) int {
	switch p {
	case modpack.ProviderModrinth:
		return ModrinthColor
	case modpack.ProviderCurseForge:
		return CurseForgeColor
	default:
		return 0xc0c0c0
	}
}

// ProviderLabel renders the provider name padded to a fixed column and
// tinted with its brand color.
func ProviderLabel(p modpack.Provider) string {
	// Pad before applying color to keep columns aligned.
	return Colorize(fmt.Sprintf("%-10s", p), ProviderColor(p))
}
