package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"modpack-downloader/cache"
	"modpack-downloader/db"
	"modpack-downloader/downloader"
	"modpack-downloader/logger"
	"modpack-downloader/modpack"
	"modpack-downloader/ui"
)

// guiCmd represents the gui command
var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Launch the interactive view of the current modpack",
	Long:  `Launch an interactive TUI to reorder, enable and disable the mods of the current modpack and download it.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runGUI(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(guiCmd)
}

// modpackEditor is the part of the library the GUI edits through.
type modpackEditor interface {
	Current() (modpack.Modpack, error)
	ToggleMod(ref modpack.ModReference) (bool, error)
	MoveMod(ref modpack.ModReference, to int) error
}

type metadataGetter interface {
	Get(ctx context.Context, refs []modpack.ModReference) map[cache.Key]modpack.Metadata
}

type modpackDownloader interface {
	Download(ctx context.Context, m modpack.Modpack, events chan<- downloader.Event) downloader.Report
}

// ModRow represents one mod of the current modpack
type ModRow struct {
	Ref    modpack.ModReference
	Title  string
	URL    string
	Failed bool // Whether the last download could not resolve this mod
}

// Model represents the state of the TUI
type Model struct {
	ctx           context.Context
	library       modpackEditor
	metadata      metadataGetter
	downloader    modpackDownloader
	settings      modpack.Store
	modpack       modpack.Modpack
	mods          []ModRow
	failed        map[cache.Key]bool
	selectedIndex int
	loading       bool
	downloading   bool
	error         string
	message       string
	theme         string
	width         int
	height        int
	spinnerFrame  int
}

// Initialize the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadMods(),
		tickSpinner(),
	)
}

func tickSpinner() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case modsLoadedMsg:
		m.handleModsLoaded(msg)
	case spinnerTickMsg:
		return m.handleSpinnerTick()
	case errorMsg:
		m.error = string(msg)
		m.loading = false
		m.downloading = false
	case downloadCompleteMsg:
		return m.handleDownloadComplete(msg)
	case clearMessageMsg:
		m.message = ""
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.downloading && msg.String() != "ctrl+c" {
		return m, nil
	}
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}
	case "down", "j":
		if m.selectedIndex < len(m.mods)-1 {
			m.selectedIndex++
		}
	case "shift+up", "K":
		return m.move(-1)
	case "shift+down", "J":
		return m.move(1)
	case " ":
		if len(m.mods) == 0 {
			return m, nil
		}
		row := &m.mods[m.selectedIndex]
		enabled, err := m.library.ToggleMod(row.Ref)
		if err != nil {
			m.error = err.Error()
			return m, nil
		}
		row.Ref.Enabled = enabled
	case "t":
		m.theme = nextTheme(m.theme)
		m.saveTheme()
	case "ctrl+d":
		m.downloading = true
		m.message = ""
		return m, tea.Batch(m.download(), tickSpinner())
	}
	return m, nil
}

// move shifts the selected mod by delta and keeps it selected.
func (m Model) move(delta int) (tea.Model, tea.Cmd) {
	to := m.selectedIndex + delta
	if len(m.mods) == 0 || to < 0 || to >= len(m.mods) {
		return m, nil
	}
	if err := m.library.MoveMod(m.mods[m.selectedIndex].Ref, to); err != nil {
		m.error = err.Error()
		return m, nil
	}
	mods := append([]ModRow(nil), m.mods...)
	mods[m.selectedIndex], mods[to] = mods[to], mods[m.selectedIndex]
	m.mods = mods
	m.selectedIndex = to
	return m, nil
}

func (m *Model) handleModsLoaded(msg modsLoadedMsg) {
	m.modpack = msg.modpack
	m.mods = msg.mods
	m.loading = false
	for i := range m.mods {
		m.mods[i].Failed = m.failed[cache.KeyOf(m.mods[i].Ref)]
	}
	if m.selectedIndex >= len(m.mods) {
		m.selectedIndex = 0
	}
}

func (m Model) handleSpinnerTick() (tea.Model, tea.Cmd) {
	m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
	if m.loading || m.downloading {
		return m, tickSpinner()
	}
	return m, nil
}

func (m Model) handleDownloadComplete(msg downloadCompleteMsg) (tea.Model, tea.Cmd) {
	m.downloading = false
	m.message = msg.report.Message
	m.failed = map[cache.Key]bool{}
	for _, ref := range msg.report.Failed {
		m.failed[cache.KeyOf(ref)] = true
	}
	for i := range m.mods {
		m.mods[i].Failed = m.failed[cache.KeyOf(m.mods[i].Ref)]
	}
	return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return clearMessageMsg{}
	})
}

// View renders the UI
func (m Model) View() string {
	if m.loading {
		return m.renderLoadingScreen()
	}

	if m.error != "" {
		return fmt.Sprintf("Error: %s\n", m.error)
	}

	var output string
	output += m.renderTitle() + "\n\n"

	if len(m.mods) == 0 {
		output += "No mods in this modpack yet. Add some with 'add'.\n"
	} else {
		output += m.renderHeader() + "\n"
		for i, row := range m.mods {
			output += m.renderModRow(i, row) + "\n"
		}
	}

	if m.downloading {
		output += "\n" + m.renderDownloading()
	}

	output += "\n" + m.renderFooter()

	if m.message != "" {
		output += "\n" + lipgloss.NewStyle().Foreground(m.accent()).Render(m.message)
	}

	return output
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const (
	themeDark  = "dark"
	themeLight = "light"
)

func nextTheme(theme string) string {
	if theme == themeLight {
		return themeDark
	}
	return themeLight
}

func (m Model) accent() lipgloss.Color {
	if m.theme == themeLight {
		return lipgloss.Color("4")
	}
	return lipgloss.Color("12")
}

func (m Model) muted() lipgloss.Color {
	if m.theme == themeLight {
		return lipgloss.Color("7")
	}
	return lipgloss.Color("8")
}

func (m Model) renderLoadingScreen() string {
	loadingStyle := lipgloss.NewStyle().
		Foreground(m.accent()).
		Bold(true)

	return loadingStyle.Render(fmt.Sprintf("%s Loading modpack...", spinnerFrames[m.spinnerFrame])) + "\n"
}

func (m Model) renderDownloading() string {
	style := lipgloss.NewStyle().
		Foreground(m.accent()).
		Bold(true)
	return style.Render(fmt.Sprintf("%s Downloading %s...", spinnerFrames[m.spinnerFrame], m.modpack.Name)) + "\n"
}

func (m Model) renderTitle() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.accent())
	enabled := 0
	for _, row := range m.mods {
		if row.Ref.Enabled {
			enabled++
		}
	}
	return titleStyle.Render(m.modpack.Name) +
		fmt.Sprintf("  %s · %s · %d/%d mods enabled", orUnset(m.modpack.Version), orUnset(string(m.modpack.Modloader)), enabled, len(m.mods))
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func (m Model) renderHeader() string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.accent()).
		Padding(0, 1)

	return headerStyle.Render(fmt.Sprintf("  %-40s %-10s %s", "Mod Name", "Catalog", "Link"))
}

func (m Model) renderFooter() string {
	footerStyle := lipgloss.NewStyle().
		Foreground(m.muted()).
		Italic(true)

	return footerStyle.Render("↑/k ↓/j: move cursor  shift+↑/↓: reorder  space: enable/disable  ctrl+d: download  t: theme  q: quit")
}

func (m Model) renderModRow(index int, row ModRow) string {
	rowStyle := lipgloss.NewStyle().Padding(0, 1)
	if index == m.selectedIndex {
		rowStyle = rowStyle.
			Background(m.muted()).
			Bold(true)
	}

	indicator := "✓"
	titleStyle := lipgloss.NewStyle()
	if !row.Ref.Enabled {
		indicator = "-"
		titleStyle = titleStyle.Faint(true)
	}
	if row.Failed {
		indicator = "!"
		titleStyle = titleStyle.Foreground(lipgloss.Color("9"))
	}

	// Pad the title before applying color to maintain column alignment
	title := titleStyle.Render(fmt.Sprintf("%-40s", truncate(row.Title, 38)))

	return rowStyle.Render(fmt.Sprintf("%s %s %s %s", indicator, title, ui.ProviderLabel(row.Ref.Provider), row.URL))
}

// Message types
type modsLoadedMsg struct {
	modpack modpack.Modpack
	mods    []ModRow
}

type errorMsg string

type spinnerTickMsg struct{}

type downloadCompleteMsg struct {
	report downloader.Report
}

type clearMessageMsg struct{}

// loadMods reads the current modpack and the cached metadata of its mods.
func (m Model) loadMods() tea.Cmd {
	return func() tea.Msg {
		current, err := m.library.Current()
		if err != nil {
			logger.Log.Errorw("Failed to load modpack", zap.Error(err))
			return errorMsg(fmt.Sprintf("Failed to load modpack: %v", err))
		}
		meta := m.metadata.Get(m.ctx, current.Mods)
		rows := make([]ModRow, 0, len(current.Mods))
		for _, ref := range current.Mods {
			md := meta[cache.KeyOf(ref)]
			rows = append(rows, ModRow{Ref: ref, Title: md.DisplayName(ref), URL: md.URL})
		}
		return modsLoadedMsg{modpack: current, mods: rows}
	}
}

// download runs the whole pipeline on the modpack as currently stored.
func (m Model) download() tea.Cmd {
	return func() tea.Msg {
		current, err := m.library.Current()
		if err != nil {
			return errorMsg(err.Error())
		}
		return downloadCompleteMsg{report: m.downloader.Download(m.ctx, current, nil)}
	}
}

func loadTheme(store modpack.Store) string {
	values, err := store.Get(db.KeyTheme)
	if err != nil {
		logger.Log.Warnw("Failed to load theme", zap.Error(err))
		return themeDark
	}
	var theme string
	if raw, ok := values[db.KeyTheme]; ok && json.Unmarshal(raw, &theme) == nil && theme == themeLight {
		return themeLight
	}
	return themeDark
}

func (m Model) saveTheme() {
	if m.settings == nil {
		return
	}
	if err := m.settings.Set(map[string]any{db.KeyTheme: m.theme}); err != nil {
		logger.Log.Warnw("Failed to save theme", zap.Error(err))
	}
}

func runGUI(ctx context.Context) {
	app := bootstrap(configPath)
	defer app.Close()

	m := Model{
		ctx:        ctx,
		library:    app.Library,
		metadata:   app.Cache,
		downloader: app.Downloader,
		settings:   app.Store,
		theme:      loadTheme(app.Store),
		loading:    true,
		width:      80,
		height:     24,
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		logger.Log.Fatalw("Failed to run GUI", zap.Error(err))
	}
}
