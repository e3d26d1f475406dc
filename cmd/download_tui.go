package cmd

import (
	"context"
	"fmt"
	"sync"

	"modpack-downloader/downloader"
	"modpack-downloader/modpack"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// downloadEventMsg wraps an event from the running download.
type downloadEventMsg downloader.Event

// DownloadModel controls the UI for the download command
type DownloadModel struct {
	spinner  spinner.Model
	progress progress.Model
	events   chan downloader.Event
	start    func(context.Context, chan<- downloader.Event)
	ctx      context.Context
	cancel   context.CancelFunc
	launch   *sync.Once

	modpack modpack.Modpack
	status  string
	percent float64
	report  downloader.Report
	done    bool
}

func initialDownloadModel(ctx context.Context, app *App, m modpack.Modpack) DownloadModel {
	return newDownloadModel(ctx, m, func(ctx context.Context, events chan<- downloader.Event) {
		app.Downloader.Download(ctx, m, events)
	})
}

func newDownloadModel(ctx context.Context, m modpack.Modpack, start func(context.Context, chan<- downloader.Event)) DownloadModel {
	ctx, cancel := context.WithCancel(ctx)
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return DownloadModel{
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		events:   make(chan downloader.Event, 100), // Buffer slightly to avoid blocking
		start:    start,
		ctx:      ctx,
		cancel:   cancel,
		launch:   &sync.Once{},
		modpack:  m,
		status:   "Initializing...",
	}
}

func (m DownloadModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.startDownload(),
		m.waitForActivity(),
	)
}

func (m DownloadModel) startDownload() tea.Cmd {
	return func() tea.Msg {
		m.launch.Do(func() {
			go func() {
				defer close(m.events)
				m.start(m.ctx, m.events)
			}()
		})
		return nil
	}
}

// wait cancels a download that is still running and blocks until it has
// returned. A download that never started is not started anymore.
func (m DownloadModel) wait() {
	m.cancel()
	m.launch.Do(func() { close(m.events) })
	for range m.events {
	}
}

func (m DownloadModel) waitForActivity() tea.Cmd {
	return func() tea.Msg {
		e, ok := <-m.events
		if !ok {
			return downloadEventMsg{Type: downloader.EventDone}
		}
		return downloadEventMsg(e)
	}
}

func (m DownloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			if !m.done {
				m.cancel()
			}
			return m, tea.Quit
		}
		if m.done {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case downloadEventMsg:
		switch msg.Type {
		case downloader.EventDone:
			m.done = true
			if msg.Report != nil {
				m.report = *msg.Report
				m.status = msg.Report.Message
			}
			return m, tea.Quit

		case downloader.EventStatus:
			m.status = msg.Message

		case downloader.EventProgress:
			if msg.Progress > m.percent {
				m.percent = msg.Progress
			}
		}

		return m, m.waitForActivity()
	}

	return m, nil
}

func (m DownloadModel) View() string {
	var symbol string
	switch {
	case !m.done:
		symbol = m.spinner.View()
	case m.report.Status == downloader.StatusFinished:
		symbol = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("✓")
	default:
		symbol = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("✗")
	}

	title := lipgloss.NewStyle().Bold(true).Render(m.modpack.Name)
	s := fmt.Sprintf("\n %s (%s, %s)\n\n %s %s\n\n", title, m.modpack.Version, m.modpack.Modloader, symbol, m.status)

	if m.percent > 0 {
		s += " " + m.progress.ViewAs(m.percent) + "\n\n"
	}

	if len(m.report.FailedTitles) > 0 {
		s += lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("Failed:") + "\n"
		for _, t := range m.report.FailedTitles {
			s += fmt.Sprintf("  • %s\n", t)
		}
		s += "\n"
	}

	if m.done && m.report.Path != "" {
		s += lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("Saved "+m.report.Path) + "\n"
	}

	return s
}
