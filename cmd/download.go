package cmd

import (
	"fmt"

	"modpack-downloader/downloader"
	"modpack-downloader/logger"
	"modpack-downloader/modpack"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Resolve the current modpack and pack it into a zip",
	Long: `Resolves every enabled mod of the current modpack against its catalog,
downloads the compatible files and writes <modpack>.zip to the output
directory together with the manifest and an errors.json for mods that
could not be resolved.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger.Log.Info("Running download command...")
		plain, _ := cmd.Flags().GetBool("plain")

		app := bootstrap(configPath)
		defer app.Close()

		m, err := app.Library.Current()
		if err != nil {
			return err
		}

		var report downloader.Report
		if plain {
			report = runPlainDownload(cmd, app, m)
		} else {
			model := initialDownloadModel(cmd.Context(), app, m)
			final, err := tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			// The store must outlive the pipeline, even when the view quit early.
			model.wait()
			if err != nil {
				logger.Log.Errorw("Failed to run download UI", zap.Error(err))
				return err
			}
			report = final.(DownloadModel).report
		}

		return reportError(report)
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().Bool("plain", false, "print progress lines instead of the interactive view")
}

func runPlainDownload(cmd *cobra.Command, app *App, m modpack.Modpack) downloader.Report {
	events := make(chan downloader.Event, 100)
	done := make(chan downloader.Report, 1)
	go func() {
		defer close(events)
		done <- app.Downloader.Download(cmd.Context(), m, events)
	}()

	out := cmd.OutOrStdout()
	lastPercent := -10
	for e := range events {
		switch e.Type {
		case downloader.EventStatus:
			fmt.Fprintln(out, e.Message)
		case downloader.EventProgress:
			if p := int(e.Progress * 100); p/10 != lastPercent/10 {
				lastPercent = p
				fmt.Fprintf(out, "  %3d%%\n", p)
			}
		case downloader.EventDone:
			fmt.Fprintln(out, e.Message)
			if e.Report != nil && e.Report.Path != "" {
				fmt.Fprintf(out, "Saved %s\n", e.Report.Path)
			}
		}
	}
	return <-done
}

// reportError turns the terminal statuses that did not produce an archive
// into a non-zero exit.
func reportError(r downloader.Report) error {
	switch r.Status {
	case downloader.StatusFinished, downloader.StatusNothingToDownload:
		return nil
	case "":
		return fmt.Errorf("download interrupted")
	case downloader.StatusFailed:
		if r.Err != nil {
			return fmt.Errorf("%s: %w", r.Message, r.Err)
		}
	}
	return fmt.Errorf("%s", r.Message)
}
