package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modpack-downloader/cache"
	"modpack-downloader/logger"
	"modpack-downloader/modpack"
	"modpack-downloader/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a modpack and make it current",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, _ := cmd.Flags().GetString("version")
		loader, _ := cmd.Flags().GetString("loader")

		app := bootstrap(configPath)
		defer app.Close()

		m := modpack.Modpack{
			Name:      strings.Join(args, " "),
			Version:   version,
			Modloader: modpack.Loader(strings.ToLower(loader)),
		}
		if err := app.Library.Add(m); err != nil {
			return err
		}
		logger.Log.Infow("Created modpack", zap.String("name", m.Name))
		fmt.Fprintf(cmd.OutOrStdout(), "Created modpack %q\n", m.Name)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored modpacks, or the mods of the current one with --mods",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		showMods, _ := cmd.Flags().GetBool("mods")

		app := bootstrap(configPath)
		defer app.Close()

		if showMods {
			return printMods(cmd, app)
		}

		modpacks, current, err := app.Library.List()
		if err != nil {
			return err
		}
		if len(modpacks) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No modpacks yet. Create one with 'new'.")
			return nil
		}
		for i, m := range modpacks {
			marker := " "
			if i == current {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %2d. %-30s %-10s %-10s %d mods\n",
				marker, i+1, truncate(m.Name, 30), m.Version, m.Modloader, len(m.Mods))
		}
		return nil
	},
}

func printMods(cmd *cobra.Command, app *App) error {
	m, err := app.Library.Current()
	if err != nil {
		return err
	}
	meta := app.Cache.Get(cmd.Context(), m.Mods)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s, %s)\n", m.Name, m.Version, m.Modloader)
	for i, ref := range m.Mods {
		state := "on "
		if !ref.Enabled {
			state = "off"
		}
		title := meta[cache.KeyOf(ref)].DisplayName(ref)
		fmt.Fprintf(out, "%3d. [%s] %-40s %s\n", i+1, state, truncate(title, 40), ui.ProviderLabel(ref.Provider))
	}
	return nil
}

var useCmd = &cobra.Command{
	Use:   "use <position>",
	Short: "Select the current modpack",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		app := bootstrap(configPath)
		defer app.Close()

		return app.Library.SetCurrent(index)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the current modpack",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := bootstrap(configPath)
		defer app.Close()

		m, err := app.Library.Current()
		if err != nil {
			return err
		}
		if err := app.Library.RemoveCurrent(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted modpack %q\n", m.Name)
		return nil
	},
}

var setVersionCmd = &cobra.Command{
	Use:   "set-version <game-version>",
	Short: "Set the game version of the current modpack",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		app := bootstrap(configPath)
		defer app.Close()

		return app.Library.SetVersion(strings.TrimSpace(args[0]))
	},
}

var setLoaderCmd = &cobra.Command{
	Use:       "set-loader <loader>",
	Short:     "Set the mod loader of the current modpack",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(modpack.LoaderForge), string(modpack.LoaderFabric), string(modpack.LoaderQuilt), string(modpack.LoaderNeoForge)},
	RunE: func(_ *cobra.Command, args []string) error {
		app := bootstrap(configPath)
		defer app.Close()

		return app.Library.SetModloader(modpack.Loader(strings.ToLower(strings.TrimSpace(args[0]))))
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the current modpack manifest as JSON",
	Long: `Write the current modpack manifest as JSON. Without a file argument the
manifest is written to <name>.json in the output directory; "-" prints it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := bootstrap(configPath)
		defer app.Close()

		m, err := app.Library.Current()
		if err != nil {
			return err
		}
		data, err := modpack.Export(m)
		if err != nil {
			return err
		}

		target := filepath.Join(app.Config.OutputDir, modpack.ManifestFileName(m))
		if len(args) == 1 {
			target = args[0]
		}
		if target == "-" {
			_, err := cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %q to %s\n", m.Name, target)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a modpack manifest and make it current",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		app := bootstrap(configPath)
		defer app.Close()

		m, err := app.Library.ImportFrom(bytes.NewReader(data))
		if errors.Is(err, modpack.ErrInvalidJSON) || errors.Is(err, modpack.ErrInvalidModpack) {
			logger.Log.Warnw("Rejected modpack file", zap.String("file", args[0]), zap.Error(err))
			return fmt.Errorf("invalid file %s: %w", args[0], err)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %q with %d mods\n", m.Name, len(m.Mods))
		return nil
	},
}

func init() {
	newCmd.Flags().StringP("version", "v", "", "game version, e.g. 1.20.1")
	newCmd.Flags().StringP("loader", "l", "", "mod loader: forge, fabric, quilt or neoforge")
	listCmd.Flags().BoolP("mods", "m", false, "list the mods of the current modpack")

	rootCmd.AddCommand(newCmd, listCmd, useCmd, deleteCmd, setVersionCmd, setLoaderCmd, exportCmd, importCmd)
}
