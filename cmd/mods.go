package cmd

import (
	"fmt"

	"modpack-downloader/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var addCmd = &cobra.Command{
	Use:   "add <provider> <id>...",
	Short: "Add mods to the current modpack",
	Long: `Add one or more mods to the current modpack.
Example: modpack-downloader add modrinth sodium lithium
         modpack-downloader add curseforge 238222`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := bootstrap(configPath)
		defer app.Close()

		for _, id := range args[1:] {
			ref, err := parseModRef(args[0], id)
			if err != nil {
				return err
			}
			added, err := app.Library.AddMod(ref)
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already in the modpack\n", ref.ID)
				continue
			}
			// Fetch the title now so later listings come from the cache.
			app.Cache.Warm(cmd.Context(), ref)
			title := ref.ID
			if m, ok := app.Cache.Lookup(ref); ok {
				title = m.DisplayName(ref)
			}
			logger.Log.Infow("Added mod", zap.String("mod_id", ref.ID), zap.String("provider", string(ref.Provider)))
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", title)
		}
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <provider> <id>",
	Short: "Remove a mod from the current modpack",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		ref, err := parseModRef(args[0], args[1])
		if err != nil {
			return err
		}
		app := bootstrap(configPath)
		defer app.Close()

		return app.Library.RemoveMod(ref)
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <provider> <id>",
	Short: "Enable or disable a mod without removing it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := parseModRef(args[0], args[1])
		if err != nil {
			return err
		}
		app := bootstrap(configPath)
		defer app.Close()

		enabled, err := app.Library.ToggleMod(ref)
		if err != nil {
			return err
		}
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", ref.ID, state)
		return nil
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <provider> <id> <position>",
	Short: "Move a mod to another position in the current modpack",
	Args:  cobra.ExactArgs(3),
	RunE: func(_ *cobra.Command, args []string) error {
		ref, err := parseModRef(args[0], args[1])
		if err != nil {
			return err
		}
		to, err := parseIndex(args[2])
		if err != nil {
			return err
		}
		app := bootstrap(configPath)
		defer app.Close()

		return app.Library.MoveMod(ref, to)
	},
}

func init() {
	rootCmd.AddCommand(addCmd, removeCmd, toggleCmd, moveCmd)
}
