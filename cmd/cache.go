package cmd

import (
	"fmt"
	"sort"

	"modpack-downloader/cache"
	"modpack-downloader/ui"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the mod metadata cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every cached mod",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := bootstrap(configPath)
		defer app.Close()

		entries := app.Cache.All()
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "The cache is empty.")
			return nil
		}

		keys := make([]cache.Key, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

		for _, k := range keys {
			m := entries[k]
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-24s %-40s %s\n",
				ui.ProviderLabel(k.Provider), truncate(k.ID, 24), truncate(m.Title, 40), m.URL)
		}
		return nil
	},
}

var cacheRemoveCmd = &cobra.Command{
	Use:   "remove <provider> <id>",
	Short: "Forget the cached metadata of one mod",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		ref, err := parseModRef(args[0], args[1])
		if err != nil {
			return err
		}
		app := bootstrap(configPath)
		defer app.Close()

		return app.Cache.Remove(ref)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all cached metadata",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := bootstrap(configPath)
		defer app.Close()

		if err := app.Cache.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd, cacheRemoveCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
