package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// configPath is the directory searched for the .env file.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "modpack-downloader",
	Short: "Builds downloadable modpacks from Modrinth and CurseForge mods",
	Long: `modpack-downloader keeps a library of modpacks (a game version, a mod loader
and a list of Modrinth or CurseForge mods) and packs every compatible mod
file into a single zip archive together with the modpack manifest.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing the .env configuration file")
}

// Execute runs the root command. Interrupts cancel the running operation.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
