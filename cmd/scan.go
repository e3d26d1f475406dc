package cmd

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"modpack-downloader/cache"
	"modpack-downloader/catalog"
	"modpack-downloader/logger"
	"modpack-downloader/modpack"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scanCmd = &cobra.Command{
	Use:   "scan <mods-directory>",
	Short: "Add installed mod files to the current modpack",
	Long: `Hashes every .jar and .zip file in a directory and looks it up on
Modrinth. Files that Modrinth recognizes are added to the current modpack.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := bootstrap(configPath)
		defer app.Close()

		if _, err := app.Library.Current(); err != nil {
			return err
		}
		res, err := scanInstalledMods(cmd.Context(), app, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d files: %d added, %d already present, %d unknown\n",
			res.scanned, res.added, res.present, len(res.unknown))
		for _, f := range res.unknown {
			fmt.Fprintf(cmd.OutOrStdout(), "  not found on Modrinth: %s\n", f)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

// versionLookup is the part of the Modrinth adapter the scan needs.
type versionLookup interface {
	VersionByHash(ctx context.Context, hash string) (*catalog.Version, error)
	Project(ctx context.Context, id string) (*catalog.Project, error)
}

type scanResult struct {
	scanned int
	added   int
	present int
	unknown []string
}

// scanner adds installed mod files to the current modpack.
type scanner struct {
	client  versionLookup
	library *modpack.Library
	cache   *cache.Cache
}

func scanInstalledMods(ctx context.Context, app *App, dir string) (scanResult, error) {
	s := scanner{client: app.Modrinth, library: app.Library, cache: app.Cache}
	return s.scan(ctx, dir)
}

// scan walks dir and adds every file Modrinth recognizes.
func (s scanner) scan(ctx context.Context, dir string) (scanResult, error) {
	logger.Log.Infow("Scanning for existing mods...", zap.String("dir", dir))
	var res scanResult

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() || !isModFile(path) {
			return nil
		}
		res.scanned++

		ref, ok := s.identify(ctx, path, info.Name())
		if !ok {
			res.unknown = append(res.unknown, info.Name())
			return nil
		}
		added, err := s.library.AddMod(ref)
		if err != nil {
			return err
		}
		if added {
			res.added++
		} else {
			res.present++
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("error scanning %s: %w", dir, err)
	}
	return res, nil
}

func isModFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jar" || ext == ".zip"
}

// identify resolves one file to a Modrinth reference by its SHA-1.
// Project metadata is stored in the cache on the way.
func (s scanner) identify(ctx context.Context, path, filename string) (modpack.ModReference, bool) {
	hash, err := calculateSHA1(path)
	if err != nil {
		logger.Log.Warnw("Failed to calculate hash", zap.String("file", filename), zap.Error(err))
		return modpack.ModReference{}, false
	}

	version, err := s.client.VersionByHash(ctx, hash)
	if err != nil {
		logger.Log.Debugw("Mod not found on Modrinth by hash", zap.String("file", filename), zap.Error(err))
		return modpack.ModReference{}, false
	}

	ref := modpack.ModReference{ID: version.ProjectID, Provider: modpack.ProviderModrinth, Enabled: true}

	project, err := s.client.Project(ctx, version.ProjectID)
	if err != nil {
		logger.Log.Warnw("Failed to get project details", zap.String("project_id", version.ProjectID), zap.Error(err))
		return ref, true
	}
	if s.cache != nil {
		err := s.cache.Put(modpack.Metadata{
			ID:          ref.ID,
			Provider:    ref.Provider,
			Slug:        project.Slug,
			Title:       project.Title,
			Description: project.Description,
			IconURL:     project.IconURL,
			URL:         "https://modrinth.com/mod/" + project.Slug,
		})
		if err != nil {
			logger.Log.Warnw("Failed to cache project", zap.String("project_id", project.ID), zap.Error(err))
		}
	}
	logger.Log.Infow("Imported existing mod", zap.String("title", project.Title), zap.String("version", version.VersionNumber))
	return ref, true
}

func calculateSHA1(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha1.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
