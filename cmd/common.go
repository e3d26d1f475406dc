package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"modpack-downloader/archive"
	"modpack-downloader/cache"
	"modpack-downloader/catalog"
	"modpack-downloader/config"
	"modpack-downloader/db"
	"modpack-downloader/downloader"
	"modpack-downloader/logger"
	"modpack-downloader/modpack"
	"modpack-downloader/resolve"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// App holds the wired components shared by every command.
type App struct {
	Config     config.Config
	Store      *db.Store
	Library    *modpack.Library
	Client     *catalog.Client
	Modrinth   *catalog.Modrinth
	CurseForge *catalog.CurseForge
	Cache      *cache.Cache
	Downloader *downloader.Downloader
}

// newApp wires every component on top of an open store.
func newApp(cfg config.Config, store *db.Store, fs afero.Fs) (*App, error) {
	client, err := catalog.NewClient(catalog.ClientOptions{
		UserAgent:         cfg.UserAgent,
		Timeout:           cfg.HTTPTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger.Named("http"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog client: %w", err)
	}

	mr := catalog.NewModrinth(cfg.ModrinthAPIURL, client, logger.Named("catalog"))
	cf := catalog.NewCurseForge(cfg.CurseForgeAPIURL, client, logger.Named("catalog"))
	registry := catalog.NewRegistry(mr, cf)

	metadata, err := cache.New(store, registry, logger.Named("cache"))
	if err != nil {
		return nil, err
	}

	d := downloader.New(downloader.Options{
		Resolver:  resolve.NewAggregator(registry, metadata, logger.Named("resolve")),
		Metadata:  metadata,
		Archiver:  archive.NewBuilder(client, logger.Named("archive")),
		Fs:        fs,
		OutputDir: cfg.OutputDir,
		Logger:    logger.Named("downloader"),
	})

	return &App{
		Config:     cfg,
		Store:      store,
		Library:    modpack.NewLibrary(store),
		Client:     client,
		Modrinth:   mr,
		CurseForge: cf,
		Cache:      metadata,
		Downloader: d,
	}, nil
}

// bootstrap handles shared initialization logic for commands.
func bootstrap(path string) *App {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logger.Log.Fatalw("Failed to load configuration", zap.Error(err))
	}

	store, err := db.Open(cfg.DatabasePath, logger.Named("db"))
	if err != nil {
		logger.Log.Fatalw("Failed to open database", zap.String("path", cfg.DatabasePath), zap.Error(err))
	}
	logger.Log.Infow("Database initialized", zap.String("path", cfg.DatabasePath))

	app, err := newApp(cfg, store, afero.NewOsFs())
	if err != nil {
		_ = store.Close()
		logger.Log.Fatalw("Failed to initialize", zap.Error(err))
	}
	return app
}

// Close releases the database.
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		logger.Log.Warnw("Failed to close database", zap.Error(err))
	}
}

// parseModRef builds a reference from the provider and id arguments.
func parseModRef(provider, id string) (modpack.ModReference, error) {
	p, ok := modpack.ParseProvider(provider)
	if !ok {
		return modpack.ModReference{}, fmt.Errorf("unknown provider %q (expected modrinth or curseforge)", provider)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return modpack.ModReference{}, fmt.Errorf("mod id must not be empty")
	}
	return modpack.ModReference{ID: id, Provider: p, Enabled: true}, nil
}

// parseIndex parses a 1-based position as shown by the list commands.
func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid position %q: must be a number starting at 1", s)
	}
	return n - 1, nil
}

// truncate shortens s to maxLen terminal cells, ending in "...".
func truncate(s string, maxLen int) string {
	return runewidth.Truncate(s, maxLen, "...")
}
