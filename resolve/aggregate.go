package resolve

import (
	"context"
	"fmt"
	"sync"

	"modpack-downloader/catalog"
	"modpack-downloader/modpack"

	"go.uber.org/zap"
)

// MetadataWarmer is told about every mod that gets resolved so its
// metadata can be fetched and cached alongside.
type MetadataWarmer interface {
	Warm(ctx context.Context, ref modpack.ModReference)
}

// Result is the outcome of resolving a whole modpack. Downloads and
// Failures together cover every enabled mod exactly once.
type Result struct {
	Downloads []catalog.File
	Failures  []modpack.ModReference
}

// Aggregator resolves all mods of a modpack concurrently.
type Aggregator struct {
	catalogs catalog.Registry
	warmer   MetadataWarmer
	log      *zap.SugaredLogger
}

// NewAggregator creates an aggregator. warmer may be nil.
func NewAggregator(catalogs catalog.Registry, warmer MetadataWarmer, log *zap.SugaredLogger) *Aggregator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Aggregator{catalogs: catalogs, warmer: warmer, log: log}
}

type outcome struct {
	files []catalog.File
	err   error
}

// ResolveAll resolves every enabled mod of m. A failure for one mod never
// affects the others; ResolveAll waits for every mod before returning.
func (a *Aggregator) ResolveAll(ctx context.Context, m modpack.Modpack) Result {
	mods := m.EnabledMods()
	outcomes := make([]outcome, len(mods))

	var wg sync.WaitGroup
	for i, ref := range mods {
		wg.Add(1)
		go func(i int, ref modpack.ModReference) {
			defer wg.Done()
			modLogger := a.log.With(zap.String("mod_id", ref.ID), zap.String("provider", string(ref.Provider)))
			outcomes[i] = a.resolveGuarded(ctx, ref, m.Version, m.Modloader, modLogger)
			a.warm(ctx, ref, modLogger)
		}(i, ref)
	}
	wg.Wait()

	var res Result
	for i, o := range outcomes {
		if o.err != nil {
			res.Failures = append(res.Failures, mods[i])
			continue
		}
		res.Downloads = append(res.Downloads, o.files...)
	}
	a.log.Infow("Resolved modpack",
		zap.String("modpack", m.Name),
		zap.Int("mods", len(mods)),
		zap.Int("downloads", len(res.Downloads)),
		zap.Int("failures", len(res.Failures)),
	)
	return res
}

// resolveGuarded turns a panic during resolution into a failure of that mod.
func (a *Aggregator) resolveGuarded(ctx context.Context, ref modpack.ModReference, version string, loader modpack.Loader, log *zap.SugaredLogger) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("Resolution panicked", zap.Any("panic", r))
			o = outcome{err: fmt.Errorf("panic: %v", r)}
		}
	}()
	files, err := a.resolveOne(ctx, ref, version, loader, log)
	return outcome{files: files, err: err}
}

// warm fetches display metadata for ref. It never affects the resolution
// outcome, even when the warmer panics.
func (a *Aggregator) warm(ctx context.Context, ref modpack.ModReference, log *zap.SugaredLogger) {
	if a.warmer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warnw("Metadata warm-up panicked", zap.Any("panic", r))
		}
	}()
	a.warmer.Warm(ctx, ref)
}

func (a *Aggregator) resolveOne(ctx context.Context, ref modpack.ModReference, version string, loader modpack.Loader, log *zap.SugaredLogger) ([]catalog.File, error) {
	adapter, ok := a.catalogs.For(ref.Provider)
	if !ok {
		log.Warnw("No catalog for provider")
		return nil, fmt.Errorf("unknown provider %q", ref.Provider)
	}

	candidates := adapter.ListFiles(ctx, ref.ID)
	if len(candidates) == 0 {
		log.Infow("No files listed")
		return nil, fmt.Errorf("no files listed for %s", ref.ID)
	}

	idx := Resolve(candidates, version, loader, StrategyFor(ref.Provider))
	if idx == NotFound {
		log.Infow("No compatible file", zap.String("version", version), zap.String("loader", string(loader)))
		return nil, fmt.Errorf("no file for %s %s", version, loader)
	}

	files := candidates[idx].Files
	if len(files) == 0 {
		log.Warnw("Matched entry has no files", zap.Int("index", idx))
		return nil, fmt.Errorf("matched entry of %s has no files", ref.ID)
	}
	log.Debugw("Resolved", zap.Int("index", idx), zap.Int("files", len(files)))
	return files, nil
}
