package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"modpack-downloader/catalog"
	"modpack-downloader/modpack"

	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrorsFileName holds the list of mods that could not be resolved.
const ErrorsFileName = "errors.json"

// Fetcher downloads a file as a blob.
type Fetcher interface {
	FetchBinary(ctx context.Context, url string) ([]byte, error)
}

// ProgressFunc receives the completed fraction of a build, from 0 to 1.
type ProgressFunc func(fraction float64)

// Failure is one entry of errors.json.
type Failure struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Result is a finished archive.
type Result struct {
	FileName string
	Data     []byte
}

// FetchError reports the download that aborted a build.
type FetchError struct {
	File catalog.File
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s from %s: %v", e.File.Filename, e.File.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Builder assembles modpack archives.
type Builder struct {
	fetcher Fetcher
	log     *zap.SugaredLogger
}

func NewBuilder(fetcher Fetcher, log *zap.SugaredLogger) *Builder {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Builder{fetcher: fetcher, log: log}
}

// FileName is the archive name for a modpack.
func FileName(m modpack.Modpack) string {
	return modpack.SanitizeName(m.Name) + ".zip"
}

// Build downloads every file concurrently and packs them together with the
// manifest and, when failures is non-empty, errors.json. The first failed
// download cancels the rest and no archive is produced.
func (b *Builder) Build(ctx context.Context, downloads []catalog.File, manifest modpack.Modpack, failures []Failure, onProgress ProgressFunc) (Result, error) {
	entries := len(downloads) + 1
	if len(failures) > 0 {
		entries++
	}
	progress := newTracker(len(downloads)+entries, onProgress)

	blobs := make([][]byte, len(downloads))
	g, gctx := errgroup.WithContext(ctx)
	for i, file := range downloads {
		i, file := i, file
		g.Go(func() error {
			data, err := b.fetcher.FetchBinary(gctx, file.URL)
			if err != nil {
				return &FetchError{File: file, Err: err}
			}
			blobs[i] = data
			progress.step()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		b.log.Errorw("Archive aborted", zap.String("modpack", manifest.Name), zap.Error(err))
		return Result{}, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	manifestName := manifestEntryName(manifest, len(failures) > 0)
	written := map[string]bool{manifestName: true}
	if len(failures) > 0 {
		written[ErrorsFileName] = true
	}
	files := 0
	for i, file := range downloads {
		name := entryName(file.Filename)
		if written[name] {
			b.log.Warnw("Skipping duplicate file name", zap.String("file", name), zap.String("url", file.URL))
			progress.step()
			continue
		}
		if err := addEntry(zw, name, blobs[i]); err != nil {
			return Result{}, err
		}
		written[name] = true
		files++
		progress.step()
	}

	manifestData, err := modpack.Export(manifest)
	if err != nil {
		return Result{}, err
	}
	if err := addEntry(zw, manifestName, manifestData); err != nil {
		return Result{}, err
	}
	progress.step()

	if len(failures) > 0 {
		errorsData, err := json.MarshalIndent(failures, "", "    ")
		if err != nil {
			return Result{}, fmt.Errorf("failed to encode %s: %w", ErrorsFileName, err)
		}
		if err := addEntry(zw, ErrorsFileName, errorsData); err != nil {
			return Result{}, err
		}
		progress.step()
	}

	if err := zw.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to finish archive: %w", err)
	}
	progress.finish()

	b.log.Infow("Archive built",
		zap.String("modpack", manifest.Name),
		zap.Int("files", files),
		zap.Int("failures", len(failures)),
		zap.Int("bytes", buf.Len()),
	)
	return Result{FileName: FileName(manifest), Data: buf.Bytes()}, nil
}

// manifestEntryName is the manifest's name inside the archive. A modpack
// called "errors" would clash with the error report, so its manifest is
// stored as errors.modpack.json when there is a report.
func manifestEntryName(m modpack.Modpack, hasFailures bool) string {
	name := modpack.ManifestFileName(m)
	if hasFailures && name == ErrorsFileName {
		return strings.TrimSuffix(name, ".json") + ".modpack.json"
	}
	return name
}

// entryName keeps only the base name so catalog file names cannot escape
// the archive root.
func entryName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return "unnamed"
	}
	return name
}

func addEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create archive entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write archive entry %s: %w", name, err)
	}
	return nil
}

// tracker turns completed steps into non-decreasing fractions.
type tracker struct {
	mu    sync.Mutex
	done  int
	total int
	last  float64
	fn    ProgressFunc
}

func newTracker(total int, fn ProgressFunc) *tracker {
	t := &tracker{total: total, fn: fn}
	t.report(0)
	return t
}

func (t *tracker) step() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done++
	if t.done >= t.total {
		// 1.0 is reserved for finish, after the archive is closed.
		return
	}
	t.reportLocked(float64(t.done) / float64(t.total))
}

func (t *tracker) finish() {
	t.report(1)
}

func (t *tracker) report(f float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reportLocked(f)
}

func (t *tracker) reportLocked(f float64) {
	if t.fn == nil || (f < t.last) || (f == t.last && f != 0) {
		return
	}
	t.last = f
	t.fn(f)
}
