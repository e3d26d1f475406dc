// Package downloader runs the end-to-end "download modpack" operation:
// resolve every enabled mod, look up names for the ones that failed, pack
// the rest into a zip and write it to the output directory.
package downloader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"modpack-downloader/archive"
	"modpack-downloader/cache"
	"modpack-downloader/catalog"
	"modpack-downloader/modpack"
	"modpack-downloader/resolve"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Status is the terminal state of a download.
type Status string

const (
	StatusInvalid           Status = "invalid"
	StatusNothingToDownload Status = "nothing_to_download"
	StatusAllErrored        Status = "all_errored"
	StatusFinished          Status = "finished"
	StatusFailed            Status = "failed"
)

// Messages shown to the user while a download runs.
const (
	MsgNoVersion      = "No version selected"
	MsgNoModloader    = "No modloader selected"
	MsgResolving      = "Getting mods data..."
	MsgNothing        = "There is nothing to download"
	MsgAllErrored     = "All mods raised an error"
	MsgDownloading    = "Downloading mods..."
	MsgFinished       = "Download finished"
	MsgFinishedFailed = "Download finished; Failed to download: "
	MsgFailed         = "Download failed"
)

// Event types sent on the events channel.
const (
	EventStatus   = "status"
	EventProgress = "progress"
	EventDone     = "done"
)

// Event is a progress update for an observing UI.
type Event struct {
	Type     string
	Message  string
	Progress float64
	Report   *Report
}

// Report is the outcome of one Download call.
type Report struct {
	Status  Status
	Message string
	// Failed lists the mods that could not be resolved, for UI marking.
	Failed       []modpack.ModReference
	FailedTitles []string
	FileName     string
	Path         string
	Err          error
}

// Resolver resolves every enabled mod of a modpack.
type Resolver interface {
	ResolveAll(ctx context.Context, m modpack.Modpack) resolve.Result
}

// MetadataSource provides display metadata for mods.
type MetadataSource interface {
	Get(ctx context.Context, refs []modpack.ModReference) map[cache.Key]modpack.Metadata
}

// Archiver builds the modpack archive.
type Archiver interface {
	Build(ctx context.Context, downloads []catalog.File, manifest modpack.Modpack, failures []archive.Failure, onProgress archive.ProgressFunc) (archive.Result, error)
}

type Options struct {
	Resolver  Resolver
	Metadata  MetadataSource
	Archiver  Archiver
	Fs        afero.Fs
	OutputDir string
	Logger    *zap.SugaredLogger
}

type Downloader struct {
	resolver  Resolver
	metadata  MetadataSource
	archiver  Archiver
	fs        afero.Fs
	outputDir string
	log       *zap.SugaredLogger
}

func New(opts Options) *Downloader {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Downloader{
		resolver:  opts.Resolver,
		metadata:  opts.Metadata,
		archiver:  opts.Archiver,
		fs:        opts.Fs,
		outputDir: opts.OutputDir,
		log:       opts.Logger,
	}
}

// Download runs every stage once. events may be nil; it is never closed
// by Download. The final report is also sent as an EventDone.
func (d *Downloader) Download(ctx context.Context, m modpack.Modpack, events chan<- Event) Report {
	report := d.run(ctx, m, events)
	d.log.Infow("Download completed",
		zap.String("modpack", m.Name),
		zap.String("status", string(report.Status)),
		zap.String("message", report.Message),
	)
	send(events, Event{Type: EventDone, Message: report.Message, Report: &report})
	return report
}

func (d *Downloader) run(ctx context.Context, m modpack.Modpack, events chan<- Event) Report {
	if strings.TrimSpace(m.Version) == "" {
		return Report{Status: StatusInvalid, Message: MsgNoVersion}
	}
	if strings.TrimSpace(string(m.Modloader)) == "" {
		return Report{Status: StatusInvalid, Message: MsgNoModloader}
	}

	status(events, MsgResolving)
	resolved := d.resolver.ResolveAll(ctx, m)

	failures, titles := d.describeFailures(ctx, resolved.Failures)

	if len(resolved.Downloads) == 0 {
		if len(resolved.Failures) == 0 {
			return Report{Status: StatusNothingToDownload, Message: MsgNothing}
		}
		return Report{
			Status:       StatusAllErrored,
			Message:      MsgAllErrored,
			Failed:       resolved.Failures,
			FailedTitles: titles,
		}
	}

	status(events, MsgDownloading)
	built, err := d.archiver.Build(ctx, resolved.Downloads, m.Clone(), failures, func(f float64) {
		send(events, Event{Type: EventProgress, Progress: f})
	})
	if err != nil {
		d.log.Errorw("Failed to build archive", zap.String("modpack", m.Name), zap.Error(err))
		return Report{Status: StatusFailed, Message: MsgFailed, Failed: resolved.Failures, FailedTitles: titles, Err: err}
	}

	outPath := filepath.Join(d.outputDir, built.FileName)
	if err := d.write(outPath, built.Data); err != nil {
		d.log.Errorw("Failed to write archive", zap.String("path", outPath), zap.Error(err))
		return Report{Status: StatusFailed, Message: MsgFailed, Failed: resolved.Failures, FailedTitles: titles, Err: err}
	}

	msg := MsgFinished
	if len(titles) > 0 {
		msg = MsgFinishedFailed + strings.Join(titles, ", ")
	}
	return Report{
		Status:       StatusFinished,
		Message:      msg,
		Failed:       resolved.Failures,
		FailedTitles: titles,
		FileName:     built.FileName,
		Path:         outPath,
	}
}

// describeFailures looks up display names and catalog links for the
// failed mods, in input order.
func (d *Downloader) describeFailures(ctx context.Context, refs []modpack.ModReference) ([]archive.Failure, []string) {
	if len(refs) == 0 {
		return nil, nil
	}
	var meta map[cache.Key]modpack.Metadata
	if d.metadata != nil {
		meta = d.metadata.Get(ctx, refs)
	}
	failures := make([]archive.Failure, 0, len(refs))
	titles := make([]string, 0, len(refs))
	for _, ref := range refs {
		m := meta[cache.KeyOf(ref)]
		name := m.DisplayName(ref)
		if m.IsError() {
			name = ref.ID
		}
		failures = append(failures, archive.Failure{Name: name, URL: m.URL})
		titles = append(titles, name)
	}
	return failures, titles
}

// write stores the archive through a temp file so a failed write never
// leaves a truncated zip behind.
func (d *Downloader) write(path string, data []byte) error {
	if err := d.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp := path + ".part"
	if err := afero.WriteFile(d.fs, tmp, data, 0644); err != nil {
		_ = d.fs.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := d.fs.Rename(tmp, path); err != nil {
		_ = d.fs.Remove(tmp)
		return fmt.Errorf("failed to move archive into place: %w", err)
	}
	return nil
}

func status(events chan<- Event, msg string) {
	send(events, Event{Type: EventStatus, Message: msg})
}

func send(events chan<- Event, e Event) {
	if events != nil {
		events <- e
	}
}
