package cmd

import (
	"context"
	"testing"
	"time"

	"modpack-downloader/downloader"
	"modpack-downloader/modpack"

	tea "github.com/charmbracelet/bubbletea"
)

func TestDownloadModelQuitCancelsRunningDownload(t *testing.T) {
	finished := make(chan struct{})
	model := newDownloadModel(context.Background(), modpack.Modpack{Name: "Pack"}, func(ctx context.Context, events chan<- downloader.Event) {
		defer close(finished)
		events <- downloader.Event{Type: downloader.EventStatus, Message: downloader.MsgDownloading}
		<-ctx.Done()
	})

	model.startDownload()()
	if msg, ok := model.waitForActivity()().(downloadEventMsg); !ok || msg.Message != downloader.MsgDownloading {
		t.Fatalf("expected the first status event, got %#v", msg)
	}

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("download was not cancelled after quitting")
	}
	model.wait()
}

func TestDownloadModelWaitWithoutStart(t *testing.T) {
	started := false
	model := newDownloadModel(context.Background(), modpack.Modpack{Name: "Pack"}, func(context.Context, chan<- downloader.Event) {
		started = true
	})

	model.wait()
	model.startDownload()()

	if started {
		t.Error("download should not start after wait")
	}
}

func TestDownloadModelKeepsFinalReport(t *testing.T) {
	model := newDownloadModel(context.Background(), modpack.Modpack{Name: "Pack"}, func(context.Context, chan<- downloader.Event) {})

	report := &downloader.Report{Status: downloader.StatusFinished, Message: downloader.MsgFinished, Path: "/out/Pack.zip"}
	updated, _ := model.Update(downloadEventMsg{Type: downloader.EventDone, Message: report.Message, Report: report})
	final := updated.(DownloadModel)

	if !final.done {
		t.Fatal("model should be done after the final event")
	}
	if final.report.Path != "/out/Pack.zip" {
		t.Errorf("report path = %q", final.report.Path)
	}
	final.wait()
}
