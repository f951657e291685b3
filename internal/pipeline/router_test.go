package pipeline

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"markme/internal/config"
	"markme/internal/pattern"
	"markme/internal/storage"
	"markme/internal/tasks"
)

type stubRunner struct {
	calls   int
	lastReq tasks.BatchRequest
	result  tasks.BatchResult
	err     error
}

func (s *stubRunner) Run(ctx context.Context, req tasks.BatchRequest) (tasks.BatchResult, error) {
	s.calls++
	s.lastReq = req
	return s.result, s.err
}

func TestRouterBuildsBatchRequest(t *testing.T) {
	runner := &stubRunner{result: tasks.BatchResult{Logo: "logos/brand.png", Succeeded: 2}}
	out := config.Default().Output
	r := &router{log: slog.Default(), runner: runner, output: out}

	job := Job{
		ID:     "wm-1",
		Type:   JobWatermark,
		Output: "finishedpics",
		Options: map[string]any{
			"logo":       "logos/brand.png",
			"sources":    []string{"a.jpg", "b.png"},
			"pattern":    "4x4ring",
			"logoAlpha":  120,
			"forceRatio": 0.4,
			"display":    true,
			"save":       false,
		},
	}

	res := r.Process(context.Background(), job)
	if res.Error != nil {
		t.Fatalf("expected nil error, got %v", res.Error)
	}
	req := runner.lastReq
	if req.LogoPath != "logos/brand.png" || len(req.Sources) != 2 || req.OutputDir != "finishedpics" {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Options.Pattern != pattern.Ring4x4 || req.Options.LogoAlpha != 120 || req.Options.ForceRatio != 0.4 {
		t.Fatalf("options not passed through: %+v", req.Options)
	}
	if !req.Options.Display || req.Options.Save || req.Options.Wallpaper {
		t.Fatalf("output mode not passed through: %+v", req.Options)
	}
	if req.Output != out {
		t.Fatalf("expected output settings from router")
	}
	if res.Meta["succeeded"] != 2 {
		t.Fatalf("expected succeeded count in meta, got %v", res.Meta)
	}
}

func TestRouterDefaultsAndWallpaper(t *testing.T) {
	runner := &stubRunner{}
	r := &router{log: slog.Default(), runner: runner}

	res := r.Process(context.Background(), Job{
		ID:      "wp-1",
		Type:    JobWallpaper,
		Options: map[string]any{"logo": "l.png", "sources": []string{"ignored.jpg"}},
	})
	if res.Error != nil {
		t.Fatalf("expected nil error, got %v", res.Error)
	}
	req := runner.lastReq
	if !req.Options.Wallpaper || req.Sources != nil {
		t.Fatalf("wallpaper job must only render the wallpaper: %+v", req)
	}
	if req.Options.Pattern != pattern.Default || req.Options.LogoAlpha != config.DefaultLogoAlpha || req.Options.HasForceRatio() {
		t.Fatalf("expected default options, got %+v", req.Options)
	}
}

func TestRouterRejectsBadInput(t *testing.T) {
	runner := &stubRunner{}
	r := &router{log: slog.Default(), runner: runner}

	res := r.Process(context.Background(), Job{ID: "x", Type: JobWatermark, Options: map[string]any{"pattern": "spiral"}})
	if res.Error == nil || runner.calls != 0 {
		t.Fatalf("expected pattern error before running, got %v", res.Error)
	}
	res = r.Process(context.Background(), Job{ID: "y", Type: "mystery"})
	if res.Error == nil {
		t.Fatalf("expected unknown job type error")
	}
}

func TestPipelineRecordsHistory(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "markme.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	runner := &stubRunner{
		result: tasks.BatchResult{
			Logo: "l.png",
			Items: []tasks.ItemResult{
				{Source: "a.jpg", Output: "out/a-m.jpg", Size: image.Pt(4, 3)},
				{Source: "b.jpg", Err: errors.New("decode failed")},
			},
			Succeeded: 1,
			Failed:    1,
		},
	}
	p := New(context.Background(), 4, slog.Default(), store, runner, config.Default().Output)
	defer p.Stop()

	results, unsub := p.Subscribe()
	defer unsub()

	job := Job{ID: "run-1", Type: JobWatermark, Output: "out", Options: map[string]any{"logo": "l.png", "sources": []string{"a.jpg", "b.jpg"}}}
	if err := p.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case res := <-results:
		if res.Job.ID != "run-1" || res.Error != nil || res.Batch.Failed != 1 {
			t.Fatalf("unexpected result %+v", res)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
	}

	runs, err := store.RecentRuns(5)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected one run, got %v %v", runs, err)
	}
	if runs[0].Status != "completed" || runs[0].Succeeded != 1 || runs[0].Failed != 1 || runs[0].LogoPath != "l.png" {
		t.Fatalf("unexpected run record %+v", runs[0])
	}
	items, err := store.RunItems("run-1")
	if err != nil || len(items) != 2 || items[1].Error != "decode failed" || items[0].Width != 4 {
		t.Fatalf("unexpected items %+v %v", items, err)
	}
}

func TestPipelineReportsFailures(t *testing.T) {
	runner := &stubRunner{err: tasks.ErrNoSources}
	p := New(context.Background(), 1, slog.Default(), nil, runner, config.Default().Output)
	defer p.Stop()

	results, unsub := p.Subscribe()
	defer unsub()
	if err := p.Submit(Job{ID: "empty", Type: JobWatermark}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	select {
	case res := <-results:
		if !errors.Is(res.Error, tasks.ErrNoSources) {
			t.Fatalf("expected ErrNoSources, got %v", res.Error)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
	}
}
