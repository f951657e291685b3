package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"markme/internal/config"
	"markme/internal/pipeline"
	"markme/internal/storage"
	"markme/internal/tasks"
)

type pipelineClient interface {
	Submit(job pipeline.Job) error
	Subscribe() (<-chan pipeline.Result, func())
}

type historyStore interface {
	RecentRuns(limit int) ([]storage.RunRecord, error)
	RunItems(runID string) ([]storage.ItemRecord, error)
}

type sourceWatcher interface {
	Start() error
	Stop() error
}

// watcherFactory returns a started-on-demand watcher and the channel it reports on.
type watcherFactory func(dir string, log *slog.Logger) (sourceWatcher, <-chan string, error)

func defaultWatcher(dir string, log *slog.Logger) (sourceWatcher, <-chan string, error) {
	w, err := tasks.NewSourceWatcher(dir, tasks.DefaultSettle, log)
	if err != nil {
		return nil, nil, err
	}
	return w, w.Events, nil
}

// Root wires CLI commands to the pipeline.
type Root struct {
	pipeline   pipelineClient
	cfg        *config.Config
	log        *slog.Logger
	store      historyStore
	viewerName string
	watchFn    watcherFactory
	saveCfg    func(*config.Config) error
}

// NewRoot constructs the CLI root. viewer may be nil.
func NewRoot(pl pipelineClient, cfg *config.Config, logger *slog.Logger, store *storage.Store, viewer *tasks.ExternalViewer) *Root {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Root{
		pipeline: pl,
		cfg:      cfg,
		log:      logger,
		watchFn:  defaultWatcher,
		saveCfg:  config.Save,
	}
	if store != nil {
		r.store = store
	}
	if viewer.Available() {
		r.viewerName = filepath.Base(viewer.Command)
	}
	return r
}

// workspace resolves the configured folders. A non-empty outputDir replaces
// the configured output folder.
func (r *Root) workspace(outputDir string) tasks.Workspace {
	ws := tasks.WorkspaceFromConfig(r.cfg.Paths)
	if outputDir != "" {
		ws.OutputDir = outputDir
	}
	return ws
}

// prepare scans the workspace and picks the logo.
func (r *Root) prepare(ws tasks.Workspace, logoChoice string) (tasks.ScanResult, string, error) {
	scan, err := tasks.Scan(ws)
	if err != nil {
		return scan, "", err
	}
	for _, dir := range scan.Created {
		r.log.Warn("folder was missing and has been created", "dir", dir)
	}
	logo, err := tasks.SelectLogo(scan.Logos, logoChoice)
	if err != nil {
		if errors.Is(err, tasks.ErrNoLogo) && len(scan.Logos) == 0 {
			return scan, "", fmt.Errorf("%w: put a logo into %s", err, ws.LogoDir)
		}
		return scan, "", err
	}
	return scan, logo, nil
}

func jobOptions(opts config.Watermark, logo string, sources []string, origin string) map[string]any {
	return map[string]any{
		"logo":       logo,
		"sources":    sources,
		"pattern":    opts.Pattern.String(),
		"logoAlpha":  opts.LogoAlpha,
		"forceRatio": opts.ForceRatio,
		"wallpaper":  opts.Wallpaper,
		"display":    opts.Display,
		"save":       opts.Save,
		"source":     origin,
	}
}

func (r *Root) enqueueAndWait(ctx context.Context, job pipeline.Job) (pipeline.Result, error) {
	resCh, unsubscribe := r.pipeline.Subscribe()
	defer unsubscribe()
	if err := r.enqueue(ctx, job); err != nil {
		return pipeline.Result{}, err
	}
	for {
		select {
		case <-ctx.Done():
			return pipeline.Result{}, ctx.Err()
		case res, ok := <-resCh:
			if !ok {
				return pipeline.Result{}, fmt.Errorf("pipeline stopped before completion")
			}
			if res.Job.ID == job.ID {
				return res, res.Error
			}
		}
	}
}

func (r *Root) enqueue(ctx context.Context, job pipeline.Job) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := r.pipeline.Submit(job); err != nil {
		return err
	}

	r.log.Info("job queued", "type", job.Type, "id", job.ID, "input", job.InputPath)
	return nil
}

func printBatch(res tasks.BatchResult) {
	for _, it := range res.Items {
		switch {
		case it.Err != nil:
			fmt.Printf("  ✗ %s: %v\n", filepath.Base(it.Source), it.Err)
		case it.Output != "":
			fmt.Printf("  ✓ %s -> %s\n", filepath.Base(it.Source), it.Output)
		case it.Displayed:
			fmt.Printf("  ✓ %s (displayed)\n", filepath.Base(it.Source))
		default:
			fmt.Printf("  ✓ %s (no output)\n", filepath.Base(it.Source))
		}
	}
	if wp := res.Wallpaper; wp != nil {
		switch {
		case wp.Err != nil:
			fmt.Printf("  ✗ wallpaper: %v\n", wp.Err)
		case wp.Output != "":
			fmt.Printf("  ✓ wallpaper -> %s\n", wp.Output)
		default:
			fmt.Printf("  ✓ wallpaper rendered\n")
		}
	}
	fmt.Printf("Done: %d succeeded, %d failed\n", res.Succeeded, res.Failed)
}

func parseSize(s string) (w, h int, err error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected WIDTHxHEIGHT, got %q", s)
	}
	if _, err := fmt.Sscanf(parts[0]+" "+parts[1], "%d %d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("expected positive WIDTHxHEIGHT, got %q", s)
	}
	return w, h, nil
}

func newID(prefix string) string {
	ts := time.Now().UTC().Format("20060102T150405")
	return fmt.Sprintf("%s-%s-%04d", prefix, ts, rand.Intn(10000))
}
