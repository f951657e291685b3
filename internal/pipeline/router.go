package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"markme/internal/config"
	"markme/internal/pattern"
	"markme/internal/storage"
	"markme/internal/tasks"
)

// BatchRunner executes one watermarking batch.
type BatchRunner interface {
	Run(ctx context.Context, req tasks.BatchRequest) (tasks.BatchResult, error)
}

// router implements Processor and routes jobs to the batch runner.
type router struct {
	log    *slog.Logger
	store  *storage.Store
	runner BatchRunner
	output config.Output
}

func newRouter(logger *slog.Logger, store *storage.Store, runner BatchRunner, output config.Output) Processor {
	return &router{
		log:    logger,
		store:  store,
		runner: runner,
		output: output,
	}
}

func (r *router) Process(ctx context.Context, job Job) Result {
	switch job.Type {
	case JobWatermark:
		return r.handleWatermark(ctx, job)
	case JobWallpaper:
		return r.handleWallpaper(ctx, job)
	default:
		return Result{Job: job, Error: fmt.Errorf("unknown job type: %s", job.Type)}
	}
}

func (r *router) handleWatermark(ctx context.Context, job Job) Result {
	req, err := r.request(job)
	if err != nil {
		return Result{Job: job, Error: err}
	}
	return r.run(ctx, job, req)
}

func (r *router) handleWallpaper(ctx context.Context, job Job) Result {
	req, err := r.request(job)
	if err != nil {
		return Result{Job: job, Error: err}
	}
	req.Sources = nil
	req.Options.Wallpaper = true
	return r.run(ctx, job, req)
}

func (r *router) run(ctx context.Context, job Job, req tasks.BatchRequest) Result {
	batch, err := r.runner.Run(ctx, req)
	r.recordItems(job.ID, batch)

	meta := map[string]any{
		"logo":      batch.Logo,
		"succeeded": batch.Succeeded,
		"failed":    batch.Failed,
		"items":     len(batch.Items),
	}
	if batch.Wallpaper != nil && batch.Wallpaper.Output != "" {
		meta["wallpaper"] = batch.Wallpaper.Output
	}
	return Result{Job: job, Error: err, Meta: meta, Batch: batch}
}

// request turns job options into a batch request. Options not present fall
// back to the defaults.
func (r *router) request(job Job) (tasks.BatchRequest, error) {
	opts := config.DefaultWatermark()

	if name, _ := job.Options["pattern"].(string); name != "" {
		p, err := pattern.Parse(name)
		if err != nil {
			return tasks.BatchRequest{}, err
		}
		opts.Pattern = p
	}
	if alpha, ok := job.Options["logoAlpha"].(int); ok {
		opts.LogoAlpha = alpha
	}
	if ratio, ok := job.Options["forceRatio"].(float64); ok {
		opts.ForceRatio = ratio
	}
	if v, ok := job.Options["wallpaper"].(bool); ok {
		opts.Wallpaper = v
	}
	if v, ok := job.Options["display"].(bool); ok {
		opts.Display = v
	}
	if v, ok := job.Options["save"].(bool); ok {
		opts.Save = v
	}

	logo, _ := job.Options["logo"].(string)
	sources, _ := job.Options["sources"].([]string)

	return tasks.BatchRequest{
		ID:        job.ID,
		LogoPath:  logo,
		Sources:   sources,
		OutputDir: job.Output,
		Options:   opts,
		Output:    r.output,
	}, nil
}

func (r *router) recordItems(runID string, batch tasks.BatchResult) {
	if r.store == nil {
		return
	}
	items := batch.Items
	if batch.Wallpaper != nil {
		items = append(items, *batch.Wallpaper)
	}
	for _, it := range items {
		rec := storage.ItemRecord{
			RunID:      runID,
			SourcePath: it.Source,
			OutputPath: it.Output,
			Width:      it.Size.X,
			Height:     it.Size.Y,
			Displayed:  it.Displayed,
			Duration:   it.Duration,
			Error:      errString(it.Err),
		}
		if err := r.store.RecordItem(rec); err != nil {
			r.log.Warn("failed to record item", "run", runID, "source", it.Source, "error", err)
		}
	}
}
