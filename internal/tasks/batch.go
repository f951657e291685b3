package tasks

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"markme/internal/config"
	"markme/internal/fsutil"
	"markme/internal/logging"
	"markme/internal/watermark"
)

// BatchRequest describes one watermarking run.
type BatchRequest struct {
	ID        string
	LogoPath  string
	Sources   []string
	OutputDir string
	Options   config.Watermark
	Output    config.Output
}

// ItemResult is the outcome for one source image, or for the wallpaper.
type ItemResult struct {
	Source    string
	Output    string // empty when nothing was written
	Size      image.Point
	Displayed bool
	Duration  time.Duration
	Err       error
}

// BatchResult collects per-item outcomes of a run.
type BatchResult struct {
	Logo      string
	Items     []ItemResult
	Wallpaper *ItemResult
	Succeeded int
	Failed    int
}

// BatchRunner stamps a logo onto a list of source images.
type BatchRunner struct {
	log    *slog.Logger
	viewer Viewer
	load   func(path string) (image.Image, error)
	save   func(img image.Image, path string, jpegQuality int) error
}

// NewBatchRunner returns a runner reading and writing image files. viewer may
// be nil when results are never displayed.
func NewBatchRunner(logger *slog.Logger, viewer Viewer) *BatchRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchRunner{log: logger, viewer: viewer, load: LoadImage, save: SaveImage}
}

// Run preprocesses the logo once and then marks every source in order.
// Per-item failures are recorded and skipped. Cancellation is honored between
// items; the partial result is returned with the context error.
func (r *BatchRunner) Run(ctx context.Context, req BatchRequest) (BatchResult, error) {
	opts := req.Options
	if req.LogoPath == "" {
		return BatchResult{}, ErrNoLogo
	}
	if _, err := os.Stat(req.LogoPath); err != nil {
		return BatchResult{}, fmt.Errorf("%w: %v", ErrNoLogo, err)
	}
	if len(req.Sources) == 0 && !opts.Wallpaper {
		return BatchResult{}, ErrNoSources
	}

	alpha := opts.LogoAlpha
	if alpha < 0 || alpha > 255 {
		r.log.Warn("logo alpha out of range, using default", "alpha", alpha, "default", config.DefaultLogoAlpha)
		alpha = config.DefaultLogoAlpha
	}
	filter, ok := watermark.FilterByName(req.Output.Resample)
	if !ok && req.Output.Resample != "" {
		r.log.Warn("unknown resample filter, using default", "filter", req.Output.Resample)
	}

	logo, err := r.load(req.LogoPath)
	if err != nil {
		return BatchResult{}, fmt.Errorf("load logo: %w", err)
	}
	prepared := watermark.MakeTransparent(logo, uint8(alpha))

	logging.LogBatchStart(r.log, req.LogoPath, len(req.Sources), opts.Pattern.String(), alpha, opts.ForceRatio, opts.Wallpaper)
	if opts.Display && r.viewer == nil {
		r.log.Warn("display requested but no viewer configured")
	}

	res := BatchResult{Logo: req.LogoPath}
	for _, src := range req.Sources {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		item := r.markOne(ctx, req, src, prepared, filter)
		res.Items = append(res.Items, item)
		if item.Err != nil {
			res.Failed++
			logging.LogItemError(r.log, src, item.Err)
			continue
		}
		res.Succeeded++
		logging.LogItemComplete(r.log, src, item.Output, item.Duration)
	}

	if opts.Wallpaper {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		wp := r.wallpaper(ctx, req, prepared, filter)
		res.Wallpaper = &wp
		if wp.Err != nil {
			res.Failed++
			logging.LogItemError(r.log, req.LogoPath, wp.Err)
		} else {
			res.Succeeded++
			logging.LogItemComplete(r.log, req.LogoPath, wp.Output, wp.Duration)
		}
	}
	return res, nil
}

func (r *BatchRunner) markOne(ctx context.Context, req BatchRequest, src string, logo image.Image, filter imaging.ResampleFilter) ItemResult {
	start := time.Now()
	item := ItemResult{Source: src}

	base, err := r.load(src)
	if err != nil {
		item.Err = err
		return item
	}
	item.Size = base.Bounds().Size()

	overlay := watermark.RenderOverlay(logo, item.Size, req.Options.Pattern, req.Options.ForceRatio, filter)
	marked := watermark.Composite(base, overlay)

	suffix := req.Output.Suffix
	if suffix == "" {
		suffix = config.Default().Output.Suffix
	}
	r.emit(ctx, req, &item, marked, filepath.Join(req.OutputDir, fsutil.OutputName(src, suffix)))
	item.Duration = time.Since(start)
	return item
}

func (r *BatchRunner) wallpaper(ctx context.Context, req BatchRequest, logo image.Image, filter imaging.ResampleFilter) ItemResult {
	start := time.Now()
	canvas := image.Pt(req.Output.WallpaperWidth, req.Output.WallpaperHeight)
	if canvas.X <= 0 || canvas.Y <= 0 {
		def := config.Default().Output
		canvas = image.Pt(def.WallpaperWidth, def.WallpaperHeight)
	}
	suffix := req.Output.WallpaperSuffix
	if suffix == "" {
		suffix = config.Default().Output.WallpaperSuffix
	}

	item := ItemResult{Source: req.LogoPath, Size: canvas}
	overlay := watermark.RenderOverlay(logo, canvas, req.Options.Pattern, req.Options.ForceRatio, filter)
	r.emit(ctx, req, &item, overlay, filepath.Join(req.OutputDir, fsutil.WallpaperName(req.LogoPath, suffix)))
	item.Duration = time.Since(start)
	return item
}

// emit saves and/or shows img according to the request's output mode.
// Display failures are logged; only save failures fail the item.
func (r *BatchRunner) emit(ctx context.Context, req BatchRequest, item *ItemResult, img image.Image, path string) {
	if req.Options.Save {
		if err := r.save(img, path, req.Output.JPEGQuality); err != nil {
			item.Err = err
			return
		}
		item.Output = path
	}
	if req.Options.Display && r.viewer != nil {
		if err := r.viewer.Show(ctx, img, fsutil.Stem(path)); err != nil {
			r.log.Warn("display failed", "source", item.Source, "error", err)
			return
		}
		item.Displayed = true
	}
}
