package cli

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"markme/internal/config"
	"markme/internal/pattern"
	"markme/internal/pipeline"
	"markme/internal/storage"
	"markme/internal/tasks"
	"markme/internal/watermark"
)

// Version is reported by the version command.
var Version = "1.0.0"

// NewRootCmd creates the root Cobra command
func NewRootCmd(cfg *config.Config, log *slog.Logger, store *storage.Store, pipe *pipeline.Pipeline, viewer *tasks.ExternalViewer) *cobra.Command {
	return newRootCommand(NewRoot(pipe, cfg, log, store, viewer))
}

func newRootCommand(root *Root) *cobra.Command {
	var baseDir string

	rootCmd := &cobra.Command{
		Use:   "markme",
		Short: "markme stamps a logo watermark onto batches of images",
		Long: `markme takes the logo from ./logos, stamps it onto every image in
./originalpics using one of sixteen placement patterns, and writes the
results to ./finishedpics. It can also render a logo-only wallpaper.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if baseDir != "" {
				root.cfg.Paths.BaseDir = baseDir
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&baseDir, "dir", "C", "", "workspace base directory (default from config)")

	rootCmd.AddCommand(newRunCmd(root))
	rootCmd.AddCommand(newWallpaperCmd(root))
	rootCmd.AddCommand(newWatchCmd(root))
	rootCmd.AddCommand(newStatusCmd(root))
	rootCmd.AddCommand(newPatternsCmd(root))
	rootCmd.AddCommand(newHistoryCmd(root))
	rootCmd.AddCommand(newConfigCmd(root))
	rootCmd.AddCommand(newVersionCmd(root))

	return rootCmd
}

// watermarkFlags are the option overrides shared by run, wallpaper and watch.
type watermarkFlags struct {
	pattern    string
	alpha      string
	level      string
	forceRatio string
	logo       string
	output     string
	wallpaper  bool
	display    bool
	save       bool
}

func addWatermarkFlags(cmd *cobra.Command, f *watermarkFlags, cfg *config.Config, withWallpaper bool) {
	w := cfg.Watermark
	cmd.Flags().StringVarP(&f.pattern, "pattern", "p", w.Pattern.String(), "placement pattern (see 'markme patterns')")
	cmd.Flags().StringVar(&f.alpha, "alpha", "", "logo opacity 0-255")
	cmd.Flags().StringVar(&f.level, "level", "", "logo opacity on a 0-10 scale")
	cmd.Flags().StringVar(&f.forceRatio, "force-ratio", "", "logo scale override, 0.10-1.00 or 10-100 percent, 'unset' for the pattern default")
	cmd.Flags().StringVar(&f.logo, "logo", "", "logo to use when several are available (file name or path)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output directory (default from config)")
	cmd.Flags().BoolVar(&f.display, "display", w.Display, "show results in an image viewer")
	cmd.Flags().BoolVar(&f.save, "save", w.Save, "write results to the output directory")
	if withWallpaper {
		cmd.Flags().BoolVar(&f.wallpaper, "wallpaper", w.Wallpaper, "also render a logo-only wallpaper")
	}
	cmd.MarkFlagsMutuallyExclusive("alpha", "level")
}

// resolveOptions applies the flags that were set on top of the configured options.
func (r *Root) resolveOptions(f watermarkFlags, changed func(string) bool) (config.Watermark, error) {
	opts := r.cfg.Watermark

	if changed("pattern") {
		p, err := pattern.Parse(f.pattern)
		if err != nil {
			return opts, err
		}
		opts.Pattern = p
	}
	if changed("alpha") {
		v, ok := config.ParseLogoAlpha(f.alpha)
		if !ok {
			r.log.Warn("invalid alpha, using default", "value", f.alpha, "default", v)
		}
		opts.LogoAlpha = v
	}
	if changed("level") {
		v, ok := config.ParseAlphaLevel(f.level)
		if !ok {
			r.log.Warn("invalid alpha level, using default", "value", f.level, "default", v)
		}
		opts.LogoAlpha = v
	}
	if changed("force-ratio") {
		v, ok := config.ParseForceRatio(f.forceRatio)
		if !ok {
			r.log.Warn("invalid force ratio, using pattern default", "value", f.forceRatio)
		}
		opts.ForceRatio = v
	}
	if changed("wallpaper") {
		opts.Wallpaper = f.wallpaper
	}
	if changed("display") {
		opts.Display = f.display
	}
	if changed("save") {
		opts.Save = f.save
	}
	return opts, nil
}

func newRunCmd(root *Root) *cobra.Command {
	var f watermarkFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watermark every image in the source folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := root.resolveOptions(f, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			return root.runBatch(cmd.Context(), pipeline.JobWatermark, opts, f.logo, f.output)
		},
	}
	addWatermarkFlags(cmd, &f, root.cfg, true)
	return cmd
}

func newWallpaperCmd(root *Root) *cobra.Command {
	var f watermarkFlags
	cmd := &cobra.Command{
		Use:   "wallpaper",
		Short: "Render the logo pattern alone on a transparent wallpaper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := root.resolveOptions(f, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			opts.Wallpaper = true
			return root.runBatch(cmd.Context(), pipeline.JobWallpaper, opts, f.logo, f.output)
		},
	}
	addWatermarkFlags(cmd, &f, root.cfg, false)
	return cmd
}

func (r *Root) runBatch(ctx context.Context, jobType pipeline.JobType, opts config.Watermark, logoChoice, outputDir string) error {
	ws := r.workspace(outputDir)
	scan, logo, err := r.prepare(ws, logoChoice)
	if err != nil {
		return err
	}
	sources := scan.Sources
	if jobType == pipeline.JobWallpaper {
		sources = nil
	} else if len(sources) == 0 && !opts.Wallpaper {
		return fmt.Errorf("%w in %s", tasks.ErrNoSources, ws.SourceDir)
	}

	fmt.Printf("Stamping %s onto %d image(s) with pattern %s\n", filepath.Base(logo), len(sources), opts.Pattern)
	job := pipeline.Job{
		ID:        newID(string(jobType)),
		Type:      jobType,
		InputPath: ws.SourceDir,
		Output:    ws.OutputDir,
		Options:   jobOptions(opts, logo, sources, "cli"),
	}
	res, err := r.enqueueAndWait(ctx, job)
	if err != nil {
		return err
	}
	printBatch(res.Batch)
	return nil
}

func newWatchCmd(root *Root) *cobra.Command {
	var f watermarkFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watermark new images as they arrive in the source folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := root.resolveOptions(f, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			opts.Wallpaper = false
			return root.watch(cmd.Context(), opts, f.logo, f.output)
		},
	}
	addWatermarkFlags(cmd, &f, root.cfg, false)
	return cmd
}

func (r *Root) watch(ctx context.Context, opts config.Watermark, logoChoice, outputDir string) error {
	ws := r.workspace(outputDir)
	_, logo, err := r.prepare(ws, logoChoice)
	if err != nil {
		return err
	}
	w, events, err := r.watchFn(ws.SourceDir, r.log)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Stop()

	fmt.Printf("Watching %s for new images (logo %s), press Ctrl+C to stop\n", ws.SourceDir, filepath.Base(logo))
	return r.watchLoop(ctx, events, opts, logo, ws)
}

// watchLoop submits one single-image job per event until ctx ends or events closes.
func (r *Root) watchLoop(ctx context.Context, events <-chan string, opts config.Watermark, logo string, ws tasks.Workspace) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-events:
			if !ok {
				return nil
			}
			job := pipeline.Job{
				ID:        newID("watch"),
				Type:      pipeline.JobWatermark,
				InputPath: ws.SourceDir,
				Output:    ws.OutputDir,
				Options:   jobOptions(opts, logo, []string{path}, "watch"),
			}
			res, err := r.enqueueAndWait(ctx, job)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				fmt.Printf("  ✗ %s: %v\n", filepath.Base(path), err)
				continue
			}
			printBatch(res.Batch)
		}
	}
}

func outputMode(w config.Watermark) string {
	switch {
	case w.Save && w.Display:
		return "save and display"
	case w.Save:
		return "save only"
	case w.Display:
		return "display only"
	default:
		return "no output"
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func newStatusCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current settings and workspace contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.status()
		},
	}
}

func (r *Root) status() error {
	w := r.cfg.Watermark
	ratio := "pattern default"
	if w.HasForceRatio() {
		ratio = fmt.Sprintf("%.2f", w.ForceRatio)
	}
	fmt.Printf("Current settings:\n")
	fmt.Printf("  Pattern:      %s (default scale %.2f)\n", w.Pattern, pattern.DefaultRatio(w.Pattern))
	fmt.Printf("  Logo alpha:   %d\n", w.LogoAlpha)
	fmt.Printf("  Force ratio:  %s\n", ratio)
	fmt.Printf("  Wallpaper:    %s\n", yesNo(w.Wallpaper))
	fmt.Printf("  Output mode:  %s\n", outputMode(w))

	ws := r.workspace("")
	scan, err := tasks.Scan(ws)
	if err != nil {
		return err
	}
	logo, err := tasks.SelectLogo(scan.Logos, "")
	switch {
	case err == nil:
		logo = filepath.Base(logo)
	case errors.Is(err, tasks.ErrAmbiguousLogo):
		names := make([]string, len(scan.Logos))
		for i, l := range scan.Logos {
			names[i] = filepath.Base(l)
		}
		logo = "several, choose with --logo: " + strings.Join(names, ", ")
	default:
		logo = "none"
	}
	viewer := r.viewerName
	if viewer == "" {
		viewer = "none"
	}

	fmt.Printf("\nWorkspace:\n")
	fmt.Printf("  Logos:        %s (%d found)\n", ws.LogoDir, len(scan.Logos))
	fmt.Printf("  Sources:      %s (%d images)\n", ws.SourceDir, len(scan.Sources))
	fmt.Printf("  Output:       %s\n", ws.OutputDir)
	fmt.Printf("  Logo:         %s\n", logo)
	fmt.Printf("  Viewer:       %s\n", viewer)
	return nil
}

func newPatternsCmd(root *Root) *cobra.Command {
	var logoSize, canvasSize, forceRatio string
	cmd := &cobra.Command{
		Use:   "patterns [pattern]",
		Short: "List placement patterns, or preview where a logo would land",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns := pattern.All()
			if len(args) == 1 {
				p, err := pattern.Parse(args[0])
				if err != nil {
					return err
				}
				patterns = []pattern.Pattern{p}
			}
			if logoSize == "" {
				listPatterns(patterns)
				return nil
			}
			lw, lh, err := parseSize(logoSize)
			if err != nil {
				return fmt.Errorf("--logo: %w", err)
			}
			cw, ch, err := parseSize(canvasSize)
			if err != nil {
				return fmt.Errorf("--canvas: %w", err)
			}
			ratio := config.Unset
			if forceRatio != "" {
				v, ok := config.ParseForceRatio(forceRatio)
				if !ok {
					root.log.Warn("invalid force ratio, using pattern default", "value", forceRatio)
				}
				ratio = v
			}
			previewPatterns(patterns, image.Pt(lw, lh), image.Pt(cw, ch), ratio)
			return nil
		},
	}
	cmd.Flags().StringVar(&logoSize, "logo", "", "logo size WIDTHxHEIGHT to preview placements for")
	cmd.Flags().StringVar(&canvasSize, "canvas", "960x540", "canvas size WIDTHxHEIGHT")
	cmd.Flags().StringVar(&forceRatio, "force-ratio", "", "scale override for the preview")
	return cmd
}

func listPatterns(patterns []pattern.Pattern) {
	fmt.Printf("%-14s %-7s %s\n", "PATTERN", "SCALE", "LOGOS")
	for _, p := range patterns {
		n := len(pattern.Coordinates(p, image.Pt(1, 1), image.Pt(100, 100)))
		fmt.Printf("%-14s %-7.2f %d\n", p, pattern.DefaultRatio(p), n)
	}
}

func previewPatterns(patterns []pattern.Pattern, logo, canvas image.Point, forceRatio float64) {
	for _, p := range patterns {
		scale := watermark.ScaleFor(p, forceRatio)
		size := watermark.ScaledSize(logo, watermark.ResizeRatio(logo, canvas, scale))
		fmt.Printf("%s: logo %dx%d on %dx%d (scale %.2f)\n", p, size.X, size.Y, canvas.X, canvas.Y, scale)
		if size.X <= 0 || size.Y <= 0 {
			fmt.Printf("  logo scales to nothing\n")
			continue
		}
		for _, pt := range pattern.Coordinates(p, size, canvas) {
			fmt.Printf("  (%d, %d)\n", pt.X, pt.Y)
		}
	}
}

func newHistoryCmd(root *Root) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent runs, or the items of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if root.store == nil {
				return fmt.Errorf("history is not available without a database")
			}
			if len(args) == 1 {
				return root.historyItems(args[0])
			}
			return root.historyRuns(limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show")
	return cmd
}

func (r *Root) historyRuns(limit int) error {
	runs, err := r.store.RecentRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Printf("No runs recorded yet\n")
		return nil
	}
	for _, run := range runs {
		fmt.Printf("%s  %-9s %-9s %s  ok=%d failed=%d  logo=%s\n",
			run.ID, run.JobType, run.Status, run.CreatedAt.Local().Format("2006-01-02 15:04"),
			run.Succeeded, run.Failed, filepath.Base(run.LogoPath))
		if run.Error != "" {
			fmt.Printf("    error: %s\n", run.Error)
		}
	}
	return nil
}

func (r *Root) historyItems(runID string) error {
	items, err := r.store.RunItems(runID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no items recorded for run %s", runID)
	}
	for _, it := range items {
		if it.Error != "" {
			fmt.Printf("  ✗ %s: %s\n", it.SourcePath, it.Error)
			continue
		}
		fmt.Printf("  ✓ %s %dx%d -> %s (%s)\n", it.SourcePath, it.Width, it.Height, it.OutputPath, it.Duration)
	}
	return nil
}

func newVersionCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("markme v%s\n", Version)
			fmt.Printf("Built with Go %s\n", runtime.Version())
		},
	}
}
