package watermark

import (
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"

	"markme/internal/pattern"
)

// DefaultFilter is the resampling filter used to scale logos.
var DefaultFilter = imaging.CatmullRom

var filters = map[string]imaging.ResampleFilter{
	"nearest":    imaging.NearestNeighbor,
	"linear":     imaging.Linear,
	"catmullrom": imaging.CatmullRom,
	"bicubic":    imaging.CatmullRom,
	"lanczos":    imaging.Lanczos,
	"box":        imaging.Box,
}

// FilterByName resolves a resample filter name. Unknown names return
// DefaultFilter and false.
func FilterByName(name string) (imaging.ResampleFilter, bool) {
	f, ok := filters[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return DefaultFilter, false
	}
	return f, true
}

// ScaleFor returns the scale ratio for p. A positive forceRatio overrides the
// pattern default; zero or negative means unset.
func ScaleFor(p pattern.Pattern, forceRatio float64) float64 {
	if forceRatio > 0 {
		return forceRatio
	}
	return pattern.DefaultRatio(p)
}

// ResizeRatio is the factor that makes logo fit canvas on both axes, times scale.
func ResizeRatio(logo, canvas image.Point, scale float64) float64 {
	if logo.X <= 0 || logo.Y <= 0 {
		return 0
	}
	fit := math.Min(float64(canvas.X)/float64(logo.X), float64(canvas.Y)/float64(logo.Y))
	return fit * scale
}

// ScaledSize applies ratio to both logo dimensions, truncating to whole pixels.
func ScaledSize(logo image.Point, ratio float64) image.Point {
	return image.Pt(int(float64(logo.X)*ratio), int(float64(logo.Y)*ratio))
}

// RenderOverlay returns a transparent canvas-sized image with the logo, scaled
// for pattern p, pasted at every pattern coordinate. Pastes overwrite each
// other and are clipped to the canvas. A logo that scales down to nothing
// leaves the overlay empty.
func RenderOverlay(logo image.Image, canvas image.Point, p pattern.Pattern, forceRatio float64, filter imaging.ResampleFilter) *image.NRGBA {
	overlay := image.NewNRGBA(image.Rect(0, 0, canvas.X, canvas.Y))

	logoSize := logo.Bounds().Size()
	ratio := ResizeRatio(logoSize, canvas, ScaleFor(p, forceRatio))
	size := ScaledSize(logoSize, ratio)
	if size.X <= 0 || size.Y <= 0 {
		return overlay
	}

	scaled := imaging.Resize(logo, size.X, size.Y, filter)
	for _, pt := range pattern.Coordinates(p, size, canvas) {
		overlay = imaging.Paste(overlay, scaled, pt)
	}
	return overlay
}
