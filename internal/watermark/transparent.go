// Package watermark prepares logos and composites them onto photos.
package watermark

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

const (
	// DefaultAlpha is the opacity given to kept logo pixels.
	DefaultAlpha uint8 = 50

	// WhiteThreshold is the red level at which a logo pixel counts as background.
	// Only the red channel is tested, so bright reds and yellows are keyed out too.
	WhiteThreshold uint8 = 220
)

// MakeTransparent keys near-white logo pixels to transparent white and gives
// every other pixel the uniform opacity alpha. The result is a new NRGBA image
// anchored at the origin.
//
// Applying it twice is not a no-op: kept pixels end up with the last alpha.
func MakeTransparent(img image.Image, alpha uint8) *image.NRGBA {
	out := ToNRGBA(img)
	for i := 0; i+3 < len(out.Pix); i += 4 {
		px := out.Pix[i : i+4 : i+4]
		if px[0] >= WhiteThreshold {
			px[0], px[1], px[2], px[3] = 255, 255, 255, 0
			continue
		}
		px[3] = alpha
	}
	return out
}

// ToNRGBA returns a copy of img as non-premultiplied RGBA with bounds starting
// at the origin. Opaque source models come out with alpha 255.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()*4], src.Pix[i:i+b.Dx()*4])
		}
		return out
	}
	xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)
	return out
}
