package watermark

import (
	"image"
	"math"
)

// Composite blends overlay onto base with source-over alpha compositing. The
// overlay's origin is aligned with the base's top-left corner. When base has
// no transparency the result is returned fully opaque.
func Composite(base, overlay image.Image) *image.NRGBA {
	dst := ToNRGBA(base)
	src := ToNRGBA(overlay)

	r := dst.Bounds().Intersect(src.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := dst.PixOffset(x, y)
			j := src.PixOffset(x, y)
			over(src.Pix[j:j+4:j+4], dst.Pix[i:i+4:i+4])
		}
	}

	if IsOpaque(base) {
		for i := 3; i < len(dst.Pix); i += 4 {
			dst.Pix[i] = 0xff
		}
	}
	return dst
}

// IsOpaque reports whether img carries no transparency, either because its
// color model has no alpha or because every pixel is fully opaque.
func IsOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}

// over writes s over d in place; both are non-premultiplied RGBA.
func over(s, d []uint8) {
	switch s[3] {
	case 0:
		return
	case 0xff:
		copy(d, s)
		return
	}
	sa := float64(s[3]) / 255
	da := float64(d[3]) / 255
	outA := sa + da*(1-sa)
	for c := 0; c < 3; c++ {
		v := (float64(s[c])*sa + float64(d[c])*da*(1-sa)) / outA
		d[c] = clamp8(v)
	}
	d[3] = clamp8(outA * 255)
}

func clamp8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
