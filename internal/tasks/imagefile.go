package tasks

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// LoadImage decodes the image at path. Format is detected from content.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

const defaultJPEGQuality = 95

// SaveImage encodes img in the format implied by the path extension.
// A non-positive jpegQuality uses the default.
func SaveImage(img image.Image, path string, jpegQuality int) error {
	if jpegQuality <= 0 {
		jpegQuality = defaultJPEGQuality
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	return nil
}
