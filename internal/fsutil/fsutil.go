package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".bmp":  {},
	".gif":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
}

// decodeOnlyExts can be read but not encoded; outputs fall back to PNG.
var decodeOnlyExts = map[string]struct{}{
	".webp": {},
}

// ListImages returns the supported images directly inside dir, sorted by name.
// Subdirectories are not descended into.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if IsImageFile(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// IsImageFile checks the extension case-insensitively.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, isImage := imageExts[ext]
	return isImage
}

// FirstExisting returns the first path that exists.
func FirstExisting(paths ...string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// EnsureDirs creates any missing directories and returns the ones it created.
func EnsureDirs(dirs ...string) ([]string, error) {
	var created []string
	for _, d := range dirs {
		if _, err := os.Stat(d); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return created, err
		}
		if err := os.MkdirAll(d, 0o755); err != nil {
			return created, fmt.Errorf("create %s: %w", d, err)
		}
		created = append(created, d)
	}
	return created, nil
}

// Stem returns the file name without directory and final extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OutputName maps a source file name to "<stem><suffix><ext>".
// Sources in a decode-only format get a .png extension.
func OutputName(path, suffix string) string {
	ext := filepath.Ext(path)
	if _, ok := decodeOnlyExts[strings.ToLower(ext)]; ok {
		ext = ".png"
	}
	return Stem(path) + suffix + ext
}

// WallpaperName maps a logo file name to "<stem><suffix>.png".
func WallpaperName(logoPath, suffix string) string {
	return Stem(logoPath) + suffix + ".png"
}
