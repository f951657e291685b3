package tasks

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/disintegration/imaging"

	"markme/internal/logging"
)

// Viewer shows an image to the user.
type Viewer interface {
	Show(ctx context.Context, img image.Image, title string) error
}

// ErrNoViewer means no image viewer could be found on this system.
var ErrNoViewer = errors.New("no image viewer available")

// viewerCandidates are tried in order when no viewer is configured.
var viewerCandidates = []string{"xdg-open", "open", "display", "eog", "feh"}

// ExternalViewer writes the image to a temporary PNG and hands it to a
// desktop viewer program. The viewer runs detached.
type ExternalViewer struct {
	Command string
	TempDir string
	log     *slog.Logger
}

// NewExternalViewer picks the first available viewer program. preferred, when
// non-empty, is tried before the built-in candidates.
func NewExternalViewer(logger *slog.Logger, preferred string) *ExternalViewer {
	if logger == nil {
		logger = slog.Default()
	}
	v := &ExternalViewer{log: logger}
	candidates := viewerCandidates
	if preferred != "" {
		candidates = append([]string{preferred}, viewerCandidates...)
	}
	for _, name := range candidates {
		path, err := exec.LookPath(name)
		logging.LogToolStatus(logger, name, err == nil, path, err)
		if err == nil {
			v.Command = path
			break
		}
	}
	return v
}

// Available reports whether a viewer program was found.
func (v *ExternalViewer) Available() bool {
	return v != nil && v.Command != ""
}

func (v *ExternalViewer) Show(ctx context.Context, img image.Image, title string) error {
	if !v.Available() {
		return ErrNoViewer
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.CreateTemp(v.TempDir, "markme-"+sanitize(title)+"-*.png")
	if err != nil {
		return fmt.Errorf("create preview file: %w", err)
	}
	path := f.Name()
	err = imaging.Encode(f, img, imaging.PNG)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("write preview: %w", err)
	}

	cmd := exec.Command(v.Command, path)
	if err := cmd.Start(); err != nil {
		os.Remove(path)
		return fmt.Errorf("start viewer: %w", err)
	}
	v.log.Debug("viewer started", "command", v.Command, "file", path)
	go cmd.Wait()
	return nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
