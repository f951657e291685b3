package tasks

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"markme/internal/config"
	"markme/internal/fsutil"
)

var (
	// ErrNoLogo means there is no logo to stamp with.
	ErrNoLogo = errors.New("no logo selected")
	// ErrAmbiguousLogo means several logos exist and none was chosen.
	ErrAmbiguousLogo = errors.New("several logos available, choose one")
	// ErrNoSources means the source folder holds no supported images.
	ErrNoSources = errors.New("no source images found")
)

// Workspace names the three folders a batch works with.
type Workspace struct {
	LogoDir   string
	SourceDir string
	OutputDir string
}

// WorkspaceFromConfig resolves the configured folders against the base directory.
func WorkspaceFromConfig(p config.Paths) Workspace {
	return Workspace{
		LogoDir:   p.WorkspaceDir(p.LogoDir),
		SourceDir: p.WorkspaceDir(p.SourceDir),
		OutputDir: p.WorkspaceDir(p.OutputDir),
	}
}

// ScanResult captures detected assets.
type ScanResult struct {
	Logos   []string
	Sources []string
	Created []string // folders that were missing and have been created
}

// Scan creates missing workspace folders and lists logos and source images.
func Scan(ws Workspace) (ScanResult, error) {
	created, err := fsutil.EnsureDirs(ws.LogoDir, ws.SourceDir, ws.OutputDir)
	if err != nil {
		return ScanResult{}, err
	}
	logos, err := fsutil.ListImages(ws.LogoDir)
	if err != nil {
		return ScanResult{}, fmt.Errorf("list logos: %w", err)
	}
	sources, err := fsutil.ListImages(ws.SourceDir)
	if err != nil {
		return ScanResult{}, fmt.Errorf("list sources: %w", err)
	}
	return ScanResult{Logos: logos, Sources: sources, Created: created}, nil
}

// SelectLogo picks the logo to use. choice may be a path, a file name inside
// the logo folder, or empty. With no choice a single logo is picked
// automatically and several logos are an ErrAmbiguousLogo.
func SelectLogo(logos []string, choice string) (string, error) {
	if choice != "" {
		for _, l := range logos {
			if l == choice || filepath.Base(l) == choice || fsutil.Stem(l) == choice {
				return l, nil
			}
		}
		if p := fsutil.FirstExisting(choice); p != "" && fsutil.IsImageFile(p) {
			return p, nil
		}
		return "", fmt.Errorf("%w: %s not found", ErrNoLogo, choice)
	}
	switch len(logos) {
	case 0:
		return "", ErrNoLogo
	case 1:
		return logos[0], nil
	default:
		names := make([]string, len(logos))
		for i, l := range logos {
			names[i] = filepath.Base(l)
		}
		return "", fmt.Errorf("%w: %s", ErrAmbiguousLogo, strings.Join(names, ", "))
	}
}
