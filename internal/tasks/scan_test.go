package tasks

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"markme/internal/config"
)

func TestScanCreatesMissingFolders(t *testing.T) {
	base := t.TempDir()
	ws := WorkspaceFromConfig(config.Paths{
		BaseDir:   base,
		LogoDir:   "logos",
		SourceDir: "originalpics",
		OutputDir: "finishedpics",
	})

	res, err := Scan(ws)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(res.Created) != 3 {
		t.Fatalf("expected three created folders, got %v", res.Created)
	}
	if len(res.Logos) != 0 || len(res.Sources) != 0 {
		t.Fatalf("expected empty workspace, got %+v", res)
	}

	if err := os.WriteFile(filepath.Join(ws.SourceDir, "a.JPG"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err = Scan(ws)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if len(res.Created) != 0 || len(res.Sources) != 1 {
		t.Fatalf("expected one source and no new folders, got %+v", res)
	}
}

func TestSelectLogo(t *testing.T) {
	if _, err := SelectLogo(nil, ""); !errors.Is(err, ErrNoLogo) {
		t.Fatalf("expected ErrNoLogo, got %v", err)
	}

	one := []string{"logos/brand.png"}
	if got, err := SelectLogo(one, ""); err != nil || got != one[0] {
		t.Fatalf("expected automatic pick, got %q %v", got, err)
	}

	many := []string{"logos/brand.png", "logos/alt.jpg"}
	_, err := SelectLogo(many, "")
	if !errors.Is(err, ErrAmbiguousLogo) || !strings.Contains(err.Error(), "alt.jpg") {
		t.Fatalf("expected ambiguous error listing choices, got %v", err)
	}
	for _, choice := range []string{"alt.jpg", "alt", "logos/alt.jpg"} {
		if got, err := SelectLogo(many, choice); err != nil || got != "logos/alt.jpg" {
			t.Fatalf("choice %q: got %q %v", choice, got, err)
		}
	}
	if _, err := SelectLogo(many, "missing.png"); !errors.Is(err, ErrNoLogo) {
		t.Fatalf("expected ErrNoLogo for unknown choice, got %v", err)
	}
}
