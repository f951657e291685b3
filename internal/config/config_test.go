package config

import (
	"os"
	"path/filepath"
	"testing"

	"markme/internal/pattern"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Setenv("MARKME_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	w := cfg.Watermark
	if w.Pattern != pattern.TopLeft || w.LogoAlpha != 50 || w.Wallpaper || w.Display || !w.Save || w.HasForceRatio() {
		t.Fatalf("unexpected default watermark options: %+v", w)
	}
	if cfg.Output.WallpaperWidth != 960 || cfg.Output.WallpaperHeight != 540 {
		t.Fatalf("unexpected wallpaper size %dx%d", cfg.Output.WallpaperWidth, cfg.Output.WallpaperHeight)
	}
	if cfg.Paths.LogoDir != "logos" || cfg.Paths.SourceDir != "originalpics" || cfg.Paths.OutputDir != "finishedpics" {
		t.Fatalf("unexpected folders: %+v", cfg.Paths)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	t.Setenv("MARKME_CONFIG", path)

	cfg := Default()
	cfg.Watermark.Pattern = pattern.Ring4x4
	cfg.Watermark.ForceRatio = 0.4
	cfg.Watermark.Wallpaper = true
	if err := Save(cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Watermark.Pattern != pattern.Ring4x4 || loaded.Watermark.ForceRatio != 0.4 || !loaded.Watermark.Wallpaper {
		t.Fatalf("round trip lost values: %+v", loaded.Watermark)
	}
}

func TestLoadNormalizesInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("MARKME_CONFIG", path)
	data := `{"watermark":{"pattern":"Spiral","logo_alpha":900,"force_ratio":3,"save":true},"output":{"jpeg_quality":0}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Watermark.Pattern != pattern.TopLeft {
		t.Fatalf("expected default pattern, got %s", cfg.Watermark.Pattern)
	}
	if cfg.Watermark.LogoAlpha != DefaultLogoAlpha {
		t.Fatalf("expected default alpha, got %d", cfg.Watermark.LogoAlpha)
	}
	if cfg.Watermark.ForceRatio != Unset {
		t.Fatalf("expected unset force ratio, got %v", cfg.Watermark.ForceRatio)
	}
	if cfg.Output.JPEGQuality != 95 {
		t.Fatalf("expected default jpeg quality, got %d", cfg.Output.JPEGQuality)
	}
}

func TestLoadRejectsBrokenJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("MARKME_CONFIG", path)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestParseLogoAlpha(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"0", 0, true},
		{" 255 ", 255, true},
		{"128", 128, true},
		{"256", DefaultLogoAlpha, false},
		{"-3", DefaultLogoAlpha, false},
		{"lots", DefaultLogoAlpha, false},
	}
	for _, tc := range cases {
		got, ok := ParseLogoAlpha(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseLogoAlpha(%q) = %d,%v; want %d,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseAlphaLevel(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"10", 255, true},
		{"2", 51, true},
		{"0", 0, true},
		{"11", DefaultLogoAlpha, false},
		{"x", DefaultLogoAlpha, false},
	}
	for _, tc := range cases {
		got, ok := ParseAlphaLevel(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseAlphaLevel(%q) = %d,%v; want %d,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseForceRatio(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"0.5", 0.5, true},
		{"0.10", 0.10, true},
		{"1", 1, true},
		{"50", 0.5, true},
		{"100%", 1, true},
		{"unset", Unset, true},
		{"", Unset, true},
		{"0.05", Unset, false},
		{"5", Unset, false},
		{"150", Unset, false},
		{"big", Unset, false},
	}
	for _, tc := range cases {
		got, ok := ParseForceRatio(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseForceRatio(%q) = %v,%v; want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSetAndGet(t *testing.T) {
	cfg := Default()

	if _, err := cfg.Set("pattern", "corners"); err != nil {
		t.Fatalf("set pattern: %v", err)
	}
	if v, _ := cfg.Get("watermark.pattern"); v != "Corners" {
		t.Fatalf("expected Corners, got %s", v)
	}

	note, err := cfg.Set("logo_alpha", "abc")
	if err != nil || note == "" {
		t.Fatalf("expected fallback note without error, got %q, %v", note, err)
	}
	if cfg.Watermark.LogoAlpha != DefaultLogoAlpha {
		t.Fatalf("expected default alpha after malformed input, got %d", cfg.Watermark.LogoAlpha)
	}

	if _, err := cfg.Set("force_ratio", "40"); err != nil {
		t.Fatalf("set force_ratio: %v", err)
	}
	if v, _ := cfg.Get("force_ratio"); v != "0.40" {
		t.Fatalf("expected 0.40, got %s", v)
	}

	if _, err := cfg.Set("wallpaper", "yes"); err != nil || !cfg.Watermark.Wallpaper {
		t.Fatalf("expected wallpaper on, err=%v", err)
	}
	if _, err := cfg.Set("wallpaper", "maybe"); err == nil {
		t.Fatalf("expected error for bad boolean")
	}
	if _, err := cfg.Set("pattern", "zigzag"); err == nil {
		t.Fatalf("expected error for unknown pattern")
	}
	if _, err := cfg.Set("nope", "1"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestWorkspaceDir(t *testing.T) {
	p := Paths{BaseDir: "/data/work"}
	if got := p.WorkspaceDir("logos"); got != filepath.Join("/data/work", "logos") {
		t.Fatalf("unexpected dir %s", got)
	}
	if got := p.WorkspaceDir("/abs/out"); got != "/abs/out" {
		t.Fatalf("absolute dirs must be kept, got %s", got)
	}
}
