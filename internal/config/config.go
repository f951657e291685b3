package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"markme/internal/pattern"
)

const (
	defaultConfigPath = "~/.config/markme/config.json"

	// DefaultLogoAlpha is the opacity of kept logo pixels (0-255).
	DefaultLogoAlpha = 50

	// MinForceRatio and MaxForceRatio bound an explicit logo scale override.
	MinForceRatio = 0.10
	MaxForceRatio = 1.00

	// Unset marks a force ratio that defers to the pattern default.
	Unset = -1.0
)

// Config holds user-editable settings.
type Config struct {
	Watermark Watermark `json:"watermark"`
	Paths     Paths     `json:"paths"`
	Output    Output    `json:"output"`
	Logging   Logging   `json:"logging"`
}

// Watermark captures the options for one batch run.
type Watermark struct {
	Pattern    pattern.Pattern `json:"pattern"`
	LogoAlpha  int             `json:"logo_alpha"`  // 0 (invisible) .. 255 (opaque)
	Wallpaper  bool            `json:"wallpaper"`   // also render the logo-only wallpaper
	Display    bool            `json:"display"`     // open results in a viewer
	Save       bool            `json:"save"`        // write results to the output folder
	ForceRatio float64         `json:"force_ratio"` // 0.10..1.00, or -1 for the pattern default
}

// Paths configures the workspace folders.
type Paths struct {
	BaseDir      string `json:"base_dir"`
	LogoDir      string `json:"logo_dir"`
	SourceDir    string `json:"source_dir"`
	OutputDir    string `json:"output_dir"`
	DatabasePath string `json:"database_path"`
}

// Output controls how results are written.
type Output struct {
	Suffix          string `json:"suffix"`
	WallpaperSuffix string `json:"wallpaper_suffix"`
	WallpaperWidth  int    `json:"wallpaper_width"`
	WallpaperHeight int    `json:"wallpaper_height"`
	JPEGQuality     int    `json:"jpeg_quality"`
	Resample        string `json:"resample"` // lanczos, catmullrom, linear, nearest
}

// Logging controls logging verbosity and destinations.
type Logging struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Format     string `json:"format"`      // text, json
	FileOutput bool   `json:"file_output"` // Enable file logging
	LogDir     string `json:"log_dir"`     // Directory for log files
}

// Path returns the configuration file location, honoring MARKME_CONFIG.
func Path() (string, error) {
	configPath := os.Getenv("MARKME_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	return expandUser(configPath)
}

// Load reads configuration from disk, falling back to sensible defaults.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	cfg.Validate()

	return cfg, nil
}

// Save writes cfg to the configuration file, creating its directory.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Watermark: DefaultWatermark(),
		Paths: Paths{
			BaseDir:      ".",
			LogoDir:      "logos",
			SourceDir:    "originalpics",
			OutputDir:    "finishedpics",
			DatabasePath: filepath.Join(os.TempDir(), "markme.db"),
		},
		Output: Output{
			Suffix:          "-m",
			WallpaperSuffix: "-w",
			WallpaperWidth:  960,
			WallpaperHeight: 540,
			JPEGQuality:     95,
			Resample:        "catmullrom",
		},
		Logging: Logging{
			Level:      "info",
			Format:     "text",
			FileOutput: false,
			LogDir:     "./logs",
		},
	}
}

// DefaultWatermark returns the standard batch options: Top-Left, alpha 50,
// save only, no wallpaper, pattern-default scale.
func DefaultWatermark() Watermark {
	return Watermark{
		Pattern:    pattern.Default,
		LogoAlpha:  DefaultLogoAlpha,
		Save:       true,
		ForceRatio: Unset,
	}
}

// Validate resets out-of-range values to their defaults and returns a note
// for each value it changed.
func (c *Config) Validate() []string {
	var notes []string
	def := Default()

	if !c.Watermark.Pattern.Valid() {
		notes = append(notes, fmt.Sprintf("pattern %q unknown, using %s", c.Watermark.Pattern, def.Watermark.Pattern))
		c.Watermark.Pattern = def.Watermark.Pattern
	}
	if c.Watermark.LogoAlpha < 0 || c.Watermark.LogoAlpha > 255 {
		notes = append(notes, fmt.Sprintf("logo_alpha %d out of range, using %d", c.Watermark.LogoAlpha, DefaultLogoAlpha))
		c.Watermark.LogoAlpha = DefaultLogoAlpha
	}
	if c.Watermark.ForceRatio != Unset && !validForceRatio(c.Watermark.ForceRatio) {
		if c.Watermark.ForceRatio != 0 {
			notes = append(notes, fmt.Sprintf("force_ratio %v out of range, using pattern default", c.Watermark.ForceRatio))
		}
		c.Watermark.ForceRatio = Unset
	}
	if c.Output.WallpaperWidth <= 0 || c.Output.WallpaperHeight <= 0 {
		notes = append(notes, "wallpaper size invalid, using 960x540")
		c.Output.WallpaperWidth = def.Output.WallpaperWidth
		c.Output.WallpaperHeight = def.Output.WallpaperHeight
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		notes = append(notes, fmt.Sprintf("jpeg_quality %d out of range, using %d", c.Output.JPEGQuality, def.Output.JPEGQuality))
		c.Output.JPEGQuality = def.Output.JPEGQuality
	}
	if c.Output.Suffix == "" {
		c.Output.Suffix = def.Output.Suffix
	}
	if c.Output.WallpaperSuffix == "" {
		c.Output.WallpaperSuffix = def.Output.WallpaperSuffix
	}
	return notes
}

// HasForceRatio reports whether an explicit scale override is set.
func (w Watermark) HasForceRatio() bool {
	return validForceRatio(w.ForceRatio)
}

func validForceRatio(v float64) bool {
	return v >= MinForceRatio && v <= MaxForceRatio
}

// ParseLogoAlpha parses an opacity in 0-255. Malformed or out-of-range input
// yields DefaultLogoAlpha and ok=false.
func ParseLogoAlpha(s string) (alpha int, ok bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 || v > 255 {
		return DefaultLogoAlpha, false
	}
	return v, true
}

// ParseAlphaLevel parses an opacity on the 0 (very light) to 10 (opaque)
// scale and converts it to 0-255. Malformed input yields DefaultLogoAlpha.
func ParseAlphaLevel(s string) (alpha int, ok bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || v > 10 {
		return DefaultLogoAlpha, false
	}
	return int(v * 25.5), true
}

// ParseForceRatio parses a scale override given either as a fraction
// (0.10-1.00) or as a percentage (10-100). "unset", "default" and "" clear
// the override. Anything else yields Unset and ok=false.
func ParseForceRatio(s string) (ratio float64, ok bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	switch strings.ToLower(s) {
	case "", "unset", "default", "-1":
		return Unset, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Unset, false
	}
	if validForceRatio(v) {
		return v, true
	}
	if v >= 10 && v <= 100 {
		return v / 100, true
	}
	return Unset, false
}

// Get returns the string form of a dotted configuration key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "watermark.pattern", "pattern":
		return string(c.Watermark.Pattern), nil
	case "watermark.logo_alpha", "logo_alpha":
		return strconv.Itoa(c.Watermark.LogoAlpha), nil
	case "watermark.wallpaper", "wallpaper":
		return strconv.FormatBool(c.Watermark.Wallpaper), nil
	case "watermark.display", "display":
		return strconv.FormatBool(c.Watermark.Display), nil
	case "watermark.save", "save":
		return strconv.FormatBool(c.Watermark.Save), nil
	case "watermark.force_ratio", "force_ratio":
		if !c.Watermark.HasForceRatio() {
			return "unset", nil
		}
		return strconv.FormatFloat(c.Watermark.ForceRatio, 'f', 2, 64), nil
	case "paths.base_dir":
		return c.Paths.BaseDir, nil
	case "paths.logo_dir":
		return c.Paths.LogoDir, nil
	case "paths.source_dir":
		return c.Paths.SourceDir, nil
	case "paths.output_dir":
		return c.Paths.OutputDir, nil
	case "paths.database_path":
		return c.Paths.DatabasePath, nil
	case "output.jpeg_quality":
		return strconv.Itoa(c.Output.JPEGQuality), nil
	case "output.resample":
		return c.Output.Resample, nil
	case "logging.level":
		return c.Logging.Level, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Set updates a dotted configuration key from its string form. Numeric
// watermark options that fail to parse fall back to their defaults; the
// returned note says so.
func (c *Config) Set(key, value string) (note string, err error) {
	switch key {
	case "watermark.pattern", "pattern":
		p, err := pattern.Parse(value)
		if err != nil {
			return "", err
		}
		c.Watermark.Pattern = p
	case "watermark.logo_alpha", "logo_alpha":
		v, ok := ParseLogoAlpha(value)
		if !ok {
			note = fmt.Sprintf("invalid logo_alpha %q, using default %d", value, v)
		}
		c.Watermark.LogoAlpha = v
	case "watermark.alpha_level", "alpha_level":
		v, ok := ParseAlphaLevel(value)
		if !ok {
			note = fmt.Sprintf("invalid alpha_level %q, using default alpha %d", value, v)
		}
		c.Watermark.LogoAlpha = v
	case "watermark.force_ratio", "force_ratio":
		v, ok := ParseForceRatio(value)
		if !ok {
			note = fmt.Sprintf("invalid force_ratio %q, using pattern default", value)
		}
		c.Watermark.ForceRatio = v
	case "watermark.wallpaper", "wallpaper":
		return "", setBool(&c.Watermark.Wallpaper, value)
	case "watermark.display", "display":
		return "", setBool(&c.Watermark.Display, value)
	case "watermark.save", "save":
		return "", setBool(&c.Watermark.Save, value)
	case "paths.base_dir":
		c.Paths.BaseDir = value
	case "paths.logo_dir":
		c.Paths.LogoDir = value
	case "paths.source_dir":
		c.Paths.SourceDir = value
	case "paths.output_dir":
		c.Paths.OutputDir = value
	case "paths.database_path":
		c.Paths.DatabasePath = value
	case "output.jpeg_quality":
		v, err := strconv.Atoi(value)
		if err != nil || v < 1 || v > 100 {
			v = Default().Output.JPEGQuality
			note = fmt.Sprintf("invalid jpeg_quality %q, using default %d", value, v)
		}
		c.Output.JPEGQuality = v
	case "output.resample":
		c.Output.Resample = strings.ToLower(value)
	case "logging.level":
		c.Logging.Level = value
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	return note, nil
}

func setBool(dst *bool, value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "y", "yes", "true", "1", "on":
		*dst = true
	case "n", "no", "false", "0", "off":
		*dst = false
	default:
		return fmt.Errorf("expected yes/no, got %q", value)
	}
	return nil
}

// WorkspaceDir joins a configured folder to the base directory.
func (p Paths) WorkspaceDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(p.BaseDir, dir)
}

func expandUser(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if path == "~" {
		return home, nil
	}

	return filepath.Join(home, path[2:]), nil
}
