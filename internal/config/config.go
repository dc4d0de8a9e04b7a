// Package config loads and persists VizKit settings as a YAML file in
// the user's configuration directory.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"vizkit/internal/domain"
	"vizkit/internal/engine"
)

const (
	appDirName   = "vizkit"
	settingsFile = "settings.yaml"
)

// Settings is the root of the configuration file.
type Settings struct {
	Indicator  IndicatorSettings  `yaml:"indicator"`
	Visualizer VisualizerSettings `yaml:"visualizer"`
	Web        WebSettings        `yaml:"web"`
}

// IndicatorSettings configures the radial progress indicator.
type IndicatorSettings struct {
	Mode                 string  `yaml:"mode"` // timer, percentage or fixed
	MaxProgress          int     `yaml:"max_progress"`
	TimeoutMS            int     `yaml:"timeout_ms"`
	InitialProgress      int     `yaml:"initial_progress"`
	SecondaryStyle       string  `yaml:"secondary_style"` // inside, overlay or outside
	SmoothAnimation      bool    `yaml:"smooth_animation"`
	AnimationTickDegrees float64 `yaml:"animation_tick_degrees"`
	ShowProgressText     bool    `yaml:"show_progress_text"`

	Thickness          int    `yaml:"thickness"`
	SecondaryThickness int    `yaml:"secondary_thickness"`
	IndicatorColor     string `yaml:"indicator_color"`
	SecondaryColor     string `yaml:"secondary_color"`
	TrackColor         string `yaml:"track_color"`
	TextColor          string `yaml:"text_color"`
}

// VisualizerSettings configures the audio visualizer.
type VisualizerSettings struct {
	Buckets         int     `yaml:"buckets"`
	BucketStride    int     `yaml:"bucket_stride"`
	SmoothingFactor float64 `yaml:"smoothing_factor"`
	BarVariant      string  `yaml:"bar_variant"` // flat or rounded
	StrokeWidth     int     `yaml:"stroke_width"`
	ShowPeakBar     bool    `yaml:"show_peak_bar"`
	PeakBarHeight   int     `yaml:"peak_bar_height"`
	PeakBarSpace    int     `yaml:"peak_bar_space"`
	BarColor        string  `yaml:"bar_color"`
	PeakColor       string  `yaml:"peak_color"`
}

// WebSettings configures the optional frame-streaming web server.
type WebSettings struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the settings used when no file exists yet.
func Default() Settings {
	return Settings{
		Indicator: IndicatorSettings{
			Mode:                 domain.ModeTimer.String(),
			MaxProgress:          engine.DefaultMaxProgress,
			TimeoutMS:            int(engine.DefaultTimeout.Milliseconds()),
			SecondaryStyle:       domain.SecondaryOutside.String(),
			AnimationTickDegrees: engine.DefaultTickDegrees,
			ShowProgressText:     true,
			Thickness:            8,
			SecondaryThickness:   4,
			IndicatorColor:       "#FFFFFF",
			SecondaryColor:       "#444444",
			TrackColor:           "#202020",
			TextColor:            "#FFFFFF",
		},
		Visualizer: VisualizerSettings{
			Buckets:         32,
			BucketStride:    engine.DefaultBucketStride,
			SmoothingFactor: engine.DefaultSmoothingFactor,
			BarVariant:      domain.BarFlat.String(),
			StrokeWidth:     6,
			ShowPeakBar:     true,
			PeakBarHeight:   2,
			PeakBarSpace:    2,
			BarColor:        "#3DDC84",
			PeakColor:       "#FFFFFF",
		},
		Web: WebSettings{
			Enabled: false,
			Addr:    "localhost:8090",
		},
	}
}

// Path returns the location of the settings file inside the user's
// configuration directory.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, appDirName, settingsFile), nil
}

// Load reads the settings file from the user's configuration directory.
// A missing file yields the defaults without error.
func Load() (Settings, error) {
	path, err := Path()
	if err != nil {
		return Default(), err
	}
	return LoadFrom(path)
}

// LoadFrom reads a settings file from an explicit path. A missing file
// yields the defaults without error; a malformed or invalid file is an
// error.
func LoadFrom(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("read settings: %w", err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Default(), err
	}
	return s, nil
}

// Save writes the settings to the user's configuration directory.
func (s Settings) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return s.SaveTo(path)
}

// SaveTo writes the settings to an explicit path, creating parent
// directories as needed.
func (s Settings) SaveTo(path string) error {
	if err := s.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Validate rejects the first invalid value it finds. Unsupported enum
// names and out-of-range numerics fail fast rather than falling back.
func (s Settings) Validate() error {
	if _, err := domain.ParseIndicatorMode(s.Indicator.Mode); err != nil {
		return err
	}
	if _, err := domain.ParseSecondaryStyle(s.Indicator.SecondaryStyle); err != nil {
		return err
	}
	if s.Indicator.MaxProgress <= 0 {
		return domain.NewValidationError("max_progress", s.Indicator.MaxProgress, domain.ErrInvalidMaxProgress.Error())
	}
	if s.Indicator.TimeoutMS <= 0 {
		return domain.NewValidationError("timeout_ms", s.Indicator.TimeoutMS, domain.ErrInvalidTimeout.Error())
	}
	if s.Indicator.AnimationTickDegrees <= 0 {
		return domain.NewValidationError("animation_tick_degrees", s.Indicator.AnimationTickDegrees, "tick degrees must be positive")
	}

	if _, err := domain.ParseBarVariant(s.Visualizer.BarVariant); err != nil {
		return err
	}
	if s.Visualizer.Buckets <= 0 {
		return domain.NewValidationError("buckets", s.Visualizer.Buckets, "bucket count must be positive")
	}
	if s.Visualizer.SmoothingFactor < 0 || s.Visualizer.SmoothingFactor > 1 {
		return domain.NewValidationError("smoothing_factor", s.Visualizer.SmoothingFactor, domain.ErrInvalidSmoothingFactor.Error())
	}
	if s.Visualizer.BucketStride < engine.MinBucketStride ||
		s.Visualizer.BucketStride > engine.MaxBucketStride ||
		s.Visualizer.BucketStride%2 != 0 {
		return domain.NewValidationError("bucket_stride", s.Visualizer.BucketStride, domain.ErrInvalidBucketStride.Error())
	}

	for field, value := range map[string]string{
		"indicator_color": s.Indicator.IndicatorColor,
		"secondary_color": s.Indicator.SecondaryColor,
		"track_color":     s.Indicator.TrackColor,
		"text_color":      s.Indicator.TextColor,
		"bar_color":       s.Visualizer.BarColor,
		"peak_color":      s.Visualizer.PeakColor,
	} {
		if _, err := ParseColor(value); err != nil {
			return domain.NewValidationError(field, value, err.Error())
		}
	}

	if s.Web.Enabled && s.Web.Addr == "" {
		return domain.NewValidationError("web.addr", s.Web.Addr, "address required when the web server is enabled")
	}
	return nil
}

// Timeout returns the indicator timeout as a duration.
func (s IndicatorSettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// ParseColor converts a "#RRGGBB" or "#RRGGBBAA" hex string into a color.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", s)
	}

	v, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}

	if len(hex) == 6 {
		return color.NRGBA{
			R: uint8(v >> 16),
			G: uint8(v >> 8),
			B: uint8(v),
			A: 0xFF,
		}, nil
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}
