// Package domain defines the core models shared by the VizKit engines,
// services and widgets. These types are independent of Fyne and of any
// audio capture backend.
package domain

import (
	"fmt"
	"strings"
)

// IndicatorMode selects how the radial progress indicator interprets its
// progress value.
type IndicatorMode int

// Supported indicator modes.
const (
	// ModeTimer counts down from a configured timeout to zero. Progress
	// updates from the application are ignored; the sweep angle is driven
	// by elapsed wall-clock time.
	ModeTimer IndicatorMode = iota

	// ModePercentage maps progress onto [0 .. 100]% of the sweep and
	// displays the percentage in the center of the indicator.
	ModePercentage

	// ModeFixed behaves like ModePercentage but displays the raw progress
	// value instead of a percentage.
	ModeFixed
)

// String returns the configuration name of the mode.
func (m IndicatorMode) String() string {
	switch m {
	case ModeTimer:
		return "timer"
	case ModePercentage:
		return "percentage"
	case ModeFixed:
		return "fixed"
	default:
		return fmt.Sprintf("indicator-mode(%d)", int(m))
	}
}

// Valid reports whether the mode is one of the supported modes.
func (m IndicatorMode) Valid() bool {
	return m == ModeTimer || m == ModePercentage || m == ModeFixed
}

// ParseIndicatorMode converts a configuration string into an IndicatorMode.
func ParseIndicatorMode(s string) (IndicatorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "timer":
		return ModeTimer, nil
	case "percentage":
		return ModePercentage, nil
	case "fixed":
		return ModeFixed, nil
	default:
		return 0, NewValidationError("mode", s, ErrInvalidIndicatorMode.Error())
	}
}

// SecondaryStyle selects where the secondary progress arc is painted
// relative to the primary track.
type SecondaryStyle int

// Supported secondary indicator placements.
const (
	// SecondaryInside paints the secondary arc on the inside edge of the
	// primary track.
	SecondaryInside SecondaryStyle = iota

	// SecondaryOverlay paints the secondary arc on the same track as the
	// primary indicator.
	SecondaryOverlay

	// SecondaryOutside paints the secondary arc outside the primary track.
	SecondaryOutside
)

// String returns the configuration name of the style.
func (s SecondaryStyle) String() string {
	switch s {
	case SecondaryInside:
		return "inside"
	case SecondaryOverlay:
		return "overlay"
	case SecondaryOutside:
		return "outside"
	default:
		return fmt.Sprintf("secondary-style(%d)", int(s))
	}
}

// Valid reports whether the style is one of the supported placements.
func (s SecondaryStyle) Valid() bool {
	return s == SecondaryInside || s == SecondaryOverlay || s == SecondaryOutside
}

// ParseSecondaryStyle converts a configuration string into a SecondaryStyle.
func ParseSecondaryStyle(s string) (SecondaryStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inside":
		return SecondaryInside, nil
	case "overlay":
		return SecondaryOverlay, nil
	case "outside":
		return SecondaryOutside, nil
	default:
		return 0, NewValidationError("secondary_style", s, ErrInvalidSecondaryStyle.Error())
	}
}

// Glyph identifies the status symbol overlaid on the indicator once an
// operation finishes. While a glyph is shown the sweep is forced to a
// full circle.
type Glyph int

// Supported status glyphs.
const (
	GlyphNone Glyph = iota
	GlyphSuccess
	GlyphFailure
)

// String returns a readable name for logging.
func (g Glyph) String() string {
	switch g {
	case GlyphNone:
		return "none"
	case GlyphSuccess:
		return "success"
	case GlyphFailure:
		return "failure"
	default:
		return fmt.Sprintf("glyph(%d)", int(g))
	}
}

// IndicatorFrame is the per-tick output of the progress engine: everything
// the drawing layer needs to paint one frame of the radial indicator.
type IndicatorFrame struct {
	// Angle is the primary sweep angle in degrees, [0 .. 360].
	Angle float64

	// SecondaryAngle is the secondary sweep angle in degrees, [0 .. 360].
	SecondaryAngle float64

	// Text is the formatted progress text, empty when text is hidden.
	Text string

	// Glyph is the status symbol to overlay, GlyphNone for plain progress.
	Glyph Glyph

	// Expired is set exactly once when a countdown reaches its timeout.
	Expired bool

	// Animating reports whether another tick is required to reach the
	// target state.
	Animating bool
}

// BarVariant selects how a visualizer bar is drawn and which amplitude
// floor applies to it.
type BarVariant int

// Supported bar variants.
const (
	// BarFlat draws a full-width rectangle anchored to the bottom of the
	// bucket. Amplitudes are floored at zero.
	BarFlat BarVariant = iota

	// BarRounded draws a vertical round-capped line centered in the
	// bucket. Amplitudes are floored at half the stroke width so the cap
	// is always visible.
	BarRounded
)

// String returns the configuration name of the variant.
func (v BarVariant) String() string {
	switch v {
	case BarFlat:
		return "flat"
	case BarRounded:
		return "rounded"
	default:
		return fmt.Sprintf("bar-variant(%d)", int(v))
	}
}

// ParseBarVariant converts a configuration string into a BarVariant.
func ParseBarVariant(s string) (BarVariant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat":
		return BarFlat, nil
	case "rounded":
		return BarRounded, nil
	default:
		return 0, NewValidationError("bar_variant", s, ErrInvalidBarVariant.Error())
	}
}

// BarSample is the per-tick state of a single visualizer bucket.
type BarSample struct {
	// Amplitude is the current bar height in pixels.
	Amplitude int `json:"amplitude"`

	// Peak is the current peak marker position in pixels. Zero when the
	// peak marker is disabled.
	Peak int `json:"peak"`
}

// BarFrame is the per-tick output of the visualizer service: one sample
// per bucket plus an animation flag.
type BarFrame struct {
	Bars      []BarSample `json:"bars"`
	Animating bool        `json:"animating"`
}

// Clone returns a deep copy of the frame so callers can hold on to it
// after the service reuses its internal buffers.
func (f BarFrame) Clone() BarFrame {
	out := BarFrame{Animating: f.Animating}
	if len(f.Bars) > 0 {
		out.Bars = make([]BarSample, len(f.Bars))
		copy(out.Bars, f.Bars)
	}
	return out
}

// TrackInfo describes the audio material behind a spectrum source, when
// known. File-backed sources populate it from the file's metadata tags.
type TrackInfo struct {
	Title  string
	Artist string
}
