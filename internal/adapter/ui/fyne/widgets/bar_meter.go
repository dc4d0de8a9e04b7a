package widgets

import (
	"image"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"vizkit/internal/domain"
)

const (
	barMeterPadding = 8
	barMinGap       = 2
)

// BarMeterStyle holds the visual configuration of a bar meter.
type BarMeterStyle struct {
	Variant       domain.BarVariant
	StrokeWidth   int
	ShowPeak      bool
	PeakBarHeight int

	BarColor   color.Color
	PeakColor  color.Color
	Background color.Color
}

// DefaultBarMeterStyle returns the stock look of the meter.
func DefaultBarMeterStyle() BarMeterStyle {
	return BarMeterStyle{
		Variant:       domain.BarFlat,
		StrokeWidth:   6,
		ShowPeak:      true,
		PeakBarHeight: 2,
		BarColor:      color.NRGBA{R: 0x3D, G: 0xDC, B: 0x84, A: 0xFF},
		PeakColor:     color.White,
		Background:    color.Black,
	}
}

// BarMeter draws one animated bar per bucket from the frames the
// visualizer service delivers. Flat bars are bottom-anchored rectangles
// with an optional peak marker riding above recent maxima; rounded bars
// are vertically centered round-capped strokes.
type BarMeter struct {
	widget.BaseWidget

	style  BarMeterStyle
	raster *canvas.Raster

	mu    sync.RWMutex
	frame domain.BarFrame

	// onHeight reports the drawable height so amplitudes can be scaled
	// to the actual layout.
	onHeight   func(h int)
	lastHeight int

	draw paint
}

// NewBarMeter creates a bar meter with the given style. The onHeight
// callback, if non-nil, receives the drawable height whenever the
// layout changes.
func NewBarMeter(style BarMeterStyle, onHeight func(h int)) *BarMeter {
	m := &BarMeter{style: style, onHeight: onHeight}
	m.raster = canvas.NewRaster(m.render)
	m.ExtendBaseWidget(m)
	return m
}

// CreateRenderer implements fyne.Widget.
func (m *BarMeter) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(m.raster)
}

// MinSize returns the minimum size of the meter.
func (m *BarMeter) MinSize() fyne.Size {
	return fyne.NewSize(160, 80)
}

// SetFrame updates the drawn state and schedules a repaint. Safe to
// call from the service tick goroutine.
func (m *BarMeter) SetFrame(frame domain.BarFrame) {
	m.mu.Lock()
	m.frame = frame
	m.mu.Unlock()

	m.raster.Refresh()
}

// render draws the bars for the current frame.
func (m *BarMeter) render(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	m.draw.FillBackground(img, m.style.Background)

	if w == 0 || h == 0 {
		return img
	}

	drawable := h - 2*barMeterPadding
	if drawable <= 0 {
		return img
	}
	if drawable != m.lastHeight {
		m.lastHeight = drawable
		if m.onHeight != nil {
			m.onHeight(drawable)
		}
	}

	m.mu.RLock()
	frame := m.frame
	m.mu.RUnlock()

	buckets := len(frame.Bars)
	if buckets == 0 {
		return img
	}

	effectiveW := w - 2*barMeterPadding
	barWidth := (effectiveW - (buckets-1)*barMinGap) / buckets
	if barWidth < 2 {
		barWidth = 2
	}
	gap := barMinGap
	if buckets > 1 {
		if g := (effectiveW - buckets*barWidth) / (buckets - 1); g > gap {
			gap = g
		}
	}
	usedW := buckets*barWidth + (buckets-1)*gap
	startX := barMeterPadding + (effectiveW-usedW)/2
	baseline := h - barMeterPadding

	for i, bar := range frame.Bars {
		x := startX + i*(barWidth+gap)

		switch m.style.Variant {
		case domain.BarRounded:
			m.drawRounded(img, x, barWidth, h, bar.Amplitude)
		default:
			m.drawFlat(img, x, barWidth, baseline, bar)
		}
	}

	return img
}

// drawFlat draws a bottom-anchored rectangle plus the peak marker.
func (m *BarMeter) drawFlat(img *image.RGBA, x, barWidth, baseline int, bar domain.BarSample) {
	if bar.Amplitude > 0 {
		m.draw.FillRect(img, x, baseline-bar.Amplitude, x+barWidth, baseline, m.style.BarColor)
	}

	if m.style.ShowPeak && bar.Peak > 0 {
		top := baseline - bar.Peak - m.style.PeakBarHeight
		m.draw.FillRect(img, x, top, x+barWidth, top+m.style.PeakBarHeight, m.style.PeakColor)
	}
}

// drawRounded draws a vertically centered round-capped stroke of the
// bar's length.
func (m *BarMeter) drawRounded(img *image.RGBA, x, barWidth, h, amplitude int) {
	if amplitude <= 0 {
		return
	}
	cx := float64(x) + float64(barWidth)/2
	cy := float64(h) / 2
	half := float64(amplitude) / 2
	m.draw.StrokeLine(img, cx, cy-half, cx, cy+half, float64(m.style.StrokeWidth), m.style.BarColor)
}
