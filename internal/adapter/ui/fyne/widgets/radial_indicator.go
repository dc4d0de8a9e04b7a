package widgets

import (
	"image"
	"image/color"
	"math"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"vizkit/internal/domain"
)

// RadialStyle holds the visual configuration of a radial indicator.
type RadialStyle struct {
	SecondaryStyle     domain.SecondaryStyle
	Thickness          float64
	SecondaryThickness float64

	IndicatorColor color.Color
	SecondaryColor color.Color
	TrackColor     color.Color
	TextColor      color.Color
	Background     color.Color
}

// DefaultRadialStyle returns the stock look of the indicator.
func DefaultRadialStyle() RadialStyle {
	return RadialStyle{
		SecondaryStyle:     domain.SecondaryOutside,
		Thickness:          8,
		SecondaryThickness: 4,
		IndicatorColor:     color.White,
		SecondaryColor:     color.NRGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xFF},
		TrackColor:         color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF},
		TextColor:          color.White,
		Background:         color.Black,
	}
}

// RadialIndicator draws a radial arc for the current progress frame,
// with an optional secondary arc, centered progress text and a status
// glyph once an operation finishes. Frames arrive via SetFrame from the
// indicator service; the widget itself holds no animation logic.
type RadialIndicator struct {
	widget.BaseWidget

	style  RadialStyle
	raster *canvas.Raster
	text   *canvas.Text

	mu    sync.RWMutex
	frame domain.IndicatorFrame

	draw paint
}

// NewRadialIndicator creates a radial indicator with the given style.
func NewRadialIndicator(style RadialStyle) *RadialIndicator {
	r := &RadialIndicator{style: style}
	r.raster = canvas.NewRaster(r.render)
	r.text = canvas.NewText("", style.TextColor)
	r.text.Alignment = fyne.TextAlignCenter
	r.text.TextSize = 18
	r.ExtendBaseWidget(r)
	return r
}

// CreateRenderer implements fyne.Widget.
func (r *RadialIndicator) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewStack(r.raster, container.NewCenter(r.text)))
}

// MinSize returns the minimum size of the indicator.
func (r *RadialIndicator) MinSize() fyne.Size {
	return fyne.NewSize(96, 96)
}

// SetSecondaryStyle moves the secondary arc to a new placement.
func (r *RadialIndicator) SetSecondaryStyle(style domain.SecondaryStyle) error {
	if !style.Valid() {
		return domain.NewValidationError("secondary_style", int(style), domain.ErrInvalidSecondaryStyle.Error())
	}

	r.mu.Lock()
	r.style.SecondaryStyle = style
	r.mu.Unlock()

	r.raster.Refresh()
	return nil
}

// SetFrame updates the drawn state and schedules a repaint. Safe to
// call from the service tick goroutine.
func (r *RadialIndicator) SetFrame(frame domain.IndicatorFrame) {
	r.mu.Lock()
	r.frame = frame
	r.mu.Unlock()

	r.text.Text = frame.Text
	r.text.Refresh()
	r.raster.Refresh()
}

// render draws the tracks, arcs and glyph.
func (r *RadialIndicator) render(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	r.draw.FillBackground(img, r.style.Background)

	if w == 0 || h == 0 {
		return img
	}

	r.mu.RLock()
	frame := r.frame
	style := r.style
	r.mu.RUnlock()

	size := math.Min(float64(w), float64(h))
	cx := float64(w) / 2
	cy := float64(h) / 2

	// The primary track leaves room for an outside secondary ring.
	radius := size/2 - style.Thickness/2 - style.SecondaryThickness
	if radius <= 0 {
		return img
	}

	secondaryRadius := radius
	switch style.SecondaryStyle {
	case domain.SecondaryInside:
		secondaryRadius = radius - style.Thickness/2 - style.SecondaryThickness/2
	case domain.SecondaryOutside:
		secondaryRadius = radius + style.Thickness/2 + style.SecondaryThickness/2
	}

	// Background track, then secondary, then the primary arc on top.
	r.draw.StrokeArc(img, cx, cy, radius, 360, style.Thickness, style.TrackColor)
	r.draw.StrokeArc(img, cx, cy, secondaryRadius, frame.SecondaryAngle, style.SecondaryThickness, style.SecondaryColor)
	r.draw.StrokeArc(img, cx, cy, radius, frame.Angle, style.Thickness, style.IndicatorColor)

	switch frame.Glyph {
	case domain.GlyphSuccess:
		r.drawSuccess(img, cx, cy, radius)
	case domain.GlyphFailure:
		r.drawFailure(img, cx, cy, radius)
	}

	return img
}

// drawSuccess paints a check mark inside the track.
func (r *RadialIndicator) drawSuccess(img *image.RGBA, cx, cy, radius float64) {
	s := radius * 0.5
	stroke := math.Max(3, r.style.Thickness*0.75)
	r.draw.StrokeLine(img, cx-s*0.8, cy, cx-s*0.15, cy+s*0.6, stroke, r.style.IndicatorColor)
	r.draw.StrokeLine(img, cx-s*0.15, cy+s*0.6, cx+s*0.8, cy-s*0.5, stroke, r.style.IndicatorColor)
}

// drawFailure paints a cross inside the track.
func (r *RadialIndicator) drawFailure(img *image.RGBA, cx, cy, radius float64) {
	s := radius * 0.4
	stroke := math.Max(3, r.style.Thickness*0.75)
	r.draw.StrokeLine(img, cx-s, cy-s, cx+s, cy+s, stroke, r.style.IndicatorColor)
	r.draw.StrokeLine(img, cx-s, cy+s, cx+s, cy-s, stroke, r.style.IndicatorColor)
}
