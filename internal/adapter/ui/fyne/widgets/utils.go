// Package widgets provides the VizKit Fyne widgets: the radial progress
// indicator and the visualizer bar meter. Widgets are thin drawing
// layers; all animation state arrives as ready-to-paint frames from the
// services.
package widgets

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// paint bundles the raster drawing primitives shared by the widgets.
type paint struct{}

// FillBackground fills the entire image with a single color.
func (paint) FillBackground(img *image.RGBA, col color.Color) {
	draw.Draw(img, img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// FillRect fills an axis-aligned rectangle, clipped to the image.
func (paint) FillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.Color) {
	bounds := img.Bounds()
	if x0 < bounds.Min.X {
		x0 = bounds.Min.X
	}
	if y0 < bounds.Min.Y {
		y0 = bounds.Min.Y
	}
	if x1 > bounds.Max.X {
		x1 = bounds.Max.X
	}
	if y1 > bounds.Max.Y {
		y1 = bounds.Max.Y
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			img.Set(x, y, col)
		}
	}
}

// StampCircle fills a circle, clipped to the image.
func (p paint) StampCircle(img *image.RGBA, cx, cy, r float64, col color.Color) {
	x0 := int(math.Floor(cx - r))
	x1 := int(math.Ceil(cx + r))
	y0 := int(math.Floor(cy - r))
	y1 := int(math.Ceil(cy + r))

	bounds := img.Bounds()
	rr := r * r
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
				continue
			}
			dx := float64(x) - cx
			dy := float64(y) - cy
			if dx*dx+dy*dy <= rr {
				img.Set(x, y, col)
			}
		}
	}
}

// StrokeArc strokes a circular arc of the given sweep in degrees,
// starting at twelve o'clock and running clockwise. The stroke is built
// from stamped circles so the thickness stays even along the curve.
func (p paint) StrokeArc(img *image.RGBA, cx, cy, radius, sweepDeg, thickness float64, col color.Color) {
	if sweepDeg <= 0 || radius <= 0 {
		return
	}
	if sweepDeg > 360 {
		sweepDeg = 360
	}

	// Step fine enough that neighboring stamps overlap.
	step := math.Min(1.0, 45.0/radius)
	half := thickness / 2
	for deg := 0.0; deg <= sweepDeg; deg += step {
		rad := deg * math.Pi / 180
		x := cx + radius*math.Sin(rad)
		y := cy - radius*math.Cos(rad)
		p.StampCircle(img, x, y, half, col)
	}
}

// StrokeLine strokes a straight line segment with round caps.
func (p paint) StrokeLine(img *image.RGBA, x0, y0, x1, y1, thickness float64, col color.Color) {
	dx := x1 - x0
	dy := y1 - y0
	length := math.Hypot(dx, dy)
	half := thickness / 2
	if length == 0 {
		p.StampCircle(img, x0, y0, half, col)
		return
	}

	steps := int(length) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		p.StampCircle(img, x0+dx*t, y0+dy*t, half, col)
	}
}
