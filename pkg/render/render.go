// Package render draws a buildable-area computation to a PNG for visual
// inspection: the parcel outline, the excluded setback region and the
// selected buildable polygon.
package render

import (
	"errors"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"
)

// Scene is the geometry drawn by Draw. Any part may be empty.
type Scene struct {
	Parcel    orb.MultiPolygon
	Excluded  orb.MultiPolygon
	Buildable orb.Polygon
}

// ColourScheme sets the colours of a Scene.
type ColourScheme struct {
	Background color.Color
	Parcel     color.Color
	Excluded   color.Color
	Buildable  color.Color
}

// DefaultColours is the scheme used when none is given.
var DefaultColours = ColourScheme{
	Background: color.RGBA{255, 255, 255, 255},
	Parcel:     color.RGBA{0, 0, 0, 255},
	Excluded:   color.RGBA{200, 60, 60, 90},
	Buildable:  color.RGBA{40, 150, 60, 160},
}

// margin is the blank border around the drawing, in pixels.
const margin = 10

// Draw renders s into a size x size image. The view is fitted to the
// parcel, so excluded regions reaching outside it are clipped.
func Draw(s Scene, size int, scheme ColourScheme) (image.Image, error) {
	if size <= 2*margin {
		return nil, errors.New("render: image too small")
	}
	view := s.Parcel.Bound()
	if len(s.Parcel) == 0 {
		if len(s.Buildable) == 0 {
			return nil, errors.New("render: nothing to draw")
		}
		view = s.Buildable.Bound()
	}
	w, h := view.Max[0]-view.Min[0], view.Max[1]-view.Min[1]
	scale := float64(size-2*margin) / math.Max(math.Max(w, h), 1e-9)

	// Geometry is y-up, images are y-down.
	project := func(p orb.Point) (float64, float64) {
		return margin + (p[0]-view.Min[0])*scale, float64(size) - margin - (p[1]-view.Min[1])*scale
	}

	ctx := gg.NewContext(size, size)
	ctx.SetColor(scheme.Background)
	ctx.Clear()
	ctx.SetFillRuleEvenOdd()

	if len(s.Excluded) > 0 {
		ctx.SetColor(scheme.Excluded)
		for _, p := range s.Excluded {
			tracePolygon(ctx, p, project)
		}
		ctx.Fill()
	}

	if len(s.Buildable) > 0 {
		ctx.SetColor(scheme.Buildable)
		tracePolygon(ctx, s.Buildable, project)
		ctx.Fill()
	}

	ctx.SetColor(scheme.Parcel)
	ctx.SetLineWidth(2)
	for _, p := range s.Parcel {
		tracePolygon(ctx, p, project)
	}
	ctx.Stroke()

	return ctx.Image(), nil
}

// WritePNG renders s with the default colours and encodes it to w.
func WritePNG(w io.Writer, s Scene, size int) error {
	im, err := Draw(s, size, DefaultColours)
	if err != nil {
		return err
	}
	return gg.NewContextForImage(im).EncodePNG(w)
}

// SavePNG renders s with the default colours to a PNG file.
func SavePNG(path string, s Scene, size int) error {
	im, err := Draw(s, size, DefaultColours)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, im)
}

func tracePolygon(ctx *gg.Context, p orb.Polygon, project func(orb.Point) (float64, float64)) {
	for _, r := range p {
		if len(r) == 0 {
			continue
		}
		ctx.NewSubPath()
		for i, pt := range r {
			x, y := project(pt)
			if i == 0 {
				ctx.MoveTo(x, y)
			} else {
				ctx.LineTo(x, y)
			}
		}
		ctx.ClosePath()
	}
}
