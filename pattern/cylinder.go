package pattern

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/shapes"
	"github.com/paulhankin/clayturtle/turtle"
)

// Cylinder describes a cylinder or cone whose wall carries a bitmap
// pattern, printed by a second extruder.
type Cylinder struct {
	BaseDiameter, TopDiameter float64
	Height                    float64
	// Bitmap columns run around the wall, one step per column, and
	// rows run up it, one row per patterned layer.
	Bitmap *Bitmap
	// PatternAmplitude is how far an on cell bumps out from the wall.
	PatternAmplitude float64
	// BottomLayers are solid and TopLayers are unpatterned.
	BottomLayers, TopLayers int
	// StructureRate and PatternRate are the extrude rates for the
	// wall and the pattern.
	StructureRate, PatternRate float64
}

// DefaultCylinder returns a straight cylinder with the usual pattern
// settings.
func DefaultCylinder(diameter, height float64, b *Bitmap) Cylinder {
	return Cylinder{
		BaseDiameter: diameter, TopDiameter: diameter, Height: height, Bitmap: b,
		PatternAmplitude: 4, BottomLayers: 3, TopLayers: 3,
		StructureRate: 2.5, PatternRate: 1.5,
	}
}

const (
	// patternInset is how far inside the wall the pattern extruder
	// travels between bumps.
	patternInset = 1.0
	// primeCylinder primes the pattern extruder before its first bump
	// on each layer.
	primeCylinder = 20
	// patternLift is the extra height, in layers, left for the pattern.
	patternLift = 0.1
)

// ErrNoBitmap is returned by PatternCylinder without a bitmap.
var ErrNoBitmap = errors.New("pattern cylinder needs a bitmap")

// PatternCylinder prints c around the Z axis. Bottom layers alternate
// between inward and outward filled discs. Every other layer above
// them, up to the top layers, gets a row of the bitmap: on cells are
// bumped out by PatternAmplitude, off cells are skipped with the pen
// up. Alternate pattern rows are shifted half a cell so that the
// pattern interlocks. The diameter changes linearly from base to top.
func PatternCylinder(t *turtle.Turtle, c Cylinder) error {
	if c.Bitmap == nil || c.Bitmap.Width() == 0 || c.Bitmap.Height() == 0 {
		return ErrNoBitmap
	}
	lh := t.LayerHeight()
	layers := int(c.Height / lh)
	if layers == 0 {
		return nil
	}
	top := c.TopDiameter
	if top == 0 {
		top = c.BaseDiameter
	}
	dinc := (top - c.BaseDiameter) / float64(layers)
	steps := c.Bitmap.Width()
	dtheta := 2 * math.Pi / float64(steps)
	t.SetExtrudeRate(c.StructureRate)

	d := c.BaseDiameter
	row := 0
	for l := 0; l < layers; l++ {
		r := d / 2
		if l < c.BottomLayers {
			if l%2 == 0 {
				shapes.CircularSurfaceInOut(t, d)
			} else {
				shapes.CircularSurfaceOutIn(t, d)
			}
		} else {
			shapes.Circle(t, d, 100, 0, 1)
		}
		t.Lift(lh)

		if l >= c.BottomLayers && l%2 == 0 && l <= layers-c.TopLayers {
			phase := 0.0
			if row%2 == 1 {
				phase = 0.5
			}
			patternRow(t, c, row, r, dtheta, phase)
		}
		if l%2 == 0 && l >= c.BottomLayers {
			row++
		}
		t.SetExtruder(structureExtruder)
		t.SetExtrudeRate(c.StructureRate)
		d += dinc
	}
	return nil
}

// patternRow prints row of the bitmap around a wall of radius r.
func patternRow(t *turtle.Turtle, c Cylinder, row int, r, dtheta, phase float64) {
	t.SetExtruder(patternExtruder)
	t.SetExtrudeRate(c.PatternRate)
	z := t.Z()
	at := func(radius, a float64) mgl64.Vec3 {
		return mgl64.Vec3{radius * math.Cos(a), radius * math.Sin(a), z}
	}
	inner := r - patternInset
	primed := false
	for s := 0; s < c.Bitmap.Width(); s++ {
		a := (float64(s) + phase) * dtheta
		if !c.Bitmap.At(s, row) {
			t.PenUp()
			t.SetPosition(at(inner, a))
			t.PenDown()
			continue
		}
		t.SetPosition(at(inner, a))
		if !primed {
			t.Extrude(primeCylinder)
			primed = true
		}
		t.SetPosition(at(r+c.PatternAmplitude, a))
		t.SetPosition(at(inner, a))
	}
	t.Lift(t.LayerHeight() * patternLift)
}
