// Package history records the moves a turtle commits, for physical
// estimates and previews. Recording is optional: a turtle with no
// Recorder keeps no history at all.
package history

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/paths"
)

// Color is an RGB preview color attached to printed segments.
type Color struct {
	R, G, B uint8
}

// Segment is one committed move.
type Segment struct {
	Start, End mgl64.Vec3
	// Extruded is the extrusion amount, always zero for travel.
	Extruded float64
	Color    Color
	// Print is true when the pen was down.
	Print bool
}

// Length returns the length of the segment.
func (s Segment) Length() float64 {
	return s.End.Sub(s.Start).Len()
}

// Degenerate reports whether the segment has zero length.
func (s Segment) Degenerate() bool {
	return s.Start == s.End
}

// A Recorder accepts committed moves in order.
type Recorder interface {
	Record(s Segment)
}

// Log is an append-only Recorder that keeps every segment.
type Log struct {
	Segments []Segment
}

// Record appends s. Travel segments never carry extrusion.
func (l *Log) Record(s Segment) {
	if !s.Print {
		s.Extruded = 0
	}
	l.Segments = append(l.Segments, s)
}

// Len returns the number of recorded segments, including travel.
func (l *Log) Len() int {
	return len(l.Segments)
}

// Prints returns the print segments, in order.
func (l *Log) Prints() []Segment {
	var r []Segment
	for _, s := range l.Segments {
		if s.Print {
			r = append(r, s)
		}
	}
	return r
}

// Lines returns the print segments that have non-zero length.
func (l *Log) Lines() []Segment {
	var r []Segment
	for _, s := range l.Segments {
		if s.Print && !s.Degenerate() {
			r = append(r, s)
		}
	}
	return r
}

// Points returns the start point of each of Lines.
func (l *Log) Points() []mgl64.Vec3 {
	var r []mgl64.Vec3
	for _, s := range l.Lines() {
		r = append(r, s.Start)
	}
	return r
}

// LastLine returns the most recent non-degenerate print segment.
func (l *Log) LastLine() (Segment, bool) {
	for i := len(l.Segments) - 1; i >= 0; i-- {
		if s := l.Segments[i]; s.Print && !s.Degenerate() {
			return s, true
		}
	}
	return Segment{}, false
}

// Colors returns the color of each of Lines.
func (l *Log) Colors() []Color {
	var r []Color
	for _, s := range l.Lines() {
		r = append(r, s.Color)
	}
	return r
}

// Paths joins consecutive segments into polylines, split into print
// and travel moves.
func (l *Log) Paths() (print, travel []paths.Path) {
	var cur *paths.Path
	curPrint := false
	for _, s := range l.Segments {
		if s.Degenerate() {
			continue
		}
		if cur == nil || curPrint != s.Print || cur.V[len(cur.V)-1] != s.Start {
			if s.Print {
				print = append(print, paths.Path{V: []mgl64.Vec3{s.Start}})
				cur = &print[len(print)-1]
			} else {
				travel = append(travel, paths.Path{V: []mgl64.Vec3{s.Start}})
				cur = &travel[len(travel)-1]
			}
			curPrint = s.Print
		}
		cur.V = append(cur.V, s.End)
	}
	return print, travel
}

// DiffusionStep is the length of printed path between color updates
// in DiffuseColors.
const DiffusionStep = 50.0

// DiffuseColors models colored paste blending in the barrel: rather
// than changing abruptly, the color of the printed path drifts
// towards each new color over diffusion steps of DiffusionStep mm.
// lookAhead segments ahead are consulted so that the drift starts
// before the color change is reached. The result has one color per
// entry of Lines; the log itself is not modified.
func (l *Log) DiffuseColors(diffusion float64, lookAhead int) []Color {
	lines := l.Lines()
	if len(lines) == 0 {
		return nil
	}
	if diffusion < 1 {
		diffusion = 1
	}
	ch := func(c Color) [3]float64 {
		return [3]float64{float64(c.R), float64(c.G), float64(c.B)}
	}
	cur := ch(lines[0].Color)
	target := cur
	var inc [3]float64
	dist := 0.0
	out := make([]Color, len(lines))
	for i, s := range lines {
		dist += s.Length()
		if dist >= DiffusionStep {
			dist = 0
			j := i + lookAhead
			if j >= len(lines) {
				j = len(lines) - 1
			}
			if next := ch(lines[j].Color); next != target {
				target = next
				for k := range inc {
					inc[k] = (target[k] - cur[k]) / diffusion
				}
			}
			for k := range cur {
				if math.Abs(target[k]-cur[k]) <= math.Abs(inc[k]) {
					cur[k] = target[k]
				} else {
					cur[k] += inc[k]
				}
				cur[k] = math.Max(0, math.Min(255, cur[k]))
			}
		}
		out[i] = Color{uint8(math.Round(cur[0])), uint8(math.Round(cur[1])), uint8(math.Round(cur[2]))}
	}
	return out
}
