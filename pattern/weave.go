package pattern

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/frame"
	"github.com/paulhankin/clayturtle/paths"
	"github.com/paulhankin/clayturtle/turtle"
)

// Weave describes a boundary perturbed sideways by a sinusoid.
type Weave struct {
	// Oscillations is the number of waves around the loop.
	Oscillations float64
	// Amplitude is the peak sideways displacement, positive to the
	// right of the direction of travel.
	Amplitude float64
	// Phase, in degrees, shifts the waves along the loop.
	Phase float64
	// ZInc, if non-zero, is climbed at every point.
	ZInc float64
	// ExtraSupport first traces a plain loop one and a quarter
	// extrude widths to the left of the boundary.
	ExtraSupport bool
}

// DefaultWeave is the weave used for woven walls.
var DefaultWeave = Weave{Oscillations: 21, Amplitude: 1}

// LayerPhase returns the weave phase for layer i. Alternate layers
// are half a wave apart so seams do not stack.
func LayerPhase(i int) float64 {
	if i%2 == 0 {
		return 0
	}
	return 180
}

// minWeavePoints is the fewest boundary points a weave is made from.
const minWeavePoints = 3

// supportOffset is the distance of the support loop, in extrude
// widths.
const supportOffset = 1.25

// WeavePoints returns the perturbed loop for the boundary pts, without
// moving any turtle. Point i is displaced by
// Amplitude·cos(Oscillations·(θi + Phase)) at right angles to the
// boundary, where θi runs once around the loop.
func (w Weave) WeavePoints(pts []mgl64.Vec3) ([]mgl64.Vec3, error) {
	if len(pts) < minWeavePoints {
		return nil, fmt.Errorf("weaving %d points: %w", len(pts), ErrTooFewPoints)
	}
	dtheta := 360.0 / float64(len(pts))
	out := make([]mgl64.Vec3, len(pts))
	for i := range pts {
		theta := float64(i) * dtheta
		delta := w.Amplitude * math.Cos(w.Oscillations*frame.Radians(theta+w.Phase))
		out[i] = Probe(pts, i, -90, delta)
	}
	return out, nil
}

// FollowClosedLineWeave traces the woven loop around pts with t and
// returns it. The turtle keeps its height except for ZInc. Layers too
// small to weave return ErrTooFewPoints and leave the turtle alone.
func FollowClosedLineWeave(t *turtle.Turtle, pts []mgl64.Vec3, w Weave) (paths.Path, error) {
	woven, err := w.WeavePoints(pts)
	if err != nil {
		log.Warningf("skipping weave: %s", err)
		return paths.Path{}, err
	}
	if w.ExtraSupport {
		d := t.ExtrudeWidth() * supportOffset
		for i := range pts {
			p := Probe(pts, i, 90, d)
			t.SetXY(p[0], p[1])
			if w.ZInc != 0 {
				t.Lift(w.ZInc)
			}
		}
	}
	for _, p := range woven {
		t.SetXY(p[0], p[1])
		if !t.Pen() {
			t.PenDown()
		}
		if w.ZInc != 0 {
			t.Lift(w.ZInc)
		}
	}
	return paths.Path{V: woven}, nil
}

// ForceOdd returns n, or n+1 if n is even. Woven walls need an odd
// number of oscillations for alternate layers to interlock.
func ForceOdd(n int) int {
	if n%2 == 0 {
		return n + 1
	}
	return n
}
