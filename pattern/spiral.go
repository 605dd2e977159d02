package pattern

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/paths"
	"github.com/paulhankin/clayturtle/turtle"
)

// MaxSpiralRings bounds the number of rings SpiralBottom traces.
const MaxSpiralRings = 100

// spiralRetry is how far the offset distance is perturbed when an
// offset fails.
const spiralRetry = 0.5

// SpiralBottom fills the closed curve c with rings, each offset one
// extrude width inside the last. It stops when a ring's area is no
// smaller than the previous one or no further ring can be made, and
// returns the centre of the last ring and the number of rings traced.
// Reaching MaxSpiralRings returns ErrIterationCap.
func SpiralBottom(t *turtle.Turtle, g Geometry, c paths.Path) (mgl64.Vec3, int, error) {
	area, ok := g.Area(c)
	if !ok {
		log.Warningf("no area for spiral bottom, skipping")
		return mgl64.Vec3{}, 0, nil
	}
	w := t.ExtrudeWidth()
	var center mgl64.Vec3
	haveCenter := false
	for i := 0; ; i++ {
		if i >= MaxSpiralRings {
			return center, i, fmt.Errorf("spiral bottom after %d rings: %w", i, ErrIterationCap)
		}
		if cc, ok := g.Centroid(c); ok {
			center, haveCenter = cc, true
		} else if haveCenter {
			log.Warningf("no centroid for ring %d, using previous", i)
		} else {
			log.Warningf("no centroid for spiral bottom, skipping")
			return center, i, nil
		}

		next, nextArea, ok := offsetRing(g, c, center, w)
		if !ok {
			return center, i, nil
		}
		if nextArea >= area {
			log.Infof("spiral bottom converged after %d rings", i)
			return center, i, nil
		}
		if x := g.Intersect(next, c); len(x) > 0 {
			log.Warningf("spiral ring %d crosses the ring outside it at %d points", i, len(x))
		}
		FollowCurve(t, g, next)
		c, area = next, nextArea
	}
}

// offsetRing offsets c by d towards ref, retrying slightly closer and
// then slightly further if the offset or its area cannot be computed.
func offsetRing(g Geometry, c paths.Path, ref mgl64.Vec3, d float64) (paths.Path, float64, bool) {
	for _, dd := range []float64{d, d - spiralRetry, d + spiralRetry} {
		if dd <= 0 {
			continue
		}
		o, ok := g.Offset(c, ref, dd)
		if !ok {
			log.Warningf("offset by %g failed, retrying", dd)
			continue
		}
		a, ok := g.Area(o)
		if !ok {
			log.Warningf("no area for offset by %g, retrying", dd)
			continue
		}
		return o, a, true
	}
	return paths.Path{}, 0, false
}
