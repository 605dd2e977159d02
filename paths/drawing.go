package paths

import (
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rustyoz/svg"
)

// curveSteps is the number of segments each cubic curve is
// flattened into.
const curveSteps = 16

func tupleVec(t *svg.Tuple) mgl64.Vec3 {
	return mgl64.Vec3{t[0], t[1], 0}
}

// cubic evaluates a cubic Bezier curve at s.
func cubic(p0, p1, p2, p3 mgl64.Vec3, s float64) mgl64.Vec3 {
	u := 1 - s
	return p0.Mul(u * u * u).
		Add(p1.Mul(3 * u * u * s)).
		Add(p2.Mul(3 * u * s * s)).
		Add(p3.Mul(s * s * s))
}

// FromSVGDrawing parses an SVG file using its drawing instructions,
// which handles the full path syntax (relative commands, curves and
// arcs) at the cost of ignoring the document's declared size. Curves
// are flattened into line segments, and the bounds are set tightly
// around the result.
func FromSVGDrawing(r io.Reader, scale float64) (*Paths, error) {
	doc, err := svg.ParseSvgFromReader(r, "", scale)
	if err != nil {
		return nil, fmt.Errorf("parsing svg: %w", err)
	}
	ps := &Paths{}
	var pos, start mgl64.Vec3
	draw, errs := doc.ParseDrawingInstructions()
	for draw != nil {
		select {
		case di, ok := <-draw:
			if !ok {
				draw = nil
				break
			}
			switch di.Kind {
			case svg.MoveInstruction:
				pos = tupleVec(di.M)
				start = pos
				ps.P = append(ps.P, Path{V: []mgl64.Vec3{pos}})
			case svg.LineInstruction:
				if len(ps.P) == 0 {
					ps.move(pos)
				}
				pos = tupleVec(di.M)
				ps.line(pos)
			case svg.CurveInstruction:
				cp := di.CurvePoints
				if cp == nil || cp.C1 == nil || cp.C2 == nil || cp.T == nil {
					log.Warningf("ignoring svg curve without control points")
					continue
				}
				if len(ps.P) == 0 {
					ps.move(pos)
				}
				c1, c2, end := tupleVec(cp.C1), tupleVec(cp.C2), tupleVec(cp.T)
				for i := 1; i <= curveSteps; i++ {
					ps.line(cubic(pos, c1, c2, end, float64(i)/curveSteps))
				}
				pos = end
			case svg.CloseInstruction:
				if len(ps.P) > 0 && pos != start {
					ps.line(start)
				}
				pos = start
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				break
			}
			if err != nil {
				return nil, fmt.Errorf("reading svg drawing: %w", err)
			}
		}
	}
	j := 0
	for _, p := range ps.P {
		if len(p.V) < 2 || math.IsNaN(p.V[0][0]) {
			continue
		}
		ps.P[j] = p
		j++
	}
	ps.P = ps.P[:j]
	ps.TightenBounds()
	return ps, nil
}
