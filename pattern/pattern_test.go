package pattern

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/frame"
	"github.com/paulhankin/clayturtle/gcode"
	"github.com/paulhankin/clayturtle/history"
	"github.com/paulhankin/clayturtle/paths"
	"github.com/paulhankin/clayturtle/profile"
	"github.com/paulhankin/clayturtle/turtle"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func approxVec(a, b mgl64.Vec3, tol float64) bool {
	return a.Sub(b).Len() <= tol
}

func testProfile() profile.Profile {
	return profile.Profile{
		Name: "test", ExtrudeWidth: 4, LayerHeight: 1, ExtrudeRate: 1,
		Speed: 1000, Resolution: 1, VolumeCalibration: 1,
	}
}

func newTurtle() (*turtle.Turtle, *history.Log) {
	l := &history.Log{}
	return turtle.New(testProfile(), turtle.WithRecorder(l)), l
}

func square(side float64) paths.Path {
	return paths.Path{V: []mgl64.Vec3{
		{0, 0, 0}, {side, 0, 0}, {side, side, 0}, {0, side, 0}, {0, 0, 0},
	}}
}

func TestSpiralBottomSquare(t *testing.T) {
	tt, l := newTurtle()
	center, rings, err := SpiralBottom(tt, paths.Planar{}, square(44))
	if err != nil {
		t.Fatalf("SpiralBottom: %v", err)
	}
	if rings != 5 {
		t.Errorf("SpiralBottom traced %d rings, want 5", rings)
	}
	if !approxVec(center, mgl64.Vec3{22, 22, 0}, 1e-6) {
		t.Errorf("SpiralBottom center = %v, want (22, 22, 0)", center)
	}
	for _, s := range l.Lines() {
		for _, p := range []mgl64.Vec3{s.Start, s.End} {
			if p[0] < 4-1e-6 || p[0] > 40+1e-6 || p[1] < 4-1e-6 || p[1] > 40+1e-6 {
				t.Fatalf("printed point %v outside the first ring", p)
			}
		}
	}
}

// creeping shrinks every ring by a tiny amount, so spirals never
// converge.
type creeping struct {
	paths.Planar
}

func (creeping) Offset(c paths.Path, ref mgl64.Vec3, d float64) (paths.Path, bool) {
	cc, ok := c.Centroid()
	if !ok {
		return paths.Path{}, false
	}
	return c.Scaled(cc, 0.999), true
}

func TestSpiralBottomIterationCap(t *testing.T) {
	tt, _ := newTurtle()
	c := paths.Circle(mgl64.Vec3{}, 20, 16)
	_, rings, err := SpiralBottom(tt, creeping{}, c)
	if !errors.Is(err, ErrIterationCap) {
		t.Errorf("SpiralBottom error = %v, want %v", err, ErrIterationCap)
	}
	if rings != MaxSpiralRings {
		t.Errorf("SpiralBottom traced %d rings, want %d", rings, MaxSpiralRings)
	}
}

func TestSpiralBottomNoArea(t *testing.T) {
	tt, l := newTurtle()
	line := paths.Path{V: []mgl64.Vec3{{0, 0, 0}, {10, 0, 0}}}
	_, rings, err := SpiralBottom(tt, paths.Planar{}, line)
	if err != nil || rings != 0 || l.Len() != 0 {
		t.Errorf("SpiralBottom(line) = %d rings, %v, %d moves; want 0, nil, 0", rings, err, l.Len())
	}
}

func TestLayerPhase(t *testing.T) {
	for i, want := range []float64{0, 180, 0, 180} {
		if got := LayerPhase(i); got != want {
			t.Errorf("LayerPhase(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestWeavePointsAlternate(t *testing.T) {
	pts := paths.Circle(mgl64.Vec3{}, 30, 24).Ring()
	even, err := Weave{Oscillations: 21, Amplitude: 1.5, Phase: LayerPhase(0)}.WeavePoints(pts)
	if err != nil {
		t.Fatal(err)
	}
	odd, err := Weave{Oscillations: 21, Amplitude: 1.5, Phase: LayerPhase(1)}.WeavePoints(pts)
	if err != nil {
		t.Fatal(err)
	}
	for i := range pts {
		mid := even[i].Add(odd[i]).Mul(0.5)
		if !approxVec(mid, pts[i], 1e-9) {
			t.Errorf("point %d: layers displaced to %v and %v, not either side of %v", i, even[i], odd[i], pts[i])
		}
		if d := even[i].Sub(pts[i]).Len(); d > 1.5+1e-9 {
			t.Errorf("point %d displaced by %v, more than the amplitude", i, d)
		}
	}
	// the first point is reached along the chord from the last, so the
	// weave pushes it out at right angles to that chord.
	a := frame.Radians(-7.5)
	want := mgl64.Vec3{30 + 1.5*math.Cos(a), 1.5 * math.Sin(a), 0}
	if !approxVec(even[0], want, 1e-9) {
		t.Errorf("first woven point = %v, want %v", even[0], want)
	}
}

func TestWeaveTooFewPoints(t *testing.T) {
	tt, l := newTurtle()
	_, err := FollowClosedLineWeave(tt, []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}}, DefaultWeave)
	if !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("FollowClosedLineWeave(2 points) error = %v, want %v", err, ErrTooFewPoints)
	}
	if l.Len() != 0 {
		t.Errorf("FollowClosedLineWeave(2 points) moved the turtle %d times", l.Len())
	}
}

func TestFollowClosedLineWeave(t *testing.T) {
	tt, l := newTurtle()
	pts := paths.Circle(mgl64.Vec3{}, 30, 24).Ring()
	w := Weave{Oscillations: 5, Amplitude: 1, ZInc: 0.1, ExtraSupport: true}
	woven, err := FollowClosedLineWeave(tt, pts, w)
	if err != nil {
		t.Fatal(err)
	}
	if len(woven.V) != len(pts) {
		t.Errorf("woven loop has %d points, want %d", len(woven.V), len(pts))
	}
	// a move and a lift for each support point and each woven point
	if want := 4 * len(pts); l.Len() != want {
		t.Errorf("recorded %d moves, want %d", l.Len(), want)
	}
	if !approx(tt.Z(), 0.1*float64(2*len(pts)), 1e-9) {
		t.Errorf("turtle height = %v, want %v", tt.Z(), 0.1*float64(2*len(pts)))
	}
}

func TestForceOdd(t *testing.T) {
	for _, c := range [][2]int{{20, 21}, {21, 21}, {0, 1}} {
		if got := ForceOdd(c[0]); got != c[1] {
			t.Errorf("ForceOdd(%d) = %d, want %d", c[0], got, c[1])
		}
	}
}

func chaseEnd(seed int64, pts []mgl64.Vec3) (mgl64.Vec3, int) {
	tt, l := newTurtle()
	FollowClosedLineChase(tt, pts, NewChase(seed))
	return tt.Position(), l.Len()
}

func TestChaseDeterministic(t *testing.T) {
	pts := paths.Circle(mgl64.Vec3{}, 20, 20).Ring()
	p1, n1 := chaseEnd(7, pts)
	p2, n2 := chaseEnd(7, pts)
	if p1 != p2 {
		t.Errorf("chase with the same seed ended at %v and %v", p1, p2)
	}
	if want := len(pts) * chaseSteps; n1 != want || n2 != want {
		t.Errorf("chase made %d and %d moves, want %d", n1, n2, want)
	}
}

func TestChaseNilRand(t *testing.T) {
	pts := paths.Circle(mgl64.Vec3{}, 20, 20).Ring()
	want, _ := chaseEnd(1, pts)
	tt, l := newTurtle()
	FollowClosedLineChase(tt, pts, Chase{Angle: 50, Movement: 1})
	if got := tt.Position(); got != want {
		t.Errorf("chase without a source ended at %v, want %v as with seed 1", got, want)
	}
	if n := len(pts) * chaseSteps; l.Len() != n {
		t.Errorf("chase made %d moves, want %d", l.Len(), n)
	}
}

func TestChaseSmallLoop(t *testing.T) {
	pts := paths.Circle(mgl64.Vec3{}, 5, 6).Ring()
	tt, l := newTurtle()
	FollowClosedLineChase(tt, pts, NewChase(1))
	if want := len(pts) * smallChaseSteps; l.Len() != want {
		t.Errorf("chase made %d moves, want %d", l.Len(), want)
	}
	for _, s := range l.Segments {
		if !approx(s.Length(), 1/smallChaseBy, 1e-9) {
			t.Fatalf("chase step of %v, want %v", s.Length(), 1/smallChaseBy)
		}
	}
}

func TestFollowClosedLineGaps(t *testing.T) {
	tt, l := newTurtle()
	pts := square(40).Ring()
	FollowClosedLine(tt, pts, FollowConfig{Gaps: []bool{false, false, true, false}})
	var got []bool
	for _, s := range l.Segments {
		got = append(got, s.Print)
	}
	want := []bool{false, true, false, true, true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FollowClosedLine pen = %v, want %v", got, want)
	}
}

func TestFollowClosedLineWalls(t *testing.T) {
	tt, l := newTurtle()
	pts := square(40).Ring()
	FollowClosedLine(tt, pts, FollowConfig{Walls: 2})
	if l.Len() != 10 {
		t.Errorf("two walls made %d moves, want 10", l.Len())
	}
	// the second wall starts to the left of the edge arriving at the
	// first point, one wall spacing in.
	d := testProfile().ExtrudeWidth * wallSpacing
	if !approxVec(tt.Position(), mgl64.Vec3{d, 0, 0}, 1e-9) {
		t.Errorf("second wall ended at %v, want (%v, 0, 0)", tt.Position(), d)
	}
	if !tt.Pen() {
		t.Errorf("FollowClosedLine left the pen up")
	}
}

func TestFollowClosedLineSpiral(t *testing.T) {
	tt, _ := newTurtle()
	pts := square(40).Ring()
	FollowClosedLine(tt, pts, FollowConfig{ZInc: 0.25})
	if !approx(tt.Z(), 1, 1e-9) {
		t.Errorf("spiral loop climbed to %v, want 1", tt.Z())
	}
}

func TestBumpSquare(t *testing.T) {
	tt, l := newTurtle()
	BumpSquare(tt, 5, 1, 0, 0, 3)
	if !approxVec(tt.Position(), mgl64.Vec3{3, 0, 0}, 1e-9) {
		t.Errorf("BumpSquare ended at %v, want (3, 0, 0)", tt.Position())
	}
	if !approx(tt.YawAngle(), 0, 1e-9) {
		t.Errorf("BumpSquare left heading %v, want 0", tt.YawAngle())
	}
	if l.Len() != 5 {
		t.Errorf("BumpSquare made %d moves, want 5", l.Len())
	}
}

func TestBumpTriangle(t *testing.T) {
	tt, l := newTurtle()
	BumpTriangle(tt, 5, 4, 1, 0, 0)
	if l.Len() != 2 {
		t.Fatalf("BumpTriangle made %d moves, want 2", l.Len())
	}
	if tip := l.Segments[0].End; !approxVec(tip, mgl64.Vec3{2, 5, 0}, 1e-9) {
		t.Errorf("BumpTriangle tip = %v, want (2, 5, 0)", tip)
	}
	if !approxVec(tt.Position(), mgl64.Vec3{4, 0, 0}, 1e-9) {
		t.Errorf("BumpTriangle ended at %v, want (4, 0, 0)", tt.Position())
	}
	if !tt.UsingDegrees() {
		t.Errorf("BumpTriangle changed the angle units")
	}
}

func TestSimpleBumps(t *testing.T) {
	tt, l := newTurtle()
	pts := paths.Circle(mgl64.Vec3{}, 20, 12).Ring()
	FollowClosedLineSimpleBumps(tt, pts, Bumps{Count: 3, Length: 2})
	// 12 points and the return, each with a lift, plus out and back
	// at points 4 and 8.
	if want := 2*13 + 2*2; l.Len() != want {
		t.Errorf("FollowClosedLineSimpleBumps made %d moves, want %d", l.Len(), want)
	}
}

func TestPatternAlongCurve(t *testing.T) {
	var buf bytes.Buffer
	w := gcode.NewWriter(&buf, nil)
	l := &history.Log{}
	tt := turtle.New(testProfile(), turtle.WithEmitter(w), turtle.WithRecorder(l))
	bits := make([]bool, 16)
	bits[4], bits[12] = true, true
	if err := PatternAlongCurve(tt, paths.Planar{}, paths.Circle(mgl64.Vec3{}, 30, 32), DefaultAlongCurve(bits)); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"T1\n", "T0\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("PatternAlongCurve output has no %q", want)
		}
	}
	if !approx(tt.Z(), testProfile().LayerHeight, 1e-9) {
		t.Errorf("PatternAlongCurve ended at height %v, want one layer", tt.Z())
	}
	if tt.ExtrudeRate() != 2.5 {
		t.Errorf("PatternAlongCurve left extrude rate %v, want 2.5", tt.ExtrudeRate())
	}
}

func TestPatternAlongCurveNoBits(t *testing.T) {
	tt, _ := newTurtle()
	err := PatternAlongCurve(tt, paths.Planar{}, square(10), AlongCurve{})
	if !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("PatternAlongCurve(no bits) error = %v, want %v", err, ErrTooFewPoints)
	}
}

func TestParseBitmap(t *testing.T) {
	b := ParseBitmap([]string{
		"#..",
		".##",
	})
	if b.Width() != 3 || b.Height() != 2 {
		t.Fatalf("ParseBitmap size = %dx%d, want 3x2", b.Width(), b.Height())
	}
	cases := []struct {
		x, y int
		want bool
	}{
		{0, 1, true}, {1, 1, false}, {0, 0, false}, {1, 0, true}, {2, 0, true},
		{3, 1, true}, {-1, 0, true}, {0, 3, true}, {-3, -2, false},
	}
	for _, c := range cases {
		if got := b.At(c.x, c.y); got != c.want {
			t.Errorf("At(%d, %d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
	if got, want := b.Row(0), []bool{false, true, true}; !reflect.DeepEqual(got, want) {
		t.Errorf("Row(0) = %v, want %v", got, want)
	}
}

func testImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(2, 1, color.Gray{Y: 40})
	return img
}

func TestFromImage(t *testing.T) {
	b := FromImage(testImage(), 0.5)
	want := ParseBitmap([]string{"#..", "..#"})
	if !reflect.DeepEqual(b, want) {
		t.Errorf("FromImage = %v, want %v", b, want)
	}
}

func TestDecodeBitmap(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatal(err)
	}
	b, err := DecodeBitmap(&buf, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	want := ParseBitmap([]string{"#..", "..."})
	if !reflect.DeepEqual(b, want) {
		t.Errorf("DecodeBitmap = %v, want %v", b, want)
	}
	if _, err := DecodeBitmap(strings.NewReader("not an image"), 0.5); err == nil {
		t.Errorf("DecodeBitmap(garbage) succeeded")
	}
}

func TestPatternCylinderNoBitmap(t *testing.T) {
	tt, _ := newTurtle()
	if err := PatternCylinder(tt, Cylinder{BaseDiameter: 20, Height: 10}); !errors.Is(err, ErrNoBitmap) {
		t.Errorf("PatternCylinder(no bitmap) error = %v, want %v", err, ErrNoBitmap)
	}
}

func TestPatternCylinder(t *testing.T) {
	var buf bytes.Buffer
	w := gcode.NewWriter(&buf, nil)
	l := &history.Log{}
	tt := turtle.New(testProfile(), turtle.WithEmitter(w), turtle.WithRecorder(l))
	b := ParseBitmap([]string{"#.#.#.#.", ".#.#.#.#"})
	c := DefaultCylinder(40, 12, b)
	if err := PatternCylinder(tt, c); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	maxR := 20 + c.PatternAmplitude + 1e-6
	bumps := 0
	for _, s := range l.Segments {
		r := math.Hypot(s.End[0], s.End[1])
		if r > maxR {
			t.Fatalf("move to %v is %v from the axis, beyond %v", s.End, r, maxR)
		}
		if r > 20+1e-6 {
			bumps++
		}
	}
	// pattern rows are printed on layers 4, 6 and 8, with 4 on cells
	// in each.
	if bumps != 12 {
		t.Errorf("PatternCylinder printed %d bumps, want 12", bumps)
	}
	if !strings.Contains(buf.String(), "T1\n") {
		t.Errorf("PatternCylinder never switched to the pattern extruder")
	}
	if tt.ExtrudeRate() != c.StructureRate {
		t.Errorf("PatternCylinder left extrude rate %v, want %v", tt.ExtrudeRate(), c.StructureRate)
	}
}

func TestPatternCylinderFirstRow(t *testing.T) {
	l := &history.Log{}
	tt := turtle.New(testProfile(), turtle.WithRecorder(l))
	b := ParseBitmap([]string{"#.......", "........"})
	c := DefaultCylinder(40, 12, b)
	c.BottomLayers = 2
	if err := PatternCylinder(tt, c); err != nil {
		t.Fatal(err)
	}
	bumps := 0
	for _, s := range l.Segments {
		if math.Hypot(s.End[0], s.End[1]) > 20+1e-6 {
			bumps++
		}
	}
	// rows 0 to 3 go on layers 2, 4, 6 and 8; rows 0 and 2 have a bump.
	if bumps != 2 {
		t.Errorf("PatternCylinder printed %d bumps, want 2", bumps)
	}
}
