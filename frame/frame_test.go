package frame

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const tol = 1e-9

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func checkOrthonormal(t *testing.T, f Frame) {
	t.Helper()
	dots := []struct {
		name string
		got  float64
	}{
		{"forward.left", f.Forward.Dot(f.Left)},
		{"forward.up", f.Forward.Dot(f.Up)},
		{"left.up", f.Left.Dot(f.Up)},
	}
	for _, d := range dots {
		if !approx(d.got, 0, 1e-9) {
			t.Errorf("%s = %g, want 0", d.name, d.got)
		}
	}
	for name, v := range map[string]mgl64.Vec3{"forward": f.Forward, "left": f.Left, "up": f.Up} {
		if !approx(v.Len(), 1, 1e-9) {
			t.Errorf("|%s| = %g, want 1", name, v.Len())
		}
	}
	// right-handed: forward x left = up
	if c := f.Forward.Cross(f.Left); !c.ApproxEqualThreshold(f.Up, 1e-9) {
		t.Errorf("forward x left = %v, want up %v", c, f.Up)
	}
}

func TestOrthonormalAfterRotations(t *testing.T) {
	f := New()
	for i := 0; i < 1000; i++ {
		f.Yaw(Radians(7.3))
		f.Pitch(Radians(-3.1))
		f.Roll(Radians(11.9))
	}
	checkOrthonormal(t, f)
}

type headingTestCase struct {
	yaw, pitch, roll float64
}

func TestHeadingRoundTrip(t *testing.T) {
	cases := []headingTestCase{
		{30, 10, 5},
		{0, 0, 0},
		{-120, 45, -30},
		{170, -60, 80},
		{90, 0, 0},
	}
	for _, c := range cases {
		f := New()
		f.SetHeading(Radians(c.yaw), Radians(c.pitch), Radians(c.roll))
		checkOrthonormal(t, f)
		gy, gp, gr := Degrees(f.YawAngle()), Degrees(f.PitchAngle()), Degrees(f.RollAngle())
		if !approx(gy, c.yaw, 1e-6) || !approx(gp, c.pitch, 1e-6) || !approx(gr, c.roll, 1e-6) {
			t.Errorf("SetHeading(%v, %v, %v) -> angles (%v, %v, %v)", c.yaw, c.pitch, c.roll, gy, gp, gr)
		}
	}
}

func TestSetHeadingOrder(t *testing.T) {
	// yaw then pitch is not the same as pitch then yaw.
	a := New()
	a.SetHeading(Radians(90), Radians(45), 0)
	b := New()
	b.Pitch(Radians(45))
	b.Yaw(Radians(90))
	if a.Forward.ApproxEqualThreshold(b.Forward, 1e-6) {
		t.Errorf("rotation order had no effect: %v == %v", a.Forward, b.Forward)
	}
	want := mgl64.Vec3{0, math.Sqrt2 / 2, math.Sqrt2 / 2}
	if !a.Forward.ApproxEqualThreshold(want, tol) {
		t.Errorf("SetHeading(90, 45, 0).Forward = %v, want %v", a.Forward, want)
	}
}

func TestYawTurnsLeft(t *testing.T) {
	f := New()
	f.Yaw(Radians(90))
	if !f.Forward.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, tol) {
		t.Errorf("Yaw(90).Forward = %v, want +Y", f.Forward)
	}
	if !f.Left.ApproxEqualThreshold(mgl64.Vec3{-1, 0, 0}, tol) {
		t.Errorf("Yaw(90).Left = %v, want -X", f.Left)
	}
	if f.Up != (mgl64.Vec3{0, 0, 1}) {
		t.Errorf("Yaw touched up: %v", f.Up)
	}
}

func TestVerticalForwardRoll(t *testing.T) {
	f := New()
	f.Pitch(Radians(90))
	if got := Degrees(f.YawAngle()); !approx(got, 0, 1e-6) {
		t.Errorf("yaw of vertical frame = %v, want 0", got)
	}
	if got := Degrees(f.RollAngle()); !approx(got, 0, 1e-6) {
		t.Errorf("roll of vertical frame = %v, want 0", got)
	}
}

func TestProbe(t *testing.T) {
	f := FromYaw(Radians(90)) // facing +Y
	origin := mgl64.Vec3{10, 5, 2}
	got := Probe(origin, f, Radians(-90), 3)
	want := mgl64.Vec3{13, 5, 2}
	if !got.ApproxEqualThreshold(want, tol) {
		t.Errorf("Probe right 3 = %v, want %v", got, want)
	}
	// the frame passed in is a copy and is never rotated.
	if !f.Forward.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, tol) {
		t.Errorf("Probe modified frame: %v", f.Forward)
	}
}
