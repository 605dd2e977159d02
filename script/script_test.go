package script

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/gcode"
	"github.com/paulhankin/clayturtle/history"
	"github.com/paulhankin/clayturtle/profile"
	"github.com/paulhankin/clayturtle/turtle"
)

func testProfile() profile.Profile {
	return profile.Profile{
		Name: "test", ExtrudeWidth: 4, LayerHeight: 2, ExtrudeRate: 1,
		Speed: 1000, Resolution: 1, VolumeCalibration: 1,
	}
}

func newTurtle() (*turtle.Turtle, *history.Log) {
	l := &history.Log{}
	return turtle.New(testProfile(), turtle.WithRecorder(l)), l
}

func near(a, b mgl64.Vec3) bool {
	return a.Sub(b).Len() < 1e-9
}

type runTestCase struct {
	src  string
	want mgl64.Vec3
}

func TestRunPosition(t *testing.T) {
	cases := []runTestCase{
		{"for (var i = 0; i < 4; i++) { fd(10); rt(90); }", mgl64.Vec3{0, 0, 0}},
		{"forward(10); left(90); forward(5);", mgl64.Vec3{10, 5, 0}},
		{"fd(3); bk(5);", mgl64.Vec3{-2, 0, 0}},
		{"lift(get_layer_height()); lift(1);", mgl64.Vec3{0, 0, 3}},
		{"set_position(3);", mgl64.Vec3{3, 0, 0}},
		{"set_position(3); set_position(undefined, 4);", mgl64.Vec3{3, 4, 0}},
		{"set_xy(1, 2); set_z(5);", mgl64.Vec3{1, 2, 5}},
		{"forward_lift(4, 3);", mgl64.Vec3{4, 0, 3}},
		{"use_degrees(false); left(Math.PI / 2); fd(2);", mgl64.Vec3{0, 2, 0}},
		{"set_heading(180); fd(1); set_position(getX() - 1, getY() + getZ());", mgl64.Vec3{-2, 0, 0}},
	}
	for _, c := range cases {
		tt, _ := newTurtle()
		if err := Run(c.src, tt); err != nil {
			t.Errorf("Run(%q) failed: %v", c.src, err)
			continue
		}
		if got := tt.Position(); !near(got, c.want) {
			t.Errorf("Run(%q) left the turtle at %v, want %v", c.src, got, c.want)
		}
	}
}

func TestRunPen(t *testing.T) {
	tt, l := newTurtle()
	if err := Run("pu(); fd(5); pd(); bk(5); pen_up(); fd(1); pen_down(); fd(1);", tt); err != nil {
		t.Fatal(err)
	}
	var got []bool
	for _, s := range l.Segments {
		got = append(got, s.Print)
	}
	if want := []bool{false, true, false, true}; !reflect.DeepEqual(got, want) {
		t.Errorf("pen states = %v, want %v", got, want)
	}
}

func TestRunGetters(t *testing.T) {
	tt, _ := newTurtle()
	src := `
		var p = get_position();
		if (p.length != 3) throw new Error("position " + p);
		left(30);
		var h = get_heading();
		if (Math.abs(h[0] - 30) > 1e-9) throw new Error("heading " + h);
		if (get_pen() !== true) throw new Error("pen");
		if (get_printer() != "test") throw new Error("printer " + get_printer());
		if (get_extrude_width() != 4) throw new Error("width");
		set_extrude_rate(2.5);
		if (get_extrude_rate() != 2.5) throw new Error("rate");
	`
	if err := Run(src, tt); err != nil {
		t.Fatal(err)
	}
	if tt.ExtrudeRate() != 2.5 {
		t.Errorf("set_extrude_rate(2.5) left rate %v", tt.ExtrudeRate())
	}
}

func TestRunOutput(t *testing.T) {
	var buf bytes.Buffer
	w := gcode.NewWriter(&buf, nil)
	tt := turtle.New(testProfile(), turtle.WithEmitter(w))
	src := `comment("hello " + getZ()); set_extruder(1); raw("M400"); fd(10);`
	if err := Run(src, tt); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	got := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{"; hello 0", "T1", "M400", "G1 X10 E10"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("script output = %q, want %q", got, want)
	}
}

func TestRunShapes(t *testing.T) {
	tt, l := newTurtle()
	if err := Run(`var n = polygon(20, 12); if (n != 12) throw new Error("sides " + n);`, tt); err != nil {
		t.Fatal(err)
	}
	if l.Len() != 12 {
		t.Errorf("polygon(20, 12) made %d moves, want 12", l.Len())
	}
	if !near(tt.Position(), mgl64.Vec3{}) {
		t.Errorf("polygon(20, 12) ended at %v, want the start", tt.Position())
	}
	if math.Abs(tt.YawAngle()) > 1e-6 && math.Abs(math.Abs(tt.YawAngle())-360) > 1e-6 {
		t.Errorf("polygon(20, 12) left heading %v, want 0", tt.YawAngle())
	}
}

func TestRunErrors(t *testing.T) {
	for _, src := range []string{
		"fd(",
		"fd();",
		"set_mix_factor(0.5);",
		"set_material('granite');",
		"undefined_function();",
		"throw new Error('stop');",
	} {
		tt, _ := newTurtle()
		if err := Run(src, tt); err == nil {
			t.Errorf("Run(%q) succeeded, want an error", src)
		}
	}
}

func TestRunMixFactor(t *testing.T) {
	tt, _ := newTurtle()
	if err := Run("set_mix_factor(0.95);", tt); err != nil {
		t.Fatal(err)
	}
	if tt.MixFactor() != 0.95 {
		t.Errorf("set_mix_factor(0.95) left %v", tt.MixFactor())
	}
}
