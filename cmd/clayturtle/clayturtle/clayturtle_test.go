package clayturtle

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/gcode"
	"github.com/paulhankin/clayturtle/history"
	"github.com/paulhankin/clayturtle/paths"
)

type adjustSizeTestCase struct {
	sz, bed, delta mgl64.Vec3
	center         bool
	want           paths.Bounds
	wantErr        bool
}

func TestAdjustSize(t *testing.T) {
	b := paths.Bounds{Min: mgl64.Vec3{5, 5, 0}, Max: mgl64.Vec3{25, 15, 0}}
	cases := []adjustSizeTestCase{
		{want: paths.Bounds{Max: mgl64.Vec3{20, 10, 0}}},
		{sz: mgl64.Vec3{40, 0, 0}, want: paths.Bounds{Max: mgl64.Vec3{40, 20, 0}}},
		{sz: mgl64.Vec3{0, 5, 0}, want: paths.Bounds{Max: mgl64.Vec3{10, 5, 0}}},
		{sz: mgl64.Vec3{40, 0, 0}, delta: mgl64.Vec3{1, 2, 0}, want: paths.Bounds{Min: mgl64.Vec3{1, 2, 0}, Max: mgl64.Vec3{41, 22, 0}}},
		{sz: mgl64.Vec3{40, 0, 0}, bed: mgl64.Vec3{100, 100, 0}, center: true, want: paths.Bounds{Min: mgl64.Vec3{30, 40, 0}, Max: mgl64.Vec3{70, 60, 0}}},
		{sz: mgl64.Vec3{40, 40, 0}, wantErr: true},
		{sz: mgl64.Vec3{40, 0, 0}, bed: mgl64.Vec3{30, 30, 0}, wantErr: true},
		{center: true, wantErr: true},
	}
	for _, c := range cases {
		got, err := adjustSize(c.sz, c.bed, c.delta, c.center, b)
		if c.wantErr {
			if err == nil {
				t.Errorf("adjustSize(%v, %v, %v, %v) = %v, want error", c.sz, c.bed, c.delta, c.center, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("adjustSize(%v, %v, %v, %v) failed: %v", c.sz, c.bed, c.delta, c.center, err)
			continue
		}
		if !got.Min.ApproxEqual(c.want.Min) || !got.Max.ApproxEqual(c.want.Max) {
			t.Errorf("adjustSize(%v, %v, %v, %v) = %v, want %v", c.sz, c.bed, c.delta, c.center, got, c.want)
		}
	}
}

const squareSVG = `<svg width="100" height="100">
	<rect x="10" y="10" width="40" height="40"/>
</svg>`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestConvertOutline(t *testing.T) {
	dir := t.TempDir()
	var report bytes.Buffer
	cfg := &Config{
		In:          writeFile(t, dir, "square.svg", squareSVG),
		Out:         filepath.Join(dir, "square.gcode"),
		History:     filepath.Join(dir, "square.cbor"),
		Report:      &report,
		Printer:     "creality",
		LayerHeight: 2,
		Height:      10,
		Walls:       1,
	}
	if err := Convert(cfg); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	out, err := os.ReadFile(cfg.Out)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"; clayturtle", "; printer: ender", "M83 ; relative extrusion", "; layer 4", "; end of print"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("gcode output does not contain %q", want)
		}
	}

	prog, err := gcode.Parse(bytes.NewReader(out), nil)
	if err != nil {
		t.Fatal(err)
	}
	size := paths.BoundsOf(prog.Print...).Size()
	if !approx(size[0], 40, 0.1) || !approx(size[1], 40, 0.1) {
		t.Errorf("printed outline is %v, want 40x40", size)
	}

	f, err := os.Open(cfg.History)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	l, err := history.Decode(f)
	if err != nil {
		t.Fatalf("Decode history: %v", err)
	}
	if len(l.Lines()) < 5*4 {
		t.Errorf("history has %d lines, want at least 20", len(l.Lines()))
	}
	if !strings.Contains(report.String(), "printer: ender") {
		t.Errorf("report = %q, want the printer name", report.String())
	}
}

func TestConvertPreview(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		In:          writeFile(t, dir, "square.svg", squareSVG),
		Out:         filepath.Join(dir, "square.svg"),
		LayerHeight: 2,
		Height:      4,
		Mode:        "weave",
	}
	if err := Convert(cfg); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	out, err := os.ReadFile(cfg.Out)
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.HasPrefix(s, "<svg") || !strings.HasSuffix(s, "</svg>") {
		t.Errorf("preview is not an svg document: %.60q", s)
	}
	if !strings.Contains(s, `stroke="black"`) {
		t.Errorf("preview has no printed paths")
	}
}

func TestConvertScript(t *testing.T) {
	dir := t.TempDir()
	var report bytes.Buffer
	cfg := &Config{
		Script: writeFile(t, dir, "square.js", "for (var i = 0; i < 4; i++) { fd(10); rt(90); }"),
		Out:    filepath.Join(dir, "square.gcode"),
		Report: &report,
	}
	if err := Convert(cfg); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if !strings.Contains(report.String(), "length of path: 40.0 mm") {
		t.Errorf("report = %q, want a 40mm path", report.String())
	}
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "square.svg", squareSVG)
	out := filepath.Join(dir, "out.gcode")
	for _, cfg := range []*Config{
		{Out: out},
		{In: in, Script: in, Out: out},
		{In: in},
		{In: in, Out: out, Printer: "no such printer", Height: 10},
		{In: in, Out: out, Mode: "knit", Height: 10},
		{In: in, Out: out, Height: 0},
		{Pattern: in, Out: out, Diameter: 0, Height: 10},
		{In: filepath.Join(dir, "missing.svg"), Out: out, Height: 10},
	} {
		if err := Convert(cfg); err == nil {
			t.Errorf("Convert(%+v) succeeded, want an error", cfg)
		}
	}
}
