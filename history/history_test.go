package history

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func seg(x0, y0, x1, y1 float64, print bool, c Color) Segment {
	e := 0.0
	if print {
		e = 1
	}
	return Segment{Start: mgl64.Vec3{x0, y0, 0}, End: mgl64.Vec3{x1, y1, 0}, Extruded: e, Color: c, Print: print}
}

func TestLogFilters(t *testing.T) {
	var l Log
	red := Color{255, 0, 0}
	l.Record(seg(0, 0, 10, 0, true, red))
	l.Record(seg(10, 0, 10, 0, true, red))
	l.Record(Segment{Start: mgl64.Vec3{10, 0, 0}, End: mgl64.Vec3{20, 0, 0}, Extruded: 5})
	l.Record(seg(20, 0, 20, 10, true, red))

	if l.Len() != 4 {
		t.Errorf("Len() = %d, want 4", l.Len())
	}
	if got := len(l.Prints()); got != 3 {
		t.Errorf("len(Prints()) = %d, want 3", got)
	}
	if got := len(l.Lines()); got != 2 {
		t.Errorf("len(Lines()) = %d, want 2", got)
	}
	if l.Segments[2].Extruded != 0 {
		t.Errorf("travel segment kept extrusion %v", l.Segments[2].Extruded)
	}
	wantPts := []mgl64.Vec3{{0, 0, 0}, {20, 0, 0}}
	if got := l.Points(); !reflect.DeepEqual(got, wantPts) {
		t.Errorf("Points() = %v, want %v", got, wantPts)
	}
	last, ok := l.LastLine()
	if !ok || last.End != (mgl64.Vec3{20, 10, 0}) {
		t.Errorf("LastLine() = %v, %v", last, ok)
	}
}

func TestLogPaths(t *testing.T) {
	var l Log
	l.Record(seg(0, 0, 1, 0, true, Color{}))
	l.Record(seg(1, 0, 1, 1, true, Color{}))
	l.Record(seg(1, 1, 5, 5, false, Color{}))
	l.Record(seg(5, 5, 6, 5, true, Color{}))
	pr, tr := l.Paths()
	if len(pr) != 2 || len(tr) != 1 {
		t.Fatalf("Paths() = %d print, %d travel, want 2, 1", len(pr), len(tr))
	}
	want := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}}
	if !reflect.DeepEqual(pr[0].V, want) {
		t.Errorf("first print path = %v, want %v", pr[0].V, want)
	}
}

func TestDiffuseColors(t *testing.T) {
	var l Log
	black, white := Color{0, 0, 0}, Color{200, 100, 50}
	for i := 0; i < 20; i++ {
		l.Record(seg(float64(i)*50, 0, float64(i+1)*50, 0, true, black))
	}
	for i := 20; i < 40; i++ {
		l.Record(seg(float64(i)*50, 0, float64(i+1)*50, 0, true, white))
	}
	got := l.DiffuseColors(4, 0)
	if len(got) != 40 {
		t.Fatalf("len = %d, want 40", len(got))
	}
	if got[19] != black {
		t.Errorf("color before change = %v, want %v", got[19], black)
	}
	if got[20] == white || got[20] == black {
		t.Errorf("color at change = %v, want a blend", got[20])
	}
	if got[39] != white {
		t.Errorf("final color = %v, want %v", got[39], white)
	}
	// values only move towards the target
	for i := 21; i < 40; i++ {
		if got[i].R < got[i-1].R {
			t.Errorf("red channel went backwards at %d: %v -> %v", i, got[i-1], got[i])
		}
	}
	// the log's own colors are left alone
	if l.Segments[25].Color != white {
		t.Errorf("DiffuseColors modified the log")
	}
}

func TestEncodeDecode(t *testing.T) {
	l := &Log{}
	l.Record(seg(0, 0, 3.25, -1, true, Color{1, 2, 3}))
	l.Record(seg(3.25, -1, 0, 0, false, Color{}))
	var buf bytes.Buffer
	if err := l.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, l) {
		t.Errorf("Decode(Encode(l)) = %+v, want %+v", got, l)
	}
}
