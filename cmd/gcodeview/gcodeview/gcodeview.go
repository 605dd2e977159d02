// Package gcodeview provides the functionality for the
// gcodeview binary as a library.
package gcodeview

import (
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/gcode"
	"github.com/paulhankin/clayturtle/paths"
)

// Styles for printed paths, short hops and true travels.
var (
	PrintStyle  = paths.Style{Stroke: "black", Width: 0.5}
	HopStyle    = paths.Style{Stroke: "blue", Width: 0.2}
	TravelStyle = paths.Style{Stroke: "red", Width: 0.5}
)

type Config struct {
	In  string
	Out string

	// Absolute reads coordinates as absolute positions from the start
	// of the file, rather than relative moves after the first G91.
	Absolute bool
	// TravelLength is the length above which a travel is reported as
	// a true travel. Zero means the gcode package's default.
	TravelLength float64
	// Origin is where the nozzle is when the moves start.
	Origin mgl64.Vec3
	// Window, if non-empty, crops the preview in the XY plane.
	Window paths.Bounds

	// Report, if set, receives travel statistics.
	Report io.Writer
}

// travelBetween returns the total distance from the end of each path
// to the start of the next.
func travelBetween(ps []paths.Path) float64 {
	d := 0.0
	for i := 1; i < len(ps); i++ {
		a, b := ps[i-1].V, ps[i].V
		if len(a) == 0 || len(b) == 0 {
			continue
		}
		d += b[0].Sub(a[len(a)-1]).Len()
	}
	return d
}

// reorderedTravel reports the travel between printed paths as they are
// in the file, and after reordering them greedily.
func reorderedTravel(print []paths.Path, start mgl64.Vec3) (before, after float64) {
	ps := &paths.Paths{P: append([]paths.Path{}, print...), Bounds: paths.BoundsOf(print...)}
	before = travelBetween(ps.P)
	if len(ps.P) < 2 {
		return before, before
	}
	ps.Sort(&paths.SortConfig{Reverse: true, Start: start})
	return before, travelBetween(ps.P)
}

// split separates travels longer than length from short hops.
func split(travel []paths.Path, length float64) (hops, long []paths.Path) {
	for _, p := range travel {
		if p.Length() > length {
			long = append(long, p)
		} else {
			hops = append(hops, p)
		}
	}
	return hops, long
}

func View(cfg *Config) error {
	if cfg.In == "" {
		return fmt.Errorf("input file must be specified")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output file must be specified")
	}
	rc := gcode.DefaultReadConfig
	rc.Relative = !cfg.Absolute
	if cfg.TravelLength > 0 {
		rc.TravelLength = cfg.TravelLength
	}

	prog, err := func() (*gcode.Program, error) {
		f, err := os.Open(cfg.In)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return gcode.Parse(f, &rc)
	}()
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.In, err)
	}

	print := &paths.Paths{P: prog.Print}
	travel := &paths.Paths{P: prog.Travel}
	for _, ps := range []*paths.Paths{print, travel} {
		ps.Translate(cfg.Origin)
		if cfg.Window != (paths.Bounds{}) {
			ps.Clip(cfg.Window)
		}
	}
	hops, long := split(travel.P, rc.TravelLength)
	all := append(append([]paths.Path{}, print.P...), travel.P...)
	if len(all) == 0 {
		return fmt.Errorf("%s: no moves found", cfg.In)
	}

	svgOut, err := os.Create(cfg.Out)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	err = paths.WriteSVG(svgOut, paths.BoundsOf(all...),
		[]paths.Style{PrintStyle, HopStyle, TravelStyle},
		[][]paths.Path{print.P, hops, long})
	if err == nil {
		err = svgOut.Close()
	} else {
		svgOut.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to write svg file: %w", err)
	}

	if cfg.Report != nil {
		before, after := reorderedTravel(prog.Print, cfg.Origin)
		_, err := fmt.Fprintf(cfg.Report, "%d lines, %d printed paths, extrusion %.1f\n%d travels longer than %g mm, total length %.0f mm\n%d short travels\ntravel between printed paths %.0f mm, %.0f mm if reordered\n",
			prog.Lines, len(prog.Print), prog.Extrusion,
			prog.TrueTravels, rc.TravelLength, prog.TrueTravelLength, prog.ShortTravels,
			before, after)
		if err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	return nil
}
