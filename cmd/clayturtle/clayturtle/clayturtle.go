// Package clayturtle provides the functionality for the
// clayturtle binary as a library.
package clayturtle

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/estimate"
	"github.com/paulhankin/clayturtle/gcode"
	"github.com/paulhankin/clayturtle/history"
	"github.com/paulhankin/clayturtle/paths"
	"github.com/paulhankin/clayturtle/pattern"
	"github.com/paulhankin/clayturtle/profile"
	"github.com/paulhankin/clayturtle/script"
	"github.com/paulhankin/clayturtle/slicer"
	"github.com/paulhankin/clayturtle/turtle"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("clayturtle.cmd")

// WovenWall is the mode name for slicer.WeaveWall.
const WovenWall = "woven-wall"

// Styles used in SVG previews: printed paths, then travels.
var (
	PrintStyle  = paths.Style{Stroke: "black", Width: 0.5}
	TravelStyle = paths.Style{Stroke: "red", Width: 0.2}
)

type Config struct {
	// Exactly one of In (an SVG outline), Script (a JavaScript turtle
	// program) and Pattern (an image for a pattern cylinder) is used.
	In      string
	Script  string
	Pattern string
	// Drawing parses In with the full SVG path parser.
	Drawing bool

	Out string
	// History, if set, receives the recorded moves as CBOR.
	History string
	// Report, if set, receives a material and time estimate.
	Report io.Writer

	Printer     string
	ProfileFile string
	// LayerHeight overrides the profile's layer height when positive.
	LayerHeight float64

	// Size is the target outline size and Delta its offset. Center
	// centers the outline on the printer's bed.
	Delta  mgl64.Vec3
	Size   mgl64.Vec3
	Center bool

	Height   float64
	TopScale float64
	// Diameter is the base diameter of a pattern cylinder.
	Diameter float64

	Mode     string
	Walls    int
	Bottom   int
	Spiral   bool
	Simplify float64
}

func adjustSize(sz, bed, delta mgl64.Vec3, center bool, b paths.Bounds) (paths.Bounds, error) {
	ow := b.Max[0] - b.Min[0]
	oh := b.Max[1] - b.Min[1]
	if ow <= 0 || oh <= 0 {
		return paths.Bounds{}, fmt.Errorf("outline has no area (%g,%g)", ow, oh)
	}
	if sz[0] == 0 && sz[1] == 0 {
		sz[0] = ow
		sz[1] = oh
	} else if sz[1] == 0 {
		sz[1] = sz[0] * oh / ow
	} else if sz[0] == 0 {
		sz[0] = sz[1] * ow / oh
	}

	if !(math.Abs(sz[0]/sz[1]-ow/oh) < 1e-3) {
		return paths.Bounds{}, fmt.Errorf("target size %g,%g not compatible with outline size %g,%g", sz[0], sz[1], ow, oh)
	}

	if bed[0] != 0 && bed[1] != 0 && (sz[0] > bed[0] || sz[1] > bed[1]) {
		return paths.Bounds{}, fmt.Errorf("bed size %g,%g is smaller than outline %g,%g", bed[0], bed[1], sz[0], sz[1])
	}

	if center {
		if bed[0] == 0 || bed[1] == 0 {
			return paths.Bounds{}, fmt.Errorf("printer has no bed size, can't center")
		}
		delta[0] += (bed[0] - sz[0]) / 2
		delta[1] += (bed[1] - sz[1]) / 2
	}

	return paths.Bounds{
		Min: mgl64.Vec3{delta[0], delta[1], 0},
		Max: mgl64.Vec3{sz[0] + delta[0], sz[1] + delta[1], 0},
	}, nil
}

func loadProfile(cfg *Config) (profile.Profile, error) {
	var (
		p   profile.Profile
		err error
	)
	if cfg.ProfileFile != "" {
		p, err = profile.Load(cfg.ProfileFile)
	} else {
		name := cfg.Printer
		if name == "" {
			name = profile.DefaultBase
		}
		p, err = profile.Lookup(name)
	}
	if err != nil {
		return profile.Profile{}, err
	}
	if cfg.LayerHeight > 0 {
		p.LayerHeight = cfg.LayerHeight
	}
	if err := p.Validate(); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

// readOutline returns the first closed outline of the SVG file
// cfg.In, fitted to the configured size and position.
func readOutline(cfg *Config, p profile.Profile) (paths.Path, error) {
	ps, err := func() (*paths.Paths, error) {
		f, err := os.Open(cfg.In)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if cfg.Drawing {
			return paths.FromSVGDrawing(f, 1)
		}
		return paths.FromSVG(f)
	}()
	if err != nil {
		return paths.Path{}, err
	}
	var outline paths.Path
	for _, q := range ps.P {
		if len(q.Ring()) >= 3 {
			outline = q
			break
		}
	}
	if outline.V == nil {
		return paths.Path{}, fmt.Errorf("%s: no outline with at least 3 points", cfg.In)
	}
	if !outline.Closed() {
		log.Warningf("closing open outline from %s", cfg.In)
		outline = outline.Close()
	}
	if len(ps.P) > 1 {
		log.Infof("using the first of %d paths in %s", len(ps.P), cfg.In)
	}

	ps = &paths.Paths{P: []paths.Path{outline}, Bounds: paths.BoundsOf(outline)}
	bounds, err := adjustSize(cfg.Size, mgl64.Vec3{p.BedX, p.BedY, 0}, cfg.Delta, cfg.Center, ps.Bounds)
	if err != nil {
		return paths.Path{}, err
	}
	ps.Transform(bounds)
	bed := paths.Bounds{Max: mgl64.Vec3{p.BedX, p.BedY, 0}}
	if p.BedX > 0 && p.BedY > 0 && !ps.Inside(bed) {
		log.Warningf("outline %v extends beyond the %gx%g bed", ps.Bounds, p.BedX, p.BedY)
	}
	if cfg.Simplify > 0 {
		ps.Simplify(cfg.Simplify)
	}
	return ps.P[0], nil
}

// build drives t with whichever input cfg names.
func build(cfg *Config, t *turtle.Turtle) error {
	switch {
	case cfg.Script != "":
		src, err := os.ReadFile(cfg.Script)
		if err != nil {
			return err
		}
		return script.Run(string(src), t)

	case cfg.Pattern != "":
		if cfg.Diameter <= 0 || cfg.Height <= 0 {
			return fmt.Errorf("pattern cylinder needs a positive diameter and height")
		}
		b, err := func() (*pattern.Bitmap, error) {
			f, err := os.Open(cfg.Pattern)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			return pattern.DecodeBitmap(f, 0.5)
		}()
		if err != nil {
			return err
		}
		c := pattern.DefaultCylinder(cfg.Diameter, cfg.Height, b)
		if cfg.TopScale > 0 {
			c.TopDiameter = cfg.Diameter * cfg.TopScale
		}
		return pattern.PatternCylinder(t, c)
	}

	outline, err := readOutline(cfg, t.Settings())
	if err != nil {
		return err
	}
	topScale := cfg.TopScale
	if topScale == 0 {
		topScale = 1
	}
	layers := slicer.Loft(outline, cfg.Height, t.LayerHeight(), topScale)
	if len(layers) == 0 {
		return fmt.Errorf("height %g gives no layers", cfg.Height)
	}
	log.Infof("slicing %d layers of %.1f mm", len(layers), t.LayerHeight())

	g := paths.Planar{}
	if strings.EqualFold(cfg.Mode, WovenWall) {
		wc := slicer.DefaultWeaveConfig()
		wc.BottomLayers = cfg.Bottom
		_, err := slicer.WeaveWall(t, g, layers, wc)
		return err
	}
	mode := slicer.Walls
	if cfg.Mode != "" {
		if mode, err = slicer.ParseMode(cfg.Mode); err != nil {
			return err
		}
	}
	sc := slicer.DefaultConfig()
	sc.Mode = mode
	if cfg.Walls > 0 {
		sc.Walls = cfg.Walls
	}
	sc.Bottom = cfg.Bottom
	sc.SpiralUp = cfg.Spiral
	return slicer.FollowLayers(t, g, layers, sc)
}

func writePreview(out string, l *history.Log) error {
	print, travel := l.Paths()
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	all := append(append([]paths.Path{}, print...), travel...)
	err = paths.WriteSVG(f, paths.BoundsOf(all...), []paths.Style{PrintStyle, TravelStyle}, [][]paths.Path{print, travel})
	if err == nil {
		err = f.Close()
	} else {
		f.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to write svg file: %w", err)
	}
	return nil
}

func writeHistory(name string, l *history.Log) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	err = l.Encode(f)
	if err == nil {
		err = f.Close()
	} else {
		f.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

func Convert(cfg *Config) error {
	inputs := 0
	for _, s := range []string{cfg.In, cfg.Script, cfg.Pattern} {
		if s != "" {
			inputs++
		}
	}
	if inputs != 1 {
		return fmt.Errorf("exactly one of an outline, a script or a pattern must be specified")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output file must be specified")
	}

	p, err := loadProfile(cfg)
	if err != nil {
		return err
	}

	l := &history.Log{}
	opts := []turtle.Option{turtle.WithRecorder(l)}

	preview := strings.EqualFold(filepath.Ext(cfg.Out), ".svg")
	var (
		gcodeOut    *os.File
		gcodeWriter *gcode.Writer
	)
	if !preview {
		gcodeOut, err = os.Create(cfg.Out)
		if err != nil {
			return fmt.Errorf("failed to open output file: %w", err)
		}
		defer gcodeOut.Close()
		banner := []string{"clayturtle", "printer: " + p.Name}
		for _, s := range []string{cfg.In, cfg.Script, cfg.Pattern} {
			if s != "" {
				banner = append(banner, "input: "+filepath.Base(s))
			}
		}
		gcodeWriter = gcode.NewWriter(gcodeOut, &gcode.Config{
			Precision: p.Precision,
			Banner:    banner,
			Preamble:  p.Preamble,
			Postamble: p.Postamble,
			Data:      p,
			FeedRate:  p.Speed,
		})
		gcodeWriter.Preamble()
		opts = append(opts, turtle.WithEmitter(gcodeWriter))
	}

	t := turtle.New(p, opts...)
	t.WriteParameters()
	if err := build(cfg, t); err != nil {
		return err
	}

	if preview {
		if err := writePreview(cfg.Out, l); err != nil {
			return err
		}
	} else {
		gcodeWriter.Postamble()
		if err := gcodeWriter.Flush(); err != nil {
			return fmt.Errorf("failed to write gcode: %w", err)
		}
		if err := gcodeOut.Close(); err != nil {
			return fmt.Errorf("failed to write gcode: %w", err)
		}
	}
	log.Infof("wrote %d moves to %s", l.Len(), cfg.Out)

	if cfg.History != "" {
		if err := writeHistory(cfg.History, l); err != nil {
			return err
		}
	}
	if cfg.Report != nil {
		return estimate.Of(l, t.Settings()).Report(cfg.Report)
	}
	return nil
}
