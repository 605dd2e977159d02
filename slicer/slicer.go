// Package slicer prints stacks of closed layer curves with a turtle.
//
// Layers are given bottom to top, one closed curve per layer, each
// lying in its own horizontal plane. FollowLayers traces them as
// plain, woven or chased walls with optional solid bottoms and a
// continuous spiral climb; WeaveWall prints a woven wall whose
// sideways displacement is widened where the wall leans.
package slicer

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/paths"
	"github.com/paulhankin/clayturtle/pattern"
	"github.com/paulhankin/clayturtle/turtle"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("clayturtle.slicer")

// Geometry is the curve geometry a slicer needs.
type Geometry interface {
	pattern.Geometry
	ClosestPoint(c paths.Path, pt mgl64.Vec3) mgl64.Vec3
}

var _ Geometry = paths.Planar{}

// Mode selects how FollowLayers traces each layer.
type Mode int

const (
	Walls Mode = iota
	Woven
	Chased
)

var modeNames = []string{"walls", "weave", "chase"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ErrUnknownMode is returned by ParseMode.
var ErrUnknownMode = errors.New("unknown slicing mode")

// ParseMode returns the mode named s.
func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if strings.EqualFold(s, n) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownMode, s)
}

// Config controls FollowLayers.
type Config struct {
	Mode Mode
	// Walls is the number of walls in Walls mode.
	Walls int
	// Bottom is the number of layers filled solid.
	Bottom int
	// SpiralUp climbs continuously between layers above the bottom
	// rather than stepping up at a seam.
	SpiralUp bool
	// Gaps marks pen-up points. When set, every layer is divided into
	// len(Gaps) points rather than by resolution.
	Gaps []bool
	// Weave is used in Woven mode, with its phase and climb set per
	// layer.
	Weave pattern.Weave
	// Chase is used in Chased mode.
	Chase pattern.Chase
}

// DefaultConfig returns a single plain wall.
func DefaultConfig() Config {
	return Config{Mode: Walls, Walls: 1, Weave: pattern.DefaultWeave, Chase: pattern.NewChase(1)}
}

// chaseSpacing is the point spacing of chased layers, in resolutions.
const chaseSpacing = 4.5

// layerPoints divides c for tracing.
func layerPoints(t *turtle.Turtle, g Geometry, c paths.Path, cfg *Config) []mgl64.Vec3 {
	if len(cfg.Gaps) > 0 {
		return g.Divide(c, len(cfg.Gaps))
	}
	spacing := t.Resolution()
	if cfg.Mode == Chased {
		spacing *= chaseSpacing
	}
	n := 3
	if spacing > 0 {
		if m := int(g.Length(c) / spacing); m > n {
			n = m
		}
	}
	return g.Divide(c, n)
}

// stepUp lifts t to height z.
func stepUp(t *turtle.Turtle, z float64) {
	if dz := z - t.Z(); dz != 0 {
		t.Lift(dz)
	}
}

// FollowLayers prints the stack of layers. The turtle travels to the
// first point of the bottom layer, then traces each layer in turn.
// Layers below cfg.Bottom are also filled with a spiral bottom. With
// SpiralUp, layers strictly between the bottom and the top are climbed
// continuously to the height of the next layer. Layers too small to
// weave are skipped.
func FollowLayers(t *turtle.Turtle, g Geometry, layers []paths.Path, cfg Config) error {
	if len(layers) == 0 {
		return nil
	}
	start := g.Divide(layers[0], 1)
	if len(start) == 0 {
		return fmt.Errorf("bottom layer: %w", pattern.ErrTooFewPoints)
	}
	t.PenUp()
	t.SetPosition(start[0])
	t.PenDown()

	w := cfg.Weave
	w.Oscillations = float64(pattern.ForceOdd(int(w.Oscillations)))
	ch := cfg.Chase
	if ch.Rand == nil {
		ch.Rand = rand.New(rand.NewSource(1))
	}
	for i, c := range layers {
		pts := layerPoints(t, g, c, &cfg)
		if len(pts) == 0 {
			log.Warningf("layer %d has no points, skipping", i)
			continue
		}
		last := i == len(layers)-1
		zInc := 0.0
		if cfg.SpiralUp && !last && i > cfg.Bottom {
			if next := g.Divide(layers[i+1], len(pts)); len(next) > 0 {
				zInc = (next[0][2] - pts[0][2]) / float64(len(pts))
			}
		}
		t.Comment(fmt.Sprintf("layer %d", i))

		switch cfg.Mode {
		case Walls:
			if zInc != 0 {
				stepUp(t, pts[0][2])
			}
			pattern.FollowClosedLine(t, pts, pattern.FollowConfig{ZInc: zInc, Walls: cfg.Walls, Gaps: cfg.Gaps})
		case Woven:
			lw := w
			lw.Phase = pattern.LayerPhase(i)
			lw.ZInc = zInc
			stepUp(t, pts[0][2])
			if _, err := pattern.FollowClosedLineWeave(t, pts, lw); err != nil {
				log.Warningf("layer %d: %s", i, err)
				continue
			}
		case Chased:
			ch.ZInc = zInc
			stepUp(t, pts[0][2])
			pattern.FollowClosedLineChase(t, pts, ch)
		default:
			return fmt.Errorf("layer %d: %w %v", i, ErrUnknownMode, cfg.Mode)
		}

		if i < cfg.Bottom {
			if _, _, err := pattern.SpiralBottom(t, g, c); err != nil {
				log.Warningf("layer %d bottom: %s", i, err)
			}
		}
	}
	return nil
}

// Loft returns layers of outline from one layer height up to height,
// scaled linearly about the outline's centroid from 1 at the bottom to
// topScale at the top.
func Loft(outline paths.Path, height, layerHeight, topScale float64) []paths.Path {
	if layerHeight <= 0 {
		return nil
	}
	n := int(math.Round(height / layerHeight))
	center, ok := outline.Centroid()
	if !ok {
		center = paths.BoundsOf(outline).Center()
	}
	layers := make([]paths.Path, 0, n)
	for i := 0; i < n; i++ {
		s := 1.0
		if n > 1 {
			s = 1 + (topScale-1)*float64(i)/float64(n-1)
		}
		layers = append(layers, outline.Scaled(center, s).AtZ(float64(i+1)*layerHeight))
	}
	return layers
}

// Prism returns straight-sided layers of outline up to height.
func Prism(outline paths.Path, height, layerHeight float64) []paths.Path {
	return Loft(outline, height, layerHeight, 1)
}
