// Package turtle implements a 3d extruding turtle: a position and
// orientation that move relatively and optionally deposit material
// while moving.
//
// Every committed move is handed to an optional Emitter, which
// writes machine instructions, and to an optional history.Recorder.
// A Turtle with neither is a pure geometric state machine.
//
// A Turtle is owned by a single goroutine.
package turtle

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/frame"
	"github.com/paulhankin/clayturtle/gcode"
	"github.com/paulhankin/clayturtle/history"
	"github.com/paulhankin/clayturtle/profile"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("clayturtle.turtle")

// ErrMixFactorRange is returned when a mix factor is outside
// [MinMixFactor, 1).
var ErrMixFactorRange = errors.New("mix factor out of range")

// MinMixFactor is the smallest accepted mix factor.
const MinMixFactor = 0.90

// An Emitter turns committed moves and printer commands into machine
// instructions. *gcode.Writer is the usual implementation.
type Emitter interface {
	Move(dx, dy, dz float64, pen bool, e float64) bool
	Lift(dz float64, pen bool) bool
	FeedRate(f float64)
	Extrude(q float64)
	Dwell(ms float64)
	PauseAndWait()
	ExtruderTemp(s float64)
	BedTemp(s float64)
	Mix(f float64)
	Comment(s string)
	Raw(s string)
}

var _ Emitter = (*gcode.Writer)(nil)

// Turtle is the state of the print head.
type Turtle struct {
	pos     mgl64.Vec3
	frame   frame.Frame
	pen     bool
	degrees bool

	settings profile.Profile
	mix      float64
	color    history.Color

	out       Emitter
	rec       history.Recorder
	precision int
}

// An Option configures a new Turtle.
type Option func(*Turtle)

// WithEmitter sends the turtle's instructions to e.
func WithEmitter(e Emitter) Option {
	return func(t *Turtle) { t.out = e }
}

// WithRecorder records every committed move in r.
func WithRecorder(r history.Recorder) Option {
	return func(t *Turtle) { t.rec = r }
}

// WithPosition starts the turtle at p instead of the origin.
func WithPosition(p mgl64.Vec3) Option {
	return func(t *Turtle) { t.pos = p }
}

// New returns a turtle at the origin, facing +X with +Z up, with its
// pen down and angles in degrees. The printer settings are copied
// from p.
func New(p profile.Profile, opts ...Option) *Turtle {
	t := &Turtle{
		frame:     frame.New(),
		pen:       true,
		degrees:   true,
		settings:  p,
		mix:       MinMixFactor,
		precision: p.Precision,
	}
	if t.precision == 0 {
		t.precision = gcode.DefaultPrecision
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// UseDegrees selects whether angles are given in degrees (the
// default) or radians.
func (t *Turtle) UseDegrees(on bool) {
	t.degrees = on
}

// UsingDegrees reports whether angles are given in degrees.
func (t *Turtle) UsingDegrees() bool { return t.degrees }

// InDegrees switches the turtle to degrees and returns a func that
// restores the previous angle unit.
func (t *Turtle) InDegrees() (restore func()) {
	old := t.degrees
	t.degrees = true
	return func() { t.degrees = old }
}

func (t *Turtle) toRadians(a float64) float64 {
	if t.degrees {
		return frame.Radians(a)
	}
	return a
}

func (t *Turtle) fromRadians(a float64) float64 {
	if t.degrees {
		return frame.Degrees(a)
	}
	return a
}

// Position returns the current position.
func (t *Turtle) Position() mgl64.Vec3 { return t.pos }

// X returns the current X coordinate.
func (t *Turtle) X() float64 { return t.pos[0] }

// Y returns the current Y coordinate.
func (t *Turtle) Y() float64 { return t.pos[1] }

// Z returns the current Z coordinate.
func (t *Turtle) Z() float64 { return t.pos[2] }

// Frame returns a copy of the current orientation.
func (t *Turtle) Frame() frame.Frame { return t.frame }

// Heading returns the unit vector the turtle is facing.
func (t *Turtle) Heading() mgl64.Vec3 { return t.frame.Forward }

// Pen reports whether the pen is down.
func (t *Turtle) Pen() bool { return t.pen }

// PenUp stops depositing material on subsequent moves.
func (t *Turtle) PenUp() { t.pen = false }

// PenDown deposits material on subsequent moves.
func (t *Turtle) PenDown() { t.pen = true }

// SetColor sets the preview color recorded with printed segments.
func (t *Turtle) SetColor(c history.Color) { t.color = c }

// Color returns the current preview color.
func (t *Turtle) Color() history.Color { return t.color }

// record passes a committed segment to the recorder, if any. Travel
// segments carry no extrusion.
func (t *Turtle) record(start mgl64.Vec3, e float64) {
	if t.rec == nil {
		return
	}
	if !t.pen {
		e = 0
	}
	t.rec.Record(history.Segment{
		Start:    start,
		End:      t.pos,
		Extruded: e,
		Color:    t.color,
		Print:    t.pen,
	})
}

// commit moves the turtle to end with extrusion e. Every move is
// recorded; moves whose every axis rounds to zero are not written.
func (t *Turtle) commit(end mgl64.Vec3, e float64) {
	start := t.pos
	delta := end.Sub(start)
	t.pos = end
	t.record(start, e)
	if t.out != nil && t.visible(delta) {
		t.out.Move(delta[0], delta[1], delta[2], t.pen, e)
	}
}

func (t *Turtle) visible(delta mgl64.Vec3) bool {
	for _, v := range delta {
		if gcode.Round(v, t.precision) != 0 {
			return true
		}
	}
	return false
}

// Forward moves distance along the heading. Negative distances move
// backwards; either way the extrusion is |distance| times the
// extrude rate.
func (t *Turtle) Forward(distance float64) {
	t.commit(t.pos.Add(t.frame.Forward.Mul(distance)), math.Abs(distance)*t.settings.ExtrudeRate)
}

// Backward moves distance against the heading.
func (t *Turtle) Backward(distance float64) {
	t.Forward(-distance)
}

// ForwardLift moves distance along the heading and height along the
// up vector at the same time.
func (t *Turtle) ForwardLift(distance, height float64) {
	delta := t.frame.Forward.Mul(distance).Add(t.frame.Up.Mul(height))
	t.commit(t.pos.Add(delta), math.Hypot(distance, height)*t.settings.ExtrudeRate)
}

// Lift moves straight up by height, without extruding. A lift of
// exactly one layer height is marked as a new layer.
func (t *Turtle) Lift(height float64) {
	if height == t.settings.LayerHeight {
		t.Comment("new layer")
	}
	start := t.pos
	t.pos[2] += height
	t.record(start, 0)
	if t.out != nil {
		t.out.Lift(height, t.pen)
	}
}

// SetPosition moves in a straight line to p. Unless the move is
// purely vertical, the turtle first turns to face along it; pitch and
// roll relative to the heading are kept. A zero-length move is
// recorded but writes no instruction.
func (t *Turtle) SetPosition(p mgl64.Vec3) {
	delta := p.Sub(t.pos)
	if delta[0] != 0 || delta[1] != 0 {
		yaw := math.Atan2(delta[1], delta[0])
		t.frame.SetHeading(yaw, t.frame.PitchAngle(), t.frame.RollAngle())
	}
	t.commit(p, delta.Len()*t.settings.ExtrudeRate)
}

// SetXY moves to (x, y) at the current height.
func (t *Turtle) SetXY(x, y float64) {
	t.SetPosition(mgl64.Vec3{x, y, t.pos[2]})
}

// SetZ moves vertically to height z.
func (t *Turtle) SetZ(z float64) {
	t.SetPosition(mgl64.Vec3{t.pos[0], t.pos[1], z})
}

// SetState copies the position and orientation of other, without
// moving through the intervening space.
func (t *Turtle) SetState(other *Turtle) {
	t.pos = other.pos
	t.frame = other.frame
}

// Yaw turns about the up vector. Positive turns left.
func (t *Turtle) Yaw(angle float64) { t.frame.Yaw(t.toRadians(angle)) }

// Pitch turns about the left vector. Positive pitches up.
func (t *Turtle) Pitch(angle float64) { t.frame.Pitch(t.toRadians(angle)) }

// Roll turns about the heading.
func (t *Turtle) Roll(angle float64) { t.frame.Roll(t.toRadians(angle)) }

// Left turns left by angle.
func (t *Turtle) Left(angle float64) { t.Yaw(angle) }

// Right turns right by angle.
func (t *Turtle) Right(angle float64) { t.Yaw(-angle) }

// PitchUp pitches the heading up by angle.
func (t *Turtle) PitchUp(angle float64) { t.Pitch(angle) }

// PitchDown pitches the heading down by angle.
func (t *Turtle) PitchDown(angle float64) { t.Pitch(-angle) }

// RollLeft rolls anticlockwise, looking along the heading.
func (t *Turtle) RollLeft(angle float64) { t.Roll(-angle) }

// RollRight rolls clockwise, looking along the heading.
func (t *Turtle) RollRight(angle float64) { t.Roll(angle) }

// SetHeading sets an absolute orientation: yaw, then pitch, then roll
// from the canonical frame.
func (t *Turtle) SetHeading(yaw, pitch, roll float64) {
	t.frame.SetHeading(t.toRadians(yaw), t.toRadians(pitch), t.toRadians(roll))
}

// ChangeHeading adds to each of the current yaw, pitch and roll.
func (t *Turtle) ChangeHeading(yaw, pitch, roll float64) {
	t.SetHeading(t.YawAngle()+yaw, t.PitchAngle()+pitch, t.RollAngle()+roll)
}

// YawAngle returns the heading's angle around +Z from +X.
func (t *Turtle) YawAngle() float64 { return t.fromRadians(t.frame.YawAngle()) }

// PitchAngle returns the heading's elevation.
func (t *Turtle) PitchAngle() float64 { return t.fromRadians(t.frame.PitchAngle()) }

// RollAngle returns the roll about the heading.
func (t *Turtle) RollAngle() float64 { return t.fromRadians(t.frame.RollAngle()) }

// Printer returns the name of the printer profile in use.
func (t *Turtle) Printer() string { return t.settings.Name }

// Settings returns the current printer settings, including any
// changes made since the turtle was created.
func (t *Turtle) Settings() profile.Profile { return t.settings }

// SetProfile selects a new printer, overwriting all printer settings.
func (t *Turtle) SetProfile(p profile.Profile) {
	t.settings = p
	if p.Precision != 0 {
		t.precision = p.Precision
	}
	log.Infof("printer set to %s", p.Name)
}

// ExtrudeWidth returns the width of a printed bead.
func (t *Turtle) ExtrudeWidth() float64 { return t.settings.ExtrudeWidth }

// LayerHeight returns the height of one layer.
func (t *Turtle) LayerHeight() float64 { return t.settings.LayerHeight }

// ExtrudeRate returns the extrusion per mm of path.
func (t *Turtle) ExtrudeRate() float64 { return t.settings.ExtrudeRate }

// Speed returns the print speed in mm/minute.
func (t *Turtle) Speed() float64 { return t.settings.Speed }

// Resolution returns the shortest segment worth printing.
func (t *Turtle) Resolution() float64 { return t.settings.Resolution }

// Nozzle returns the nozzle diameter.
func (t *Turtle) Nozzle() float64 { return t.settings.Nozzle }

// Density returns the material density in g/ml.
func (t *Turtle) Density() float64 { return t.settings.Density }

// MixFactor returns the mixing extruder ratio, to 4 places.
func (t *Turtle) MixFactor() float64 { return gcode.Round(t.mix, 4) }

// SetExtrudeWidth sets the bead width.
func (t *Turtle) SetExtrudeWidth(w float64) {
	t.settings.ExtrudeWidth = w
	log.Infof("extrude width set to %g", w)
	t.Comment(fmt.Sprintf("changed extrude width to %g", w))
}

// SetLayerHeight sets the layer height.
func (t *Turtle) SetLayerHeight(h float64) {
	t.settings.LayerHeight = h
	log.Infof("layer height set to %g", gcode.Round(h, 4))
	t.Comment(fmt.Sprintf("layer height set to %g", gcode.Round(h, 4)))
}

// SetExtrudeRate sets the extrusion per mm of path.
func (t *Turtle) SetExtrudeRate(r float64) {
	t.settings.ExtrudeRate = r
	log.Infof("extrude rate set to %g", r)
	t.Comment(fmt.Sprintf("changed extrude rate to %g", r))
}

// SetResolution sets the shortest segment worth printing.
func (t *Turtle) SetResolution(r float64) { t.settings.Resolution = r }

// SetDensity sets the material density in g/ml.
func (t *Turtle) SetDensity(d float64) { t.settings.Density = d }

// SetNozzleSize sets the nozzle diameter and derives the bead width,
// layer height and extrude rate from it.
func (t *Turtle) SetNozzleSize(d float64) {
	t.settings.Nozzle = d
	t.settings.ExtrudeWidth = d * 1.15
	t.settings.LayerHeight = d * 0.8
	t.settings.ExtrudeRate = d
	log.Infof("nozzle size set to %g", d)
	t.Comment(fmt.Sprintf("set nozzle size to %g", d))
}

// SetMixFactor sets the ratio between the two channels of a mixing
// extruder. Values outside [MinMixFactor, 1) are rejected and the
// previous value is kept.
func (t *Turtle) SetMixFactor(f float64) error {
	if !(f >= MinMixFactor && f < 1) {
		log.Warningf("rejected mix factor %g", f)
		return fmt.Errorf("%w: %g is not in [%g, 1)", ErrMixFactorRange, f, MinMixFactor)
	}
	t.mix = f
	log.Infof("mix factor set to %g", gcode.Round(f, 4))
	if t.out != nil {
		t.out.Mix(f)
	}
	return nil
}

// SetMaterial applies a material preset.
func (t *Turtle) SetMaterial(name string) error {
	m, err := profile.LookupMaterial(name)
	if err != nil {
		return err
	}
	t.Comment("material set to " + m.Name)
	if m.Nozzle > 0 {
		t.SetNozzleSize(m.Nozzle)
	}
	if m.Mix > 0 {
		if err := t.SetMixFactor(m.Mix); err != nil {
			return err
		}
	}
	if m.LayerHeight > 0 {
		t.settings.LayerHeight = m.LayerHeight
	}
	if m.ExtrudeRate > 0 {
		t.settings.ExtrudeRate = m.ExtrudeRate
	}
	if m.ExtrudeWidth > 0 {
		t.settings.ExtrudeWidth = m.ExtrudeWidth
	}
	if m.Nozzle > 0 {
		t.WriteParameters()
	}
	return nil
}

// WriteParameters writes the current print parameters as comments.
func (t *Turtle) WriteParameters() {
	if t.out == nil {
		return
	}
	s := t.settings
	t.out.Comment("print parameters")
	t.out.Comment(fmt.Sprintf("Printer: %s", s.Name))
	t.out.Comment(fmt.Sprintf("Nozzle size: %g", s.Nozzle))
	t.out.Comment(fmt.Sprintf("Extrude width: %g", s.ExtrudeWidth))
	t.out.Comment(fmt.Sprintf("Layer height: %g", s.LayerHeight))
	t.out.Comment(fmt.Sprintf("Extrude rate: %g", s.ExtrudeRate))
	t.out.Comment(fmt.Sprintf("Speed: %g", s.Speed))
	t.out.Comment(fmt.Sprintf("Mix factor: %g", t.MixFactor()))
}

// SetSpeed sets the print speed in mm/minute.
func (t *Turtle) SetSpeed(f float64) {
	t.settings.Speed = f
	if t.out != nil {
		t.out.FeedRate(f)
	}
}

// FeedRate sets the machine feed rate without changing the speed
// used for estimates.
func (t *Turtle) FeedRate(f float64) {
	if t.out != nil {
		t.out.FeedRate(f)
	}
}

// Dwell pauses for ms milliseconds.
func (t *Turtle) Dwell(ms float64) {
	if t.out != nil {
		t.out.Dwell(ms)
	}
}

// pauseSpeed is the crawl speed, in mm/minute, used to fake a pause
// on firmware without dwell support.
const pauseSpeed = 60

// Pause stops for ms milliseconds. Firmware that ignores dwell gets a
// slow, tiny downward move instead.
func (t *Turtle) Pause(ms float64) {
	if t.settings.Dwell {
		t.Dwell(ms)
		return
	}
	t.Comment("hack pause")
	speed := t.settings.Speed
	t.SetSpeed(pauseSpeed)
	t.Lift(-ms / 1000)
	t.SetSpeed(speed)
}

// PauseAndWait stops until the operator resumes.
func (t *Turtle) PauseAndWait() {
	if t.out != nil {
		t.out.PauseAndWait()
	}
}

// Extrude pushes q units of material without moving.
func (t *Turtle) Extrude(q float64) {
	if t.out != nil {
		t.out.Extrude(q)
	}
}

// SetBedTemp sets the bed temperature and waits for it.
func (t *Turtle) SetBedTemp(c float64) {
	if t.out != nil {
		t.out.BedTemp(c)
	}
}

// SetExtruderTemp sets the extruder temperature and waits for it.
func (t *Turtle) SetExtruderTemp(c float64) {
	if t.out != nil {
		t.out.ExtruderTemp(c)
	}
}

// SetExtruder selects tool n on printers with several extruders.
func (t *Turtle) SetExtruder(n int) {
	t.Raw(fmt.Sprintf("T%d", n))
}

// Comment writes a comment into the instruction stream.
func (t *Turtle) Comment(s string) {
	if t.out != nil {
		t.out.Comment(s)
	}
}

// Raw writes an instruction verbatim.
func (t *Turtle) Raw(s string) {
	if t.out != nil {
		t.out.Raw(s)
	}
}
