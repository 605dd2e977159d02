// Package frame tracks the orientation of a turtle as an orthonormal,
// right-handed basis of forward, left and up vectors.
//
// All angles in this package are in radians. Rotations are plane
// rotations of two basis vectors, so the basis stays orthonormal up to
// floating point error without any renormalisation.
package frame

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Frame is an orientation: three mutually orthogonal unit vectors.
// The zero value is not a valid frame; use New.
type Frame struct {
	Forward mgl64.Vec3
	Left    mgl64.Vec3
	Up      mgl64.Vec3
}

// New returns the canonical frame: forward along +X, left along +Y
// and up along +Z.
func New() Frame {
	return Frame{
		Forward: mgl64.Vec3{1, 0, 0},
		Left:    mgl64.Vec3{0, 1, 0},
		Up:      mgl64.Vec3{0, 0, 1},
	}
}

// FromYaw returns the canonical frame turned about +Z by yaw.
func FromYaw(yaw float64) Frame {
	f := New()
	f.Yaw(yaw)
	return f
}

// rotate turns a towards b by theta within the plane they span.
func rotate(a, b mgl64.Vec3, theta float64) (mgl64.Vec3, mgl64.Vec3) {
	c, s := math.Cos(theta), math.Sin(theta)
	return a.Mul(c).Add(b.Mul(s)), b.Mul(c).Sub(a.Mul(s))
}

// Yaw turns forward towards left by theta. Positive is a left turn.
func (f *Frame) Yaw(theta float64) {
	f.Forward, f.Left = rotate(f.Forward, f.Left, theta)
}

// Pitch turns forward towards up by theta. Positive pitches the nose up.
func (f *Frame) Pitch(theta float64) {
	f.Forward, f.Up = rotate(f.Forward, f.Up, theta)
}

// Roll turns left towards up by theta.
func (f *Frame) Roll(theta float64) {
	f.Left, f.Up = rotate(f.Left, f.Up, theta)
}

// SetHeading resets the frame to canonical and then applies yaw, pitch
// and roll, in that order. The order matters: the rotations do not
// commute.
func (f *Frame) SetHeading(yaw, pitch, roll float64) {
	*f = New()
	f.Yaw(yaw)
	f.Pitch(pitch)
	f.Roll(roll)
}

// YawAngle is the heading of forward projected onto the XY plane.
func (f Frame) YawAngle() float64 {
	return math.Atan2(f.Forward[1], f.Forward[0])
}

// PitchAngle is the elevation of forward above the XY plane.
func (f Frame) PitchAngle() float64 {
	x, y, z := f.Forward[0], f.Forward[1], f.Forward[2]
	return math.Atan2(z, math.Sqrt(x*x+y*y))
}

// RollAngle measures left against the left and up vectors a frame would
// have after only yawing and pitching to the current forward.
//
// When forward is vertical the yaw is indeterminate; atan2(0, 0) gives
// zero, so roll is then measured against the canonical +Y left vector.
func (f Frame) RollAngle() float64 {
	yaw := f.YawAngle()
	pitch := f.PitchAngle()
	refLeft := mgl64.Vec3{-math.Sin(yaw), math.Cos(yaw), 0}
	refUp := mgl64.Vec3{
		-math.Sin(pitch) * math.Cos(yaw),
		-math.Sin(pitch) * math.Sin(yaw),
		math.Cos(pitch),
	}
	return math.Atan2(f.Left.Dot(refUp), f.Left.Dot(refLeft))
}

// Probe returns the point reached by starting at origin with
// orientation f, yawing by turn and then moving distance along the new
// forward vector. f is not modified.
func Probe(origin mgl64.Vec3, f Frame, turn, distance float64) mgl64.Vec3 {
	f.Yaw(turn)
	return origin.Add(f.Forward.Mul(distance))
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
