package pattern

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/turtle"
)

// Chase describes a turtle chasing a lead point around a boundary.
// The chaser turns right by Angle whenever it is falling behind the
// lead, and otherwise turns by a random angle within Angle-15 either
// way. Each sub-step moves it Movement forward.
type Chase struct {
	Angle    float64
	Movement float64
	// ZInc, if positive, is climbed at every sub-step.
	ZInc float64
	// Rand supplies the random turns. Nil means a source seeded with 1.
	Rand *rand.Rand
}

// NewChase returns the default chase, with randomness from seed.
func NewChase(seed int64) Chase {
	return Chase{Angle: 50, Movement: 1, Rand: rand.New(rand.NewSource(seed))}
}

const (
	chaseSteps      = 10
	smallChaseSteps = 12
	// smallChase is the point count below which the chaser takes
	// more, shorter steps.
	smallChase   = 15
	smallChaseBy = 3.5
	// chaseSlack is how much narrower the random turns are than Angle.
	chaseSlack = 15
)

// xyDistSq is the squared distance between a and b in the XY plane.
func xyDistSq(a, b mgl64.Vec3) float64 {
	dx, dy := a[0]-b[0], a[1]-b[1]
	return dx*dx + dy*dy
}

// FollowClosedLineChase moves t in pursuit of a lead that visits each
// of pts in turn, giving a ragged, organic line near the boundary.
func FollowClosedLineChase(t *turtle.Turtle, pts []mgl64.Vec3, c Chase) {
	if len(pts) == 0 {
		return
	}
	defer t.InDegrees()()
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(1))
	}
	steps, movement := chaseSteps, c.Movement
	if len(pts) < smallChase {
		steps, movement = smallChaseSteps, c.Movement/smallChaseBy
	}
	spread := int(c.Angle - chaseSlack)
	if spread < 0 {
		spread = 0
	}
	prev := 1e7
	for _, lead := range pts {
		for s := 0; s < steps; s++ {
			d := xyDistSq(lead, t.Position())
			if d > prev {
				t.Right(c.Angle)
			} else {
				t.Right(float64(c.Rand.Intn(2*spread+1) - spread))
			}
			t.Forward(movement)
			if c.ZInc > 0 {
				t.Lift(c.ZInc)
			}
			prev = d
		}
	}
}
