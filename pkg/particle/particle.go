// Package particle simulates the falling emoji animation.
//
// The simulation is a fixed-timestep integration of independent particles
// under gravity, air resistance and horizontal turbulence. Particles that
// fall below the screen fade and shrink until they are removed.
package particle

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// Vec2 is a screen-space vector. Y grows downwards.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Scale(f float64) Vec2 {
	return Vec2{X: v.X * f, Y: v.Y * f}
}

// Particle is one falling glyph.
type Particle struct {
	ID              uuid.UUID `json:"id"`
	Position        Vec2      `json:"position"`
	Velocity        Vec2      `json:"velocity"`
	Rotation        float64   `json:"rotation"`
	AngularVelocity float64   `json:"angularVelocity"`
	Scale           float64   `json:"scale"`
	Opacity         float64   `json:"opacity"`
}

// Retiring reports whether the particle is below the screen and fading.
func (p Particle) Retiring(screenHeight float64) bool {
	return p.Position.Y > screenHeight
}

// Transform is what a renderer needs to draw a particle.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	Scale    float64 `json:"scale"`
	Opacity  float64 `json:"opacity"`
}

func (p Particle) Transform() Transform {
	return Transform{
		X:        p.Position.X,
		Y:        p.Position.Y,
		Rotation: p.Rotation,
		Scale:    p.Scale,
		Opacity:  p.Opacity,
	}
}

// Batch is the ordered set of particles of one animation session.
type Batch []Particle

// Clone returns a copy that does not share memory with b.
func (b Batch) Clone() Batch {
	if b == nil {
		return nil
	}
	out := make(Batch, len(b))
	copy(out, b)
	return out
}

// Transforms returns the render transforms of every particle, in order.
func (b Batch) Transforms() []Transform {
	out := make([]Transform, len(b))
	for i, p := range b {
		out[i] = p.Transform()
	}
	return out
}

// System spawns and integrates batches. All randomness comes from the
// injected generator, so a fixed seed reproduces a run exactly.
// A System is not safe for concurrent use.
type System struct {
	rng *rand.Rand
}

// NewSystem returns a system drawing from rng. A nil rng gets a randomly
// seeded generator.
func NewSystem(rng *rand.Rand) *System {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &System{rng: rng}
}

// NewSeededSystem returns a system with a deterministic generator.
func NewSeededSystem(seed uint64) *System {
	return NewSystem(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func (s *System) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// SpawnBatch creates count particles spread across the screen width, just
// above the top edge. count and screenWidth must be positive.
func (s *System) SpawnBatch(count int, screenWidth float64) Batch {
	b := make(Batch, count)
	for i := range b {
		b[i] = Particle{
			ID:       uuid.New(),
			Position: Vec2{X: s.uniform(0, screenWidth), Y: SpawnY},
			Velocity: Vec2{
				X: s.uniform(SpawnMinVelocityX, SpawnMaxVelocityX),
				Y: s.uniform(SpawnMinVelocityY, SpawnMaxVelocityY),
			},
			AngularVelocity: s.uniform(-SpawnMaxSpin, SpawnMaxSpin),
			Rotation:        0,
			Scale:           MaxScale,
			Opacity:         1,
		}
	}
	return b
}

// Step advances every particle by dt seconds and removes the ones that have
// faded out. b is updated in place; the returned batch shares its backing
// array.
//
// The order matters: drag applies to the velocity including this tick's
// gravity, and turbulence is added after drag so it is not damped in the
// same tick.
func (s *System) Step(b Batch, dt, screenHeight float64) Batch {
	for i := range b {
		p := &b[i]

		p.Velocity.Y += Gravity * dt
		p.Velocity = p.Velocity.Scale(AirResistance)
		p.Velocity.X += s.uniform(-Turbulence, Turbulence) * dt

		p.Position = p.Position.Add(p.Velocity.Scale(dt))
		p.Rotation += p.AngularVelocity * dt

		if p.Retiring(screenHeight) {
			p.Opacity -= FadeStep
			p.Scale = max(MinScale, p.Scale-ShrinkStep)
		}
	}

	alive := b[:0]
	for _, p := range b {
		if p.Opacity > 0 {
			alive = append(alive, p)
		}
	}
	// Clear the tail so removed particles are not kept reachable.
	for i := len(alive); i < len(b); i++ {
		b[i] = Particle{}
	}
	return alive
}
