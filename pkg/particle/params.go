package particle

// Physics
const (
	// Gravity is the downward acceleration in units/s².
	Gravity = 980.0
	// AirResistance multiplies both velocity components every tick.
	AirResistance = 0.97
	// Turbulence bounds the random horizontal acceleration in units/s².
	Turbulence = 50.0
)

// Retirement
const (
	// FadeStep is subtracted from opacity every tick below the screen.
	FadeStep = 0.03
	// ShrinkStep is subtracted from scale every tick below the screen.
	ShrinkStep = 0.02
	// MinScale is the floor of the shrink.
	MinScale = 0.2
	// MaxScale is the spawn scale.
	MaxScale = 1.0
)

// Spawn
const (
	// SpawnY places new particles just above the visible area.
	SpawnY = -50.0

	SpawnMinVelocityX = -100.0
	SpawnMaxVelocityX = 100.0
	SpawnMinVelocityY = 0.0
	SpawnMaxVelocityY = 50.0

	// SpawnMaxSpin bounds the initial angular velocity in rad/s.
	SpawnMaxSpin = 2.0
)
