// Package animation runs bounded particle animation sessions on the run
// loop and hands every frame to a renderer.
package animation

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battmoji/pkg/particle"
	"github.com/charlie0129/battmoji/pkg/runloop"
)

const (
	// ParticleCount is the size of every spawned batch.
	ParticleCount = 15
	// TickRate is the number of simulation steps per second.
	TickRate = 60
	// DefaultTimeout bounds a session regardless of the batch.
	DefaultTimeout = 3 * time.Second

	DefaultScreenWidth  = 1440.0
	DefaultScreenHeight = 900.0
	DefaultGlyph        = "⚡️"
)

// State of the controller.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// Frame is what renderers draw. Particles is never mutated after the frame
// is published, so frames can be shared freely.
type Frame struct {
	Running   bool                 `json:"running"`
	Session   string               `json:"session,omitempty"`
	Tick      int                  `json:"tick"`
	Glyph     string               `json:"glyph"`
	Particles []particle.Transform `json:"particles"`
}

// Sink receives session signals. Methods are called on the run loop and
// must not block.
type Sink interface {
	// Reset tells renderers to clear whatever they show. It is sent before
	// the batch of a new session is spawned.
	Reset(session string)
	Frame(f Frame)
	Hide(session string)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Reset(string) {}
func (NopSink) Frame(Frame)  {}
func (NopSink) Hide(string)  {}

// Options configure a Controller. Zero values use the defaults.
type Options struct {
	Glyph        string
	ScreenWidth  float64
	ScreenHeight float64
	Timeout      time.Duration
	System       *particle.System
	Clock        Clock
}

// Controller owns at most one animation session at a time. The batch and the
// session state are only touched on the run loop.
type Controller struct {
	loop    *runloop.Loop
	sink    Sink
	system  *particle.System
	clock   Clock
	timeout time.Duration

	// Loop-owned session state.
	batch        particle.Batch
	deadline     time.Time
	stopTicks    func()
	tick         int
	screenHeight float64

	mu      sync.RWMutex
	state   State
	session string
	frame   Frame
	glyph   string
	width   float64
	height  float64
}

func New(loop *runloop.Loop, sink Sink, opts Options) *Controller {
	if sink == nil {
		sink = NopSink{}
	}
	if opts.Glyph == "" {
		opts.Glyph = DefaultGlyph
	}
	if opts.ScreenWidth <= 0 {
		opts.ScreenWidth = DefaultScreenWidth
	}
	if opts.ScreenHeight <= 0 {
		opts.ScreenHeight = DefaultScreenHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.System == nil {
		opts.System = particle.NewSystem(nil)
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}

	return &Controller{
		loop:    loop,
		sink:    sink,
		system:  opts.System,
		clock:   opts.Clock,
		timeout: opts.Timeout,
		glyph:   opts.Glyph,
		width:   opts.ScreenWidth,
		height:  opts.ScreenHeight,
		frame:   Frame{Glyph: opts.Glyph, Particles: []particle.Transform{}},
	}
}

// Start begins a session and reports whether one was started. A start while
// a session is running is ignored. Start can be called from any goroutine
// except the run loop itself.
func (c *Controller) Start() bool {
	started := false
	if err := c.loop.Do(func() { started = c.start() }); err != nil {
		logrus.WithError(err).Warn("failed to start animation")
		return false
	}
	return started
}

// StartAsync is Start for callers running on the loop or not interested in
// the result.
func (c *Controller) StartAsync() {
	if err := c.loop.Post(func() { c.start() }); err != nil {
		logrus.WithError(err).Warn("failed to start animation")
	}
}

func (c *Controller) start() bool {
	c.mu.RLock()
	running := c.state == Running
	width, height := c.width, c.height
	c.mu.RUnlock()

	if running {
		logrus.Debug("animation already running, ignoring start")
		return false
	}

	session := uuid.NewString()
	c.sink.Reset(session)

	c.batch = c.system.SpawnBatch(ParticleCount, width)
	c.screenHeight = height
	c.tick = 0
	c.deadline = c.clock.Now().Add(c.timeout)

	c.mu.Lock()
	c.state = Running
	c.session = session
	c.mu.Unlock()

	c.stopTicks = c.clock.Every(time.Second/TickRate, func() {
		// A tick posted after its session ended is dropped in step.
		_ = c.loop.Post(func() { c.step(session) })
	})

	logrus.WithFields(logrus.Fields{
		"session":   session,
		"particles": len(c.batch),
		"width":     width,
		"height":    height,
	}).Debug("animation started")

	c.publish()
	return true
}

func (c *Controller) step(session string) {
	c.mu.RLock()
	current := c.state == Running && c.session == session
	c.mu.RUnlock()
	if !current {
		return
	}

	c.batch = c.system.Step(c.batch, 1.0/TickRate, c.screenHeight)
	c.tick++

	switch {
	case len(c.batch) == 0:
		c.finish("batch empty")
	case !c.clock.Now().Before(c.deadline):
		c.finish("timeout")
	default:
		c.publish()
	}
}

// publish stores a copy of the batch as the current frame and hands it to
// the sink.
func (c *Controller) publish() {
	c.mu.Lock()
	f := Frame{
		Running:   c.state == Running,
		Session:   c.session,
		Tick:      c.tick,
		Glyph:     c.glyph,
		Particles: c.batch.Transforms(),
	}
	c.frame = f
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"tick":      f.Tick,
		"particles": len(f.Particles),
	}).Trace("animation frame")
	c.sink.Frame(f)
}

func (c *Controller) finish(reason string) {
	if c.stopTicks != nil {
		c.stopTicks()
		c.stopTicks = nil
	}
	c.batch = nil

	c.mu.Lock()
	session := c.session
	c.state = Idle
	c.frame = Frame{Session: session, Tick: c.tick, Glyph: c.glyph, Particles: []particle.Transform{}}
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"session": session,
		"ticks":   c.tick,
		"reason":  reason,
	}).Debug("animation finished")
	c.sink.Hide(session)
}

// Stop ends the running session, if any.
func (c *Controller) Stop() error {
	return c.loop.Do(func() {
		if c.State() == Running {
			c.finish("stopped")
		}
	})
}

// Snapshot returns the latest frame.
func (c *Controller) Snapshot() Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frame
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) Running() bool {
	return c.State() == Running
}

// SetGlyph changes the glyph carried by frames, including those of the
// running session.
func (c *Controller) SetGlyph(glyph string) {
	if glyph == "" {
		return
	}
	c.mu.Lock()
	c.glyph = glyph
	c.frame.Glyph = glyph
	c.mu.Unlock()
}

func (c *Controller) Glyph() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.glyph
}

// SetScreen changes the bounds used by sessions started afterwards.
// Non-positive sizes are ignored.
func (c *Controller) SetScreen(width, height float64) {
	if width <= 0 || height <= 0 {
		logrus.WithFields(logrus.Fields{
			"width":  width,
			"height": height,
		}).Warn("ignoring invalid screen size")
		return
	}
	c.mu.Lock()
	c.width, c.height = width, height
	c.mu.Unlock()
}
