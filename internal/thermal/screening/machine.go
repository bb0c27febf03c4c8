package screening

import (
	"math"

	"github.com/banshee-data/thermal.screen/internal/config"
	"github.com/banshee-data/thermal.screen/internal/monitoring"
	"github.com/banshee-data/thermal.screen/internal/thermal/face"
	"github.com/banshee-data/thermal.screen/internal/thermal/geom"
	"github.com/banshee-data/thermal.screen/internal/thermal/shape"
	"github.com/banshee-data/thermal.screen/internal/thermal/thermalref"
)

// Config holds the state machine tunables.
type Config struct {
	MinFaceArea     float64 // smaller heads are TOO_FAR
	MoveAreaDelta   float64 // head area change that counts as movement
	MoveCornerDelta float64 // head corner displacement that counts as movement, pixels
	StableFrames    int     // held FRONTAL_LOCK frames needed beyond this to capture
	WarmupFrames    int     // frames spent in WARMING_UP at session start
}

// DefaultConfig returns the state machine defaults.
func DefaultConfig() Config {
	return ConfigFromTuning(config.DefaultTuningConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		MinFaceArea:     cfg.GetMinFaceArea(),
		MoveAreaDelta:   cfg.GetMoveAreaDelta(),
		MoveCornerDelta: cfg.GetMoveCornerDelta(),
		StableFrames:    cfg.GetStableFrames(),
		WarmupFrames:    cfg.GetWarmupFrames(),
	}
}

// Input is what one frame contributes to the state machine.
type Input struct {
	Face *face.Info
	Body shape.Shape
	Ref  *thermalref.ROI
}

// Machine tracks one session's screening state. It is not safe for
// concurrent use; each session owns its own Machine.
type Machine struct {
	cfg      Config
	state    State
	count    int
	lastFace *face.Info
}

// NewMachine starts in WARMING_UP when warm-up frames are configured and in
// READY otherwise.
func NewMachine(cfg Config) *Machine {
	m := &Machine{cfg: cfg, state: Ready, count: 1}
	if cfg.WarmupFrames > 0 {
		m.state = WarmingUp
	}
	return m
}

// Restore returns a machine positioned at state with the given count and
// previous face.
func Restore(cfg Config, state State, count int, lastFace *face.Info) *Machine {
	return &Machine{cfg: cfg, state: state, count: count, lastFace: lastFace}
}

func (m *Machine) State() State { return m.state }

// Count is the number of consecutive frames spent in the current state.
func (m *Machine) Count() int { return m.count }

func (m *Machine) LastFace() *face.Info { return m.lastFace }

// Advance proposes a move to next. An accepted move resets the count to 1.
// A rejected one leaves the state alone and increments the count.
func (m *Machine) Advance(next State) bool {
	if !Accepts(m.state, next) {
		m.count++
		return false
	}
	monitoring.Diagf("[Screening] %s -> %s after %d frames", m.state, next, m.count)
	m.state = next
	m.count = 1
	return true
}

// Update runs one frame through the machine and reports any event the
// resulting transition produced.
func (m *Machine) Update(in Input) Event {
	from := m.state
	next := m.propose(in)
	m.lastFace = in.Face
	if !m.Advance(next) {
		return EventNone
	}
	switch {
	case next == StableLock:
		return EventCaptured
	case from == Leaving && next == Ready:
		return EventRecorded
	}
	return EventNone
}

func (m *Machine) propose(in Input) State {
	if m.state == WarmingUp {
		switch {
		case m.count < m.cfg.WarmupFrames:
			return WarmingUp
		case in.Ref == nil:
			return MissingThermalRef
		}
		return Ready
	}
	switch {
	case m.state == StableLock:
		return Leaving
	case in.Ref == nil:
		return MissingThermalRef
	case in.Face != nil:
		return m.proposeFace(in.Face, in.Ref)
	case len(in.Body) > 0:
		return LargeBody
	}
	return Ready
}

func (m *Machine) proposeFace(f *face.Info, ref *thermalref.ROI) State {
	switch {
	case f.Area() < m.cfg.MinFaceArea:
		return TooFar
	case geom.QuadIntersectsBox(f.Head, ref.Box()):
		return LargeBody
	case f.HeadLock == 0:
		return HeadLock
	}

	moved := m.moved(f)
	if moved {
		m.count = max(m.count-1, 0)
	}
	if m.state == FrontalLock && !moved && f.HeadLock == 1 && m.count > m.cfg.StableFrames {
		return StableLock
	}
	return FrontalLock
}

// moved reports whether f differs from the previous frame's face by more
// than the movement limits. A missing or turned-away previous face counts
// as movement.
func (m *Machine) moved(f *face.Info) bool {
	prev := m.lastFace
	if prev == nil || prev.HeadLock == 0 {
		return true
	}
	if math.Abs(f.Area()-prev.Area()) > m.cfg.MoveAreaDelta {
		return true
	}
	for i := range f.Head {
		if geom.Distance(f.Head[i], prev.Head[i]) > m.cfg.MoveCornerDelta {
			return true
		}
	}
	return false
}
