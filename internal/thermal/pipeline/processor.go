package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/thermal.screen/internal/config"
	"github.com/banshee-data/thermal.screen/internal/monitoring"
	"github.com/banshee-data/thermal.screen/internal/thermal/face"
	"github.com/banshee-data/thermal.screen/internal/thermal/frame"
	"github.com/banshee-data/thermal.screen/internal/thermal/regions"
	"github.com/banshee-data/thermal.screen/internal/thermal/screening"
	"github.com/banshee-data/thermal.screen/internal/thermal/shape"
	"github.com/banshee-data/thermal.screen/internal/thermal/thermalref"
)

// Capture is the measurement taken when a session reaches STABLE_LOCK.
type Capture struct {
	SessionID  uuid.UUID
	FrameIndex int
	At         time.Time
	Sample     face.Sample
	// Reference is the mean value inside the calibration disk.
	Reference float32
	Threshold float32
	HeadLock  float64
	FaceArea  float64
}

// FrameResult is the per-frame decision handed to persistence and
// reporting.
type FrameResult struct {
	FrameIndex int
	State      screening.State
	Count      int
	Event      screening.Event
	Face       *face.Info
	// Shapes are the classified regions; Body is the largest of them after
	// crack filling and extension to the bottom edge.
	Shapes   []shape.Shape
	Body     shape.Shape
	Ref      *thermalref.ROI
	DidMerge bool
	Capture  *Capture
}

// PersistenceSink stores screenings. Implementations live outside the
// thermal packages (see internal/db).
type PersistenceSink interface {
	// RecordCapture stores a new measurement.
	RecordCapture(ctx context.Context, c Capture) error
	// MarkRecorded finalises the session's open measurement once the
	// person has left.
	MarkRecorded(ctx context.Context, c Capture) error
}

// FrameObserver receives every processed frame, for plots and debug views.
type FrameObserver interface {
	ObserveFrame(s *SessionState, r *FrameResult)
}

// FrameSource yields frames in order and io.EOF at the end.
type FrameSource interface {
	Next() (*frame.Frame, error)
}

// Config gathers the stage configurations.
type Config struct {
	MotionDelta  float32
	StatsSigma   float64
	CrackMaxRows int

	ThermalRef thermalref.Config
	Regions    regions.Config
	Face       face.Config
	Screening  screening.Config
}

// DefaultConfig returns the defaults of every stage.
func DefaultConfig() Config {
	return ConfigFromTuning(config.DefaultTuningConfig())
}

// ConfigFromTuning builds every stage configuration from one tuning file.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		MotionDelta:  float32(cfg.GetMotionDelta()),
		StatsSigma:   cfg.GetStatsThresholdSigma(),
		CrackMaxRows: cfg.GetCrackMaxRows(),
		ThermalRef:   thermalref.ConfigFromTuning(cfg),
		Regions:      regions.ConfigFromTuning(cfg),
		Face:         face.ConfigFromTuning(cfg),
		Screening:    screening.ConfigFromTuning(cfg),
	}
}

// ProcessorConfig holds the dependencies of a Processor.
type ProcessorConfig struct {
	Config   Config
	Smoother frame.Smoother  // Optional: applied when a frame has no edge source
	Sink     PersistenceSink // Optional: receives captures
	// Observers are called after every frame, in order.
	Observers []FrameObserver
}

// Processor runs frames through the stages. It keeps no per-session state
// and may be shared by goroutines processing different sessions.
type Processor struct {
	cfg        Config
	smoother   frame.Smoother
	sink       PersistenceSink
	observers  []FrameObserver
	refs       *thermalref.Detector
	classifier *regions.Classifier
	faces      *face.Reconstructor
}

func NewProcessor(pc ProcessorConfig) *Processor {
	p := &Processor{
		cfg:        pc.Config,
		smoother:   pc.Smoother,
		observers:  pc.Observers,
		refs:       thermalref.NewDetector(pc.Config.ThermalRef),
		classifier: regions.NewClassifier(pc.Config.Regions),
		faces:      face.NewReconstructor(pc.Config.Face),
	}
	if !isNilInterface(pc.Sink) {
		p.sink = pc.Sink
	}
	return p
}

// NewSession starts a session using the processor's screening settings.
func (p *Processor) NewSession() *SessionState {
	return NewSession(p.cfg.Screening)
}

// ProcessFrame runs one frame and advances s. Detection failures are not
// errors: they show up as nil fields in the result. Sink failures are
// logged and do not stop the session.
func (p *Processor) ProcessFrame(ctx context.Context, s *SessionState, fr *frame.Frame) *FrameResult {
	p.prepare(s, fr)

	ref := p.refs.Detect(fr.Edges(), fr.Smoothed, s.Ref, fr.Width, fr.Height)
	if (ref == nil) != (s.Ref == nil) {
		if ref == nil {
			monitoring.Diagf("[ThermalRef] Lost reference on frame %d", fr.Index)
		} else {
			monitoring.Diagf("[ThermalRef] Found reference r=%d at (%d,%d) on frame %d", ref.Radius, ref.X0, ref.Y0, fr.Index)
		}
	}
	s.Ref = ref

	raw := shape.Extract(fr.Mask, fr.Width, fr.Height, frame.BitThreshold)
	classified := p.classifier.Classify(raw, ref)

	var info *face.Info
	body := shape.Largest(classified.Shapes)
	if body != nil {
		body = body.FillVerticalCracks(p.cfg.CrackMaxRows).ExtendToBottom(fr.Height)
		info = p.faces.Reconstruct(body, fr, classified.DidMerge)
	}

	ev := s.Machine.Update(screening.Input{Face: info, Body: body, Ref: ref})
	res := &FrameResult{
		FrameIndex: fr.Index,
		State:      s.Machine.State(),
		Count:      s.Machine.Count(),
		Event:      ev,
		Face:       info,
		Shapes:     classified.Shapes,
		Body:       body,
		Ref:        ref,
		DidMerge:   classified.DidMerge,
	}

	switch ev {
	case screening.EventCaptured:
		res.Capture = p.capture(ctx, s, fr, info, ref)
	case screening.EventRecorded:
		p.record(ctx, s)
	}

	monitoring.Tracef("[Pipeline] frame=%d state=%s count=%d face=%t shapes=%d",
		fr.Index, res.State, res.Count, info != nil, len(classified.Shapes))

	s.prevSmoothed = fr.Smoothed
	s.Frames++
	for _, o := range p.observers {
		o.ObserveFrame(s, res)
	}
	return res
}

// prepare fills in the parts of fr a stream may leave out: edge source,
// heat statistics and mask. A supplied mask is kept even when no bit is set.
func (p *Processor) prepare(s *SessionState, fr *frame.Frame) {
	if p.smoother != nil && len(fr.EdgeSource) == 0 {
		fr.Smoothed, fr.EdgeSource = p.smoother.Smooth(fr.Smoothed, fr.Width, fr.Height)
	}
	if fr.Stats.Zero() {
		fr.Stats = frame.ComputeStats(fr.Smoothed, p.cfg.StatsSigma)
	}
	if len(fr.Mask) != len(fr.Smoothed) {
		fr.Mask = frame.BuildMask(fr.Smoothed, s.prevSmoothed, fr.Stats.Threshold, p.cfg.MotionDelta)
	}
}

func (p *Processor) capture(ctx context.Context, s *SessionState, fr *frame.Frame, info *face.Info, ref *thermalref.ROI) *Capture {
	sample, ok := p.faces.HottestSpot(info, fr, fr.Stats.Threshold)
	if !ok {
		monitoring.Opsf("[Pipeline] No forehead sample on captured frame %d", fr.Index)
	}
	c := &Capture{
		SessionID:  s.ID,
		FrameIndex: fr.Index,
		At:         fr.Time,
		Sample:     sample,
		Threshold:  fr.Stats.Threshold,
		HeadLock:   info.HeadLock,
		FaceArea:   info.Area(),
	}
	if ref != nil {
		c.Reference = ref.SensorValue
	}
	s.Captured = c
	monitoring.Diagf("[Pipeline] Captured %.1f (reference %.1f) at (%d,%d) on frame %d",
		sample.Value, c.Reference, sample.X, sample.Y, fr.Index)

	if p.sink != nil {
		if err := p.sink.RecordCapture(ctx, *c); err != nil {
			monitoring.Opsf("[Pipeline] Failed to record capture for session %s: %v", s.ID, err)
		}
	}
	return c
}

func (p *Processor) record(ctx context.Context, s *SessionState) {
	c := s.Captured
	s.Captured = nil
	if c == nil || p.sink == nil {
		return
	}
	if err := p.sink.MarkRecorded(ctx, *c); err != nil {
		monitoring.Opsf("[Pipeline] Failed to mark session %s recorded: %v", s.ID, err)
	}
}

// Run processes every frame from src, stopping early when ctx is done.
// Cancellation is checked between frames only.
func (p *Processor) Run(ctx context.Context, s *SessionState, src FrameSource) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fr, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read frame %d: %w", s.Frames, err)
		}
		p.ProcessFrame(ctx, s, fr)
	}
}

// isNilInterface reports whether i is nil or holds a nil pointer.
func isNilInterface(i interface{}) bool {
	if i == nil {
		return true
	}
	v := reflect.ValueOf(i)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
