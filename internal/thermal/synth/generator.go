package synth

import (
	"math/rand"
	"time"

	"github.com/banshee-data/thermal.screen/internal/thermal/frame"
)

// Generator plays a repeating screening visit: an empty scene, a person
// walking up to the sensor, standing still, then stepping out sideways.
type Generator struct {
	index int
	start time.Time
	prev  []float32

	// Configuration
	EmptyFrames    int
	ApproachFrames int
	HoldFrames     int
	LeaveFrames    int
	FrameRate      float64 // frames per second
	StartScale     float64 // person scale on the first approach frame
	NoiseSigma     float64
	MotionDelta    float32
	Person         Person
	Disk           *Disk

	rng *rand.Rand
}

// NewGenerator creates a generator with the default person and disk. The
// seed makes runs reproducible.
func NewGenerator(seed int64, start time.Time) *Generator {
	d := DefaultDisk()
	return &Generator{
		start:          start,
		EmptyFrames:    5,
		ApproachFrames: 10,
		HoldFrames:     12,
		LeaveFrames:    10,
		FrameRate:      8.7,
		StartScale:     0.5,
		NoiseSigma:     2,
		MotionDelta:    30,
		Person:         DefaultPerson(),
		Disk:           &d,
		rng:            rand.New(rand.NewSource(seed)),
	}
}

// Period is the number of frames in one visit.
func (g *Generator) Period() int {
	return 2*g.EmptyFrames + g.ApproachFrames + g.HoldFrames + g.LeaveFrames
}

// SceneAt returns the scene for frame index i.
func (g *Generator) SceneAt(i int) Scene {
	s := Scene{Background: BackgroundTemp, Disk: g.Disk, NoiseSigma: g.NoiseSigma}
	i %= g.Period()

	var p Person
	switch {
	case i < g.EmptyFrames:
		return s
	case i < g.EmptyFrames+g.ApproachFrames:
		t := float64(i-g.EmptyFrames+1) / float64(g.ApproachFrames)
		p = g.Person.Scaled(g.StartScale+(1-g.StartScale)*t, 0)
	case i < g.EmptyFrames+g.ApproachFrames+g.HoldFrames:
		p = g.Person
	case i < g.Period()-g.EmptyFrames:
		k := i - g.EmptyFrames - g.ApproachFrames - g.HoldFrames + 1
		dx := float64(k) / float64(g.LeaveFrames) * float64(frame.Width)
		p = g.Person.Scaled(1, dx)
	default:
		return s
	}
	s.Person = &p
	return s
}

// NextFrame renders the next frame of the visit.
func (g *Generator) NextFrame() *frame.Frame {
	i := g.index
	g.index++
	at := g.start.Add(time.Duration(float64(i) / g.FrameRate * float64(time.Second)))
	f := g.SceneAt(i).render(i, at, g.rng, g.prev, g.MotionDelta)
	g.prev = f.Smoothed
	return f
}
