// Package synth renders synthetic thermal scenes: a person standing in
// front of the sensor and a calibration disk. It feeds the end-to-end tests
// and the gen-frames tool.
package synth

import (
	"math"
	"math/rand"
	"time"

	"github.com/banshee-data/thermal.screen/internal/thermal/frame"
)

// Raw-count temperatures used by the default scene.
const (
	BackgroundTemp = 2900
	SkinTemp       = 3150
	NoseTemp       = 3080
	DiskTemp       = 3450
)

// Person is a head ellipse on a neck on a torso that runs off the bottom of
// the frame. Distances are in pixels.
type Person struct {
	CX        float64
	HeadCY    float64
	HeadA     float64 // horizontal semi-axis
	HeadB     float64 // vertical semi-axis
	NeckHalf  float64
	NeckTop   float64
	TorsoTop  float64
	TorsoHalf float64
	// NoseDX offsets the cool nose spot from CX. The nose sits 40% of the
	// way from the neck to the top of the head.
	NoseDX float64
	Temp   float32
	Nose   float32
}

// DefaultPerson is an adult close enough to be screened.
func DefaultPerson() Person {
	return Person{
		CX:        60,
		HeadCY:    55,
		HeadA:     20,
		HeadB:     28,
		NeckHalf:  9,
		NeckTop:   76,
		TorsoTop:  92,
		TorsoHalf: 38,
		Temp:      SkinTemp,
		Nose:      NoseTemp,
	}
}

// Scaled returns p shrunk by s about the bottom centre of the frame and
// shifted right by dx.
func (p Person) Scaled(s, dx float64) Person {
	bottom := float64(frame.Height)
	scaleY := func(y float64) float64 { return bottom - (bottom-y)*s }
	return Person{
		CX:        p.CX + dx,
		HeadCY:    scaleY(p.HeadCY),
		HeadA:     p.HeadA * s,
		HeadB:     p.HeadB * s,
		NeckHalf:  p.NeckHalf * s,
		NeckTop:   scaleY(p.NeckTop),
		TorsoTop:  scaleY(p.TorsoTop),
		TorsoHalf: p.TorsoHalf * s,
		NoseDX:    p.NoseDX * s,
		Temp:      p.Temp,
		Nose:      p.Nose,
	}
}

// contains reports whether the pixel centre (x, y) is on the person.
func (p Person) contains(x, y float64) bool {
	dx := (x - p.CX) / p.HeadA
	dy := (y - p.HeadCY) / p.HeadB
	if dx*dx+dy*dy <= 1 {
		return true
	}
	if y >= p.NeckTop && math.Abs(x-p.CX) <= p.NeckHalf {
		return true
	}
	return y >= p.TorsoTop && math.Abs(x-p.CX) <= p.TorsoHalf
}

func (p Person) isNose(x, y float64) bool {
	if p.Nose == 0 {
		return false
	}
	neckY := p.NeckTop + (p.TorsoTop-p.NeckTop)/4
	topY := p.HeadCY - p.HeadB
	ny := neckY - 0.4*(neckY-topY)
	return math.Abs(x-(p.CX+p.NoseDX)) <= 1 && math.Abs(y-ny) <= 3
}

// Disk is the calibration reference.
type Disk struct {
	CX, CY, R float64
	Temp      float32
}

// DefaultDisk sits in the top right corner.
func DefaultDisk() Disk {
	return Disk{CX: 100.5, CY: 15.5, R: 6, Temp: DiskTemp}
}

// Scene is everything visible in one frame.
type Scene struct {
	Background float32
	Person     *Person
	Disk       *Disk
	// NoiseSigma adds gaussian noise when a generator is supplied.
	NoiseSigma float64
}

// Threshold is the adaptive threshold written into rendered frames.
func (s Scene) Threshold() float32 {
	return (s.Background + SkinTemp) / 2
}

// Render draws the scene into a new frame with stats and mask filled in.
func (s Scene) Render(index int, at time.Time, rng *rand.Rand) *frame.Frame {
	return s.render(index, at, rng, nil, 0)
}

func (s Scene) render(index int, at time.Time, rng *rand.Rand, prev []float32, motionDelta float32) *frame.Frame {
	f := frame.New(frame.Width, frame.Height)
	f.Index = index
	f.Time = at

	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			cx, cy := float64(x)+0.5, float64(y)+0.5
			v := s.Background
			if s.Person != nil && s.Person.contains(cx, cy) {
				v = s.Person.Temp
				if s.Person.isNose(cx, cy) {
					v = s.Person.Nose
				}
			}
			if s.Disk != nil && math.Hypot(cx-s.Disk.CX, cy-s.Disk.CY) <= s.Disk.R {
				v = s.Disk.Temp
			}
			if rng != nil && s.NoiseSigma > 0 {
				v += float32(rng.NormFloat64() * s.NoiseSigma)
			}
			f.Smoothed[y*frame.Width+x] = v
		}
	}

	st := frame.ComputeStats(f.Smoothed, 0)
	st.Threshold = s.Threshold()
	f.Stats = st
	f.Mask = frame.BuildMask(f.Smoothed, prev, st.Threshold, motionDelta)
	return f
}
