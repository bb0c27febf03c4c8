// Package frame defines the radiometric frame consumed by the screening
// pipeline, the mask bit contract, heat statistics and the binary frame
// stream format.
package frame

import "time"

// Sensor dimensions. Frames are stored row-major, Width columns per row.
const (
	Width  = 120
	Height = 160
)

// Mask bits. The positions are an external contract shared with recorders.
const (
	BitThreshold uint8 = 1 << 0
	BitMotion    uint8 = 1 << 1
)

// Stats are the per-frame heat statistics.
type Stats struct {
	Min       float32
	Max       float32
	Threshold float32
}

// Frame is one radiometric sample of the sensor.
type Frame struct {
	Index  int
	Time   time.Time
	Width  int
	Height int

	// Smoothed holds normalised temperature-proxy values.
	Smoothed []float32
	// EdgeSource feeds the thermal reference edge map. It is usually the
	// median-filtered frame; Smoothed is used when absent.
	EdgeSource []float32
	Mask       []uint8
	Stats      Stats
}

// New allocates a zeroed frame of the given size.
func New(width, height int) *Frame {
	n := width * height
	return &Frame{
		Width:    width,
		Height:   height,
		Smoothed: make([]float32, n),
		Mask:     make([]uint8, n),
	}
}

// In reports whether (x, y) is inside the frame.
func (f *Frame) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.Width && y < f.Height
}

// At returns the smoothed value at (x, y), or 0 outside the frame.
func (f *Frame) At(x, y int) float32 {
	if !f.In(x, y) {
		return 0
	}
	return f.Smoothed[y*f.Width+x]
}

// MaskAt returns the mask byte at (x, y), or 0 outside the frame.
func (f *Frame) MaskAt(x, y int) uint8 {
	if !f.In(x, y) || len(f.Mask) == 0 {
		return 0
	}
	return f.Mask[y*f.Width+x]
}

// Edges returns the edge source, falling back to Smoothed.
func (f *Frame) Edges() []float32 {
	if len(f.EdgeSource) == f.Width*f.Height {
		return f.EdgeSource
	}
	return f.Smoothed
}

// Smoother turns a raw sensor grid into the smoothed grid and the edge
// source. Implementations live outside this module; Identity is provided
// for streams that are already smoothed.
type Smoother interface {
	Smooth(raw []float32, width, height int) (smoothed, edgeSource []float32)
}

// Identity is a Smoother that returns its input unchanged.
type Identity struct{}

func (Identity) Smooth(raw []float32, _, _ int) ([]float32, []float32) {
	return raw, raw
}
