// Package thermalref locates the thermal calibration disk in a frame and
// tracks it across frames.
package thermalref

import (
	"github.com/banshee-data/thermal.screen/internal/config"
	"github.com/banshee-data/thermal.screen/internal/monitoring"
	"github.com/banshee-data/thermal.screen/internal/thermal/geom"
)

// sweepStartRadius is the first radius of the detection sweep.
const sweepStartRadius = 3

// Config holds the detector tunables.
type Config struct {
	EdgeThreshold     float32
	MinRadius         int // accepted radii are strictly above this
	MaxRadius         int // and strictly below this
	SweepMaxRadius    int
	MaxSensorMissing  int
	PersistScoreRatio float64
}

// DefaultConfig returns the detector configuration from built-in defaults.
func DefaultConfig() Config {
	return ConfigFromTuning(config.DefaultTuningConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		EdgeThreshold:     float32(cfg.GetEdgeThreshold()),
		MinRadius:         cfg.GetRefMinRadius(),
		MaxRadius:         cfg.GetRefMaxRadius(),
		SweepMaxRadius:    cfg.GetRefSweepMaxRadius(),
		MaxSensorMissing:  cfg.GetRefMaxSensorMissing(),
		PersistScoreRatio: cfg.GetRefPersistScoreRatio(),
	}
}

// ROI is the bounding box of the detected disk. X0..X1 and Y0..Y1 are
// inclusive pixel coordinates.
type ROI struct {
	X0, Y0, X1, Y1 int
	// SensorMissing counts down on frames where the disk is not confirmed.
	// The ROI is held while it stays positive.
	SensorMissing int
	// SensorValue is the mean smoothed value inside the disk.
	SensorValue float32
	Radius      int
	// Score is the normalised vote peak at detection time.
	Score float64
}

// Center returns the disk centre in pixel coordinates.
func (r *ROI) Center() (x, y int) {
	return (r.X0 + r.X1) / 2, (r.Y0 + r.Y1) / 2
}

// Box returns the ROI as a pixel-edge rectangle.
func (r *ROI) Box() geom.Box {
	return geom.Box{
		Min: geom.Pt(float64(r.X0), float64(r.Y0)),
		Max: geom.Pt(float64(r.X1+1), float64(r.Y1+1)),
	}
}

// Corners returns the pixel-edge corners top-left, top-right, bottom-right,
// bottom-left.
func (r *ROI) Corners() geom.Quad {
	b := r.Box()
	return geom.Quad{b.Min, geom.Pt(b.Max.X, b.Min.Y), b.Max, geom.Pt(b.Min.X, b.Max.Y)}
}

// Detector finds the calibration disk with a circular Hough vote over a
// Laplacian edge map. A Detector is read-only after construction and may be
// shared between sessions.
type Detector struct {
	cfg     Config
	circles map[int][]offset
}

// NewDetector returns a Detector using cfg.
func NewDetector(cfg Config) *Detector {
	d := &Detector{cfg: cfg, circles: make(map[int][]offset)}
	for r := sweepStartRadius; r <= cfg.SweepMaxRadius; r++ {
		d.circles[r] = midpointCircle(r)
	}
	return d
}

// Detect returns the reference ROI for this frame, or nil when no disk is
// found. prev is the ROI returned for the previous frame and is not
// modified.
func (d *Detector) Detect(edgeSource, smoothed []float32, prev *ROI, width, height int) *ROI {
	if width <= 0 || height <= 0 || len(edgeSource) < width*height {
		return nil
	}
	edges := EdgeMap(edgeSource, width, height, d.cfg.EdgeThreshold)

	if prev != nil && prev.Radius > 0 {
		if roi := d.persist(edges, smoothed, prev, width, height); roi != nil {
			return roi
		}
		missing := prev.SensorMissing - 1
		if missing > 0 {
			held := *prev
			held.SensorMissing = missing
			monitoring.Tracef("[ThermalRef] Holding reference at (%d,%d), missing=%d", held.X0, held.Y0, missing)
			return &held
		}
		monitoring.Diagf("[ThermalRef] Reference lost at (%d,%d) r=%d, redetecting", prev.X0, prev.Y0, prev.Radius)
	}

	roi := d.detect(edges, smoothed, width, height)
	if roi != nil && prev == nil {
		monitoring.Diagf("[ThermalRef] Reference found at (%d,%d) r=%d score=%.2f", roi.X0, roi.Y0, roi.Radius, roi.Score)
	}
	return roi
}

// persist re-votes the previous radius in a window around the previous box.
func (d *Detector) persist(edges, smoothed []float32, prev *ROI, width, height int) *ROI {
	r := prev.Radius
	margin := r + 2
	win := window{
		x0: max(prev.X0-margin, 0), y0: max(prev.Y0-margin, 0),
		x1: min(prev.X1+margin+1, width), y1: min(prev.Y1+margin+1, height),
	}
	peak, cx, cy := d.vote(edges, width, height, r, win)
	if peak <= 0 {
		return nil
	}
	if cx < prev.X0 || cx > prev.X1 || cy < prev.Y0 || cy > prev.Y1 {
		return nil
	}
	if score(peak, r) < d.cfg.PersistScoreRatio*prev.Score {
		return nil
	}
	roi := newROI(cx, cy, r, prev.Score)
	roi.SensorMissing = min(prev.SensorMissing+1, d.cfg.MaxSensorMissing)
	roi.SensorValue = diskMean(smoothed, width, height, cx, cy, r)
	return roi
}

// detect sweeps radii over the whole frame and keeps the best score.
func (d *Detector) detect(edges, smoothed []float32, width, height int) *ROI {
	full := window{x0: 0, y0: 0, x1: width, y1: height}
	bestScore := 0.0
	bestR, bestX, bestY := 0, 0, 0
	for r := sweepStartRadius; r <= d.cfg.SweepMaxRadius; r = int(float64(r)*1.03 + 1) {
		peak, cx, cy := d.vote(edges, width, height, r, full)
		if s := score(peak, r); s > bestScore {
			bestScore, bestR, bestX, bestY = s, r, cx, cy
		}
	}
	if bestScore <= 0 || bestR <= d.cfg.MinRadius || bestR >= d.cfg.MaxRadius {
		if bestScore > 0 {
			monitoring.Tracef("[ThermalRef] Rejected circle r=%d score=%.2f", bestR, bestScore)
		}
		return nil
	}
	roi := newROI(bestX, bestY, bestR, bestScore)
	roi.SensorMissing = d.cfg.MaxSensorMissing
	roi.SensorValue = diskMean(smoothed, width, height, bestX, bestY, bestR)
	return roi
}

func newROI(cx, cy, r int, s float64) *ROI {
	return &ROI{X0: cx - r, Y0: cy - r, X1: cx + r, Y1: cy + r, Radius: r, Score: s}
}

func score(peak float32, r int) float64 {
	return float64(peak) / float64(2+r)
}

// diskMean averages smoothed values whose pixel lies within r of (cx, cy).
func diskMean(smoothed []float32, width, height, cx, cy, r int) float32 {
	if len(smoothed) < width*height {
		return 0
	}
	var sum float64
	n := 0
	for y := max(cy-r, 0); y <= min(cy+r, height-1); y++ {
		for x := max(cx-r, 0); x <= min(cx+r, width-1); x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				sum += float64(smoothed[y*width+x])
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return float32(sum / float64(n))
}
