package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/thermal.screen/internal/thermal/pipeline"
	"github.com/banshee-data/thermal.screen/internal/thermal/screening"
)

// SessionPlotter records the screening state of each session frame by
// frame so the run can be plotted afterwards. It is a
// pipeline.FrameObserver and is safe for concurrent sessions.
type SessionPlotter struct {
	mu      sync.Mutex
	enabled bool
	samples map[uuid.UUID][]FrameSample
}

// FrameSample is one frame of one session.
type FrameSample struct {
	FrameIdx int
	State    screening.State
	Count    int
	// Face geometry, zero when no face was found.
	FaceArea float64
	HeadLock float64
	HasRef   bool
	// Captured is set on the frame that entered STABLE_LOCK.
	Captured    bool
	SampleValue float64
}

var _ pipeline.FrameObserver = (*SessionPlotter)(nil)

// NewSessionPlotter returns an enabled plotter.
func NewSessionPlotter() *SessionPlotter {
	return &SessionPlotter{
		enabled: true,
		samples: make(map[uuid.UUID][]FrameSample),
	}
}

// Stop disables sampling. Recorded samples are kept for GeneratePlots.
func (sp *SessionPlotter) Stop() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.enabled = false
}

// ObserveFrame records r for session s.
func (sp *SessionPlotter) ObserveFrame(s *pipeline.SessionState, r *pipeline.FrameResult) {
	if s == nil || r == nil {
		return
	}
	sample := FrameSample{
		FrameIdx: r.FrameIndex,
		State:    r.State,
		Count:    r.Count,
		HasRef:   r.Ref != nil,
	}
	if r.Face != nil {
		sample.FaceArea = r.Face.Area()
		sample.HeadLock = r.Face.HeadLock
	}
	if r.Capture != nil {
		sample.Captured = true
		sample.SampleValue = float64(r.Capture.Sample.Value)
	}

	sp.mu.Lock()
	defer sp.mu.Unlock()
	if !sp.enabled {
		return
	}
	sp.samples[s.ID] = append(sp.samples[s.ID], sample)
}

// Samples returns a copy of the samples recorded for a session.
func (sp *SessionPlotter) Samples(id uuid.UUID) []FrameSample {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return append([]FrameSample(nil), sp.samples[id]...)
}

// GeneratePlots writes two PNGs per session into outputDir: the state
// timeline and the face area. It returns the number of files written.
func (sp *SessionPlotter) GeneratePlots(outputDir string) (int, error) {
	if outputDir == "" {
		return 0, fmt.Errorf("no output directory configured")
	}

	sp.mu.Lock()
	sessions := make(map[uuid.UUID][]FrameSample, len(sp.samples))
	for id, s := range sp.samples {
		sessions[id] = append([]FrameSample(nil), s...)
	}
	sp.mu.Unlock()

	if len(sessions) == 0 {
		return 0, nil
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output dir: %w", err)
	}

	files := 0
	for id, samples := range sessions {
		sort.Slice(samples, func(a, b int) bool {
			return samples[a].FrameIdx < samples[b].FrameIdx
		})
		n, err := generateSessionPlots(outputDir, id, samples)
		files += n
		if err != nil {
			return files, fmt.Errorf("session %s: %w", id, err)
		}
	}
	return files, nil
}

func generateSessionPlots(dir string, id uuid.UUID, samples []FrameSample) (int, error) {
	short := id.String()[:8]

	pState := plot.New()
	pState.Title.Text = fmt.Sprintf("Session %s - Screening State", short)
	pState.X.Label.Text = "Frame"
	pState.Y.Label.Text = "State"
	pState.Y.Tick.Marker = stateTicks{}

	statePts := make(plotter.XYs, 0, len(samples))
	var capturePts plotter.XYs
	for _, s := range samples {
		y := float64(stateOrdinal(s.State))
		statePts = append(statePts, plotter.XY{X: float64(s.FrameIdx), Y: y})
		if s.Captured {
			capturePts = append(capturePts, plotter.XY{X: float64(s.FrameIdx), Y: y})
		}
	}
	stateLine, err := plotter.NewLine(statePts)
	if err != nil {
		return 0, err
	}
	stateLine.StepStyle = plotter.PostStep
	stateLine.Width = vg.Points(1.5)
	stateLine.Color = color.RGBA{R: 49, G: 104, B: 142, A: 255}
	pState.Add(stateLine)
	if len(capturePts) > 0 {
		sc, err := plotter.NewScatter(capturePts)
		if err != nil {
			return 0, err
		}
		sc.GlyphStyle.Color = color.RGBA{R: 220, G: 50, B: 32, A: 255}
		sc.GlyphStyle.Radius = vg.Points(4)
		pState.Add(sc)
		pState.Legend.Add("capture", sc)
	}

	pFace := plot.New()
	pFace.Title.Text = fmt.Sprintf("Session %s - Head Area", short)
	pFace.X.Label.Text = "Frame"
	pFace.Y.Label.Text = "Area (px²)"

	areaPts := make(plotter.XYs, 0, len(samples))
	var lockedPts plotter.XYs
	for _, s := range samples {
		areaPts = append(areaPts, plotter.XY{X: float64(s.FrameIdx), Y: s.FaceArea})
		if s.HeadLock == 1 {
			lockedPts = append(lockedPts, plotter.XY{X: float64(s.FrameIdx), Y: s.FaceArea})
		}
	}
	areaLine, err := plotter.NewLine(areaPts)
	if err != nil {
		return 0, err
	}
	areaLine.Width = vg.Points(1)
	pFace.Add(areaLine)
	pFace.Legend.Add("area", areaLine)
	if len(lockedPts) > 0 {
		sc, err := plotter.NewScatter(lockedPts)
		if err != nil {
			return 0, err
		}
		sc.GlyphStyle.Color = color.RGBA{R: 53, G: 183, B: 121, A: 255}
		pFace.Add(sc)
		pFace.Legend.Add("front-on", sc)
	}

	for _, p := range []*plot.Plot{pState, pFace} {
		p.Legend.Top = true
		p.Legend.Left = false
		p.Legend.XOffs = -10
		p.Legend.YOffs = -10
	}

	stateFile := filepath.Join(dir, fmt.Sprintf("session_%s_state.png", short))
	if err := pState.Save(14*vg.Inch, 6*vg.Inch, stateFile); err != nil {
		return 0, fmt.Errorf("save state plot: %w", err)
	}
	faceFile := filepath.Join(dir, fmt.Sprintf("session_%s_face.png", short))
	if err := pFace.Save(14*vg.Inch, 6*vg.Inch, faceFile); err != nil {
		return 1, fmt.Errorf("save face plot: %w", err)
	}
	return 2, nil
}

func stateOrdinal(s screening.State) int {
	for i, st := range screening.States {
		if st == s {
			return i
		}
	}
	return -1
}

// stateTicks labels the y axis with state names.
type stateTicks struct{}

func (stateTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for i, st := range screening.States {
		if float64(i) < min || float64(i) > max {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: float64(i), Label: string(st)})
	}
	return ticks
}
