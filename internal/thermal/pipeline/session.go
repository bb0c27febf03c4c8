package pipeline

import (
	"github.com/google/uuid"

	"github.com/banshee-data/thermal.screen/internal/thermal/face"
	"github.com/banshee-data/thermal.screen/internal/thermal/screening"
	"github.com/banshee-data/thermal.screen/internal/thermal/thermalref"
)

// SessionState is everything one video or live session carries from frame
// to frame. Create one per session with NewSession and never share it
// between goroutines.
type SessionState struct {
	ID uuid.UUID

	// Ref is the thermal reference found on the previous frame.
	Ref     *thermalref.ROI
	Machine *screening.Machine

	// Frames counts processed frames.
	Frames int
	// Captured holds the measurement taken on entry to STABLE_LOCK until
	// the screening is recorded.
	Captured *Capture

	prevSmoothed []float32
}

// NewSession starts a session with a fresh ID.
func NewSession(cfg screening.Config) *SessionState {
	return &SessionState{
		ID:      uuid.New(),
		Machine: screening.NewMachine(cfg),
	}
}

// PrevFace is the face seen on the previous frame, if any.
func (s *SessionState) PrevFace() *face.Info {
	return s.Machine.LastFace()
}
