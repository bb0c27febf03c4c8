package screening

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/thermal.screen/internal/thermal/face"
	"github.com/banshee-data/thermal.screen/internal/thermal/geom"
	"github.com/banshee-data/thermal.screen/internal/thermal/shape"
	"github.com/banshee-data/thermal.screen/internal/thermal/thermalref"
)

func testFace(x0, y0, w, h, lock float64) *face.Info {
	return &face.Info{
		Head: geom.Quad{
			geom.Pt(x0, y0), geom.Pt(x0+w, y0),
			geom.Pt(x0+w, y0+h), geom.Pt(x0, y0+h),
		},
		HeadLock: lock,
	}
}

func testRef() *thermalref.ROI {
	return &thermalref.ROI{X0: 95, Y0: 10, X1: 106, Y1: 21, Radius: 6}
}

func TestAcceptanceStates_NoSelfLoops(t *testing.T) {
	t.Parallel()

	require.Len(t, AcceptanceStates, len(States))
	for from, tos := range AcceptanceStates {
		assert.NotContains(t, tos, from)
	}
	assert.Equal(t, []State{Leaving}, AcceptanceStates[StableLock])
	assert.Equal(t, []State{Ready}, AcceptanceStates[Leaving])
}

func TestMachine_AdvanceSoundness(t *testing.T) {
	t.Parallel()

	for _, from := range States {
		for _, to := range States {
			m := Restore(DefaultConfig(), from, 5, nil)
			accepted := m.Advance(to)
			if Accepts(from, to) {
				assert.True(t, accepted, "%s -> %s", from, to)
				assert.Equal(t, to, m.State())
				assert.Equal(t, 1, m.Count())
				continue
			}
			assert.False(t, accepted, "%s -> %s", from, to)
			assert.Equal(t, from, m.State())
			assert.Equal(t, 6, m.Count())
		}
	}
}

func TestMachine_CaptureCycle(t *testing.T) {
	t.Parallel()

	m := Restore(DefaultConfig(), FrontalLock, 3, nil)
	f := testFace(40, 26.5, 40, 54, 1)
	in := Input{Face: f, Body: shape.Shape{{X0: 40, X1: 80, Y: 100}}, Ref: testRef()}

	// No previous face counts as movement, so the first frame only holds.
	assert.Equal(t, EventNone, m.Update(in))
	assert.Equal(t, FrontalLock, m.State())
	assert.Equal(t, 3, m.Count())

	assert.Equal(t, EventCaptured, m.Update(in))
	assert.Equal(t, StableLock, m.State())
	assert.Equal(t, 1, m.Count())

	assert.Equal(t, EventNone, m.Update(in))
	assert.Equal(t, Leaving, m.State())

	// Still in view: wait.
	assert.Equal(t, EventNone, m.Update(in))
	assert.Equal(t, Leaving, m.State())
	assert.Equal(t, 2, m.Count())

	assert.Equal(t, EventRecorded, m.Update(Input{Ref: testRef()}))
	assert.Equal(t, Ready, m.State())
}

func TestMachine_FromReadyToCapture(t *testing.T) {
	t.Parallel()

	m := NewMachine(DefaultConfig())
	require.Equal(t, Ready, m.State())
	in := Input{Face: testFace(40, 26.5, 40, 54, 1), Ref: testRef()}

	var events []Event
	var states []State
	for i := 0; i < 6; i++ {
		events = append(events, m.Update(in))
		states = append(states, m.State())
	}
	assert.Equal(t, []State{FrontalLock, FrontalLock, FrontalLock, StableLock, Leaving, Leaving}, states)
	assert.Equal(t, []Event{EventNone, EventNone, EventNone, EventCaptured, EventNone, EventNone}, events)
}

func TestMachine_MovementDelaysCapture(t *testing.T) {
	t.Parallel()

	still := testFace(40, 26.5, 40, 54, 1)
	m := Restore(DefaultConfig(), FrontalLock, 3, still)

	shifted := testFace(55, 26.5, 40, 54, 1)
	assert.Equal(t, EventNone, m.Update(Input{Face: shifted, Ref: testRef()}))
	assert.Equal(t, FrontalLock, m.State())
	assert.Equal(t, 3, m.Count())

	// Larger but clear of the reference box.
	grown := testFace(50, 20, 40, 62, 1)
	require.False(t, geom.QuadIntersectsBox(grown.Head, testRef().Box()))
	assert.Equal(t, EventNone, m.Update(Input{Face: grown, Ref: testRef()}))
	assert.Equal(t, FrontalLock, m.State())
	assert.Equal(t, 3, m.Count())

	assert.Equal(t, EventCaptured, m.Update(Input{Face: grown, Ref: testRef()}))
}

func TestMachine_HalfLockDoesNotCapture(t *testing.T) {
	t.Parallel()

	half := testFace(40, 26.5, 40, 54, 0.5)
	m := Restore(DefaultConfig(), FrontalLock, 10, half)
	assert.Equal(t, EventNone, m.Update(Input{Face: half, Ref: testRef()}))
	assert.Equal(t, FrontalLock, m.State())
	assert.Equal(t, 11, m.Count())
}

func TestMachine_Proposals(t *testing.T) {
	t.Parallel()

	body := shape.Shape{{X0: 30, X1: 90, Y: 150}}
	cases := []struct {
		name string
		from State
		in   Input
		want State
	}{
		{"missing reference", Ready, Input{Face: testFace(40, 26.5, 40, 54, 1)}, MissingThermalRef},
		{"missing reference with nothing in view", HeadLock, Input{}, MissingThermalRef},
		{"small face", Ready, Input{Face: testFace(50, 50, 20, 30, 1), Ref: testRef()}, TooFar},
		{"face over reference", Ready, Input{Face: testFace(70, 5, 40, 54, 1), Ref: testRef()}, LargeBody},
		{"turned away", Ready, Input{Face: testFace(40, 26.5, 40, 54, 0), Ref: testRef()}, HeadLock},
		{"body without face", Ready, Input{Body: body, Ref: testRef()}, LargeBody},
		{"empty scene", HeadLock, Input{Ref: testRef()}, Ready},
		{"reference returns", MissingThermalRef, Input{Ref: testRef()}, Ready},
		{"captured person walks off", StableLock, Input{Ref: testRef()}, Leaving},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := Restore(DefaultConfig(), tc.from, 1, nil)
			m.Update(tc.in)
			assert.Equal(t, tc.want, m.State())
		})
	}
}

func TestMachine_MissingReferenceHoldsLeaving(t *testing.T) {
	t.Parallel()

	m := Restore(DefaultConfig(), Leaving, 1, nil)
	assert.Equal(t, EventNone, m.Update(Input{}))
	assert.Equal(t, Leaving, m.State())
	assert.Equal(t, 2, m.Count())
}

func TestMachine_WarmUp(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.WarmupFrames = 3
	m := NewMachine(cfg)
	require.Equal(t, WarmingUp, m.State())

	in := Input{Face: testFace(40, 26.5, 40, 54, 1), Ref: testRef()}
	m.Update(in)
	m.Update(in)
	assert.Equal(t, WarmingUp, m.State())
	assert.Equal(t, 3, m.Count())

	// Warm-up only leads to READY; the face is picked up on the next frame.
	m.Update(in)
	assert.Equal(t, Ready, m.State())
	m.Update(in)
	assert.Equal(t, FrontalLock, m.State())
}
