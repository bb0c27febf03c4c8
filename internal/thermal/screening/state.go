// Package screening runs the per-session state machine that decides when a
// face has been held still long enough to take a measurement.
package screening

// State is the screening state of a session.
type State string

const (
	WarmingUp         State = "WARMING_UP"          // Sensor settling after session start
	Ready             State = "READY"               // Nobody in view
	HeadLock          State = "HEAD_LOCK"           // Face found but turned away
	TooFar            State = "TOO_FAR"             // Face too small to sample
	LargeBody         State = "LARGE_BODY"          // Body without a usable face, or covering the reference
	MultipleHeads     State = "MULTIPLE_HEADS"      // Reserved for multi-person tracking
	FaceLock          State = "FACE_LOCK"           // Reserved for multi-person tracking
	FrontalLock       State = "FRONTAL_LOCK"        // Front-on face, waiting for it to settle
	StableLock        State = "STABLE_LOCK"         // Measurement captured
	Leaving           State = "LEAVING"             // Waiting for the screened person to go
	MissingThermalRef State = "MISSING_THERMAL_REF" // Calibration disk not visible
)

// States lists every state in display order.
var States = []State{
	WarmingUp, Ready, HeadLock, TooFar, LargeBody, MultipleHeads,
	FaceLock, FrontalLock, StableLock, Leaving, MissingThermalRef,
}

// AcceptanceStates maps each state to the states it may move to. No state
// lists itself, so proposing the current state always holds and counts.
var AcceptanceStates = map[State][]State{
	WarmingUp: {Ready, MissingThermalRef},
	Ready: {
		HeadLock, TooFar, LargeBody, MultipleHeads, FaceLock, FrontalLock,
		MissingThermalRef,
	},
	HeadLock: {
		Ready, TooFar, LargeBody, MultipleHeads, FaceLock, FrontalLock,
		MissingThermalRef,
	},
	TooFar: {
		Ready, HeadLock, LargeBody, MultipleHeads, FaceLock, FrontalLock,
		MissingThermalRef,
	},
	LargeBody: {
		Ready, HeadLock, TooFar, MultipleHeads, FaceLock, FrontalLock,
		MissingThermalRef,
	},
	MultipleHeads: {
		Ready, HeadLock, TooFar, LargeBody, FaceLock, FrontalLock,
		MissingThermalRef,
	},
	FaceLock: {
		Ready, HeadLock, TooFar, LargeBody, MultipleHeads, FrontalLock,
		MissingThermalRef,
	},
	FrontalLock: {
		Ready, HeadLock, TooFar, LargeBody, MultipleHeads, FaceLock,
		StableLock, MissingThermalRef,
	},
	StableLock:        {Leaving},
	Leaving:           {Ready},
	MissingThermalRef: {Ready, HeadLock, TooFar, LargeBody, FrontalLock},
}

// Accepts reports whether the table allows from → to.
func Accepts(from, to State) bool {
	for _, s := range AcceptanceStates[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Event is a side effect of an accepted transition.
type Event string

const (
	EventNone     Event = ""
	EventCaptured Event = "Captured" // entered STABLE_LOCK; sample now
	EventRecorded Event = "Recorded" // LEAVING → READY; screening finished
)
