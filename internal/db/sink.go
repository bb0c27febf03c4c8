package db

import (
	"context"

	"github.com/banshee-data/thermal.screen/internal/thermal/pipeline"
	"github.com/banshee-data/thermal.screen/internal/timeutil"
)

// ScreeningSink stores pipeline captures. It satisfies
// pipeline.PersistenceSink.
type ScreeningSink struct {
	DB *DB
	// Clock stamps recorded screenings; the system clock when nil.
	Clock timeutil.Clock
}

var _ pipeline.PersistenceSink = (*ScreeningSink)(nil)

func (s *ScreeningSink) RecordCapture(ctx context.Context, c pipeline.Capture) error {
	return s.DB.InsertScreening(ctx, &ScreeningEvent{
		SessionID:      c.SessionID,
		FrameIndex:     c.FrameIndex,
		CapturedAt:     c.At,
		SampleValue:    float64(c.Sample.Value),
		SampleX:        c.Sample.X,
		SampleY:        c.Sample.Y,
		ReferenceValue: float64(c.Reference),
		Threshold:      float64(c.Threshold),
		HeadLock:       c.HeadLock,
		FaceArea:       c.FaceArea,
	})
}

func (s *ScreeningSink) MarkRecorded(ctx context.Context, c pipeline.Capture) error {
	var clock timeutil.Clock = timeutil.RealClock{}
	if s.Clock != nil {
		clock = s.Clock
	}
	return s.DB.MarkScreeningRecorded(ctx, c.SessionID, c.FrameIndex, clock.Now())
}
