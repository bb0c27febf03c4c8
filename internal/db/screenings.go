package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a screening does not exist.
var ErrNotFound = errors.New("screening not found")

// ScreeningEvent is one captured forehead measurement.
type ScreeningEvent struct {
	ID             uuid.UUID  `json:"id"`
	SessionID      uuid.UUID  `json:"session_id"`
	FrameIndex     int        `json:"frame_index"`
	CapturedAt     time.Time  `json:"captured_at"`
	SampleValue    float64    `json:"sample_value"`
	SampleX        int        `json:"sample_x"`
	SampleY        int        `json:"sample_y"`
	ReferenceValue float64    `json:"reference_value"`
	Threshold      float64    `json:"threshold"`
	HeadLock       float64    `json:"head_lock"`
	FaceArea       float64    `json:"face_area"`
	RecordedAt     *time.Time `json:"recorded_at,omitempty"`
}

const screeningColumns = `
	id, session_id, frame_index, captured_unix_nanos,
	sample_value, sample_x, sample_y, reference_value,
	threshold, head_lock, face_area, recorded_unix_nanos`

// InsertScreening stores e, assigning an ID when e.ID is zero.
func (db *DB) InsertScreening(ctx context.Context, e *ScreeningEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	query := `
		INSERT INTO screenings (` + screeningColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		e.ID.String(),
		e.SessionID.String(),
		e.FrameIndex,
		e.CapturedAt.UnixNano(),
		e.SampleValue,
		e.SampleX,
		e.SampleY,
		e.ReferenceValue,
		e.Threshold,
		e.HeadLock,
		e.FaceArea,
		nullableNanos(e.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert screening: %w", err)
	}
	return nil
}

// GetScreening returns the screening with id.
func (db *DB) GetScreening(ctx context.Context, id uuid.UUID) (*ScreeningEvent, error) {
	row := db.QueryRowContext(ctx, `SELECT `+screeningColumns+` FROM screenings WHERE id = ?`, id.String())
	e, err := scanScreening(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get screening: %w", err)
	}
	return e, nil
}

// ListScreeningsBySession returns a session's screenings in frame order.
func (db *DB) ListScreeningsBySession(ctx context.Context, sessionID uuid.UUID) ([]ScreeningEvent, error) {
	return db.queryScreenings(ctx,
		`SELECT `+screeningColumns+` FROM screenings WHERE session_id = ? ORDER BY frame_index`,
		sessionID.String())
}

// RecentScreenings returns up to limit screenings, newest first.
func (db *DB) RecentScreenings(ctx context.Context, limit int) ([]ScreeningEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	return db.queryScreenings(ctx,
		`SELECT `+screeningColumns+` FROM screenings ORDER BY captured_unix_nanos DESC, frame_index DESC LIMIT ?`,
		limit)
}

// MarkScreeningRecorded stamps the screening captured on frameIndex of
// sessionID as recorded.
func (db *DB) MarkScreeningRecorded(ctx context.Context, sessionID uuid.UUID, frameIndex int, at time.Time) error {
	res, err := db.ExecContext(ctx,
		`UPDATE screenings SET recorded_unix_nanos = ? WHERE session_id = ? AND frame_index = ?`,
		at.UnixNano(), sessionID.String(), frameIndex)
	if err != nil {
		return fmt.Errorf("failed to mark screening recorded: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) queryScreenings(ctx context.Context, query string, args ...interface{}) ([]ScreeningEvent, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query screenings: %w", err)
	}
	defer rows.Close()

	var events []ScreeningEvent
	for rows.Next() {
		e, err := scanScreening(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan screening: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate screenings: %w", err)
	}
	return events, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanScreening(s scanner) (*ScreeningEvent, error) {
	var (
		e             ScreeningEvent
		id, sessionID string
		capturedNanos int64
		recordedNanos sql.NullInt64
	)
	err := s.Scan(
		&id,
		&sessionID,
		&e.FrameIndex,
		&capturedNanos,
		&e.SampleValue,
		&e.SampleX,
		&e.SampleY,
		&e.ReferenceValue,
		&e.Threshold,
		&e.HeadLock,
		&e.FaceArea,
		&recordedNanos,
	)
	if err != nil {
		return nil, err
	}
	if e.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("bad screening id %q: %w", id, err)
	}
	if e.SessionID, err = uuid.Parse(sessionID); err != nil {
		return nil, fmt.Errorf("bad session id %q: %w", sessionID, err)
	}
	e.CapturedAt = time.Unix(0, capturedNanos).UTC()
	if recordedNanos.Valid {
		t := time.Unix(0, recordedNanos.Int64).UTC()
		e.RecordedAt = &t
	}
	return &e, nil
}

func nullableNanos(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}
