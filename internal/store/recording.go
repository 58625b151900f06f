package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/handray/internal/tracking"
)

// Recording describes a stored sequence of tracking frames. StartTime and
// EndTime are the Time of the first and last frame.
type Recording struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	FrameCount int       `json:"frame_count"`
	StartTime  float64   `json:"start_time"`
	EndTime    float64   `json:"end_time"`
	CreatedAt  time.Time `json:"created_at"`
}

// Duration returns the time spanned by the recorded frames in seconds.
func (r *Recording) Duration() float64 {
	if r.FrameCount < 2 {
		return 0
	}
	return r.EndTime - r.StartTime
}

// RecordingRepository stores recordings and their frames.
type RecordingRepository struct {
	db *sql.DB
}

// Recordings returns the recording repository for this store.
func (s *Store) Recordings() *RecordingRepository {
	return &RecordingRepository{db: s.db}
}

const recordingColumns = `id, name, frame_count, COALESCE(start_time, 0), COALESCE(end_time, 0), created_at`

func scanRecording(row rowScanner) (*Recording, error) {
	r := &Recording{}
	if err := row.Scan(&r.ID, &r.Name, &r.FrameCount, &r.StartTime, &r.EndTime, &r.CreatedAt); err != nil {
		return nil, err
	}
	return r, nil
}

// Create starts an empty recording.
func (r *RecordingRepository) Create(name string) (*Recording, error) {
	if name == "" {
		return nil, errors.New("recording name is required")
	}
	rec := &Recording{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.Exec(
		`INSERT INTO recordings (id, name, frame_count, created_at) VALUES (?, ?, 0, ?)`,
		rec.ID, rec.Name, rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Append adds frames to the end of recording id in one transaction.
func (r *RecordingRepository) Append(id string, frames []tracking.Frame) error {
	if len(frames) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRow(`SELECT frame_count FROM recordings WHERE id = ?`, id).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO recording_frames (recording_id, sequence, data) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, f := range frames {
		data, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("encode frame %d: %w", count+i, err)
		}
		if _, err := stmt.Exec(id, count+i, string(data)); err != nil {
			return fmt.Errorf("insert frame %d: %w", count+i, err)
		}
	}

	_, err = tx.Exec(
		`UPDATE recordings SET
			frame_count = ?,
			start_time = COALESCE(start_time, ?),
			end_time = ?
		 WHERE id = ?`,
		count+len(frames), frames[0].Time, frames[len(frames)-1].Time, id,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID retrieves a recording by its ID.
func (r *RecordingRepository) GetByID(id string) (*Recording, error) {
	rec, err := scanRecording(r.db.QueryRow(`SELECT `+recordingColumns+` FROM recordings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// GetByName returns the most recent recording called name.
func (r *RecordingRepository) GetByName(name string) (*Recording, error) {
	rec, err := scanRecording(r.db.QueryRow(
		`SELECT `+recordingColumns+` FROM recordings WHERE name = ? ORDER BY created_at DESC LIMIT 1`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// List returns all recordings, newest first.
func (r *RecordingRepository) List() ([]*Recording, error) {
	rows, err := r.db.Query(`SELECT ` + recordingColumns + ` FROM recordings ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recordings []*Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		recordings = append(recordings, rec)
	}
	return recordings, rows.Err()
}

// Frames returns the frames of recording id in the order they were appended.
func (r *RecordingRepository) Frames(id string) ([]tracking.Frame, error) {
	if _, err := r.GetByID(id); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT sequence, data FROM recording_frames WHERE recording_id = ? ORDER BY sequence`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []tracking.Frame
	for rows.Next() {
		var (
			seq  int
			data string
		)
		if err := rows.Scan(&seq, &data); err != nil {
			return nil, err
		}
		var f tracking.Frame
		if err := json.Unmarshal([]byte(data), &f); err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", seq, err)
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// Delete removes a recording and its frames.
func (r *RecordingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM recordings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return rowsAffected(result)
}
