package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handray/internal/geom"
	"github.com/ayusman/handray/internal/hand"
	"github.com/ayusman/handray/internal/tracking"
)

func testFrames(start float64, n int) []tracking.Frame {
	frames := make([]tracking.Frame, n)
	for i := range frames {
		f := tracking.Frame{
			Time:   start + float64(i)/60,
			Viewer: geom.IdentityPose(),
		}
		f.Hand(hand.Right).Tracked = true
		f.Hand(hand.Right).Gesture = hand.GesturePinch
		f.Hand(hand.Right).Joints[hand.Wrist] = geom.Pose{
			Position: geom.Vec3{X: 0.1, Y: -0.2, Z: 0.3 + float64(i)*0.01},
			Rotation: geom.Identity(),
		}
		frames[i] = f
	}
	return frames
}

func TestRecordingRepository_CreateAndAppend(t *testing.T) {
	repo := newTestStore(t).Recordings()

	rec, err := repo.Create("sweep")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Zero(t, rec.FrameCount)

	require.NoError(t, repo.Append(rec.ID, testFrames(1, 3)))
	require.NoError(t, repo.Append(rec.ID, testFrames(1.05, 2)))
	require.NoError(t, repo.Append(rec.ID, nil))

	got, err := repo.GetByID(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.FrameCount)
	assert.InDelta(t, 1.0, got.StartTime, 1e-12)
	assert.InDelta(t, 1.05+1.0/60, got.EndTime, 1e-12)
	assert.InDelta(t, 0.05+1.0/60, got.Duration(), 1e-12)

	frames, err := repo.Frames(rec.ID)
	require.NoError(t, err)
	require.Len(t, frames, 5)
	assert.InDelta(t, 1.0, frames[0].Time, 1e-12)
	assert.InDelta(t, 1.05, frames[3].Time, 1e-12)
	assert.True(t, frames[4].Hand(hand.Right).Tracked)
	assert.Equal(t, hand.GesturePinch, frames[4].Hand(hand.Right).Gesture)
	assert.InDelta(t, 0.31, frames[4].Hand(hand.Right).Joints.Position(hand.Wrist).Z, 1e-12)
	assert.False(t, frames[4].Hand(hand.Left).Tracked)
}

func TestRecordingRepository_EmptyDuration(t *testing.T) {
	repo := newTestStore(t).Recordings()

	rec, err := repo.Create("empty")
	require.NoError(t, err)
	got, err := repo.GetByID(rec.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Duration())

	frames, err := repo.Frames(rec.ID)
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestRecordingRepository_RequiresName(t *testing.T) {
	_, err := newTestStore(t).Recordings().Create("")
	assert.Error(t, err)
}

func TestRecordingRepository_NotFound(t *testing.T) {
	repo := newTestStore(t).Recordings()

	_, err := repo.GetByID("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByName("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Frames("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Append("nope", testFrames(0, 1)), ErrNotFound)
	assert.ErrorIs(t, repo.Delete("nope"), ErrNotFound)
}

func TestRecordingRepository_GetByNameReturnsNewest(t *testing.T) {
	repo := newTestStore(t).Recordings()

	first, err := repo.Create("take")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := repo.Create("take")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	got, err := repo.GetByName("take")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
}

func TestRecordingRepository_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	repo := s.Recordings()

	rec, err := repo.Create("sweep")
	require.NoError(t, err)
	require.NoError(t, repo.Append(rec.ID, testFrames(0, 4)))
	require.NoError(t, repo.Delete(rec.ID))

	var n int
	require.NoError(t, s.DB().QueryRow(
		`SELECT COUNT(*) FROM recording_frames WHERE recording_id = ?`, rec.ID).Scan(&n))
	assert.Zero(t, n)
}
