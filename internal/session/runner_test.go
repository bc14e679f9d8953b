package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/pose"
)

// startRunner runs r until the test ends.
func startRunner(t *testing.T, r *Runner) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return cancel
}

func TestRunner_OfferKeepsLatest(t *testing.T) {
	r := NewRunner(newJacks(t))

	first := pose.StandingPose(100)
	second := pose.NewFrame(200)
	assert.True(t, r.Offer(first))
	assert.False(t, r.Offer(second), "second frame replaces the first")

	frames := make(chan Snapshot, 4)
	r.Subscribe(func(s Snapshot) {
		if s.Frame {
			frames <- s
		}
	})
	startRunner(t, r)

	select {
	case snap := <-frames:
		// Only the empty frame was processed.
		assert.False(t, snap.Visible)
		assert.Equal(t, "Please make sure your full body is visible", snap.Feedback)
		assert.Zero(t, snap.CalibrationFrames)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame processed")
	}

	// A control call is serialized after the mailbox drained.
	var calFrames int
	require.NoError(t, r.do(context.Background(), func(s *Session) {
		calFrames = s.State().CalibrationFrames
	}))
	assert.Zero(t, calFrames)
	assert.Empty(t, frames)
}

func TestRunner_StampsMissingTimestamp(t *testing.T) {
	r := NewRunner(newJacks(t))
	r.now = func() time.Time { return time.UnixMilli(42) }

	f := pose.StandingPose(0)
	require.True(t, r.Offer(f))
	assert.Zero(t, f.Timestamp, "caller's frame is left alone")

	queued := <-r.frames
	assert.NotSame(t, f, queued)
	assert.Equal(t, int64(42), queued.Timestamp)
	assert.Len(t, queued.Joints, len(f.Joints))
}

func TestRunner_CountsReps(t *testing.T) {
	r := NewRunner(newJacks(t))

	seen := make(chan Snapshot, 64)
	r.Subscribe(func(s Snapshot) {
		if s.Frame {
			seen <- s
		}
	})
	startRunner(t, r)

	feed := func(f *pose.Frame) Snapshot {
		require.True(t, r.Offer(f))
		select {
		case s := <-seen:
			return s
		case <-time.After(2 * time.Second):
			t.Fatal("frame not processed")
			return Snapshot{}
		}
	}

	var ts int64
	for i := 0; i < exercise.DefaultCalibrationFrames; i++ {
		ts += 33
		feed(pose.StandingPose(ts))
	}
	feed(pose.StarPose(ts + 33))
	snap := feed(pose.StandingPose(ts + 66))

	assert.Equal(t, 1, snap.Reps)
	assert.Equal(t, exercise.Ready, snap.Phase)
	assert.Equal(t, "u-1", snap.UserID)
	assert.Equal(t, 1, r.Snapshot().Reps)

	sum, err := r.Finalize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Reps)
	assert.Equal(t, r.Session().ID(), sum.SessionID)
}

func TestRunner_TicksOnlyWhenCalibrated(t *testing.T) {
	sess := newJacks(t)
	r := NewRunner(sess)
	r.interval = 5 * time.Millisecond
	startRunner(t, r)

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, r.Snapshot().ElapsedSeconds)

	require.NoError(t, r.do(context.Background(), calibrate))
	require.Eventually(t, func() bool {
		return r.Snapshot().ElapsedSeconds >= 2
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, r.Reset(context.Background()))
	snap := r.Snapshot()
	assert.Equal(t, exercise.Calibrating, snap.Phase)
	assert.Zero(t, snap.Reps)
	assert.Zero(t, snap.ElapsedSeconds)
}

func TestRunner_Stopped(t *testing.T) {
	r := NewRunner(newJacks(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	r.Offer(pose.StandingPose(1))
	cancel()
	require.NoError(t, <-done)

	assert.False(t, r.Offer(pose.StandingPose(2)))
	assert.ErrorIs(t, r.Reset(context.Background()), ErrStopped)
	_, err := r.Finalize(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestRunner_ControlHonoursContext(t *testing.T) {
	r := NewRunner(newJacks(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Not running: the call gives up with the context error.
	assert.ErrorIs(t, r.Reset(ctx), context.Canceled)
}
