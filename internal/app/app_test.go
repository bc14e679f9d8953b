package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/metrics"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/session"
	"github.com/ayusman/repcoach/internal/store"
)

type recordingSpeaker struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingSpeaker) Speak(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, text)
	return nil
}

func (r *recordingSpeaker) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

type testApp struct {
	*App
	store   *store.Store
	speaker *recordingSpeaker
	frames  chan session.Snapshot
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Camera.Device = -1
	cfg.Store.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.Coach.PluginDir = t.TempDir()
	cfg.Coach.MinIntervalMs = 1
	return cfg
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := testConfig(t)

	s, err := store.New(cfg.Store.Path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	speaker := &recordingSpeaker{}
	a, err := New(Options{
		Config:   cfg,
		Store:    s,
		Metrics:  metrics.NewTestManager(),
		Detector: pose.NewMockDetector(),
		Speaker:  speaker,
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.FinishSession(context.Background()) })

	ta := &testApp{App: a, store: s, speaker: speaker, frames: make(chan session.Snapshot, 128)}
	a.Subscribe(func(snap session.Snapshot) {
		if snap.Frame {
			ta.frames <- snap
		}
	})
	return ta
}

// feed offers a frame and waits for the tracker to process it.
func (ta *testApp) feed(t *testing.T, f *pose.Frame) session.Snapshot {
	t.Helper()
	_, err := ta.OfferFrame(f)
	require.NoError(t, err)
	select {
	case snap := <-ta.frames:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("frame not processed")
		return session.Snapshot{}
	}
}

func (ta *testApp) doJack(t *testing.T, ts int64) session.Snapshot {
	ta.feed(t, pose.StarPose(ts))
	return ta.feed(t, pose.StandingPose(ts+33))
}

func (ta *testApp) calibrate(t *testing.T) {
	for i := 1; i <= exercise.DefaultCalibrationFrames; i++ {
		ta.feed(t, pose.StandingPose(int64(i*33)))
	}
}

func TestApp_SessionLifecycle(t *testing.T) {
	ta := newTestApp(t)

	snap, err := ta.StartSession("", "jumping-jacks")
	require.NoError(t, err)
	assert.Equal(t, "guest", snap.UserID)
	assert.Equal(t, exercise.Calibrating, snap.Phase)
	assert.Equal(t, 1.0, testutil.ToFloat64(ta.Metrics().GaugeActiveSessions))

	ta.calibrate(t)
	ta.doJack(t, 2000)
	last := ta.doJack(t, 3000)
	assert.Equal(t, 2, last.Reps)
	assert.Equal(t, "Perfect form! Rep: 2", last.Feedback)

	sum, saved, err := ta.FinishSession(context.Background())
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, 2, sum.Reps)
	assert.Equal(t, "Gentle Jumping Jacks", sum.Name)

	records, err := ta.store.Records().List("guest", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, sum.SessionID, records[0].ID)
	assert.Equal(t, 2, records[0].Reps)
	assert.Equal(t, "jumping-jacks", records[0].Exercise)

	m := ta.Metrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterReps.WithLabelValues("jumping-jacks")))
	assert.Equal(t, float64(exercise.DefaultCalibrationFrames+4), testutil.ToFloat64(m.CounterFrames))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.GaugeActiveSessions))

	lastDrill, err := ta.store.Settings().Get("guest", store.SettingLastDrill)
	require.NoError(t, err)
	assert.Equal(t, "jumping-jacks", lastDrill)
}

func TestApp_NoRepsNotSaved(t *testing.T) {
	ta := newTestApp(t)

	_, err := ta.StartSession("u-1", "lunges")
	require.NoError(t, err)
	ta.feed(t, pose.StandingPose(33))

	sum, saved, err := ta.FinishSession(context.Background())
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Zero(t, sum.Reps)

	records, err := ta.store.Records().List("u-1", 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestApp_FinishWithCancelledContextSaves(t *testing.T) {
	ta := newTestApp(t)

	_, err := ta.StartSession("u-7", "jumping-jacks")
	require.NoError(t, err)
	ta.calibrate(t)
	ta.doJack(t, 2000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, saved, err := ta.FinishSession(ctx)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, 1, sum.Reps)

	records, err := ta.store.Records().List("u-7", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, sum.SessionID, records[0].ID)
	assert.Equal(t, 1, records[0].Reps)
}

func TestApp_NoSession(t *testing.T) {
	ta := newTestApp(t)

	_, err := ta.Snapshot()
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = ta.OfferFrame(pose.StandingPose(1))
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, ta.ResetSession(context.Background()), ErrNoSession)
	_, _, err = ta.FinishSession(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestApp_UnknownExercise(t *testing.T) {
	ta := newTestApp(t)

	_, err := ta.StartSession("u-1", "burpees")
	assert.ErrorIs(t, err, exercise.ErrUnknownExercise)
	_, err = ta.Snapshot()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestApp_StartReplacesAndSavesPrevious(t *testing.T) {
	ta := newTestApp(t)

	_, err := ta.StartSession("u-1", "jumping-jacks")
	require.NoError(t, err)
	ta.calibrate(t)
	ta.doJack(t, 2000)

	_, err = ta.StartSession("u-1", "side-bends")
	require.NoError(t, err)

	snap, err := ta.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "side-bends", snap.Exercise)
	assert.Zero(t, snap.Reps)

	records, err := ta.store.Records().List("u-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "jumping-jacks", records[0].Exercise)
}

func TestApp_Reset(t *testing.T) {
	ta := newTestApp(t)

	_, err := ta.StartSession("u-1", "jumping-jacks")
	require.NoError(t, err)
	ta.calibrate(t)
	ta.doJack(t, 2000)

	require.NoError(t, ta.ResetSession(context.Background()))
	snap, err := ta.Snapshot()
	require.NoError(t, err)
	assert.Zero(t, snap.Reps)
	assert.Zero(t, snap.ElapsedSeconds)
	assert.Equal(t, exercise.Calibrating, snap.Phase)
}

func TestApp_SpeaksImportantFeedback(t *testing.T) {
	ta := newTestApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ta.Run(ctx) }()

	_, err := ta.StartSession("u-1", "jumping-jacks")
	require.NoError(t, err)
	ta.calibrate(t)

	require.Eventually(t, func() bool {
		for _, l := range ta.speaker.Lines() {
			if l == "Calibration complete! Start your jumping jacks" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	// Stopping the app finishes the session.
	cancel()
	require.NoError(t, <-done)
	_, err = ta.Snapshot()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestApp_VoicePreference(t *testing.T) {
	ta := newTestApp(t)
	require.NoError(t, ta.store.Settings().Set("quiet", store.SettingVoice, "false"))

	_, err := ta.StartSession("quiet", "jumping-jacks")
	require.NoError(t, err)
	assert.False(t, ta.Announcer().Enabled())

	_, err = ta.StartSession("loud", "jumping-jacks")
	require.NoError(t, err)
	assert.True(t, ta.Announcer().Enabled())
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.GuestUser = ""

	_, err := New(Options{Config: cfg, Detector: pose.NewMockDetector()})
	assert.Error(t, err)
}
