package exercise

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/repcoach/internal/pose"
)

func TestTracker_Calibration(t *testing.T) {
	t.Run("initial state", func(t *testing.T) {
		tr := NewTracker(JumpingJacks())
		assert.Equal(t, Calibrating, tr.Phase())
		assert.Equal(t, InitialFeedback, tr.Feedback())
		assert.Equal(t, 0, tr.Reps())
		assert.Nil(t, tr.Baseline())
		assert.False(t, tr.Calibrated())
	})

	t.Run("ready after exactly 30 frames with baseline from the last one", func(t *testing.T) {
		f := newFeeder(t, JumpingJacks())
		for i := 0; i < DefaultCalibrationFrames-1; i++ {
			f.feed(standing)
			require.Equal(t, Calibrating, f.tr.Phase())
		}
		assert.Equal(t, "Calibrating... 96% complete. Stand still with arms at your sides.", f.tr.Feedback())

		// The last calibration frame has wider shoulders than the rest.
		got := f.feed(func(ts int64) *pose.Frame {
			return pose.StandingPose(ts).
				Set(pose.LeftShoulder, pose.Point{X: 250, Y: 200}).
				Set(pose.RightShoulder, pose.Point{X: 390, Y: 200})
		})

		assert.Equal(t, "Calibration complete! Start your jumping jacks", got)
		assert.Equal(t, Ready, f.tr.Phase())
		assert.InDelta(t, 140, f.tr.Baseline()["shoulder_width"], 1e-9)
		assert.InDelta(t, 80, f.tr.Baseline()["hip_width"], 1e-9)
	})

	t.Run("progress message", func(t *testing.T) {
		f := newFeeder(t, KneeLifts())
		got := f.feed(standing)
		assert.Equal(t, "Calibrating... 3% complete. Stand normally.", got)
		assert.Equal(t, 1, f.tr.CalibrationFrames())
	})

	t.Run("missing joint restarts calibration", func(t *testing.T) {
		f := newFeeder(t, JumpingJacks())
		for i := 0; i < 15; i++ {
			f.feed(standing)
		}
		got := f.feed(without(standing, pose.LeftAnkle))
		assert.Equal(t, fullBodyNotVisible, got)
		assert.Equal(t, 0, f.tr.CalibrationFrames())

		for i := 0; i < DefaultCalibrationFrames-1; i++ {
			f.feed(standing)
		}
		assert.Equal(t, Calibrating, f.tr.Phase())
		f.feed(standing)
		assert.Equal(t, Ready, f.tr.Phase())
	})

	t.Run("optional joints are not required", func(t *testing.T) {
		f := newFeeder(t, JumpingJacks())
		f.calibrate(without(standing, pose.LeftElbow, pose.RightElbow))
	})

	t.Run("non-finite coordinates count as missing", func(t *testing.T) {
		f := newFeeder(t, JumpingJacks())
		f.calibrate(standing)
		got := f.feed(func(ts int64) *pose.Frame {
			return pose.StandingPose(ts).Set(pose.LeftWrist, pose.Point{X: math.NaN(), Y: 0})
		})
		assert.Equal(t, fullBodyNotVisible, got)
		assert.Equal(t, Calibrating, f.tr.Phase())
	})
}

func TestTracker_LostDuringSessionKeepsReps(t *testing.T) {
	f := newFeeder(t, JumpingJacks())
	f.calibrate(standing)
	f.feed(star)
	f.feed(standing)
	require.Equal(t, 1, f.tr.Reps())

	f.feed(star)
	got := f.feed(without(star, pose.RightWrist))
	assert.Equal(t, fullBodyNotVisible, got)
	assert.Equal(t, Calibrating, f.tr.Phase())
	assert.Equal(t, 0, f.tr.CalibrationFrames())
	assert.Equal(t, 1, f.tr.Reps())

	// The interrupted rep is not completed by recalibrating.
	f.calibrate(standing)
	assert.Equal(t, 1, f.tr.Reps())
}

func TestTracker_Reset(t *testing.T) {
	f := newFeeder(t, KneeToElbow())
	f.calibrate(standing)
	f.feed(leftKneeToElbow)
	f.feed(standing)
	require.Equal(t, 1, f.tr.Reps())

	f.tr.Reset()
	assert.Equal(t, 0, f.tr.Reps())
	assert.Equal(t, Calibrating, f.tr.Phase())
	assert.Equal(t, 0, f.tr.CalibrationFrames())
	assert.Equal(t, InitialFeedback, f.tr.Feedback())
	assert.Nil(t, f.tr.Baseline())

	// Alternation memory is cleared too.
	f.calibrate(standing)
	f.feed(leftKneeToElbow)
	f.feed(standing)
	assert.Equal(t, 1, f.tr.Reps())
}

func TestTracker_RepsNeverDecrease(t *testing.T) {
	poses := []poseFn{standing, star, halfStar, bentStar, without(standing, pose.LeftHip)}
	rng := rand.New(rand.NewSource(7))

	for _, cfg := range All() {
		t.Run(cfg.Slug, func(t *testing.T) {
			f := newFeeder(t, cfg)
			prev := 0
			for i := 0; i < 2000; i++ {
				f.feed(poses[rng.Intn(len(poses))])
				require.GreaterOrEqual(t, f.tr.Reps(), prev)
				prev = f.tr.Reps()
			}
		})
	}
}

func TestTracker_State(t *testing.T) {
	f := newFeeder(t, JumpingJacks())
	f.calibrate(standing)
	f.feed(star)

	s := f.tr.State()
	assert.Equal(t, "jumping-jacks", s.Exercise)
	assert.Equal(t, "Gentle Jumping Jacks", s.Name)
	assert.Equal(t, InMotion, s.Phase)
	assert.Equal(t, f.tr.Feedback(), s.Feedback)
	assert.InDelta(t, 440.0/120.0, s.Debug["arm_expansion"], 1e-9)

	// The snapshot does not alias tracker state.
	s.Debug["arm_expansion"] = 0
	assert.NotZero(t, f.tr.State().Debug["arm_expansion"])
}

func TestRegistry(t *testing.T) {
	t.Run("lookup by slug", func(t *testing.T) {
		cfg, err := Lookup("lunges")
		require.NoError(t, err)
		assert.Equal(t, "Lunges", cfg.Name)
	})

	t.Run("unknown slug", func(t *testing.T) {
		_, err := Lookup("burpees")
		assert.True(t, errors.Is(err, ErrUnknownExercise))
	})

	t.Run("configs are complete", func(t *testing.T) {
		seen := map[string]bool{}
		for _, cfg := range All() {
			assert.False(t, seen[cfg.Slug], "duplicate slug %s", cfg.Slug)
			seen[cfg.Slug] = true

			assert.NotEmpty(t, cfg.Name)
			assert.NotEmpty(t, cfg.Joints)
			assert.NotNil(t, cfg.Calibrate, cfg.Slug)
			assert.NotNil(t, cfg.Enter, cfg.Slug)
			assert.NotNil(t, cfg.Release, cfg.Slug)
			assert.NotEmpty(t, cfg.Announce, cfg.Slug)
			assert.Equal(t, 1, strings.Count(cfg.Cues.Perfect, "%d"), cfg.Slug)
			assert.Equal(t, 1, strings.Count(cfg.Cues.Counted, "%s"), cfg.Slug)
			assert.Equal(t, 1, strings.Count(cfg.Cues.Counted, "%d"), cfg.Slug)
			if cfg.Alternate {
				assert.NotEmpty(t, cfg.Cues.Alternate, cfg.Slug)
			}
			if cfg.Mode == CountAfterHold {
				assert.Positive(t, cfg.Hold, cfg.Slug)
				assert.NotEmpty(t, cfg.Cues.Holding, cfg.Slug)
			}
		}
		assert.Len(t, seen, 7)
	})

	t.Run("All returns a copy", func(t *testing.T) {
		all := All()
		all[0].Slug = "changed"
		assert.Equal(t, "jumping-jacks", All()[0].Slug)
	})
}

func TestPhaseAndSideText(t *testing.T) {
	assert.Equal(t, "in_motion", InMotion.String())
	b, err := Ready.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "ready", string(b))
	assert.Equal(t, "left", SideLeft.String())
	assert.Equal(t, "", SideNone.String())
}
