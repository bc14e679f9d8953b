package e2e

import (
	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/pose"
)

// frameStep is the spacing between synthetic frames, roughly 30 FPS.
const frameStep = 33

type poseFn func(ts int64) *pose.Frame

func leftKneeUp(ts int64) *pose.Frame {
	return pose.StandingPose(ts).
		Set(pose.LeftKnee, pose.Point{X: 282, Y: 480}).
		Set(pose.LeftAnkle, pose.Point{X: 282, Y: 620})
}

func rightKneeUp(ts int64) *pose.Frame {
	return pose.StandingPose(ts).
		Set(pose.RightKnee, pose.Point{X: 358, Y: 480}).
		Set(pose.RightAnkle, pose.Point{X: 358, Y: 620})
}

// noHips is a frame where the person stepped half out of view.
func noHips(ts int64) *pose.Frame {
	f := pose.StandingPose(ts)
	delete(f.Joints, pose.LeftHip)
	delete(f.Joints, pose.RightHip)
	return f
}

// sequence lays poses out on a frame clock starting after start.
type sequence struct {
	ts     int64
	frames []*pose.Frame
}

func (s *sequence) add(poses ...poseFn) *sequence {
	for _, p := range poses {
		s.ts += frameStep
		s.frames = append(s.frames, p(s.ts))
	}
	return s
}

func (s *sequence) calibrate() *sequence {
	for i := 0; i < exercise.DefaultCalibrationFrames; i++ {
		s.add(pose.StandingPose)
	}
	return s
}

// kneeLifts alternates n knee lifts, starting with the left knee.
func (s *sequence) kneeLifts(n int) *sequence {
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			s.add(leftKneeUp, pose.StandingPose)
		} else {
			s.add(rightKneeUp, pose.StandingPose)
		}
	}
	return s
}

func (s *sequence) jumpingJacks(n int) *sequence {
	for i := 0; i < n; i++ {
		s.add(pose.StarPose, pose.StandingPose)
	}
	return s
}
