package exercise

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ayusman/repcoach/internal/pose"
)

// frameStep is the spacing between synthetic frames, roughly 30 FPS.
const frameStep = 33

type poseFn func(ts int64) *pose.Frame

// feeder drives a tracker with monotonically increasing timestamps.
type feeder struct {
	t  *testing.T
	tr *Tracker
	ts int64
}

func newFeeder(t *testing.T, cfg Config) *feeder {
	return &feeder{t: t, tr: NewTracker(cfg)}
}

func (f *feeder) feed(p poseFn) string {
	f.ts += frameStep
	return f.tr.Update(p(f.ts))
}

// at feeds a pose at an absolute timestamp.
func (f *feeder) at(ts int64, p poseFn) string {
	f.ts = ts
	return f.tr.Update(p(ts))
}

func (f *feeder) calibrate(p poseFn) {
	f.t.Helper()
	for i := 0; i < DefaultCalibrationFrames; i++ {
		f.feed(p)
	}
	require.Equal(f.t, Ready, f.tr.Phase())
}

func standing(ts int64) *pose.Frame { return pose.StandingPose(ts) }

func star(ts int64) *pose.Frame { return pose.StarPose(ts) }

// bentStar spreads arms and legs with elbows at roughly 120 degrees.
func bentStar(ts int64) *pose.Frame {
	return pose.StarPose(ts).
		Set(pose.LeftElbow, pose.Point{X: 180, Y: 200}).
		Set(pose.RightElbow, pose.Point{X: 460, Y: 200})
}

// halfStar is between the release and trigger thresholds.
func halfStar(ts int64) *pose.Frame {
	return pose.StandingPose(ts).
		Set(pose.LeftWrist, pose.Point{X: 230, Y: 300}).
		Set(pose.RightWrist, pose.Point{X: 410, Y: 300}).
		Set(pose.LeftAnkle, pose.Point{X: 268, Y: 700}).
		Set(pose.RightAnkle, pose.Point{X: 372, Y: 700})
}

func without(p poseFn, ids ...pose.JointID) poseFn {
	return func(ts int64) *pose.Frame {
		f := p(ts)
		for _, id := range ids {
			delete(f.Joints, id)
		}
		return f
	}
}

// leftKneeUp raises the left knee 80px with the shin hanging straight.
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

// leftKneeTucked raises the left knee with the shin folded back.
func leftKneeTucked(ts int64) *pose.Frame {
	return pose.StandingPose(ts).
		Set(pose.LeftKnee, pose.Point{X: 300, Y: 470}).
		Set(pose.LeftAnkle, pose.Point{X: 250, Y: 520})
}

// rack holds the hands at shoulder height.
func rack(ts int64) *pose.Frame {
	return pose.StandingPose(ts).
		Set(pose.LeftElbow, pose.Point{X: 230, Y: 260}).
		Set(pose.RightElbow, pose.Point{X: 410, Y: 260}).
		Set(pose.LeftWrist, pose.Point{X: 245, Y: 200}).
		Set(pose.RightWrist, pose.Point{X: 395, Y: 200})
}

func pressTop(ts int64) *pose.Frame {
	return pose.StandingPose(ts).
		Set(pose.LeftElbow, pose.Point{X: 255, Y: 120}).
		Set(pose.RightElbow, pose.Point{X: 385, Y: 120}).
		Set(pose.LeftWrist, pose.Point{X: 255, Y: 40}).
		Set(pose.RightWrist, pose.Point{X: 385, Y: 40})
}

func pressTopBent(ts int64) *pose.Frame {
	return pressTop(ts).
		Set(pose.LeftElbow, pose.Point{X: 200, Y: 100}).
		Set(pose.RightElbow, pose.Point{X: 440, Y: 100})
}

// lunge drops the hips 50px with both knees bent.
func lunge(ts int64) *pose.Frame {
	return pose.StandingPose(ts).
		Set(pose.LeftHip, pose.Point{X: 280, Y: 470}).
		Set(pose.RightHip, pose.Point{X: 360, Y: 470}).
		Set(pose.LeftKnee, pose.Point{X: 240, Y: 540}).
		Set(pose.LeftAnkle, pose.Point{X: 230, Y: 700}).
		Set(pose.RightKnee, pose.Point{X: 330, Y: 620}).
		Set(pose.RightAnkle, pose.Point{X: 420, Y: 650})
}

// halfStand lifts out of the lunge with straight legs, hips still 20px low.
func halfStand(ts int64) *pose.Frame {
	return pose.StandingPose(ts).
		Set(pose.LeftHip, pose.Point{X: 280, Y: 440}).
		Set(pose.RightHip, pose.Point{X: 360, Y: 440})
}

// shallowLunge bends only the front knee.
func shallowLunge(ts int64) *pose.Frame {
	return lunge(ts).
		Set(pose.RightKnee, pose.Point{X: 400, Y: 600}).
		Set(pose.RightAnkle, pose.Point{X: 420, Y: 700})
}

// squatStraightLegs drops the hips without bending the knees.
func squatStraightLegs(ts int64) *pose.Frame {
	return pose.StandingPose(ts).
		Set(pose.LeftHip, pose.Point{X: 282, Y: 470}).
		Set(pose.RightHip, pose.Point{X: 358, Y: 470})
}

func bendLeft(ts int64) *pose.Frame {
	return pose.StandingPose(ts).
		Set(pose.LeftShoulder, pose.Point{X: 190, Y: 215}).
		Set(pose.RightShoulder, pose.Point{X: 310, Y: 185})
}

func bendRight(ts int64) *pose.Frame {
	return pose.StandingPose(ts).
		Set(pose.LeftShoulder, pose.Point{X: 330, Y: 185}).
		Set(pose.RightShoulder, pose.Point{X: 450, Y: 215})
}

// bendLeftTwisted leans left while the shoulders rotate out of plane.
func bendLeftTwisted(ts int64) *pose.Frame {
	return pose.StandingPose(ts).
		Set(pose.LeftShoulder, pose.Point{X: 230, Y: 215}).
		Set(pose.RightShoulder, pose.Point{X: 290, Y: 185})
}

// toeReach puts both hands next to the ankles with the chest kept open.
func toeReach(ts int64) *pose.Frame {
	return pose.StandingPose(ts).
		Set(pose.LeftShoulder, pose.Point{X: 200, Y: 330}).
		Set(pose.LeftWrist, pose.Point{X: 270, Y: 650}).
		Set(pose.RightWrist, pose.Point{X: 370, Y: 660})
}

// toeReachFolded folds the torso flat against the legs.
func toeReachFolded(ts int64) *pose.Frame {
	return toeReach(ts).
		Set(pose.LeftShoulder, pose.Point{X: 290, Y: 600})
}

func handsAtKnees(ts int64) *pose.Frame {
	return pose.StandingPose(ts).
		Set(pose.LeftWrist, pose.Point{X: 245, Y: 500}).
		Set(pose.RightWrist, pose.Point{X: 395, Y: 500})
}

// leftKneeToElbow brings the left knee up 90px to the right elbow.
func leftKneeToElbow(ts int64) *pose.Frame {
	return pose.StandingPose(ts).
		Set(pose.LeftKnee, pose.Point{X: 300, Y: 470}).
		Set(pose.RightElbow, pose.Point{X: 330, Y: 440})
}

func rightKneeToElbow(ts int64) *pose.Frame {
	return pose.StandingPose(ts).
		Set(pose.RightKnee, pose.Point{X: 340, Y: 470}).
		Set(pose.LeftElbow, pose.Point{X: 310, Y: 440})
}

// bothKneesToElbows is an ambiguous double contact.
func bothKneesToElbows(ts int64) *pose.Frame {
	return leftKneeToElbow(ts).
		Set(pose.RightKnee, pose.Point{X: 340, Y: 470}).
		Set(pose.LeftElbow, pose.Point{X: 310, Y: 440})
}
