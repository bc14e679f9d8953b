package exercise

import "github.com/ayusman/repcoach/internal/pose"

const (
	k2eContact   = 100.0
	k2eApart     = 150.0
	k2eLift      = 50.0
	k2eGoodLift  = 80.0
	k2eNeutral   = 30.0
	k2eGoodTwist = 20.0
)

// KneeToElbow counts cross-body crunches. A left rep brings the left knee to
// the right elbow. Sides must alternate.
func KneeToElbow() Config {
	lifts := func(j pose.Joints, b Baseline) (left, right float64) {
		return b["knee_y"] - j[pose.LeftKnee].Y, b["knee_y"] - j[pose.RightKnee].Y
	}
	gaps := func(j pose.Joints) (left, right float64) {
		return dist(j, pose.LeftKnee, pose.RightElbow), dist(j, pose.RightKnee, pose.LeftElbow)
	}
	twists := func(j pose.Joints) (left, right float64) {
		return angle(j, pose.LeftShoulder, pose.LeftHip, pose.RightHip),
			angle(j, pose.RightShoulder, pose.RightHip, pose.LeftHip)
	}

	return Config{
		Slug: "knee-to-elbow",
		Name: "Standing Knee to Elbow",
		Joints: []pose.JointID{
			pose.LeftKnee, pose.RightKnee,
			pose.LeftElbow, pose.RightElbow,
			pose.LeftHip, pose.RightHip,
			pose.LeftShoulder, pose.RightShoulder,
		},
		Mode:      CountOnRelease,
		Alternate: true,

		Calibrate: func(j pose.Joints) Baseline {
			return Baseline{"knee_y": meanY(j, pose.LeftKnee, pose.RightKnee)}
		},
		Enter: func(j pose.Joints, b Baseline) (Side, bool) {
			gl, gr := gaps(j)
			ll, lr := lifts(j, b)
			left := gl < k2eContact && ll > k2eLift
			right := gr < k2eContact && lr > k2eLift
			switch {
			case left && !right:
				return SideLeft, true
			case right && !left:
				return SideRight, true
			}
			return SideNone, false
		},
		Release: func(j pose.Joints, b Baseline) bool {
			gl, gr := gaps(j)
			return gl > k2eApart && gr > k2eApart &&
				abs(j[pose.LeftKnee].Y-b["knee_y"]) < k2eNeutral &&
				abs(j[pose.RightKnee].Y-b["knee_y"]) < k2eNeutral
		},
		Form: func(j pose.Joints, b Baseline, side Side) (bool, string) {
			twist, _ := twists(j)
			lift, _ := lifts(j, b)
			if side == SideRight {
				_, twist = twists(j)
				_, lift = lifts(j, b)
			}
			switch {
			case twist <= k2eGoodTwist:
				return false, "twist your torso more"
			case lift <= k2eGoodLift:
				return false, "lift your knee higher"
			}
			return true, ""
		},
		Partial: func(j pose.Joints, b Baseline) string {
			ll, lr := lifts(j, b)
			if ll > k2eLift || lr > k2eLift {
				return "Bring knee and opposite elbow together"
			}
			return ""
		},
		Debug: func(j pose.Joints, b Baseline) map[string]float64 {
			gl, gr := gaps(j)
			ll, lr := lifts(j, b)
			tl, tr := twists(j)
			return map[string]float64{
				"left_gap":    gl,
				"right_gap":   gr,
				"left_lift":   ll,
				"right_lift":  lr,
				"left_twist":  tl,
				"right_twist": tr,
			}
		},

		SideLabels: map[Side]string{
			SideLeft:  "left knee to right elbow",
			SideRight: "right knee to left elbow",
		},
		Cues: Cues{
			CalibratingHint: "Stand straight with hands behind your head.",
			Calibrated:      "Calibration complete! Start bringing knee to opposite elbow",
			NotVisible:      fullBodyNotVisible,
			Entered:         "Good contact!",
			AwaitRelease:    "Return to neutral position",
			Ready:           readyForNext,
			Idle:            "Return to neutral position",
			Alternate:       "Alternate sides for next rep!",
			Perfect:         "Perfect rep! Count: %d",
			Counted:         "Rep counted, but %s. Count: %d",
		},
		Announce: []string{"Perfect rep", "Rep counted", "Good contact", "Alternate sides", "Calibration complete"},
	}
}
