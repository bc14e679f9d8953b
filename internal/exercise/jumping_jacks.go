package exercise

import (
	"math"

	"github.com/ayusman/repcoach/internal/pose"
)

const (
	jackArmExpanded  = 1.7
	jackLegExpanded  = 1.4
	jackArmNeutral   = 1.3
	jackLegNeutral   = 1.2
	jackStraightElb  = 150.0
	jackMaxElbowDiff = 30.0
)

// JumpingJacks compares wrist and ankle spread against shoulder and hip width.
func JumpingJacks() Config {
	expansion := func(j pose.Joints, b Baseline) (arm, leg float64) {
		arm = pose.SafeRatio(dist(j, pose.LeftWrist, pose.RightWrist), b["shoulder_width"])
		leg = pose.SafeRatio(dist(j, pose.LeftAnkle, pose.RightAnkle), b["hip_width"])
		return arm, leg
	}
	elbows := func(j pose.Joints) (left, right float64, ok bool) {
		if !j.Has(pose.LeftElbow) || !j.Has(pose.RightElbow) {
			return 0, 0, false
		}
		left = angle(j, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist)
		right = angle(j, pose.RightShoulder, pose.RightElbow, pose.RightWrist)
		return left, right, true
	}

	return Config{
		Slug: "jumping-jacks",
		Name: "Gentle Jumping Jacks",
		Joints: []pose.JointID{
			pose.LeftWrist, pose.RightWrist,
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftHip, pose.RightHip,
			pose.LeftAnkle, pose.RightAnkle,
		},
		Optional: []pose.JointID{pose.LeftElbow, pose.RightElbow},
		Mode:     CountOnRelease,

		Calibrate: func(j pose.Joints) Baseline {
			return Baseline{
				"shoulder_width": dist(j, pose.LeftShoulder, pose.RightShoulder),
				"hip_width":      dist(j, pose.LeftHip, pose.RightHip),
			}
		},
		Enter: func(j pose.Joints, b Baseline) (Side, bool) {
			arm, leg := expansion(j, b)
			return SideNone, arm > jackArmExpanded && leg > jackLegExpanded
		},
		Release: func(j pose.Joints, b Baseline) bool {
			arm, leg := expansion(j, b)
			return arm < jackArmNeutral && leg < jackLegNeutral
		},
		Form: func(j pose.Joints, _ Baseline, _ Side) (bool, string) {
			l, r, ok := elbows(j)
			if ok && l > jackStraightElb && r > jackStraightElb && math.Abs(l-r) < jackMaxElbowDiff {
				return true, ""
			}
			return false, "try straighter arms"
		},
		Debug: func(j pose.Joints, b Baseline) map[string]float64 {
			arm, leg := expansion(j, b)
			l, r, _ := elbows(j)
			return map[string]float64{
				"arm_expansion": arm,
				"leg_expansion": leg,
				"left_elbow":    l,
				"right_elbow":   r,
			}
		},

		Cues: Cues{
			CalibratingHint: "Stand still with arms at your sides.",
			Calibrated:      "Calibration complete! Start your jumping jacks",
			NotVisible:      fullBodyNotVisible,
			Entered:         "Good expansion! Now return to center",
			AwaitRelease:    "Return to neutral position",
			Ready:           readyForNext,
			Idle:            "Expand more - arms up and out!",
			Perfect:         perfectForm,
			Counted:         countedWithHint,
		},
		Announce: []string{"Perfect form", "Rep counted", "Good expansion", "Calibration complete", "straighter arms"},
	}
}
