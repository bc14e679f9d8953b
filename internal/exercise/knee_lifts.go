package exercise

import "github.com/ayusman/repcoach/internal/pose"

const (
	kneeLiftThreshold   = 70.0
	kneeLiftPartial     = 30.0
	kneeLiftNeutral     = 40.0
	kneeLiftStraightLeg = 145.0
	kneeLiftHipMovement = 60.0
)

// KneeLifts alternates knee raises measured against the standing knee height.
func KneeLifts() Config {
	lifts := func(j pose.Joints, b Baseline) (left, right float64) {
		return b["knee_y"] - j[pose.LeftKnee].Y, b["knee_y"] - j[pose.RightKnee].Y
	}

	return Config{
		Slug: "knee-lifts",
		Name: "Knee Lifting",
		Joints: []pose.JointID{
			pose.LeftHip, pose.RightHip,
			pose.LeftKnee, pose.RightKnee,
			pose.LeftAnkle, pose.RightAnkle,
		},
		Mode:      CountOnEnter,
		Alternate: true,

		Calibrate: func(j pose.Joints) Baseline {
			return Baseline{
				"knee_y": meanY(j, pose.LeftKnee, pose.RightKnee),
				"hip_y":  meanY(j, pose.LeftHip, pose.RightHip),
			}
		},
		Enter: func(j pose.Joints, b Baseline) (Side, bool) {
			l, r := lifts(j, b)
			switch {
			case l > kneeLiftThreshold && r > kneeLiftThreshold:
				if r > l {
					return SideRight, true
				}
				return SideLeft, true
			case l > kneeLiftThreshold:
				return SideLeft, true
			case r > kneeLiftThreshold:
				return SideRight, true
			}
			return SideNone, false
		},
		Release: func(j pose.Joints, b Baseline) bool {
			return abs(j[pose.LeftKnee].Y-b["knee_y"]) < kneeLiftNeutral &&
				abs(j[pose.RightKnee].Y-b["knee_y"]) < kneeLiftNeutral
		},
		Form: func(j pose.Joints, b Baseline, side Side) (bool, string) {
			knee := angle(j, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle)
			if side == SideRight {
				knee = angle(j, pose.RightHip, pose.RightKnee, pose.RightAnkle)
			}
			stable := abs(j[pose.LeftHip].Y-b["hip_y"]) < kneeLiftHipMovement ||
				abs(j[pose.RightHip].Y-b["hip_y"]) < kneeLiftHipMovement
			switch {
			case !stable:
				return false, "keep your hips steady"
			case knee <= kneeLiftStraightLeg:
				return false, "lift your knee higher (angle > 145°)"
			}
			return true, ""
		},
		Partial: func(j pose.Joints, b Baseline) string {
			l, r := lifts(j, b)
			if l > kneeLiftPartial || r > kneeLiftPartial {
				return "Lift your knee higher"
			}
			return ""
		},
		Debug: func(j pose.Joints, b Baseline) map[string]float64 {
			l, r := lifts(j, b)
			return map[string]float64{
				"left_lift":        l,
				"right_lift":       r,
				"left_knee_angle":  angle(j, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle),
				"right_knee_angle": angle(j, pose.RightHip, pose.RightKnee, pose.RightAnkle),
			}
		},

		Cues: Cues{
			CalibratingHint: "Stand normally.",
			Calibrated:      "Calibration complete! Start lifting your knees",
			NotVisible:      fullBodyNotVisible,
			AwaitRelease:    "Lower your knee to complete the rep",
			Ready:           readyForNext,
			Idle:            "Lower both feet to the ground",
			Alternate:       "Alternate knees for next rep!",
			Perfect:         "Perfect! Rep counted: %d",
			Counted:         countedWithHint,
		},
		Announce: []string{"Perfect", "Rep counted", "Alternate knees", "Calibration complete"},
	}
}
