package exercise

import "github.com/ayusman/repcoach/internal/pose"

const (
	pressRaised   = 80.0
	pressPartial  = 40.0
	pressRackBand = 40.0
	pressStraight = 160.0
)

// OverheadPress tracks wrists travelling from shoulder height to overhead.
func OverheadPress() Config {
	rise := func(j pose.Joints, b Baseline) (left, right float64) {
		return b["shoulder_y"] - j[pose.LeftWrist].Y, b["shoulder_y"] - j[pose.RightWrist].Y
	}
	elbows := func(j pose.Joints) (left, right float64) {
		return angle(j, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist),
			angle(j, pose.RightShoulder, pose.RightElbow, pose.RightWrist)
	}

	return Config{
		Slug: "overhead-press",
		Name: "Overhead Press",
		Joints: []pose.JointID{
			pose.LeftWrist, pose.RightWrist,
			pose.LeftElbow, pose.RightElbow,
			pose.LeftShoulder, pose.RightShoulder,
		},
		Mode: CountOnRelease,

		Calibrate: func(j pose.Joints) Baseline {
			return Baseline{"shoulder_y": meanY(j, pose.LeftShoulder, pose.RightShoulder)}
		},
		Enter: func(j pose.Joints, b Baseline) (Side, bool) {
			l, r := rise(j, b)
			return SideNone, l > pressRaised && r > pressRaised
		},
		Release: func(j pose.Joints, b Baseline) bool {
			l, r := rise(j, b)
			return abs(l) < pressRackBand && abs(r) < pressRackBand
		},
		Form: func(j pose.Joints, _ Baseline, _ Side) (bool, string) {
			l, r := elbows(j)
			if l > pressStraight && r > pressStraight {
				return true, ""
			}
			return false, "straighten your arms at the top"
		},
		Partial: func(j pose.Joints, b Baseline) string {
			l, r := rise(j, b)
			if (l > pressRaised) != (r > pressRaised) {
				return "Press both arms together"
			}
			if l > pressPartial && r > pressPartial {
				return "Press higher"
			}
			return ""
		},
		Debug: func(j pose.Joints, b Baseline) map[string]float64 {
			l, r := rise(j, b)
			le, re := elbows(j)
			return map[string]float64{
				"left_wrist_rise":  l,
				"right_wrist_rise": r,
				"left_elbow":       le,
				"right_elbow":      re,
			}
		},

		Cues: Cues{
			CalibratingHint: "Hold the weights at shoulder level.",
			Calibrated:      "Calibration complete! Start pressing",
			NotVisible:      "Please make sure your upper body is visible",
			Entered:         "Good press! Now lower the weights",
			AwaitRelease:    "Lower the weights to shoulder level",
			Ready:           readyForNext,
			Idle:            "Press the weights overhead",
			Perfect:         "Perfect rep! Count: %d",
			Counted:         countedWithHint,
		},
		Announce: []string{"Perfect rep", "Rep counted", "Good press", "Calibration complete", "Straighten your arms"},
	}
}
