package exercise

import (
	"time"

	"github.com/ayusman/repcoach/internal/pose"
)

const (
	lungeHipDrop    = 0.08
	lungeHipRelease = 0.04
	lungeKneeBent   = 160.0
	lungeHold       = 600 * time.Millisecond
)

// Lunges counts a rep once a dropped, bent-knee stance has been held.
func Lunges() Config {
	drop := func(j pose.Joints, b Baseline) float64 {
		return pose.SafeRatio(meanY(j, pose.LeftHip, pose.RightHip)-b["hip_y"], b["hip_y"])
	}
	knees := func(j pose.Joints) (left, right float64) {
		return angle(j, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle),
			angle(j, pose.RightHip, pose.RightKnee, pose.RightAnkle)
	}

	return Config{
		Slug: "lunges",
		Name: "Lunges",
		Joints: []pose.JointID{
			pose.LeftHip, pose.RightHip,
			pose.LeftKnee, pose.RightKnee,
			pose.LeftAnkle, pose.RightAnkle,
		},
		Mode: CountAfterHold,
		Hold: lungeHold,

		Calibrate: func(j pose.Joints) Baseline {
			return Baseline{"hip_y": meanY(j, pose.LeftHip, pose.RightHip)}
		},
		Enter: func(j pose.Joints, b Baseline) (Side, bool) {
			l, r := knees(j)
			return SideNone, drop(j, b) > lungeHipDrop && (l < lungeKneeBent || r < lungeKneeBent)
		},
		Release: func(j pose.Joints, b Baseline) bool {
			return drop(j, b) < lungeHipRelease
		},
		Form: func(j pose.Joints, _ Baseline, _ Side) (bool, string) {
			l, r := knees(j)
			if l < lungeKneeBent && r < lungeKneeBent {
				return true, ""
			}
			return false, "bend both knees"
		},
		Partial: func(j pose.Joints, b Baseline) string {
			if drop(j, b) > lungeHipDrop {
				return "Bend your knees more"
			}
			return ""
		},
		Debug: func(j pose.Joints, b Baseline) map[string]float64 {
			l, r := knees(j)
			return map[string]float64{
				"hip_drop":         drop(j, b),
				"left_knee_angle":  l,
				"right_knee_angle": r,
			}
		},

		Cues: Cues{
			CalibratingHint: "Stand tall with feet hip-width apart.",
			Calibrated:      "Calibration complete! Start your lunges",
			NotVisible:      "Please make sure your lower body is visible",
			Entered:         "Good lunge! Hold the position",
			Holding:         "Hold the lunge to count rep",
			AwaitRelease:    "Release to count next rep",
			Ready:           "Perform a lunge: step one foot forward and bend both knees",
			Idle:            "Lower your hips more",
			Perfect:         perfectForm,
			Counted:         countedWithHint,
		},
		Announce: []string{"Perfect form", "Rep counted", "Good lunge", "Calibration complete"},
	}
}
