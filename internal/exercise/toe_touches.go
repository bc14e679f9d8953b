package exercise

import (
	"math"

	"github.com/ayusman/repcoach/internal/pose"
)

const (
	toeContact      = 100.0
	toeBentOffset   = 50.0
	toeHandNeutral  = 50.0
	toeHipNeutral   = 30.0
	toeBackAngle    = 70.0
	toeStraightKnee = 160.0
)

// ToeTouches counts a reach from standing to the feet and back.
func ToeTouches() Config {
	reach := func(j pose.Joints) float64 {
		return math.Min(
			math.Min(dist(j, pose.LeftWrist, pose.LeftAnkle), dist(j, pose.LeftWrist, pose.RightAnkle)),
			math.Min(dist(j, pose.RightWrist, pose.LeftAnkle), dist(j, pose.RightWrist, pose.RightAnkle)),
		)
	}
	back := func(j pose.Joints) float64 {
		return angle(j, pose.LeftShoulder, pose.LeftHip, pose.LeftAnkle)
	}
	// knees reports 180 when the knees are not visible.
	knees := func(j pose.Joints) float64 {
		if !j.Has(pose.LeftKnee) || !j.Has(pose.RightKnee) {
			return 180
		}
		return (angle(j, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle) +
			angle(j, pose.RightHip, pose.RightKnee, pose.RightAnkle)) / 2
	}

	return Config{
		Slug: "toe-touches",
		Name: "Standing Toe Touches",
		Joints: []pose.JointID{
			pose.LeftWrist, pose.RightWrist,
			pose.LeftAnkle, pose.RightAnkle,
			pose.LeftHip, pose.RightHip,
			pose.LeftShoulder, pose.RightShoulder,
		},
		Optional: []pose.JointID{pose.LeftKnee, pose.RightKnee},
		Mode:     CountOnRelease,

		Calibrate: func(j pose.Joints) Baseline {
			return Baseline{
				"hand_y": meanY(j, pose.LeftWrist, pose.RightWrist),
				"hip_y":  meanY(j, pose.LeftHip, pose.RightHip),
			}
		},
		Enter: func(j pose.Joints, _ Baseline) (Side, bool) {
			return SideNone, reach(j) < toeContact
		},
		Release: func(j pose.Joints, b Baseline) bool {
			return abs(meanY(j, pose.LeftWrist, pose.RightWrist)-b["hand_y"]) < toeHandNeutral &&
				abs(meanY(j, pose.LeftHip, pose.RightHip)-b["hip_y"]) < toeHipNeutral
		},
		Form: func(j pose.Joints, _ Baseline, _ Side) (bool, string) {
			switch {
			case back(j) <= toeBackAngle:
				return false, "keep back straighter"
			case knees(j) <= toeStraightKnee:
				return false, "bend knees less"
			}
			return true, ""
		},
		Partial: func(j pose.Joints, _ Baseline) string {
			if meanY(j, pose.LeftWrist, pose.RightWrist) > meanY(j, pose.LeftHip, pose.RightHip)+toeBentOffset {
				return "Reach further toward your toes"
			}
			return ""
		},
		Debug: func(j pose.Joints, _ Baseline) map[string]float64 {
			return map[string]float64{
				"reach":      reach(j),
				"back_angle": back(j),
				"knee_angle": knees(j),
			}
		},

		Cues: Cues{
			CalibratingHint: "Stand tall with arms at your sides.",
			Calibrated:      "Calibration complete! Start your toe touches",
			NotVisible:      fullBodyNotVisible,
			Entered:         "Good reach! Now return to standing",
			AwaitRelease:    "Return to standing position",
			Ready:           readyForNext,
			Idle:            "Return to standing position",
			Perfect:         perfectForm,
			Counted:         countedWithHint,
		},
		Announce: []string{"Perfect form", "Rep counted", "Good reach", "Calibration complete"},
	}
}
