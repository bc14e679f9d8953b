package exercise

import "github.com/ayusman/repcoach/internal/pose"

const (
	bendLean       = 0.25
	bendRelease    = 0.10
	bendMinWidth   = 0.8
	bendMaxHipSway = 0.15
)

// SideBends measures how far the shoulder midpoint leans past the hips,
// relative to torso length. Sides must alternate.
func SideBends() Config {
	// lean is positive toward the user's left hip.
	lean := func(j pose.Joints, b Baseline) float64 {
		shoulders := pose.Midpoint(j[pose.LeftShoulder], j[pose.RightShoulder])
		hips := pose.Midpoint(j[pose.LeftHip], j[pose.RightHip])
		dir := 1.0
		if j[pose.LeftHip].X < j[pose.RightHip].X {
			dir = -1
		}
		return pose.SafeRatio((shoulders.X-hips.X)*dir, b["torso"]) - b["lean"]
	}
	widthRatio := func(j pose.Joints, b Baseline) float64 {
		return pose.SafeRatio(dist(j, pose.LeftShoulder, pose.RightShoulder), b["shoulder_width"])
	}
	hipSway := func(j pose.Joints, b Baseline) float64 {
		hips := pose.Midpoint(j[pose.LeftHip], j[pose.RightHip])
		return pose.SafeRatio(abs(hips.X-b["hip_x"]), b["torso"])
	}

	return Config{
		Slug: "side-bends",
		Name: "Standing Side Bends",
		Joints: []pose.JointID{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftHip, pose.RightHip,
		},
		Mode:      CountOnRelease,
		Alternate: true,

		Calibrate: func(j pose.Joints) Baseline {
			shoulders := pose.Midpoint(j[pose.LeftShoulder], j[pose.RightShoulder])
			hips := pose.Midpoint(j[pose.LeftHip], j[pose.RightHip])
			b := Baseline{
				"torso":          pose.Distance(shoulders, hips),
				"shoulder_width": dist(j, pose.LeftShoulder, pose.RightShoulder),
				"hip_x":          hips.X,
				"lean":           0,
			}
			// Posture offset at rest is subtracted from later leans.
			b["lean"] = lean(j, b)
			return b
		},
		Enter: func(j pose.Joints, b Baseline) (Side, bool) {
			l := lean(j, b)
			switch {
			case l > bendLean:
				return SideLeft, true
			case l < -bendLean:
				return SideRight, true
			}
			return SideNone, false
		},
		Release: func(j pose.Joints, b Baseline) bool {
			return abs(lean(j, b)) < bendRelease
		},
		Form: func(j pose.Joints, b Baseline, _ Side) (bool, string) {
			switch {
			case widthRatio(j, b) < bendMinWidth:
				return false, "avoid twisting"
			case hipSway(j, b) > bendMaxHipSway:
				return false, "keep your hips centered"
			}
			return true, ""
		},
		Debug: func(j pose.Joints, b Baseline) map[string]float64 {
			return map[string]float64{
				"lean":                 lean(j, b),
				"shoulder_width_ratio": widthRatio(j, b),
				"hip_sway":             hipSway(j, b),
			}
		},

		Cues: Cues{
			CalibratingHint: "Stand tall with arms relaxed.",
			Calibrated:      "Calibration complete! Start bending side to side",
			NotVisible:      "Please make sure your shoulders and hips are visible",
			Entered:         "Good bend! Now return to center",
			AwaitRelease:    "Return to center",
			Ready:           readyForNext,
			Idle:            "Bend further to the side",
			Alternate:       "Bend to the other side for next rep!",
			Perfect:         perfectForm,
			Counted:         countedWithHint,
		},
		Announce: []string{"Perfect form", "Rep counted", "Good bend", "other side", "Calibration complete"},
	}
}
