package exercise

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/repcoach/internal/pose"
)

// DefaultCalibrationFrames is the number of consecutive full-body frames
// needed before the baseline is captured.
const DefaultCalibrationFrames = 30

// ErrUnknownExercise is returned when a slug names no registered exercise.
var ErrUnknownExercise = errors.New("unknown exercise")

// Side tells which limb performed a rep for alternating exercises.
type Side int

const (
	SideNone Side = iota
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return ""
	}
}

// MarshalText encodes the side by name.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Baseline holds the named reference measurements captured at calibration.
type Baseline map[string]float64

// CountMode selects the transition at which a rep is counted.
type CountMode int

const (
	// CountOnRelease counts when the user returns to neutral.
	CountOnRelease CountMode = iota
	// CountOnEnter counts as soon as the extreme is reached.
	CountOnEnter
	// CountAfterHold counts once the extreme has been held for Config.Hold.
	// Losing the extreme before then restarts the hold.
	CountAfterHold
)

// Cues are the feedback strings an exercise emits.
type Cues struct {
	CalibratingHint string
	Calibrated      string
	NotVisible      string
	Entered         string
	Holding         string
	AwaitRelease    string
	Ready           string
	Idle            string
	Alternate       string
	// Perfect takes the rep count.
	Perfect string
	// Counted takes the form hint and the rep count.
	Counted string
}

// Config declares one exercise for the generic tracker.
type Config struct {
	Slug string
	Name string

	// Joints must all be present for a frame to be evaluated.
	Joints []pose.JointID
	// Optional joints are passed through when present.
	Optional []pose.JointID

	CalibrationFrames int
	Mode              CountMode
	Hold              time.Duration
	// Alternate requires consecutive reps to use different sides.
	Alternate bool

	Calibrate func(j pose.Joints) Baseline
	// Enter reports the extreme of the movement using the tight threshold.
	Enter func(j pose.Joints, b Baseline) (Side, bool)
	// Release reports the return to neutral using the loose threshold.
	Release func(j pose.Joints, b Baseline) bool
	// Form grades the movement. It only changes the feedback category.
	// It is evaluated over the frames at the extreme, not on the release frame.
	Form func(j pose.Joints, b Baseline, side Side) (good bool, hint string)
	// Partial optionally coaches the user while neither extreme nor neutral.
	Partial func(j pose.Joints, b Baseline) string
	// Debug exposes per-frame measurements for overlays.
	Debug func(j pose.Joints, b Baseline) map[string]float64

	SideLabels map[Side]string
	Cues       Cues
	// Announce lists the phrases worth speaking aloud.
	Announce []string
}

var registry = []Config{
	JumpingJacks(),
	KneeLifts(),
	OverheadPress(),
	Lunges(),
	SideBends(),
	ToeTouches(),
	KneeToElbow(),
}

// All returns every registered exercise in menu order.
func All() []Config {
	out := make([]Config, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the exercise registered under slug.
func Lookup(slug string) (Config, error) {
	for _, c := range registry {
		if c.Slug == slug {
			return c, nil
		}
	}
	return Config{}, fmt.Errorf("%w: %q", ErrUnknownExercise, slug)
}

// Shared cue text.
const (
	fullBodyNotVisible = "Please make sure your full body is visible"
	readyForNext       = "Ready for next rep"
	perfectForm        = "Perfect form! Rep: %d"
	countedWithHint    = "Rep counted, but %s. Rep: %d"
)

func dist(j pose.Joints, a, b pose.JointID) float64 {
	return pose.Distance(j[a], j[b])
}

func angle(j pose.Joints, a, vertex, c pose.JointID) float64 {
	return pose.AngleAtVertex(j[a], j[vertex], j[c])
}

func meanY(j pose.Joints, a, b pose.JointID) float64 {
	return (j[a].Y + j[b].Y) / 2
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
