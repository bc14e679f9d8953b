// Package exercise implements rep counting for pose-tracked exercises.
//
// A Tracker is a single-threaded state machine: Calibrating → Ready →
// InMotion → Ready. One generic engine is driven by a per-exercise Config
// describing the baseline, the trigger and release predicates, the form
// check and the coaching cues.
package exercise

import (
	"fmt"
	"maps"

	"github.com/ayusman/repcoach/internal/pose"
)

// InitialFeedback is shown before the first frame and after Reset.
const InitialFeedback = "Please stand in frame for calibration"

// Phase is the tracker's position in the rep cycle.
type Phase int

const (
	Calibrating Phase = iota
	Ready
	InMotion
)

var phaseNames = []string{"calibrating", "ready", "in_motion"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is a point-in-time copy of a tracker, safe to hand to other goroutines.
type State struct {
	Exercise          string             `json:"exercise"`
	Name              string             `json:"name"`
	Phase             Phase              `json:"phase"`
	CalibrationFrames int                `json:"calibration_frames"`
	Side              Side               `json:"side"`
	Reps              int                `json:"reps"`
	Feedback          string             `json:"feedback"`
	Debug             map[string]float64 `json:"debug,omitempty"`
}

// Tracker counts reps for one exercise. It is not safe for concurrent use;
// the owning session serializes calls.
type Tracker struct {
	cfg Config

	phase     Phase
	calFrames int
	baseline  Baseline

	side      Side
	lastSide  Side
	enteredAt int64
	counted   bool
	formGood  bool
	formHint  string

	reps     int
	feedback string
	debug    map[string]float64
}

// NewTracker creates a tracker for the given exercise.
func NewTracker(cfg Config) *Tracker {
	if cfg.CalibrationFrames <= 0 {
		cfg.CalibrationFrames = DefaultCalibrationFrames
	}
	return &Tracker{
		cfg:      cfg,
		feedback: InitialFeedback,
	}
}

// Update consumes one landmark frame and returns the resulting feedback.
func (t *Tracker) Update(f *pose.Frame) string {
	joints, ok := t.lookup(f)
	if !ok {
		t.lost()
		return t.feedback
	}

	if t.phase == Calibrating {
		t.calibrate(joints)
		return t.feedback
	}

	if t.cfg.Debug != nil {
		t.debug = t.cfg.Debug(joints, t.baseline)
	}

	switch t.phase {
	case Ready:
		t.ready(joints, f.Timestamp)
	case InMotion:
		t.inMotion(joints, f.Timestamp)
	}
	return t.feedback
}

func (t *Tracker) lookup(f *pose.Frame) (pose.Joints, bool) {
	joints, ok := f.Lookup(t.cfg.Joints...)
	if !ok {
		return nil, false
	}
	for _, id := range t.cfg.Optional {
		if p, ok := f.Get(id); ok {
			joints[id] = p
		}
	}
	return joints, true
}

// lost handles a frame without the required joints. Reps survive; the
// baseline must be captured again.
func (t *Tracker) lost() {
	t.phase = Calibrating
	t.calFrames = 0
	t.side = SideNone
	t.counted = false
	t.debug = nil
	t.feedback = t.cfg.Cues.NotVisible
}

func (t *Tracker) calibrate(joints pose.Joints) {
	t.calFrames++
	if t.calFrames < t.cfg.CalibrationFrames {
		progress := t.calFrames * 100 / t.cfg.CalibrationFrames
		t.feedback = fmt.Sprintf("Calibrating... %d%% complete. %s", progress, t.cfg.Cues.CalibratingHint)
		return
	}

	t.baseline = t.cfg.Calibrate(joints)
	t.phase = Ready
	t.feedback = t.cfg.Cues.Calibrated
}

func (t *Tracker) ready(joints pose.Joints, ts int64) {
	side, entered := t.cfg.Enter(joints, t.baseline)
	switch {
	case entered:
		if t.cfg.Alternate && side != SideNone && side == t.lastSide {
			t.feedback = t.cfg.Cues.Alternate
			return
		}
		t.phase = InMotion
		t.side = side
		t.enteredAt = ts
		t.counted = false
		t.formGood = false
		t.formHint = ""
		t.latchForm(joints)

		switch t.cfg.Mode {
		case CountOnEnter:
			t.count()
		case CountAfterHold:
			if !t.countIfHeld(ts) {
				t.feedback = t.cfg.Cues.Entered
			}
		default:
			t.feedback = t.enteredCue()
		}

	case t.cfg.Release(joints, t.baseline):
		t.feedback = t.cfg.Cues.Ready

	default:
		if t.cfg.Partial != nil {
			if hint := t.cfg.Partial(joints, t.baseline); hint != "" {
				t.feedback = hint
				return
			}
		}
		t.feedback = t.cfg.Cues.Idle
	}
}

func (t *Tracker) inMotion(joints pose.Joints, ts int64) {
	if t.cfg.Release(joints, t.baseline) {
		t.phase = Ready
		if t.cfg.Mode == CountOnRelease {
			t.count()
		} else {
			t.feedback = t.cfg.Cues.Ready
		}
		t.side = SideNone
		return
	}

	holding := t.cfg.Mode == CountAfterHold && !t.counted
	if holding {
		// The hold breaks as soon as the extreme is lost.
		if _, held := t.cfg.Enter(joints, t.baseline); !held {
			t.phase = Ready
			t.side = SideNone
			t.ready(joints, ts)
			return
		}
	}

	t.latchForm(joints)

	if holding {
		if !t.countIfHeld(ts) {
			t.feedback = t.cfg.Cues.Holding
		}
		return
	}
	t.feedback = t.cfg.Cues.AwaitRelease
}

func (t *Tracker) countIfHeld(ts int64) bool {
	if ts-t.enteredAt < t.cfg.Hold.Milliseconds() {
		return false
	}
	t.count()
	return true
}

// latchForm records whether the form check passed at any point of the
// current rep. The hint of the latest failed check is kept for feedback.
func (t *Tracker) latchForm(joints pose.Joints) {
	if t.cfg.Form == nil {
		t.formGood = true
		return
	}
	good, hint := t.cfg.Form(joints, t.baseline, t.side)
	if good {
		t.formGood = true
		return
	}
	t.formHint = hint
}

func (t *Tracker) count() {
	t.reps++
	t.counted = true
	t.lastSide = t.side
	if t.formGood {
		t.feedback = fmt.Sprintf(t.cfg.Cues.Perfect, t.reps)
		return
	}
	t.feedback = fmt.Sprintf(t.cfg.Cues.Counted, t.formHint, t.reps)
}

func (t *Tracker) enteredCue() string {
	if t.cfg.SideLabels != nil {
		if label, ok := t.cfg.SideLabels[t.side]; ok {
			return t.cfg.Cues.Entered + " " + label
		}
	}
	return t.cfg.Cues.Entered
}

// Reset returns the tracker to its initial state. It is the only way reps
// go back to zero.
func (t *Tracker) Reset() {
	*t = Tracker{
		cfg:      t.cfg,
		feedback: InitialFeedback,
	}
}

// Config returns the exercise definition driving the tracker.
func (t *Tracker) Config() Config { return t.cfg }

// Feedback returns the message produced by the latest frame.
func (t *Tracker) Feedback() string { return t.feedback }

// Reps returns the number of completed repetitions.
func (t *Tracker) Reps() int { return t.reps }

// Phase returns the current phase.
func (t *Tracker) Phase() Phase { return t.phase }

// CalibrationFrames returns how many consecutive calibration frames were seen.
func (t *Tracker) CalibrationFrames() int { return t.calFrames }

// Calibrated reports whether a baseline is in effect.
func (t *Tracker) Calibrated() bool { return t.phase != Calibrating }

// Baseline returns a copy of the calibration baseline, nil before calibration.
func (t *Tracker) Baseline() Baseline {
	if t.baseline == nil || t.phase == Calibrating {
		return nil
	}
	return maps.Clone(t.baseline)
}

// State returns a snapshot of the tracker.
func (t *Tracker) State() State {
	return State{
		Exercise:          t.cfg.Slug,
		Name:              t.cfg.Name,
		Phase:             t.phase,
		CalibrationFrames: t.calFrames,
		Side:              t.side,
		Reps:              t.reps,
		Feedback:          t.feedback,
		Debug:             maps.Clone(t.debug),
	}
}
