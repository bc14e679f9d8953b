// Package session owns one exercise tracker for one user from the moment
// the exercise screen opens until the summary is handed to the store.
package session

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/pose"
)

// ErrNoUser is returned when a session is opened without a user id.
var ErrNoUser = errors.New("session requires a user id")

// Summary is the record of a finished session.
type Summary struct {
	SessionID       string `json:"session_id"`
	UserID          string `json:"user_id"`
	Exercise        string `json:"exercise"`
	Name            string `json:"name"`
	Reps            int    `json:"reps"`
	DurationSeconds int    `json:"duration_seconds"`
	TimestampMillis int64  `json:"timestamp"`
}

// Session wraps a tracker with the user scope and the elapsed-time clock.
// Like the tracker it is not safe for concurrent use; see Runner.
type Session struct {
	id      string
	userID  string
	tracker *exercise.Tracker
	started time.Time

	elapsed int
	visible bool
}

// New opens a session of cfg for userID.
func New(userID string, cfg exercise.Config) (*Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrNoUser
	}
	return &Session{
		id:      uuid.New().String(),
		userID:  userID,
		tracker: exercise.NewTracker(cfg),
		started: time.Now(),
	}, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// UserID returns the user the session belongs to.
func (s *Session) UserID() string { return s.userID }

// Exercise returns the exercise definition.
func (s *Session) Exercise() exercise.Config { return s.tracker.Config() }

// Started returns when the session was opened.
func (s *Session) Started() time.Time { return s.started }

// OnFrame feeds one landmark frame to the tracker and returns its feedback.
func (s *Session) OnFrame(f *pose.Frame) string {
	_, s.visible = f.Lookup(s.tracker.Config().Joints...)
	return s.tracker.Update(f)
}

// Visible reports whether the latest frame carried every required joint.
func (s *Session) Visible() bool { return s.visible }

// Feedback returns the latest feedback string.
func (s *Session) Feedback() string { return s.tracker.Feedback() }

// Reps returns the completed repetitions.
func (s *Session) Reps() int { return s.tracker.Reps() }

// Elapsed returns the exercise time in whole seconds.
func (s *Session) Elapsed() int { return s.elapsed }

// Tick advances the elapsed time by one second. It is driven by an
// external 1 Hz timer and only counts while the tracker is calibrated.
func (s *Session) Tick() {
	if s.tracker.Calibrated() {
		s.elapsed++
	}
}

// Reset clears reps, elapsed time and the calibration.
func (s *Session) Reset() {
	s.tracker.Reset()
	s.elapsed = 0
	s.visible = false
}

// State returns the tracker snapshot.
func (s *Session) State() exercise.State { return s.tracker.State() }

// Finalize produces the session summary stamped with now.
func (s *Session) Finalize(now time.Time) Summary {
	cfg := s.tracker.Config()
	return Summary{
		SessionID:       s.id,
		UserID:          s.userID,
		Exercise:        cfg.Slug,
		Name:            cfg.Name,
		Reps:            s.tracker.Reps(),
		DurationSeconds: s.elapsed,
		TimestampMillis: now.UnixMilli(),
	}
}
