package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/pose"
)

// ErrStopped is returned by control calls once the runner has exited.
var ErrStopped = errors.New("session runner stopped")

// TickInterval is the period of the elapsed-time clock.
const TickInterval = time.Second

// Snapshot is what observers see after every frame, tick or control call.
type Snapshot struct {
	exercise.State
	SessionID      string `json:"session_id"`
	UserID         string `json:"user_id"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	// Visible is false when the last frame lacked a required joint.
	Visible bool `json:"visible"`
	// Frame is set when the snapshot follows a landmark frame.
	Frame bool `json:"-"`
}

// Observer receives snapshots on the runner goroutine. It must not block.
type Observer func(Snapshot)

// Runner serializes everything that touches a Session: landmark frames
// from the pipeline, the 1 Hz clock and control calls from the API.
//
// Frames go through a single-slot mailbox. Offer never blocks and a newer
// frame replaces one that has not been processed yet, so the tracker never
// works through a backlog.
type Runner struct {
	sess     *Session
	interval time.Duration
	now      func() time.Time

	frames  chan *pose.Frame
	control chan func(*Session)
	stopped chan struct{}
	once    sync.Once

	mu        sync.RWMutex
	latest    Snapshot
	observers []Observer
}

// NewRunner creates a runner for sess. Call Run to start processing.
func NewRunner(sess *Session) *Runner {
	r := &Runner{
		sess:     sess,
		interval: TickInterval,
		now:      time.Now,
		frames:   make(chan *pose.Frame, 1),
		control:  make(chan func(*Session)),
		stopped:  make(chan struct{}),
	}
	r.latest = snapshotOf(sess)
	return r
}

// Subscribe registers an observer.
func (r *Runner) Subscribe(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Offer hands a frame to the runner. It reports false when the frame
// replaced one still waiting in the mailbox or the runner has stopped.
// Frames without a timestamp are stamped with the current time on a copy.
// The runner only reads the frame's joints.
func (r *Runner) Offer(f *pose.Frame) bool {
	if f == nil {
		return false
	}
	select {
	case <-r.stopped:
		return false
	default:
	}
	if f.Timestamp == 0 {
		// Stamp a copy; the caller keeps its frame.
		stamped := *f
		stamped.Timestamp = r.now().UnixMilli()
		f = &stamped
	}

	fresh := true
	for {
		select {
		case r.frames <- f:
			return fresh
		default:
		}
		select {
		case <-r.frames:
			fresh = false
		default:
		}
	}
}

// Snapshot returns the latest published snapshot.
func (r *Runner) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Session returns the session the runner drives. Only use it for
// immutable properties such as the id or exercise.
func (r *Runner) Session() *Session { return r.sess }

// Run processes frames, ticks and control calls until ctx is cancelled.
// Frames still in the mailbox are discarded on return.
func (r *Runner) Run(ctx context.Context) error {
	defer r.once.Do(func() { close(r.stopped) })

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			select {
			case <-r.frames:
			default:
			}
			return nil
		case f := <-r.frames:
			r.sess.OnFrame(f)
			r.publish(true)
		case <-ticker.C:
			r.sess.Tick()
			r.publish(false)
		case fn := <-r.control:
			fn(r.sess)
			r.publish(false)
		}
	}
}

// Reset clears the session's reps, time and calibration.
func (r *Runner) Reset(ctx context.Context) error {
	return r.do(ctx, func(s *Session) { s.Reset() })
}

// Finalize returns the session summary stamped with the current time.
func (r *Runner) Finalize(ctx context.Context) (Summary, error) {
	var sum Summary
	err := r.do(ctx, func(s *Session) { sum = s.Finalize(r.now()) })
	return sum, err
}

func (r *Runner) do(ctx context.Context, fn func(*Session)) error {
	done := make(chan struct{})
	wrapped := func(s *Session) {
		fn(s)
		close(done)
	}

	select {
	case r.control <- wrapped:
	case <-r.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

func (r *Runner) publish(frame bool) {
	snap := snapshotOf(r.sess)
	snap.Frame = frame

	r.mu.Lock()
	r.latest = snap
	observers := r.observers
	r.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
}

func snapshotOf(s *Session) Snapshot {
	return Snapshot{
		State:          s.State(),
		SessionID:      s.ID(),
		UserID:         s.UserID(),
		ElapsedSeconds: s.Elapsed(),
		Visible:        s.Visible(),
	}
}
