// Package app wires the camera, the pose detector and the session runner
// into the running coach.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/repcoach/internal/capture"
	"github.com/ayusman/repcoach/internal/coach"
	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/metrics"
	"github.com/ayusman/repcoach/internal/plugin"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/session"
	"github.com/ayusman/repcoach/internal/store"
)

// ErrNoSession is returned when an operation needs a running session.
var ErrNoSession = errors.New("no active session")

// Options holds the application's collaborators. Nil fields are built from
// Config.
type Options struct {
	Config   *config.Config
	Store    *store.Store
	Metrics  *metrics.Manager
	Camera   capture.Camera
	Detector pose.Detector
	Speaker  coach.Speaker
}

// App owns the capture pipeline and the single active session.
type App struct {
	cfg     *config.Config
	store   *store.Store
	metrics *metrics.Manager

	camera   capture.Camera
	motion   *capture.MotionDetector
	detector pose.Detector
	frames   *capture.FrameBuffer

	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor
	speaker    coach.Speaker
	announcer  *coach.Announcer

	// lifecycle serializes starting and finishing sessions.
	lifecycle sync.Mutex

	mu        sync.RWMutex
	enabled   bool
	active    *activeSession
	observers []session.Observer
}

// activeSession is a runner together with the goroutine driving it.
type activeSession struct {
	runner *session.Runner
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an App. The camera is not opened until Run.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewManager("repcoach", "app", prometheus.NewRegistry())
	}

	a := &App{
		cfg:        cfg,
		store:      opts.Store,
		metrics:    m,
		camera:     opts.Camera,
		motion:     capture.NewMotionDetector(cfg.Camera.MotionThreshold),
		detector:   opts.Detector,
		frames:     capture.NewFrameBuffer(),
		pluginMgr:  plugin.NewManager(cfg.Coach.PluginDir),
		pluginExec: plugin.NewExecutor(cfg.Coach.PluginTimeoutMs),
		speaker:    opts.Speaker,
		enabled:    true,
	}

	if a.camera == nil && cfg.Camera.Device >= 0 {
		a.camera = capture.NewCamera(cfg.Camera)
	}

	if a.detector == nil {
		if mp, err := pose.NewMediaPipeDetector(cfg.Detector); err == nil {
			a.detector = mp
			log.Info().Msg("using MediaPipe pose detection")
		} else {
			log.Warn().Err(err).Msg("MediaPipe not available, camera frames will report no pose")
			a.detector = pose.NewMockDetector()
		}
	}

	if a.speaker == nil {
		if err := a.pluginMgr.Discover(); err != nil {
			log.Warn().Err(err).Str("dir", cfg.Coach.PluginDir).Msg("plugin discovery failed")
		}
		if _, err := a.pluginMgr.Get(coach.SpeechPlugin); err == nil {
			a.speaker = coach.NewPluginSpeaker(a.pluginMgr, a.pluginExec)
		} else {
			a.speaker = coach.LogSpeaker{}
		}
	}

	minInterval := time.Duration(cfg.Coach.MinIntervalMs) * time.Millisecond
	a.announcer = coach.NewAnnouncer(countingSpeaker{a.speaker, m}, nil, minInterval)
	a.announcer.SetEnabled(cfg.Coach.Speech)

	return a, nil
}

// countingSpeaker counts the cues handed to the real speaker.
type countingSpeaker struct {
	coach.Speaker
	m *metrics.Manager
}

func (s countingSpeaker) Speak(ctx context.Context, text string) error {
	s.m.CounterSpeechRequests.Inc()
	return s.Speaker.Speak(ctx, text)
}

// Run drives the capture pipeline and the announcer until ctx is cancelled.
// The active session is finished on the way out.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.announcer.Run(ctx)
	})
	if a.camera != nil {
		g.Go(func() error {
			return a.runPipeline(ctx)
		})
	}

	err := g.Wait()
	a.shutdown()
	return err
}

func (a *App) shutdown() {
	if _, _, err := a.FinishSession(context.Background()); err != nil && !errors.Is(err, ErrNoSession) {
		log.Error().Err(err).Msg("failed to finish session on shutdown")
	}

	a.motion.Close()
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Error().Err(err).Msg("error closing detector")
		}
	}
}

// Subscribe registers an observer for the snapshots of every session.
func (a *App) Subscribe(o session.Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, o)
}

// StartSession opens a session of the exercise for userID, finishing any
// session that is still running. An empty userID selects the guest user.
func (a *App) StartSession(userID, slug string) (session.Snapshot, error) {
	cfg, err := exercise.Lookup(slug)
	if err != nil {
		return session.Snapshot{}, err
	}
	if userID == "" {
		userID = a.cfg.Session.GuestUser
	}
	sess, err := session.New(userID, cfg)
	if err != nil {
		return session.Snapshot{}, err
	}

	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	if _, _, err := a.finish(context.Background()); err != nil && !errors.Is(err, ErrNoSession) {
		log.Warn().Err(err).Msg("failed to finish previous session")
	}

	a.applyPreferences(userID, cfg)

	runner := session.NewRunner(sess)
	runner.Subscribe(a.observer(cfg.Slug))

	ctx, cancel := context.WithCancel(context.Background())
	active := &activeSession{runner: runner, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(active.done)
		if err := runner.Run(ctx); err != nil {
			log.Error().Err(err).Str("session", sess.ID()).Msg("session runner failed")
		}
	}()

	a.mu.Lock()
	a.active = active
	a.mu.Unlock()

	a.metrics.GaugeActiveSessions.Inc()
	log.Info().
		Str("session", sess.ID()).
		Str("user", userID).
		Str("exercise", cfg.Slug).
		Msg("session started")

	return runner.Snapshot(), nil
}

// applyPreferences loads the user's voice preference and remembers the drill.
func (a *App) applyPreferences(userID string, cfg exercise.Config) {
	a.announcer.SetPhrases(cfg.Announce)
	if ps, ok := a.speaker.(*coach.PluginSpeaker); ok {
		ps.SetExercise(cfg.Slug)
	}

	if a.store == nil {
		a.announcer.SetEnabled(a.cfg.Coach.Speech)
		return
	}
	voice, err := a.store.Settings().GetBool(userID, store.SettingVoice, a.cfg.Coach.Speech)
	if err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("failed to read voice preference")
		voice = a.cfg.Coach.Speech
	}
	a.announcer.SetEnabled(voice)

	if err := a.store.Settings().Set(userID, store.SettingLastDrill, cfg.Slug); err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("failed to save last drill")
	}
}

// observer fans a session's snapshots out to metrics, speech and the
// registered observers. It runs on the session runner goroutine.
func (a *App) observer(slug string) session.Observer {
	lastReps := 0
	reps := a.metrics.CounterReps.WithLabelValues(slug)

	return func(snap session.Snapshot) {
		if snap.Frame {
			a.metrics.CounterFrames.Inc()
			if !snap.Visible {
				a.metrics.CounterFramesNoPose.Inc()
			}
			a.announcer.Observe(snap.Feedback)
		}
		if snap.Reps > lastReps {
			reps.Add(float64(snap.Reps - lastReps))
		}
		lastReps = snap.Reps

		a.mu.RLock()
		observers := a.observers
		a.mu.RUnlock()
		for _, o := range observers {
			o(snap)
		}
	}
}

func (a *App) current() (*activeSession, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.active == nil {
		return nil, ErrNoSession
	}
	return a.active, nil
}

// Snapshot returns the latest state of the active session.
func (a *App) Snapshot() (session.Snapshot, error) {
	active, err := a.current()
	if err != nil {
		return session.Snapshot{}, err
	}
	return active.runner.Snapshot(), nil
}

// OfferFrame hands a landmark frame to the active session. It reports
// false when the frame replaced one not processed yet.
func (a *App) OfferFrame(f *pose.Frame) (bool, error) {
	active, err := a.current()
	if err != nil {
		return false, err
	}
	fresh := active.runner.Offer(f)
	if !fresh {
		a.metrics.CounterFramesDropped.Inc()
	}
	return fresh, nil
}

// ResetSession zeroes the active session's reps and time.
func (a *App) ResetSession(ctx context.Context) error {
	active, err := a.current()
	if err != nil {
		return err
	}
	if err := active.runner.Reset(ctx); err != nil {
		return err
	}
	log.Info().Str("session", active.runner.Session().ID()).Msg("session reset")
	return nil
}

// FinishSession stops the active session and stores its summary when at
// least one rep was counted. It reports whether the record was saved.
func (a *App) FinishSession(ctx context.Context) (session.Summary, bool, error) {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()
	return a.finish(ctx)
}

func (a *App) finish(ctx context.Context) (session.Summary, bool, error) {
	a.mu.Lock()
	active := a.active
	a.active = nil
	a.mu.Unlock()
	if active == nil {
		return session.Summary{}, false, ErrNoSession
	}

	// The session is already detached; a cancelled caller must not lose it.
	sum, err := active.runner.Finalize(context.WithoutCancel(ctx))
	active.cancel()
	<-active.done
	a.metrics.GaugeActiveSessions.Dec()
	if err != nil {
		return session.Summary{}, false, fmt.Errorf("finalize session: %w", err)
	}

	saved, err := a.persist(sum)
	a.metrics.CounterSessions.WithLabelValues(sum.Exercise, fmt.Sprint(saved)).Inc()
	a.metrics.HistSessionDuration.Observe(float64(sum.DurationSeconds))

	log.Info().
		Str("session", sum.SessionID).
		Str("user", sum.UserID).
		Str("exercise", sum.Exercise).
		Int("reps", sum.Reps).
		Int("duration", sum.DurationSeconds).
		Bool("saved", saved).
		Msg("session finished")

	return sum, saved, err
}

func (a *App) persist(sum session.Summary) (bool, error) {
	if sum.Reps <= 0 || a.store == nil {
		return false, nil
	}
	rec := &store.ExerciseRecord{
		ID:              sum.SessionID,
		UserID:          sum.UserID,
		Exercise:        sum.Exercise,
		Name:            sum.Name,
		Timestamp:       sum.TimestampMillis,
		Reps:            sum.Reps,
		DurationSeconds: sum.DurationSeconds,
	}
	if err := a.store.Records().Add(rec); err != nil {
		return false, fmt.Errorf("save exercise record: %w", err)
	}
	return true, nil
}

// SetEnabled pauses or resumes the camera pipeline.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled reports whether the camera pipeline processes frames.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Config returns the application configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Store returns the profile store, nil when running without one.
func (a *App) Store() *store.Store { return a.store }

// Frames returns the buffer holding the latest camera frame.
func (a *App) Frames() *capture.FrameBuffer { return a.frames }

// Announcer returns the speech announcer.
func (a *App) Announcer() *coach.Announcer { return a.announcer }

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager { return a.pluginMgr }

// Metrics returns the metrics manager.
func (a *App) Metrics() *metrics.Manager { return a.metrics }
