// Package metrics holds the Prometheus collectors of the coaching pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterFrames         prometheus.Counter
	CounterFramesNoPose   prometheus.Counter
	CounterFramesDropped  prometheus.Counter
	CounterReps           *prometheus.CounterVec
	CounterSessions       *prometheus.CounterVec
	CounterRequests       *prometheus.CounterVec
	CounterSpeechRequests prometheus.Counter

	// gauges
	GaugeActiveSessions prometheus.Gauge
	GaugeCaptureFPS     prometheus.Gauge

	// histograms
	HistDetectDuration  prometheus.Histogram
	HistSessionDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("repcoach", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("repcoach", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterFrames := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames_processed",
		Help:      "The total number of landmark frames fed to a tracker",
	})
	counterFramesNoPose := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames_without_pose",
		Help:      "The total number of frames missing a required joint",
	})
	counterFramesDropped := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames_dropped",
		Help:      "Frames replaced in the mailbox before the tracker saw them",
	})
	counterReps := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reps",
		Help:      "The total number of counted repetitions",
	}, []string{"exercise"})
	counterSessions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sessions_finished",
		Help:      "The total number of finished sessions",
	}, []string{"exercise", "saved"})
	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming API requests",
	}, []string{"method", "status"})
	counterSpeech := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "speech_requests",
		Help:      "The total number of cues handed to the speaker",
	})

	gaugeActiveSessions := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_sessions",
		Help:      "Sessions currently running",
	})
	gaugeCaptureFPS := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "capture_fps",
		Help:      "Current camera frame rate",
	})

	histDetectDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.005, 0.01, 0.02, 0.035, 0.05, 0.075, 0.1, 0.2, 0.5, 1},
			Name:      "detect_duration_seconds",
			Help:      "Time spent in the pose detector per frame",
		},
	)
	histSessionDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
			Name:      "session_duration_seconds",
			Help:      "Exercise time of finished sessions",
		},
	)

	return &Manager{
		CounterFrames:         counterFrames,
		CounterFramesNoPose:   counterFramesNoPose,
		CounterFramesDropped:  counterFramesDropped,
		CounterReps:           counterReps,
		CounterSessions:       counterSessions,
		CounterRequests:       counterRequests,
		CounterSpeechRequests: counterSpeech,
		GaugeActiveSessions:   gaugeActiveSessions,
		GaugeCaptureFPS:       gaugeCaptureFPS,
		HistDetectDuration:    histDetectDuration,
		HistSessionDuration:   histSessionDuration,
	}
}
