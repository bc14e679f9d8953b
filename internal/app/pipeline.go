package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/repcoach/internal/capture"
	"github.com/ayusman/repcoach/internal/pose"
)

// runPipeline reads the camera until ctx is cancelled.
//
// Every frame goes to the stream buffer and the motion detector. While the
// gate is active and a session is running, frames also go through the pose
// detector and the resulting landmarks are offered to the session. A frame
// without a person still reaches the tracker so it can report the user out
// of view.
func (a *App) runPipeline(ctx context.Context) error {
	if err := a.camera.Open(); err != nil {
		log.Warn().Err(err).Msg("camera unavailable, only remote landmark frames will be counted")
		return nil
	}
	defer func() {
		if err := a.camera.Close(); err != nil {
			log.Error().Err(err).Msg("error closing camera")
		}
	}()

	// Start in idle mode until motion is seen
	gate := capture.NewGate(a.cfg.Camera)
	a.camera.SetFPS(gate.FPS())
	a.metrics.GaugeCaptureFPS.Set(float64(gate.FPS()))

	ticker := time.NewTicker(gate.Interval())
	defer ticker.Stop()

	log.Info().Int("fps", gate.FPS()).Msg("capture pipeline started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("capture pipeline stopped")
			return nil
		case <-ticker.C:
		}

		// Paused from the tray
		if !a.IsEnabled() {
			continue
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			log.Debug().Err(err).Msg("failed to read frame")
			continue
		}

		// The MJPEG stream sees every frame, active or not
		if err := a.frames.Publish(frame); err != nil {
			log.Debug().Err(err).Msg("failed to publish frame")
		}

		// Motion drives the switch between idle and active frame rates
		now := time.Now()
		motion, _ := a.motion.Detect(frame)
		if _, changed := gate.Observe(motion, now); changed {
			a.switchRate(gate, ticker)
		}

		// Pose detection only runs for an active gate and a running session
		active, err := a.current()
		if !gate.Active() || err != nil {
			frame.Close()
			continue
		}

		start := time.Now()
		landmarks, err := a.detector.Detect(frame)
		frame.Close()
		a.metrics.HistDetectDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			log.Warn().Err(err).Msg("pose detection failed")
			continue
		}

		if landmarks == nil {
			landmarks = pose.NewFrame(now.UnixMilli())
		} else {
			// A person holding still, e.g. at the bottom of a lunge, keeps
			// the full frame rate.
			gate.Hold(now)
		}

		// Latest-only handoff; a replaced frame counts as dropped
		if !active.runner.Offer(landmarks) {
			a.metrics.CounterFramesDropped.Inc()
		}
	}
}

func (a *App) switchRate(gate *capture.Gate, ticker *time.Ticker) {
	fps := gate.FPS()
	a.camera.SetFPS(fps)
	ticker.Reset(gate.Interval())
	a.metrics.GaugeCaptureFPS.Set(float64(fps))

	if gate.Active() {
		log.Debug().Int("fps", fps).Msg("switched to active mode")
	} else {
		log.Debug().Int("fps", fps).Msg("switched to idle mode")
	}
}
