package pose

import "gocv.io/x/gocv"

// Detector defines the interface for body pose estimation backends.
type Detector interface {
	// Detect analyzes a video frame and returns the detected landmarks.
	// Returns a nil frame if no person is visible.
	Detect(frame *gocv.Mat) (*Frame, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// ModelComplexity selects the MediaPipe pose model (0, 1 or 2).
	ModelComplexity int `toml:"model_complexity"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `toml:"min_confidence"`

	// MinVisibility drops landmarks the model is unsure about (0.0-1.0).
	MinVisibility float64 `toml:"min_visibility"`

	// IdleTimeoutSec shuts down the backend after this long without frames.
	IdleTimeoutSec int `toml:"idle_timeout_sec"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelComplexity: 1,
		MinConfidence:   0.5,
		MinVisibility:   0.5,
		IdleTimeoutSec:  30,
	}
}
