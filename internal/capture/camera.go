// Package capture reads webcam frames with GoCV (OpenCV) and decides when
// the pipeline should run at full rate.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 5
	DefaultWidth  = 640
	DefaultHeight = 480
)

// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// Config describes the capture device and the activity gating.
type Config struct {
	Device int `toml:"device"`
	Width  int `toml:"width"`
	Height int `toml:"height"`

	// IdleFPS is used while nothing moves in front of the camera.
	IdleFPS int `toml:"idle_fps"`
	// ActiveFPS is used while the user is exercising.
	ActiveFPS int `toml:"active_fps"`
	// MotionThreshold is the percentage of changed pixels that counts as motion.
	MotionThreshold float64 `toml:"motion_threshold"`
	// IdleTimeoutMs is how long without motion before dropping to IdleFPS.
	IdleTimeoutMs int `toml:"idle_timeout_ms"`
}

// DefaultConfig returns the capture defaults.
func DefaultConfig() Config {
	return Config{
		Device:          0,
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		IdleFPS:         DefaultFPS,
		ActiveFPS:       15,
		MotionThreshold: 1.0,
		IdleTimeoutMs:   3000,
	}
}

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	config  Config
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
}

// NewCamera creates a Camera for the configured device. It starts at the
// idle frame rate.
func NewCamera(config Config) Camera {
	if config.Width <= 0 || config.Height <= 0 {
		config.Width, config.Height = DefaultWidth, DefaultHeight
	}
	fps := config.IdleFPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &cameraImpl{
		config: config,
		fps:    fps,
	}
}

// Open opens the camera for capturing frames at the configured resolution.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.config.Device)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.config.Device, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.config.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.config.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = capture
	c.running = true

	log.Info().
		Int("device", c.config.Device).
		Int("width", c.config.Width).
		Int("height", c.config.Height).
		Msg("camera opened")
	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
