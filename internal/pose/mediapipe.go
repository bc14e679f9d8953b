package pose

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
)

const serviceScript = "pose_service.py"

// ErrServiceNotFound is returned when the pose service script cannot be located.
var ErrServiceNotFound = errors.New(serviceScript + " not found")

// MediaPipeDetector implements Detector using a Python MediaPipe Pose subprocess.
//
// Frames travel to the service as a 4-byte big-endian length followed by JPEG
// bytes. The service answers with one JSON line per frame.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex
	started    bool
	idleTimer  *time.Timer
	now        func() time.Time
}

// NewMediaPipeDetector creates a new MediaPipe pose detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := findServiceScript()
	if scriptPath == "" {
		return nil, ErrServiceNotFound
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
		now:        time.Now,
	}, nil
}

// Detect sends a frame to the service and returns the landmarks it found.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (*Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	result, err := parseServiceResponse(line, d.now().UnixMilli())
	if err != nil {
		return nil, err
	}

	d.resetIdleTimer()
	return result, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.scriptPath,
		"--model-complexity", strconv.Itoa(d.config.ModelComplexity),
		"--min-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-visibility", strconv.FormatFloat(d.config.MinVisibility, 'f', -1, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	log.Info().Str("script", d.scriptPath).Str("python", pythonPath).Msg("pose service started")
	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	log.Info().Msg("pose service stopped")
	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	idle := time.Duration(d.config.IdleTimeoutSec) * time.Second
	if idle <= 0 {
		return
	}
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idle, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			log.Warn().Err(err).Msg("pose service exited with error")
		}
	})
}

// serviceResponse is the JSON line written by the pose service.
type serviceResponse struct {
	Found     bool                    `json:"found"`
	Landmarks map[string]jsonLandmark `json:"landmarks"`
	Error     string                  `json:"error,omitempty"`
}

type jsonLandmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// parseServiceResponse converts one service line into a Frame. Unknown
// landmark names are ignored; a response without a person yields nil.
func parseServiceResponse(line []byte, timestamp int64) (*Frame, error) {
	var resp serviceResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("pose service: %s", resp.Error)
	}
	if !resp.Found {
		return nil, nil
	}

	f := NewFrame(timestamp)
	for name, lm := range resp.Landmarks {
		id, ok := ParseJoint(name)
		if !ok {
			continue
		}
		f.Set(id, Point{X: lm.X, Y: lm.Y})
	}
	return f, nil
}

func findServiceScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", serviceScript),
		filepath.Join("..", "scripts", serviceScript),
		filepath.Join(execDir, "scripts", serviceScript),
		filepath.Join(os.Getenv("HOME"), ".repcoach", "scripts", serviceScript),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".repcoach/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
