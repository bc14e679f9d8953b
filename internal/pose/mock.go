package pose

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	frame  *Frame
	queue  []*Frame
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFrame sets the frame returned by every Detect call once the queue is empty.
func (m *MockDetector) SetFrame(f *Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame = f
}

// Queue appends frames that Detect returns in order before falling back to
// the frame set with SetFrame.
func (m *MockDetector) Queue(frames ...*Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, frames...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next queued frame, the configured frame or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		f := m.queue[0]
		m.queue = m.queue[1:]
		return f.Clone(), nil
	}
	return m.frame.Clone(), nil
}

// Close marks the mock closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// StandingPose returns a relaxed upright pose facing the camera, arms at the
// sides, in the pixel space of a 640x760 frame. Exercise fixtures are built
// by moving joints away from it.
func StandingPose(timestamp int64) *Frame {
	return NewFrame(timestamp).
		Set(LeftShoulder, Point{X: 260, Y: 200}).
		Set(RightShoulder, Point{X: 380, Y: 200}).
		Set(LeftElbow, Point{X: 250, Y: 300}).
		Set(RightElbow, Point{X: 390, Y: 300}).
		Set(LeftWrist, Point{X: 245, Y: 390}).
		Set(RightWrist, Point{X: 395, Y: 390}).
		Set(LeftHip, Point{X: 280, Y: 420}).
		Set(RightHip, Point{X: 360, Y: 420}).
		Set(LeftKnee, Point{X: 282, Y: 560}).
		Set(RightKnee, Point{X: 358, Y: 560}).
		Set(LeftAnkle, Point{X: 284, Y: 700}).
		Set(RightAnkle, Point{X: 356, Y: 700})
}

// StarPose returns the open position of a jumping jack: arms raised wide and
// feet apart, elbows straight.
func StarPose(timestamp int64) *Frame {
	return StandingPose(timestamp).
		Set(LeftElbow, Point{X: 180, Y: 130}).
		Set(RightElbow, Point{X: 460, Y: 130}).
		Set(LeftWrist, Point{X: 100, Y: 60}).
		Set(RightWrist, Point{X: 540, Y: 60}).
		Set(LeftKnee, Point{X: 250, Y: 560}).
		Set(RightKnee, Point{X: 390, Y: 560}).
		Set(LeftAnkle, Point{X: 220, Y: 700}).
		Set(RightAnkle, Point{X: 420, Y: 700})
}
