package capture

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// FrameBuffer keeps the most recent JPEG-encoded frame for viewers such as
// the MJPEG stream. The pipeline owns the camera, viewers only read here.
type FrameBuffer struct {
	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	changed chan struct{}
}

// NewFrameBuffer creates an empty buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{changed: make(chan struct{})}
}

// Publish encodes mat as JPEG and stores it.
func (b *FrameBuffer) Publish(mat *gocv.Mat) error {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *mat)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// The native buffer is released on Close; keep a copy.
	b.PublishJPEG(append([]byte(nil), buf.GetBytes()...))
	return nil
}

// PublishJPEG stores an already encoded frame and wakes waiting readers.
func (b *FrameBuffer) PublishJPEG(jpeg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.jpeg = jpeg
	b.seq++
	close(b.changed)
	b.changed = make(chan struct{})
}

// Latest returns the newest frame and its sequence number, zero when empty.
func (b *FrameBuffer) Latest() ([]byte, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jpeg, b.seq
}

// Next blocks until a frame newer than after is available.
func (b *FrameBuffer) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		b.mu.Lock()
		if b.seq > after {
			jpeg, seq := b.jpeg, b.seq
			b.mu.Unlock()
			return jpeg, seq, nil
		}
		changed := b.changed
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, after, ctx.Err()
		case <-changed:
		}
	}
}
