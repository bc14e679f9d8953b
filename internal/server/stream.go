package server

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/repcoach/internal/capture"
)

// StreamHandler serves the captured frames as MJPEG.
type StreamHandler struct {
	frames *capture.FrameBuffer
}

// NewStreamHandler creates a new StreamHandler reading from frames.
func NewStreamHandler(frames *capture.FrameBuffer) *StreamHandler {
	return &StreamHandler{frames: frames}
}

// ServeHTTP streams MJPEG frames to the client until it disconnects. Each
// frame is written once, as the pipeline publishes it.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)
	var seq uint64
	for {
		jpeg, next, err := h.frames.Next(r.Context(), seq)
		if err != nil {
			return
		}
		seq = next

		if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
			return
		}
		if _, err := w.Write(jpeg); err != nil {
			log.Debug().Err(err).Msg("stream client went away")
			return
		}
		if _, err := fmt.Fprint(w, "\r\n"); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
