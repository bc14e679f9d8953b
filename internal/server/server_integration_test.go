package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/coach"
	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/metrics"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/session"
)

type coachEnv struct {
	app    *app.App
	ts     *httptest.Server
	frames chan session.Snapshot
}

func newCoachEnv(t *testing.T) *coachEnv {
	t.Helper()
	st := newTestStore(t)

	cfg := config.Default()
	cfg.Camera.Device = -1
	cfg.Store.Path = filepath.Join(t.TempDir(), "unused.db")
	cfg.Coach.PluginDir = t.TempDir()

	a, err := app.New(app.Options{
		Config:   cfg,
		Store:    st,
		Metrics:  metrics.NewTestManager(),
		Detector: pose.NewMockDetector(),
		Speaker:  coach.SpeakerFunc(func(context.Context, string) error { return nil }),
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.FinishSession(context.Background()) })

	env := &coachEnv{app: a, frames: make(chan session.Snapshot, 128)}
	a.Subscribe(func(snap session.Snapshot) {
		if snap.Frame {
			env.frames <- snap
		}
	})

	env.ts = httptest.NewServer(New(Config{Coach: a, Store: st}))
	t.Cleanup(env.ts.Close)
	return env
}

func (e *coachEnv) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := e.ts.Client().Post(e.ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// sendFrame posts a landmark frame and waits for the tracker to process it.
func (e *coachEnv) sendFrame(t *testing.T, f *pose.Frame) session.Snapshot {
	t.Helper()
	resp := e.post(t, "/api/session/frames", f)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	select {
	case snap := <-e.frames:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("frame not processed")
		return session.Snapshot{}
	}
}

func TestAPI_SessionWorkflow(t *testing.T) {
	env := newCoachEnv(t)
	client := env.ts.Client()

	// 1. No session yet
	resp, err := client.Get(env.ts.URL + "/api/session")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// 2. Start a session
	resp = env.post(t, "/api/session", map[string]string{"exercise": "jumping-jacks", "user_id": "u-1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var started map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&started))
	assert.Equal(t, "jumping-jacks", started["exercise"])
	assert.Equal(t, "calibrating", started["phase"])
	assert.Equal(t, "u-1", started["user_id"])
	assert.NotEmpty(t, started["session_id"])

	// 3. Calibrate and do two jacks
	for i := 1; i <= exercise.DefaultCalibrationFrames; i++ {
		env.sendFrame(t, pose.StandingPose(int64(i*33)))
	}
	for _, ts := range []int64{2000, 3000} {
		env.sendFrame(t, pose.StarPose(ts))
		env.sendFrame(t, pose.StandingPose(ts+33))
	}

	resp, err = client.Get(env.ts.URL + "/api/session")
	require.NoError(t, err)
	var current map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&current))
	resp.Body.Close()
	assert.EqualValues(t, 2, current["reps"])
	assert.Equal(t, "ready", current["phase"])

	// 4. Finish and check the record
	req, err := http.NewRequest(http.MethodDelete, env.ts.URL+"/api/session", nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var finished struct {
		Summary session.Summary `json:"summary"`
		Saved   bool            `json:"saved"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&finished))
	resp.Body.Close()
	assert.True(t, finished.Saved)
	assert.Equal(t, 2, finished.Summary.Reps)

	resp, err = client.Get(env.ts.URL + "/api/profiles/u-1/records")
	require.NoError(t, err)
	var records struct {
		Records []struct {
			ID   string `json:"id"`
			Reps int    `json:"reps"`
		} `json:"records"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	resp.Body.Close()
	require.Len(t, records.Records, 1)
	assert.Equal(t, finished.Summary.SessionID, records.Records[0].ID)
	assert.Equal(t, 2, records.Records[0].Reps)
}

func TestAPI_SessionErrors(t *testing.T) {
	env := newCoachEnv(t)

	resp := env.post(t, "/api/session", map[string]string{"exercise": "burpees"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.post(t, "/api/session", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.post(t, "/api/session/frames", pose.StandingPose(1))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.post(t, "/api/session/reset", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	env.post(t, "/api/session", map[string]string{"exercise": "lunges"})

	raw, err := env.ts.Client().Post(env.ts.URL+"/api/session/frames", "application/json",
		strings.NewReader(`{"timestamp":1,"joints":{"left_tail":{"x":1,"y":2}}}`))
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)

	resp = env.post(t, "/api/session/reset", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_FeedbackWebSocket(t *testing.T) {
	env := newCoachEnv(t)
	env.post(t, "/api/session", map[string]string{"exercise": "jumping-jacks"})

	url := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/api/feedback"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		resp, err := env.ts.Client().Get(env.ts.URL + "/api/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var health map[string]any
		return json.NewDecoder(resp.Body).Decode(&health) == nil && health["watchers"] == 1.0
	}, 2*time.Second, 10*time.Millisecond)

	env.sendFrame(t, pose.StandingPose(33))

	// Clock ticks may arrive first; wait for the frame's snapshot.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var snap map[string]any
	for snap["calibration_frames"] != 1.0 {
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		snap = nil
		require.NoError(t, json.Unmarshal(msg, &snap))
	}
	assert.Equal(t, "jumping-jacks", snap["exercise"])
	assert.Equal(t, "guest", snap["user_id"])
	assert.Equal(t, true, snap["visible"])
}

func TestFeedbackHub_PublishNeverBlocks(t *testing.T) {
	hub := NewFeedbackHub()
	c := &feedbackClient{send: make(chan []byte, 1)}
	require.True(t, hub.add(c))

	for i := 0; i < 10; i++ {
		hub.Publish(session.Snapshot{ElapsedSeconds: i})
	}
	assert.Len(t, c.send, 1)
	assert.Equal(t, 1, hub.Clients())

	hub.Close()
	assert.Zero(t, hub.Clients())
	_, open := <-c.send
	assert.True(t, open, "buffered snapshot is still delivered")
	_, open = <-c.send
	assert.False(t, open)
	assert.False(t, hub.add(&feedbackClient{send: make(chan []byte, 1)}))
}

func TestServer_RunShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	s := New(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_RunReportsListenError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	err = New(Config{}).Run(context.Background(), l.Addr().String())
	assert.Error(t, err)
}
