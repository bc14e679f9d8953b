package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrTimeout is returned when a plugin does not finish within the executor timeout.
var ErrTimeout = errors.New("plugin execution timeout")

// Executor runs plugins with a per-call timeout.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates a new Executor with the specified timeout in milliseconds.
func NewExecutor(timeoutMs int) *Executor {
	return &Executor{
		timeout: time.Duration(timeoutMs) * time.Millisecond,
	}
}

// Timeout returns the per-call timeout.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Execute runs a plugin with the given request and returns the response.
// The request travels as JSON on stdin; stdout must hold one Response.
// The call is bounded by both ctx and the executor timeout, and a timeout is
// reported as ErrTimeout so callers can tell it apart from a failing plugin.
func (e *Executor) Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error) {
	// Bound the call by the executor timeout
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// Encode the request before starting the process
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Run from the plugin directory so relative paths in the plugin resolve
	cmd := exec.CommandContext(ctx, plugin.Executable)
	cmd.Dir = plugin.Path
	cmd.Stdin = bytes.NewReader(reqJSON)

	// Collect both streams; stderr only ends up in error messages
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()

	// A killed process reports a plain exit error, so check the deadline first
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
	if err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("plugin execution failed: %w, stderr: %s", err, stderr.String())
		}
		return nil, fmt.Errorf("plugin execution failed: %w", err)
	}

	// Decode the single JSON response from stdout
	var response Response
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("failed to parse plugin response: %w, stdout: %s", err, stdout.String())
	}

	log.Debug().
		Str("plugin", plugin.Manifest.Name).
		Str("action", req.Action).
		Bool("success", response.Success).
		Dur("took", time.Since(start)).
		Msg("plugin executed")

	return &response, nil
}
