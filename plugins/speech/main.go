// Package main provides a speech plugin. It speaks coaching cues with say
// on macOS and espeak elsewhere.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/ayusman/repcoach/internal/plugin"
)

// Config is the optional plugin configuration.
type Config struct {
	Voice string `json:"voice"`
	// Rate is in words per minute.
	Rate int `json:"rate"`
}

// actionHandler defines a function type for handling specific actions.
type actionHandler func(req plugin.Request, cfg Config) error

// actionHandlers maps action names to their handler functions.
var actionHandlers = map[string]actionHandler{
	"speak": speak,
	"beep":  beep,
}

func main() {
	// Read request from stdin
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeResponse(fmt.Errorf("unknown action: %s", req.Action))
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeResponse(fmt.Errorf("failed to parse config: %w", err))
			return
		}
	}

	if err := handler(req, cfg); err != nil {
		writeResponse(fmt.Errorf("action %s failed: %w", req.Action, err))
		return
	}
	writeResponse(nil)
}

func speak(req plugin.Request, cfg Config) error {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return errors.New("text is required")
	}
	return run(speechCommand(runtime.GOOS, text, cfg))
}

func beep(_ plugin.Request, _ Config) error {
	if runtime.GOOS == "darwin" {
		return run([]string{"osascript", "-e", "beep"})
	}
	// Terminal bell on stderr; stdout carries the response.
	_, err := fmt.Fprint(os.Stderr, "\a")
	return err
}

// speechCommand returns the argv that speaks text on goos.
func speechCommand(goos, text string, cfg Config) []string {
	if goos == "darwin" {
		args := []string{"say"}
		if cfg.Voice != "" {
			args = append(args, "-v", cfg.Voice)
		}
		if cfg.Rate > 0 {
			args = append(args, "-r", strconv.Itoa(cfg.Rate))
		}
		return append(args, "--", text)
	}

	args := []string{"espeak"}
	if cfg.Voice != "" {
		args = append(args, "-v", cfg.Voice)
	}
	if cfg.Rate > 0 {
		args = append(args, "-s", strconv.Itoa(cfg.Rate))
	}
	return append(args, "--", text)
}

func run(argv []string) error {
	output, err := exec.Command(argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// writeResponse writes the result to stdout.
func writeResponse(err error) {
	resp := plugin.Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	_ = json.NewEncoder(os.Stdout).Encode(resp)
}
