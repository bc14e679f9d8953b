// Package plugin discovers and runs out-of-process helpers such as the
// speech synthesizer that voices coaching cues.
package plugin

import "encoding/json"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Request is written to the plugin's stdin as a single JSON document.
type Request struct {
	Action   string          `json:"action"`
	Exercise string          `json:"exercise,omitempty"`
	Text     string          `json:"text,omitempty"`
	Config   json.RawMessage `json:"config,omitempty"`
	Params   json.RawMessage `json:"params,omitempty"`
}

// Response is read from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Supports reports whether the manifest lists action.
func (p *Plugin) Supports(action string) bool {
	for _, a := range p.Manifest.Actions {
		if a == action {
			return true
		}
	}
	return false
}
