package coach

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/repcoach/internal/plugin"
)

// Plugin and action names used for speech.
const (
	SpeechPlugin = "speech"
	ActionSpeak  = "speak"
)

// PluginSpeaker speaks through the speech plugin.
type PluginSpeaker struct {
	manager  *plugin.Manager
	executor *plugin.Executor

	mu       sync.Mutex
	exercise string
}

// NewPluginSpeaker creates a speaker backed by the plugin manager.
func NewPluginSpeaker(manager *plugin.Manager, executor *plugin.Executor) *PluginSpeaker {
	return &PluginSpeaker{manager: manager, executor: executor}
}

// SetExercise tags subsequent requests with the exercise slug.
func (s *PluginSpeaker) SetExercise(slug string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exercise = slug
}

// Speak runs the plugin's speak action with text.
func (s *PluginSpeaker) Speak(ctx context.Context, text string) error {
	p, err := s.manager.Get(SpeechPlugin)
	if err != nil {
		return err
	}
	if !p.Supports(ActionSpeak) {
		return fmt.Errorf("plugin %s does not support %q", p.Manifest.Name, ActionSpeak)
	}

	s.mu.Lock()
	slug := s.exercise
	s.mu.Unlock()

	resp, err := s.executor.Execute(ctx, p, &plugin.Request{
		Action:   ActionSpeak,
		Exercise: slug,
		Text:     text,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("speech plugin: %s", resp.Error)
	}
	return nil
}

// LogSpeaker writes utterances to the log. It stands in when no speech
// plugin is installed.
type LogSpeaker struct{}

// Speak logs text.
func (LogSpeaker) Speak(_ context.Context, text string) error {
	log.Info().Str("text", text).Msg("coach")
	return nil
}
