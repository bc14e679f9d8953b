// Package coach turns per-frame feedback into spoken cues.
//
// Feedback changes every frame, so an Announcer filters it down to the few
// phrases worth saying aloud and paces them so they never overlap.
package coach

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultMinInterval is the shortest gap between two utterances.
const DefaultMinInterval = 1200 * time.Millisecond

// Speaker voices a line of text.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// SpeakerFunc adapts a function to the Speaker interface.
type SpeakerFunc func(ctx context.Context, text string) error

// Speak calls f(ctx, text).
func (f SpeakerFunc) Speak(ctx context.Context, text string) error {
	return f(ctx, text)
}

// Announcer decides which feedback strings get spoken.
//
// A string is accepted when it is not blank, contains one of the allow-listed
// phrases (case-insensitive), differs from the last spoken string and at
// least the minimum interval has passed since the last utterance. Accepted
// strings are queued for Run; a newer one replaces any still unspoken.
type Announcer struct {
	speaker     Speaker
	minInterval time.Duration
	now         func() time.Time

	mu       sync.Mutex
	enabled  bool
	phrases  []string
	lastText string
	lastAt   time.Time

	queue chan string
}

// NewAnnouncer creates an Announcer for the given allow-list.
func NewAnnouncer(speaker Speaker, phrases []string, minInterval time.Duration) *Announcer {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	a := &Announcer{
		speaker:     speaker,
		minInterval: minInterval,
		now:         time.Now,
		enabled:     true,
		queue:       make(chan string, 1),
	}
	a.SetPhrases(phrases)
	return a
}

// SetPhrases replaces the allow-list, typically when the exercise changes.
// The change-only memory is cleared as well.
func (a *Announcer) SetPhrases(phrases []string) {
	lower := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.TrimSpace(p); p != "" {
			lower = append(lower, strings.ToLower(p))
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.phrases = lower
	a.lastText = ""
}

// SetEnabled turns speech on or off. Disabled announcers accept nothing.
func (a *Announcer) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// Enabled reports whether speech is on.
func (a *Announcer) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Accept applies the speech rules to text and records it as spoken when it
// passes.
func (a *Announcer) Accept(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Muted, repeated or not worth saying
	if !a.enabled || text == a.lastText || !a.important(text) {
		return false
	}
	// Pace utterances so they never overlap
	now := a.now()
	if !a.lastAt.IsZero() && now.Sub(a.lastAt) < a.minInterval {
		return false
	}

	a.lastText = text
	a.lastAt = now
	return true
}

func (a *Announcer) important(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range a.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Observe offers a feedback string. It never blocks.
func (a *Announcer) Observe(text string) bool {
	if !a.Accept(text) {
		return false
	}
	text = strings.TrimSpace(text)
	// Replace any unspoken text with the newer one
	for {
		select {
		case a.queue <- text:
			return true
		default:
		}
		select {
		case <-a.queue:
		default:
		}
	}
}

// Run speaks queued strings until ctx is cancelled.
func (a *Announcer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case text := <-a.queue:
			if err := a.speaker.Speak(ctx, text); err != nil {
				log.Warn().Err(err).Str("text", text).Msg("speech failed")
			}
		}
	}
}
