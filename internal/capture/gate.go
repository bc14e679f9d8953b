package capture

import "time"

// Gate switches the pipeline between idle and active frame rates.
//
// Motion turns the gate on immediately. It turns off only after
// IdleTimeoutMs without motion, so a user pausing between reps keeps the
// full frame rate.
type Gate struct {
	idleFPS    int
	activeFPS  int
	timeout    time.Duration
	active     bool
	lastMotion time.Time
}

// NewGate creates a gate from the capture config.
func NewGate(config Config) *Gate {
	g := &Gate{
		idleFPS:   config.IdleFPS,
		activeFPS: config.ActiveFPS,
		timeout:   time.Duration(config.IdleTimeoutMs) * time.Millisecond,
	}
	if g.idleFPS <= 0 {
		g.idleFPS = DefaultFPS
	}
	if g.activeFPS < g.idleFPS {
		g.activeFPS = g.idleFPS
	}
	return g
}

// Observe records a motion sample taken at now. It reports whether the
// gate is active and whether that changed with this sample.
func (g *Gate) Observe(motion bool, now time.Time) (active, changed bool) {
	if motion {
		g.lastMotion = now
		if !g.active {
			g.active = true
			return true, true
		}
		return true, false
	}
	if g.active && now.Sub(g.lastMotion) > g.timeout {
		g.active = false
		return false, true
	}
	return g.active, false
}

// Active reports whether the gate is active.
func (g *Gate) Active() bool { return g.active }

// FPS returns the frame rate for the current state.
func (g *Gate) FPS() int {
	if g.active {
		return g.activeFPS
	}
	return g.idleFPS
}

// Interval returns the time between frames for the current state.
func (g *Gate) Interval() time.Duration {
	return time.Second / time.Duration(g.FPS())
}

// Hold forces the gate active as if motion was seen at now.
func (g *Gate) Hold(now time.Time) {
	g.active = true
	g.lastMotion = now
}
