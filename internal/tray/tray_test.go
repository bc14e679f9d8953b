package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/session"
)

func snapshot(phase exercise.Phase, reps int) *session.Snapshot {
	return &session.Snapshot{
		State: exercise.State{Name: "Jumping Jacks", Phase: phase, Reps: reps},
	}
}

func TestStatusTitle(t *testing.T) {
	tests := []struct {
		name string
		snap *session.Snapshot
		want string
	}{
		{"no session", nil, "No session"},
		{"calibrating", snapshot(exercise.Calibrating, 0), "Jumping Jacks: calibrating"},
		{"no reps", snapshot(exercise.Ready, 0), "Jumping Jacks: 0 reps"},
		{"one rep", snapshot(exercise.InMotion, 1), "Jumping Jacks: 1 rep"},
		{"many reps", snapshot(exercise.Ready, 12), "Jumping Jacks: 12 reps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusTitle(tt.snap))
		})
	}
}

func TestTray_SetStatusBeforeMenu(t *testing.T) {
	tr := New()
	assert.Equal(t, "No session", tr.Status())

	tr.SetStatus(snapshot(exercise.Ready, 3))
	assert.Equal(t, "Jumping Jacks: 3 reps", tr.Status())

	tr.SetStatus(nil)
	assert.Equal(t, "No session", tr.Status())
}

func TestTray_Toggle(t *testing.T) {
	tr := New()
	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	assert.True(t, tr.IsEnabled())
	tr.handleToggle()
	assert.False(t, tr.IsEnabled())
	tr.handleToggle()
	assert.True(t, tr.IsEnabled())
	assert.Equal(t, []bool{false, true}, got)
}

func TestTray_CallWithoutCallback(t *testing.T) {
	tr := New()
	assert.NotPanics(t, func() { tr.call(func() func() { return tr.onReset }) })

	called := false
	tr.OnReset(func() { called = true })
	tr.call(func() func() { return tr.onReset })
	assert.True(t, called)
}
