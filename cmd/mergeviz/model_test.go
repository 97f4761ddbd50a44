package main

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/kway-mergeviz/pkg/logging"
	"github.com/dd0wney/kway-mergeviz/pkg/merge"
	"github.com/dd0wney/kway-mergeviz/pkg/playback"
	"github.com/dd0wney/kway-mergeviz/pkg/pubsub"
)

// idleScheduler never fires, so automatic playback advances exactly one
// step per Play.
type idleScheduler struct{}

func (idleScheduler) AfterFunc(time.Duration, func()) playback.Timer { return idleTimer{} }

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

func newTestModel(t *testing.T) model {
	t.Helper()

	eng, err := merge.New(merge.Config{Seed: 1, Streams: 2, StreamLength: 3},
		merge.WithSessionIDs(func() string { return "session-1" }))
	require.NoError(t, err)

	bus := pubsub.New[playback.Event](0)
	t.Cleanup(bus.Shutdown)
	sub, err := bus.Subscribe(context.Background(), playback.Topic)
	require.NoError(t, err)

	ctrl := playback.New(eng, playback.WithScheduler(idleScheduler{}), playback.WithEventBus(bus))
	t.Cleanup(ctrl.Close)

	m := newModel(ctrl, sub.Channel(), "1", logging.NewNopLogger())
	return update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func update(m model, msg tea.Msg) model {
	next, _ := m.Update(msg)
	return next.(model)
}

// press sends each rune as a key press and applies the published events.
func press(m model, keys string) model {
	for _, r := range keys {
		m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = drain(m)
	}
	return m
}

func drain(m model) model {
	for {
		select {
		case ev := <-m.events:
			m = update(m, eventMsg(ev))
		default:
			return m
		}
	}
}

func TestModel_InitialView(t *testing.T) {
	m := newTestModel(t)
	view := m.View()

	assert.Contains(t, view, "K-way Merge Visualizer")
	assert.Contains(t, view, "Comparisons: 0")
	assert.Contains(t, view, "Seed 1")
	assert.Contains(t, view, "READY")
	assert.Contains(t, view, "(empty)")
}

func TestModel_ViewBeforeResize(t *testing.T) {
	eng, err := merge.NewFromStreams([][]int{{1}})
	require.NoError(t, err)
	ctrl := playback.New(eng)
	m := newModel(ctrl, make(chan playback.Event), "1", logging.NewNopLogger())

	assert.Equal(t, "Initializing...", m.View())
}

func TestModel_Step(t *testing.T) {
	m := press(newTestModel(t), "n")

	assert.Equal(t, "Popped 13 from S0", m.status)
	assert.Contains(t, m.View(), "Comparisons: 1")
	assert.Equal(t, []int{13}, m.snap.Engine.Output)
}

func TestModel_RunToCompletion(t *testing.T) {
	m := press(newTestModel(t), "nnnnnn")

	assert.Equal(t, []int{13, 19, 22, 29, 29, 37}, m.snap.Engine.Output)
	assert.Contains(t, m.View(), "Comparisons: 4")
	assert.Contains(t, m.status, "merge complete")
	assert.Contains(t, m.View(), "head: ∞")

	// Stepping is disabled once every stream is exhausted.
	m = press(m, "n")
	assert.Len(t, m.snap.Engine.Output, 6)
	assert.False(t, m.keys.Step.Enabled())

	m = press(m, "p")
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "reset")
}

func TestModel_PlayDisablesStep(t *testing.T) {
	m := press(newTestModel(t), "p")

	assert.Equal(t, playback.Auto, m.snap.Mode)
	assert.Equal(t, "Popped 13 from S0", m.status)
	assert.Contains(t, m.View(), "Auto")
	assert.False(t, m.keys.Step.Enabled())

	m = press(m, "n")
	assert.Len(t, m.snap.Engine.Output, 1, "manual step must be ignored while playing")

	m = press(m, "p")
	assert.Equal(t, playback.Manual, m.snap.Mode)
	assert.Equal(t, "Paused", m.status)
	assert.True(t, m.keys.Step.Enabled())
}

func TestModel_Reset(t *testing.T) {
	m := press(newTestModel(t), "nnn")
	m = press(m, "r")

	assert.Empty(t, m.snap.Engine.Output)
	assert.Equal(t, 0, m.snap.Engine.Comparisons)
	assert.Equal(t, "Reset with seed 1", m.status)
}

func TestModel_EditSeed(t *testing.T) {
	m := press(newTestModel(t), "s")
	require.True(t, m.editing)
	assert.Contains(t, m.View(), "Seed: ")

	// Keys go to the input while editing.
	m = press(m, "42")
	assert.Empty(t, m.snap.Engine.Output)

	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(m)

	assert.False(t, m.editing)
	assert.Equal(t, int64(42), m.snap.Engine.Config.Seed)
	assert.Equal(t, "Reset with seed 42", m.status)
	assert.Equal(t, [][]int{{17, 26, 33}, {9, 12, 19}}, streamData(m.snap.Engine))
}

func TestModel_EditSeedFallsBack(t *testing.T) {
	m := press(newTestModel(t), "s")
	m = press(m, "banana")
	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(m)

	assert.Equal(t, int64(123), m.snap.Engine.Config.Seed)
}

func TestModel_EditSeedCancel(t *testing.T) {
	m := press(newTestModel(t), "n")
	m = press(m, "s")
	m = press(m, "77")
	m = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	m = drain(m)

	assert.False(t, m.editing)
	assert.Equal(t, "1", m.seedInput.Value())
	assert.Equal(t, []int{13}, m.snap.Engine.Output, "cancel must not reset")
}

func TestModel_Speed(t *testing.T) {
	m := press(newTestModel(t), "+")
	assert.Equal(t, 900*time.Millisecond, m.snap.Speed)
	assert.Equal(t, "Speed 900ms", m.status)

	m = press(m, "--")
	assert.Equal(t, 1100*time.Millisecond, m.snap.Speed)
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWaitForEvent(t *testing.T) {
	ch := make(chan playback.Event, 1)
	ch <- playback.Event{Kind: playback.Paused}
	msg := waitForEvent(ch)()
	assert.Equal(t, playback.Paused, playback.Event(msg.(eventMsg)).Kind)

	close(ch)
	assert.Nil(t, waitForEvent(ch)())
}

func TestRenderOutput_ScrollsToLatest(t *testing.T) {
	m := newTestModel(t)
	m.width = 32
	out := make([]int, 20)
	for i := range out {
		out[i] = i + 100
	}
	m.snap.Engine.Output = out

	rendered := m.renderOutput()
	assert.Contains(t, rendered, "…")
	assert.Contains(t, rendered, "119")
	assert.NotContains(t, rendered, "100")
}

func streamData(s merge.Snapshot) [][]int {
	out := make([][]int, len(s.Streams))
	for i, st := range s.Streams {
		out[i] = st.Data
	}
	return out
}
