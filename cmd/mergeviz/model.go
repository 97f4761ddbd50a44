package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dd0wney/kway-mergeviz/pkg/logging"
	"github.com/dd0wney/kway-mergeviz/pkg/playback"
	"github.com/dd0wney/kway-mergeviz/pkg/streams"
)

// eventMsg carries a controller event into the program.
type eventMsg playback.Event

// waitForEvent reads the next event from the bus subscription.
func waitForEvent(events <-chan playback.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

type model struct {
	ctrl   *playback.Controller
	events <-chan playback.Event
	logger logging.Logger

	snap      playback.Snapshot
	seedInput textinput.Model
	editing   bool
	help      help.Model
	keys      keyMap

	width     int
	height    int
	status    string
	statusErr bool
}

func newModel(ctrl *playback.Controller, events <-chan playback.Event, seed string, logger logging.Logger) model {
	ti := textinput.New()
	ti.Prompt = "Seed: "
	ti.Placeholder = fmt.Sprint(streams.DefaultSeed)
	ti.CharLimit = 20
	ti.Width = 22
	ti.SetValue(seed)

	m := model{
		ctrl:      ctrl,
		events:    events,
		logger:    logger,
		snap:      ctrl.Snapshot(),
		seedInput: ti,
		help:      help.New(),
		keys:      newKeyMap(),
		status:    "Ready",
	}
	m.syncKeys()
	return m
}

func (m model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case eventMsg:
		m.apply(playback.Event(msg))
		return m, waitForEvent(m.events)

	case tea.KeyMsg:
		if m.editing {
			return m.updateSeed(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Step):
		if _, err := m.ctrl.Step(); err != nil {
			m.fail(err)
		}

	case key.Matches(msg, m.keys.Play):
		if err := m.ctrl.Toggle(); err != nil {
			m.fail(err)
		}

	case key.Matches(msg, m.keys.Reset):
		m.reset()

	case key.Matches(msg, m.keys.Faster):
		m.ctrl.Faster()

	case key.Matches(msg, m.keys.Slower):
		m.ctrl.Slower()

	case key.Matches(msg, m.keys.Seed):
		m.editing = true
		m.seedInput.SetValue("")
		return m, m.seedInput.Focus()
	}
	return m, nil
}

func (m model) updateSeed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Confirm):
		m.editing = false
		m.seedInput.Blur()
		m.reset()
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.editing = false
		m.seedInput.Blur()
		m.seedInput.SetValue(fmt.Sprint(m.snap.Engine.Config.Seed))
		return m, nil
	}

	var cmd tea.Cmd
	m.seedInput, cmd = m.seedInput.Update(msg)
	return m, cmd
}

// reset re-reads the seed field, as the seed is only applied on reset.
func (m *model) reset() {
	seed := streams.ParseSeed(m.seedInput.Value())
	m.logger.Debug("reset requested", logging.Seed(seed))
	m.ctrl.ResetWithSeed(seed)
}

func (m *model) fail(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func (m *model) apply(ev playback.Event) {
	m.snap = playback.Snapshot{Mode: ev.Mode, Speed: ev.Speed, Engine: ev.Snapshot}
	m.statusErr = false

	switch ev.Kind {
	case playback.Stepped:
		if last := ev.Snapshot.Last; last != nil {
			m.status = fmt.Sprintf("Popped %d from S%d", last.Value, last.StreamID)
		}
	case playback.Finished:
		m.status = "Merge complete"
	case playback.Played:
		m.status = "Playing"
	case playback.Paused:
		m.status = "Paused"
	case playback.ResetDone:
		m.status = fmt.Sprintf("Reset with seed %d", ev.Snapshot.Config.Seed)
	case playback.SpeedChanged:
		m.status = fmt.Sprintf("Speed %s", ev.Speed)
	}
	if ev.Kind == playback.Stepped && ev.Snapshot.Done() {
		m.status += " · merge complete"
	}
	m.syncKeys()
}

// syncKeys disables manual stepping while playing and after completion.
func (m *model) syncKeys() {
	m.keys.Step.SetEnabled(m.snap.Mode == playback.Manual && !m.snap.Engine.Done())
}
