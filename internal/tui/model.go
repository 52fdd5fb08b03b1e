// Package tui provides the Bubble Tea turn timer interface.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/enescakir/emoji"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/crongame/internal/engine"
	"github.com/verte-zerg/crongame/internal/model"
	"github.com/verte-zerg/crongame/internal/store"
)

type screen int

const (
	screenSetup screen = iota
	screenGame
)

// Options wires the UI to the engine and its collaborators.
type Options struct {
	Engine *engine.Engine
	// Bridge must be the engine's listener.
	Bridge *Bridge
	// Settings may be nil when persistence is unavailable.
	Settings store.Settings
	Colors   model.ColorSource
	// Prefill seeds the setup form. It need not be valid.
	Prefill model.SessionConfig
	// Quick starts a round from Prefill without waiting on the form.
	Quick  bool
	Logger zerolog.Logger
}

type quickStartMsg struct{}

// Model implements the Bubble Tea turn timer UI.
type Model struct {
	ctx      context.Context
	engine   *engine.Engine
	bridge   *Bridge
	settings store.Settings
	colors   model.ColorSource
	logger   zerolog.Logger
	quick    bool

	screen    screen
	setup     setupForm
	setupKeys setupKeys
	gameKeys  gameKeys
	help      help.Model
	bar       progress.Model
	warnBar   progress.Model

	width  int
	height int

	roster    []model.Player
	index     int
	player    model.Player
	clock     engine.ClockPayload
	paused    bool
	nearEnd   bool
	exhausted bool
}

// NewModel constructs the UI. ctx bounds store and engine calls made from Update.
func NewModel(ctx context.Context, opts Options) *Model {
	return &Model{
		ctx:       ctx,
		engine:    opts.Engine,
		bridge:    opts.Bridge,
		settings:  opts.Settings,
		colors:    opts.Colors,
		logger:    opts.Logger,
		quick:     opts.Quick,
		setup:     newSetupForm(opts.Prefill),
		setupKeys: newSetupKeys(),
		gameKeys:  newGameKeys(),
		help:      help.New(),
		bar:       progress.New(progress.WithSolidFill(barColor), progress.WithoutPercentage()),
		warnBar:   progress.New(progress.WithSolidFill(warnColor), progress.WithoutPercentage()),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.bridge.wait(), m.setup.setFocus(0)}
	if m.quick {
		cmds = append(cmds, func() tea.Msg { return quickStartMsg{} })
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		barWidth := minInt(maxInt(msg.Width-16, 10), 60)
		m.bar.Width = barWidth
		m.warnBar.Width = barWidth
		return m, nil
	case eventsMsg:
		for _, ev := range msg {
			m.apply(ev)
		}
		return m, m.bridge.wait()
	case quickStartMsg:
		m.start()
		return m, nil
	case tea.KeyMsg:
		if m.screen == screenGame {
			return m.updateGame(msg)
		}
		return m.updateSetup(msg)
	}
	if m.screen == screenSetup {
		return m, m.setup.update(msg)
	}
	return m, nil
}

func (m *Model) updateGame(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.gameKeys.Quit):
		m.engine.EndSession()
		return m, tea.Quit
	case key.Matches(msg, m.gameKeys.Pause):
		if _, err := m.engine.TogglePause(); err != nil {
			m.logger.Error().Err(err).Msg("toggle pause")
		}
	case key.Matches(msg, m.gameKeys.Next):
		if err := m.engine.NextPlayer(); err != nil {
			m.logger.Error().Err(err).Msg("next player")
		}
	case key.Matches(msg, m.gameKeys.Restart):
		if err := m.engine.RestartTurn(); err != nil {
			m.logger.Error().Err(err).Msg("restart turn")
		}
	case key.Matches(msg, m.gameKeys.End):
		m.engine.EndSession()
		m.screen = screenSetup
		return m, m.setup.setFocus(m.setup.focus)
	case key.Matches(msg, m.gameKeys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) updateSetup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.setup.confirmClear {
		m.setup.confirmClear = false
		if msg.String() == "y" || msg.String() == "Y" {
			m.clearSaved()
		}
		return m, nil
	}
	switch {
	case key.Matches(msg, m.setupKeys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.setupKeys.Start):
		m.start()
		return m, nil
	case key.Matches(msg, m.setupKeys.Clear):
		if m.settings == nil {
			m.setup.notice = "settings store is not available"
			return m, nil
		}
		m.setup.confirmClear = true
		return m, nil
	case key.Matches(msg, m.setupKeys.NextField):
		return m, m.setup.setFocus(m.setup.focus + 1)
	case key.Matches(msg, m.setupKeys.PrevField):
		return m, m.setup.setFocus(m.setup.focus - 1)
	}
	m.setup.err = ""
	m.setup.notice = ""
	return m, m.setup.update(msg)
}

func (m *Model) start() {
	cfg, err := m.setup.build(m.colors)
	if err != nil {
		m.setup.err = err.Error()
		return
	}
	if err := m.engine.StartSession(m.ctx, cfg); err != nil {
		m.setup.err = err.Error()
		return
	}
	m.setup.fill(cfg)
	m.setup.err = ""
	m.screen = screenGame
}

func (m *Model) clearSaved() {
	if err := store.ClearConfig(m.ctx, m.settings); err != nil {
		m.logger.Error().Err(err).Msg("clear saved config")
		m.setup.err = err.Error()
		return
	}
	m.logger.Info().Msg("saved config cleared")
	m.setup.fill(model.SessionConfig{})
	m.setup.notice = fmt.Sprintf("%s saved configuration cleared", emoji.CheckMark)
}

func (m *Model) apply(ev engine.Event) {
	switch ev.Type {
	case engine.EventSessionStarted:
		p := ev.Payload.(engine.SessionStartedPayload)
		m.roster = p.Config.Players
		m.screen = screenGame
		m.paused = false
		m.exhausted = false
	case engine.EventActivePlayerChanged:
		p := ev.Payload.(engine.ActivePlayerPayload)
		m.index = p.Index
		m.player = p.Player
		m.nearEnd = false
	case engine.EventClockUpdated:
		m.clock = ev.Payload.(engine.ClockPayload)
		m.exhausted = false
		if !m.clock.EndingSoon {
			m.nearEnd = false
		}
	case engine.EventPausedChanged:
		m.paused = ev.Payload.(engine.PausedPayload).Paused
	case engine.EventNearEnd:
		m.nearEnd = true
	case engine.EventTimeExhausted:
		m.exhausted = true
	case engine.EventSessionEnded:
		m.screen = screenSetup
		m.paused = false
		m.exhausted = false
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.screen == screenSetup && m.setup.confirmClear {
		return m.renderConfirm()
	}
	var body, footer string
	if m.screen == screenGame {
		body = m.renderGame()
		footer = m.help.View(m.gameKeys)
	} else {
		body = cardStyle.Render(m.setup.view())
		footer = m.help.View(m.setupKeys)
	}
	if m.width == 0 || m.height == 0 {
		return body + "\n" + footer
	}
	footerHeight := lipgloss.Height(footer)
	bodyHeight := maxInt(m.height-footerHeight, 1)
	placed := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, body)
	return placed + "\n" + fitLines(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, footer), m.width, footerHeight)
}

func (m *Model) renderGame() string {
	header := mutedStyle.Render(fmt.Sprintf("%s  %s · %s", emoji.Stopwatch, m.clock.Mode, model.FormatClock(m.clock.Duration)))
	name := playerStyle(m.player.Color).Render(truncateName(m.player.Name, maxNameCols))
	position := mutedStyle.Render(fmt.Sprintf("Player %d of %d", m.index+1, len(m.roster)))

	clock := clockStyle
	bar := m.bar
	if m.clock.EndingSoon {
		clock = clock.Foreground(lipgloss.Color(warnColor))
		bar = m.warnBar
	}

	lines := []string{
		header,
		"",
		fmt.Sprintf("%s %s", emoji.Star, name),
		position,
		"",
		clock.Render(model.FormatClock(m.clock.Value)),
		bar.ViewAs(m.clock.Progress),
		"",
		m.statusLine(),
	}
	if len(m.roster) > 1 {
		next := m.roster[(m.index+1)%len(m.roster)]
		lines = append(lines, mutedStyle.Render("Next: ")+playerStyle(next.Color).Render(truncateName(next.Name, maxNameCols)))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) statusLine() string {
	switch {
	case m.exhausted:
		return accentStyle.Render(fmt.Sprintf("%s Time's up, press n for the next player", emoji.ChequeredFlag))
	case m.paused:
		return accentStyle.Render("Paused")
	case m.nearEnd || m.clock.EndingSoon:
		return errorStyle.Render(fmt.Sprintf("%s Ending soon", emoji.Loudspeaker))
	default:
		return mutedStyle.Render("Running")
	}
}

func (m *Model) renderConfirm() string {
	body := []string{
		titleStyle.Render("Clear saved configuration"),
		mutedStyle.Render("The setup form will start from defaults next time."),
		accentStyle.Render("y to clear / any other key to cancel"),
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
