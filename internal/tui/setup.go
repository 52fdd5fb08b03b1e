package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/enescakir/emoji"

	"github.com/verte-zerg/crongame/internal/model"
)

// MaxPlayers bounds the roster size the setup form offers.
const MaxPlayers = 12

const (
	defaultPlayerCount = 2
	defaultDuration    = 60
)

type setupForm struct {
	count    textinput.Model
	duration textinput.Model
	mode     textinput.Model
	names    []textinput.Model
	colors   []textinput.Model
	visible  int
	focus    int

	err          string
	notice       string
	confirmClear bool
}

func newInput(prompt, placeholder string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Placeholder = placeholder
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func newSetupForm(prefill model.SessionConfig) setupForm {
	f := setupForm{
		count:    newInput("Players:  ", strconv.Itoa(defaultPlayerCount)),
		duration: newInput("Duration: ", "MM:SS or seconds"),
		mode:     newInput("Mode:     ", "countdown | countup"),
		names:    make([]textinput.Model, MaxPlayers),
		colors:   make([]textinput.Model, MaxPlayers),
	}
	for i := 0; i < MaxPlayers; i++ {
		f.names[i] = newInput(fmt.Sprintf("Name %-2d   ", i+1), model.DefaultPlayerName(i+1))
		f.colors[i] = newInput("  color ", "random")
		f.colors[i].CharLimit = 7
	}
	f.fill(prefill)
	return f
}

// fill copies a (possibly partial) config into the inputs.
func (f *setupForm) fill(cfg model.SessionConfig) {
	count := len(cfg.Players)
	if count == 0 {
		count = defaultPlayerCount
	}
	count = minInt(count, MaxPlayers)
	f.count.SetValue(strconv.Itoa(count))
	duration := cfg.Settings.DurationSeconds
	if duration <= 0 {
		duration = defaultDuration
	}
	f.duration.SetValue(model.FormatClock(duration))
	f.mode.SetValue(cfg.Settings.Mode.String())
	for i := 0; i < MaxPlayers; i++ {
		name, color := "", ""
		if i < len(cfg.Players) {
			name, color = cfg.Players[i].Name, cfg.Players[i].Color
		}
		f.names[i].SetValue(name)
		f.colors[i].SetValue(color)
	}
	f.visible = count
}

func (f *setupForm) fields() []*textinput.Model {
	out := []*textinput.Model{&f.count, &f.duration, &f.mode}
	for i := 0; i < f.visible; i++ {
		out = append(out, &f.names[i], &f.colors[i])
	}
	return out
}

func (f *setupForm) setFocus(idx int) tea.Cmd {
	fields := f.fields()
	if idx < 0 {
		idx = len(fields) - 1
	}
	if idx >= len(fields) {
		idx = 0
	}
	f.focus = idx
	var cmd tea.Cmd
	for i, field := range fields {
		if i == idx {
			cmd = field.Focus()
		} else {
			field.Blur()
		}
	}
	return cmd
}

func (f *setupForm) update(msg tea.Msg) tea.Cmd {
	fields := f.fields()
	if f.focus >= len(fields) {
		return nil
	}
	field := fields[f.focus]
	var cmd tea.Cmd
	*field, cmd = field.Update(msg)
	if f.focus == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(f.count.Value())); err == nil && n > 0 {
			f.visible = minInt(n, MaxPlayers)
		}
	}
	return cmd
}

// build validates the form into a session config.
func (f *setupForm) build(colors model.ColorSource) (model.SessionConfig, error) {
	count, err := strconv.Atoi(strings.TrimSpace(f.count.Value()))
	if err != nil || count <= 0 {
		return model.SessionConfig{}, &model.ValidationError{Field: "players", Reason: "player count must be a positive integer"}
	}
	if count > MaxPlayers {
		return model.SessionConfig{}, &model.ValidationError{Field: "players", Reason: fmt.Sprintf("at most %d players", MaxPlayers)}
	}
	duration, err := model.ParseDuration(f.duration.Value())
	if err != nil {
		return model.SessionConfig{}, err
	}
	settings, err := model.BuildRoundSettings(duration, f.mode.Value())
	if err != nil {
		return model.SessionConfig{}, err
	}
	entries := make([]model.PlayerEntry, count)
	for i := range entries {
		entries[i] = model.PlayerEntry{Name: f.names[i].Value(), Color: f.colors[i].Value()}
	}
	players, err := model.BuildRoster(count, entries, colors)
	if err != nil {
		return model.SessionConfig{}, err
	}
	return model.NewSessionConfig(players, settings)
}

func (f *setupForm) view() string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("%s  New round", emoji.Gear)),
		"",
		f.count.View(),
		f.duration.View(),
		f.mode.View(),
		"",
	}
	for i := 0; i < f.visible; i++ {
		line := f.names[i].View() + f.colors[i].View()
		if c := strings.TrimSpace(f.colors[i].Value()); c != "" {
			if normalized, err := model.NormalizeColor(c); err == nil {
				line += " " + playerStyle(normalized).Render("■")
			}
		}
		lines = append(lines, line)
	}
	lines = append(lines, "")
	switch {
	case f.err != "":
		lines = append(lines, errorStyle.Render(fmt.Sprintf("%s %s", emoji.CrossMark, f.err)))
	case f.notice != "":
		lines = append(lines, mutedStyle.Render(f.notice))
	default:
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("%s enter to start", emoji.Rocket)))
	}
	return strings.Join(lines, "\n")
}
