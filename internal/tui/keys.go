package tui

import "github.com/charmbracelet/bubbles/key"

type gameKeys struct {
	Pause   key.Binding
	Next    key.Binding
	Restart key.Binding
	End     key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func newGameKeys() gameKeys {
	return gameKeys{
		Pause:   key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space/p", "pause")),
		Next:    key.NewBinding(key.WithKeys("n", "enter"), key.WithHelp("n/enter", "next player")),
		Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart turn")),
		End:     key.NewBinding(key.WithKeys("e", "esc"), key.WithHelp("e/esc", "end round")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k gameKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Next, k.End, k.Help}
}

// FullHelp implements help.KeyMap.
func (k gameKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Next, k.Restart},
		{k.End, k.Help, k.Quit},
	}
}

type setupKeys struct {
	NextField key.Binding
	PrevField key.Binding
	Start     key.Binding
	Clear     key.Binding
	Quit      key.Binding
}

func newSetupKeys() setupKeys {
	return setupKeys{
		NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Start:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start")),
		Clear:     key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "clear saved")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

func (k setupKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.Start, k.Clear, k.Quit}
}

func (k setupKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.NextField, k.PrevField, k.Start}, {k.Clear, k.Quit}}
}
