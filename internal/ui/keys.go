package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the browser's key bindings.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Search    key.Binding
	Category  key.Binding
	TimeRange key.Binding
	Reset     key.Binding
	Refresh   key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	FirstPage key.Binding
	LastPage  key.Binding
	Jump      key.Binding
	Images    key.Binding
	Copy      key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap is the key map used by New.
var DefaultKeyMap = KeyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
	Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "keyword")),
	Category:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "category")),
	TimeRange: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "time range")),
	Reset:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset")),
	Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	NextPage:  key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n", "next page")),
	PrevPage:  key.NewBinding(key.WithKeys("p", "pgup"), key.WithHelp("p", "prev page")),
	FirstPage: key.NewBinding(key.WithKeys("[", "home"), key.WithHelp("[", "first")),
	LastPage:  key.NewBinding(key.WithKeys("]", "end"), key.WithHelp("]", "last")),
	Jump:      key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "go to page")),
	Images:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "images")),
	Copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy magnet")),
	Confirm:   key.NewBinding(key.WithKeys("enter")),
	Cancel:    key.NewBinding(key.WithKeys("esc")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Category, k.TimeRange, k.Reset, k.Copy, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.NextPage, k.PrevPage, k.FirstPage, k.LastPage, k.Jump},
		{k.Search, k.Category, k.TimeRange, k.Reset, k.Refresh},
		{k.Images, k.Copy, k.Help, k.Quit},
	}
}
