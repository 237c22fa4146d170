package viewer

import "charm.land/bubbles/v2/key"

// keyMap defines the key bindings of the main screen.
type keyMap struct {
	Quit key.Binding

	ModeOneline  key.Binding
	ModePretty   key.Binding
	ModeToString key.Binding
	ModeTextLogs key.Binding
	ToggleFlavor key.Binding

	Left      key.Binding
	Right     key.Binding
	JumpLeft  key.Binding
	JumpRight key.Binding

	CursorDown key.Binding
	CursorUp   key.Binding

	Top    key.Binding
	Bottom key.Binding

	ScreenTop    key.Binding
	ScreenMiddle key.Binding
	ScreenBottom key.Binding

	PageDown key.Binding
	PageUp   key.Binding

	ToggleMark key.Binding
	NextMark   key.Binding
	PrevMark   key.Binding

	Search           key.Binding
	SearchRepeat     key.Binding
	SearchStructured key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),

		ModeOneline: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "one-line JSON"),
		),
		ModePretty: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "pretty JSON"),
		),
		ModeToString: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "field dump"),
		),
		ModeTextLogs: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "text logs"),
		),
		ToggleFlavor: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "strict/extended JSON"),
		),

		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h", "scroll left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l", "scroll right"),
		),
		JumpLeft: key.NewBinding(
			key.WithKeys("^", "0"),
			key.WithHelp("^", "jump left"),
		),
		JumpRight: key.NewBinding(
			key.WithKeys("$"),
			key.WithHelp("$", "jump right"),
		),

		CursorDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j", "cursor down"),
		),
		CursorUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k", "cursor up"),
		),

		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top of file"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "end of file"),
		),

		ScreenTop: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "cursor to screen top"),
		),
		ScreenMiddle: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "cursor to screen middle"),
		),
		ScreenBottom: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "cursor to screen bottom"),
		),

		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+f", " "),
			key.WithHelp("pgdn", "page down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+b"),
			key.WithHelp("pgup", "page up"),
		),

		ToggleMark: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "toggle mark"),
		),
		NextMark: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next marked"),
		),
		PrevMark: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev marked"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		SearchRepeat: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "repeat search"),
		),
		SearchStructured: key.NewBinding(
			key.WithKeys("{"),
			key.WithHelp("{", "query search"),
		),
	}
}
