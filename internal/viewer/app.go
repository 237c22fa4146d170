package viewer

import (
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/devkev/bsonview/internal/bsonfile"
	"github.com/devkev/bsonview/internal/bvlog"
	"github.com/devkev/bsonview/internal/render"
	"github.com/devkev/bsonview/internal/search"
)

// statusRepaintEvery throttles status redraw logging during bulk load.
const statusRepaintEvery = 100 * time.Millisecond

// loadTickMsg drives one bounded parsing step of the cache.
type loadTickMsg struct{}

// performSearchMsg runs the deferred search scan. It is issued as a
// command from the Update that put "Searching..." on the status line,
// so the user sees that paint first. A future cancelable search would
// check its token between documents here.
type performSearchMsg struct{}

// Application is the bubbletea model composing the cache, viewport,
// prompt and status line. All state mutation happens in Update; there
// is exactly one owner.
type Application struct {
	path   string
	vp     *Viewport
	prompt Prompt
	keys   keyMap
	styles Styles

	loadBatch int

	extra string

	width  int
	height int
	ready  bool

	lastStatusRepaint time.Time

	err error
}

// NewApplication builds the model. The cache already holds the first
// document.
func NewApplication(path string, cache *bsonfile.DocumentCache, mode render.Mode, flavor render.Flavor, loadBatch int) *Application {
	return &Application{
		path:      path,
		vp:        NewViewport(cache, mode, flavor),
		prompt:    NewPrompt(),
		keys:      defaultKeyMap(),
		styles:    defaultStyles(),
		loadBatch: loadBatch,
	}
}

// Err returns the fatal error that ended the session, if any.
func (a *Application) Err() error { return a.err }

// Viewport exposes the viewport, for tests and the status line.
func (a *Application) Viewport() *Viewport { return a.vp }

// Extra returns the transient status message.
func (a *Application) Extra() string { return a.extra }

func (a *Application) Init() tea.Cmd {
	return a.loadCmd()
}

func (a *Application) loadCmd() tea.Cmd {
	return func() tea.Msg { return loadTickMsg{} }
}

func (a *Application) fatal(err error) (tea.Model, tea.Cmd) {
	bvlog.Log.Error("fatal", "error", err)
	a.err = err
	return a, tea.Quit
}

func (a *Application) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		// Bottom row belongs to the status line (or the prompt).
		a.vp.SetSize(a.height-1, a.width)
		return a.checkFatal(nil)

	case loadTickMsg:
		return a.handleLoadTick()

	case performSearchMsg:
		a.doSearch()
		return a.checkFatal(nil)

	case tea.KeyMsg:
		if a.prompt.Active() {
			return a.handlePromptKey(msg)
		}
		return a.handleKey(msg)

	case tea.MouseWheelMsg:
		switch msg.Button {
		case tea.MouseWheelUp:
			a.vp.MoveUp()
		case tea.MouseWheelDown:
			a.vp.MoveDown()
		}
		return a.checkFatal(nil)

	case tea.MouseClickMsg:
		if msg.Button == tea.MouseLeft {
			a.vp.DragStartLine(msg.Y)
		}
		return a.checkFatal(nil)

	case tea.MouseMotionMsg:
		a.vp.DragUpdateLine(msg.Y)
		return a.checkFatal(nil)

	case tea.MouseReleaseMsg:
		a.vp.DragEndLine(msg.Y)
		return a.checkFatal(nil)
	}

	if a.prompt.Active() {
		_, cmd := a.prompt.Update(msg)
		return a, cmd
	}
	return a, nil
}

// checkFatal quits the program on the first sticky cache error.
func (a *Application) checkFatal(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if err := a.vp.Err(); err != nil {
		return a.fatal(err)
	}
	if err := a.vp.Cache().Err(); err != nil {
		return a.fatal(err)
	}
	return a, cmd
}

func (a *Application) handleLoadTick() (tea.Model, tea.Cmd) {
	cache := a.vp.Cache()
	if !cache.IsComplete() {
		if err := cache.LoadSome(a.loadBatch); err != nil {
			return a.fatal(err)
		}
		if time.Since(a.lastStatusRepaint) > statusRepaintEvery {
			a.lastStatusRepaint = time.Now()
			bvlog.Log.Debug("loading", "docs", cache.NumDocs(), "seen", cache.SizeOfFileSeen())
		}
		return a, a.loadCmd()
	}

	if a.vp.JumpToEndAfterLoad() {
		a.vp.JumpDown()
		bvlog.Log.Viewport("deferred jump to end", a.vp.Snapshot())
	}
	return a.checkFatal(nil)
}

func (a *Application) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	result, cmd := a.prompt.Update(msg)
	switch result {
	case PromptConfirmed:
		return a.submitSearch(a.prompt.Value())
	case PromptCancelled:
		return a, nil
	}
	return a, cmd
}

func (a *Application) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key clears the previous transient message.
	a.extra = ""

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.ModeOneline):
		a.vp.SetMode(render.ModeJSONOneline)
	case key.Matches(msg, a.keys.ModePretty):
		a.vp.SetMode(render.ModeJSONPretty)
	case key.Matches(msg, a.keys.ModeToString):
		a.vp.SetMode(render.ModeToString)
	case key.Matches(msg, a.keys.ModeTextLogs):
		a.vp.SetMode(render.ModeTextLogs)
	case key.Matches(msg, a.keys.ToggleFlavor):
		a.vp.ToggleExtendedJSON()

	case key.Matches(msg, a.keys.Left):
		a.vp.MoveLeft()
	case key.Matches(msg, a.keys.Right):
		a.vp.MoveRight()
	case key.Matches(msg, a.keys.JumpLeft):
		a.vp.JumpLeft()
	case key.Matches(msg, a.keys.JumpRight):
		a.vp.JumpRight()

	case key.Matches(msg, a.keys.CursorDown):
		a.vp.MoveCursorDown()
	case key.Matches(msg, a.keys.CursorUp):
		a.vp.MoveCursorUp()

	case key.Matches(msg, a.keys.Top):
		a.vp.JumpUp()
	case key.Matches(msg, a.keys.Bottom):
		a.vp.JumpDown()

	case key.Matches(msg, a.keys.ScreenTop):
		a.vp.CursorTop()
	case key.Matches(msg, a.keys.ScreenMiddle):
		a.vp.CursorMiddle()
	case key.Matches(msg, a.keys.ScreenBottom):
		a.vp.CursorBottom()

	case key.Matches(msg, a.keys.PageDown):
		a.vp.PageDown()
	case key.Matches(msg, a.keys.PageUp):
		a.vp.PageUp()

	case key.Matches(msg, a.keys.ToggleMark):
		a.vp.ToggleMarkCursorDoc()
	case key.Matches(msg, a.keys.NextMark):
		a.vp.JumpNextMarkedDoc()
	case key.Matches(msg, a.keys.PrevMark):
		a.vp.JumpPrevMarkedDoc()

	case key.Matches(msg, a.keys.Search):
		return a, a.prompt.Enter("")
	case key.Matches(msg, a.keys.SearchStructured):
		return a, a.prompt.Enter("{")
	case key.Matches(msg, a.keys.SearchRepeat):
		return a.repeatSearch()
	}

	return a.checkFatal(nil)
}

// submitSearch classifies the prompt text and kicks off the deferred
// scan.
func (a *Application) submitSearch(text string) (tea.Model, tea.Cmd) {
	if text == "" {
		a.extra = "No search pattern"
		return a, nil
	}
	a.vp.RegisterSearch(search.New(text))
	return a.deferSearch()
}

// repeatSearch re-runs the retained search, if there is one.
func (a *Application) repeatSearch() (tea.Model, tea.Cmd) {
	if a.vp.LastSearch() == nil {
		a.extra = "No previous search"
		return a, nil
	}
	return a.deferSearch()
}

// deferSearch shows "Searching..." and schedules the scan for after
// the next paint.
func (a *Application) deferSearch() (tea.Model, tea.Cmd) {
	a.extra = "Searching..."
	return a, func() tea.Msg { return performSearchMsg{} }
}

func (a *Application) doSearch() {
	s := a.vp.LastSearch()
	if s == nil {
		a.extra = "No search pattern"
		return
	}
	if !s.IsValid() {
		a.extra = "Invalid search pattern"
		return
	}
	if doc, ok := a.vp.SearchFor(s); ok {
		a.extra = ""
		a.vp.JumpToDoc(doc)
		bvlog.Log.Viewport("search hit", a.vp.Snapshot())
	} else {
		a.extra = "Pattern not found"
	}
}

// renderRow clips and decorates one plan row: horizontal scroll, the
// "<" and ">" overflow sentinels, and the highlight pens with
// precedence cursor > matched > marked.
func (a *Application) renderRow(line int) string {
	if a.width <= 0 {
		return ""
	}
	plan := a.vp.Plan()
	if line >= len(plan) {
		return "~"
	}
	row := plan[line]

	startCol := a.vp.StartCol()
	text := row.Text
	s := ""
	if startCol < len(text) {
		s = text[startCol:]
	}
	overflow := len(s) > a.width
	if overflow {
		s = s[:a.width]
	}
	if startCol > 0 {
		if s == "" {
			s = "<"
		} else {
			s = "<" + s[1:]
		}
	}
	if overflow {
		s = s[:len(s)-1] + ">"
	}

	switch {
	case line == a.vp.CursorLine():
		return a.styles.CursorLine.Width(a.width).Render(s)
	case a.vp.DocMatches(row.Doc):
		return a.styles.MatchedDoc.Width(a.width).Render(s)
	case a.vp.IsMarked(row.Doc):
		return a.styles.MarkedDoc.Width(a.width).Render(s)
	}
	return s
}

func (a *Application) viewContent() string {
	// A resize can deliver a degenerate size; draw nothing until the
	// terminal reports real dimensions.
	if !a.ready || a.width <= 0 || a.height <= 0 {
		return ""
	}

	mainLines := a.height - 1
	rows := make([]string, 0, a.height)
	for line := 0; line < mainLines; line++ {
		rows = append(rows, a.renderRow(line))
	}

	if a.prompt.Active() {
		rows = append(rows, a.prompt.View())
	} else {
		status := StatusLine(a.path, a.vp, a.extra, a.width)
		rows = append(rows, a.styles.Status.Width(a.width).Render(status))
		a.lastStatusRepaint = time.Now()
	}

	return strings.Join(rows, "\n")
}

func (a *Application) View() tea.View {
	v := tea.NewView(a.viewContent())
	v.AltScreen = true
	v.MouseMode = tea.MouseModeAllMotion
	return v
}
