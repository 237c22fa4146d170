// Package viewer contains the interactive core of bv: the viewport
// state machine over the document cache, the mark set, the prompt and
// status surfaces, and the bubbletea application that dispatches
// events into them.
package viewer

import (
	"errors"
	"strings"

	"github.com/devkev/bsonview/internal/bsonfile"
	"github.com/devkev/bsonview/internal/render"
	"github.com/devkev/bsonview/internal/search"
)

// PlanRow is one screen row of the visible plan: the document it
// belongs to and its unclipped sub-line text.
type PlanRow struct {
	Doc  int
	Text string
}

// Viewport is the state machine translating motion commands into a
// (startDoc, startLine, cursorLine, startCol) tuple plus the derived
// visible plan. All motion operations recompute the plan; drawing
// consumes the plan without re-walking sub-lines.
type Viewport struct {
	cache *bsonfile.DocumentCache

	mode   render.Mode
	flavor render.Flavor

	startDoc   int // index of first document with any line on screen
	startLine  int // leading rendered sub-lines of startDoc hidden above the screen
	startCol   int // horizontal scroll in display columns
	cursorLine int

	mainLines int
	mainCols  int

	// Derived by ComputeVisible.
	cursorDoc           int
	lastDisplayedDoc    int
	lastDisplayedLine   int
	longestLineStartCol int
	docLines            []int
	plan                []PlanRow

	marks MarkSet

	dragActive  bool
	dragMarking bool
	dragFirst   int
	dragLast    int

	lastSearch *search.Search

	jumpToEndAfterLoad bool

	renderMemo map[int]string

	loadErr error
}

// NewViewport builds a viewport over cache with the given initial
// rendering.
func NewViewport(cache *bsonfile.DocumentCache, mode render.Mode, flavor render.Flavor) *Viewport {
	return &Viewport{
		cache:      cache,
		mode:       mode,
		flavor:     flavor,
		renderMemo: make(map[int]string),
	}
}

// Cache returns the underlying document cache.
func (v *Viewport) Cache() *bsonfile.DocumentCache { return v.cache }

// Err returns the first fatal cache error observed while rendering.
func (v *Viewport) Err() error { return v.loadErr }

// Plan returns the current visible plan, one entry per populated
// screen row.
func (v *Viewport) Plan() []PlanRow { return v.plan }

// Accessors for the derived state.
func (v *Viewport) StartDoc() int            { return v.startDoc }
func (v *Viewport) StartLine() int           { return v.startLine }
func (v *Viewport) StartCol() int            { return v.startCol }
func (v *Viewport) CursorLine() int          { return v.cursorLine }
func (v *Viewport) CursorDoc() int           { return v.cursorDoc }
func (v *Viewport) LastDisplayedDoc() int    { return v.lastDisplayedDoc }
func (v *Viewport) LastDisplayedLine() int   { return v.lastDisplayedLine }
func (v *Viewport) LongestLineStartCol() int { return v.longestLineStartCol }
func (v *Viewport) Mode() render.Mode        { return v.mode }
func (v *Viewport) Flavor() render.Flavor    { return v.flavor }
func (v *Viewport) JumpToEndAfterLoad() bool { return v.jumpToEndAfterLoad }

// Snapshot captures the positional state for the debug log.
func (v *Viewport) Snapshot() map[string]int {
	return map[string]int{
		"startDoc":   v.startDoc,
		"startLine":  v.startLine,
		"startCol":   v.startCol,
		"cursorLine": v.cursorLine,
		"cursorDoc":  v.cursorDoc,
		"lastDoc":    v.lastDisplayedDoc,
		"lastLine":   v.lastDisplayedLine,
	}
}

// RenderDoc returns the rendering of document i under the current mode
// and flavor, memoized until the mode or flavor changes.
func (v *Viewport) RenderDoc(i int) string {
	if s, ok := v.renderMemo[i]; ok {
		return s
	}
	doc, err := v.cache.Index(i)
	if err != nil {
		if !errors.Is(err, bsonfile.ErrOutOfRange) {
			v.loadErr = err
		}
		return ""
	}
	s := render.Render(doc, v.mode, v.flavor)
	v.renderMemo[i] = s
	return s
}

// docAvailable forces document i into the cache, reporting whether it
// exists.
func (v *Viewport) docAvailable(i int) bool {
	_, err := v.cache.Index(i)
	if err != nil {
		if !errors.Is(err, bsonfile.ErrOutOfRange) {
			v.loadErr = err
		}
		return false
	}
	return true
}

// docLineCount returns the total number of rendered sub-lines of
// document i.
func (v *Viewport) docLineCount(i int) int {
	return strings.Count(v.RenderDoc(i), "\n") + 1
}

// SetSize updates the viewport dimensions.
func (v *Viewport) SetSize(lines, cols int) {
	if lines == v.mainLines && cols == v.mainCols {
		return
	}
	v.mainLines = lines
	v.mainCols = cols
	v.ComputeVisible()
	v.clampCursor()
}

// ComputeVisible rebuilds the visible plan from (startDoc, startLine):
// one walk over rendered sub-lines produces docLines, the plan rows,
// the last displayed doc/line and the horizontal scroll bound.
func (v *Viewport) ComputeVisible() {
	line := 0
	longest := 0
	doc := v.startDoc
	skip := v.startLine
	v.docLines = v.docLines[:0]
	v.plan = v.plan[:0]

	for line < v.mainLines {
		if v.cache.IsComplete() && doc >= v.cache.NumDocs() {
			break
		}
		if !v.docAvailable(doc) {
			break
		}
		rest := v.RenderDoc(doc)
		thisDocLines := 0

		for line < v.mainLines {
			sub, next, more := strings.Cut(rest, "\n")

			if skip > 0 {
				skip--
			} else {
				if len(sub) > longest {
					longest = len(sub)
				}
				v.plan = append(v.plan, PlanRow{Doc: doc, Text: sub})
				line++
			}
			thisDocLines++

			if !more {
				break
			}
			rest = next
		}

		v.docLines = append(v.docLines, thisDocLines)
		v.lastDisplayedDoc = doc
		doc++
	}

	v.lastDisplayedLine = line - 1
	v.longestLineStartCol = longest - v.mainCols
	if v.longestLineStartCol < 0 {
		v.longestLineStartCol = 0
	}
	// A reflow can shrink the widest visible line out from under the
	// current scroll position.
	if v.startCol > v.longestLineStartCol {
		v.startCol = v.longestLineStartCol
	}
	v.deriveCursorDoc()
}

func (v *Viewport) deriveCursorDoc() {
	if len(v.plan) == 0 {
		return
	}
	i := v.cursorLine
	if i >= len(v.plan) {
		i = len(v.plan) - 1
	}
	if i < 0 {
		i = 0
	}
	v.cursorDoc = v.plan[i].Doc
}

func (v *Viewport) clampCursor() {
	if v.cursorLine > v.lastDisplayedLine {
		v.cursorLine = v.lastDisplayedLine
	}
	if v.cursorLine < 0 {
		v.cursorLine = 0
	}
	v.deriveCursorDoc()
}

// MoveLeft scrolls one column left.
func (v *Viewport) MoveLeft() {
	if v.startCol > 0 {
		v.startCol--
		v.ComputeVisible()
	}
}

// MoveRight scrolls one column right.
func (v *Viewport) MoveRight() {
	if v.startCol < v.longestLineStartCol {
		v.startCol++
		v.ComputeVisible()
	}
}

// JumpLeft scrolls to column zero.
func (v *Viewport) JumpLeft() {
	if v.startCol != 0 {
		v.startCol = 0
		v.ComputeVisible()
	}
}

// JumpRight scrolls to the rightmost useful column.
func (v *Viewport) JumpRight() {
	if v.startCol != v.longestLineStartCol {
		v.startCol = v.longestLineStartCol
		v.ComputeVisible()
	}
}

// CursorTop puts the cursor on the first screen row.
func (v *Viewport) CursorTop() {
	if v.cursorLine != 0 {
		v.cursorLine = 0
		v.ComputeVisible()
	}
}

// CursorMiddle puts the cursor on the middle screen row.
func (v *Viewport) CursorMiddle() {
	target := v.mainLines / 2
	if target > v.lastDisplayedLine {
		target = v.lastDisplayedLine
	}
	if target < 0 {
		target = 0
	}
	if v.cursorLine != target {
		v.cursorLine = target
		v.ComputeVisible()
	}
}

// CursorBottom puts the cursor on the last populated screen row.
func (v *Viewport) CursorBottom() {
	target := v.mainLines - 1
	if target > v.lastDisplayedLine {
		target = v.lastDisplayedLine
	}
	if target < 0 {
		target = 0
	}
	if v.cursorLine != target {
		v.cursorLine = target
		v.ComputeVisible()
	}
}

// CursorUp moves the cursor up one row without scrolling.
func (v *Viewport) CursorUp() {
	if v.cursorLine > 0 {
		v.cursorLine--
		v.ComputeVisible()
	}
}

// CursorDown moves the cursor down one row without scrolling.
func (v *Viewport) CursorDown() {
	if v.cursorLine < v.mainLines-1 && v.cursorLine < v.lastDisplayedLine {
		v.cursorLine++
		v.ComputeVisible()
	}
}

// MoveCursorUp moves the cursor up, scrolling when it pushes on the
// top edge.
func (v *Viewport) MoveCursorUp() {
	if v.cursorLine == 0 {
		v.MoveUp()
	}
	v.CursorUp()
}

// MoveCursorDown moves the cursor down, scrolling when it pushes on
// the bottom edge.
func (v *Viewport) MoveCursorDown() {
	if v.cursorLine == v.mainLines-1 {
		v.MoveDown()
	}
	v.CursorDown()
}

// nextDoc advances startDoc by one document.
func (v *Viewport) nextDoc() bool {
	if !v.cache.IsComplete() || v.startDoc < v.cache.NumDocs()-1 {
		v.startDoc++
		v.startLine = 0
		return true
	}
	return false
}

// prevDoc steps startDoc back by one document.
func (v *Viewport) prevDoc() bool {
	if v.startDoc > 0 {
		v.startDoc--
		v.startLine = 0
		return true
	}
	return false
}

// MoveNextDoc scrolls so the next document starts at the screen top.
func (v *Viewport) MoveNextDoc() {
	if v.nextDoc() {
		v.ComputeVisible()
		v.clampCursor()
	}
}

// MovePrevDoc scrolls so the previous document starts at the screen top.
func (v *Viewport) MovePrevDoc() {
	if v.prevDoc() {
		v.ComputeVisible()
		v.clampCursor()
	}
}

// MoveDown scrolls down by one sub-line, stepping into the next
// document when the first one runs out. The cursor is compensated so
// it stays over the same content row.
func (v *Viewport) MoveDown() {
	v.ComputeVisible()
	if len(v.docLines) == 0 {
		return
	}
	if v.startLine == v.docLines[0]-1 {
		if v.nextDoc() {
			v.startLine = 0
			v.ComputeVisible()
			v.CursorUp()
		}
	} else {
		v.startLine++
		v.ComputeVisible()
		v.CursorUp()
	}
}

// MoveUp scrolls up by one sub-line, stepping onto the previous
// document's last sub-line at a document boundary.
func (v *Viewport) MoveUp() {
	v.ComputeVisible()
	if v.startLine == 0 {
		if v.prevDoc() {
			v.startLine = v.docLineCount(v.startDoc) - 1
			v.ComputeVisible()
			v.CursorDown()
		}
	} else {
		v.startLine--
		v.ComputeVisible()
		v.CursorDown()
	}
}

// JumpUp goes to the top of the file.
func (v *Viewport) JumpUp() {
	if v.startDoc != 0 || v.startLine != 0 {
		v.startDoc = 0
		v.startLine = 0
		v.ComputeVisible()
	}
	v.CursorTop()
}

// JumpDown goes to the end of the file: the last document's last
// sub-line sits on the bottom row and the cursor is at the bottom.
// While the cache is still loading the jump is deferred; the loader
// finishes it once the cache completes.
func (v *Viewport) JumpDown() {
	if !v.cache.IsComplete() {
		v.jumpToEndAfterLoad = true
		return
	}

	total := 0
	d := v.cache.NumDocs()
	for d > 0 && total < v.mainLines {
		d--
		total += v.docLineCount(d)
	}
	v.startDoc = d
	v.startLine = total - v.mainLines
	if v.startLine < 0 {
		v.startLine = 0
	}
	v.ComputeVisible()
	v.CursorBottom()

	v.jumpToEndAfterLoad = false
}

// PageUp scrolls one screenful up. The previous start document ends up
// as the last displayed document; when the backward scan reaches the
// top of the file first, the cursor instead moves down by exactly the
// number of sub-lines scrolled.
func (v *Viewport) PageUp() {
	if v.startDoc == 0 && v.startLine == 0 {
		v.CursorTop()
		return
	}

	oldStartDoc := v.startDoc
	oldStartLine := v.startLine

	// Sub-lines from the top of the file through the old top row,
	// accumulated backwards until a full screen is available.
	avail := oldStartLine + 1
	d := oldStartDoc
	for avail < v.mainLines && d > 0 {
		d--
		avail += v.docLineCount(d)
	}

	if avail >= v.mainLines {
		v.startDoc = d
		v.startLine = avail - v.mainLines
		v.ComputeVisible()
		v.CursorBottom()
	} else {
		// Crashed into the top: the viewport shifted up by the old
		// top row's absolute offset, so the cursor goes down by the
		// same amount.
		shift := avail - 1
		v.startDoc = 0
		v.startLine = 0
		v.cursorLine += shift
		if v.cursorLine > v.mainLines-1 {
			v.cursorLine = v.mainLines - 1
		}
		v.ComputeVisible()
		v.clampCursor()
	}
}

// PageDown scrolls one screenful down: the previous last displayed
// document becomes the new start document.
func (v *Viewport) PageDown() {
	v.ComputeVisible()
	if v.lastDisplayedLine < v.mainLines-1 {
		// Already on the last page.
		v.CursorBottom()
		return
	}

	v.startDoc = v.lastDisplayedDoc
	v.startLine = v.docLines[len(v.docLines)-1]
	v.normalizeStart()
	v.cursorLine = 0
	v.ComputeVisible()

	if v.cache.IsComplete() && v.lastDisplayedDoc == v.cache.NumDocs()-1 && v.lastDisplayedLine < v.mainLines-1 {
		// Ran off the end: realign to the end of file and pin the
		// cursor to the row where the old page boundary landed.
		emptyLines := v.mainLines - 1 - v.lastDisplayedLine
		v.JumpDown()
		v.cursorLine = emptyLines
		v.ComputeVisible()
		v.clampCursor()
	}
}

// normalizeStart restores 0 <= startLine < docLineCount(startDoc) after
// arithmetic that may have stepped exactly onto a document boundary.
func (v *Viewport) normalizeStart() {
	for v.docAvailable(v.startDoc) {
		n := v.docLineCount(v.startDoc)
		if v.startLine < n {
			return
		}
		if v.cache.IsComplete() && v.startDoc >= v.cache.NumDocs()-1 {
			v.startLine = n - 1
			return
		}
		v.startLine -= n
		v.startDoc++
	}
}

// SetMode switches the render mode. Horizontal scroll resets; keeping
// the cursor on the same document is best-effort.
func (v *Viewport) SetMode(m render.Mode) {
	if v.mode == m {
		return
	}
	oldCursorDoc := v.cursorDoc
	v.mode = m
	v.startCol = 0
	v.invalidateRenderings()
	v.ComputeVisible()
	v.restoreCursorDoc(oldCursorDoc)
}

// ToggleExtendedJSON flips between the strict and extended flavors.
func (v *Viewport) ToggleExtendedJSON() {
	if v.flavor == render.FlavorStrict {
		v.flavor = render.FlavorExtended
	} else {
		v.flavor = render.FlavorStrict
	}
	v.invalidateRenderings()
	v.ComputeVisible()
	v.clampCursor()
}

func (v *Viewport) invalidateRenderings() {
	v.renderMemo = make(map[int]string)
	if v.lastSearch != nil {
		v.lastSearch.ClearMemo()
	}
}

// restoreCursorDoc points the cursor at doc's first visible row if the
// document is still on screen; otherwise the cursor stays where it is.
func (v *Viewport) restoreCursorDoc(doc int) {
	for i, row := range v.plan {
		if row.Doc == doc {
			v.cursorLine = i
			v.deriveCursorDoc()
			return
		}
	}
	v.clampCursor()
}

// DocForLine maps a screen row to the document displayed there.
func (v *Viewport) DocForLine(line int) (int, bool) {
	if line < 0 || line >= len(v.plan) {
		return 0, false
	}
	return v.plan[line].Doc, true
}

// JumpToDoc scrolls or moves the cursor so document d is under it.
// Offscreen targets land near the one-quarter mark of the screen.
func (v *Viewport) JumpToDoc(d int) {
	if d < v.startDoc || (d == v.startDoc && v.startLine > 0) {
		v.jumpToDocOffscreen(d)
	} else if d > v.lastDisplayedDoc {
		v.jumpToDocOffscreen(d)
	} else {
		v.jumpToDocOnscreen(d)
	}
}

func (v *Viewport) jumpToDocOffscreen(d int) {
	v.startDoc = d
	v.startLine = 0
	v.cursorLine = 0

	targetLine := v.mainLines / 4
	if targetLine > 0 {
		for i := 0; i < targetLine; i++ {
			v.MoveUp()
		}
	} else {
		v.ComputeVisible()
	}
	v.clampCursor()
}

func (v *Viewport) jumpToDocOnscreen(d int) {
	line := -v.startLine
	for doc := v.startDoc; doc != d && doc < v.lastDisplayedDoc; doc++ {
		line += v.docLines[doc-v.startDoc]
	}
	if line < 0 {
		line = 0
	}
	v.cursorLine = line
	v.ComputeVisible()
	v.clampCursor()
}
