package viewer

import (
	"fmt"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/devkev/bsonview/internal/bsonfile"
	"github.com/devkev/bsonview/internal/render"
)

// testCache builds a cache over marshalled documents.
func testCache(t *testing.T, docs ...interface{}) *bsonfile.DocumentCache {
	t.Helper()
	var buf []byte
	for _, d := range docs {
		b, err := bson.Marshal(d)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		buf = append(buf, b...)
	}
	c, err := bsonfile.NewCache(buf)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return c
}

// flatDocs returns n one-line documents {"i":<i>}.
func flatDocs(n int) []interface{} {
	docs := make([]interface{}, n)
	for i := 0; i < n; i++ {
		docs[i] = bson.D{{Key: "i", Value: i}}
	}
	return docs
}

// tallDocs returns n documents with fields fields each; in tostring
// mode every document renders as that many sub-lines.
func tallDocs(n, fields int) []interface{} {
	docs := make([]interface{}, n)
	for i := 0; i < n; i++ {
		var d bson.D
		for f := 0; f < fields; f++ {
			d = append(d, bson.E{Key: fmt.Sprintf("f%d_%d", i, f), Value: f})
		}
		docs[i] = d
	}
	return docs
}

// tallViewport is a fully loaded tostring-mode viewport: n docs of
// `fields` sub-lines each, on a lines x cols screen.
func tallViewport(t *testing.T, n, fields, lines, cols int) *Viewport {
	t.Helper()
	c := testCache(t, tallDocs(n, fields)...)
	if err := c.LoadAll(nil); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	v := NewViewport(c, render.ModeToString, render.FlavorStrict)
	v.SetSize(lines, cols)
	return v
}

func checkInvariants(t *testing.T, v *Viewport) {
	t.Helper()
	if v.Err() != nil {
		t.Fatalf("viewport error: %v", v.Err())
	}
	if len(v.plan) == 0 {
		return
	}
	if v.startLine < 0 || v.startLine >= v.docLines[0] {
		t.Fatalf("start line %d outside [0, %d)", v.startLine, v.docLines[0])
	}
	if v.cursorLine < 0 || v.cursorLine > v.lastDisplayedLine {
		t.Fatalf("cursor line %d outside [0, %d]", v.cursorLine, v.lastDisplayedLine)
	}
	if v.lastDisplayedLine > v.mainLines-1 {
		t.Fatalf("last displayed line %d beyond screen %d", v.lastDisplayedLine, v.mainLines-1)
	}
	if v.plan[v.cursorLine].Doc != v.cursorDoc {
		t.Fatalf("cursor doc %d does not own row %d (doc %d)", v.cursorDoc, v.cursorLine, v.plan[v.cursorLine].Doc)
	}
	if v.startCol < 0 || v.startCol > v.longestLineStartCol {
		t.Fatalf("start col %d outside [0, %d]", v.startCol, v.longestLineStartCol)
	}
}

func TestComputeVisible(t *testing.T) {
	t.Run("one-line documents", func(t *testing.T) {
		c := testCache(t, flatDocs(5)...)
		v := NewViewport(c, render.ModeJSONOneline, render.FlavorStrict)
		v.SetSize(10, 80)

		if v.LastDisplayedDoc() != 4 || v.LastDisplayedLine() != 4 {
			t.Fatalf("expected docs 0-4 on lines 0-4, got doc %d line %d", v.LastDisplayedDoc(), v.LastDisplayedLine())
		}
		for i, row := range v.Plan() {
			if row.Doc != i {
				t.Fatalf("row %d shows doc %d", i, row.Doc)
			}
		}
		checkInvariants(t, v)
	})

	t.Run("multi-line documents clip at the bottom", func(t *testing.T) {
		v := tallViewport(t, 5, 3, 7, 80)

		if v.LastDisplayedDoc() != 2 {
			t.Fatalf("expected doc 2 last, got %d", v.LastDisplayedDoc())
		}
		if v.LastDisplayedLine() != 6 {
			t.Fatalf("expected full screen, got last line %d", v.LastDisplayedLine())
		}
		want := []int{3, 3, 1}
		for i, n := range want {
			if v.docLines[i] != n {
				t.Fatalf("docLines = %v, expected %v", v.docLines, want)
			}
		}
		checkInvariants(t, v)
	})

	t.Run("content smaller than the screen", func(t *testing.T) {
		c := testCache(t, flatDocs(3)...)
		v := NewViewport(c, render.ModeJSONOneline, render.FlavorStrict)
		v.SetSize(10, 80)

		if v.LastDisplayedLine() != 2 {
			t.Fatalf("expected 3 rows, got last line %d", v.LastDisplayedLine())
		}
		if !c.IsComplete() {
			t.Fatalf("filling the screen should have forced full load")
		}
		checkInvariants(t, v)
	})
}

func TestHorizontalScroll(t *testing.T) {
	c := testCache(t,
		bson.D{{Key: "msg", Value: strings.Repeat("x", 100)}},
		bson.D{{Key: "m", Value: "short"}},
	)
	v := NewViewport(c, render.ModeJSONOneline, render.FlavorStrict)
	v.SetSize(10, 40)

	if v.LongestLineStartCol() <= 0 {
		t.Fatalf("expected horizontal overflow, got %d", v.LongestLineStartCol())
	}

	t.Run("move and jump clamp to the bound", func(t *testing.T) {
		v.MoveRight()
		if v.StartCol() != 1 {
			t.Fatalf("expected start col 1, got %d", v.StartCol())
		}
		v.JumpRight()
		if v.StartCol() != v.LongestLineStartCol() {
			t.Fatalf("expected start col %d, got %d", v.LongestLineStartCol(), v.StartCol())
		}
		v.MoveRight()
		if v.StartCol() != v.LongestLineStartCol() {
			t.Fatalf("move right at the bound must be a no-op")
		}
		v.JumpRight() // idempotent
		if v.StartCol() != v.LongestLineStartCol() {
			t.Fatalf("jump right must be idempotent")
		}
		v.JumpLeft()
		v.JumpLeft()
		if v.StartCol() != 0 {
			t.Fatalf("expected start col 0, got %d", v.StartCol())
		}
		v.MoveLeft()
		if v.StartCol() != 0 {
			t.Fatalf("move left at zero must be a no-op")
		}
		checkInvariants(t, v)
	})
}

func TestCursorMotion(t *testing.T) {
	v := tallViewport(t, 10, 3, 9, 80)

	t.Run("cursor rows", func(t *testing.T) {
		v.CursorBottom()
		if v.CursorLine() != 8 {
			t.Fatalf("expected cursor at 8, got %d", v.CursorLine())
		}
		v.CursorBottom()
		if v.CursorLine() != 8 {
			t.Fatalf("cursor bottom must be idempotent")
		}
		v.CursorMiddle()
		if v.CursorLine() != 4 {
			t.Fatalf("expected cursor at 4, got %d", v.CursorLine())
		}
		v.CursorTop()
		if v.CursorLine() != 0 {
			t.Fatalf("expected cursor at 0, got %d", v.CursorLine())
		}
		checkInvariants(t, v)
	})

	t.Run("cursor up and down stay on screen", func(t *testing.T) {
		v.CursorTop()
		v.CursorUp()
		if v.CursorLine() != 0 {
			t.Fatalf("cursor up at top must not move")
		}
		v.CursorDown()
		if v.CursorLine() != 1 {
			t.Fatalf("expected cursor at 1, got %d", v.CursorLine())
		}
		if v.CursorDoc() != 0 {
			t.Fatalf("row 1 belongs to doc 0, cursor doc is %d", v.CursorDoc())
		}
		checkInvariants(t, v)
	})

	t.Run("move cursor down scrolls at the bottom edge", func(t *testing.T) {
		v.JumpUp()
		for i := 0; i < 8; i++ {
			v.MoveCursorDown()
		}
		if v.CursorLine() != 8 || v.StartDoc() != 0 || v.StartLine() != 0 {
			t.Fatalf("expected cursor walk without scroll, got line %d start %d/%d", v.CursorLine(), v.StartDoc(), v.StartLine())
		}
		v.MoveCursorDown()
		if v.StartDoc() != 0 || v.StartLine() != 1 {
			t.Fatalf("expected scroll by one sub-line, got start %d/%d", v.StartDoc(), v.StartLine())
		}
		if v.CursorLine() != 8 {
			t.Fatalf("cursor must stay at the bottom edge, got %d", v.CursorLine())
		}
		checkInvariants(t, v)
	})
}

func TestMoveUpDown(t *testing.T) {
	t.Run("round trip restores the start position", func(t *testing.T) {
		v := tallViewport(t, 10, 3, 9, 80)
		v.MoveDown()
		v.MoveDown()
		startDoc, startLine := v.StartDoc(), v.StartLine()

		v.MoveDown()
		v.MoveUp()
		if v.StartDoc() != startDoc || v.StartLine() != startLine {
			t.Fatalf("round trip moved start from %d/%d to %d/%d", startDoc, startLine, v.StartDoc(), v.StartLine())
		}
		checkInvariants(t, v)
	})

	t.Run("crosses document boundaries", func(t *testing.T) {
		v := tallViewport(t, 10, 3, 9, 80)
		v.MoveDown()
		v.MoveDown()
		if v.StartDoc() != 0 || v.StartLine() != 2 {
			t.Fatalf("expected start 0/2, got %d/%d", v.StartDoc(), v.StartLine())
		}
		v.MoveDown()
		if v.StartDoc() != 1 || v.StartLine() != 0 {
			t.Fatalf("expected start 1/0, got %d/%d", v.StartDoc(), v.StartLine())
		}
		v.MoveUp()
		if v.StartDoc() != 0 || v.StartLine() != 2 {
			t.Fatalf("expected start 0/2 again, got %d/%d", v.StartDoc(), v.StartLine())
		}
		checkInvariants(t, v)
	})

	t.Run("move up at the top is a no-op", func(t *testing.T) {
		v := tallViewport(t, 10, 3, 9, 80)
		v.MoveUp()
		if v.StartDoc() != 0 || v.StartLine() != 0 {
			t.Fatalf("expected start 0/0, got %d/%d", v.StartDoc(), v.StartLine())
		}
	})
}

func TestMovePrevNextDoc(t *testing.T) {
	v := tallViewport(t, 10, 3, 9, 80)

	v.MoveNextDoc()
	if v.StartDoc() != 1 || v.StartLine() != 0 {
		t.Fatalf("expected start 1/0, got %d/%d", v.StartDoc(), v.StartLine())
	}
	v.MovePrevDoc()
	if v.StartDoc() != 0 {
		t.Fatalf("expected start 0, got %d", v.StartDoc())
	}
	v.MovePrevDoc()
	if v.StartDoc() != 0 {
		t.Fatalf("prev doc at the top must be a no-op")
	}
	checkInvariants(t, v)
}

func TestJumpUpDown(t *testing.T) {
	t.Run("jump up is idempotent", func(t *testing.T) {
		v := tallViewport(t, 10, 3, 9, 80)
		v.MoveDown()
		v.MoveDown()
		v.CursorBottom()

		v.JumpUp()
		if v.StartDoc() != 0 || v.StartLine() != 0 || v.CursorLine() != 0 {
			t.Fatalf("expected top of file, got %d/%d cursor %d", v.StartDoc(), v.StartLine(), v.CursorLine())
		}
		v.JumpUp()
		if v.StartDoc() != 0 || v.StartLine() != 0 || v.CursorLine() != 0 {
			t.Fatalf("jump up must be idempotent")
		}
		checkInvariants(t, v)
	})

	t.Run("jump down lands the last line on the bottom row", func(t *testing.T) {
		v := tallViewport(t, 10, 3, 9, 80)
		v.JumpDown()

		if v.LastDisplayedDoc() != 9 {
			t.Fatalf("expected last doc displayed, got %d", v.LastDisplayedDoc())
		}
		if v.LastDisplayedLine() != 8 {
			t.Fatalf("expected full screen, got %d", v.LastDisplayedLine())
		}
		if v.CursorLine() != 8 {
			t.Fatalf("expected cursor at the bottom, got %d", v.CursorLine())
		}
		last := v.Plan()[8]
		if last.Doc != 9 {
			t.Fatalf("bottom row shows doc %d", last.Doc)
		}
		startDoc, startLine := v.StartDoc(), v.StartLine()
		v.JumpDown()
		if v.StartDoc() != startDoc || v.StartLine() != startLine {
			t.Fatalf("jump down must be idempotent")
		}
		checkInvariants(t, v)
	})

	t.Run("jump down while loading defers", func(t *testing.T) {
		c := testCache(t, tallDocs(50, 3)...)
		v := NewViewport(c, render.ModeToString, render.FlavorStrict)
		v.SetSize(9, 80)

		startDoc, startLine := v.StartDoc(), v.StartLine()
		v.JumpDown()
		if !v.JumpToEndAfterLoad() {
			t.Fatalf("expected deferred jump flag")
		}
		if v.StartDoc() != startDoc || v.StartLine() != startLine {
			t.Fatalf("viewport must not move before the load completes")
		}

		if err := c.LoadAll(nil); err != nil {
			t.Fatalf("LoadAll: %v", err)
		}
		v.JumpDown()
		if v.JumpToEndAfterLoad() {
			t.Fatalf("expected flag cleared")
		}
		if v.LastDisplayedDoc() != 49 || v.CursorLine() != 8 {
			t.Fatalf("expected end of file, got doc %d cursor %d", v.LastDisplayedDoc(), v.CursorLine())
		}
		checkInvariants(t, v)
	})
}

func TestPaging(t *testing.T) {
	t.Run("page down makes the boundary doc the new start", func(t *testing.T) {
		v := tallViewport(t, 20, 3, 10, 80)
		oldLast := v.LastDisplayedDoc()

		v.PageDown()
		if v.StartDoc() != oldLast {
			t.Fatalf("expected start doc %d, got %d", oldLast, v.StartDoc())
		}
		checkInvariants(t, v)
	})

	t.Run("page up makes the old start the last displayed doc", func(t *testing.T) {
		v := tallViewport(t, 20, 3, 10, 80)
		v.PageDown()
		v.PageDown()
		oldStart := v.StartDoc()

		v.PageUp()
		if v.LastDisplayedDoc() != oldStart {
			t.Fatalf("expected last displayed doc %d, got %d", oldStart, v.LastDisplayedDoc())
		}
		checkInvariants(t, v)
	})

	t.Run("page up crashing into the top compensates the cursor", func(t *testing.T) {
		v := tallViewport(t, 20, 3, 10, 80)
		v.MoveDown()
		v.MoveDown()
		v.MoveDown()
		v.MoveDown() // start 1/1, four sub-lines from the top
		if v.StartDoc() != 1 || v.StartLine() != 1 {
			t.Fatalf("setup: expected start 1/1, got %d/%d", v.StartDoc(), v.StartLine())
		}
		v.CursorTop()

		v.PageUp()
		if v.StartDoc() != 0 || v.StartLine() != 0 {
			t.Fatalf("expected top of file, got %d/%d", v.StartDoc(), v.StartLine())
		}
		if v.CursorLine() != 4 {
			t.Fatalf("expected cursor compensated to row 4, got %d", v.CursorLine())
		}
		checkInvariants(t, v)
	})

	t.Run("page up at the very top parks the cursor", func(t *testing.T) {
		v := tallViewport(t, 20, 3, 10, 80)
		v.CursorBottom()
		v.PageUp()
		if v.StartDoc() != 0 || v.StartLine() != 0 || v.CursorLine() != 0 {
			t.Fatalf("expected cursor at top, got start %d/%d cursor %d", v.StartDoc(), v.StartLine(), v.CursorLine())
		}
	})

	t.Run("page down running off the end realigns and pins the cursor", func(t *testing.T) {
		// 4 docs x 3 sub-lines on a 10-row screen: paging down from the
		// top overshoots by 8 rows, so the viewport realigns to the end
		// of the file and the cursor lands on the old page boundary.
		v := tallViewport(t, 4, 3, 10, 80)
		v.PageDown()
		if v.LastDisplayedDoc() != 3 || v.LastDisplayedLine() != 9 {
			t.Fatalf("expected end-of-file alignment, got doc %d line %d", v.LastDisplayedDoc(), v.LastDisplayedLine())
		}
		if v.CursorLine() != 8 {
			t.Fatalf("expected cursor pinned to row 8, got %d", v.CursorLine())
		}
		checkInvariants(t, v)
	})
}

func TestJumpToDoc(t *testing.T) {
	t.Run("onscreen target moves only the cursor", func(t *testing.T) {
		v := tallViewport(t, 10, 3, 9, 80)
		startDoc, startLine := v.StartDoc(), v.StartLine()

		v.JumpToDoc(2)
		if v.StartDoc() != startDoc || v.StartLine() != startLine {
			t.Fatalf("viewport must not move for an onscreen target")
		}
		if v.CursorDoc() != 2 {
			t.Fatalf("expected cursor on doc 2, got %d", v.CursorDoc())
		}
		if v.CursorLine() != 6 {
			t.Fatalf("expected cursor on row 6, got %d", v.CursorLine())
		}
		checkInvariants(t, v)
	})

	t.Run("clipped first doc clamps the cursor to the top row", func(t *testing.T) {
		v := tallViewport(t, 10, 3, 9, 80)
		v.MoveDown() // start 0/1: doc 0 partially clipped
		v.CursorBottom()

		v.JumpToDoc(1)
		if v.CursorDoc() != 1 {
			t.Fatalf("expected cursor on doc 1, got %d", v.CursorDoc())
		}
		checkInvariants(t, v)
	})

	t.Run("offscreen forward target lands near the quarter mark", func(t *testing.T) {
		v := tallViewport(t, 40, 3, 16, 80)
		v.JumpToDoc(20)
		if v.CursorDoc() != 20 {
			t.Fatalf("expected cursor on doc 20, got %d", v.CursorDoc())
		}
		if v.CursorLine() != v.mainLines/4 {
			t.Fatalf("expected cursor near the quarter mark (%d), got %d", v.mainLines/4, v.CursorLine())
		}
		checkInvariants(t, v)
	})

	t.Run("offscreen backward target", func(t *testing.T) {
		v := tallViewport(t, 40, 3, 16, 80)
		v.JumpToDoc(30)
		v.JumpToDoc(5)
		if v.CursorDoc() != 5 {
			t.Fatalf("expected cursor on doc 5, got %d", v.CursorDoc())
		}
		checkInvariants(t, v)
	})
}

func TestSetModeAndFlavor(t *testing.T) {
	c := testCache(t,
		bson.D{{Key: "msg", Value: strings.Repeat("y", 120)}},
		bson.D{{Key: "a", Value: 1}, {Key: "b", Value: 2}},
	)
	v := NewViewport(c, render.ModeJSONOneline, render.FlavorStrict)
	v.SetSize(10, 40)

	t.Run("mode switch resets horizontal scroll and reflows", func(t *testing.T) {
		v.JumpRight()
		if v.StartCol() == 0 {
			t.Fatalf("setup: expected scrolled viewport")
		}
		oneLineCount := v.docLineCount(1)

		v.SetMode(render.ModeToString)
		if v.StartCol() != 0 {
			t.Fatalf("expected start col reset, got %d", v.StartCol())
		}
		if got := v.docLineCount(1); got <= oneLineCount {
			t.Fatalf("expected doc 1 to grow from %d lines, got %d", oneLineCount, got)
		}
		checkInvariants(t, v)
	})

	t.Run("mode switch keeps the cursor doc when still visible", func(t *testing.T) {
		v.SetMode(render.ModeJSONOneline)
		v.JumpToDoc(1)
		if v.CursorDoc() != 1 {
			t.Fatalf("setup: cursor on doc %d", v.CursorDoc())
		}
		v.SetMode(render.ModeJSONPretty)
		if v.CursorDoc() != 1 {
			t.Fatalf("expected cursor still on doc 1, got %d", v.CursorDoc())
		}
		checkInvariants(t, v)
	})

	t.Run("flavor toggle flips and reflows", func(t *testing.T) {
		v.SetMode(render.ModeJSONOneline)
		before := v.RenderDoc(1)
		v.ToggleExtendedJSON()
		if v.Flavor() != render.FlavorExtended {
			t.Fatalf("expected extended flavor")
		}
		after := v.RenderDoc(1)
		if before == after {
			t.Fatalf("expected different rendering, got %q twice", before)
		}
		v.ToggleExtendedJSON()
		if v.Flavor() != render.FlavorStrict {
			t.Fatalf("expected strict flavor again")
		}
		checkInvariants(t, v)
	})
}

func TestOperationsPreserveInvariants(t *testing.T) {
	// Exercise every motion operation on an irregular corpus and check
	// the viewport invariants after each step.
	var docs []interface{}
	for i := 0; i < 30; i++ {
		docs = append(docs, tallDocs(1, 1+i%5)...)
	}
	c := testCache(t, docs...)
	if err := c.LoadAll(nil); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	v := NewViewport(c, render.ModeToString, render.FlavorStrict)
	v.SetSize(11, 30)

	ops := []struct {
		name string
		op   func()
	}{
		{"MoveDown", v.MoveDown},
		{"MoveDown", v.MoveDown},
		{"CursorBottom", v.CursorBottom},
		{"PageDown", v.PageDown},
		{"MoveCursorDown", v.MoveCursorDown},
		{"MoveCursorUp", v.MoveCursorUp},
		{"PageDown", v.PageDown},
		{"PageUp", v.PageUp},
		{"MoveUp", v.MoveUp},
		{"CursorMiddle", v.CursorMiddle},
		{"MoveNextDoc", v.MoveNextDoc},
		{"JumpDown", v.JumpDown},
		{"PageUp", v.PageUp},
		{"MovePrevDoc", v.MovePrevDoc},
		{"JumpUp", v.JumpUp},
		{"PageUp", v.PageUp},
		{"JumpRight", v.JumpRight},
		{"MoveLeft", v.MoveLeft},
		{"JumpLeft", v.JumpLeft},
	}
	for i, step := range ops {
		step.op()
		if t.Failed() {
			break
		}
		t.Run(fmt.Sprintf("%02d-%s", i, step.name), func(t *testing.T) {
			checkInvariants(t, v)
		})
	}
}
