package viewer

import "sort"

// MarkSet is an ordered set of document indices with the successor and
// predecessor queries wrap-around navigation needs.
type MarkSet struct {
	docs []int
}

// Len returns the number of marked documents.
func (m *MarkSet) Len() int { return len(m.docs) }

func (m *MarkSet) search(doc int) int {
	return sort.SearchInts(m.docs, doc)
}

// Contains reports whether doc is marked.
func (m *MarkSet) Contains(doc int) bool {
	i := m.search(doc)
	return i < len(m.docs) && m.docs[i] == doc
}

// Insert marks doc.
func (m *MarkSet) Insert(doc int) {
	i := m.search(doc)
	if i < len(m.docs) && m.docs[i] == doc {
		return
	}
	m.docs = append(m.docs, 0)
	copy(m.docs[i+1:], m.docs[i:])
	m.docs[i] = doc
}

// Erase unmarks doc.
func (m *MarkSet) Erase(doc int) {
	i := m.search(doc)
	if i < len(m.docs) && m.docs[i] == doc {
		m.docs = append(m.docs[:i], m.docs[i+1:]...)
	}
}

// Next returns the strict successor of doc, wrapping to the front.
func (m *MarkSet) Next(doc int) (int, bool) {
	if len(m.docs) == 0 {
		return 0, false
	}
	i := m.search(doc + 1)
	if i < len(m.docs) {
		return m.docs[i], true
	}
	return m.docs[0], true
}

// Prev returns the strict predecessor of doc, wrapping to the back.
func (m *MarkSet) Prev(doc int) (int, bool) {
	if len(m.docs) == 0 {
		return 0, false
	}
	i := m.search(doc)
	if i == 0 {
		return m.docs[len(m.docs)-1], true
	}
	return m.docs[i-1], true
}

// IsMarked reports whether doc paints as marked: during a drag the
// drag range answers with the drag's fixed polarity, everything else
// falls through to the persistent set.
func (v *Viewport) IsMarked(doc int) bool {
	if v.dragActive {
		lo, hi := v.dragFirst, v.dragLast
		if lo > hi {
			lo, hi = hi, lo
		}
		if lo <= doc && doc <= hi {
			return v.dragMarking
		}
	}
	return v.marks.Contains(doc)
}

// MarkDoc marks doc.
func (v *Viewport) MarkDoc(doc int) { v.marks.Insert(doc) }

// UnmarkDoc unmarks doc.
func (v *Viewport) UnmarkDoc(doc int) { v.marks.Erase(doc) }

// ToggleMarkDoc flips doc's mark.
func (v *Viewport) ToggleMarkDoc(doc int) {
	if v.IsMarked(doc) {
		v.UnmarkDoc(doc)
	} else {
		v.MarkDoc(doc)
	}
}

// ToggleMarkCursorDoc flips the mark of the document under the cursor.
func (v *Viewport) ToggleMarkCursorDoc() {
	v.ToggleMarkDoc(v.cursorDoc)
}

// NextMarkedDoc returns the marked document after doc, wrapping.
func (v *Viewport) NextMarkedDoc(doc int) (int, bool) { return v.marks.Next(doc) }

// PrevMarkedDoc returns the marked document before doc, wrapping.
func (v *Viewport) PrevMarkedDoc(doc int) (int, bool) { return v.marks.Prev(doc) }

// JumpNextMarkedDoc jumps to the next marked document, if any.
func (v *Viewport) JumpNextMarkedDoc() {
	if target, ok := v.marks.Next(v.cursorDoc); ok {
		v.JumpToDoc(target)
	}
}

// JumpPrevMarkedDoc jumps to the previous marked document, if any.
func (v *Viewport) JumpPrevMarkedDoc() {
	if target, ok := v.marks.Prev(v.cursorDoc); ok {
		v.JumpToDoc(target)
	}
}

// DragStart begins a drag-mark at doc. The polarity is fixed here:
// dragging from an unmarked document selects, from a marked one
// deselects.
func (v *Viewport) DragStart(doc int) {
	v.dragMarking = !v.IsMarked(doc)
	v.dragActive = true
	v.dragFirst = doc
	v.dragLast = doc
}

// DragUpdate extends the drag to doc.
func (v *Viewport) DragUpdate(doc int) {
	if v.dragActive {
		v.dragLast = doc
	}
}

// DragEnd commits the drag range to the persistent set.
func (v *Viewport) DragEnd(doc int) {
	if !v.dragActive {
		return
	}
	v.dragLast = doc

	lo, hi := v.dragFirst, v.dragLast
	if lo > hi {
		lo, hi = hi, lo
	}
	for d := lo; d <= hi; d++ {
		if v.dragMarking {
			v.MarkDoc(d)
		} else {
			v.UnmarkDoc(d)
		}
	}
	v.dragActive = false
}

// DragStartLine / DragUpdateLine / DragEndLine bind the drag state
// machine to screen rows.
func (v *Viewport) DragStartLine(line int) {
	if doc, ok := v.DocForLine(line); ok {
		v.DragStart(doc)
	}
}

func (v *Viewport) DragUpdateLine(line int) {
	if doc, ok := v.DocForLine(line); ok {
		v.DragUpdate(doc)
	}
}

func (v *Viewport) DragEndLine(line int) {
	if doc, ok := v.DocForLine(line); ok {
		v.DragEnd(doc)
	} else if v.dragActive {
		v.DragEnd(v.dragLast)
	}
}
