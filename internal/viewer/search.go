package viewer

import (
	"github.com/devkev/bsonview/internal/search"
)

// RegisterSearch replaces the retained search.
func (v *Viewport) RegisterSearch(s *search.Search) {
	v.lastSearch = s
}

// LastSearch returns the retained search, or nil.
func (v *Viewport) LastSearch() *search.Search {
	return v.lastSearch
}

// DocMatches evaluates the retained search against document i.
func (v *Viewport) DocMatches(i int) bool {
	if v.lastSearch == nil {
		return false
	}
	doc, err := v.cache.Index(i)
	if err != nil {
		return false
	}
	return v.lastSearch.Matches(i, doc, func() string { return v.RenderDoc(i) })
}

// SearchFor scans forward from the document after the cursor and
// returns the first match among the documents loaded so far. No wrap.
func (v *Viewport) SearchFor(s *search.Search) (int, bool) {
	for curr := v.cursorDoc + 1; curr < v.cache.NumDocs(); curr++ {
		doc, err := v.cache.Index(curr)
		if err != nil {
			return 0, false
		}
		i := curr
		if s.Matches(i, doc, func() string { return v.RenderDoc(i) }) {
			return curr, true
		}
	}
	return 0, false
}
