// Package search implements the two search forms of the viewer: a
// literal substring scan over rendered document text, and a structured
// query-document predicate evaluated against the BSON itself.
package search

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Kind tags the search variant.
type Kind int

const (
	// KindLiteral matches rendered text by substring.
	KindLiteral Kind = iota
	// KindStructured matches documents against a query document.
	KindStructured
)

// Search is one retained search. Input starting with '{' is parsed as a
// query document; anything else is a literal.
type Search struct {
	Text  string
	Kind  Kind
	valid bool
	query *Query

	// memo caches per-document verdicts so that painting a frame does
	// not re-run the predicate for every visible row. Cleared by the
	// owner whenever the rendered form changes (render mode or flavor).
	memo map[int]bool
}

// New classifies and builds a search from the prompt text.
func New(text string) *Search {
	s := &Search{Text: text, memo: make(map[int]bool)}
	if strings.HasPrefix(text, "{") {
		s.Kind = KindStructured
		q, err := ParseQuery(text)
		if err == nil {
			s.query = q
			s.valid = true
		}
		return s
	}
	s.Kind = KindLiteral
	s.valid = text != ""
	return s
}

// IsValid reports whether the search can produce matches: non-empty
// text for a literal, a parseable query document for a structured.
func (s *Search) IsValid() bool {
	return s.valid
}

// Matches evaluates the search against document i. rendered is called
// only for literal searches, and only on a memo miss.
func (s *Search) Matches(i int, doc bson.Raw, rendered func() string) bool {
	if !s.valid {
		return false
	}
	if v, ok := s.memo[i]; ok {
		return v
	}
	var v bool
	switch s.Kind {
	case KindLiteral:
		v = strings.Contains(rendered(), s.Text)
	case KindStructured:
		v = s.query.Matches(doc)
	}
	s.memo[i] = v
	return v
}

// ClearMemo drops cached verdicts. Required after a render mode or
// flavor switch, since literal searches run over the rendered form.
func (s *Search) ClearMemo() {
	s.memo = make(map[int]bool)
}
