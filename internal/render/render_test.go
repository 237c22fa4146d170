package render

import (
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func mustRaw(t *testing.T, d interface{}) bson.Raw {
	t.Helper()
	b, err := bson.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bson.Raw(b)
}

func TestParseMode(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Mode
	}{
		{"oneline", ModeJSONOneline},
		{"pretty", ModeJSONPretty},
		{"tostring", ModeToString},
		{"logs", ModeTextLogs},
	} {
		got, err := ParseMode(tc.in)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseMode(%q) = %v, expected %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseMode("sideways"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestJSONOneline(t *testing.T) {
	doc := mustRaw(t, bson.D{{Key: "a", Value: 1}, {Key: "b", Value: "x"}})

	t.Run("strict flavor uses plain values", func(t *testing.T) {
		got := Render(doc, ModeJSONOneline, FlavorStrict)
		if got != `{"a":1,"b":"x"}` {
			t.Fatalf("unexpected rendering: %s", got)
		}
		if strings.Contains(got, "\n") {
			t.Fatalf("oneline rendering contains a newline: %q", got)
		}
	})

	t.Run("extended flavor preserves types", func(t *testing.T) {
		got := Render(doc, ModeJSONOneline, FlavorExtended)
		if !strings.Contains(got, `"$numberInt"`) {
			t.Fatalf("expected canonical form, got %s", got)
		}
	})
}

func TestJSONPretty(t *testing.T) {
	doc := mustRaw(t, bson.D{{Key: "a", Value: 1}, {Key: "b", Value: "x"}})
	got := Render(doc, ModeJSONPretty, FlavorStrict)

	lines := strings.Split(got, "\n")
	if len(lines) < 4 {
		t.Fatalf("expected one field per line, got %q", got)
	}
	// Indent width is one.
	for _, line := range lines[1 : len(lines)-1] {
		if !strings.HasPrefix(line, " ") || strings.HasPrefix(line, "  ") {
			t.Fatalf("expected single-space indent, got %q", line)
		}
	}
}

func TestToString(t *testing.T) {
	doc := mustRaw(t, bson.D{{Key: "a", Value: 1}, {Key: "b", Value: "x"}})
	got := Render(doc, ModeToString, FlavorStrict)

	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), got)
	}
	if !strings.HasPrefix(lines[0], "a: ") {
		t.Fatalf("expected first line for field a, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "b: ") {
		t.Fatalf("expected second line for field b, got %q", lines[1])
	}
}

func TestTextLogs(t *testing.T) {
	ts := time.Date(2019, 7, 2, 23, 34, 2, 0, time.UTC)

	t.Run("formats the five positional fields", func(t *testing.T) {
		doc := mustRaw(t, bson.D{
			{Key: "t", Value: ts},
			{Key: "s", Value: "info"},
			{Key: "c", Value: "NETWORK"},
			{Key: "ctx", Value: "conn42"},
			{Key: "msg", Value: "connection accepted\n"},
		})
		got := Render(doc, ModeTextLogs, FlavorStrict)
		want := "2019-07-02T23:34:02Z I NETWORK [conn42] connection accepted"
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})

	t.Run("expands leading tabs and stops after field five", func(t *testing.T) {
		doc := mustRaw(t, bson.D{
			{Key: "t", Value: ts},
			{Key: "s", Value: "debug"},
			{Key: "c", Value: "QUERY"},
			{Key: "ctx", Value: "conn1"},
			{Key: "msg", Value: "\t\tslow query"},
			{Key: "ignored", Value: "never rendered"},
		})
		got := Render(doc, ModeTextLogs, FlavorStrict)
		if !strings.HasSuffix(got, "                slow query") {
			t.Fatalf("expected tab expansion, got %q", got)
		}
		if strings.Contains(got, "never rendered") {
			t.Fatalf("expected rendering to stop after field five: %q", got)
		}
		if !strings.Contains(got, " D ") {
			t.Fatalf("expected upper-cased severity char, got %q", got)
		}
	})
}

func TestRenderNewlinesOnlyInsideStrings(t *testing.T) {
	doc := mustRaw(t, bson.D{{Key: "a", Value: "line1\nline2"}})
	got := Render(doc, ModeJSONOneline, FlavorStrict)
	// The JSON encoding escapes the newline, so the rendering itself
	// stays on a single line.
	if strings.Contains(got, "\n") {
		t.Fatalf("expected escaped newline, got %q", got)
	}
}
