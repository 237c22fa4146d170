// Package render turns BSON documents into display text. It is pure:
// the same (document, mode, flavor) always yields the same string, and
// callers memoize where that matters.
package render

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Mode selects the document rendering.
type Mode int

const (
	// ModeJSONOneline renders single-line JSON.
	ModeJSONOneline Mode = iota
	// ModeJSONPretty renders indented multi-line JSON, indent width one.
	ModeJSONPretty
	// ModeToString renders a diagnostic form, one line per top-level field.
	ModeToString
	// ModeTextLogs interprets the first five fields as a log line.
	ModeTextLogs
)

// Flavor selects the JSON dialect.
type Flavor int

const (
	// FlavorStrict is the plain dialect (relaxed extended JSON).
	FlavorStrict Flavor = iota
	// FlavorExtended preserves binary/date/regex types (canonical
	// extended JSON).
	FlavorExtended
)

// ParseMode maps a config/flag string onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "oneline":
		return ModeJSONOneline, nil
	case "pretty":
		return ModeJSONPretty, nil
	case "tostring":
		return ModeToString, nil
	case "logs":
		return ModeTextLogs, nil
	}
	return 0, fmt.Errorf("unknown render mode %q", s)
}

// Render maps a document to its display string.
func Render(doc bson.Raw, mode Mode, flavor Flavor) string {
	switch mode {
	case ModeJSONOneline:
		return jsonOneline(doc, flavor)
	case ModeJSONPretty:
		return jsonPretty(doc, flavor)
	case ModeToString:
		return toString(doc)
	case ModeTextLogs:
		return textLogs(doc)
	}
	return "--- unknown render mode ---"
}

func renderError(err error) string {
	return fmt.Sprintf("--- render error: %v ---", err)
}

func jsonOneline(doc bson.Raw, flavor Flavor) string {
	out, err := bson.MarshalExtJSON(doc, flavor == FlavorExtended, false)
	if err != nil {
		return renderError(err)
	}
	return string(out)
}

func jsonPretty(doc bson.Raw, flavor Flavor) string {
	out, err := bson.MarshalExtJSONIndent(doc, flavor == FlavorExtended, false, "", " ")
	if err != nil {
		return renderError(err)
	}
	return string(out)
}

// toString renders one "name: value" line per top-level field.
func toString(doc bson.Raw) string {
	elems, err := doc.Elements()
	if err != nil {
		return renderError(err)
	}
	var sb strings.Builder
	for i, elem := range elems {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s: %s", elem.Key(), elem.Value().String())
	}
	return sb.String()
}

// textLogs interprets the first five top-level fields positionally as
// [date, severity-char, component, context, message], the layout of
// pre-4.4 mongod text log lines captured as BSON.
func textLogs(doc bson.Raw) string {
	elems, err := doc.Elements()
	if err != nil {
		return renderError(err)
	}
	var sb strings.Builder
	for i, elem := range elems {
		v := elem.Value()
		switch i {
		case 0:
			sb.WriteString(logDate(v))
		case 1:
			s := stringOr(v)
			if s == "" {
				s = "?"
			}
			sb.WriteByte(' ')
			sb.WriteString(strings.ToUpper(s[:1]))
		case 2:
			sb.WriteByte(' ')
			sb.WriteString(stringOr(v))
		case 3:
			fmt.Fprintf(&sb, " [%s]", stringOr(v))
		case 4:
			msg := strings.TrimRight(stringOr(v), "\n")
			tabs := len(msg) - len(strings.TrimLeft(msg, "\t"))
			msg = strings.Repeat(" ", 8*tabs) + msg[tabs:]
			sb.WriteByte(' ')
			sb.WriteString(msg)
		}
		if i == 4 {
			break
		}
	}
	return sb.String()
}

func logDate(v bson.RawValue) string {
	if v.Type == bsontype.DateTime {
		return v.Time().UTC().Format(time.RFC3339Nano)
	}
	return stringOr(v)
}

// stringOr returns the value as a plain string where it is one, and its
// extended JSON rendering otherwise.
func stringOr(v bson.RawValue) string {
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	return v.String()
}
