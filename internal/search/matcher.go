package search

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Query is a parsed query document. It evaluates the match-expression
// subset a viewer needs: field equality (structural for embedded
// documents), dotted paths, comparison and set operators, and the
// logical connectives.
type Query struct {
	root bson.Raw
}

// ParseQuery parses an extended-JSON query document.
func ParseQuery(text string) (*Query, error) {
	var root bson.Raw
	if err := bson.UnmarshalExtJSON([]byte(text), false, &root); err != nil {
		return nil, fmt.Errorf("cannot parse query: %w", err)
	}
	q := &Query{root: root}
	if err := q.validate(root); err != nil {
		return nil, err
	}
	return q, nil
}

// validate walks the query once at parse time so that malformed
// operator usage surfaces as "Invalid search pattern" rather than as a
// silent non-match during the scan.
func (q *Query) validate(node bson.Raw) error {
	elems, err := node.Elements()
	if err != nil {
		return err
	}
	for _, elem := range elems {
		key := elem.Key()
		v := elem.Value()
		switch key {
		case "$and", "$or", "$nor":
			arr, ok := v.ArrayOK()
			if !ok {
				return fmt.Errorf("%s needs an array", key)
			}
			vals, err := arr.Values()
			if err != nil {
				return err
			}
			if len(vals) == 0 {
				return fmt.Errorf("%s needs a nonempty array", key)
			}
			for _, av := range vals {
				sub, ok := av.DocumentOK()
				if !ok {
					return fmt.Errorf("%s elements must be documents", key)
				}
				if err := q.validate(sub); err != nil {
					return err
				}
			}
		default:
			if strings.HasPrefix(key, "$") {
				return fmt.Errorf("unknown top-level operator %s", key)
			}
			if ops, ok := operatorDoc(v); ok {
				if err := validateOps(ops); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validateOps(ops bson.Raw) error {
	elems, err := ops.Elements()
	if err != nil {
		return err
	}
	for _, elem := range elems {
		op := elem.Key()
		v := elem.Value()
		switch op {
		case "$eq", "$ne", "$gt", "$gte", "$lt", "$lte":
		case "$in", "$nin":
			if _, ok := v.ArrayOK(); !ok {
				return fmt.Errorf("%s needs an array", op)
			}
		case "$exists":
		case "$size":
			if !isNumeric(v.Type) {
				return fmt.Errorf("$size needs a number")
			}
		case "$type":
			if _, err := wantedType(v); err != nil {
				return err
			}
		case "$regex":
			pat, ok := v.StringValueOK()
			if !ok {
				return fmt.Errorf("$regex needs a string")
			}
			if _, err := regexp.Compile(pat); err != nil {
				return fmt.Errorf("bad $regex: %w", err)
			}
		case "$options":
		case "$not":
			if sub, ok := v.DocumentOK(); ok {
				return validateOps(sub)
			}
			return fmt.Errorf("$not needs an operator document")
		default:
			return fmt.Errorf("unknown operator %s", op)
		}
	}
	return nil
}

// Matches evaluates the query against doc.
func (q *Query) Matches(doc bson.Raw) bool {
	return matchNode(q.root, doc)
}

func matchNode(node bson.Raw, doc bson.Raw) bool {
	elems, err := node.Elements()
	if err != nil {
		return false
	}
	for _, elem := range elems {
		key := elem.Key()
		v := elem.Value()
		switch key {
		case "$and":
			if !matchAll(v, doc, true) {
				return false
			}
		case "$or":
			if !matchAny(v, doc) {
				return false
			}
		case "$nor":
			if matchAny(v, doc) {
				return false
			}
		default:
			if !matchPath(doc, strings.Split(key, "."), v) {
				return false
			}
		}
	}
	return true
}

func matchAll(arr bson.RawValue, doc bson.Raw, want bool) bool {
	a, ok := arr.ArrayOK()
	if !ok {
		return false
	}
	vals, err := a.Values()
	if err != nil {
		return false
	}
	for _, av := range vals {
		sub, ok := av.DocumentOK()
		if !ok || matchNode(sub, doc) != want {
			return false
		}
	}
	return true
}

func matchAny(arr bson.RawValue, doc bson.Raw) bool {
	a, ok := arr.ArrayOK()
	if !ok {
		return false
	}
	vals, err := a.Values()
	if err != nil {
		return false
	}
	for _, av := range vals {
		if sub, ok := av.DocumentOK(); ok && matchNode(sub, doc) {
			return true
		}
	}
	return false
}

// matchPath resolves a dotted path and applies cond to the leaves.
func matchPath(doc bson.Raw, path []string, cond bson.RawValue) bool {
	leaves, found := resolvePath(doc, path)

	if ops, ok := operatorDoc(cond); ok {
		return matchOps(leaves, found, ops)
	}

	// Plain value: equality against the leaf, or any array element.
	for _, leaf := range leaves {
		if equalOrContains(leaf, cond) {
			return true
		}
	}
	return false
}

// operatorDoc reports whether v is a document whose keys are operators.
func operatorDoc(v bson.RawValue) (bson.Raw, bool) {
	sub, ok := v.DocumentOK()
	if !ok {
		return nil, false
	}
	elems, err := sub.Elements()
	if err != nil || len(elems) == 0 {
		return nil, false
	}
	if strings.HasPrefix(elems[0].Key(), "$") {
		return sub, true
	}
	return nil, false
}

func matchOps(leaves []bson.RawValue, found bool, ops bson.Raw) bool {
	elems, err := ops.Elements()
	if err != nil {
		return false
	}
	var regexPat, regexOpts string
	for _, elem := range elems {
		op := elem.Key()
		arg := elem.Value()
		switch op {
		case "$regex":
			regexPat, _ = arg.StringValueOK()
			continue
		case "$options":
			regexOpts, _ = arg.StringValueOK()
			continue
		}
		if !applyOp(op, leaves, found, arg) {
			return false
		}
	}
	if regexPat != "" {
		if !applyRegex(leaves, regexPat, regexOpts) {
			return false
		}
	}
	return true
}

func applyOp(op string, leaves []bson.RawValue, found bool, arg bson.RawValue) bool {
	switch op {
	case "$eq":
		return anyLeaf(leaves, func(l bson.RawValue) bool { return equalOrContains(l, arg) })
	case "$ne":
		return !anyLeaf(leaves, func(l bson.RawValue) bool { return equalOrContains(l, arg) })
	case "$gt":
		return anyLeafOrdered(leaves, arg, func(c int) bool { return c > 0 })
	case "$gte":
		return anyLeafOrdered(leaves, arg, func(c int) bool { return c >= 0 })
	case "$lt":
		return anyLeafOrdered(leaves, arg, func(c int) bool { return c < 0 })
	case "$lte":
		return anyLeafOrdered(leaves, arg, func(c int) bool { return c <= 0 })
	case "$in":
		return anyLeaf(leaves, func(l bson.RawValue) bool { return inArray(l, arg) })
	case "$nin":
		return !anyLeaf(leaves, func(l bson.RawValue) bool { return inArray(l, arg) })
	case "$exists":
		want := truthy(arg)
		return found == want
	case "$size":
		n, ok := numericInt(arg)
		if !ok {
			return false
		}
		return anyLeaf(leaves, func(l bson.RawValue) bool {
			arr, ok := l.ArrayOK()
			if !ok {
				return false
			}
			vals, err := arr.Values()
			return err == nil && len(vals) == n
		})
	case "$type":
		want, err := wantedType(arg)
		if err != nil {
			return false
		}
		return anyLeaf(leaves, func(l bson.RawValue) bool { return typeMatches(l, want) })
	case "$not":
		sub, ok := arg.DocumentOK()
		if !ok {
			return false
		}
		return !matchOps(leaves, found, sub)
	}
	return false
}

func applyRegex(leaves []bson.RawValue, pat, opts string) bool {
	if strings.Contains(opts, "i") {
		pat = "(?i)" + pat
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return false
	}
	return anyLeaf(leaves, func(l bson.RawValue) bool {
		if s, ok := l.StringValueOK(); ok {
			return re.MatchString(s)
		}
		if arr, ok := l.ArrayOK(); ok {
			vals, err := arr.Values()
			if err != nil {
				return false
			}
			for _, v := range vals {
				if s, ok := v.StringValueOK(); ok && re.MatchString(s) {
					return true
				}
			}
		}
		return false
	})
}

func anyLeaf(leaves []bson.RawValue, pred func(bson.RawValue) bool) bool {
	for _, l := range leaves {
		if pred(l) {
			return true
		}
	}
	return false
}

// anyLeafOrdered applies an ordered comparison against the leaf, or any
// element of an array leaf.
func anyLeafOrdered(leaves []bson.RawValue, arg bson.RawValue, ok func(int) bool) bool {
	return anyLeaf(leaves, func(l bson.RawValue) bool {
		if c, comparable := compareValues(l, arg); comparable && ok(c) {
			return true
		}
		if arr, isArr := l.ArrayOK(); isArr {
			vals, err := arr.Values()
			if err != nil {
				return false
			}
			for _, v := range vals {
				if c, comparable := compareValues(v, arg); comparable && ok(c) {
					return true
				}
			}
		}
		return false
	})
}

func inArray(leaf bson.RawValue, arg bson.RawValue) bool {
	arr, ok := arg.ArrayOK()
	if !ok {
		return false
	}
	vals, err := arr.Values()
	if err != nil {
		return false
	}
	for _, v := range vals {
		if equalOrContains(leaf, v) {
			return true
		}
	}
	return false
}

// equalOrContains is document-style equality: the leaf equals the
// value, or the leaf is an array containing an equal element.
func equalOrContains(leaf, v bson.RawValue) bool {
	if valuesEqual(leaf, v) {
		return true
	}
	if arr, ok := leaf.ArrayOK(); ok {
		vals, err := arr.Values()
		if err != nil {
			return false
		}
		for _, el := range vals {
			if valuesEqual(el, v) {
				return true
			}
		}
	}
	return false
}

func valuesEqual(a, b bson.RawValue) bool {
	if isNumeric(a.Type) && isNumeric(b.Type) {
		c, ok := compareValues(a, b)
		return ok && c == 0
	}
	return a.Equal(b)
}

// compareValues orders two values of compatible types. Numbers compare
// across int32/int64/double; everything else compares only within its
// own BSON type.
func compareValues(a, b bson.RawValue) (int, bool) {
	if isNumeric(a.Type) && isNumeric(b.Type) {
		af, _ := numericFloat(a)
		bf, _ := numericFloat(b)
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	if a.Type != b.Type {
		return 0, false
	}
	switch a.Type {
	case bsontype.String:
		as, _ := a.StringValueOK()
		bs, _ := b.StringValueOK()
		return strings.Compare(as, bs), true
	case bsontype.Boolean:
		ab, _ := a.BooleanOK()
		bb, _ := b.BooleanOK()
		switch {
		case ab == bb:
			return 0, true
		case !ab:
			return -1, true
		}
		return 1, true
	case bsontype.DateTime:
		ad, _ := a.DateTimeOK()
		bd, _ := b.DateTimeOK()
		switch {
		case ad < bd:
			return -1, true
		case ad > bd:
			return 1, true
		}
		return 0, true
	case bsontype.ObjectID:
		ao, _ := a.ObjectIDOK()
		bo, _ := b.ObjectIDOK()
		return strings.Compare(string(ao[:]), string(bo[:])), true
	}
	return 0, false
}

func isNumeric(t bsontype.Type) bool {
	switch t {
	case bsontype.Int32, bsontype.Int64, bsontype.Double:
		return true
	}
	return false
}

func numericFloat(v bson.RawValue) (float64, bool) {
	switch v.Type {
	case bsontype.Int32:
		n, _ := v.Int32OK()
		return float64(n), true
	case bsontype.Int64:
		n, _ := v.Int64OK()
		return float64(n), true
	case bsontype.Double:
		n, _ := v.DoubleOK()
		return n, true
	}
	return 0, false
}

func numericInt(v bson.RawValue) (int, bool) {
	f, ok := numericFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func truthy(v bson.RawValue) bool {
	if b, ok := v.BooleanOK(); ok {
		return b
	}
	if f, ok := numericFloat(v); ok {
		return f != 0
	}
	return true
}

// wantedType resolves a $type argument: a string alias or a numeric
// BSON type code.
func wantedType(v bson.RawValue) (bsontype.Type, error) {
	if s, ok := v.StringValueOK(); ok {
		t, ok := typeAliases[s]
		if !ok {
			return 0, fmt.Errorf("unknown $type alias %q", s)
		}
		return t, nil
	}
	if n, ok := numericInt(v); ok {
		return bsontype.Type(n), nil
	}
	return 0, fmt.Errorf("$type needs a string or number, got %s", v.Type)
}

var typeAliases = map[string]bsontype.Type{
	"double":    bsontype.Double,
	"string":    bsontype.String,
	"object":    bsontype.EmbeddedDocument,
	"array":     bsontype.Array,
	"binData":   bsontype.Binary,
	"objectId":  bsontype.ObjectID,
	"bool":      bsontype.Boolean,
	"date":      bsontype.DateTime,
	"null":      bsontype.Null,
	"regex":     bsontype.Regex,
	"int":       bsontype.Int32,
	"long":      bsontype.Int64,
	"timestamp": bsontype.Timestamp,
	"decimal":   bsontype.Decimal128,
}

func typeMatches(l bson.RawValue, want bsontype.Type) bool {
	if l.Type == want {
		return true
	}
	if arr, ok := l.ArrayOK(); ok {
		vals, err := arr.Values()
		if err != nil {
			return false
		}
		for _, v := range vals {
			if v.Type == want {
				return true
			}
		}
	}
	return false
}

// resolvePath walks a dotted path through embedded documents and
// arrays, returning the leaf values and whether the path existed at
// all. Arrays fan out: a path step applies to each element document,
// and a numeric step also indexes.
func resolvePath(doc bson.Raw, path []string) ([]bson.RawValue, bool) {
	current := []bson.RawValue{{Type: bsontype.EmbeddedDocument, Value: doc}}
	for _, step := range path {
		var next []bson.RawValue
		for _, v := range current {
			next = append(next, descend(v, step)...)
		}
		if len(next) == 0 {
			return nil, false
		}
		current = next
	}
	return current, true
}

func descend(v bson.RawValue, step string) []bson.RawValue {
	if sub, ok := v.DocumentOK(); ok {
		if fv, err := sub.LookupErr(step); err == nil {
			return []bson.RawValue{fv}
		}
		return nil
	}
	if arr, ok := v.ArrayOK(); ok {
		vals, err := arr.Values()
		if err != nil {
			return nil
		}
		var out []bson.RawValue
		if idx, err := strconv.Atoi(step); err == nil && idx >= 0 && idx < len(vals) {
			out = append(out, vals[idx])
		}
		for _, el := range vals {
			if _, ok := el.DocumentOK(); ok {
				out = append(out, descend(el, step)...)
			}
		}
		return out
	}
	return nil
}
