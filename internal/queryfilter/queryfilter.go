// Package queryfilter compiles declarative list-endpoint filters and page
// parameters into parameterized SQL fragments.
//
// Filters form a closed, compile-time-checked set: each resource declares a
// fixed slice of Descriptors, and only those column identifiers are ever
// interpolated into SQL. Values are always passed as bound parameters,
// never rendered as literals.
package queryfilter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ValueType declares how a raw query-parameter string is coerced.
type ValueType int

const (
	Int ValueType = iota
	Date
	Text
)

// Descriptor binds one query parameter to one target column.
//
// The comparison operator is inferred from the parameter name: a "start_"
// prefix compiles to column >= value (inclusive lower bound), an "end_"
// prefix to column <= value (inclusive upper bound), anything else to exact
// equality.
type Descriptor struct {
	Param  string
	Column string
	Type   ValueType
}

// Predicate is a compiled WHERE fragment plus its bound values.
type Predicate struct {
	conds []string
	Args  []any
}

// Where returns the full WHERE clause with leading space, or "" when no
// conditions apply. Appended verbatim after the FROM clause.
func (p Predicate) Where() string {
	if len(p.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(p.conds, " AND ")
}

// And returns a copy of the predicate with an extra condition ANDed on.
// The SQL fragment must use only fixed identifiers and ? placeholders.
func (p Predicate) And(sql string, args ...any) Predicate {
	out := Predicate{
		conds: append(append([]string(nil), p.conds...), sql),
		Args:  append(append([]any(nil), p.Args...), args...),
	}
	return out
}

// ValidationError reports malformed filter or pagination input. Always
// recoverable: reported to the caller, never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NewValidationError creates a ValidationError for callers that validate
// parameters outside the descriptor set (e.g. bespoke subquery filters).
func NewValidationError(format string, args ...any) *ValidationError {
	return validationf(format, args...)
}

// Options adjusts predicate compilation per call site.
type Options struct {
	// IncludeArchived, when false (the default), ANDs an
	// "archived_at IS NULL" condition onto the predicate.
	IncludeArchived bool

	// ArchivedColumn overrides the archived marker column, e.g. when the
	// query aliases its table. Defaults to "archived_at".
	ArchivedColumn string
}

// Compile coerces each present parameter by its declared type and builds an
// AND-joined parameterized predicate. A parameter supplied more than once,
// or a value that fails coercion, is a validation error.
func Compile(values url.Values, descs []Descriptor, opts Options) (Predicate, error) {
	var p Predicate
	for _, d := range descs {
		raw, ok := values[d.Param]
		if !ok {
			continue
		}
		if len(raw) != 1 {
			return Predicate{}, validationf("%s must be supplied at most once", d.Param)
		}
		arg, err := coerce(raw[0], d)
		if err != nil {
			return Predicate{}, err
		}
		p.conds = append(p.conds, d.Column+" "+operatorFor(d.Param)+" ?")
		p.Args = append(p.Args, arg)
	}

	if !opts.IncludeArchived {
		col := opts.ArchivedColumn
		if col == "" {
			col = "archived_at"
		}
		p.conds = append(p.conds, col+" IS NULL")
	}
	return p, nil
}

// IncludeArchived reads the include_archived flag from the query string.
func IncludeArchived(values url.Values) bool {
	return values.Get("include_archived") == "true"
}

func operatorFor(param string) string {
	switch {
	case strings.HasPrefix(param, "start_"):
		return ">="
	case strings.HasPrefix(param, "end_"):
		return "<="
	default:
		return "="
	}
}

func coerce(raw string, d Descriptor) (any, error) {
	switch d.Type {
	case Int:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, validationf("%s must be an integer", d.Param)
		}
		return n, nil
	case Date:
		if _, err := time.Parse("2006-01-02", raw); err != nil {
			return nil, validationf("%s must be YYYY-MM-DD", d.Param)
		}
		// Bind the validated string: date columns are ISO TEXT.
		return raw, nil
	case Text:
		return raw, nil
	default:
		return nil, fmt.Errorf("unknown value type %d for %s", d.Type, d.Param)
	}
}
