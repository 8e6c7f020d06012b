package compiler

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
)

// Kind classifies a compile or render failure.
type Kind string

const (
	KindInvalidTemplate Kind = "invalid_template"
	KindFileError       Kind = "file_error"
)

// Error is the leaf error produced while reading, parsing, substituting or
// rendering a single template file.
type Error struct {
	Kind   Kind
	Detail string
	Path   string
	Line   int // 0 when no line applies
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Path == "" && e.Line > 0:
		return fmt.Sprintf("%s: line %d: %s", e.Kind, e.Line, e.Detail)
	case e.Path == "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	case e.Line > 0:
		return fmt.Sprintf("%s: %s:%d: %s", e.Kind, e.Path, e.Line, e.Detail)
	default:
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Detail)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

func fileError(path string, err error) *Error {
	detail := err.Error()
	var pe *fs.PathError
	if errors.As(err, &pe) {
		// the path is reported separately
		detail = pe.Err.Error()
	}
	return &Error{Kind: KindFileError, Detail: detail, Path: path, Err: err}
}

func invalidTemplate(path string, line int, detail string, err error) *Error {
	return &Error{Kind: KindInvalidTemplate, Detail: detail, Path: path, Line: line, Err: err}
}

// diagnostics from text/template and html/template look like
//
//	template: page:3: function "foo" not defined
//	template: footer:2:7: executing "footer" at <.Title>: ...
//	html/template:base:4:12: ...
var diagLine = regexp.MustCompile(`^(?:html/)?template: ?[^:]*:(\d+)(?::\d+)?: ?(.*)$`)

// templateError converts a parser or executor diagnostic into an
// invalid_template error carrying the best available line number.
func templateError(path string, err error) *Error {
	msg := err.Error()
	m := diagLine.FindStringSubmatch(msg)
	if m == nil {
		return invalidTemplate(path, 0, msg, err)
	}
	line, _ := strconv.Atoi(m[1])
	return invalidTemplate(path, line, m[2], err)
}
