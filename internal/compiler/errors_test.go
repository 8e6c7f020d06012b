package compiler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "file error",
			err:      &Error{Kind: KindFileError, Detail: "permission denied", Path: "templates/base.html"},
			expected: "file_error: templates/base.html: permission denied",
		},
		{
			name:     "invalid template with line",
			err:      &Error{Kind: KindInvalidTemplate, Detail: "unexpected EOF", Path: "templates/page.html", Line: 4},
			expected: "invalid_template: templates/page.html:4: unexpected EOF",
		},
		{
			name:     "without path",
			err:      &Error{Kind: KindInvalidTemplate, Detail: "bad", Line: 2},
			expected: "invalid_template: line 2: bad",
		},
		{
			name:     "without path or line",
			err:      &Error{Kind: KindInvalidTemplate, Detail: "bad"},
			expected: "invalid_template: bad",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, test.err.Error())
		})
	}
}

func TestIsKind(t *testing.T) {
	fileErr := &Error{Kind: KindFileError}
	wrapped := fmt.Errorf("loading: %w", &Error{Kind: KindInvalidTemplate})

	require.True(t, IsKind(fileErr, KindFileError))
	require.False(t, IsKind(fileErr, KindInvalidTemplate))
	require.True(t, IsKind(wrapped, KindInvalidTemplate))
	require.False(t, IsKind(errors.New("plain"), KindFileError))
	require.False(t, IsKind(nil, KindFileError))
}

func TestTemplateError(t *testing.T) {
	tests := []struct {
		msg    string
		line   int
		detail string
	}{
		{msg: `template: page:3: function "foo" not defined`, line: 3, detail: `function "foo" not defined`},
		{msg: `template: footer:2:7: executing "footer" at <.Title>: boom`, line: 2, detail: `executing "footer" at <.Title>: boom`},
		{msg: `html/template:base:4:12: no such template "x"`, line: 4, detail: `no such template "x"`},
		{msg: `html/template:base: ends in a non-text context`, line: 0, detail: `html/template:base: ends in a non-text context`},
		{msg: `something else`, line: 0, detail: `something else`},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			cause := errors.New(tt.msg)
			err := templateError("p.html", cause)
			require.Equal(t, KindInvalidTemplate, err.Kind)
			require.Equal(t, tt.line, err.Line)
			require.Equal(t, tt.detail, err.Detail)
			require.Equal(t, "p.html", err.Path)
			require.ErrorIs(t, err, cause)
		})
	}
}
