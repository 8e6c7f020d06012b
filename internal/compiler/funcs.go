package compiler

import (
	"bytes"
	"html/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Markdown is the converter shared by the markdown helper and content loading.
var Markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		gmhtml.WithHardWraps(),
	),
)

// Funcs are the helpers available to templates when they are rendered.
var Funcs = template.FuncMap{
	"markdown": markdown,
	"title":    Title,
	"date":     date,
}

// parseFuncs declares the helpers and the directive names to the parser.
// Directive placeholders never run: Substitute removes every call to them.
var parseFuncs = func() map[string]any {
	m := map[string]any{}
	for k, f := range Funcs {
		m[k] = f
	}
	for name := range directives {
		m[name] = func(...string) string { return "" }
	}
	return m
}()

func markdown(s string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := Markdown.Convert([]byte(s), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Title title-cases s in English.
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

func date(layout string, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}
