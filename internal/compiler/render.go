package compiler

import (
	"bytes"
	"html/template"
	"io"
)

// Execute renders t with data into w. The trees are copied first because
// html/template escapes them in place, and t may be rendered many times.
func (t *Template) Execute(w io.Writer, data any) error {
	set := template.New(t.Name).Funcs(Funcs)
	for _, tree := range t.Trees() {
		if _, err := set.AddParseTree(tree.Name, tree.Copy()); err != nil {
			return templateError(t.Path, err)
		}
	}
	if err := set.ExecuteTemplate(w, t.Name, data); err != nil {
		return templateError(t.Path, err)
	}
	return nil
}

// Render renders t with data and returns the output.
func (t *Template) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
