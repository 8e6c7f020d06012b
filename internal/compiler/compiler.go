// Package compiler turns template source files into compiled templates,
// resolving the reserved directives (base, page, post, asset and include)
// into literals while the template is compiled rather than when it is
// rendered.
package compiler

import (
	"os"
	"sort"
	"text/template"
	"text/template/parse"
)

// Template is a compiled template file: the tree of its body plus the trees
// of any templates it defines. Trees are not modified after Compile returns.
type Template struct {
	Name string
	Path string
	Tree *parse.Tree
	Defs []*parse.Tree
}

// Trees returns the body tree followed by the defined trees.
func (t *Template) Trees() []*parse.Tree {
	return append([]*parse.Tree{t.Tree}, t.Defs...)
}

// Compile reads the template file at path and compiles it under name.
func Compile(name, path string, env Env) (*Template, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fileError(path, err)
	}
	t, err := Parse(name, string(body), env)
	if err != nil {
		if ce, ok := err.(*Error); ok {
			ce.Path = path
		}
		return nil, err
	}
	t.Path = path
	return t, nil
}

// Parse compiles template source text under name.
func Parse(name, text string, env Env) (*Template, error) {
	root, err := template.New(name).Funcs(parseFuncs).Parse(text)
	if err != nil {
		return nil, templateError("", err)
	}

	t := &Template{Name: name, Tree: root.Tree}
	for _, def := range root.Templates() {
		if def.Name() == name || def.Tree == nil {
			continue
		}
		t.Defs = append(t.Defs, def.Tree)
	}
	sort.Slice(t.Defs, func(i, j int) bool { return t.Defs[i].Name < t.Defs[j].Name })

	for _, tree := range t.Trees() {
		if err := Substitute(tree, text, env); err != nil {
			return nil, err
		}
	}
	return t, nil
}
