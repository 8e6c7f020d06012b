package compiler

import (
	"fmt"
	"strings"
	"text/template/parse"
)

// Env is the build-time state directives are resolved against.
type Env struct {
	// BaseURL is prepended to every site-relative link. It ends in "/".
	BaseURL string
	// Includes maps an include name to its rendered HTML.
	Includes map[string]string
}

// BaseURL joins a site-relative path onto the base URL.
func BaseURL(base, path string) string { return base + path }

// PageURL is the URL of the page with the given slug.
func PageURL(base, slug string) string { return base + slug + ".html" }

// PostURL is the URL of the post with the given slug.
func PostURL(base, slug string) string { return base + "posts/" + slug + ".html" }

// AssetURL is the URL of a file under the assets directory.
func AssetURL(base, path string) string { return base + "assets/" + path }

type directive struct {
	optional bool // argument may be omitted
	resolve  func(env Env, arg string) (string, error)
}

var directives = map[string]directive{
	"base": {
		optional: true,
		resolve:  func(env Env, arg string) (string, error) { return BaseURL(env.BaseURL, arg), nil },
	},
	"page": {
		resolve: func(env Env, arg string) (string, error) { return PageURL(env.BaseURL, arg), nil },
	},
	"post": {
		resolve: func(env Env, arg string) (string, error) { return PostURL(env.BaseURL, arg), nil },
	},
	"asset": {
		resolve: func(env Env, arg string) (string, error) { return AssetURL(env.BaseURL, arg), nil },
	},
	"include": {
		resolve: func(env Env, arg string) (string, error) {
			html, ok := env.Includes[arg]
			if !ok {
				return "", fmt.Errorf("include %q not found", arg)
			}
			return html, nil
		},
	},
}

// IsDirective reports whether name is one of the reserved directive names.
func IsDirective(name string) bool {
	_, ok := directives[name]
	return ok
}

// resolveDirective evaluates a directive call with the given (unevaluated)
// argument nodes.
func resolveDirective(name string, env Env, args []parse.Node) (string, error) {
	d := directives[name]
	switch {
	case len(args) > 1:
		return "", fmt.Errorf("%s takes at most one argument, got %d", name, len(args))
	case len(args) == 0 && !d.optional:
		return "", fmt.Errorf("%s requires an argument", name)
	case len(args) == 0:
		return d.resolve(env, "")
	}
	arg, ok := constant(args[0])
	if !ok {
		return "", fmt.Errorf("argument to %s must be a constant string, got %s", name, args[0])
	}
	return d.resolve(env, arg)
}

// constant folds an argument node into a string. Only string literals, a
// parenthesised constant and print over zero or more constants are accepted;
// everything else needs runtime data and is rejected.
func constant(n parse.Node) (string, bool) {
	switch n := n.(type) {
	case *parse.StringNode:
		return n.Text, true
	case *parse.PipeNode:
		if len(n.Decl) != 0 || len(n.Cmds) != 1 {
			return "", false
		}
		return constantCommand(n.Cmds[0])
	}
	return "", false
}

func constantCommand(cmd *parse.CommandNode) (string, bool) {
	id, ok := cmd.Args[0].(*parse.IdentifierNode)
	if !ok {
		if len(cmd.Args) == 1 {
			return constant(cmd.Args[0])
		}
		return "", false
	}
	if id.Ident != "print" {
		return "", false
	}
	var b strings.Builder
	for _, arg := range cmd.Args[1:] {
		s, ok := constant(arg)
		if !ok {
			return "", false
		}
		b.WriteString(s)
	}
	return b.String(), true
}
