// Package pipeline runs the two template loading stages of a build:
// includes are compiled and rendered first, then the page templates are
// compiled against them.
package pipeline

import (
	"github.com/google/uuid"

	"github.com/matsu911/Serum/internal/compiler"
	"github.com/matsu911/Serum/internal/model"
)

// State is threaded through the build stages. Each stage takes a State and
// returns a new one; the maps it holds are replaced, never modified.
type State struct {
	BuildID    string
	SourceRoot string
	Project    model.ProjectInfo

	// Templates maps a category (base, list, page, post) to its compiled
	// template. Nil until LoadTemplates succeeds.
	Templates map[string]*compiler.Template
	// Includes maps an include name to its rendered HTML. Nil until
	// LoadIncludes succeeds.
	Includes map[string]string
}

// NewState starts the state of a new build.
func NewState(sourceRoot string, project model.ProjectInfo) State {
	return State{
		BuildID:    uuid.NewString(),
		SourceRoot: sourceRoot,
		Project:    project,
	}
}

// Env is the part of the state directives are resolved against.
func (s State) Env() compiler.Env {
	return compiler.Env{BaseURL: s.Project.BaseURL, Includes: s.Includes}
}
