package pipeline

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matsu911/Serum/internal/compiler"
	"github.com/matsu911/Serum/internal/logfields"
	"github.com/matsu911/Serum/internal/metrics"
)

const (
	OpLoadIncludes  = "load_includes"
	OpLoadTemplates = "load_templates"

	IncludesDir  = "includes"
	TemplatesDir = "templates"

	// DefaultSuffix is the file suffix of template and include sources.
	DefaultSuffix = ".html"
)

// Categories are the templates every build requires, in load order.
var Categories = []string{"base", "list", "page", "post"}

// ErrIncludesNotLoaded is returned by LoadTemplates when it is given a state
// that has not been through LoadIncludes.
var ErrIncludesNotLoaded = errors.New("includes have not been loaded")

// Loader compiles the includes and templates of a source tree.
type Loader struct {
	Suffix   string
	Workers  int
	Logger   *slog.Logger
	Recorder metrics.Recorder
}

// NewLoader returns a Loader with the default suffix, one worker per
// item and no metrics.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		Suffix:   DefaultSuffix,
		Logger:   logger,
		Recorder: metrics.NoopRecorder{},
	}
}

// LoadIncludes compiles every include under <source>/includes and renders
// it with no data, storing the output in state.Includes. Include templates
// therefore must not refer to page data, and cannot use the include
// directive themselves. A missing includes directory yields no includes.
func (l *Loader) LoadIncludes(state State) (State, error) {
	dir := filepath.Join(state.SourceRoot, IncludesDir)
	logger := l.logger().With(logfields.BuildID(state.BuildID), logfields.Stage(OpLoadIncludes))
	start := time.Now()

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		logger.Debug("No includes directory", logfields.Path(dir))
		state.Includes = map[string]string{}
		return state, nil
	}

	names, err := l.list(dir)
	if err != nil {
		return state, l.finish(logger, OpLoadIncludes, start, 0, &BatchError{Op: OpLoadIncludes, Errs: []error{err}})
	}

	env := state.Env()
	env.Includes = map[string]string{}
	entries, err := Run(OpLoadIncludes, names, l.Workers, func(name string) (string, error) {
		t, err := compiler.Compile(name, filepath.Join(dir, name+l.suffix()), env)
		if err != nil {
			return "", failed(logger, name, err)
		}
		html, err := t.Render(nil)
		return html, failed(logger, name, err)
	})
	if err := l.finish(logger, OpLoadIncludes, start, len(names), err); err != nil {
		return state, err
	}

	state.Includes = entries.Map()
	return state, nil
}

// LoadTemplates compiles the base, list, page and post templates from
// <source>/templates against the includes loaded by LoadIncludes. All four
// are required.
func (l *Loader) LoadTemplates(state State) (State, error) {
	logger := l.logger().With(logfields.BuildID(state.BuildID), logfields.Stage(OpLoadTemplates))
	start := time.Now()

	if state.Includes == nil {
		return state, l.finish(logger, OpLoadTemplates, start, 0, &BatchError{Op: OpLoadTemplates, Errs: []error{ErrIncludesNotLoaded}})
	}

	dir := filepath.Join(state.SourceRoot, TemplatesDir)
	env := state.Env()
	entries, err := Run(OpLoadTemplates, Categories, l.Workers, func(name string) (*compiler.Template, error) {
		t, err := compiler.Compile(name, filepath.Join(dir, name+l.suffix()), env)
		return t, failed(logger, name, err)
	})
	if err := l.finish(logger, OpLoadTemplates, start, len(Categories), err); err != nil {
		return state, err
	}

	state.Templates = entries.Map()
	return state, nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

func (l *Loader) suffix() string {
	if l.Suffix == "" {
		return DefaultSuffix
	}
	return l.Suffix
}

// list returns the names of the template files in dir, sorted.
func (l *Loader) list(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, &compiler.Error{Kind: compiler.KindFileError, Detail: err.Error(), Path: dir, Err: err}
	}
	var names []string
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), l.suffix()) {
			continue
		}
		names = append(names, strings.TrimSuffix(f.Name(), l.suffix()))
	}
	return names, nil
}

// finish logs and records the outcome of a stage and passes err through.
func (l *Loader) finish(logger *slog.Logger, stage string, start time.Time, n int, err error) error {
	rec := l.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	d := time.Since(start)
	rec.ObserveStageDuration(stage, d)

	if err != nil {
		rec.IncStageResult(stage, metrics.ResultFailed)
		var be *BatchError
		if errors.As(err, &be) {
			for _, e := range be.Errs {
				var ce *compiler.Error
				if errors.As(e, &ce) {
					rec.IncCompileError(string(ce.Kind))
				}
			}
		}
		logger.Error("Stage failed", logfields.Error(err))
		return err
	}

	rec.IncStageResult(stage, metrics.ResultSuccess)
	rec.AddCompiled(stage, n)
	logger.Info("Stage complete", logfields.Count(n), logfields.DurationMS(float64(d.Microseconds())/1000))
	return nil
}

// failed logs err, if any, against the template it came from.
func failed(logger *slog.Logger, name string, err error) error {
	if err != nil {
		logger.Error("Template failed", logfields.Template(name), logfields.Error(err))
	}
	return err
}
