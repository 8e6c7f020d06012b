// Package site builds a static site from a source tree: it loads includes and
// templates, collects the markdown pages and posts, renders them and writes
// the output directory.
package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/matsu911/Serum/internal/config"
	"github.com/matsu911/Serum/internal/logfields"
	"github.com/matsu911/Serum/internal/metrics"
	"github.com/matsu911/Serum/internal/model"
	"github.com/matsu911/Serum/internal/pipeline"
)

// Builder runs complete builds for one configuration.
type Builder struct {
	Config   config.Config
	Params   map[string]interface{} // exposed to templates as .Site.Config
	Logger   *slog.Logger
	Recorder metrics.Recorder
}

// Result describes a finished build.
type Result struct {
	State pipeline.State
	Site  *model.SiteData
	Files []string // written pages, in render order
}

// Build runs one full build. ctx is checked between stages; a stage that has
// started always runs to completion.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	res, err := b.build(ctx)

	rec := b.recorder()
	rec.ObserveBuildDuration(time.Since(start))
	switch {
	case err == nil:
		rec.IncBuildOutcome(metrics.ResultSuccess)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		rec.IncBuildOutcome(metrics.ResultCanceled)
	default:
		rec.IncBuildOutcome(metrics.ResultFailed)
	}
	return res, err
}

func (b *Builder) build(ctx context.Context) (*Result, error) {
	cfg := b.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	state := pipeline.NewState(cfg.SourceDir, cfg.ProjectInfo())
	logger := b.logger().With(logfields.BuildID(state.BuildID))
	logger.Info("Starting build",
		logfields.Path(cfg.SourceDir),
		slog.String("output", cfg.OutputDir),
		slog.String("base_url", cfg.BaseURL))

	loader := &pipeline.Loader{
		Suffix:   cfg.TemplateSuffix,
		Workers:  cfg.Workers,
		Logger:   b.logger(),
		Recorder: b.recorder(),
	}

	state, err := loader.LoadIncludes(state)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state, err = loader.LoadTemplates(state)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	site, err := b.collect(state, logger)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rendered, err := stage(b, "render_pages", func() (pipeline.Entries[string], error) {
		return renderPages(state.Templates, plan(site), cfg.Workers)
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := stage(b, "write_output", func() ([]string, error) {
		return b.write(rendered)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Build complete", logfields.Count(len(files)))
	return &Result{State: state, Site: site, Files: files}, nil
}

// collect loads pages and posts into the site data templates see.
func (b *Builder) collect(state pipeline.State, logger *slog.Logger) (*model.SiteData, error) {
	return stage(b, "collect_content", func() (*model.SiteData, error) {
		pages, err := loadContent(filepath.Join(state.SourceRoot, PagesDir), "page", state.Project.BaseURL, logger)
		if err != nil {
			return nil, err
		}
		posts, err := loadContent(filepath.Join(state.SourceRoot, PostsDir), "post", state.Project.BaseURL, logger)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(pages, func(i, j int) bool { return pages[i].Slug < pages[j].Slug })
		sortPosts(posts)

		params := b.Params
		if params == nil {
			params = map[string]interface{}{}
		}
		logger.Info("Collected content", slog.Int("pages", len(pages)), slog.Int("posts", len(posts)))
		return &model.SiteData{
			Title:   state.Project.Title,
			BaseURL: state.Project.BaseURL,
			Config:  params,
			Pages:   pages,
			Posts:   posts,
			Tags:    groupTags(posts),
		}, nil
	})
}

// write replaces the output directory with the static directories and the
// rendered pages.
func (b *Builder) write(rendered pipeline.Entries[string]) ([]string, error) {
	cfg := b.Config
	if err := prepareOutput(cfg.SourceDir, cfg.OutputDir); err != nil {
		return nil, err
	}

	for _, dir := range []string{AssetsDir, MediaDir} {
		src := filepath.Join(cfg.SourceDir, dir)
		if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := copyDirContents(src, filepath.Join(cfg.OutputDir, dir)); err != nil {
			return nil, fmt.Errorf("failed to copy %s: %w", dir, err)
		}
	}

	files := make([]string, 0, len(rendered))
	for _, e := range rendered {
		dst, err := writePage(cfg.OutputDir, e.Key, e.Value)
		if err != nil {
			return nil, err
		}
		files = append(files, dst)
	}
	return files, nil
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

func (b *Builder) recorder() metrics.Recorder {
	if b.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return b.Recorder
}

// stage times fn and records its result under name.
func stage[T any](b *Builder, name string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	rec := b.recorder()
	rec.ObserveStageDuration(name, time.Since(start))
	if err != nil {
		rec.IncStageResult(name, metrics.ResultFailed)
		b.logger().Error("Stage failed", logfields.Stage(name), logfields.Error(err))
		return v, err
	}
	rec.IncStageResult(name, metrics.ResultSuccess)
	return v, nil
}
