package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/matsu911/Serum/internal/metrics"
	"github.com/matsu911/Serum/internal/site"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Builds the static site from templates, includes, pages and posts",
	Long: `The build command compiles './includes/' and the base, list, page and post
templates in './templates/', renders the Markdown in './pages/' and './posts/',
copies './assets/' and './media/', and writes the site to the configured
output directory (default './site/').`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := runBuildProcess(cmd.Context(), newBuilder(metrics.NoopRecorder{}))
		return err
	},
}

func newBuilder(rec metrics.Recorder) *site.Builder {
	return &site.Builder{
		Config:   appConfig,
		Params:   siteParams,
		Logger:   logger,
		Recorder: rec,
	}
}

func runBuildProcess(ctx context.Context, b *site.Builder) (*site.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("Site built",
		slog.String("output", b.Config.OutputDir),
		slog.Int("pages", len(res.Site.Pages)),
		slog.Int("posts", len(res.Site.Posts)),
		slog.Int("files", len(res.Files)))
	return res, nil
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
