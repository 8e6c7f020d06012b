package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matsu911/Serum/internal/config"
)

var (
	cfgFile   string
	sourceDir string
	verbose   bool

	appConfig  config.Config
	siteParams map[string]interface{}
	logger     = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "serum",
	Short: "Serum - a static site generator",
	Long: `Serum builds a static website from a source tree of templates, includes,
Markdown pages and posts. Site links and includes are resolved when the
templates are compiled, not each time a page is rendered.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(verbose)
		slog.SetDefault(logger)
		return initializeConfig(cmd)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&sourceDir, "source", "s", "", "source directory (overrides sourceDir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func initializeConfig(_ *cobra.Command) error {
	// .env only seeds the environment; real variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("sourceDir", ".")
	v.SetDefault("outputDir", "site")
	v.SetDefault("baseURL", "/")
	v.SetDefault("siteTitle", "My Serum Site")
	v.SetDefault("templateSuffix", ".html")
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("metrics", false)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SERUM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if cfgFile != "" {
				return fmt.Errorf("config file %s not found: %w", cfgFile, err)
			}
			logger.Info("No config file found, using defaults and environment")
		} else {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		logger.Info("Using config file", slog.String("file", v.ConfigFileUsed()))
	}

	if err := v.Unmarshal(&appConfig); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if sourceDir != "" {
		appConfig.SourceDir = sourceDir
	}
	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	params, err := config.LoadSiteParams(v.ConfigFileUsed())
	if err != nil {
		return err
	}
	siteParams = params
	return nil
}
