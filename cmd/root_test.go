package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matsu911/Serum/internal/config"
)

// resetGlobals restores the package flag and config state after a test.
func resetGlobals(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		cfgFile, sourceDir, verbose = "", "", false
		appConfig = config.Config{}
		siteParams = nil
	})
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestInitializeConfig(t *testing.T) {
	resetGlobals(t)
	cfgFile = writeConfig(t, `siteTitle: Notes
baseURL: /x/
sourceDir: src
workers: 3
author: Ann
social:
  github: ann
`)

	require.NoError(t, initializeConfig(rootCmd))
	require.Equal(t, config.Config{
		SiteTitle:      "Notes",
		SourceDir:      "src",
		OutputDir:      "site",
		BaseURL:        "/x/",
		TemplateSuffix: ".html",
		Workers:        3,
	}, appConfig)
	require.Equal(t, "Ann", siteParams["author"])
	require.Contains(t, siteParams, "baseURL")
}

func TestInitializeConfigEnvironment(t *testing.T) {
	resetGlobals(t)
	cfgFile = writeConfig(t, "baseURL: /x/\n")
	t.Setenv("SERUM_BASEURL", "/env/")
	t.Setenv("SERUM_WORKERS", "5")

	require.NoError(t, initializeConfig(rootCmd))
	require.Equal(t, "/env/", appConfig.BaseURL)
	require.Equal(t, 5, appConfig.Workers)
}

func TestInitializeConfigSourceFlag(t *testing.T) {
	resetGlobals(t)
	cfgFile = writeConfig(t, "sourceDir: src\n")
	sourceDir = "other"

	require.NoError(t, initializeConfig(rootCmd))
	require.Equal(t, "other", appConfig.SourceDir)
}

func TestInitializeConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		resetGlobals(t)
		cfgFile = filepath.Join(t.TempDir(), "missing.yaml")
		require.Error(t, initializeConfig(rootCmd))
	})

	t.Run("invalid base url", func(t *testing.T) {
		resetGlobals(t)
		cfgFile = writeConfig(t, "baseURL: /x\n")
		require.ErrorContains(t, initializeConfig(rootCmd), "invalid configuration")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		resetGlobals(t)
		cfgFile = writeConfig(t, "baseURL: [\n")
		require.Error(t, initializeConfig(rootCmd))
	})
}

func TestBuildCommand(t *testing.T) {
	resetGlobals(t)
	root := t.TempDir()
	src := filepath.Join(root, "src")
	out := filepath.Join(root, "out")
	for name, body := range map[string]string{
		"templates/base.html": `{{ .Contents }}`,
		"templates/list.html": `{{ .List.Title }}`,
		"templates/page.html": `<a href="{{ base }}">{{ .Item.Title }}</a>`,
		"templates/post.html": `{{ .Item.Title }}`,
		"pages/about.md":      "# About\n",
	} {
		path := filepath.Join(src, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	cfg := writeConfig(t, "baseURL: /docs/\noutputDir: "+out+"\n")

	rootCmd.SetArgs([]string{"build", "--config", cfg, "--source", src})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(filepath.Join(out, "about.html"))
	require.NoError(t, err)
	require.Equal(t, `<a href="/docs/">About</a>`, string(data))
	require.FileExists(t, filepath.Join(out, "posts", "index.html"))
}
