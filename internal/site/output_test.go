package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrepareOutput(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	out := filepath.Join(root, "out")
	writeTree(t, root, map[string]string{
		"src/pages/a.md": "a",
		"out/old/x.html": "x",
	})

	require.NoError(t, prepareOutput(src, out))
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Empty(t, entries)
	require.FileExists(t, filepath.Join(src, "pages", "a.md"))
}

func TestPrepareOutputRefusesSource(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"src/pages/a.md": "a"})

	for _, out := range []string{filepath.Join(root, "src"), root} {
		err := prepareOutput(filepath.Join(root, "src"), out)
		require.ErrorContains(t, err, "contains the source directory")
	}
	require.FileExists(t, filepath.Join(root, "src", "pages", "a.md"))
}

func TestWritePage(t *testing.T) {
	out := t.TempDir()

	dst, err := writePage(out, "tags/go/index.html", "<p>go</p>")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(out, "tags", "go", "index.html"), dst)

	_, err = writePage(out, "tags/go/index.html", "<p>again</p>")
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "<p>again</p>", string(data))
}

func TestWritePageStaysInsideOutput(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "out")

	for _, rel := range []string{"../escape/index.html", "tags/../../escape.html", "/abs.html", ""} {
		_, err := writePage(out, rel, "x")
		require.ErrorContains(t, err, "outside the output directory", rel)
	}
	require.NoDirExists(t, filepath.Join(root, "escape"))
	require.NoFileExists(t, filepath.Join(root, "escape.html"))
}

func TestCopyDirContents(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"assets/style.css":     "body{}",
		"assets/img/logo.svg":  "<svg/>",
		"assets/js/app/run.js": "run()",
	})
	require.NoError(t, os.Chmod(filepath.Join(root, "assets", "style.css"), 0o600))

	dst := filepath.Join(root, "site", "assets")
	require.NoError(t, copyDirContents(filepath.Join(root, "assets"), dst))

	for rel, want := range map[string]string{
		"style.css":     "body{}",
		"img/logo.svg":  "<svg/>",
		"js/app/run.js": "run()",
	} {
		data, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(rel)))
		require.NoError(t, err)
		require.Equal(t, want, string(data))
	}

	info, err := os.Stat(filepath.Join(dst, "style.css"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCopyDirContentsMissingSource(t *testing.T) {
	err := copyDirContents(filepath.Join(t.TempDir(), "nope"), t.TempDir())
	require.ErrorIs(t, err, os.ErrNotExist)
}
