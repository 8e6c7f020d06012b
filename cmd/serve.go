package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matsu911/Serum/internal/logfields"
	"github.com/matsu911/Serum/internal/metrics"
)

var serverPort int // For the --port flag

const debounceDuration = 500 * time.Millisecond

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the site locally and rebuilds it on changes",
	Long: `The serve command performs an initial build of your site, then starts a local
web server for the output directory. It watches the source directory and
rebuilds the whole site after every change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var rec metrics.Recorder = metrics.NoopRecorder{}
		reg := prom.NewRegistry()
		if appConfig.Metrics {
			rec = metrics.NewPrometheusRecorder(reg)
		}
		builder := newBuilder(rec)
		ctx := cmd.Context()

		logger.Info("Performing initial build")
		if _, err := runBuildProcess(ctx, builder); err != nil {
			return fmt.Errorf("initial build failed, fix the issues and try again: %w", err)
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		defer watcher.Close()

		var building sync.Mutex
		go watchLoop(watcher, func() {
			building.Lock()
			defer building.Unlock()
			logger.Info("Rebuilding site due to changes")
			if _, err := runBuildProcess(ctx, builder); err != nil {
				logger.Error("Rebuild failed", logfields.Error(err))
			}
		})

		if err := watchTree(watcher, appConfig.SourceDir, appConfig.OutputDir); err != nil {
			return err
		}

		mux := http.NewServeMux()
		mux.Handle("/", noCache(appConfig.OutputDir, http.FileServer(http.Dir(appConfig.OutputDir))))
		if appConfig.Metrics {
			mux.Handle("/metrics", metrics.HTTPHandler(reg))
		}

		serverAddr := fmt.Sprintf(":%d", serverPort)
		logger.Info("Serving site",
			slog.String("output", appConfig.OutputDir),
			slog.String("url", "http://localhost"+serverAddr))
		if err := http.ListenAndServe(serverAddr, mux); err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	},
}

// watchLoop calls rebuild once events stop arriving for debounceDuration.
func watchLoop(watcher *fsnotify.Watcher, rebuild func()) {
	var buildTimer *time.Timer
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
				continue
			}
			logger.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))

			// new directories are not watched automatically
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := watcher.Add(event.Name); err != nil {
					logger.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
				}
			}

			if buildTimer != nil {
				buildTimer.Stop()
			}
			buildTimer = time.AfterFunc(debounceDuration, rebuild)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error("Watcher error", logfields.Error(err))
		}
	}
}

// watchTree adds root and its subdirectories to watcher, skipping the output
// directory and hidden directories.
func watchTree(watcher *fsnotify.Watcher, root, outputDir string) error {
	out, _ := filepath.Abs(outputDir)
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Error walking source tree", logfields.Path(path), logfields.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == out || (path != root && strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			logger.Warn("Failed to watch directory", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// noCache serves without directory listings and disables client caching.
func noCache(root string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") && r.URL.Path != "/" {
			if _, err := os.Stat(filepath.Join(root, r.URL.Path, "index.html")); os.IsNotExist(err) {
				http.NotFound(w, r)
				return
			}
		}
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

// Helper function to check if a path is a directory
func isDir(path string) bool {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fileInfo.IsDir()
}

func init() {
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 1313, "Port to serve the site on")
	rootCmd.AddCommand(serveCmd)
}
