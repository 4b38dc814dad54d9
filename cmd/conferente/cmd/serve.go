package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/corey/conferente/internal/adapters/fsnotify"
	"github.com/corey/conferente/internal/adapters/web"
	"github.com/corey/conferente/internal/app"
	"github.com/corey/conferente/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and status page in the foreground",
	Long: "Serves the JSON API used by the weighing form, reloads tunables when the\n" +
		"config file changes, and prunes history past retention once a day.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		defer a.Paths.CleanEphemeral()

		logFile, err := os.OpenFile(a.Paths.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer logFile.Close()
		logger.SetOutput(io.MultiWriter(os.Stderr, logFile))

		srv := web.NewServer(a, a.Paths.AddrFile)
		if err := srv.Start(a.Settings().ServerAddr); err != nil {
			return err
		}
		defer srv.Stop()

		w, err := watchConfig(a)
		if err != nil {
			logger.Warn("config reload disabled", "err", err)
		} else {
			defer w.Stop()
		}

		pruneHistory(a)
		c := cron.New()
		if _, err := c.AddFunc("@daily", func() { pruneHistory(a) }); err != nil {
			return fmt.Errorf("schedule prune: %w", err)
		}
		c.Start()
		defer c.Stop()

		fmt.Printf("%s conferente serving at %s%s%s\n", prefix, colorBold, srv.URL(), colorReset)
		fmt.Printf("  %slog: %s%s\n", colorGray, a.Paths.LogFile, colorReset)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		fmt.Printf("\n%s shutting down...\n", prefix)
		return nil
	},
}

// watchConfig re-resolves configuration whenever the config file changes and
// applies the tunables that take effect without reopening the stores.
func watchConfig(a *app.App) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher(fsnotify.DefaultDebounce)
	if err != nil {
		return nil, err
	}
	err = w.WatchFile(a.Resolved.ConfigPath, func() {
		resolved, err := resolveProject(a.Paths)
		if err != nil {
			logger.Warn("config reload failed", "path", a.Resolved.ConfigPath, "err", err)
			return
		}
		settings, err := resolved.Settings()
		if err != nil {
			logger.Warn("config reload rejected", "err", err)
			return
		}
		a.ApplySettings(settings)
		logger.Info("config reloaded", "path", a.Resolved.ConfigPath)
	})
	if err != nil {
		w.Stop()
		return nil, err
	}
	return w, nil
}

func pruneHistory(a *app.App) {
	if _, err := a.PruneHistory(); err != nil {
		logger.Error("history prune failed", "err", err)
	}
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (default 127.0.0.1:8765)")
}
