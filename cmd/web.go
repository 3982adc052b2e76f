package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"

	"github.com/rubiojr/prospect/pkg/config"
	"github.com/rubiojr/prospect/pkg/engine"
	"github.com/rubiojr/prospect/pkg/log"
	"github.com/rubiojr/prospect/pkg/metrics"
	"github.com/rubiojr/prospect/pkg/notify"
	"github.com/rubiojr/prospect/pkg/web"
)

// WebCommand creates the web command
func WebCommand() *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start the local web dashboard",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (default from config)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (default from config)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("host") {
				cfg.Web.Host = c.String("host")
			}
			if c.IsSet("port") {
				cfg.Web.Port = c.Int("port")
			}
			return startWebServer(ctx, c.String("config"), cfg)
		},
	}
}

func startWebServer(ctx context.Context, configPath string, cfg *config.Config) error {
	logger := log.ForService("web")

	hub := notify.NewHub(0)
	confirm := web.NewConfirmer(hub.ConfirmRequested)
	m := metrics.New()

	sess, err := openSession(ctx, cfg, sessionOptions{
		notifier:  m.Sink(notify.Multi(hub, notify.LogSink(log.ForService("notify")))),
		confirmer: confirm,
		observers: []engine.Observer{m},
		onChange:  hub.StateChanged,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	srv, err := web.NewServer(web.Options{
		Dashboard: sess.dash,
		Hub:       hub,
		Confirmer: confirm,
		Metrics:   m.Handler(),
	})
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(cfg.Web.Host, strconv.Itoa(cfg.Web.Port))
	server := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go watchConfig(ctx, configPath, func(next *config.Config) {
		sess.dash.Tune(next)
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("dashboard on http://%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Infof("shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// watchConfig calls apply with the reloaded configuration whenever the file
// at path changes. Invalid configurations are logged and ignored. The parent
// directory is watched so editors that replace the file are handled.
func watchConfig(ctx context.Context, path string, apply func(*config.Config)) {
	logger := log.ForService("config")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("failed to create config file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warnf("failed to watch config file %s: %v", path, err)
		return
	}
	logger.Debugf("watching config file for changes: %s", path)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()
	reload := func() {
		cfg, err := config.LoadConfig(path)
		if err != nil {
			logger.Warnf("ignoring config change: %v", err)
			return
		}
		apply(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debugf("config file changed (%s)", event.Op)
			// editors write in several steps
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("config file watcher error: %v", err)
		}
	}
}
