package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battmoji/pkg/animation"
	"github.com/charlie0129/battmoji/pkg/config"
	"github.com/charlie0129/battmoji/pkg/events"
	"github.com/charlie0129/battmoji/pkg/monitor"
	"github.com/charlie0129/battmoji/pkg/notify"
	"github.com/charlie0129/battmoji/pkg/probe"
	"github.com/charlie0129/battmoji/pkg/runloop"
)

// Options configure Run.
type Options struct {
	ConfigPath   string
	SocketPath   string
	AllowNonRoot bool
	// ProbeFile makes the daemon read power sources from a JSON file
	// instead of the battery.
	ProbeFile string
	// WatchConfig reloads the config when the file changes.
	WatchConfig bool
}

func newProbe(opts Options) probe.Probe {
	if opts.ProbeFile != "" {
		logrus.WithField("path", opts.ProbeFile).Info("reading power sources from file")
		return probe.File{Path: opts.ProbeFile}
	}
	return probe.NewBattery()
}

func Run(opts Options) error {
	conf, err := config.NewFile(opts.ConfigPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to parse config during startup")
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := runloop.New()
	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logrus.Errorf("run loop exited: %v", err)
		}
	}()

	hub := events.NewEventHub()

	notifier := notify.Multi{
		notify.NewPoller(conf.PollInterval()),
		notify.NewSignal(),
	}
	mon := monitor.New(newProbe(opts), notifier, loop)
	anim := animation.New(loop, hubSink{hub: hub}, animation.Options{
		Glyph:        conf.Emoji(),
		ScreenWidth:  conf.ScreenWidth(),
		ScreenHeight: conf.ScreenHeight(),
	})
	s := newServer(conf, mon, anim, hub)

	// Degrades to the default state on failure.
	if err := mon.Initialize(); err != nil {
		logrus.Errorf("failed to initialize power monitor: %v", err)
	}
	logrus.WithField("status", mon.FormatStatus(conf.Emoji())).Info("power monitor started")

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			if err := s.reloadConfig(); err != nil {
				logrus.Errorf("failed to reload config: %v", err)
			}
		}
	}()

	// Receive SIGUSR2 to play the animation
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGUSR2)
		for range sigc {
			anim.StartAsync()
		}
	}()

	if opts.WatchConfig {
		w, err := config.NewWatcher(opts.ConfigPath, 0, func() {
			if err := s.reloadConfig(); err != nil {
				logrus.Errorf("failed to reload config: %v", err)
			}
		})
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			logrus.Warnf("config file will not be watched: %v", err)
		} else {
			defer w.Stop()
		}
	}

	srv := &http.Server{
		Handler:           s.setupRoutes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	l, err := listen(opts.SocketPath)
	if err != nil {
		return err
	}

	if conf.AllowNonRootAccess() || opts.AllowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", opts.SocketPath)
		err = os.Chmod(opts.SocketPath, 0777)
		if err != nil {
			_ = l.Close()
			return pkgerrors.Wrapf(err, "failed to change permissions of %s", opts.SocketPath)
		}
	}

	// Serve HTTP on unix socket
	serveErr := make(chan error, 1)
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	var runErr error
	select {
	case sig := <-sigc:
		logrus.Infof("caught signal \"%s\": shutting down.", sig)
	case err := <-serveErr:
		runErr = pkgerrors.Wrapf(err, "http server failed")
		logrus.Error(runErr)
	}

	logrus.Info("shutting down http server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	shutdownCancel()

	logrus.Info("stopping power source notifications")
	mon.Close()

	if err := anim.Stop(); err != nil {
		logrus.Warnf("failed to stop animation: %v", err)
	}

	cancel()
	<-loop.Done()

	logrus.Info("exiting")
	return runErr
}

// listen creates the unix socket. A socket file left behind by a daemon that
// did not shut down cleanly is removed; a live one is an error.
func listen(socketPath string) (net.Listener, error) {
	if _, err := os.Stat(socketPath); err == nil {
		conn, dialErr := net.DialTimeout("unix", socketPath, time.Second)
		if dialErr == nil {
			_ = conn.Close()
			return nil, pkgerrors.Errorf("another daemon is already listening on %s", socketPath)
		}
		logrus.Warnf("removing stale socket %s", socketPath)
		if err := os.Remove(socketPath); err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to remove stale socket %s", socketPath)
		}
	}

	l, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to listen on %s", socketPath)
	}
	return l, nil
}
