package daemon

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battmoji/pkg/animation"
	"github.com/charlie0129/battmoji/pkg/config"
	"github.com/charlie0129/battmoji/pkg/events"
	"github.com/charlie0129/battmoji/pkg/monitor"
	"github.com/charlie0129/battmoji/pkg/powerinfo"
)

// server holds everything the HTTP handlers touch.
type server struct {
	conf      config.Config
	monitor   *monitor.Monitor
	animation *animation.Controller
	hub       *events.EventHub
	recorder  *RefreshRecorder

	// confMu serializes config writes and reloads so an emoji change is
	// published exactly once.
	confMu sync.Mutex
}

func newServer(conf config.Config, m *monitor.Monitor, a *animation.Controller, hub *events.EventHub) *server {
	s := &server{
		conf:      conf,
		monitor:   m,
		animation: a,
		hub:       hub,
		recorder:  NewRefreshRecorder(60),
	}
	m.Subscribe(s.onPowerState)
	return s
}

func (s *server) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/config", s.getConfig)
	router.GET("/status", s.getStatus)
	router.GET("/power-state", s.getPowerState)
	router.GET("/details", s.getDetails)
	router.POST("/refresh", s.refresh)
	router.GET("/refreshes", s.getRefreshes)
	router.GET("/emoji", s.getEmoji)
	router.PUT("/emoji", s.setEmoji)
	router.GET("/animation", s.getAnimation)
	router.POST("/animation", s.startAnimation)
	router.GET("/animation/stream", s.streamAnimation)
	router.GET("/events", s.streamEvents)
	router.GET("/version", getVersion)

	return router
}

// onPowerState runs on the run loop after every snapshot replacement.
func (s *server) onPowerState(st powerinfo.PowerState) {
	s.recorder.Add(time.Now())
	s.hub.Publish(events.PowerState, st)
}

// changeEmoji propagates an emoji change. Callers hold confMu.
func (s *server) changeEmoji(prev, next string) {
	if prev == next {
		return
	}
	s.animation.SetGlyph(next)
	s.hub.Publish(events.EmojiChanged, events.EmojiChangedEvent{
		From: prev,
		To:   next,
		Ts:   time.Now().Unix(),
	})
	logrus.WithFields(logrus.Fields{
		"from": prev,
		"to":   next,
	}).Info("emoji changed")
}

// applyScreen pushes the configured screen size to the animation.
func (s *server) applyScreen() {
	s.animation.SetScreen(s.conf.ScreenWidth(), s.conf.ScreenHeight())
}

// reloadConfig re-reads the config source and applies what changed.
func (s *server) reloadConfig() error {
	s.confMu.Lock()
	defer s.confMu.Unlock()

	prevEmoji := s.conf.Emoji()
	prevPoll := s.conf.PollInterval()

	if err := s.conf.Load(); err != nil {
		return err
	}

	s.changeEmoji(prevEmoji, s.conf.Emoji())
	s.applyScreen()
	if poll := s.conf.PollInterval(); poll != prevPoll {
		logrus.WithFields(logrus.Fields{
			"from": prevPoll,
			"to":   poll,
		}).Warn("poll interval changed, restart the daemon to apply it")
	}

	logrus.Info("config reloaded")
	return nil
}
