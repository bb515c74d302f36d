package daemon

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battmoji/pkg/config"
	"github.com/charlie0129/battmoji/pkg/powerinfo"
	"github.com/charlie0129/battmoji/pkg/version"
)

func (s *server) getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(s.conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func (s *server) getStatus(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.monitor.FormatStatus(s.conf.Emoji()))
}

func (s *server) getPowerState(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.monitor.CurrentState())
}

func (s *server) getDetails(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, powerinfo.Details(s.monitor.CurrentState()))
}

func (s *server) refresh(c *gin.Context) {
	if err := s.monitor.RefreshSync(); err != nil {
		logrus.Errorf("refresh failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.IndentedJSON(http.StatusOK, s.monitor.CurrentState())
}

func (s *server) getRefreshes(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.recorder.Strings())
}

func (s *server) getEmoji(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.conf.Emoji())
}

func (s *server) setEmoji(c *gin.Context) {
	var e string
	if err := c.BindJSON(&e); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	s.confMu.Lock()
	defer s.confMu.Unlock()

	prev := s.conf.Emoji()
	if err := s.conf.SetEmoji(e); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}
	if err := s.conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		// Keep status and animation on the same glyph.
		if rerr := s.conf.SetEmoji(prev); rerr != nil {
			logrus.Errorf("failed to restore emoji %q: %v", prev, rerr)
		}
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	next := s.conf.Emoji()
	s.changeEmoji(prev, next)

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("set emoji to %s, status: %s", next, s.monitor.FormatStatus(next)))
}

func (s *server) getAnimation(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.animation.Snapshot())
}

func (s *server) startAnimation(c *gin.Context) {
	started := s.animation.Start()
	if !started {
		logrus.Debug("animation start ignored")
	}
	c.IndentedJSON(http.StatusOK, started)
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
