package daemon

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battmoji/pkg/animation"
	"github.com/charlie0129/battmoji/pkg/events"
)

const (
	streamWriteTimeout = 2 * time.Second
	// ssePingInterval keeps idle SSE connections from being reaped.
	ssePingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// hubSink forwards animation signals to the event hub.
type hubSink struct {
	hub *events.EventHub
}

func (s hubSink) Reset(session string) {
	s.hub.Publish(events.AnimationReset, events.SessionEvent{Session: session, Ts: time.Now().UnixMilli()})
}

func (s hubSink) Frame(f animation.Frame) {
	s.hub.Publish(events.AnimationFrame, f)
}

func (s hubSink) Hide(session string) {
	s.hub.Publish(events.AnimationHide, events.SessionEvent{Session: session, Ts: time.Now().UnixMilli()})
}

// streamEvents serves every hub event as server-sent events. The first
// event is the current power state.
func (s *server) streamEvents(c *gin.Context) {
	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)
	logrus.WithField("subscribers", s.hub.Subscribers()).Debug("event stream opened")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	initial, err := json.Marshal(s.monitor.CurrentState())
	if err == nil {
		c.SSEvent(events.PowerState, string(initial))
		c.Writer.Flush()
	}

	ping := time.NewTicker(ssePingInterval)
	defer ping.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-ping.C:
			_, err := io.WriteString(w, ": ping\n\n")
			return err == nil
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		}
	})

	logrus.Debug("event stream closed")
}

// streamAnimation upgrades to a websocket and sends every animation frame as
// a JSON text message. When a session ends, the idle frame is sent.
func (s *server) streamAnimation(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		logrus.WithError(err).Warn("failed to upgrade animation stream")
		return
	}
	defer conn.Close()

	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)
	logrus.WithField("subscribers", s.hub.Subscribers()).Debug("animation stream opened")

	// The client never sends anything we care about, but reading is needed
	// to process close and ping frames.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	write := func(data []byte) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logrus.WithError(err).Debug("animation stream write failed")
			return false
		}
		return true
	}
	writeSnapshot := func() bool {
		b, err := json.Marshal(s.animation.Snapshot())
		if err != nil {
			logrus.WithError(err).Error("failed to marshal frame")
			return false
		}
		return write(b)
	}

	if !writeSnapshot() {
		return
	}

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			switch ev.Name {
			case events.AnimationFrame:
				if !write(ev.Data) {
					return
				}
			case events.AnimationHide, events.EmojiChanged:
				if !writeSnapshot() {
					return
				}
			}
		}
	}
}
