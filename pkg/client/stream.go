package client

import (
	"context"
	"net"

	"github.com/gorilla/websocket"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battmoji/pkg/animation"
)

// StreamFrames connects to the animation stream. The first frame is the
// current snapshot. The channel is closed when ctx is done or the
// connection drops.
func (c *Client) StreamFrames(ctx context.Context) (<-chan animation.Frame, error) {
	dialer := websocket.Dialer{
		NetDialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialSocket(ctx, c.socketPath)
		},
	}

	conn, _, err := dialer.DialContext(ctx, "ws://unix/animation/stream", nil)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to connect to animation stream")
	}

	ch := make(chan animation.Frame, 4)
	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		case <-done:
		}
		_ = conn.Close()
	}()

	go func() {
		defer close(ch)
		defer close(done)
		for {
			var f animation.Frame
			if err := conn.ReadJSON(&f); err != nil {
				if ctx.Err() == nil {
					logrus.WithError(err).Debug("animation stream closed")
				}
				return
			}
			select {
			case ch <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}
