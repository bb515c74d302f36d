package client

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battmoji/pkg/events"
)

const (
	minReconnectDelay = 500 * time.Millisecond
	maxReconnectDelay = 30 * time.Second
)

// SubscribeEvents streams daemon events until ctx is cancelled. It
// reconnects with backoff when the daemon goes away. The returned channel
// is closed when ctx is done.
func (c *Client) SubscribeEvents(ctx context.Context) <-chan events.Event {
	ch := make(chan events.Event, 16)

	go func() {
		defer close(ch)

		delay := minReconnectDelay
		for {
			start := time.Now()
			err := c.readEvents(ctx, ch)
			if ctx.Err() != nil {
				return
			}
			// A connection that lived for a while resets the backoff.
			if time.Since(start) > maxReconnectDelay {
				delay = minReconnectDelay
			}
			logrus.WithError(err).WithField("retryIn", delay).Debug("event stream disconnected")

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, maxReconnectDelay)
		}
	}()

	return ch
}

func (c *Client) readEvents(ctx context.Context, ch chan<- events.Event) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://unix/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pkgerrors.Errorf("unexpected status %d", resp.StatusCode)
	}

	return parseEventStream(ctx, resp.Body, ch)
}

// parseEventStream reads server-sent events from r. Comment lines are
// skipped and multiple data lines of one event are joined with newlines.
func parseEventStream(ctx context.Context, r io.Reader, ch chan<- events.Event) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var name string
	var data []string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if name == "" && len(data) == 0 {
				continue
			}
			ev := events.Event{Name: name, Data: []byte(strings.Join(data, "\n"))}
			name, data = "", nil
			select {
			case ch <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		case strings.HasPrefix(line, ":"):
		default:
			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			switch field {
			case "event":
				name = value
			case "data":
				data = append(data, value)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}
