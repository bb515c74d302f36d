package client

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charlie0129/battmoji/pkg/animation"
	"github.com/charlie0129/battmoji/pkg/events"
)

// serveUnix serves h on a fresh unix socket and returns its path.
func serveUnix(t *testing.T, h http.Handler) string {
	t.Helper()

	// Socket paths are limited to ~104 bytes, t.TempDir can be longer.
	dir, err := os.MkdirTemp("", "bm")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	path := filepath.Join(dir, "d.sock")
	l, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	srv := &http.Server{Handler: h}
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })
	return path
}

func TestDaemonNotRunning(t *testing.T) {
	c := NewClient(filepath.Join(os.TempDir(), "battmoji-missing-test.sock"))
	_, err := c.Get("/status")
	if !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("err = %v, want ErrDaemonNotRunning", err)
	}
}

func TestAPIs(t *testing.T) {
	var gotEmojiBody, gotContentType string

	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `"⚡️ 1:30"`)
	})
	mux.HandleFunc("GET /power-state", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"pluggedIn":false,"percentage":42,"charging":false,"health":"Good","timeRemainingMinutes":90}`)
	})
	mux.HandleFunc("PUT /emoji", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotEmojiBody = string(b)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `"set emoji to 🌟"`)
	})
	mux.HandleFunc("POST /animation", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "true")
	})
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `"boom"`)
	})

	c := NewClient(serveUnix(t, mux))

	status, err := c.GetStatus()
	if err != nil || status != "⚡️ 1:30" {
		t.Fatalf("GetStatus() = %q, %v", status, err)
	}

	st, err := c.GetPowerState()
	if err != nil {
		t.Fatalf("GetPowerState: %v", err)
	}
	if st.Percentage != 42 || st.TimeRemainingMinutes == nil || *st.TimeRemainingMinutes != 90 {
		t.Fatalf("unexpected state %+v", st)
	}

	msg, err := c.SetEmoji("🌟")
	if err != nil || msg != "set emoji to 🌟" {
		t.Fatalf("SetEmoji() = %q, %v", msg, err)
	}
	if gotEmojiBody != `"🌟"` || gotContentType != "application/json" {
		t.Fatalf("emoji request body %q, content type %q", gotEmojiBody, gotContentType)
	}

	started, err := c.StartAnimation()
	if err != nil || !started {
		t.Fatalf("StartAnimation() = %v, %v", started, err)
	}

	if _, err := c.GetVersion(); err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected a 500 error, got %v", err)
	}

	if _, err := c.Get("/nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if _, err := c.Send("DELETE", "/status", ""); err == nil {
		t.Fatalf("expected an error for an unknown method")
	}
}

func TestParseEventStream(t *testing.T) {
	input := strings.Join([]string{
		": ping",
		"",
		"event:power.state",
		`data:{"percentage":42}`,
		"",
		"event: emoji.changed",
		`data: {"from":"⚡️",`,
		`data: "to":"🌟"}`,
		"",
		"",
	}, "\n")

	ch := make(chan events.Event, 10)
	err := parseEventStream(context.Background(), strings.NewReader(input), ch)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want io.EOF", err)
	}
	close(ch)

	var got []events.Event
	for ev := range ch {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(got), got)
	}
	if got[0].Name != events.PowerState || string(got[0].Data) != `{"percentage":42}` {
		t.Errorf("unexpected first event %q %s", got[0].Name, got[0].Data)
	}
	p, err := events.DecodeAs[events.EmojiChangedEvent](got[1])
	if err != nil || got[1].Name != events.EmojiChanged || p.To != "🌟" {
		t.Errorf("unexpected second event %q %s (%v)", got[1].Name, got[1].Data, err)
	}
}

func TestSubscribeEvents(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "event:animation.reset\ndata:{\"session\":\"s1\"}\n\n")
	})
	c := NewClient(serveUnix(t, mux))

	ctx, cancel := context.WithCancel(context.Background())
	ch := c.SubscribeEvents(ctx)

	// The handler returns after one event, so the client reconnects and
	// receives it again.
	for i := 0; i < 2; i++ {
		select {
		case ev := <-ch:
			p, err := events.DecodeAs[events.SessionEvent](ev)
			if err != nil || ev.Name != events.AnimationReset || p.Session != "s1" {
				t.Fatalf("unexpected event %q %s", ev.Name, ev.Data)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	cancel()
	for range ch {
	}
}

func TestStreamFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /animation/stream", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(animation.Frame{Glyph: "⚡️"})
		_ = conn.WriteJSON(animation.Frame{Running: true, Session: "s1", Tick: 1, Glyph: "⚡️"})
	})
	c := NewClient(serveUnix(t, mux))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := c.StreamFrames(ctx)
	if err != nil {
		t.Fatalf("StreamFrames: %v", err)
	}

	var frames []animation.Frame
	for f := range ch {
		frames = append(frames, f)
	}
	if len(frames) != 2 || frames[0].Running || !frames[1].Running || frames[1].Session != "s1" {
		t.Fatalf("unexpected frames %+v", frames)
	}
}
