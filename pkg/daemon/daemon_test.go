package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charlie0129/battmoji/pkg/animation"
	"github.com/charlie0129/battmoji/pkg/config"
	"github.com/charlie0129/battmoji/pkg/events"
	"github.com/charlie0129/battmoji/pkg/monitor"
	"github.com/charlie0129/battmoji/pkg/particle"
	"github.com/charlie0129/battmoji/pkg/powerinfo"
	"github.com/charlie0129/battmoji/pkg/probe"
	"github.com/charlie0129/battmoji/pkg/runloop"
)

type testProbe struct {
	mu   sync.Mutex
	desc powerinfo.Description
}

func (p *testProbe) Sources() ([]powerinfo.Description, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return []powerinfo.Description{p.desc}, nil
}

func (p *testProbe) set(desc powerinfo.Description) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.desc = desc
}

type testEnv struct {
	server *server
	router http.Handler
	conf   *config.File
	probe  *testProbe
	hub    *events.EventHub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvAt(t, filepath.Join(t.TempDir(), "battmoji.json"))
}

// newTestEnvAt is like newTestEnv with the config saved to configPath.
func newTestEnvAt(t *testing.T, configPath string) *testEnv {
	t.Helper()

	loop := runloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})

	p := &testProbe{desc: powerinfo.Description{
		powerinfo.PowerSourceStateKey: powerinfo.BatteryPowerValue,
		powerinfo.CurrentCapacityKey:  42,
		powerinfo.IsChargingKey:       false,
		powerinfo.TimeToEmptyKey:      90,
	}}

	conf := config.NewFileFromConfig(nil, configPath)
	hub := events.NewEventHub()
	mon := monitor.New(p, nil, loop)
	anim := animation.New(loop, hubSink{hub: hub}, animation.Options{
		Glyph:   conf.Emoji(),
		System:  particle.NewSeededSystem(1),
		Timeout: 200 * time.Millisecond,
	})
	s := newServer(conf, mon, anim, hub)
	if err := mon.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	return &testEnv{server: s, router: s.setupRoutes(), conf: conf, probe: p, hub: hub}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestGetStatusAndPowerState(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d", w.Code)
	}
	if got := decode[string](t, w); got != "⚡️ 1:30" {
		t.Fatalf("status = %q, want %q", got, "⚡️ 1:30")
	}

	w = e.do(t, http.MethodGet, "/power-state", "")
	st := decode[powerinfo.PowerState](t, w)
	if st.Percentage != 42 || st.PluggedIn || st.TimeRemainingMinutes == nil || *st.TimeRemainingMinutes != 90 {
		t.Fatalf("unexpected power state %+v", st)
	}

	w = e.do(t, http.MethodGet, "/details", "")
	rows := decode[[]powerinfo.DetailRow](t, w)
	if len(rows) == 0 {
		t.Fatalf("expected detail rows")
	}
}

func TestRefresh(t *testing.T) {
	e := newTestEnv(t)
	e.probe.set(powerinfo.Description{
		powerinfo.PowerSourceStateKey: powerinfo.ACPowerValue,
		powerinfo.CurrentCapacityKey:  80,
		powerinfo.IsChargingKey:       false,
	})

	w := e.do(t, http.MethodPost, "/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d", w.Code)
	}
	if st := decode[powerinfo.PowerState](t, w); !st.PluggedIn || st.Percentage != 80 {
		t.Fatalf("unexpected state after refresh %+v", st)
	}

	if got := decode[string](t, e.do(t, http.MethodGet, "/status", "")); got != "⚡️ 80%" {
		t.Fatalf("status = %q", got)
	}
	if refreshes := decode[[]string](t, e.do(t, http.MethodGet, "/refreshes", "")); len(refreshes) != 2 {
		t.Fatalf("expected 2 recorded refreshes, got %d", len(refreshes))
	}
}

func TestSetEmoji(t *testing.T) {
	e := newTestEnv(t)
	ch := e.hub.Subscribe()
	defer e.hub.Unsubscribe(ch)

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "not json", body: `🌟`, code: http.StatusBadRequest},
		{name: "empty", body: `""`, code: http.StatusBadRequest},
		{name: "valid", body: `"🌟"`, code: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := e.do(t, http.MethodPut, "/emoji", tt.body); w.Code != tt.code {
				t.Fatalf("status code = %d, want %d (%s)", w.Code, tt.code, w.Body.String())
			}
		})
	}

	if got := decode[string](t, e.do(t, http.MethodGet, "/emoji", "")); got != "🌟" {
		t.Fatalf("emoji = %q", got)
	}
	if got := decode[string](t, e.do(t, http.MethodGet, "/status", "")); got != "🌟 1:30" {
		t.Fatalf("status = %q", got)
	}
	if got := e.server.animation.Glyph(); got != "🌟" {
		t.Fatalf("animation glyph = %q", got)
	}

	saved, err := config.NewFile(e.conf.Path())
	if err != nil {
		t.Fatal(err)
	}
	if saved.Emoji() != "🌟" {
		t.Fatalf("emoji was not saved")
	}

	ev := waitEvent(t, ch, events.EmojiChanged)
	p, err := events.DecodeAs[events.EmojiChangedEvent](ev)
	if err != nil || p.From != "⚡️" || p.To != "🌟" {
		t.Fatalf("unexpected emoji event %+v (%v)", p, err)
	}

	// Setting the same emoji again does not publish a change.
	e.do(t, http.MethodPut, "/emoji", `"🌟"`)
	select {
	case ev := <-ch:
		if ev.Name == events.EmojiChanged {
			t.Fatalf("unchanged emoji was published")
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSetEmojiSaveFailureKeepsEmoji(t *testing.T) {
	// The parent directory does not exist, so saving fails.
	e := newTestEnvAt(t, filepath.Join(t.TempDir(), "missing", "battmoji.json"))
	ch := e.hub.Subscribe()
	defer e.hub.Unsubscribe(ch)

	for i := 0; i < 2; i++ {
		if w := e.do(t, http.MethodPut, "/emoji", `"🌟"`); w.Code != http.StatusInternalServerError {
			t.Fatalf("attempt %d: status code = %d, want 500 (%s)", i, w.Code, w.Body.String())
		}

		if got := decode[string](t, e.do(t, http.MethodGet, "/emoji", "")); got != "⚡️" {
			t.Fatalf("attempt %d: emoji = %q, want ⚡️", i, got)
		}
		if got := decode[string](t, e.do(t, http.MethodGet, "/status", "")); got != "⚡️ 1:30" {
			t.Fatalf("attempt %d: status = %q", i, got)
		}
		if got := e.server.animation.Glyph(); got != "⚡️" {
			t.Fatalf("attempt %d: animation glyph = %q", i, got)
		}
	}

	select {
	case ev := <-ch:
		if ev.Name == events.EmojiChanged {
			t.Fatalf("emoji change published after a failed save: %s", ev.Data)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReloadConfigPublishesEmojiChange(t *testing.T) {
	e := newTestEnv(t)
	ch := e.hub.Subscribe()
	defer e.hub.Unsubscribe(ch)

	content := `{"emoji":"✨","screenWidth":800,"screenHeight":600}`
	if err := os.WriteFile(e.conf.Path(), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := e.server.reloadConfig(); err != nil {
		t.Fatalf("reloadConfig: %v", err)
	}

	ev := waitEvent(t, ch, events.EmojiChanged)
	if p, _ := events.DecodeAs[events.EmojiChangedEvent](ev); p.To != "✨" {
		t.Fatalf("unexpected payload %+v", p)
	}
	if got := e.server.animation.Glyph(); got != "✨" {
		t.Fatalf("animation glyph = %q", got)
	}

	if err := os.WriteFile(e.conf.Path(), []byte(`{`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := e.server.reloadConfig(); err == nil {
		t.Fatalf("expected an error for a malformed config")
	}
}

func TestAnimationEndpoints(t *testing.T) {
	e := newTestEnv(t)
	ch := e.hub.Subscribe()
	defer e.hub.Unsubscribe(ch)

	if f := decode[animation.Frame](t, e.do(t, http.MethodGet, "/animation", "")); f.Running {
		t.Fatalf("animation running before start")
	}

	if started := decode[bool](t, e.do(t, http.MethodPost, "/animation", "")); !started {
		t.Fatalf("first start returned false")
	}
	if started := decode[bool](t, e.do(t, http.MethodPost, "/animation", "")); started {
		t.Fatalf("second start returned true")
	}

	f := decode[animation.Frame](t, e.do(t, http.MethodGet, "/animation", ""))
	if !f.Running || len(f.Particles) != animation.ParticleCount {
		t.Fatalf("unexpected frame %+v", f)
	}

	waitEvent(t, ch, events.AnimationReset)
	waitEvent(t, ch, events.AnimationFrame)
	waitEvent(t, ch, events.AnimationHide)

	resets := 0
	for {
		select {
		case ev := <-ch:
			if ev.Name == events.AnimationReset {
				resets++
			}
			continue
		default:
		}
		break
	}
	if resets != 0 {
		t.Fatalf("a second reset was broadcast")
	}
}

func TestGetConfigAndVersion(t *testing.T) {
	e := newTestEnv(t)

	raw := decode[config.RawFileConfig](t, e.do(t, http.MethodGet, "/config", ""))
	if raw.Emoji == nil || *raw.Emoji != config.DefaultEmoji || raw.ScreenWidth == nil || *raw.ScreenWidth != 1440 {
		t.Fatalf("unexpected config %+v", raw)
	}

	if w := e.do(t, http.MethodGet, "/version", ""); w.Code != http.StatusOK {
		t.Fatalf("status code = %d", w.Code)
	}
}

func TestEventStream(t *testing.T) {
	e := newTestEnv(t)
	ts := httptest.NewServer(e.router)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	var names []string
	for sc.Scan() {
		line := sc.Text()
		if name, ok := strings.CutPrefix(line, "event:"); ok {
			names = append(names, strings.TrimSpace(name))
			if len(names) == 1 {
				// The initial event is in; trigger a live one.
				go e.do(t, http.MethodPost, "/refresh", "")
			}
			if len(names) == 2 {
				break
			}
		}
	}

	if len(names) != 2 || names[0] != events.PowerState || names[1] != events.PowerState {
		t.Fatalf("unexpected events %v", names)
	}
}

func TestAnimationStream(t *testing.T) {
	e := newTestEnv(t)
	ts := httptest.NewServer(e.router)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/animation/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readFrame := func() animation.Frame {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var f animation.Frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read: %v", err)
		}
		return f
	}

	if f := readFrame(); f.Running {
		t.Fatalf("initial frame must be idle")
	}

	// The subscription is registered before the snapshot is written, so
	// everything after the first message is delivered.
	if !e.server.animation.Start() {
		t.Fatalf("Start() = false")
	}
	if f := readFrame(); !f.Running || len(f.Particles) == 0 {
		t.Fatalf("expected a running frame, got %+v", f)
	}

	for {
		if f := readFrame(); !f.Running {
			break
		}
	}
}

func waitEvent(t *testing.T, ch chan events.Event, name string) events.Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Name == name {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", name)
		}
	}
}

var _ probe.Probe = (*testProbe)(nil)
