package gui

import (
	"context"
	"time"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battmoji/pkg/client"
	"github.com/charlie0129/battmoji/pkg/config"
	"github.com/charlie0129/battmoji/pkg/events"
	"github.com/charlie0129/battmoji/pkg/version"
)

// fallbackPollInterval refreshes the menu when no event arrives, e.g. while
// the event stream is reconnecting.
const fallbackPollInterval = 30 * time.Second

type tray struct {
	api *client.Client

	header  *systray.MenuItem
	rows    []*systray.MenuItem
	icons   *systray.MenuItem
	emojis  []*systray.MenuItem
	animate *systray.MenuItem
	quit    *systray.MenuItem

	updateCh chan struct{}
	cancel   context.CancelFunc
}

// Run shows the menu bar item and blocks until it quits.
func Run(unixSocketPath string) {
	logrus.WithField("version", version.Version).WithField("gitCommit", version.GitCommit).Info("battmoji gui")

	t := &tray{
		api:      client.NewClient(unixSocketPath),
		updateCh: make(chan struct{}, 1),
	}
	systray.Run(t.onReady, t.onExit)
}

func (t *tray) onReady() {
	systray.SetTitle("🔋 ...")
	systray.SetTooltip(appTooltip)

	t.header = systray.AddMenuItem("Connecting...", "Battery status")
	t.header.Disable()

	// Detail rows are allocated up front and shown as needed.
	for range maxDetailRows {
		item := systray.AddMenuItem("", "")
		item.Disable()
		item.Hide()
		t.rows = append(t.rows, item)
	}

	systray.AddSeparator()

	t.icons = systray.AddMenuItem("Select Icon", "Choose the menu bar glyph")
	for _, e := range config.DefaultEmojis {
		t.emojis = append(t.emojis, t.icons.AddSubMenuItemCheckbox(e, emojiTooltip, false))
	}
	t.animate = systray.AddMenuItem("Play animation", animateTooltip)

	systray.AddSeparator()
	t.quit = systray.AddMenuItem("Quit", quitTooltip)

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	go t.handleClicks(ctx)
	go t.updateLoop(ctx)
	go t.startEventBridge(ctx)
	t.requestUpdate()
}

func (t *tray) onExit() {
	if t.cancel != nil {
		t.cancel()
	}
	logrus.Info("battmoji gui exited")
}

func (t *tray) handleClicks(ctx context.Context) {
	picked := make(chan string)
	for i, item := range t.emojis {
		emoji := config.DefaultEmojis[i]
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-item.ClickedCh:
					select {
					case picked <- emoji:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case emoji := <-picked:
			if _, err := t.api.SetEmoji(emoji); err != nil {
				logrus.WithError(err).Error("failed to set emoji")
			}
			t.requestUpdate()
		case <-t.animate.ClickedCh:
			started, err := t.api.StartAnimation()
			if err != nil {
				logrus.WithError(err).Error("failed to start animation")
				continue
			}
			logrus.WithField("started", started).Debug("animation requested")
		case <-t.quit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

// requestUpdate schedules a refresh of the menu. Requests made while one is
// pending are merged.
func (t *tray) requestUpdate() {
	select {
	case t.updateCh <- struct{}{}:
	default:
	}
}

func (t *tray) updateLoop(ctx context.Context) {
	ticker := time.NewTicker(fallbackPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-t.updateCh:
		}
		t.render(buildView(t.poll()))
	}
}

// poll reads everything the menu shows from the daemon.
func (t *tray) poll() snapshot {
	state, err := t.api.GetPowerState()
	if err != nil {
		logrus.WithError(err).Debug("failed to get power state")
		return snapshot{}
	}

	s := snapshot{State: state}
	if s.Status, err = t.api.GetStatus(); err != nil {
		logrus.WithError(err).Warn("failed to get status")
	}
	if s.Emoji, err = t.api.GetEmoji(); err != nil {
		logrus.WithError(err).Warn("failed to get emoji")
	}
	if frame, err := t.api.GetAnimation(); err == nil {
		s.Running = frame.Running
	}
	return s
}

func (t *tray) render(v view) {
	systray.SetTitle(v.Title)
	t.header.SetTitle(v.Header)

	for i, item := range t.rows {
		if i < len(v.Rows) {
			item.SetTitle(v.Rows[i])
			item.Show()
		} else {
			item.Hide()
		}
	}

	checked := checkedIndex(v.Emoji, config.DefaultEmojis)
	for i, item := range t.emojis {
		if i == checked {
			item.Check()
		} else {
			item.Uncheck()
		}
	}

	t.animate.SetTitle(v.AnimationTitle)
	if v.Available {
		t.icons.Enable()
		t.animate.Enable()
	} else {
		t.icons.Disable()
		t.animate.Disable()
	}
}

// startEventBridge subscribes to daemon events and refreshes the menu when
// something it shows has changed.
func (t *tray) startEventBridge(ctx context.Context) {
	for ev := range t.api.SubscribeEvents(ctx) {
		logrus.WithFields(logrus.Fields{
			"event": ev.Name,
			"data":  string(ev.Data),
		}).Trace("new event")

		switch ev.Name {
		case events.PowerState, events.EmojiChanged, events.AnimationReset, events.AnimationHide:
			t.requestUpdate()
		}
	}
}
