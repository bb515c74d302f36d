// Package tui renders the daemon's animation frames in a terminal.
package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battmoji/pkg/animation"
	"github.com/charlie0129/battmoji/pkg/client"
	"github.com/charlie0129/battmoji/pkg/events"
	"github.com/charlie0129/battmoji/pkg/utils/ptr"
)

// programRef is a shared reference to the tea.Program for goroutine sends.
// It's set after tea.NewProgram but before p.Run().
type programRef struct {
	mu sync.Mutex
	p  *tea.Program
}

func (r *programRef) Set(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = p
}

func (r *programRef) Send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Clear nils out the program reference, preventing post-exit sends.
func (r *programRef) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = nil
}

// Run shows the status and animation until the user quits.
func Run(api *client.Client) error {
	screenW, screenH := float64(animation.DefaultScreenWidth), float64(animation.DefaultScreenHeight)
	if raw, err := api.GetConfig(); err == nil {
		screenW = ptr.Deref(raw.ScreenWidth, screenW)
		screenH = ptr.Deref(raw.ScreenHeight, screenH)
	} else {
		logrus.WithError(err).Debug("failed to get config, using the default screen size")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames, err := api.StreamFrames(ctx)
	if err != nil {
		return err
	}

	ref := &programRef{}
	defer ref.Clear()
	p := tea.NewProgram(NewModel(api, screenW, screenH), tea.WithAltScreen())
	ref.Set(p)

	go func() {
		for f := range frames {
			ref.Send(FrameMsg{Frame: f})
		}
		if ctx.Err() == nil {
			ref.Send(StreamEndedMsg{})
		}
	}()

	go func() {
		for ev := range api.SubscribeEvents(ctx) {
			switch ev.Name {
			case events.PowerState, events.EmojiChanged:
				ref.Send(fetchStatus(api))
			}
		}
	}()

	_, err = p.Run()
	return err
}
