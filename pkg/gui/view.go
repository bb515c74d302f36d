package gui

import (
	"fmt"

	"github.com/charlie0129/battmoji/pkg/powerinfo"
)

// maxDetailRows is the number of pre-allocated detail items. Details never
// returns more rows than this.
const maxDetailRows = 4

// view is everything the tray shows, computed from one daemon poll.
type view struct {
	Title          string
	Header         string
	Rows           []string
	Emoji          string
	AnimationTitle string
	Available      bool
}

// snapshot is what one poll of the daemon returned. A nil State means the
// daemon could not be reached.
type snapshot struct {
	Status  string
	State   *powerinfo.PowerState
	Emoji   string
	Running bool
}

func buildView(s snapshot) view {
	if s.State == nil {
		return view{
			Title:          notRunningTitle,
			Header:         notRunningHeader,
			AnimationTitle: "Play animation",
		}
	}

	v := view{
		Title:          s.Status,
		Header:         fmt.Sprintf("%s %d%% · %s", powerinfo.Icon(*s.State), s.State.Percentage, powerinfo.StatusText(*s.State)),
		Emoji:          s.Emoji,
		AnimationTitle: "Play animation",
		Available:      true,
	}
	if s.Running {
		v.AnimationTitle = "Playing..."
	}
	for _, row := range powerinfo.Details(*s.State) {
		if len(v.Rows) == maxDetailRows {
			break
		}
		v.Rows = append(v.Rows, row.Label+": "+row.Value)
	}
	return v
}

// checkedIndex returns the position of emoji in choices, or -1.
func checkedIndex(emoji string, choices []string) int {
	for i, c := range choices {
		if c == emoji {
			return i
		}
	}
	return -1
}
