package events

import "encoding/json"

// Event name constants
const (
	PowerState     = "power.state"
	AnimationReset = "animation.reset"
	AnimationFrame = "animation.frame"
	AnimationHide  = "animation.hide"
	EmojiChanged   = "emoji.changed"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// SessionEvent is the typed payload for animation.reset and animation.hide.
type SessionEvent struct {
	Session string `json:"session"`
	Ts      int64  `json:"ts"`
}

// EmojiChangedEvent is the typed payload for emoji.changed.
type EmojiChangedEvent struct {
	From string `json:"from"`
	To   string `json:"to"`
	Ts   int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.EmojiChangedEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.From, payload.To)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
