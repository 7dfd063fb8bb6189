package model

import (
	"encoding/json"

	"github.com/JackBinary/SyncStream/pkg/media"
)

// Inbound message types
const (
	MsgPing  = "ping"
	MsgJoin  = "join"
	MsgChat  = "chat"
	MsgQueue = "queue"
	MsgSkip  = "skip"
	MsgPlay  = "play"
	MsgPause = "pause"
	MsgSeek  = "seek"
	MsgEnded = "ended"
)

// MaxChatLength caps chat messages after trimming
const MaxChatLength = 500

// Inbound is the envelope of a client frame. Position stays untyped
// because clients are not trusted to send a number; ClampPosition
// coerces it.
type Inbound struct {
	Type     string          `json:"type"`
	Nick     string          `json:"nick"`
	Text     string          `json:"text"`
	URL      string          `json:"url"`
	Position interface{}     `json:"position"`
	T        json.RawMessage `json:"t"`
}

// ClampPosition coerces a raw position value to a non-negative number
// of seconds. Anything non-numeric becomes 0.
func ClampPosition(v interface{}) float64 {
	switch pos := v.(type) {
	case float64:
		if pos < 0 {
			return 0
		}
		return pos
	default:
		return 0
	}
}

type (
	// StateEvent is sent once to a member right after it joins
	StateEvent struct {
		Type     string        `json:"type"`
		Current  *media.Item   `json:"current"`
		Queue    []*media.Item `json:"queue"`
		Playing  bool          `json:"playing"`
		Position float64       `json:"position"`
		Viewers  int           `json:"viewers"`
	}

	PongEvent struct {
		Type string          `json:"type"`
		T    json.RawMessage `json:"t"`
	}

	SystemEvent struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}

	ChatEvent struct {
		Type string `json:"type"`
		Nick string `json:"nick"`
		Text string `json:"text"`
	}

	// LoadEvent tells members to load a new head item (nil when the
	// queue ran out)
	LoadEvent struct {
		Type    string        `json:"type"`
		Current *media.Item   `json:"current"`
		Queue   []*media.Item `json:"queue"`
	}

	QueueUpdateEvent struct {
		Type  string        `json:"type"`
		Queue []*media.Item `json:"queue"`
		Nick  string        `json:"nick"`
	}

	PlaybackEvent struct {
		Type     string  `json:"type"`
		Position float64 `json:"position"`
		Nick     string  `json:"nick,omitempty"`
	}

	ViewersEvent struct {
		Type  string `json:"type"`
		Count int    `json:"count"`
	}
)

func NewState(current *media.Item, queue []*media.Item, playing bool, position float64, viewers int) *StateEvent {
	return &StateEvent{
		Type:     "state",
		Current:  current,
		Queue:    queue,
		Playing:  playing,
		Position: position,
		Viewers:  viewers,
	}
}

func NewPong(t json.RawMessage) *PongEvent {
	return &PongEvent{Type: "pong", T: t}
}

func NewSystem(text string) *SystemEvent {
	return &SystemEvent{Type: "system", Text: text}
}

func NewChat(nick, text string) *ChatEvent {
	return &ChatEvent{Type: "chat", Nick: nick, Text: text}
}

func NewLoad(current *media.Item, queue []*media.Item) *LoadEvent {
	return &LoadEvent{Type: "load", Current: current, Queue: queue}
}

func NewQueueUpdate(queue []*media.Item, nick string) *QueueUpdateEvent {
	return &QueueUpdateEvent{Type: "queue_update", Queue: queue, Nick: nick}
}

func NewPlay(position float64, nick string) *PlaybackEvent {
	return &PlaybackEvent{Type: "play", Position: position, Nick: nick}
}

func NewPause(position float64, nick string) *PlaybackEvent {
	return &PlaybackEvent{Type: "pause", Position: position, Nick: nick}
}

func NewSeek(position float64) *PlaybackEvent {
	return &PlaybackEvent{Type: "seek", Position: position}
}

func NewViewers(count int) *ViewersEvent {
	return &ViewersEvent{Type: "viewers", Count: count}
}
