package supervisor

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of message on the control socket.
type MessageType string

const (
	MsgRelaunch  MessageType = "relaunch" // second instance forwarding its activation
	MsgToggle    MessageType = "toggle"
	MsgShow      MessageType = "show"
	MsgHide      MessageType = "hide"
	MsgStatus    MessageType = "status"    // request current window state
	MsgSubscribe MessageType = "subscribe" // stream state transitions
	MsgState     MessageType = "state"     // owner -> client: state payload
	MsgQuit      MessageType = "quit"
	MsgOK        MessageType = "ok"
	MsgPing      MessageType = "ping"
	MsgPong      MessageType = "pong"
)

// TokenSource records why an activation occurred.
type TokenSource string

const (
	SourceMenu     TokenSource = "menu"
	SourceHotkey   TokenSource = "hotkey"
	SourceRelaunch TokenSource = "relaunch"
	SourceCLI      TokenSource = "cli"
)

// LaunchToken identifies one activation request. Created per event, consumed
// immediately, never persisted.
type LaunchToken struct {
	Source TokenSource `json:"source"`
	Time   time.Time   `json:"time"`
}

// NewToken creates a token stamped with the current time.
func NewToken(source TokenSource) LaunchToken {
	return LaunchToken{Source: source, Time: time.Now()}
}

// Message is the base structure for owner<->client communication,
// newline-delimited JSON on the unix socket.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// StatePayload carries the window state in status replies and subscription
// broadcasts. Seq is monotonic per owner so clients can drop stale frames.
type StatePayload struct {
	Seq   uint64 `json:"seq"`
	State string `json:"state"`
}

// decodePayload re-marshals the generic payload into a concrete type.
func decodePayload(payload interface{}, dst interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
