package server

// MessageType identifies a live protocol message.
type MessageType string

const (
	MessageEvent  MessageType = "event"
	MessageRender MessageType = "render"
	MessageError  MessageType = "error"
	MessageReload MessageType = "reload"
)

// ClientMessage is sent by the browser.
type ClientMessage struct {
	Type   MessageType    `json:"type"`
	Scope  string         `json:"scope,omitempty"`
	Path   string         `json:"path"`
	Event  string         `json:"event"`
	Detail map[string]any `json:"detail,omitempty"`
}

// ServerMessage is sent to the browser.
type ServerMessage struct {
	Type  MessageType `json:"type"`
	HTML  string      `json:"html,omitempty"`
	Code  string      `json:"code,omitempty"`
	Error string      `json:"error,omitempty"`
}
