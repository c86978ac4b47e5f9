package irisfast

import "strings"

// Message is one chat event pushed by Iris over the WebSocket.
type Message struct {
	Msg    string       `json:"msg"`
	Room   string       `json:"room"`
	Sender *string      `json:"sender,omitempty"`
	JSON   *MessageJSON `json:"json,omitempty"`
}

// MessageJSON is the raw chat_logs row Iris attaches to each event.
type MessageJSON struct {
	ID      string `json:"_id,omitempty"`
	ChatID  string `json:"chat_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
}

// ChannelID is the stable chat id when Iris provides one, else the room name.
func (m *Message) ChannelID() string {
	if m.JSON != nil && strings.TrimSpace(m.JSON.ChatID) != "" {
		return strings.TrimSpace(m.JSON.ChatID)
	}
	return strings.TrimSpace(m.Room)
}

func (m *Message) UserID() string {
	if m.JSON != nil && strings.TrimSpace(m.JSON.UserID) != "" {
		return strings.TrimSpace(m.JSON.UserID)
	}
	return m.SenderName()
}

func (m *Message) SenderName() string {
	if m.Sender == nil {
		return ""
	}
	return strings.TrimSpace(*m.Sender)
}

// Config is GET /config.
type Config struct {
	BotName           string `json:"bot_name"`
	BotID             int64  `json:"bot_id"`
	Port              int    `json:"bot_http_port"`
	PollingSpeed      int    `json:"db_polling_rate"`
	MessageRate       int    `json:"message_send_rate"`
	WebserverEndpoint string `json:"web_server_endpoint"`
}

// ReplyRequest is the body of POST /reply and the frame written on the WebSocket.
type ReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}

type WebSocketState string

const (
	WSStateDisconnected WebSocketState = "disconnected"
	WSStateConnecting   WebSocketState = "connecting"
	WSStateConnected    WebSocketState = "connected"
	WSStateReconnecting WebSocketState = "reconnecting"
	WSStateFailed       WebSocketState = "failed"
)
