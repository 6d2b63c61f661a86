package models

import (
	"encoding/json"
	"strings"
	"time"
)

type MessageType string

const (
	MessageTypeNewMessage     MessageType = "NewMessage"
	MessageTypeUserList       MessageType = "UserList"
	MessageTypeChangeUserName MessageType = "ChangeUserName"
)

// SystemAuthor is the author of messages generated by the server itself.
const SystemAuthor = "System"

// naiveLayout is the timestamp format written on the wire (UTC, no zone suffix).
const naiveLayout = "2006-01-02T15:04:05.999999999"

/*** Wire envelope ***/
type WSMessage struct {
	MessageType MessageType  `json:"message_type"`
	Message     *ChatMessage `json:"message,omitempty"`
	Users       []string     `json:"users,omitempty"`
	UserName    *string      `json:"user_name,omitempty"`
}

type ChatMessage struct {
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt Timestamp `json:"created_at"`
}

// Timestamp marshals as a naive UTC date-time and accepts either that form or RFC 3339.
type Timestamp struct {
	time.Time
}

func Now() Timestamp { return Timestamp{Time: time.Now().UTC()} }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(naiveLayout))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed.UTC()
		return nil
	}
	parsed, err := time.Parse(naiveLayout, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func NewChatEnvelope(msg ChatMessage) WSMessage {
	return WSMessage{MessageType: MessageTypeNewMessage, Message: &msg}
}

func NewUserListEnvelope(users []string) WSMessage {
	return WSMessage{MessageType: MessageTypeUserList, Users: users}
}

func NewUserNameEnvelope(name string) WSMessage {
	return WSMessage{MessageType: MessageTypeChangeUserName, UserName: &name}
}
