package session

import (
	"encoding/json"
	"fmt"

	"postbox/internal/models"
)

// inboundEnvelope mirrors models.WSMessage with every field a pointer so an
// absent or null value can be told apart from an empty one.
type inboundEnvelope struct {
	MessageType models.MessageType `json:"message_type"`
	Message     *inboundChat       `json:"message"`
	Users       []string           `json:"users"`
	UserName    *string            `json:"user_name"`
}

type inboundChat struct {
	Message   *string           `json:"message"`
	Author    *string           `json:"author"`
	CreatedAt *models.Timestamp `json:"created_at"`
}

// DecodeMessage parses one inbound frame. Anything the server cannot act on
// fails with ErrMalformedMessage; a chat payload needs every one of its fields.
func DecodeMessage(data []byte) (models.WSMessage, error) {
	var in inboundEnvelope
	if err := json.Unmarshal(data, &in); err != nil {
		return models.WSMessage{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	switch in.MessageType {
	case models.MessageTypeNewMessage:
		chat, err := in.Message.toChat()
		if err != nil {
			return models.WSMessage{}, err
		}
		return models.NewChatEnvelope(chat), nil
	case models.MessageTypeChangeUserName:
		if in.UserName == nil {
			return models.WSMessage{}, fmt.Errorf("%w: ChangeUserName without user_name", ErrMalformedMessage)
		}
		return models.NewUserNameEnvelope(*in.UserName), nil
	case models.MessageTypeUserList:
		return models.NewUserListEnvelope(in.Users), nil
	default:
		return models.WSMessage{}, fmt.Errorf("%w: unknown message_type %q", ErrMalformedMessage, in.MessageType)
	}
}

func (c *inboundChat) toChat() (models.ChatMessage, error) {
	switch {
	case c == nil:
		return models.ChatMessage{}, fmt.Errorf("%w: NewMessage without message", ErrMalformedMessage)
	case c.Message == nil:
		return models.ChatMessage{}, fmt.Errorf("%w: message.message missing", ErrMalformedMessage)
	case c.Author == nil:
		return models.ChatMessage{}, fmt.Errorf("%w: message.author missing", ErrMalformedMessage)
	case c.CreatedAt == nil:
		return models.ChatMessage{}, fmt.Errorf("%w: message.created_at missing", ErrMalformedMessage)
	}
	return models.ChatMessage{Message: *c.Message, Author: *c.Author, CreatedAt: *c.CreatedAt}, nil
}

// Dispatch applies one decoded inbound envelope from participant id. UserList
// is server-to-client only and is ignored.
func Dispatch(room *Room, id int64, msg models.WSMessage) {
	switch msg.MessageType {
	case models.MessageTypeNewMessage:
		if msg.Message != nil {
			room.BroadcastChat(*msg.Message)
		}
	case models.MessageTypeChangeUserName:
		if msg.UserName != nil && room.Rename(id, *msg.UserName) {
			room.BroadcastUserList()
		}
	}
}
