package models

import "context"

// ChatType of an inbound message.
type ChatType string

const (
	ChatPrivate    ChatType = "private"
	ChatGroup      ChatType = "group"
	ChatSupergroup ChatType = "supergroup"
	ChatChannel    ChatType = "channel"
)

// InboundMessage is a text message received from the chat transport.
type InboundMessage struct {
	SenderID  int64
	ChatID    int64
	ChatType  ChatType
	Username  string
	FirstName string
	LastName  string
	Text      string
	IsCommand bool
}

// Messenger sends text to a chat. Delivery errors must be reported, since key
// rotation depends on the user having received the new key.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}
