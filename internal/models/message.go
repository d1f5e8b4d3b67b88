package models

import "time"

// MessageType classifies an inbox message.
type MessageType string

const (
	MessageDirect    MessageType = "direct"
	MessageReply     MessageType = "reply"
	MessageBanAppeal MessageType = "banappeal"
	MessageWarn      MessageType = "warn"
	MessageFatal     MessageType = "fatal"
	MessageToAll     MessageType = "toAll"
	MessageToAdmins  MessageType = "toAdmins"
	MessageToNormals MessageType = "toNormals"
)

// Message is an inbox entry. A nil ByUserID is a system message; a nil
// ToUserID is a broadcast read through the announce box.
type Message struct {
	ID       uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	ByUserID *string     `gorm:"type:text;index" json:"byUserId"`
	ToUserID *string     `gorm:"type:text;index" json:"toUserId"`
	Type     MessageType `gorm:"type:text;not null;index" json:"type"`
	Content  string      `gorm:"type:text;not null" json:"content"`
	// Ref points at the item the message is about, e.g. a ban appeal id.
	Ref       string    `gorm:"type:text;index" json:"ref,omitempty"`
	HaveRead  bool      `gorm:"not null;default:false" json:"haveRead"`
	CreatedAt time.Time `json:"createTime"`
}
