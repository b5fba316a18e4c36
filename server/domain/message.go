package domain

import "time"

type ChatMessage struct {
	ID         string
	Content    string
	SenderID   string
	SenderName string
	CreatedAt  time.Time
}

func NewChatMessage(id, senderID, senderName, content string, createdAt time.Time) ChatMessage {
	return ChatMessage{
		ID:         id,
		Content:    content,
		SenderID:   senderID,
		SenderName: senderName,
		CreatedAt:  createdAt,
	}
}

// DisplayName is the sender name when one was given, otherwise the sender ID.
func (m ChatMessage) DisplayName() string {
	if m.SenderName != "" {
		return m.SenderName
	}
	return m.SenderID
}
