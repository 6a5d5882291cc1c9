package entity

import "time"

// Chat joins two users for direct messaging. The pair is stored in
// lexicographic order (User1 < User2) so the composite unique index can
// break a creation race regardless of which side initiated.
type Chat struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	User1 string `json:"user1" gorm:"uniqueIndex:idx_chat_pair;size:50"`
	User2 string `json:"user2" gorm:"uniqueIndex:idx_chat_pair;size:50"`
}

// Message belongs to exactly one chat. Immutable once created except for
// deletion.
type Message struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ChatID    uint      `json:"chat" gorm:"index"`
	Sender    string    `json:"sender" gorm:"index;size:50"`
	Text      string    `json:"text" gorm:"size:1000"`
	CreatedAt time.Time `json:"time"`
}

type CreateChatRequest struct {
	ReceiverID string `json:"receiverId" binding:"required,max=50"`
}

type SendMessageRequest struct {
	ChatID      uint     `json:"chatId" binding:"required"`
	Text        string   `json:"text" binding:"required,max=1000"`
	ReceiverIDs []string `json:"receiverIds"`
}
