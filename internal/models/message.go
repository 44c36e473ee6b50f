package models

import "time"

// Conversation represents a direct-message thread between exactly two users.
type Conversation struct {
	ID        int       `db:"id" json:"id"`
	User1ID   int       `db:"user1_id" json:"user1_id"`
	User2ID   int       `db:"user2_id" json:"user2_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Message represents a persisted direct message.
type Message struct {
	ID             int       `db:"id" json:"id"`
	ConversationID int       `db:"conversation_id" json:"conversation_id"`
	SenderID       int       `db:"sender_id" json:"sender_id"`
	ReceiverID     int       `db:"receiver_id" json:"receiver_id"`
	Content        string    `db:"content" json:"message"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
