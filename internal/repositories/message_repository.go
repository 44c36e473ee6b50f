package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// MessageRepository abstracts direct-message persistence.
type MessageRepository interface {
	GetOrCreateConversation(ctx context.Context, userID int, otherID int) (models.Conversation, error)
	FindConversation(ctx context.Context, userID int, otherID int) (models.Conversation, error)
	CreateMessage(ctx context.Context, conversationID int, senderID int, receiverID int, content string) (models.Message, error)
	ListConversationMessages(ctx context.Context, conversationID int) ([]models.Message, error)
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// GetOrCreateConversation returns the thread between two users, creating it on first contact.
func (r *MessageRepo) GetOrCreateConversation(ctx context.Context, userID int, otherID int) (models.Conversation, error) {
	if userID == otherID {
		return models.Conversation{}, errors.New("cannot start conversation with self")
	}
	user1, user2 := normalizePair(userID, otherID)

	var conv models.Conversation
	query := `SELECT id, user1_id, user2_id, created_at FROM conversations WHERE user1_id=$1 AND user2_id=$2`
	if err := r.db.GetContext(ctx, &conv, query, user1, user2); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return models.Conversation{}, err
		}
		if err := r.db.QueryRowxContext(ctx, `INSERT INTO conversations (user1_id, user2_id) VALUES ($1, $2) RETURNING id, user1_id, user2_id, created_at`, user1, user2).
			Scan(&conv.ID, &conv.User1ID, &conv.User2ID, &conv.CreatedAt); err != nil {
			return models.Conversation{}, err
		}
	}
	return conv, nil
}

// FindConversation returns the thread between two users without creating one.
func (r *MessageRepo) FindConversation(ctx context.Context, userID int, otherID int) (models.Conversation, error) {
	user1, user2 := normalizePair(userID, otherID)
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT id, user1_id, user2_id, created_at FROM conversations WHERE user1_id=$1 AND user2_id=$2`, user1, user2)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// CreateMessage stores a direct message in a conversation.
func (r *MessageRepo) CreateMessage(ctx context.Context, conversationID int, senderID int, receiverID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO conversation_messages (conversation_id, sender_id, receiver_id, content) VALUES ($1, $2, $3, $4)
        RETURNING id, conversation_id, sender_id, receiver_id, content, created_at`, conversationID, senderID, receiverID, content).
		Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.CreatedAt)
	return msg, err
}

// ListConversationMessages returns the thread's messages in send order.
func (r *MessageRepo) ListConversationMessages(ctx context.Context, conversationID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT id, conversation_id, sender_id, receiver_id, content, created_at
        FROM conversation_messages WHERE conversation_id=$1 ORDER BY created_at ASC`, conversationID)
	return msgs, err
}

func normalizePair(a, b int) (int, int) {
	pair := []int{a, b}
	sort.Ints(pair)
	return pair[0], pair[1]
}
