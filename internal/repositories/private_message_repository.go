package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"elearn-chat-service/internal/models"
)

// PrivateMessageRepository stores direct messages between two users.
type PrivateMessageRepository interface {
	CreatePrivateMessage(ctx context.Context, senderID int, recipientID int, content string, filePath *string) (models.PrivateMessage, error)
}

// PrivateMessageRepo is a sqlx-backed repository.
type PrivateMessageRepo struct {
	db *sqlx.DB
}

// NewPrivateMessageRepo constructs PrivateMessageRepo.
func NewPrivateMessageRepo(db *sqlx.DB) *PrivateMessageRepo {
	return &PrivateMessageRepo{db: db}
}

// CreatePrivateMessage appends a direct message. The recipient id is
// checked by the foreign key, so persisting to an unknown target fails
// rather than silently storing a dangling reference.
func (r *PrivateMessageRepo) CreatePrivateMessage(ctx context.Context, senderID int, recipientID int, content string, filePath *string) (models.PrivateMessage, error) {
	var msg models.PrivateMessage
	err := r.db.QueryRowxContext(ctx, `INSERT INTO private_messages (sender_id, recipient_id, content, file_path) VALUES ($1, $2, $3, $4)
        RETURNING id, sender_id, recipient_id, content, file_path, created_at`, senderID, recipientID, content, filePath).
		Scan(&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.Content, &msg.FilePath, &msg.CreatedAt)
	return msg, err
}
