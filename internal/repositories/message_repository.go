package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"elearn-chat-service/internal/models"
)

// MessageRepository stores course room messages. A message must be
// durably recorded before the caller may broadcast it.
type MessageRepository interface {
	CreateCourseMessage(ctx context.Context, courseID int, senderID int, content string, filePath *string) (models.CourseMessage, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateCourseMessage appends a message to a course room.
func (r *MessageRepo) CreateCourseMessage(ctx context.Context, courseID int, senderID int, content string, filePath *string) (models.CourseMessage, error) {
	var msg models.CourseMessage
	err := r.db.QueryRowxContext(ctx, `INSERT INTO course_messages (course_id, sender_id, content, file_path) VALUES ($1, $2, $3, $4)
        RETURNING id, course_id, sender_id, content, file_path, created_at`, courseID, senderID, content, filePath).
		Scan(&msg.ID, &msg.CourseID, &msg.SenderID, &msg.Content, &msg.FilePath, &msg.CreatedAt)
	return msg, err
}
