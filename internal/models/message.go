package models

import "time"

// CourseMessage is a message posted in a course room.
type CourseMessage struct {
	ID        int       `db:"id" json:"id"`
	CourseID  int       `db:"course_id" json:"course_id"`
	SenderID  int       `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	FilePath  *string   `db:"file_path" json:"file_path,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PrivateMessage is a direct message between two users.
type PrivateMessage struct {
	ID          int       `db:"id" json:"id"`
	SenderID    int       `db:"sender_id" json:"sender_id"`
	RecipientID int       `db:"recipient_id" json:"recipient_id"`
	Content     string    `db:"content" json:"content"`
	FilePath    *string   `db:"file_path" json:"file_path,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
