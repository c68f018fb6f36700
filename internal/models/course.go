package models

import "time"

// Course is the unit a course chat room hangs off. Authoring and
// enrollment workflows are owned by the main platform; the chat service
// only checks ownership and enrollment.
type Course struct {
	ID        int       `db:"id" json:"id"`
	OwnerID   int       `db:"owner_id" json:"owner_id"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
