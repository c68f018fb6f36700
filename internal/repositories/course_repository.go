package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"elearn-chat-service/internal/models"
)

var ErrCourseNotFound = errors.New("course not found")

// CourseRepository answers the room-authorization questions the gateway
// asks: does the course exist, and may this user join its room.
type CourseRepository interface {
	GetCourse(ctx context.Context, courseID int) (models.Course, error)
	CanAccessCourse(ctx context.Context, courseID int, userID int) (bool, error)
}

// CourseRepo is a sqlx implementation of CourseRepository.
type CourseRepo struct {
	db *sqlx.DB
}

// NewCourseRepo constructs a CourseRepo.
func NewCourseRepo(db *sqlx.DB) *CourseRepo {
	return &CourseRepo{db: db}
}

// GetCourse fetches a course by id.
func (r *CourseRepo) GetCourse(ctx context.Context, courseID int) (models.Course, error) {
	var course models.Course
	err := r.db.GetContext(ctx, &course, `SELECT id, owner_id, title, created_at FROM courses WHERE id=$1`, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Course{}, ErrCourseNotFound
	}
	return course, err
}

// CanAccessCourse reports whether the user owns the course or is
// enrolled in it.
func (r *CourseRepo) CanAccessCourse(ctx context.Context, courseID int, userID int) (bool, error) {
	var allowed bool
	err := r.db.GetContext(ctx, &allowed, `SELECT EXISTS(
            SELECT 1 FROM courses c
            LEFT JOIN course_students cs ON cs.course_id = c.id AND cs.user_id = $2
            WHERE c.id = $1 AND (c.owner_id = $2 OR cs.user_id IS NOT NULL)
        )`, courseID, userID)
	return allowed, err
}
