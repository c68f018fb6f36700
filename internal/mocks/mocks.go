package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"elearn-chat-service/internal/models"
	"elearn-chat-service/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) UserExists(ctx context.Context, userID int) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type CourseRepositoryMock struct {
	mock.Mock
}

func (m *CourseRepositoryMock) GetCourse(ctx context.Context, courseID int) (models.Course, error) {
	args := m.Called(ctx, courseID)
	var course models.Course
	if val := args.Get(0); val != nil {
		course = val.(models.Course)
	}
	return course, args.Error(1)
}

func (m *CourseRepositoryMock) CanAccessCourse(ctx context.Context, courseID int, userID int) (bool, error) {
	args := m.Called(ctx, courseID, userID)
	return args.Bool(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateCourseMessage(ctx context.Context, courseID int, senderID int, content string, filePath *string) (models.CourseMessage, error) {
	args := m.Called(ctx, courseID, senderID, content, filePath)
	var msg models.CourseMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.CourseMessage)
	}
	return msg, args.Error(1)
}

type PrivateMessageRepositoryMock struct {
	mock.Mock
}

func (m *PrivateMessageRepositoryMock) CreatePrivateMessage(ctx context.Context, senderID int, recipientID int, content string, filePath *string) (models.PrivateMessage, error) {
	args := m.Called(ctx, senderID, recipientID, content, filePath)
	var msg models.PrivateMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.PrivateMessage)
	}
	return msg, args.Error(1)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.CourseRepository = (*CourseRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.PrivateMessageRepository = (*PrivateMessageRepositoryMock)(nil)
