package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"elearn-chat-service/internal/auth"
	"elearn-chat-service/internal/mocks"
	"elearn-chat-service/internal/models"
	"elearn-chat-service/internal/repositories"
)

var wsTestSecret = []byte("ws-test-secret")

type courseFixture struct {
	hub      *Hub
	courses  *mocks.CourseRepositoryMock
	users    *mocks.UserRepositoryMock
	messages *mocks.MessageRepositoryMock
	server   *httptest.Server
}

func newCourseFixture(t *testing.T) *courseFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	courses := new(mocks.CourseRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	ingest := NewIngest(messages, new(mocks.PrivateMessageRepositoryMock), hub, 4, "/media/")
	handler := NewCourseWebSocketHandler(hub, courses, users, ingest, wsTestSecret)

	router := gin.New()
	router.GET("/ws/courses/:course_id", handler.Handle)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &courseFixture{hub: hub, courses: courses, users: users, messages: messages, server: server}
}

func (f *courseFixture) dial(t *testing.T, courseID string, userID int) *websocket.Conn {
	t.Helper()
	token, err := auth.SignToken(wsTestSecret, userID, time.Hour)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/courses/" + courseID + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForRoomSize(t *testing.T, hub *Hub, key string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.RoomSize(key) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, want, hub.RoomSize(key))
}

func TestCourseRoomEndToEnd(t *testing.T) {
	f := newCourseFixture(t)

	f.courses.On("GetCourse", mock.Anything, 7).Return(models.Course{ID: 7, OwnerID: 42, Title: "Algebra"}, nil).Twice()
	f.courses.On("CanAccessCourse", mock.Anything, 7, 42).Return(true, nil).Once()
	f.courses.On("CanAccessCourse", mock.Anything, 7, 43).Return(true, nil).Once()
	f.users.On("GetUser", mock.Anything, 42).Return(models.User{ID: 42, Username: "amina", Role: models.RoleTeacher, IsActive: true}, nil).Once()
	f.users.On("GetUser", mock.Anything, 43).Return(models.User{ID: 43, Username: "bakary", Role: models.RoleStudent, IsActive: true}, nil).Once()
	f.messages.On("CreateCourseMessage", mock.Anything, 7, 42, "hello", (*string)(nil)).
		Return(models.CourseMessage{ID: 1, CourseID: 7, SenderID: 42, Content: "hello"}, nil).Once()

	sender := f.dial(t, "7", 42)
	peer := f.dial(t, "7", 43)
	waitForRoomSize(t, f.hub, "course_7", 2)

	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte(`{"message": "hello", "file_url": null}`)))

	for _, conn := range []*websocket.Conn{sender, peer} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)

		var frame models.ChatFrame
		require.NoError(t, json.Unmarshal(payload, &frame))
		require.Equal(t, "hello", frame.Message)
		require.Nil(t, frame.FileURL)
		require.Equal(t, "amina", frame.User)
		require.Regexp(t, timestampRe, frame.Timestamp)
	}

	f.messages.AssertExpectations(t)
	f.courses.AssertExpectations(t)
}

func TestCourseRoomRefusesAnonymous(t *testing.T) {
	f := newCourseFixture(t)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/courses/7"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 0, f.hub.RoomSize("course_7"))
}

func TestCourseRoomRefusesUnauthorized(t *testing.T) {
	f := newCourseFixture(t)

	f.courses.On("GetCourse", mock.Anything, 9).Return(models.Course{ID: 9, OwnerID: 1, Title: "Geometry"}, nil).Once()
	f.courses.On("CanAccessCourse", mock.Anything, 9, 42).Return(false, nil).Once()

	token, err := auth.SignToken(wsTestSecret, 42, time.Hour)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/courses/9?token=" + token
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The refused principal never appears in the room's broadcast set.
	require.Equal(t, 0, f.hub.RoomSize("course_9"))
	f.courses.AssertExpectations(t)
}

func TestCourseRoomRefusesUnknownCourse(t *testing.T) {
	f := newCourseFixture(t)

	f.courses.On("GetCourse", mock.Anything, 404).Return(models.Course{}, repositories.ErrCourseNotFound).Once()

	token, err := auth.SignToken(wsTestSecret, 42, time.Hour)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/courses/404?token=" + token
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, 0, f.hub.RoomSize("course_404"))
	f.courses.AssertNotCalled(t, "CanAccessCourse", mock.Anything, mock.Anything, mock.Anything)
}

func TestCourseRoomRejectsBadID(t *testing.T) {
	f := newCourseFixture(t)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/courses/nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCourseRoomDisconnectCleansUp(t *testing.T) {
	f := newCourseFixture(t)

	f.courses.On("GetCourse", mock.Anything, 7).Return(models.Course{ID: 7, OwnerID: 42, Title: "Algebra"}, nil).Once()
	f.courses.On("CanAccessCourse", mock.Anything, 7, 42).Return(true, nil).Once()
	f.users.On("GetUser", mock.Anything, 42).Return(models.User{ID: 42, Username: "amina", Role: models.RoleTeacher, IsActive: true}, nil).Once()

	conn := f.dial(t, "7", 42)
	waitForRoomSize(t, f.hub, "course_7", 1)

	conn.Close()
	waitForRoomSize(t, f.hub, "course_7", 0)
}
