package ws

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidRoomName = errors.New("invalid room name")

// RoomKind distinguishes course rooms from private two-party rooms.
type RoomKind int

const (
	RoomCourse RoomKind = iota
	RoomPrivate
)

func (k RoomKind) String() string {
	if k == RoomPrivate {
		return "private"
	}
	return "course"
}

// Room identifies a fan-out scope. It is resolved once at connect time
// and carried on the connection for its whole life. For private rooms
// UserA < UserB always holds, so both participants resolve the same
// room no matter who initiates.
type Room struct {
	Kind     RoomKind
	CourseID int
	UserA    int
	UserB    int
}

// CourseRoom builds the room for a course chat.
func CourseRoom(courseID int) Room {
	return Room{Kind: RoomCourse, CourseID: courseID}
}

// PrivateRoom builds the room for a user pair, normalizing the order.
func PrivateRoom(a, b int) Room {
	if a > b {
		a, b = b, a
	}
	return Room{Kind: RoomPrivate, UserA: a, UserB: b}
}

// Key renders the registry key: course_<id> or private_<min>_<max>.
func (r Room) Key() string {
	if r.Kind == RoomPrivate {
		return fmt.Sprintf("private_%d_%d", r.UserA, r.UserB)
	}
	return fmt.Sprintf("course_%d", r.CourseID)
}

// HasParticipant reports whether the user is one of a private room's
// two parties. Course rooms answer membership through the course store,
// not here.
func (r Room) HasParticipant(userID int) bool {
	return r.Kind == RoomPrivate && (r.UserA == userID || r.UserB == userID)
}

// Other returns the counterpart of a private room participant.
func (r Room) Other(userID int) int {
	if r.UserA == userID {
		return r.UserB
	}
	return r.UserA
}

// ParsePrivateRoomName parses a route segment of the form
// private_<idA>_<idB> into a private room.
func ParsePrivateRoomName(name string) (Room, error) {
	parts := strings.Split(name, "_")
	if len(parts) != 3 || parts[0] != "private" {
		return Room{}, ErrInvalidRoomName
	}
	a, err := strconv.Atoi(parts[1])
	if err != nil || a <= 0 {
		return Room{}, ErrInvalidRoomName
	}
	b, err := strconv.Atoi(parts[2])
	if err != nil || b <= 0 || a == b {
		return Room{}, ErrInvalidRoomName
	}
	return PrivateRoom(a, b), nil
}
