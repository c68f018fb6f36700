package ws

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elearn-chat-service/internal/models"
)

func newTestClient(hub *Hub, room Room, userID int, username string) *Client {
	return newClient(hub, room, userID, username, nil)
}

func readFrame(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case payload := <-c.send:
		return payload
	default:
		t.Fatalf("expected a frame for user %d, got none", c.UserID)
		return nil
	}
}

func requireNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.send:
		t.Fatalf("expected no frame for user %d, got %s", c.UserID, payload)
	default:
	}
}

func TestHubJoinAndLeave(t *testing.T) {
	hub := NewHub()
	room := CourseRoom(1)
	client := newTestClient(hub, room, 1, "a")

	hub.Join(room.Key(), client)
	require.Equal(t, 1, hub.RoomSize(room.Key()))

	// joining again is idempotent
	hub.Join(room.Key(), client)
	require.Equal(t, 1, hub.RoomSize(room.Key()))

	hub.Leave(room.Key(), client)
	require.Equal(t, 0, hub.RoomSize(room.Key()))
	require.Empty(t, hub.rooms)

	// leaving again is idempotent
	hub.Leave(room.Key(), client)
	require.Empty(t, hub.rooms)
}

func TestHubFanOutCompleteness(t *testing.T) {
	hub := NewHub()
	room := CourseRoom(7)
	other := CourseRoom(8)

	members := make([]*Client, 0, 5)
	for i := 1; i <= 5; i++ {
		c := newTestClient(hub, room, i, "member")
		hub.Join(room.Key(), c)
		members = append(members, c)
	}
	outsider := newTestClient(hub, other, 99, "outsider")
	hub.Join(other.Key(), outsider)

	frame := models.ChatFrame{Message: "hello", User: "member", Timestamp: "12:00"}
	require.NoError(t, hub.Publish(context.Background(), room.Key(), frame))

	for _, c := range members {
		var got models.ChatFrame
		require.NoError(t, json.Unmarshal(readFrame(t, c), &got))
		require.Equal(t, frame, got)
	}
	requireNoFrame(t, outsider)
}

func TestHubDisconnectCleanup(t *testing.T) {
	hub := NewHub()
	room := CourseRoom(3)
	stayer := newTestClient(hub, room, 1, "stayer")
	leaver := newTestClient(hub, room, 2, "leaver")
	hub.Join(room.Key(), stayer)
	hub.Join(room.Key(), leaver)
	require.Equal(t, 2, hub.RoomSize(room.Key()))

	leaver.close()
	require.Equal(t, 1, hub.RoomSize(room.Key()))

	require.NoError(t, hub.Publish(context.Background(), room.Key(), models.ChatFrame{Message: "still here"}))
	readFrame(t, stayer)
}

func TestHubSlowConsumerIsolation(t *testing.T) {
	hub := NewHub()
	room := CourseRoom(4)
	healthy := newTestClient(hub, room, 1, "healthy")
	slow := newTestClient(hub, room, 2, "slow")
	hub.Join(room.Key(), healthy)
	hub.Join(room.Key(), slow)

	// Fill the slow client's buffering allowance without draining it.
	for i := 0; i < sendBuffer; i++ {
		require.True(t, slow.enqueue([]byte("{}")))
	}

	require.NoError(t, hub.Publish(context.Background(), room.Key(), models.ChatFrame{Message: "onward"}))

	// The healthy member got the frame and the slow one was dropped.
	readFrame(t, healthy)
	require.Equal(t, 1, hub.RoomSize(room.Key()))
}

func TestHubDeliveryOrderConsistentAcrossMembers(t *testing.T) {
	hub := NewHub()
	room := CourseRoom(6)
	first := newTestClient(hub, room, 1, "first")
	second := newTestClient(hub, room, 2, "second")
	hub.Join(room.Key(), first)
	hub.Join(room.Key(), second)

	const publishers = 32
	var wg sync.WaitGroup
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			frame := models.ChatFrame{Message: strconv.Itoa(n), User: "member", Timestamp: "12:00"}
			assert.NoError(t, hub.Publish(context.Background(), room.Key(), frame))
		}(i)
	}
	wg.Wait()

	// Whatever interleaving the publishers raced into, both members must
	// have observed the exact same sequence.
	drain := func(c *Client) []string {
		seq := make([]string, 0, publishers)
		for i := 0; i < publishers; i++ {
			seq = append(seq, string(readFrame(t, c)))
		}
		requireNoFrame(t, c)
		return seq
	}
	require.Equal(t, drain(first), drain(second))
}

func TestClientEnqueueAfterCloseIsSafe(t *testing.T) {
	hub := NewHub()
	room := CourseRoom(5)
	client := newTestClient(hub, room, 1, "a")
	hub.Join(room.Key(), client)

	client.close()
	require.NotPanics(t, func() {
		require.False(t, client.enqueue([]byte("{}")))
		client.sendError("late")
	})
}

func TestHubShutdownDrainsRooms(t *testing.T) {
	hub := NewHub()
	for i := 1; i <= 3; i++ {
		room := CourseRoom(i)
		hub.Join(room.Key(), newTestClient(hub, room, i, "member"))
	}

	hub.Shutdown()
	require.Empty(t, hub.rooms)
}
