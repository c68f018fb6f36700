package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"strings"
	"time"

	"elearn-chat-service/internal/models"
	"elearn-chat-service/internal/observability"
	"elearn-chat-service/internal/repositories"
)

const (
	errAuthRequired         = "Authentication required."
	errInvalidPayload       = "Invalid payload or unauthenticated."
	errProcessFailed        = "Failed to process message."
	errPrivateProcessFailed = "Failed to process private message."
)

// Ingest validates and durably records inbound chat events before they
// are considered real. No event reaches any peer unless its persist
// call completed, so the live feed never diverges from what a history
// fetch would show. Every failure is reported to the sender alone and
// leaves the connection open.
type Ingest struct {
	messages repositories.MessageRepository
	privates repositories.PrivateMessageRepository
	hub      *Hub

	// slots bounds concurrent persist calls so a slow database cannot
	// pile up unbounded in-flight writes across connections.
	slots chan struct{}

	mediaPrefix string
}

// NewIngest constructs the pipeline. workers bounds concurrent persist
// calls; mediaPrefix is the storage-root prefix stripped off attachment
// references before they are stored.
func NewIngest(messages repositories.MessageRepository, privates repositories.PrivateMessageRepository, hub *Hub, workers int, mediaPrefix string) *Ingest {
	if workers < 1 {
		workers = 1
	}
	return &Ingest{
		messages:    messages,
		privates:    privates,
		hub:         hub,
		slots:       make(chan struct{}, workers),
		mediaPrefix: mediaPrefix,
	}
}

// HandleInbound processes one raw frame from a connection.
func (i *Ingest) HandleInbound(c *Client, raw []byte) {
	ctx := context.Background()
	kind := c.Room.Kind.String()

	// Private rooms report their own failure strings to the client.
	failText := errProcessFailed
	if c.Room.Kind == RoomPrivate {
		failText = errPrivateProcessFailed
	}

	var in models.InboundFrame
	if err := json.Unmarshal(raw, &in); err != nil {
		log.Printf("malformed chat frame room=%s conn=%s: %v", c.Room.Key(), c.ID, err)
		observability.IncWSEvent(kind, "ingest_rejected")
		c.sendError(failText)
		return
	}

	if c.UserID == 0 {
		observability.IncWSEvent(kind, "ingest_rejected")
		if c.Room.Kind == RoomPrivate {
			c.sendError(errInvalidPayload)
		} else {
			c.sendError(errAuthRequired)
		}
		return
	}

	filePath, err := i.attachmentPath(in.FileURL)
	if err != nil {
		log.Printf("bad attachment reference room=%s conn=%s: %v", c.Room.Key(), c.ID, err)
		observability.IncWSEvent(kind, "ingest_rejected")
		c.sendError(failText)
		return
	}

	switch c.Room.Kind {
	case RoomPrivate:
		if in.TargetUserID == nil {
			observability.IncWSEvent(kind, "ingest_rejected")
			c.sendError(errInvalidPayload)
			return
		}
		target := *in.TargetUserID
		if target == c.UserID || !c.Room.HasParticipant(target) {
			observability.IncWSEvent(kind, "ingest_rejected")
			c.sendError(errInvalidPayload)
			return
		}
		if err := i.persist(ctx, kind, func() error {
			_, err := i.privates.CreatePrivateMessage(ctx, c.UserID, target, in.Message, filePath)
			return err
		}); err != nil {
			log.Printf("private message persist failed room=%s sender=%d: %v", c.Room.Key(), c.UserID, err)
			c.sendError(errPrivateProcessFailed)
			return
		}
	default:
		if err := i.persist(ctx, kind, func() error {
			_, err := i.messages.CreateCourseMessage(ctx, c.Room.CourseID, c.UserID, in.Message, filePath)
			return err
		}); err != nil {
			log.Printf("course message persist failed room=%s sender=%d: %v", c.Room.Key(), c.UserID, err)
			c.sendError(errProcessFailed)
			return
		}
	}

	frame := models.ChatFrame{
		Message:   in.Message,
		FileURL:   in.FileURL,
		User:      c.Username,
		Timestamp: time.Now().Format("15:04"),
	}
	if err := i.hub.Publish(ctx, c.Room.Key(), frame); err != nil {
		log.Printf("broadcast failed room=%s sender=%d: %v", c.Room.Key(), c.UserID, err)
		c.sendError(failText)
	}
}

// persist runs fn inside a bounded worker slot and records its latency.
func (i *Ingest) persist(ctx context.Context, kind string, fn func() error) error {
	select {
	case i.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-i.slots }()

	start := time.Now()
	err := fn()
	observability.ObservePersist(kind, time.Since(start))
	return err
}

// attachmentPath URL-decodes an upload reference and strips the media
// storage-root prefix, yielding the path stored alongside the message.
// An empty or absent reference stores no attachment.
func (i *Ingest) attachmentPath(fileURL *string) (*string, error) {
	if fileURL == nil || *fileURL == "" {
		return nil, nil
	}
	decoded, err := url.QueryUnescape(*fileURL)
	if err != nil {
		return nil, err
	}
	path := strings.TrimPrefix(decoded, i.mediaPrefix)
	return &path, nil
}
