package ws

import "time"

// ConnInfo carries per-connection identity and correlation data for the
// lifecycle events published about it.
type ConnInfo struct {
	ConnID      string
	UserID      int
	Username    string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
