package observability

import "time"

type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// WSEventPayload describes one websocket lifecycle event.
type WSEventPayload struct {
	Kind    string `json:"kind"`
	RoomKey string `json:"room_key"`
	Event   string `json:"event"`
	ConnID  string `json:"conn_id"`
	Reason  string `json:"reason"`
}

// WSIdentity identifies the principal behind a connection.
type WSIdentity struct {
	UserID   int    `json:"user_id"`
	DeviceID string `json:"device_id"`
	IP       string `json:"ip"`
}

// BuildWSEvent assembles the envelope published for connect, disconnect
// and error events on websocket rooms.
func BuildWSEvent(event WSEventPayload, identity WSIdentity, connectedAt time.Time) EventEnvelope {
	return EventEnvelope{
		EventType: "ws_events",
		EventName: event.Event,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":        event.Kind,
				"room_key":    event.RoomKey,
				"event":       event.Event,
				"conn_id":     event.ConnID,
				"duration_ms": time.Since(connectedAt).Milliseconds(),
				"reason":      event.Reason,
			},
			"identity": identity,
		},
	}
}

func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
