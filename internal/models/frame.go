package models

// InboundFrame is what a websocket client sends into a room.
// TargetUserID is required for private rooms only.
type InboundFrame struct {
	Message      string  `json:"message"`
	FileURL      *string `json:"file_url"`
	TargetUserID *int    `json:"target_user_id,omitempty"`
}

// ChatFrame is fanned out to every member of a room after the message
// has been stored. Timestamp is the origination time formatted HH:MM.
type ChatFrame struct {
	Message   string  `json:"message"`
	FileURL   *string `json:"file_url"`
	User      string  `json:"user"`
	Timestamp string  `json:"timestamp"`
}

// ErrorFrame goes back to the sending connection only.
type ErrorFrame struct {
	Error string `json:"error"`
}
