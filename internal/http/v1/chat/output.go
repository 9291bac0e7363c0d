package chat

// SessionCreateOutput for POST /chat/sessions (201 Created)
type SessionCreateOutput struct {
	Location string `header:"Location" doc:"URL of the created session"`
	Body     Session
}

// SessionGetOutput for GET /chat/sessions/{sessionId}
type SessionGetOutput struct {
	Body Session
}

// RespondOutput for POST /chat/respond
type RespondOutput struct {
	Body Reply
}
