package chat

import "github.com/janisto/portfolio-builder/internal/profile"

// SessionCreateInput for POST /chat/sessions (no body needed)
type SessionCreateInput struct{}

// SessionGetInput for GET /chat/sessions/{sessionId}
type SessionGetInput struct {
	SessionID string `path:"sessionId" maxLength:"128" doc:"Session identifier"`
}

// SessionDeleteInput for DELETE /chat/sessions/{sessionId}
type SessionDeleteInput struct {
	SessionID string `path:"sessionId" maxLength:"128" doc:"Session identifier"`
}

// HistoryTurn is a prior message supplied by a stateless client.
type HistoryTurn struct {
	Role    string `json:"role"    enum:"user,assistant" doc:"Author of the message" example:"assistant"`
	Content string `json:"content" maxLength:"4000"      doc:"Message text"          example:"Hi! What's your name?"`
}

// RespondInput for POST /chat/respond
type RespondInput struct {
	Body struct {
		Message   string           `json:"message"             minLength:"1" maxLength:"4000" doc:"User message"                                   example:"My name is Jane Doe"`
		SessionID string           `json:"sessionId,omitempty" maxLength:"128"                doc:"Stored session; its history and profile are used"`
		History   []HistoryTurn    `json:"history,omitempty"   maxItems:"100"                 doc:"Prior turns when no session is used"`
		Profile   *profile.Profile `json:"profile,omitempty"                                  doc:"Profile so far when no session is used"`
		Step      int              `json:"step,omitempty"      minimum:"0" maximum:"100"      doc:"Step being answered; derived from history when 0"`
	}
}
