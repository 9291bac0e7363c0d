package chat

import (
	"github.com/janisto/portfolio-builder/internal/platform/timeutil"
	"github.com/janisto/portfolio-builder/internal/profile"
)

// Turn is one message of a conversation.
type Turn struct {
	Role      string        `json:"role"      doc:"Author of the message" enum:"user,assistant" example:"user"`
	Content   string        `json:"content"   doc:"Message text"                                example:"My name is Jane Doe"`
	Timestamp timeutil.Time `json:"timestamp" doc:"When the message was stored"                 example:"2024-01-15T10:30:00.000Z"`
}

// Session represents a chat session response.
type Session struct {
	ID          string          `json:"id"          doc:"Session identifier"                  example:"3f0c7a52-2b7e-4f5e-9d8a-1c2b3d4e5f60"`
	Turns       []Turn          `json:"turns"       doc:"Conversation history, oldest first"`
	Profile     profile.Profile `json:"profile"     doc:"Profile accumulated so far"`
	CurrentStep int             `json:"currentStep" doc:"Interview step awaiting an answer"   example:"1"`
	TotalSteps  int             `json:"totalSteps"  doc:"Number of interview topics"          example:"7"`
	Completed   bool            `json:"completed"   doc:"Whether every topic has been covered" example:"false"`
	CreatedAt   timeutil.Time   `json:"createdAt"   doc:"Creation timestamp"                  example:"2024-01-15T10:30:00.000Z"`
	UpdatedAt   timeutil.Time   `json:"updatedAt"   doc:"Last update timestamp"               example:"2024-01-15T10:30:00.000Z"`
}

// Reply is the outcome of one conversation turn.
type Reply struct {
	Reply     string          `json:"reply"               doc:"Assistant reply"                                        example:"Nice to meet you, Jane! What's your profession or role?"`
	Profile   profile.Profile `json:"profile"             doc:"Profile after merging this turn"`
	SessionID string          `json:"sessionId,omitempty" doc:"Session the turn was stored in"`
	Step      int             `json:"step"                doc:"Step this turn answered"                                example:"1"`
	NextStep  int             `json:"nextStep"            doc:"Step the next message answers"                          example:"2"`
	Completed bool            `json:"completed"           doc:"Whether every topic has been covered"                   example:"false"`
	Fallback  bool            `json:"fallback"            doc:"Whether the reply came from the built-in script"        example:"false"`
}
