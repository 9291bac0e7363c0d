package chat

import (
	"fmt"
	"strings"

	"github.com/janisto/portfolio-builder/internal/llm"
)

// Topics are asked in this order, one per step.
var topics = []string{
	"name",
	"professional role or title",
	"key skills (programming languages, tools, frameworks)",
	"notable projects (two or three, with short descriptions and technologies)",
	"work experience",
	"education",
	"contact information (email, LinkedIn, GitHub, website)",
}

// TopicCount is the number of interview steps.
var TopicCount = len(topics)

var interviewPrompt = buildInterviewPrompt()

func buildInterviewPrompt() string {
	var b strings.Builder
	b.WriteString("You are an AI portfolio assistant. Your job is to help users create professional ")
	b.WriteString("portfolios by gathering information through conversation.\n\nAsk about these topics in order, one at a time:\n")
	for i, t := range topics {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}
	b.WriteString("\nBe conversational, friendly and concise. When you receive information, acknowledge it ")
	b.WriteString("and move on to the next topic naturally. Never ask about a topic the user already answered.")
	return b.String()
}

const extractionPrompt = `Extract structured portfolio data from the conversation the user provides.
Return a single JSON object with these fields, omitting anything that was not mentioned:
  name (string), role (string), bio (string),
  skills (array of strings),
  projects (array of objects with title, description, technologies (array of strings), link, image),
  experience (array of objects with company, position, duration, description),
  education (array of objects with institution, degree, year),
  contact (object with email, phone, linkedin, github, website).
Only use facts stated by the user. Return only valid JSON, no other text.`

// transcript renders the conversation as "role: content" lines for the
// extraction call.
func transcript(history []Turn, message string) string {
	var b strings.Builder
	for _, t := range history {
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteByte('\n')
	}
	b.WriteString(RoleUser)
	b.WriteString(": ")
	b.WriteString(message)
	return b.String()
}

// replyMessages maps history plus the new message to model messages. Unknown
// roles are sent as assistant turns.
func replyMessages(history []Turn, message string) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+1)
	for _, t := range history {
		role := llm.RoleAssistant
		if t.Role == RoleUser {
			role = llm.RoleUser
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Content})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: message})
}
