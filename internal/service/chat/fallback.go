package chat

import "strings"

const defaultFallback = "I understand. Can you tell me more about that?"

// fallbackReplies keeps the interview moving when the model is unavailable.
// Key is the step being answered; %s is the user's message.
var fallbackReplies = map[int]string{
	1: "Nice to meet you, %s! What's your profession or role?",
	2: "Great! A %s. What are your main skills or technologies you work with?",
	3: "Excellent! Can you tell me about a recent project you're proud of?",
	4: "That sounds impressive! Where have you worked, and what was your role there?",
	5: "Thanks! What is your educational background?",
	6: "Almost done! How can people reach you? An email, LinkedIn or GitHub profile works great.",
	7: "Perfect! I have all the information I need. Let me suggest some portfolio templates for you...",
}

// fallbackReply returns the deterministic reply for step. It never calls the
// model and never extracts.
func fallbackReply(step int, message string) string {
	tmpl, ok := fallbackReplies[step]
	if !ok {
		return defaultFallback
	}
	if !strings.Contains(tmpl, "%s") {
		return tmpl
	}
	return strings.Replace(tmpl, "%s", strings.TrimSpace(message), 1)
}
