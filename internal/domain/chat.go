package domain

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single conversation turn as exchanged with callers and the
// inference endpoint.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ValidRole reports whether role may appear in a conversation history.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
