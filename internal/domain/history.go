package domain

// History is a chronologically ordered conversation.
type History []ChatMessage

// Append returns a new History with msgs added after a copy of h. The receiver
// is never modified, so callers may keep using the slice they passed in.
func (h History) Append(msgs ...ChatMessage) History {
	out := make(History, 0, len(h)+len(msgs))
	out = append(out, h...)
	return append(out, msgs...)
}
