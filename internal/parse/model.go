package parse

// ObjectID is a MongoDB extended-JSON id: {"$oid": "..."}.
type ObjectID struct {
	OID *string `json:"$oid"`
}

type Metadata struct {
	LLMService *string `json:"llmService"`
}

// Session is one logged tutoring conversation.
type Session struct {
	User     *ObjectID `json:"user"`
	Metadata *Metadata `json:"metadata"`
	Messages []Message `json:"messages"`
}

type Message struct {
	Role    string // "student" or "assistant"
	Content string
}

type User struct {
	ID       ObjectID `json:"_id"`
	Username string   `json:"username"`
}

// UserID returns the session's raw user id and whether it was present.
func (s Session) UserID() (string, bool) {
	if s.User == nil || s.User.OID == nil {
		return "", false
	}
	return *s.User.OID, true
}

// Tutor returns metadata.llmService and whether it was present.
func (s Session) Tutor() (string, bool) {
	if s.Metadata == nil || s.Metadata.LLMService == nil {
		return "", false
	}
	return *s.Metadata.LLMService, true
}
