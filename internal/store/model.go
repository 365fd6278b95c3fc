package store

import "time"

// DefaultUserID tags every chat until multi-user support exists.
const DefaultUserID = "default_user"

// Chat is a conversation container. UpdatedAt is refreshed on every write
// to the chat or to any of its messages and drives recency sorting.
type Chat struct {
	ID        string
	Title     string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one node in a conversation's branching tree.
//
// ParentID is nil for a root message. Order is the immutable 0-based rank
// among siblings sharing the same parent, assigned at creation and never
// reassigned (deleting a sibling leaves a gap). Index is the fractional
// depth-first rank computed by MessageIndex.
type Message struct {
	ID       string
	ChatID   string
	ParentID *string
	Order    int
	Index    float64

	UserText  string
	UserImage string // data-URL encoded image, empty if none
	Model     string
	SentAt    time.Time

	Response    string
	RespondedAt *time.Time
}

// Pending reports whether the response is still in flight (or was
// interrupted): no response text and no completion timestamp.
func (m *Message) Pending() bool {
	return m.Response == "" && m.RespondedAt == nil
}

// MatchType classifies what part of a chat matched a search query.
type MatchType string

const (
	// MatchTitle means the chat title matched.
	MatchTitle MatchType = "title"

	// MatchContent means one or more message bodies matched.
	MatchContent MatchType = "content"
)

// SearchResult is a chat that matched a search query, annotated with how
// and how often it matched.
type SearchResult struct {
	Chat       Chat
	MatchType  MatchType
	MatchCount int // number of messages whose user or response text matched
}
