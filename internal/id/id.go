// Package id generates collision-resistant identifiers for chats and
// messages. The rest of the system treats identifiers as opaque strings:
// nothing beyond equality and use as a map key is assumed.
package id

import "github.com/google/uuid"

// Prefixes make identifiers self-describing in logs and in the database.
const (
	chatPrefix    = "chat_"
	messagePrefix = "msg_"
)

// NewChatID returns a new unique chat identifier.
func NewChatID() string {
	return chatPrefix + uuid.NewString()
}

// NewMessageID returns a new unique message identifier.
func NewMessageID() string {
	return messagePrefix + uuid.NewString()
}
