package id

import (
	"strings"
	"testing"
)

func TestNewChatID(t *testing.T) {
	got := NewChatID()
	if !strings.HasPrefix(got, "chat_") {
		t.Errorf("NewChatID() = %q, want chat_ prefix", got)
	}
}

func TestNewMessageID(t *testing.T) {
	got := NewMessageID()
	if !strings.HasPrefix(got, "msg_") {
		t.Errorf("NewMessageID() = %q, want msg_ prefix", got)
	}
}

func TestUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id := NewMessageID()
		if seen[id] {
			t.Fatalf("duplicate identifier generated: %s", id)
		}
		seen[id] = true
	}
}
