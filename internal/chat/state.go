package chat

import (
	"context"

	"github.com/NitinBot001/claude-interface/internal/id"
	"github.com/NitinBot001/claude-interface/internal/store"
	"github.com/NitinBot001/claude-interface/internal/tree"
)

// reloadChatsLocked refreshes the cached chat list. Caller holds s.mu.
func (s *Service) reloadChatsLocked(ctx context.Context) error {
	chats, err := s.store.Chats(ctx)
	if err != nil {
		return err
	}
	s.chats = chats
	return nil
}

// reloadMessagesLocked rebuilds the tree and active path for chatID.
// Staged pending selections are applied here, after the rebuild, so the
// branch they point at exists. Otherwise selections are kept or reset
// according to preserve. Caller holds s.mu.
func (s *Service) reloadMessagesLocked(ctx context.Context, chatID string, preserve bool) error {
	msgs, err := s.store.MessagesByChat(ctx, chatID)
	if err != nil {
		return err
	}

	s.tree = tree.Build(msgs, s.logger)

	switch {
	case s.pendingSelections != nil:
		for k, v := range s.pendingSelections {
			s.selections[k] = v
		}
		s.pendingSelections = nil
	case !preserve:
		s.selections = tree.Selections{}
	}

	s.path = s.tree.ActivePath(s.selections)
	return nil
}

// stageSelectionLocked stages a selection update pointing at the sibling
// just created under parentID, consumed by the next reload.
func (s *Service) stageSelectionLocked(parentID *string, order int) {
	staged := s.selections.Clone()
	staged[tree.BranchKey(parentID)] = order
	s.pendingSelections = staged
}

// createChatLocked mints an id and creates the chat record, titled from
// the first message text. Caller holds s.mu.
func (s *Service) createChatLocked(ctx context.Context, title string) (string, error) {
	chatID := id.NewChatID()
	_, err := s.store.CreateChat(ctx, store.Chat{
		ID:     chatID,
		Title:  deriveTitle(title),
		UserID: store.DefaultUserID,
	})
	if err != nil {
		return "", err
	}
	return chatID, nil
}

// deriveTitle turns message text into a chat title: truncated past
// titleRunes, with a fixed fallback for image-only messages.
func deriveTitle(text string) string {
	if text == "" {
		return imageOnlyTitle
	}
	runes := []rune(text)
	if len(runes) <= titleRunes {
		return text
	}
	return string(runes[:titleRunes]) + "..."
}

// Store exposes the underlying persistence layer for read-only
// inspection, mainly by CLI subcommands.
func (s *Service) Store() *store.Store {
	return s.store
}

// CurrentChatID returns the active chat's id ("" when none).
func (s *Service) CurrentChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentChatID
}

// Chats returns the cached chat list (refresh with ListChats).
func (s *Service) Chats() []store.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]store.Chat(nil), s.chats...)
}

// ActivePath returns the linear message sequence currently displayed,
// root to selected leaf, each step annotated with its sibling position.
func (s *Service) ActivePath() []tree.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tree.Step(nil), s.path...)
}

// Selections returns a copy of the current version-selection map.
func (s *Service) Selections() tree.Selections {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selections.Clone()
}

// IsStreaming reports whether a response is currently in flight.
func (s *Service) IsStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamingMsgID != ""
}

// StreamingMessageID returns the id of the message whose response is in
// flight ("" when idle).
func (s *Service) StreamingMessageID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamingMsgID
}

// Searching reports whether search mode is active (distinct from a
// search that returned nothing).
func (s *Service) Searching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchResults != nil
}

// SearchResults returns the current search results (nil when not
// searching).
func (s *Service) SearchResults() []store.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.searchResults == nil {
		return nil
	}
	return append([]store.SearchResult(nil), s.searchResults...)
}

// LastError returns the most recent asynchronous failure (stream or
// reload), or nil. Synchronous failures are returned from the operation
// that hit them instead.
func (s *Service) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Service) clearSearchLocked() {
	s.searchQuery = ""
	s.searchResults = nil
}
