// Package chat orchestrates the conversation engine: it owns the current
// chat, the rebuilt message tree, the active path, and the
// version-selection map, and implements the send / edit / regenerate
// branch operations on top of the store, the tree builder, and a
// streaming response producer.
//
// A Service is safe for concurrent use, but the intended calling pattern
// is the UI's: one mutation flow per conversation at a time. The UI is
// responsible for rejecting a new send while a prior one is still
// streaming; the engine does not enforce that convention.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/NitinBot001/claude-interface/internal/id"
	"github.com/NitinBot001/claude-interface/internal/store"
	"github.com/NitinBot001/claude-interface/internal/stream"
	"github.com/NitinBot001/claude-interface/internal/tree"
)

const (
	// DefaultTitle names a chat created before its first message.
	DefaultTitle = "New Chat"

	// imageOnlyTitle names a chat whose first message has no text.
	imageOnlyTitle = "Image conversation"

	// imageOnlyPrompt is sent to the producer when the user supplied an
	// image without text.
	imageOnlyPrompt = "What do you see in this image?"

	// titleRunes caps derived chat titles before the ellipsis.
	titleRunes = 50

	// errorMarker prefixes the response text persisted when a stream
	// fails, keeping the conversation navigable instead of leaving a
	// broken pending node.
	errorMarker = "Error: "
)

// Sentinel errors for branch operations. Check with errors.Is().
var (
	// ErrEmptyMessage rejects a submission with neither text nor image,
	// before anything is written.
	ErrEmptyMessage = errors.New("message needs text or an image")

	// ErrMessageNotFound indicates an edit or regenerate referenced a
	// stale or deleted message id.
	ErrMessageNotFound = errors.New("message not found")
)

// Config contains the Service's required dependencies.
type Config struct {
	Store    *store.Store
	Producer stream.Producer
	Broker   *stream.Broker // optional; a private broker is created if nil
	Logger   *slog.Logger
}

func (cfg Config) validate() error {
	if cfg.Store == nil {
		return errors.New("store is required")
	}
	if cfg.Producer == nil {
		return errors.New("producer is required")
	}
	return nil
}

// Service is the conversation engine behind the UI.
type Service struct {
	store    *store.Store
	producer stream.Producer
	broker   *stream.Broker
	logger   *slog.Logger

	mu            sync.Mutex
	currentChatID string
	chats         []store.Chat
	tree          *tree.Tree
	path          []tree.Step
	selections    tree.Selections

	// pendingSelections stages selection updates made by a branch
	// operation; they are merged into selections on the next reload so
	// the newly created branch is immediately visible.
	pendingSelections tree.Selections

	streamingMsgID string
	cancelStream   context.CancelFunc

	searchQuery   string
	searchResults []store.SearchResult // nil = not searching

	lastErr error
}

// New creates a Service. Chats are loaded lazily by ListChats.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid chat service config: %w", err)
	}
	broker := cfg.Broker
	if broker == nil {
		broker = stream.NewBroker()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      cfg.Store,
		producer:   cfg.Producer,
		broker:     broker,
		logger:     logger,
		tree:       tree.Build(nil, logger),
		selections: tree.Selections{},
	}, nil
}

// Broker returns the streaming-content broker UIs subscribe to.
func (s *Service) Broker() *stream.Broker {
	return s.broker
}

// ListChats refreshes and returns all chats, most recently updated first.
func (s *Service) ListChats(ctx context.Context) ([]store.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadChatsLocked(ctx); err != nil {
		return nil, err
	}
	return append([]store.Chat(nil), s.chats...), nil
}

// SwitchChat makes chatID the active conversation. Any in-flight stream
// is cancelled, selections reset, and search cleared.
func (s *Service) SwitchChat(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chatID == s.currentChatID {
		return nil
	}
	if _, err := s.store.GetChat(ctx, chatID); err != nil {
		return err
	}

	s.cancelStreamLocked()
	s.currentChatID = chatID
	s.selections = tree.Selections{}
	s.pendingSelections = nil
	s.clearSearchLocked()
	return s.reloadMessagesLocked(ctx, chatID, false)
}

// NewChat creates a chat and makes it active. When the current chat is
// still empty it is reused instead: repeatedly mashing "new chat" must
// not litter the sidebar with blank conversations.
func (s *Service) NewChat(ctx context.Context, title string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentChatID != "" && s.tree.Empty() {
		return s.currentChatID, nil
	}

	if title == "" {
		title = DefaultTitle
	}
	chatID, err := s.createChatLocked(ctx, title)
	if err != nil {
		return "", err
	}

	s.cancelStreamLocked()
	s.currentChatID = chatID
	s.selections = tree.Selections{}
	s.pendingSelections = nil
	s.clearSearchLocked()
	if err := s.reloadChatsLocked(ctx); err != nil {
		return "", err
	}
	return chatID, s.reloadMessagesLocked(ctx, chatID, false)
}

// DeleteChat removes a chat and its messages. Deleting the active chat
// clears all in-memory state (tree, path, selections, stream).
func (s *Service) DeleteChat(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteChat(ctx, chatID); err != nil {
		return err
	}

	if s.currentChatID == chatID {
		s.cancelStreamLocked()
		s.currentChatID = ""
		s.tree = tree.Build(nil, s.logger)
		s.path = nil
		s.selections = tree.Selections{}
		s.pendingSelections = nil
	}
	s.clearSearchLocked()
	return s.reloadChatsLocked(ctx)
}

// Send appends a new message at the tail of the active path (creating a
// chat first if none is active), stages the selection so the new leaf is
// visible, and starts streaming the response. The returned message is in
// pending state; completion, failure, and cancellation are handled
// asynchronously.
func (s *Service) Send(ctx context.Context, text, model, image string) (store.Message, error) {
	if strings.TrimSpace(text) == "" && image == "" {
		return store.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chatID := s.currentChatID
	isNewChat := false
	if chatID == "" {
		var err error
		chatID, err = s.createChatLocked(ctx, text)
		if err != nil {
			return store.Message{}, err
		}
		s.currentChatID = chatID
		s.selections = tree.Selections{}
		isNewChat = true
	}

	var (
		parentID    *string
		parentIndex *float64
		order       int
	)
	if !isNewChat {
		if len(s.path) > 0 {
			last := s.path[len(s.path)-1]
			pid, pidx := last.ID, last.Index
			parentID, parentIndex = &pid, &pidx
		}
		var err error
		order, err = s.store.NextSiblingOrder(ctx, chatID, parentID)
		if err != nil {
			return store.Message{}, err
		}
	}

	msg := store.Message{
		ID:        id.NewMessageID(),
		ChatID:    chatID,
		ParentID:  parentID,
		Order:     order,
		Index:     store.MessageIndex(parentIndex, order),
		UserText:  text,
		UserImage: image,
		Model:     model,
		SentAt:    time.Now().UTC(),
	}
	if err := s.store.AddMessage(ctx, msg); err != nil {
		return store.Message{}, err
	}

	s.stageSelectionLocked(parentID, order)
	if err := s.reloadChatsLocked(ctx); err != nil {
		return store.Message{}, err
	}
	if err := s.reloadMessagesLocked(ctx, chatID, true); err != nil {
		return store.Message{}, err
	}

	s.startStreamLocked(msg, s.requestFor(msg), isNewChat)
	return msg, nil
}

// Edit forks a new sibling of the original message. The fork happens at
// the original's parent, so the edited version appears as an alternative
// at the same branch point with the original's subtree preserved, and
// a fresh response is streamed for it.
func (s *Service) Edit(ctx context.Context, originalMsgID, text, model, image string) (store.Message, error) {
	if strings.TrimSpace(text) == "" && image == "" {
		return store.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	original, err := s.store.GetMessage(ctx, originalMsgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Message{}, fmt.Errorf("editing %s: %w", originalMsgID, ErrMessageNotFound)
		}
		return store.Message{}, err
	}

	chatID := original.ChatID
	parentID := original.ParentID

	var parentIndex *float64
	if parentID != nil {
		if parent, err := s.store.GetMessage(ctx, *parentID); err == nil {
			parentIndex = &parent.Index
		}
	}

	order, err := s.store.NextSiblingOrder(ctx, chatID, parentID)
	if err != nil {
		return store.Message{}, err
	}

	msg := store.Message{
		ID:        id.NewMessageID(),
		ChatID:    chatID,
		ParentID:  parentID,
		Order:     order,
		Index:     store.MessageIndex(parentIndex, order),
		UserText:  text,
		UserImage: image,
		Model:     model,
		SentAt:    time.Now().UTC(),
	}
	if err := s.store.AddMessage(ctx, msg); err != nil {
		return store.Message{}, err
	}

	if err := s.reloadChatsLocked(ctx); err != nil {
		return store.Message{}, err
	}
	if chatID == s.currentChatID {
		s.stageSelectionLocked(parentID, order)
		if err := s.reloadMessagesLocked(ctx, chatID, true); err != nil {
			return store.Message{}, err
		}
	}

	s.startStreamLocked(msg, s.requestFor(msg), false)
	return msg, nil
}

// Regenerate resets an existing message's response to pending and streams
// a replacement in place. The message keeps its id, sibling order, and
// index; overrides (when non-nil) change only the prompt sent to the
// producer, never the stored user content.
func (s *Service) Regenerate(ctx context.Context, msgID string, textOverride, imageOverride *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, err := s.store.GetMessage(ctx, msgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("regenerating %s: %w", msgID, ErrMessageNotFound)
		}
		return err
	}

	msg.Response = ""
	msg.RespondedAt = nil
	if err := s.store.UpdateMessage(ctx, msg); err != nil {
		return err
	}
	if msg.ChatID == s.currentChatID {
		if err := s.reloadMessagesLocked(ctx, msg.ChatID, true); err != nil {
			return err
		}
	}

	req := s.requestFor(msg)
	if textOverride != nil {
		req.Prompt = *textOverride
		if req.Prompt == "" {
			req.Prompt = imageOnlyPrompt
		}
	}
	if imageOverride != nil {
		req.Image = *imageOverride
	}

	s.startStreamLocked(msg, req, false)
	return nil
}

// SelectVersion chooses which sibling is visible at a branch point.
// parentKey is the parent message id, or tree.RootKey for the root
// branch point.
func (s *Service) SelectVersion(parentKey string, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections[parentKey] = index
	s.path = s.tree.ActivePath(s.selections)
}

// CancelStream aborts the in-flight stream, if any. The target message
// stays pending (nothing partial is ever persisted) and remains
// regenerate-able.
func (s *Service) CancelStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelStreamLocked()
}

// Search finds chats matching the query. An empty or whitespace query
// clears search mode, which is distinct from a search with zero results.
func (s *Service) Search(ctx context.Context, query string) ([]store.SearchResult, error) {
	trimmed := strings.TrimSpace(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.searchQuery = query
	if trimmed == "" {
		s.searchResults = nil
		return nil, nil
	}

	results, err := s.store.SearchChats(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []store.SearchResult{}
	}
	s.searchResults = results
	return append([]store.SearchResult(nil), results...), nil
}

// ClearSearch leaves search mode.
func (s *Service) ClearSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearSearchLocked()
}
