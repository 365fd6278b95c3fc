package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NitinBot001/claude-interface/internal/log"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "chat.db"), log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testMessage(chatID, msgID string, parentID *string, order int, index float64) Message {
	return Message{
		ID:       msgID,
		ChatID:   chatID,
		ParentID: parentID,
		Order:    order,
		Index:    index,
		UserText: "hello",
		Model:    "claude-sonnet-4",
		SentAt:   time.Now().UTC(),
	}
}

func TestOpen_CreatesSchema(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestCreateChat(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat, err := s.CreateChat(ctx, Chat{ID: "chat_1", Title: "First"})
	require.NoError(t, err)
	assert.Equal(t, DefaultUserID, chat.UserID)
	assert.False(t, chat.CreatedAt.IsZero())
	assert.Equal(t, chat.CreatedAt, chat.UpdatedAt)

	got, err := s.GetChat(ctx, "chat_1")
	require.NoError(t, err)
	assert.Equal(t, "First", got.Title)
}

func TestCreateChat_DuplicateKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateChat(ctx, Chat{ID: "chat_1", Title: "First"})
	require.NoError(t, err)

	_, err = s.CreateChat(ctx, Chat{ID: "chat_1", Title: "Again"})
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestGetChat_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetChat(context.Background(), "chat_missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateChat_RefreshesUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat, err := s.CreateChat(ctx, Chat{ID: "chat_1", Title: "First"})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	updated, err := s.UpdateChat(ctx, chat)
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(chat.UpdatedAt),
		"UpdatedAt %v should be after %v", updated.UpdatedAt, chat.UpdatedAt)
}

func TestChats_SortedByRecency(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateChat(ctx, Chat{ID: "chat_a", Title: "A"})
	require.NoError(t, err)
	_, err = s.CreateChat(ctx, Chat{ID: "chat_b", Title: "B"})
	require.NoError(t, err)

	// Touching A moves it back to the front.
	time.Sleep(10 * time.Millisecond)
	_, err = s.UpdateChat(ctx, a)
	require.NoError(t, err)

	chats, err := s.Chats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "chat_a", chats[0].ID)
	assert.Equal(t, "chat_b", chats[1].ID)
}

func TestAddMessage_RootParentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddMessage(ctx, testMessage("chat_1", "msg_1", nil, 0, 1)))

	got, err := s.GetMessage(ctx, "msg_1")
	require.NoError(t, err)
	assert.Nil(t, got.ParentID, "nil parent must survive a round trip")
	assert.Nil(t, got.RespondedAt)
	assert.True(t, got.Pending())
}

func TestAddMessage_ChildParentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	parent := "msg_1"
	require.NoError(t, s.AddMessage(ctx, testMessage("chat_1", "msg_1", nil, 0, 1)))
	require.NoError(t, s.AddMessage(ctx, testMessage("chat_1", "msg_2", &parent, 0, 1.1)))

	got, err := s.GetMessage(ctx, "msg_2")
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, "msg_1", *got.ParentID)
}

func TestAddMessage_DuplicateKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddMessage(ctx, testMessage("chat_1", "msg_1", nil, 0, 1)))
	err := s.AddMessage(ctx, testMessage("chat_1", "msg_1", nil, 1, 1))
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestUpdateMessage_CompletesResponse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := testMessage("chat_1", "msg_1", nil, 0, 1)
	require.NoError(t, s.AddMessage(ctx, m))

	now := time.Now().UTC()
	m.Response = "hi there"
	m.RespondedAt = &now
	require.NoError(t, s.UpdateMessage(ctx, m))

	got, err := s.GetMessage(ctx, "msg_1")
	require.NoError(t, err)
	assert.Equal(t, "hi there", got.Response)
	require.NotNil(t, got.RespondedAt)
	assert.False(t, got.Pending())
}

func TestChildren_SortedByOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	parent := "msg_root"
	require.NoError(t, s.AddMessage(ctx, testMessage("chat_1", "msg_root", nil, 0, 1)))
	// Insert out of order on purpose.
	require.NoError(t, s.AddMessage(ctx, testMessage("chat_1", "msg_c", &parent, 2, 1.001)))
	require.NoError(t, s.AddMessage(ctx, testMessage("chat_1", "msg_a", &parent, 0, 1.1)))
	require.NoError(t, s.AddMessage(ctx, testMessage("chat_1", "msg_b", &parent, 1, 1.01)))

	children, err := s.Children(ctx, "chat_1", &parent)
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, []string{"msg_a", "msg_b", "msg_c"},
		[]string{children[0].ID, children[1].ID, children[2].ID})
}

func TestChildren_RootsWhenParentNil(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	parent := "msg_1"
	require.NoError(t, s.AddMessage(ctx, testMessage("chat_1", "msg_1", nil, 0, 1)))
	require.NoError(t, s.AddMessage(ctx, testMessage("chat_1", "msg_2", &parent, 0, 1.1)))
	require.NoError(t, s.AddMessage(ctx, testMessage("chat_1", "msg_3", nil, 1, 1)))

	roots, err := s.Children(ctx, "chat_1", nil)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "msg_1", roots[0].ID)
	assert.Equal(t, "msg_3", roots[1].ID)
}

func TestDeleteSubtree(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// root -> a -> b, root -> c. Deleting a removes a and b, keeps root and c.
	root, a := "msg_root", "msg_a"
	require.NoError(t, s.AddMessage(ctx, testMessage("chat_1", "msg_root", nil, 0, 1)))
	require.NoError(t, s.AddMessage(ctx, testMessage("chat_1", "msg_a", &root, 0, 1.1)))
	require.NoError(t, s.AddMessage(ctx, testMessage("chat_1", "msg_b", &a, 0, 1.11)))
	require.NoError(t, s.AddMessage(ctx, testMessage("chat_1", "msg_c", &root, 1, 1.01)))

	require.NoError(t, s.DeleteSubtree(ctx, "msg_a"))

	_, err := s.GetMessage(ctx, "msg_a")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetMessage(ctx, "msg_b")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetMessage(ctx, "msg_root")
	require.NoError(t, err)
	_, err = s.GetMessage(ctx, "msg_c")
	require.NoError(t, err)
}

func TestDeleteSubtree_MissingIDIsNoop(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.DeleteSubtree(context.Background(), "msg_missing"))
}

func TestDeleteChat_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateChat(ctx, Chat{ID: "chat_1", Title: "Doomed"})
	require.NoError(t, err)
	_, err = s.CreateChat(ctx, Chat{ID: "chat_2", Title: "Survivor"})
	require.NoError(t, err)

	parent := "msg_1"
	require.NoError(t, s.AddMessage(ctx, testMessage("chat_1", "msg_1", nil, 0, 1)))
	require.NoError(t, s.AddMessage(ctx, testMessage("chat_1", "msg_2", &parent, 0, 1.1)))
	require.NoError(t, s.AddMessage(ctx, testMessage("chat_2", "msg_3", nil, 0, 1)))

	require.NoError(t, s.DeleteChat(ctx, "chat_1"))

	_, err = s.GetChat(ctx, "chat_1")
	require.ErrorIs(t, err, ErrNotFound)

	msgs, err := s.MessagesByChat(ctx, "chat_1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	// The other chat's tree is untouched.
	msgs, err = s.MessagesByChat(ctx, "chat_2")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}
