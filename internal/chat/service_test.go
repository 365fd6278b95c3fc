package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NitinBot001/claude-interface/internal/log"
	"github.com/NitinBot001/claude-interface/internal/store"
	"github.com/NitinBot001/claude-interface/internal/testutil"
	"github.com/NitinBot001/claude-interface/internal/tree"
)

const testModel = "claude-sonnet-4"

func newTestService(t *testing.T) (*Service, *testutil.ScriptedProducer) {
	t.Helper()
	producer := testutil.NewScriptedProducer("fallback reply")
	svc, err := New(Config{
		Store:    testutil.TempStore(t),
		Producer: producer,
		Logger:   log.NewNop(),
	})
	require.NoError(t, err)
	return svc, producer
}

// waitIdle blocks until the in-flight stream (if any) has fully settled,
// including its persistence and reload.
func waitIdle(t *testing.T, svc *Service) {
	t.Helper()
	require.Eventually(t, func() bool { return !svc.IsStreaming() },
		2*time.Second, 5*time.Millisecond, "stream never settled")
}

func pathTexts(svc *Service) []string {
	var texts []string
	for _, step := range svc.ActivePath() {
		texts = append(texts, step.UserText)
	}
	return texts
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestSend_FirstMessageCreatesChat(t *testing.T) {
	svc, producer := newTestService(t)
	producer.Reply("hello", "Hi! How can I help?")
	ctx := context.Background()

	msg, err := svc.Send(ctx, "hello", testModel, "")
	require.NoError(t, err)
	assert.Nil(t, msg.ParentID)
	assert.Equal(t, 0, msg.Order)
	assert.Equal(t, 1.0, msg.Index)
	assert.True(t, msg.Pending())
	require.NotEmpty(t, svc.CurrentChatID())

	waitIdle(t, svc)

	path := svc.ActivePath()
	require.Len(t, path, 1)
	assert.Equal(t, "Hi! How can I help?", path[0].Response)
	require.NotNil(t, path[0].RespondedAt)

	chats := svc.Chats()
	require.Len(t, chats, 1)
	assert.Equal(t, "hello", chats[0].Title)
}

func TestSend_SecondMessageExtendsPath(t *testing.T) {
	svc, producer := newTestService(t)
	producer.Reply("hello", "hi")
	producer.Reply("world", "indeed")
	ctx := context.Background()

	first, err := svc.Send(ctx, "hello", testModel, "")
	require.NoError(t, err)
	waitIdle(t, svc)

	second, err := svc.Send(ctx, "world", testModel, "")
	require.NoError(t, err)
	waitIdle(t, svc)

	require.NotNil(t, second.ParentID)
	assert.Equal(t, first.ID, *second.ParentID)
	assert.Equal(t, 0, second.Order)
	assert.InDelta(t, 1.1, second.Index, 1e-12)

	assert.Equal(t, []string{"hello", "world"}, pathTexts(svc))
}

func TestSend_RejectsEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Send(context.Background(), "   ", testModel, "")
	require.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, svc.CurrentChatID(), "nothing may be written before validation")
}

func TestSend_ImageOnly(t *testing.T) {
	svc, producer := newTestService(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, "", testModel, "data:image/jpeg;base64,xyz")
	require.NoError(t, err)
	waitIdle(t, svc)

	chats := svc.Chats()
	require.Len(t, chats, 1)
	assert.Equal(t, "Image conversation", chats[0].Title)

	calls := producer.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "What do you see in this image?", calls[0].Prompt)
	assert.Equal(t, "data:image/jpeg;base64,xyz", calls[0].Image)
}

func TestSend_LongTitleTruncated(t *testing.T) {
	svc, _ := newTestService(t)
	long := "This opening message is well over fifty characters long in total."

	_, err := svc.Send(context.Background(), long, testModel, "")
	require.NoError(t, err)
	waitIdle(t, svc)

	chats := svc.Chats()
	require.Len(t, chats, 1)
	assert.Equal(t, long[:50]+"...", chats[0].Title)
}

func TestEdit_ForksSiblingAtParent(t *testing.T) {
	svc, producer := newTestService(t)
	producer.Reply("hello", "hi")
	producer.Reply("world", "indeed")
	producer.Reply("hi", "hey there")
	ctx := context.Background()

	first, err := svc.Send(ctx, "hello", testModel, "")
	require.NoError(t, err)
	waitIdle(t, svc)
	_, err = svc.Send(ctx, "world", testModel, "")
	require.NoError(t, err)
	waitIdle(t, svc)

	// Editing the root message forks a second root, not a child.
	edited, err := svc.Edit(ctx, first.ID, "hi", testModel, "")
	require.NoError(t, err)
	waitIdle(t, svc)

	assert.Nil(t, edited.ParentID)
	assert.Equal(t, 1, edited.Order)
	assert.Equal(t, 1.0, edited.Index)

	// The staged selection makes the new branch immediately visible.
	assert.Equal(t, []string{"hi"}, pathTexts(svc))

	// The original version and its subtree are preserved untouched.
	svc.SelectVersion(tree.RootKey, 0)
	assert.Equal(t, []string{"hello", "world"}, pathTexts(svc))

	path := svc.ActivePath()
	assert.Equal(t, 2, path[0].SiblingCount)
	assert.Equal(t, 0, path[0].SiblingIndex)
}

func TestEdit_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Edit(context.Background(), "msg_stale", "hi", testModel, "")
	require.ErrorIs(t, err, ErrMessageNotFound)
}

func TestRegenerate_InPlace(t *testing.T) {
	svc, producer := newTestService(t)
	producer.Reply("hello", "first answer")
	ctx := context.Background()

	msg, err := svc.Send(ctx, "hello", testModel, "")
	require.NoError(t, err)
	waitIdle(t, svc)

	// Regenerate with a prompt override so a different rule matches.
	producer.Reply("try once more", "second answer")
	override := "try once more"
	require.NoError(t, svc.Regenerate(ctx, msg.ID, &override, nil))
	waitIdle(t, svc)

	path := svc.ActivePath()
	require.Len(t, path, 1)
	assert.Equal(t, msg.ID, path[0].ID)
	assert.Equal(t, msg.Order, path[0].Order)
	assert.Equal(t, msg.Index, path[0].Index)
	assert.Equal(t, "second answer", path[0].Response)
	// The stored user text is untouched by the prompt override.
	assert.Equal(t, "hello", path[0].UserText)
}

func TestRegenerate_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Regenerate(context.Background(), "msg_stale", nil, nil)
	require.ErrorIs(t, err, ErrMessageNotFound)
}

func TestCancelStream_LeavesMessagePending(t *testing.T) {
	svc, producer := newTestService(t)
	producer.Stall("hello")
	ctx := context.Background()

	msg, err := svc.Send(ctx, "hello", testModel, "")
	require.NoError(t, err)
	assert.True(t, svc.IsStreaming())

	ch, cancelSub := svc.Broker().Subscribe(msg.ID)
	defer cancelSub()

	svc.CancelStream()
	waitIdle(t, svc)

	// The transient channel closes without a Done event.
	for ev := range ch {
		assert.False(t, ev.Done)
	}

	got, err := svc.Store().GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, got.Pending(), "cancelled message must stay pending")

	// Still regenerate-able afterwards. The stall rule registered above
	// would match the original prompt again, so override it.
	producer.Reply("second try", "recovered")
	override := "second try"
	require.NoError(t, svc.Regenerate(ctx, msg.ID, &override, nil))
	waitIdle(t, svc)

	got, err = svc.Store().GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "recovered", got.Response)
}

func TestStreamFailure_PersistsErrorMarker(t *testing.T) {
	svc, producer := newTestService(t)
	producer.FailWith("hello", errors.New("model overloaded"))
	ctx := context.Background()

	_, err := svc.Send(ctx, "hello", testModel, "")
	require.NoError(t, err)
	waitIdle(t, svc)

	path := svc.ActivePath()
	require.Len(t, path, 1)
	assert.Equal(t, "Error: model overloaded", path[0].Response)
	require.NotNil(t, path[0].RespondedAt, "errored message is settled, not pending")
	require.Error(t, svc.LastError())
}

func TestStreaming_ChunkedReplyPersistsFullText(t *testing.T) {
	svc, producer := newTestService(t)
	producer.Reply("hello", "abcdef")
	producer.ChunkSize = 2
	ctx := context.Background()

	_, err := svc.Send(ctx, "hello", testModel, "")
	require.NoError(t, err)
	waitIdle(t, svc)

	path := svc.ActivePath()
	require.Len(t, path, 1)
	assert.Equal(t, "abcdef", path[0].Response)
}

func TestNewChat_ReusesEmptyChat(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.NewChat(ctx, "")
	require.NoError(t, err)

	second, err := svc.NewChat(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, first, second, "an empty current chat is reused")

	chats := svc.Chats()
	assert.Len(t, chats, 1)
}

func TestDeleteChat_ClearsActiveState(t *testing.T) {
	svc, producer := newTestService(t)
	producer.Reply("hello", "hi")
	ctx := context.Background()

	_, err := svc.Send(ctx, "hello", testModel, "")
	require.NoError(t, err)
	waitIdle(t, svc)

	chatID := svc.CurrentChatID()
	require.NoError(t, svc.DeleteChat(ctx, chatID))

	assert.Empty(t, svc.CurrentChatID())
	assert.Empty(t, svc.ActivePath())
	assert.Empty(t, svc.Chats())
	assert.Empty(t, svc.Selections())

	msgs, err := svc.Store().MessagesByChat(ctx, chatID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSwitchChat_ResetsSelections(t *testing.T) {
	svc, producer := newTestService(t)
	producer.Reply("hello", "hi")
	ctx := context.Background()

	first, err := svc.Send(ctx, "hello", testModel, "")
	require.NoError(t, err)
	waitIdle(t, svc)
	chatA := svc.CurrentChatID()

	_, err = svc.Edit(ctx, first.ID, "hi", testModel, "")
	require.NoError(t, err)
	waitIdle(t, svc)
	require.NotEmpty(t, svc.Selections())

	chatB, err := svc.NewChat(ctx, "second")
	require.NoError(t, err)
	_, err = svc.Send(ctx, "other topic", testModel, "")
	require.NoError(t, err)
	waitIdle(t, svc)
	require.Equal(t, chatB, svc.CurrentChatID())

	require.NoError(t, svc.SwitchChat(ctx, chatA))
	assert.Empty(t, svc.Selections(), "selections reset on switch")
	// Default selection shows the original version again.
	assert.Equal(t, []string{"hello"}, pathTexts(svc))
}

func TestSwitchChat_UnknownChat(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.SwitchChat(context.Background(), "chat_missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSearch_Lifecycle(t *testing.T) {
	svc, producer := newTestService(t)
	producer.Reply("hello", "greetings from the model")
	ctx := context.Background()

	_, err := svc.Send(ctx, "hello", testModel, "")
	require.NoError(t, err)
	waitIdle(t, svc)

	results, err := svc.Search(ctx, "greetings")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, store.MatchContent, results[0].MatchType)
	assert.True(t, svc.Searching())

	// Zero results is still search mode.
	results, err = svc.Search(ctx, "quantum chromodynamics")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.True(t, svc.Searching())

	// A whitespace query leaves search mode entirely.
	_, err = svc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.False(t, svc.Searching())
}
