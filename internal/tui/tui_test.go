package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NitinBot001/claude-interface/internal/chat"
	"github.com/NitinBot001/claude-interface/internal/config"
	"github.com/NitinBot001/claude-interface/internal/log"
	"github.com/NitinBot001/claude-interface/internal/store"
	"github.com/NitinBot001/claude-interface/internal/testutil"
	"github.com/NitinBot001/claude-interface/internal/tree"
)

func testService(t *testing.T) *chat.Service {
	t.Helper()
	svc, err := chat.New(chat.Config{
		Store:    testutil.TempStore(t),
		Producer: testutil.NewScriptedProducer("ok"),
		Logger:   log.NewNop(),
	})
	require.NoError(t, err)
	return svc
}

func TestNew_Validation(t *testing.T) {
	cfg := &config.Config{Model: config.DefaultModel}

	_, err := New(nil, cfg, nil)
	require.Error(t, err)

	_, err = New(testService(t), nil, nil)
	require.Error(t, err)

	m, err := New(testService(t), cfg, log.NewNop())
	require.NoError(t, err)
	assert.Equal(t, -1, m.msgCursor)
}

func TestVersionBadge(t *testing.T) {
	step := func(index, count int) tree.Step {
		return tree.Step{
			Node:         &tree.Node{Message: store.Message{ID: "msg_1"}},
			SiblingIndex: index,
			SiblingCount: count,
		}
	}

	assert.Empty(t, versionBadge(step(0, 1)), "single version gets no badge")
	assert.Equal(t, "‹ 1/2 ›", versionBadge(step(0, 2)))
	assert.Equal(t, "‹ 3/3 ›", versionBadge(step(2, 3)))
}

func TestTruncateLine(t *testing.T) {
	assert.Equal(t, "short", truncateLine("short", 20))
	assert.Equal(t, "exact", truncateLine("exact", 5))
	assert.Equal(t, "long…", truncateLine("longer", 5))
	// Multibyte titles truncate on runes, not bytes.
	assert.Equal(t, "héllo wörl…", truncateLine("héllo wörld here", 11))
}

func TestMatchNote(t *testing.T) {
	title := store.SearchResult{MatchType: store.MatchTitle}
	assert.Equal(t, "title match", matchNote(title))

	one := store.SearchResult{MatchType: store.MatchContent, MatchCount: 1}
	assert.Equal(t, "1 matching message", matchNote(one))

	many := store.SearchResult{MatchType: store.MatchContent, MatchCount: 4}
	assert.Equal(t, "4 matching messages", matchNote(many))
}

func TestKeyMap_HelpCoverage(t *testing.T) {
	k := defaultKeyMap()
	assert.NotEmpty(t, k.ShortHelp())
	full := k.FullHelp()
	require.NotEmpty(t, full)
	for _, row := range full {
		assert.NotEmpty(t, row)
	}
}

func testModel(t *testing.T) *Model {
	t.Helper()
	m, err := New(testService(t), &config.Config{Model: config.DefaultModel}, log.NewNop())
	require.NoError(t, err)
	return m
}

func TestSubscribeStream_SettledStreamReportsClosed(t *testing.T) {
	m := testModel(t)

	// Nothing is in flight, so the broker would never close a fresh
	// subscription; the command must report the stream as gone instead
	// of handing back a channel that blocks forever.
	msg := m.subscribeStream("msg_gone")()
	closed, ok := msg.(streamClosedMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, "msg_gone", closed.msgID)
}

func TestStreamClosed_ReleasesSubscription(t *testing.T) {
	m := testModel(t)

	var released bool
	m.streamingID = "msg_1"
	m.streamCancel = func() { released = true }

	m.Update(streamClosedMsg{msgID: "msg_1"})
	assert.True(t, released)
	assert.Nil(t, m.streamCancel)
	assert.Empty(t, m.streamingID)
}

func TestQuit_ReleasesSubscription(t *testing.T) {
	m := testModel(t)

	var released bool
	m.streamCancel = func() { released = true }

	_, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, released)
	assert.Nil(t, m.streamCancel)
}

func TestMutationsRejectedWhileStreaming(t *testing.T) {
	m := testModel(t)
	m.streamingID = "msg_live"

	m.input.SetValue("another question")
	_, cmd := m.handleInputKey(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "send must not start while a response is in flight")
	assert.Equal(t, "another question", m.input.Value(), "draft is preserved")
	assert.Contains(t, m.status, "Wait for the current response")

	m.status = ""
	_, cmd = m.handleTranscriptKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	assert.Nil(t, cmd)
	assert.Empty(t, m.editingID, "edit must not begin while streaming")
	assert.Contains(t, m.status, "Wait for the current response")

	m.status = ""
	_, cmd = m.handleTranscriptKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Nil(t, cmd, "regenerate must not start while streaming")
	assert.Contains(t, m.status, "Wait for the current response")
}

func TestCurrentModel_Cycles(t *testing.T) {
	m, err := New(testService(t), &config.Config{Model: config.Models[0]}, log.NewNop())
	require.NoError(t, err)

	assert.Equal(t, config.Models[0], m.currentModel())
	m.modelIndex = (m.modelIndex + 1) % len(modelNames())
	assert.Equal(t, config.Models[1], m.currentModel())
}
