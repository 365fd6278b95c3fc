package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NitinBot001/claude-interface/internal/log"
	"github.com/NitinBot001/claude-interface/internal/store"
)

// execute runs the root command with args and captures its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// isolate points config at throwaway locations.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "test.db")
	t.Setenv("CLAUDE_INTERFACE_DB", dbPath)
	return dbPath
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "claude-interface dev")
}

func TestChatsList_Empty(t *testing.T) {
	isolate(t)

	out, err := execute(t, "chats", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No chats.")
}

func TestChatsList_ShowsStoredChats(t *testing.T) {
	dbPath := isolate(t)

	st, err := store.Open(dbPath, log.NewNop())
	require.NoError(t, err)
	_, err = st.CreateChat(context.Background(), store.Chat{
		ID:    "chat_cli",
		Title: "CLI visible chat",
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, "chats", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "chat_cli")
	assert.Contains(t, out, "CLI visible chat")
}

func TestChatsSearch_NoMatches(t *testing.T) {
	isolate(t)

	out, err := execute(t, "chats", "search", "nonexistent")
	require.NoError(t, err)
	assert.Contains(t, out, "No matches.")
}

func TestChatsDelete_MissingChatFails(t *testing.T) {
	isolate(t)

	// Deleting an unknown chat is a no-op on messages and chat rows.
	_, err := execute(t, "chats", "delete", "chat_missing")
	require.NoError(t, err)
}
