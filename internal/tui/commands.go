package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/NitinBot001/claude-interface/internal/store"
)

// Command result messages.
type chatsLoadedMsg struct {
	chats []store.Chat
	err   error
}

type messageSentMsg struct {
	msg store.Message
	err error
}

type regeneratedMsg struct {
	msgID string
	err   error
}

type chatSwitchedMsg struct {
	chatID string
	err    error
}

type chatDeletedMsg struct {
	chatID string
	err    error
}

type searchDoneMsg struct {
	query   string
	results []store.SearchResult
	err     error
}

type errMsg struct{ err error }

func (m *Model) loadChats() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		chats, err := svc.ListChats(context.Background())
		return chatsLoadedMsg{chats: chats, err: err}
	}
}

func (m *Model) sendMessage(text, model, image string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		msg, err := svc.Send(context.Background(), text, model, image)
		return messageSentMsg{msg: msg, err: err}
	}
}

func (m *Model) editMessage(originalID, text, model, image string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		msg, err := svc.Edit(context.Background(), originalID, text, model, image)
		return messageSentMsg{msg: msg, err: err}
	}
}

func (m *Model) regenerateMessage(msgID string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		err := svc.Regenerate(context.Background(), msgID, nil, nil)
		return regeneratedMsg{msgID: msgID, err: err}
	}
}

func (m *Model) switchChat(chatID string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return chatSwitchedMsg{chatID: chatID, err: svc.SwitchChat(context.Background(), chatID)}
	}
}

func (m *Model) newChat() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		chatID, err := svc.NewChat(context.Background(), "")
		return chatSwitchedMsg{chatID: chatID, err: err}
	}
}

func (m *Model) deleteChat(chatID string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return chatDeletedMsg{chatID: chatID, err: svc.DeleteChat(context.Background(), chatID)}
	}
}

func (m *Model) runSearch(query string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		results, err := svc.Search(context.Background(), query)
		return searchDoneMsg{query: query, results: results, err: err}
	}
}
