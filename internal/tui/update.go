package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/NitinBot001/claude-interface/internal/tree"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.transcript = viewport.New(0, 0)
		}
		m.ready = true
		m.resize()
		m.refreshTranscript()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.streamingID != "" {
			m.refreshTranscript()
		}
		return m, cmd

	case chatsLoadedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.chats = msg.chats
		if m.chatCursor >= len(m.chats) {
			m.chatCursor = max(0, len(m.chats)-1)
		}
		return m, nil

	case messageSentMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.input.Reset()
		m.editingID = ""
		m.streamingID = msg.msg.ID
		m.streamText = ""
		m.msgCursor = -1
		m.refreshPath()
		return m, tea.Batch(m.subscribeStream(msg.msg.ID), m.loadChats())

	case regeneratedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.streamingID = msg.msgID
		m.streamText = ""
		m.refreshPath()
		return m, m.subscribeStream(msg.msgID)

	case streamStartedMsg:
		m.streamCancel = msg.cancel
		return m, waitStreamEvent(msg.msgID, msg.ch)

	case streamEventMsg:
		if msg.ev.MsgID == m.streamingID {
			m.streamText = msg.ev.Text
			m.refreshTranscript()
			m.transcript.GotoBottom()
		}
		return m, waitStreamEvent(msg.ev.MsgID, msg.ch)

	case streamClosedMsg:
		if msg.msgID == m.streamingID {
			m.streamingID = ""
			m.streamText = ""
		}
		if m.streamCancel != nil {
			m.streamCancel()
			m.streamCancel = nil
		}
		m.lastErr = m.svc.LastError()
		m.refreshPath()
		m.transcript.GotoBottom()
		return m, m.loadChats()

	case chatSwitchedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.msgCursor = -1
		m.streamingID = ""
		m.streamText = ""
		m.refreshPath()
		m.focusPane(focusInput)
		return m, m.loadChats()

	case chatDeletedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.chatCursor = 0
		m.msgCursor = -1
		m.refreshPath()
		return m, m.loadChats()

	case searchDoneMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.searching = strings.TrimSpace(msg.query) != ""
		m.searchResults = msg.results
		m.chatCursor = 0
		return m, nil

	case errMsg:
		return m.fail(msg.err)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.streamingID != "" && time.Since(m.lastCtrlC) > ctrlCWindow {
			// First Ctrl+C cancels the stream; a quick second one quits.
			m.lastCtrlC = time.Now()
			m.svc.CancelStream()
			m.status = "Stream cancelled. Press Ctrl+C again to quit."
			return m, nil
		}
		if m.streamCancel != nil {
			m.streamCancel()
			m.streamCancel = nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.NewChat):
		return m, m.newChat()

	case key.Matches(msg, m.keys.Search):
		m.focusPane(focusSearch)
		return m, nil

	case key.Matches(msg, m.keys.CycleModel):
		m.modelIndex = (m.modelIndex + 1) % len(modelNames())
		m.status = "Model: " + m.currentModel()
		return m, nil

	case key.Matches(msg, m.keys.ShowHelp):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil

	case key.Matches(msg, m.keys.NextFocus):
		switch m.focus {
		case focusInput:
			m.focusPane(focusSidebar)
		case focusSidebar:
			m.focusPane(focusTranscript)
		default:
			m.focusPane(focusInput)
		}
		return m, nil
	}

	switch m.focus {
	case focusInput:
		return m.handleInputKey(msg)
	case focusSidebar:
		return m.handleSidebarKey(msg)
	case focusSearch:
		return m.handleSearchKey(msg)
	case focusTranscript:
		return m.handleTranscriptKey(msg)
	}
	return m, nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Send):
		if m.streamBusy() {
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.status = ""
		m.lastErr = nil
		if m.editingID != "" {
			return m, m.editMessage(m.editingID, text, m.currentModel(), "")
		}
		return m, m.sendMessage(text, m.currentModel(), "")

	case key.Matches(msg, m.keys.Cancel):
		if m.editingID != "" {
			m.editingID = ""
			m.input.Reset()
			m.status = "Edit cancelled"
			return m, nil
		}
		if m.streamingID != "" {
			m.svc.CancelStream()
			m.status = "Stream cancelled"
			return m, nil
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.sidebarLen()
	switch {
	case key.Matches(msg, m.keys.PrevMsg):
		if m.chatCursor > 0 {
			m.chatCursor--
		}
	case key.Matches(msg, m.keys.NextMsg):
		if m.chatCursor < items-1 {
			m.chatCursor++
		}
	case key.Matches(msg, m.keys.Send):
		if chatID := m.sidebarChatID(m.chatCursor); chatID != "" {
			return m, m.switchChat(chatID)
		}
	case key.Matches(msg, m.keys.DeleteChat):
		if chatID := m.sidebarChatID(m.chatCursor); chatID != "" {
			return m, m.deleteChat(chatID)
		}
	case key.Matches(msg, m.keys.Cancel):
		if m.searching {
			m.clearSearch()
			return m, nil
		}
		m.focusPane(focusInput)
	}
	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Send):
		query := m.search.Value()
		m.focusPane(focusSidebar)
		return m, m.runSearch(query)

	case key.Matches(msg, m.keys.Cancel):
		m.clearSearch()
		m.focusPane(focusInput)
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) handleTranscriptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.PrevMsg):
		if len(m.path) == 0 {
			return m, nil
		}
		if m.msgCursor < 0 {
			m.msgCursor = len(m.path) - 1
		}
		if m.msgCursor > 0 {
			m.msgCursor--
		}
		m.refreshTranscript()
		return m, nil

	case key.Matches(msg, m.keys.NextMsg):
		if m.msgCursor >= 0 && m.msgCursor < len(m.path)-1 {
			m.msgCursor++
		} else {
			m.msgCursor = -1
		}
		m.refreshTranscript()
		return m, nil

	case key.Matches(msg, m.keys.PrevVersion):
		return m.shiftVersion(-1)

	case key.Matches(msg, m.keys.NextVersion):
		return m.shiftVersion(+1)

	case key.Matches(msg, m.keys.Edit):
		if m.streamBusy() {
			return m, nil
		}
		step := m.selectedStep()
		if step == nil {
			return m, nil
		}
		m.editingID = step.ID
		m.input.SetValue(step.UserText)
		m.focusPane(focusInput)
		m.status = "Editing message (Esc to cancel)"
		return m, nil

	case key.Matches(msg, m.keys.Regenerate):
		if m.streamBusy() {
			return m, nil
		}
		step := m.selectedStep()
		if step == nil {
			return m, nil
		}
		m.status = ""
		return m, m.regenerateMessage(step.ID)

	case key.Matches(msg, m.keys.Cancel):
		m.msgCursor = -1
		m.refreshTranscript()
		m.focusPane(focusInput)
		return m, nil
	}

	var cmd tea.Cmd
	m.transcript, cmd = m.transcript.Update(msg)
	return m, cmd
}

// shiftVersion moves the selected branch point to an adjacent sibling.
func (m *Model) shiftVersion(delta int) (tea.Model, tea.Cmd) {
	step := m.selectedStep()
	if step == nil || step.SiblingCount < 2 {
		return m, nil
	}
	next := step.SiblingIndex + delta
	if next < 0 || next >= step.SiblingCount {
		return m, nil
	}
	cursor := m.msgCursor
	m.svc.SelectVersion(tree.BranchKey(step.ParentID), next)
	m.refreshPath()
	if cursor >= 0 && cursor < len(m.path) {
		m.msgCursor = cursor
	}
	m.refreshTranscript()
	return m, nil
}

// streamBusy rejects a mutation while a response is in flight. Only one
// send, edit, or regenerate may run per conversation at a time; the
// status bar tells the user how to proceed.
func (m *Model) streamBusy() bool {
	if m.streamingID == "" {
		return false
	}
	m.status = "Wait for the current response or press Esc to cancel"
	return true
}

// updateFocused forwards non-key messages to the focused component.
func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.transcript, cmd = m.transcript.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) fail(err error) (tea.Model, tea.Cmd) {
	m.lastErr = err
	m.status = err.Error()
	m.logger.Error("tui operation failed", "error", err)
	return m, nil
}

func (m *Model) focusPane(f focusArea) {
	m.focus = f
	m.input.Blur()
	m.search.Blur()
	switch f {
	case focusInput:
		m.input.Focus()
	case focusSearch:
		m.search.Focus()
	}
}

func (m *Model) clearSearch() {
	m.search.Reset()
	m.searching = false
	m.searchResults = nil
	m.chatCursor = 0
	m.svc.ClearSearch()
}

// refreshPath pulls the active path after any mutation or selection
// change and rebuilds the transcript.
func (m *Model) refreshPath() {
	m.path = m.svc.ActivePath()
	if m.msgCursor >= len(m.path) {
		m.msgCursor = len(m.path) - 1
	}
	m.refreshTranscript()
}

func (m *Model) sidebarLen() int {
	if m.searching {
		return len(m.searchResults)
	}
	return len(m.chats)
}

func (m *Model) sidebarChatID(i int) string {
	if m.searching {
		if i < 0 || i >= len(m.searchResults) {
			return ""
		}
		return m.searchResults[i].Chat.ID
	}
	if i < 0 || i >= len(m.chats) {
		return ""
	}
	return m.chats[i].ID
}
