package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/NitinBot001/claude-interface/internal/store"
	"github.com/NitinBot001/claude-interface/internal/tree"
)

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	sidebar := m.renderSidebar()
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.transcript.View(),
		m.renderInput(),
		m.renderStatus(),
		m.help.View(m.keys),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
}

// resize recomputes component dimensions after a window size change or
// help toggle.
func (m *Model) resize() {
	mainWidth := m.width - sidebarWidth
	if mainWidth < 20 {
		mainWidth = 20
	}

	helpHeight := helpLines
	if m.help.ShowAll {
		helpHeight = 4
	}
	transcriptHeight := m.height - inputLines - 2 - statusLines - helpHeight
	if transcriptHeight < minTranscript {
		transcriptHeight = minTranscript
	}

	m.transcript.Width = mainWidth
	m.transcript.Height = transcriptHeight
	m.input.SetWidth(mainWidth - 4)
	m.search.Width = sidebarWidth - 6
	m.help.Width = mainWidth
	m.markdown.SetWidth(mainWidth - 4)
}

// renderInput draws the input box, highlighting its border when focused.
func (m *Model) renderInput() string {
	style := m.styles.InputBorder
	if m.focus == focusInput {
		style = m.styles.InputFocused
	}
	return style.Render(m.input.View())
}

// renderStatus draws the one-line status bar: model indicator, stream
// state, and the last error if any.
func (m *Model) renderStatus() string {
	parts := []string{m.styles.ModelIndicator.Render("[" + m.currentModel() + "]")}
	if m.streamingID != "" {
		parts = append(parts, m.spin.View()+m.styles.StatusBar.Render("responding..."))
	}
	if m.lastErr != nil {
		parts = append(parts, m.styles.StatusError.Render(m.lastErr.Error()))
	} else if m.status != "" {
		parts = append(parts, m.styles.StatusBar.Render(m.status))
	}
	return strings.Join(parts, "  ")
}

// renderSidebar draws the chat list, or search results in search mode.
func (m *Model) renderSidebar() string {
	var b strings.Builder

	title := "Chats"
	if m.searching {
		title = fmt.Sprintf("Results (%d)", len(m.searchResults))
	}
	b.WriteString(m.styles.SidebarTitle.Render(title))
	b.WriteString("\n")

	if m.focus == focusSearch || m.searching {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Separator.Render(strings.Repeat("─", sidebarWidth-4)))
	b.WriteString("\n")

	if m.searching {
		for i, res := range m.searchResults {
			b.WriteString(m.renderChatLine(res.Chat, i, matchNote(res)))
			b.WriteString("\n")
		}
		if len(m.searchResults) == 0 {
			b.WriteString(m.styles.MatchNote.Render("No results"))
			b.WriteString("\n")
		}
	} else {
		for i, c := range m.chats {
			b.WriteString(m.renderChatLine(c, i, ""))
			b.WriteString("\n")
		}
		if len(m.chats) == 0 {
			b.WriteString(m.styles.MatchNote.Render("No chats yet"))
			b.WriteString("\n")
		}
	}

	return m.styles.Sidebar.Height(m.height - 2).Render(b.String())
}

func (m *Model) renderChatLine(c store.Chat, i int, note string) string {
	title := truncateLine(c.Title, sidebarWidth-8)
	style := m.styles.ChatItem
	prefix := "  "
	if i == m.chatCursor && (m.focus == focusSidebar || m.focus == focusSearch) {
		style = m.styles.ChatSelected
		prefix = "> "
	}
	if c.ID == m.svc.CurrentChatID() {
		title = "● " + title
	}
	line := style.Render(prefix + title)
	if note != "" {
		line += "\n    " + m.styles.MatchNote.Render(note)
	}
	return line
}

// matchNote describes where a search query matched.
func matchNote(res store.SearchResult) string {
	if res.MatchType == store.MatchTitle {
		return "title match"
	}
	if res.MatchCount == 1 {
		return "1 matching message"
	}
	return fmt.Sprintf("%d matching messages", res.MatchCount)
}

// refreshTranscript rerenders the conversation into the viewport.
func (m *Model) refreshTranscript() {
	m.transcript.SetContent(m.renderTranscript())
}

// renderTranscript draws the active path: each step is a user block and
// a response block, with a version badge at branch points.
func (m *Model) renderTranscript() string {
	if len(m.path) == 0 {
		return m.styles.Pending.Render("\n  Start a conversation. Enter sends, Ctrl+N opens a new chat.")
	}

	var b strings.Builder
	for i, step := range m.path {
		selected := m.msgCursor == i && m.focus == focusTranscript

		header := m.styles.User.Render("You")
		if badge := versionBadge(step); badge != "" {
			badgeStyle := m.styles.Badge
			if selected {
				badgeStyle = m.styles.BadgeActive
			}
			header += " " + badgeStyle.Render(badge)
		}
		if selected {
			header = m.styles.CursorMarker.Render("▶ ") + header
		}
		b.WriteString(header)
		b.WriteString("\n")
		b.WriteString(step.UserText)
		if step.UserImage != "" {
			b.WriteString("\n")
			b.WriteString(m.styles.Pending.Render("[image attached]"))
		}
		b.WriteString("\n\n")

		b.WriteString(m.styles.Assistant.Render("Assistant"))
		b.WriteString("\n")
		b.WriteString(m.renderResponse(step))
		b.WriteString("\n\n")
	}
	return b.String()
}

// renderResponse picks the right body for a step: live stream text,
// pending placeholder, error, or the final rendered markdown.
func (m *Model) renderResponse(step tree.Step) string {
	if step.ID == m.streamingID {
		if m.streamText == "" {
			return m.spin.View() + m.styles.Pending.Render("thinking...")
		}
		return m.markdown.Render(m.streamText)
	}
	if step.Pending() {
		return m.styles.Pending.Render("(no response yet, press r to regenerate)")
	}
	if strings.HasPrefix(step.Response, "Error: ") {
		return m.styles.Error.Render(step.Response)
	}
	return m.markdown.Render(step.Response)
}

// versionBadge formats the sibling position at a branch point, e.g.
// "‹ 2/3 ›". Messages without siblings get no badge.
func versionBadge(step tree.Step) string {
	if step.SiblingCount < 2 {
		return ""
	}
	return fmt.Sprintf("‹ %d/%d ›", step.SiblingIndex+1, step.SiblingCount)
}

// truncateLine shortens s to fit a sidebar row.
func truncateLine(s string, w int) string {
	if w < 4 {
		w = 4
	}
	runes := []rune(s)
	if len(runes) <= w {
		return s
	}
	return string(runes[:w-1]) + "…"
}
