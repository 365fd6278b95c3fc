package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/NitinBot001/claude-interface/internal/stream"
)

// streamStartedMsg delivers a fresh broker subscription for a message.
type streamStartedMsg struct {
	msgID  string
	ch     <-chan stream.Event
	cancel func()
}

// streamEventMsg carries one cumulative text event; the channel rides
// along so the next wait command can be issued.
type streamEventMsg struct {
	ev stream.Event
	ch <-chan stream.Event
}

// streamClosedMsg signals that the subscription channel closed, either
// after a Done event or because the stream was cancelled.
type streamClosedMsg struct {
	msgID string
}

// subscribeStream opens a broker subscription for msgID. The stream may
// already have settled by the time this command runs (instant producer
// failures in particular), in which case the broker will never close the
// fresh channel; detect that and report the stream as closed instead of
// waiting on it.
func (m *Model) subscribeStream(msgID string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ch, cancel := svc.Broker().Subscribe(msgID)
		if svc.StreamingMessageID() != msgID {
			cancel()
			return streamClosedMsg{msgID: msgID}
		}
		return streamStartedMsg{msgID: msgID, ch: ch, cancel: cancel}
	}
}

// waitStreamEvent blocks on the subscription channel for the next event.
func waitStreamEvent(msgID string, ch <-chan stream.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return streamClosedMsg{msgID: msgID}
		}
		return streamEventMsg{ev: ev, ch: ch}
	}
}
