// Package tui provides the Bubble Tea terminal interface: a sidebar with
// the chat list, a scrollable transcript of the active conversation path,
// a multi-line input box, and keyboard-driven branch navigation.
package tui

import (
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NitinBot001/claude-interface/internal/chat"
	"github.com/NitinBot001/claude-interface/internal/config"
	"github.com/NitinBot001/claude-interface/internal/store"
	"github.com/NitinBot001/claude-interface/internal/tree"
)

// focusArea tracks which pane receives key input.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
	focusTranscript
	focusSearch
)

// Layout constants for viewport height calculation.
const (
	sidebarWidth  = 32
	inputLines    = 3
	helpLines     = 1
	statusLines   = 1
	minTranscript = 3
)

// ctrlCWindow is how quickly Ctrl+C must be pressed twice to quit while
// a stream is running.
const ctrlCWindow = 2 * time.Second

// Model is the Bubble Tea model for the conversation interface.
type Model struct {
	svc    *chat.Service
	cfg    *config.Config
	logger *slog.Logger

	input      textarea.Model
	search     textinput.Model
	transcript viewport.Model
	spin       spinner.Model
	help       help.Model
	keys       keyMap
	styles     Styles
	markdown   *markdownRenderer

	width  int
	height int
	ready  bool

	focus focusArea

	// Sidebar
	chats         []store.Chat
	chatCursor    int
	searchResults []store.SearchResult
	searching     bool

	// Transcript
	path       []tree.Step
	msgCursor  int // index into path; -1 means follow the tail
	modelIndex int

	// Editing: when set, submitting the input forks this message
	// instead of appending.
	editingID string

	// Streaming
	streamingID  string
	streamText   string
	streamCancel func() // unsubscribes the live broker channel

	status  string
	lastErr error

	lastCtrlC time.Time
}

// New creates the TUI model. The service must be ready; chats are loaded
// by the first command Init issues.
func New(svc *chat.Service, cfg *config.Config, logger *slog.Logger) (*Model, error) {
	if svc == nil {
		return nil, errors.New("chat service is required")
	}
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	styles := DefaultStyles()

	ta := textarea.New()
	ta.Placeholder = "Type a message... (Enter to send, Alt+Enter for newline)"
	ta.KeyMap.InsertNewline.SetKeys("alt+enter")
	ta.Prompt = "┃ "
	ta.CharLimit = 8000
	ta.SetHeight(inputLines)
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ta.Focus()

	si := textinput.New()
	si.Placeholder = "Search chats..."
	si.Prompt = "/ "
	si.CharLimit = 200

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = styles.Spinner

	modelIndex := 0
	for i, m := range config.Models {
		if m == cfg.Model {
			modelIndex = i
			break
		}
	}

	return &Model{
		svc:        svc,
		cfg:        cfg,
		logger:     logger,
		input:      ta,
		search:     si,
		spin:       sp,
		help:       help.New(),
		keys:       defaultKeyMap(),
		styles:     styles,
		markdown:   newMarkdownRenderer(80),
		msgCursor:  -1,
		modelIndex: modelIndex,
	}, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadChats(), m.spin.Tick, textarea.Blink)
}

// Run starts the program and blocks until the user quits.
func Run(svc *chat.Service, cfg *config.Config, logger *slog.Logger) error {
	model, err := New(svc, cfg, logger)
	if err != nil {
		return err
	}
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}

// modelNames lists the selectable models in cycle order.
func modelNames() []string {
	return config.Models
}

// currentModel returns the model name used for the next send.
func (m *Model) currentModel() string {
	return config.Models[m.modelIndex]
}

// selectedStep returns the transcript step under the cursor, or the tail
// of the path when the cursor follows the stream.
func (m *Model) selectedStep() *tree.Step {
	if len(m.path) == 0 {
		return nil
	}
	i := m.msgCursor
	if i < 0 || i >= len(m.path) {
		i = len(m.path) - 1
	}
	return &m.path[i]
}
