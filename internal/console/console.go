package console

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yapycon/yapycon/internal/hostctx"
)

const prompt = ">>> "

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// OutputMsg carries one line of kernel output into the event loop.
type OutputMsg string

// KernelExitedMsg signals that the kernel process is gone.
type KernelExitedMsg struct{}

// Submitter forwards a console input line to the kernel.
type Submitter interface {
	SendInput(line string) error
}

// Model is the interactive console widget: a scrollback, a one-line prompt
// and a subscription to the kernel's output stream. It runs on the main
// goroutine while the relay server accepts in the background; quitting it is
// the exit event that triggers the bridge teardown.
type Model struct {
	snapshot *hostctx.Snapshot
	submit   Submitter
	outputs  <-chan string

	lines      []string
	input      []rune
	width      int
	height     int
	kernelDead bool
	quitting   bool
}

// New builds the console model over a started kernel.
func New(snapshot *hostctx.Snapshot, submit Submitter, outputs <-chan string) Model {
	return Model{
		snapshot: snapshot,
		submit:   submit,
		outputs:  outputs,
		height:   24,
		width:    80,
	}
}

func waitForOutput(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-ch
		if !ok {
			return KernelExitedMsg{}
		}
		return OutputMsg(line)
	}
}

func (m Model) Init() tea.Cmd {
	return waitForOutput(m.outputs)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case OutputMsg:
		m.lines = append(m.lines, string(msg))
		return m, waitForOutput(m.outputs)

	case KernelExitedMsg:
		// Kernel death is a notice, not a crash; the user can still read
		// the scrollback and exit normally.
		m.kernelDead = true
		m.lines = append(m.lines, noticeStyle.Render("[kernel exited]"))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyCtrlD:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyEnter:
		line := string(m.input)
		m.input = nil
		m.lines = append(m.lines, promptStyle.Render(prompt)+line)

		if strings.TrimSpace(line) == "exit" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.kernelDead {
			m.lines = append(m.lines, noticeStyle.Render("[kernel is not running]"))
			return m, nil
		}
		if err := m.submit.SendInput(line); err != nil {
			m.lines = append(m.lines, errorStyle.Render(fmt.Sprintf("[input failed: %v]", err)))
		}
		return m, nil

	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil

	case tea.KeySpace:
		m.input = append(m.input, ' ')
		return m, nil

	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(bannerStyle.Render(m.banner()))
	b.WriteString("\n")

	visible := m.height - 3
	if visible < 1 {
		visible = 1
	}
	start := 0
	if len(m.lines) > visible {
		start = len(m.lines) - visible
	}
	for _, line := range m.lines[start:] {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(promptStyle.Render(prompt))
	b.WriteString(string(m.input))
	return b.String()
}

// Quitting reports whether the user requested exit.
func (m Model) Quitting() bool {
	return m.quitting
}

// Lines exposes the scrollback for tests.
func (m Model) Lines() []string {
	return append([]string(nil), m.lines...)
}

func (m Model) banner() string {
	version := m.snapshot.Version()
	if version == "" {
		version = "unknown version"
	}
	return fmt.Sprintf("YASARA Python Console (YaPyCon) - host %s, type 'exit' or Ctrl+D to quit", version)
}
