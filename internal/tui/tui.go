// Package tui implements the interactive chat interface built on
// Bubble Tea: a scrollable transcript viewport on top, a single-line
// input at the bottom, and markdown-rendered answers with their sources.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/docubot-ai/docubot/internal/chat"
)

// Bot is the slice of the pipeline the chat screen needs.
type Bot interface {
	Ask(ctx context.Context, sessionID, question string) chat.Response
	ClearMemory(sessionID string)
	Summarize(ctx context.Context, sessionID string) (string, error)
	Count(ctx context.Context) (int, error)
}

const askTimeout = 2 * time.Minute

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575"))

	botStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	sourceStyle = lipgloss.NewStyle().
			Faint(true).
			Foreground(lipgloss.Color("#888888"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	helpStyle = lipgloss.NewStyle().
			Faint(true).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
)

type answerMsg struct {
	response chat.Response
}

type clearedMsg struct{}

type summaryMsg struct {
	summary string
	err     error
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	bot       Bot
	sessionID string

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	transcript []string
	waiting    bool
	ready      bool
	width      int
}

// New builds the chat model for one session.
func New(bot Bot, sessionID string) (*Model, error) {
	input := textinput.New()
	input.Placeholder = "Ask a question about your documents..."
	input.Focus()
	input.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}

	return &Model{
		bot:       bot,
		sessionID: sessionID,
		input:     input,
		spinner:   sp,
		renderer:  renderer,
	}, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		headerHeight := 2
		footerHeight := 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.viewport.SetContent(m.welcome())
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.input.Width = msg.Width - 6

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlL:
			if !m.waiting {
				return m, m.clearMemory()
			}
		case tea.KeyCtrlS:
			if !m.waiting {
				m.waiting = true
				return m, tea.Batch(m.summarize(), m.spinner.Tick)
			}
		case tea.KeyEnter:
			question := strings.TrimSpace(m.input.Value())
			if question == "" || m.waiting {
				break
			}
			m.input.Reset()
			m.waiting = true
			m.appendLine(userStyle.Render("You: ") + question)
			return m, tea.Batch(m.ask(question), m.spinner.Tick)
		}

	case answerMsg:
		m.waiting = false
		m.appendLine(m.renderAnswer(msg.response))

	case summaryMsg:
		m.waiting = false
		if msg.err != nil {
			m.appendLine(errorStyle.Render("Could not summarize: " + msg.err.Error()))
		} else {
			m.appendLine(botStyle.Render("Summary: ") + "\n" + msg.summary)
		}

	case clearedMsg:
		m.transcript = nil
		m.viewport.SetContent(m.welcome() + "\n" + sourceStyle.Render("Conversation memory cleared."))
		m.viewport.GotoTop()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "Starting..."
	}

	status := ""
	if m.waiting {
		status = m.spinner.View() + " Thinking..."
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s",
		titleStyle.Render("docubot"),
		m.viewport.View(),
		status,
		inputBoxStyle.Width(m.width-2).Render(m.input.View()),
		helpStyle.Render("enter: send • ctrl+s: summary • ctrl+l: clear memory • ctrl+c: quit"),
	)
}

func (m *Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
		defer cancel()
		return answerMsg{response: m.bot.Ask(ctx, m.sessionID, question)}
	}
}

func (m *Model) summarize() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
		defer cancel()
		summary, err := m.bot.Summarize(ctx, m.sessionID)
		return summaryMsg{summary: summary, err: err}
	}
}

func (m *Model) clearMemory() tea.Cmd {
	return func() tea.Msg {
		m.bot.ClearMemory(m.sessionID)
		return clearedMsg{}
	}
}

func (m *Model) appendLine(line string) {
	m.transcript = append(m.transcript, line)
	m.viewport.SetContent(strings.Join(m.transcript, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *Model) renderAnswer(resp chat.Response) string {
	var b strings.Builder

	answer := resp.Answer
	if rendered, err := m.renderer.Render(resp.Answer); err == nil {
		answer = strings.TrimSpace(rendered)
	}
	b.WriteString(botStyle.Render("Bot: ") + "\n" + answer)

	if len(resp.Sources) > 0 {
		b.WriteString("\n" + sourceStyle.Render(formatSources(resp.Sources)))
		b.WriteString("\n" + sourceStyle.Render(fmt.Sprintf("confidence: %.2f", resp.Confidence)))
	}

	return b.String()
}

func (m *Model) welcome() string {
	count, err := m.bot.Count(context.Background())
	if err != nil {
		return errorStyle.Render("Could not reach the document index: " + err.Error())
	}
	if count == 0 {
		return sourceStyle.Render("No documents indexed yet. Run `docubot ingest <files>` first.")
	}
	return sourceStyle.Render(fmt.Sprintf("%d document chunks indexed. Ask away.", count))
}

func formatSources(sources []chat.Source) string {
	seen := make(map[string]struct{}, len(sources))
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		if _, ok := seen[s.Filename]; ok {
			continue
		}
		seen[s.Filename] = struct{}{}
		names = append(names, s.Filename)
	}
	return "sources: " + strings.Join(names, ", ")
}
