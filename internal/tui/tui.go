// Package tui is an interactive terminal table for playing Casino Hold'em
// against the dealer.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/casinoholdem/internal/game"
	"github.com/lox/casinoholdem/poker"
)

// barWidth is the width of the equity bars in cells.
const barWidth = 20

// Action is a player command.
type Action string

const (
	ActionStart Action = "start"
	ActionCall  Action = "call"
	ActionFold  Action = "fold"
)

// actionResultMsg reports the outcome of an action run as a command.
type actionResultMsg struct {
	action Action
	err    error
}

// Model represents the Bubble Tea model for a local session
type Model struct {
	session *game.Session
	logger  *log.Logger
	ctx     context.Context

	logViewport viewport.Model
	gameLog     []string
	busy        bool
	lastErr     string
	quitting    bool

	width  int
	height int

	// Test mode
	testMode    bool
	capturedLog []string
}

// NewModel creates a model playing the given session.
func NewModel(ctx context.Context, session *game.Session, logger *log.Logger) *Model {
	return NewModelWithOptions(ctx, session, logger, false)
}

// NewModelWithOptions creates a model with test mode option
func NewModelWithOptions(ctx context.Context, session *game.Session, logger *log.Logger, testMode bool) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	m := &Model{
		session:     session,
		logger:      logger.WithPrefix("tui"),
		ctx:         ctx,
		logViewport: vp,
		testMode:    testMode,
	}
	m.AddLogEntry(session.Snapshot().Message)
	return m
}

// Run starts the interactive program and blocks until the player quits.
func Run(ctx context.Context, session *game.Session, logger *log.Logger) error {
	p := tea.NewProgram(NewModel(ctx, session, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logViewport.Width = max(1, msg.Width-4)
		m.logViewport.Height = max(1, msg.Height/4)

	case actionResultMsg:
		m.busy = false
		m.lastErr = ""
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			m.logger.Debug("Action failed", "action", msg.action, "error", msg.err)
		}
		m.AddLogEntry(m.session.Snapshot().Message)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.quitting = true
			return m, tea.Quit
		case "s":
			return m, m.Act(ActionStart)
		case "c", "enter":
			return m, m.Act(ActionCall)
		case "f":
			return m, m.Act(ActionFold)
		case "up", "k":
			m.logViewport.ScrollUp(1)
			return m, nil
		case "down", "j":
			m.logViewport.ScrollDown(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

// Act returns a command that applies action to the session. Only one
// action runs at a time.
func (m *Model) Act(action Action) tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	return func() tea.Msg {
		var err error
		switch action {
		case ActionStart:
			err = m.session.Start(m.ctx)
		case ActionCall:
			err = m.session.Call(m.ctx)
		case ActionFold:
			err = m.session.Fold()
		default:
			err = fmt.Errorf("unknown action %q", action)
		}
		return actionResultMsg{action: action, err: err}
	}
}

// AddLogEntry appends a line to the game log.
func (m *Model) AddLogEntry(entry string) {
	if entry == "" {
		return
	}
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.GotoBottom()
	if m.testMode {
		m.capturedLog = append(m.capturedLog, entry)
	}
}

// IsTestMode returns whether the model is in test mode
func (m *Model) IsTestMode() bool {
	return m.testMode
}

// GetCapturedLog returns captured log entries (test mode only)
func (m *Model) GetCapturedLog() []string {
	if !m.testMode {
		return nil
	}
	return m.capturedLog
}

// LastError returns the message of the most recent failed action.
func (m *Model) LastError() string {
	return m.lastErr
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.session.Snapshot()

	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Casino Hold'em"))
	b.WriteString("  ")
	b.WriteString(WarningStyle.Render(fmt.Sprintf("Chips: $%d", snap.Chips)))
	b.WriteString(InfoStyle.Render(fmt.Sprintf("  Ante: $%d  Played: %d  Win rate: %.1f%%",
		snap.Ante, snap.Played, snap.WinRate)))
	b.WriteString("\n\n")

	table := PaneStyle.Render(m.renderTable(snap))
	stats := PaneStyle.Render(m.renderStats(snap))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, table, stats, PaneStyle.Render(renderHistory(snap.History))))
	b.WriteString("\n")

	b.WriteString(PaneStyle.Render(GameLogStyle.Render(m.logViewport.View())))
	b.WriteString("\n")

	if m.lastErr != "" {
		b.WriteString(ErrorStyle.Render(m.lastErr))
		b.WriteString("\n")
	}
	b.WriteString(m.renderActions(snap))
	return b.String()
}

func (m *Model) renderTable(snap game.Snapshot) string {
	var b strings.Builder
	r := snap.Round
	if r == nil {
		b.WriteString(HandInfoStyle.Render("Press s to deal"))
		return b.String()
	}

	b.WriteString(InfoStyle.Render("Phase: " + r.Phase.String()))
	b.WriteString("\n")
	b.WriteString("Dealer: ")
	if r.Dealer != nil {
		b.WriteString(FormatCards(r.Dealer))
	} else {
		b.WriteString(HiddenCardStyle.Render("?? ??"))
	}
	b.WriteString("\n")
	b.WriteString("Board:  ")
	if len(r.Board) == 0 {
		b.WriteString(InfoStyle.Render("-"))
	} else {
		b.WriteString(FormatCards(r.Board))
	}
	b.WriteString("\n")
	b.WriteString("You:    ")
	b.WriteString(FormatCards(r.Player))
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render(fmt.Sprintf("Staked: $%d", r.Staked)))

	if r.Result != nil {
		b.WriteString("\n")
		style := SuccessStyle
		if r.Result.Net < 0 {
			style = ErrorStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("%s (%+d)", r.Result.Outcome, r.Result.Net)))
	}
	return b.String()
}

func (m *Model) renderStats(snap game.Snapshot) string {
	if snap.Round == nil || snap.Round.Stats == nil {
		return InfoStyle.Render("No statistics yet")
	}
	stats := snap.Round.Stats

	var b strings.Builder
	b.WriteString(HandInfoStyle.Render(stats.Hand))
	b.WriteString(InfoStyle.Render(fmt.Sprintf("  (%s start)", stats.HoleCategory)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Win  %s %5.1f%%\n", RenderBar(stats.Equity.WinPct, barWidth, SuccessStyle), stats.Equity.WinPct))
	b.WriteString(fmt.Sprintf("Tie  %s %5.1f%%\n", RenderBar(stats.Equity.TiePct, barWidth, WarningStyle), stats.Equity.TiePct))
	b.WriteString(fmt.Sprintf("Loss %s %5.1f%%\n", RenderBar(stats.Equity.LossPct, barWidth, ErrorStyle), stats.Equity.LossPct))
	b.WriteString(fmt.Sprintf("Outs: %d", stats.Outs))
	return b.String()
}

func renderHistory(history []game.HistoryEntry) string {
	var b strings.Builder
	b.WriteString(InfoStyle.Render("History"))
	if len(history) == 0 {
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render("-"))
	}
	for _, h := range history {
		style := SuccessStyle
		if h.Net < 0 {
			style = ErrorStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(fmt.Sprintf("%+5d %s", h.Net, h.Outcome)))
	}
	return b.String()
}

func (m *Model) renderActions(snap game.Snapshot) string {
	var actions []string
	switch {
	case snap.Round == nil || !snap.Round.Phase.InPlay():
		actions = append(actions, SuccessStyle.Render("[s] deal"))
	case snap.Round.Phase == game.PreFlop:
		actions = append(actions,
			SuccessStyle.Render(fmt.Sprintf("[c] call $%d", 2*snap.Ante)),
			ErrorStyle.Render("[f] fold"))
	default:
		actions = append(actions, SuccessStyle.Render("[c] continue"))
	}
	actions = append(actions, InfoStyle.Render("[q] quit"))
	return ActionsStyle.Render("Actions: ") + strings.Join(actions, " ")
}

// RenderBar draws a horizontal bar filled in proportion to pct.
func RenderBar(pct float64, width int, style lipgloss.Style) string {
	filled := int(math.Round(pct / 100 * float64(width)))
	filled = min(max(filled, 0), width)
	return style.Render(strings.Repeat("█", filled)) + InfoStyle.Render(strings.Repeat("░", width-filled))
}

// FormatCards renders cards with suit glyphs, red suits in red.
func FormatCards(cards []poker.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		if c.Suit.IsRed() {
			parts[i] = RedCardStyle.Render(c.Pretty())
		} else {
			parts[i] = BlackCardStyle.Render(c.Pretty())
		}
	}
	return strings.Join(parts, " ")
}
