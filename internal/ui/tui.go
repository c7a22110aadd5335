package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msaeedsaeedi/perfrun/internal/domain"
)

var (
	colorActiveBlue = lipgloss.Color("39")
	colorDimGray    = lipgloss.Color("240")
	colorGreen      = lipgloss.Color("42")
	colorRed        = lipgloss.Color("196")
	colorYellow     = lipgloss.Color("220")
	colorWhite      = lipgloss.Color("255")
	colorLightGray  = lipgloss.Color("250")

	styleBoldWhite = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	styleDim       = lipgloss.NewStyle().Foreground(colorDimGray)
	styleActive    = lipgloss.NewStyle().Foreground(colorActiveBlue).Bold(true)
	styleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)
	styleFailure   = lipgloss.NewStyle().Foreground(colorRed)
	stylePending   = lipgloss.NewStyle().Foreground(colorDimGray)
	styleRunning   = lipgloss.NewStyle().Foreground(colorYellow)

	styleHelpKey  = lipgloss.NewStyle().Foreground(colorLightGray)
	styleHelpText = lipgloss.NewStyle().Foreground(colorDimGray)

	styleSidebar = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
	styleMain    = lipgloss.NewStyle().PaddingLeft(4)
	styleFooter  = lipgloss.NewStyle().PaddingTop(1).PaddingLeft(1).PaddingBottom(1)
	styleScreen  = lipgloss.NewStyle().Margin(1, 2)
)

// hookIndex is the log bucket for setup and teardown output.
const hookIndex = -1

type TUIFormatter struct {
	model   *Model
	program *tea.Program
	current int64
	ready   chan struct{}
	once    sync.Once
}

type startMsg struct{ index int }
type completeMsg struct {
	index   int
	outcome domain.PhaseOutcome
}
type finishMsg struct{ summary domain.RunSummary }
type tickMsg time.Time

type streamMsg struct {
	text  string
	isErr bool
	index int
}

type tuiWriter struct {
	formatter *TUIFormatter
	isErr     bool
	index     int
}

type phaseState struct {
	phase     domain.Phase
	status    string // "pending", "running", "success", "failed"
	outcome   domain.PhaseOutcome
	verdict   domain.PhaseVerdict
	compared  bool
	startedAt time.Time
}

type logLine struct {
	text  string
	isErr bool
}

type Model struct {
	cfg          *domain.TestConfig
	phases       []phaseState
	completed    int
	finished     bool
	summary      domain.RunSummary
	width        int
	height       int
	selected     int
	logs         map[int][]logLine
	maxLines     int
	scrollOffset int
	autoScroll   bool
	lastTickTime time.Time
	spinner      spinner.Model
	mu           sync.Mutex
}

func NewModel(cfg *domain.TestConfig) *Model {
	phases := make([]phaseState, len(cfg.Phases))
	for i, p := range cfg.Phases {
		phases[i] = phaseState{phase: p, status: "pending"}
	}

	return &Model{
		cfg:        cfg,
		phases:     phases,
		logs:       make(map[int][]logLine),
		maxLines:   10000,
		autoScroll: true,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(styleRunning),
		),
	}
}

func NewTUIFormatter(cfg *domain.TestConfig) *TUIFormatter {
	return &TUIFormatter{
		model:   NewModel(cfg),
		current: hookIndex,
		ready:   make(chan struct{}),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.spinner.Tick)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startMsg:
		m.mu.Lock()
		if msg.index >= 0 && msg.index < len(m.phases) {
			m.phases[msg.index].status = "running"
			m.phases[msg.index].startedAt = time.Now()
			m.selected = msg.index
		}
		m.mu.Unlock()

	case completeMsg:
		m.mu.Lock()
		m.completed++
		if msg.index >= 0 && msg.index < len(m.phases) {
			p := &m.phases[msg.index]
			p.outcome = msg.outcome
			if msg.outcome.Status == domain.StatusCompleted && msg.outcome.ExitCode == 0 {
				p.status = "success"
			} else {
				p.status = "failed"
			}
		}
		m.mu.Unlock()

	case finishMsg:
		m.mu.Lock()
		m.finished = true
		m.summary = msg.summary
		for i := range m.phases {
			m.phases[i].verdict, m.phases[i].compared = msg.summary.Comparison.Verdict(m.phases[i].phase.Name)
		}
		m.mu.Unlock()

	case streamMsg:
		m.appendLog(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.mu.Lock()
		m.spinner, cmd = m.spinner.Update(msg)
		m.mu.Unlock()
		return m, cmd

	case tickMsg:
		m.mu.Lock()
		m.lastTickTime = time.Time(msg)
		active := !m.finished
		m.mu.Unlock()

		if active {
			return m, tick()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			m.mu.Lock()
			if m.selected > m.firstIndex() {
				m.selected--
				m.autoScroll = true
			}
			m.mu.Unlock()
		case "down", "j":
			m.mu.Lock()
			if m.selected < len(m.phases)-1 {
				m.selected++
				m.autoScroll = true
			}
			m.mu.Unlock()
		case "pgup":
			m.mu.Lock()
			m.scrollOffset = max(0, m.scrollOffset-10)
			m.autoScroll = false
			m.mu.Unlock()
		case "pgdown":
			m.mu.Lock()
			m.scrollOffset += 10
			m.autoScroll = false
			m.mu.Unlock()
		case "end":
			m.mu.Lock()
			m.autoScroll = true
			m.mu.Unlock()
		}

	case tea.WindowSizeMsg:
		m.mu.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.mu.Unlock()
	}

	return m, nil
}

// firstIndex is the topmost selectable row; the hooks row only exists when
// a hook is configured.
func (m *Model) firstIndex() int {
	if m.hasHooks() {
		return hookIndex
	}
	return 0
}

func (m *Model) hasHooks() bool {
	return m.cfg.Setup != "" || m.cfg.Teardown != ""
}

func (m *Model) View() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.width == 0 {
		return "Initializing..."
	}

	availWidth := max(20, m.width-4)
	availHeight := max(10, m.height-2)
	sidebarW := max(30, availWidth/4)
	mainW := availWidth - sidebarW - 1
	contentH := max(10, availHeight-3)

	sidebar := m.renderSidebar(sidebarW, contentH)
	mainPanel := m.renderMainPanel(mainW, contentH)
	footer := m.renderFooter(availWidth)

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, mainPanel)
	return styleScreen.Render(lipgloss.JoinVertical(lipgloss.Left, body, footer))
}

func (m *Model) renderSidebar(width, height int) string {
	var sb strings.Builder

	sb.WriteString(styleBoldWhite.Render(strings.ToUpper(m.cfg.TestName)))
	sb.WriteString("\n\n")

	if m.hasHooks() {
		line := "  hooks"
		if m.selected == hookIndex {
			line = styleActive.Render("┃ hooks")
		} else {
			line = styleDim.Render(line)
		}
		sb.WriteString(line + "\n")
	}

	for i := range m.phases {
		sb.WriteString(m.renderPhaseLine(i))
		sb.WriteString("\n")
	}

	return styleSidebar.Width(width).MaxWidth(width).Height(height).Render(sb.String())
}

func (m *Model) renderPhaseLine(index int) string {
	p := m.phases[index]
	icon, style := m.statusDisplay(p)

	right := ""
	switch {
	case p.status == "success" || p.status == "failed":
		right = fmt.Sprintf("%.2fm", p.outcome.Minutes())
	case p.status == "running":
		right = formatDuration(m.elapsed(p))
	}

	row := fmt.Sprintf("%s %-16s %s", icon, p.phase.Name, right)
	if index == m.selected {
		return styleActive.Render("┃ " + row)
	}
	return style.Render("  " + row)
}

func (m *Model) statusDisplay(p phaseState) (string, lipgloss.Style) {
	if p.compared && p.verdict.Kind == domain.VerdictDegraded {
		return "▼", styleFailure
	}
	switch p.status {
	case "success":
		return "✓", styleSuccess
	case "failed":
		return "✗", styleFailure
	case "running":
		return m.spinner.View(), styleRunning
	default:
		return "-", stylePending
	}
}

func (m *Model) elapsed(p phaseState) time.Duration {
	if p.startedAt.IsZero() {
		return 0
	}
	if !m.lastTickTime.IsZero() && m.lastTickTime.After(p.startedAt) {
		return m.lastTickTime.Sub(p.startedAt)
	}
	return time.Since(p.startedAt)
}

func (m *Model) renderMainPanel(width, height int) string {
	var main strings.Builder

	if m.selected == hookIndex {
		main.WriteString(styleBoldWhite.Render("HOOKS"))
		main.WriteString("\n\n")
		if m.cfg.Setup != "" {
			fmt.Fprintf(&main, "%s\n  > %s\n\n", styleBoldWhite.Render("Setup"), m.cfg.Setup)
		}
		if m.cfg.Teardown != "" {
			fmt.Fprintf(&main, "%s\n  > %s\n\n", styleBoldWhite.Render("Teardown"), m.cfg.Teardown)
		}
		m.renderLogs(&main, hookIndex, height)
		return styleMain.Width(width).Height(height).Render(main.String())
	}

	if m.selected >= len(m.phases) {
		return styleMain.Width(width).Render("")
	}
	p := m.phases[m.selected]

	main.WriteString(styleBoldWhite.Render("PHASE: " + p.phase.Name))
	main.WriteString("\n\n")

	main.WriteString(styleBoldWhite.Render("Command"))
	fmt.Fprintf(&main, "\n  > %s\n\n", p.phase.Command)

	m.renderStatus(&main, p)
	m.renderTiming(&main, p)
	m.renderLogs(&main, m.selected, height)

	return styleMain.Width(width).Height(height).Render(main.String())
}

func (m *Model) renderStatus(w *strings.Builder, p phaseState) {
	w.WriteString(styleBoldWhite.Render("Status") + "\n")

	var text string
	switch p.status {
	case "success":
		text = styleSuccess.Render("Success (Exit Code: 0)")
	case "failed":
		switch p.outcome.Status {
		case domain.StatusLaunchFailed:
			text = styleFailure.Render(fmt.Sprintf("Failed to launch: %v", p.outcome.Err))
		case domain.StatusErrored:
			text = styleFailure.Render(fmt.Sprintf("Errored out (Exit Code: %d)", p.outcome.ExitCode))
		default:
			text = styleRunning.Render(fmt.Sprintf("Completed (Exit Code: %d)", p.outcome.ExitCode))
		}
	case "running":
		text = styleRunning.Render("Running...")
	default:
		text = "Pending"
	}
	w.WriteString("  " + text + "\n\n")
}

func (m *Model) renderTiming(w *strings.Builder, p phaseState) {
	w.WriteString(styleBoldWhite.Render("Timing") + "\n")

	switch p.status {
	case "running":
		fmt.Fprintf(w, "  elapsed %s\n", formatDuration(m.elapsed(p)))
	case "success", "failed":
		fmt.Fprintf(w, "  %s (%.2f min)\n", p.outcome.Duration.Round(time.Millisecond), p.outcome.Minutes())
	default:
		w.WriteString("  -\n")
	}

	if p.compared {
		v := p.verdict
		line := fmt.Sprintf("  %s", verdictText(v.Kind))
		if v.Policy != "" {
			line += fmt.Sprintf("  previous %.2f min, limit %.2f min (%s)", v.Previous.Minutes, v.Limit, v.Policy)
		}
		if v.Kind == domain.VerdictDegraded {
			line = styleFailure.Render(line)
		} else {
			line = styleDim.Render(line)
		}
		w.WriteString(line + "\n")
	} else {
		w.WriteString("\n")
	}
	w.WriteString("\n")
}

func (m *Model) renderLogs(w *strings.Builder, index, contentHeight int) {
	w.WriteString(styleBoldWhite.Render("OUTPUT LOGS"))
	w.WriteString("\n")

	entries := m.logs[index]
	logAreaHeight := max(5, contentHeight-15)
	total := len(entries)

	if m.autoScroll && total > logAreaHeight {
		m.scrollOffset = total - logAreaHeight
	}

	start := max(0, min(m.scrollOffset, total-logAreaHeight))
	end := min(total, start+logAreaHeight)

	rendered := 0
	for i := start; i < end; i++ {
		w.WriteString(entries[i].text + "\n")
		rendered++
	}
	for rendered < logAreaHeight {
		w.WriteString("\n")
		rendered++
	}

	if end < total {
		w.WriteString(styleDim.Render("... (scroll down for more) ..."))
	} else {
		w.WriteString(" ")
	}
}

func (m *Model) renderFooter(width int) string {
	progress := fmt.Sprintf("%d/%d", m.completed, len(m.phases))

	var state string
	switch {
	case !m.finished:
		state = "Running"
	case m.summary.Err != nil:
		state = styleFailure.Render("Error: " + m.summary.Err.Error())
	case m.summary.Comparison.Failed:
		state = styleFailure.Render(fmt.Sprintf("FAIL (%d degraded)", len(m.summary.Comparison.Degraded())))
	default:
		state = styleSuccess.Render("PASS")
	}
	left := styleHelpText.Render(progress+" ") + state

	help := []string{
		styleHelpKey.Render("↑/k") + styleHelpText.Render(" navigate"),
		styleHelpKey.Render("pgup/pgdn") + styleHelpText.Render(" scroll"),
		styleHelpKey.Render("q") + styleHelpText.Render(" quit"),
	}
	right := strings.Join(help, "   ")

	spacer := strings.Repeat(" ", max(2, width-lipgloss.Width(left)-lipgloss.Width(right)-4))
	return styleFooter.Width(width).Render(left + spacer + right)
}

func (m *Model) appendLog(msg streamMsg) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts := styleDim.Render("[" + time.Now().Format("15:04:05") + "] ")
	for _, line := range strings.Split(strings.TrimRight(msg.text, "\n"), "\n") {
		if line == "" {
			continue
		}
		styled := styleDim.Render(line)
		if msg.isErr {
			styled = styleFailure.Render(line)
		}
		m.logs[msg.index] = append(m.logs[msg.index], logLine{text: ts + styled, isErr: msg.isErr})
	}
	if n := len(m.logs[msg.index]); n > m.maxLines {
		m.logs[msg.index] = m.logs[msg.index][n-m.maxLines:]
	}
}

func (f *TUIFormatter) Run(ctx context.Context) error {
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if ctx != nil {
		opts = append(opts, tea.WithContext(ctx))
	}

	f.program = tea.NewProgram(f.model, opts...)
	f.once.Do(func() { close(f.ready) })

	_, err := f.program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func (f *TUIFormatter) WaitReady(ctx context.Context) error {
	select {
	case <-f.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *TUIFormatter) indexOf(name string) int {
	for i, p := range f.model.cfg.Phases {
		if p.Name == name {
			return i
		}
	}
	return hookIndex
}

func (f *TUIFormatter) send(msg tea.Msg) {
	if f.program != nil {
		f.program.Send(msg)
	}
}

func (f *TUIFormatter) OnStart(phase domain.Phase) {
	index := f.indexOf(phase.Name)
	atomic.StoreInt64(&f.current, int64(index))
	f.send(startMsg{index: index})
}

func (f *TUIFormatter) OnComplete(outcome domain.PhaseOutcome) {
	atomic.StoreInt64(&f.current, hookIndex)
	f.send(completeMsg{index: f.indexOf(outcome.Name), outcome: outcome})
}

func (f *TUIFormatter) OnFinish(summary domain.RunSummary) {
	f.send(finishMsg{summary: summary})
}

// GetOutputWriters binds the writers to the phase that is running when they
// are requested. Outside a phase, output goes to the hooks log.
func (f *TUIFormatter) GetOutputWriters() (stdout, stderr io.Writer) {
	index := int(atomic.LoadInt64(&f.current))
	return &tuiWriter{formatter: f, isErr: false, index: index},
		&tuiWriter{formatter: f, isErr: true, index: index}
}

func (w *tuiWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		w.formatter.send(streamMsg{text: string(p), isErr: w.isErr, index: w.index})
	}
	return len(p), nil
}
