package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/sot/internal/dispatch"
	"github.com/ShayCichocki/sot/pkg/models"
)

// PointEventMsg wraps a dispatcher event for the TUI.
type PointEventMsg struct {
	Event dispatch.Event
}

// DoneMsg signals that the job has finished.
type DoneMsg struct {
	Partial bool
	Err     error
}

type rowState int

const (
	rowRunning rowState = iota
	rowDone
	rowFailed
)

// pointRow is the display state of one point.
type pointRow struct {
	point    models.Point
	state    rowState
	kind     models.ErrorKind
	duration time.Duration
}

// ProgressApp is the bubbletea model for a running job.
type ProgressApp struct {
	query   string
	rows    []*pointRow
	spinner spinner.Model
	// onQuit is called when the user quits before the job is done.
	onQuit func()

	done     bool
	partial  bool
	err      error
	quitting bool
	width    int

	styles progressStyles
}

type progressStyles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	running lipgloss.Style
	done    lipgloss.Style
	failed  lipgloss.Style
	muted   lipgloss.Style
}

func newProgressStyles() progressStyles {
	return progressStyles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),

		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")), // Gray

		done: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")), // Green

		failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")), // Red

		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}

// NewProgressApp creates a progress model for query. onQuit may be nil.
func NewProgressApp(query string, onQuit func()) *ProgressApp {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	return &ProgressApp{
		query:   query,
		spinner: s,
		onQuit:  onQuit,
		width:   80,
		styles:  newProgressStyles(),
	}
}

// NewProgressProgram creates a Bubbletea program rendering inline, so the
// final view stays in the scrollback above the printed answer.
func NewProgressProgram(query string, onQuit func()) (*tea.Program, *ProgressApp) {
	app := NewProgressApp(query, onQuit)
	return tea.NewProgram(app), app
}

// Observer forwards dispatcher events to p.
func Observer(p *tea.Program) dispatch.Observer {
	return func(e dispatch.Event) {
		p.Send(PointEventMsg{Event: e})
	}
}

// Init implements tea.Model.
func (a *ProgressApp) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update implements tea.Model.
func (a *ProgressApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			a.quitting = true
			if !a.done && a.onQuit != nil {
				a.onQuit()
			}
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width

	case spinner.TickMsg:
		if a.done {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case PointEventMsg:
		a.handleEvent(msg.Event)

	case DoneMsg:
		a.done = true
		a.partial = msg.Partial
		a.err = msg.Err
		return a, tea.Quit
	}

	return a, nil
}

func (a *ProgressApp) handleEvent(e dispatch.Event) {
	row := a.findOrCreateRow(e.Point)
	if e.Type != dispatch.EventSettled {
		return
	}
	row.duration = e.Duration
	if e.Result.OK() {
		row.state = rowDone
		return
	}
	row.state = rowFailed
	row.kind = e.Result.ErrorKind
}

// findOrCreateRow keeps rows ordered by point index.
func (a *ProgressApp) findOrCreateRow(p models.Point) *pointRow {
	for _, r := range a.rows {
		if r.point.Index == p.Index {
			return r
		}
	}
	row := &pointRow{point: p}
	a.rows = append(a.rows, row)
	sort.Slice(a.rows, func(i, j int) bool { return a.rows[i].point.Index < a.rows[j].point.Index })
	return row
}

// Settled returns the number of settled and failed points.
func (a *ProgressApp) Settled() (settled, failed int) {
	for _, r := range a.rows {
		switch r.state {
		case rowDone:
			settled++
		case rowFailed:
			settled++
			failed++
		}
	}
	return settled, failed
}

// View implements tea.Model.
func (a *ProgressApp) View() string {
	var b strings.Builder

	b.WriteString(a.styles.title.Render("sot"))
	b.WriteString(" ")
	b.WriteString(a.styles.label.Render(truncate(a.query, a.width-6)))
	b.WriteString("\n\n")

	if len(a.rows) == 0 && !a.done {
		b.WriteString(a.spinner.View() + a.styles.muted.Render(" decomposing..."))
		b.WriteString("\n")
		return b.String()
	}

	for _, r := range a.rows {
		b.WriteString(a.renderRow(r))
		b.WriteString("\n")
	}

	settled, failed := a.Settled()
	footer := fmt.Sprintf("%d/%d settled", settled, len(a.rows))
	if failed > 0 {
		footer += fmt.Sprintf(", %d failed", failed)
	}
	switch {
	case a.err != nil:
		footer = a.styles.failed.Render("failed: " + a.err.Error())
	case a.done && a.partial:
		footer = a.styles.failed.Render(footer + " (partial answer)")
	case a.done:
		footer = a.styles.done.Render(footer)
	case a.quitting:
		footer = a.styles.muted.Render(footer + " (cancelling)")
	default:
		footer = a.styles.muted.Render(footer)
	}
	b.WriteString("\n" + footer + "\n")
	return b.String()
}

func (a *ProgressApp) renderRow(r *pointRow) string {
	label := a.styles.label.Render(r.point.String())
	switch r.state {
	case rowDone:
		return a.styles.done.Render("✓ ") + label + a.styles.muted.Render(" "+r.duration.Round(time.Millisecond).String())
	case rowFailed:
		return a.styles.failed.Render("✗ ") + label + a.styles.failed.Render(" "+string(r.kind))
	default:
		return a.spinner.View() + " " + a.styles.running.Render(r.point.String())
	}
}

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}
