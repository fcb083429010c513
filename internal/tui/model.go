package tui

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/table"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"tasnim.dev/pro-upgrade/internal/tui/theme"
	"tasnim.dev/pro-upgrade/internal/upgrade"
	"tasnim.dev/pro-upgrade/internal/utils"
)

// EventSource forwards run events to the progress view. Observe blocks until
// the view reads the event or done is closed.
type EventSource struct {
	ch   chan upgrade.Event
	done <-chan struct{}
}

func NewEventSource(done <-chan struct{}) *EventSource {
	return &EventSource{ch: make(chan upgrade.Event, 64), done: done}
}

func (s *EventSource) Observe(e upgrade.Event) {
	select {
	case s.ch <- e:
	case <-s.done:
	}
}

func (s *EventSource) next() tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-s.ch:
			return eventMsg{e}
		case <-s.done:
			return nil
		}
	}
}

// Messages
type eventMsg struct{ event upgrade.Event }

type instanceRow struct {
	stage   upgrade.Stage
	status  upgrade.Status
	taskID  string
	message string
}

// Model is the live progress view of one upgrade run.
type Model struct {
	src       *EventSource
	cancel    context.CancelFunc
	profile   string
	region    string
	accountID string

	order     []string
	instances map[string]*instanceRow
	last      upgrade.Event
	done      bool
	cancelled bool

	spinner spinner.Model
	table   table.Model
	width   int
	height  int
}

// NewModel creates a progress view reading from src. cancel is called when
// the user quits before the run finishes.
func NewModel(src *EventSource, cancel context.CancelFunc, profile, region, accountID string) Model {
	t := table.New(
		table.WithColumns(columnsFor(80)),
		table.WithRows([]table.Row{}),
		table.WithFocused(false),
		table.WithHeight(10),
		table.WithWidth(80),
	)
	t.SetStyles(theme.DefaultTableStyles())

	return Model{
		src:       src,
		cancel:    cancel,
		profile:   profile,
		region:    region,
		accountID: accountID,
		instances: make(map[string]*instanceRow),
		spinner:   theme.NewSpinner(),
		table:     t,
		width:     80,
		height:    24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.src.next())
}

// Cancelled reports whether the user quit before the run finished.
func (m Model) Cancelled() bool {
	return m.cancelled
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.done {
				m.cancelled = true
				if m.cancel != nil {
					m.cancel()
				}
			}
			return m, tea.Quit
		}

	case eventMsg:
		m = m.apply(msg.event)
		if m.done {
			return m, tea.Quit
		}
		return m, m.src.next()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m = m.resizeTable()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) apply(e upgrade.Event) Model {
	m.last = e
	if e.InstanceID == "" {
		if e.Stage == upgrade.StageRun && e.Status == upgrade.StatusSucceeded {
			m.done = true
		}
		return m
	}

	row, ok := m.instances[e.InstanceID]
	if !ok {
		row = &instanceRow{}
		m.instances[e.InstanceID] = row
		m.order = append(m.order, e.InstanceID)
	}
	row.stage = e.Stage
	row.status = e.Status
	row.message = e.Message
	if e.TaskID != "" {
		row.taskID = e.TaskID
	}
	m.table.SetRows(m.buildRows())
	return m
}

func (m Model) buildRows() []table.Row {
	rows := make([]table.Row, len(m.order))
	for i, id := range m.order {
		r := m.instances[id]
		rows[i] = table.Row{id, string(r.stage), theme.RenderStatus(string(r.status)), utils.OrDash(r.taskID), r.message}
	}
	return rows
}

func columnsFor(width int) []table.Column {
	const (
		idWidth     = 21
		stageWidth  = 9
		statusWidth = 13
		taskWidth   = 24
		borderWidth = 10
	)
	msgWidth := width - idWidth - stageWidth - statusWidth - taskWidth - borderWidth
	if msgWidth < 20 {
		msgWidth = 20
	}
	return []table.Column{
		{Title: "Instance", Width: idWidth},
		{Title: "Stage", Width: stageWidth},
		{Title: "Status", Width: statusWidth},
		{Title: "Task", Width: taskWidth},
		{Title: "Last Event", Width: msgWidth},
	}
}

func (m Model) resizeTable() Model {
	contentWidth := m.width - 4 // dashboardStyle Padding(1,2)
	m.table.SetColumns(columnsFor(contentWidth))
	m.table.SetWidth(contentWidth)

	tableHeight := m.height - 10 // header+status+help
	if tableHeight < 3 {
		tableHeight = 3
	}
	m.table.SetHeight(tableHeight)
	return m
}

func (m Model) renderHeader() string {
	profileText := "default"
	if m.profile != "" {
		profileText = m.profile
	}
	parts := []string{titleStyle.Render("Ubuntu Pro Upgrade"), "   "}
	if m.accountID != "" {
		parts = append(parts, labelStyle.Render("account: ")+profileStyle.Render(m.accountID), "   ")
	}
	if m.region != "" {
		parts = append(parts, labelStyle.Render("region: ")+profileStyle.Render(m.region), "   ")
	}
	parts = append(parts, labelStyle.Render("profile: ")+profileStyle.Render(profileText))
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderStatusLine() string {
	switch {
	case m.done:
		return doneStyle.Render(m.last.Message)
	case m.cancelled:
		return errorStyle.Render("Cancelled; instances already stopped stay stopped")
	case m.last.Message == "":
		return m.spinner.View() + " Waiting for the first instance..."
	case m.last.Status == upgrade.StatusFailed:
		return m.spinner.View() + " " + errorStyle.Render(m.last.Message)
	default:
		return m.spinner.View() + " " + lastEventStyle.Render(m.last.Message)
	}
}

func (m Model) View() tea.View {
	help := "q quit (cancels the run)"
	if m.done {
		help = fmt.Sprintf("%d instance(s) processed", len(m.order))
	}
	content := dashboardStyle.Render(
		headerStyle.Render(m.renderHeader()) + "\n\n" +
			m.renderStatusLine() + "\n\n" +
			m.table.View() + "\n" +
			helpStyle.Render(help),
	)
	return tea.NewView(content)
}
