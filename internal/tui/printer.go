package tui

import (
	"io"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"

	"tasnim.dev/pro-upgrade/internal/tui/theme"
	"tasnim.dev/pro-upgrade/internal/upgrade"
	"tasnim.dev/pro-upgrade/internal/utils"
)

// Printer writes run events to w as styled lines. Repeated conversion checks
// collapse into a row of dots unless verbose is set. Safe for concurrent use.
type Printer struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
	dotting bool
	tasks   map[string]bool
}

func NewPrinter(w io.Writer, verbose bool) *Printer {
	return &Printer{w: w, verbose: verbose, tasks: make(map[string]bool)}
}

func (p *Printer) Observe(e upgrade.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e.Status == upgrade.StatusProgress && e.TaskID != "" && p.tasks[e.TaskID] && !p.verbose {
		lipgloss.Fprint(p.w, ".")
		p.dotting = true
		return
	}
	if e.TaskID != "" {
		p.tasks[e.TaskID] = true
	}
	if p.dotting {
		lipgloss.Fprintln(p.w)
		p.dotting = false
	}

	lipgloss.Fprintln(p.w, renderEvent(e))
	if e.Metadata != nil && e.Status == upgrade.StatusSkipped {
		lipgloss.Fprint(p.w, renderIneligible(e.Metadata, e.Reasons))
	}
	if e.Err != nil && e.Status == upgrade.StatusFailed {
		lipgloss.Fprintln(p.w, "  "+theme.MutedStyle.Render(e.Err.Error()))
	}
}

func renderEvent(e upgrade.Event) string {
	switch {
	case e.Stage == upgrade.StageRun && e.Status == upgrade.StatusStarted:
		return theme.TitleStyle.Render(e.Message)
	case e.Stage == upgrade.StageRun:
		return theme.SuccessStyle.Render(e.Message)
	case e.Stage == upgrade.StageFetch && e.Status == upgrade.StatusStarted:
		return "\n" + theme.TitleStyle.Render("**** "+e.Message+" ****")
	case e.Status == upgrade.StatusFailed:
		return theme.ErrorStyle.Render(e.Message)
	case e.Status == upgrade.StatusSkipped:
		return theme.WarningStyle.Render(e.Message)
	case e.Stage == upgrade.StageDone:
		return theme.SuccessStyle.Render(e.Message)
	case e.Status == upgrade.StatusProgress:
		return theme.MutedStyle.Render(e.Message)
	default:
		return e.Message
	}
}

// renderIneligible lists an instance's metadata and the clauses it failed.
func renderIneligible(md *upgrade.InstanceMetadata, reasons []string) string {
	d := utils.NewDetailBuilder(0, 18, theme.LabelStyle, theme.MutedStyle)
	d.Title("Instance metadata")
	d.Row("Platform", md.PlatformName)
	d.Row("Version", md.PlatformVersion)
	d.Row("Platform details", md.PlatformDetails)
	d.Row("Usage operation", md.UsageOperation)
	d.Row("State", md.State)
	d.Row("SSM ping", md.PingStatus)
	if len(reasons) > 0 {
		d.Row("Not eligible", strings.Join(reasons, "; "))
	}
	return theme.DetailBoxStyle.MarginLeft(2).Render(strings.TrimRight(d.String(), "\n")) + "\n"
}
