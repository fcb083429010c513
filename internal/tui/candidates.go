package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"tasnim.dev/pro-upgrade/internal/tui/theme"
	"tasnim.dev/pro-upgrade/internal/upgrade"
	"tasnim.dev/pro-upgrade/internal/utils"
)

// Candidate is one row of the candidates preview.
type Candidate struct {
	InstanceID string
	Name       string
	Type       string
	Metadata   *upgrade.InstanceMetadata
	// Reasons is empty for eligible instances.
	Reasons []string
}

func (c Candidate) Eligible() bool {
	return c.Metadata != nil && len(c.Reasons) == 0
}

var candidateHeaders = []string{"Instance", "Name", "Type", "Platform", "Version", "Usage Operation", "Eligible"}

// RenderCandidates renders the preview table, one row per candidate.
func RenderCandidates(cands []Candidate) string {
	rows := make([][]string, len(cands))
	for i, c := range cands {
		platform, version, usage := "", "", ""
		if c.Metadata != nil {
			platform = c.Metadata.PlatformName
			version = c.Metadata.PlatformVersion
			usage = c.Metadata.UsageOperation
		}
		eligible := "yes"
		if !c.Eligible() {
			eligible = "no: " + strings.Join(c.Reasons, "; ")
		}
		rows[i] = []string{
			c.InstanceID,
			utils.OrDash(c.Name),
			utils.OrDash(c.Type),
			utils.OrDash(platform),
			utils.OrDash(version),
			utils.OrDash(usage),
			eligible,
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Muted)).
		Headers(candidateHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true).Foreground(theme.Primary)
			}
			if col == len(candidateHeaders)-1 {
				if cands[row].Eligible() {
					return s.Foreground(theme.Success)
				}
				return s.Foreground(theme.Warning)
			}
			return s
		})
	return t.Render()
}

// CandidateSummary reports how many of cands are eligible.
func CandidateSummary(cands []Candidate) string {
	n := 0
	for _, c := range cands {
		if c.Eligible() {
			n++
		}
	}
	return theme.SuccessStyle.Render(fmt.Sprint(n)) +
		theme.MutedStyle.Render(fmt.Sprintf(" of %d instance(s) eligible for Ubuntu Pro", len(cands)))
}
