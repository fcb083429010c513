package tui

import (
	"charm.land/lipgloss/v2"

	"tasnim.dev/pro-upgrade/internal/tui/theme"
)

var (
	// Progress view styles that compose from the shared theme
	titleStyle = theme.TitleStyle

	headerStyle = theme.HeaderStyle

	labelStyle = theme.MutedStyle

	profileStyle = theme.ProfileStyle

	lastEventStyle = lipgloss.NewStyle().
			Foreground(theme.Primary)

	helpStyle = theme.HelpStyle

	errorStyle = theme.ErrorStyle

	doneStyle = theme.SuccessStyle

	dashboardStyle = theme.DashboardStyle
)
