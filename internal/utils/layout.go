package utils

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// DetailBuilder builds indented key-value blocks for terminal output.
type DetailBuilder struct {
	b          strings.Builder
	indent     string
	labelStyle lipgloss.Style
	titleStyle lipgloss.Style
}

// NewDetailBuilder creates a builder with a fixed-width label column.
func NewDetailBuilder(indent, labelWidth int, labelStyle, titleStyle lipgloss.Style) *DetailBuilder {
	return &DetailBuilder{
		indent:     strings.Repeat(" ", indent),
		labelStyle: labelStyle.Width(labelWidth),
		titleStyle: titleStyle,
	}
}

// Title writes a heading line.
func (d *DetailBuilder) Title(title string) {
	d.b.WriteString(d.indent + d.titleStyle.Render(title) + "\n")
}

// Row writes a labeled key-value row. Empty values render as "—".
func (d *DetailBuilder) Row(label, value string) {
	fmt.Fprintf(&d.b, "%s  %s %s\n", d.indent, d.labelStyle.Render(label), OrDash(value))
}

// String returns the accumulated content.
func (d *DetailBuilder) String() string {
	return d.b.String()
}
