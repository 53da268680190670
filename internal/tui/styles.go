package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorRed   = lipgloss.Color("167")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

var (
	styleTitle       = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleTabActive   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Underline(true).Padding(0, 1)
	styleTabInactive = lipgloss.NewStyle().Foreground(colorGray).Padding(0, 1)
	styleStatus      = lipgloss.NewStyle().Foreground(colorGray)
	styleOK          = lipgloss.NewStyle().Foreground(colorGreen)
	styleFailed      = lipgloss.NewStyle().Foreground(colorRed)
	styleHelp        = lipgloss.NewStyle().Foreground(colorDim)
	styleEditor      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconBusy    = "…"
	iconArrow   = "→"
)

const helpLine = "ctrl+t tab · ctrl+s share · ctrl+e export · ctrl+z/ctrl+x zoom · alt+arrows pan · ctrl+r reset · esc quit"
