package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	styleLink        = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	styleDim         = lipgloss.NewStyle().Foreground(colorDim)
	styleValue       = lipgloss.NewStyle().Foreground(colorWhite)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleWarning     = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed    = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// plain disables styling when stdout is not a terminal.
var plain bool

// paint renders s with style unless output is plain.
func paint(style lipgloss.Style, s string) string {
	if plain {
		return s
	}
	return style.Render(s)
}

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(paint(styleIconSuccess, iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(paint(styleIconError, iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(paint(styleIconWarning, iconWarning) + " " + paint(styleWarning, fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(paint(styleIconInfo, iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + paint(styleDim, fmt.Sprintf(format, args...)))
}

// printFile prints a written file.
func printFile(path string) {
	fmt.Println("  " + paint(styleDim, iconArrow) + " " + paint(styleValue, path))
}

// printLink prints a URL.
func printLink(label, url string) {
	fmt.Println(paint(styleKey, label) + " " + paint(styleLink, url))
}

func printKeyValue(key, value string) {
	fmt.Println(paint(styleKey, key) + " " + paint(styleValue, value))
}

// printRenderStats prints the size of a rendered diagram on a single line.
func printRenderStats(width, height float64, cached bool) {
	status, style := iconFresh, styleComputed
	if cached {
		status, style = iconCached, styleCached
	}
	fmt.Println("  " + paint(styleDim, fmt.Sprintf("%.0f×%.0f", width, height)) +
		paint(styleDim, " · ") + paint(style, status))
}
