package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Box drawing characters
const (
	TopLeft     = "╭"
	TopRight    = "╮"
	BottomLeft  = "╰"
	BottomRight = "╯"
	Horizontal  = "─"
	Vertical    = "│"
	LeftT       = "├"
	RightT      = "┤"
	TopT        = "┬"
	BottomT     = "┴"
	Cross       = "┼"
)

// Color palette
const (
	ColorBorder = "240"
	ColorHeader = "252"
	ColorID     = "214"
	ColorName   = "81"
	ColorValue  = "252"
	ColorDim    = "245"
	ColorOK     = "82"
	ColorWarn   = "214"
	ColorMuted  = "240"
	ColorHint   = "245"
)

// Shared styles
var (
	BorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBorder))
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorHeader))
	IDStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorID))
	NameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorName))
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorValue))
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDim))
	OKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorOK))
	WarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarn))
	MutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted))
	HintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHint))
)

// StateIndicator prefixes a lifecycle state with its dot indicator.
func StateIndicator(state string) string {
	switch state {
	case "running", "RUNNING", "ACTIVE", "Ready", "available":
		return "● " + state
	case "pending", "stopping", "CREATING", "UPDATING", "PROVISIONING":
		return "◐ " + state
	default:
		return "○ " + state
	}
}

// StateStyle picks the style for a lifecycle state. The value may carry a
// leading indicator from StateIndicator.
func StateStyle(state string) lipgloss.Style {
	switch strings.TrimLeft(state, "●○◐ ") {
	case "running", "RUNNING", "ACTIVE", "Ready", "available":
		return OKStyle
	case "pending", "stopping", "CREATING", "UPDATING", "PROVISIONING":
		return WarnStyle
	default:
		return DimStyle
	}
}

// padRight pads a string to the specified display width using runewidth
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return runewidth.Truncate(s, width, "...")
	}
	return s + strings.Repeat(" ", width-sw)
}

func padToWidth(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return runewidth.Truncate(s, width, "...")
	}
	return s + strings.Repeat(" ", width-sw)
}
