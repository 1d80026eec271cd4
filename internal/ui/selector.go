package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/arguslabs/argus/pkg/service/ec2"
)

const (
	listHeight       = 8
	detailLabelWidth = 12
	minWidth         = 60
	maxWidth         = 120
	// Fixed column widths
	colWidthID     = 21
	colWidthDetail = 16
	colWidthState  = 12
)

// Field is one label/value pair shown in the details panel.
type Field struct {
	Label string
	Value string
}

// Item is one selectable row.
type Item struct {
	ID     string
	Name   string
	Detail string
	State  string
	Fields []Field
}

// Model represents the bubbletea model for item selection
type Model struct {
	title        string
	items        []Item
	filtered     []Item
	cursor       int
	offset       int // for scrolling
	search       string
	selected     *Item
	quitting     bool
	cancelled    bool
	termWidth    int
	contentWidth int   // width inside the box (excluding borders)
	colWidths    []int // [ID, Detail, State, Name]
}

// NewModel creates a new selector model
func NewModel(title string, items []Item) Model {
	m := Model{
		title:     title,
		items:     items,
		filtered:  items,
		cursor:    0,
		offset:    0,
		search:    "",
		termWidth: 80, // default
	}
	m.calculateWidths()
	return m
}

// calculateWidths computes responsive column widths based on terminal size
func (m *Model) calculateWidths() {
	// Content width = terminal width - 2 (for box borders)
	m.contentWidth = m.termWidth - 2
	if m.contentWidth < minWidth {
		m.contentWidth = minWidth
	}
	if m.contentWidth > maxWidth {
		m.contentWidth = maxWidth
	}

	// Fixed widths: cursor(3) + ID + spacing(2) + Detail + spacing(2) + State + spacing(2) + Name
	fixedWidth := 3 + colWidthID + 2 + colWidthDetail + 2 + colWidthState + 2
	nameWidth := m.contentWidth - fixedWidth
	if nameWidth < 10 {
		nameWidth = 10
	}

	m.colWidths = []int{colWidthID, colWidthDetail, colWidthState, nameWidth}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.calculateWidths()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			m.cancelled = true
			return m, tea.Quit

		case tea.KeyEnter:
			if len(m.filtered) > 0 {
				m.selected = &m.filtered[m.cursor]
				m.quitting = true
				return m, tea.Quit
			}

		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}

		case tea.KeyDown:
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
				if m.cursor >= m.offset+listHeight {
					m.offset = m.cursor - listHeight + 1
				}
			}

		case tea.KeyBackspace:
			if len(m.search) > 0 {
				m.search = m.search[:len(m.search)-1]
				m.filterItems()
			}

		case tea.KeyRunes:
			m.search += string(msg.Runes)
			m.filterItems()
		}
	}

	return m, nil
}

// filterItems filters the items based on search query
func (m *Model) filterItems() {
	if m.search == "" {
		m.filtered = m.items
	} else {
		query := strings.ToLower(m.search)
		m.filtered = nil
		for _, item := range m.items {
			if strings.Contains(strings.ToLower(item.Name), query) ||
				strings.Contains(strings.ToLower(item.ID), query) ||
				strings.Contains(strings.ToLower(item.Detail), query) {
				m.filtered = append(m.filtered, item)
			}
		}
	}
	// Reset cursor if out of bounds
	if m.cursor >= len(m.filtered) {
		if len(m.filtered) > 0 {
			m.cursor = len(m.filtered) - 1
		} else {
			m.cursor = 0
		}
	}
	m.offset = 0
}

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	w := m.contentWidth

	// Top border
	sb.WriteString(BorderStyle.Render(TopLeft))
	sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w)))
	sb.WriteString(BorderStyle.Render(TopRight))
	sb.WriteString("\n")

	// Search input
	searchLine := " > " + m.search
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString(NameStyle.Render(padToWidth(searchLine, w)))
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	// Empty line after search
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString(strings.Repeat(" ", w))
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	// Item list
	visibleEnd := m.offset + listHeight
	if visibleEnd > len(m.filtered) {
		visibleEnd = len(m.filtered)
	}

	for i := m.offset; i < visibleEnd; i++ {
		sb.WriteString(m.renderItemRow(i))
	}

	// Fill remaining lines if list is short
	for i := len(m.filtered); i < m.offset+listHeight; i++ {
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString(strings.Repeat(" ", w))
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString("\n")
	}

	// Empty line before details
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString(strings.Repeat(" ", w))
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	// Separator
	sb.WriteString(BorderStyle.Render(LeftT))
	sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w)))
	sb.WriteString(BorderStyle.Render(RightT))
	sb.WriteString("\n")

	// Details panel
	sb.WriteString(m.renderDetailsPanel())

	// Bottom border
	sb.WriteString(BorderStyle.Render(BottomLeft))
	sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w)))
	sb.WriteString(BorderStyle.Render(BottomRight))
	sb.WriteString("\n")

	// Status bar
	sb.WriteString(m.renderStatusBar())

	return sb.String()
}

func (m Model) renderItemRow(idx int) string {
	var sb strings.Builder
	item := m.filtered[idx]
	w := m.contentWidth

	sb.WriteString(BorderStyle.Render(Vertical))

	// Track plain text width as we build the line
	var line strings.Builder
	plainWidth := 0

	// Cursor indicator (3 chars)
	if idx == m.cursor {
		line.WriteString(" > ")
	} else {
		line.WriteString("   ")
	}
	plainWidth += 3

	// ID column
	idText := padRight(item.ID, m.colWidths[0])
	line.WriteString(IDStyle.Render(idText))
	line.WriteString("  ")
	plainWidth += m.colWidths[0] + 2

	// Detail column
	detailText := padRight(item.Detail, m.colWidths[1])
	line.WriteString(ValueStyle.Render(detailText))
	line.WriteString("  ")
	plainWidth += m.colWidths[1] + 2

	// State column
	stateText := padRight(StateIndicator(item.State), m.colWidths[2])
	line.WriteString(StateStyle(item.State).Render(stateText))
	line.WriteString("  ")
	plainWidth += m.colWidths[2] + 2

	// Name column
	nameText := padRight(item.Name, m.colWidths[3])
	line.WriteString(NameStyle.Render(nameText))
	plainWidth += m.colWidths[3]

	// Pad to fill width
	if plainWidth < w {
		line.WriteString(strings.Repeat(" ", w-plainWidth))
	}

	sb.WriteString(line.String())
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderDetailsPanel() string {
	var sb strings.Builder
	w := m.contentWidth

	// Header
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString(HeaderStyle.Render(padToWidth(" "+m.title+" Details", w)))
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	// Underline
	sb.WriteString(BorderStyle.Render(Vertical))
	underline := " " + strings.Repeat("─", 20)
	sb.WriteString(MutedStyle.Render(padToWidth(underline, w)))
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	if len(m.filtered) == 0 {
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString(MutedStyle.Render(padToWidth(" No matches found", w)))
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString("\n")

		// Empty lines
		for i := 0; i < 6; i++ {
			sb.WriteString(BorderStyle.Render(Vertical))
			sb.WriteString(strings.Repeat(" ", w))
			sb.WriteString(BorderStyle.Render(Vertical))
			sb.WriteString("\n")
		}
	} else {
		item := m.filtered[m.cursor]

		fields := item.Fields
		if len(fields) == 0 {
			fields = []Field{
				{"ID:", item.ID},
				{"Name:", item.Name},
				{"State:", item.State},
			}
		}

		for _, f := range fields {
			sb.WriteString(BorderStyle.Render(Vertical))

			labelText := padRight(f.Label, detailLabelWidth)
			valueText := formatOptional(f.Value)

			maxValueWidth := w - 1 - detailLabelWidth
			if runewidth.StringWidth(valueText) > maxValueWidth {
				valueText = runewidth.Truncate(valueText, maxValueWidth, "...")
			}

			plainWidth := 1 + detailLabelWidth + runewidth.StringWidth(valueText)

			line := MutedStyle.Render(" "+labelText) + ValueStyle.Render(valueText)
			if plainWidth < w {
				line += strings.Repeat(" ", w-plainWidth)
			}

			sb.WriteString(line)
			sb.WriteString(BorderStyle.Render(Vertical))
			sb.WriteString("\n")
		}
	}

	// Empty line at end
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString(strings.Repeat(" ", w))
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderStatusBar() string {
	var sb strings.Builder
	w := m.contentWidth + 2 // include border width for status bar

	countInfo := fmt.Sprintf("  %d/%d items", len(m.filtered), len(m.items))
	hintsPlain := "[Enter:select] [Esc:cancel]"

	countWidth := runewidth.StringWidth(countInfo)
	hintsWidth := runewidth.StringWidth(hintsPlain)
	padding := w - countWidth - hintsWidth

	sb.WriteString(countInfo)
	if padding > 0 {
		sb.WriteString(strings.Repeat(" ", padding))
	}
	sb.WriteString(HintStyle.Render(hintsPlain))
	sb.WriteString("\n")

	return sb.String()
}

func formatOptional(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Select displays an interactive selector and returns the chosen item.
func Select(title string, items []Item) (*Item, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("nothing to select from")
	}

	m := NewModel(title, items)
	p := tea.NewProgram(m)

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("error running selector: %w", err)
	}

	result := finalModel.(Model)
	if result.cancelled {
		return nil, fmt.Errorf("selection cancelled")
	}

	return result.selected, nil
}

// SelectInstance displays an interactive selector for EC2 instances
// and returns the selected instance
func SelectInstance(instances []ec2.Instance) (*ec2.Instance, error) {
	items := make([]Item, 0, len(instances))
	for _, inst := range instances {
		launched := ""
		if inst.LaunchedAt != nil {
			launched = inst.LaunchedAt.Format("2006-01-02 15:04:05")
		}
		items = append(items, Item{
			ID:     inst.ID,
			Name:   inst.Name,
			Detail: inst.PrivateIP,
			State:  inst.State,
			Fields: []Field{
				{"ID:", inst.ID},
				{"Name:", inst.Name},
				{"Private IP:", inst.PrivateIP},
				{"Public IP:", inst.PublicIP},
				{"State:", inst.State},
				{"Type:", inst.Type},
				{"AZ:", inst.Zone},
				{"Key:", inst.KeyName},
				{"Launch:", launched},
			},
		})
	}

	selected, err := Select("Instance", items)
	if err != nil {
		return nil, err
	}

	for i := range instances {
		if instances[i].ID == selected.ID {
			return &instances[i], nil
		}
	}
	return nil, fmt.Errorf("selected instance not found")
}
