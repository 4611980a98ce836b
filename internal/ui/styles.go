package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240")
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorError     = lipgloss.Color("196")
)

// Header is the title line.
var Header = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// ModeBadge labels the active fetch strategy.
var ModeBadge = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginLeft(1)

// FilterBar holds the keyword field and the selectors.
var FilterBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

var FilterLabel = lipgloss.NewStyle().
	Foreground(colorSecondary)

var FilterValue = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// Card is an unselected item card in the wide grid.
var Card = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorMuted).
	Padding(0, 1)

// SelectedCard is the card under the cursor.
var SelectedCard = Card.
	BorderForeground(colorHighlight)

var CardTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255"))

var CardMeta = lipgloss.NewStyle().
	Foreground(colorSecondary)

var CategoryBadge = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

var InStock = lipgloss.NewStyle().
	Foreground(colorSuccess)

// ListRow is an unselected row in the compact list.
var ListRow = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

var SelectedRow = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// Sentinel is the row below the last loaded item in the compact list.
var Sentinel = lipgloss.NewStyle().
	Foreground(colorMuted).
	Italic(true).
	Padding(0, 1)

var PageNumber = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

var CurrentPage = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

var PickerItem = lipgloss.NewStyle().
	Padding(0, 1)

var PickerSelected = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

var Picker = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(0, 1)

// StatusBar style for the bottom status line.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// ErrorStyle for fetch failures and rejected input.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true).
	Padding(0, 1)

var Muted = lipgloss.NewStyle().
	Foreground(colorMuted)
