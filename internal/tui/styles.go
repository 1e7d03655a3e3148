package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	colorPurple    = lipgloss.Color("#7D56F4")
	colorGreen     = lipgloss.Color("#04B575")
	colorRed       = lipgloss.Color("#FF4141")
	colorGray      = lipgloss.Color("#626262")
	colorLightGray = lipgloss.Color("#9e9e9e")
	colorWhite     = lipgloss.Color("#FFFFFF")
	colorBlue      = lipgloss.Color("#007BFF")

	// Status Bar Styles
	styleStatusBar = lipgloss.NewStyle().
			Height(1).
			Foreground(colorWhite)

	styleStatusSession = lipgloss.NewStyle().
				Foreground(colorWhite).
				Background(colorBlue).
				Padding(0, 1).
				Bold(true)

	styleStatusTarget = lipgloss.NewStyle().
				Foreground(colorWhite).
				Background(colorPurple).
				Padding(0, 1)

	styleStatusIdle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(colorGreen).
			Padding(0, 1)

	styleStatusOpenTx = lipgloss.NewStyle().
				Foreground(colorWhite).
				Background(colorRed).
				Padding(0, 1)

	styleStatusText = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(colorGray).
			Padding(0, 1)

	// Viewport Styles
	styleViewport = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPurple).
			Padding(0, 1)

	styleTitle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	stylePrompt = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	styleHeader = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true).
			PaddingRight(2)

	styleCell = lipgloss.NewStyle().PaddingRight(2)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	styleUserInput = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	styleSystemOutput = lipgloss.NewStyle().
				Foreground(colorLightGray)

	styleInputContainer = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPurple).
				Padding(0, 1)
)
