package main

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#AB9DF2"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A9DC76"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6188"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#727072"))
)
