package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

func heading(title string) {
	fmt.Println(titleStyle.Render(title))
	fmt.Println(dimStyle.Render(strings.Repeat("─", lipgloss.Width(title))))
}

func field(label string, format string, args ...any) {
	fmt.Println("  " + labelStyle.Render(label) + valueStyle.Render(fmt.Sprintf(format, args...)))
}

func status(ok bool) string {
	if ok {
		return okStyle.Render("ok")
	}
	return failStyle.Render("FAIL")
}
