package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stemsplit/internal/separation"
)

func (m model) View() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, titleStyle.Render("stemsplit"))

	switch m.screen {
	case screenWelcome:
		m.viewWelcome(b)
	case screenChecking:
		fmt.Fprintln(b, "\nChecking for Demucs...")
	case screenInstallPrompt:
		fmt.Fprintln(b, "\nDemucs was not found on this system.")
		fmt.Fprintln(b, "Install it now with pip? (y/n)")
	case screenInstalling:
		fmt.Fprintln(b, "\nInstalling Demucs. This can take several minutes...")
	case screenMain, screenRunning:
		m.viewMain(b)
	case screenResult:
		m.viewResult(b)
	case screenFatal:
		fmt.Fprintln(b, "")
		fmt.Fprintln(b, statusStyle.Render(m.fatalMsg))
		fmt.Fprintln(b, helpStyle.Render("press any key to exit"))
	}
	return b.String()
}

func (m model) viewWelcome(b *strings.Builder) {
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, "Split a song into its stems with Demucs.")
	fmt.Fprintln(b, "Two-stem mode separates vocals from the instrumental;")
	fmt.Fprintln(b, "four-stem mode separates vocals, drums, bass, and other.")
	fmt.Fprintln(b, "")
	cont, cancel := btnOnStyle.Render("Continue"), btnStyle.Render("Cancel")
	if m.welcomeCancel {
		cont, cancel = btnStyle.Render("Continue"), btnOnStyle.Render("Cancel")
	}
	fmt.Fprintln(b, lipgloss.JoinHorizontal(lipgloss.Top, cont, "  ", cancel))
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, helpStyle.Render("←/→ choose  enter confirm"))
}

func (m model) viewMain(b *strings.Builder) {
	running := m.screen == screenRunning

	fmt.Fprintln(b, m.section("Input file", focusFile))
	if m.selected != "" {
		label := m.track.Label()
		if label == "" {
			label = m.selected
		}
		fmt.Fprintf(b, "  %s\n", lipgloss.NewStyle().Foreground(good).Render(label))
		if m.track.Album != "" {
			fmt.Fprintf(b, "  %s\n", helpStyle.Render(m.track.Album))
		}
	}
	if m.focus == focusFile && !running {
		fmt.Fprintln(b, m.picker.View())
	}

	fmt.Fprintln(b, m.section("Output folder", focusOutput))
	fmt.Fprintln(b, "  "+m.output.View())

	fmt.Fprintln(b, m.section("Separation", focusMode))
	fmt.Fprintln(b, "  "+lipgloss.JoinHorizontal(lipgloss.Top,
		renderRadio("Vocals / Instrumental", m.mode == separation.TwoStem),
		"  ",
		renderRadio("Vocals / Drums / Bass / Other", m.mode == separation.FourStem),
	))

	fmt.Fprintln(b, m.section("Format", focusFormat))
	fmt.Fprintln(b, "  "+lipgloss.JoinHorizontal(lipgloss.Top,
		renderRadio("WAV", m.format == separation.WAV),
		"  ",
		renderRadio("MP3", m.format == separation.MP3),
	))

	fmt.Fprintln(b, "")
	start := btnStyle.Render("Start separation")
	if m.focus == focusStart {
		start = btnOnStyle.Render("Start separation")
	}
	if running {
		start = btnStyle.Render("Separating...")
	}
	fmt.Fprintln(b, "  "+start)

	fmt.Fprintln(b, "")
	fmt.Fprintln(b, "  "+m.bar.ViewAs(float64(m.percent)/100))
	if running && len(m.stems) > 0 {
		fmt.Fprintln(b, sectionStyle.Render("Stems written"))
		for _, line := range stemLines(m.stems) {
			fmt.Fprintln(b, "  "+line)
		}
	}

	if m.status != "" {
		fmt.Fprintln(b, "")
		fmt.Fprintln(b, statusStyle.Render(m.status))
	}
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, helpStyle.Render("tab next field  space toggle  ctrl+s start  ctrl+c quit"))
}

func (m model) viewResult(b *strings.Builder) {
	body := &strings.Builder{}
	if m.result.Success {
		fmt.Fprintln(body, lipgloss.NewStyle().Foreground(good).Bold(true).Render("Done"))
	} else {
		fmt.Fprintln(body, lipgloss.NewStyle().Foreground(warn).Bold(true).Render("Separation failed"))
	}
	fmt.Fprintln(body, "")
	fmt.Fprintln(body, m.result.Message)
	if m.result.Success && len(m.result.Stems) > 0 {
		fmt.Fprintln(body, "")
		for _, line := range stemLines(m.result.Stems) {
			fmt.Fprintln(body, line)
		}
	}
	fmt.Fprintln(body, "")
	fmt.Fprint(body, helpStyle.Render("enter to close"))

	style := modalStyle.BorderForeground(good)
	if !m.result.Success {
		style = modalStyle.BorderForeground(warn)
	}
	fmt.Fprintln(b, "")
	fmt.Fprintln(b, style.Render(body.String()))
}

func (m model) section(title string, focus int) string {
	if m.focus == focus && m.screen == screenMain {
		return focusStyle.MarginTop(1).Render("› " + title)
	}
	return sectionStyle.Render("  " + title)
}

func renderRadio(label string, on bool) string {
	if on {
		return lipgloss.NewStyle().Foreground(accent).Render("(•) " + label)
	}
	return lipgloss.NewStyle().Foreground(muted).Render("( ) " + label)
}

func stemLines(stems []string) []string {
	lines := make([]string, 0, min(len(stems), maxListedStems)+1)
	for i, path := range stems {
		if i == maxListedStems {
			lines = append(lines, fmt.Sprintf("... and %d more", len(stems)-maxListedStems))
			break
		}
		lines = append(lines, "• "+separation.StemLabel(path))
	}
	return lines
}
