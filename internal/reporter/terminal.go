package reporter

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethanolivertroy/depgate/internal/models"
	"golang.org/x/term"
)

const (
	defaultScreenWidth = 80
	firstColumnWidth   = 19
	ttyMargin          = 10 // room for the prompt
	minValueWidth      = 20
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	boldStyle   = lipgloss.NewStyle().Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// TerminalReporter prints one bordered table per vulnerable package
type TerminalReporter struct {
	Width int
}

// NewTerminalReporter sizes the tables to the terminal on stdout
func NewTerminalReporter() *TerminalReporter {
	width := defaultScreenWidth
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w-ttyMargin >= firstColumnWidth+minValueWidth {
			width = w - ttyMargin
		}
	}
	return &TerminalReporter{Width: width}
}

// Report generates terminal output for the given report
func (r *TerminalReporter) Report(report *models.VulnerabilityReport) ([]byte, error) {
	if report.Clean() && len(report.Inconsistent) == 0 {
		return []byte(okStyle.Render("(+)") + " No known vulnerabilities found.\n"), nil
	}

	var sb strings.Builder

	summary := fmt.Sprintf("(+) %d vulnerabilities found in %d packages", report.Total(), len(report.VulnerablePackages))
	if report.WarnCount > 0 {
		summary += fmt.Sprintf(" (%d failing, %d warnings)", report.FailCount, report.WarnCount)
	}
	if report.FailCount > 0 {
		sb.WriteString(failStyle.Render(summary) + "\n")
	} else {
		sb.WriteString(warnStyle.Render(summary) + "\n")
	}

	for _, pkg := range report.VulnerablePackages {
		sb.WriteString(r.table(pkg))
	}

	if len(report.Inconsistent) > 0 {
		sb.WriteString(warnStyle.Render(fmt.Sprintf("(!) %d results did not match a scanned package and were counted as failures", len(report.Inconsistent))) + "\n")
	}

	return []byte(sb.String()), nil
}

type row struct {
	label string
	value string
}

func (r *TerminalReporter) table(pkg models.VulnerablePackage) string {
	width := r.Width
	if width < firstColumnWidth+minValueWidth {
		width = defaultScreenWidth
	}

	header := pkg.String()
	if pkg.WarnOnly {
		header += " " + warnStyle.Render("[warn]")
	} else {
		header += " " + failStyle.Render("[fail]")
	}

	rows := []row{{"Path", strings.Join(pkg.Path, " > ")}}
	for i, v := range pkg.Vulnerabilities {
		if i > 0 {
			rows = append(rows, row{})
		}
		rows = append(rows,
			row{boldStyle.Render("Vulnerability"), boldStyle.Render(v.Title)},
			row{"Description", v.Description},
			row{"Affected Versions", strings.Join(v.Versions, ", ")},
			row{"References", strings.Join(v.References, "\n")},
		)
	}

	// box borders take two columns, the separator two more
	contentWidth := width - 2
	labelCol := lipgloss.NewStyle().Width(firstColumnWidth).PaddingRight(1)
	valueCol := lipgloss.NewStyle().Width(contentWidth - firstColumnWidth - 2)

	line := func(label, value string) string {
		l, v := labelCol.Render(label), valueCol.Render(value)
		h := max(lipgloss.Height(l), lipgloss.Height(v))
		sep := borderStyle.Render(strings.TrimSuffix(strings.Repeat("│ \n", h), "\n"))
		return lipgloss.JoinHorizontal(lipgloss.Top, l, sep, v)
	}

	var body strings.Builder
	body.WriteString(line("", header))
	body.WriteString("\n" + borderStyle.Render(strings.Repeat("─", contentWidth)))
	for _, rw := range rows {
		body.WriteString("\n" + line(rw.label, rw.value))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("8"))
	return box.Render(body.String()) + "\n"
}
