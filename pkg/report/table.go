package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	accent   = lipgloss.Color("#FFB3BA")
	success  = lipgloss.Color("#A8E6CF")
	muted    = lipgloss.Color("#6B7280")
	errorRed = lipgloss.Color("203")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(muted)
	okStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle   = lipgloss.NewStyle().Foreground(errorRed)
)

const maxMessageWidth = 60

// Render draws the command history as a table followed by the totals.
func Render(r Report) string {
	rows := make([][]string, 0, len(r.Commands))
	for i, e := range r.Commands {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			e.Name,
			status(e),
			e.ThinkTime,
			e.TransitionTime,
			e.ExecutionTime,
			failureText(e),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(accent)).
		Headers("#", "COMMAND", "STATUS", "THINK", "TRANSITION", "EXECUTION", "FAILURE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 && row >= 0 && row < len(r.Commands) {
				if r.Commands[row].FailureKind != "" {
					return cellStyle.Foreground(errorRed)
				}
				return cellStyle.Foreground(success)
			}
			return cellStyle
		})

	var b strings.Builder
	b.WriteString(titleStyle.Render("Session " + r.Totals.SessionID))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(totals(r.Totals))
	return b.String()
}

func status(e Entry) string {
	if e.Success == nil {
		return e.Status
	}
	if *e.Success {
		return "ok"
	}
	return "FAILED"
}

func failureText(e Entry) string {
	if e.FailureKind == "" {
		return ""
	}
	msg := e.FailureKind + ": " + e.FailureMessage
	if len(msg) > maxMessageWidth {
		msg = msg[:maxMessageWidth-3] + "..."
	}
	return msg
}

func totals(t Totals) string {
	var b strings.Builder
	result := okStyle.Render(fmt.Sprintf("%d succeeded", t.Succeeded))
	if t.Failed > 0 {
		result += ", " + failStyle.Render(fmt.Sprintf("%d failed", t.Failed))
	}
	fmt.Fprintf(&b, "%d commands: %s\n", t.Total, result)
	fmt.Fprintf(&b, "%s\n", mutedStyle.Render(fmt.Sprintf(
		"elapsed %s  think %s  transition %s  execution %s",
		t.Elapsed, t.ThinkTime, t.TransitionTime, t.ExecutionTime)))

	if len(t.FailuresByKind) > 0 {
		kinds := make([]string, 0, len(t.FailuresByKind))
		for k := range t.FailuresByKind {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(&b, "  %s x%d\n", failStyle.Render(k), t.FailuresByKind[k])
		}
	}
	return b.String()
}

// Print writes the rendered table to w.
func Print(w io.Writer, r Report) error {
	_, err := io.WriteString(w, Render(r))
	return err
}
