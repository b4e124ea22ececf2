// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/izzy/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if r := []rune(line); len(r) > boxWidth-4 {
			line = string(r[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintResume outputs a human-readable summary of a parsed resume.
func (p *Printer) PrintResume(resume *types.StructuredResume) {
	if resume == nil {
		return
	}

	var sb strings.Builder

	writeSkills(&sb, "Technical skills", resume.ParsedSkills.Technical)
	writeSkills(&sb, "Soft skills", resume.ParsedSkills.Soft)

	if len(resume.Experience) > 0 {
		sb.WriteString("Experience:\n")
		count := min(len(resume.Experience), maxItemsToShow)
		for i := 0; i < count; i++ {
			exp := resume.Experience[i]
			sb.WriteString(fmt.Sprintf("  • %s at %s", exp.Title, exp.Company))
			if d := formatDuration(exp.Duration); d != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", d))
			}
			sb.WriteString("\n")
		}
		writeMore(&sb, len(resume.Experience))
		sb.WriteString("\n")
	}

	if len(resume.Education) > 0 {
		sb.WriteString("Education:\n")
		for _, edu := range resume.Education {
			line := edu.Degree
			if edu.Field != "" {
				line += ", " + edu.Field
			}
			sb.WriteString(fmt.Sprintf("  • %s, %s\n", line, edu.Institution))
		}
		sb.WriteString("\n")
	}

	if len(resume.Projects) > 0 {
		sb.WriteString(fmt.Sprintf("Projects: %d\n", len(resume.Projects)))
	}

	content := strings.TrimSuffix(sb.String(), "\n")
	if content == "" {
		content = "(no sections parsed)"
	}
	p.printBox("PARSED RESUME", content)
}

func writeSkills(sb *strings.Builder, label string, skills []types.Skill) {
	if len(skills) == 0 {
		return
	}
	sb.WriteString(label + ":\n")
	count := min(len(skills), maxItemsToShow)
	for i := 0; i < count; i++ {
		s := skills[i]
		sb.WriteString("  • " + s.Skill)
		var details []string
		if s.Level != "" {
			details = append(details, s.Level)
		}
		if s.Years != nil {
			details = append(details, fmt.Sprintf("%gy", *s.Years))
		}
		if len(details) > 0 {
			sb.WriteString(" (" + strings.Join(details, ", ") + ")")
		}
		sb.WriteString("\n")
	}
	writeMore(sb, len(skills))
	sb.WriteString("\n")
}

func writeMore(sb *strings.Builder, total int) {
	if total > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", total-maxItemsToShow))
	}
}

func formatDuration(d types.Duration) string {
	var parts []string
	switch {
	case d.Years == 1:
		parts = append(parts, "1 year")
	case d.Years > 1:
		parts = append(parts, fmt.Sprintf("%d years", d.Years))
	}
	switch {
	case d.Months == 1:
		parts = append(parts, "1 month")
	case d.Months > 1:
		parts = append(parts, fmt.Sprintf("%d months", d.Months))
	}
	return strings.Join(parts, " ")
}
