// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/autofill-agent/internal/types"
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

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintScanSummary outputs field counts by control type and section
// after extraction.
func (p *Printer) PrintScanSummary(fields []types.Field) {
	if len(fields) == 0 {
		return
	}

	byType := make(map[string]int)
	bySection := make(map[types.SectionType]int)
	for _, f := range fields {
		t := f.Type
		if t == "" {
			t = types.TypeText
		}
		byType[t]++
		bySection[f.SectionType]++
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Fields detected: %d\n\n", len(fields)))

	sb.WriteString("By control type:\n")
	for _, t := range sortedKeys(byType) {
		sb.WriteString(fmt.Sprintf("  %-12s %d\n", t, byType[t]))
	}

	if bySection[types.SectionWork] > 0 || bySection[types.SectionEducation] > 0 {
		sb.WriteString("\nRepeating sections:\n")
		if n := bySection[types.SectionWork]; n > 0 {
			sb.WriteString(fmt.Sprintf("  work          %d\n", n))
		}
		if n := bySection[types.SectionEducation]; n > 0 {
			sb.WriteString(fmt.Sprintf("  education     %d\n", n))
		}
	}

	p.printBox("FORM SCAN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResolutions outputs the per-field resolution breakdown in DOM
// order, with source and confidence for each filled field.
func (p *Printer) PrintResolutions(fields []types.Field, results types.ResultMap) {
	if len(results) == 0 {
		return
	}

	filled, ignored := 0, 0
	var sb strings.Builder
	for _, f := range fields {
		res, ok := results[f.Selector]
		if !ok {
			continue
		}
		if res.Decision == types.DecisionIgnore {
			ignored++
			continue
		}
		filled++

		label := f.Label
		if label == "" {
			label = f.Name
		}
		if len(label) > 24 {
			label = label[:21] + "..."
		}
		value := res.ValueString()
		if len(value) > 20 {
			value = value[:17] + "..."
		}
		sb.WriteString(fmt.Sprintf("%-24s → %s\n", label, value))
		sb.WriteString(fmt.Sprintf("  %s (%.2f)\n", res.Source, res.Confidence))
	}

	sb.WriteString(fmt.Sprintf("\nFilled: %d   Ignored: %d", filled, ignored))
	p.printBox("FIELD RESOLUTIONS", sb.String())
}

// PrintSourceBreakdown outputs how many fields each resolution source
// answered.
func (p *Printer) PrintSourceBreakdown(results types.ResultMap) {
	if len(results) == 0 {
		return
	}

	counts := make(map[string]int)
	for _, res := range results {
		if res.Decision == types.DecisionIgnore {
			counts["ignored"]++
			continue
		}
		counts[string(res.Source)]++
	}

	var sb strings.Builder
	for _, source := range sortedKeys(counts) {
		sb.WriteString(fmt.Sprintf("%-18s %d\n", source, counts[source]))
	}

	p.printBox("RESOLUTION SOURCES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProfileSummary outputs a human-readable summary of the loaded profile.
func (p *Printer) PrintProfileSummary(profile *types.Profile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:   %s %s\n", profile.FirstName, profile.LastName))
	sb.WriteString(fmt.Sprintf("Email:  %s\n", profile.Email))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Work entries:       %d\n", len(profile.Work)))
	sb.WriteString(fmt.Sprintf("Education entries:  %d\n", len(profile.Education)))

	if len(profile.Skills) > 0 {
		sb.WriteString("\nSkills:\n")
		count := min(len(profile.Skills), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", profile.Skills[i]))
		}
		if len(profile.Skills) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(profile.Skills)-maxItemsToShow))
		}
	}

	p.printBox("PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
