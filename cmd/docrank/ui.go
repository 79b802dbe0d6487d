package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgallion1/docrank/internal/report"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// barObserver advances a progress bar as documents are parsed.
type barObserver struct {
	bar *progressbar.ProgressBar
}

func newBarObserver(total int) *barObserver {
	return &barObserver{bar: newProgressBar(total, "Parsing documents")}
}

func (o *barObserver) DocumentParsed(name string, sections int) {
	o.bar.Describe(color.BlueString("Parsed %s", truncateName(name, 32)))
	_ = o.bar.Add(1)
}

func (o *barObserver) Ranking(candidates int) {
	o.bar.Describe(color.CyanString("Ranking %d sections", candidates))
}

func (o *barObserver) finish() {
	_ = o.bar.Finish()
	fmt.Fprintln(os.Stderr)
}

func truncateName(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	rankStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func renderSummary(out *report.Output, path string, elapsed time.Duration) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Top sections") + "\n")
	b.WriteString(mutedStyle.Render(out.Metadata.IntelligentQuery) + "\n\n")
	if len(out.ExtractedSections) == 0 {
		b.WriteString(mutedStyle.Render("no sections found") + "\n")
	}
	for _, s := range out.ExtractedSections {
		fmt.Fprintf(&b, "%s %s %s\n",
			rankStyle.Render(fmt.Sprintf("%d.", s.ImportanceRank)),
			s.SectionTitle,
			mutedStyle.Render(fmt.Sprintf("(%s, p.%d)", s.Document, s.PageNumber)),
		)
	}
	b.WriteString("\n" + mutedStyle.Render(fmt.Sprintf("wrote %s in %s", path, elapsed.Round(time.Millisecond))))
	return boxStyle.Render(b.String())
}
