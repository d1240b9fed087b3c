package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/folio/internal"
	"github.com/starford/folio/internal/linkcheck"
)

var (
	primaryColor = lipgloss.Color("#7C3AED") // Purple
	successColor = lipgloss.Color("#10B981") // Green
	errorColor   = lipgloss.Color("#EF4444") // Red
	mutedColor   = lipgloss.Color("#6B7280") // Gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(errorColor).
			Padding(0, 1)
)

func printBuild(w io.Writer, title string, res *internal.BuildResult) {
	fmt.Fprintln(w, titleStyle.Render("folio")+" "+mutedStyle.Render("building "+title))
	if res == nil || res.Stats == nil {
		return
	}
	fmt.Fprintf(w, "%s %d pages, %d assets in %s\n",
		successStyle.Render("✓"),
		res.Stats.Documents,
		res.Stats.Assets,
		res.Stats.Duration.Round(time.Millisecond))
	fmt.Fprintln(w, mutedStyle.Render("  → "+res.OutDir))
	for _, r := range res.Stats.Unresolved {
		fmt.Fprintln(w, mutedStyle.Render("  ! navigation rule matches no page: "+r.Path))
	}
	if len(res.Broken) > 0 {
		fmt.Fprintln(w, brokenLinksReport(res.Broken))
	}
}

func brokenLinksReport(links []linkcheck.BrokenLink) string {
	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("%d broken links", len(links))))
	for _, l := range links {
		fmt.Fprintf(&sb, "\n%s  %s", l.Source, mutedStyle.Render("→ "+l.Link.Destination))
	}
	return boxStyle.Render(sb.String())
}

func printInit(w io.Writer, cfgPath string) {
	fmt.Fprintf(w, "%s created %s\n", successStyle.Render("✓"), cfgPath)
	fmt.Fprintln(w, mutedStyle.Render("  run `folio serve` to preview your docs"))
}
