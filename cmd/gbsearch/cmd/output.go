package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/corey/gbsearch/internal/adapters/socket"
	"github.com/corey/gbsearch/internal/ports"
)

// palette holds the terminal styles. The zero-styled palette renders text
// unchanged, for pipes and --no-color.
type palette struct {
	header lipgloss.Style
	name   lipgloss.Style
	common lipgloss.Style
	loc    lipgloss.Style
	dim    lipgloss.Style
	accent lipgloss.Style
	warn   lipgloss.Style
}

func newPalette(color bool) palette {
	if !color {
		plain := lipgloss.NewStyle()
		return palette{plain, plain, plain, plain, plain, plain, plain}
	}
	return palette{
		header: lipgloss.NewStyle().Bold(true),
		name:   lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		common: lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
		loc:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		accent: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

// styles is the palette for stdout.
func styles() palette {
	return newPalette(useColor())
}

// formatLocation renders seq:start-end(strand).
func formatLocation(f ports.Feature) string {
	return fmt.Sprintf("%s:%d-%d(%s)", f.SeqID, f.Start, f.End, f.Strand.Abbrev())
}

// formatFeature renders one feature line.
//
//	VNG1001G  trkA  chr:100-900(+)  cds
func formatFeature(p palette, f ports.Feature) string {
	var sb strings.Builder
	sb.WriteString(p.name.Render(f.Name))
	if f.CommonName != "" {
		sb.WriteString("  ")
		sb.WriteString(p.common.Render(f.CommonName))
	}
	sb.WriteString("  ")
	sb.WriteString(p.loc.Render(formatLocation(f)))
	if f.Type != "" {
		sb.WriteString("  ")
		sb.WriteString(p.dim.Render(string(f.Type)))
	}
	return sb.String()
}

// formatFeatures formats a result list for terminal display.
//
//	⚡ 2 features │ 85µs
//	  VNG2001H  trkH  chr:50-90(+)  cds
//	  VNG1001G  trkA  chr:100-900(+)  cds
func formatFeatures(p palette, r *socket.FeaturesResult, countOnly bool) string {
	noun := "features"
	if r.Count == 1 {
		noun = "feature"
	}
	head := fmt.Sprintf("⚡ %d %s", r.Count, noun)
	if r.Elapsed != "" {
		head += " │ " + r.Elapsed
	}

	var sb strings.Builder
	sb.WriteString(p.header.Render(head))
	sb.WriteString("\n")
	if countOnly {
		return sb.String()
	}
	for _, f := range r.Features {
		sb.WriteString("  ")
		sb.WriteString(formatFeature(p, f))
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatDatasets lists stored datasets, marking the current one.
func formatDatasets(p palette, r *socket.DatasetsResult) string {
	if len(r.Datasets) == 0 {
		return p.dim.Render("no datasets. Load one with: gbsearch load <file>") + "\n"
	}
	var sb strings.Builder
	for _, d := range r.Datasets {
		mark := " "
		if d.ID == r.Current {
			mark = p.accent.Render("*")
		}
		saved := ""
		if d.SavedAt > 0 {
			saved = time.Unix(0, d.SavedAt).Format("2006-01-02 15:04")
		}
		sb.WriteString(fmt.Sprintf("%s %s  %s  %s\n",
			mark,
			p.name.Render(d.Name),
			fmt.Sprintf("%d tracks, %d features", d.TrackCount, d.FeatureCount),
			p.dim.Render(strings.TrimSpace(saved+" "+d.ID.String()))))
	}
	return sb.String()
}

// formatHealth renders the daemon's status block.
func formatHealth(p palette, h *socket.HealthResult) string {
	dataset := h.Dataset
	if dataset == "" {
		dataset = p.warn.Render("none loaded")
	}
	wildcard := "off"
	if h.AutoWildcard {
		wildcard = "on"
	}

	var sb strings.Builder
	sb.WriteString(p.header.Render("⚡ gbsearch daemon") + " " + p.accent.Render(h.Status) + "\n")
	sb.WriteString(fmt.Sprintf("  Dataset:    %s\n", dataset))
	sb.WriteString(fmt.Sprintf("  Terms:      %d\n", h.TermCount))
	sb.WriteString(fmt.Sprintf("  Results:    %d\n", h.ResultCount))
	sb.WriteString(fmt.Sprintf("  Wildcard:   %s\n", wildcard))
	sb.WriteString(fmt.Sprintf("  Uptime:     %s\n", h.Uptime))
	return sb.String()
}
