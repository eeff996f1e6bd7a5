package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ReportKind identifies a downloadable report.
type ReportKind string

const (
	ReportAnalytics ReportKind = "analytics"
	ReportHotspots  ReportKind = "hotspots"
	ReportSpecies   ReportKind = "species"
)

var reportTitles = map[ReportKind]string{
	ReportAnalytics: "Analytics Report",
	ReportHotspots:  "Hotspots Report",
	ReportSpecies:   "Species Report",
}

// ParseReportKind returns the kind named by s, or false if no such report
// can be generated.
func ParseReportKind(s string) (ReportKind, bool) {
	k := ReportKind(s)
	_, ok := reportTitles[k]
	return k, ok
}

// Title is the report's display name.
func (k ReportKind) Title() string {
	return reportTitles[k]
}

// Report is a rendered plain-text report ready for download.
type Report struct {
	Kind        ReportKind
	Filename    string
	Body        string
	GeneratedAt time.Time
}

const reportRule = "============================================================"

// BuildReport fetches the data behind kind and renders it.
func BuildReport(ctx context.Context, f Fetcher, kind ReportKind) (Report, error) {
	now := clock.Now()
	var body strings.Builder
	writeReportHeader(&body, now)

	switch kind {
	case ReportAnalytics:
		a, err := Load[Analytics](ctx, f, EndpointAnalytics)
		if err != nil {
			return Report{}, err
		}
		renderAnalytics(&body, a)
	case ReportHotspots:
		h, err := Load[Hotspots](ctx, f, EndpointHotspots)
		if err != nil {
			return Report{}, err
		}
		renderHotspots(&body, h)
	case ReportSpecies:
		s, err := Load[SpeciesRiskReport](ctx, f, EndpointSpeciesRisk)
		if err != nil {
			return Report{}, err
		}
		renderSpecies(&body, s)
	default:
		return Report{}, fmt.Errorf("%w: unknown report %q", ErrInvalidInput, kind)
	}

	body.WriteString("\n" + reportRule + "\nEnd of Report\n")

	return Report{
		Kind:        kind,
		Filename:    ReportFilename(kind, now),
		Body:        body.String(),
		GeneratedAt: now,
	}, nil
}

// ReportFilename is the download name: the title with underscores for
// spaces, then the UTC date.
func ReportFilename(kind ReportKind, at time.Time) string {
	return strings.ReplaceAll(kind.Title(), " ", "_") + "_" + at.UTC().Format("2006-01-02") + ".txt"
}

func writeReportHeader(b *strings.Builder, at time.Time) {
	fmt.Fprintf(b, "WILDLIFE POACHING RISK REPORT\nGenerated: %s\n%s\n\n", at.Format("1/2/2006"), reportRule)
}

func renderAnalytics(b *strings.Builder, a Analytics) {
	if a.Stats == nil {
		return
	}
	b.WriteString("ANALYTICS REPORT\n\n")
	fmt.Fprintf(b, "Total Areas: %d\n", a.Stats.TotalPredictions)
	fmt.Fprintf(b, "High Risk Areas: %d\n", a.Stats.HighRiskAreas)
	fmt.Fprintf(b, "Medium Risk Areas: %d\n", a.Stats.MediumRiskAreas)
	fmt.Fprintf(b, "Low Risk Areas: %d\n\n", a.Stats.LowRiskAreas)

	b.WriteString("TOP RISK STATES:\n")
	for i, s := range a.TopRiskStates {
		fmt.Fprintf(b, "%d. %s - Score: %s\n", i+1, s.State, formatNumber(s.Score))
	}

	b.WriteString("\nTOP FEATURES:\n")
	for i, f := range a.FeatureImportance {
		if i == 10 {
			break
		}
		fmt.Fprintf(b, "%d. %s - %.2f%%\n", i+1, f.Feature, f.Importance*100)
	}
}

func renderHotspots(b *strings.Builder, h Hotspots) {
	if h.Hotspots == nil {
		return
	}
	b.WriteString("HOTSPOT LOCATIONS REPORT\n\n")
	fmt.Fprintf(b, "Total Hotspots: %d\n", h.TotalCount)
	fmt.Fprintf(b, "High Risk: %d\n", h.RiskCounts.High)
	fmt.Fprintf(b, "Medium Risk: %d\n", h.RiskCounts.Medium)
	fmt.Fprintf(b, "Low Risk: %d\n\n", h.RiskCounts.Low)

	b.WriteString("HOTSPOT DETAILS:\n")
	for i, s := range h.Hotspots {
		fmt.Fprintf(b, "\n%d. %s\n", i+1, s.Name)
		fmt.Fprintf(b, "   State: %s\n", s.State)
		fmt.Fprintf(b, "   District: %s\n", s.District)
		fmt.Fprintf(b, "   Risk Score: %s\n", formatNumber(s.Risk))
		fmt.Fprintf(b, "   Risk Level: %s\n", s.RiskLevel)
		fmt.Fprintf(b, "   Incidents (3yr): %d\n", s.Incidents3yr)
	}
}

func renderSpecies(b *strings.Builder, s SpeciesRiskReport) {
	if s.SpeciesRisk == nil {
		return
	}
	b.WriteString("SPECIES PROTECTION REPORT\n\n")
	for i, sp := range s.SpeciesRisk {
		fmt.Fprintf(b, "\n%d. %s\n", i+1, sp.Species)
		fmt.Fprintf(b, "   High Risk Count: %d\n", sp.HighRiskCount)
		fmt.Fprintf(b, "   Avg Crimes: %s\n", formatNumber(sp.AvgCrimes))
		fmt.Fprintf(b, "   Locations: %d\n", sp.LocationCount)
	}
}

// formatNumber prints v with the fewest digits that round-trip, so whole
// numbers have no decimal point.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
