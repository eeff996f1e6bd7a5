package domain

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAnalyticsBody = `{
		"stats": {"total_predictions": 1200, "high_risk_areas": 5, "medium_risk_areas": 5, "low_risk_areas": 5},
		"top_risk_states": [{"state": "Assam", "score": 81.5}, {"state": "Kerala", "score": 64}],
		"feature_importance": [
			{"feature": "past_crimes_3yr_10km", "importance": 0.2346},
			{"feature": "f2", "importance": 0.1}, {"feature": "f3", "importance": 0.1},
			{"feature": "f4", "importance": 0.1}, {"feature": "f5", "importance": 0.1},
			{"feature": "f6", "importance": 0.1}, {"feature": "f7", "importance": 0.1},
			{"feature": "f8", "importance": 0.05}, {"feature": "f9", "importance": 0.05},
			{"feature": "f10", "importance": 0.04}, {"feature": "f11", "importance": 0.01}
		]
	}`
	testHotspotsBody = `{
		"success": true, "total_count": 1, "risk_counts": {"high": 1},
		"hotspots": [{"name": "Kaziranga", "state": "Assam", "district": "Golaghat", "risk": 88, "risk_level": "High", "incidents_3yr": 14}]
	}`
	testSpeciesBody = `{"species_risk": [{"species": "Rhino", "high_risk_count": 7, "avg_crimes": 3.25, "location_count": 4}]}`
)

func reportFetcher() stubFetcher {
	return stubFetcher{bodies: map[Endpoint]string{
		EndpointAnalytics:   testAnalyticsBody,
		EndpointHotspots:    testHotspotsBody,
		EndpointSpeciesRisk: testSpeciesBody,
	}}
}

func TestBuildReport(t *testing.T) {
	at := time.Date(2025, time.July, 4, 18, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(at))
	defer SetClock(nil)

	ctx := context.Background()

	t.Run("analytics", func(t *testing.T) {
		r, err := BuildReport(ctx, reportFetcher(), ReportAnalytics)
		require.NoError(t, err)

		assert.Equal(t, "Analytics_Report_2025-07-04.txt", r.Filename)
		assert.True(t, strings.HasPrefix(r.Body, "WILDLIFE POACHING RISK REPORT\nGenerated: 7/4/2025\n"+reportRule+"\n\n"))
		assert.True(t, strings.HasSuffix(r.Body, "\n"+reportRule+"\nEnd of Report\n"))
		assert.Contains(t, r.Body, "Total Areas: 1200\n")
		assert.Contains(t, r.Body, "1. Assam - Score: 81.5\n")
		assert.Contains(t, r.Body, "2. Kerala - Score: 64\n")
		assert.Contains(t, r.Body, "1. past_crimes_3yr_10km - 23.46%\n")
		assert.Contains(t, r.Body, "10. f10 - 4.00%\n")
		assert.NotContains(t, r.Body, "f11")
	})

	t.Run("hotspots", func(t *testing.T) {
		r, err := BuildReport(ctx, reportFetcher(), ReportHotspots)
		require.NoError(t, err)
		assert.Equal(t, "Hotspots_Report_2025-07-04.txt", r.Filename)
		assert.Contains(t, r.Body, "HOTSPOT LOCATIONS REPORT\n\nTotal Hotspots: 1\nHigh Risk: 1\nMedium Risk: 0\nLow Risk: 0\n")
		assert.Contains(t, r.Body, "\n1. Kaziranga\n   State: Assam\n   District: Golaghat\n   Risk Score: 88\n   Risk Level: High\n   Incidents (3yr): 14\n")
	})

	t.Run("species", func(t *testing.T) {
		r, err := BuildReport(ctx, reportFetcher(), ReportSpecies)
		require.NoError(t, err)
		assert.Contains(t, r.Body, "SPECIES PROTECTION REPORT\n\n\n1. Rhino\n   High Risk Count: 7\n   Avg Crimes: 3.25\n   Locations: 4\n")
	})

	t.Run("missing data renders header and footer only", func(t *testing.T) {
		f := stubFetcher{bodies: map[Endpoint]string{EndpointAnalytics: `{}`}}
		r, err := BuildReport(ctx, f, ReportAnalytics)
		require.NoError(t, err)
		assert.NotContains(t, r.Body, "ANALYTICS REPORT")
		assert.Contains(t, r.Body, "End of Report")
	})

	t.Run("backend failure", func(t *testing.T) {
		f := stubFetcher{bodies: map[Endpoint]string{EndpointHotspots: `{"success":false,"error":"down"}`}}
		_, err := BuildReport(ctx, f, ReportHotspots)
		require.Error(t, err)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := BuildReport(ctx, reportFetcher(), ReportKind("custom"))
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestParseReportKind(t *testing.T) {
	k, ok := ParseReportKind("species")
	assert.True(t, ok)
	assert.Equal(t, "Species Report", k.Title())

	_, ok = ParseReportKind("custom")
	assert.False(t, ok)
}
