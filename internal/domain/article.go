package domain

import "time"

// Confidence bands for article relevance scores.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// ArticleView is an article with the display fields the news page renders.
type ArticleView struct {
	Article
	ConfidenceBand   string `json:"confidence_band"`
	ConfidencePct    int    `json:"confidence_pct"`
	PublishedDisplay string `json:"published_display"`
	FetchedDisplay   string `json:"fetched_display"`
}

// NewArticleView derives the display fields for a.
func NewArticleView(a Article) ArticleView {
	return ArticleView{
		Article:          a,
		ConfidenceBand:   ConfidenceBand(a.ConfidenceScore),
		ConfidencePct:    roundInt(a.ConfidenceScore * 100),
		PublishedDisplay: DisplayDate(a.PublishedAt),
		FetchedDisplay:   DisplayDate(a.FetchedAt),
	}
}

// ConfidenceBand buckets a score in [0, 1]: high from 0.8, medium from 0.6.
func ConfidenceBand(score float64) string {
	switch {
	case score >= 0.8:
		return ConfidenceHigh
	case score >= 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// DisplayDate renders a backend timestamp as "Jan 2, 2006". Empty input
// yields "Unknown date"; unparseable input is returned unchanged.
func DisplayDate(s string) string {
	if s == "" {
		return "Unknown date"
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return s
}
