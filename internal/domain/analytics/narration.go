package analytics

import "strings"

// SummaryKind names the analysis a narration summary describes
type SummaryKind string

const (
	SummaryForecast      SummaryKind = "forecast"
	SummaryConcentration SummaryKind = "concentration"
	SummaryCreditRatio   SummaryKind = "credit_ratio"
	SummaryRegional      SummaryKind = "regional"
	SummaryArea          SummaryKind = "area"
	SummaryTerritory     SummaryKind = "territory"
)

// AllSummaryKinds returns every narratable summary kind
func AllSummaryKinds() []SummaryKind {
	return []SummaryKind{
		SummaryForecast, SummaryConcentration, SummaryCreditRatio,
		SummaryRegional, SummaryArea, SummaryTerritory,
	}
}

// ParseSummaryKind validates a summary kind. Hyphens are accepted in place
// of underscores.
func ParseSummaryKind(raw string) (SummaryKind, error) {
	k := SummaryKind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	for _, known := range AllSummaryKinds() {
		if k == known {
			return k, nil
		}
	}
	return "", ErrInvalidDimension.WithMessage("unknown insight kind: " + raw)
}
