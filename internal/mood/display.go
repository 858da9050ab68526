package mood

import (
	"fmt"
	"strings"
)

const (
	sampleDayCount = 3
	dateFormat     = "2006-01-02"
)

// FormatPeriodSummary returns a human-readable summary of detected periods.
// Shows date range, day count, centroid and the first 3 days of each period.
// Outliers are summarized by count only.
func FormatPeriodSummary(periods []Period, outliers []Day) string {
	var sb strings.Builder

	totalDays := len(outliers)
	for _, p := range periods {
		totalDays += len(p.Days)
	}

	if len(periods) == 0 {
		sb.WriteString(fmt.Sprintf("No mood periods found from %d days", totalDays))
		if len(outliers) > 0 {
			sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", len(outliers)))
		}
		sb.WriteString("\n")
		return sb.String()
	}

	periodWord := "period"
	if len(periods) > 1 {
		periodWord = "periods"
	}

	sb.WriteString(fmt.Sprintf("Found %d mood %s from %d days", len(periods), periodWord, totalDays))
	if len(outliers) > 0 {
		sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", len(outliers)))
	}
	sb.WriteString("\n")

	for i, p := range periods {
		sb.WriteString("\n")
		sb.WriteString(formatPeriod(i+1, p))
	}

	return sb.String()
}

// formatPeriod formats a single period with its sample days.
func formatPeriod(num int, p Period) string {
	var sb strings.Builder

	dayWord := "day"
	if len(p.Days) > 1 {
		dayWord = "days"
	}

	sb.WriteString(fmt.Sprintf("Period %d: %s %s to %s (%d %s)\n",
		num, p.Emotion.Glyph(), p.StartDate.Format(dateFormat), p.EndDate.Format(dateFormat), len(p.Days), dayWord))
	sb.WriteString(fmt.Sprintf("  centroid arousal=%.2f valence=%.2f dominance=%.2f\n",
		p.Centroid.Arousal, p.Centroid.Valence, p.Centroid.Dominance))

	sampleCount := min(sampleDayCount, len(p.Days))
	for i := 0; i < sampleCount; i++ {
		d := p.Days[i]
		sb.WriteString(fmt.Sprintf("  • %s %s (%d recordings)\n", d.Date.Format(dateFormat), d.Dominant, d.Recordings))
	}

	remaining := len(p.Days) - sampleDayCount
	if remaining > 0 {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", remaining))
	}

	return sb.String()
}
