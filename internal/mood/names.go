package mood

import (
	"fmt"
	"strings"
	"time"

	"github.com/justestif/go-voice-diary/internal/emotion"
)

// periodTitle returns a capitalised display title for a label.
func periodTitle(e emotion.Emotion) string {
	s := e.String()
	if s == "" {
		return "Unlabelled"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// formatPeriodName combines a mood title with a date range.
func formatPeriodName(e emotion.Emotion, start, end time.Time) string {
	const dateFormat = "Jan 2, 2006"
	startStr := start.Format(dateFormat)
	endStr := end.Format(dateFormat)

	title := periodTitle(e)
	if startStr == endStr {
		return fmt.Sprintf("%s: %s", title, startStr)
	}
	return fmt.Sprintf("%s: %s - %s", title, startStr, endStr)
}
