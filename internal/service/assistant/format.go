package assistant

import (
	"fmt"
	"time"
)

// humanRange renders "today, 3pm–4pm", "tomorrow, 9am–10:30am" or
// "Nov 15, 9am–10am" relative to now.
func humanRange(now, start, end time.Time) string {
	var dateLabel string
	switch startDay := start.Truncate(24 * time.Hour); {
	case startDay.Equal(now.Truncate(24 * time.Hour)):
		dateLabel = "today"
	case startDay.Equal(now.Truncate(24 * time.Hour).Add(24 * time.Hour)):
		dateLabel = "tomorrow"
	default:
		dateLabel = start.Format("Jan 2")
	}

	return fmt.Sprintf("%s, %s–%s", dateLabel, clockLabel(start), clockLabel(end))
}

func clockLabel(t time.Time) string {
	if t.Minute() == 0 {
		return t.Format("3pm")
	}
	return t.Format("3:04pm")
}
