package dialog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fieldline/intake-ai/internal/scheduling"
)

var dayNames = map[string]int{
	"sunday":    0,
	"monday":    1,
	"tuesday":   2,
	"wednesday": 3,
	"thursday":  4,
	"friday":    5,
	"saturday":  6,
}

var clockPattern = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)

// ParseTimePreferences extracts scheduling preferences from natural
// language like "Mondays or Thursdays after 4pm". It is best-effort: text
// with no recognizable preference yields an empty value, never an error.
func ParseTimePreferences(text string) scheduling.TimePreferences {
	lower := strings.ToLower(text)
	prefs := scheduling.TimePreferences{RawText: strings.TrimSpace(text)}

	for name, num := range dayNames {
		if strings.Contains(lower, name) {
			prefs.DaysOfWeek = append(prefs.DaysOfWeek, num)
		}
	}
	if strings.Contains(lower, "weekday") {
		prefs.DaysOfWeek = append(prefs.DaysOfWeek, 1, 2, 3, 4, 5)
	}

	switch {
	case strings.Contains(lower, "morning"):
		prefs.BeforeTime = "12:00"
	case strings.Contains(lower, "afternoon"):
		prefs.AfterTime = "12:00"
	case strings.Contains(lower, "evening"), strings.Contains(lower, "after work"):
		prefs.AfterTime = "16:00"
	}

	if t, ok := clockAfter(lower, "after "); ok {
		prefs.AfterTime = t
	}
	if t, ok := clockAfter(lower, "before "); ok {
		prefs.BeforeTime = t
	}

	prefs.DaysOfWeek = dedupeDays(prefs.DaysOfWeek)
	return prefs
}

// clockAfter parses a clock time immediately following marker, e.g.
// "after 4pm" or "before 10:30".
func clockAfter(lower, marker string) (string, bool) {
	idx := strings.Index(lower, marker)
	if idx < 0 {
		return "", false
	}
	rest := lower[idx+len(marker):]
	if strings.HasPrefix(rest, "noon") {
		return "12:00", true
	}
	m := clockPattern.FindStringSubmatch(rest)
	if m == nil {
		return "", false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return "", false
	}
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	switch m[3] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	default:
		// Bare small hours in conversation mean afternoon: "after 4" is
		// 16:00, not 04:00.
		if hour >= 1 && hour <= 6 {
			hour += 12
		}
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

func dedupeDays(days []int) []int {
	if len(days) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(days))
	out := days[:0]
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}
