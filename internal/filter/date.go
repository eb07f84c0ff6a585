package filter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDateRegex    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	yearOnlyRegex   = regexp.MustCompile(`\b(20\d{2})\b`)
	relativeRegex   = regexp.MustCompile(`(?i)\b(\d+)\+?\s*(day|week|month)s?\s+ago\b`)
	postedLayouts   = []string{"January 2, 2006", "Jan 2, 2006", "2 January 2006", "02-Jan-2006"}
	postedTodayWord = regexp.MustCompile(`(?i)\b(today|just posted|yesterday)\b`)
)

// ParsePostedDate turns the free-text posted date scraped from listing or
// detail pages into a time. ok is false when nothing usable was found.
func ParsePostedDate(dateStr string, now time.Time) (t time.Time, ok bool) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, false
	}

	//case 1: ISO "2026-01-27" or 2026-01-27T...
	if isoDateRegex.MatchString(dateStr) {
		if t, err := time.Parse("2006-01-02", dateStr[:10]); err == nil {
			return t, true
		}
	}

	//case 2: mm/dd/yyyy, US careers sites
	if strings.Contains(dateStr, "/") {
		parts := strings.Split(dateStr, "/")
		if len(parts) >= 3 {
			yearPart := strings.TrimSpace(parts[2])
			if len(yearPart) > 4 {
				yearPart = yearPart[:4]
			}
			month, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
			day, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
			year, err3 := strconv.Atoi(yearPart)
			if err1 == nil && err2 == nil && err3 == nil {
				return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
			}
		}
	}

	//case 3: long-form dates
	for _, layout := range postedLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, true
		}
	}

	//case 4: "3 days ago", "today"
	if postedTodayWord.MatchString(dateStr) {
		return now, true
	}
	if m := relativeRegex.FindStringSubmatch(dateStr); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch strings.ToLower(m[2]) {
		case "day":
			return now.AddDate(0, 0, -n), true
		case "week":
			return now.AddDate(0, 0, -7*n), true
		case "month":
			return now.AddDate(0, -n, 0), true
		}
	}

	//case 5: year only
	if m := yearOnlyRegex.FindStringSubmatch(dateStr); m != nil {
		year, _ := strconv.Atoi(m[1])
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// PostedWithin reports whether dateStr falls within window of now. Dates that
// cannot be parsed are kept.
func PostedWithin(dateStr string, window time.Duration, now time.Time) bool {
	t, ok := ParsePostedDate(dateStr, now)
	if !ok {
		return true
	}
	diff := now.Sub(t)
	if diff > window {
		return false
	}
	//reject far-future dates (timezone slop is 2 days)
	if diff < -2*24*time.Hour {
		return false
	}
	return true
}
