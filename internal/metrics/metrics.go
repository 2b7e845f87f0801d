// Package metrics computes derived citation statistics. All functions are
// pure: they take observed values and a clock time and return numbers.
package metrics

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// daysPerYear converts elapsed days to years.
const daysPerYear = 365.25

// minYears is one month, the smallest paper age treated as meaningful for
// per-year rates.
const minYears = 1.0 / 12.0

// ParseDate parses an ADS date string ("2020-05-01", "2020-05-00",
// "2020-00-00", or a full ISO timestamp). A zero or missing month defaults
// to January and a zero or missing day to the 1st.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	// Strip any time component.
	if idx := strings.Index(s, "T"); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, "-")
	year, err := strconv.Atoi(parts[0])
	if err != nil || year == 0 {
		return time.Time{}, false
	}

	month := 1
	if len(parts) > 1 {
		if m, err := strconv.Atoi(parts[1]); err == nil && m != 0 {
			month = m
		}
	}

	day := 1
	if len(parts) > 2 {
		if d, err := strconv.Atoi(parts[2]); err == nil && d != 0 {
			day = d
		}
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// YearsSince returns the years elapsed since the given publication date.
// Returns false when the date cannot be parsed.
func YearsSince(pubDate string, now time.Time) (float64, bool) {
	pub, ok := ParseDate(pubDate)
	if !ok {
		return 0, false
	}
	return now.Sub(pub).Hours() / 24 / daysPerYear, true
}

// CitationsPerYear computes a citation rate for a paper. Papers less than
// one month old return 0.0 to avoid wildly extrapolated rates, unless
// extrapolate is set, in which case the raw rate is returned with the
// extrapolated flag so callers can mark it distinctly. Returns ok=false
// when the publication date cannot be parsed.
func CitationsPerYear(pubDate string, citationCount int, now time.Time, extrapolate bool) (rate float64, extrapolated bool, ok bool) {
	years, ok := YearsSince(pubDate, now)
	if !ok {
		return 0, false, false
	}

	if years < minYears {
		if extrapolate && years > 0 {
			return float64(citationCount) / years, true, true
		}
		return 0.0, false, true
	}

	return float64(citationCount) / years, false, true
}

// HIndex returns the largest h such that at least h publications have at
// least h citations each.
func HIndex(citationCounts []int) int {
	counts := make([]int, len(citationCounts))
	copy(counts, citationCounts)
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	h := 0
	for i, count := range counts {
		if count >= i+1 {
			h = i + 1
		} else {
			break
		}
	}
	return h
}

// RecentCount returns how many of the given publication dates fall within
// the trailing window ending at now. Unparseable dates are skipped.
func RecentCount(dates []string, windowDays int, now time.Time) int {
	cutoff := now.AddDate(0, 0, -windowDays)
	n := 0
	for _, s := range dates {
		d, ok := ParseDate(s)
		if !ok {
			continue
		}
		if !d.Before(cutoff) && !d.After(now) {
			n++
		}
	}
	return n
}

// Total sums citation counts.
func Total(citationCounts []int) int {
	total := 0
	for _, c := range citationCounts {
		total += c
	}
	return total
}

// Average returns the mean citation count, or 0 for an empty list.
func Average(citationCounts []int) float64 {
	if len(citationCounts) == 0 {
		return 0
	}
	return float64(Total(citationCounts)) / float64(len(citationCounts))
}
