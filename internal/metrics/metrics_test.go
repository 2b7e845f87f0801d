package metrics

import (
	"math"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{
			name:  "full date",
			input: "2020-05-17",
			want:  date(2020, time.May, 17),
			ok:    true,
		},
		{
			name:  "zero day defaults to first",
			input: "2020-05-00",
			want:  date(2020, time.May, 1),
			ok:    true,
		},
		{
			name:  "zero month and day default to January first",
			input: "2020-00-00",
			want:  date(2020, time.January, 1),
			ok:    true,
		},
		{
			name:  "year only",
			input: "2020",
			want:  date(2020, time.January, 1),
			ok:    true,
		},
		{
			name:  "iso timestamp keeps date part",
			input: "2021-11-03T00:00:00Z",
			want:  date(2021, time.November, 3),
			ok:    true,
		},
		{
			name:  "empty string",
			input: "",
			ok:    false,
		},
		{
			name:  "garbage",
			input: "not-a-date",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCitationsPerYear(t *testing.T) {
	now := date(2024, time.June, 1)

	t.Run("two year old paper", func(t *testing.T) {
		rate, extrapolated, ok := CitationsPerYear("2022-06-01", 20, now, false)
		if !ok || extrapolated {
			t.Fatalf("ok = %v, extrapolated = %v", ok, extrapolated)
		}
		if math.Abs(rate-10.0) > 0.1 {
			t.Errorf("rate = %f, want ~10.0", rate)
		}
	})

	t.Run("very recent paper suppressed", func(t *testing.T) {
		rate, extrapolated, ok := CitationsPerYear("2024-05-25", 3, now, false)
		if !ok || extrapolated {
			t.Fatalf("ok = %v, extrapolated = %v", ok, extrapolated)
		}
		if rate != 0.0 {
			t.Errorf("rate = %f, want 0.0 for a week-old paper", rate)
		}
	})

	t.Run("very recent paper extrapolated on request", func(t *testing.T) {
		rate, extrapolated, ok := CitationsPerYear("2024-05-25", 3, now, true)
		if !ok || !extrapolated {
			t.Fatalf("ok = %v, extrapolated = %v", ok, extrapolated)
		}
		if rate <= 100 {
			t.Errorf("rate = %f, want a large extrapolated value", rate)
		}
	})

	t.Run("unparseable date", func(t *testing.T) {
		if _, _, ok := CitationsPerYear("", 3, now, false); ok {
			t.Error("ok = true for empty date")
		}
	})
}

func TestHIndex(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		want   int
	}{
		{name: "empty", counts: nil, want: 0},
		{name: "all zero", counts: []int{0, 0, 0}, want: 0},
		{name: "single cited paper", counts: []int{5}, want: 1},
		{name: "classic example", counts: []int{10, 8, 5, 4, 3}, want: 4},
		{name: "uniform counts", counts: []int{3, 3, 3, 3, 3}, want: 3},
		{name: "unsorted input", counts: []int{1, 10, 2, 8, 5}, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HIndex(tt.counts); got != tt.want {
				t.Errorf("HIndex(%v) = %d, want %d", tt.counts, got, tt.want)
			}
		})
	}
}

func TestHIndexMonotonicUnderIncrease(t *testing.T) {
	counts := []int{3, 1, 4, 0, 2}
	base := HIndex(counts)
	for i := range counts {
		bumped := make([]int, len(counts))
		copy(bumped, counts)
		bumped[i]++
		if got := HIndex(bumped); got < base {
			t.Errorf("HIndex(%v) = %d, dropped below %d after increasing one count", bumped, got, base)
		}
	}
}

func TestHIndexDoesNotMutateInput(t *testing.T) {
	counts := []int{1, 10, 2}
	HIndex(counts)
	if counts[0] != 1 || counts[1] != 10 || counts[2] != 2 {
		t.Errorf("input mutated: %v", counts)
	}
}

func TestRecentCount(t *testing.T) {
	now := date(2024, time.June, 1)
	dates := []string{
		"2024-05-20", // inside window
		"2024-03-10", // inside window
		"2023-12-01", // outside
		"bogus",      // skipped
		"",           // skipped
	}
	if got := RecentCount(dates, 90, now); got != 2 {
		t.Errorf("RecentCount() = %d, want 2", got)
	}
}

func TestTotalAndAverage(t *testing.T) {
	counts := []int{4, 6, 0}
	if got := Total(counts); got != 10 {
		t.Errorf("Total() = %d, want 10", got)
	}
	if got := Average(counts); math.Abs(got-10.0/3.0) > 1e-9 {
		t.Errorf("Average() = %f", got)
	}
	if got := Average(nil); got != 0 {
		t.Errorf("Average(nil) = %f, want 0", got)
	}
}
