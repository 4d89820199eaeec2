package models

import (
	"sort"
	"time"
)

// MetricKind identifies one tracked health dimension.
type MetricKind string

const (
	MetricSleep     MetricKind = "sleep"
	MetricSteps     MetricKind = "steps"
	MetricHeartRate MetricKind = "heart_rate"
	MetricCalories  MetricKind = "calories"
)

// MetricSource identifies where a raw reading came from.
type MetricSource string

const (
	SourceOura        MetricSource = "oura"
	SourceAppleHealth MetricSource = "apple_health"
)

// DayLayout is the canonical date format for per-day metric values.
// ISO dates compare lexicographically in chronological order, which the
// unifier and correlation engine rely on.
const DayLayout = "2006-01-02"

// ParseDay parses a canonical per-day date string.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayLayout, s)
}

// DayKey formats a timestamp as its canonical per-day date string.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// NextDay returns the canonical date string one day after s.
// Returns an empty string if s is not a valid day key.
func NextDay(s string) string {
	t, err := ParseDay(s)
	if err != nil {
		return ""
	}
	return DayKey(t.AddDate(0, 0, 1))
}

// MetricReading is one raw per-day value from a single source, before
// unification.
type MetricReading struct {
	Date   string       `json:"date" binding:"required"`
	Kind   MetricKind   `json:"kind" binding:"required"`
	Value  float64      `json:"value"`
	Source MetricSource `json:"source" binding:"required"`
}

// MetricPoint is one (date, value) entry in a unified series.
type MetricPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// MetricSeries is the ordered per-day series for one metric kind.
// Dates are strictly increasing and unique; gaps are simply absent.
// Read-only once built by the unifier.
type MetricSeries struct {
	Kind   MetricKind    `json:"kind"`
	Points []MetricPoint `json:"points"`
}

// Len returns the number of present days in the series.
func (s MetricSeries) Len() int {
	return len(s.Points)
}

// Values returns the series values in date order.
func (s MetricSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// ByDate returns a date-keyed view of the series.
func (s MetricSeries) ByDate() map[string]float64 {
	out := make(map[string]float64, len(s.Points))
	for _, p := range s.Points {
		out[p.Date] = p.Value
	}
	return out
}

// Validate checks the series ordering invariant: parseable dates, strictly
// increasing, no duplicates. Returns a *MalformedSeriesError on violation.
func (s MetricSeries) Validate() error {
	prev := ""
	for _, p := range s.Points {
		if _, err := ParseDay(p.Date); err != nil {
			return &MalformedSeriesError{Kind: s.Kind, Reason: "unparseable date " + p.Date}
		}
		if prev != "" && p.Date == prev {
			return &MalformedSeriesError{Kind: s.Kind, Reason: "duplicate date " + p.Date}
		}
		if prev != "" && p.Date < prev {
			return &MalformedSeriesError{Kind: s.Kind, Reason: "dates not increasing at " + p.Date}
		}
		prev = p.Date
	}
	return nil
}

// UnifiedDataset maps each metric kind to its merged canonical series for
// one user. Built fresh per analysis request, never persisted, and treated
// as an immutable snapshot by everything downstream.
type UnifiedDataset struct {
	UserID string                      `json:"user_id"`
	Series map[MetricKind]MetricSeries `json:"series"`
}

// Kinds returns the dataset's metric kinds in deterministic (sorted) order.
func (d UnifiedDataset) Kinds() []MetricKind {
	kinds := make([]MetricKind, 0, len(d.Series))
	for k := range d.Series {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Get returns the series for a kind, or an empty series if absent.
func (d UnifiedDataset) Get(kind MetricKind) MetricSeries {
	if s, ok := d.Series[kind]; ok {
		return s
	}
	return MetricSeries{Kind: kind}
}

// TotalPoints counts the data points across all series.
func (d UnifiedDataset) TotalPoints() int {
	n := 0
	for _, s := range d.Series {
		n += len(s.Points)
	}
	return n
}

// DashboardResponse is the unified-data payload returned to the caller.
type DashboardResponse struct {
	Metrics map[MetricKind]MetricSeries `json:"metrics"`
	Source  string                      `json:"source"` // "merged", single source tag, or "none"
}
