package service

import (
	"context"
	"sort"

	"github.com/hygieia/backend/internal/models"
)

// defaultSourcePriority is the fixed per-kind merge order: the first source
// holding a value for a date wins. Oura tracks sleep and heart rate more
// accurately; Apple Health has broader step and calorie coverage.
var defaultSourcePriority = map[models.MetricKind][]models.MetricSource{
	models.MetricSleep:     {models.SourceOura, models.SourceAppleHealth},
	models.MetricSteps:     {models.SourceAppleHealth, models.SourceOura},
	models.MetricHeartRate: {models.SourceOura, models.SourceAppleHealth},
	models.MetricCalories:  {models.SourceAppleHealth, models.SourceOura},
}

// dataUnifier implements DataUnifier with the fixed source-priority policy.
type dataUnifier struct {
	priority map[models.MetricKind][]models.MetricSource
}

// NewDataUnifier creates a unifier with the default source-priority table.
func NewDataUnifier() DataUnifier {
	return &dataUnifier{priority: defaultSourcePriority}
}

// Unify merges readings into one canonical per-day series per metric kind.
// The merge is deterministic and idempotent: identical inputs always yield
// an identical dataset. An empty dataset is a valid output; the only error
// is a malformed input (unparseable dates).
func (u *dataUnifier) Unify(ctx context.Context, userID string, readings []models.MetricReading) (models.UnifiedDataset, error) {
	// kind -> date -> source -> value
	byKind := make(map[models.MetricKind]map[string]map[models.MetricSource]float64)
	for _, rd := range readings {
		if _, err := models.ParseDay(rd.Date); err != nil {
			return models.UnifiedDataset{}, &models.MalformedSeriesError{
				Kind:   rd.Kind,
				Reason: "unparseable date " + rd.Date,
			}
		}
		if byKind[rd.Kind] == nil {
			byKind[rd.Kind] = make(map[string]map[models.MetricSource]float64)
		}
		if byKind[rd.Kind][rd.Date] == nil {
			byKind[rd.Kind][rd.Date] = make(map[models.MetricSource]float64)
		}
		// A repeated (kind, date, source) reading overwrites: last one wins.
		byKind[rd.Kind][rd.Date][rd.Source] = rd.Value
	}

	dataset := models.UnifiedDataset{
		UserID: userID,
		Series: make(map[models.MetricKind]models.MetricSeries, len(byKind)),
	}

	for kind, dates := range byKind {
		order := u.sourceOrder(kind, dates)

		points := make([]models.MetricPoint, 0, len(dates))
		for date, bySource := range dates {
			value, ok := resolve(bySource, order)
			if !ok {
				continue
			}
			points = append(points, models.MetricPoint{Date: date, Value: value})
		}
		sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })

		dataset.Series[kind] = models.MetricSeries{Kind: kind, Points: points}
	}

	return dataset, nil
}

// sourceOrder returns the priority order for a kind: the configured policy
// first, then any other observed sources in lexicographic order, so an
// unlisted source can still contribute and the merge stays deterministic.
func (u *dataUnifier) sourceOrder(kind models.MetricKind, dates map[string]map[models.MetricSource]float64) []models.MetricSource {
	order := append([]models.MetricSource(nil), u.priority[kind]...)
	ranked := make(map[models.MetricSource]bool, len(order))
	for _, src := range order {
		ranked[src] = true
	}

	var extra []models.MetricSource
	for _, bySource := range dates {
		for src := range bySource {
			if !ranked[src] {
				ranked[src] = true
				extra = append(extra, src)
			}
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(order, extra...)
}

func resolve(bySource map[models.MetricSource]float64, order []models.MetricSource) (float64, bool) {
	for _, src := range order {
		if v, ok := bySource[src]; ok {
			return v, true
		}
	}
	return 0, false
}

// PrimarySource reports which source tag describes a set of readings:
// a single source's tag, "merged" for several, or "none" for no data.
func PrimarySource(readings []models.MetricReading) string {
	seen := make(map[models.MetricSource]bool)
	for _, rd := range readings {
		seen[rd.Source] = true
	}
	switch len(seen) {
	case 0:
		return "none"
	case 1:
		for src := range seen {
			return string(src)
		}
	}
	return "merged"
}
