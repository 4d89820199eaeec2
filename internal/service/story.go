package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/hygieia/backend/internal/models"
)

// storyService chains analysis output into a short narrative.
//
// The "causal chain" here is a heuristic: insights are joined to the anchor
// warning by shared metric kind, not by any causal inference. It reads like
// a story, not a proof, and must stay labeled that way.
type storyService struct{}

// NewStoryService creates the narrative generator.
func NewStoryService() StoryService {
	return &storyService{}
}

const fallbackAction = "Keep logging your metrics; more data sharpens every insight"

// BuildStory anchors the narrative on the highest-severity warning and the
// top-ranked insight, then chains in every insight sharing a metric kind
// with the warning. With no warning and no insight it returns a neutral
// "insufficient data" story rather than fabricating connections.
func (s *storyService) BuildStory(ctx context.Context, dataset models.UnifiedDataset, analysis *models.AnalysisResult) models.HealthStory {
	if analysis == nil || (len(analysis.Warnings) == 0 && len(analysis.Insights) == 0) {
		return models.HealthStory{
			Title:          storyTitle(dataset),
			Narrative:      "There isn't enough data yet to connect your metrics into a story. Keep logging sleep, activity and heart rate for a week or two.",
			KeyConnections: []string{},
			ActionPriority: fallbackAction,
		}
	}

	// Warnings and insights arrive pre-ranked from the analysis pass.
	var anchor *models.Warning
	if len(analysis.Warnings) > 0 {
		anchor = &analysis.Warnings[0]
	}
	var topInsight *models.Insight
	if len(analysis.Insights) > 0 {
		topInsight = &analysis.Insights[0]
	}

	chained := chainInsights(anchor, analysis.Insights)

	var b strings.Builder
	if anchor != nil {
		b.WriteString(fmt.Sprintf("%s. ", anchor.Message))
	}
	if topInsight != nil {
		b.WriteString(fmt.Sprintf("%s. ", topInsight.Description))
	}
	for _, in := range chained {
		if topInsight != nil && in.ID == topInsight.ID {
			continue
		}
		b.WriteString(fmt.Sprintf("This connects to another pattern: %s. ", lowerFirst(in.Description)))
	}
	b.WriteString(closingLine(dataset, anchor))

	connections := make([]string, 0, len(chained))
	for _, in := range chained {
		connections = append(connections, summarizeInsight(in))
	}
	if len(connections) == 0 && topInsight != nil {
		connections = append(connections, summarizeInsight(*topInsight))
	}

	action := fallbackAction
	var best *models.Recommendation
	for i := range analysis.Recommendations {
		if best == nil || analysis.Recommendations[i].Priority.Above(best.Priority) {
			best = &analysis.Recommendations[i]
		}
	}
	if best != nil {
		action = best.Action
	}

	return models.HealthStory{
		Title:          storyTitle(dataset),
		Narrative:      b.String(),
		KeyConnections: connections,
		ActionPriority: action,
	}
}

// storyTitle names the window the narrative covers, taken from the
// dataset's actual date span rather than a fixed week.
func storyTitle(dataset models.UnifiedDataset) string {
	var first, last string
	for _, kind := range dataset.Kinds() {
		for _, p := range dataset.Get(kind).Points {
			if first == "" || p.Date < first {
				first = p.Date
			}
			if p.Date > last {
				last = p.Date
			}
		}
	}
	if first == "" {
		return "Your Health Story"
	}
	start, err1 := models.ParseDay(first)
	end, err2 := models.ParseDay(last)
	if err1 != nil || err2 != nil {
		return "Your Health Story"
	}
	days := int(end.Sub(start).Hours()/24) + 1
	return fmt.Sprintf("Your Health Story - Last %d Days", days)
}

// chainInsights returns the insights sharing a metric kind with the anchor
// warning, in rank order. Shared-kind join only.
func chainInsights(anchor *models.Warning, insights []models.Insight) []models.Insight {
	if anchor == nil {
		return nil
	}
	var chained []models.Insight
	for _, in := range insights {
		if in.KindA == anchor.Kind || in.KindB == anchor.Kind {
			chained = append(chained, in)
		}
	}
	return chained
}

func summarizeInsight(in models.Insight) string {
	connector := "moves with"
	if in.Correlation < 0 {
		connector = "moves against"
	}
	if in.LagDays > 0 {
		return fmt.Sprintf("%s %s next-day %s (r=%.2f)", capitalize(kindLabel(in.KindA)), connector, kindLabel(in.KindB), in.Correlation)
	}
	return fmt.Sprintf("%s %s %s (r=%.2f)", capitalize(kindLabel(in.KindA)), connector, kindLabel(in.KindB), in.Correlation)
}

// closingLine adds one grounded weekly observation when the data supports
// it, otherwise a generic close.
func closingLine(dataset models.UnifiedDataset, anchor *models.Warning) string {
	sleep := dataset.Get(models.MetricSleep)
	if pattern, ok := weekendPattern(sleep); ok && pattern.difference > 1.0 {
		return fmt.Sprintf("Weekend sleep (%.1fh) outruns weekdays (%.1fh), a debt-recovery cycle that steadier weekday bedtimes would break.",
			pattern.weekendAvg, pattern.weekdayAvg)
	}
	if anchor != nil {
		return "Addressing this early usually stops the pattern from spreading to your other metrics."
	}
	return "Your metrics look connected; the strongest lever is the one above."
}

type sleepPattern struct {
	weekdayAvg float64
	weekendAvg float64
	difference float64
}

// weekendPattern splits a sleep series into weekday and weekend averages.
func weekendPattern(series models.MetricSeries) (sleepPattern, bool) {
	var weekday, weekend []float64
	for _, p := range series.Points {
		t, err := models.ParseDay(p.Date)
		if err != nil {
			continue
		}
		switch t.Weekday() {
		case 0, 6: // Sunday, Saturday
			weekend = append(weekend, p.Value)
		default:
			weekday = append(weekday, p.Value)
		}
	}
	if len(weekday) == 0 || len(weekend) == 0 {
		return sleepPattern{}, false
	}
	weekdayAvg, err1 := stats.Mean(weekday)
	weekendAvg, err2 := stats.Mean(weekend)
	if err1 != nil || err2 != nil {
		return sleepPattern{}, false
	}
	return sleepPattern{
		weekdayAvg: weekdayAvg,
		weekendAvg: weekendAvg,
		difference: weekendAvg - weekdayAvg,
	}, true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
