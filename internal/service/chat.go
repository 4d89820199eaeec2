package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/hygieia/backend/internal/config"
	"github.com/hygieia/backend/internal/logger"
	"github.com/hygieia/backend/internal/ml"
	"github.com/hygieia/backend/internal/models"
	"github.com/hygieia/backend/internal/repository"
)

// chatService answers free-text questions about a user's data. Questions
// route to an intent by keyword matching; answers come from a trained model
// when one exists, from simple statistics otherwise. Every path returns an
// answer with an honest confidence, never an error for "I don't know".
type chatService struct {
	readings  repository.ReadingRepository
	modelRepo repository.ModelRepository
	unifier   DataUnifier
	cfg       config.AnalysisConfig
	log       logger.Logger
}

// NewChatService creates the question-answering engine.
func NewChatService(readings repository.ReadingRepository, modelRepo repository.ModelRepository, unifier DataUnifier, cfg config.AnalysisConfig, log logger.Logger) ChatService {
	return &chatService{
		readings:  readings,
		modelRepo: modelRepo,
		unifier:   unifier,
		cfg:       cfg,
		log:       log,
	}
}

type chatIntent string

const (
	intentOptimal     chatIntent = "optimal"
	intentImpact      chatIntent = "impact"
	intentCorrelation chatIntent = "correlation"
	intentRestDay     chatIntent = "rest_day"
	intentGeneral     chatIntent = "general"
)

// Ask loads and unifies the user's data, classifies the question, and
// dispatches to the matching answer path.
func (s *chatService) Ask(ctx context.Context, userID, question string) (models.ChatAnswer, error) {
	raw, err := s.readings.GetReadings(ctx, userID)
	if err != nil {
		return models.ChatAnswer{}, fmt.Errorf("loading readings: %w", err)
	}
	dataset, err := s.unifier.Unify(ctx, userID, raw)
	if err != nil {
		return models.ChatAnswer{}, fmt.Errorf("unifying readings: %w", err)
	}

	q := strings.ToLower(question)
	intent := classifyIntent(q)
	subject := subjectKind(q)

	s.log.WithContext(ctx).Debug("chat question classified",
		logger.String("user_id", userID),
		logger.String("intent", string(intent)),
		logger.String("subject", string(subject)),
	)

	switch intent {
	case intentOptimal:
		return s.answerOptimal(ctx, dataset, subject)
	case intentImpact:
		return s.answerImpact(ctx, dataset, subject, q)
	case intentCorrelation:
		return s.answerCorrelation(dataset, subject)
	case intentRestDay:
		return s.answerRestDay(dataset)
	default:
		return s.answerGeneral(dataset)
	}
}

// classifyIntent routes a lowered question to an answer path. First match
// wins; the order puts the more specific intents ahead of the generic ones.
func classifyIntent(q string) chatIntent {
	switch {
	case containsAny(q, "optimal", "ideal", "best amount", "how much", "how many hours"):
		return intentOptimal
	case containsAny(q, "what if", "if i", "would happen", "predict", "impact"):
		return intentImpact
	case containsAny(q, "correlat", "relationship", "connect", "affect", "related"):
		return intentCorrelation
	case containsAny(q, "rest day", "rest today", "take a break", "recovery day", "should i rest"):
		return intentRestDay
	default:
		return intentGeneral
	}
}

// subjectKind picks the metric the question is about. Sleep is the default
// subject; it is what people ask about most and what the other metrics are
// usually conditioned on.
func subjectKind(q string) models.MetricKind {
	switch {
	case containsAny(q, "step", "walk", "activity", "active"):
		return models.MetricSteps
	case containsAny(q, "heart", "hrv", "pulse"):
		return models.MetricHeartRate
	case containsAny(q, "calorie", "energy", "burn"):
		return models.MetricCalories
	default:
		return models.MetricSleep
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// answerOptimal finds the driver value that optimizes a downstream target.
// With a trained model it sweeps the driver feature over its observed
// range; without one it falls back to the driver's mean on the user's best
// target days.
func (s *chatService) answerOptimal(ctx context.Context, dataset models.UnifiedDataset, subject models.MetricKind) (models.ChatAnswer, error) {
	target := optimizationTarget(subject)
	driver := subject
	if driver == target {
		// An output metric has no knob of its own; sleep is the input the
		// user can actually move. Conditioning the target on itself would
		// only echo its own best days back.
		driver = models.MetricSleep
	}

	answer, err := s.modelSweep(ctx, dataset, driver, target)
	if err == nil {
		return answer, nil
	}
	if !models.IsModelNotTrained(err) && !models.IsInsufficientData(err) {
		return models.ChatAnswer{}, err
	}

	// Statistical fallback: driver mean on the best target days. Best is
	// the top quartile, except heart rate where lower is better.
	driverByDate := dataset.Get(driver).ByDate()
	targetSeries := dataset.Get(target)
	if len(driverByDate) < s.cfg.MinSamplesForCorrelation || targetSeries.Len() < s.cfg.MinSamplesForCorrelation {
		return noEvidenceAnswer(), nil
	}
	cutPct := 75.0
	lowerIsBetter := target == models.MetricHeartRate
	if lowerIsBetter {
		cutPct = 25.0
	}
	cut, err := stats.Percentile(targetSeries.Values(), cutPct)
	if err != nil {
		return noEvidenceAnswer(), nil
	}
	var best []float64
	for _, p := range targetSeries.Points {
		onBestSide := p.Value >= cut
		if lowerIsBetter {
			onBestSide = p.Value <= cut
		}
		if onBestSide {
			if v, ok := driverByDate[p.Date]; ok {
				best = append(best, v)
			}
		}
	}
	if len(best) == 0 {
		return noEvidenceAnswer(), nil
	}
	optimum, err := stats.Mean(best)
	if err != nil {
		return noEvidenceAnswer(), nil
	}

	return models.ChatAnswer{
		Response: fmt.Sprintf("Based on your history, your best %s days follow about %s of %s. No trained model yet; train one for a sharper estimate.",
			kindLabel(target), formatKindValue(driver, optimum), kindLabel(driver)),
		Confidence: 0.4,
		ModelBased: false,
	}, nil
}

// answerImpact estimates the downstream effect of a hypothetical input
// value, parsed from the question when present.
func (s *chatService) answerImpact(ctx context.Context, dataset models.UnifiedDataset, subject models.MetricKind, q string) (models.ChatAnswer, error) {
	target := optimizationTarget(subject)

	model, reg, err := s.loadModel(ctx, dataset.UserID, target)
	if err != nil {
		if models.IsModelNotTrained(err) {
			return models.ChatAnswer{
				Response:   fmt.Sprintf("I can't run what-if scenarios on your %s yet. Train a model first and ask again.", kindLabel(target)),
				Confidence: 0,
				ModelBased: false,
			}, nil
		}
		return models.ChatAnswer{}, err
	}

	idx := featureIndex(model.Features, subject)
	if idx < 0 {
		return models.ChatAnswer{
			Response:   fmt.Sprintf("Your %s model was not trained with %s as an input, so I can't estimate that effect.", kindLabel(target), kindLabel(subject)),
			Confidence: 0,
			ModelBased: false,
		}, nil
	}

	value, ok := extractNumber(q)
	if !ok {
		value = model.Scaler.Means[idx] * 1.1 // no number in the question: probe a 10% bump
	}

	row := append([]float64(nil), model.Scaler.Means...)
	row[idx] = value
	predicted := reg.Predict(ml.TransformRow(row, model.Scaler))
	baseline := reg.Predict(ml.TransformRow(model.Scaler.Means, model.Scaler))

	delta := predicted - baseline
	direction := "raise"
	if delta < 0 {
		direction = "lower"
	}
	return models.ChatAnswer{
		Response: fmt.Sprintf("If your %s were %s, the model predicts your %s at %s, which would %s it by %s versus your typical day.",
			kindLabel(subject), formatKindValue(subject, value), kindLabel(target),
			formatKindValue(target, predicted), direction, formatKindValue(target, math.Abs(delta))),
		Confidence: clamp01(model.Score),
		ModelBased: true,
	}, nil
}

// answerCorrelation reports the strongest correlation involving the subject.
func (s *chatService) answerCorrelation(dataset models.UnifiedDataset, subject models.MetricKind) (models.ChatAnswer, error) {
	engine := newCorrelationEngine(s.cfg)
	insights := engine.ComputeInsights(dataset)

	for _, in := range insights {
		if in.KindA == subject || in.KindB == subject {
			return models.ChatAnswer{
				Response:   in.Description,
				Confidence: in.Confidence,
				ModelBased: false,
			}, nil
		}
	}
	return models.ChatAnswer{
		Response:   fmt.Sprintf("I don't see a reliable pattern involving your %s yet. More overlapping days of data will help.", kindLabel(subject)),
		Confidence: 0,
		ModelBased: false,
	}, nil
}

// answerRestDay checks recent strain markers: elevated resting heart rate
// or short recent sleep relative to the user's own baseline.
func (s *chatService) answerRestDay(dataset models.UnifiedDataset) (models.ChatAnswer, error) {
	reasons := []string{}

	hr := dataset.Get(models.MetricHeartRate).Values()
	if n := len(hr); n >= s.cfg.MinBaselineSamples {
		mean, err1 := stats.Mean(hr[:n-1])
		sd, err2 := stats.StandardDeviation(hr[:n-1])
		if err1 == nil && err2 == nil && sd > 0 && (hr[n-1]-mean)/sd > 1 {
			reasons = append(reasons, "your resting heart rate is running above baseline")
		}
	}
	sleep := dataset.Get(models.MetricSleep).Values()
	if n := len(sleep); n >= s.cfg.MinBaselineSamples {
		overall, err1 := stats.Mean(sleep)
		recent, err2 := stats.Mean(sleep[n-min(3, n):])
		if err1 == nil && err2 == nil && recent < overall-0.5 {
			reasons = append(reasons, "your recent sleep is short of your norm")
		}
	}

	if len(reasons) == 0 {
		if len(hr) == 0 && len(sleep) == 0 {
			return noEvidenceAnswer(), nil
		}
		return models.ChatAnswer{
			Response:   "Your recovery markers look normal; a regular training day should be fine.",
			Confidence: 0.6,
			ModelBased: false,
		}, nil
	}
	return models.ChatAnswer{
		Response:   fmt.Sprintf("A rest day looks sensible: %s.", strings.Join(reasons, ", and ")),
		Confidence: 0.7,
		ModelBased: false,
	}, nil
}

// answerGeneral summarizes what the data currently supports.
func (s *chatService) answerGeneral(dataset models.UnifiedDataset) (models.ChatAnswer, error) {
	if dataset.TotalPoints() == 0 {
		return noEvidenceAnswer(), nil
	}

	var parts []string
	for _, kind := range dataset.Kinds() {
		values := dataset.Get(kind).Values()
		if len(values) == 0 {
			continue
		}
		mean, err := stats.Mean(values)
		if err != nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s averages %s over %d days", kindLabel(kind), formatKindValue(kind, mean), len(values)))
	}
	if len(parts) == 0 {
		return noEvidenceAnswer(), nil
	}
	return models.ChatAnswer{
		Response:   fmt.Sprintf("Here's where you stand: %s. Ask about optimal sleep, what-if scenarios, or correlations for more.", strings.Join(parts, "; ")),
		Confidence: 0.5,
		ModelBased: false,
	}, nil
}

// modelSweep evaluates a trained target model over the subject feature's
// observed range, holding other features at their training means, and
// returns the best input value. Heart rate targets are minimized; everything
// else is maximized.
func (s *chatService) modelSweep(ctx context.Context, dataset models.UnifiedDataset, subject, target models.MetricKind) (models.ChatAnswer, error) {
	model, reg, err := s.loadModel(ctx, dataset.UserID, target)
	if err != nil {
		return models.ChatAnswer{}, err
	}

	idx := featureIndex(model.Features, subject)
	if idx < 0 {
		return models.ChatAnswer{}, &models.ModelNotTrainedError{UserID: dataset.UserID, Target: target}
	}

	observed := dataset.Get(subject).Values()
	if len(observed) < 2 {
		return models.ChatAnswer{}, &models.InsufficientDataError{Component: "chat sweep", Needed: 2, Got: len(observed)}
	}
	lo, hi := minMax(observed)
	if lo == hi {
		return models.ChatAnswer{}, &models.InsufficientDataError{Component: "chat sweep", Needed: 2, Got: 1}
	}

	const steps = 40
	minimize := target == models.MetricHeartRate
	bestInput, bestOutput := lo, math.Inf(1)
	if !minimize {
		bestOutput = math.Inf(-1)
	}
	for i := 0; i <= steps; i++ {
		candidate := lo + (hi-lo)*float64(i)/steps
		row := append([]float64(nil), model.Scaler.Means...)
		row[idx] = candidate
		out := reg.Predict(ml.TransformRow(row, model.Scaler))
		if (minimize && out < bestOutput) || (!minimize && out > bestOutput) {
			bestInput, bestOutput = candidate, out
		}
	}

	goal := "maximize"
	if minimize {
		goal = "minimize"
	}
	return models.ChatAnswer{
		Response: fmt.Sprintf("Your trained model says %s of %s should %s your %s (predicted %s).",
			formatKindValue(subject, bestInput), kindLabel(subject), goal, kindLabel(target), formatKindValue(target, bestOutput)),
		Confidence: clamp01(model.Score),
		ModelBased: true,
	}, nil
}

// loadModel fetches and deserializes a user's model for a target kind.
func (s *chatService) loadModel(ctx context.Context, userID string, target models.MetricKind) (*models.TrainedModel, ml.Regressor, error) {
	model, err := s.modelRepo.Load(ctx, userID, target)
	if err != nil {
		return nil, nil, fmt.Errorf("loading model: %w", err)
	}
	if model == nil {
		return nil, nil, &models.ModelNotTrainedError{UserID: userID, Target: target}
	}
	reg, err := ml.Unmarshal(model.ModelType, model.Params)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding model: %w", err)
	}
	return model, reg, nil
}

// optimizationTarget maps a question's subject to the metric the user is
// really trying to move. Asking about sleep means optimizing activity;
// asking about an output metric means conditioning it on sleep.
func optimizationTarget(subject models.MetricKind) models.MetricKind {
	if subject == models.MetricSleep {
		return models.MetricSteps
	}
	return subject
}

func featureIndex(features []models.MetricKind, kind models.MetricKind) int {
	for i, f := range features {
		if f == kind {
			return i
		}
	}
	return -1
}

// extractNumber pulls the first numeric token out of a question.
func extractNumber(q string) (float64, bool) {
	var buf strings.Builder
	for _, r := range q {
		if (r >= '0' && r <= '9') || r == '.' {
			buf.WriteRune(r)
		} else if buf.Len() > 0 {
			break
		}
	}
	if buf.Len() == 0 {
		return 0, false
	}
	var v float64
	if _, err := fmt.Sscanf(buf.String(), "%f", &v); err != nil {
		return 0, false
	}
	return v, true
}

func formatKindValue(kind models.MetricKind, v float64) string {
	switch kind {
	case models.MetricSleep:
		return fmt.Sprintf("%.1f hours", v)
	case models.MetricSteps:
		return fmt.Sprintf("%.0f steps", v)
	case models.MetricHeartRate:
		return fmt.Sprintf("%.0f bpm", v)
	case models.MetricCalories:
		return fmt.Sprintf("%.0f kcal", v)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}

// noEvidenceAnswer is the honest zero-confidence reply when neither a model
// nor enough statistics exist.
func noEvidenceAnswer() models.ChatAnswer {
	return models.ChatAnswer{
		Response:   "I don't have enough of your data to answer that yet. Log a couple of weeks of metrics and train a model, then ask again.",
		Confidence: 0,
		ModelBased: false,
	}
}

func minMax(v []float64) (lo, hi float64) {
	lo, hi = v[0], v[0]
	for _, x := range v[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}
