package service

import (
	"context"
	"strings"
	"testing"

	"github.com/hygieia/backend/internal/ml"
	"github.com/hygieia/backend/internal/models"
)

func newChatFixture() (*mockReadingRepo, *mockModelRepo, ChatService) {
	readings := newMockReadingRepo()
	modelRepo := newMockModelRepo()
	chat := NewChatService(readings, modelRepo, NewDataUnifier(), testAnalysisConfig(), testLogger())
	return readings, modelRepo, chat
}

func seedReadings(t *testing.T, repo *mockReadingRepo, kind models.MetricKind, source models.MetricSource, values []float64) {
	t.Helper()
	readings := make([]models.MetricReading, len(values))
	for i, v := range values {
		readings[i] = models.MetricReading{Date: day(i), Kind: kind, Value: v, Source: source}
	}
	if err := repo.SaveReadings(context.Background(), "user-1", readings); err != nil {
		t.Fatalf("seeding readings failed: %v", err)
	}
}

// seedStepsModel stores a linear model predicting steps from sleep with a
// positive coefficient, so more sleep always means more steps.
func seedStepsModel(t *testing.T, repo *mockModelRepo, score float64) {
	t.Helper()
	reg := &ml.LinearModel{Intercept: 9000, Coef: []float64{1500}}
	params, err := ml.Marshal(reg)
	if err != nil {
		t.Fatalf("marshal model: %v", err)
	}
	model := &models.TrainedModel{
		UserID:    "user-1",
		Target:    models.MetricSteps,
		ModelType: models.ModelLinear,
		Features:  []models.MetricKind{models.MetricSleep},
		Params:    params,
		Scaler: models.ScalerParams{
			Means:   []float64{7},
			Stddevs: []float64{1},
		},
		Score:        score,
		TrainingRows: 20,
	}
	if err := repo.Save(context.Background(), model); err != nil {
		t.Fatalf("saving model: %v", err)
	}
}

func TestAskNoDataNoModel(t *testing.T) {
	_, _, chat := newChatFixture()

	answer, err := chat.Ask(context.Background(), "user-1", "What is my optimal sleep?")
	if err != nil {
		t.Fatalf("Ask must not error when evidence is missing: %v", err)
	}
	if answer.Confidence != 0 {
		t.Errorf("Expected confidence 0 with no data and no model, got %f", answer.Confidence)
	}
	if answer.ModelBased {
		t.Error("Expected ModelBased=false")
	}
	if answer.Response == "" {
		t.Error("Expected an explanatory response, not an empty string")
	}
}

func TestAskOptimalWithModel(t *testing.T) {
	readings, modelRepo, chat := newChatFixture()

	seedReadings(t, readings, models.MetricSleep, models.SourceOura,
		[]float64{6.0, 6.5, 7.0, 7.5, 8.0, 8.5, 9.0})
	seedStepsModel(t, modelRepo, 0.85)

	answer, err := chat.Ask(context.Background(), "user-1", "How much sleep is optimal for me?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !answer.ModelBased {
		t.Fatal("Expected a model-based answer")
	}
	if answer.Confidence != 0.85 {
		t.Errorf("Expected confidence to mirror the validation score, got %f", answer.Confidence)
	}
	// The coefficient is positive, so the sweep lands on the largest
	// observed sleep value.
	if !strings.Contains(answer.Response, "9.0 hours") {
		t.Errorf("Expected the sweep to pick 9.0 hours, got %q", answer.Response)
	}
}

func TestAskOptimalStatisticalFallback(t *testing.T) {
	readings, _, chat := newChatFixture()

	seedReadings(t, readings, models.MetricSleep, models.SourceOura,
		[]float64{6.0, 6.5, 8.0, 7.0, 8.2, 6.2, 8.1})
	seedReadings(t, readings, models.MetricSteps, models.SourceAppleHealth,
		[]float64{7000, 7500, 12000, 8000, 12500, 7200, 12200})

	answer, err := chat.Ask(context.Background(), "user-1", "What is my optimal sleep?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer.ModelBased {
		t.Error("Expected a statistical fallback without a trained model")
	}
	if answer.Confidence <= 0 || answer.Confidence >= 0.85 {
		t.Errorf("Expected modest fallback confidence, got %f", answer.Confidence)
	}
	// The top-quartile step days are the 8-hour nights.
	if !strings.Contains(answer.Response, "hours of sleep") {
		t.Errorf("Expected the high-activity sleep average, got %q", answer.Response)
	}
	if !strings.Contains(answer.Response, "best activity days") {
		t.Errorf("Expected the fallback phrasing, got %q", answer.Response)
	}
}

func TestAskOptimalActivityConditionsOnSleep(t *testing.T) {
	readings, _, chat := newChatFixture()

	seedReadings(t, readings, models.MetricSleep, models.SourceOura,
		[]float64{6.0, 6.5, 8.0, 7.0, 8.2, 6.2, 8.1})
	seedReadings(t, readings, models.MetricSteps, models.SourceAppleHealth,
		[]float64{7000, 7500, 12000, 8000, 12500, 7200, 12200})

	answer, err := chat.Ask(context.Background(), "user-1", "What is my optimal activity?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	// Asking about an output metric must condition it on sleep, not on its
	// own top-quartile days.
	if !strings.Contains(answer.Response, "of sleep") {
		t.Errorf("Expected the answer to condition activity on sleep, got %q", answer.Response)
	}
	if strings.Contains(answer.Response, "of activity") {
		t.Errorf("Expected no circular self-conditioning, got %q", answer.Response)
	}
}

func TestAskWhatIfWithModel(t *testing.T) {
	readings, modelRepo, chat := newChatFixture()

	seedReadings(t, readings, models.MetricSleep, models.SourceOura,
		[]float64{6.0, 6.5, 7.0, 7.5, 8.0, 8.5, 9.0})
	seedStepsModel(t, modelRepo, 0.8)

	answer, err := chat.Ask(context.Background(), "user-1", "What if I sleep 8 hours?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !answer.ModelBased {
		t.Fatal("Expected a model-based what-if answer")
	}
	// (8-7)/1 * 1500 + 9000 = 10500 predicted steps.
	if !strings.Contains(answer.Response, "10500 steps") {
		t.Errorf("Expected the predicted step count, got %q", answer.Response)
	}
	if !strings.Contains(answer.Response, "raise") {
		t.Errorf("Expected the positive direction, got %q", answer.Response)
	}
}

func TestAskWhatIfWithoutModel(t *testing.T) {
	readings, _, chat := newChatFixture()
	seedReadings(t, readings, models.MetricSleep, models.SourceOura, []float64{7, 7.5, 8})

	answer, err := chat.Ask(context.Background(), "user-1", "What if I sleep 9 hours?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer.Confidence != 0 {
		t.Errorf("Expected confidence 0 without a model, got %f", answer.Confidence)
	}
	if !strings.Contains(answer.Response, "Train a model") {
		t.Errorf("Expected a train-first hint, got %q", answer.Response)
	}
}

func TestAskCorrelation(t *testing.T) {
	readings, _, chat := newChatFixture()

	seedReadings(t, readings, models.MetricSleep, models.SourceOura,
		[]float64{7, 7, 8, 6, 5, 5, 9})
	seedReadings(t, readings, models.MetricSteps, models.SourceAppleHealth,
		[]float64{9000, 9100, 11000, 7500, 6000, 6200, 12000})

	answer, err := chat.Ask(context.Background(), "user-1", "How does my sleep affect my activity?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer.Confidence <= 0 {
		t.Errorf("Expected positive confidence for a real correlation, got %f", answer.Confidence)
	}
	if !strings.Contains(answer.Response, "correlated") {
		t.Errorf("Expected a correlation description, got %q", answer.Response)
	}
}

func TestAskRestDayWithElevatedHeartRate(t *testing.T) {
	readings, _, chat := newChatFixture()

	seedReadings(t, readings, models.MetricHeartRate, models.SourceOura,
		[]float64{60, 61, 59, 60, 61, 59, 60, 61, 70})

	answer, err := chat.Ask(context.Background(), "user-1", "Should I rest today?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !strings.Contains(answer.Response, "rest day") {
		t.Errorf("Expected a rest day suggestion, got %q", answer.Response)
	}
	if !strings.Contains(answer.Response, "heart rate") {
		t.Errorf("Expected the heart rate reason, got %q", answer.Response)
	}
}

func TestAskGeneralSummary(t *testing.T) {
	readings, _, chat := newChatFixture()
	seedReadings(t, readings, models.MetricSleep, models.SourceOura, []float64{7, 7.5, 8})

	answer, err := chat.Ask(context.Background(), "user-1", "Tell me about my health")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !strings.Contains(answer.Response, "sleep averages") {
		t.Errorf("Expected a per-metric summary, got %q", answer.Response)
	}
}
