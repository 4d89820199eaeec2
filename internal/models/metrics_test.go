package models

import "testing"

func TestSeriesValidate(t *testing.T) {
	tests := []struct {
		name    string
		points  []MetricPoint
		wantErr bool
	}{
		{
			name:    "empty series is valid",
			points:  nil,
			wantErr: false,
		},
		{
			name: "increasing dates",
			points: []MetricPoint{
				{Date: "2025-01-01", Value: 7},
				{Date: "2025-01-02", Value: 8},
				{Date: "2025-01-05", Value: 6}, // gaps are fine
			},
			wantErr: false,
		},
		{
			name: "duplicate date",
			points: []MetricPoint{
				{Date: "2025-01-01", Value: 7},
				{Date: "2025-01-01", Value: 8},
			},
			wantErr: true,
		},
		{
			name: "decreasing date",
			points: []MetricPoint{
				{Date: "2025-01-02", Value: 7},
				{Date: "2025-01-01", Value: 8},
			},
			wantErr: true,
		},
		{
			name: "unparseable date",
			points: []MetricPoint{
				{Date: "January 1", Value: 7},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := MetricSeries{Kind: MetricSleep, Points: tt.points}
			err := s.Validate()
			if tt.wantErr && !IsMalformedSeries(err) {
				t.Errorf("Expected MalformedSeriesError, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected valid series, got %v", err)
			}
		})
	}
}

func TestNextDay(t *testing.T) {
	if got := NextDay("2025-01-31"); got != "2025-02-01" {
		t.Errorf("Expected month rollover, got %q", got)
	}
	if got := NextDay("2024-12-31"); got != "2025-01-01" {
		t.Errorf("Expected year rollover, got %q", got)
	}
	if got := NextDay("not-a-date"); got != "" {
		t.Errorf("Expected empty string for a bad date, got %q", got)
	}
}

func TestDatasetKindsSorted(t *testing.T) {
	d := UnifiedDataset{
		Series: map[MetricKind]MetricSeries{
			MetricSteps:     {Kind: MetricSteps},
			MetricCalories:  {Kind: MetricCalories},
			MetricSleep:     {Kind: MetricSleep},
			MetricHeartRate: {Kind: MetricHeartRate},
		},
	}

	kinds := d.Kinds()
	want := []MetricKind{MetricCalories, MetricHeartRate, MetricSleep, MetricSteps}
	for i, k := range want {
		if kinds[i] != k {
			t.Fatalf("Expected sorted kinds %v, got %v", want, kinds)
		}
	}
}

func TestDatasetGetAbsentKind(t *testing.T) {
	d := UnifiedDataset{Series: map[MetricKind]MetricSeries{}}
	s := d.Get(MetricSleep)
	if s.Kind != MetricSleep || s.Len() != 0 {
		t.Errorf("Expected an empty typed series, got %+v", s)
	}
}

func TestErrorPredicates(t *testing.T) {
	if !IsInsufficientData(&InsufficientDataError{Component: "corr", Needed: 5, Got: 2}) {
		t.Error("IsInsufficientData failed to match")
	}
	if !IsModelNotTrained(&ModelNotTrainedError{UserID: "u", Target: MetricSteps}) {
		t.Error("IsModelNotTrained failed to match")
	}
	if !IsTrainingInProgress(&TrainingInProgressError{UserID: "u"}) {
		t.Error("IsTrainingInProgress failed to match")
	}
	if IsMalformedSeries(&TrainingInProgressError{UserID: "u"}) {
		t.Error("IsMalformedSeries matched the wrong type")
	}
}
