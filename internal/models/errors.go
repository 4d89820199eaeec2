package models

import (
	"errors"
	"fmt"
)

// InsufficientDataError reports that a component's minimum sample threshold
// was not met. Always non-fatal: callers degrade to an empty or neutral
// result instead of failing the request.
type InsufficientDataError struct {
	Component string
	Needed    int
	Got       int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: need at least %d data points, got %d", e.Component, e.Needed, e.Got)
}

// ModelNotTrainedError reports that a chat query needed a model that has not
// been trained yet. Surfaced to the caller as a ChatAnswer with confidence 0,
// never as a transport-level failure.
type ModelNotTrainedError struct {
	UserID string
	Target MetricKind
}

func (e *ModelNotTrainedError) Error() string {
	return fmt.Sprintf("no trained model for user %s target %s", e.UserID, e.Target)
}

// TrainingInProgressError reports a rejected concurrent retrain attempt.
// The caller may retry once the in-flight run finishes.
type TrainingInProgressError struct {
	UserID string
}

func (e *TrainingInProgressError) Error() string {
	return fmt.Sprintf("training already in progress for user %s", e.UserID)
}

// MalformedSeriesError reports a series that violates the ordering
// invariant (non-monotonic or duplicate dates). Fatal to the single
// operation that received it; shared state is never touched.
type MalformedSeriesError struct {
	Kind   MetricKind
	Reason string
}

func (e *MalformedSeriesError) Error() string {
	return fmt.Sprintf("malformed %s series: %s", e.Kind, e.Reason)
}

// IsInsufficientData reports whether err is an InsufficientDataError.
func IsInsufficientData(err error) bool {
	var target *InsufficientDataError
	return errors.As(err, &target)
}

// IsModelNotTrained reports whether err is a ModelNotTrainedError.
func IsModelNotTrained(err error) bool {
	var target *ModelNotTrainedError
	return errors.As(err, &target)
}

// IsTrainingInProgress reports whether err is a TrainingInProgressError.
func IsTrainingInProgress(err error) bool {
	var target *TrainingInProgressError
	return errors.As(err, &target)
}

// IsMalformedSeries reports whether err is a MalformedSeriesError.
func IsMalformedSeries(err error) bool {
	var target *MalformedSeriesError
	return errors.As(err, &target)
}
