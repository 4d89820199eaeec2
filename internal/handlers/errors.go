package handlers

import (
	"errors"

	"github.com/hygieia/backend/internal/models"
)

// asMalformedSeries unwraps a MalformedSeriesError if err carries one.
func asMalformedSeries(err error) (*models.MalformedSeriesError, bool) {
	var target *models.MalformedSeriesError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
