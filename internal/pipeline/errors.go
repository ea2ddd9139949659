package pipeline

import (
	"errors"

	"github.com/nao1215/anteater/internal/model"
)

var (
	// ErrFetchFailure indicates a transport error or a non-200 status.
	ErrFetchFailure = errors.New("fetch failure")

	// ErrParseFailure indicates content that could not be parsed.
	ErrParseFailure = errors.New("parse failure")

	// ErrLowQuality indicates a page with fewer tokens than the minimum.
	ErrLowQuality = errors.New("low quality page")

	// ErrDuplicateContent indicates a near-duplicate of an earlier page.
	ErrDuplicateContent = errors.New("duplicate content")
)

// Classify maps a step error to the page outcome it stands for.
// Errors outside the taxonomy are treated as parse failures.
func Classify(err error) model.Outcome {
	switch {
	case err == nil:
		return model.OutcomeAccepted
	case errors.Is(err, ErrFetchFailure):
		return model.OutcomeFetchFailure
	case errors.Is(err, ErrLowQuality):
		return model.OutcomeLowQuality
	case errors.Is(err, ErrDuplicateContent):
		return model.OutcomeDuplicate
	default:
		return model.OutcomeParseFailure
	}
}
