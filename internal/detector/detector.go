package detector

import (
	"georem/internal/domain"
	"georem/internal/geo"
)

// Evaluate compares one location sample against a registry snapshot and
// returns a result per active fence: the fresh containment state, plus an
// ENTER or EXIT event when containment changed since the last processed
// sample. Inactive fences are skipped entirely.
//
// The caller must apply every result back to the registry against this same
// sample, event or not; skipping the containment write-back is what causes
// duplicate fires on the next sample.
func Evaluate(sample domain.LocationSample, records []domain.GeofenceRecord) []domain.EvaluationResult {
	results := make([]domain.EvaluationResult, 0, len(records))

	for _, rec := range records {
		if !rec.IsActive {
			continue
		}

		inside := geo.IsInside(sample, rec)
		res := domain.EvaluationResult{GeofenceID: rec.ID, Inside: inside}

		switch {
		case inside && !rec.WasInside:
			res.Event = &domain.TransitionEvent{
				GeofenceID: rec.ID,
				Type:       domain.TransitionEnter,
				OccurredAt: sample.Timestamp,
				Sample:     sample,
			}
		case !inside && rec.WasInside:
			res.Event = &domain.TransitionEvent{
				GeofenceID: rec.ID,
				Type:       domain.TransitionExit,
				OccurredAt: sample.Timestamp,
				Sample:     sample,
			}
		}

		results = append(results, res)
	}

	return results
}
