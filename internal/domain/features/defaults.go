package features

import (
	"github.com/okian/prefight/internal/domain/rating"
	"github.com/okian/prefight/internal/domain/transitive"
)

// DefaultStages returns the full stage list in its canonical order. Nil
// engines fall back to their defaults.
func DefaultStages(elo *rating.Elo, glicko *rating.Glicko, detector *transitive.Detector) []Stage {
	return []Stage{
		ProfileStage{},
		ActivityStage{},
		RecordStage{},
		MethodStage{},
		StrikingStage(),
		GrapplingStage(),
		BoutStage(),
		NewEloStage(elo),
		NewGlickoStage(glicko),
		NewTransitiveStage(detector),
	}
}
