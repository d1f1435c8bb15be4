package features

import (
	"github.com/okian/prefight/internal/domain/entity"
	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/internal/domain/transitive"
	"github.com/okian/prefight/internal/domain/types"
)

// TransitiveStage emits the common-opponent flag.
type TransitiveStage struct {
	Detector *transitive.Detector
}

// NewTransitiveStage wraps a detector; nil means the single-match default.
func NewTransitiveStage(d *transitive.Detector) *TransitiveStage {
	if d == nil {
		d = transitive.New()
	}
	return &TransitiveStage{Detector: d}
}

func (s *TransitiveStage) Name() string       { return "transitive" }
func (s *TransitiveStage) Category() Category { return CategoryRecord }
func (s *TransitiveStage) Columns() []string  { return []string{"transitive_win"} }

func (s *TransitiveStage) Snapshot(_ *model.MatchRecord, a, b *entity.State, dstA, dstB []types.Value) {
	fa, fb := s.Detector.Flags(a, b)
	dstA[0] = count(fa)
	dstB[0] = count(fb)
}

func (s *TransitiveStage) Update(rec *model.MatchRecord, a, b *entity.State) {
	s.Detector.Record(rec, a, b)
}
