// Package predict holds the water-quality prediction used by uploads. The
// model is not part of this service yet; StaticPredictor stands in for it.
package predict

import "context"

// Predictor scores an uploaded payload.
type Predictor interface {
	Predict(ctx context.Context, payload []byte) (float64, error)
}

// StaticPredictor returns the same score for every payload.
type StaticPredictor struct {
	Score float64
}

// DefaultScore is the placeholder score returned by the stub model.
const DefaultScore = 0.75

func NewStaticPredictor() *StaticPredictor {
	return &StaticPredictor{Score: DefaultScore}
}

func (p *StaticPredictor) Predict(context.Context, []byte) (float64, error) {
	return p.Score, nil
}
