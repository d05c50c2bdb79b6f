package value

import (
	"context"
	"math"
)

// LineAdjust shifts a model's P(over league mean) to an arbitrary line.
type LineAdjust struct {
	SigmoidK float64
	Strength float64
}

func DefaultLineAdjust() LineAdjust {
	return LineAdjust{SigmoidK: 0.5, Strength: 0.3}
}

// AdjustToLine converts P(stat > leagueMean) into P(stat > line). Lines above
// the mean pull the probability down, lines below push it up. The result is
// clipped to [0.001, 0.999].
func (a LineAdjust) AdjustToLine(probOverMean, line, leagueMean, leagueStd float64) float64 {
	if leagueStd <= 0 {
		return clip(probOverMean)
	}
	z := (line - leagueMean) / leagueStd
	adj := 1.0 / (1.0 + math.Exp(-z*a.SigmoidK))

	var p float64
	if z > 0 {
		p = probOverMean * (1.0 - adj*a.Strength)
	} else {
		p = probOverMean + (1.0-probOverMean)*adj*a.Strength
	}
	return clip(p)
}

// TotalPrediction builds an over/under prediction at line.
func (a LineAdjust) TotalPrediction(probOverMean, line, leagueMean, leagueStd float64) *Prediction {
	over := a.AdjustToLine(probOverMean, line, leagueMean, leagueStd)
	return &Prediction{Probs: map[string]float64{SideOver: over, SideUnder: 1 - over}}
}

func clip(p float64) float64 {
	return math.Min(0.999, math.Max(0.001, p))
}

// PredictRequest asks the model about one total market of a drafted map.
type PredictRequest struct {
	League     string
	Team1      [5]string
	Team2      [5]string
	Stat       string
	Line       float64
	LeagueMean float64
	LeagueStd  float64
}

// Predictor is the external inference model. It returns ErrModelUnavailable
// when it cannot answer, e.g. the draft is incomplete.
type Predictor interface {
	Predict(ctx context.Context, req PredictRequest) (*Prediction, error)
}

// Complete reports whether all ten picks are present.
func (r PredictRequest) Complete() bool {
	for i := range 5 {
		if r.Team1[i] == "" || r.Team2[i] == "" {
			return false
		}
	}
	return true
}
