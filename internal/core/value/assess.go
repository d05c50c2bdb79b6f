package value

import (
	"math"

	"github.com/charleschow/lol-valuebets/internal/core/odds"
)

// AssessEmpirical evaluates a market side against the historical estimate
// alone. Below cfg.MinSamples it refuses with ok=false.
func AssessEmpirical(m MarketQuote, est Empirical, cfg Config) (ValueBet, bool, error) {
	if m.Price <= 1.0 || math.IsNaN(m.Price) {
		return ValueBet{}, false, ErrInvalidMarket
	}
	if est.Samples < cfg.MinSamples {
		return ValueBet{}, false, nil
	}
	if !validProb(est.Prob) {
		return ValueBet{}, false, ErrInvalidProbability
	}

	vb := newValueBet(m, est)
	if vb.EV <= cfg.EVThreshold {
		return vb, false, nil
	}
	vb.Method = MethodEmpirical
	return vb, true, nil
}

// AssessModel decides whether a market side is attributed to the model.
// It recomputes the empirical decision itself and requires the model's
// favored side to be m.Side with probability >= cfg.ModelConfidence.
// A nil prediction yields ok=false.
func AssessModel(m MarketQuote, est Empirical, pred *Prediction, cfg Config) (ValueBet, bool, error) {
	vb, ok, err := AssessEmpirical(m, est, cfg)
	if err != nil || !ok {
		return vb, false, err
	}
	if pred == nil {
		return vb, false, nil
	}

	p, has := pred.Probs[m.Side]
	if !has {
		return vb, false, nil
	}
	if !validProb(p) {
		return vb, false, ErrInvalidProbability
	}
	vb.ModelProb = &p

	favored, _ := pred.Favored()
	if favored != m.Side || p < cfg.ModelConfidence {
		return vb, false, nil
	}
	vb.Method = MethodModel
	return vb, true, nil
}

// Assess combines both methods: model attribution when the two converge,
// otherwise the empirical decision. Model disagreement never discards an
// empirical value bet.
func Assess(m MarketQuote, est Empirical, pred *Prediction, cfg Config) (ValueBet, bool, error) {
	if vb, ok, err := AssessModel(m, est, pred, cfg); err == nil && ok {
		return vb, true, nil
	}
	vb, ok, err := AssessEmpirical(m, est, cfg)
	if err != nil || !ok {
		return vb, ok, err
	}
	if pred != nil {
		if p, has := pred.Probs[m.Side]; has && validProb(p) {
			vb.ModelProb = &p
		}
	}
	return vb, true, nil
}

func newValueBet(m MarketQuote, est Empirical) ValueBet {
	ev := odds.EV(est.Prob, m.Price)
	vb := ValueBet{
		Kind:          m.Kind,
		Stat:          m.Stat,
		Line:          m.Line,
		Side:          m.Side,
		Price:         m.Price,
		EmpiricalProb: est.Prob,
		ImpliedProb:   odds.Implied(m.Price),
		EV:            ev,
		Edge:          ev * 100,
		Samples:       est.Samples,
		HistMean:      est.Mean,
		HistStd:       est.Std,
	}
	if m.OppositePrice > 1.0 {
		vb.FairProb, _ = odds.RemoveVig2(m.Price, m.OppositePrice)
	}
	return vb
}

func validProb(p float64) bool {
	return p > 0 && p < 1 && !math.IsNaN(p)
}
