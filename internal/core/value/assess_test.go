package value

import (
	"errors"
	"math"
	"testing"
)

func line(v float64) *float64 { return &v }

func over(price float64) MarketQuote {
	return MarketQuote{Kind: KindTotal, Stat: "total_kills", Line: line(26.5), Side: SideOver, Price: price}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAssessEmpirical(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name    string
		market  MarketQuote
		est     Empirical
		wantOK  bool
		wantEV  float64
		wantErr error
	}{
		{"value", over(2.0), Empirical{Prob: 0.60, Samples: 12}, true, 0.20, nil},
		{"below threshold", over(2.0), Empirical{Prob: 0.52, Samples: 12}, false, 0.04, nil},
		{"just above threshold", over(2.11), Empirical{Prob: 0.50, Samples: 12}, true, 0.055, nil},
		{"negative ev", over(1.5), Empirical{Prob: 0.55, Samples: 12}, false, -0.175, nil},
		{"price of one", over(1.0), Empirical{Prob: 0.9, Samples: 12}, false, 0, ErrInvalidMarket},
		{"price below one", over(0.5), Empirical{Prob: 0.9, Samples: 12}, false, 0, ErrInvalidMarket},
		{"zero probability", over(2.0), Empirical{Prob: 0, Samples: 12}, false, 0, ErrInvalidProbability},
		{"certain probability", over(2.0), Empirical{Prob: 1, Samples: 12}, false, 0, ErrInvalidProbability},
		{"out of range probability", over(2.0), Empirical{Prob: 1.2, Samples: 12}, false, 0, ErrInvalidProbability},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vb, ok, err := AssessEmpirical(tt.market, tt.est, cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if err == nil && !near(vb.EV, tt.wantEV) {
				t.Errorf("EV = %v, want %v", vb.EV, tt.wantEV)
			}
			if ok && vb.Method != MethodEmpirical {
				t.Errorf("method = %s", vb.Method)
			}
		})
	}
}

func TestAssessEmpiricalSampleFloor(t *testing.T) {
	cfg := DefaultConfig()
	// Huge EV but only four maps of history: refused.
	for _, samples := range []int{0, 1, 4} {
		_, ok, err := AssessEmpirical(over(5.0), Empirical{Prob: 0.9, Samples: samples}, cfg)
		if ok || err != nil {
			t.Errorf("samples=%d: ok=%v err=%v, want refused", samples, ok, err)
		}
	}
	// Below the floor even a degenerate probability is NoValue rather than an error.
	if _, ok, err := AssessEmpirical(over(2.0), Empirical{Prob: 1, Samples: 3}, cfg); ok || err != nil {
		t.Errorf("ok=%v err=%v, want refused", ok, err)
	}
	if _, ok, _ := AssessEmpirical(over(5.0), Empirical{Prob: 0.9, Samples: 5}, cfg); !ok {
		t.Error("samples at the floor should be evaluated")
	}
}

func TestAssessModelConvergence(t *testing.T) {
	cfg := DefaultConfig()
	est := Empirical{Prob: 0.60, Samples: 20}
	m := over(2.0)

	tests := []struct {
		name       string
		pred       *Prediction
		wantModel  bool
		wantMethod Method
	}{
		{"model agrees above threshold", &Prediction{Probs: map[string]float64{SideOver: 0.70, SideUnder: 0.30}}, true, MethodModel},
		{"model at threshold", &Prediction{Probs: map[string]float64{SideOver: 0.65, SideUnder: 0.35}}, true, MethodModel},
		{"model agrees below threshold", &Prediction{Probs: map[string]float64{SideOver: 0.60, SideUnder: 0.40}}, false, MethodEmpirical},
		{"model favors opposite side", &Prediction{Probs: map[string]float64{SideOver: 0.30, SideUnder: 0.70}}, false, MethodEmpirical},
		{"model unavailable", nil, false, MethodEmpirical},
		{"prediction lacks side", &Prediction{Probs: map[string]float64{"T1": 0.8}}, false, MethodEmpirical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := AssessModel(m, est, tt.pred, cfg)
			if err != nil {
				t.Fatalf("AssessModel err: %v", err)
			}
			if ok != tt.wantModel {
				t.Errorf("AssessModel ok = %v, want %v", ok, tt.wantModel)
			}

			vb, ok, err := Assess(m, est, tt.pred, cfg)
			if err != nil || !ok {
				t.Fatalf("Assess ok=%v err=%v; empirical value must never be discarded", ok, err)
			}
			if vb.Method != tt.wantMethod {
				t.Errorf("method = %s, want %s", vb.Method, tt.wantMethod)
			}
			if !near(vb.EV, 0.20) {
				t.Errorf("EV = %v, want 0.20", vb.EV)
			}
		})
	}
}

func TestAssessModelRequiresEmpiricalValue(t *testing.T) {
	pred := &Prediction{Probs: map[string]float64{SideOver: 0.95, SideUnder: 0.05}}
	// Empirical EV is negative: the model alone cannot create a bet.
	if _, ok, _ := AssessModel(over(1.5), Empirical{Prob: 0.5, Samples: 20}, pred, DefaultConfig()); ok {
		t.Error("model attributed a bet without empirical value")
	}
	if _, ok, _ := Assess(over(1.5), Empirical{Prob: 0.5, Samples: 20}, pred, DefaultConfig()); ok {
		t.Error("Assess flagged value without empirical value")
	}
}

func TestAssessModelInvalidModelProbability(t *testing.T) {
	pred := &Prediction{Probs: map[string]float64{SideOver: 1.0, SideUnder: 0}}
	_, _, err := AssessModel(over(2.0), Empirical{Prob: 0.6, Samples: 20}, pred, DefaultConfig())
	if !errors.Is(err, ErrInvalidProbability) {
		t.Fatalf("err = %v, want ErrInvalidProbability", err)
	}
	// Assess still records the empirical bet.
	vb, ok, err := Assess(over(2.0), Empirical{Prob: 0.6, Samples: 20}, pred, DefaultConfig())
	if err != nil || !ok || vb.Method != MethodEmpirical || vb.ModelProb != nil {
		t.Errorf("Assess = %+v ok=%v err=%v", vb, ok, err)
	}
}

func TestAssessFillsSnapshotFields(t *testing.T) {
	m := over(2.0)
	m.OppositePrice = 1.80
	vb, ok, err := Assess(m, Empirical{Prob: 0.6, Samples: 10, Mean: 28.1, Std: 5.2}, nil, DefaultConfig())
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if !near(vb.ImpliedProb, 0.5) || !near(vb.Edge, 20) {
		t.Errorf("implied=%v edge=%v", vb.ImpliedProb, vb.Edge)
	}
	if vb.FairProb <= 0 || vb.FairProb >= 0.5 {
		t.Errorf("fair prob = %v, want in (0, 0.5)", vb.FairProb)
	}
	if vb.Samples != 10 || vb.HistMean != 28.1 || vb.LineValue() != 26.5 {
		t.Errorf("snapshot = %+v", vb)
	}
}

func TestPredictionFavored(t *testing.T) {
	p := &Prediction{Probs: map[string]float64{SideOver: 0.5, SideUnder: 0.5}}
	if side, _ := p.Favored(); side != SideOver {
		t.Errorf("tie favored %q, want %q", side, SideOver)
	}
}
