package value

import (
	"math"
	"testing"
)

func TestEmpiricalTotal(t *testing.T) {
	samples := []float64{20, 25, 26.5, 27, 30, 31, 22, 28}

	o := EmpiricalTotal(samples, 26.5, SideOver)
	if o.Samples != 8 || o.Prob != 0.5 {
		t.Errorf("over = %+v, want prob 0.5 over 8 samples", o)
	}
	u := EmpiricalTotal(samples, 26.5, SideUnder)
	if u.Prob != 0.375 {
		t.Errorf("under prob = %v, want 0.375 (push excluded)", u.Prob)
	}
	if math.Abs(o.Mean-26.1875) > 1e-9 {
		t.Errorf("mean = %v", o.Mean)
	}
	if o.Std <= 0 {
		t.Errorf("std = %v", o.Std)
	}

	if e := EmpiricalTotal(nil, 26.5, SideOver); e.Samples != 0 {
		t.Errorf("empty = %+v", e)
	}
	if e := EmpiricalTotal([]float64{30}, 26.5, SideOver); e.Std != 0 || e.Prob != 1 {
		t.Errorf("single = %+v", e)
	}
}

func TestEmpiricalMoneyline(t *testing.T) {
	e := EmpiricalMoneyline(15, 20, 5, 20)
	if e.Prob != 0.75 || e.Samples != 20 {
		t.Errorf("got %+v, want prob 0.75", e)
	}
	if e := EmpiricalMoneyline(3, 4, 1, 12); e.Samples != 4 {
		t.Errorf("samples = %d, want min map count 4", e.Samples)
	}
	if e := EmpiricalMoneyline(0, 0, 5, 10); e.Samples != 0 {
		t.Errorf("missing history = %+v", e)
	}
}

func TestAdjustToLine(t *testing.T) {
	a := DefaultLineAdjust()

	atMean := a.AdjustToLine(0.6, 28, 28, 5)
	above := a.AdjustToLine(0.6, 33, 28, 5)
	below := a.AdjustToLine(0.6, 23, 28, 5)
	if !(above < 0.6) {
		t.Errorf("line above mean should lower P(over): %v", above)
	}
	if !(below > 0.6) {
		t.Errorf("line below mean should raise P(over): %v", below)
	}
	if atMean <= 0.6 {
		t.Errorf("z=0 applies the upward branch: %v", atMean)
	}
	if got := a.AdjustToLine(0.9999, 28, 28, 0); got != 0.999 {
		t.Errorf("zero std clips: %v", got)
	}

	p := a.TotalPrediction(0.6, 33, 28, 5)
	if math.Abs(p.Probs[SideOver]+p.Probs[SideUnder]-1) > 1e-12 {
		t.Errorf("over+under = %v", p.Probs[SideOver]+p.Probs[SideUnder])
	}
}
