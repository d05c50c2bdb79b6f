package value

import "math"

// EmpiricalTotal estimates P(side) of a total market from historical stat
// values: the share of maps strictly over (or under) the line. A map landing
// on the line counts for neither side.
func EmpiricalTotal(samples []float64, line float64, side string) Empirical {
	n := len(samples)
	if n == 0 {
		return Empirical{}
	}

	var hits int
	var sum float64
	for _, x := range samples {
		sum += x
		switch {
		case side == SideOver && x > line:
			hits++
		case side == SideUnder && x < line:
			hits++
		}
	}
	mean := sum / float64(n)

	var std float64
	if n > 1 {
		var sq float64
		for _, x := range samples {
			sq += (x - mean) * (x - mean)
		}
		std = math.Sqrt(sq / float64(n-1))
	}

	return Empirical{
		Prob:    round4(float64(hits) / float64(n)),
		Samples: n,
		Mean:    mean,
		Std:     std,
	}
}

// EmpiricalMoneyline estimates P(team A beats team B) from each side's
// league win rate, normalised over the pair. Samples is the smaller of the
// two map counts.
func EmpiricalMoneyline(winsA, mapsA, winsB, mapsB int) Empirical {
	if mapsA == 0 || mapsB == 0 {
		return Empirical{}
	}
	ra := float64(winsA) / float64(mapsA)
	rb := float64(winsB) / float64(mapsB)
	if ra+rb == 0 {
		return Empirical{Samples: min(mapsA, mapsB)}
	}
	return Empirical{
		Prob:    round4(ra / (ra + rb)),
		Samples: min(mapsA, mapsB),
		Mean:    ra,
	}
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
