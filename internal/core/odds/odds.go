package odds

// Implied converts decimal odds to the bookmaker's implied probability.
func Implied(price float64) float64 {
	if price <= 0 {
		return 0
	}
	return 1.0 / price
}

// EV is the expected profit per unit staked at decimal price.
func EV(prob, price float64) float64 {
	return prob*price - 1.0
}

// Overround is the bookmaker margin of a two-way market (0.04 = 4%).
func Overround(a, b float64) float64 {
	return Implied(a) + Implied(b) - 1.0
}

// RemoveVig2 converts two-way decimal odds to fair probabilities
// by stripping the bookmaker's overround.
func RemoveVig2(a, b float64) (float64, float64) {
	rawA := 1.0 / a
	rawB := 1.0 / b
	total := rawA + rawB
	return rawA / total, rawB / total
}
