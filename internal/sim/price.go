package sim

import (
	"math"
	"math/rand"

	"github.com/pulseboard/tickerd/internal/model"
)

// Step composition weights. The momentum and noise terms dominate; the
// trend term nudges the walk in the instrument's bias direction.
const (
	momentumWeight = 0.6
	noiseWeight    = 0.3
	trendWeight    = 0.1
)

// Mean reversion: once the price drifts more than maxDriftFraction from
// the base price, pull it back by reversionStrength of the deviation.
const (
	maxDriftFraction  = 0.20
	reversionStrength = 0.05
)

// nextPrice computes the next price for an instrument from the current
// one: a volatility-scaled percentage step, mean reversion, then a clamp
// to the instrument's hard bounds.
func nextPrice(rng *rand.Rand, inst model.Instrument, current float64) float64 {
	price := rawStep(rng, inst, current)
	price = meanRevert(inst, price)
	return clamp(price, inst.MinPrice, inst.MaxPrice)
}

// rawStep applies one unmitigated random-walk step.
func rawStep(rng *rand.Rand, inst model.Instrument, current float64) float64 {
	momentum := (rng.Float64() - 0.5) * 2 // centered in [-1, 1)
	noise := rng.NormFloat64()
	trend := inst.TrendBias

	changePct := (momentum*momentumWeight + noise*noiseWeight + trend*trendWeight) * inst.Volatility
	return current * (1 + changePct)
}

// meanRevert pulls a drifted price back toward the base price.
func meanRevert(inst model.Instrument, price float64) float64 {
	deviation := price - inst.BasePrice
	if math.Abs(deviation)/inst.BasePrice > maxDriftFraction {
		price -= deviation * reversionStrength
	}
	return price
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// volumeIncrement returns the random volume added by one update,
// proportional to the instrument's base volume magnitude.
func volumeIncrement(rng *rand.Rand, inst model.Instrument) int64 {
	if inst.BaseVolume <= 0 {
		return 0
	}
	floor := inst.BaseVolume / 20
	jitter := rng.Int63n(inst.BaseVolume/10 + 1)
	return floor + jitter
}
