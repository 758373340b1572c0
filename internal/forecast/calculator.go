// Package forecast estimates the probability that the market's target
// price is reached before expiry, from the current price, the remaining
// time and the realized volatility.
package forecast

import (
	"math"
	"time"
)

const (
	minPrice      = 1_000
	maxPrice      = 500_000
	minVolatility = 0.01
	maxVolatility = 0.5
)

// Calculator turns (price, volatility) observations into a resolution
// probability via a logistic function. The sensitivity parameter scales
// how quickly the probability reacts to the distance from the target.
type Calculator struct {
	targetPrice float64
	timeframe   time.Duration
	sensitivity float64
	start       time.Time

	now func() time.Time
}

func NewCalculator(targetPrice float64, timeframe time.Duration, sensitivity float64) *Calculator {
	return &Calculator{
		targetPrice: targetPrice,
		timeframe:   timeframe,
		sensitivity: sensitivity,
		start:       time.Now(),
		now:         time.Now,
	}
}

// RemainingHours returns the hours left until expiry, never negative.
func (c *Calculator) RemainingHours() float64 {
	elapsed := c.now().Sub(c.start)
	remaining := c.timeframe - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining.Hours()
}

// Probability estimates the chance of the price reaching the target
// before expiry. Out-of-range inputs are clamped rather than rejected;
// the result is always within [0,1].
func (c *Calculator) Probability(price, volatility float64) float64 {
	price = clamp(price, minPrice, maxPrice)
	volatility = clamp(volatility, minVolatility, maxVolatility)

	if price >= c.targetPrice {
		return 1
	}
	remaining := c.RemainingHours()
	if remaining <= 0 {
		return 0
	}

	distancePct := (c.targetPrice - price) / price
	timeFactor := remaining / c.timeframe.Hours()
	volFactor := volatility * math.Sqrt(remaining)

	z := -distancePct/(volFactor*c.sensitivity) + timeFactor
	p := 1 / (1 + math.Exp(-z))
	return clamp(p, 0, 1)
}

// TargetPrice returns the price the market resolves on.
func (c *Calculator) TargetPrice() float64 { return c.targetPrice }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
