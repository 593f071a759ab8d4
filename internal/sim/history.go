package sim

import (
	"math/rand"
	"time"

	"github.com/pulseboard/tickerd/internal/model"
)

// Number of intra-candle price steps used to synthesize OHLC extremes.
const candleSubSteps = 4

// seedHistory generates the startup historical series for one
// instrument: points candles at interval granularity, ending at the
// candle boundary before now, walked forward from the base price with
// the same step function the live engine uses.
//
// Every candle satisfies Low <= min(Open, Close) and
// High >= max(Open, Close), and timestamps are strictly increasing.
func seedHistory(rng *rand.Rand, inst model.Instrument, points int, interval time.Duration, now time.Time) []model.Candle {
	candles := make([]model.Candle, 0, points)
	start := now.Truncate(interval).Add(-time.Duration(points) * interval)

	price := inst.BasePrice
	for i := 0; i < points; i++ {
		open := price
		high := open
		low := open

		for s := 0; s < candleSubSteps; s++ {
			price = nextPrice(rng, inst, price)
			if price > high {
				high = price
			}
			if price < low {
				low = price
			}
		}

		candles = append(candles, model.Candle{
			Timestamp: start.Add(time.Duration(i) * interval),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     price,
			Volume:    volumeIncrement(rng, inst) * candleSubSteps,
		})
	}

	return candles
}
