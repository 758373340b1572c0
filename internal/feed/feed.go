// Package feed polls the spot BTC price and maintains the realized
// volatility estimate the forecast calculator consumes. When the upstream
// API is unavailable or rate limited it degrades to a volatility-scaled
// random walk so the rest of the system keeps ticking.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultURL is the CoinGecko simple-price endpoint.
	DefaultURL = "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin&vs_currencies=usd"

	defaultPrice      = 80_000
	historyLimit      = 100
	minCallInterval   = time.Minute
	maxBackoff        = 30 * time.Minute
	minVolatility     = 0.01
	defaultVolatility = 0.03
)

// State is one observation of the feed.
type State struct {
	Price      float64   `json:"price"`
	Volatility float64   `json:"volatility"`
	Time       time.Time `json:"time"`
}

type point struct {
	at    time.Time
	price float64
}

// Feed polls an HTTP price API with rate limiting and exponential backoff.
type Feed struct {
	mu         sync.Mutex
	url        string
	price      float64
	volatility float64
	history    []point
	lastCall   time.Time
	backoff    time.Duration
	failures   int

	client *http.Client
	now    func() time.Time
	rng    *rand.Rand
}

func New(url string) *Feed {
	if url == "" {
		url = DefaultURL
	}
	return &Feed{
		url:        url,
		price:      defaultPrice,
		volatility: defaultVolatility,
		client:     &http.Client{Timeout: 5 * time.Second},
		now:        time.Now,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// UpdatePrice refreshes the price from the API (or the fallback walk when
// throttled) and returns the current value.
func (f *Feed) UpdatePrice(ctx context.Context) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	price := f.fetchLocked(ctx)
	if price <= 0 || price > maxPriceBound {
		return f.price
	}
	if price != f.price {
		f.price = price
		f.history = append(f.history, point{at: f.now(), price: price})
		if len(f.history) > historyLimit {
			f.history = f.history[len(f.history)-historyLimit:]
		}
		if len(f.history) >= 10 {
			f.updateVolatilityLocked()
		}
	}
	return f.price
}

const maxPriceBound = 500_000

// CurrentPrice returns the last known price without touching the API.
func (f *Feed) CurrentPrice() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.price
}

// Volatility returns the current realized-volatility estimate.
func (f *Feed) Volatility() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volatility
}

// State snapshots the feed without forcing an update.
func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return State{Price: f.price, Volatility: f.volatility, Time: f.now()}
}

func (f *Feed) fetchLocked(ctx context.Context) float64 {
	now := f.now()

	// Inside the rate-limit window or a backoff period the last price is
	// reused with small random noise, as the upstream cannot be called.
	if now.Sub(f.lastCall) < minCallInterval {
		return f.price * (1 + f.rng.Float64()*0.002 - 0.001)
	}
	if f.backoff > 0 && now.Sub(f.lastCall) < f.backoff {
		return f.price * (1 + f.rng.Float64()*0.004 - 0.002)
	}

	price, err := f.query(ctx)
	f.lastCall = now
	if err != nil {
		f.enterBackoffLocked()
		return f.fallbackLocked()
	}
	f.failures = 0
	f.backoff = 0
	return price
}

func (f *Feed) query(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, fmt.Errorf("price api rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price api status %d", resp.StatusCode)
	}

	var body struct {
		Bitcoin struct {
			USD float64 `json:"usd"`
		} `json:"bitcoin"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	if body.Bitcoin.USD <= 0 {
		return 0, fmt.Errorf("price api returned %f", body.Bitcoin.USD)
	}
	return body.Bitcoin.USD, nil
}

// enterBackoffLocked doubles the wait after each consecutive failure,
// capped at maxBackoff.
func (f *Feed) enterBackoffLocked() {
	f.failures++
	backoff := minCallInterval * (1 << (f.failures - 1))
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	f.backoff = backoff
}

// fallbackLocked produces a random-walk step scaled by the volatility
// estimate, capped at half a percent per call and kept within sane bounds.
func (f *Feed) fallbackLocked() float64 {
	if f.price <= 0 {
		return defaultPrice
	}
	volFactor := f.volatility / math.Sqrt(24)
	change := f.rng.NormFloat64() * volFactor * f.price
	limit := f.price * 0.005
	change = math.Max(math.Min(change, limit), -limit)
	next := math.Max(f.price+change, f.price*0.99)
	return math.Max(math.Min(next, 200_000), 10_000)
}

// updateVolatilityLocked recomputes realized hourly volatility from the
// log returns of the retained history.
func (f *Feed) updateVolatilityLocked() {
	var returns []float64
	for i := 1; i < len(f.history); i++ {
		hours := f.history[i].at.Sub(f.history[i-1].at).Hours()
		if hours <= 0 {
			continue
		}
		r := math.Log(f.history[i].price/f.history[i-1].price) / math.Sqrt(hours)
		returns = append(returns, r)
	}
	if len(returns) == 0 {
		return
	}
	f.volatility = math.Max(minVolatility, stddev(returns))
}

func stddev(xs []float64) float64 {
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var sum float64
	for _, x := range xs {
		sum += (x - mean) * (x - mean)
	}
	return math.Sqrt(sum / float64(len(xs)))
}
