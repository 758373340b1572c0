// Command simulator runs a self-contained trading session: it seeds
// liquidity around the estimated resolution probability, submits random
// taker flow each tick and prints the book state, until the market
// resolves or the tick budget runs out.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/predictive-exchange/binary-market/internal/adapter/in_memory"
	"github.com/predictive-exchange/binary-market/internal/core"
	"github.com/predictive-exchange/binary-market/internal/domain"
	"github.com/predictive-exchange/binary-market/internal/feed"
	"github.com/predictive-exchange/binary-market/internal/forecast"
)

func main() {
	ticks := flag.Int("ticks", 20, "number of simulation ticks")
	interval := flag.Duration("interval", 2*time.Second, "delay between ticks")
	targetPrice := flag.Float64("target", 100_000, "resolution target price")
	hours := flag.Float64("hours", 24, "market timeframe in hours")
	flag.Parse()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	timeframe := time.Duration(*hours * float64(time.Hour))
	question := fmt.Sprintf("Will BTC reach $%.0f in %.0f hours?", *targetPrice, *hours)
	market := core.NewMarket(question, time.Now().Add(timeframe), in_memory.NewMemoryRepo(), in_memory.NewCache())

	priceFeed := feed.New("")
	calc := forecast.NewCalculator(*targetPrice, timeframe, 0.1)

	price := priceFeed.UpdatePrice(ctx)
	prob := calc.Probability(price, priceFeed.Volatility())
	_ = market.UpdateProbability(decimal.NewFromFloat(prob))
	seedLiquidity(ctx, market, prob, rng)

	for tick := 1; tick <= *ticks; tick++ {
		price = priceFeed.UpdatePrice(ctx)
		prob = calc.Probability(price, priceFeed.Volatility())
		_ = market.UpdateProbability(decimal.NewFromFloat(prob))

		submitRandomFlow(ctx, market, prob, rng)
		printStatus(market, tick, price, prob)

		if price >= *targetPrice {
			_ = market.Resolve(ctx, domain.Yes)
			fmt.Println("market resolved YES: target reached")
			return
		}
		time.Sleep(*interval)
	}
	fmt.Println("simulation finished without resolution")
}

// seedLiquidity places layered limit orders around the estimated
// probability on both books, NO quotes mirroring 1-probability.
func seedLiquidity(ctx context.Context, market *core.Market, prob float64, rng *rand.Rand) {
	for _, option := range []domain.Option{domain.Yes, domain.No} {
		mid := prob
		if option == domain.No {
			mid = 1 - prob
		}
		for i := 1; i <= 3; i++ {
			offset := 0.02 * float64(i)
			size := decimal.NewFromInt(int64(10 + rng.Intn(40)))
			if bid := mid - offset; bid > 0.01 {
				mustSubmit(market.SubmitLimitOrder(ctx, option, domain.Buy,
					decimal.NewFromFloat(bid).Round(2), size, "maker-bot"))
			}
			if ask := mid + offset; ask < 0.99 {
				mustSubmit(market.SubmitLimitOrder(ctx, option, domain.Sell,
					decimal.NewFromFloat(ask).Round(2), size, "maker-bot"))
			}
		}
	}
}

// submitRandomFlow sends one random taker order: half the time a limit
// near the mid, otherwise a market order.
func submitRandomFlow(ctx context.Context, market *core.Market, prob float64, rng *rand.Rand) {
	option := domain.Yes
	mid := prob
	if rng.Intn(2) == 0 {
		option = domain.No
		mid = 1 - prob
	}
	side := domain.Buy
	if rng.Intn(2) == 0 {
		side = domain.Sell
	}
	size := decimal.NewFromInt(int64(1 + rng.Intn(10)))

	if rng.Intn(2) == 0 {
		drift := (rng.Float64() - 0.5) * 0.06
		price := mid + drift
		if price <= 0.01 || price >= 0.99 {
			return
		}
		mustSubmit(market.SubmitLimitOrder(ctx, option, side,
			decimal.NewFromFloat(price).Round(2), size, "taker-bot"))
		return
	}
	sub, err := market.SubmitMarketOrder(ctx, option, side, size, "taker-bot")
	if err != nil {
		log.Fatalf("market order: %v", err)
	}
	if sub.Unfilled.IsPositive() {
		fmt.Printf("  market order partially filled, %s unfilled\n", sub.Unfilled)
	}
}

func mustSubmit(sub *core.Submission, err error) {
	if err != nil {
		log.Fatalf("limit order: %v", err)
	}
	_ = sub
}

func printStatus(market *core.Market, tick int, price, prob float64) {
	fmt.Printf("\n== tick %d | %s\n", tick, market.Question())
	fmt.Printf("   BTC %.2f | P(YES) %.3f | trades so far %d\n", price, prob, len(market.Trades()))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "option\tbest bid\tbest ask\tspread\tmid")
	for _, option := range []domain.Option{domain.Yes, domain.No} {
		q := market.Quote(option)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", option,
			formatMaybe(q.BestBid, q.HasBid),
			formatMaybe(q.BestAsk, q.HasAsk),
			formatMaybe(q.Spread, q.HasSpread),
			q.Mid.StringFixed(3))
	}
	w.Flush()

	for _, option := range []domain.Option{domain.Yes, domain.No} {
		fmt.Printf("  %s levels:\n", option)
		printLevels(market.Levels(option, domain.Sell), "sell")
		printLevels(market.Levels(option, domain.Buy), "buy")
	}
}

func printLevels(levels []domain.Level, label string) {
	if len(levels) == 0 {
		fmt.Printf("    no %s orders\n", label)
		return
	}
	for _, lvl := range levels {
		fmt.Printf("    %s %s @ %s (%d orders)\n", label, lvl.Size, lvl.Price.StringFixed(3), lvl.Orders)
	}
}

func formatMaybe(v decimal.Decimal, ok bool) string {
	if !ok {
		return "-"
	}
	return v.StringFixed(3)
}
