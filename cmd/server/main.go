package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/predictive-exchange/binary-market/internal/adapter/cache"
	"github.com/predictive-exchange/binary-market/internal/adapter/in_memory"
	"github.com/predictive-exchange/binary-market/internal/adapter/pg"
	api "github.com/predictive-exchange/binary-market/internal/api/http"
	"github.com/predictive-exchange/binary-market/internal/core"
	"github.com/predictive-exchange/binary-market/internal/domain"
	"github.com/predictive-exchange/binary-market/internal/feed"
	"github.com/predictive-exchange/binary-market/internal/forecast"
	"github.com/predictive-exchange/binary-market/internal/port"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file, using process environment")
	}

	targetPrice := envFloat("TARGET_PRICE", 100_000)
	timeframe := time.Duration(envFloat("TIMEFRAME_HOURS", 24) * float64(time.Hour))
	sensitivity := envFloat("SENSITIVITY", 0.1)
	question := os.Getenv("MARKET_QUESTION")
	if question == "" {
		question = "Will BTC reach $100,000 in 24 hours?"
	}

	var repo port.Repository
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pgRepo, err := pg.NewPgRepo(ctx, dsn)
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		defer pgRepo.Close()
		repo = pgRepo
	} else {
		log.Printf("DATABASE_URL not set, orders will not survive restarts")
		repo = in_memory.NewMemoryRepo()
	}

	var bookCache port.Cache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
		bookCache = cache.NewRedisCache(addr, os.Getenv("REDIS_PASSWORD"), db, 5*time.Minute)
	} else {
		bookCache = in_memory.NewCache()
	}

	market := core.NewMarket(question, time.Now().Add(timeframe), repo, bookCache)
	if err := market.LoadOpenOrders(ctx); err != nil {
		log.Fatalf("restore order book: %v", err)
	}

	priceFeed := feed.New(os.Getenv("FEED_URL"))
	calc := forecast.NewCalculator(targetPrice, timeframe, sensitivity)
	interval := envDuration("FEED_INTERVAL", 30*time.Second)
	go runResolutionLoop(ctx, market, priceFeed, calc, interval)

	server := api.NewHTTPServer(market, priceFeed)
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("starting HTTP server on %s", addr)
	if err := server.Run(addr); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}

// runResolutionLoop ticks the price feed, refreshes the market's
// probability estimate and resolves the market once the target is hit or
// the clock runs out.
func runResolutionLoop(ctx context.Context, market *core.Market, priceFeed *feed.Feed, calc *forecast.Calculator, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		price := priceFeed.UpdatePrice(ctx)
		p := calc.Probability(price, priceFeed.Volatility())
		if err := market.UpdateProbability(decimal.NewFromFloat(p)); err != nil {
			log.Printf("update probability: %v", err)
		}

		if _, resolved := market.Resolved(); resolved {
			return
		}
		switch {
		case price >= calc.TargetPrice():
			if err := market.Resolve(ctx, domain.Yes); err == nil {
				log.Printf("market resolved YES at price %.2f", price)
				return
			}
		case time.Now().After(market.Expiry()):
			if err := market.Resolve(ctx, domain.No); err == nil {
				log.Printf("market resolved NO, target not reached before expiry")
				return
			}
		}
	}
}

func envFloat(name string, fallback float64) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Fatalf("%s: %v", name, err)
	}
	return v
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("%s: %v", name, err)
	}
	return v
}
