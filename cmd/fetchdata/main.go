package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/vitos/box_theory_bot/internal/domain"
	"github.com/vitos/box_theory_bot/internal/infrastructure/exchange"
	"github.com/vitos/box_theory_bot/internal/infrastructure/report"
)

const batchLimit = 1000

func main() {
	_ = godotenv.Load()

	symbol := flag.String("symbol", "SOLUSDT", "trading pair")
	interval := flag.String("interval", "5m", "candle interval (e.g. 5m, 1h, 1d)")
	days := flag.Int("days", 30, "lookback window in days")
	out := flag.String("out", "", "output path (default <symbol>_<interval>.csv)")
	flag.Parse()

	path := *out
	if path == "" {
		path = fmt.Sprintf("%s_%s.csv", *symbol, *interval)
	}

	binance := exchange.NewBinanceAdapter(
		os.Getenv("BINANCE_API_KEY"),
		os.Getenv("BINANCE_SECRET_KEY"),
		"", "",
	)

	since := time.Now().UTC().AddDate(0, 0, -*days)
	fmt.Printf("Fetching %s %s candles since %s\n", *symbol, *interval, since.Format("2006-01-02"))

	candles, err := fetchAll(context.Background(), binance, *symbol, *interval, since)
	if err != nil {
		fmt.Printf("Failed to fetch candles: %v\n", err)
		os.Exit(1)
	}

	if err := report.WriteCandles(path, candles); err != nil {
		fmt.Printf("Failed to write %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("Saved %d candles to %s\n", len(candles), path)
}

// fetchAll pages through klines in batches until the live edge.
func fetchAll(ctx context.Context, ex domain.Exchange, symbol, interval string, since time.Time) ([]domain.Candle, error) {
	var all []domain.Candle
	for {
		batch, err := ex.GetCandles(ctx, symbol, interval, since, batchLimit)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		if len(batch) < batchLimit {
			break
		}
		since = batch[len(batch)-1].OpenTime.Add(time.Millisecond)
	}
	return all, nil
}
