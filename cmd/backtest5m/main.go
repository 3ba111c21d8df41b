package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vitos/box_theory_bot/internal/domain"
	"github.com/vitos/box_theory_bot/internal/infrastructure/exchange"
	"github.com/vitos/box_theory_bot/internal/infrastructure/report"
	"github.com/vitos/box_theory_bot/internal/usecase"
)

const batchLimit = 1000

func main() {
	symbol := flag.String("symbol", "SOLUSDT", "trading pair")
	days := flag.Int("days", 5, "lookback window in days")
	tradeSize := flag.Float64("size", 1, "units traded per signal")
	out := flag.String("out", "box_theory_5m_trades.csv", "report path")
	flag.Parse()

	binance := exchange.NewBinanceAdapter("", "", "", "")
	ctx := context.Background()

	since := time.Now().UTC().AddDate(0, 0, -*days)
	candles, err := fetchAll(ctx, binance, *symbol, "5m", since)
	if err != nil {
		fmt.Printf("Failed to fetch candles: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Fetched %d 5m candles for %s\n", len(candles), *symbol)

	cfg := usecase.DefaultStrategyConfig(*symbol)
	cfg.AllowShort = true

	bt := usecase.NewBacktester(cfg, *tradeSize)
	res := bt.RunIntraday(candles)

	if err := report.WriteTrades(*out, res.Executed); err != nil {
		fmt.Printf("Failed to write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("Saved: %s\n", *out)
	fmt.Printf("Trades: %d, Cumulative P&L: %.2f\n", len(res.Executed), res.CumulativePnL)
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
