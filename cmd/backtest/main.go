package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vitos/box_theory_bot/internal/infrastructure/exchange"
	"github.com/vitos/box_theory_bot/internal/infrastructure/report"
	"github.com/vitos/box_theory_bot/internal/usecase"
)

func main() {
	symbol := flag.String("symbol", "SOLUSDT", "trading pair")
	limit := flag.Int("limit", 100, "number of daily candles")
	tradeSize := flag.Float64("size", 1, "units traded per signal")
	out := flag.String("out", "box_theory_trades.csv", "report path (all bars)")
	outExecuted := flag.String("out-executed", "box_theory_executed_trades.csv", "report path (executed trades only)")
	flag.Parse()

	binance := exchange.NewBinanceAdapter("", "", "", "")

	fmt.Printf("Fetching historical data for %s\n", *symbol)
	since := time.Now().UTC().AddDate(0, 0, -(*limit + 1))
	candles, err := binance.GetCandles(context.Background(), *symbol, "1d", since, *limit)
	if err != nil {
		fmt.Printf("Failed to fetch candles: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Data fetched. Number of days: %d\n", len(candles))

	cfg := usecase.DefaultStrategyConfig(*symbol)
	cfg.AllowShort = true

	bt := usecase.NewBacktester(cfg, *tradeSize)
	res := bt.RunDaily(candles)

	fmt.Println("\n--- Trade Details ---")
	if len(res.Executed) == 0 {
		fmt.Println("No trades were executed based on the strategy conditions.")
	}
	for _, tr := range res.Executed {
		fmt.Printf("%s  %-5s entry=%.4f exit=%.4f pnl=%.4f\n",
			tr.Time.UTC().Format("2006-01-02"), tr.Signal, tr.Entry, tr.Exit, tr.PnL)
	}

	if err := report.WriteTrades(*out, res.Trades); err != nil {
		fmt.Printf("Failed to write %s: %v\n", *out, err)
		os.Exit(1)
	}
	if err := report.WriteTrades(*outExecuted, res.Executed); err != nil {
		fmt.Printf("Failed to write %s: %v\n", *outExecuted, err)
		os.Exit(1)
	}
	fmt.Printf("\nSaved %q and %q to disk.\n", *out, *outExecuted)

	fmt.Println("\n--- Summary ---")
	fmt.Printf("Total Trades Executed: %d\n", len(res.Executed))
	fmt.Printf("Cumulative P&L: %.2f\n", res.CumulativePnL)
}
