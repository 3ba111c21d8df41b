package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/vitos/box_theory_bot/internal/domain"
	"github.com/vitos/box_theory_bot/internal/usecase"
)

const timeLayout = "2006-01-02 15:04"

// WriteTrades saves backtest rows as a CSV report with the columns
// {Date, Signal, Entry, Exit, P&L}.
func WriteTrades(path string, rows []usecase.BacktestTrade) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Date", "Signal", "Entry", "Exit", "P&L"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Time.UTC().Format(timeLayout),
			string(r.Signal),
			strconv.FormatFloat(r.Entry, 'f', -1, 64),
			strconv.FormatFloat(r.Exit, 'f', -1, 64),
			strconv.FormatFloat(r.PnL, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteCandles saves OHLCV history, one bar per row.
func WriteCandles(path string, candles []domain.Candle) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Timestamp", "Open", "High", "Low", "Close", "Volume"}); err != nil {
		return err
	}
	for _, c := range candles {
		record := []string{
			c.OpenTime.UTC().Format(timeLayout),
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
