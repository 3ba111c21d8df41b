package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrategyConfigDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Strategy.Symbol = "NEARUSDT"

	strat := strategyConfig(cfg)
	assert.True(t, strat.RequireUpTick)
	assert.Equal(t, 0.1, strat.BottomFraction)
	assert.Equal(t, 0.9, strat.TopFraction)
	assert.Equal(t, 10.0, strat.MinNotional)
	assert.Equal(t, 2, strat.QuantityPrecision)
}

func TestStrategyConfigFractionsOverrideIndependently(t *testing.T) {
	cfg := &Config{}
	cfg.Strategy.Symbol = "NEARUSDT"
	cfg.Strategy.BottomFraction = 0.2

	strat := strategyConfig(cfg)
	assert.Equal(t, 0.2, strat.BottomFraction)
	assert.Equal(t, 0.9, strat.TopFraction, "unset top fraction keeps its default")

	cfg.Strategy.BottomFraction = 0
	cfg.Strategy.TopFraction = 0.8
	strat = strategyConfig(cfg)
	assert.Equal(t, 0.1, strat.BottomFraction, "unset bottom fraction keeps its default")
	assert.Equal(t, 0.8, strat.TopFraction)
}
