package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vitos/box_theory_bot/internal/domain"
	"github.com/vitos/box_theory_bot/internal/infrastructure/exchange"
	"github.com/vitos/box_theory_bot/internal/infrastructure/logger"
	"github.com/vitos/box_theory_bot/internal/infrastructure/notify"
	"github.com/vitos/box_theory_bot/internal/infrastructure/storage"
	"github.com/vitos/box_theory_bot/internal/usecase"
	"github.com/vitos/box_theory_bot/internal/web"
)

type Config struct {
	Exchange struct {
		RESTEndpoint string `yaml:"rest_endpoint"`
		WSEndpoint   string `yaml:"ws_endpoint"`
	} `yaml:"exchange"`
	Strategy struct {
		Symbol              string  `yaml:"symbol"`
		DryRun              bool    `yaml:"dry_run"`
		AllowShort          bool    `yaml:"allow_short"`
		RiskPct             float64 `yaml:"risk_pct"`
		StopLossPct         float64 `yaml:"stop_loss_pct"`
		TakeProfitPct       float64 `yaml:"take_profit_pct"`
		BottomFraction      float64 `yaml:"bottom_fraction"`
		TopFraction         float64 `yaml:"top_fraction"`
		MinNotional         float64 `yaml:"min_notional"`
		QuantityPrecision   int     `yaml:"quantity_precision"`
		UseExchangeMetadata bool    `yaml:"use_exchange_metadata"`
	} `yaml:"strategy"`
	Notify struct {
		EmailHost string `yaml:"email_host"`
		EmailPort int    `yaml:"email_port"`
		EmailTo   string `yaml:"email_to"`
	} `yaml:"notify"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Logging struct {
		Level    string `yaml:"level"`
		TradeLog string `yaml:"trade_log"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func strategyConfig(cfg *Config) usecase.StrategyConfig {
	strat := usecase.DefaultStrategyConfig(cfg.Strategy.Symbol)
	// The live bot confirms entries with an up-tick on the signal bar.
	strat.RequireUpTick = true
	strat.DryRun = cfg.Strategy.DryRun
	strat.AllowShort = cfg.Strategy.AllowShort
	if cfg.Strategy.RiskPct > 0 {
		strat.RiskPct = cfg.Strategy.RiskPct
	}
	if cfg.Strategy.StopLossPct > 0 {
		strat.StopLossPct = cfg.Strategy.StopLossPct
	}
	if cfg.Strategy.TakeProfitPct > 0 {
		strat.TakeProfitPct = cfg.Strategy.TakeProfitPct
	}
	if cfg.Strategy.BottomFraction > 0 {
		strat.BottomFraction = cfg.Strategy.BottomFraction
	}
	if cfg.Strategy.TopFraction > 0 {
		strat.TopFraction = cfg.Strategy.TopFraction
	}
	if cfg.Strategy.MinNotional > 0 {
		strat.MinNotional = cfg.Strategy.MinNotional
	}
	if cfg.Strategy.QuantityPrecision > 0 {
		strat.QuantityPrecision = cfg.Strategy.QuantityPrecision
	}
	return strat
}

func main() {
	// Secrets come from the environment; .env is optional.
	_ = godotenv.Load()

	cfg, err := loadConfig("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	dbPath := cfg.Storage.Path
	if dbPath == "" {
		dbPath = "bot.db"
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	binance := exchange.NewBinanceAdapter(
		os.Getenv("BINANCE_API_KEY"),
		os.Getenv("BINANCE_SECRET_KEY"),
		cfg.Exchange.RESTEndpoint,
		cfg.Exchange.WSEndpoint,
	)

	var notifier domain.Notifier = notify.NewLogNotifier(log)
	if cfg.Notify.EmailHost != "" && os.Getenv("EMAIL_USER") != "" {
		notifier = notify.NewEmailNotifier(
			cfg.Notify.EmailHost,
			cfg.Notify.EmailPort,
			os.Getenv("EMAIL_USER"),
			os.Getenv("EMAIL_PASS"),
			cfg.Notify.EmailTo,
			log,
		)
	}

	strat := strategyConfig(cfg)

	// Resolve sizing metadata from the exchange; the yaml values stay as
	// fallback when the lookup fails.
	if cfg.Strategy.UseExchangeMetadata {
		info, err := binance.GetSymbolInfo(context.Background(), strat.Symbol)
		if err != nil {
			log.Warn("Failed to fetch symbol metadata, using configured precision", zap.Error(err))
		} else {
			strat.QuantityPrecision = info.QuantityPrecision
			if info.MinNotional > 0 {
				strat.MinNotional = info.MinNotional
			}
		}
	}

	tradeLogPath := cfg.Logging.TradeLog
	if tradeLogPath == "" {
		tradeLogPath = "trades.log"
	}
	tradeLog, err := logger.NewFileLogger(tradeLogPath, "info")
	if err != nil {
		log.Error("Failed to init trade log, using default", zap.Error(err))
		tradeLog = log
	}

	bot := usecase.NewBotService(binance, store, notifier, strat, log, tradeLog)

	log.Info("Bot starting",
		zap.String("symbol", strat.Symbol),
		zap.Bool("dry_run", strat.DryRun),
		zap.Int("quantity_precision", strat.QuantityPrecision),
		zap.Float64("min_notional", strat.MinNotional),
	)

	// Live last price for the status endpoint.
	binance.OnPriceUpdate(bot.HandlePriceUpdate)
	if err := binance.Subscribe([]string{strat.Symbol}); err != nil {
		log.Warn("Failed to subscribe to price stream", zap.Error(err))
	}

	// One evaluation per closed 5m bar; the first run does not wait.
	go bot.Tick(context.Background())
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("*/5 * * * *", func() {
		bot.Tick(context.Background())
	}); err != nil {
		log.Fatal("Failed to schedule tick", zap.Error(err))
	}
	scheduler.Start()

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	server := web.NewServer(port, bot, store, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	scheduler.Stop()
	binance.Close()
	server.Shutdown(context.Background())
}
