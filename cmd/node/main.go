package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantsim/lob/params"
	"github.com/quantsim/lob/pkg/api"
	"github.com/quantsim/lob/pkg/book"
	"github.com/quantsim/lob/pkg/exchange"
	"github.com/quantsim/lob/pkg/journal"
	"github.com/quantsim/lob/pkg/market"
	"github.com/quantsim/lob/pkg/sim"
	"github.com/quantsim/lob/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("")
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := util.NewLoggerWithFile(cfg.Node.LogFile, cfg.Node.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Node.LogFile)

	// ---- Journal ----
	j, err := journal.Open(filepath.Join(cfg.Node.DataDir, "journal"))
	if err != nil {
		sugar.Fatalw("journal_open_failed", "err", err)
	}
	defer j.Close()

	// ---- Market ----
	currency, err := market.CurrencyByCode(cfg.Market.Currency)
	if err != nil {
		sugar.Fatalw("bad_currency", "err", err)
	}
	minPrice, _ := decimal.NewFromString(cfg.Market.MinPrice)
	maxPrice, _ := decimal.NewFromString(cfg.Market.MaxPrice)

	m, err := market.New(cfg.Market.Symbol, cfg.Market.BaseAsset, cfg.Market.QuoteAsset, market.Params{
		Currency:     currency,
		MinQuote:     book.QuoteFromDecimal(minPrice, currency.Unit),
		MaxQuote:     book.QuoteFromDecimal(maxPrice, currency.Unit),
		PoolSize:     cfg.Market.PoolSize,
		MinOrderSize: cfg.Market.MinOrderSize,
		MaxOrderSize: cfg.Market.MaxOrderSize,
	})
	if err != nil {
		sugar.Fatalw("market_init_failed", "err", err)
	}

	// ---- Exchange ----
	ex := exchange.New(sugar, j)
	if err := ex.AddMarket(m); err != nil {
		sugar.Fatalw("market_register_failed", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- API server ----
	apiServer := api.NewServer(ex, j, sugar)
	ex.OnReport = apiServer.BroadcastReports

	go func() {
		if err := apiServer.Start(cfg.API.Addr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	// ---- Feeder (optional synthetic flow) ----
	if cfg.Feeder.Enabled {
		feeder, err := sim.NewFeeder(ex, sim.Config{
			Symbol:    cfg.Market.Symbol,
			Interval:  cfg.Feeder.Interval,
			BatchSize: cfg.Feeder.BatchSize,
			Traders:   cfg.Feeder.Traders,
			CancelPct: 10,
		}, util.RealClock{}, sugar)
		if err != nil {
			sugar.Fatalw("feeder_init_failed", "err", err)
		}
		go feeder.Run(ctx)
	}

	sugar.Infow("node_started",
		"symbol", cfg.Market.Symbol,
		"interval", cfg.Market.MinPrice+".."+cfg.Market.MaxPrice,
		"pool_size", cfg.Market.PoolSize,
		"api_addr", cfg.API.Addr,
		"feeder", cfg.Feeder.Enabled)

	// ---- Periodic depth dump ----
	if cfg.Node.DepthLogInterval > 0 {
		ticker := time.NewTicker(cfg.Node.DepthLogInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				depth, err := ex.Depth(cfg.Market.Symbol, 5)
				if err == nil {
					sugar.Infow("depth", "snapshot", "\n"+depth)
				}
			}
		}
	}

	<-ctx.Done()
}
