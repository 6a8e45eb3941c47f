// Package params holds node configuration loaded from the environment.
package params

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type API struct {
	Addr string
}

type Market struct {
	Symbol     string
	BaseAsset  string
	QuoteAsset string
	Currency   string
	// MinPrice/MaxPrice bound the book's price interval, as decimal
	// strings in currency units (e.g. "99.00").
	MinPrice string
	MaxPrice string
	// PoolSize caps simultaneously resting orders.
	PoolSize     int
	MinOrderSize int64
	MaxOrderSize int64
}

type Feeder struct {
	Enabled   bool
	Interval  time.Duration
	BatchSize int
	Traders   int
}

type Node struct {
	DataDir  string
	LogFile  string
	LogLevel string
	// DepthLogInterval paces the periodic depth dump to the log.
	// Zero disables it.
	DepthLogInterval time.Duration
}

type Config struct {
	API    API
	Market Market
	Feeder Feeder
	Node   Node
}

func Default() Config {
	return Config{
		API: API{Addr: ":8080"},
		Market: Market{
			Symbol:       "ACME-USD",
			BaseAsset:    "ACME",
			QuoteAsset:   "USD",
			Currency:     "USD",
			MinPrice:     "90.00",
			MaxPrice:     "110.00",
			PoolSize:     1 << 17,
			MinOrderSize: 1,
			MaxOrderSize: 1_000_000,
		},
		Feeder: Feeder{
			Enabled:   false,
			Interval:  100 * time.Millisecond,
			BatchSize: 10,
			Traders:   50,
		},
		Node: Node{
			DataDir:          "data",
			LogFile:          "data/node.log",
			LogLevel:         "info",
			DepthLogInterval: 10 * time.Second,
		},
	}
}

// LoadFromEnv loads configuration from a .env file (when present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.API.Addr = v
	}

	if v := os.Getenv("MARKET_SYMBOL"); v != "" {
		cfg.Market.Symbol = v
	}
	if v := os.Getenv("MARKET_BASE"); v != "" {
		cfg.Market.BaseAsset = v
	}
	if v := os.Getenv("MARKET_QUOTE"); v != "" {
		cfg.Market.QuoteAsset = v
	}
	if v := os.Getenv("MARKET_CURRENCY"); v != "" {
		cfg.Market.Currency = v
	}
	if v := os.Getenv("MARKET_MIN_PRICE"); v != "" {
		cfg.Market.MinPrice = v
	}
	if v := os.Getenv("MARKET_MAX_PRICE"); v != "" {
		cfg.Market.MaxPrice = v
	}
	if v := os.Getenv("MARKET_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Market.PoolSize = n
		}
	}
	if v := os.Getenv("MARKET_MIN_ORDER_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Market.MinOrderSize = n
		}
	}
	if v := os.Getenv("MARKET_MAX_ORDER_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Market.MaxOrderSize = n
		}
	}

	if v := os.Getenv("FEEDER_ENABLED"); v != "" {
		cfg.Feeder.Enabled = v == "true"
	}
	if v := os.Getenv("FEEDER_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Feeder.Interval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("FEEDER_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Feeder.BatchSize = n
		}
	}
	if v := os.Getenv("FEEDER_TRADERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Feeder.Traders = n
		}
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Node.DataDir = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Node.LogFile = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Node.LogLevel = v
	}
	if v := os.Getenv("DEPTH_LOG_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Node.DepthLogInterval = time.Duration(ms) * time.Millisecond
		}
	}

	return cfg
}

// Validate checks the parts of the config that cannot fail lazily.
func (c Config) Validate() error {
	if _, err := decimal.NewFromString(c.Market.MinPrice); err != nil {
		return fmt.Errorf("MARKET_MIN_PRICE %q: %w", c.Market.MinPrice, err)
	}
	if _, err := decimal.NewFromString(c.Market.MaxPrice); err != nil {
		return fmt.Errorf("MARKET_MAX_PRICE %q: %w", c.Market.MaxPrice, err)
	}
	if c.Market.PoolSize <= 0 {
		return fmt.Errorf("MARKET_POOL_SIZE must be positive, got %d", c.Market.PoolSize)
	}
	return nil
}
