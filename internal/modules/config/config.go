package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"pump_bot/internal/engine"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDir         = "configs"
	defaultConfigFile = "values_local.yaml"
)

// Config ...
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	Mexc struct {
		APIKey      string        `mapstructure:"api_key"`
		APISecret   string        `mapstructure:"api_secret"`
		RestURL     string        `mapstructure:"rest_url"`
		WsURL       string        `mapstructure:"ws_url"`
		RecvWindow  int64         `mapstructure:"recv_window"` // ms
		HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	} `mapstructure:"mexc"`

	Telegram struct {
		Token       string `mapstructure:"token"`
		ChatID      int64  `mapstructure:"chat_id"`
		PollTimeout int    `mapstructure:"poll_timeout"` // сек, long polling
	} `mapstructure:"telegram"`

	Engine struct {
		Window      time.Duration `mapstructure:"window"`
		MinSamples  int           `mapstructure:"min_samples"`
		PumpPct     float64       `mapstructure:"pump_pct"`
		TrailPct    float64       `mapstructure:"trail_pct"`
		MinPrice    float64       `mapstructure:"min_price"`
		FeeHaircut  float64       `mapstructure:"fee_haircut"`
		TradeAmount float64       `mapstructure:"trade_amount"` // USDT на сделку, оператор может поменять
	} `mapstructure:"engine"`

	Ingest struct {
		SymbolsPerShard int           `mapstructure:"symbols_per_shard"`
		QuoteAsset      string        `mapstructure:"quote_asset"`
		Symbols         []string      `mapstructure:"symbols"` // если пусто — берём из exchangeInfo
		BackoffMin      time.Duration `mapstructure:"backoff_min"`
		BackoffMax      time.Duration `mapstructure:"backoff_max"`
		PingInterval    time.Duration `mapstructure:"ping_interval"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		DialRate        float64       `mapstructure:"dial_rate"` // подключений в секунду на все шарды
		DialBurst       int           `mapstructure:"dial_burst"`
		StartStagger    time.Duration `mapstructure:"start_stagger"`
	} `mapstructure:"ingest"`

	Executor struct {
		QueueSize int `mapstructure:"queue_size"`
	} `mapstructure:"executor"`

	Store struct {
		Driver   string `mapstructure:"driver"` // file | postgres
		Path     string `mapstructure:"path"`
		DSN      string `mapstructure:"dsn"`
		MaxConns int32  `mapstructure:"max_conns"`
	} `mapstructure:"store"`

	Service struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"service"`

	Tracing struct {
		Enabled bool   `mapstructure:"enabled"`
		Host    string `mapstructure:"host"`
		Port    int    `mapstructure:"port"`
	} `mapstructure:"tracing"`
}

func NewConfig() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = defaultConfigFile
	}
	return Load(filepath.Join(configDir, configFileName))
}

// Load читает yaml (если файл есть), накладывает ENV и проверяет пороги.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Ingest.QuoteAsset = strings.ToUpper(strings.TrimSpace(cfg.Ingest.QuoteAsset))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := engine.DefaultConfig()

	v.SetDefault("log_level", "info")

	v.SetDefault("mexc.api_key", "")
	v.SetDefault("mexc.api_secret", "")
	v.SetDefault("mexc.rest_url", "https://api.mexc.com")
	v.SetDefault("mexc.ws_url", "wss://wbs.mexc.com/ws")
	v.SetDefault("mexc.recv_window", 5000)
	v.SetDefault("mexc.http_timeout", "10s")

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.poll_timeout", 30)

	v.SetDefault("engine.window", d.Window)
	v.SetDefault("engine.min_samples", d.MinSamples)
	v.SetDefault("engine.pump_pct", d.PumpPct)
	v.SetDefault("engine.trail_pct", d.TrailPct)
	v.SetDefault("engine.min_price", d.MinPrice)
	v.SetDefault("engine.fee_haircut", d.FeeHaircut)
	v.SetDefault("engine.trade_amount", 0.0)

	v.SetDefault("ingest.symbols_per_shard", 30)
	v.SetDefault("ingest.quote_asset", "USDT")
	v.SetDefault("ingest.symbols", []string{})
	v.SetDefault("ingest.backoff_min", "2s")
	v.SetDefault("ingest.backoff_max", "30s")
	v.SetDefault("ingest.ping_interval", "20s")
	v.SetDefault("ingest.read_timeout", "60s")
	v.SetDefault("ingest.dial_rate", 5.0)
	v.SetDefault("ingest.dial_burst", 5)
	v.SetDefault("ingest.start_stagger", "20ms")

	v.SetDefault("executor.queue_size", 500)

	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", "trades.json")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.max_conns", 4)

	v.SetDefault("service.host", "0.0.0.0")
	v.SetDefault("service.port", 8080)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.host", "localhost")
	v.SetDefault("tracing.port", 6831)
}

// bindEnv: всё доступно как SECTION_KEY (MEXC_API_KEY, ENGINE_PUMP_PCT ...),
// плюс привычные имена из деплоя.
func bindEnv(v *viper.Viper) error {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	aliases := map[string][]string{
		"telegram.token":      {"TELEGRAM_BOT_TOKEN", "TELEGRAM_TOKEN"},
		"telegram.chat_id":    {"TELEGRAM_CHAT_ID"},
		"service.port":        {"PORT"},
		"store.dsn":           {"DATABASE_DSN"},
		"engine.trade_amount": {"TRADE_AMOUNT"},
	}
	for key, envs := range aliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// EngineConfig — пороги детектора в виде engine.Config.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		Window:     c.Engine.Window,
		MinSamples: c.Engine.MinSamples,
		PumpPct:    c.Engine.PumpPct,
		TrailPct:   c.Engine.TrailPct,
		MinPrice:   c.Engine.MinPrice,
		FeeHaircut: c.Engine.FeeHaircut,
	}
}

func (c *Config) Validate() error {
	if err := c.EngineConfig().Validate(); err != nil {
		return err
	}
	if c.Engine.TradeAmount < 0 {
		return fmt.Errorf("engine.trade_amount must be >= 0")
	}
	if c.Ingest.SymbolsPerShard <= 0 {
		return fmt.Errorf("ingest.symbols_per_shard must be > 0")
	}
	if c.Ingest.BackoffMin <= 0 || c.Ingest.BackoffMax < c.Ingest.BackoffMin {
		return fmt.Errorf("ingest backoff: need 0 < backoff_min <= backoff_max")
	}
	if c.Ingest.DialRate > 0 && c.Ingest.DialBurst < 1 {
		return fmt.Errorf("ingest.dial_burst must be >= 1 when dial_rate > 0")
	}
	if c.Executor.QueueSize <= 0 {
		return fmt.Errorf("executor.queue_size must be > 0")
	}
	switch c.Store.Driver {
	case "file":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for file driver")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn (DATABASE_DSN) is required for postgres driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if c.Service.Port <= 0 {
		return fmt.Errorf("service.port must be > 0")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Service.Host, c.Service.Port)
}
