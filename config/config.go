package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log      Logger         `mapstructure:"logger"`
	API      API            `mapstructure:"api"`
	Backend  Backend        `mapstructure:"backend"`
	Storage  Storage        `mapstructure:"storage"`
	Cache    Cache          `mapstructure:"cache"`
	Market   Market         `mapstructure:"market"`
	Polling  Polling        `mapstructure:"polling"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// API is the local endpoint the renderer reads state from.
type API struct {
	Port int `mapstructure:"port"`
}

type Backend struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Storage struct {
	Path string `mapstructure:"path"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type Market struct {
	// TimeZone of the trading session clock. Empty means the machine local zone.
	TimeZone string `mapstructure:"time_zone"`
}

type Polling struct {
	TaskActiveInterval    time.Duration `mapstructure:"task_active_interval"`
	TaskIdleInterval      time.Duration `mapstructure:"task_idle_interval"`
	TaskTimeout           time.Duration `mapstructure:"task_timeout"`
	QuoteSessionInterval  time.Duration `mapstructure:"quote_session_interval"`
	QuoteIdleInterval     time.Duration `mapstructure:"quote_idle_interval"`
	SignalSessionInterval time.Duration `mapstructure:"signal_session_interval"`
	SignalIdleInterval    time.Duration `mapstructure:"signal_idle_interval"`
	SessionCheckInterval  time.Duration `mapstructure:"session_check_interval"`
	SignalBatchSize       int           `mapstructure:"signal_batch_size"`
	SignalBatchDelay      time.Duration `mapstructure:"signal_batch_delay"`
}

type TelegramConfig struct {
	BotToken                string `mapstructure:"bot_token"`
	ChatID                  int64  `mapstructure:"chat_id"`
	MaxChatRequestPerSecond int    `mapstructure:"max_chat_request_per_second"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("api.port", 8787)
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("storage.path", "data/watchlist.db")
	v.SetDefault("cache.default_expiration", time.Duration(0))
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)
	v.SetDefault("polling.task_active_interval", 3*time.Second)
	v.SetDefault("polling.task_idle_interval", 30*time.Second)
	v.SetDefault("polling.task_timeout", 10*time.Minute)
	v.SetDefault("polling.quote_session_interval", time.Second)
	v.SetDefault("polling.quote_idle_interval", 30*time.Second)
	v.SetDefault("polling.signal_session_interval", 5*time.Minute)
	v.SetDefault("polling.signal_idle_interval", 30*time.Minute)
	v.SetDefault("polling.session_check_interval", time.Minute)
	v.SetDefault("polling.signal_batch_size", 10)
	v.SetDefault("polling.signal_batch_delay", 500*time.Millisecond)
	v.SetDefault("telegram.max_chat_request_per_second", 1)
}

// Default returns the configuration with only defaults applied. Used by tests and one-shot commands.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file loaded:", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Polling.SignalBatchSize <= 0 {
		return nil, fmt.Errorf("polling.signal_batch_size must be positive, got %d", cfg.Polling.SignalBatchSize)
	}

	return &cfg, nil
}
