package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListen         = ":8000"
	DefaultDBPath         = "./data/domains.db"
	DefaultRDAPBaseURL    = "https://rdap.org/domain/"
	DefaultConcurrency    = 5
	DefaultTimeoutSeconds = 10
	DefaultRateLimitRPS   = 1.0
	DefaultRateLimitBurst = 5
	DefaultRedisPrefix    = "domaincheck:stats"
	DefaultAvailableFile  = "available_domains.txt"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Listen      string    `yaml:"listen"`
	DBPath      string    `yaml:"dbPath"`
	RDAP        RDAP      `yaml:"rdap"`
	API         API       `yaml:"api"`
	Redis       Redis     `yaml:"redis"`
	Telegram    Telegram  `yaml:"telegram"`
	Schedule    Schedule  `yaml:"schedule"`
	DomainFiles []string  `yaml:"domainFiles"`
	Watchlist   Watchlist `yaml:"watchlist"`
}

type RDAP struct {
	BaseURL        string `yaml:"baseURL"`
	Concurrency    int    `yaml:"concurrency"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Timeout 单次 RDAP 请求的超时时间。
func (r RDAP) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

type API struct {
	CORSOrigins    []string `yaml:"corsOrigins"`
	RateLimitRPS   float64  `yaml:"rateLimitRPS"`
	RateLimitBurst int      `yaml:"rateLimitBurst"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type Telegram struct {
	BotToken string `yaml:"botToken"`
	ChatID   int64  `yaml:"chatID"`
}

type Schedule struct {
	Enabled bool `yaml:"enabled"`
	Hour    int  `yaml:"hour"`
	Minute  int  `yaml:"minute"`
}

type Watchlist struct {
	AvailableFile string `yaml:"availableFile"`
}

// Default 返回全部使用默认值的配置。
func Default() Config {
	return Config{
		Listen: DefaultListen,
		DBPath: DefaultDBPath,
		RDAP: RDAP{
			BaseURL:        DefaultRDAPBaseURL,
			Concurrency:    DefaultConcurrency,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		API: API{
			CORSOrigins:    []string{"*"},
			RateLimitRPS:   DefaultRateLimitRPS,
			RateLimitBurst: DefaultRateLimitBurst,
		},
		Redis:     Redis{Prefix: DefaultRedisPrefix},
		Schedule:  Schedule{Hour: 9},
		Watchlist: Watchlist{AvailableFile: DefaultAvailableFile},
	}
}

// Load 读取 YAML 配置（文件不存在时使用默认值），再应用环境变量覆盖。
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("解析配置失败: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return Config{}, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, v)
		}
		*dst = n
		return nil
	}

	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		cfg.Listen = ":" + strings.TrimSpace(v)
	}
	str("DB_PATH", &cfg.DBPath)
	str("RDAP_BASE_URL", &cfg.RDAP.BaseURL)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	if err := num("RDAP_CONCURRENCY", &cfg.RDAP.Concurrency); err != nil {
		return err
	}
	if err := num("RDAP_TIMEOUT_SECONDS", &cfg.RDAP.TimeoutSeconds); err != nil {
		return err
	}
	if v, ok := lookup("TELEGRAM_CHAT_ID"); ok && strings.TrimSpace(v) != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: TELEGRAM_CHAT_ID=%q", ErrInvalidConfig, v)
		}
		cfg.Telegram.ChatID = id
	}
	return nil
}

func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.RDAP.BaseURL) == "":
		return fmt.Errorf("%w: rdap.baseURL 不能为空", ErrInvalidConfig)
	case c.RDAP.Concurrency < 1:
		return fmt.Errorf("%w: rdap.concurrency 必须 >= 1", ErrInvalidConfig)
	case c.RDAP.TimeoutSeconds < 1:
		return fmt.Errorf("%w: rdap.timeoutSeconds 必须 >= 1", ErrInvalidConfig)
	case c.Schedule.Hour < 0 || c.Schedule.Hour > 23 || c.Schedule.Minute < 0 || c.Schedule.Minute > 59:
		return fmt.Errorf("%w: schedule 时间无效", ErrInvalidConfig)
	}
	return nil
}
