package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию процесса.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	DBPath string `envconfig:"DB_PATH" default:"attendmap.sqlite"`

	SearchQuery   string   `envconfig:"SEARCH_QUERY" required:"true"`
	MatchPatterns []string `envconfig:"TWEET_MATCH_PATTERNS"`

	Twitter struct {
		AppKey    string        `envconfig:"TWITTER_APP_KEY" required:"true"`
		AppSecret string        `envconfig:"TWITTER_APP_SECRET" required:"true"`
		BaseURL   string        `envconfig:"TWITTER_BASE_URL"`
		Timeout   time.Duration `envconfig:"TWITTER_TIMEOUT" default:"30s"`
	} `envconfig:""`

	Geonames struct {
		User    string        `envconfig:"GEONAMES_USER" required:"true"`
		BaseURL string        `envconfig:"GEONAMES_BASE_URL"`
		Timeout time.Duration `envconfig:"GEONAMES_TIMEOUT" default:"15s"`
	} `envconfig:""`

	LoopInterval time.Duration `envconfig:"LOOP_INTERVAL" default:"5m"`
	MetricsAddr  string        `envconfig:"METRICS_ADDR" default:":9090"`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
