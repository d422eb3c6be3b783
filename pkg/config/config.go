package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	RedisAddress string
	Port         string
	IsProduction bool

	// Run exclusivity lease (see internal/repositories/runlock).
	RunLeaseTTL time.Duration

	// Rate limit applied to the run trigger routes, in ulule/limiter notation.
	RunTriggerRateLimit string

	// Defaults for a metrics run; each can be overridden per run request.
	RunConcurrency     int
	RFMBuckets         int
	NewCustomerDays    int
	SleepDaysThreshold int
	ChurnDaysThreshold int
	CLVHorizonMonths   int
	TrendWindowPeriods int
	MarginPercent      float64
	ProbAlivePrior     float64
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("REDIS_ADDRESS", "localhost:6379")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("RUN_LEASE_TTL", "15m")
	viper.SetDefault("RUN_TRIGGER_RATE_LIMIT", "10-M")
	viper.SetDefault("RUN_CONCURRENCY", 8)
	viper.SetDefault("RFM_BUCKETS", 5)
	viper.SetDefault("NEW_CUSTOMER_DAYS", 30)
	viper.SetDefault("SLEEP_DAYS_THRESHOLD", 90)
	viper.SetDefault("CHURN_DAYS_THRESHOLD", 180)
	viper.SetDefault("CLV_HORIZON_MONTHS", 12)
	viper.SetDefault("TREND_WINDOW_PERIODS", 6)
	viper.SetDefault("MARGIN_PERCENT", 0.3)
	viper.SetDefault("PROB_ALIVE_PRIOR", 0.5)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.RedisAddress = viper.GetString("REDIS_ADDRESS")
	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	leaseTTLStr := viper.GetString("RUN_LEASE_TTL")
	leaseTTL, err := time.ParseDuration(leaseTTLStr)
	if err != nil {
		leaseTTL = 15 * time.Minute
		log.Printf("Warning: Invalid value for RUN_LEASE_TTL ('%s'). Defaulting to %s.\n", leaseTTLStr, leaseTTL)
	}
	cfg.RunLeaseTTL = leaseTTL

	cfg.RunTriggerRateLimit = viper.GetString("RUN_TRIGGER_RATE_LIMIT")
	cfg.RunConcurrency = viper.GetInt("RUN_CONCURRENCY")
	cfg.RFMBuckets = viper.GetInt("RFM_BUCKETS")
	cfg.NewCustomerDays = viper.GetInt("NEW_CUSTOMER_DAYS")
	cfg.SleepDaysThreshold = viper.GetInt("SLEEP_DAYS_THRESHOLD")
	cfg.ChurnDaysThreshold = viper.GetInt("CHURN_DAYS_THRESHOLD")
	cfg.CLVHorizonMonths = viper.GetInt("CLV_HORIZON_MONTHS")
	cfg.TrendWindowPeriods = viper.GetInt("TREND_WINDOW_PERIODS")
	cfg.MarginPercent = viper.GetFloat64("MARGIN_PERCENT")
	cfg.ProbAlivePrior = viper.GetFloat64("PROB_ALIVE_PRIOR")

	if cfg.SleepDaysThreshold >= cfg.ChurnDaysThreshold {
		log.Printf("Warning: SLEEP_DAYS_THRESHOLD (%d) must be below CHURN_DAYS_THRESHOLD (%d). Using defaults 90/180.\n",
			cfg.SleepDaysThreshold, cfg.ChurnDaysThreshold)
		cfg.SleepDaysThreshold = 90
		cfg.ChurnDaysThreshold = 180
	}

	return cfg, nil
}
