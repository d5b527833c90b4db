package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Weather     WeatherConfig   `mapstructure:"weather"`
	Model       ModelConfig     `mapstructure:"model"`
	Optimizer   OptimizerConfig `mapstructure:"optimizer"`
	Tariff      TariffConfig    `mapstructure:"tariff"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WeatherConfig controls the live source chain and the snapshot cache
type WeatherConfig struct {
	OpenWeatherAPIKey string `mapstructure:"openweather_api_key"`
	OpenWeatherURL    string `mapstructure:"openweather_url"`
	NASAPowerURL      string `mapstructure:"nasa_power_url"`
	RequestTimeout    string `mapstructure:"request_timeout"`
	CacheEnabled      bool   `mapstructure:"cache_enabled"`
	CacheTTL          string `mapstructure:"cache_ttl"`
}

// RequestTimeoutDuration parses the per-attempt timeout, defaulting to 10s
func (w WeatherConfig) RequestTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(w.RequestTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// CacheTTLDuration parses the snapshot cache TTL, defaulting to one hour
func (w WeatherConfig) CacheTTLDuration() time.Duration {
	d, err := time.ParseDuration(w.CacheTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// ModelConfig controls training and the active-model lifecycle
type ModelConfig struct {
	Path                string  `mapstructure:"path"`
	MinTrainingSamples  int     `mapstructure:"min_training_samples"`
	TrainingSamples     int     `mapstructure:"training_samples"`
	TrainingSeed        int64   `mapstructure:"training_seed"`
	EnsembleSize        int     `mapstructure:"ensemble_size"`
	HoldoutFraction     float64 `mapstructure:"holdout_fraction"`
	RegressionTolerance float64 `mapstructure:"regression_tolerance"`
	RidgeLambda         float64 `mapstructure:"ridge_lambda"`
}

// OptimizerConfig controls grid-search resolution and parallelism.
// Coarser steps trade accuracy for speed.
type OptimizerConfig struct {
	TiltStepDeg    float64 `mapstructure:"tilt_step_deg"`
	AzimuthStepDeg float64 `mapstructure:"azimuth_step_deg"`
	Workers        int     `mapstructure:"workers"`
}

// TariffConfig enables savings estimation on recommendations
type TariffConfig struct {
	PricePerKWh string `mapstructure:"price_per_kwh"`
	Currency    string `mapstructure:"currency"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("weather.openweather_api_key", "OPENWEATHER_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENWEATHER_API_KEY environment variable: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if config.Model.MinTrainingSamples <= 0 {
		return nil, fmt.Errorf("model.min_training_samples must be positive, got %d", config.Model.MinTrainingSamples)
	}
	if config.Model.HoldoutFraction <= 0 || config.Model.HoldoutFraction >= 1 {
		return nil, fmt.Errorf("model.holdout_fraction must be in (0, 1), got %f", config.Model.HoldoutFraction)
	}
	if config.Optimizer.TiltStepDeg <= 0 || config.Optimizer.AzimuthStepDeg <= 0 {
		return nil, fmt.Errorf("optimizer step sizes must be positive, got tilt=%f azimuth=%f",
			config.Optimizer.TiltStepDeg, config.Optimizer.AzimuthStepDeg)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "solarcast")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 25)

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Weather
	viper.SetDefault("weather.openweather_api_key", "")
	viper.SetDefault("weather.openweather_url", "https://api.openweathermap.org/data/2.5/weather")
	viper.SetDefault("weather.nasa_power_url", "https://power.larc.nasa.gov/api/temporal/daily/point")
	viper.SetDefault("weather.request_timeout", "10s")
	viper.SetDefault("weather.cache_enabled", true)
	viper.SetDefault("weather.cache_ttl", "1h")

	// Model
	viper.SetDefault("model.path", "data/solar_model.json")
	viper.SetDefault("model.min_training_samples", 100)
	viper.SetDefault("model.training_samples", 5000)
	viper.SetDefault("model.training_seed", 42)
	viper.SetDefault("model.ensemble_size", 12)
	viper.SetDefault("model.holdout_fraction", 0.2)
	viper.SetDefault("model.regression_tolerance", 0.10)
	viper.SetDefault("model.ridge_lambda", 0.1)

	// Optimizer
	viper.SetDefault("optimizer.tilt_step_deg", 5.0)
	viper.SetDefault("optimizer.azimuth_step_deg", 15.0)
	viper.SetDefault("optimizer.workers", 0)

	// Tariff
	viper.SetDefault("tariff.price_per_kwh", "")
	viper.SetDefault("tariff.currency", "USD")

	// Telemetry
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.service_name", "solarcast")
}
