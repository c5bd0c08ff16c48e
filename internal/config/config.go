package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Database   DatabaseConfig
	Cache      CacheConfig
	Forecast   ForecastConfig
	ModelStore ModelStoreConfig
	AI         AIConfig
	Drive      DriveConfig
	Log        LogConfig
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
}

// ForecastConfig carries the thresholds of the demand pipeline.
type ForecastConfig struct {
	TrainingLookbackDays int
	FeatureLookbackDays  int
	MinObservations      int
	WarmupDays           int
	MinTrainingRows      int
	ConfidenceFromFit    bool
	Workers              int
	TrendWindowDays      int
}

type ModelStoreConfig struct {
	Backend     string // filesystem, s3, redis, postgres
	Dir         string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool
	S3Prefix    string
}

type AIConfig struct {
	GeminiAPIKey string
	Model        string
}

type DriveConfig struct {
	CredentialsJSON string
	FolderID        string
	DownloadDir     string
}

type LogConfig struct {
	Level  string
	Format string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults(viper.GetViper())

		// Read from environment variables
		viper.AutomaticEnv()

		instance = fromViper(viper.GetViper())
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "stockcast")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_FORECAST_TTL_SECONDS", 300)

	v.SetDefault("FORECAST_TRAINING_LOOKBACK_DAYS", 90)
	v.SetDefault("FORECAST_FEATURE_LOOKBACK_DAYS", 60)
	v.SetDefault("FORECAST_MIN_OBSERVATIONS", 14)
	v.SetDefault("FORECAST_WARMUP_DAYS", 30)
	v.SetDefault("FORECAST_MIN_TRAINING_ROWS", 14)
	v.SetDefault("FORECAST_CONFIDENCE_FROM_FIT", false)
	v.SetDefault("FORECAST_WORKERS", 4)
	v.SetDefault("FORECAST_TREND_WINDOW_DAYS", 30)

	v.SetDefault("MODEL_STORE_BACKEND", "filesystem")
	v.SetDefault("MODEL_STORE_DIR", "./data/models")
	v.SetDefault("MODEL_STORE_S3_ENDPOINT", "")
	v.SetDefault("MODEL_STORE_S3_ACCESS_KEY", "")
	v.SetDefault("MODEL_STORE_S3_SECRET_KEY", "")
	v.SetDefault("MODEL_STORE_S3_BUCKET", "stockcast-models")
	v.SetDefault("MODEL_STORE_S3_REGION", "us-east-1")
	v.SetDefault("MODEL_STORE_S3_USE_SSL", true)
	v.SetDefault("MODEL_STORE_S3_PREFIX", "")

	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("AI_MODEL", "gemini-1.5-flash")

	v.SetDefault("GOOGLE_DRIVE_CREDENTIALS_JSON", "")
	v.SetDefault("SALES_DRIVE_FOLDER_ID", "")
	v.SetDefault("SALES_DOWNLOAD_DIR", "./data/uploads/sales")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Database: DatabaseConfig{
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Cache: CacheConfig{
			Enabled:            v.GetBool("CACHE_ENABLED"),
			RedisURL:           v.GetString("REDIS_URL"),
			RedisHost:          v.GetString("REDIS_HOST"),
			RedisPort:          v.GetString("REDIS_PORT"),
			RedisPassword:      v.GetString("REDIS_PASSWORD"),
			RedisDB:            v.GetInt("REDIS_DB"),
			ForecastTTLSeconds: v.GetInt("CACHE_FORECAST_TTL_SECONDS"),
		},
		Forecast: ForecastConfig{
			TrainingLookbackDays: v.GetInt("FORECAST_TRAINING_LOOKBACK_DAYS"),
			FeatureLookbackDays:  v.GetInt("FORECAST_FEATURE_LOOKBACK_DAYS"),
			MinObservations:      v.GetInt("FORECAST_MIN_OBSERVATIONS"),
			WarmupDays:           v.GetInt("FORECAST_WARMUP_DAYS"),
			MinTrainingRows:      v.GetInt("FORECAST_MIN_TRAINING_ROWS"),
			ConfidenceFromFit:    v.GetBool("FORECAST_CONFIDENCE_FROM_FIT"),
			Workers:              v.GetInt("FORECAST_WORKERS"),
			TrendWindowDays:      v.GetInt("FORECAST_TREND_WINDOW_DAYS"),
		},
		ModelStore: ModelStoreConfig{
			Backend:     v.GetString("MODEL_STORE_BACKEND"),
			Dir:         v.GetString("MODEL_STORE_DIR"),
			S3Endpoint:  v.GetString("MODEL_STORE_S3_ENDPOINT"),
			S3AccessKey: v.GetString("MODEL_STORE_S3_ACCESS_KEY"),
			S3SecretKey: v.GetString("MODEL_STORE_S3_SECRET_KEY"),
			S3Bucket:    v.GetString("MODEL_STORE_S3_BUCKET"),
			S3Region:    v.GetString("MODEL_STORE_S3_REGION"),
			S3UseSSL:    v.GetBool("MODEL_STORE_S3_USE_SSL"),
			S3Prefix:    v.GetString("MODEL_STORE_S3_PREFIX"),
		},
		AI: AIConfig{
			GeminiAPIKey: v.GetString("GEMINI_API_KEY"),
			Model:        v.GetString("AI_MODEL"),
		},
		Drive: DriveConfig{
			CredentialsJSON: v.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
			FolderID:        v.GetString("SALES_DRIVE_FOLDER_ID"),
			DownloadDir:     v.GetString("SALES_DOWNLOAD_DIR"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}
