package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"

	DefaultAPIBaseURL = "https://global-public-holiday-api.onrender.com"
)

type Config struct {
	Env        string
	Port       int
	APIBaseURL string
	Location   *time.Location

	Log      LogConfig
	Session  SessionConfig
	Redis    RedisConfig
	Snapshot SnapshotConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// SessionConfig selects where per-browser view state lives.
type SessionConfig struct {
	Backend string
	TTL     time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SnapshotConfig configures the offline snapshot job.
type SnapshotConfig struct {
	Year                int
	StoreDir            string
	GCSBucket           string
	GCPProjectID        string
	FirestoreCollection string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIBaseURL = strings.TrimRight(v.GetString("API_BASE_URL"), "/")
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}

	loc, err := loadLocation(v.GetString("APP_TIMEZONE"))
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Session = SessionConfig{
		Backend: strings.ToLower(v.GetString("SESSION_BACKEND")),
		TTL:     parseDuration(v.GetString("SESSION_TTL"), 24*time.Hour),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	year := v.GetInt("SNAPSHOT_YEAR")
	if year == 0 {
		year = time.Now().In(loc).Year()
	}
	cfg.Snapshot = SnapshotConfig{
		Year:                year,
		StoreDir:            v.GetString("STORE_DIR"),
		GCSBucket:           v.GetString("GCS_BUCKET"),
		GCPProjectID:        v.GetString("GCP_PROJECT_ID"),
		FirestoreCollection: v.GetString("FIRESTORE_COLLECTION"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_BASE_URL", DefaultAPIBaseURL)
	v.SetDefault("APP_TIMEZONE", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SESSION_BACKEND", SessionBackendMemory)
	v.SetDefault("SESSION_TTL", "24h")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SNAPSHOT_YEAR", 0)
	v.SetDefault("STORE_DIR", "disk")
	v.SetDefault("GCS_BUCKET", "")
	v.SetDefault("GCP_PROJECT_ID", "")
	v.SetDefault("FIRESTORE_COLLECTION", "events")
}

// viper reports an explicitly set but absent config file as a plain fs error.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
