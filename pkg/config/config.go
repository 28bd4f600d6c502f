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
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Dashboard DashboardConfig
	Calendar  CalendarConfig
	Twilio    TwilioConfig
	Planning  PlanningConfig
	Booking   BookingConfig
	Reminders ReminderConfig
}

// StoreConfig selects the persistence backend of the entity store.
type StoreConfig struct {
	Driver    string
	KeyPrefix string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig governs dashboard exposure and cache tuning.
type DashboardConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// CalendarConfig configures the Google Calendar lesson source.
type CalendarConfig struct {
	SyncEnabled  bool
	CalendarID   string
	ClientID     string
	ClientSecret string
	RefreshToken string
	Endpoint     string
}

// Configured reports whether every credential needed for calendar sync is present.
func (c CalendarConfig) Configured() bool {
	return c.CalendarID != "" && c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// TwilioConfig holds fallback credentials used when settings are empty.
type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
}

// PlanningConfig describes the calendar grid.
type PlanningConfig struct {
	Timezone     string
	StartHour    int
	EndHour      int
	CellHeight   float64
	MinRowHeight float64
	RowSpacing   float64
	MaxStack     int
}

// BookingConfig tunes booking session retention.
type BookingConfig struct {
	SessionTTL time.Duration
}

// ReminderConfig toggles the day-before lesson reminders.
type ReminderConfig struct {
	Enabled bool
	Cron    string
	Workers int
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Store = StoreConfig{
		Driver:    strings.ToLower(v.GetString("STORE_DRIVER")),
		KeyPrefix: v.GetString("STORE_KEY_PREFIX"),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dashboard = DashboardConfig{
		Enabled:  v.GetBool("ENABLE_DASHBOARD"),
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Calendar = CalendarConfig{
		SyncEnabled:  v.GetBool("CALENDAR_SYNC_ENABLED"),
		CalendarID:   v.GetString("GOOGLE_CALENDAR_ID"),
		ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		RefreshToken: v.GetString("GOOGLE_REFRESH_TOKEN"),
		Endpoint:     v.GetString("GOOGLE_CALENDAR_ENDPOINT"),
	}

	cfg.Twilio = TwilioConfig{
		AccountSID:  v.GetString("TWILIO_ACCOUNT_SID"),
		AuthToken:   v.GetString("TWILIO_AUTH_TOKEN"),
		PhoneNumber: v.GetString("TWILIO_PHONE_NUMBER"),
	}

	cfg.Planning = PlanningConfig{
		Timezone:     v.GetString("PLANNING_TIMEZONE"),
		StartHour:    v.GetInt("PLANNING_START_HOUR"),
		EndHour:      v.GetInt("PLANNING_END_HOUR"),
		CellHeight:   v.GetFloat64("PLANNING_CELL_HEIGHT"),
		MinRowHeight: v.GetFloat64("PLANNING_MIN_ROW_HEIGHT"),
		RowSpacing:   v.GetFloat64("PLANNING_ROW_SPACING"),
		MaxStack:     v.GetInt("PLANNING_MAX_STACK"),
	}
	if cfg.Planning.EndHour <= cfg.Planning.StartHour {
		return nil, errors.New("PLANNING_END_HOUR must be greater than PLANNING_START_HOUR")
	}

	cfg.Booking = BookingConfig{
		SessionTTL: parseDuration(v.GetString("BOOKING_SESSION_TTL"), 30*time.Minute),
	}

	cfg.Reminders = ReminderConfig{
		Enabled: v.GetBool("ENABLE_REMINDERS"),
		Cron:    v.GetString("REMINDER_CRON"),
		Workers: v.GetInt("REMINDER_WORKERS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("STORE_DRIVER", StoreMemory)
	v.SetDefault("STORE_KEY_PREFIX", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "autoplanning")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_DASHBOARD", true)
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")

	v.SetDefault("CALENDAR_SYNC_ENABLED", false)
	v.SetDefault("GOOGLE_CALENDAR_ID", "")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REFRESH_TOKEN", "")
	v.SetDefault("GOOGLE_CALENDAR_ENDPOINT", "")

	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_PHONE_NUMBER", "")

	v.SetDefault("PLANNING_TIMEZONE", "Europe/Paris")
	v.SetDefault("PLANNING_START_HOUR", 8)
	v.SetDefault("PLANNING_END_HOUR", 20)
	v.SetDefault("PLANNING_CELL_HEIGHT", 64)
	v.SetDefault("PLANNING_MIN_ROW_HEIGHT", 40)
	v.SetDefault("PLANNING_ROW_SPACING", 2)
	v.SetDefault("PLANNING_MAX_STACK", 3)

	v.SetDefault("BOOKING_SESSION_TTL", "30m")

	v.SetDefault("ENABLE_REMINDERS", false)
	v.SetDefault("REMINDER_CRON", "0 18 * * *")
	v.SetDefault("REMINDER_WORKERS", 1)
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

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
