package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// College-leave scope policies. Exactly one is active per deployment.
const (
	CollegeLeaveScopeGlobal      = "global"
	CollegeLeaveScopePerSemester = "per-semester"
)

// Policies for days without any attendance record.
const (
	NoRecordPolicyNotMarked    = "not-marked"
	NoRecordPolicyCollegeLeave = "college-leave"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Attendance AttendanceConfig
	Analytics  AnalyticsConfig
	Autofill   AutofillConfig
	Exports    ExportsConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AttendanceConfig holds the day-resolution rules. Resolved once at startup
// and injected into the resolver; no other code reads these keys.
type AttendanceConfig struct {
	PresentThreshold int
	CollegeLeaveScope string
	NoRecordPolicy    string
}

// AnalyticsConfig governs caching behaviour for the cross-student reads.
type AnalyticsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// AutofillConfig controls the daily college-leave materializer.
type AutofillConfig struct {
	Enabled  bool
	RunAt    string
	Interval time.Duration
}

// ExportsConfig controls the on-disk export archive and its download links.
type ExportsConfig struct {
	Dir    string
	URLTTL time.Duration
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Attendance = AttendanceConfig{
		PresentThreshold:  v.GetInt("ATTENDANCE_PRESENT_THRESHOLD"),
		CollegeLeaveScope: v.GetString("COLLEGE_LEAVE_SCOPE"),
		NoRecordPolicy:    v.GetString("NO_RECORD_POLICY"),
	}
	if cfg.Attendance.PresentThreshold <= 0 || cfg.Attendance.PresentThreshold > 5 {
		cfg.Attendance.PresentThreshold = 3
	}
	if cfg.Attendance.CollegeLeaveScope != CollegeLeaveScopePerSemester {
		cfg.Attendance.CollegeLeaveScope = CollegeLeaveScopeGlobal
	}
	if cfg.Attendance.NoRecordPolicy != NoRecordPolicyCollegeLeave {
		cfg.Attendance.NoRecordPolicy = NoRecordPolicyNotMarked
	}

	cfg.Analytics = AnalyticsConfig{
		CacheEnabled: v.GetBool("ENABLE_ANALYTICS_CACHE"),
		CacheTTL:     parseDuration(v.GetString("ANALYTICS_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Autofill = AutofillConfig{
		Enabled:  v.GetBool("ENABLE_LEAVE_AUTOFILL"),
		RunAt:    v.GetString("LEAVE_AUTOFILL_RUN_AT"),
		Interval: parseDuration(v.GetString("LEAVE_AUTOFILL_INTERVAL"), 24*time.Hour),
	}

	cfg.Exports = ExportsConfig{
		Dir:    v.GetString("EXPORTS_DIR"),
		URLTTL: parseDuration(v.GetString("EXPORT_URL_TTL"), 24*time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campus_attendance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ATTENDANCE_PRESENT_THRESHOLD", 3)
	v.SetDefault("COLLEGE_LEAVE_SCOPE", CollegeLeaveScopeGlobal)
	v.SetDefault("NO_RECORD_POLICY", NoRecordPolicyNotMarked)

	v.SetDefault("ENABLE_ANALYTICS_CACHE", false)
	v.SetDefault("ANALYTICS_CACHE_TTL", "10m")

	v.SetDefault("ENABLE_LEAVE_AUTOFILL", false)
	v.SetDefault("LEAVE_AUTOFILL_RUN_AT", "23:55")
	v.SetDefault("LEAVE_AUTOFILL_INTERVAL", "24h")

	v.SetDefault("EXPORTS_DIR", "./exports")
	v.SetDefault("EXPORT_URL_TTL", "24h")
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
