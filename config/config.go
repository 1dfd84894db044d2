package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via config files or the environment.
type AppConfig struct {
	AppPort        string
	JWTSecret      string
	TokenTTL       time.Duration
	RequestTimeout time.Duration
	AllowedOrigins []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database
	DBDriver          string
	DatabaseURI       string
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBMaxIdleConns    int
	DBMaxOpenConns    int
	DBConnMaxLifetime time.Duration
	// Redis for caching and token revocation
	RedisEnabled  bool
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	CacheTTL      time.Duration
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// ErrMissingJWTSecret is returned when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set in config or environment")

// legacyEnv maps viper keys (section.name) onto the unprefixed environment names also accepted.
var legacyEnv = map[string][]string{
	"app.port":          {"APP_PORT", "PORT"},
	"app.jwtsecret":     {"JWT_SECRET", "TOKEN_SECRET"},
	"app.ginmode":       {"GIN_MODE"},
	"database.uri":      {"DATABASE_URI"},
	"database.driver":   {"DB_DRIVER"},
	"database.host":     {"DB_HOST"},
	"database.port":     {"DB_PORT"},
	"database.user":     {"DB_USER"},
	"database.password": {"DB_PASSWORD"},
	"database.name":     {"DB_NAME"},
	"redis.host":        {"REDIS_HOST"},
	"redis.port":        {"REDIS_PORT"},
	"redis.password":    {"REDIS_PASSWORD"},
	"log.level":         {"LOG_LEVEL"},
}

// Load reads configuration. Precedence: defaults -> config/config.{json,yaml} -> environment.
// Environment variables use the TOPICBBS_ prefix (TOPICBBS_APP_PORT) or the legacy names in legacyEnv.
func Load(paths ...string) (AppConfig, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigName("config")
	if len(paths) == 0 {
		paths = []string{"config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("TOPICBBS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		if err := v.BindEnv(append([]string{key, "TOPICBBS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)...); err != nil {
			return AppConfig{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	cfg := AppConfig{
		AppPort:        v.GetString("app.port"),
		JWTSecret:      v.GetString("app.jwtsecret"),
		TokenTTL:       v.GetDuration("app.tokenttl"),
		RequestTimeout: v.GetDuration("app.requesttimeout"),
		AllowedOrigins: splitAndTrim(v.GetStringSlice("app.allowedorigins")),
		GinMode:        v.GetString("app.ginmode"),
		GinPath:        v.GetString("app.ginpath"),

		DBDriver:          strings.ToLower(v.GetString("database.driver")),
		DatabaseURI:       v.GetString("database.uri"),
		DBHost:            v.GetString("database.host"),
		DBPort:            v.GetString("database.port"),
		DBUser:            v.GetString("database.user"),
		DBPassword:        v.GetString("database.password"),
		DBName:            v.GetString("database.name"),
		DBMaxIdleConns:    v.GetInt("database.maxidleconns"),
		DBMaxOpenConns:    v.GetInt("database.maxopenconns"),
		DBConnMaxLifetime: v.GetDuration("database.connmaxlifetime"),

		RedisEnabled:  v.GetBool("redis.enabled"),
		RedisHost:     v.GetString("redis.host"),
		RedisPort:     v.GetInt("redis.port"),
		RedisDB:       v.GetInt("redis.db"),
		RedisPassword: v.GetString("redis.password"),
		CacheTTL:      v.GetDuration("redis.cachettl"),

		LogLevel:      strings.ToLower(v.GetString("log.level")),
		LogPath:       v.GetString("log.path"),
		LogMaxSizeMB:  v.GetInt("log.maxsizemb"),
		LogMaxBackups: v.GetInt("log.maxbackups"),
		LogMaxAgeDays: v.GetInt("log.maxagedays"),
		LogCompress:   v.GetBool("log.compress"),
	}

	if cfg.JWTSecret == "" {
		return AppConfig{}, ErrMissingJWTSecret
	}
	return cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "3000")
	v.SetDefault("app.tokenttl", time.Hour)
	v.SetDefault("app.requesttimeout", 10*time.Second)
	v.SetDefault("app.allowedorigins", []string{"*"})
	v.SetDefault("app.ginmode", "release")
	v.SetDefault("app.ginpath", "logs/gin.log")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.name", "topicbbs")
	v.SetDefault("database.maxidleconns", 5)
	v.SetDefault("database.maxopenconns", 20)
	v.SetDefault("database.connmaxlifetime", 30*time.Minute)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.cachettl", time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.maxsizemb", 100)
	v.SetDefault("log.maxbackups", 3)
	v.SetDefault("log.maxagedays", 7)
}

// splitAndTrim accepts both list values and a single comma separated string.
func splitAndTrim(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
