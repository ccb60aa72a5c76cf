// Package config loads service settings from defaults, an optional config
// file, a .env file, environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/HendryAvila/ikitsuke/internal/kv"
)

const (
	// EnvPrefix prefixes every environment override, e.g. IKITSUKE_STORAGE_BACKEND.
	EnvPrefix = "ikitsuke"
	// FileName is the config file name searched for without extension.
	FileName = "ikitsuke"
	// DirName is the per-user data directory under $HOME.
	DirName = ".ikitsuke"
)

// Config is the resolved service configuration.
type Config struct {
	DataDir  string
	LogLevel string

	Storage kv.Config

	OpenAI OpenAI
	Maps   Maps

	ProviderTimeout time.Duration

	NearbyRadiusKm   float64
	GateRadiusKm     float64
	AllowRecommended bool
	RefreshInterval  time.Duration

	HTTP HTTP
}

type OpenAI struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

type Maps struct {
	APIKey   string
	BaseURL  string
	Language string
}

type HTTP struct {
	Addr      string
	JWTSecret string
	TokenTTL  time.Duration
}

// defaultDataDir returns ~/.ikitsuke, or ./.ikitsuke when $HOME is unknown.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}
	return filepath.Join(home, DirName)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("log_level", "info")

	v.SetDefault("storage.backend", kv.BackendSQLite)
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.prefix", "ikitsuke:")
	v.SetDefault("storage.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("storage.mongo.database", "ikitsuke")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4-turbo")
	v.SetDefault("openai.temperature", 0.7)

	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.base_url", "")
	v.SetDefault("maps.language", "ja")

	v.SetDefault("providers.timeout", 30*time.Second)

	v.SetDefault("nearby_radius_km", 10.0)
	v.SetDefault("gate_radius_km", 10.0)
	v.SetDefault("allow_recommended", true)
	v.SetDefault("refresh_interval", 5*time.Second)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.jwt_secret", "")
	v.SetDefault("http.token_ttl", 24*time.Hour)
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"data-dir":  "data_dir",
	"storage":   "storage.backend",
	"log-level": "log_level",
	"addr":      "http.addr",
}

// Load resolves the configuration. file may be empty to search the default
// locations; flags may be nil. A missing default config file is not an
// error; a missing explicit one is.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, DirName))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) || file != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The providers' conventional variable names are honored as well.
	if err := v.BindEnv("openai.api_key", "IKITSUKE_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("maps.api_key", "IKITSUKE_MAPS_API_KEY", "GOOGLE_MAPS_API_KEY"); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	dataDir := expandHome(v.GetString("data_dir"))
	return &Config{
		DataDir:  dataDir,
		LogLevel: v.GetString("log_level"),
		Storage: kv.Config{
			Backend:       strings.ToLower(v.GetString("storage.backend")),
			DataDir:       dataDir,
			RedisAddr:     v.GetString("storage.redis.addr"),
			RedisPassword: v.GetString("storage.redis.password"),
			RedisDB:       v.GetInt("storage.redis.db"),
			RedisPrefix:   v.GetString("storage.redis.prefix"),
			MongoURI:      v.GetString("storage.mongo.uri"),
			MongoDatabase: v.GetString("storage.mongo.database"),
		},
		OpenAI: OpenAI{
			APIKey:      v.GetString("openai.api_key"),
			BaseURL:     v.GetString("openai.base_url"),
			Model:       v.GetString("openai.model"),
			Temperature: float32(v.GetFloat64("openai.temperature")),
		},
		Maps: Maps{
			APIKey:   v.GetString("maps.api_key"),
			BaseURL:  v.GetString("maps.base_url"),
			Language: v.GetString("maps.language"),
		},
		ProviderTimeout:  v.GetDuration("providers.timeout"),
		NearbyRadiusKm:   v.GetFloat64("nearby_radius_km"),
		GateRadiusKm:     v.GetFloat64("gate_radius_km"),
		AllowRecommended: v.GetBool("allow_recommended"),
		RefreshInterval:  v.GetDuration("refresh_interval"),
		HTTP: HTTP{
			Addr:      v.GetString("http.addr"),
			JWTSecret: v.GetString("http.jwt_secret"),
			TokenTTL:  v.GetDuration("http.token_ttl"),
		},
	}
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "", kv.BackendSQLite, kv.BackendFile, kv.BackendMemory, kv.BackendRedis, kv.BackendMongo:
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	if c.NearbyRadiusKm <= 0 || c.GateRadiusKm <= 0 {
		return fmt.Errorf("config: radii must be positive (nearby %v, gate %v)", c.NearbyRadiusKm, c.GateRadiusKm)
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		return fmt.Errorf("config: openai.temperature %v out of range [0, 2]", c.OpenAI.Temperature)
	}
	if c.ProviderTimeout < 0 {
		return fmt.Errorf("config: providers.timeout must not be negative")
	}
	return nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
