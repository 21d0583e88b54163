package bootstrap

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	RedisUrl           string        `mapstructure:"REDIS_URL"`
	MongoUri           string        `mapstructure:"MONGO_URI"`
	MongoDatabase      string        `mapstructure:"MONGO_DATABASE"`
	IsLocalCors        bool          `mapstructure:"LOCAL_CORS"`
	CorsOrigins        []string      `mapstructure:"CORS_ORIGINS"`
	SessionTTL         time.Duration `mapstructure:"SESSION_TTL"`
	ResponseCacheTTL   time.Duration `mapstructure:"RESPONSE_CACHE_TTL"`
	HoverResampleDelay time.Duration `mapstructure:"HOVER_RESAMPLE_DELAY"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "explorer")
	v.SetDefault("LOCAL_CORS", false)
	v.SetDefault("CORS_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	v.SetDefault("SESSION_TTL", 11*time.Hour)
	v.SetDefault("RESPONSE_CACHE_TTL", 10*time.Minute)
	v.SetDefault("HOVER_RESAMPLE_DELAY", 100*time.Millisecond)
}

// Setup reads cfgPath and lets the environment override it. A missing file
// leaves the defaults and the environment.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetConfigFile(cfgPath)
	v.SetConfigType("env")

	err := v.ReadInConfig()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var cfg Config

	err = v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
