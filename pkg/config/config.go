package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLSec   int
}

type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type AuthConfig struct {
	JWTSecret   string
	TokenTTLMin int
	BcryptCost  int
}

type RateLimitConfig struct {
	Enabled              bool
	MaxRequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/exportai")

	viper.SetEnvPrefix("EXPORTAI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 60)
	viper.SetDefault("server.bodyLimit", 4194304)

	viper.SetDefault("sqlite.path", "./data/exportai.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlSec", 300)

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.maxTokens", 4096)
	viper.SetDefault("llm.timeoutSec", 60)

	viper.SetDefault("auth.jwtSecret", "")
	viper.SetDefault("auth.tokenTTLMin", 1440)
	viper.SetDefault("auth.bcryptCost", 10)

	viper.SetDefault("ratelimit.enabled", true)
	viper.SetDefault("ratelimit.maxRequestsPerMinute", 120)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
