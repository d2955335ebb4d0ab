package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`

	// Secret signs and verifies connection tokens (HS256).
	Secret string `mapstructure:"secret"`

	ChatCooldown time.Duration `mapstructure:"chat_cooldown"`
	ChatMaxLen   int           `mapstructure:"chat_max_len"`

	// QueuePendingLimit caps in-flight video submissions per member.
	// Zero disables the cap.
	QueuePendingLimit int `mapstructure:"queue_pending_limit"`

	YoutubeAPIKey  string `mapstructure:"youtube_api_key"`
	YoutubeAPIBase string `mapstructure:"youtube_api_base"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("chat_cooldown", "1500ms")
	v.SetDefault("chat_max_len", 500)
	v.SetDefault("queue_pending_limit", 3)
	v.SetDefault("youtube_api_base", "https://www.googleapis.com/youtube/v3")

	v.SetEnvPrefix("together")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
