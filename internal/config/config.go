package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode     string `mapstructure:"mode"`
	LogLevel string `mapstructure:"log_level"`
	Port     int    `mapstructure:"port"`

	APIBaseURL   string `mapstructure:"api_base_url"`
	AuthToken    string `mapstructure:"auth_token"`
	StreamingURL string `mapstructure:"streaming_url"`
	UserID       string `mapstructure:"user_id"`

	AllowedSessionTypes []string      `mapstructure:"allowed_session_types"`
	DisableAutoAnswer   bool          `mapstructure:"disable_auto_answer"`
	AutoConnectSessions bool          `mapstructure:"auto_connect_sessions"`
	HTTPTimeout         time.Duration `mapstructure:"http_timeout"`
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
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 8086)
	v.SetDefault("api_base_url", "https://api.mypurecloud.com")
	v.SetDefault("streaming_url", "wss://streaming.mypurecloud.com/signaling")
	v.SetDefault("allowed_session_types", []string{})
	v.SetDefault("disable_auto_answer", false)
	v.SetDefault("auto_connect_sessions", false)
	v.SetDefault("http_timeout", "15s")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
