package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Addr    string        `mapstructure:"addr"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Storage StorageConfig `mapstructure:"storage"`
	SMTP    SMTPConfig    `mapstructure:"smtp"`
	Pending PendingConfig `mapstructure:"pending"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type StorageConfig struct {
	Path          string        `mapstructure:"path"`
	TempMaxAge    time.Duration `mapstructure:"temp_max_age"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type PendingConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

func Load() (*Config, error) {
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/configs")
	viper.SetConfigName("settings")
	viper.SetConfigType("yml")

	viper.SetDefault("addr", ":8080")
	viper.SetDefault("storage.path", "./data")
	viper.SetDefault("storage.temp_max_age", 24*time.Hour)
	viper.SetDefault("storage.sweep_interval", time.Hour)
	viper.SetDefault("pending.ttl", 24*time.Hour)

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
