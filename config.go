package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samgozman/release-thread/composer"
	"github.com/samgozman/release-thread/scavenger/cos"
	"github.com/samgozman/release-thread/scavenger/fetcher"
	"github.com/samgozman/release-thread/scavenger/stereogum"
	"github.com/spf13/viper"
)

var errInvalidEnv = errors.New("invalid environment")

// Env is a structure that holds all the environment variables that are used in the app.
type Env struct {
	TelegramChannelID string        `mapstructure:"TELEGRAM_CHANNEL_ID" validate:"required"`
	TelegramBotToken  string        `mapstructure:"TELEGRAM_BOT_TOKEN" validate:"required"`
	SentryDSN         string        `mapstructure:"SENTRY_DSN" validate:"omitempty,url"`
	CosURL            string        `mapstructure:"COS_URL" validate:"required,url"`
	StereogumURL      string        `mapstructure:"SG_URL" validate:"required,url"`
	StereogumFeedURL  string        `mapstructure:"SG_FEED_URL" validate:"omitempty,url"`
	ChromePath        string        `mapstructure:"CHROME_PATH"`
	RenderTimeout     time.Duration `mapstructure:"RENDER_TIMEOUT" validate:"gt=0"`
	ScheduleHour      uint          `mapstructure:"SCHEDULE_HOUR" validate:"lte=23"`
	MessageLimit      int           `mapstructure:"MESSAGE_LIMIT" validate:"gt=0,lte=4096"`
	Environment       string        `mapstructure:"ENV"`
	RunOnce           bool          `mapstructure:"RUN_ONCE"`
}

// IsProduction reports whether the digest should be published to the channel.
func (e *Env) IsProduction() bool {
	return strings.EqualFold(e.Environment, "production")
}

var envDefaults = map[string]any{
	"TELEGRAM_CHANNEL_ID": "",
	"TELEGRAM_BOT_TOKEN":  "",
	"SENTRY_DSN":          "",
	"COS_URL":             cos.DefaultURL,
	"SG_URL":              stereogum.DefaultURL,
	"SG_FEED_URL":         "",
	"CHROME_PATH":         "",
	"RENDER_TIMEOUT":      fetcher.DefaultWait,
	"SCHEDULE_HOUR":       10,
	"MESSAGE_LIMIT":       composer.TelegramLimit,
	"ENV":                 "development",
	"RUN_ONCE":            false,
}

// LoadEnv reads the environment, overlaid on the dotenv file at path when it exists, and validates it.
func LoadEnv(path string) (*Env, error) {
	v := viper.New()
	for key, value := range envDefaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidEnv, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("%w: reading %s: %w", errInvalidEnv, path, err)
			}
		}
	}

	var env Env
	if err := v.Unmarshal(&env); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidEnv, err)
	}

	if err := validator.New().Struct(&env); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidEnv, err)
	}

	return &env, nil
}
