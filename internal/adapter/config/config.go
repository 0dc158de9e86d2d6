package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Database *Database
	HTTP     *HTTP
	Redis    *Redis
	Notify   *Notify
	App      *App
}

const AppModeProduction = "PROD"
const AppModeDevelop = "DEV"

type App struct {
	LogLevel string `env:"LOG_LEVEL"`
	Mode     string `env:"APP_MODE"`
	// FreeItemImmediate debits free-item redemptions when applied instead of at confirmation.
	FreeItemImmediate bool `env:"LOYALTY_FREE_ITEM_IMMEDIATE"`
	// StaffCode grants the staff role at registration. Empty disables it.
	StaffCode string `env:"STAFF_CODE"`
}

// Database with an empty DSN selects the in-memory storage.
type Database struct {
	DSN string `env:"DATABASE_URI"`
}

type HTTP struct {
	HostString string `env:"RUN_ADDRESS"`
}

// Redis with an empty Addr selects the log-only notifier.
type Redis struct {
	Addr    string `env:"REDIS_ADDR"`
	Channel string `env:"NOTIFY_CHANNEL"`
}

type Notify struct {
	Workers   int `env:"NOTIFY_WORKERS"`
	QueueSize int `env:"NOTIFY_QUEUE"`
}

func NewConfig() (*Config, error) {
	return parse(flag.CommandLine, os.Args[1:])
}

func parse(fs *flag.FlagSet, args []string) (*Config, error) {
	var db Database
	var http HTTP
	var redis Redis
	var notify Notify
	var app App

	fs.StringVar(&db.DSN, "d", "", "Database string")
	fs.StringVar(&http.HostString, "a", `localhost:8080`, "HTTP server endpoint")
	fs.StringVar(&redis.Addr, "r", "", "Redis address for notifications")
	fs.StringVar(&redis.Channel, "c", `campuscafe.events`, "Redis notification channel")
	fs.IntVar(&notify.Workers, "w", 2, "Notification workers")
	fs.IntVar(&notify.QueueSize, "q", 100, "Notification queue size")
	fs.StringVar(&app.LogLevel, "l", `error`, "Log level")
	fs.StringVar(&app.Mode, "m", AppModeDevelop, "PROD / DEV")
	fs.BoolVar(&app.FreeItemImmediate, "free-item-immediate", false,
		"Debit free-item redemptions when applied")
	fs.StringVar(&app.StaffCode, "staff-code", "", "Registration code for staff accounts")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	err := env.Parse(&db)
	if err != nil {
		return nil, fmt.Errorf("error parsing env database config: %w", err)
	}
	err = env.Parse(&http)
	if err != nil {
		return nil, fmt.Errorf("error parsing http config: %w", err)
	}
	err = env.Parse(&redis)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis config: %w", err)
	}
	err = env.Parse(&notify)
	if err != nil {
		return nil, fmt.Errorf("error parsing notify config: %w", err)
	}
	err = env.Parse(&app)
	if err != nil {
		return nil, fmt.Errorf("error parsing app config: %w", err)
	}

	if notify.Workers < 1 {
		return nil, fmt.Errorf("notify workers must be positive, got %d", notify.Workers)
	}
	if notify.QueueSize < 0 {
		return nil, fmt.Errorf("notify queue size must not be negative, got %d", notify.QueueSize)
	}

	config := Config{
		Database: &db,
		HTTP:     &http,
		Redis:    &redis,
		Notify:   &notify,
		App:      &app,
	}

	return &config, nil
}
