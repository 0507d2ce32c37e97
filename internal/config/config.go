package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"local"`
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`
	RedisAddr   string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	HTTPServer  `yaml:"http_server"`
	Scheduling  `yaml:"scheduling"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

// Scheduling holds engine defaults. Working hours bound where a session may
// start; a session may still run past the window end.
type Scheduling struct {
	WorkingHoursStart   string        `yaml:"working_hours_start" env-default:"08:00"`
	WorkingHoursEnd     string        `yaml:"working_hours_end" env-default:"22:00"`
	SlotStepMinutes     int           `yaml:"slot_step_minutes" env-default:"30"`
	GenerateAheadDays   int           `yaml:"generate_ahead_days" env-default:"30"`
	GenerateBeforeHours int           `yaml:"generate_before_hours" env-default:"1"`
	DefaultDuration     int           `yaml:"default_duration_minutes" env-default:"60"`
	LockTTL             time.Duration `yaml:"lock_ttl" env-default:"10s"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	return &cfg
}
