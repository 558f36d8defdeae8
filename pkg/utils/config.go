package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Reservation ReservationConfig
	Notify      NotifyConfig
}

type AppConfig struct {
	Name          string
	Port          string
	Debug         bool
	LogPath       string
	StorageDriver string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxConns        int32
	ConnectAttempts int
	ApplicationName string
}

// ReservationConfig controls the hold lifecycle.
type ReservationConfig struct {
	HoldDuration   time.Duration
	SweepInterval  time.Duration
	SweepBatchSize int
	ExpireTimeout  time.Duration
}

type NotifyConfig struct {
	AMQPURL    string
	Queue      string
	BufferSize int
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "travel-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_CONNECT_ATTEMPTS", 5)
	viper.SetDefault("HOLD_DURATION", "2h")
	viper.SetDefault("SWEEP_INTERVAL", "60s")
	viper.SetDefault("SWEEP_BATCH_SIZE", 100)
	viper.SetDefault("EXPIRE_TIMEOUT", "10s")
	viper.SetDefault("NOTIFY_QUEUE", "booking.events")
	viper.SetDefault("NOTIFY_BUFFER", 256)

	// .env is optional, the process environment always wins
	if err := viper.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:          viper.GetString("APP_NAME"),
			Port:          viper.GetString("PORT"),
			Debug:         viper.GetBool("DEBUG"),
			LogPath:       viper.GetString("LOG_PATH"),
			StorageDriver: viper.GetString("STORAGE_DRIVER"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetString("DB_PORT"),
			Name:            viper.GetString("DB_NAME"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASS"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt32("DB_MAX_CONNS"),
			ConnectAttempts: viper.GetInt("DB_CONNECT_ATTEMPTS"),
			ApplicationName: viper.GetString("APP_NAME"),
		},
		Reservation: ReservationConfig{
			HoldDuration:   viper.GetDuration("HOLD_DURATION"),
			SweepInterval:  viper.GetDuration("SWEEP_INTERVAL"),
			SweepBatchSize: viper.GetInt("SWEEP_BATCH_SIZE"),
			ExpireTimeout:  viper.GetDuration("EXPIRE_TIMEOUT"),
		},
		Notify: NotifyConfig{
			AMQPURL:    viper.GetString("AMQP_URL"),
			Queue:      viper.GetString("NOTIFY_QUEUE"),
			BufferSize: viper.GetInt("NOTIFY_BUFFER"),
		},
	}

	if config.Reservation.HoldDuration <= 0 {
		return nil, errors.New("HOLD_DURATION must be positive")
	}
	if config.Reservation.SweepInterval <= 0 {
		return nil, errors.New("SWEEP_INTERVAL must be positive")
	}

	return config, nil
}
