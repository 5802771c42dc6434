// Package config loads environment variables & the config.yaml file into
// typed config structs covering the app, http server, database, cache,
// queue, waking agent, presence detector and logger.
package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// AppConfig contains every configurable knob of a wakequeue deployment
type (
	AppConfig struct {
		App      *App      `mapstructure:"app"`
		HTTP     *HTTP     `mapstructure:"http"`
		DB       *DB       `mapstructure:"db"`
		Redis    *Redis    `mapstructure:"redis"`
		MQ       *MQ       `mapstructure:"mq"`
		Agent    *Agent    `mapstructure:"agent"`
		Presence *Presence `mapstructure:"presence"`
		Logger   *Logger   `mapstructure:"logger"`
	}

	// App contains application identity variables
	App struct {
		Name string `mapstructure:"name"`
		Env  string `mapstructure:"env"`
	}

	// HTTP contains the API server variables
	HTTP struct {
		Addr       string   `mapstructure:"addr"`
		AgentToken string   `mapstructure:"agentToken"`
		Origins    []string `mapstructure:"origins"`
	}

	// DB contains all the environment variables for the database
	DB struct {
		Connection string `mapstructure:"connection"`
		Host       string `mapstructure:"host"`
		Port       string `mapstructure:"port"`
		User       string `mapstructure:"user"`
		Password   string `mapstructure:"password"`
		Name       string `mapstructure:"name"`
	}

	// Redis contains all the environment variables for the cache service
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	}

	// MQ contains the RabbitMQ variables for the task-created nudge channel
	MQ struct {
		User  string `mapstructure:"user"`
		Pass  string `mapstructure:"pass"`
		Host  string `mapstructure:"host"`
		Port  string `mapstructure:"port"`
		Vhost string `mapstructure:"vhost"`
	}

	// Agent contains the waking agent variables
	Agent struct {
		PollInterval   string `mapstructure:"pollInterval"`
		ClaimLimit     int    `mapstructure:"claimLimit"`
		ConfirmTimeout string `mapstructure:"confirmTimeout"`
		BroadcastAddr  string `mapstructure:"broadcastAddr"`
	}

	// Presence contains the Prometheus presence detector variables
	Presence struct {
		PrometheusURL string `mapstructure:"prometheusUrl"`
		QueryTemplate string `mapstructure:"queryTemplate"`
		SeenTTL       string `mapstructure:"seenTtl"`
	}

	// Logger contains all the environment variables for the logger
	Logger struct {
		Level             string                `mapstructure:"level"`
		Development       bool                  `mapstructure:"development"`
		DisableStacktrace bool                  `mapstructure:"disableStacktrace"`
		Encoding          string                `mapstructure:"encoding"`
		EncoderConfig     zapcore.EncoderConfig `mapstructure:"encoderConfig"`
	}
)

// addZapEncoderConfig fills encoder config with zapcore types
func addZapEncoderConfig(cfg *zapcore.EncoderConfig) {
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.SecondsDurationEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	cfg.EncodeName = func(s string, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString("[" + s + "]")
	}
}

// New creates a new AppConfig instance
func New() *AppConfig {
	// Set up viper to read the config.yaml file
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/wakequeue/")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("env")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Fatalf("config file not found: %v", err)
		} else {
			log.Fatalf("error reading config file: %v", err)
		}
	}

	// Bind DB variables
	viper.BindEnv("db.host", "PG_HOST")
	viper.BindEnv("db.port", "PG_PORT")
	viper.BindEnv("db.user", "PG_USER")
	viper.BindEnv("db.password", "PG_PASS")
	viper.BindEnv("db.name", "PG_DB")

	// Bind Redis variables
	viper.BindEnv("redis.addr", "REDIS_ADDR")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Bind RabbitMQ variables
	viper.BindEnv("mq.user", "MQ_USER")
	viper.BindEnv("mq.pass", "MQ_PASS")
	viper.BindEnv("mq.host", "MQ_HOST")
	viper.BindEnv("mq.port", "MQ_PORT")

	// Bind HTTP variables
	viper.BindEnv("http.addr", "HTTP_ADDR")
	viper.BindEnv("http.agentToken", "AGENT_TOKEN")

	// Create an instance of AppConfig
	var config *AppConfig
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("unable to decode into struct: %v", err)
	}
	addZapEncoderConfig(&config.Logger.EncoderConfig)

	return config
}
