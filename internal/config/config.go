package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type SchedulerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type EmailConfig struct {
	From            string   `mapstructure:"from"`
	SMTPHost        string   `mapstructure:"smtp_host"`
	SMTPPort        int      `mapstructure:"smtp_port"`
	Username        string   `mapstructure:"username"`
	Password        string   `mapstructure:"password"`
	AlertRecipients []string `mapstructure:"alert_recipients"`
}

// Enabled reports whether outbound email is configured.
func (e EmailConfig) Enabled() bool {
	return e.SMTPHost != "" && e.From != ""
}

type WhatsAppConfig struct {
	APIBaseURL    string `mapstructure:"api_base_url"`
	PhoneNumberID string `mapstructure:"phone_number_id"`
	AccessToken   string `mapstructure:"access_token"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
	EventsTopic   string   `mapstructure:"events_topic"`
}

// Enabled reports whether event consumption from Kafka is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type Config struct {
	DatabaseURL    string          `mapstructure:"database_url"`
	ServerPort     string          `mapstructure:"server_port"`
	AllowedOrigins []string        `mapstructure:"allowed_origins"`
	Scheduler      SchedulerConfig `mapstructure:"scheduler"`
	Email          EmailConfig     `mapstructure:"email"`
	WhatsApp       WhatsAppConfig  `mapstructure:"whatsapp"`
	Kafka          KafkaConfig     `mapstructure:"kafka"`
}

// Load reads the configuration from a YAML file and returns a Config instance.
func Load() *Config {
	// A local .env is optional; ignore the error when absent.
	_ = godotenv.Load()

	v := viper.New()

	// Look for config in the current directory and ./config
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	// Fallback defaults
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}
	if config.DatabaseURL == "" {
		log.Fatal("database_url must be set in the config file")
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if config.Scheduler.PollInterval == 0 {
		config.Scheduler.PollInterval = time.Hour
	}
	if config.Email.SMTPPort == 0 {
		config.Email.SMTPPort = 587
	}
	if config.WhatsApp.APIBaseURL == "" {
		config.WhatsApp.APIBaseURL = "https://graph.facebook.com/v18.0"
	}
	if config.Kafka.Enabled() {
		if config.Kafka.ConsumerGroup == "" {
			config.Kafka.ConsumerGroup = "crm-automations"
		}
		if config.Kafka.EventsTopic == "" {
			config.Kafka.EventsTopic = "crm.events"
		}
	}

	return &config
}
