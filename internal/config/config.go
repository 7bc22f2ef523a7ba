/**
 * @description
 * Configuration management for the billing service. Settings come from
 * environment variables (or a local .env file loaded in main), with defaults
 * for ports, cron schedules and billing parameters.
 */
package config

import (
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	APIHost     string `mapstructure:"API_HOST"`

	BradescoSandbox        bool   `mapstructure:"BRADESCO_SANDBOX"`
	BradescoClientID       string `mapstructure:"BRADESCO_CLIENT_ID"`
	BradescoPrivateKeyPath string `mapstructure:"BRADESCO_PRIVATE_KEY_PATH"`
	BradescoNegotiation    string `mapstructure:"BRADESCO_NEGOCIACAO"`
	BradescoAccessKey      string `mapstructure:"BRADESCO_ACESS_ESC10"`

	ResendAPIKey string `mapstructure:"RESEND_API_KEY"`
	EmailFrom    string `mapstructure:"EMAIL_FROM"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`

	TwilioAccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `mapstructure:"TWILIO_FROM_NUMBER"`

	BillingJobSchedule string `mapstructure:"BILLING_JOB_SCHEDULE"`
	MonitorJobSchedule string `mapstructure:"MONITOR_JOB_SCHEDULE"`
	BillingLeadDays    int    `mapstructure:"BILLING_LEAD_DAYS"`
	MonitorPaceMillis  int    `mapstructure:"MONITOR_PACE_MILLIS"`

	SettingsFilePath string `mapstructure:"SETTINGS_FILE_PATH"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("SERVER_PORT", "8000")
	viper.SetDefault("API_HOST", "http://localhost:8000")
	viper.SetDefault("BRADESCO_SANDBOX", true)
	viper.SetDefault("EMAIL_FROM", "iAudit <noreply@iaudit.com.br>")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("BILLING_JOB_SCHEDULE", "0 6 * * *")  // Daily at 06:00.
	viper.SetDefault("MONITOR_JOB_SCHEDULE", "0 * * * *")  // Hourly.
	viper.SetDefault("BILLING_LEAD_DAYS", 10)
	viper.SetDefault("MONITOR_PACE_MILLIS", 500)
	viper.SetDefault("SETTINGS_FILE_PATH", "data/settings.json")
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("API_HOST")
	_ = viper.BindEnv("BRADESCO_SANDBOX")
	_ = viper.BindEnv("BRADESCO_CLIENT_ID")
	_ = viper.BindEnv("BRADESCO_PRIVATE_KEY_PATH")
	_ = viper.BindEnv("BRADESCO_NEGOCIACAO")
	_ = viper.BindEnv("BRADESCO_ACESS_ESC10")
	_ = viper.BindEnv("RESEND_API_KEY")
	_ = viper.BindEnv("EMAIL_FROM")
	_ = viper.BindEnv("SMTP_HOST")
	_ = viper.BindEnv("SMTP_PORT")
	_ = viper.BindEnv("SMTP_USER")
	_ = viper.BindEnv("SMTP_PASSWORD")
	_ = viper.BindEnv("TWILIO_ACCOUNT_SID")
	_ = viper.BindEnv("TWILIO_AUTH_TOKEN")
	_ = viper.BindEnv("TWILIO_FROM_NUMBER")
	_ = viper.BindEnv("BILLING_JOB_SCHEDULE")
	_ = viper.BindEnv("MONITOR_JOB_SCHEDULE")
	_ = viper.BindEnv("BILLING_LEAD_DAYS")
	_ = viper.BindEnv("MONITOR_PACE_MILLIS")
	_ = viper.BindEnv("SETTINGS_FILE_PATH")

	err = viper.Unmarshal(&config)
	if port := os.Getenv("PORT"); port != "" {
		config.ServerPort = port
	}
	return
}
