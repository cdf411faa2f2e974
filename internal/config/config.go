package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	SessionSecret []byte
	DataDir       string
	UploadDir     string
	TemplateDir   string
	ModelPath     string

	// SMTP settings for the contact form. Mail is disabled when no
	// host is configured; sending then fails with a transport error
	// that handlers surface as a notice.
	MailHost     string
	MailPort     int
	MailUsername string
	MailPassword string
}

func (c *Config) UsersPath() string {
	return filepath.Join(c.DataDir, "users.json")
}

func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "history.json")
}

func (c *Config) CategorizedPath() string {
	return filepath.Join(c.DataDir, "categorized_output.csv")
}

func (c *Config) MailEnabled() bool {
	return c.MailHost != ""
}

func LoadConfig() (*Config, error) {
	// A .env file is optional; variables already in the environment win.
	_ = godotenv.Load()

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is not set")
	}

	config := &Config{
		Port:          getEnvOrDefault("PORT", "8080"),
		SessionSecret: []byte(secret),
		DataDir:       getEnvOrDefault("DATA_DIR", "data"),
		UploadDir:     getEnvOrDefault("UPLOAD_DIR", "uploads"),
		TemplateDir:   getEnvOrDefault("TEMPLATE_DIR", "templates"),
		MailHost:      os.Getenv("MAIL_HOST"),
		MailPort:      587,
		MailUsername:  os.Getenv("MAIL_USERNAME"),
		MailPassword:  os.Getenv("MAIL_PASSWORD"),
	}
	config.ModelPath = getEnvOrDefault("MODEL_PATH", filepath.Join(config.DataDir, "model.json"))

	if portStr := os.Getenv("MAIL_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid MAIL_PORT %q: %w", portStr, err)
		}
		config.MailPort = port
	}

	return config, nil
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
