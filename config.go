package main

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type SMTPConfig struct {
	Host    string
	Port    string
	User    string
	Pass    string
	ToEmail string
}

type Config struct {
	Port          string
	DatabasePath  string
	ContentFile   string
	GitHubAPIURL  string
	GitHubTimeout time.Duration
	AdminUsername string
	AdminPassword string
	SMTP          SMTPConfig
}

// loadConfig reads configuration from the environment, after loading a
// .env file when one is present.
func loadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := Config{
		Port:          getenv("PORT", "8080"),
		DatabasePath:  getenv("DATABASE_PATH", "portfolio.db"),
		ContentFile:   os.Getenv("CONTENT_FILE"),
		GitHubAPIURL:  os.Getenv("GITHUB_API_URL"),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SMTP: SMTPConfig{
			Host:    getenv("SMTP_HOST", "smtp.gmail.com"),
			Port:    getenv("SMTP_PORT", "587"),
			User:    os.Getenv("SMTP_USER"),
			Pass:    os.Getenv("SMTP_PASS"),
			ToEmail: os.Getenv("TO_EMAIL"),
		},
	}

	if v := os.Getenv("GITHUB_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("Ignoring invalid GITHUB_TIMEOUT %q: %v", v, err)
		} else {
			cfg.GitHubTimeout = d
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
