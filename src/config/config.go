package config

import (
	"fmt"
	"os"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

// AppHost is the public frontend origin used when building the provider's
// success/cancel redirect URLs.
func AppHost() string {
	host := os.Getenv("APP_HOST")
	if host == "" {
		host = "https://www.stagelink.show"
	}
	return host
}

// AdminEmail receives manual-payment review requests.
func AdminEmail() string {
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "hello@stagelink.show"
	}
	return email
}

func MailFrom() string {
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "notifications@stagelink.show"
	}
	return from
}
