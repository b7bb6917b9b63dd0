package config

import (
	"os"
	"strconv"
)

type Config struct {
	Addr        string
	JWTSecret   string
	JWTTTLMin   int
	DBDriver    string // "sqlite" or "postgres"
	SQLiteDSN   string
	PostgresDSN string
	OTPDigits   int
	OTPTTLSec   int
	// SendGrid config for OTP mail
	SendGridAPIKey string
	SendGridFrom   string
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val != "" {
		return val
	}
	return def
}

func MustLoad() Config {
	jwtttl, _ := strconv.Atoi(getenv("JWT_TTL_MIN", "10080"))
	otpdigit, _ := strconv.Atoi(getenv("OTP_DIGITS", "6"))
	otpttl, _ := strconv.Atoi(getenv("OTP_TTL_SEC", "300"))

	cfg := Config{
		Addr:           getenv("HTTP_ADDR", ":8080"),
		JWTSecret:      getenv("JWT_SECRET", ""),
		JWTTTLMin:      jwtttl,
		DBDriver:       getenv("DB_DRIVER", "sqlite"),
		SQLiteDSN:      getenv("SQLITE_DSN", "file:chatapp.db?_pragma=foreign_keys(ON)"),
		PostgresDSN:    getenv("POSTGRES_DSN", ""),
		OTPDigits:      otpdigit,
		OTPTTLSec:      otpttl,
		SendGridAPIKey: getenv("SENDGRID_API_KEY", ""),
		SendGridFrom:   getenv("SENDGRID_FROM", ""),
	}
	return cfg
}
