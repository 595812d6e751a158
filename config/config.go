package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv 只负责把 .env 读进环境变量，缺失不报错（生产用真实 env）
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}
}

type SerialConfig struct {
	Port string // 显式指定串口路径，留空则按 VID 自动发现
	VID  string // USB 厂商 ID，例如 CH340 是 "1A86"
	Baud int
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Config struct {
	Port       string
	DB         DBConfig
	RedisAddr  string
	RedisPwd   string
	WebOrigin  string
	JWTSecret  string
	SessionTTL time.Duration
	Serial     SerialConfig
	// 借出默认归还期限（天）
	DefaultLoanDays int
}

func get(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func Load() Config {
	ttl := 24 * time.Hour
	if s := os.Getenv("SESSION_TTL_SECONDS"); s != "" {
		if d, err := time.ParseDuration(s + "s"); err == nil {
			ttl = d
		}
	}
	baud := 9600
	if s := os.Getenv("SERIAL_BAUD"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			baud = n
		}
	}
	days := 7
	if s := os.Getenv("DEFAULT_LOAN_DAYS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			days = n
		}
	}
	return Config{
		Port: get("PORT", "3001"),
		DB: DBConfig{
			Host:     get("DB_HOST", "127.0.0.1"),
			Port:     get("DB_PORT", "5432"),
			User:     get("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     get("DB_NAME", "servante"),
		},
		RedisAddr:  get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:   os.Getenv("REDIS_PASSWORD"),
		WebOrigin:  get("WEB_ORIGIN", "http://localhost:5173"),
		JWTSecret:  get("JWT_SECRET", "dev-secret-change-me"),
		SessionTTL: ttl,
		Serial: SerialConfig{
			Port: os.Getenv("SERIAL_PORT"),
			VID:  get("SERIAL_VID", "1A86"),
			Baud: baud,
		},
		DefaultLoanDays: days,
	}
}
