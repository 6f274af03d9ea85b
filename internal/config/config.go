package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	StoreBackend  string // sqlite | redis
	DBDSN         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	JWTSecret     string
	TokenTTL      time.Duration
	LogFile       string
	AdminEmail    string
	AdminPassword string
	AutoReorder   bool
	RateLimit     int // requests per minute per IP
	LoginLimit    int // login attempts per 10 minutes per IP
}

const devJWTSecret = "honeypos-dev-secret-change-me-0123456789"

func Load() Config {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		log.Println("[config] no .env file found; using process environment")
	}

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		StoreBackend:  getEnv("STORE_BACKEND", "sqlite"),
		DBDSN:         getEnv("DB_DSN", "honeypos.db"), // sqlite file in project root
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),
		JWTSecret:     getEnv("JWT_SECRET", devJWTSecret),
		TokenTTL:      getDuration("TOKEN_TTL", 12*time.Hour),
		LogFile:       getEnv("LOG_FILE", "./honeypos.log"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@honeypos.local"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "Passw0rd!"),
		AutoReorder:   getBool("AUTO_REORDER", false),
		RateLimit:     getInt("RATE_LIMIT", 60),
		LoginLimit:    getInt("LOGIN_LIMIT", 5),
	}

	if cfg.JWTSecret == devJWTSecret {
		log.Println("[config] [warn] JWT_SECRET not set, using the development secret")
	}
	if os.Getenv("ADMIN_PASSWORD") == "" {
		log.Println("[config] [warn] ADMIN_PASSWORD not set, seeded admin uses the default password")
	}
	log.Printf("[config] PORT=%s STORE_BACKEND=%s DB_DSN=%s REDIS_ADDR=%s LOG_FILE=%s AUTO_REORDER=%t",
		cfg.Port, cfg.StoreBackend, cfg.DBDSN, cfg.RedisAddr, cfg.LogFile, cfg.AutoReorder)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
