package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env              string
	Port             string
	PublicBaseURL    string
	AdminPassword    string
	JWTSigningKey    string
	JWTIssuer        string
	AdminTokenTTL    time.Duration
	FontDirs         []string
	BulkWorkers      int
	MaxBulkNames     int
	MaxTemplateBytes int64
	LoginRatePerMin  int
	RateLimitPerMin  int
	RenderTimeout    time.Duration
}

// Load reads .env when present, then returns config populated from
// environment variables with sensible defaults.
func Load() App {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("ignoring .env: %v", err)
	}
	port := getEnv("PORT", "8080")
	cfg := App{
		Env:              getEnv("APP_ENV", "dev"),
		Port:             port,
		PublicBaseURL:    getEnv("PUBLIC_BASE_URL", "http://localhost:"+port),
		AdminPassword:    getEnv("ADMIN_PASSWORD", "admin123"),
		JWTSigningKey:    getEnv("JWT_SIGNING_KEY", ""),
		JWTIssuer:        getEnv("JWT_ISSUER", "certgen"),
		AdminTokenTTL:    durationEnv("ADMIN_TOKEN_TTL", 12*time.Hour),
		FontDirs:         listEnv("FONT_DIRS", nil),
		BulkWorkers:      intEnv("BULK_WORKERS", 4),
		MaxBulkNames:     intEnv("MAX_BULK_NAMES", 2000),
		MaxTemplateBytes: int64(intEnv("MAX_TEMPLATE_BYTES", 20<<20)),
		LoginRatePerMin:  intEnv("LOGIN_RATE_PER_MIN", 10),
		RateLimitPerMin:  intEnv("RATE_LIMIT_PER_MIN", 240),
		RenderTimeout:    durationEnv("RENDER_TIMEOUT", 20*time.Second),
	}
	if cfg.JWTSigningKey == "" {
		cfg.JWTSigningKey = randomKey()
		log.Println("JWT_SIGNING_KEY not set, admin sessions end on restart")
	}
	if cfg.AdminPassword == "admin123" {
		log.Println("ADMIN_PASSWORD not set, using the default password")
	}
	return cfg
}

// Production reports whether the service runs in production mode.
func (a App) Production() bool {
	return a.Env == "production" || a.Env == "prod"
}

func randomKey() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	return hex.EncodeToString(b)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func listEnv(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	out := []string{}
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil && parsed > 0 {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
