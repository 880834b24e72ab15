package main

import (
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"opsboard/storage"
)

type config struct {
	Debug bool

	BaserowURL   string
	BaserowToken string
	PageSize     int
	Tables       storage.Tables

	SessionSecret string
	DashboardPIN  string
	SessionTTL    time.Duration
	SecureCookie  bool

	RedisConn   string
	RowCacheTTL time.Duration
	DeduperTTL  time.Duration

	StorageConn   string
	SettingsTable string

	RefreshInterval time.Duration
	ReloadTimeout   time.Duration

	AllowedOrigins []string
	TrustProxy     bool
	ListenAddr     string
}

func loadConfig() config {
	cfg := config{
		BaserowURL:    os.Getenv("BASEROW_URL"),
		BaserowToken:  os.Getenv("BASEROW_TOKEN"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		DashboardPIN:  os.Getenv("DASHBOARD_PIN"),
		RedisConn:     os.Getenv("REDIS_CONNECTION_STRING"),
		StorageConn:   os.Getenv("STORAGE_CONNECTION_STRING"),
		SettingsTable: os.Getenv("SETTINGS_TABLE"),
		ListenAddr:    ":8080",
	}
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		cfg.Debug = true
	}
	if cfg.BaserowURL == "" || cfg.BaserowToken == "" {
		log.Fatal("missing database config")
	}
	if cfg.SessionSecret == "" || cfg.DashboardPIN == "" {
		log.Fatal("missing session config")
	}

	cfg.PageSize = envInt("BASEROW_PAGE_SIZE", 200, 1)
	def := storage.DefaultTables
	cfg.Tables = storage.Tables{
		Instruments:   envInt("TABLE_INSTRUMENTS", def.Instruments, 1),
		Customers:     envInt("TABLE_CUSTOMERS", def.Customers, 1),
		Rentals:       envInt("TABLE_RENTALS", def.Rentals, 1),
		PricingModels: envInt("TABLE_PRICING_MODELS", def.PricingModels, 1),
		Offers:        envInt("TABLE_OFFERS", def.Offers, 1),
		Tasks:         envInt("TABLE_TASKS", def.Tasks, 0),
	}

	cfg.SessionTTL = envDur("SESSION_TTL", 7*24*time.Hour, false)
	cfg.SecureCookie = envBool("SESSION_COOKIE_SECURE", true)
	cfg.RowCacheTTL = envDur("ROW_CACHE_TTL", 30*time.Second, false)
	cfg.DeduperTTL = envDur("DEDUPER_TTL", 24*time.Hour, false)
	cfg.RefreshInterval = envDur("REFRESH_INTERVAL", 0, true)
	cfg.ReloadTimeout = envDur("RELOAD_TIMEOUT", time.Minute, false)

	cfg.AllowedOrigins = []string{"*"}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	cfg.TrustProxy = envBool("TRUST_PROXY_HEADERS", false)
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		cfg.ListenAddr = ":" + val
	}
	return cfg
}

func envInt(name string, def, minVal int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", name, err)
	}
	if n < minVal {
		log.Fatalf("invalid %s: must be at least %d", name, minVal)
	}
	return n
}

// envDur parses a duration variable. Zero is accepted only when allowZero is set.
func envDur(name string, def time.Duration, allowZero bool) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", name, err)
	}
	if d < 0 || (d == 0 && !allowZero) {
		log.Fatalf("invalid %s: must be greater than zero", name)
	}
	return d
}

func envBool(name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", name, err)
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// redisOptions accepts a redis:// URL or the "host:port,password=..,ssl=true"
// connection string format of hosted caches.
func redisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(strings.TrimSpace(kv[1]), "true") {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}

// ipExtractor picks the client address used for login rate limiting. Forwarded
// headers are honoured only behind a trusted proxy; otherwise the TCP peer wins.
func ipExtractor(trustProxy bool) echo.IPExtractor {
	if trustProxy {
		return echo.ExtractIPFromXFFHeader()
	}
	return echo.ExtractIPDirect()
}
