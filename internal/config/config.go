// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"flight_monitor/internal/model"
)

const (
	defaultRoutes = "MDZ-SLA:30:Mendoza - Salta,EZE-MAD:45:Buenos Aires - Madrid,EZE-BCN:45:Buenos Aires - Barcelona,COR-EZE:20:Cordoba - Buenos Aires"
	defaultFeeds  = "https://www.secretflying.com/feed/,https://www.fly4free.com/feed/"

	// Storage backends.
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	// Web search
	BraveAPIKey     string
	BraveURL        string
	SearchCountry   string
	SearchLang      string
	SearchFreshness string
	SearchResults   int
	SearchTimeout   time.Duration

	// Text generation
	OllamaURL     string
	Model         string
	LLMTimeout    time.Duration
	EvaluateDeals bool

	// Monitoring
	Routes         []model.Route
	CheckInterval  time.Duration
	AlertThreshold int
	PriceFloorUSD  float64
	KnownMaxAge    time.Duration

	// Deal feeds
	DealFeeds   []string
	FeedExclude []string

	// State
	StateDir       string
	StorageBackend string
	DatabasePath   string

	// Notifications
	DesktopNotify    bool
	NotifyCommand    string
	OpenURL          bool
	NotifyGap        time.Duration
	TelegramBotToken string
	TelegramChatIDs  []int64
	AllowedUsers     []int64

	// Logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from the environment, with a .env file as
// fallback, and validates it.
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Parse reads configuration without checking required settings. Tools that
// only inspect local state use it directly.
func Parse() (*Config, error) {
	_ = godotenv.Load()

	routes, err := ParseRoutes(getEnv("ROUTES", defaultRoutes))
	if err != nil {
		return nil, err
	}
	chatIDs, err := parseIDs("TELEGRAM_CHAT_IDS")
	if err != nil {
		return nil, err
	}
	allowed, err := parseIDs("ALLOWED_USERS")
	if err != nil {
		return nil, err
	}

	stateDir := getEnv("STATE_DIR", defaultStateDir())

	return &Config{
		BraveAPIKey:     os.Getenv("BRAVE_API_KEY"),
		BraveURL:        getEnv("BRAVE_URL", "https://api.search.brave.com/res/v1/web/search"),
		SearchCountry:   getEnv("SEARCH_COUNTRY", "AR"),
		SearchLang:      getEnv("SEARCH_LANG", "es"),
		SearchFreshness: getEnv("SEARCH_FRESHNESS", "pw"),
		SearchResults:   getEnvInt("SEARCH_RESULTS", 15),
		SearchTimeout:   time.Duration(getEnvInt("SEARCH_TIMEOUT_SECONDS", 30)) * time.Second,

		OllamaURL:     strings.TrimRight(getEnv("OLLAMA_URL", "http://localhost:11434"), "/"),
		Model:         getEnv("DEFAULT_MODEL", "llama3.1:8b"),
		LLMTimeout:    time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		EvaluateDeals: getEnvBool("EVALUATE_DEALS", false),

		Routes:         routes,
		CheckInterval:  time.Duration(getEnvInt("CHECK_INTERVAL_MINUTES", 5)) * time.Minute,
		AlertThreshold: getEnvInt("ALERT_THRESHOLD", 90),
		PriceFloorUSD:  getEnvFloat("PRICE_FLOOR_USD", 200),
		KnownMaxAge:    time.Duration(getEnvInt("KNOWN_MAX_AGE_DAYS", 30)) * 24 * time.Hour,

		DealFeeds:   splitList(getEnv("DEAL_FEEDS", defaultFeeds)),
		FeedExclude: splitList(os.Getenv("FEED_EXCLUDE")),

		StateDir:       stateDir,
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendJSON)),
		DatabasePath:   getEnv("DATABASE_PATH", filepath.Join(stateDir, "monitor.db")),

		DesktopNotify:    getEnvBool("DESKTOP_NOTIFY", true),
		NotifyCommand:    getEnv("NOTIFY_COMMAND", "notify-send"),
		OpenURL:          getEnvBool("OPEN_URL", false),
		NotifyGap:        time.Duration(getEnvInt("NOTIFY_GAP_SECONDS", 2)) * time.Second,
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatIDs:  chatIDs,
		AllowedUsers:     allowed,

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),
	}, nil
}

// Validate checks that required configuration values are set and valid.
func (c *Config) Validate() error {
	if c.BraveAPIKey == "" {
		return fmt.Errorf("BRAVE_API_KEY is required")
	}
	if len(c.Routes) == 0 {
		return fmt.Errorf("ROUTES must name at least one route")
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("CHECK_INTERVAL_MINUTES must be positive")
	}
	if c.AlertThreshold < 0 || c.AlertThreshold > 100 {
		return fmt.Errorf("ALERT_THRESHOLD must be between 0 and 100")
	}
	if c.SearchResults < 1 || c.SearchResults > 20 {
		return fmt.Errorf("SEARCH_RESULTS must be between 1 and 20")
	}
	if c.KnownMaxAge < 0 {
		return fmt.Errorf("KNOWN_MAX_AGE_DAYS must not be negative")
	}
	if c.StorageBackend != BackendJSON && c.StorageBackend != BackendSQLite {
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q", BackendJSON, BackendSQLite)
	}
	if c.TelegramBotToken != "" && len(c.TelegramChatIDs) == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_IDS is required when TELEGRAM_BOT_TOKEN is set")
	}
	return nil
}

// HistoryPath is the price history file of the JSON backend.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.StateDir, "price_history.json")
}

// StatePath is the known deals file of the JSON backend.
func (c *Config) StatePath() string {
	return filepath.Join(c.StateDir, "state.json")
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	return slices.Contains(c.AllowedUsers, userID)
}

// ParseRoutes parses a comma-separated list of ORIGIN-DESTINATION[:days[:name]].
// Days ahead defaults to 30.
func ParseRoutes(raw string) ([]model.Route, error) {
	var routes []model.Route
	for _, item := range splitList(raw) {
		parts := strings.SplitN(item, ":", 3)
		origin, dest, err := model.ParseRoute(parts[0])
		if err != nil {
			return nil, fmt.Errorf("parse ROUTES: %w", err)
		}
		r := model.Route{Origin: origin, Destination: dest, DaysAhead: 30}
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			days, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err != nil || days < 0 {
				return nil, fmt.Errorf("parse ROUTES: invalid days ahead %q for %s", parts[1], r.Key())
			}
			r.DaysAhead = days
		}
		if len(parts) > 2 {
			r.Name = strings.TrimSpace(parts[2])
		}
		routes = append(routes, r)
	}
	return routes, nil
}

func parseIDs(key string) ([]int64, error) {
	var ids []int64
	for _, s := range splitList(os.Getenv(key)) {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ID %q in %s: %w", s, key, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "flight-monitor")
	}
	return filepath.Join(home, ".config", "flight-monitor")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
