package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"flight_monitor/internal/model"
)

var envKeys = []string{
	"BRAVE_API_KEY", "BRAVE_URL", "SEARCH_COUNTRY", "SEARCH_LANG", "SEARCH_FRESHNESS",
	"SEARCH_RESULTS", "SEARCH_TIMEOUT_SECONDS", "OLLAMA_URL", "DEFAULT_MODEL",
	"LLM_TIMEOUT_SECONDS", "EVALUATE_DEALS", "ROUTES", "CHECK_INTERVAL_MINUTES",
	"ALERT_THRESHOLD", "PRICE_FLOOR_USD", "STATE_DIR", "STORAGE_BACKEND",
	"DATABASE_PATH", "KNOWN_MAX_AGE_DAYS", "DEAL_FEEDS", "FEED_EXCLUDE",
	"DESKTOP_NOTIFY", "NOTIFY_COMMAND", "OPEN_URL", "NOTIFY_GAP_SECONDS",
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_IDS", "ALLOWED_USERS", "LOG_LEVEL", "LOG_FILE",
}

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, map[string]string{
		"BRAVE_API_KEY": "key",
		"STATE_DIR":     "/var/lib/fm",
	})

	got, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &Config{
		BraveAPIKey:     "key",
		BraveURL:        "https://api.search.brave.com/res/v1/web/search",
		SearchCountry:   "AR",
		SearchLang:      "es",
		SearchFreshness: "pw",
		SearchResults:   15,
		SearchTimeout:   30 * time.Second,
		OllamaURL:       "http://localhost:11434",
		Model:           "llama3.1:8b",
		LLMTimeout:      120 * time.Second,
		Routes: []model.Route{
			{Origin: "MDZ", Destination: "SLA", DaysAhead: 30, Name: "Mendoza - Salta"},
			{Origin: "EZE", Destination: "MAD", DaysAhead: 45, Name: "Buenos Aires - Madrid"},
			{Origin: "EZE", Destination: "BCN", DaysAhead: 45, Name: "Buenos Aires - Barcelona"},
			{Origin: "COR", Destination: "EZE", DaysAhead: 20, Name: "Cordoba - Buenos Aires"},
		},
		CheckInterval:  5 * time.Minute,
		AlertThreshold: 90,
		PriceFloorUSD:  200,
		KnownMaxAge:    30 * 24 * time.Hour,
		DealFeeds:      []string{"https://www.secretflying.com/feed/", "https://www.fly4free.com/feed/"},
		StateDir:       "/var/lib/fm",
		StorageBackend: BackendJSON,
		DatabasePath:   "/var/lib/fm/monitor.db",
		DesktopNotify:  true,
		NotifyCommand:  "notify-send",
		NotifyGap:      2 * time.Second,
		LogLevel:       "info",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if got.HistoryPath() != "/var/lib/fm/price_history.json" {
		t.Errorf("HistoryPath = %q", got.HistoryPath())
	}
	if got.StatePath() != "/var/lib/fm/state.json" {
		t.Errorf("StatePath = %q", got.StatePath())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing api key", env: map[string]string{}},
		{name: "bad route", env: map[string]string{"BRAVE_API_KEY": "k", "ROUTES": "EZE-MADRID:10"}},
		{name: "bad days", env: map[string]string{"BRAVE_API_KEY": "k", "ROUTES": "EZE-MAD:soon"}},
		{name: "threshold out of range", env: map[string]string{"BRAVE_API_KEY": "k", "ALERT_THRESHOLD": "150"}},
		{name: "unknown backend", env: map[string]string{"BRAVE_API_KEY": "k", "STORAGE_BACKEND": "redis"}},
		{name: "bad chat id", env: map[string]string{"BRAVE_API_KEY": "k", "TELEGRAM_CHAT_IDS": "12,x"}},
		{name: "token without chats", env: map[string]string{"BRAVE_API_KEY": "k", "TELEGRAM_BOT_TOKEN": "tok"}},
		{name: "invalid user id", env: map[string]string{"BRAVE_API_KEY": "k", "ALLOWED_USERS": "123,abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			if _, err := Load(); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestParseSkipsValidation(t *testing.T) {
	setEnv(t, map[string]string{"STATE_DIR": "/tmp/fm"})
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BraveAPIKey != "" {
		t.Errorf("BraveAPIKey = %q, want empty", cfg.BraveAPIKey)
	}
}

func TestLoadOverrides(t *testing.T) {
	setEnv(t, map[string]string{
		"BRAVE_API_KEY":      "key",
		"OLLAMA_URL":         "http://gpu:11434/",
		"ROUTES":             " eze-fco:60 , AEP-JFK ",
		"STORAGE_BACKEND":    "SQLite",
		"TELEGRAM_BOT_TOKEN": "tok",
		"TELEGRAM_CHAT_IDS":  "100, -200",
		"ALLOWED_USERS":      " 10 , 20 , ",
		"FEED_EXCLUDE":       "cruise, hotel",
		"EVALUATE_DEALS":     "true",
		"KNOWN_MAX_AGE_DAYS": "0",
	})

	got, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.OllamaURL != "http://gpu:11434" {
		t.Errorf("OllamaURL = %q", got.OllamaURL)
	}
	wantRoutes := []model.Route{
		{Origin: "EZE", Destination: "FCO", DaysAhead: 60},
		{Origin: "AEP", Destination: "JFK", DaysAhead: 30},
	}
	if diff := cmp.Diff(wantRoutes, got.Routes); diff != "" {
		t.Errorf("Routes mismatch (-want +got):\n%s", diff)
	}
	if got.StorageBackend != BackendSQLite {
		t.Errorf("StorageBackend = %q", got.StorageBackend)
	}
	if diff := cmp.Diff([]int64{100, -200}, got.TelegramChatIDs); diff != "" {
		t.Errorf("TelegramChatIDs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{10, 20}, got.AllowedUsers); diff != "" {
		t.Errorf("AllowedUsers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"cruise", "hotel"}, got.FeedExclude); diff != "" {
		t.Errorf("FeedExclude mismatch (-want +got):\n%s", diff)
	}
	if !got.EvaluateDeals {
		t.Error("EvaluateDeals = false")
	}
	if got.KnownMaxAge != 0 {
		t.Errorf("KnownMaxAge = %v, want 0", got.KnownMaxAge)
	}
}

func TestIsUserAllowed(t *testing.T) {
	tests := []struct {
		name         string
		allowedUsers []int64
		userID       int64
		want         bool
	}{
		{
			name:         "empty list allows everyone",
			allowedUsers: nil,
			userID:       42,
			want:         true,
		},
		{
			name:         "user in list",
			allowedUsers: []int64{10, 20, 30},
			userID:       20,
			want:         true,
		},
		{
			name:         "user not in list",
			allowedUsers: []int64{10, 20, 30},
			userID:       99,
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AllowedUsers: tt.allowedUsers}
			got := cfg.IsUserAllowed(tt.userID)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("IsUserAllowed() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
