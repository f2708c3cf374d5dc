package config

import (
	"os"
	"strconv"
	"strings"
)

type ConfigStruct struct {
	MusicAPI  MusicAPIConfig
	Options   Options
	Dashboard DashboardConfig
	Database  DatabaseConfig
	Sentry    SentryConfig
}

type MusicAPIConfig struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	TimeoutSeconds int
}

type Options struct {
	Port     string
	LogLevel string
}

type DashboardConfig struct {
	SearchMode         string
	CatalogFile        string
	SessionIdleMinutes int
}

type DatabaseConfig struct {
	Path                 string
	TrackCacheTTLMinutes int
}

type SentryConfig struct {
	DSN         string
	Release     string
	Environment string
}

const (
	SearchModeFixture = "fixture"
	SearchModeLive    = "live"
)

func (m *MusicAPIConfig) HasCredentials() bool {
	return m.ClientID != "" && m.ClientSecret != ""
}

func (d *DatabaseConfig) TrackCacheEnabled() bool {
	return d.TrackCacheTTLMinutes > 0
}

var Config *ConfigStruct

func NewConfig() *ConfigStruct {
	config := &ConfigStruct{
		MusicAPI: MusicAPIConfig{
			BaseURL:        os.Getenv("MUSIC_API_BASE_URL"),
			ClientID:       os.Getenv("MUSIC_CLIENT_ID"),
			ClientSecret:   os.Getenv("MUSIC_CLIENT_SECRET"),
			TimeoutSeconds: getAPITimeout(),
		},
		Options: Options{
			Port:     getPort(),
			LogLevel: getLogLevel(),
		},
		Dashboard: DashboardConfig{
			SearchMode:         getSearchMode(),
			CatalogFile:        os.Getenv("CATALOG_FILE"),
			SessionIdleMinutes: getSessionIdleMinutes(),
		},
		Database: DatabaseConfig{
			Path:                 getDBPath(),
			TrackCacheTTLMinutes: getTrackCacheTTL(),
		},
		Sentry: SentryConfig{
			DSN:         os.Getenv("SENTRY_DSN"),
			Release:     os.Getenv("RELEASE"),
			Environment: getEnvironment(),
		},
	}

	Config = config
	return config
}

func getPort() string {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		return "8080"
	}
	return port
}

func getLogLevel() string {
	level := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if level == "" {
		return "info"
	}
	return level
}

func getEnvironment() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		return "development"
	}
	return env
}

func getDBPath() string {
	path := os.Getenv("DB_PATH")
	if path == "" {
		return "data/hpmusic.db"
	}
	return path
}

func getSearchMode() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DASHBOARD_SEARCH_MODE"))) {
	case SearchModeLive:
		return SearchModeLive
	default:
		return SearchModeFixture
	}
}

func getAPITimeout() int {
	timeoutStr := os.Getenv("MUSIC_API_TIMEOUT_SECONDS")
	if timeoutStr == "" {
		return 10
	}
	timeout, err := strconv.Atoi(timeoutStr)
	if err != nil || timeout <= 0 {
		return 10
	}
	if timeout > 120 {
		return 120
	}
	return timeout
}

func getSessionIdleMinutes() int {
	minutesStr := os.Getenv("SESSION_IDLE_MINUTES")
	if minutesStr == "" {
		return 60
	}
	minutes, err := strconv.Atoi(minutesStr)
	if err != nil || minutes <= 0 {
		return 60
	}
	return minutes
}

func getTrackCacheTTL() int {
	ttlStr := os.Getenv("TRACK_CACHE_TTL_MINUTES")
	if ttlStr == "" {
		return 0
	}
	ttl, err := strconv.Atoi(ttlStr)
	if err != nil || ttl <= 0 {
		return 0
	}
	if ttl > 1440 {
		return 1440 // one day
	}
	return ttl
}
