package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const (
	appNameVar     = "BANDEMOON_APP_NAME"
	baseURLVar     = "BANDEMOON_API_URL"
	dataDirVar     = "BANDEMOON_DATA_DIR"
	httpTimeoutVar = "BANDEMOON_HTTP_TIMEOUT"
	logLevelVar    = "BANDEMOON_LOG_LEVEL"

	defaultHTTPTimeout = 15 * time.Second
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}
var _ APIConfig = EnvVars{}

// loadDotEnv pulls a local .env file into the process environment if one
// exists. A missing file is not an error.
func loadDotEnv() {
	_ = godotenv.Load()
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Bandemoon")
}

// GetBaseURL returns the API base URL including the /api prefix, with no
// trailing slash. Endpoint paths are joined onto it verbatim.
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8080/api")
}

// GetDataFolder returns the directory holding the persisted credentials.
func (EnvVars) GetDataFolder() string {
	if dir := os.Getenv(dataDirVar); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bandemoon"
	}
	return filepath.Join(home, ".config", "bandemoon")
}

// GetHTTPTimeout returns the per-request timeout for API calls. The source
// app relied on the transport default; 15s is the chosen default here.
func (EnvVars) GetHTTPTimeout() time.Duration {
	timeout, err := time.ParseDuration(GetEnv(httpTimeoutVar, "15s"))
	if err != nil || timeout <= 0 {
		return defaultHTTPTimeout
	}
	return timeout
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
