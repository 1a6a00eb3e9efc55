package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadSettings.
const (
	EnvConfig    = "BUDGET_CONFIG"
	EnvRevenue   = "BUDGET_REVENUE"
	EnvExpense   = "BUDGET_EXPENSE"
	EnvOutput    = "BUDGET_OUTPUT"
	EnvAudit     = "BUDGET_AUDIT"
	EnvStrict    = "BUDGET_STRICT"
	EnvBQProject = "BUDGET_BQ_PROJECT"
	EnvBQDataset = "BUDGET_BQ_DATASET"
	EnvLogLevel  = "LOG_LEVEL"
)

// Settings are the per-process options. CLI flags override them.
type Settings struct {
	ConfigPath string
	RevenueURI string
	ExpenseURI string
	OutputURI  string
	AuditPath  string
	Strict     bool

	BQProject string
	BQDataset string

	LogLevel string

	// DotEnvLoaded reports whether a .env file was found.
	DotEnvLoaded bool
}

// LoadSettings loads the given .env files (".env" when none are named) into
// the environment without overriding variables that are already set, then
// reads the settings.
func LoadSettings(files ...string) Settings {
	loaded := godotenv.Load(files...) == nil

	return Settings{
		ConfigPath:   getEnvString(EnvConfig, "configs/tulsa.yaml"),
		RevenueURI:   getEnvString(EnvRevenue, ""),
		ExpenseURI:   getEnvString(EnvExpense, ""),
		OutputURI:    getEnvString(EnvOutput, "sankey.json"),
		AuditPath:    getEnvString(EnvAudit, ""),
		Strict:       getEnvBool(EnvStrict, true),
		BQProject:    getEnvString(EnvBQProject, ""),
		BQDataset:    getEnvString(EnvBQDataset, "budget_flow"),
		LogLevel:     getEnvString(EnvLogLevel, "info"),
		DotEnvLoaded: loaded,
	}
}

// PublishEnabled reports whether runs are recorded in BigQuery.
func (s Settings) PublishEnabled() bool {
	return s.BQProject != ""
}

func getEnvString(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return strings.TrimSpace(value)
}

func getEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return b
}
