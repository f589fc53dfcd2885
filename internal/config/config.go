package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"canteen/internal/notify/whatsapp"
)

type Config struct {
	// HTTP Server
	Port string
	// TrustedProxies are extra CIDRs allowed to set forwarding headers.
	TrustedProxies []string

	// Database
	DataBackend  string
	SQLiteDBPath string

	// Report trigger
	CronSecret     string
	EnableCron     bool
	ReportTime     string
	ReportTimezone string
	// ReportBaseURL makes the scheduler fire through the HTTP endpoint.
	ReportBaseURL string

	// Report delivery
	ReportRecipient       string
	ReportRecipientRegion string
	CurrencySymbol        string

	// WhatsApp Business Cloud API
	WABAAccessToken      string
	WABAPhoneNumberID    string
	WABAAPIBaseURL       string
	WABAAPIVersion       string
	WABATemplateName     string
	WABATemplateLanguage string
	NotifyTimeout        time.Duration

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets report archive
	GoogleSpreadsheetID      string
	GoogleReportSheetName    string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/canteen.db"),

		CronSecret:     getEnv("CRON_SECRET", ""),
		EnableCron:     getEnvBool("ENABLE_CRON", false),
		ReportTime:     getEnv("REPORT_TIME", "00:01"),
		ReportTimezone: getEnv("REPORT_TIMEZONE", "Asia/Kolkata"),
		ReportBaseURL:  getEnv("REPORT_BASE_URL", ""),

		ReportRecipient:       getEnv("REPORT_RECIPIENT", ""),
		ReportRecipientRegion: getEnv("REPORT_RECIPIENT_REGION", "IN"),
		CurrencySymbol:        getEnv("CURRENCY_SYMBOL", "₹"),

		WABAAccessToken:      getEnv("WABA_ACCESS_TOKEN", ""),
		WABAPhoneNumberID:    getEnv("WABA_PHONE_NUMBER_ID", ""),
		WABAAPIBaseURL:       getEnv("WABA_API_BASE_URL", "https://graph.facebook.com"),
		WABAAPIVersion:       getEnv("WABA_API_VERSION", "v22.0"),
		WABATemplateName:     getEnv("WABA_TEMPLATE_NAME", "expense_report"),
		WABATemplateLanguage: getEnv("WABA_TEMPLATE_LANGUAGE", "en"),
		NotifyTimeout:        getEnvDuration("NOTIFY_TIMEOUT", 15*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "canteen"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleReportSheetName:    getEnv("GOOGLE_REPORT_SHEET_NAME", "Reports"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Location loads the reference timezone, falling back to UTC when the name
// is unknown. Validate reports unknown names.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NotifierConfigured reports whether credentials for the messaging provider are set.
func (c *Config) NotifierConfigured() bool {
	return c.WABAAccessToken != "" && c.WABAPhoneNumberID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate schedule
	if _, err := time.Parse("15:04", c.ReportTime); err != nil {
		errors = append(errors, fmt.Sprintf("invalid report time '%s': must be HH:MM", c.ReportTime))
	}
	if _, err := time.LoadLocation(c.ReportTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid report timezone '%s': %v", c.ReportTimezone, err))
	}

	if c.ReportBaseURL != "" {
		if u, err := url.Parse(c.ReportBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid report base URL '%s': must be an absolute http(s) URL", c.ReportBaseURL))
		}
	}

	// A recipient is optional until the timer is switched on
	if c.ReportRecipient != "" || c.EnableCron {
		if _, err := whatsapp.NormalizeRecipient(c.ReportRecipient, c.ReportRecipientRegion); err != nil {
			errors = append(errors, fmt.Sprintf("invalid report recipient: %v", err))
		}
	}

	if c.EnableCron && c.ReportBaseURL == "" && !c.NotifierConfigured() {
		errors = append(errors, "WABA_ACCESS_TOKEN and WABA_PHONE_NUMBER_ID are required when ENABLE_CRON is true")
	}

	if c.WABAAPIBaseURL != "" {
		if u, err := url.Parse(c.WABAAPIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid WABA API base URL '%s'", c.WABAAPIBaseURL))
		}
	}
	if c.WABATemplateName == "" {
		errors = append(errors, "WABA template name cannot be empty")
	}

	if c.NotifyTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid notify timeout %v: must be positive", c.NotifyTimeout))
	} else if c.NotifyTimeout > 2*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid notify timeout %v: must be at most 2 minutes", c.NotifyTimeout))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateArchiver checks the settings needed by the report archive worker.
func (c *Config) ValidateArchiver() error {
	var errors []string

	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the report archiver")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the report archiver")
	}
	if c.GoogleReportSheetName == "" {
		errors = append(errors, "GOOGLE_REPORT_SHEET_NAME cannot be empty")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
