package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quillworks/quill/pkg/storage"
)

const (
	DefaultConfigPath = "/etc/quill/config"
	ConfigFileName    = "quill.yml"
)

// Config holds all quill settings.
type Config struct {
	// Backends is the list of storage engines to serve.
	Backends []string `yaml:"backends" json:"backends"`

	// ListenAddress is the host:port the API server binds to.
	ListenAddress string `yaml:"listen_address" json:"listen_address"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// PostgresURL is the Postgres connection string.
	PostgresURL string `yaml:"postgres_url" json:"postgres_url"`

	// MySQLURL is the MySQL DSN.
	MySQLURL string `yaml:"mysql_url" json:"mysql_url"`

	// SQLServerURL is the SQL Server connection string.
	SQLServerURL string `yaml:"sqlserver_url" json:"sqlserver_url"`

	// MongoURL is the MongoDB connection URI.
	MongoURL string `yaml:"mongo_url" json:"mongo_url"`

	// MongoDatabase is the MongoDB database name.
	MongoDatabase string `yaml:"mongo_database" json:"mongo_database"`

	// TokenSecret signs access tokens.
	TokenSecret string `yaml:"token_secret" json:"token_secret"`

	// TokenTTLSeconds is the access token lifetime in seconds.
	TokenTTLSeconds int `yaml:"token_ttl" json:"token_ttl"`

	// RateLimitPerSecond caps requests per client per second. Zero
	// disables limiting.
	RateLimitPerSecond int `yaml:"rate_limit_per_second" json:"rate_limit_per_second"`

	// RateLimitBurst is the per-client burst allowance.
	RateLimitBurst int `yaml:"rate_limit_burst" json:"rate_limit_burst"`

	// AdminUsername identifies the account ensured on startup. Empty
	// disables admin provisioning.
	AdminUsername string `yaml:"admin_username" json:"admin_username"`

	// AdminEmail is the ensured admin account's email.
	AdminEmail string `yaml:"admin_email" json:"admin_email"`

	// AdminPassword is the ensured admin account's initial password.
	AdminPassword string `yaml:"admin_password" json:"admin_password"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *Config
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// newDefault returns a config with default values
func newDefault() *Config {
	return &Config{
		Backends:           []string{"postgres"},
		ListenAddress:      ":8080",
		LogLevel:           "info",
		MongoDatabase:      "quill",
		TokenTTLSeconds:    1800,
		RateLimitPerSecond: 0,
		RateLimitBurst:     20,
		sources:            make(map[string]string),
	}
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*Config, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("QUILL_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"backends", "listen_address", "log_level",
		"postgres_url", "mysql_url", "sqlserver_url", "mongo_url", "mongo_database",
		"token_secret", "token_ttl", "rate_limit_per_second", "rate_limit_burst",
		"admin_username", "admin_email", "admin_password",
	}
}

func (c *Config) applyFileConfig(file *Config) {
	if len(file.Backends) > 0 {
		c.Backends = file.Backends
		c.sources["backends"] = "file"
	}
	if file.ListenAddress != "" {
		c.ListenAddress = file.ListenAddress
		c.sources["listen_address"] = "file"
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
		c.sources["log_level"] = "file"
	}
	if file.PostgresURL != "" {
		c.PostgresURL = file.PostgresURL
		c.sources["postgres_url"] = "file"
	}
	if file.MySQLURL != "" {
		c.MySQLURL = file.MySQLURL
		c.sources["mysql_url"] = "file"
	}
	if file.SQLServerURL != "" {
		c.SQLServerURL = file.SQLServerURL
		c.sources["sqlserver_url"] = "file"
	}
	if file.MongoURL != "" {
		c.MongoURL = file.MongoURL
		c.sources["mongo_url"] = "file"
	}
	if file.MongoDatabase != "" {
		c.MongoDatabase = file.MongoDatabase
		c.sources["mongo_database"] = "file"
	}
	if file.TokenSecret != "" {
		c.TokenSecret = file.TokenSecret
		c.sources["token_secret"] = "file"
	}
	if file.TokenTTLSeconds != 0 {
		c.TokenTTLSeconds = file.TokenTTLSeconds
		c.sources["token_ttl"] = "file"
	}
	if file.RateLimitPerSecond != 0 {
		c.RateLimitPerSecond = file.RateLimitPerSecond
		c.sources["rate_limit_per_second"] = "file"
	}
	if file.RateLimitBurst != 0 {
		c.RateLimitBurst = file.RateLimitBurst
		c.sources["rate_limit_burst"] = "file"
	}
	if file.AdminUsername != "" {
		c.AdminUsername = file.AdminUsername
		c.sources["admin_username"] = "file"
	}
	if file.AdminEmail != "" {
		c.AdminEmail = file.AdminEmail
		c.sources["admin_email"] = "file"
	}
	if file.AdminPassword != "" {
		c.AdminPassword = file.AdminPassword
		c.sources["admin_password"] = "file"
	}
}

func (c *Config) applyEnvConfig() {
	if val := os.Getenv("QUILL_BACKENDS"); val != "" {
		c.Backends = splitAndTrim(val)
		c.sources["backends"] = "environment"
	}
	if val := os.Getenv("QUILL_LISTEN_ADDRESS"); val != "" {
		c.ListenAddress = val
		c.sources["listen_address"] = "environment"
	}
	if val := os.Getenv("QUILL_LOG_LEVEL"); val != "" {
		c.LogLevel = val
		c.sources["log_level"] = "environment"
	}
	if val := os.Getenv("QUILL_POSTGRES_URL"); val != "" {
		c.PostgresURL = val
		c.sources["postgres_url"] = "environment"
	}
	if val := os.Getenv("QUILL_MYSQL_URL"); val != "" {
		c.MySQLURL = val
		c.sources["mysql_url"] = "environment"
	}
	if val := os.Getenv("QUILL_SQLSERVER_URL"); val != "" {
		c.SQLServerURL = val
		c.sources["sqlserver_url"] = "environment"
	}
	if val := os.Getenv("QUILL_MONGO_URL"); val != "" {
		c.MongoURL = val
		c.sources["mongo_url"] = "environment"
	}
	if val := os.Getenv("QUILL_MONGO_DATABASE"); val != "" {
		c.MongoDatabase = val
		c.sources["mongo_database"] = "environment"
	}
	if val := os.Getenv("QUILL_TOKEN_SECRET"); val != "" {
		c.TokenSecret = val
		c.sources["token_secret"] = "environment"
	}
	if val := os.Getenv("QUILL_TOKEN_TTL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.TokenTTLSeconds = i
			c.sources["token_ttl"] = "environment"
		}
	}
	if val := os.Getenv("QUILL_RATE_LIMIT_PER_SECOND"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.RateLimitPerSecond = i
			c.sources["rate_limit_per_second"] = "environment"
		}
	}
	if val := os.Getenv("QUILL_RATE_LIMIT_BURST"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.RateLimitBurst = i
			c.sources["rate_limit_burst"] = "environment"
		}
	}
	if val := os.Getenv("QUILL_ADMIN_USERNAME"); val != "" {
		c.AdminUsername = val
		c.sources["admin_username"] = "environment"
	}
	if val := os.Getenv("QUILL_ADMIN_EMAIL"); val != "" {
		c.AdminEmail = val
		c.sources["admin_email"] = "environment"
	}
	if val := os.Getenv("QUILL_ADMIN_PASSWORD"); val != "" {
		c.AdminPassword = val
		c.sources["admin_password"] = "environment"
	}
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// TokenTTL returns the access token lifetime as a duration
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSeconds) * time.Second
}

// ParsedBackends returns the configured backends as typed values.
func (c *Config) ParsedBackends() ([]storage.Backend, error) {
	out := make([]storage.Backend, 0, len(c.Backends))
	for _, name := range c.Backends {
		backend, err := storage.ParseBackend(name)
		if err != nil {
			return nil, err
		}
		out = append(out, backend)
	}
	return out, nil
}

// URLFor returns the connection string configured for a backend.
func (c *Config) URLFor(backend storage.Backend) string {
	switch backend {
	case storage.Postgres:
		return c.PostgresURL
	case storage.MySQL:
		return c.MySQLURL
	case storage.SQLServer:
		return c.SQLServerURL
	case storage.MongoDB:
		return c.MongoURL
	}
	return ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	backends, err := c.ParsedBackends()
	if err != nil {
		return err
	}
	if len(backends) == 0 {
		return fmt.Errorf("no backends configured")
	}
	for _, backend := range backends {
		if c.URLFor(backend) == "" {
			return fmt.Errorf("backend %s configured without a connection url", backend)
		}
	}

	if _, _, err := net.SplitHostPort(c.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen_address %q: %w", c.ListenAddress, err)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}

	if c.TokenTTLSeconds <= 0 {
		return fmt.Errorf("token_ttl must be positive")
	}
	return nil
}

// Attributes returns all configuration attributes with their values and
// sources. Secrets are redacted.
func (c *Config) Attributes() []Attribute {
	return []Attribute{
		{Name: "backends", Value: strings.Join(c.Backends, ","), Source: c.Source("backends")},
		{Name: "listen_address", Value: c.ListenAddress, Source: c.Source("listen_address")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
		{Name: "postgres_url", Value: redactURL(c.PostgresURL), Source: c.Source("postgres_url")},
		{Name: "mysql_url", Value: redactURL(c.MySQLURL), Source: c.Source("mysql_url")},
		{Name: "sqlserver_url", Value: redactURL(c.SQLServerURL), Source: c.Source("sqlserver_url")},
		{Name: "mongo_url", Value: redactURL(c.MongoURL), Source: c.Source("mongo_url")},
		{Name: "mongo_database", Value: c.MongoDatabase, Source: c.Source("mongo_database")},
		{Name: "token_secret", Value: redact(c.TokenSecret), Source: c.Source("token_secret")},
		{Name: "token_ttl", Value: strconv.Itoa(c.TokenTTLSeconds), Source: c.Source("token_ttl")},
		{Name: "rate_limit_per_second", Value: strconv.Itoa(c.RateLimitPerSecond), Source: c.Source("rate_limit_per_second")},
		{Name: "rate_limit_burst", Value: strconv.Itoa(c.RateLimitBurst), Source: c.Source("rate_limit_burst")},
		{Name: "admin_username", Value: c.AdminUsername, Source: c.Source("admin_username")},
		{Name: "admin_email", Value: c.AdminEmail, Source: c.Source("admin_email")},
		{Name: "admin_password", Value: redact(c.AdminPassword), Source: c.Source("admin_password")},
	}
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-25s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-25s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-25s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "(redacted)"
}

// redactURL hides the password portion of a connection string.
func redactURL(s string) string {
	if s == "" {
		return ""
	}
	at := strings.LastIndex(s, "@")
	scheme := strings.Index(s, "://")
	if at == -1 || scheme == -1 || at < scheme {
		return s
	}
	creds := s[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon != -1 {
		return s[:scheme+3] + creds[:colon] + ":(redacted)" + s[at:]
	}
	return s
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
