package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const envPrefix = "EXCELLERATOR"

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Model   ModelConfig
	Auth    AuthConfig
	JWT     JWTConfig
	Session SessionConfig
	Upload  UploadConfig
	CORS    CORSConfig
	DB      DBConfig
	Storage StorageConfig
	Email   EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ModelProviderConfig holds settings for a single hosted model provider.
type ModelProviderConfig struct {
	Provider        string  `mapstructure:"provider"`
	APIKey          string  `mapstructure:"api_key"`
	DefaultModel    string  `mapstructure:"default_model"`
	TimeoutSecs     int     `mapstructure:"timeout_secs"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
}

// ModelConfig holds model gateway settings. A secondary provider enables
// fallback when the primary is rate limited or failing.
type ModelConfig struct {
	Primary   ModelProviderConfig `mapstructure:"primary"`
	Secondary ModelProviderConfig `mapstructure:"secondary"`
}

// PrimaryConfig returns the primary provider config.
func (m *ModelConfig) PrimaryConfig() *ModelProviderConfig {
	return &m.Primary
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (m *ModelConfig) SecondaryConfig() *ModelProviderConfig {
	if m.Secondary.Provider != "" {
		return &m.Secondary
	}
	return nil
}

// AuthConfig holds identity provider settings.
type AuthConfig struct {
	GoogleClientID string `mapstructure:"google_client_id"`
}

// JWTConfig holds JWT signing and expiry settings.
type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessTokenExpiry  time.Duration `mapstructure:"access_expiry"`
	RefreshTokenExpiry time.Duration `mapstructure:"refresh_expiry"`
	Issuer             string        `mapstructure:"issuer"`
}

// SessionConfig holds in-memory session settings.
type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
	HistoryWindow   int           `mapstructure:"history_window"`
}

// UploadConfig bounds accepted documents.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
	MaxPDFPages   int   `mapstructure:"max_pdf_pages"`
}

// MaxFileSizeBytes returns the upload limit in bytes.
func (u *UploadConfig) MaxFileSizeBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DBConfig holds PostgreSQL connection settings for the conversion history.
type DBConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpen         int    `mapstructure:"max_open"`
	MaxIdle         int    `mapstructure:"max_idle"`
	ConnectAttempts uint   `mapstructure:"connect_attempts"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// StorageConfig holds object storage settings for exports and archived uploads.
type StorageConfig struct {
	Provider       string `mapstructure:"provider"`
	Region         string `mapstructure:"region"`
	Bucket         string `mapstructure:"bucket"`
	Endpoint       string `mapstructure:"endpoint"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	PresignExpiry  int64  `mapstructure:"presign_expiry"`
	ArchiveUploads bool   `mapstructure:"archive_uploads"`
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

var defaults = map[string]any{
	"server.port":          ":8080",
	"server.read_timeout":  "30s",
	"server.write_timeout": "180s",
	"server.environment":   "development",

	"log.level":  "info",
	"log.format": "console",

	"model.primary.provider":            "gemini",
	"model.primary.api_key":             "",
	"model.primary.default_model":       "gemini-2.0-flash",
	"model.primary.timeout_secs":        120,
	"model.primary.max_output_tokens":   16384,
	"model.primary.temperature":         0.1,
	"model.secondary.provider":          "",
	"model.secondary.api_key":           "",
	"model.secondary.default_model":     "",
	"model.secondary.timeout_secs":      120,
	"model.secondary.max_output_tokens": 16384,
	"model.secondary.temperature":       0.1,

	"auth.google_client_id": "",

	"jwt.secret":         "change-me-in-production",
	"jwt.access_expiry":  "15m",
	"jwt.refresh_expiry": "168h",
	"jwt.issuer":         "excellerator",

	"session.ttl":              "2h",
	"session.janitor_interval": "5m",
	"session.history_window":   5,

	"upload.max_file_size_mb": 20,
	"upload.max_pdf_pages":    50,

	"cors.allowed_origins": "http://localhost:3000,http://127.0.0.1:3000",

	"db.enabled":          false,
	"db.host":             "localhost",
	"db.port":             5432,
	"db.user":             "excellerator",
	"db.password":         "excellerator_secret",
	"db.name":             "excellerator_db",
	"db.sslmode":          "disable",
	"db.max_open":         10,
	"db.max_idle":         5,
	"db.connect_attempts": 10,

	"storage.provider":        "noop",
	"storage.region":          "us-east-1",
	"storage.bucket":          "excellerator-exports",
	"storage.endpoint":        "",
	"storage.access_key":      "",
	"storage.secret_key":      "",
	"storage.presign_expiry":  3600,
	"storage.archive_uploads": false,

	"email.provider":     "noop",
	"email.region":       "us-east-1",
	"email.from_address": "noreply@excellerator.app",
	"email.from_name":    "Excellerator",
}

// EnvName returns the environment variable bound to a config key.
func EnvName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Loader reads configuration from environment variables with the
// EXCELLERATOR_ prefix and, when EXCELLERATOR_CONFIG_FILE is set, from a
// YAML/JSON/TOML file. Environment variables win over the file.
type Loader struct {
	v *viper.Viper
}

// NewLoader prepares a loader and reads the optional config file.
func NewLoader() (*Loader, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
		_ = v.BindEnv(key, EnvName(key))
	}

	if path := os.Getenv(envPrefix + "_CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}
	return &Loader{v: v}, nil
}

// Load reads configuration once.
func Load() (*Config, error) {
	l, err := NewLoader()
	if err != nil {
		return nil, err
	}
	return l.Load()
}

// ConfigFile returns the path of the config file in use, if any.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Watch reloads the configuration whenever the config file changes and hands
// the result to onChange. It is a no-op without a config file.
func (l *Loader) Watch(onChange func(*Config, error)) bool {
	if l.v.ConfigFileUsed() == "" {
		return false
	}
	l.v.OnConfigChange(func(_ fsnotify.Event) {
		onChange(l.Load())
	})
	l.v.WatchConfig()
	return true
}

// Load builds a Config from the current viper state.
func (l *Loader) Load() (*Config, error) {
	v := l.v
	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if the server port is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv(EnvName("server.port")) == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Model = ModelConfig{
		Primary:   providerConfig(v, "model.primary"),
		Secondary: providerConfig(v, "model.secondary"),
	}
	cfg.Auth = AuthConfig{
		GoogleClientID: v.GetString("auth.google_client_id"),
	}
	cfg.JWT = JWTConfig{
		Secret:             v.GetString("jwt.secret"),
		AccessTokenExpiry:  v.GetDuration("jwt.access_expiry"),
		RefreshTokenExpiry: v.GetDuration("jwt.refresh_expiry"),
		Issuer:             v.GetString("jwt.issuer"),
	}
	cfg.Session = SessionConfig{
		TTL:             v.GetDuration("session.ttl"),
		JanitorInterval: v.GetDuration("session.janitor_interval"),
		HistoryWindow:   v.GetInt("session.history_window"),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
		MaxPDFPages:   v.GetInt("upload.max_pdf_pages"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: stringList(v, "cors.allowed_origins"),
	}
	cfg.DB = DBConfig{
		Enabled:  v.GetBool("db.enabled"),
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),

		ConnectAttempts: v.GetUint("db.connect_attempts"),
	}
	cfg.Storage = StorageConfig{
		Provider:       v.GetString("storage.provider"),
		Region:         v.GetString("storage.region"),
		Bucket:         v.GetString("storage.bucket"),
		Endpoint:       v.GetString("storage.endpoint"),
		AccessKey:      v.GetString("storage.access_key"),
		SecretKey:      v.GetString("storage.secret_key"),
		PresignExpiry:  v.GetInt64("storage.presign_expiry"),
		ArchiveUploads: v.GetBool("storage.archive_uploads"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
	}

	if cfg.Model.Primary.Provider == "" {
		return nil, fmt.Errorf("model.primary.provider must be set")
	}
	if cfg.Session.HistoryWindow < 0 {
		return nil, fmt.Errorf("session.history_window must not be negative")
	}
	return cfg, nil
}

func providerConfig(v *viper.Viper, prefix string) ModelProviderConfig {
	return ModelProviderConfig{
		Provider:        v.GetString(prefix + ".provider"),
		APIKey:          v.GetString(prefix + ".api_key"),
		DefaultModel:    v.GetString(prefix + ".default_model"),
		TimeoutSecs:     v.GetInt(prefix + ".timeout_secs"),
		MaxOutputTokens: v.GetInt(prefix + ".max_output_tokens"),
		Temperature:     v.GetFloat64(prefix + ".temperature"),
	}
}

// stringList accepts either a YAML list or a comma-separated string.
func stringList(v *viper.Viper, key string) []string {
	if s, ok := v.Get(key).(string); ok {
		return splitList(s)
	}
	return splitList(strings.Join(v.GetStringSlice(key), ","))
}

// splitList parses a comma-separated string, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
