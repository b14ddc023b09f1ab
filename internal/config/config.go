package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment profiles.
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Auth     AuthConfig
	Upload   UploadConfig
	Engine   EngineConfig
	OCR      OCRConfig
	Chunking ChunkingConfig
	Worker   WorkerConfig
	Log      LogConfig
	CORS     CORSConfig
	History  HistoryConfig
	Archive  ArchiveConfig
}

// AppConfig holds service identity shown on the info endpoint.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Environment     string        `mapstructure:"environment"`
	Debug           bool          `mapstructure:"debug"`
}

// AuthConfig holds shared-secret authentication settings.
type AuthConfig struct {
	Disabled   bool   `mapstructure:"disabled"`
	Secret     string `mapstructure:"secret"`
	SecretHash string `mapstructure:"secret_hash"`
	JWTIssuer  string `mapstructure:"jwt_issuer"`
}

// UploadConfig holds scratch storage and type validation settings.
type UploadConfig struct {
	Dir            string   `mapstructure:"dir"`
	AllowedTypes   []string `mapstructure:"allowed_types"`
	MaxFileSizeMB  int64    `mapstructure:"max_file_size_mb"`
	SniffBytes     int      `mapstructure:"sniff_bytes"`
	CopyBufferSize int      `mapstructure:"copy_buffer_size"`
}

// MaxFileSizeBytes returns the upload cap in bytes; zero means unlimited.
func (u *UploadConfig) MaxFileSizeBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// EngineConfig holds document engine construction settings.
type EngineConfig struct {
	NumThreads     int      `mapstructure:"num_threads"`
	Device         string   `mapstructure:"device"`
	AllowedFormats []string `mapstructure:"allowed_formats"`
	// MaxPooled bounds how many distinct engine configurations stay built.
	MaxPooled      int      `mapstructure:"max_pooled"`
}

// OCRConfig holds the OCR backend settings.
type OCRConfig struct {
	Endpoint         string   `mapstructure:"endpoint"`
	APIKey           string   `mapstructure:"api_key"`
	Model            string   `mapstructure:"model"`
	TimeoutSecs      int      `mapstructure:"timeout_secs"`
	DefaultLanguages []string `mapstructure:"default_languages"`
}

// ChunkingConfig holds chunking defaults.
type ChunkingConfig struct {
	MaxTokens       int    `mapstructure:"max_tokens"`
	DefaultStrategy string `mapstructure:"default_strategy"`
	TokenizerModel  string `mapstructure:"tokenizer_model"`
}

// WorkerConfig bounds the blocking-work pool.
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// HistoryConfig selects the conversion history store.
type HistoryConfig struct {
	// Driver is one of "none", "sqlite", "pgx".
	Driver      string `mapstructure:"driver"`
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxIdle     int    `mapstructure:"max_idle"`
}

// Enabled reports whether a history store is configured.
func (h *HistoryConfig) Enabled() bool {
	return h.Driver != "" && h.Driver != "none"
}

// ArchiveConfig holds S3 result archive settings.
type ArchiveConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Prefix        string `mapstructure:"prefix"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

var devAllowedTypes = strings.Join([]string{
	"application/pdf",
	"text/plain",
	"text/markdown",
	"text/csv",
	"text/html",
	"application/json",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"image/*",
	"application/xml",
	"text/xml",
}, ",")

// profile carries the defaults that differ between environments.
type profile struct {
	debug        bool
	logLevel     string
	logFormat    string
	uploadDir    string
	allowedTypes string
	secret       string
	authDisabled bool
}

var profiles = map[string]profile{
	EnvDevelopment: {
		debug:        true,
		logLevel:     "debug",
		logFormat:    "text",
		uploadDir:    "uploads",
		allowedTypes: devAllowedTypes,
		secret:       "dev-secret-key-for-docproc",
		authDisabled: true,
	},
	EnvTest: {
		debug:        true,
		logLevel:     "error",
		logFormat:    "text",
		uploadDir:    "test_uploads",
		allowedTypes: "application/pdf,text/plain",
		secret:       "test-secret-key",
		authDisabled: true,
	},
	EnvProduction: {
		debug:        false,
		logLevel:     "warn",
		logFormat:    "json",
		uploadDir:    "uploads",
		allowedTypes: "application/pdf,text/plain",
		secret:       "default-secret-key-change-in-production",
		authDisabled: false,
	},
}

// NormalizeEnvironment maps short aliases (dev, prod) onto profile names.
// Unknown values fall back to development.
func NormalizeEnvironment(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "prod", EnvProduction:
		return EnvProduction
	case "test", "testing":
		return EnvTest
	default:
		return EnvDevelopment
	}
}

func selectEnvironment() string {
	if env := os.Getenv("DOCPROC_SERVER_ENVIRONMENT"); env != "" {
		return NormalizeEnvironment(env)
	}
	return NormalizeEnvironment(os.Getenv("APP_ENV"))
}

// loadDotenv loads .env and then env/<profile>.env. Variables already in the
// process environment win. Missing files are ignored.
func loadDotenv() string {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
	env := selectEnvironment()
	path := fmt.Sprintf("env/%s.env", env)
	if _, err := os.Stat(path); err == nil {
		_ = godotenv.Load(path)
	}
	return env
}

// Load reads configuration from environment variables with the DOCPROC_ prefix.
func Load() (*Config, error) {
	env := loadDotenv()
	p := profiles[env]

	v := viper.New()
	v.SetEnvPrefix("DOCPROC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// App defaults
	v.SetDefault("app.name", "Document Processing API")
	v.SetDefault("app.version", "1.0.0")

	// Server defaults
	v.SetDefault("server.port", ":8000")
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.environment", env)
	v.SetDefault("server.debug", p.debug)

	// Auth defaults
	v.SetDefault("auth.disabled", p.authDisabled)
	v.SetDefault("auth.secret", p.secret)
	v.SetDefault("auth.secret_hash", "")
	v.SetDefault("auth.jwt_issuer", "docproc")

	// Upload defaults
	v.SetDefault("upload.dir", p.uploadDir)
	v.SetDefault("upload.allowed_types", p.allowedTypes)
	v.SetDefault("upload.max_file_size_mb", 100)
	v.SetDefault("upload.sniff_bytes", 3072)
	v.SetDefault("upload.copy_buffer_size", 32*1024)

	// Engine defaults
	v.SetDefault("engine.num_threads", 4)
	v.SetDefault("engine.device", "auto")
	v.SetDefault("engine.allowed_formats", "pdf,image,docx,html,pptx,xlsx,asciidoc,csv,md")
	v.SetDefault("engine.max_pooled", 8)

	// OCR defaults
	v.SetDefault("ocr.endpoint", "")
	v.SetDefault("ocr.api_key", "")
	v.SetDefault("ocr.model", "mistral-ocr-latest")
	v.SetDefault("ocr.timeout_secs", 120)
	v.SetDefault("ocr.default_languages", "id")

	// Chunking defaults
	v.SetDefault("chunking.max_tokens", 512)
	v.SetDefault("chunking.default_strategy", "hybrid")
	v.SetDefault("chunking.tokenizer_model", "gpt-4o")

	// Worker defaults
	v.SetDefault("worker.concurrency", 4)

	// Log defaults
	v.SetDefault("log.level", p.logLevel)
	v.SetDefault("log.format", p.logFormat)

	// CORS defaults
	v.SetDefault("cors.allowed_origins", "*")

	// History defaults
	v.SetDefault("history.driver", "none")
	v.SetDefault("history.dsn", "")
	v.SetDefault("history.auto_migrate", true)
	v.SetDefault("history.max_open", 10)
	v.SetDefault("history.max_idle", 5)

	// Archive defaults
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.bucket", "docproc-results")
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.prefix", "conversions")
	v.SetDefault("archive.presign_expiry", 3600)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"app.name":                   "DOCPROC_APP_NAME",
		"app.version":                "DOCPROC_APP_VERSION",
		"server.port":                "DOCPROC_SERVER_PORT",
		"server.read_timeout":        "DOCPROC_SERVER_READ_TIMEOUT",
		"server.write_timeout":       "DOCPROC_SERVER_WRITE_TIMEOUT",
		"server.shutdown_timeout":    "DOCPROC_SERVER_SHUTDOWN_TIMEOUT",
		"server.debug":               "DOCPROC_SERVER_DEBUG",
		"auth.disabled":              "DOCPROC_AUTH_DISABLED",
		"auth.secret":                "DOCPROC_AUTH_SECRET",
		"auth.secret_hash":           "DOCPROC_AUTH_SECRET_HASH",
		"auth.jwt_issuer":            "DOCPROC_AUTH_JWT_ISSUER",
		"upload.dir":                 "DOCPROC_UPLOAD_DIR",
		"upload.allowed_types":       "DOCPROC_UPLOAD_ALLOWED_TYPES",
		"upload.max_file_size_mb":    "DOCPROC_UPLOAD_MAX_FILE_SIZE_MB",
		"upload.sniff_bytes":         "DOCPROC_UPLOAD_SNIFF_BYTES",
		"upload.copy_buffer_size":    "DOCPROC_UPLOAD_COPY_BUFFER_SIZE",
		"engine.num_threads":         "DOCPROC_ENGINE_NUM_THREADS",
		"engine.device":              "DOCPROC_ENGINE_DEVICE",
		"engine.allowed_formats":     "DOCPROC_ENGINE_ALLOWED_FORMATS",
		"engine.max_pooled":          "DOCPROC_ENGINE_MAX_POOLED",
		"ocr.endpoint":               "DOCPROC_OCR_ENDPOINT",
		"ocr.api_key":                "DOCPROC_OCR_API_KEY",
		"ocr.model":                  "DOCPROC_OCR_MODEL",
		"ocr.timeout_secs":           "DOCPROC_OCR_TIMEOUT_SECS",
		"ocr.default_languages":      "DOCPROC_OCR_DEFAULT_LANGUAGES",
		"chunking.max_tokens":        "DOCPROC_CHUNKING_MAX_TOKENS",
		"chunking.default_strategy":  "DOCPROC_CHUNKING_DEFAULT_STRATEGY",
		"chunking.tokenizer_model":   "DOCPROC_CHUNKING_TOKENIZER_MODEL",
		"worker.concurrency":         "DOCPROC_WORKER_CONCURRENCY",
		"log.level":                  "DOCPROC_LOG_LEVEL",
		"log.format":                 "DOCPROC_LOG_FORMAT",
		"cors.allowed_origins":       "DOCPROC_CORS_ALLOWED_ORIGINS",
		"history.driver":             "DOCPROC_HISTORY_DRIVER",
		"history.dsn":                "DOCPROC_HISTORY_DSN",
		"history.auto_migrate":       "DOCPROC_HISTORY_AUTO_MIGRATE",
		"history.max_open":           "DOCPROC_HISTORY_MAX_OPEN",
		"history.max_idle":           "DOCPROC_HISTORY_MAX_IDLE",
		"archive.enabled":            "DOCPROC_ARCHIVE_ENABLED",
		"archive.region":             "DOCPROC_ARCHIVE_REGION",
		"archive.bucket":             "DOCPROC_ARCHIVE_BUCKET",
		"archive.endpoint":           "DOCPROC_ARCHIVE_ENDPOINT",
		"archive.access_key":         "DOCPROC_ARCHIVE_ACCESS_KEY",
		"archive.secret_key":         "DOCPROC_ARCHIVE_SECRET_KEY",
		"archive.prefix":             "DOCPROC_ARCHIVE_PREFIX",
		"archive.presign_expiry":     "DOCPROC_ARCHIVE_PRESIGN_EXPIRY",
	}
	for key, envName := range envBindings {
		_ = v.BindEnv(key, envName)
	}

	cfg := &Config{}

	// Container platforms set PORT. Use it if DOCPROC_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCPROC_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.App = AppConfig{
		Name:    v.GetString("app.name"),
		Version: v.GetString("app.version"),
	}
	cfg.Server = ServerConfig{
		Port:            serverPort,
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		Environment:     env,
		Debug:           v.GetBool("server.debug"),
	}
	cfg.Auth = AuthConfig{
		Disabled:   v.GetBool("auth.disabled"),
		Secret:     v.GetString("auth.secret"),
		SecretHash: v.GetString("auth.secret_hash"),
		JWTIssuer:  v.GetString("auth.jwt_issuer"),
	}
	cfg.Upload = UploadConfig{
		Dir:            v.GetString("upload.dir"),
		AllowedTypes:   splitList(v.GetString("upload.allowed_types")),
		MaxFileSizeMB:  v.GetInt64("upload.max_file_size_mb"),
		SniffBytes:     v.GetInt("upload.sniff_bytes"),
		CopyBufferSize: v.GetInt("upload.copy_buffer_size"),
	}
	cfg.Engine = EngineConfig{
		NumThreads:     v.GetInt("engine.num_threads"),
		Device:         v.GetString("engine.device"),
		AllowedFormats: splitList(v.GetString("engine.allowed_formats")),
		MaxPooled:      v.GetInt("engine.max_pooled"),
	}
	cfg.OCR = OCRConfig{
		Endpoint:         v.GetString("ocr.endpoint"),
		APIKey:           v.GetString("ocr.api_key"),
		Model:            v.GetString("ocr.model"),
		TimeoutSecs:      v.GetInt("ocr.timeout_secs"),
		DefaultLanguages: splitList(v.GetString("ocr.default_languages")),
	}
	cfg.Chunking = ChunkingConfig{
		MaxTokens:       v.GetInt("chunking.max_tokens"),
		DefaultStrategy: v.GetString("chunking.default_strategy"),
		TokenizerModel:  v.GetString("chunking.tokenizer_model"),
	}
	cfg.Worker = WorkerConfig{
		Concurrency: v.GetInt("worker.concurrency"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.History = HistoryConfig{
		Driver:      strings.ToLower(v.GetString("history.driver")),
		DSN:         v.GetString("history.dsn"),
		AutoMigrate: v.GetBool("history.auto_migrate"),
		MaxOpen:     v.GetInt("history.max_open"),
		MaxIdle:     v.GetInt("history.max_idle"),
	}
	cfg.Archive = ArchiveConfig{
		Enabled:       v.GetBool("archive.enabled"),
		Region:        v.GetString("archive.region"),
		Bucket:        v.GetString("archive.bucket"),
		Endpoint:      v.GetString("archive.endpoint"),
		AccessKey:     v.GetString("archive.access_key"),
		SecretKey:     v.GetString("archive.secret_key"),
		Prefix:        v.GetString("archive.prefix"),
		PresignExpiry: v.GetInt64("archive.presign_expiry"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	if c.Server.Environment == EnvProduction && c.Server.Debug {
		return errors.New("debug must be disabled in production")
	}
	if c.Chunking.MaxTokens <= 0 {
		return fmt.Errorf("chunking.max_tokens must be positive, got %d", c.Chunking.MaxTokens)
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker.concurrency must be positive, got %d", c.Worker.Concurrency)
	}
	if c.Engine.MaxPooled <= 0 {
		return fmt.Errorf("engine.max_pooled must be positive, got %d", c.Engine.MaxPooled)
	}
	if len(c.Upload.AllowedTypes) == 0 {
		return errors.New("upload.allowed_types must not be empty")
	}
	switch c.History.Driver {
	case "", "none":
	case "sqlite", "pgx":
		if c.History.DSN == "" {
			return fmt.Errorf("history.dsn is required for driver %q", c.History.Driver)
		}
	default:
		return fmt.Errorf("unknown history.driver %q (allowed: none, sqlite, pgx)", c.History.Driver)
	}
	if !c.Auth.Disabled && c.Auth.Secret == "" && c.Auth.SecretHash == "" {
		return errors.New("auth.secret or auth.secret_hash is required when auth is enabled")
	}
	return nil
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
