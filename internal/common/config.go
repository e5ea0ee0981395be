package common

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "DOCREADY_"

// Config holds the ambient application configuration. Analysis thresholds
// live with their analyzers and are assembled by the probe package.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Render   RenderConfig   `yaml:"render"`
	Log      LogConfig      `yaml:"log"`
	Output   OutputConfig   `yaml:"output"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// RenderConfig names the external poppler tools used for rasterization and text.
type RenderConfig struct {
	Pdftoppm     string `yaml:"pdftoppm"`
	Pdftotext    string `yaml:"pdftotext"`
	RasterFormat string `yaml:"raster_format"` // png | tiff
	TempDir      string `yaml:"temp_dir"`
}

// LogConfig controls the slog handler built by the CLI.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | text
}

// OutputConfig controls where run artifacts are written.
type OutputConfig struct {
	Root          string `yaml:"root"`
	XLSX          bool   `yaml:"xlsx"`
	MetricsFile   string `yaml:"metrics_file"`
	ModelDir      string `yaml:"model_dir"`
	ErrorSampleSz int    `yaml:"error_sample_size"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             "file:outputs/docready.db",
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			MaxConnLifetime: 30 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Render: RenderConfig{
			Pdftoppm:     "pdftoppm",
			Pdftotext:    "pdftotext",
			RasterFormat: "png",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Output: OutputConfig{
			Root:          "outputs",
			XLSX:          true,
			ModelDir:      "outputs/models/doc_type",
			ErrorSampleSz: 20,
		},
	}
}

// LoadConfig layers defaults, an optional YAML file, then environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadYAML(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from DOCREADY_* environment variables.
func (cfg *Config) ApplyEnv() {
	cfg.Database.DSN = GetEnv("DB_URL", cfg.Database.DSN)
	cfg.Database.MaxOpenConns = GetEnvAsInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = GetEnvAsInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.MaxConnLifetime = GetEnvAsDuration("DB_MAX_CONN_LIFETIME", cfg.Database.MaxConnLifetime)
	cfg.Database.DialTimeout = GetEnvAsDuration("DB_DIAL_TIMEOUT", cfg.Database.DialTimeout)
	cfg.Render.Pdftoppm = GetEnv("PDFTOPPM", cfg.Render.Pdftoppm)
	cfg.Render.Pdftotext = GetEnv("PDFTOTEXT", cfg.Render.Pdftotext)
	cfg.Render.RasterFormat = GetEnv("RASTER_FORMAT", cfg.Render.RasterFormat)
	cfg.Render.TempDir = GetEnv("RENDER_TEMP_DIR", cfg.Render.TempDir)
	cfg.Log.Level = GetEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = GetEnv("LOG_FORMAT", cfg.Log.Format)
	cfg.Output.Root = GetEnv("OUTPUT_ROOT", cfg.Output.Root)
	cfg.Output.XLSX = GetEnvAsBool("OUTPUT_XLSX", cfg.Output.XLSX)
	cfg.Output.MetricsFile = GetEnv("METRICS_FILE", cfg.Output.MetricsFile)
	cfg.Output.ModelDir = GetEnv("MODEL_DIR", cfg.Output.ModelDir)
	cfg.Output.ErrorSampleSz = GetEnvAsInt("ERROR_SAMPLE_SIZE", cfg.Output.ErrorSampleSz)
}

// LoadYAML decodes path into out when path is non-empty. Unknown keys are rejected
// so that a misspelled threshold fails at startup.
func LoadYAML(path string, out any) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return NewAppError(CodeConfig, fmt.Sprintf("open config %s", path), err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return NewAppError(CodeConfig, fmt.Sprintf("decode config %s", path), err)
	}
	return nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("database.dsn", c.Database.DSN, Required)
	v.Field("database.max_open_conns", c.Database.MaxOpenConns, NonNegative)
	v.Field("render.pdftoppm", c.Render.Pdftoppm, Required)
	v.Field("render.pdftotext", c.Render.Pdftotext, Required)
	v.Check(c.Render.RasterFormat == "png" || c.Render.RasterFormat == "tiff",
		"render.raster_format", c.Render.RasterFormat, "must be png or tiff")
	v.Check(c.Log.Format == "json" || c.Log.Format == "text", "log.format", c.Log.Format, "must be json or text")
	v.Field("output.error_sample_size", c.Output.ErrorSampleSz, NonNegative)
	return v.Error()
}

// Helper functions for environment variable parsing. Keys are given without
// the DOCREADY_ prefix.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func GetEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
