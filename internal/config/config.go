package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Input     InputConfig
	Output    OutputConfig
	Extractor ExtractorConfig
	Batch     BatchConfig
	Dedup     DedupConfig
	Log       LogConfig
	S3        S3Config
	DB        DBConfig
}

// InputConfig holds document discovery settings.
type InputConfig struct {
	Dir string `mapstructure:"dir"`
}

// OutputConfig holds the persisted output locations.
type OutputConfig struct {
	Dir            string `mapstructure:"dir"`
	AllFile        string `mapstructure:"all_file"`
	UniqueFile     string `mapstructure:"unique_file"`
	DuplicatesFile string `mapstructure:"duplicates_file"`
	XLSXFile       string `mapstructure:"xlsx_file"`
	SummaryFile    string `mapstructure:"summary_file"`
	BOM            bool   `mapstructure:"bom"`
}

// ExtractorConfig holds settings for the LLM extraction client.
type ExtractorConfig struct {
	Provider         string `mapstructure:"provider"`
	APIKey           string `mapstructure:"api_key"`
	Model            string `mapstructure:"model"`
	TimeoutSecs      int    `mapstructure:"timeout_secs"`
	MaxContextChars  int    `mapstructure:"max_context_chars"`
	InputMode        string `mapstructure:"input_mode"`
	MockResponsePath string `mapstructure:"mock_response_path"`

	// Optional second provider tried when the first one fails.
	FallbackProvider string `mapstructure:"fallback_provider"`
	FallbackAPIKey   string `mapstructure:"fallback_api_key"`
	FallbackModel    string `mapstructure:"fallback_model"`
}

// Fallback returns the settings of the fallback provider, sharing timeouts
// and input limits with the primary one.
func (e *ExtractorConfig) Fallback() (ExtractorConfig, bool) {
	if e.FallbackProvider == "" {
		return ExtractorConfig{}, false
	}
	fb := *e
	fb.Provider = e.FallbackProvider
	fb.APIKey = e.FallbackAPIKey
	fb.Model = e.FallbackModel
	fb.FallbackProvider = ""
	fb.FallbackAPIKey = ""
	fb.FallbackModel = ""
	return fb, true
}

// BatchConfig holds orchestrator settings.
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// DedupConfig holds duplicate detection settings.
type DedupConfig struct {
	// IncludeSourceFilename makes the filename part of the fingerprint, so the
	// same invoice found in two files is not a duplicate.
	IncludeSourceFilename bool `mapstructure:"include_source_filename"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// S3Config holds the optional S3 result sink settings. The sink is disabled
// when Bucket is empty.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// Enabled reports whether results should be uploaded.
func (s *S3Config) Enabled() bool {
	return s.Bucket != ""
}

// DBConfig holds the optional PostgreSQL result sink settings.
type DBConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Load reads configuration from an optional .env file and environment
// variables with the FACTURAI_ prefix.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("FACTURAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Input defaults
	v.SetDefault("input.dir", "Data")

	// Output defaults
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.all_file", "invoices_all.csv")
	v.SetDefault("output.unique_file", "invoices_unique.csv")
	v.SetDefault("output.duplicates_file", "invoices_duplicates.csv")
	v.SetDefault("output.xlsx_file", "")
	v.SetDefault("output.summary_file", "")
	v.SetDefault("output.bom", false)

	// Extractor defaults
	v.SetDefault("extractor.provider", "gemini")
	v.SetDefault("extractor.api_key", "")
	v.SetDefault("extractor.model", "")
	v.SetDefault("extractor.timeout_secs", 120)
	v.SetDefault("extractor.max_context_chars", 30000)
	v.SetDefault("extractor.input_mode", "text")
	v.SetDefault("extractor.mock_response_path", "")
	v.SetDefault("extractor.fallback_provider", "")
	v.SetDefault("extractor.fallback_api_key", "")
	v.SetDefault("extractor.fallback_model", "")

	v.SetDefault("batch.concurrency", 1)
	v.SetDefault("dedup.include_source_filename", true)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// S3 defaults
	v.SetDefault("s3.region", "eu-west-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "facturai")
	v.SetDefault("s3.endpoint", "")

	// DB defaults
	v.SetDefault("db.enabled", false)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "facturai")
	v.SetDefault("db.password", "facturai_secret")
	v.SetDefault("db.name", "facturai_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 5)
	v.SetDefault("db.max_idle", 2)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string][]string{
		"input.dir":                     {"FACTURAI_INPUT_DIR"},
		"output.dir":                    {"FACTURAI_OUTPUT_DIR"},
		"output.all_file":               {"FACTURAI_OUTPUT_ALL_FILE"},
		"output.unique_file":            {"FACTURAI_OUTPUT_UNIQUE_FILE"},
		"output.duplicates_file":        {"FACTURAI_OUTPUT_DUPLICATES_FILE"},
		"output.xlsx_file":              {"FACTURAI_OUTPUT_XLSX_FILE"},
		"output.summary_file":           {"FACTURAI_OUTPUT_SUMMARY_FILE"},
		"output.bom":                    {"FACTURAI_OUTPUT_BOM"},
		"extractor.provider":            {"FACTURAI_EXTRACTOR_PROVIDER"},
		"extractor.api_key":             {"FACTURAI_EXTRACTOR_API_KEY", "GOOGLE_API_KEY"},
		"extractor.model":               {"FACTURAI_EXTRACTOR_MODEL"},
		"extractor.timeout_secs":        {"FACTURAI_EXTRACTOR_TIMEOUT_SECS"},
		"extractor.max_context_chars":   {"FACTURAI_EXTRACTOR_MAX_CONTEXT_CHARS"},
		"extractor.input_mode":          {"FACTURAI_EXTRACTOR_INPUT_MODE"},
		"extractor.mock_response_path":  {"FACTURAI_EXTRACTOR_MOCK_RESPONSE_PATH"},
		"extractor.fallback_provider":   {"FACTURAI_EXTRACTOR_FALLBACK_PROVIDER"},
		"extractor.fallback_api_key":    {"FACTURAI_EXTRACTOR_FALLBACK_API_KEY"},
		"extractor.fallback_model":      {"FACTURAI_EXTRACTOR_FALLBACK_MODEL"},
		"batch.concurrency":             {"FACTURAI_BATCH_CONCURRENCY"},
		"dedup.include_source_filename": {"FACTURAI_DEDUP_INCLUDE_SOURCE_FILENAME"},
		"log.level":                     {"FACTURAI_LOG_LEVEL"},
		"log.format":                    {"FACTURAI_LOG_FORMAT"},
		"s3.region":                     {"FACTURAI_S3_REGION"},
		"s3.bucket":                     {"FACTURAI_S3_BUCKET"},
		"s3.prefix":                     {"FACTURAI_S3_PREFIX"},
		"s3.endpoint":                   {"FACTURAI_S3_ENDPOINT"},
		"s3.access_key":                 {"FACTURAI_S3_ACCESS_KEY"},
		"s3.secret_key":                 {"FACTURAI_S3_SECRET_KEY"},
		"db.enabled":                    {"FACTURAI_DB_ENABLED"},
		"db.host":                       {"FACTURAI_DB_HOST"},
		"db.port":                       {"FACTURAI_DB_PORT"},
		"db.user":                       {"FACTURAI_DB_USER"},
		"db.password":                   {"FACTURAI_DB_PASSWORD"},
		"db.name":                       {"FACTURAI_DB_NAME"},
		"db.sslmode":                    {"FACTURAI_DB_SSLMODE"},
		"db.max_open":                   {"FACTURAI_DB_MAX_OPEN"},
		"db.max_idle":                   {"FACTURAI_DB_MAX_IDLE"},
	}
	for key, envs := range envBindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	cfg := &Config{}
	cfg.Input = InputConfig{
		Dir: v.GetString("input.dir"),
	}
	cfg.Output = OutputConfig{
		Dir:            v.GetString("output.dir"),
		AllFile:        v.GetString("output.all_file"),
		UniqueFile:     v.GetString("output.unique_file"),
		DuplicatesFile: v.GetString("output.duplicates_file"),
		XLSXFile:       v.GetString("output.xlsx_file"),
		SummaryFile:    v.GetString("output.summary_file"),
		BOM:            v.GetBool("output.bom"),
	}
	cfg.Extractor = ExtractorConfig{
		Provider:         v.GetString("extractor.provider"),
		APIKey:           v.GetString("extractor.api_key"),
		Model:            v.GetString("extractor.model"),
		TimeoutSecs:      v.GetInt("extractor.timeout_secs"),
		MaxContextChars:  v.GetInt("extractor.max_context_chars"),
		InputMode:        v.GetString("extractor.input_mode"),
		MockResponsePath: v.GetString("extractor.mock_response_path"),
		FallbackProvider: v.GetString("extractor.fallback_provider"),
		FallbackAPIKey:   v.GetString("extractor.fallback_api_key"),
		FallbackModel:    v.GetString("extractor.fallback_model"),
	}
	cfg.Batch = BatchConfig{
		Concurrency: v.GetInt("batch.concurrency"),
	}
	cfg.Dedup = DedupConfig{
		IncludeSourceFilename: v.GetBool("dedup.include_source_filename"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Prefix:    v.GetString("s3.prefix"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
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
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Extractor.InputMode {
	case "text", "document":
	default:
		return fmt.Errorf("invalid extractor.input_mode %q: want text or document", c.Extractor.InputMode)
	}
	if c.Extractor.MaxContextChars <= 0 {
		return fmt.Errorf("extractor.max_context_chars must be positive, got %d", c.Extractor.MaxContextChars)
	}
	if c.Extractor.FallbackProvider != "" && c.Extractor.FallbackProvider == c.Extractor.Provider {
		return fmt.Errorf("extractor.fallback_provider must differ from extractor.provider %q", c.Extractor.Provider)
	}
	if c.Batch.Concurrency < 1 {
		c.Batch.Concurrency = 1
	}
	return nil
}
