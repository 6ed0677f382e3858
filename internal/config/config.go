// =============================================================================
// FX Booking Transformer - Configuration Module
// =============================================================================
//
// This module loads the two layers of configuration:
//
//   1. Main Config (config.yaml): global settings, read with viper so every
//      key can also be set from the environment (FXBT_ prefix, "." -> "_",
//      e.g. FXBT_POSTGRES_DSN).
//   2. Event Configs (configs/*.yaml): one file per instruction event. Each
//      says where the aggregated records come from and which overrides and
//      output rules apply to the bookings generated for that event.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables that override main
// config keys.
const EnvPrefix = "FXBT"

// ErrUnknownSourceKind is returned for an event source kind this build does
// not support.
var ErrUnknownSourceKind = errors.New("unknown source kind")

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for aggregated record files (CSV or XLSX).
	// Default: "./input"
	InputDir string `mapstructure:"input_dir"`

	// OutputDir receives the generated booking XML files.
	// Default: "./output"
	OutputDir string `mapstructure:"output_dir"`

	// InputArchiveDir receives input files after successful processing.
	// Default: "./input_archive"
	InputArchiveDir string `mapstructure:"input_archive_dir"`

	// OutputArchiveDir keeps a copy of every generated XML file.
	// Default: "./output_archive"
	OutputArchiveDir string `mapstructure:"output_archive_dir"`

	// ConfigsDir holds one YAML file per instruction event.
	// Default: "./configs"
	ConfigsDir string `mapstructure:"configs_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile receives a copy of the log output. Empty disables it.
	// Default: "./logs/transformer.log"
	LogFile string `mapstructure:"log_file"`

	// LogLevel is one of "trace", "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is "text" or "json".
	// Default: "text"
	LogFormat string `mapstructure:"log_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// OutputFileNameFormat names generated files. Placeholders: {uuid},
	// {timestamp}, {date}, {time}, {event}.
	// Default: "{event}_{uuid}.xml"
	OutputFileNameFormat string `mapstructure:"output_file_name_format"`

	// MaxConcurrency caps both the input files processed at once and the
	// groups of one file transformed at once.
	// Default: 4
	MaxConcurrency int `mapstructure:"max_concurrency"`

	// ContinueOnError keeps a file going after one of its groups fails.
	// The failed groups are reported and left out of the output.
	// Default: false
	ContinueOnError bool `mapstructure:"continue_on_error"`

	// ArchiveOnSuccess moves processed input files to InputArchiveDir.
	// Default: true
	ArchiveOnSuccess bool `mapstructure:"archive_on_success"`

	// =========================================================================
	// CONNECTIONS
	// =========================================================================

	Postgres PostgresConfig `mapstructure:"postgres"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

// PostgresConfig configures the database source of aggregated records.
type PostgresConfig struct {
	// DSN is a libpq connection string or URL. Empty disables the source.
	DSN string `mapstructure:"dsn"`

	// MaxConns caps the pool size. Zero keeps the pgx default.
	MaxConns int32 `mapstructure:"max_conns"`
}

// RabbitMQConfig configures publishing of generated external records.
type RabbitMQConfig struct {
	// URL of the broker. Empty disables publishing.
	URL string `mapstructure:"url"`

	// Exchange is the fanout exchange records are published to.
	// Default: "fx.bookings"
	Exchange string `mapstructure:"exchange"`
}

// =============================================================================
// EVENT CONFIGURATION STRUCTURE
// =============================================================================

// Source kinds.
const (
	SourceFile     = "file" // CSV or XLSX, chosen by file extension
	SourceCSV      = "csv"
	SourceXLSX     = "xlsx"
	SourcePostgres = "postgres"
)

// EventConfig holds the settings of one instruction event.
type EventConfig struct {
	// InstructionEvent is the event these settings apply to, e.g.
	// "Inception" or "RolledOver".
	InstructionEvent string `yaml:"instruction_event"`

	// Description is free text shown by the validate command.
	Description string `yaml:"description"`

	// FileMatchingPatterns are glob patterns matched against file names in
	// the input directory. Example: ["inception_*.csv", "inception_*.xlsx"]
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// Source says where records come from.
	Source SourceConfig `yaml:"source"`

	// CSVSettings controls CSV parsing for csv and file sources.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// InputCurrency and USDCurrency are passed to handlers as request
	// parameters.
	InputCurrency string `yaml:"input_currency"`
	USDCurrency   string `yaml:"usd_currency"`

	// Overrides are written onto every generated trade leg after mapping.
	Overrides OverrideConfig `yaml:"overrides"`

	// TransformationRules are applied to the external records before
	// output.
	TransformationRules []TransformationRule `yaml:"transformation_rules"`

	// Path is the file the settings were loaded from.
	Path string `yaml:"-"`
}

// SourceConfig describes the data source of an event.
type SourceConfig struct {
	// Kind is one of "file", "csv", "xlsx", "postgres". Default: "file".
	Kind string `yaml:"kind"`

	// Sheet is the XLSX sheet to read. Default: the first sheet.
	Sheet string `yaml:"sheet"`

	// HeaderRow is the 1-indexed XLSX header row. Default: 1.
	HeaderRow int `yaml:"header_row"`

	// Query is the SQL run by the postgres source. It may reference the
	// named arguments @business_date, @trade_ids (text[]), @typology and
	// @input_currency.
	Query string `yaml:"query"`
}

// CSVSettings defines how to parse CSV files.
type CSVSettings struct {
	// Delimiter is the field separator. Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows. Multi-row headers are
	// merged column by column. Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the 1-indexed first data row. Default: 2
	DataStartRow int `yaml:"data_start_row"`

	// Comment marks lines to skip when it is their first character.
	Comment string `yaml:"comment"`
}

// OverrideConfig holds override values by field name.
type OverrideConfig struct {
	// Default applies to every typology.
	Default map[string]any `yaml:"default"`

	// ByTypology applies to one typology and wins over Default.
	ByTypology map[string]map[string]any `yaml:"by_typology"`
}

// For returns the merged overrides for typology.
func (o OverrideConfig) For(typology string) map[string]any {
	merged := make(map[string]any, len(o.Default))
	for k, v := range o.Default {
		merged[k] = v
	}
	for k, v := range o.ByTypology[typology] {
		merged[k] = v
	}
	return merged
}

// TransformationRule applies actions to one external record field.
type TransformationRule struct {
	// Field is the external record field name, e.g. "portfolio".
	Field string `yaml:"field"`

	// Actions run in order, each on the previous one's output.
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction is one step of a rule.
//
// SUPPORTED ACTION TYPES:
//   - prepend_string, append_string: Value is the text
//   - trim, uppercase, lowercase, remove_leading_zeros
//   - replace: Find -> Value; regex_replace: Find is a regular expression
//   - pad_zeros_to_length, ensure_length: Value is the length
//   - if_empty_use_default: Value is the default
//   - lookup, lookup_with_default: LookupTable, Value is the default
type TransformationAction struct {
	Type        string            `yaml:"type"`
	Value       string            `yaml:"value"`
	Find        string            `yaml:"find,omitempty"`
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// EventConfigs is the set of loaded event configs, ordered by file name.
type EventConfigs []*EventConfig

// ForEvent finds the config of event, ignoring case.
func (cs EventConfigs) ForEvent(event string) (*EventConfig, bool) {
	for _, c := range cs {
		if strings.EqualFold(c.InstructionEvent, event) {
			return c, true
		}
	}
	return nil, false
}

// =============================================================================
// LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig reads the main configuration file. A missing file is not
// an error: defaults and environment variables still apply.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	v := viper.New()
	applyMainConfigDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config MainConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
}

// applyMainConfigDefaults registers the default of every key. Registering
// all keys also lets AutomaticEnv reach them during Unmarshal.
func applyMainConfigDefaults(v *viper.Viper) {
	v.SetDefault("input_dir", "./input")
	v.SetDefault("output_dir", "./output")
	v.SetDefault("input_archive_dir", "./input_archive")
	v.SetDefault("output_archive_dir", "./output_archive")
	v.SetDefault("configs_dir", "./configs")
	v.SetDefault("log_file", "./logs/transformer.log")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("output_file_name_format", "{event}_{uuid}.xml")
	v.SetDefault("max_concurrency", 4)
	v.SetDefault("continue_on_error", false)
	v.SetDefault("archive_on_success", true)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_conns", 0)
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "fx.bookings")
}

func validateMainConfig(config *MainConfig) error {
	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}
	if _, err := logrus.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch config.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", config.LogFormat)
	}
	if config.RabbitMQ.URL != "" && config.RabbitMQ.Exchange == "" {
		return errors.New("rabbitmq.exchange is required when rabbitmq.url is set")
	}
	return nil
}

// LoadEventConfigs loads every *.yaml and *.yml file in configsDir.
//
// RETURNS:
//   - The configs ordered by file name.
//   - An error if a file cannot be read or is invalid, or if two files
//     configure the same instruction event.
func LoadEventConfigs(configsDir string) (EventConfigs, error) {
	files, err := filepath.Glob(filepath.Join(configsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(configsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	files = append(files, ymlFiles...)
	sort.Strings(files)

	var configs EventConfigs
	for _, file := range files {
		config, err := LoadEventConfig(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		if prev, dup := configs.ForEvent(config.InstructionEvent); dup {
			return nil, fmt.Errorf("instruction event %s is configured by both %s and %s", config.InstructionEvent, prev.Path, file)
		}
		configs = append(configs, config)
	}

	return configs, nil
}

// LoadEventConfig loads one event config file.
func LoadEventConfig(filePath string) (*EventConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config EventConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}
	config.Path = filePath

	applyEventConfigDefaults(&config)
	if err := validateEventConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func applyEventConfigDefaults(config *EventConfig) {
	if config.Source.Kind == "" {
		config.Source.Kind = SourceFile
	}
	config.Source.Kind = strings.ToLower(config.Source.Kind)
	if config.Source.HeaderRow == 0 {
		config.Source.HeaderRow = 1
	}
	if config.CSVSettings.Delimiter == "" {
		config.CSVSettings.Delimiter = ","
	}
	if config.CSVSettings.HeaderRows == 0 {
		config.CSVSettings.HeaderRows = 1
	}
	if config.CSVSettings.DataStartRow == 0 {
		config.CSVSettings.DataStartRow = config.CSVSettings.HeaderRows + 1
	}
	if config.USDCurrency == "" {
		config.USDCurrency = "USD"
	}
}

func validateEventConfig(config *EventConfig) error {
	if strings.TrimSpace(config.InstructionEvent) == "" {
		return errors.New("instruction_event is required")
	}
	switch config.Source.Kind {
	case SourceFile, SourceCSV, SourceXLSX:
		if len(config.FileMatchingPatterns) == 0 {
			return fmt.Errorf("file_matching_patterns is required for %s sources", config.Source.Kind)
		}
	case SourcePostgres:
		if strings.TrimSpace(config.Source.Query) == "" {
			return errors.New("source.query is required for postgres sources")
		}
	default:
		return fmt.Errorf("source.kind %q: %w", config.Source.Kind, ErrUnknownSourceKind)
	}
	if config.CSVSettings.HeaderRows < 1 {
		return errors.New("csv_settings.header_rows must be at least 1")
	}
	if len([]rune(config.CSVSettings.Delimiter)) != 1 {
		return fmt.Errorf("csv_settings.delimiter must be a single character, got %q", config.CSVSettings.Delimiter)
	}
	return nil
}
