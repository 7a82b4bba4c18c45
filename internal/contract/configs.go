package contract

import (
	"fmt"
	"maps"
	"runtime"
	"strconv"
	"strings"

	"github.com/raporkit/rapor/schema"
)

// Default values for configuration.
const (
	DefaultPrecision  = 2
	DefaultLocale     = "id"
	DefaultServeAddr  = ":8080"
	DefaultSortClicks = 1
)

// DefaultWorkers is the default bulk save dispatch width. Zero means one goroutine per write.
var DefaultWorkers = 0

// MaxWorkers caps the dispatch width.
var MaxWorkers = 16 * runtime.GOMAXPROCS(0)

// WeightsRawInput holds the final-grade weights from the YAML config file.
type WeightsRawInput struct {
	TP  *float64 `mapstructure:"tp"`
	UAS *float64 `mapstructure:"uas"`
}

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	Scope         schema.Scope
	StudentID     string
	Cohort        string
	TrendGrouping schema.TrendGrouping

	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	Locale     string

	SortKey    string
	SortClicks int

	Workers   int
	InputFile string

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	ServeAddr      string
	AllowedOrigins []string

	// Weights is the final-grade split between TP average and UAS.
	Weights schema.GradeWeights

	// ThresholdOverrides apply on top of seeded and stored thresholds.
	// A nil value switches the threshold off.
	ThresholdOverrides map[schema.ColumnKey]*float64
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Class          string `mapstructure:"class"`
	Subject        string `mapstructure:"subject"`
	Term           string `mapstructure:"term"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Precision      int    `mapstructure:"precision"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	Locale         string `mapstructure:"locale"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`

	// --- Fields from the view commands ---
	Sort       string `mapstructure:"sort"`
	SortClicks int    `mapstructure:"sort-clicks"`

	// --- Fields from trendCmd.Flags() ---
	Student string `mapstructure:"student"`
	Cohort  string `mapstructure:"cohort"`
	GroupBy string `mapstructure:"group-by"`

	// --- Fields from saveCmd.Flags() and seed ---
	Input   string `mapstructure:"input"`
	Workers int    `mapstructure:"workers"`

	// --- Fields from serveCmd.Flags() ---
	Addr           string `mapstructure:"addr"`
	AllowedOrigins string `mapstructure:"allowed-origins"`

	// --- Threshold overrides from flag and config file ---
	ThresholdsStr string              `mapstructure:"thresholds-override"`
	Thresholds    map[string]*float64 `mapstructure:"thresholds"`

	// --- Final-grade weights from config file ---
	Weights WeightsRawInput `mapstructure:"weights"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.AllowedOrigins != nil {
		clone.AllowedOrigins = make([]string, len(c.AllowedOrigins))
		copy(clone.AllowedOrigins, c.AllowedOrigins)
	}
	if c.ThresholdOverrides != nil {
		clone.ThresholdOverrides = make(map[schema.ColumnKey]*float64, len(c.ThresholdOverrides))
		maps.Copy(clone.ThresholdOverrides, c.ThresholdOverrides)
	}
	return &clone
}

// CloneWithScope creates a copy of the Config for another class, subject and term.
func (c *Config) CloneWithScope(scope schema.Scope) *Config {
	clone := c.Clone()
	clone.Scope = scope
	return clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	if err := processTrendInputs(cfg, input); err != nil {
		return err
	}
	if err := processWeights(cfg, input); err != nil {
		return err
	}
	if err := processThresholdOverrides(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseBackend normalizes and validates a backend name. Empty means sqlite.
func ParseBackend(s string) (schema.DatabaseBackend, error) {
	if strings.TrimSpace(s) == "" {
		return schema.SQLiteBackend, nil
	}
	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", s)
	}
	return backend, nil
}

// validateBackendConfig validates the store backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	backend, err := ParseBackend(input.StoreBackend)
	if err != nil {
		return err
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = input.StoreDBConnect
	return ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect)
}

// validateSimpleInputs processes and validates all scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.Scope = schema.Scope{
		ClassID:   strings.TrimSpace(input.Class),
		SubjectID: strings.TrimSpace(input.Subject),
		TermID:    strings.TrimSpace(input.Term),
	}
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.InputFile = input.Input
	cfg.SortKey = strings.TrimSpace(input.Sort)

	cfg.Locale = input.Locale
	if cfg.Locale == "" {
		cfg.Locale = DefaultLocale
	}

	cfg.ServeAddr = input.Addr
	if cfg.ServeAddr == "" {
		cfg.ServeAddr = DefaultServeAddr
	}
	cfg.AllowedOrigins = nil
	for o := range strings.SplitSeq(input.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Sort clicks ---
	if input.SortClicks < 0 {
		return fmt.Errorf("sort-clicks cannot be negative (received %d)", input.SortClicks)
	}
	cfg.SortClicks = input.SortClicks

	// --- 2. Workers Validation ---
	if input.Workers < 0 || input.Workers > MaxWorkers {
		return fmt.Errorf("workers must be between 0 and %d (received %d)", MaxWorkers, input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}

	return nil
}

// processTrendInputs resolves the trend grouping from the student, class and cohort selectors.
func processTrendInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.StudentID = strings.TrimSpace(input.Student)
	cfg.Cohort = strings.TrimSpace(input.Cohort)

	group := schema.TrendGrouping(strings.ToLower(strings.TrimSpace(input.GroupBy)))
	if group == "" {
		switch {
		case cfg.StudentID != "":
			group = schema.TrendByStudent
		case cfg.Cohort != "":
			group = schema.TrendByCohort
		default:
			group = schema.TrendByClass
		}
	}
	if _, ok := schema.ValidTrendGroupings[group]; !ok {
		return fmt.Errorf("invalid group-by '%s'. must be student, class, cohort", input.GroupBy)
	}
	cfg.TrendGrouping = group
	return nil
}

// processWeights applies custom final-grade weights and validates that they sum to 1.0.
func processWeights(cfg *Config, input *ConfigRawInput) error {
	w := schema.DefaultGradeWeights()
	custom := input.Weights.TP != nil || input.Weights.UAS != nil
	if input.Weights.TP != nil {
		w.TP = *input.Weights.TP
	}
	if input.Weights.UAS != nil {
		w.UAS = *input.Weights.UAS
	}
	if w.TP < 0 || w.UAS < 0 {
		return fmt.Errorf("final-grade weights cannot be negative (tp=%.3f, uas=%.3f)", w.TP, w.UAS)
	}
	if sum := w.TP + w.UAS; custom && (sum < 0.999 || sum > 1.001) {
		return fmt.Errorf("final-grade weights must sum to 1.0, got %.3f", sum)
	}
	cfg.Weights = w
	return nil
}

// processThresholdOverrides merges the config file thresholds map with the
// --thresholds-override flag. The flag takes precedence.
func processThresholdOverrides(cfg *Config, input *ConfigRawInput) error {
	overrides := make(map[schema.ColumnKey]*float64)

	for k, v := range input.Thresholds {
		key, err := schema.ParseColumnKey(k)
		if err != nil {
			return fmt.Errorf("invalid thresholds entry: %w", err)
		}
		overrides[key] = v
	}

	if input.ThresholdsStr != "" {
		parsed, err := ParseThresholdsString(input.ThresholdsStr)
		if err != nil {
			return fmt.Errorf("invalid --thresholds-override format: %w", err)
		}
		maps.Copy(overrides, parsed)
	}

	for key, v := range overrides {
		if v != nil && (*v < 0.0 || *v > 100.0) {
			return fmt.Errorf("threshold for %s must be between 0.0 and 100.0 (received %.2f)", key, *v)
		}
	}

	if len(overrides) == 0 {
		overrides = nil
	}
	cfg.ThresholdOverrides = overrides
	return nil
}

// ParseThresholdsString parses a string like "TP1:70,UAS:80,FINAL:off" into
// threshold overrides. The value "off" (or "none") switches a threshold off.
func ParseThresholdsString(s string) (map[schema.ColumnKey]*float64, error) {
	thresholds := make(map[schema.ColumnKey]*float64)

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		keyValue := strings.Split(part, ":")
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("invalid threshold format '%s', expected 'column:value'", part)
		}

		key, err := schema.ParseColumnKey(keyValue[0])
		if err != nil {
			return nil, err
		}

		valueStr := strings.ToLower(strings.TrimSpace(keyValue[1]))
		if valueStr == "off" || valueStr == "none" {
			thresholds[key] = nil
			continue
		}

		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold value '%s' for %s: %w", valueStr, key, err)
		}
		thresholds[key] = &value
	}

	return thresholds, nil
}
