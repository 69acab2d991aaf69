// Package config loads application configuration from file and
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"flowmetrics/internal/domain/wiql"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	AuthSecret string `mapstructure:"authSecret"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// AzureConfig holds tracker connection settings.
type AzureConfig struct {
	OrgURL     string        `mapstructure:"orgUrl"`
	Project    string        `mapstructure:"project"`
	PAT        string        `mapstructure:"pat"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"maxRetries"`
	BatchSize  int           `mapstructure:"batchSize"`
}

// MetricsConfig holds default report settings.
type MetricsConfig struct {
	Filter          string `mapstructure:"filter"`
	DaysBack        int    `mapstructure:"daysBack"`
	ThroughputWeeks int    `mapstructure:"throughputWeeks"`
}

// CacheConfig holds query cache settings.
type CacheConfig struct {
	QuerySize int `mapstructure:"querySize"`
}

// DatabaseConfig holds snapshot store settings. Empty DSN disables
// persistence.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// FieldConfig declares a custom work item field.
type FieldConfig struct {
	DisplayName   string   `mapstructure:"displayName"`
	ReferenceName string   `mapstructure:"referenceName"`
	Type          string   `mapstructure:"type"`
	Sortable      *bool    `mapstructure:"sortable"`
	Queryable     *bool    `mapstructure:"queryable"`
	Operators     []string `mapstructure:"operators"`
}

// Config is the root application configuration.
type Config struct {
	Server       ServerConfig   `mapstructure:"server"`
	Log          LogConfig      `mapstructure:"log"`
	Azure        AzureConfig    `mapstructure:"azure"`
	Metrics      MetricsConfig  `mapstructure:"metrics"`
	Cache        CacheConfig    `mapstructure:"cache"`
	Database     DatabaseConfig `mapstructure:"database"`
	CustomFields []FieldConfig  `mapstructure:"customFields"`
}

// Load reads configuration from the given file (optional) and the
// environment. Environment variables use the FLOWMETRICS_ prefix with
// underscores for nesting, e.g. FLOWMETRICS_AZURE_PAT.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FLOWMETRICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Viper only consults the environment for keys it already knows.
	// Bind every key explicitly so env-only settings (a PAT or DSN kept
	// out of the config file) are picked up by Unmarshal.
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("flowmetrics")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/flowmetrics")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// configKeys lists every scalar key so environment overrides work even
// for keys with no default and no config file entry.
var configKeys = []string{
	"server.addr",
	"server.authSecret",
	"log.level",
	"log.development",
	"azure.orgUrl",
	"azure.project",
	"azure.pat",
	"azure.timeout",
	"azure.maxRetries",
	"azure.batchSize",
	"metrics.filter",
	"metrics.daysBack",
	"metrics.throughputWeeks",
	"cache.querySize",
	"database.dsn",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("azure.timeout", "30s")
	v.SetDefault("azure.maxRetries", 3)
	v.SetDefault("azure.batchSize", 200)
	v.SetDefault("metrics.daysBack", 90)
	v.SetDefault("metrics.throughputWeeks", 12)
	v.SetDefault("cache.querySize", 512)
}

// fieldTypes maps config type names to field types.
var fieldTypes = map[string]wiql.FieldType{
	"string":    wiql.TypeString,
	"integer":   wiql.TypeInteger,
	"double":    wiql.TypeDouble,
	"boolean":   wiql.TypeBoolean,
	"datetime":  wiql.TypeDateTime,
	"identity":  wiql.TypeIdentity,
	"treepath":  wiql.TypeTreePath,
	"guid":      wiql.TypeGuid,
	"plaintext": wiql.TypePlainText,
	"html":      wiql.TypeHTML,
	"history":   wiql.TypeHistory,
}

// FieldRegistry builds the field registry with custom fields applied.
func (c *Config) FieldRegistry() (*wiql.Registry, error) {
	reg := wiql.NewRegistry()

	for _, fc := range c.CustomFields {
		if fc.ReferenceName == "" {
			return nil, fmt.Errorf("custom field missing referenceName")
		}

		t, ok := fieldTypes[strings.ToLower(fc.Type)]
		if !ok {
			return nil, fmt.Errorf("custom field %s: unknown type %q", fc.ReferenceName, fc.Type)
		}

		name := fc.DisplayName
		if name == "" {
			name = fc.ReferenceName
		}

		def := wiql.NewField(name, fc.ReferenceName, t)
		if fc.Sortable != nil && !*fc.Sortable {
			def = def.NotSortable()
		}
		if fc.Queryable != nil {
			def.Queryable = *fc.Queryable
		}
		if len(fc.Operators) > 0 {
			ops := make([]wiql.Operator, 0, len(fc.Operators))
			for _, raw := range fc.Operators {
				ops = append(ops, wiql.Operator(strings.ToUpper(raw)))
			}
			def = def.WithOperators(ops...)
		}
		reg.Register(def)
	}
	return reg, nil
}
