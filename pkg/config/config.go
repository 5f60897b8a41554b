// Package config provides the unified configuration system for Forklift.
// It defines a single Config structure covering the whole pipeline run,
// ensuring generation, dataset and load settings travel together.
//
// The configuration is organized into logical sections:
//   - Generation: row counts, seed, date window, sampling policy, value ranges
//   - Dataset: raw table sink directory, file format, compression
//   - Load: destination selection, write modes, timeouts, batching
//   - Logging: level, encoding, development mode
//
// Example usage:
//
//	cfg := config.Default()
//	cfg.Generation.Orders = 500
//	cfg.Generation.Seed = 42
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ajitpratap0/forklift/pkg/compression"
	"github.com/ajitpratap0/forklift/pkg/errors"
)

// Sampling policies for entity references in generated orders
const (
	SamplingUniform  = "uniform"
	SamplingWeighted = "weighted"
)

// Dataset file formats
const (
	FormatCSV    = "csv"
	FormatNDJSON = "ndjson"
)

// Write modes applied per warehouse table
const (
	ModeFullRefresh = "full-refresh"
	ModeUpsert      = "upsert"
)

// DateLayout is the wire format for the generation date window
const DateLayout = "2006-01-02"

// Config is the single configuration structure for a pipeline run
type Config struct {
	// Generation controls the synthetic dataset
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`

	// Dataset controls the raw table sink
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`

	// Load controls the warehouse write
	Load LoadConfig `yaml:"load" mapstructure:"load"`

	// Logging controls log output
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// GenerationConfig contains all generator settings.
// Counts of zero are legal and produce empty tables; negative counts
// are rejected by Validate.
type GenerationConfig struct {
	// Seed drives every random stream; equal seeds reproduce equal output
	Seed int64 `yaml:"seed" mapstructure:"seed"`
	// Customers is the customer row count
	Customers int `yaml:"customers" mapstructure:"customers"`
	// Restaurants is the restaurant row count
	Restaurants int `yaml:"restaurants" mapstructure:"restaurants"`
	// Drivers is the driver row count
	Drivers int `yaml:"drivers" mapstructure:"drivers"`
	// Orders is the order row count
	Orders int `yaml:"orders" mapstructure:"orders"`
	// StartDate is the inclusive lower bound for order timestamps (2006-01-02)
	StartDate string `yaml:"start_date" mapstructure:"start_date"`
	// EndDate is the inclusive upper bound for order timestamps (2006-01-02)
	EndDate string `yaml:"end_date" mapstructure:"end_date"`
	// Sampling selects how order references pick entities (uniform, weighted)
	Sampling string `yaml:"sampling" mapstructure:"sampling"`
	// RestaurantRating bounds generated restaurant ratings
	RestaurantRating Range `yaml:"restaurant_rating" mapstructure:"restaurant_rating"`
	// DriverRating bounds generated driver ratings
	DriverRating Range `yaml:"driver_rating" mapstructure:"driver_rating"`
	// MenuPrice clamps generated menu item prices
	MenuPrice Range `yaml:"menu_price" mapstructure:"menu_price"`
	// MaxItemsPerOrder caps distinct line items per order
	MaxItemsPerOrder int `yaml:"max_items_per_order" mapstructure:"max_items_per_order"`
}

// Range is an inclusive numeric bound pair
type Range struct {
	Min float64 `yaml:"min" mapstructure:"min"`
	Max float64 `yaml:"max" mapstructure:"max"`
}

// Contains reports whether v lies inside the range
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// DatasetConfig contains raw sink settings
type DatasetConfig struct {
	// Dir is the directory raw table files are written to
	Dir string `yaml:"dir" mapstructure:"dir"`
	// Format selects the file format (csv, ndjson)
	Format string `yaml:"format" mapstructure:"format"`
	// Compression selects the table file codec (none, gzip, zstd, lz4)
	Compression string `yaml:"compression" mapstructure:"compression"`
}

// LoadConfig contains warehouse write settings
type LoadConfig struct {
	// Destination names the registered warehouse destination (csv, postgres, snowflake)
	Destination string `yaml:"destination" mapstructure:"destination"`
	// DSN is the destination connection string; unused by the csv destination
	DSN string `yaml:"dsn" mapstructure:"dsn"`
	// Options carries destination-specific settings (e.g. dir for csv)
	Options map[string]string `yaml:"options" mapstructure:"options"`
	// DefaultMode applies to tables without an explicit mode (full-refresh, upsert)
	DefaultMode string `yaml:"default_mode" mapstructure:"default_mode"`
	// TableModes overrides the write mode per table
	TableModes map[string]string `yaml:"table_modes" mapstructure:"table_modes"`
	// TableTimeout bounds each per-table write; zero disables the deadline
	TableTimeout time.Duration `yaml:"table_timeout" mapstructure:"table_timeout"`
	// BatchSize controls rows per destination write batch
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	// Level sets the minimum log level (debug, info, warn, error)
	Level string `yaml:"level" mapstructure:"level"`
	// Encoding selects json or console output
	Encoding string `yaml:"encoding" mapstructure:"encoding"`
	// Development enables colored console output and stacktraces
	Development bool `yaml:"development" mapstructure:"development"`
}

// Default returns a Config with production-ready values
func Default() *Config {
	return &Config{
		Generation: GenerationConfig{
			Seed:             42,
			Customers:        1000,
			Restaurants:      100,
			Drivers:          250,
			Orders:           5000,
			StartDate:        "2024-01-01",
			EndDate:          "2024-12-31",
			Sampling:         SamplingWeighted,
			RestaurantRating: Range{Min: 2.5, Max: 5.0},
			DriverRating:     Range{Min: 3.0, Max: 5.0},
			MenuPrice:        Range{Min: 1.0, Max: 120.0},
			MaxItemsPerOrder: 8,
		},
		Dataset: DatasetConfig{
			Dir:         "data/raw",
			Format:      FormatCSV,
			Compression: compression.None,
		},
		Load: LoadConfig{
			Destination:  "csv",
			Options:      map[string]string{"dir": "data/warehouse"},
			DefaultMode:  ModeFullRefresh,
			TableModes:   map[string]string{},
			TableTimeout: 2 * time.Minute,
			BatchSize:    5000,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Validate checks the whole configuration and reports every invalid
// field in a single configuration error.
func (c *Config) Validate() error {
	var problems []string

	if c.Generation.Customers < 0 {
		problems = append(problems, "generation.customers must not be negative")
	}
	if c.Generation.Restaurants < 0 {
		problems = append(problems, "generation.restaurants must not be negative")
	}
	if c.Generation.Drivers < 0 {
		problems = append(problems, "generation.drivers must not be negative")
	}
	if c.Generation.Orders < 0 {
		problems = append(problems, "generation.orders must not be negative")
	}

	start, err := time.Parse(DateLayout, c.Generation.StartDate)
	if err != nil {
		problems = append(problems, fmt.Sprintf("generation.start_date %q is not a valid date", c.Generation.StartDate))
	}
	end, err := time.Parse(DateLayout, c.Generation.EndDate)
	if err != nil {
		problems = append(problems, fmt.Sprintf("generation.end_date %q is not a valid date", c.Generation.EndDate))
	} else if c.Generation.StartDate != "" && end.Before(start) {
		problems = append(problems, "generation.end_date precedes generation.start_date")
	}

	switch c.Generation.Sampling {
	case SamplingUniform, SamplingWeighted:
	default:
		problems = append(problems, fmt.Sprintf("generation.sampling %q must be %q or %q",
			c.Generation.Sampling, SamplingUniform, SamplingWeighted))
	}

	for name, r := range map[string]Range{
		"generation.restaurant_rating": c.Generation.RestaurantRating,
		"generation.driver_rating":     c.Generation.DriverRating,
		"generation.menu_price":        c.Generation.MenuPrice,
	} {
		if r.Max < r.Min {
			problems = append(problems, name+" has max below min")
		}
		if r.Min < 0 {
			problems = append(problems, name+" must not be negative")
		}
	}

	if c.Generation.MaxItemsPerOrder < 1 {
		problems = append(problems, "generation.max_items_per_order must be at least 1")
	}

	if c.Dataset.Dir == "" {
		problems = append(problems, "dataset.dir is required")
	}
	switch c.Dataset.Format {
	case FormatCSV, FormatNDJSON:
	default:
		problems = append(problems, fmt.Sprintf("dataset.format %q must be %q or %q",
			c.Dataset.Format, FormatCSV, FormatNDJSON))
	}
	if _, err := compression.ForName(c.Dataset.Compression); err != nil {
		problems = append(problems, fmt.Sprintf("dataset.compression %q must be one of %s",
			c.Dataset.Compression, strings.Join(compression.Names(), ", ")))
	}

	if c.Load.Destination == "" {
		problems = append(problems, "load.destination is required")
	}
	if !validMode(c.Load.DefaultMode) {
		problems = append(problems, fmt.Sprintf("load.default_mode %q must be %q or %q",
			c.Load.DefaultMode, ModeFullRefresh, ModeUpsert))
	}
	for table, mode := range c.Load.TableModes {
		if !validMode(mode) {
			problems = append(problems, fmt.Sprintf("load.table_modes[%s] %q must be %q or %q",
				table, mode, ModeFullRefresh, ModeUpsert))
		}
	}
	if c.Load.TableTimeout < 0 {
		problems = append(problems, "load.table_timeout must not be negative")
	}
	if c.Load.BatchSize < 1 {
		problems = append(problems, "load.batch_size must be at least 1")
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return errors.New(errors.ErrorTypeConfig, strings.Join(problems, "; "))
}

// Window returns the parsed generation date range. The end bound covers
// the whole end date, so it extends to the final second of that day.
func (g GenerationConfig) Window() (time.Time, time.Time) {
	start, _ := time.Parse(DateLayout, g.StartDate)
	end, _ := time.Parse(DateLayout, g.EndDate)
	return start, end.Add(24*time.Hour - time.Second)
}

// ModeFor resolves the write mode for a table
func (l LoadConfig) ModeFor(table string) string {
	if mode, ok := l.TableModes[table]; ok {
		return mode
	}
	return l.DefaultMode
}

// Option returns a destination option with a fallback
func (l LoadConfig) Option(key, fallback string) string {
	if v, ok := l.Options[key]; ok && v != "" {
		return v
	}
	return fallback
}

func validMode(mode string) bool {
	return mode == ModeFullRefresh || mode == ModeUpsert
}
