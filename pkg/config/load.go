package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/ajitpratap0/forklift/pkg/errors"
)

// Load reads configuration from an optional YAML file and the
// environment. Environment variables use the FORKLIFT_ prefix with
// underscores for nesting (FORKLIFT_GENERATION_SEED overrides
// generation.seed). File values override defaults; environment values
// override both. The returned config is validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("FORKLIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file").
				WithDetail("path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to decode configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides resolve
// during Unmarshal even without a config file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("generation.seed", d.Generation.Seed)
	v.SetDefault("generation.customers", d.Generation.Customers)
	v.SetDefault("generation.restaurants", d.Generation.Restaurants)
	v.SetDefault("generation.drivers", d.Generation.Drivers)
	v.SetDefault("generation.orders", d.Generation.Orders)
	v.SetDefault("generation.start_date", d.Generation.StartDate)
	v.SetDefault("generation.end_date", d.Generation.EndDate)
	v.SetDefault("generation.sampling", d.Generation.Sampling)
	v.SetDefault("generation.restaurant_rating.min", d.Generation.RestaurantRating.Min)
	v.SetDefault("generation.restaurant_rating.max", d.Generation.RestaurantRating.Max)
	v.SetDefault("generation.driver_rating.min", d.Generation.DriverRating.Min)
	v.SetDefault("generation.driver_rating.max", d.Generation.DriverRating.Max)
	v.SetDefault("generation.menu_price.min", d.Generation.MenuPrice.Min)
	v.SetDefault("generation.menu_price.max", d.Generation.MenuPrice.Max)
	v.SetDefault("generation.max_items_per_order", d.Generation.MaxItemsPerOrder)

	v.SetDefault("dataset.dir", d.Dataset.Dir)
	v.SetDefault("dataset.format", d.Dataset.Format)
	v.SetDefault("dataset.compression", d.Dataset.Compression)

	v.SetDefault("load.destination", d.Load.Destination)
	v.SetDefault("load.dsn", d.Load.DSN)
	v.SetDefault("load.options", d.Load.Options)
	v.SetDefault("load.default_mode", d.Load.DefaultMode)
	v.SetDefault("load.table_modes", d.Load.TableModes)
	v.SetDefault("load.table_timeout", d.Load.TableTimeout)
	v.SetDefault("load.batch_size", d.Load.BatchSize)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.encoding", d.Logging.Encoding)
	v.SetDefault("logging.development", d.Logging.Development)
}
