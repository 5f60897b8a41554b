package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/forklift/internal/pipeline"
	"github.com/ajitpratap0/forklift/pkg/config"
	"github.com/ajitpratap0/forklift/pkg/logger"
	"github.com/ajitpratap0/forklift/pkg/models"
	"github.com/ajitpratap0/forklift/pkg/warehouse"

	// Import all destinations to register them
	_ "github.com/ajitpratap0/forklift/pkg/warehouse/csvdir"
	_ "github.com/ajitpratap0/forklift/pkg/warehouse/postgres"
	_ "github.com/ajitpratap0/forklift/pkg/warehouse/snowflake"
)

var version = "0.1.0"

// overrides holds CLI flag values that take precedence over the config
// file and environment.
type overrides struct {
	configPath  string
	seed        int64
	orders      int
	customers   int
	restaurants int
	drivers     int
	out         string
	logLevel    string
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	o := &overrides{}

	root := &cobra.Command{
		Use:   "forklift",
		Short: "Forklift - synthetic food-delivery dataset and star-schema warehouse loader",
		Long: `Forklift generates a referentially consistent synthetic food-delivery
dataset, transforms it into a star schema, and loads the result into a
warehouse destination. The same seed always reproduces the same data.`,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", "", "Path to YAML configuration file")
	flags.Int64Var(&o.seed, "seed", 0, "Seed for deterministic generation")
	flags.IntVar(&o.orders, "orders", 0, "Number of orders to generate")
	flags.IntVar(&o.customers, "customers", 0, "Number of customers to generate")
	flags.IntVar(&o.restaurants, "restaurants", 0, "Number of restaurants to generate")
	flags.IntVar(&o.drivers, "drivers", 0, "Number of drivers to generate")
	flags.StringVar(&o.out, "out", "", "Directory for raw dataset files")
	flags.StringVar(&o.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Forklift v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered warehouse destinations",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Registered warehouse destinations:")
			for _, name := range warehouse.ListDestinations() {
				fmt.Printf("  - %s\n", name)
			}
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Generate the raw dataset and write it to the dataset directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, o)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "transform",
		Short: "Transform the raw dataset on disk into star schema tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, o)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "load",
		Short: "Load transformed star tables into the warehouse destination",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, o)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: generate, transform, load",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, o)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration from file, environment, and flags
func loadConfig(cmd *cobra.Command, o *overrides) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flag("seed").Changed {
		cfg.Generation.Seed = o.seed
	}
	if cmd.Flag("orders").Changed {
		cfg.Generation.Orders = o.orders
	}
	if cmd.Flag("customers").Changed {
		cfg.Generation.Customers = o.customers
	}
	if cmd.Flag("restaurants").Changed {
		cfg.Generation.Restaurants = o.restaurants
	}
	if cmd.Flag("drivers").Changed {
		cfg.Generation.Drivers = o.drivers
	}
	if cmd.Flag("out").Changed {
		cfg.Dataset.Dir = o.out
	}
	if cmd.Flag("log-level").Changed {
		cfg.Logging.Level = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newRunner builds a pipeline runner with the logger initialized
func newRunner(cmd *cobra.Command, o *overrides) (*pipeline.Runner, *config.Config, error) {
	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Encoding:    cfg.Logging.Encoding,
		Development: cfg.Logging.Development,
	}); err != nil {
		return nil, nil, err
	}

	log := logger.Get().With(zap.String("component", "forklift-cli"))
	return pipeline.NewRunner(cfg, log), cfg, nil
}

func runGenerate(cmd *cobra.Command, o *overrides) error {
	r, cfg, err := newRunner(cmd, o)
	if err != nil {
		return err
	}

	_, manifest, err := r.Generate(context.Background())
	if err != nil {
		return fmt.Errorf("generate stage failed: %w", err)
	}

	fmt.Printf("Generated dataset (seed %d) in %s\n", cfg.Generation.Seed, cfg.Dataset.Dir)
	for _, tm := range manifest.Tables {
		fmt.Printf("  %-15s %8d rows  %s\n", tm.Name, tm.Rows, tm.File)
	}
	return nil
}

func runTransform(cmd *cobra.Command, o *overrides) error {
	r, _, err := newRunner(cmd, o)
	if err != nil {
		return err
	}

	set, err := r.TransformFromFiles(context.Background())
	if err != nil {
		return fmt.Errorf("transform stage failed: %w", err)
	}

	fmt.Printf("Transformed star schema in %s\n", r.StarDir())
	for _, name := range models.StarTableNames {
		td, err := set.TableData(name)
		if err != nil {
			return err
		}
		fmt.Printf("  %-17s %8d rows\n", name, td.RowCount())
	}
	return nil
}

func runLoad(cmd *cobra.Command, o *overrides) error {
	r, cfg, err := newRunner(cmd, o)
	if err != nil {
		return err
	}

	report, err := r.LoadFromFiles(context.Background())
	if err != nil {
		return fmt.Errorf("load stage failed: %w", err)
	}

	fmt.Printf("Loaded %d rows into %s\n", report.TotalRows(), cfg.Load.Destination)
	for _, tr := range report.Tables {
		fmt.Printf("  %-17s %8d rows  %-13s %s\n",
			tr.Table, tr.Rows, tr.Mode, tr.Duration.Round(time.Millisecond))
	}
	return nil
}

func runPipeline(cmd *cobra.Command, o *overrides) error {
	r, _, err := newRunner(cmd, o)
	if err != nil {
		return err
	}

	res := r.Run(context.Background())
	if res.Failed() {
		return fmt.Errorf("%s stage failed: %w", res.Stage, res.Err)
	}

	fmt.Printf("Pipeline complete (run %s)\n", res.RunID)
	fmt.Printf("  generate   %8d raw rows      %s\n",
		rawRows(res.Dataset), res.Durations[pipeline.StageGenerate].Round(time.Millisecond))
	fmt.Printf("  transform  %8d star rows     %s\n",
		starRows(res.Star), res.Durations[pipeline.StageTransform].Round(time.Millisecond))
	fmt.Printf("  load       %8d rows written  %s\n",
		res.LoadReport.TotalRows(), res.Durations[pipeline.StageLoad].Round(time.Millisecond))
	return nil
}

func rawRows(ds *models.Dataset) int {
	return len(ds.Customers) + len(ds.Restaurants) + len(ds.Drivers) +
		len(ds.MenuItems) + len(ds.Orders) + len(ds.OrderItems) + len(ds.Deliveries)
}

func starRows(set *models.StarSet) int {
	return len(set.CustomerDims) + len(set.RestaurantDims) + len(set.DriverDims) +
		len(set.MenuItemDims) + len(set.DatetimeDims) + len(set.OrderFacts) + len(set.OrderItemFacts)
}
