package vidbatch

import (
	"fmt"
	"os"

	"github.com/swdee/go-vidbatch/anchor"
	"github.com/swdee/go-vidbatch/preprocess"
	"gopkg.in/yaml.v3"
)

// Config defines the loader settings
type Config struct {
	// BatchSize is the number of samples per batch across all workers, it
	// must be divisible by Workers
	BatchSize int `yaml:"batch_size"`
	// Shuffle reorders the dataset at every epoch
	Shuffle bool `yaml:"shuffle"`
	// AspectGrouping shuffles by grouping landscape and portrait images into
	// separate batches instead of by sequence chunks
	AspectGrouping bool `yaml:"aspect_grouping"`
	// Workers is the number of devices the batch is split over
	Workers int `yaml:"workers"`
	// WorkLoad is the relative share of the batch per worker, defaults to an
	// equal share
	WorkLoad []int `yaml:"work_load"`
	// Seed initialises the random source when none is supplied
	Seed int64 `yaml:"seed"`
	// Anchor are the anchor assignment settings
	Anchor anchor.Params `yaml:"anchor"`
	// Scale defines the input image scaling
	Scale preprocess.ScaleSpec `yaml:"scale"`
	// PixelMeans are subtracted from every input pixel in RGB order
	PixelMeans preprocess.Means `yaml:"pixel_means"`
}

// DefaultConfig returns a Config for a single worker with a batch of one,
// sequence aware shuffling and the default anchor settings
func DefaultConfig() Config {
	return Config{
		BatchSize:  1,
		Shuffle:    true,
		Workers:    1,
		Anchor:     anchor.DefaultParams(),
		Scale:      preprocess.DefaultScaleSpec(),
		PixelMeans: preprocess.DefaultMeans(),
	}
}

// LoadConfig reads a YAML config file, settings absent from the file keep
// their default value
func LoadConfig(path string) (Config, error) {

	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)

	if err != nil {
		return cfg, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: error parsing config file: %w", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// workLoad returns the configured work load or an equal share per worker
func (c Config) workLoad() []int {

	if len(c.WorkLoad) > 0 {
		return c.WorkLoad
	}

	wl := make([]int, c.Workers)

	for i := range wl {
		wl[i] = 1
	}

	return wl
}

// Validate checks the settings are consistent with each other
func (c Config) Validate() error {

	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrConfiguration, c.Workers)
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrConfiguration, c.BatchSize)
	}

	if c.BatchSize%c.Workers != 0 {
		return fmt.Errorf("%w: batch_size %d is not divisible by %d workers",
			ErrConfiguration, c.BatchSize, c.Workers)
	}

	if len(c.WorkLoad) > 0 && len(c.WorkLoad) != c.Workers {
		return fmt.Errorf("%w: work_load has %d entries for %d workers",
			ErrConfiguration, len(c.WorkLoad), c.Workers)
	}

	if err := c.Anchor.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	if err := c.Scale.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return nil
}
