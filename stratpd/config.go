package stratpd

import (
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ezoic/stratx/pkg/errors"
	"github.com/ezoic/stratx/pkg/log"
)

// Strategy selects how slopes are aggregated at every distinct x.
type Strategy int

const (
	// Sequential scans the records on the calling goroutine.
	Sequential Strategy = iota
	// ByRecord splits the records across workers with private accumulators.
	ByRecord
	// ByX splits the distinct x positions across workers.
	ByX
)

func (s Strategy) String() string {
	switch s {
	case Sequential:
		return "sequential"
	case ByRecord:
		return "by_record"
	case ByX:
		return "by_x"
	default:
		return "unknown"
	}
}

// ParseStrategy parses the name produced by Strategy.String.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sequential", "":
		return Sequential, nil
	case "by_record", "byrecord":
		return ByRecord, nil
	case "by_x", "byx":
		return ByX, nil
	}
	return Sequential, errors.NewConfigurationError("ParseStrategy", "strategy", "unknown strategy "+name)
}

// UnmarshalYAML reads a strategy from its name.
func (s *Strategy) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseStrategy(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML writes a strategy as its name.
func (s Strategy) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// Config holds the parameters of a StratPD computation.
type Config struct {
	MinSamplesLeaf int      `yaml:"min_samples_leaf"`
	NTrees         int      `yaml:"n_trees"`
	Bootstrap      bool     `yaml:"bootstrap"`
	MaxFeatures    float64  `yaml:"max_features"`
	MinSlopesPerX  int      `yaml:"min_slopes_per_x"` // 0 disables support filtering
	Supervised     bool     `yaml:"supervised"`
	Seed           int64    `yaml:"seed"` // negative means time based
	Strategy       Strategy `yaml:"strategy"`
	Workers        int      `yaml:"workers"` // <= 0 means GOMAXPROCS
	Diagnostics    bool     `yaml:"diagnostics"`

	rng    *rand.Rand
	logger log.Logger
}

// DefaultConfig returns the default parameters.
func DefaultConfig() Config {
	return Config{
		MinSamplesLeaf: 10,
		NTrees:         1,
		Bootstrap:      false,
		MaxFeatures:    1.0,
		MinSlopesPerX:  15,
		Supervised:     true,
		Seed:           -1,
		Strategy:       ByX,
	}
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	const op = "Config.Validate"
	if c.MinSamplesLeaf < 1 {
		return errors.NewConfigurationError(op, "min_samples_leaf", "must be >= 1")
	}
	if c.NTrees < 1 {
		return errors.NewConfigurationError(op, "n_trees", "must be >= 1")
	}
	if !(c.MaxFeatures > 0 && c.MaxFeatures <= 1) {
		return errors.NewConfigurationError(op, "max_features", "must be in (0, 1]")
	}
	if c.MinSlopesPerX < 0 {
		return errors.NewConfigurationError(op, "min_slopes_per_x", "must be >= 0")
	}
	if c.Strategy < Sequential || c.Strategy > ByX {
		return errors.NewConfigurationError(op, "strategy", "unknown strategy")
	}
	return nil
}

// random returns the generator for forest training and scrambling.
func (c *Config) random() *rand.Rand {
	if c.rng == nil {
		seed := uint64(c.Seed)
		if c.Seed < 0 {
			seed = uint64(time.Now().UnixNano())
		}
		c.rng = rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
	}
	return c.rng
}

func (c *Config) logging() log.Logger {
	if c.logger == nil {
		c.logger = log.GetLoggerWithName("stratpd")
	}
	return c.logger
}

// ParseConfig reads a YAML document on top of DefaultConfig and validates it.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parsing stratpd config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading stratpd config %s", path)
	}
	return ParseConfig(data)
}

// Option configures a StratPD computation.
type Option func(*Config)

func newConfig(opts []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithConfig replaces all parameters with cfg. A generator or logger set
// by earlier options is kept.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		rng, logger := c.rng, c.logger
		*c = cfg
		if c.rng == nil {
			c.rng = rng
		}
		if c.logger == nil {
			c.logger = logger
		}
	}
}

// WithMinSamplesLeaf sets the minimum leaf size of the partition forest.
func WithMinSamplesLeaf(n int) Option {
	return func(c *Config) {
		c.MinSamplesLeaf = n
	}
}

// WithNTrees sets the number of partition trees.
func WithNTrees(n int) Option {
	return func(c *Config) {
		c.NTrees = n
	}
}

// WithBootstrap enables row resampling per partition tree.
func WithBootstrap(bootstrap bool) Option {
	return func(c *Config) {
		c.Bootstrap = bootstrap
	}
}

// WithMaxFeatures sets the fraction of features drawn at every split.
func WithMaxFeatures(fraction float64) Option {
	return func(c *Config) {
		c.MaxFeatures = fraction
	}
}

// WithMinSlopesPerX sets the minimum number of slopes averaged at an x
// for it to appear in the curve. Zero disables the filter.
func WithMinSlopesPerX(n int) Option {
	return func(c *Config) {
		c.MinSlopesPerX = n
	}
}

// WithSupervised selects between a regressor trained on y (true) and a
// classifier separating real rows from scrambled ones (false).
func WithSupervised(supervised bool) Option {
	return func(c *Config) {
		c.Supervised = supervised
	}
}

// WithSeed seeds the generator used for training and scrambling.
func WithSeed(seed int64) Option {
	return func(c *Config) {
		c.Seed = seed
		c.rng = nil
	}
}

// WithRand sets the generator used for training and scrambling.
func WithRand(r *rand.Rand) Option {
	return func(c *Config) {
		c.rng = r
	}
}

// WithStrategy selects the slope aggregation strategy.
func WithStrategy(s Strategy) Option {
	return func(c *Config) {
		c.Strategy = s
	}
}

// WithWorkers bounds the goroutines used for training, aggregation and
// the columns of Importances.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithDiagnostics keeps the partition forest in the result and logs its
// training fit.
func WithDiagnostics(enabled bool) Option {
	return func(c *Config) {
		c.Diagnostics = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *Config) {
		c.logger = l
	}
}
