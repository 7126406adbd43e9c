package config

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hupe1980/vecknn/dataset"
	"github.com/hupe1980/vecknn/tuner"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned for settings that fail validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes environment variable overrides.
const EnvPrefix = "VECKNN"

// Defaults.
const (
	DefaultSplit       = 20
	DefaultParallelism = 1
	DefaultLogLevel    = "info"
)

// Config holds the settings of one run.
type Config struct {
	Inputs   int `mapstructure:"inputs"   validate:"required,min=1"`
	Classes  int `mapstructure:"classes"  validate:"required,min=1"`
	Patterns int `mapstructure:"patterns" validate:"required,min=1"`
	Tests    int `mapstructure:"tests"    validate:"min=0"`

	// Seed drives the row shuffle. SeedSet is false when no seed was given
	// and the caller should derive one from the clock.
	Seed    int64 `mapstructure:"seed"`
	SeedSet bool  `mapstructure:"-"`

	// Split is the percentage of patterns held out for validation.
	Split int `mapstructure:"split" validate:"min=0,max=100"`

	K    string `mapstructure:"k"    validate:"required"`
	Ball bool   `mapstructure:"ball"`
	D    string `mapstructure:"d"    validate:"required_if=Ball true"`

	Parallelism int    `mapstructure:"parallelism"  validate:"min=0"`
	NoPruning   bool   `mapstructure:"no_pruning"`
	NestedK     bool   `mapstructure:"nested_k"`
	Compress    string `mapstructure:"compress"     validate:"omitempty,oneof=none lz4 zstd zst"`
	MetricsFile string `mapstructure:"metrics_file"`
	LogLevel    string `mapstructure:"log_level"    validate:"omitempty,oneof=debug info warn error"`
	LogFormat   string `mapstructure:"log_format"   validate:"omitempty,oneof=text json"`
	LogFile     string `mapstructure:"log_file"`

	// Minio is read from flags and the environment only.
	Minio MinioConfig `mapstructure:",squash"`

	// Parsed forms of K and D.
	KRange tuner.KRange `mapstructure:"-"`
	DRange tuner.DRange `mapstructure:"-"`
}

// MinioConfig holds the connection settings of minio:// locations.
type MinioConfig struct {
	Endpoint  string `mapstructure:"minio_endpoint"`
	AccessKey string `mapstructure:"minio_access_key"`
	SecretKey string `mapstructure:"minio_secret_key"`
	Region    string `mapstructure:"minio_region"`
	Secure    bool   `mapstructure:"minio_secure"`
}

// TrainPatterns returns the number of rows used for training.
func (c *Config) TrainPatterns() int {
	train, _ := dataset.SplitSizes(c.Patterns, c.Split)
	return train
}

// ValidPatterns returns the number of rows held out for validation.
func (c *Config) ValidPatterns() int {
	_, valid := dataset.SplitSizes(c.Patterns, c.Split)
	return valid
}

// flag name -> config key
var flagKeys = map[string]string{
	"inputs":       "inputs",
	"classes":      "classes",
	"patterns":     "patterns",
	"tests":        "tests",
	"seed":         "seed",
	"split":        "split",
	"k":            "k",
	"ball":         "ball",
	"d":            "d",
	"parallelism":  "parallelism",
	"no-pruning":   "no_pruning",
	"nested-k":     "nested_k",
	"compress":     "compress",
	"metrics-file": "metrics_file",
	"log-level":    "log_level",
	"log-format":   "log_format",
	"log-file":     "log_file",
}

// Connection settings are needed before the cfg file can be read, so the
// file may not set them. Each key also honors its unprefixed MINIO_* variable.
var connFlagKeys = map[string]string{
	"minio-endpoint":   "minio_endpoint",
	"minio-access-key": "minio_access_key",
	"minio-secret-key": "minio_secret_key",
	"minio-region":     "minio_region",
	"minio-secure":     "minio_secure",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.IntP("inputs", "i", 0, "number of input variables")
	fs.IntP("classes", "c", 0, "number of classes")
	fs.IntP("patterns", "p", 0, "number of rows in <stem>.in")
	fs.IntP("tests", "t", 0, "number of rows in <stem>.test")
	fs.Int64P("seed", "s", 0, "shuffle seed (default: wall clock)")
	fs.IntP("split", "v", DefaultSplit, "percentage of patterns used for validation")
	fs.StringP("k", "k", tuner.DefaultKRange.String(), "K interval min..max")
	fs.BoolP("ball", "b", false, "use the radius classifier")
	fs.StringP("d", "d", "", "D interval min..step..max")
	fs.Int("parallelism", DefaultParallelism, "sweep values evaluated concurrently")
	fs.Bool("no-pruning", false, "disable origin-distance pruning")
	fs.Bool("nested-k", false, "repeat every radius once per K")
	fs.String("compress", "", "codec for data and prediction blobs (none, lz4, zstd)")
	fs.String("metrics-file", "", "write Prometheus metrics to this file")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.String("log-format", "text", "log format (text, json)")
	fs.String("log-file", "", "write logs to a rotated file instead of stderr")
	fs.String("minio-endpoint", "", "MinIO endpoint of minio:// locations (env MINIO_ENDPOINT)")
	fs.String("minio-access-key", "", "MinIO access key (env MINIO_ACCESS_KEY)")
	fs.String("minio-secret-key", "", "MinIO secret key (env MINIO_SECRET_KEY)")
	fs.String("minio-region", "", "MinIO region (env MINIO_REGION)")
	fs.Bool("minio-secure", false, "connect to MinIO over TLS (env MINIO_SECURE)")
}

// Load reads the optional cfg file r, then overlays the environment and any
// flags changed in fs. Both r and fs may be nil.
func Load(r io.Reader, fs *pflag.FlagSet) (*Config, error) {
	v, err := newViper(fs)
	if err != nil {
		return nil, err
	}

	if r != nil {
		if err := v.ReadConfig(r); err != nil {
			return nil, fmt.Errorf("%w: read cfg: %w", ErrInvalidConfig, err)
		}
		if err := checkKeys(v); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.SeedSet = v.IsSet("seed")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadMinio reads the MinIO connection settings from the environment and the
// flags changed in fs, which may be nil.
func LoadMinio(fs *pflag.FlagSet) (MinioConfig, error) {
	v, err := newViper(fs)
	if err != nil {
		return MinioConfig{}, err
	}

	var mc MinioConfig
	if err := v.Unmarshal(&mc); err != nil {
		return MinioConfig{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return mc, nil
}

func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("dotenv")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("split", DefaultSplit)
	v.SetDefault("k", tuner.DefaultKRange.String())
	v.SetDefault("parallelism", DefaultParallelism)
	v.SetDefault("log_level", DefaultLogLevel)
	for _, key := range flagKeys {
		// Register every key so AutomaticEnv reaches it through Unmarshal.
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	for _, key := range connFlagKeys {
		prefixed := EnvPrefix + "_" + strings.ToUpper(key)
		if err := v.BindEnv(key, prefixed, strings.ToUpper(key)); err != nil {
			return nil, err
		}
	}

	if fs != nil {
		for _, keys := range []map[string]string{flagKeys, connFlagKeys} {
			for name, key := range keys {
				if f := fs.Lookup(name); f != nil {
					if err := v.BindPFlag(key, f); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	return v, nil
}

// Validate checks field constraints and parses the K and D intervals.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	k, err := tuner.ParseKRange(c.K)
	if err == nil {
		err = k.Validate()
	}
	if err != nil {
		return fmt.Errorf("%w: k: %w", ErrInvalidConfig, err)
	}
	c.KRange = k

	if c.D != "" {
		d, err := tuner.ParseDRange(c.D)
		if err == nil {
			err = d.Validate()
		}
		if err != nil {
			return fmt.Errorf("%w: d: %w", ErrInvalidConfig, err)
		}
		c.DRange = d
	}
	return nil
}

// checkKeys rejects cfg file keys that match no option and connection
// settings.
func checkKeys(v *viper.Viper) error {
	known := make(map[string]bool, len(flagKeys)+len(connFlagKeys))
	for name, key := range flagKeys {
		known[key] = true
		known[strings.ReplaceAll(name, "-", "_")] = true
	}

	var unknown, conn []string
	for _, key := range connFlagKeys {
		known[key] = true
		if v.InConfig(key) {
			conn = append(conn, key)
		}
	}
	if len(conn) > 0 {
		sort.Strings(conn)
		return fmt.Errorf("%w: %s can only be set by flag or environment", ErrInvalidConfig, strings.Join(conn, ", "))
	}

	for _, key := range v.AllKeys() {
		if !known[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: unknown option %s", ErrInvalidConfig, strings.Join(unknown, ", "))
	}
	return nil
}
