package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hupe1980/tetgeo/meshio"
	"github.com/hupe1980/tetgeo/partition"
)

// EnvPrefix prefixes environment overrides, e.g. TETGEO_OUTPUT_SAVE_OUTPUT_PATH.
const EnvPrefix = "TETGEO"

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid")

// Config holds the CLI configuration.
type Config struct {
	Input     InputConfig     `mapstructure:"input"`
	Output    OutputConfig    `mapstructure:"output"`
	Partition PartitionConfig `mapstructure:"export_six_surface_setting"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Resources ResourceConfig  `mapstructure:"resources"`
	Log       LogConfig       `mapstructure:"log"`
}

// InputConfig lists the mesh files to process.
type InputConfig struct {
	Files []string `mapstructure:"input_file_path"`
}

// OutputConfig selects the export target and artifacts.
type OutputConfig struct {
	// Path is a local directory, s3://bucket/prefix or minio://bucket/prefix.
	Path          string      `mapstructure:"save_output_path"`
	Materials     bool        `mapstructure:"array_to_number"`
	SixSurface    bool        `mapstructure:"export_six_surface"`
	FaceRelated   bool        `mapstructure:"export_face_related"`
	Domain        bool        `mapstructure:"export_domain"`
	Compression   string      `mapstructure:"compression"`
	AttributeSlot int         `mapstructure:"attribute_slot"`
	Minio         MinioConfig `mapstructure:"minio"`
}

// MinioConfig holds the connection used for minio:// outputs.
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	Secure    bool   `mapstructure:"secure"`
}

// PartitionConfig holds the frame rotation and growth settings.
type PartitionConfig struct {
	RX           float64 `mapstructure:"r_x"`
	RY           float64 `mapstructure:"r_y"`
	RZ           float64 `mapstructure:"r_z"`
	MaxDeviation float64 `mapstructure:"max_deviation"`
	RayLength    float64 `mapstructure:"ray_length"`
}

// LedgerConfig selects the run ledger.
type LedgerConfig struct {
	// URI is empty, sqlite://<path>, dynamodb://<table> or file://<dir>.
	URI string `mapstructure:"uri"`
}

// ResourceConfig bounds memory, workers and write bandwidth.
type ResourceConfig struct {
	MemoryLimitBytes   int64 `mapstructure:"memory_limit_bytes"`
	MaxWorkers         int64 `mapstructure:"max_workers"`
	IOLimitBytesPerSec int64 `mapstructure:"io_limit_bytes_per_sec"`
	Parallelism        int   `mapstructure:"parallelism"`
	// AllocationTimeout bounds how long a build waits for memory, e.g. "5s".
	// Zero keeps the arena default, a negative value waits until shutdown.
	AllocationTimeout time.Duration `mapstructure:"allocation_timeout"`
}

// LogConfig selects the log format and level.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input.input_file_path", []string{})
	v.SetDefault("output.save_output_path", ".")
	v.SetDefault("output.array_to_number", true)
	v.SetDefault("output.export_six_surface", true)
	v.SetDefault("output.export_face_related", false)
	v.SetDefault("output.export_domain", true)
	v.SetDefault("output.compression", "lz4")
	v.SetDefault("output.attribute_slot", 0)
	v.SetDefault("output.minio.endpoint", "")
	v.SetDefault("output.minio.access_key", "")
	v.SetDefault("output.minio.secret_key", "")
	v.SetDefault("output.minio.region", "")
	v.SetDefault("output.minio.secure", true)
	v.SetDefault("export_six_surface_setting.r_x", -50)
	v.SetDefault("export_six_surface_setting.r_y", 0)
	v.SetDefault("export_six_surface_setting.r_z", 0)
	v.SetDefault("export_six_surface_setting.max_deviation", partition.DefaultMaxDeviation)
	v.SetDefault("export_six_surface_setting.ray_length", partition.DefaultRayLength)
	v.SetDefault("ledger.uri", "")
	v.SetDefault("resources.memory_limit_bytes", 0)
	v.SetDefault("resources.max_workers", 4)
	v.SetDefault("resources.io_limit_bytes_per_sec", 0)
	v.SetDefault("resources.parallelism", 1)
	v.SetDefault("resources.allocation_timeout", "0s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the JSON file at path. Env vars prefixed with TETGEO_ override
// file values.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// WriteDefault writes the default configuration to path, creating the
// directory if needed.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("json")

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks the inputs and the output settings.
func (c Config) Validate() error {
	var errs []error
	if len(c.Input.Files) == 0 {
		errs = append(errs, fmt.Errorf("%w: no input files", ErrInvalid))
	}
	for _, f := range c.Input.Files {
		if !strings.EqualFold(filepath.Ext(f), meshio.Extension) {
			errs = append(errs, fmt.Errorf("%w: unsupported input format: %s", ErrInvalid, f))
			continue
		}
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("%w: input: %w", ErrInvalid, err))
		}
	}
	if c.Output.Path == "" {
		errs = append(errs, fmt.Errorf("%w: empty save_output_path", ErrInvalid))
	}
	if _, err := meshio.ParseCompression(c.Output.Compression); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}
	if c.Output.AttributeSlot < 0 {
		errs = append(errs, fmt.Errorf("%w: negative attribute_slot", ErrInvalid))
	}
	return errors.Join(errs...)
}

// PartitionSettings returns the partition.Config for c.
func (c Config) PartitionSettings() partition.Config {
	return partition.Config{
		Yaw:          c.Partition.RX,
		Pitch:        c.Partition.RY,
		Roll:         c.Partition.RZ,
		MaxDeviation: c.Partition.MaxDeviation,
		RayLength:    c.Partition.RayLength,
	}
}
