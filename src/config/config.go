package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tapInfinity/src/writer"

	"github.com/BurntSushi/toml"
	"github.com/docker/go-units"
	"github.com/goccy/go-json"
	"github.com/pingcap/errors"
	"github.com/pingcap/tidb/br/pkg/storage"
)

const (
	DefaultRowCount     = 100_000
	DefaultColumnCount  = 30
	DefaultBatchSize    = 1_000_000
	DefaultStream       = "infinity_one"
	DefaultTapName      = "tap-infinity"
	DefaultRowGroupRows = 10_000
	DefaultPageSize     = "1MiB"
)

type S3Config struct {
	Region          string `toml:"region,omitempty" json:"region,omitempty"`
	AccessKey       string `toml:"access_key,omitempty" json:"access_key,omitempty"`
	SecretAccessKey string `toml:"secret_key,omitempty" json:"secret_key,omitempty"`
	Provider        string `toml:"provider,omitempty" json:"provider,omitempty"`
	Endpoint        string `toml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Force           bool   `toml:"force,omitempty" json:"force,omitempty"`
	RoleArn         string `toml:"role_arn,omitempty" json:"role_arn,omitempty"`
}

type GCSConfig struct {
	Credential string `toml:"credential,omitempty" json:"credential,omitempty"`
}

type StorageConfig struct {
	Root   string `toml:"root" json:"root"`
	Prefix string `toml:"prefix" json:"prefix"`
}

type BatchConfig struct {
	Encoding writer.Encoding `toml:"encoding" json:"encoding"`
	Storage  StorageConfig   `toml:"storage" json:"storage"`
}

type ParquetConfig struct {
	RowGroupRows int    `toml:"row_group_rows" json:"row_group_rows"`
	PageSize     string `toml:"page_size" json:"page_size"`

	// PageSizeBytes is derived at runtime and not read from config.
	PageSizeBytes int64 `toml:"-" json:"-"`
}

type LogConfig struct {
	Level string `toml:"level" json:"level"`
	File  string `toml:"file" json:"file"`
}

type Config struct {
	RowCount    int    `toml:"row_count" json:"row_count"`
	ColumnCount int    `toml:"column_count" json:"column_count"`
	BatchSize   int    `toml:"batch_size" json:"batch_size"`
	Stream      string `toml:"stream" json:"stream"`
	TapName     string `toml:"tap_name" json:"tap_name"`

	BatchConfig BatchConfig   `toml:"batch_config" json:"batch_config"`
	Parquet     ParquetConfig `toml:"parquet" json:"parquet"`
	Log         LogConfig     `toml:"log" json:"log"`
	S3Config    *S3Config     `toml:"s3,omitempty" json:"s3,omitempty"`
	GCSConfig   *GCSConfig    `toml:"gcs,omitempty" json:"gcs,omitempty"`
}

// Default returns a config with every documented default filled in.
func Default() Config {
	return Config{
		RowCount:    DefaultRowCount,
		ColumnCount: DefaultColumnCount,
		BatchSize:   DefaultBatchSize,
		Stream:      DefaultStream,
		TapName:     DefaultTapName,
		BatchConfig: BatchConfig{
			Encoding: writer.Encoding{
				Format:      writer.FormatJSONL,
				Compression: writer.CompressionGzip,
			},
		},
		Parquet: ParquetConfig{
			RowGroupRows: DefaultRowGroupRows,
			PageSize:     DefaultPageSize,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a TOML file, or a JSON file when the path ends in ".json", on
// top of the defaults, then normalizes and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "read config %s", path)
	}
	isJSON := strings.EqualFold(filepath.Ext(path), ".json")
	return Parse(data, isJSON)
}

// Parse decodes data on top of the defaults, then normalizes and validates
// the result.
func Parse(data []byte, isJSON bool) (*Config, error) {
	cfg := Default()
	if isJSON {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Annotate(err, "decode json config")
		}
	} else {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, errors.Annotate(err, "decode toml config")
		}
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize resolves derived config values after loading.
func Normalize(cfg *Config) error {
	cfg.BatchConfig.Encoding = cfg.BatchConfig.Encoding.Normalized()

	pageBytes, err := cfg.Parquet.resolvePageSizeBytes()
	if err != nil {
		return err
	}
	cfg.Parquet.PageSizeBytes = pageBytes
	return nil
}

// Validate returns a user-friendly error if the configuration is invalid.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.RowCount < 0 {
		errs = append(errs, "row_count must be >= 0")
	}
	if cfg.ColumnCount < 0 {
		errs = append(errs, "column_count must be >= 0")
	}
	if cfg.BatchSize <= 0 {
		errs = append(errs, "batch_size must be greater than 0")
	}
	if strings.TrimSpace(cfg.Stream) == "" {
		errs = append(errs, "stream is required")
	}
	if err := cfg.BatchConfig.Encoding.Validate(); err != nil {
		errs = append(errs, "batch_config.encoding: "+errors.Cause(err).Error())
	}
	if cfg.BatchConfig.Storage.Root == "" {
		errs = append(errs, "batch_config.storage.root is required")
	}
	if cfg.BatchConfig.Encoding.Format == writer.FormatParquet {
		if cfg.Parquet.RowGroupRows <= 0 {
			errs = append(errs, "parquet.row_group_rows must be greater than 0")
		}
		if cfg.Parquet.PageSizeBytes <= 0 {
			errs = append(errs, "parquet.page_size must be greater than 0")
		}
	}
	if cfg.S3Config != nil && cfg.GCSConfig != nil {
		errs = append(errs, "only one of [s3] or [gcs] can be configured")
	}

	if len(errs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("invalid config:\n")
	for _, err := range errs {
		sb.WriteString(" - ")
		sb.WriteString(err)
		sb.WriteString("\n")
	}
	return fmt.Errorf("%s", strings.TrimRight(sb.String(), "\n"))
}

func (c *ParquetConfig) resolvePageSizeBytes() (int64, error) {
	if c.PageSize == "" {
		return units.MiB, nil
	}
	bytes, err := units.RAMInBytes(c.PageSize)
	if err != nil {
		return 0, fmt.Errorf("invalid page_size %q: %w", c.PageSize, err)
	}
	if bytes <= 0 {
		return 0, fmt.Errorf("invalid page_size %q: must be greater than 0", c.PageSize)
	}
	return bytes, nil
}

// WriterOptions converts the batch settings into writer options.
func (c *Config) WriterOptions() writer.Options {
	return writer.Options{
		Encoding: c.BatchConfig.Encoding,
		Prefix:   c.BatchConfig.Storage.Prefix,
		Parquet: writer.ParquetOptions{
			RowGroupRows: c.Parquet.RowGroupRows,
			PageSize:     c.Parquet.PageSizeBytes,
		},
	}
}

// GetStore initializes and returns an ExternalStorage instance based on the provided configuration.
func GetStore(ctx context.Context, c *Config) (storage.ExternalStorage, error) {
	var op *storage.BackendOptions
	if c.S3Config != nil {
		op = &storage.BackendOptions{S3: storage.S3BackendOptions{
			Region:          c.S3Config.Region,
			AccessKey:       c.S3Config.AccessKey,
			SecretAccessKey: c.S3Config.SecretAccessKey,
			Provider:        c.S3Config.Provider,
			Endpoint:        c.S3Config.Endpoint,
			ForcePathStyle:  c.S3Config.Force,
			RoleARN:         c.S3Config.RoleArn,
		}}
	} else if c.GCSConfig != nil {
		op = &storage.BackendOptions{GCS: storage.GCSBackendOptions{
			CredentialsFile: c.GCSConfig.Credential,
		}}
	}

	s, err := storage.ParseBackend(c.BatchConfig.Storage.Root, op)
	if err != nil {
		return nil, errors.Trace(err)
	}

	store, err := storage.NewWithDefaultOpt(ctx, s)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return store, nil
}
