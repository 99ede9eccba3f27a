package shardpile

import (
	"fmt"
	"strings"

	"github.com/discochess/shardpile/internal/codec"
	"github.com/discochess/shardpile/internal/codec/gzipcodec"
	"github.com/discochess/shardpile/internal/codec/noopcodec"
	"github.com/discochess/shardpile/internal/codec/zstdcodec"
	"github.com/discochess/shardpile/internal/meta"
	"github.com/discochess/shardpile/internal/shard"

	// Registered partition strategies.
	_ "github.com/discochess/shardpile/internal/shard/adlershard"
	_ "github.com/discochess/shardpile/internal/shard/fnvshard"
	_ "github.com/discochess/shardpile/internal/shard/xxshard"
)

// Compression selects the codec shard files are written with. It is fixed
// for the lifetime of a store.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// ParseCompression parses a compression name. "none" and the empty string
// both mean no compression.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	}
	return "", fmt.Errorf("%w: unknown compression %q", ErrInvalidConfig, s)
}

// String returns the compression name, "none" for no compression.
func (c Compression) String() string {
	if c == CompressionNone {
		return "none"
	}
	return string(c)
}

func (c Compression) codec() (codec.Codec, error) {
	switch c {
	case CompressionNone:
		return noopcodec.New(), nil
	case CompressionGzip:
		return gzipcodec.New(), nil
	case CompressionZstd:
		return zstdcodec.New(), nil
	}
	return nil, fmt.Errorf("%w: unknown compression %q", ErrInvalidConfig, string(c))
}

// Config is the layout of a store. Everything but KeyColumn is persisted
// in the metadata file and never changes until the directory is reset.
type Config struct {
	// Partitions is the number of shards. Must be positive.
	Partitions int

	// KeyColumn names the column whose value selects the shard. Required
	// for appends; may be empty for stores that are only read.
	KeyColumn string

	// Compression is the codec of every shard file.
	Compression Compression

	// Strategy names the partition function. Empty selects adler32,
	// which stays compatible with pdpart directories.
	Strategy string
}

// Validate reports configuration errors. It never touches the disk.
func (c Config) Validate() error {
	if c.Partitions <= 0 {
		return fmt.Errorf("%w: partitions must be positive, got %d", ErrInvalidConfig, c.Partitions)
	}
	if strings.ContainsRune(c.KeyColumn, ',') {
		return fmt.Errorf("%w: composite partition key %q", ErrNotImplemented, c.KeyColumn)
	}
	if _, err := c.Compression.codec(); err != nil {
		return err
	}
	if _, err := shard.Lookup(c.Strategy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// StrategyName returns the resolved partition strategy name.
func (c Config) StrategyName() string {
	if c.Strategy == "" {
		return shard.DefaultName
	}
	return c.Strategy
}

// normalized maps the default strategy to the empty name, so a config
// compares equal to itself after a metadata round trip.
func (c Config) normalized() Config {
	if c.Strategy == shard.DefaultName {
		c.Strategy = ""
	}
	return c
}

func (c Config) meta() *meta.Meta {
	return meta.New(c.Partitions, string(c.Compression), c.KeyColumn, c.Strategy)
}

func configFromMeta(m *meta.Meta) Config {
	return Config{
		Partitions:  m.Partitions,
		KeyColumn:   m.KeyColumn(),
		Compression: Compression(m.CompressionName()),
		Strategy:    m.Strategy,
	}.normalized()
}
