package wire

import (
	"fmt"

	"github.com/arloliu/olsagg/endian"
	"github.com/arloliu/olsagg/errs"
	"github.com/arloliu/olsagg/format"
	"github.com/arloliu/olsagg/internal/options"
	"github.com/arloliu/olsagg/regression"
)

// Config holds encoder and decoder settings.
type Config struct {
	// Compression is applied to the payload by the encoder. The decoder reads
	// the compression type from the header instead.
	Compression format.CompressionType
	// BigEndian selects the byte order written by the encoder.
	BigEndian bool
	// StateOptions are passed to regression.Restore by the decoder.
	StateOptions []regression.StateOption
}

// Option is a functional option for Config.
type Option = options.Option[*Config]

func defaultConfig() Config {
	return Config{Compression: format.CompressionNone}
}

// WithCompression selects the payload compression.
func WithCompression(ct format.CompressionType) Option {
	return options.New(func(cfg *Config) error {
		switch ct {
		case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
			cfg.Compression = ct
			return nil
		default:
			return fmt.Errorf("%w: compression type %d", errs.ErrInvalidHeaderFlags, ct)
		}
	})
}

// WithLittleEndian writes little-endian fields. This is the default.
func WithLittleEndian() Option {
	return options.NoError(func(cfg *Config) {
		cfg.BigEndian = false
	})
}

// WithBigEndian writes big-endian fields.
func WithBigEndian() Option {
	return options.NoError(func(cfg *Config) {
		cfg.BigEndian = true
	})
}

// WithNativeEndian writes fields in the byte order of the running machine.
func WithNativeEndian() Option {
	return options.NoError(func(cfg *Config) {
		cfg.BigEndian = endian.IsNativeBigEndian()
	})
}

// WithStateOptions configures the states built by the decoder,
// for example regression.WithAllocator.
func WithStateOptions(opts ...regression.StateOption) Option {
	return options.NoError(func(cfg *Config) {
		cfg.StateOptions = append(cfg.StateOptions, opts...)
	})
}
