package compress

import (
	"errors"
	"fmt"

	"github.com/arloliu/olsagg/format"
)

// Compressor compresses an encoded transition-state payload.
type Compressor interface {
	// Compress compresses data and returns the result.
	//
	// The returned slice is owned by the caller. Implementations must not modify
	// data, though the no-op codec returns it as-is.
	Compress(data []byte) ([]byte, error)
}

// ErrSizeLimit is returned when a payload decompresses to more bytes than allowed.
var ErrSizeLimit = errors.New("decompressed size exceeds limit")

// Decompressor reverses a Compressor.
//
// Decompress returns an error if data is corrupted or was produced by a
// different algorithm. Implementations must be safe for concurrent use.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
	// DecompressLimit is like Decompress but fails with ErrSizeLimit instead
	// of producing more than limit bytes. Use it for untrusted input.
	DecompressLimit(data []byte, limit int) ([]byte, error)
}

func sizeLimitError(limit int) error {
	return fmt.Errorf("%w of %d bytes", ErrSizeLimit, limit)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
