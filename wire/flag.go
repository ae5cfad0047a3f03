package wire

import (
	"fmt"

	"github.com/arloliu/olsagg/endian"
	"github.com/arloliu/olsagg/errs"
	"github.com/arloliu/olsagg/format"
)

// Flag is the packed options and compression fields of the header.
type Flag struct {
	// Options holds the compensated and endianness bits and the magic number.
	Options uint16
	// Compression is the format.CompressionType of the payload.
	Compression uint8
	// Reserved must be zero.
	Reserved uint8
}

// NewFlag returns a little-endian, uncompressed, plain flag.
func NewFlag() Flag {
	return Flag{
		Options:     MagicStateV1,
		Compression: uint8(format.CompressionNone),
	}
}

// IsCompensated reports whether the payload carries compensation terms.
func (f Flag) IsCompensated() bool {
	return f.Options&CompensatedMask != 0
}

// SetCompensated sets or clears the compensation bit.
func (f *Flag) SetCompensated(on bool) {
	if on {
		f.Options |= CompensatedMask
	} else {
		f.Options &^= CompensatedMask
	}
}

// IsBigEndian reports whether multi-byte fields are big-endian.
func (f Flag) IsBigEndian() bool {
	return f.Options&EndiannessMask != 0
}

// SetBigEndian selects big-endian (true) or little-endian (false) byte order.
func (f *Flag) SetBigEndian(on bool) {
	if on {
		f.Options |= EndiannessMask
	} else {
		f.Options &^= EndiannessMask
	}
}

// MagicNumber returns bits 4-15 of the options field.
func (f Flag) MagicNumber() uint16 {
	return f.Options & MagicNumberMask
}

// CompressionType returns the payload compression.
func (f Flag) CompressionType() format.CompressionType {
	return format.CompressionType(f.Compression)
}

// SetCompressionType sets the payload compression.
func (f *Flag) SetCompressionType(ct format.CompressionType) {
	f.Compression = uint8(ct)
}

// Validate checks the magic number, reserved bits and compression type.
func (f Flag) Validate() error {
	if f.MagicNumber() != MagicStateV1 {
		return fmt.Errorf("%w: 0x%04X", errs.ErrInvalidMagicNumber, f.MagicNumber())
	}
	if f.Options&ReservedBitsMask != 0 || f.Reserved != 0 {
		return fmt.Errorf("%w: reserved bits set", errs.ErrInvalidHeaderFlags)
	}

	switch f.CompressionType() {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
		return nil
	default:
		return fmt.Errorf("%w: compression type %d", errs.ErrInvalidHeaderFlags, f.Compression)
	}
}

// EndianEngine returns the byte order engine selected by the flag.
func (f Flag) EndianEngine() endian.EndianEngine {
	return endian.EngineFor(f.IsBigEndian())
}
