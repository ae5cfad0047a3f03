package wire

import (
	"fmt"

	"github.com/arloliu/olsagg/errs"
)

// Header is the fixed-size header at the start of every envelope.
type Header struct {
	Flag Flag // byte offset 0-3

	// P is the number of predictors.
	P uint32 // byte offset 4-7
	// N is the number of rows folded into the state.
	N uint64 // byte offset 8-15
	// PayloadLen is the stored payload size in bytes.
	PayloadLen uint32 // byte offset 16-19
	// RawLen is the payload size before compression.
	RawLen uint32 // byte offset 20-23
	// Checksum is the xxHash64 of the raw payload.
	Checksum uint64 // byte offset 24-31
}

// Parse parses the header from exactly HeaderSize bytes.
//
// Returns:
//   - error: ErrInvalidHeaderSize, ErrInvalidMagicNumber or ErrInvalidHeaderFlags
func (h *Header) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return fmt.Errorf("%w: got %d bytes", errs.ErrInvalidHeaderSize, len(data))
	}

	// The options field is little-endian so the byte order bit can be read first.
	h.Flag.Options = uint16(data[0]) | uint16(data[1])<<8
	h.Flag.Compression = data[2]
	h.Flag.Reserved = data[3]
	if err := h.Flag.Validate(); err != nil {
		return err
	}

	engine := h.Flag.EndianEngine()
	h.P = engine.Uint32(data[4:8])
	h.N = engine.Uint64(data[8:16])
	h.PayloadLen = engine.Uint32(data[16:20])
	h.RawLen = engine.Uint32(data[20:24])
	h.Checksum = engine.Uint64(data[24:32])

	return nil
}

// Bytes serializes the header.
func (h *Header) Bytes() []byte {
	return h.AppendTo(make([]byte, 0, HeaderSize))
}

// AppendTo appends the serialized header to b.
func (h *Header) AppendTo(b []byte) []byte {
	engine := h.Flag.EndianEngine()

	b = append(b, byte(h.Flag.Options), byte(h.Flag.Options>>8), h.Flag.Compression, h.Flag.Reserved)
	b = engine.AppendUint32(b, h.P)
	b = engine.AppendUint64(b, h.N)
	b = engine.AppendUint32(b, h.PayloadLen)
	b = engine.AppendUint32(b, h.RawLen)
	b = engine.AppendUint64(b, h.Checksum)

	return b
}

// ParseHeader parses the header at the start of data without touching the payload.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d bytes", errs.ErrInvalidHeaderSize, len(data))
	}

	var h Header
	if err := h.Parse(data[:HeaderSize]); err != nil {
		return Header{}, err
	}

	return h, nil
}
