package wire

import (
	"fmt"
	"math"

	"github.com/arloliu/olsagg/compress"
	"github.com/arloliu/olsagg/endian"
	"github.com/arloliu/olsagg/errs"
	"github.com/arloliu/olsagg/internal/hash"
	"github.com/arloliu/olsagg/internal/options"
	"github.com/arloliu/olsagg/regression"
)

// Decoder parses envelopes back into transition states.
// A Decoder is safe for concurrent use.
type Decoder struct {
	cfg Config
}

// NewDecoder creates a decoder.
//
// Parameters:
//   - opts: WithStateOptions
func NewDecoder(opts ...Option) (*Decoder, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return &Decoder{cfg: cfg}, nil
}

// Decode parses data into a new State.
//
// Returns:
//   - *regression.State: The decoded state
//   - error: ErrInvalidHeaderSize, ErrInvalidMagicNumber, ErrInvalidHeaderFlags,
//     ErrChecksumMismatch or ErrInvalidPayload
func (d *Decoder) Decode(data []byte) (*regression.State, error) {
	s, _, err := d.DecodeSufficient(data)
	if err != nil {
		return nil, err
	}

	st, err := regression.Restore(s, d.cfg.StateOptions...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidPayload, err)
	}

	return st, nil
}

// DecodeSufficient parses data into a snapshot and returns the header alongside.
func (d *Decoder) DecodeSufficient(data []byte) (regression.Sufficient, Header, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return regression.Sufficient{}, Header{}, err
	}

	if h.P > MaxPredictors {
		return regression.Sufficient{}, h, fmt.Errorf("%w: %d predictors exceeds %d", errs.ErrInvalidPayload, h.P, MaxPredictors)
	}
	p := int(h.P)
	compensated := h.Flag.IsCompensated()
	if want := rawPayloadSize(p, compensated); int(h.RawLen) != want {
		return regression.Sufficient{}, h, fmt.Errorf("%w: raw length %d, want %d for %d predictors",
			errs.ErrInvalidPayload, h.RawLen, want, p)
	}
	if got := len(data) - HeaderSize; got != int(h.PayloadLen) {
		return regression.Sufficient{}, h, fmt.Errorf("%w: payload has %d bytes, header says %d",
			errs.ErrInvalidPayload, got, h.PayloadLen)
	}

	codec, err := compress.GetCodec(h.Flag.CompressionType())
	if err != nil {
		return regression.Sufficient{}, h, fmt.Errorf("%w: %w", errs.ErrInvalidHeaderFlags, err)
	}
	raw, err := codec.DecompressLimit(data[HeaderSize:], int(h.RawLen))
	if err != nil {
		return regression.Sufficient{}, h, fmt.Errorf("%w: decompress: %w", errs.ErrInvalidPayload, err)
	}
	if len(raw) != int(h.RawLen) {
		return regression.Sufficient{}, h, fmt.Errorf("%w: decompressed %d bytes, want %d",
			errs.ErrInvalidPayload, len(raw), h.RawLen)
	}
	if sum := hash.Checksum(raw); sum != h.Checksum {
		return regression.Sufficient{}, h, fmt.Errorf("%w: got %016x, header says %016x",
			errs.ErrChecksumMismatch, sum, h.Checksum)
	}

	r := reader{engine: h.Flag.EndianEngine(), buf: raw}
	s := regression.Sufficient{
		N:           h.N,
		P:           p,
		Compensated: compensated,
	}
	s.SumY, s.YY = r.next(), r.next()
	s.XY = r.vector(p)
	s.XX = r.vector(p * (p + 1) / 2)
	if compensated {
		s.SumYComp, s.YYComp = r.next(), r.next()
		s.XYComp = r.vector(p)
		s.XXComp = r.vector(p * (p + 1) / 2)
	}
	if err := s.Validate(); err != nil {
		return regression.Sufficient{}, h, fmt.Errorf("%w: %w", errs.ErrInvalidPayload, err)
	}

	return s, h, nil
}

type reader struct {
	engine endian.EndianEngine
	buf    []byte
	off    int
}

func (r *reader) next() float64 {
	v := math.Float64frombits(r.engine.Uint64(r.buf[r.off:]))
	r.off += float64Size

	return v
}

func (r *reader) vector(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = r.next()
	}

	return out
}

// Unmarshal decodes data with a one-off decoder.
func Unmarshal(data []byte, opts ...Option) (*regression.State, error) {
	dec, err := NewDecoder(opts...)
	if err != nil {
		return nil, err
	}

	return dec.Decode(data)
}
