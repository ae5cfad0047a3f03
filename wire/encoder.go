package wire

import (
	"fmt"
	"math"

	"github.com/arloliu/olsagg/compress"
	"github.com/arloliu/olsagg/endian"
	"github.com/arloliu/olsagg/errs"
	"github.com/arloliu/olsagg/internal/hash"
	"github.com/arloliu/olsagg/internal/options"
	"github.com/arloliu/olsagg/internal/pool"
	"github.com/arloliu/olsagg/regression"
)

// Encoder serializes transition states. An Encoder is safe for concurrent use.
type Encoder struct {
	cfg    Config
	codec  compress.Codec
	engine endian.EndianEngine
}

// NewEncoder creates an encoder.
//
// Parameters:
//   - opts: WithCompression, WithLittleEndian, WithBigEndian, WithNativeEndian
//
// Returns:
//   - *Encoder: Encoder ready for use
//   - error: Option validation error
func NewEncoder(opts ...Option) (*Encoder, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}

	return &Encoder{
		cfg:    cfg,
		codec:  codec,
		engine: endian.EngineFor(cfg.BigEndian),
	}, nil
}

// Encode serializes st. The state is not modified.
//
// Returns:
//   - []byte: The envelope, owned by the caller
//   - error: ErrStateConsumed, or a compression error
func (e *Encoder) Encode(st *regression.State) ([]byte, error) {
	if st.Consumed() {
		return nil, fmt.Errorf("encode: %w", errs.ErrStateConsumed)
	}

	return e.EncodeSufficient(st.Snapshot())
}

// EncodeSufficient serializes a snapshot.
func (e *Encoder) EncodeSufficient(s regression.Sufficient) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.P > MaxPredictors {
		return nil, fmt.Errorf("%w: %d predictors exceeds %d", errs.ErrDimensionMismatch, s.P, MaxPredictors)
	}

	raw := pool.GetStateBuffer()
	defer pool.PutStateBuffer(raw)

	rawLen := rawPayloadSize(s.P, s.Compensated)
	raw.Grow(rawLen)
	raw.B = e.appendFloats(raw.B, s.SumY, s.YY)
	raw.B = e.appendFloats(raw.B, s.XY...)
	raw.B = e.appendFloats(raw.B, s.XX...)
	if s.Compensated {
		raw.B = e.appendFloats(raw.B, s.SumYComp, s.YYComp)
		raw.B = e.appendFloats(raw.B, s.XYComp...)
		raw.B = e.appendFloats(raw.B, s.XXComp...)
	}

	payload, err := e.codec.Compress(raw.B)
	if err != nil {
		return nil, fmt.Errorf("compress state payload: %w", err)
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: payload of %d bytes is too large", errs.ErrInvalidPayload, len(payload))
	}

	h := Header{
		Flag:       NewFlag(),
		P:          uint32(s.P),
		N:          s.N,
		PayloadLen: uint32(len(payload)),
		RawLen:     uint32(rawLen),
		Checksum:   hash.Checksum(raw.B),
	}
	h.Flag.SetCompensated(s.Compensated)
	h.Flag.SetBigEndian(e.cfg.BigEndian)
	h.Flag.SetCompressionType(e.cfg.Compression)

	out := make([]byte, 0, HeaderSize+len(payload))
	out = h.AppendTo(out)
	out = append(out, payload...)

	return out, nil
}

func (e *Encoder) appendFloats(b []byte, vals ...float64) []byte {
	for _, v := range vals {
		b = e.engine.AppendUint64(b, math.Float64bits(v))
	}

	return b
}

// Marshal encodes st with a one-off encoder.
//
// Example:
//
//	data, err := wire.Marshal(st, wire.WithCompression(format.CompressionS2))
func Marshal(st *regression.State, opts ...Option) ([]byte, error) {
	enc, err := NewEncoder(opts...)
	if err != nil {
		return nil, err
	}

	return enc.Encode(st)
}
