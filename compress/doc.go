// Package compress provides the payload codecs of the transition-state wire format.
//
// An encoded transition state is dominated by the packed X'X block, p(p+1)/2
// float64 values. For wide regressions shipped across a network between workers
// it pays to compress that payload; for narrow ones the header already dominates
// and CompressionNone is the right choice.
//
// # Available Codecs
//
//   - NoOpCompressor (format.CompressionNone): returns its input unchanged.
//   - ZstdCompressor (format.CompressionZstd): best ratio. Pure Go
//     (klauspost/compress/zstd) by default; build with the `gozstd` tag and cgo
//     enabled to use valyala/gozstd instead.
//   - S2Compressor (format.CompressionS2): fast, moderate ratio.
//   - LZ4Compressor (format.CompressionLZ4): fastest decompression.
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	packed, err := codec.Compress(payload)
//
// All built-in codecs are stateless values backed by pooled encoders and are
// safe for concurrent use.
package compress
