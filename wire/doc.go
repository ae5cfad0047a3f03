// Package wire encodes transition states into a compact binary envelope so
// that partial aggregates can be shipped between workers or nodes and merged
// on the receiving side.
//
// # Layout
//
// Every envelope starts with a fixed 32-byte header followed by the payload:
//
//	offset  size  field
//	0       2     options: bit 0 compensated, bit 1 big-endian, bits 4-15 magic 0xC51
//	2       1     compression type (format.CompressionType)
//	3       1     reserved, must be 0
//	4       4     P, number of predictors
//	8       8     N, number of rows
//	16      4     payload length in bytes, as stored
//	20      4     raw payload length in bytes, before compression
//	24      8     xxHash64 of the raw payload
//
// The options field is always little-endian; every other field uses the byte
// order selected by bit 1. The raw payload is a sequence of IEEE 754 bit
// patterns in the same byte order:
//
//	Σy, y'y, X'y[P], X'X[P(P+1)/2]
//
// followed, when bit 0 is set, by the compensation terms in the same order.
//
// # Usage
//
//	data, err := wire.Marshal(st, wire.WithCompression(format.CompressionZstd))
//	if err != nil {
//	    return err
//	}
//	// ... send data ...
//	remote, err := wire.Unmarshal(data)
//	if err != nil {
//	    return err
//	}
//	err = local.Merge(remote)
package wire
