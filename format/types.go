package format

type (
	AccumulationType uint8
	CompressionType  uint8
)

const (
	AccumulationPlain       AccumulationType = 0x1 // AccumulationPlain keeps bare running sums.
	AccumulationCompensated AccumulationType = 0x2 // AccumulationCompensated keeps Neumaier compensation terms per sum.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (a AccumulationType) String() string {
	switch a {
	case AccumulationPlain:
		return "Plain"
	case AccumulationCompensated:
		return "Compensated"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
