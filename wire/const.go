package wire

const (
	// Bit masks of the options field
	CompensatedMask  = 0x0001 // Mask for compensated accumulation bit (bit 0)
	EndiannessMask   = 0x0002 // Mask for endianness bit (bit 1)
	ReservedBitsMask = 0x000C // Mask for reserved bits (bits 2-3)
	MagicNumberMask  = 0xFFF0 // Mask for magic number (bits 4-15)

	// MagicStateV1 identifies version 1 of the transition-state envelope.
	MagicStateV1 = 0xC510
)

const (
	HeaderSize = 32 // fixed header size in bytes

	// MaxPredictors bounds P so that a corrupted header cannot trigger a huge allocation.
	MaxPredictors = 4096

	float64Size = 8
)

// rawPayloadSize returns the raw payload size in bytes for width p.
func rawPayloadSize(p int, compensated bool) int {
	n := 2 + p + p*(p+1)/2
	if compensated {
		n *= 2
	}

	return n * float64Size
}
