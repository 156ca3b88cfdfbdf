package config

const (
	// MaxFreeConversions is the total number of completed conversions a
	// free-tier account may perform. Premium accounts are unbounded.
	MaxFreeConversions = 10

	// FreeTierMaxFileBytes is the largest source file a free-tier user may
	// submit. Kept small so the in-memory conversion path stays cheap on
	// shared infrastructure.
	FreeTierMaxFileBytes = 5 << 20 // 5 MiB

	// PremiumTierMaxFileBytes is the largest source file a premium user may
	// submit. Everything is still converted in memory, so this also bounds
	// per-request memory use.
	PremiumTierMaxFileBytes = 100 << 20 // 100 MiB

	// MultipartMemoryBytes is how much of a multipart upload is held in
	// memory before spilling to temp files during form parsing.
	MultipartMemoryBytes = 10 << 20
)
