package domain

// Version constants for the snapshot layout and the engine.
const (
	// SnapshotVersion is the persisted snapshot layout version.
	SnapshotVersion = "1"

	// EngineVersion is the shelfswap engine version.
	EngineVersion = "0.1.0"
)
