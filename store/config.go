package store

import "log/slog"

// Config holds configuration for the Store.
type Config struct {
	// BoatsTable is the name of the boats table.
	// Default: "boats"
	BoatsTable string

	// LoadsTable is the name of the loads table.
	// Default: "loads"
	LoadsTable string

	// AssignmentTable is the name of the boat-load assignment table.
	// Default: "slipway_assignments"
	AssignmentTable string

	// NumShards is the number of shards for the assignment table.
	// Higher values increase write throughput per boat but require more
	// parallel queries when listing a boat's loads.
	// Default: 1 (no sharding, single query)
	// Max: 256
	NumShards int

	// Logger receives store-level failure diagnostics.
	// Default: slog.Default()
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults for small fleets.
func DefaultConfig() Config {
	return Config{
		BoatsTable:      "boats",
		LoadsTable:      "loads",
		AssignmentTable: "slipway_assignments",
		NumShards:       1,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.BoatsTable == "" {
		c.BoatsTable = "boats"
	}
	if c.LoadsTable == "" {
		c.LoadsTable = "loads"
	}
	if c.AssignmentTable == "" {
		c.AssignmentTable = "slipway_assignments"
	}
	if c.NumShards < 1 {
		c.NumShards = 1
	}
	if c.NumShards > 256 {
		c.NumShards = 256
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
