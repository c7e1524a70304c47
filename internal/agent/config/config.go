// Package config handles configuration for the backup agent, including
// defaults, JSON overlay, and command-line flags.
package config

// Config holds runtime settings for the call-log backup agent.
//
// Fields:
//   - DatabaseDriver: call-log store backend, "sqlite" or "postgres".
//   - DatabaseDSN: DSN for the chosen backend.
//   - ArchivePath: path of the entity archive written by backup and read
//     by restore.
//   - StatePath: path of the incremental backup state blob.
//   - DedupMode: restore dedup mode, "disabled", "per-record" or "batched".
//   - BatchSize: records per flush in batched dedup mode.
//   - SubscriptionMapPath: optional JSON file mapping subscription ids to
//     stable phone-account ids; empty disables account migration.
type Config struct {
	DatabaseDriver      string
	DatabaseDSN         string
	ArchivePath         string
	StatePath           string
	DedupMode           string
	BatchSize           int
	SubscriptionMapPath string
}

// LoadDefaults populates Config with local single-device defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "file:calllog.db"
	c.ArchivePath = "calllog.backup"
	c.StatePath = "calllog.state"
	c.DedupMode = "batched"
	c.BatchSize = 100
	c.SubscriptionMapPath = ""
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
