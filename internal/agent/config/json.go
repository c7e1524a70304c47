package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/callvault/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. After
// parsing, values are copied into the runtime Config.
type JsonConfig struct {
	DatabaseDriver      string `json:"database_driver"`
	DatabaseDSN         string `json:"database_dsn"`
	ArchivePath         string `json:"archive_path"`
	StatePath           string `json:"state_path"`
	DedupMode           string `json:"dedup_mode"`
	BatchSize           int    `json:"batch_size"`
	SubscriptionMapPath string `json:"subscription_map_path"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Only fields present in the file override their Config counterparts.
// Panics on read or unmarshal errors (caller should recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later
// stages override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabaseDriver != "" {
		cfg.DatabaseDriver = jc.DatabaseDriver
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.ArchivePath != "" {
		cfg.ArchivePath = jc.ArchivePath
	}
	if jc.StatePath != "" {
		cfg.StatePath = jc.StatePath
	}
	if jc.DedupMode != "" {
		cfg.DedupMode = jc.DedupMode
	}
	if jc.BatchSize > 0 {
		cfg.BatchSize = jc.BatchSize
	}
	if jc.SubscriptionMapPath != "" {
		cfg.SubscriptionMapPath = jc.SubscriptionMapPath
	}
}
