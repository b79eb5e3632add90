package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/RulzOrg/resumate-sub008/internal/flagx"
	"github.com/RulzOrg/resumate-sub008/internal/timex"
)

// JsonConfig is the intermediate DTO for reading JSON configuration files.
// Interval fields use timex.Duration so both "2s" and integer nanoseconds
// parse.
type JsonConfig struct {
	ServerBaseURL    string         `json:"server_base_url"`
	MetadataDebounce timex.Duration `json:"metadata_debounce"`
	ContentDebounce  timex.Duration `json:"content_debounce"`
	MaxRetries       uint64         `json:"max_retries"`
	RetryBaseDelay   timex.Duration `json:"retry_base_delay"`
	ProbeInterval    timex.Duration `json:"probe_interval"`
	DraftDBPath      string         `json:"draft_db_path"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path is taken from the -c/-config command-line
// flags; if neither is set, no JSON file is loaded. If the file cannot be
// read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.ServerBaseURL = c.ServerBaseURL
	config.MetadataDebounce = time.Duration(c.MetadataDebounce.Duration)
	config.ContentDebounce = time.Duration(c.ContentDebounce.Duration)
	config.MaxRetries = c.MaxRetries
	config.RetryBaseDelay = time.Duration(c.RetryBaseDelay.Duration)
	config.ProbeInterval = time.Duration(c.ProbeInterval.Duration)
	config.DraftDBPath = c.DraftDBPath
}
