package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/accounts/internal/flagx"
	"github.com/dmitrijs2005/accounts/internal/timex"
)

// JsonConfig is the on-disk form of Config.
type JsonConfig struct {
	ServerURL string         `json:"server_url"`
	Timeout   timex.Duration `json:"timeout"`
	StateFile string         `json:"state_file"`
}

// parseJson overlays Config with the file named by -c or -config. Keys
// missing from the file keep their current values.
func parseJson(cfg *Config) error {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	jc := JsonConfig{
		ServerURL: cfg.ServerURL,
		Timeout:   timex.Duration{Duration: cfg.Timeout},
		StateFile: cfg.StateFile,
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	cfg.ServerURL = jc.ServerURL
	cfg.Timeout = jc.Timeout.Duration
	cfg.StateFile = jc.StateFile
	return nil
}
