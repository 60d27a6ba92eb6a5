package config

import "github.com/vaultgraph/vaultgraph/internal/graph"

// Config is the top-level vaultgraph configuration, corresponding to
// .vaultgraph.yml.
type Config struct {
	VaultDir   string        `yaml:"vault_dir" koanf:"vault_dir"`
	DataDir    string        `yaml:"data_dir" koanf:"data_dir"`
	Include    []string      `yaml:"include" koanf:"include"`
	Exclude    []string      `yaml:"exclude" koanf:"exclude"`
	DebounceMS int           `yaml:"debounce_ms" koanf:"debounce_ms"`
	Server     ServerConfig  `yaml:"server" koanf:"server"`
	View       graph.Settings `yaml:"view" koanf:"view"`
	Palette    graph.Palette `yaml:"palette" koanf:"palette"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// ViewSettings returns the initial view-configuration snapshot. The returned
// value is independent of the Config; later settings mutations go through
// the controller's ApplyConfig, never back into this struct.
func (c *Config) ViewSettings() graph.Settings {
	return c.View.Clone()
}
