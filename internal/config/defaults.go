package config

import "github.com/vaultgraph/vaultgraph/internal/graph"

// DefaultExcludes are glob patterns excluded from the vault by default.
var DefaultExcludes = []string{
	".git/**",
	".obsidian/**",
	".trash/**",
	"**/*.tmp",
}

// DefaultConfig returns a Config with sensible defaults: the current
// directory as the vault, tags visible, attachments and orphans shown.
func DefaultConfig() *Config {
	return &Config{
		VaultDir:   ".",
		DataDir:    ".vaultgraph",
		Exclude:    DefaultExcludes,
		DebounceMS: 400,
		Server: ServerConfig{
			Port: 7117,
		},
		View: graph.Settings{
			ShowTags:        true,
			ShowAttachments: true,
		},
		Palette: graph.DefaultPalette(),
	}
}
