package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/manifoldco/promptui"
)

// looksLikeVault checks a directory for markers of a note vault.
func looksLikeVault(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".obsidian")); err == nil {
		return true
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.md"))
	return len(matches) > 0
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to the given path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to vaultgraph! Let's configure your vault.")
	fmt.Println()

	cfg := DefaultConfig()

	defaultDir := "."
	if looksLikeVault(".") {
		fmt.Println("Detected a note vault in the current directory.")
		fmt.Println()
	}

	dirPrompt := promptui.Prompt{
		Label:   "Vault directory",
		Default: defaultDir,
		Validate: func(input string) error {
			info, err := os.Stat(input)
			if err != nil {
				return fmt.Errorf("cannot access %s", input)
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", input)
			}
			return nil
		},
	}
	dir, err := dirPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("vault directory: %w", err)
	}
	cfg.VaultDir = dir

	portPrompt := promptui.Prompt{
		Label:   "Server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(input string) error {
			n, err := strconv.Atoi(input)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("invalid port")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	tagsPrompt := promptui.Select{
		Label: "Show tag nodes in the graph",
		Items: []string{"yes", "no"},
	}
	_, showTags, err := tagsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("show tags: %w", err)
	}
	cfg.View.ShowTags = showTags == "yes"

	orphanPrompt := promptui.Select{
		Label: "Hide orphan notes (no links in or out)",
		Items: []string{"no", "yes"},
	}
	_, hideOrphans, err := orphanPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("hide orphans: %w", err)
	}
	cfg.View.HideOrphans = hideOrphans == "yes"

	if err := cfg.Save(path); err != nil {
		return nil, err
	}
	fmt.Printf("\nConfiguration written to %s\n", path)
	return cfg, nil
}
