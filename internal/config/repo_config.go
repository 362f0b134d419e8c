package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/prguard/prguard/internal/core"
)

// RepoFileName is the per-repository override file looked up at the head
// of each reviewed pull request.
const RepoFileName = ".prguard.yml"

// ParseRepoFile decodes the optional per-repository config file.
func ParseRepoFile(data []byte) (*core.RepoFileConfig, error) {
	var fileCfg core.RepoFileConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", RepoFileName, err)
	}
	return &fileCfg, nil
}

// MergeRepoFile applies the file overrides on top of the stored settings.
// Missing keys leave the stored value untouched.
func MergeRepoFile(settings *core.RepoSettings, fileCfg *core.RepoFileConfig) *core.RepoSettings {
	if fileCfg == nil {
		return settings
	}
	merged := *settings
	if len(fileCfg.Categories) > 0 {
		merged.Categories = fileCfg.Categories
	}
	if len(fileCfg.IgnorePaths) > 0 {
		merged.IgnorePaths = append(merged.IgnorePaths, fileCfg.IgnorePaths...)
	}
	if len(fileCfg.CustomInstructions) > 0 {
		merged.CustomInstructions = strings.Join(fileCfg.CustomInstructions, "\n")
	}
	return &merged
}
