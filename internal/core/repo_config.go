package core

// RepoSettings holds the per-repository review configuration persisted in the
// datastore. The orchestrator reads it before every review.
type RepoSettings struct {
	RepoFullName       string   `db:"repo_full_name"`
	Enabled            bool     `db:"enabled"`
	AutoReview         bool     `db:"auto_review"`
	Categories         []string `db:"-"`
	IgnorePaths        []string `db:"-"`
	CustomInstructions string   `db:"custom_instructions"`
}

// DefaultRepoSettings returns the configuration used for repositories that
// have never been configured explicitly.
func DefaultRepoSettings(repoFullName string) *RepoSettings {
	return &RepoSettings{
		RepoFullName: repoFullName,
		Enabled:      true,
		AutoReview:   true,
		Categories:   []string{"security", "bug", "performance", "best-practices"},
	}
}

// RepoFileConfig represents the optional .prguard.yml file committed to a
// repository. Values found there override the stored settings for a run.
type RepoFileConfig struct {
	CustomInstructions []string `yaml:"custom_instructions"`
	IgnorePaths        []string `yaml:"ignore_paths"`
	Categories         []string `yaml:"categories"`
}
