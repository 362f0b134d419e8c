package core

// ReviewDepth controls how thorough a review should be.
type ReviewDepth string

const (
	DepthQuick    ReviewDepth = "quick"
	DepthStandard ReviewDepth = "standard"
	DepthDeep     ReviewDepth = "deep"
)

// RiskPriority orders jobs by how urgently a human should see the result.
type RiskPriority string

const (
	PriorityLow      RiskPriority = "low"
	PriorityMedium   RiskPriority = "medium"
	PriorityHigh     RiskPriority = "high"
	PriorityCritical RiskPriority = "critical"
)

// FocusArea tags a review category the classifier wants emphasized.
type FocusArea string

const (
	FocusSecurity      FocusArea = "security"
	FocusBug           FocusArea = "bug"
	FocusPerformance   FocusArea = "performance"
	FocusBestPractices FocusArea = "best-practices"
)

// PRContext is the classifier's view of an inbound pull request event.
type PRContext struct {
	RepoFullName string
	PRNumber     int
	Title        string
	Labels       []string
	BaseBranch   string
	ChangedFiles int
	Additions    int
	Deletions    int
	FilePaths    []string
}

// RiskDecision is the classifier output attached to the job it spawns.
// It is computed fresh per PR event and never persisted on its own.
type RiskDecision struct {
	ShouldReview bool         `json:"should_review"`
	Score        int          `json:"score"`
	Depth        ReviewDepth  `json:"depth"`
	Priority     RiskPriority `json:"priority"`
	Reasons      []string     `json:"reasons"`
	FocusAreas   []FocusArea  `json:"focus_areas"`
}
