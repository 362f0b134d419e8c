package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prguard/prguard/internal/core"
	"github.com/prguard/prguard/internal/review"
)

// ReviewHandler runs a review synchronously for one pull request. Used for
// manual triggers and testing; normal traffic goes through the queue.
type ReviewHandler struct {
	orchestrator *review.Orchestrator
	logger       *slog.Logger
}

// NewReviewHandler creates the synchronous review handler.
func NewReviewHandler(orchestrator *review.Orchestrator, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{orchestrator: orchestrator, logger: logger}
}

type reviewRequest struct {
	Owner      string   `json:"owner"`
	Repo       string   `json:"repo"`
	PRNumber   int      `json:"pr_number"`
	Post       bool     `json:"post"`
	Depth      string   `json:"depth,omitempty"`
	FocusAreas []string `json:"focus_areas,omitempty"`
}

func (req *reviewRequest) validate() error {
	if req.Owner == "" || req.Repo == "" {
		return fmt.Errorf("owner and repo are required")
	}
	if req.PRNumber <= 0 {
		return fmt.Errorf("pr_number must be positive")
	}
	switch core.ReviewDepth(req.Depth) {
	case "", core.DepthQuick, core.DepthStandard, core.DepthDeep:
	default:
		return fmt.Errorf("unknown depth %q", req.Depth)
	}
	return nil
}

// Handle runs the review and returns the result as JSON.
func (h *ReviewHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	depth := core.ReviewDepth(req.Depth)
	if depth == "" {
		depth = core.DepthStandard
	}
	focusAreas := make([]core.FocusArea, 0, len(req.FocusAreas))
	for _, f := range req.FocusAreas {
		focusAreas = append(focusAreas, core.FocusArea(f))
	}

	job := &core.ReviewJob{
		RepoFullName: req.Owner + "/" + req.Repo,
		RepoOwner:    req.Owner,
		RepoName:     req.Repo,
		PRNumber:     req.PRNumber,
		MaxAttempts:  1,
	}
	decision := &core.RiskDecision{
		ShouldReview: true,
		Depth:        depth,
		Priority:     core.PriorityMedium,
		FocusAreas:   focusAreas,
		Reasons:      []string{"Manually requested"},
	}

	result, err := h.orchestrator.RunWithOptions(r.Context(), job, review.RunOptions{
		Post:     req.Post,
		Decision: decision,
	})
	if err != nil {
		if errors.Is(err, review.ErrSkip) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("synchronous review failed",
			"repo", job.RepoFullName, "pr", job.PRNumber, "error", err)
		http.Error(w, "Review failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}
