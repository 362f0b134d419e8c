package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prguard/prguard/internal/review"
)

// WorkerHandler drains the job queue on demand, typically hit by a cron
// trigger.
type WorkerHandler struct {
	worker *review.Worker
	logger *slog.Logger
}

// NewWorkerHandler creates the worker drain handler.
func NewWorkerHandler(worker *review.Worker, logger *slog.Logger) *WorkerHandler {
	return &WorkerHandler{worker: worker, logger: logger}
}

// Handle runs one worker pass and reports how many jobs were processed.
func (h *WorkerHandler) Handle(w http.ResponseWriter, r *http.Request) {
	processed, err := h.worker.RunOnce(r.Context())
	if err != nil {
		h.logger.Error("worker pass failed", "processed", processed, "error", err)
		http.Error(w, "Worker pass failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"processed": processed})
}
