package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/shaiso/Glyph/internal/mq"
	"github.com/shaiso/Glyph/internal/orchestrator"
)

// WatchStatsResponse — ответ GET /api/v1/watch/stats.
type WatchStatsResponse struct {
	Root string `json:"root"`
	orchestrator.WatchStats
}

// SubmitJobRequest — тело POST /api/v1/jobs.
type SubmitJobRequest struct {
	Path    string `json:"path"`
	Profile string `json:"profile,omitempty"`
}

// Health отвечает, что процесс жив.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// WatchStats возвращает счётчики watch-цикла.
// GET /api/v1/watch/stats
func (h *Handler) WatchStats(w http.ResponseWriter, _ *http.Request) {
	if h.watcher == nil {
		Unavailable(w, "watcher is not running")
		return
	}
	Success(w, WatchStatsResponse{Root: h.root, WatchStats: h.watcher.Stats()})
}

// ListRunOutcomes возвращает сохранённые outcomes запуска.
// GET /api/v1/runs/{id}/outcomes
func (h *Handler) ListRunOutcomes(w http.ResponseWriter, r *http.Request) {
	if h.outcomes == nil {
		Unavailable(w, "outcome storage is not configured")
		return
	}

	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	records, err := h.outcomes.ListByRun(r.Context(), runID)
	if HandleError(w, h.logger, err, "run not found") {
		return
	}
	List(w, records, len(records))
}

// SubmitJob ставит файл в очередь распознавания.
// POST /api/v1/jobs
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		Unavailable(w, "job queue is not configured")
		return
	}

	var req SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if req.Path == "" {
		BadRequest(w, "path is required")
		return
	}
	if !filepath.IsAbs(req.Path) {
		BadRequest(w, "path must be absolute")
		return
	}
	path := filepath.Clean(req.Path)
	if !h.underRoot(path) {
		BadRequest(w, "path must be inside the watched directory")
		return
	}

	job := mq.JobPayload{Path: path, Profile: req.Profile}
	if err := h.jobs.PublishJob(r.Context(), job); err != nil {
		InternalError(w, h.logger, err)
		return
	}
	Accepted(w, job)
}

// underRoot сообщает, лежит ли path внутри наблюдаемой директории.
// Без root ограничение не действует.
func (h *Handler) underRoot(path string) bool {
	if h.root == "" {
		return true
	}
	rel, err := filepath.Rel(filepath.Clean(h.root), path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
