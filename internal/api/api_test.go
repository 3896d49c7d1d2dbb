package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Glyph/internal/domain"
	"github.com/shaiso/Glyph/internal/mq"
	"github.com/shaiso/Glyph/internal/orchestrator"
	"github.com/shaiso/Glyph/internal/repo"
)

// --- Fakes ---

type fakeStats struct{ stats orchestrator.WatchStats }

func (f fakeStats) Stats() orchestrator.WatchStats { return f.stats }

type fakeOutcomes struct {
	records map[uuid.UUID][]domain.OutcomeRecord
}

func (f fakeOutcomes) ListByRun(_ context.Context, runID uuid.UUID) ([]domain.OutcomeRecord, error) {
	recs, ok := f.records[runID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return recs, nil
}

type fakeJobs struct {
	jobs []mq.JobPayload
	err  error
}

func (f *fakeJobs) PublishJob(_ context.Context, job mq.JobPayload) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func newTestServer(cfg Config) *httptest.Server {
	cfg.Logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	mux := http.NewServeMux()
	NewHandler(cfg).RegisterRoutes(mux)
	return httptest.NewServer(mux)
}

// --- Tests ---

func TestHealth(t *testing.T) {
	server := newTestServer(Config{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestWatchStats(t *testing.T) {
	server := newTestServer(Config{
		Watcher: fakeStats{orchestrator.WatchStats{Seen: 5, Dropped: 2, Processed: 3}},
		Root:    "/inbox",
	})
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/watch/stats")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	var body struct {
		Data map[string]any `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&body)

	if body.Data["root"] != "/inbox" || body.Data["seen"] != float64(5) || body.Data["dropped"] != float64(2) {
		t.Errorf("unexpected stats %v", body.Data)
	}
}

func TestWatchStats_NoWatcher(t *testing.T) {
	server := newTestServer(Config{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/watch/stats")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestListRunOutcomes(t *testing.T) {
	runID := uuid.New()
	rec := domain.NewOutcomeRecord(runID, domain.ModeBatch, 0, domain.Succeeded("a.png", nil))
	server := newTestServer(Config{
		Outcomes: fakeOutcomes{records: map[uuid.UUID][]domain.OutcomeRecord{runID: {rec}}},
	})
	defer server.Close()

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"found", "/api/v1/runs/" + runID.String() + "/outcomes", http.StatusOK},
		{"unknown run", "/api/v1/runs/" + uuid.NewString() + "/outcomes", http.StatusNotFound},
		{"bad id", "/api/v1/runs/nope/outcomes", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.path)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestSubmitJob(t *testing.T) {
	jobs := &fakeJobs{}
	server := newTestServer(Config{Jobs: jobs, Root: "/inbox"})
	defer server.Close()

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"ok", `{"path":"/inbox/a.png","profile":"fast"}`, http.StatusAccepted},
		{"relative", `{"path":"a.png"}`, http.StatusBadRequest},
		{"outside root", `{"path":"/etc/passwd"}`, http.StatusBadRequest},
		{"escapes root", `{"path":"/inbox/../etc/a.png"}`, http.StatusBadRequest},
		{"sibling prefix", `{"path":"/inbox2/a.png"}`, http.StatusBadRequest},
		{"missing path", `{}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/api/v1/jobs", "application/json", bytes.NewBufferString(tt.body))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}

	if len(jobs.jobs) != 1 || jobs.jobs[0].Profile != "fast" {
		t.Errorf("expected one published job, got %+v", jobs.jobs)
	}
}

func TestSubmitJob_PublishFailure(t *testing.T) {
	server := newTestServer(Config{Jobs: &fakeJobs{err: errors.New("broker down")}})
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/v1/jobs", "application/json", bytes.NewBufferString(`{"path":"/a.png"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	handler := Chain(Recovery(logger), Logging(logger))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
