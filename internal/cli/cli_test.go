package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/shaiso/Glyph/internal/config"
	"github.com/shaiso/Glyph/internal/domain"
	"github.com/shaiso/Glyph/internal/engine"
	"github.com/shaiso/Glyph/internal/server"
)

// --- Helpers ---

// fakeBridge печатает один регион; файлы с "bad" в имени завершаются ошибкой.
const fakeBridge = `#!/bin/sh
case "$4" in
  *bad*) echo '{"error":"cannot read image"}' >&2; exit 1 ;;
esac
echo '[{"bbox":[[0,0],[10,0],[10,5],[0,5]],"text":"hello","confidence":0.9}]'
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testSession создаёт Session, которая запускает fakeBridge через /bin/sh.
func testSession(t *testing.T) *Session {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, engine.BridgeScript), []byte(fakeBridge), 0o755); err != nil {
		t.Fatalf("write bridge: %v", err)
	}
	scripts := func() (string, error) { return dir, nil }

	return &Session{
		Config:      &config.Config{},
		Params:      config.BuiltinParams(),
		Locator:     engine.Locator{ExeDir: scripts, WorkDir: scripts},
		Interpreter: "/bin/sh",
		Logger:      quietLogger(),
	}
}

type harness struct {
	root    *cobra.Command
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	session *Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{session: testSession(t)}

	var flags GlobalFlags
	root := &cobra.Command{Use: "glyph", SilenceUsage: true, SilenceErrors: true}
	flags.Register(root)

	sessionFn := func() (*Session, error) { return h.session, nil }
	outputFn := func() *Output { return NewOutputTo(&h.stdout, &h.stderr, flags.JSON) }

	BindRecognize(root, sessionFn, outputFn)
	root.AddCommand(
		NewBatchCmd(sessionFn, outputFn),
		NewParallelCmd(sessionFn, outputFn),
		NewConfigCmd(sessionFn, outputFn),
		NewInspectCmd(outputFn),
	)
	h.root = root
	return h
}

func (h *harness) run(args ...string) error {
	h.root.SetArgs(args)
	return h.root.ExecuteContext(context.Background())
}

func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 20, 10))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}

// --- Flags Tests ---

func TestGlobalFlags_OnlyChangedFlagsOverride(t *testing.T) {
	var flags GlobalFlags
	cmd := &cobra.Command{Use: "glyph"}
	flags.Register(cmd)

	if err := cmd.PersistentFlags().Parse([]string{"--languages", "ja,en", "-d", "0"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	o := flags.Overrides()
	if len(o.Languages) != 2 || o.Languages[0] != "ja" {
		t.Errorf("expected languages override, got %v", o.Languages)
	}
	if o.Detail == nil || *o.Detail != 0 {
		t.Errorf("expected detail override 0, got %v", o.Detail)
	}
	if o.GPU != nil || o.Output != nil {
		t.Errorf("unchanged flags must not override: gpu=%v output=%v", o.GPU, o.Output)
	}
}

func TestGlobalFlags_NoChangedFunc(t *testing.T) {
	flags := GlobalFlags{Languages: []string{"ko"}}
	o := flags.Overrides()
	if o.Languages != nil {
		t.Errorf("expected no overrides, got %v", o.Languages)
	}
}

// --- Session Tests ---

func isolateConfig(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
}

func TestNewSession_ProfileAndFlags(t *testing.T) {
	isolateConfig(t)
	path := filepath.Join(t.TempDir(), "glyph.toml")
	os.WriteFile(path, []byte(`
[default]
languages = ["en"]
output = "text"

[profiles.fast]
detail = 0
gpu = false
`), 0o644)

	output := "detailed"
	changed := map[string]bool{"output": true}
	s, err := NewSession(GlobalFlags{
		Config:  path,
		Profile: "fast",
		Output:  output,
		Changed: func(name string) bool { return changed[name] },
	}, quietLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Params.Detail != domain.DetailText || s.Params.GPU {
		t.Errorf("profile not applied: %+v", s.Params)
	}
	if s.Params.Output != "detailed" {
		t.Errorf("expected flag to win over [default], got %s", s.Params.Output)
	}
}

func TestNewSession_UnknownProfile(t *testing.T) {
	isolateConfig(t)
	_, err := NewSession(GlobalFlags{Profile: "missing"}, quietLogger())
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestNewSession_InvalidFlag(t *testing.T) {
	isolateConfig(t)
	detail := 3
	_, err := NewSession(GlobalFlags{
		Detail:  detail,
		Changed: func(name string) bool { return name == "detail" },
	}, quietLogger())
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestSession_ClientServerUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := testSession(t)
	s.Flags = GlobalFlags{UseServer: true, ServerURL: srv.URL}

	_, err := s.Client(context.Background())
	if !errors.Is(err, engine.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestSession_ClientServerHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != engine.HealthPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := testSession(t)
	s.Flags = GlobalFlags{UseServer: true, ServerURL: srv.URL}

	client, err := s.Client(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.(*engine.Instrumented).Strategy(); got != engine.StrategyServer {
		t.Errorf("expected server strategy, got %s", got)
	}
}

func TestSession_ClientDefaultsToSubprocess(t *testing.T) {
	client, err := testSession(t).Client(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.(*engine.Instrumented).Strategy(); got != engine.StrategySubprocess {
		t.Errorf("expected subprocess strategy, got %s", got)
	}
}

// --- Recognize Tests ---

func TestRecognize_PrintsResults(t *testing.T) {
	h := newHarness(t)
	img := writeImage(t, t.TempDir(), "scan.png")

	if err := h.run("-i", img); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var regions []domain.Region
	if err := json.Unmarshal(h.stdout.Bytes(), &regions); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, h.stdout.String())
	}
	if len(regions) != 1 || regions[0].Text != "hello" {
		t.Errorf("unexpected regions %+v", regions)
	}
	if !strings.Contains(h.stderr.String(), "Found 1 text region(s)") {
		t.Errorf("expected summary on stderr, got %q", h.stderr.String())
	}
}

func TestRecognize_EngineFailure(t *testing.T) {
	h := newHarness(t)
	img := writeImage(t, t.TempDir(), "bad.png")

	err := h.run("-i", img)
	if !errors.Is(err, engine.ErrExecution) {
		t.Errorf("expected ErrExecution, got %v", err)
	}
	if h.stdout.Len() != 0 {
		t.Errorf("expected empty stdout, got %q", h.stdout.String())
	}
}

func TestRecognize_InputValidation(t *testing.T) {
	h := newHarness(t)
	if err := h.run(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for missing input, got %v", err)
	}

	h = newHarness(t)
	if err := h.run("-i", filepath.Join(t.TempDir(), "missing.png")); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for missing file, got %v", err)
	}
}

func TestServerStatus_NotRunning(t *testing.T) {
	t.Setenv(server.PIDFileEnv, filepath.Join(t.TempDir(), "glyph.pid"))
	h := newHarness(t)

	if err := h.run("--server-status"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(h.stderr.String(), "Server is not running") {
		t.Errorf("unexpected stderr %q", h.stderr.String())
	}

	h = newHarness(t)
	if err := h.run("--server-stop"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(h.stderr.String(), "Server is not running") {
		t.Errorf("unexpected stderr %q", h.stderr.String())
	}
}

// --- Batch/Parallel Tests ---

func TestBatch_ReportsEveryFile(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	good := writeImage(t, dir, "good.png")
	bad := writeImage(t, dir, "bad.png")

	if err := h.run("batch", "--no-progress", good, bad); err != nil {
		t.Fatalf("partial failure must not fail the command: %v", err)
	}

	var outcomes []domain.BatchItemOutcome
	if err := json.Unmarshal(h.stdout.Bytes(), &outcomes); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, h.stdout.String())
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if !outcomes[0].Success || outcomes[0].File != good {
		t.Errorf("unexpected first outcome %+v", outcomes[0])
	}
	if outcomes[1].Success || !strings.Contains(outcomes[1].Error, "cannot read image") {
		t.Errorf("unexpected second outcome %+v", outcomes[1])
	}
	if !strings.Contains(h.stderr.String(), "2 file(s): 1 succeeded, 1 failed") {
		t.Errorf("unexpected summary %q", h.stderr.String())
	}
}

func TestBatch_AbortOnError(t *testing.T) {
	h := newHarness(t)
	h.session.Config = &config.Config{Layer: config.Layer{
		Batch: &config.BatchSection{ContinueOnError: boolPtr(false)},
	}}
	dir := t.TempDir()
	bad := writeImage(t, dir, "bad.png")
	good := writeImage(t, dir, "good.png")

	if err := h.run("batch", "--no-progress", bad, good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var outcomes []domain.BatchItemOutcome
	json.Unmarshal(h.stdout.Bytes(), &outcomes)
	if len(outcomes) != 2 || outcomes[1].Success {
		t.Errorf("expected second file aborted, got %+v", outcomes)
	}
}

func TestBatch_InvalidReportFormat(t *testing.T) {
	h := newHarness(t)
	err := h.run("batch", "--report", "yaml", "a.png")
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestParallel_SavesResultsAndCSV(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "results")
	a := writeImage(t, dir, "a.png")
	b := writeImage(t, dir, "b.png")

	if err := h.run("parallel", "--no-progress", "-w", "2", "--report", "csv", "--output-dir", outDir, a, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(h.stdout.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", h.stdout.String())
	}
	if !strings.Contains(lines[1], "a.png") || !strings.Contains(lines[2], "b.png") {
		t.Errorf("rows out of input order: %q", lines[1:])
	}

	for _, name := range []string{"a.json", "b.json"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected %s saved: %v", name, err)
		}
	}
}

func TestParallel_NegativeWorkers(t *testing.T) {
	h := newHarness(t)
	err := h.run("parallel", "--workers", "-1", "a.png")
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

// --- Config Tests ---

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	h := newHarness(t)
	if err := h.run("config", "init", "--path", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if string(data) != config.DefaultTemplate() {
		t.Error("written config differs from template")
	}

	h = newHarness(t)
	if err := h.run("config", "init", "--path", path); err == nil {
		t.Error("expected error for existing file without --force")
	}

	h = newHarness(t)
	if err := h.run("config", "init", "--path", path, "--force"); err != nil {
		t.Errorf("unexpected error with --force: %v", err)
	}
}

func TestConfigShow(t *testing.T) {
	h := newHarness(t)
	if err := h.run("config", "show"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := h.stdout.String()
	for _, want := range []string{"# source: built-in defaults", "[default]", "[server]", "port = 8000", "continue_on_error = true"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	layer, err := config.Parse([]byte(strings.ReplaceAll(out, "# source: built-in defaults\n", "")), "show")
	if err != nil {
		t.Fatalf("show output is not valid config: %v", err)
	}
	if layer.Default == nil || layer.Default.Output == nil || *layer.Default.Output != "json" {
		t.Errorf("unexpected round-tripped default %+v", layer.Default)
	}
}

func TestConfigProfiles_JSON(t *testing.T) {
	h := newHarness(t)
	layer, err := config.Parse([]byte(config.DefaultTemplate()), "template")
	if err != nil {
		t.Fatalf("parse template: %v", err)
	}
	h.session.Config = &config.Config{Layer: *layer}

	if err := h.run("--json", "config", "profiles"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var profiles map[string]config.Params
	if err := json.Unmarshal(h.stdout.Bytes(), &profiles); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	if len(profiles) != 3 {
		t.Errorf("expected 3 profiles, got %d", len(profiles))
	}
	if profiles["fast"].Detail != domain.DetailText {
		t.Errorf("unexpected fast profile %+v", profiles["fast"])
	}
}

// --- Inspect Tests ---

func TestInspect(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	img := writeImage(t, dir, "scan.png")
	junk := filepath.Join(dir, "notes.png")
	os.WriteFile(junk, []byte("plain text"), 0o644)

	if err := h.run("inspect", img, junk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(h.stdout.String(), "png") || !strings.Contains(h.stdout.String(), "20") {
		t.Errorf("unexpected table %q", h.stdout.String())
	}
	if !strings.Contains(h.stderr.String(), "notes.png") {
		t.Errorf("expected error for junk file, got %q", h.stderr.String())
	}
}

func boolPtr(b bool) *bool { return &b }
