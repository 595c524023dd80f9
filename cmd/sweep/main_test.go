package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/sweep/internal/testutil"
)

// setup writes the sample index and a config whose cache lives in a temp dir.
func setup(t *testing.T) (index, cfg, dir string) {
	t.Helper()
	dir = t.TempDir()
	index = filepath.Join(dir, "index.json")
	testutil.WriteFile(t, index, testutil.AppIndex)

	cfg = filepath.Join(dir, "sweep.toml")
	testutil.WriteFile(t, cfg, `
[cache]
enabled = true
dir = "`+filepath.ToSlash(filepath.Join(dir, "cache"))+`"
ttl = 24

[output]
format = "text"
color = false
`)
	return index, cfg, dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	app.ErrWriter = &buf
	err := app.Run(append([]string{"sweep"}, args...))
	return buf.String(), err
}

func readRecords(t *testing.T, path string) []map[string]any {
	t.Helper()
	var records []map[string]any
	if err := json.Unmarshal([]byte(testutil.ReadFile(t, path)), &records); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	return records
}

func hints(records []map[string]any) []string {
	var out []string
	for _, r := range records {
		out = append(out, r["location"].(string)+" "+r["hints"].([]any)[0].(string))
	}
	return out
}

func TestScan_JSON(t *testing.T) {
	index, cfg, dir := setup(t)
	out := filepath.Join(dir, "out.json")

	if _, err := run(t, "-c", cfg, "-f", "json", "-o", out, "scan", "--quiet", index); err != nil {
		t.Fatalf("scan error = %v", err)
	}

	got := hints(readRecords(t, out))
	if strings.Join(got, "\n") != strings.Join(testutil.AppResults, "\n") {
		t.Errorf("scan results = %v, want %v", got, testutil.AppResults)
	}
}

func TestScan_CSV(t *testing.T) {
	index, cfg, dir := setup(t)
	out := filepath.Join(dir, "out.csv")

	if _, err := run(t, "-c", cfg, "-f", "csv", "-o", out, "scan", "--quiet", index); err != nil {
		t.Fatalf("scan error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(testutil.ReadFile(t, out)), "\n")
	if lines[0] != "Kind,Name,Modifiers,Attributes,Accessibility,IDs,Location,Hints" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != len(testutil.AppResults)+1 {
		t.Errorf("got %d lines, want %d", len(lines), len(testutil.AppResults)+1)
	}
}

func TestScan_Flags(t *testing.T) {
	index, cfg, dir := setup(t)
	out := filepath.Join(dir, "out.json")

	_, err := run(t, "-c", cfg, "-f", "json", "-o", out, "scan", "--quiet",
		"--disable", "unused-imports", "--retain-names", "dea*", index)
	if err != nil {
		t.Fatalf("scan error = %v", err)
	}

	for _, line := range hints(readRecords(t, out)) {
		if strings.HasSuffix(line, "unusedImport") || strings.Contains(line, ":7:6 ") {
			t.Errorf("unexpected result %q", line)
		}
	}

	if _, err := run(t, "-c", cfg, "scan", "--disable", "everything", index); err == nil {
		t.Error("unknown pass should fail")
	}
}

func TestScan_Strict(t *testing.T) {
	index, cfg, dir := setup(t)

	_, err := run(t, "-c", cfg, "-o", filepath.Join(dir, "out.txt"), "scan", "--quiet", "--strict", index)
	var coder cli.ExitCoder
	if !errors.As(err, &coder) || coder.ExitCode() != 1 {
		t.Errorf("strict scan error = %v, want exit code 1", err)
	}
	if exitCode(err) != 1 {
		t.Errorf("exitCode() = %d, want 1", exitCode(err))
	}
}

func TestScan_WritesCache(t *testing.T) {
	index, cfg, dir := setup(t)
	out := filepath.Join(dir, "out.json")

	for range 2 {
		if _, err := run(t, "-c", cfg, "-f", "json", "-o", out, "scan", "--quiet", index); err != nil {
			t.Fatalf("scan error = %v", err)
		}
	}
	entries, err := os.ReadDir(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("cache dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("cache entries = %d, want 1", len(entries))
	}
	if got := hints(readRecords(t, out)); len(got) != len(testutil.AppResults) {
		t.Errorf("cached results = %v", got)
	}

	if _, err := run(t, "-c", cfg, "cache", "clear"); err != nil {
		t.Fatalf("cache clear error = %v", err)
	}
	if testutil.FileExists(filepath.Join(dir, "cache")) {
		t.Error("cache clear should remove the cache directory")
	}
}

func TestCacheClear_Index(t *testing.T) {
	index, cfg, dir := setup(t)

	if _, err := run(t, "-c", cfg, "-o", filepath.Join(dir, "out.txt"), "scan", "--quiet", index); err != nil {
		t.Fatalf("scan error = %v", err)
	}
	if _, err := run(t, "-c", cfg, "-o", filepath.Join(dir, "clear.txt"), "cache", "clear", index); err != nil {
		t.Fatalf("cache clear error = %v", err)
	}
	if !strings.Contains(testutil.ReadFile(t, filepath.Join(dir, "clear.txt")), "Cleared cached results for "+index) {
		t.Errorf("output = %s", testutil.ReadFile(t, filepath.Join(dir, "clear.txt")))
	}
	entries, err := os.ReadDir(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("cache dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("cache entries after clearing the index = %d, want 0", len(entries))
	}
}

func TestScan_MissingIndex(t *testing.T) {
	_, cfg, dir := setup(t)
	if _, err := run(t, "-c", cfg, "scan", "--quiet", filepath.Join(dir, "missing.json")); err == nil {
		t.Error("scan of a missing index should fail")
	}
	if _, err := run(t, "-c", cfg, "scan"); err == nil {
		t.Error("scan without an index should fail")
	}
}

func TestExplain_JSON(t *testing.T) {
	index, cfg, dir := setup(t)
	out := filepath.Join(dir, "explain.json")

	if _, err := run(t, "-c", cfg, "-f", "json", "-o", out, "explain", index, "s:Marker"); err != nil {
		t.Fatalf("explain error = %v", err)
	}

	var got explanation
	if err := json.Unmarshal([]byte(testutil.ReadFile(t, out)), &got); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if !got.Retained || len(got.Path) != 3 {
		t.Fatalf("explain = %+v", got)
	}
	for i, want := range []string{"main", "Model", "Marker"} {
		if got.Path[i].Name != want {
			t.Errorf("path[%d] = %s, want %s", i, got.Path[i].Name, want)
		}
	}
}

func TestExplain_NotRetained(t *testing.T) {
	index, cfg, dir := setup(t)
	out := filepath.Join(dir, "explain.json")

	if _, err := run(t, "-c", cfg, "-f", "json", "-o", out, "explain", index, "s:dead"); err != nil {
		t.Fatalf("explain error = %v", err)
	}
	if !strings.Contains(testutil.ReadFile(t, out), `"retained": false`) {
		t.Errorf("output = %s", testutil.ReadFile(t, out))
	}

	if _, err := run(t, "-c", cfg, "explain", index, "s:unknown"); err == nil {
		t.Error("explain of an unknown USR should fail")
	}
}

func TestCheck(t *testing.T) {
	index, cfg, dir := setup(t)
	out := filepath.Join(dir, "check.json")

	if _, err := run(t, "-c", cfg, "-f", "json", "-o", out, "check", index); err != nil {
		t.Fatalf("check error = %v", err)
	}
	if !strings.Contains(testutil.ReadFile(t, out), `"declarations": 5`) {
		t.Errorf("output = %s", testutil.ReadFile(t, out))
	}

	bad := filepath.Join(dir, "bad.json")
	testutil.WriteFile(t, bad, `{"files": [{"modules": []}]}`)
	_, err := run(t, "-c", cfg, "-o", filepath.Join(dir, "check.txt"), "check", index, bad)
	if exitCode(err) != 1 {
		t.Errorf("check of an invalid index error = %v", err)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sweep.toml")

	if _, err := run(t, "config", "init", "--path", path); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	content := testutil.ReadFile(t, path)
	for _, section := range []string{"[retention]", "[analysis]", "[report]", "[cache]", "[output]"} {
		if !strings.Contains(content, section) {
			t.Errorf("generated config missing %s", section)
		}
	}

	if _, err := run(t, "config", "init", "--path", path); err == nil {
		t.Error("config init should refuse to overwrite")
	}
	if _, err := run(t, "config", "init", "--path", path, "--force"); err != nil {
		t.Errorf("config init --force error = %v", err)
	}
	if _, err := run(t, "-c", path, "config", "validate"); err != nil {
		t.Errorf("generated config should validate: %v", err)
	}
}

func TestConfigShow(t *testing.T) {
	_, cfg, _ := setup(t)

	out, err := run(t, "-c", cfg, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out, "# Configuration from: "+cfg) {
		t.Errorf("output missing source: %s", out)
	}
	if !strings.Contains(out, "[retention]") {
		t.Errorf("output missing retention section: %s", out)
	}
}

func TestConfigValidate_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.toml")
	testutil.WriteFile(t, path, "[output]\nformat = \"yaml\"\n")

	if _, err := run(t, "-c", path, "config", "validate"); err == nil {
		t.Error("invalid output.format should fail validation")
	}
}

func TestMCPManifest(t *testing.T) {
	out, err := run(t, "mcp", "manifest")
	if err != nil {
		t.Fatalf("mcp manifest error = %v", err)
	}
	if !strings.Contains(out, `"name": "io.github.panbanda/sweep"`) {
		t.Errorf("manifest = %s", out)
	}
}

func TestExitCode(t *testing.T) {
	if got := exitCode(errors.New("boom")); got != 1 {
		t.Errorf("exitCode(plain) = %d, want 1", got)
	}
	if got := exitCode(cli.Exit("usage", 2)); got != 2 {
		t.Errorf("exitCode(cli.Exit) = %d, want 2", got)
	}
}
