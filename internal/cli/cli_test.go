package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/smartsort/internal/api"
)

type env struct {
	root   string
	config string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "storage")
	cfgFile := filepath.Join(dir, "smartsort.yaml")
	yaml := strings.Join([]string{
		"log_level: error",
		"storage:",
		"  root: " + root,
		"database:",
		"  path: " + filepath.Join(dir, "smartsort.db"),
		"redis:",
		"  addr: 127.0.0.1:1",
		"  in_memory_fallback: true",
		"model:",
		"  provider: none",
		"embedding:",
		"  provider: none",
	}, "\n")
	if err := os.WriteFile(cfgFile, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	newRule = ruleFlags{priority: 100, sizeMin: -1, sizeMax: -1}
	return env{root: root, config: cfgFile}
}

func (e env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--config", e.config}, args...))
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"worker", "ingest", "job", "requeue", "queue", "rules", "mcp"} {
		if !names[want] {
			t.Errorf("missing command %q", want)
		}
	}
}

func TestRulesLifecycle(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "rules", "add", "invoices", "--priority", "5", "--mime-contains", "pdf", "--category", "Invoices", "--tags", "finance,2024")
	if err != nil {
		t.Fatalf("rules add: %v", err)
	}
	if !strings.Contains(out, "Added rule 1 (invoices)") {
		t.Errorf("add output = %q", out)
	}

	out, err = e.run(t, "rules", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "invoices") || !strings.Contains(out, "Invoices") || !strings.Contains(out, "true") {
		t.Errorf("list output = %q", out)
	}

	if _, err := e.run(t, "rules", "disable", "1"); err != nil {
		t.Fatal(err)
	}
	out, _ = e.run(t, "rules", "list")
	if !strings.Contains(out, "false") {
		t.Errorf("rule not disabled: %q", out)
	}

	if _, err := e.run(t, "rules", "disable", "42"); err == nil {
		t.Error("disabling an unknown rule should fail")
	}
}

func TestIngestCommand(t *testing.T) {
	e := newEnv(t)
	inbox := filepath.Join(e.root, "00_inbox")
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inbox, "receipt.txt"), []byte("coffee 3.50"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := e.run(t, "ingest", "00_inbox/receipt.txt")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	var res api.IngestResponse
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not json: %q", out)
	}
	if res.DocumentId == 0 || len(res.JobIds) != 4 || res.IsDuplicate {
		t.Errorf("ingest response = %+v", res)
	}

	if _, err := e.run(t, "ingest", "03_sorted/receipt.txt"); err == nil {
		t.Error("ingest outside the inbox should fail")
	}
}

func TestJobNotFound(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "job", "does-not-exist")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v", err)
	}
}

func TestRuleFlagsBuild(t *testing.T) {
	tests := []struct {
		name    string
		flags   ruleFlags
		ruleArg string
		wantErr bool
	}{
		{"category only", ruleFlags{category: "Bills", sizeMin: -1, sizeMax: -1}, "bills", false},
		{"no action", ruleFlags{mimeType: "application/pdf", sizeMin: -1, sizeMax: -1}, "empty", true},
		{"bad regex", ruleFlags{filenameRegex: "([", category: "X", sizeMin: -1, sizeMax: -1}, "broken", true},
		{"blank name", ruleFlags{category: "X", sizeMin: -1, sizeMax: -1}, "  ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.flags.build(tt.ruleArg)
			if (err != nil) != tt.wantErr {
				t.Errorf("build() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	rule, _ := ruleFlags{category: "Big", sizeMin: 0, sizeMax: 1024}.build("sized")
	if rule.Conditions.FileSizeMin == nil || *rule.Conditions.FileSizeMin != 0 || *rule.Conditions.FileSizeMax != 1024 {
		t.Errorf("size bounds = %+v", rule.Conditions)
	}
}
