package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCollectJSONFilesRecursive(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "a.json"), `{"k":"v"}`)
	mustWriteFile(t, filepath.Join(root, "b.txt"), `x`)
	mustWriteFile(t, filepath.Join(root, ".hidden.json"), `{}`)
	mustWriteFile(t, filepath.Join(root, "nested", "c.json"), `{"k":"v2"}`)

	files, err := collectJSONFiles(root, true)
	if err != nil {
		t.Fatalf("collectJSONFiles failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 json files, got %d (%v)", len(files), files)
	}
}

func TestCollectJSONFilesNonRecursive(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "a.json"), `{"k":"v"}`)
	mustWriteFile(t, filepath.Join(root, "nested", "c.json"), `{"k":"v2"}`)

	files, err := collectJSONFiles(root, false)
	if err != nil {
		t.Fatalf("collectJSONFiles failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 json file, got %d (%v)", len(files), files)
	}
}

func TestRunValidate(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "good.json"),
		`{"title":"A Valid Article","url":"https://example.com/ok","source":"rss"}`)
	mustWriteFile(t, filepath.Join(root, "batch.json"),
		`[{"title":"In A Batch","url":"https://example.com/batch","source":"rss"}]`)

	if code := runValidate([]string{"-dir", root}); code != 0 {
		t.Fatalf("expected exit 0 for valid files, got %d", code)
	}

	mustWriteFile(t, filepath.Join(root, "bad.json"), `{"title":"Missing Fields"}`)
	if code := runValidate([]string{"-dir", root}); code != 1 {
		t.Fatalf("expected exit 1 with an invalid file present, got %d", code)
	}
}

func TestRunValidateEmptyDir(t *testing.T) {
	if code := runValidate([]string{"-dir", t.TempDir()}); code != 1 {
		t.Fatalf("expected exit 1 for directory without json files, got %d", code)
	}
}

func TestRunFilterEndToEnd(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DEDUP_DATA_DIR", dataDir)
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("LOG_LEVEL", "error")

	workDir := t.TempDir()
	input := filepath.Join(workDir, "batch.json")
	output := filepath.Join(workDir, "report.json")
	mustWriteFile(t, input, `[
		{"title":"Breaking: Harbor Expansion Approved","url":"https://example.com/port/expansion","source":"rss"},
		{"title":"HARBOR EXPANSION APPROVED","url":"https://example.com/port/expansion/","source":"rss"}
	]`)

	if code := runFilter([]string{"-input", input, "-output", output}); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	raw, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("expected report output")
	}

	if _, err := os.Stat(filepath.Join(dataDir, "compact_hashes.txt")); err != nil {
		t.Fatalf("expected registry persisted under data dir: %v", err)
	}
}

func TestRunFilterRejectsInvalidInput(t *testing.T) {
	input := filepath.Join(t.TempDir(), "batch.json")
	mustWriteFile(t, input, `{"title":"not an array"}`)

	if code := runFilter([]string{"-input", input}); code != 1 {
		t.Fatalf("expected exit 1 for invalid input, got %d", code)
	}
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}
