package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"stemsplit/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed || result.Detail == "" {
		t.Fatalf("expected failure with detail, got %+v", result)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckOutputDirectory(t *testing.T) {
	base := t.TempDir()
	if r := CheckOutputDirectory(base); !r.Passed {
		t.Fatalf("expected existing dir to pass, got %s", r.Detail)
	}
	if r := CheckOutputDirectory(filepath.Join(base, "a", "b")); !r.Passed {
		t.Fatalf("expected creatable dir to pass, got %s", r.Detail)
	}

	file := filepath.Join(base, "song.mp3")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckOutputDirectory(filepath.Join(file, "stems")); r.Passed {
		t.Fatal("expected failure when an ancestor is a file")
	}
}

func TestCheckNtfy(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	if r := CheckNtfy(context.Background(), ok.URL+"/stems"); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	if r := CheckNtfy(context.Background(), broken.URL); r.Passed {
		t.Fatal("expected failure for 502")
	}
	if r := CheckNtfy(context.Background(), ""); r.Passed {
		t.Fatal("expected failure for blank topic")
	}
}

func TestRunAll(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "demucs")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Demucs.Binary = stub
	cfg.Demucs.PythonBinary = filepath.Join(binDir, "missing-python")

	results := RunAll(context.Background(), &cfg, filepath.Join(t.TempDir(), "out"))
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected all checks to pass, got %+v", failed)
	}
	names := map[string]bool{}
	for _, r := range results {
		names[r.Name] = true
	}
	if !names["State directory"] || !names["Output directory"] || !names["Demucs"] {
		t.Fatalf("unexpected result set %+v", results)
	}
	if names["Python"] {
		t.Fatal("optional missing tools should be omitted")
	}
	if RunAll(context.Background(), nil, "") != nil {
		t.Fatal("expected nil for nil config")
	}
}
