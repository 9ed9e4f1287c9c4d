package jsonfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type doc struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	want := doc{Name: "a", Items: []string{"x", "y"}}

	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	var got doc
	ok, err := Load(path, &got)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatal("expected file to exist")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveReplacesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	for _, name := range []string{"first", "second"} {
		if err := Save(path, doc{Name: name}); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if diff := cmp.Diff([]string{"state.json"}, names); diff != "" {
		t.Errorf("directory contents mismatch (-want +got):\n%s", diff)
	}

	var got doc
	if _, err := Load(path, &got); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Name != "second" {
		t.Errorf("Name = %q, want second", got.Name)
	}
}

func TestSaveFailureKeepsPreviousContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := Save(path, doc{Name: "good"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := Save(path, map[string]any{"bad": make(chan int)}); err == nil {
		t.Fatal("expected encode error")
	}

	var got doc
	if _, err := Load(path, &got); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Name != "good" {
		t.Errorf("Name = %q, want good", got.Name)
	}
}

func TestLoadMissing(t *testing.T) {
	var got doc
	ok, err := Load(filepath.Join(t.TempDir(), "absent.json"), &got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing file")
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	var got doc
	if _, err := Load(path, &got); err == nil {
		t.Fatal("expected decode error")
	}
}
