package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoaderHasDefault(t *testing.T) {
	loader := NewLoader()

	tmpl := loader.Get(DefaultTemplateName)
	if tmpl == nil {
		t.Fatal("default template not found")
	}
	if !strings.Contains(tmpl.Instructions, "{{USER_DATA}}") {
		t.Error("default template must contain the user data placeholder")
	}
	if !strings.Contains(tmpl.Instructions, "tanggal") {
		t.Error("default template must name the required output keys")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exam-prep.yaml")
	content := `name: exam-prep
description: Exam-focused schedule
instructions: |
  Build an exam preparation schedule.
  {{USER_DATA}}
  Return a JSON array.
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	loader := NewLoader()
	if err := loader.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	tmpl := loader.Get("exam-prep")
	if tmpl == nil {
		t.Fatal("loaded template not found")
	}
	if tmpl.Description != "Exam-focused schedule" {
		t.Errorf("unexpected description %q", tmpl.Description)
	}
}

func TestLoadFromFileMissingPlaceholder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	content := `name: bad
instructions: no placeholder here
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	loader := NewLoader()
	if err := loader.LoadFromFile(path); err == nil {
		t.Fatal("expected error for template without placeholder")
	}
}

func TestLoadFromFileMissingName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anon.yaml")
	content := `instructions: "{{USER_DATA}}"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	loader := NewLoader()
	if err := loader.LoadFromFile(path); err == nil {
		t.Fatal("expected error for unnamed template")
	}
}

func TestLoadFromDirSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()

	good := `name: weekly
description: Weekly planning
instructions: "plan the week {{USER_DATA}}"
`
	bad := `name: broken
instructions: missing the placeholder
`
	if err := os.WriteFile(filepath.Join(dir, "weekly.yaml"), []byte(good), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.yml"), []byte(bad), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	loader := NewLoader()
	if err := loader.LoadFromDir(dir); err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}

	if loader.Get("weekly") == nil {
		t.Error("valid template should load")
	}
	if loader.Get("broken") != nil {
		t.Error("invalid template should be skipped")
	}
	// default + weekly
	if len(loader.List()) != 2 {
		t.Errorf("expected 2 templates, got %d", len(loader.List()))
	}
}

func TestAddTemplate(t *testing.T) {
	loader := NewLoader()
	loader.Add(&Template{Name: "custom", Instructions: "{{USER_DATA}}"})

	if loader.Get("custom") == nil {
		t.Error("added template not found")
	}
}
