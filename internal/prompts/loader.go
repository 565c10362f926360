package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"log/slog"

	"gopkg.in/yaml.v3"
)

// DefaultTemplateName is the built-in template every loader carries
const DefaultTemplateName = "default"

// Template is a named generation instruction template. Instructions must
// contain the {{USER_DATA}} placeholder where the compiled document is
// embedded.
type Template struct {
	Name         string `yaml:"name" json:"name"`
	Description  string `yaml:"description" json:"description"`
	Instructions string `yaml:"instructions" json:"-"`
}

// Loader manages loading and caching of prompt templates
type Loader struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewLoader creates a loader with the built-in default template
func NewLoader() *Loader {
	l := &Loader{
		templates: make(map[string]*Template),
	}
	l.templates[DefaultTemplateName] = &Template{
		Name:         DefaultTemplateName,
		Description:  "Built-in independent study schedule template",
		Instructions: defaultInstructions,
	}
	return l
}

// LoadFromDir loads all YAML templates from a directory
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading prompt templates from directory", "dir", dir)

	patterns := []string{"*.yaml", "*.yml"}
	var files []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load prompt template", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("prompt templates loaded", "count", loaded, "total_files", len(files))
	return nil
}

// LoadFromFile loads a single template from a YAML file
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	if tmpl.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if tmpl.Instructions == "" {
		return fmt.Errorf("template instructions are required")
	}
	if !strings.Contains(tmpl.Instructions, "{{USER_DATA}}") {
		return fmt.Errorf("template instructions must contain the {{USER_DATA}} placeholder")
	}

	l.mu.Lock()
	l.templates[tmpl.Name] = &tmpl
	l.mu.Unlock()

	slog.Info("prompt template loaded", "name", tmpl.Name)
	return nil
}

// Get retrieves a template by name
func (l *Loader) Get(name string) *Template {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.templates[name]
}

// List returns all loaded templates
func (l *Loader) List() []*Template {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*Template, 0, len(l.templates))
	for _, tmpl := range l.templates {
		result = append(result, tmpl)
	}
	return result
}

// Add programmatically adds a template
func (l *Loader) Add(tmpl *Template) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.templates[tmpl.Name] = tmpl
}
