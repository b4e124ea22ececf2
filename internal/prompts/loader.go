// Package prompts provides the agent instruction templates.
// Templates live in agents.json and are embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// AgentsFile holds every agent prompt.
const AgentsFile = "agents.json"

// Prompt keys in AgentsFile.
const (
	ParseResume     = "parse-resume"
	AnalyzeStrategy = "analyze-strategy"
	InterviewStart  = "interview-start"
	EvaluateAnswer  = "evaluate-answer"
)

var placeholderPattern = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

// cache stores parsed prompt files to avoid repeated JSON parsing
var (
	cache   = make(map[string]map[string]string)
	cacheMu sync.RWMutex
)

// Get retrieves an agent prompt by key.
func Get(key string) (string, error) {
	return GetFrom(AgentsFile, key)
}

// GetFrom retrieves a prompt by filename and key.
func GetFrom(filename, key string) (string, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return "", err
	}

	prompt, exists := prompts[key]
	if !exists {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}

	return prompt, nil
}

// Render loads an agent prompt and fills its {{.Key}} placeholders.
// Every placeholder must have a value in data.
func Render(key string, data map[string]string) (string, error) {
	template, err := Get(key)
	if err != nil {
		return "", err
	}

	if missing := Missing(template, data); len(missing) > 0 {
		return "", fmt.Errorf("prompt %q is missing values for %s", key, strings.Join(missing, ", "))
	}
	return Format(template, data), nil
}

// Format replaces template placeholders in the form {{.Key}} with values from data.
func Format(template string, data map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		name := placeholderPattern.FindStringSubmatch(m)[1]
		if v, ok := data[name]; ok {
			return v
		}
		return m
	})
}

// Missing lists placeholders in template that have no value in data, sorted.
func Missing(template string, data map[string]string) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		name := m[1]
		if _, ok := data[name]; ok || seen[name] {
			continue
		}
		seen[name] = true
		missing = append(missing, name)
	}
	sort.Strings(missing)
	return missing
}

// loadFile loads and caches a prompt file.
func loadFile(filename string) (map[string]string, error) {
	cacheMu.RLock()
	if prompts, exists := cache[filename]; exists {
		cacheMu.RUnlock()
		return prompts, nil
	}
	cacheMu.RUnlock()

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	var prompts map[string]string
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	cacheMu.Lock()
	cache[filename] = prompts
	cacheMu.Unlock()

	return prompts, nil
}

// ClearCache clears the prompt cache. Useful for testing.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string]map[string]string)
	cacheMu.Unlock()
}

// List returns the prompt keys of a file, sorted.
func List(filename string) ([]string, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(prompts))
	for key := range prompts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
