// Package prompts holds the LLM prompt templates. Each embedded JSON file maps a key to a
// template using {{.Name}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// Catalog is a parsed set of prompt files keyed by file name.
type Catalog struct {
	files map[string]map[string]string
}

// Load parses every *.json file at the root of fsys.
func Load(fsys fs.FS) (*Catalog, error) {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}
	c := &Catalog{files: make(map[string]map[string]string, len(names))}
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", name, err)
		}
		var templates map[string]string
		if err := json.Unmarshal(raw, &templates); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", name, err)
		}
		c.files[path.Base(name)] = templates
	}
	return c, nil
}

// Get returns the template stored under key in file.
func (c *Catalog) Get(file, key string) (string, error) {
	templates, ok := c.files[file]
	if !ok {
		return "", fmt.Errorf("unknown prompt file %s", file)
	}
	tmpl, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, file)
	}
	return tmpl, nil
}

// Keys lists the template keys of file, sorted.
func (c *Catalog) Keys(file string) ([]string, error) {
	templates, ok := c.files[file]
	if !ok {
		return nil, fmt.Errorf("unknown prompt file %s", file)
	}
	keys := make([]string, 0, len(templates))
	for key := range templates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

var embedded = sync.OnceValues(func() (*Catalog, error) {
	return Load(promptFiles)
})

// Get retrieves an embedded prompt by file name and key (e.g. "script.json", "system").
func Get(file, key string) (string, error) {
	c, err := embedded()
	if err != nil {
		return "", err
	}
	return c.Get(file, key)
}

// MustGet is Get for prompts required at initialization time. It panics on a miss.
func MustGet(file, key string) string {
	tmpl, err := Get(file, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return tmpl
}

// List returns the embedded prompt keys in file, sorted.
func List(file string) ([]string, error) {
	c, err := embedded()
	if err != nil {
		return nil, err
	}
	return c.Keys(file)
}

var placeholder = regexp.MustCompile(`\{\{\.([A-Za-z][A-Za-z0-9_]*)\}\}`)

// Placeholders returns the distinct placeholder names used by tmpl, in order of appearance.
func Placeholders(tmpl string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Format replaces {{.Key}} placeholders with values from data in a single pass,
// so substituted values are never themselves expanded. Unknown placeholders stay as-is.
func Format(tmpl string, data map[string]string) string {
	if len(data) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Render loads an embedded prompt and formats it with data.
func Render(file, key string, data map[string]string) (string, error) {
	tmpl, err := Get(file, key)
	if err != nil {
		return "", err
	}
	return Format(tmpl, data), nil
}
