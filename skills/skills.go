// Package skills embeds the skill documents that teach a coding agent to
// work with DOCX, PDF, PPTX and XLSX files, and checks them for
// consistency.
//
// Each skill is a docs/<name>/SKILL.md file with YAML frontmatter:
//
//	---
//	name: xlsx
//	description: Create, inspect and recalculate Excel workbooks.
//	---
//
//	# Excel workbooks
//	...
package skills

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed docs
var docsFS embed.FS

const docsRoot = "docs"

// ErrNotFound is returned by Get for an unknown skill.
var ErrNotFound = errors.New("skills: not found")

// Skill is one loaded skill document.
type Skill struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Path         string `json:"path"`                   // Path inside the embedded tree, e.g. xlsx/SKILL.md
	Instructions string `json:"instructions,omitempty"` // Markdown after the frontmatter
}

// frontmatter is the YAML header of a SKILL.md file.
type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Parse splits a SKILL.md document into frontmatter and instructions.
func Parse(data []byte) (*Skill, error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return nil, fmt.Errorf("missing frontmatter")
	}
	rest := data[len("---\n"):]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end < 0 {
		return nil, fmt.Errorf("unterminated frontmatter")
	}

	var fm frontmatter
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	if fm.Name == "" {
		return nil, fmt.Errorf("frontmatter has no name")
	}
	if fm.Description == "" {
		return nil, fmt.Errorf("skill %s has no description", fm.Name)
	}
	return &Skill{
		Name:         fm.Name,
		Description:  fm.Description,
		Instructions: strings.TrimSpace(string(rest[end+len("\n---\n"):])),
	}, nil
}

// Load reads every embedded skill, sorted by name.
func Load() ([]*Skill, error) {
	return load(docsFS, docsRoot)
}

func load(fsys fs.FS, root string) ([]*Skill, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, err
	}

	var out []*Skill
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		rel := path.Join(e.Name(), "SKILL.md")
		data, err := fs.ReadFile(fsys, path.Join(root, rel))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		s, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rel, err)
		}
		s.Path = rel
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// List returns the embedded skills without their instructions.
func List() ([]*Skill, error) {
	all, err := Load()
	if err != nil {
		return nil, err
	}
	for _, s := range all {
		s.Instructions = ""
	}
	return all, nil
}

// Get returns the named skill.
func Get(name string) (*Skill, error) {
	all, err := Load()
	if err != nil {
		return nil, err
	}
	for _, s := range all {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// README returns an embedded README variant: "" for English, or a
// language tag such as "zh-CN".
func README(lang string) ([]byte, error) {
	name := "README.md"
	if lang != "" {
		name = "README." + lang + ".md"
	}
	return docsFS.ReadFile(path.Join(docsRoot, name))
}

// Raw returns an embedded document by its path relative to the skills
// root, e.g. "pdf/SKILL.md".
func Raw(name string) ([]byte, error) {
	return docsFS.ReadFile(path.Join(docsRoot, name))
}
