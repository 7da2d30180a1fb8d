// Package outputs manages the folder generated files are written to:
// one lowercase, hyphenated folder per source document under a root that
// is kept out of version control.
package outputs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultRoot is the output root relative to the working directory.
const DefaultRoot = "outputs"

// ManifestFile is the name of the manifest in each document folder.
const ManifestFile = "manifest.json"

const gitignore = "# Generated by officekit. Output is not version controlled.\n*\n"

// ErrEmptyName is returned when a document name has no usable characters.
var ErrEmptyName = errors.New("outputs: document name has no letters or digits")

// Slug folds name to lowercase ASCII letters and digits separated by
// single hyphens. Diacritics are removed; every other character acts as
// a separator. A file extension is dropped.
func Slug(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var sb strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r)
			pendingSep = false
			continue
		}
		pendingSep = true
	}
	return sb.String()
}

// FolderName returns the folder name for document: its slug, or for a
// name with letters or digits but none in ASCII (e.g. "报告.pdf"),
// "document-" and a short hash of the name, so the same document always
// maps to the same folder. It is empty when the name has neither.
func FolderName(document string) string {
	if slug := Slug(document); slug != "" {
		return slug
	}
	base := strings.TrimSuffix(filepath.Base(document), filepath.Ext(document))
	if !strings.ContainsFunc(base, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) {
		return ""
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(base))
	return "document-" + strings.ReplaceAll(id.String(), "-", "")[:8]
}

// IsSlug reports whether s is already a valid folder name: non-empty,
// lowercase and hyphenated.
func IsSlug(s string) bool {
	return s != "" && Slug(s) == s
}

// EnsureRoot creates root and a .gitignore inside it that ignores all
// generated output. An existing .gitignore is left alone.
func EnsureRoot(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("creating output root: %w", err)
	}
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Dir returns root/<FolderName of document>, creating it and the root's
// .gitignore on demand.
func Dir(root, document string) (string, error) {
	slug := FolderName(document)
	if slug == "" {
		return "", fmt.Errorf("%w: %q", ErrEmptyName, document)
	}
	if err := EnsureRoot(root); err != nil {
		return "", err
	}
	dir := filepath.Join(root, slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return dir, nil
}

// Manifest records one workflow run and the files it produced.
type Manifest struct {
	RunID   string    `json:"run_id"`
	Tool    string    `json:"tool"`
	Inputs  []string  `json:"inputs"`
	Files   []string  `json:"files"`
	Created time.Time `json:"created"`
}

// NewManifest starts a manifest for a run of tool over inputs.
func NewManifest(tool string, inputs ...string) *Manifest {
	return &Manifest{
		RunID:   uuid.NewString(),
		Tool:    tool,
		Inputs:  inputs,
		Files:   []string{},
		Created: time.Now().UTC(),
	}
}

// Add records produced files, stored relative to dir when possible.
func (m *Manifest) Add(dir string, files ...string) {
	for _, f := range files {
		if rel, err := filepath.Rel(dir, f); err == nil && !strings.HasPrefix(rel, "..") {
			f = filepath.ToSlash(rel)
		}
		m.Files = append(m.Files, f)
	}
}

// Save writes the manifest as dir/manifest.json.
func (m *Manifest) Save(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// LoadManifest reads dir/manifest.json.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
