package outputs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Quarterly Report", "quarterly-report"},
		{"Q3 Financials.xlsx", "q3-financials"},
		{"  Résumé -- Élodie  ", "resume-elodie"},
		{"/tmp/My_Deck (final).pptx", "my-deck-final"},
		{"already-a-slug", "already-a-slug"},
		{"Straße & Co.", "stra-e-co"},
		{"日本語", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), "Slug(%q)", tt.in)
	}
}

func TestIsSlug(t *testing.T) {
	assert.True(t, IsSlug("sales-2024"))
	assert.False(t, IsSlug("Sales-2024"))
	assert.False(t, IsSlug("sales--2024"))
	assert.False(t, IsSlug("sales_2024"))
	assert.False(t, IsSlug(""))
}

func TestDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "outputs")

	dir, err := Dir(root, "Board Deck.pptx")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "board-deck"), dir)
	assert.DirExists(t, dir)

	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "*\n")

	_, err = Dir(root, "???")
	assert.True(t, errors.Is(err, ErrEmptyName))
}

func TestDirNonLatinName(t *testing.T) {
	root := filepath.Join(t.TempDir(), "outputs")

	dir, err := Dir(root, "/tmp/报告.pdf")
	require.NoError(t, err)
	name := filepath.Base(dir)
	assert.Regexp(t, `^document-[0-9a-f]{8}$`, name)
	assert.True(t, IsSlug(name))
	assert.DirExists(t, dir)

	again, err := Dir(root, "报告.xlsx")
	require.NoError(t, err)
	assert.Equal(t, dir, again, "same name maps to the same folder")

	other, err := Dir(root, "日本語.pptx")
	require.NoError(t, err)
	assert.NotEqual(t, dir, other)
}

func TestFolderName(t *testing.T) {
	assert.Equal(t, "board-deck", FolderName("Board Deck.pptx"))
	assert.Equal(t, "", FolderName("---"))
	assert.Equal(t, "", FolderName(""))
	assert.Equal(t, FolderName("отчёт.docx"), FolderName("/a/b/отчёт.pdf"))
}

func TestEnsureRootKeepsExistingGitignore(t *testing.T) {
	root := t.TempDir()
	custom := []byte("*.jpg\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), custom, 0o644))

	require.NoError(t, EnsureRoot(root))

	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, custom, data)
}

func TestManifest(t *testing.T) {
	dir := t.TempDir()

	m := NewManifest("thumbnail", "deck.pptx")
	_, err := uuid.Parse(m.RunID)
	require.NoError(t, err)

	m.Add(dir, filepath.Join(dir, "thumbnails.jpg"), "/elsewhere/file.txt")
	require.NoError(t, m.Save(dir))

	loaded, err := LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, m.RunID, loaded.RunID)
	assert.Equal(t, "thumbnail", loaded.Tool)
	assert.Equal(t, []string{"deck.pptx"}, loaded.Inputs)
	assert.Equal(t, []string{"thumbnails.jpg", "/elsewhere/file.txt"}, loaded.Files)
	assert.True(t, m.Created.Equal(loaded.Created))
}
