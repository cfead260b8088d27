package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry_DerivesNameLower(t *testing.T) {
	t.Parallel()

	e := NewEntry("ReadMe.MD", Extension("ReadMe.MD"), false, nil, nil)
	assert.Equal(t, "readme.md", e.NameLower)
	require.NotNil(t, e.Extension)
	assert.Equal(t, "MD", *e.Extension)

	e.SetName("CHANGELOG")
	assert.Equal(t, "CHANGELOG", e.Name)
	assert.Equal(t, "changelog", e.NameLower)
}

func TestExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"main.go", "go", true},
		{"archive.tar.gz", "gz", true},
		{"Makefile", "", false},
		{".bashrc", "", false},
		{".config.yml", "yml", true},
		{"trailing.", "", true},
		{"a..", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extension(tt.name)
			if !tt.wantOK {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestEntryFromFileInfo(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("hello"), 0644))

	info, err := os.Stat(file)
	require.NoError(t, err)
	e := EntryFromFileInfo("notes.txt", info)

	assert.False(t, e.IsDir)
	require.NotNil(t, e.Size)
	assert.Equal(t, uint64(5), *e.Size)
	require.NotNil(t, e.Extension)
	assert.Equal(t, "txt", *e.Extension)
	require.NotNil(t, e.Modified)
	assert.Equal(t, info.ModTime().Unix(), *e.Modified)

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	d := EntryFromFileInfo(filepath.Base(dir), dirInfo)
	assert.True(t, d.IsDir)
	assert.Nil(t, d.Size)
	assert.Nil(t, d.Extension)
}

func TestEntryFromFileInfo_Symlink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	info, err := os.Lstat(link)
	require.NoError(t, err)
	e := EntryFromFileInfo("link.txt", info)

	assert.False(t, e.IsDir)
	assert.Nil(t, e.Size)
	assert.Nil(t, e.Extension)
}
