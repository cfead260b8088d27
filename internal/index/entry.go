package index

import (
	"io/fs"
	"strings"
)

// Entry is the metadata record stored for one filesystem path.
// NameLower must always equal strings.ToLower(Name); use NewEntry or SetName
// rather than assigning Name directly.
type Entry struct {
	Name      string  `json:"name"`
	NameLower string  `json:"name_lower"`
	Extension *string `json:"extension"` // files only
	IsDir     bool    `json:"is_dir"`
	Modified  *int64  `json:"modified"` // epoch seconds, nil if metadata unavailable
	Size      *uint64 `json:"size"`     // files only
}

// NewEntry builds an Entry with NameLower derived from name.
func NewEntry(name string, extension *string, isDir bool, modified *int64, size *uint64) Entry {
	return Entry{
		Name:      name,
		NameLower: strings.ToLower(name),
		Extension: extension,
		IsDir:     isDir,
		Modified:  modified,
		Size:      size,
	}
}

// SetName replaces the display name and recomputes NameLower.
func (e *Entry) SetName(name string) {
	e.Name = name
	e.NameLower = strings.ToLower(name)
}

// EntryFromFileInfo derives an Entry from file metadata. Extension and size are
// only populated for regular files; symlinks and devices carry neither.
func EntryFromFileInfo(name string, info fs.FileInfo) Entry {
	var (
		ext      *string
		size     *uint64
		modified *int64
	)

	if info.Mode().IsRegular() {
		ext = Extension(name)
		n := uint64(info.Size())
		size = &n
	}

	if mt := info.ModTime(); !mt.IsZero() {
		secs := mt.Unix()
		modified = &secs
	}

	return NewEntry(name, ext, info.IsDir(), modified, size)
}

// Extension returns the suffix after the last '.' in name, or nil when the name
// has no extension ("Makefile", ".bashrc"). A trailing dot yields an empty
// extension.
func Extension(name string) *string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return nil
	}
	ext := name[i+1:]
	return &ext
}

// Item pairs an absolute path with its entry for batch insertion.
type Item struct {
	Path  string
	Entry Entry
}

// Status is the lifecycle state of the index.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusScanning Status = "scanning"
	StatusWatching Status = "watching"
	StatusError    Status = "error"
)

// Progress is the payload of status and progress notifications.
type Progress struct {
	Status       Status  `json:"status"`
	IndexedCount int     `json:"indexed_count"`
	CurrentPath  *string `json:"current_path"`
}

// Result is a single search hit.
type Result struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	Extension *string `json:"extension"`
	Size      *uint64 `json:"size"`
	Modified  *int64  `json:"modified"`
	IsDir     bool    `json:"is_dir"`
	IsHidden  bool    `json:"is_hidden"`
	IsSymlink bool    `json:"is_symlink"`
}

func newResult(path string, e Entry) Result {
	return Result{
		Name:      e.Name,
		Path:      path,
		Extension: e.Extension,
		Size:      e.Size,
		Modified:  e.Modified,
		IsDir:     e.IsDir,
		IsHidden:  strings.HasPrefix(e.Name, "."),
	}
}
