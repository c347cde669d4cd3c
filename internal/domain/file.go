package domain

import (
	"math"
	"time"
)

// FileType represents the type of a filesystem entry
type FileType int

const (
	FileTypeRegular FileType = iota
	FileTypeDirectory
)

// String returns a short label for the type
func (t FileType) String() string {
	if t == FileTypeDirectory {
		return "dir"
	}
	return "file"
}

// MarshalText renders the type as its label in JSON output
func (t FileType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// FileInfo is the metadata an adapter reports for a single path
type FileInfo struct {
	// Path is the full path as passed to the adapter, joined with the entry name
	Path string

	// Name is the final path element
	Name string

	// Type indicates if this is a file or a directory
	Type FileType

	// Size in bytes (0 for directories)
	Size int64

	// ModTime is the last modification time
	ModTime time.Time
}

// IsDir returns true if this is a directory
func (f FileInfo) IsDir() bool {
	return f.Type == FileTypeDirectory
}

// IsFile returns true if this is a regular file
func (f FileInfo) IsFile() bool {
	return f.Type == FileTypeRegular
}

// Entry is one node of a directory listing. Files are leaves and carry a
// size; directories carry Children only when the listing was recursive.
type Entry struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Type     FileType  `json:"type"`
	Size     *int64    `json:"size,omitempty"`
	ModTime  time.Time `json:"modified_time"`
	Children []Entry   `json:"children,omitempty"`
}

// NewEntry builds an Entry from adapter metadata. Children are left nil.
func NewEntry(info FileInfo) Entry {
	e := Entry{
		Path:    info.Path,
		Name:    info.Name,
		Type:    info.Type,
		ModTime: info.ModTime,
	}
	if info.IsFile() {
		size := info.Size
		e.Size = &size
	}
	return e
}

// Info converts the entry back into adapter metadata, dropping Children
func (e Entry) Info() FileInfo {
	info := FileInfo{
		Path:    e.Path,
		Name:    e.Name,
		Type:    e.Type,
		ModTime: e.ModTime,
	}
	if e.Size != nil {
		info.Size = *e.Size
	}
	return info
}

// IsDir returns true if this entry is a directory
func (e Entry) IsDir() bool {
	return e.Type == FileTypeDirectory
}

// IsFile returns true if this entry is a regular file
func (e Entry) IsFile() bool {
	return e.Type == FileTypeRegular
}

// SizeKB returns the size in KiB rounded to two decimals, 0 for directories
func (e Entry) SizeKB() float64 {
	if e.Size == nil {
		return 0
	}
	return round2(float64(*e.Size) / 1024)
}

// SizeMB returns the size in MiB rounded to two decimals, 0 for directories
func (e Entry) SizeMB() float64 {
	if e.Size == nil {
		return 0
	}
	return round2(float64(*e.Size) / 1024 / 1024)
}

// Walk visits e and then its descendants depth-first, parents before children.
// Returning false from fn stops the walk.
func (e Entry) Walk(fn func(Entry) bool) bool {
	if !fn(e) {
		return false
	}
	for _, child := range e.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Part is one chunk file produced by a split
type Part struct {
	// Index is the zero-based position of the chunk in the original file
	Index int

	// Path of the part file, named <original>.part<Index>
	Path string

	// Size is the number of bytes in this part
	Size int64
}
