package diff

import (
	"errors"
	"testing"
	"time"

	"github.com/Ning0612/fstools/internal/domain"
)

func file(size int64, mtime time.Time) *domain.FileInfo {
	return &domain.FileInfo{
		Path:    "test.txt",
		Name:    "test.txt",
		Type:    domain.FileTypeRegular,
		Size:    size,
		ModTime: mtime,
	}
}

func TestNewerComparer(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		src  *domain.FileInfo
		tgt  *domain.FileInfo
		want DiffResult
	}{
		{"target missing", file(10, now), nil, FileOnlyInSource},
		{"source missing", nil, file(10, now), FileOnlyInTarget},
		{"both missing", nil, nil, FilesIdentical},
		{"same mtime", file(10, now), file(10, now), FilesIdentical},
		{"source newer", file(10, now.Add(time.Second)), file(10, now), FileModified},
		{"target newer", file(10, now), file(10, now.Add(time.Second)), FilesIdentical},
		{"size differs but same mtime", file(10, now), file(99, now), FilesIdentical},
		{"source newer by a nanosecond", file(10, now.Add(time.Nanosecond)), file(10, now), FileModified},
	}

	c := NewNewerComparer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Compare(tt.src, tt.tgt); got != tt.want {
				t.Errorf("Compare() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSizeTimeComparer(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		src  *domain.FileInfo
		tgt  *domain.FileInfo
		want DiffResult
	}{
		{"target missing", file(10, now), nil, FileOnlyInSource},
		{"identical", file(10, now), file(10, now), FilesIdentical},
		{"size differs", file(10, now), file(20, now), FileModified},
		{"target newer", file(10, now), file(10, now.Add(time.Second)), FileModified},
		{"source newer", file(10, now.Add(time.Second)), file(10, now), FileModified},
		// Same instant with and without a monotonic reading
		{"precision", file(10, now), file(10, now.Round(0)), FilesIdentical},
	}

	c := NewSizeTimeComparer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Compare(tt.src, tt.tgt); got != tt.want {
				t.Errorf("Compare() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiffResult_NeedsCopy(t *testing.T) {
	want := map[DiffResult]bool{
		FilesIdentical:   false,
		FileModified:     true,
		FileOnlyInSource: true,
		FileOnlyInTarget: false,
	}
	for r, expected := range want {
		if r.NeedsCopy() != expected {
			t.Errorf("%v.NeedsCopy() = %v, want %v", r, r.NeedsCopy(), expected)
		}
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", "newer"} {
		c, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q) failed: %v", name, err)
		}
		if _, ok := c.(*NewerComparer); !ok {
			t.Errorf("ByName(%q) = %T, want *NewerComparer", name, c)
		}
	}

	c, err := ByName("size-time")
	if err != nil {
		t.Fatalf("ByName(size-time) failed: %v", err)
	}
	if _, ok := c.(*SizeTimeComparer); !ok {
		t.Errorf("ByName(size-time) = %T", c)
	}

	if _, err := ByName("hash"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
