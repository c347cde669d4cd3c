// Package walker lists and searches directory trees through an adapter.
package walker

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Ning0612/fstools/internal/adapter"
	"github.com/Ning0612/fstools/internal/core/pattern"
	"github.com/Ning0612/fstools/internal/domain"
)

// Walker lists and searches a single directory tree
type Walker struct {
	adapter adapter.Adapter
	root    string
}

// New creates a walker for directory, which must exist and be a directory
func New(ctx context.Context, adp adapter.Adapter, directory string) (*Walker, error) {
	root := CleanRoot(directory)

	info, err := adp.Stat(ctx, root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, domain.ErrNotDirectory)
	}

	return &Walker{adapter: adp, root: root}, nil
}

// Root returns the directory this walker was created for
func (w *Walker) Root() string {
	return w.root
}

// List returns the entries of the root directory. With recursive set every
// directory entry carries its own listing in Children.
//
// Entries are sorted by name at each level; filesystem iteration order is not
// stable across platforms.
func (w *Walker) List(ctx context.Context, recursive bool) ([]domain.Entry, error) {
	return w.list(ctx, w.root, recursive)
}

func (w *Walker) list(ctx context.Context, dir string, recursive bool) ([]domain.Entry, error) {
	infos, err := w.adapter.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(infos, func(a, b domain.FileInfo) int {
		return strings.Compare(a.Name, b.Name)
	})

	entries := make([]domain.Entry, 0, len(infos))
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if info.Name == "." || info.Name == ".." {
			continue
		}

		entry := domain.NewEntry(info)
		if recursive && entry.IsDir() {
			children, err := w.list(ctx, entry.Path, true)
			if err != nil {
				return nil, err
			}
			entry.Children = children
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Search returns the files whose full path matches the glob pattern.
// Without recursive only the immediate children are inspected; with it the
// whole tree is visited depth-first, parents before children.
func (w *Walker) Search(ctx context.Context, glob string, recursive bool) ([]domain.Entry, error) {
	matcher, err := pattern.Compile(glob)
	if err != nil {
		return nil, err
	}

	entries, err := w.List(ctx, recursive)
	if err != nil {
		return nil, err
	}

	var matches []domain.Entry
	for _, top := range entries {
		top.Walk(func(e domain.Entry) bool {
			if e.IsFile() && matcher.Match(e.Path) {
				e.Children = nil
				matches = append(matches, e)
			}
			return true
		})
	}

	return matches, nil
}

// SearchByExtension is Search with the pattern "*.<ext>"
func (w *Walker) SearchByExtension(ctx context.Context, ext string, recursive bool) ([]domain.Entry, error) {
	return w.Search(ctx, pattern.ForExtension(ext), recursive)
}

// CleanRoot returns the shortest lexical form of a directory argument, the
// same form adapters produce when joining child paths onto it. Trailing
// separators are dropped except for a lone root.
func CleanRoot(path string) string {
	if path == "" {
		return path
	}
	return filepath.Clean(path)
}
