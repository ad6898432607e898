package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"lorekeeper/internal/lore"
	"lorekeeper/internal/parser"
)

// WorldStore is the part of the world store ingestion writes through.
type WorldStore interface {
	Load(ctx context.Context, name string) (*lore.Collection, error)
	Save(ctx context.Context, name string, c *lore.Collection, immediate bool) error
}

type Result struct {
	EntriesCreated int
	EntriesUpdated int
	EntriesRemoved int
	FilesSkipped   int
	Errors         []error
}

type Options struct {
	// Full rebuilds the world from the files alone, dropping entries that
	// no file describes.
	Full     bool
	Excludes []string
}

// Run reads every markdown file under roots into the named world. Entries are
// matched to files by title, so re-ingesting keeps their uids.
func Run(ctx context.Context, world string, roots []string, db WorldStore, options Options) (*Result, error) {
	c, err := db.Load(ctx, world)
	if err != nil {
		return nil, fmt.Errorf("loading world %s: %w", world, err)
	}
	if c == nil {
		c = lore.NewCollection()
	}

	byTitle := make(map[string]*lore.Entry)
	for _, e := range c.Entries() {
		if e.Comment != "" {
			byTitle[e.Comment] = e
		}
	}

	files, err := walkMarkdownFiles(roots, options.Excludes)
	if err != nil {
		return nil, fmt.Errorf("walking files: %w", err)
	}

	result := &Result{}
	seen := make(map[string]string)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := parser.ParseFile(path)
		if err != nil {
			if errors.Is(err, parser.ErrNoFrontmatter) || errors.Is(err, parser.ErrMissingTitle) {
				result.FilesSkipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, err))
			continue
		}
		if first, dup := seen[doc.Title]; dup {
			result.Errors = append(result.Errors, fmt.Errorf("%s: title %q already used by %s", path, doc.Title, first))
			continue
		}
		seen[doc.Title] = path

		existing, update := byTitle[doc.Title]
		uid := 0
		if update {
			uid = existing.UID
		} else {
			if uid, err = c.FreeUID(); err != nil {
				return nil, fmt.Errorf("adding %s: %w", path, err)
			}
		}

		e, err := doc.Entry(uid)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("reading entry in %s: %w", path, err))
			continue
		}
		if update {
			e.DisplayIndex = existing.DisplayIndex
			result.EntriesUpdated++
		} else {
			result.EntriesCreated++
		}
		c.Put(e)
	}

	if options.Full {
		for title, e := range byTitle {
			if _, ok := seen[title]; ok {
				continue
			}
			c.Delete(e.UID)
			if err := c.DeleteOriginalEntry(e.UID); err != nil {
				result.Errors = append(result.Errors, err)
			}
			result.EntriesRemoved++
		}
		for _, e := range c.Entries() {
			if e.Comment == "" {
				c.Delete(e.UID)
				result.EntriesRemoved++
			}
		}
	}

	if err := db.Save(ctx, world, c, true); err != nil {
		return nil, fmt.Errorf("saving world %s: %w", world, err)
	}
	return result, nil
}

func walkMarkdownFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if isExcluded(path, excluded) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}
