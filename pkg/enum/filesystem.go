package enum

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/praetorian-inc/docsearch/pkg/types"
	"golang.org/x/sync/errgroup"
)

// FilesystemEnumerator yields the documents in a directory tree, or in a
// single file.
type FilesystemEnumerator struct {
	config Config
	kinds  map[Kind]bool // nil = every kind
}

// NewFilesystemEnumerator creates a new filesystem enumerator.
func NewFilesystemEnumerator(config Config) *FilesystemEnumerator {
	e := &FilesystemEnumerator{config: config}
	if len(config.Kinds) > 0 {
		e.kinds = make(map[Kind]bool, len(config.Kinds))
		for _, k := range config.Kinds {
			e.kinds[k] = true
		}
	}
	return e
}

// Enumerate lists the eligible files, then reads and yields them on up to
// one goroutine per CPU.
func (e *FilesystemEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	paths, err := e.paths(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(runtime.NumCPU(), 1))
	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return e.yield(gctx, path, callback)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// Cancellation may land after every file was read.
	return ctx.Err()
}

// paths returns the files to read in walk order.
func (e *FilesystemEnumerator) paths(ctx context.Context) ([]string, error) {
	root := e.config.Root
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		ok, err := e.wants(root, fs.FileInfoToDirEntry(info))
		if err != nil || !ok {
			return nil, err
		}
		return []string{root}, nil
	}

	ignore := loadGitignore(root)

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if path != root && !e.config.IncludeHidden && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if ignore != nil {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if ignore.MatchesPath(rel) {
				return nil
			}
		}

		ok, err := e.wants(path, d)
		if ok {
			paths = append(paths, path)
		}
		return err
	})
	return paths, err
}

// wants applies the symlink, kind, extraction and size filters to a file.
func (e *FilesystemEnumerator) wants(path string, d fs.DirEntry) (bool, error) {
	if d.Type()&fs.ModeSymlink != 0 && !e.config.FollowSymlinks {
		return false, nil
	}

	kind := KindOf(path)
	if e.kinds != nil && !e.kinds[kind] {
		return false, nil
	}
	if kind.isContainer() && !shouldExtract(e.config, getExtension(path)) {
		return false, nil
	}

	if e.config.MaxFileSize > 0 {
		info, err := d.Info()
		if err != nil {
			return false, err
		}
		if info.Size() > e.config.MaxFileSize {
			return false, nil
		}
	}
	return true, nil
}

// yield reads one file and passes its documents to callback: the file
// itself, or each text member of a container.
func (e *FilesystemEnumerator) yield(ctx context.Context, path string, callback Callback) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}

	switch kind := KindOf(path); {
	case kind.isContainer():
		members, err := ExtractText(path, content, e.extractLimits())
		if err != nil {
			fmt.Fprintf(os.Stderr, "[warn] failed to extract %s: %v\n", path, err)
			return nil
		}
		for _, m := range members {
			prov := types.ArchiveProvenance{ArchivePath: path, MemberPath: m.Name}
			if err := callback(types.NewDocument(m.Content, prov)); err != nil {
				return err
			}
		}
		return nil
	case kind == KindOther && isBinaryContent(content):
		return nil
	}
	return callback(types.NewDocument(content, types.FileProvenance{FilePath: path}))
}

func (e *FilesystemEnumerator) extractLimits() ExtractionLimits {
	if e.config.ExtractLimits == (ExtractionLimits{}) {
		return DefaultExtractionLimits()
	}
	return e.config.ExtractLimits
}

// loadGitignore compiles root/.gitignore, or returns nil when there is none.
func loadGitignore(root string) *gitignore.GitIgnore {
	ignore, err := gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return ignore
}

// shouldExtract reports whether the container extension ext is enabled by
// config.ExtractArchives.
func shouldExtract(config Config, ext string) bool {
	switch config.ExtractArchives {
	case "":
		return false
	case "all":
		return isExtractable(ext)
	}
	want := strings.TrimPrefix(ext, ".")
	for _, t := range strings.Split(strings.ToLower(config.ExtractArchives), ",") {
		if strings.TrimSpace(t) == want {
			return isExtractable(ext)
		}
	}
	return false
}

// isHidden reports whether name is a dot file. "." and ".." are not hidden.
func isHidden(name string) bool {
	return name != "." && name != ".." && strings.HasPrefix(name, ".")
}
