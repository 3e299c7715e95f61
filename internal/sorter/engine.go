// Package sorter implements the sort engine: it discovers candidate files
// under a source directory, classifies them by extension, resolves
// collision-free destination paths under the target directory, and performs
// the copy or move operations while accumulating result counters.
package sorter

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"dateisort/internal/config"
	apperrors "dateisort/internal/errors"
	"dateisort/internal/log"
	"dateisort/pkg/types"
)

// maxRenameAttempts bounds the collision counter probed by
// UniqueTargetPath. Past this, the destination directory is considered
// pathological and the file is counted as an error.
const maxRenameAttempts = 9999

// LogFunc is the logging sink consumed by the engine. The host decides where
// messages end up (terminal, UI log pane); the engine only hands over text.
type LogFunc func(message string)

// ProgressFunc receives the running total of accounted files
// (processed + skipped + errors) after every file. Calls arrive in strictly
// increasing order from the goroutine running the sort.
type ProgressFunc func(done int)

// Classification names the bucket a file sorts into.
type Classification struct {
	Category string // resolved category name
	RelPath  string // destination subtree relative to the target directory
}

// Engine sorts files according to one validated configuration. The
// configuration is read-only for the lifetime of the engine; build a new
// engine after a configuration edit.
//
// An engine runs one sort at a time. Callers must serialize calls to Sort.
type Engine struct {
	cfg    *config.SorterConfig
	extMap map[string]string
	logf   LogFunc
}

// New creates an engine for the given configuration. Messages default to the
// application logger until SetLogFunc installs a different sink.
func New(cfg *config.SorterConfig) *Engine {
	return &Engine{
		cfg:    cfg,
		extMap: cfg.ExtensionMap(),
		logf:   func(msg string) { log.Info("%s", msg) },
	}
}

// SetLogFunc installs the logging sink.
func (e *Engine) SetLogFunc(fn LogFunc) {
	if fn != nil {
		e.logf = fn
	}
}

func (e *Engine) logn(format string, args ...interface{}) {
	e.logf(fmt.Sprintf(format, args...))
}

// ValidateDirectories pre-flights a sort run: the source must exist and be a
// directory, the target must be non-empty and must not equal or live inside
// the source (otherwise the run would process its own output).
func (e *Engine) ValidateDirectories(source, target string) error {
	if strings.TrimSpace(source) == "" {
		return apperrors.NewDirectoryError("source directory not specified", apperrors.InvalidDirectory)
	}
	info, err := os.Stat(source)
	if err != nil || !info.IsDir() {
		return apperrors.NewDirectoryError("source directory invalid or missing", apperrors.InvalidDirectory)
	}
	if strings.TrimSpace(target) == "" {
		return apperrors.NewDirectoryError("target directory not specified", apperrors.InvalidDirectory)
	}

	sourceAbs, err := filepath.Abs(source)
	if err != nil {
		return apperrors.Wrap(err, "resolve source path")
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return apperrors.Wrap(err, "resolve target path")
	}
	if pathWithin(sourceAbs, targetAbs) {
		return apperrors.NewDirectoryError("target directory must not be inside the source directory", apperrors.TargetInsideSource)
	}
	return nil
}

// Discover walks the source tree top-down and returns the absolute paths of
// all candidate files in walk order. Directories whose lower-cased base name
// is in the excluded-folder set are pruned, never recursed into. Any
// directory inside the target tree is skipped entirely so a copy run cannot
// process its own output. An unreadable subtree is skipped with a logged
// warning; only a source root that cannot be walked at all is an error.
func (e *Engine) Discover(source, target string) ([]string, error) {
	sourceAbs, err := filepath.Abs(source)
	if err != nil {
		return nil, apperrors.Wrap(err, "resolve source path")
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return nil, apperrors.Wrap(err, "resolve target path")
	}

	e.logn("searching for files...")

	var files []string
	walkErr := filepath.WalkDir(sourceAbs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == sourceAbs {
				return err
			}
			e.logn("warning: skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if pathWithin(targetAbs, path) {
				return fs.SkipDir
			}
			if path == sourceAbs {
				return nil
			}
			if _, excluded := e.cfg.ExcludedFolders[strings.ToLower(d.Name())]; excluded {
				return fs.SkipDir
			}
			return nil
		}

		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		return nil, apperrors.NewFileError("error walking source directory", sourceAbs, apperrors.FileAccessDenied, walkErr)
	}

	e.logn("%d files found", len(files))
	return files, nil
}

// Categorize resolves the bucket for one file from its lower-cased
// extension. The second return value is false when the extension is in the
// exclusion set; the caller must count the file as skipped, not as an error.
//
// Destination layout: a file in a non-default category with a non-empty
// extension sorts into category/extension-without-dot; everything else,
// including extensionless files, lands directly in the category folder.
func (e *Engine) Categorize(path string) (Classification, bool) {
	ext := strings.ToLower(fileExt(filepath.Base(path)))
	if _, excluded := e.cfg.ExcludedExtensions[ext]; excluded {
		return Classification{}, false
	}

	category, mapped := e.extMap[ext]
	if !mapped {
		category = e.cfg.DefaultCategory
	}

	relPath := category
	if category != e.cfg.DefaultCategory && ext != "" {
		if typeFolder := strings.TrimPrefix(ext, "."); typeFolder != "" {
			relPath = filepath.Join(category, typeFolder)
		}
	}
	return Classification{Category: category, RelPath: relPath}, true
}

// UniqueTargetPath returns dir/filename if it does not exist yet, otherwise
// the first free path of the form dir/name(N).ext with N counting up from 1.
// The check-then-use window is accepted: this is a single-user utility, not
// a concurrent storage engine.
func (e *Engine) UniqueTargetPath(dir, filename string) (string, error) {
	target := filepath.Join(dir, filename)
	if !pathExists(target) {
		return target, nil
	}

	ext := fileExt(filename)
	name := strings.TrimSuffix(filename, ext)
	for counter := 1; counter <= maxRenameAttempts; counter++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s(%d)%s", name, counter, ext))
		if !pathExists(candidate) {
			return candidate, nil
		}
	}
	return "", apperrors.NewFileError(
		fmt.Sprintf("no free name after %d attempts", maxRenameAttempts),
		target, apperrors.FileOperationFailed, nil)
}

// Process executes one file operation: it creates the destination directory
// and performs the copy or move. Failures are logged with source,
// destination and cause, and returned for the caller's error accounting.
func (e *Engine) Process(op types.FileOperation) error {
	if err := os.MkdirAll(filepath.Dir(op.TargetPath), 0o755); err != nil {
		e.logn("error creating %s: %v", filepath.Dir(op.TargetPath), err)
		return apperrors.NewFileError("create destination directory", op.TargetPath, apperrors.FileOperationFailed, err)
	}

	var err error
	switch op.Kind {
	case types.Copy:
		err = copyFile(op.SourcePath, op.TargetPath)
	case types.Move:
		err = moveFile(op.SourcePath, op.TargetPath)
	default:
		err = fmt.Errorf("unknown operation %q", op.Kind)
	}
	if err != nil {
		e.logn("error during %s: %s -> %s: %v", op.Kind, filepath.Base(op.SourcePath), op.Category, err)
		return apperrors.NewFileError(string(op.Kind)+" failed", op.SourcePath, apperrors.FileOperationFailed, err)
	}
	return nil
}

// Sort runs the full pipeline: discover, then per file categorize, resolve a
// collision-free destination, and execute the operation, accumulating
// processed/skipped/error counters. The progress callback fires after every
// file, including skipped and errored ones, with the running total.
//
// Cancellation is cooperative: the context is checked between files and a
// cancelled run returns the partial counters together with ctx.Err().
// Already transferred files are not rolled back. Per-file failures never
// abort the run; only a failure to discover files at all is returned as an
// error with zero counters.
func (e *Engine) Sort(ctx context.Context, source, target string, op types.Operation, progress ProgressFunc) (types.SortResult, error) {
	files, err := e.Discover(source, target)
	if err != nil {
		return types.SortResult{}, err
	}
	return e.SortFiles(ctx, files, target, op, progress)
}

// SortFiles runs the per-file pipeline over an already discovered file list.
// Callers that need the total up front (for a progress display) discover
// once and hand the list in here, so the source tree is walked exactly once
// and the total cannot drift from the files actually handled.
func (e *Engine) SortFiles(ctx context.Context, files []string, target string, op types.Operation, progress ProgressFunc) (types.SortResult, error) {
	var result types.SortResult
	result.Total = len(files)
	if result.Total == 0 {
		e.logn("no files to sort")
		return result, nil
	}

	for _, sourcePath := range files {
		if ctx != nil {
			select {
			case <-ctx.Done():
				e.logn("sort interrupted, %d of %d files handled", result.Done(), result.Total)
				return result, ctx.Err()
			default:
			}
		}

		filename := filepath.Base(sourcePath)
		cls, include := e.Categorize(sourcePath)
		if !include {
			result.Skipped++
		} else {
			categoryDir := filepath.Join(target, cls.RelPath)
			targetPath, err := e.UniqueTargetPath(categoryDir, filename)
			switch {
			case err != nil:
				e.logn("error resolving destination for %s: %v", filename, err)
				result.Errors++
			default:
				if filepath.Base(targetPath) != filename {
					e.logn("file exists, renaming: %s -> %s", filepath.Base(targetPath), cls.RelPath)
				}
				fileOp := types.FileOperation{
					SourcePath: sourcePath,
					TargetPath: targetPath,
					Category:   cls.RelPath,
					Kind:       op,
				}
				if err := e.Process(fileOp); err != nil {
					result.Errors++
				} else {
					result.Processed++
				}
			}
		}

		if progress != nil {
			progress(result.Done())
		}
	}

	return result, nil
}

// SortOne sorts a single file into the target tree. It is the entry point
// used by the watch daemon for freshly created files. The boolean reports
// whether the file was actually transferred (false for excluded extensions).
func (e *Engine) SortOne(path, target string, op types.Operation) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, apperrors.NewFileError("source file error", path, apperrors.FileNotFound, err)
	}
	if !info.Mode().IsRegular() {
		return false, apperrors.NewFileError("not a regular file", path, apperrors.InvalidPath, nil)
	}

	cls, include := e.Categorize(path)
	if !include {
		e.logn("skipping excluded file: %s", filepath.Base(path))
		return false, nil
	}

	categoryDir := filepath.Join(target, cls.RelPath)
	targetPath, err := e.UniqueTargetPath(categoryDir, filepath.Base(path))
	if err != nil {
		return false, err
	}
	fileOp := types.FileOperation{
		SourcePath: path,
		TargetPath: targetPath,
		Category:   cls.RelPath,
		Kind:       op,
	}
	if err := e.Process(fileOp); err != nil {
		return false, err
	}
	e.logn("sorted %s -> %s", filepath.Base(path), cls.RelPath)
	return true, nil
}

// fileExt returns the extension of a file name. Dotfiles like ".hidden"
// count as extensionless, not as all extension.
func fileExt(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return ""
	}
	return ext
}

// pathWithin reports whether child equals parent or lies underneath it.
func pathWithin(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
