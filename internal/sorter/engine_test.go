package sorter_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"dateisort/internal/config"
	apperrors "dateisort/internal/errors"
	"dateisort/internal/sorter"
	"dateisort/pkg/testutils"
	"dateisort/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig builds the configuration used throughout these tests:
// .jpg/.png -> Bilder, .pdf -> Dokumente, .tmp excluded, "temp" folders
// pruned.
func testConfig(t *testing.T) *config.SorterConfig {
	t.Helper()
	cfg := config.NewSorterConfig()
	require.NoError(t, cfg.AddExtension("Bilder", ".jpg"))
	require.NoError(t, cfg.AddExtension("Bilder", ".png"))
	require.NoError(t, cfg.AddExtension("Dokumente", ".pdf"))
	require.NoError(t, cfg.AddExcludedExtension(".tmp"))
	require.NoError(t, cfg.AddExcludedFolder("temp"))
	return cfg
}

func newEngine(t *testing.T) *sorter.Engine {
	t.Helper()
	engine := sorter.New(testConfig(t))
	engine.SetLogFunc(func(string) {})
	return engine
}

func TestValidateDirectories(t *testing.T) {
	engine := newEngine(t)
	source := t.TempDir()
	target := t.TempDir()

	t.Run("valid pair", func(t *testing.T) {
		assert.NoError(t, engine.ValidateDirectories(source, target))
	})

	t.Run("missing source", func(t *testing.T) {
		err := engine.ValidateDirectories(filepath.Join(source, "fehlt"), target)
		require.Error(t, err)
		assert.True(t, apperrors.IsInvalidDirectory(err))
	})

	t.Run("source is a file", func(t *testing.T) {
		file := filepath.Join(source, "datei.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
		assert.Error(t, engine.ValidateDirectories(file, target))
	})

	t.Run("empty target", func(t *testing.T) {
		assert.Error(t, engine.ValidateDirectories(source, "  "))
	})

	t.Run("target equals source", func(t *testing.T) {
		err := engine.ValidateDirectories(source, source)
		require.Error(t, err)
		assert.True(t, apperrors.IsInvalidDirectory(err))
	})

	t.Run("target nested inside source", func(t *testing.T) {
		nested := filepath.Join(source, "sorted")
		err := engine.ValidateDirectories(source, nested)
		require.Error(t, err)
		assert.True(t, apperrors.IsInvalidDirectory(err))
	})

	t.Run("target may contain nonexistent leaf", func(t *testing.T) {
		assert.NoError(t, engine.ValidateDirectories(source, filepath.Join(target, "neu")))
	})
}

func TestDiscover(t *testing.T) {
	engine := newEngine(t)

	t.Run("prunes excluded folders at any depth", func(t *testing.T) {
		source := t.TempDir()
		target := t.TempDir()
		testutils.CreateTestFilesWithContent(t, source, map[string]string{
			"a.jpg":                        "a",
			"sub/b.jpg":                    "b",
			"temp/c.jpg":                   "c",
			"sub/temp/d.jpg":               "d",
			"sub/TEMP/e.jpg":               "e",
			"temp/nested/deep/f.jpg":       "f",
			"sub/deeper/temp/inner/g.jpg":  "g",
			"sub/deeper/ok.png":            "ok",
		})

		files, err := engine.Discover(source, target)
		require.NoError(t, err)

		var names []string
		for _, f := range files {
			assert.True(t, filepath.IsAbs(f), "discovered paths must be absolute")
			names = append(names, filepath.Base(f))
		}
		sort.Strings(names)
		assert.Equal(t, []string{"a.jpg", "b.jpg", "ok.png"}, names)
	})

	t.Run("skips the target tree when nested under source", func(t *testing.T) {
		source := t.TempDir()
		target := filepath.Join(source, "out") // deliberately inside source
		testutils.CreateTestFilesWithContent(t, source, map[string]string{
			"a.jpg":          "a",
			"out/old.jpg":    "old",
			"out/sub/x.jpg":  "x",
		})

		files, err := engine.Discover(source, target)
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "a.jpg", filepath.Base(files[0]))
	})

	t.Run("empty source yields no files", func(t *testing.T) {
		files, err := engine.Discover(t.TempDir(), t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("directories without files yield no files", func(t *testing.T) {
		source := t.TempDir()
		testutils.CreateTestTree(t, source, "leer", "tief/verschachtelt")

		files, err := engine.Discover(source, t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("missing source is an error", func(t *testing.T) {
		_, err := engine.Discover(filepath.Join(t.TempDir(), "fehlt"), t.TempDir())
		assert.Error(t, err)
	})
}

func TestCategorize(t *testing.T) {
	engine := newEngine(t)

	t.Run("mapped extension gets a type subfolder", func(t *testing.T) {
		cls, include := engine.Categorize("/irgendwo/foto.JPG")
		require.True(t, include)
		assert.Equal(t, "Bilder", cls.Category)
		assert.Equal(t, filepath.Join("Bilder", "jpg"), cls.RelPath)
	})

	t.Run("unmapped extension falls back to the default category without subfolder", func(t *testing.T) {
		cls, include := engine.Categorize("/irgendwo/daten.xyz")
		require.True(t, include)
		assert.Equal(t, config.DefaultCategoryName, cls.Category)
		assert.Equal(t, config.DefaultCategoryName, cls.RelPath)
	})

	t.Run("extensionless file lands directly in the category", func(t *testing.T) {
		cls, include := engine.Categorize("/irgendwo/README")
		require.True(t, include)
		assert.Equal(t, config.DefaultCategoryName, cls.RelPath)
	})

	t.Run("exclusion takes precedence over classification", func(t *testing.T) {
		cfg := testConfig(t)
		require.NoError(t, cfg.AddExtension("Bilder", ".tmp")) // mapped AND excluded
		e := sorter.New(cfg)
		e.SetLogFunc(func(string) {})

		_, include := e.Categorize("/irgendwo/cache.tmp")
		assert.False(t, include)
	})

	t.Run("dotfiles count as extensionless", func(t *testing.T) {
		// ".tmp" as a full name is not the excluded .tmp extension,
		// and ".jpg" as a full name is not a Bilder file.
		cls, include := engine.Categorize("/irgendwo/.tmp")
		require.True(t, include)
		assert.Equal(t, config.DefaultCategoryName, cls.RelPath)

		cls, include = engine.Categorize("/irgendwo/.jpg")
		require.True(t, include)
		assert.Equal(t, config.DefaultCategoryName, cls.Category)
		assert.Equal(t, config.DefaultCategoryName, cls.RelPath)
	})

	t.Run("mapped category equal to the default gets no subfolder", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.SetDefaultCategory("Bilder")
		e := sorter.New(cfg)
		e.SetLogFunc(func(string) {})

		cls, include := e.Categorize("/irgendwo/foto.jpg")
		require.True(t, include)
		assert.Equal(t, "Bilder", cls.RelPath)
	})
}

func TestUniqueTargetPath(t *testing.T) {
	engine := newEngine(t)

	t.Run("free path is used unmodified", func(t *testing.T) {
		dir := t.TempDir()
		path, err := engine.UniqueTargetPath(dir, "bericht.pdf")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "bericht.pdf"), path)
	})

	t.Run("N collisions resolve to name(N+1)", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bild.jpg"), []byte("0"), 0o644))
		for n := 1; n <= 3; n++ {
			name := fmt.Sprintf("bild(%d).jpg", n)
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
		}

		path, err := engine.UniqueTargetPath(dir, "bild.jpg")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "bild(4).jpg"), path)
		assert.False(t, testutils.FileExists(path), "returned path must not exist")
	})

	t.Run("extensionless collisions", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("0"), 0o644))

		path, err := engine.UniqueTargetPath(dir, "README")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "README(1)"), path)
	})

	t.Run("dotfile collisions keep the leading dot", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("0"), 0o644))

		path, err := engine.UniqueTargetPath(dir, ".hidden")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, ".hidden(1)"), path)
	})
}

func TestSort(t *testing.T) {
	t.Run("copy scenario with exclusions", func(t *testing.T) {
		source := t.TempDir()
		target := t.TempDir()
		testutils.CreateTestFilesWithContent(t, source, map[string]string{
			"a.jpg":     "bild",
			"b.tmp":     "muell",
			"sub/c.jpg": "versteckt",
		})
		// "sub" is not excluded, but let's exclude it per configuration here.
		cfg := testConfig(t)
		require.NoError(t, cfg.AddExcludedFolder("sub"))
		e := sorter.New(cfg)
		e.SetLogFunc(func(string) {})

		result, err := e.Sort(context.Background(), source, target, types.Copy, nil)
		require.NoError(t, err)

		assert.Equal(t, 2, result.Total)
		assert.Equal(t, 1, result.Processed)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, 0, result.Errors)

		assert.True(t, testutils.FileExists(filepath.Join(target, "Bilder", "jpg", "a.jpg")))
		assert.NotContains(t, testutils.CollectFiles(t, target), "c.jpg", "files under excluded folders never reach the target")
		assert.True(t, testutils.FileExists(filepath.Join(source, "a.jpg")), "copy leaves the source in place")
	})

	t.Run("a discovered list is sorted as-is, later arrivals wait", func(t *testing.T) {
		engine := newEngine(t)
		source := t.TempDir()
		target := t.TempDir()
		testutils.CreateTestFilesWithContent(t, source, map[string]string{
			"a.jpg": "bild",
			"b.pdf": "text",
		})

		files, err := engine.Discover(source, target)
		require.NoError(t, err)
		require.Len(t, files, 2)

		// A file created after discovery belongs to the next run; the
		// total a progress display was built from must stay accurate.
		testutils.CreateTestFilesWithContent(t, source, map[string]string{"c.jpg": "spaet"})

		result, err := engine.SortFiles(context.Background(), files, target, types.Copy, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Total)
		assert.Equal(t, 2, result.Processed)
		assert.True(t, testutils.FileExists(filepath.Join(source, "c.jpg")))
		assert.False(t, testutils.FileExists(filepath.Join(target, "Bilder", "jpg", "c.jpg")))
	})

	t.Run("re-run renames and still counts as processed", func(t *testing.T) {
		engine := newEngine(t)
		source := t.TempDir()
		target := t.TempDir()
		testutils.CreateTestFilesWithContent(t, source, map[string]string{"a.jpg": "bild"})

		var logged []string
		engine.SetLogFunc(func(msg string) { logged = append(logged, msg) })

		first, err := engine.Sort(context.Background(), source, target, types.Copy, nil)
		require.NoError(t, err)
		require.Equal(t, 1, first.Processed)

		second, err := engine.Sort(context.Background(), source, target, types.Copy, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, second.Processed)

		assert.True(t, testutils.FileExists(filepath.Join(target, "Bilder", "jpg", "a.jpg")))
		assert.True(t, testutils.FileExists(filepath.Join(target, "Bilder", "jpg", "a(1).jpg")))

		renameNotice := false
		for _, msg := range logged {
			if strings.Contains(msg, "a(1).jpg") {
				renameNotice = true
			}
		}
		assert.True(t, renameNotice, "a rename notice should be logged")
	})

	t.Run("move removes sources", func(t *testing.T) {
		engine := newEngine(t)
		source := t.TempDir()
		target := t.TempDir()
		testutils.CreateTestFilesWithContent(t, source, map[string]string{
			"a.jpg": "bild",
			"b.pdf": "dokument",
		})

		result, err := engine.Sort(context.Background(), source, target, types.Move, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Processed)

		assert.False(t, testutils.FileExists(filepath.Join(source, "a.jpg")))
		assert.False(t, testutils.FileExists(filepath.Join(source, "b.pdf")))
		assert.True(t, testutils.FileExists(filepath.Join(target, "Bilder", "jpg", "a.jpg")))
		assert.True(t, testutils.FileExists(filepath.Join(target, "Dokumente", "pdf", "b.pdf")))
	})

	t.Run("empty source succeeds with zero counts and creates nothing", func(t *testing.T) {
		engine := newEngine(t)
		source := t.TempDir()
		target := t.TempDir()

		result, err := engine.Sort(context.Background(), source, target, types.Copy, nil)
		require.NoError(t, err)
		assert.Equal(t, types.SortResult{}, result)

		entries, err := os.ReadDir(target)
		require.NoError(t, err)
		assert.Empty(t, entries, "no directories may appear under the target")
	})

	t.Run("progress fires once per file in increasing order", func(t *testing.T) {
		engine := newEngine(t)
		source := t.TempDir()
		target := t.TempDir()
		testutils.CreateTestFilesWithContent(t, source, map[string]string{
			"a.jpg": "1",
			"b.tmp": "2", // skipped, still reported
			"c.pdf": "3",
		})

		var ticks []int
		result, err := engine.Sort(context.Background(), source, target, types.Copy, func(done int) {
			ticks = append(ticks, done)
		})
		require.NoError(t, err)

		require.Len(t, ticks, result.Total)
		assert.True(t, sort.IntsAreSorted(ticks), "progress must be strictly increasing: %v", ticks)
		assert.Equal(t, []int{1, 2, 3}, ticks)
	})

	t.Run("cancellation keeps partial counts", func(t *testing.T) {
		engine := newEngine(t)
		source := t.TempDir()
		target := t.TempDir()
		testutils.CreateTestFilesWithContent(t, source, map[string]string{
			"a.jpg": "1", "b.jpg": "2", "c.jpg": "3",
		})

		ctx, cancel := context.WithCancel(context.Background())
		var result types.SortResult
		var err error
		result, err = engine.Sort(ctx, source, target, types.Copy, func(done int) {
			if done == 1 {
				cancel()
			}
		})

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 3, result.Total)
		assert.Equal(t, 1, result.Done(), "one file was handled before cancellation")
	})

	t.Run("per-file errors never abort the run", func(t *testing.T) {
		engine := newEngine(t)
		source := t.TempDir()
		target := t.TempDir()
		testutils.CreateTestFilesWithContent(t, source, map[string]string{
			"a.jpg": "1",
			"b.jpg": "2",
		})
		// Sabotage one file by removing it between discovery and processing:
		// discovery happens inside Sort, so instead make one source
		// unreadable to the copy.
		require.NoError(t, os.Chmod(filepath.Join(source, "a.jpg"), 0o000))
		t.Cleanup(func() { os.Chmod(filepath.Join(source, "a.jpg"), 0o644) })
		if os.Geteuid() == 0 {
			t.Skip("running as root, chmod 000 does not block reads")
		}

		result, err := engine.Sort(context.Background(), source, target, types.Copy, nil)
		require.NoError(t, err, "per-file errors are accounted, not returned")
		assert.Equal(t, 2, result.Total)
		assert.Equal(t, 1, result.Processed)
		assert.Equal(t, 1, result.Errors)
	})
}

func TestSortOne(t *testing.T) {
	engine := newEngine(t)
	source := t.TempDir()
	target := t.TempDir()

	t.Run("sorts a single file", func(t *testing.T) {
		path := filepath.Join(source, "einzel.jpg")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		moved, err := engine.SortOne(path, target, types.Move)
		require.NoError(t, err)
		assert.True(t, moved)
		assert.True(t, testutils.FileExists(filepath.Join(target, "Bilder", "jpg", "einzel.jpg")))
		assert.False(t, testutils.FileExists(path))
	})

	t.Run("excluded extension is skipped without error", func(t *testing.T) {
		path := filepath.Join(source, "rest.tmp")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		moved, err := engine.SortOne(path, target, types.Move)
		require.NoError(t, err)
		assert.False(t, moved)
		assert.True(t, testutils.FileExists(path), "excluded files stay untouched")
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := engine.SortOne(filepath.Join(source, "fehlt.jpg"), target, types.Copy)
		require.Error(t, err)
		assert.True(t, apperrors.IsFileNotFound(err))
	})

	t.Run("directory is rejected", func(t *testing.T) {
		dir := filepath.Join(source, "ordner.jpg")
		require.NoError(t, os.Mkdir(dir, 0o755))
		_, err := engine.SortOne(dir, target, types.Copy)
		assert.Error(t, err)
	})
}
