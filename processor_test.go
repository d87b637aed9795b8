package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a/x.py":      "x",
		"a/b/c.txt":   "c",
		".git/config": "[core]",
	})

	entries, err := scanDirectory(root)
	require.NoError(t, err)

	got := map[string]bool{}
	for _, e := range entries {
		got[e.RelPath] = e.IsDir
	}
	want := map[string]bool{
		"a":           true,
		"a/x.py":      false,
		"a/b":         true,
		"a/b/c.txt":   false,
		".git":        true,
		".git/config": false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("scanDirectory() mismatch (-want +got):\n%s", diff)
	}
}

func TestScanDirectory_Errors(t *testing.T) {
	root := t.TempDir()

	_, err := scanDirectory(filepath.Join(root, "missing"))
	assert.ErrorIs(t, err, ErrNotFound)

	file := filepath.Join(root, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = scanDirectory(file)
	assert.ErrorIs(t, err, ErrNotADirectory)

	entries, err := scanDirectory(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestScanDirectory_UnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"ok/a.txt":     "a",
		"locked/b.txt": "b",
		"c.txt":        "c",
	})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	entries, err := scanDirectory(root)
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		got = append(got, e.RelPath)
	}
	assert.Contains(t, got, "ok/a.txt")
	assert.Contains(t, got, "c.txt")
	assert.NotContains(t, got, "locked/b.txt")
}

func TestScanDirectory_Empty(t *testing.T) {
	entries, err := scanDirectory(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCollectCandidates_Defaults(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a/x.py":         "print(1)\n\n",
		"a/.hidden/y.py": "pass\n",
		"b.png":          "PNG",
		".git/config":    "[core]\n",
	})

	got, err := collectCandidates([]string{root}, collectOptions{Filter: defaultFilterConfig()})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/x.py"}, relPaths(got))
	assert.Equal(t, filepath.Join(root, "a", "x.py"), got[0].AbsPath)
	assert.False(t, got[0].Explicit)
}

func TestCollectCandidates_IncludeExclude(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/main.py":      "main\n",
		"src/test_main.py": "test\n",
		"src/data.json":    "{}\n",
	})

	cfg := defaultFilterConfig()
	cfg.Include = "*.py"
	cfg.Exclude = "**/test_*.py"
	got, err := collectCandidates([]string{root}, collectOptions{Filter: cfg})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.py"}, relPaths(got))
}

func TestCollectCandidates_MaxFileSize(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"big.txt":   strings.Repeat("b", 2000),
		"small.txt": strings.Repeat("s", 500),
	})

	cfg := defaultFilterConfig()
	size, err := parseSize("1K")
	require.NoError(t, err)
	cfg.MaxFileSize = size
	got, err := collectCandidates([]string{root}, collectOptions{Filter: cfg})
	require.NoError(t, err)
	assert.Equal(t, []string{"small.txt"}, relPaths(got))
}

func TestCollectCandidates_SortedAndDeduplicated(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"one/z.txt":     "z",
		"one/a.txt":     "a",
		"one/sub/m.txt": "m",
		"two/a.txt":     "other a",
		"two/only.txt":  "only",
	})
	one := filepath.Join(root, "one")
	two := filepath.Join(root, "two")

	// The same root twice plus a second root with a colliding relative path.
	got, err := collectCandidates([]string{one, one, two}, collectOptions{Filter: defaultFilterConfig()})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "only.txt", "sub/m.txt", "z.txt"}, relPaths(got))
	for _, c := range got {
		if c.RelPath == "a.txt" {
			assert.Equal(t, filepath.Join(one, "a.txt"), c.AbsPath)
		}
	}
}

func TestCollectCandidates_ExplicitFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"cfg/.env":  "A=1\n",
		"cfg/a.txt": "a\n",
		"logo.png":  "PNG",
	})

	got, err := collectCandidates(
		[]string{filepath.Join(root, "cfg", ".env"), filepath.Join(root, "logo.png")},
		collectOptions{Filter: defaultFilterConfig(), WorkDir: root},
	)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "cfg/.env", got[0].RelPath)
	assert.True(t, got[0].Explicit)
}

func TestCollectCandidates_ExplicitFileOutsideWorkDir(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"notes.md": "# hi\n"})

	got, err := collectCandidates(
		[]string{filepath.Join(root, "notes.md")},
		collectOptions{Filter: defaultFilterConfig(), WorkDir: t.TempDir()},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.md"}, relPaths(got))
}

func TestCollectCandidates_MissingInput(t *testing.T) {
	_, err := collectCandidates([]string{filepath.Join(t.TempDir(), "nope")}, collectOptions{Filter: defaultFilterConfig()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollectCandidates_SkipsOutputs(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.go":    "package main\n",
		"output.txt": "",
	})

	got, err := collectCandidates([]string{root}, collectOptions{
		Filter:  defaultFilterConfig(),
		Outputs: []string{filepath.Join(root, "output.txt")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, relPaths(got))
}

func TestCollectCandidates_GitIgnore(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".gitignore": "*.log\n",
		"app.log":    "log\n",
		"main.go":    "package main\n",
	})

	got, err := collectCandidates([]string{root}, collectOptions{Filter: defaultFilterConfig(), GitIgnore: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, relPaths(got))

	got, err = collectCandidates([]string{root}, collectOptions{Filter: defaultFilterConfig()})
	require.NoError(t, err)
	assert.Equal(t, []string{"app.log", "main.go"}, relPaths(got))
}

func TestCollectCandidates_GitIgnoreDirectoryRule(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".gitignore":      "build/\n",
		"build/out.txt":   "out\n",
		"build/gen/x.txt": "x\n",
		"main.go":         "package main\n",
	})

	got, err := collectCandidates([]string{root}, collectOptions{Filter: defaultFilterConfig(), GitIgnore: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, relPaths(got))
}

func TestCollectCandidates_ExplicitFileFilteredByExclude(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.go":      "package main\n",
		"main_test.go": "package main\n",
	})
	cfg := defaultFilterConfig()
	cfg.Exclude = "*_test.go"

	got, err := collectCandidates(
		[]string{filepath.Join(root, "main.go"), filepath.Join(root, "main_test.go")},
		collectOptions{Filter: cfg, WorkDir: root},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, relPaths(got))
}

func TestCollectCandidates_GitTrackedOutsideRepo(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"main.go": "package main\n"})

	_, err := collectCandidates([]string{root}, collectOptions{Filter: defaultFilterConfig(), GitTracked: true})
	assert.Error(t, err)
}
