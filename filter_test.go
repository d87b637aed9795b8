package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateIn(root, rel string) FileCandidate {
	return FileCandidate{AbsPath: filepath.Join(root, filepath.FromSlash(rel)), RelPath: rel}
}

func TestShouldSkip_Rules(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.go":          "package main\n",
		"big.txt":          strings.Repeat("x", 2000),
		"src/test_main.py": "pass\n",
		"src/main.py":      "print(1)\n",
		".env":             "SECRET=1\n",
		"a/.hidden/y.py":   "pass\n",
		"logo.png":         "not really an image",
		"blob.txt":         "ab\x00cd",
	})
	require.NoError(t, os.Mkdir(filepath.Join(root, "emptydir"), 0o755))

	tests := []struct {
		name   string
		rel    string
		mutate func(*FilterConfig)
		want   SkipReason
	}{
		{"plain text kept", "main.go", nil, NotSkipped},
		{"directory", "emptydir", nil, SkipNotRegular},
		{"missing", "nope.txt", nil, SkipNotRegular},
		{"too large", "big.txt", func(c *FilterConfig) { c.MaxFileSize = 1024 }, SkipTooLarge},
		{"size limit is inclusive", "big.txt", func(c *FilterConfig) { c.MaxFileSize = 2000 }, NotSkipped},
		{"exclude by base name", "src/test_main.py", func(c *FilterConfig) { c.Exclude = "test_*.py" }, SkipExcluded},
		{"exclude by relative path", "src/main.py", func(c *FilterConfig) { c.Exclude = "src/**" }, SkipExcluded},
		{"not included", "main.go", func(c *FilterConfig) { c.Include = "*.py" }, SkipNotIncluded},
		{"included via path glob", "src/main.py", func(c *FilterConfig) { c.Include = "src/*.py" }, NotSkipped},
		{"exclude beats include", "src/main.py", func(c *FilterConfig) {
			c.Include = "*.py"
			c.Exclude = "main.py"
		}, SkipExcluded},
		{"hidden file", ".env", nil, SkipHidden},
		{"file in hidden dir", "a/.hidden/y.py", nil, SkipHidden},
		{"hidden allowed", "a/.hidden/y.py", func(c *FilterConfig) { c.SkipHidden = false }, NotSkipped},
		{"binary extension", "logo.png", nil, SkipBinary},
		{"null byte", "blob.txt", nil, SkipBinary},
		{"binary allowed", "blob.txt", func(c *FilterConfig) { c.SkipBinary = false }, NotSkipped},
		{"no probe without content", "blob.txt", func(c *FilterConfig) { c.ProbeContent = false }, NotSkipped},
		{"extension still checked without probe", "logo.png", func(c *FilterConfig) { c.ProbeContent = false }, SkipBinary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultFilterConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			skip, reason := shouldSkip(candidateIn(root, tt.rel), &cfg)
			assert.Equal(t, tt.want, reason)
			assert.Equal(t, tt.want != NotSkipped, skip)
		})
	}
}

func TestShouldSkip_ExplicitBypassesHidden(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{".env": "A=1\n"})

	cfg := defaultFilterConfig()
	c := candidateIn(root, ".env")
	c.Explicit = true
	skip, _ := shouldSkip(c, &cfg)
	assert.False(t, skip)

	cfg.Exclude = ".env"
	skip, reason := shouldSkip(c, &cfg)
	assert.True(t, skip)
	assert.Equal(t, SkipExcluded, reason)
}

func TestShouldSkip_Language(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.go":   "package main\n",
		"script.py": "pass\n",
		"Makefile":  "all:\n",
		"notes.xyz": "?\n",
	})
	langData, err := parseLanguageData(embeddedLanguages)
	require.NoError(t, err)
	langs, err := langData.resolveLanguages("go, makefile")
	require.NoError(t, err)

	cfg := defaultFilterConfig()
	cfg.LangData = langData
	cfg.Languages = langs

	for rel, want := range map[string]bool{"main.go": false, "Makefile": false, "script.py": true, "notes.xyz": true} {
		skip, _ := shouldSkip(candidateIn(root, rel), &cfg)
		assert.Equal(t, want, skip, rel)
	}
}

func TestShouldSkip_GitIgnore(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".gitignore":    "*.log\nbuild/\n",
		"app.log":       "log\n",
		"build/out.txt": "out\n",
		"src/keep.txt":  "keep\n",
	})
	matcher, err := loadGitIgnore(root)
	require.NoError(t, err)
	require.NotNil(t, matcher)

	cfg := defaultFilterConfig()
	cfg.Ignore = matcher
	cfg.IgnoreDir = root

	for rel, want := range map[string]SkipReason{
		"app.log":       SkipGitIgnored,
		"build/out.txt": SkipGitIgnored,
		"src/keep.txt":  NotSkipped,
	} {
		_, reason := shouldSkip(candidateIn(root, rel), &cfg)
		assert.Equal(t, want, reason, rel)
	}
}

func TestShouldSkip_GitIgnoreNestedDirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".gitignore":            "dist/\n",
		"web/dist/app.js":       "x\n",
		"web/dist/assets/a.css": "x\n",
		"web/src/distance.go":   "package web\n",
		"web/dist.txt":          "x\n",
	})
	matcher, err := loadGitIgnore(root)
	require.NoError(t, err)

	cfg := defaultFilterConfig()
	cfg.Ignore = matcher
	cfg.IgnoreDir = root

	for rel, want := range map[string]SkipReason{
		"web/dist/app.js":       SkipGitIgnored,
		"web/dist/assets/a.css": SkipGitIgnored,
		"web/src/distance.go":   NotSkipped,
		"web/dist.txt":          NotSkipped,
	} {
		_, reason := shouldSkip(candidateIn(root, rel), &cfg)
		assert.Equal(t, want, reason, rel)
	}
}

func TestLoadGitIgnore_Missing(t *testing.T) {
	matcher, err := loadGitIgnore(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, matcher)
}

func TestFilterConfigValidate(t *testing.T) {
	cfg := defaultFilterConfig()
	require.NoError(t, cfg.validate())

	cfg.Include = "src/[abc"
	assert.ErrorIs(t, cfg.validate(), ErrInvalidPattern)

	cfg = defaultFilterConfig()
	cfg.Exclude = "**/{a,b"
	assert.ErrorIs(t, cfg.validate(), ErrInvalidPattern)
}

func TestIsHiddenPath(t *testing.T) {
	assert.True(t, isHiddenPath(".git/config"))
	assert.True(t, isHiddenPath("a/.cache/x"))
	assert.True(t, isHiddenPath(".env"))
	assert.False(t, isHiddenPath("a/b/c.go"))
	assert.False(t, isHiddenPath("a/b.c/d"))
}
