package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed languages.yml
var embeddedLanguages []byte

// LanguageInfo holds the fields of a language definition used for detection.
type LanguageInfo struct {
	Type       string   `yaml:"type"` // programming, data, markup, prose
	Extensions []string `yaml:"extensions"`
	Filenames  []string `yaml:"filenames"`
	Lexer      string   `yaml:"lexer"` // chroma lexer name when it differs from the language name
}

// LanguageMap maps language names (e.g., "Go") to their details.
type LanguageMap map[string]LanguageInfo

// LoadedLanguageData holds the parsed language map and provides helper methods.
type LoadedLanguageData struct {
	Langs        LanguageMap
	extensionMap map[string]string // ".go" -> "Go"
	filenameMap  map[string]string // "Makefile" -> "Makefile"
}

// loadLanguageData parses the first languages.yml found in configDirs, falling
// back to the built-in definitions.
func loadLanguageData(configDirs []string) (*LoadedLanguageData, error) {
	for _, dir := range configDirs {
		path := filepath.Join(dir, "languages.yml")
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		data, err := parseLanguageData(raw)
		if err != nil {
			return nil, fmt.Errorf("error parsing language file %s: %w", path, err)
		}
		logger.Debugw("loaded language definitions", "path", path, "languages", len(data.Langs))
		return data, nil
	}
	return parseLanguageData(embeddedLanguages)
}

func parseLanguageData(raw []byte) (*LoadedLanguageData, error) {
	var langs LanguageMap
	if err := yaml.Unmarshal(raw, &langs); err != nil {
		return nil, err
	}

	data := &LoadedLanguageData{
		Langs:        langs,
		extensionMap: make(map[string]string),
		filenameMap:  make(map[string]string),
	}
	for langName, info := range langs {
		for _, ext := range info.Extensions {
			lowerExt := strings.ToLower(ext)
			// Several languages may claim an extension; keep the alphabetically first for stable lookups.
			if cur, ok := data.extensionMap[lowerExt]; !ok || langName < cur {
				data.extensionMap[lowerExt] = langName
			}
		}
		for _, fname := range info.Filenames {
			if cur, ok := data.filenameMap[fname]; !ok || langName < cur {
				data.filenameMap[fname] = langName
			}
		}
	}
	return data, nil
}

// GetLanguageForFile determines the language for a given path.
func (ld *LoadedLanguageData) GetLanguageForFile(filePath string) (string, bool) {
	if ld == nil {
		return "", false
	}

	baseName := filepath.Base(filePath)
	if lang, ok := ld.filenameMap[baseName]; ok {
		return lang, true
	}
	if ext := strings.ToLower(filepath.Ext(baseName)); ext != "" {
		if lang, ok := ld.extensionMap[ext]; ok {
			return lang, true
		}
	}
	return "", false
}

// LexerFor returns the chroma lexer name for a file, or "" when unknown.
func (ld *LoadedLanguageData) LexerFor(filePath string) string {
	lang, ok := ld.GetLanguageForFile(filePath)
	if !ok {
		return ""
	}
	if lexer := ld.Langs[lang].Lexer; lexer != "" {
		return lexer
	}
	return lang
}

// resolveLanguages validates a comma-separated list of language names against
// the loaded definitions and returns the canonical names as a set.
func (ld *LoadedLanguageData) resolveLanguages(list string) (map[string]struct{}, error) {
	names := splitList(list)
	if len(names) == 0 {
		return nil, nil
	}

	byLower := make(map[string]string, len(ld.Langs))
	for name := range ld.Langs {
		byLower[strings.ToLower(name)] = name
	}

	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		canonical, ok := byLower[strings.ToLower(n)]
		if !ok {
			return nil, fmt.Errorf("unknown language %q", n)
		}
		set[canonical] = struct{}{}
	}
	return set, nil
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
