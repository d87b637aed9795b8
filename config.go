package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// options is the fully resolved configuration of one run.
type options struct {
	Inputs         []string
	Filter         FilterConfig
	Mode           RenderMode
	Workers        int
	Languages      string
	GitIgnore      bool
	GitTracked     bool
	HTMLToMarkdown bool
	CountTokens    bool
	Interactive    bool
	Tokenizer      tokenizerOptions
	Sink           SinkOptions
	PDF            string
	Verbose        bool
	Quiet          bool
}

// registerFlags defines the command's flags and binds each one to a viper
// key, so a config file can supply defaults. Precedence is
// flag > config file > built-in default.
func registerFlags(cmd *cobra.Command, v *viper.Viper) {
	f := cmd.Flags()

	// Filtering
	f.StringP("include", "i", matchAllPattern, "Glob matched against the relative path or file name (e.g. '*.py', 'src/**/*.go'); also applies to files named as arguments")
	f.StringP("exclude", "e", "", "Glob of files to leave out; wins over --include and also applies to files named as arguments")
	f.String("max-file-size", "5M", "Skip files larger than this (e.g. 500K, 1.5M, 2GB; binary units K/M/G/T/P, optional B suffix, bare numbers are bytes)")
	f.BoolP("hidden", "H", false, "Include hidden files and files inside hidden directories")
	f.Bool("allow-binary", false, "Do not skip files that look binary")
	f.StringP("lang", "l", "", "Only include files of these languages (comma-separated, e.g. go,python)")
	f.Bool("gitignore", false, "Respect the .gitignore at the root of each scanned directory")
	f.Bool("git-tracked", false, "Only include files tracked in the git index")

	// Processing
	f.IntP("workers", "w", defaultWorkers(), "Number of parallel workers for reading files")
	f.Bool("html-markdown", false, "Convert .html files to Markdown before packing")

	// Output
	f.Bool("paths-only", false, "Only output file paths, without their content")
	f.BoolP("output-tokens-size-only", "t", false, "Output token counts and byte sizes instead of content")
	f.Bool("tree", false, "Output a directory tree of the packed files")
	f.StringP("file", "f", "", "Write output to this file instead of stdout / "+defaultOutputFilename)
	f.BoolP("clipboard", "c", false, "Copy output to the clipboard")
	f.String("pdf", "", "Save the packed files as a syntax-highlighted PDF")

	// Token counting
	f.Bool("count-tokens", false, "Log the approximate total token count in content mode")
	f.String("tokenizer", "tiktoken", "Tokenizer to use: tiktoken or huggingface")
	f.String("model", "", "Model name for the tokenizer (e.g. gpt-4o, gpt2)")
	f.String("tokenizer-file", "", "Path to a local HuggingFace tokenizer.json")

	// Misc
	f.Bool("interactive", false, "Pick input paths with an interactive fuzzy finder")
	f.BoolP("verbose", "v", false, "Log every skipped file and its reason")
	f.BoolP("quiet", "q", false, "Only log errors")
	f.String("config", "", "Config file (default ./pack.toml or ~/.config/pack/pack.toml)")

	cmd.MarkFlagsMutuallyExclusive("paths-only", "output-tokens-size-only", "tree")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	cmd.MarkFlagsMutuallyExclusive("file", "clipboard")

	for _, name := range []string{
		"include", "exclude", "max-file-size", "hidden", "allow-binary", "lang",
		"gitignore", "git-tracked", "workers", "html-markdown", "paths-only",
		"output-tokens-size-only", "tree", "file", "clipboard", "pdf",
		"count-tokens", "tokenizer", "model", "tokenizer-file", "verbose", "quiet",
	} {
		_ = v.BindPFlag(configKey(name), f.Lookup(name))
	}
}

// configKey maps a flag name to its snake_case config key.
func configKey(flag string) string {
	key := []byte(flag)
	for i, c := range key {
		if c == '-' {
			key[i] = '_'
		}
	}
	return string(key)
}

// readConfigFile loads path, or the first pack.toml found in the working
// directory or ~/.config/pack. A missing default file is not an error.
func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pack")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		for _, dir := range userConfigDirs() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// userConfigDirs lists the per-user directories searched for pack.toml and
// languages.yml.
func userConfigDirs() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".config", "pack")}
}

// loadOptions resolves flags, config file and defaults into options.
// Any error here is a fatal setup error.
func loadOptions(v *viper.Viper, args []string) (*options, error) {
	opts := &options{
		Inputs:         args,
		Filter:         defaultFilterConfig(),
		Workers:        v.GetInt("workers"),
		Languages:      v.GetString("lang"),
		GitIgnore:      v.GetBool("gitignore"),
		GitTracked:     v.GetBool("git_tracked"),
		HTMLToMarkdown: v.GetBool("html_markdown"),
		CountTokens:    v.GetBool("count_tokens"),
		Tokenizer: tokenizerOptions{
			Type:  v.GetString("tokenizer"),
			Model: v.GetString("model"),
			File:  v.GetString("tokenizer_file"),
		},
		Sink: SinkOptions{
			File:      v.GetString("file"),
			Clipboard: v.GetBool("clipboard"),
		},
		PDF:     v.GetString("pdf"),
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
	}
	if len(opts.Inputs) == 0 {
		opts.Inputs = []string{"."}
	}

	maxSize, err := parseSize(v.GetString("max_file_size"))
	if err != nil {
		return nil, fmt.Errorf("invalid --max-file-size value: %w", err)
	}
	opts.Filter.MaxFileSize = maxSize
	opts.Filter.Include = v.GetString("include")
	opts.Filter.Exclude = v.GetString("exclude")
	opts.Filter.SkipHidden = !v.GetBool("hidden")
	opts.Filter.SkipBinary = !v.GetBool("allow_binary")
	if err := opts.Filter.validate(); err != nil {
		return nil, err
	}

	if opts.Workers < 1 {
		return nil, fmt.Errorf("--workers must be at least 1, got %d", opts.Workers)
	}

	modes := 0
	opts.Mode = ModeContent
	if v.GetBool("paths_only") {
		opts.Mode = ModePathsOnly
		modes++
	}
	if v.GetBool("output_tokens_size_only") {
		opts.Mode = ModeMetrics
		modes++
	}
	if v.GetBool("tree") {
		opts.Mode = ModeTree
		modes++
	}
	if modes > 1 {
		return nil, errors.New("--paths-only, --output-tokens-size-only and --tree are mutually exclusive")
	}
	// Path-only modes must not open files, so binary detection falls back
	// to the extension table.
	opts.Filter.ProbeContent = opts.Mode.readsContent()

	if opts.PDF != "" && opts.Mode != ModeContent {
		return nil, errors.New("--pdf can only be used in content mode")
	}
	return opts, nil
}
