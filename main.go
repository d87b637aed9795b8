package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	// A reader closing the pipe early (pack | head) surfaces as EPIPE on
	// write instead of killing the process.
	signal.Ignore(syscall.SIGPIPE)

	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "pack [PATHS...]",
		Short: "Pack a tree of text files into one LLM-ready document",
		Long: `pack walks the given files and directories, keeps the text files that pass
the filters and writes them as a single document, each file preceded by a
'>>>> <path>' marker line. Files appear in a stable order sorted by path, so
identical inputs always produce identical output.

Output goes to --file, the clipboard, output.txt when stdout is a terminal,
or stdout otherwise.`,
		Example: `  pack
  pack src -i '*.go' -e '*_test.go'
  pack . --paths-only | fzf
  pack -t --model gpt-4o`,
		Args: cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			if err := readConfigFile(v, cfgFile); err != nil {
				return err
			}
			logger = newLogger(os.Stderr, v.GetBool("verbose"), v.GetBool("quiet"))
			if used := v.ConfigFileUsed(); used != "" {
				logger.Debugw("using config file", "path", used)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer func() { _ = logger.Sync() }()

			opts, err := loadOptions(v, args)
			if err != nil {
				return err
			}
			opts.Interactive, _ = cmd.Flags().GetBool("interactive")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, os.Stdout, os.Stderr)
		},
	}
	registerFlags(cmd, v)
	return cmd
}
