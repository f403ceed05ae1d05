package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	task "github.com/goliatone/go-task"
)

type cliOptions struct {
	verbose bool
	quiet   bool
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := 0
	cmd := newRootCommand(&code)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return code
}

func newRootCommand(code *int) *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:           "task [task ...]",
		Short:         "Run project tasks and their dependencies",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newRunner(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			// Run logs its own failures; the exit code carries the outcome.
			*code, _ = runner.Run(cmd.Context(), args)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable trace logging")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "disable logging")

	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		runner, err := newRunner(c.Context(), opts, c.OutOrStdout(), c.ErrOrStderr())
		if err != nil {
			fmt.Fprintln(c.ErrOrStderr(), err)
			*code = 1
			return
		}
		if err := runner.Usage(); err != nil {
			fmt.Fprintln(c.ErrOrStderr(), err)
		}
	})

	return cmd
}

func newRunner(ctx context.Context, opts *cliOptions, stdout, stderr io.Writer) (*task.Runner, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	root, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	if err := task.ApplyEnvLayers(root, task.DefaultEnvLayers); err != nil {
		return nil, err
	}

	provider, err := loggerProvider(opts, stderr)
	if err != nil {
		return nil, err
	}

	runner := task.NewRunner(
		task.WithRootDir(root),
		task.WithLoggerProvider(provider),
		task.WithRunID(uuid.NewString()),
		task.WithOutput(stdout),
		task.WithSourceProvider(
			task.NewFileSystemSourceProvider(root).WithIgnoreGlobs(task.DefaultIgnoreGlobs...),
		),
	)

	if err := runner.Load(ctx); err != nil {
		return nil, err
	}
	return runner, nil
}

func loggerProvider(opts *cliOptions, stderr io.Writer) (task.LoggerProvider, error) {
	level, err := task.ParseLogLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}
	switch {
	case opts.quiet:
		level = task.LevelQuiet
	case opts.verbose:
		level = task.LevelTrace
	}

	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "pretty") {
		return task.NewPrettyLoggerProvider("task", level), nil
	}

	return task.NewStdLoggerProvider(
		task.WithStdLoggerWriter(stderr),
		task.WithStdLoggerMinLevel(level),
		task.WithStdLoggerColor(!color.NoColor),
	), nil
}
