package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"data-pipeline/internal/config"
	"data-pipeline/internal/repository"
	"data-pipeline/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := execute(ctx, os.Args[1:], os.Stderr)
	cancel()
	os.Exit(code)
}

// execute runs the command and maps the outcome to an exit status
func execute(ctx context.Context, args []string, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	var usageErr *UsageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &usageErr):
		fmt.Fprintln(stderr, usageErr.Error())
		return 2
	default:
		return 1
	}
}

func newRootCmd() *cobra.Command {
	var parsed Args

	cmd := &cobra.Command{
		Use:   "process_data <messages_csv> <categories_csv> <output_db>",
		Short: "Merge, clean and store the disaster response messages dataset",
		Long: `process_data joins the messages and categories CSV files on id,
expands the categories column into one binary column per category, removes
duplicates and rows with related == 2, and replaces the Messages table of the
output SQLite database with the result.`,
		Args: func(cmd *cobra.Command, args []string) error {
			a, err := ParseArgs(args)
			if err != nil {
				return err
			}
			parsed = a
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), parsed)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, _ error) error {
		return &UsageError{}
	})
	return cmd
}

func run(ctx context.Context, args Args) error {
	cfg, err := config.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return err
	}

	logger, err := newLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	openRepo := func(dbPath string) (service.TableWriter, error) {
		repo, err := repository.NewMessageRepository(dbPath, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}

	processor := service.NewProcessor(openRepo, cfg.TableName, cfg.CleanerOptions(), logger)

	if _, err := processor.Run(ctx, service.Request{
		MessagesPath:   args.MessagesPath,
		CategoriesPath: args.CategoriesPath,
		DatabasePath:   args.DatabasePath,
	}); err != nil {
		logger.Error("Processing failed", zap.Error(err))
		return err
	}
	return nil
}

// newLogger builds a development logger, or a production one for "json"
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}
