package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/japaniel/ramtools/pkg/config"
	"github.com/japaniel/ramtools/pkg/db"
	"github.com/japaniel/ramtools/pkg/prompt"
	"github.com/japaniel/ramtools/pkg/shell"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app carries global flags and the dependencies commands share.
type app struct {
	configPath string
	dbPath     string
	verbose    bool

	logger   *zap.Logger
	cfg      *config.Config
	runner   shell.Runner
	prompter prompt.Prompter
	now      func() time.Time
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd(&app{})
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "ramtools",
		Short: "Word list generation and data upload for RAM memory experiments",
		Long: `ramtools builds the randomized word lists presented during free recall
sessions and moves recorded session data from the host PC to the archive.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger == nil {
				zc := zap.NewProductionConfig()
				if a.verbose {
					zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
				}
				logger, err := zc.Build()
				if err != nil {
					return fmt.Errorf("failed to initialize logger: %w", err)
				}
				a.logger = logger
			}
			if a.cfg == nil {
				cfg, err := config.Load(config.ResolvePath(a.configPath))
				if err != nil {
					return err
				}
				a.cfg = cfg
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to ramtools.yaml (default $RAMTOOLS_CONFIG or ./ramtools.yaml)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "Path to SQLite database (overrides config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newListgenCmd(a),
		newPoolsCmd(a),
		newUploadCmd(a),
		newCrawlCmd(a),
		newExpireCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) openDB() (*sql.DB, error) {
	path := a.dbPath
	if path == "" {
		path = a.cfg.Database
	}
	conn, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	a.logger.Debug("database opened", zap.String("path", path))
	return conn, nil
}

func (a *app) shellRunner() shell.Runner {
	if a.runner == nil {
		return shell.ExecRunner{}
	}
	return a.runner
}

func (a *app) clock() time.Time {
	if a.now == nil {
		return time.Now()
	}
	return a.now()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
