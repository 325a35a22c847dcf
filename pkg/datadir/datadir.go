// Package datadir discovers subjects, experiments and sessions in an
// experiment data tree laid out as <root>/<experiment>/<subject>/session_N.
package datadir

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/japaniel/ramtools/pkg/shell"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxSessions bounds the session numbers that are probed.
const MaxSessions = 20

// LogPattern matches the session log files that mark a session as present.
const LogPattern = "*.*log"

// ErrNoDataPath is returned when the resolved data directory does not exist.
var ErrNoDataPath = errors.New("data path does not exist")

// Crawler resolves the data root and walks it.
type Crawler struct {
	Runner shell.Runner
	Logger *zap.Logger
	// Concurrency bounds parallel experiment directory reads.
	Concurrency int
}

// NewCrawler returns a Crawler backed by os/exec.
func NewCrawler(logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{Runner: shell.ExecRunner{}, Logger: logger, Concurrency: 4}
}

func (c *Crawler) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// DataPath returns path made absolute, or <git worktree root>/data when path
// is empty. The directory must exist.
func (c *Crawler) DataPath(ctx context.Context, path string) (string, error) {
	var found string
	if strings.TrimSpace(path) == "" {
		out, err := c.Runner.Run(ctx, "git", "worktree", "list")
		if err != nil {
			return "", fmt.Errorf("locate worktree: %w", err)
		}
		fields := strings.Fields(string(bytes.TrimSpace(out)))
		if len(fields) == 0 {
			return "", fmt.Errorf("locate worktree: empty git worktree list output")
		}
		found = filepath.Join(fields[0], "data")
	} else {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		found = abs
	}
	if info, err := os.Stat(found); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNoDataPath, found)
	}
	c.logger().Debug("data path", zap.String("path", found))
	return found, nil
}

// Crawl maps each subject to the experiments it has data for. Hidden
// experiment directories are skipped. Experiments are sorted per subject.
func (c *Crawler) Crawl(ctx context.Context, path string) (map[string][]string, error) {
	root, err := c.DataPath(ctx, path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	subjects := make(map[string][]string)

	g, gctx := errgroup.WithContext(ctx)
	limit := c.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)
	for _, e := range entries {
		exp := e.Name()
		if !e.IsDir() || strings.HasPrefix(exp, ".") {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sdirs, err := os.ReadDir(filepath.Join(root, exp))
			if err != nil {
				return fmt.Errorf("read experiment %s: %w", exp, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, s := range sdirs {
				if !s.IsDir() || strings.HasPrefix(s.Name(), ".") {
					continue
				}
				subjects[s.Name()] = append(subjects[s.Name()], exp)
				c.logger().Info("found experiment", zap.String("subject", s.Name()), zap.String("experiment", exp))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, exps := range subjects {
		sort.Strings(exps)
	}
	return subjects, nil
}

// Sessions returns the session numbers below MaxSessions that contain at
// least one log file.
func (c *Crawler) Sessions(ctx context.Context, subject, experiment, path string) ([]int, error) {
	root, err := c.DataPath(ctx, path)
	if err != nil {
		return nil, err
	}
	var sessions []int
	for n := 0; n < MaxSessions; n++ {
		logs, err := filepath.Glob(filepath.Join(SessionPath(root, subject, experiment, n), LogPattern))
		if err != nil {
			return nil, err
		}
		if len(logs) > 0 {
			sessions = append(sessions, n)
		}
	}
	return sessions, nil
}

// SessionPath is <root>/<experiment>/<subject>/session_<n>.
func SessionPath(root, subject, experiment string, session int) string {
	return filepath.Join(root, experiment, subject, "session_"+strconv.Itoa(session))
}

// LogListing returns the log files directly inside dir, sorted by name.
func LogListing(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, LogPattern))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		out = append(out, filepath.Base(m))
	}
	sort.Strings(out)
	return out, nil
}

// ExpireTransferred removes entries of dir whose modification time is more
// than lifetimeDays days before now, returning the removed names.
func ExpireTransferred(dir string, lifetimeDays int, now time.Time, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			return removed, err
		}
		days := int(now.Sub(info.ModTime()).Hours() / 24)
		if days <= lifetimeDays {
			continue
		}
		full := filepath.Join(dir, e.Name())
		logger.Info("removing transferred data", zap.String("path", full), zap.Int("age_days", days))
		if err := os.RemoveAll(full); err != nil {
			return removed, fmt.Errorf("remove %s: %w", full, err)
		}
		removed = append(removed, e.Name())
	}
	return removed, nil
}
