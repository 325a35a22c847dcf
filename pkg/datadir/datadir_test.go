package datadir

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	out  string
	err  error
	args [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.args = append(f.args, append([]string{name}, args...))
	return []byte(f.out), f.err
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func buildTree(t *testing.T) string {
	root := t.TempDir()
	touch(t, filepath.Join(SessionPath(root, "R1111M", "FR1", 0), "session.log"))
	touch(t, filepath.Join(SessionPath(root, "R1111M", "FR1", 2), "eeg.eeglog"))
	touch(t, filepath.Join(SessionPath(root, "R1111M", "FR1", 3), "notes.txt"))
	touch(t, filepath.Join(SessionPath(root, "R1111M", "catFR1", 0), "session.log"))
	touch(t, filepath.Join(SessionPath(root, "R2222J", "FR1", 0), "session.log"))
	touch(t, filepath.Join(root, ".git", "R9999X", "ignored"))
	touch(t, filepath.Join(root, "README"))
	return root
}

func TestCrawl(t *testing.T) {
	root := buildTree(t)
	c := NewCrawler(zap.NewNop())
	subjects, err := c.Crawl(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"R1111M": {"FR1", "catFR1"},
		"R2222J": {"FR1"},
	}, subjects)
}

func TestSessions(t *testing.T) {
	root := buildTree(t)
	c := NewCrawler(nil)
	sessions, err := c.Sessions(context.Background(), "R1111M", "FR1", root)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, sessions)

	sessions, err = c.Sessions(context.Background(), "R0000X", "FR1", root)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestDataPathFromWorktree(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "data"), 0o755))
	r := &fakeRunner{out: repo + "  abc1234 [main]\n"}
	c := &Crawler{Runner: r}

	got, err := c.DataPath(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(repo, "data"), got)
	assert.Equal(t, [][]string{{"git", "worktree", "list"}}, r.args)
}

func TestDataPathErrors(t *testing.T) {
	c := &Crawler{Runner: &fakeRunner{err: errors.New("not a git repository")}}
	_, err := c.DataPath(context.Background(), "")
	require.Error(t, err)

	c = &Crawler{Runner: &fakeRunner{}}
	_, err = c.DataPath(context.Background(), "")
	require.Error(t, err)

	_, err = c.DataPath(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, ErrNoDataPath)
}

func TestLogListing(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "session.log"))
	touch(t, filepath.Join(dir, "a.eeglog"))
	touch(t, filepath.Join(dir, "readme.txt"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub.log"), 0o755))

	names, err := LogListing(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.eeglog", "session.log"}, names)
}

func TestExpireTransferred(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	old := filepath.Join(dir, "old_session")
	fresh := filepath.Join(dir, "fresh_session")
	touch(t, filepath.Join(old, "eeg.bin"))
	touch(t, filepath.Join(fresh, "eeg.bin"))
	require.NoError(t, os.Chtimes(old, now.Add(-40*24*time.Hour), now.Add(-40*24*time.Hour)))

	removed, err := ExpireTransferred(dir, 30, now, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"old_session"}, removed)
	assert.NoDirExists(t, old)
	assert.DirExists(t, fresh)
}
