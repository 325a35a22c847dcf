// Package upload moves session data between the host PC, the local data
// root and the remote archive using rsync or scp, and records every attempt
// in the upload log.
package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/japaniel/ramtools/pkg/config"
	"github.com/japaniel/ramtools/pkg/datadir"
	"github.com/japaniel/ramtools/pkg/db"
	"github.com/japaniel/ramtools/pkg/shell"
	"go.uber.org/zap"
)

// Kind labels an upload log entry.
type Kind string

const (
	KindHost       Kind = "host"
	KindExperiment Kind = "experiment"
	KindManifest   Kind = "manifest"
	KindImaging    Kind = "imaging"
	KindClinical   Kind = "clinical"
)

// ManifestName is the file name the log listing is uploaded under.
const ManifestName = "log_manifest.txt"

// ErrNoSource is returned when a local source path is missing.
var ErrNoSource = errors.New("source path does not exist")

// Uploader transfers data for a single subject.
type Uploader struct {
	Subject string
	// HostPC and Transferred are rsync/scp style locations ("user@host:/dir" or a local dir).
	HostPC      string
	Transferred string
	DataRoot    string
	Transport   string
	Workers     int

	Runner shell.Runner
	// Log receives every transfer attempt; nil disables the upload log.
	Log    Recorder
	Logger *zap.Logger
	Now    func() time.Time
}

// Recorder persists upload attempts. *db.UploadLog implements it.
type Recorder interface {
	Record(u db.Upload) error
}

// New builds an Uploader from the loaded configuration.
func New(subject string, cfg *config.Config, dataRoot string, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{
		Subject:     subject,
		HostPC:      cfg.HostPCRemote(),
		Transferred: cfg.TransferredRemote(),
		DataRoot:    dataRoot,
		Transport:   cfg.Upload.Transport,
		Workers:     cfg.Upload.Workers,
		Runner:      shell.ExecRunner{},
		Logger:      logger,
		Now:         time.Now,
	}
}

func (u *Uploader) now() time.Time {
	if u.Now == nil {
		return time.Now()
	}
	return u.Now()
}

func (u *Uploader) logger() *zap.Logger {
	if u.Logger == nil {
		return zap.NewNop()
	}
	return u.Logger
}

// Rsync copies the contents of src into dest.
func (u *Uploader) Rsync(ctx context.Context, src, dest string) error {
	_, err := u.Runner.Run(ctx, "rsync", "-az", contentsOf(src, "/"), dest)
	return err
}

// Scp copies the contents of src into dest.
func (u *Uploader) Scp(ctx context.Context, src, dest string) error {
	_, err := u.Runner.Run(ctx, "scp", "-rpq", contentsOf(src, "/."), dest)
	return err
}

// Sync copies with the configured transport.
func (u *Uploader) Sync(ctx context.Context, src, dest string) error {
	switch u.Transport {
	case "", "rsync":
		return u.Rsync(ctx, src, dest)
	case "scp":
		return u.Scp(ctx, src, dest)
	}
	return fmt.Errorf("unknown transport %q", u.Transport)
}

// contentsOf addresses a local directory's contents rather than the
// directory itself. Files and remote paths pass through unchanged.
func contentsOf(src, suffix string) string {
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return src
	}
	return strings.TrimRight(src, "/") + suffix
}

func (u *Uploader) transfer(ctx context.Context, kind Kind, experiment string, session int, src, dest string) error {
	started := u.now()
	err := u.Sync(ctx, src, dest)
	entry := db.Upload{
		Subject:    u.Subject,
		Experiment: experiment,
		Session:    session,
		Kind:       string(kind),
		Src:        src,
		Dest:       dest,
		Success:    err == nil,
		StartedAt:  started,
		FinishedAt: u.now(),
	}
	fields := []zap.Field{
		zap.String("subject", u.Subject),
		zap.String("kind", string(kind)),
		zap.String("src", src),
		zap.String("dest", dest),
	}
	if err != nil {
		entry.Message = err.Error()
		u.logger().Error("transfer failed", append(fields, zap.Error(err))...)
	} else {
		u.logger().Info("transfer complete", fields...)
	}
	if u.Log != nil {
		if logErr := u.Log.Record(entry); logErr != nil {
			u.logger().Warn("failed to record upload", zap.Error(logErr))
		}
	}
	if err != nil {
		return fmt.Errorf("%s transfer %s -> %s: %w", kind, src, dest, err)
	}
	return nil
}

// joinRemote appends elems to a local or host:path location.
func joinRemote(base string, elems ...string) string {
	if host, p, ok := strings.Cut(base, ":"); ok && !filepath.IsAbs(base) {
		return host + ":" + path.Join(append([]string{p}, elems...)...)
	}
	return filepath.Join(append([]string{base}, elems...)...)
}

func sessionDirName(session int) string {
	return "session_" + strconv.Itoa(session)
}

// SessionDir is the local session directory under DataRoot.
func (u *Uploader) SessionDir(experiment string, session int) string {
	return datadir.SessionPath(u.DataRoot, u.Subject, experiment, session)
}

// TransferHostData pulls a session from the host PC into the local data root.
func (u *Uploader) TransferHostData(ctx context.Context, experiment string, session int) error {
	src := joinRemote(u.HostPC, experiment, u.Subject, sessionDirName(session))
	dest := u.SessionDir(experiment, session)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	return u.transfer(ctx, KindHost, experiment, session, src, dest)
}

// UploadExperimentData transfers host data for the session, then uploads the
// session directory and its log listing. dest defaults to
// <transferred>/<subject>/<experiment>/session_N.
func (u *Uploader) UploadExperimentData(ctx context.Context, experiment string, session int, dest string) error {
	if dest == "" {
		dest = joinRemote(u.Transferred, u.Subject, experiment, sessionDirName(session))
	}
	if err := u.TransferHostData(ctx, experiment, session); err != nil {
		return err
	}

	sessionDir := u.SessionDir(experiment, session)
	manifest, cleanup, err := writeManifest(sessionDir)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	pool := NewWorkerPool(u.Workers, 2)
	pool.Start(ctx)

	var mu sync.Mutex
	var errs []error
	record := func(err error) {
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}

	jobs := []Job{
		func(ctx context.Context) error {
			err := u.transfer(ctx, KindExperiment, experiment, session, sessionDir, dest)
			record(err)
			return err
		},
		func(ctx context.Context) error {
			err := u.transfer(ctx, KindManifest, experiment, session, manifest, joinRemote(dest, ManifestName))
			record(err)
			return err
		},
	}
	for _, job := range jobs {
		if err := pool.SubmitCtx(ctx, job); err != nil {
			record(err)
		}
	}
	pool.Close()
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// writeManifest lists the session's log files into a temporary file.
func writeManifest(sessionDir string) (string, func(), error) {
	names, err := datadir.LogListing(sessionDir)
	if err != nil {
		return "", nil, fmt.Errorf("list logs in %s: %w", sessionDir, err)
	}
	tmp, err := os.MkdirTemp("", "ramtools-manifest-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(tmp) }
	p := filepath.Join(tmp, ManifestName)
	body := strings.Join(names, "\n")
	if body != "" {
		body += "\n"
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		cleanup()
		return "", nil, err
	}
	return p, cleanup, nil
}

// UploadImaging uploads an imaging directory. dest defaults to
// <transferred>/<subject>/imaging.
func (u *Uploader) UploadImaging(ctx context.Context, src, dest string) error {
	return u.uploadLocal(ctx, KindImaging, src, dest, "imaging")
}

// UploadClinicalEEG uploads clinical EEG. dest defaults to
// <transferred>/<subject>/clinical_eeg.
func (u *Uploader) UploadClinicalEEG(ctx context.Context, src, dest string) error {
	return u.uploadLocal(ctx, KindClinical, src, dest, "clinical_eeg")
}

func (u *Uploader) uploadLocal(ctx context.Context, kind Kind, src, dest, defaultDir string) error {
	if strings.TrimSpace(src) == "" {
		return fmt.Errorf("%s upload: %w: empty path", kind, ErrNoSource)
	}
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("%s upload: %w: %s", kind, ErrNoSource, src)
	}
	if dest == "" {
		dest = joinRemote(u.Transferred, u.Subject, defaultDir)
	}
	return u.transfer(ctx, kind, "", -1, src, dest)
}
