package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrUploadLogClosed is returned by Record after Close.
var ErrUploadLogClosed = errors.New("upload log closed")

// UploadLog buffers upload records and writes them in batches, one
// transaction per batch, from a single committer goroutine. Concurrent
// transfer jobs record through it without contending for the connection.
type UploadLog struct {
	mu          sync.Mutex
	buf         []Upload
	cap         int
	flushTicker *time.Ticker
	closed      bool
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc

	commitCh chan []Upload
	conn     *sql.DB
	OnError  func(error)

	// firstErr is the first asynchronous failure. Protected by errMu.
	errMu    sync.Mutex
	firstErr error
	written  int
}

// NewUploadLog starts a log writing to conn.
// batchSize: commit when this many records are buffered.
// flushInterval: also commit on this period (0 to disable).
func NewUploadLog(conn *sql.DB, batchSize int, flushInterval time.Duration) *UploadLog {
	if batchSize <= 0 {
		batchSize = 8
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &UploadLog{
		buf:      make([]Upload, 0, batchSize),
		cap:      batchSize,
		ctx:      ctx,
		cancel:   cancel,
		commitCh: make(chan []Upload, 2),
		conn:     conn,
	}

	l.wg.Add(1)
	go l.committer()

	if flushInterval > 0 {
		l.flushTicker = time.NewTicker(flushInterval)
		l.wg.Add(1)
		go l.loop()
	}
	return l
}

// Record validates u and queues it for the next batch.
func (l *UploadLog) Record(u Upload) error {
	if err := validateUpload(u); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrUploadLogClosed
	}
	l.buf = append(l.buf, u)
	if len(l.buf) >= l.cap {
		l.flushLocked()
	}
	return nil
}

// Written is the number of records committed so far.
func (l *UploadLog) Written() int {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	return l.written
}

// flushLocked assumes l.mu is held. A full commit queue blocks Record,
// which is the backpressure on fast producers.
func (l *UploadLog) flushLocked() {
	if len(l.buf) == 0 {
		return
	}
	batch := l.buf
	l.buf = make([]Upload, 0, l.cap)

	select {
	case l.commitCh <- batch:
	case <-l.ctx.Done():
		l.fail(fmt.Errorf("upload log: dropping %d records after shutdown", len(batch)))
	}
}

func (l *UploadLog) fail(err error) {
	l.errMu.Lock()
	if l.firstErr == nil {
		l.firstErr = err
	}
	l.errMu.Unlock()
	if l.OnError != nil {
		l.OnError(err)
	}
}

func (l *UploadLog) committer() {
	defer l.wg.Done()
	for batch := range l.commitCh {
		if err := l.commit(batch); err != nil {
			l.fail(err)
			continue
		}
		l.errMu.Lock()
		l.written += len(batch)
		l.errMu.Unlock()
	}
}

func (l *UploadLog) commit(batch []Upload) error {
	// Background context so batches queued before Close still land.
	tx, err := l.conn.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("upload log: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	for _, u := range batch {
		if _, err := RecordUpload(tx, u); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upload log: commit %d records: %w", len(batch), err)
	}
	return nil
}

func (l *UploadLog) loop() {
	defer l.wg.Done()
	for {
		select {
		case <-l.ctx.Done():
			return
		case <-l.flushTicker.C:
			l.mu.Lock()
			l.flushLocked()
			l.mu.Unlock()
		}
	}
}

// Close commits anything buffered, stops the writer and returns the first
// error seen while writing.
func (l *UploadLog) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrUploadLogClosed
	}
	l.closed = true
	if l.flushTicker != nil {
		l.flushTicker.Stop()
	}
	l.flushLocked()
	l.mu.Unlock()

	l.cancel()
	close(l.commitCh)
	l.wg.Wait()

	l.errMu.Lock()
	defer l.errMu.Unlock()
	return l.firstErr
}
