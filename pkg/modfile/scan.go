// SPDX-License-Identifier: MPL-2.0

package modfile

import (
	"context"
	"sync"

	"github.com/modloader/modloader/pkg/scan"
)

// scanCell holds the terminal scan outcome. It is set once; settled is
// closed after the outcome is written, so readers that observe the close see it.
type scanCell struct {
	once    *sync.Once
	settled chan struct{}
	data    *scan.Data
	err     error
}

func newScanCell() scanCell {
	return scanCell{once: new(sync.Once), settled: make(chan struct{})}
}

func (c *scanCell) set(data *scan.Data, err error) bool {
	ok := false
	c.once.Do(func() {
		c.data, c.err = data, err
		close(c.settled)
		ok = true
	})
	return ok
}

func (c *scanCell) peek() (bool, error) {
	select {
	case <-c.settled:
		return true, c.err
	default:
		return false, nil
	}
}

// CompileContent enumerates the classes and resources of the archive. It is
// CPU bound and meant to run off the identification path.
func (f *ModFile) CompileContent(ctx context.Context) (*scan.Data, error) {
	return f.scanner.Scan(ctx, f.jar.FS())
}

// SetFutureScanResult registers the pending scan of the archive. Only one
// scan may ever be requested per archive. A nil pending counts as a scan that
// already finished.
func (f *ModFile) SetFutureScanResult(pending *scan.Future) error {
	if pending == nil {
		pending = scan.CompletedFuture()
	}

	f.scanMu.Lock()
	defer f.scanMu.Unlock()
	if f.scanRequested {
		return ErrScanAlreadyRequested
	}
	f.scanRequested = true
	f.registerPendingLocked(pending)
	return nil
}

// registerPendingLocked must be called with scanMu held.
func (f *ModFile) registerPendingLocked(pending *scan.Future) {
	if settled, _ := f.result.peek(); settled {
		return
	}
	f.pendingScan = pending
}

// SetScanResult commits the terminal scan outcome and clears the pending scan.
func (f *ModFile) SetScanResult(data *scan.Data, err error) error {
	f.scanMu.Lock()
	defer f.scanMu.Unlock()
	if !f.result.set(data, err) {
		return ErrScanAlreadySettled
	}
	f.pendingScan = nil
	return nil
}

// ScanResult blocks until the pending scan, if any, completes and returns its
// outcome. There is no timeout. After a failed scan every call returns a new
// UnexpectedScanFailureError wrapping the cause. A pending scan that finishes
// without committing a result is recorded as a failure.
func (f *ModFile) ScanResult() (*scan.Data, error) {
	f.scanMu.Lock()
	pending := f.pendingScan
	f.scanMu.Unlock()

	if pending != nil {
		pending.Wait()
		f.scanMu.Lock()
		if f.result.set(nil, errScanNotSettled) {
			f.logger.Error("caught unexpected failure processing scan results", "file", f.FileName())
		}
		f.pendingScan = nil
		f.scanMu.Unlock()
	}

	settled, err := f.result.peek()
	switch {
	case !settled:
		return nil, ErrScanNotRequested
	case err != nil:
		return nil, &UnexpectedScanFailureError{File: f.FileName(), Err: err}
	}

	return f.result.data, nil
}

// SubmitScan schedules the content scan of f on pool and registers it as the
// pending scan. It never blocks on the scan itself.
func SubmitScan(ctx context.Context, pool *scan.Pool, f *ModFile) error {
	f.scanMu.Lock()
	defer f.scanMu.Unlock()
	if f.scanRequested {
		return ErrScanAlreadyRequested
	}
	f.scanRequested = true

	// The task settles through SetScanResult, which waits for scanMu, so the
	// pending scan is always registered first.
	pending := pool.Submit(ctx, func(ctx context.Context) {
		data, err := f.CompileContent(ctx)
		if err != nil {
			f.logger.Error("failed to scan mod file", "file", f.Path(), "error", err)
		} else {
			f.logger.Debug("scanned mod file", "file", f.Path(), "classes", len(data.Classes()))
		}
		if setErr := f.SetScanResult(data, err); setErr != nil {
			f.logger.Warn("scan result already set", "file", f.Path())
		}
	})
	f.registerPendingLocked(pending)

	return nil
}
