// Package progress reports byte-level progress of file transfers: the copies
// made by a sync run and the part files written by a split.
package progress

import (
	"sync"
	"time"
)

// Reporter receives progress events for a sequence of file transfers
type Reporter interface {
	// Start begins tracking a new transfer of totalBytes
	Start(path string, totalBytes int64)
	// Update reports the cumulative bytes moved for the current transfer
	Update(bytesTransferred int64)
	// Complete marks the current transfer as finished
	Complete()
	// Error reports a failure of the current transfer
	Error(err error)
	// SetTotal announces how many files and bytes the operation expects
	SetTotal(totalFiles int, totalBytes int64)
	// OverallProgress reports operation-wide progress
	OverallProgress(filesCompleted int, bytesCompleted int64)
}

// Callback receives progress updates
type Callback func(update Update)

// Update is a single progress event
type Update struct {
	Type           UpdateType
	CurrentFile    string
	CurrentBytes   int64
	CurrentTotal   int64
	FilesCompleted int
	FilesTotal     int
	BytesCompleted int64
	BytesTotal     int64
	BytesPerSecond float64
	Error          error
}

// UpdateType tells which Reporter method produced an Update
type UpdateType int

const (
	UpdateStart UpdateType = iota
	UpdateProgress
	UpdateComplete
	UpdateError
	UpdateOverall
)

func (t UpdateType) String() string {
	switch t {
	case UpdateStart:
		return "start"
	case UpdateProgress:
		return "progress"
	case UpdateComplete:
		return "complete"
	case UpdateError:
		return "error"
	case UpdateOverall:
		return "overall"
	default:
		return "unknown"
	}
}

// CallbackReporter turns Reporter calls into Updates passed to a callback.
// The callback runs outside the internal lock and may call back into the reporter.
type CallbackReporter struct {
	callback Callback

	mu             sync.Mutex
	currentFile    string
	currentTotal   int64
	currentBytes   int64
	filesTotal     int
	bytesTotal     int64
	filesCompleted int
	bytesCompleted int64
	startTime      time.Time
}

// NewCallbackReporter creates a CallbackReporter
func NewCallbackReporter(callback Callback) *CallbackReporter {
	return &CallbackReporter{callback: callback}
}

func (r *CallbackReporter) SetTotal(totalFiles int, totalBytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filesTotal = totalFiles
	r.bytesTotal = totalBytes
}

func (r *CallbackReporter) Start(path string, totalBytes int64) {
	r.mu.Lock()
	r.currentFile = path
	r.currentTotal = totalBytes
	r.currentBytes = 0
	r.startTime = time.Now()
	u := r.snapshot(UpdateStart)
	r.mu.Unlock()

	r.emit(u)
}

func (r *CallbackReporter) Update(bytesTransferred int64) {
	r.mu.Lock()
	r.currentBytes = bytesTransferred
	u := r.snapshot(UpdateProgress)
	u.BytesCompleted += bytesTransferred
	if elapsed := time.Since(r.startTime).Seconds(); elapsed > 0 {
		u.BytesPerSecond = float64(bytesTransferred) / elapsed
	}
	r.mu.Unlock()

	r.emit(u)
}

func (r *CallbackReporter) Complete() {
	r.mu.Lock()
	r.filesCompleted++
	r.bytesCompleted += r.currentTotal
	r.currentBytes = r.currentTotal
	u := r.snapshot(UpdateComplete)
	r.mu.Unlock()

	r.emit(u)
}

func (r *CallbackReporter) Error(err error) {
	r.mu.Lock()
	u := r.snapshot(UpdateError)
	u.CurrentBytes = 0
	u.CurrentTotal = 0
	u.Error = err
	r.mu.Unlock()

	r.emit(u)
}

func (r *CallbackReporter) OverallProgress(filesCompleted int, bytesCompleted int64) {
	r.mu.Lock()
	u := Update{
		Type:           UpdateOverall,
		FilesCompleted: filesCompleted,
		FilesTotal:     r.filesTotal,
		BytesCompleted: bytesCompleted,
		BytesTotal:     r.bytesTotal,
	}
	r.mu.Unlock()

	r.emit(u)
}

// snapshot must be called with r.mu held
func (r *CallbackReporter) snapshot(t UpdateType) Update {
	return Update{
		Type:           t,
		CurrentFile:    r.currentFile,
		CurrentBytes:   r.currentBytes,
		CurrentTotal:   r.currentTotal,
		FilesCompleted: r.filesCompleted,
		FilesTotal:     r.filesTotal,
		BytesCompleted: r.bytesCompleted,
		BytesTotal:     r.bytesTotal,
	}
}

func (r *CallbackReporter) emit(u Update) {
	if r.callback != nil {
		r.callback(u)
	}
}

// NullReporter discards all progress
type NullReporter struct{}

func (NullReporter) Start(string, int64)        {}
func (NullReporter) Update(int64)               {}
func (NullReporter) Complete()                  {}
func (NullReporter) Error(error)                {}
func (NullReporter) SetTotal(int, int64)        {}
func (NullReporter) OverallProgress(int, int64) {}

// Multi fans every call out to each non-nil reporter in order
func Multi(reporters ...Reporter) Reporter {
	var rs multiReporter
	for _, r := range reporters {
		if r != nil {
			rs = append(rs, r)
		}
	}
	if len(rs) == 0 {
		return NullReporter{}
	}
	if len(rs) == 1 {
		return rs[0]
	}
	return rs
}

type multiReporter []Reporter

func (m multiReporter) Start(path string, totalBytes int64) {
	for _, r := range m {
		r.Start(path, totalBytes)
	}
}

func (m multiReporter) Update(n int64) {
	for _, r := range m {
		r.Update(n)
	}
}

func (m multiReporter) Complete() {
	for _, r := range m {
		r.Complete()
	}
}

func (m multiReporter) Error(err error) {
	for _, r := range m {
		r.Error(err)
	}
}

func (m multiReporter) SetTotal(files int, bytes int64) {
	for _, r := range m {
		r.SetTotal(files, bytes)
	}
}

func (m multiReporter) OverallProgress(files int, bytes int64) {
	for _, r := range m {
		r.OverallProgress(files, bytes)
	}
}
