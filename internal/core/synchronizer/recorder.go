package synchronizer

import (
	"context"

	"github.com/Ning0612/fstools/internal/domain"
)

// Recorder receives one event per file visited by Sync. A non-nil error
// aborts the synchronization and is returned from Sync unchanged.
type Recorder interface {
	Record(event domain.SyncEvent) error
}

// RecorderFunc adapts a function to Recorder
type RecorderFunc func(event domain.SyncEvent) error

func (f RecorderFunc) Record(event domain.SyncEvent) error {
	return f(event)
}

// ChannelRecorder sends events to a channel, blocking until the receiver
// takes each one or ctx is done
type ChannelRecorder struct {
	ctx context.Context
	ch  chan<- domain.SyncEvent
}

// NewChannelRecorder creates a ChannelRecorder writing to ch
func NewChannelRecorder(ctx context.Context, ch chan<- domain.SyncEvent) *ChannelRecorder {
	return &ChannelRecorder{ctx: ctx, ch: ch}
}

func (r *ChannelRecorder) Record(event domain.SyncEvent) error {
	select {
	case r.ch <- event:
		return nil
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
}

type nopRecorder struct{}

func (nopRecorder) Record(domain.SyncEvent) error { return nil }
