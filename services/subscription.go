package services

import (
	"context"
	"sync"

	"github.com/abs-valuers/abs_backend/repositories"
)

// Snapshot is the full record set of a live query at one point in time.
type Snapshot struct {
	Records     any
	Count       int
	Quarantined int
	Err         error
}

type FetchFunc func(ctx context.Context) (records any, count, quarantined int, err error)

type WatchFunc func(ctx context.Context) (repositories.ChangeStream, error)

// Subscription re-runs a query every time its collection changes and
// delivers the complete result. After an error it stops and closes Events.
type Subscription struct {
	events chan Snapshot
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func Subscribe(ctx context.Context, fetch FetchFunc, watch WatchFunc) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		events: make(chan Snapshot, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx, fetch, watch)
	return s
}

func (s *Subscription) Events() <-chan Snapshot { return s.events }

// Close stops the subscription and waits for its goroutine to exit.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

func (s *Subscription) run(ctx context.Context, fetch FetchFunc, watch WatchFunc) {
	defer close(s.done)
	defer close(s.events)

	// The stream is opened before the first fetch so no change falls in between.
	stream, err := watch(ctx)
	if err != nil {
		s.emit(ctx, Snapshot{Err: err})
		return
	}
	defer stream.Close(context.Background())

	if !s.push(ctx, fetch) {
		return
	}
	for stream.Next(ctx) {
		if !s.push(ctx, fetch) {
			return
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		s.emit(ctx, Snapshot{Err: err})
	}
}

func (s *Subscription) push(ctx context.Context, fetch FetchFunc) bool {
	records, count, quarantined, err := fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.emit(ctx, Snapshot{Err: err})
		}
		return false
	}
	return s.emit(ctx, Snapshot{Records: records, Count: count, Quarantined: quarantined})
}

func (s *Subscription) emit(ctx context.Context, snap Snapshot) bool {
	select {
	case s.events <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
