package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/repositories"
)

type ViewState string

const (
	StateLoading    ViewState = "loading"
	StateReady      ViewState = "ready"
	StateRestricted ViewState = "restricted"
	StateFailed     ViewState = "failed"
)

var ErrViewRestricted = errors.New("view is restricted; send retry after access is granted")

// LiveView is one client's subscription to a gated view. It moves
// loading -> ready on the first snapshot and to restricted on a permission
// error, where it stays, refusing writes, until Retry.
type LiveView struct {
	spec    ViewSpec
	views   *ViewService
	records *RecordService
	ctx     context.Context
	cancel  context.CancelFunc
	frames  chan Frame
	wg      sync.WaitGroup

	mu    sync.Mutex
	sess  models.Session
	state ViewState
	sub   *Subscription
}

// Open starts the view for the session. Frames are delivered until Close.
func (s *ViewService) Open(ctx context.Context, spec ViewSpec, sess models.Session, records *RecordService) *LiveView {
	ctx, cancel := context.WithCancel(ctx)
	v := &LiveView{
		spec:    spec,
		views:   s,
		records: records,
		ctx:     ctx,
		cancel:  cancel,
		frames:  make(chan Frame, 4),
		sess:    sess,
	}
	v.mu.Lock()
	v.startLocked()
	v.mu.Unlock()
	return v
}

func (v *LiveView) Frames() <-chan Frame { return v.frames }

func (v *LiveView) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *LiveView) Session() models.Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sess
}

func (v *LiveView) startLocked() {
	q, err := v.views.query(v.spec, &v.sess)
	if err != nil {
		v.state = StateRestricted
		if !repositories.IsPermissionDenied(err) {
			v.state = StateFailed
		}
		frame := v.frameFor(Snapshot{Err: err})
		v.sendAsync(frame)
		return
	}
	v.state = StateLoading
	sub := Subscribe(v.ctx, q.fetch, q.watch)
	v.sub = sub
	v.wg.Add(1)
	go v.pump(sub)
}

func (v *LiveView) stopLocked() {
	if v.sub != nil {
		v.sub.Close()
		v.sub = nil
	}
}

func (v *LiveView) pump(sub *Subscription) {
	defer v.wg.Done()
	for snap := range sub.Events() {
		v.mu.Lock()
		if v.sub != sub {
			v.mu.Unlock()
			return
		}
		if snap.Err != nil {
			v.state = StateFailed
			if repositories.IsPermissionDenied(snap.Err) {
				v.state = StateRestricted
			}
			v.sub = nil
		} else {
			v.state = StateReady
		}
		frame := v.frameFor(snap)
		v.mu.Unlock()
		v.send(frame)
	}
	sub.Close()
}

func (v *LiveView) frameFor(snap Snapshot) Frame {
	if snap.Err == nil {
		return Frame{Type: FrameSnapshot, View: v.spec.Name, Records: snap.Records, Count: snap.Count, Quarantined: snap.Quarantined}
	}
	if repositories.IsPermissionDenied(snap.Err) {
		return restrictedFrame(v.spec)
	}
	return Frame{Type: FrameError, View: v.spec.Name, Message: "The view could not be loaded. Send retry to try again."}
}

func (v *LiveView) send(f Frame) {
	select {
	case v.frames <- f:
	case <-v.ctx.Done():
	}
}

func (v *LiveView) sendAsync(f Frame) {
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		v.send(f)
	}()
}

// Retry resubscribes a restricted or failed view. It is a no-op otherwise.
func (v *LiveView) Retry() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ctx.Err() != nil || (v.state != StateRestricted && v.state != StateFailed) {
		return
	}
	v.stopLocked()
	v.startLocked()
}

// SetRole adopts a role edited while the view is open and re-checks access.
func (v *LiveView) SetRole(role models.Role) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ctx.Err() != nil || v.sess.Role == role {
		return
	}
	v.sess.Role = role
	v.sendAsync(Frame{Type: FrameRole, View: v.spec.Name, Role: role})
	v.stopLocked()
	v.startLocked()
}

func (v *LiveView) writable() (models.Session, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == StateRestricted {
		return models.Session{}, ErrViewRestricted
	}
	return v.sess, nil
}

func (v *LiveView) Create(ctx context.Context, data json.RawMessage) (any, error) {
	sess, err := v.writable()
	if err != nil {
		return nil, err
	}
	return v.records.Create(ctx, v.spec.Name, &sess, data)
}

func (v *LiveView) Delete(ctx context.Context, id string) error {
	sess, err := v.writable()
	if err != nil {
		return err
	}
	return v.records.Delete(ctx, v.spec.Name, &sess, id)
}

func (v *LiveView) UpdateRole(ctx context.Context, email string, role models.Role) error {
	sess, err := v.writable()
	if err != nil {
		return err
	}
	return v.records.UpdateRole(ctx, &sess, email, role)
}

// Close releases the subscription. Frames is closed once every sender is done.
func (v *LiveView) Close() {
	v.cancel()
	v.mu.Lock()
	v.stopLocked()
	v.mu.Unlock()
	v.wg.Wait()
	close(v.frames)
}
