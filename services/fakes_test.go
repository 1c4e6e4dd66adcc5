package services

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/repositories"
)

func quietLogger() echo.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

// fakeStream reports one change per value sent on changes.
type fakeStream struct {
	changes chan struct{}
	err     error
	closed  chan struct{}
	once    sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{changes: make(chan struct{}), closed: make(chan struct{})}
}

func (s *fakeStream) Next(ctx context.Context) bool {
	select {
	case _, ok := <-s.changes:
		return ok
	case <-ctx.Done():
		return false
	}
}

func (s *fakeStream) Err() error { return s.err }

func (s *fakeStream) Close(context.Context) error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type fakePerms struct {
	mu        sync.Mutex
	records   map[string]*models.UserPermission
	getErr    error
	ensureErr error
	touches   int
	stream    *fakeStream
}

func newFakePerms(records ...models.UserPermission) *fakePerms {
	f := &fakePerms{records: make(map[string]*models.UserPermission), stream: newFakeStream()}
	for i := range records {
		r := records[i]
		f.records[r.Email] = &r
	}
	return f
}

func (f *fakePerms) Get(_ context.Context, email string) (*models.UserPermission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.records[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePerms) EnsureClient(_ context.Context, id models.Identity, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ensureErr != nil {
		return false, f.ensureErr
	}
	if _, ok := f.records[id.Email]; ok {
		return false, nil
	}
	f.records[id.Email] = &models.UserPermission{
		Email: id.Email, Role: models.RoleClient, DisplayName: id.DisplayName,
		UID: id.UID, CreatedAt: now, LastLogin: now,
	}
	return true, nil
}

func (f *fakePerms) TouchLastLogin(_ context.Context, email string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touches++
	if p, ok := f.records[email]; ok {
		p.LastLogin = now
	}
	return nil
}

func (f *fakePerms) List(context.Context) ([]models.UserPermission, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.UserPermission, 0, len(f.records))
	for _, p := range f.records {
		out = append(out, *p)
	}
	return out, 0, nil
}

func (f *fakePerms) UpdateRole(_ context.Context, email string, role models.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.records[email]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Role = role
	return nil
}

func (f *fakePerms) Delete(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, email)
	return nil
}

func (f *fakePerms) Watch(context.Context) (repositories.ChangeStream, error) { return f.stream, nil }

type fakeApps struct {
	mu      sync.Mutex
	apps    []models.ExternalApp
	listErr error
	fetches int
	creates int
	deletes int
	stream  *fakeStream
}

func newFakeApps(apps ...models.ExternalApp) *fakeApps {
	return &fakeApps{apps: apps, stream: newFakeStream()}
}

func (f *fakeApps) setListErr(err error) {
	f.mu.Lock()
	f.listErr = err
	f.mu.Unlock()
}

func (f *fakeApps) List(context.Context) ([]models.ExternalApp, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return append([]models.ExternalApp(nil), f.apps...), 0, nil
}

func (f *fakeApps) Create(_ context.Context, app *models.ExternalApp) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	app.ID = primitive.NewObjectID()
	f.apps = append([]models.ExternalApp{*app}, f.apps...)
	return nil
}

func (f *fakeApps) Delete(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	return nil
}

func (f *fakeApps) Watch(context.Context) (repositories.ChangeStream, error) { return f.stream, nil }

type fakeMarket struct {
	mu      sync.Mutex
	records []models.PropertyRecord
	owner   string
	limit   int64
	stream  *fakeStream
}

func (f *fakeMarket) List(_ context.Context, owner string, limit int64) ([]models.PropertyRecord, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owner, f.limit = owner, limit
	var out []models.PropertyRecord
	for _, r := range f.records {
		if owner == "" || r.UserID == owner {
			out = append(out, r)
		}
	}
	return out, 0, nil
}

func (f *fakeMarket) Create(_ context.Context, rec *models.PropertyRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = primitive.NewObjectID()
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeMarket) Delete(context.Context, string) error { return nil }

func (f *fakeMarket) Watch(context.Context) (repositories.ChangeStream, error) {
	if f.stream == nil {
		f.stream = newFakeStream()
	}
	return f.stream, nil
}

type fakeWorkLogs struct {
	mu      sync.Mutex
	entries []models.WorkLogEntry
}

func (f *fakeWorkLogs) List(context.Context, int64) ([]models.WorkLogEntry, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.WorkLogEntry(nil), f.entries...), 0, nil
}

func (f *fakeWorkLogs) Create(_ context.Context, e *models.WorkLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = primitive.NewObjectID()
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeWorkLogs) Delete(context.Context, string) error { return nil }

func (f *fakeWorkLogs) Watch(context.Context) (repositories.ChangeStream, error) {
	return newFakeStream(), nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	teardowns []string
	roles     map[string]models.Role
}

func (n *fakeNotifier) TeardownUser(uid string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.teardowns = append(n.teardowns, uid)
}

func (n *fakeNotifier) NotifyRoleChange(email string, role models.Role) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.roles == nil {
		n.roles = make(map[string]models.Role)
	}
	n.roles[email] = role
}

type fakeRevoker struct{ revoked []string }

func (r *fakeRevoker) RevokeRefreshTokens(_ context.Context, uid string) error {
	r.revoked = append(r.revoked, uid)
	return nil
}

type memoryPersistence struct {
	payload []byte
	err     error
}

func (m *memoryPersistence) LoadOverride(context.Context) ([]byte, error) {
	if m.payload == nil {
		return nil, repositories.ErrNotFound
	}
	return m.payload, nil
}

func (m *memoryPersistence) SaveOverride(_ context.Context, payload []byte) error {
	if m.err != nil {
		return m.err
	}
	m.payload = append([]byte(nil), payload...)
	return nil
}
