package repositories

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// deviceTTL bounds how long device-local state outlives its last write.
const deviceTTL = 90 * 24 * time.Hour

// DeviceStore holds per-device state that is never shared across devices:
// the chat transcript, scratch notes, and short-lived caches.
type DeviceStore interface {
	GetTranscript(ctx context.Context, device string) ([]byte, error)
	SaveTranscript(ctx context.Context, device string, payload []byte) error
	DeleteTranscript(ctx context.Context, device string) error
	AcquireChatLock(ctx context.Context, device string, ttl time.Duration) (bool, error)
	ReleaseChatLock(ctx context.Context, device string) error
	PushNote(ctx context.Context, device, note string) error
	Notes(ctx context.Context, device string) ([]string, error)
	ClearNotes(ctx context.Context, device string) error
	CacheGet(ctx context.Context, key string) ([]byte, error)
	CacheSet(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// NewDeviceStore uses Redis when a client is available and process memory otherwise.
func NewDeviceStore(rdb *redis.Client) DeviceStore {
	if rdb == nil {
		return NewMemoryDeviceStore()
	}
	return &redisDeviceStore{rdb: rdb}
}

func transcriptKey(device string) string { return "abs:chat_history:" + device }
func chatLockKey(device string) string   { return "abs:chat_lock:" + device }
func notesKey(device string) string      { return "abs:survey_pad:" + device }
func cacheKey(key string) string         { return "abs:cache:" + key }

type redisDeviceStore struct {
	rdb *redis.Client
}

func (s *redisDeviceStore) GetTranscript(ctx context.Context, device string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, transcriptKey(device)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *redisDeviceStore) SaveTranscript(ctx context.Context, device string, payload []byte) error {
	return s.rdb.Set(ctx, transcriptKey(device), payload, deviceTTL).Err()
}

func (s *redisDeviceStore) DeleteTranscript(ctx context.Context, device string) error {
	return s.rdb.Del(ctx, transcriptKey(device)).Err()
}

func (s *redisDeviceStore) AcquireChatLock(ctx context.Context, device string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, chatLockKey(device), time.Now().Unix(), ttl).Result()
}

func (s *redisDeviceStore) ReleaseChatLock(ctx context.Context, device string) error {
	return s.rdb.Del(ctx, chatLockKey(device)).Err()
}

func (s *redisDeviceStore) PushNote(ctx context.Context, device, note string) error {
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, notesKey(device), note)
	pipe.Expire(ctx, notesKey(device), deviceTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisDeviceStore) Notes(ctx context.Context, device string) ([]string, error) {
	return s.rdb.LRange(ctx, notesKey(device), 0, -1).Result()
}

func (s *redisDeviceStore) ClearNotes(ctx context.Context, device string) error {
	return s.rdb.Del(ctx, notesKey(device)).Err()
}

func (s *redisDeviceStore) CacheGet(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *redisDeviceStore) CacheSet(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, cacheKey(key), payload, ttl).Err()
}

// MemoryDeviceStore keeps device state in process memory. Expiry is
// honored for the chat lock and cache entries.
type MemoryDeviceStore struct {
	mu          sync.Mutex
	transcripts map[string][]byte
	locks       map[string]time.Time
	notes       map[string][]string
	cache       map[string]cacheEntry
	now         func() time.Time
}

type cacheEntry struct {
	payload []byte
	expires time.Time
}

func NewMemoryDeviceStore() *MemoryDeviceStore {
	return &MemoryDeviceStore{
		transcripts: make(map[string][]byte),
		locks:       make(map[string]time.Time),
		notes:       make(map[string][]string),
		cache:       make(map[string]cacheEntry),
		now:         time.Now,
	}
}

func (s *MemoryDeviceStore) GetTranscript(_ context.Context, device string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.transcripts[device]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (s *MemoryDeviceStore) SaveTranscript(_ context.Context, device string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts[device] = append([]byte(nil), payload...)
	return nil
}

func (s *MemoryDeviceStore) DeleteTranscript(_ context.Context, device string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transcripts, device)
	return nil
}

func (s *MemoryDeviceStore) AcquireChatLock(_ context.Context, device string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if until, ok := s.locks[device]; ok && time.Now().Before(until) {
		return false, nil
	}
	s.locks[device] = time.Now().Add(ttl)
	return true, nil
}

func (s *MemoryDeviceStore) ReleaseChatLock(_ context.Context, device string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, device)
	return nil
}

func (s *MemoryDeviceStore) PushNote(_ context.Context, device, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[device] = append([]string{note}, s.notes[device]...)
	return nil
}

func (s *MemoryDeviceStore) Notes(_ context.Context, device string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.notes[device]...), nil
}

func (s *MemoryDeviceStore) ClearNotes(_ context.Context, device string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notes, device)
	return nil
}

func (s *MemoryDeviceStore) CacheGet(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		delete(s.cache, key)
		return nil, ErrNotFound
	}
	return e.payload, nil
}

// CacheSet also drops every expired entry.
func (s *MemoryDeviceStore) CacheSet(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.cache {
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(s.cache, k)
		}
	}
	e := cacheEntry{payload: append([]byte(nil), payload...)}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	s.cache[key] = e
	return nil
}
