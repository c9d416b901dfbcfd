//go:build !integration

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"vehicle-registration-bot/internal/domain"
	"vehicle-registration-bot/internal/flow"
)

// fakeKV is an in-memory RedisClient good enough for session round-trips.
type fakeKV struct {
	data   map[string]string
	getErr error
	setErr error
}

func newFakeKV() *fakeKV { return &fakeKV{data: make(map[string]string)} }

func (f *fakeKV) Ping(context.Context) error { return nil }
func (f *fakeKV) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return nil
}
func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}
func (f *fakeKV) Incr(_ context.Context, key string) (int64, error) { return 0, nil }
func (f *fakeKV) Expire(_ context.Context, _ string, _ time.Duration) error {
	return nil
}
func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}
func (f *fakeKV) Close() error { return nil }

func TestSessionStore_RoundTrip(t *testing.T) {
	store := NewSessionStore(newFakeKV())
	ctx := context.Background()

	// Unknown conversations start idle.
	state, sess, err := store.Get(ctx, 100)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if state != flow.StateIdle || sess == nil {
		t.Fatalf("default = %q, %v", state, sess)
	}

	year := 2015
	if err := store.Put(ctx, 100, flow.StateChoosingLicense, &flow.Session{Year: &year}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	state, sess, err = store.Get(ctx, 100)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if state != flow.StateChoosingLicense {
		t.Fatalf("state = %q", state)
	}
	if sess.Year == nil || *sess.Year != 2015 {
		t.Fatalf("session = %+v", sess)
	}

	// Other conversations stay untouched.
	state, _, _ = store.Get(ctx, 200)
	if state != flow.StateIdle {
		t.Fatalf("conversation isolation broken: %q", state)
	}

	if err := store.Clear(ctx, 100); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	state, _, _ = store.Get(ctx, 100)
	if state != flow.StateIdle {
		t.Fatalf("state after clear = %q", state)
	}
}

func TestSessionStore_Failures(t *testing.T) {
	kv := newFakeKV()
	store := NewSessionStore(kv)
	ctx := context.Background()

	kv.getErr = errors.New("connection refused")
	if _, _, err := store.Get(ctx, 1); !domain.IsPersistence(err) {
		t.Fatalf("Get err = %v, want PersistenceError", err)
	}
	kv.getErr = nil

	kv.setErr = errors.New("connection refused")
	if err := store.Put(ctx, 1, flow.StateEnteringYear, &flow.Session{}); !domain.IsPersistence(err) {
		t.Fatalf("Put err = %v, want PersistenceError", err)
	}
}

func TestSessionStore_CorruptRecordResets(t *testing.T) {
	kv := newFakeKV()
	store := NewSessionStore(kv)
	ctx := context.Background()

	kv.data[sessionKey(7)] = "{not json"
	state, sess, err := store.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if state != flow.StateIdle || sess == nil {
		t.Fatalf("corrupt record must reset to idle, got %q", state)
	}
}
