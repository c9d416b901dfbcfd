//go:build !integration

package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"vehicle-registration-bot/internal/domain"
	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/domain/ports/repository"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// stubTxManager runs the callback without a real transaction. Setting err
// simulates a connection-level failure before the callback runs.
type stubTxManager struct {
	err error
}

func (s *stubTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if s.err != nil {
		return s.err
	}
	return fn(ctx, repository.NoTX)
}

// memUserRepo is a small in-memory implementation used by unit tests.
type memUserRepo struct {
	mu      sync.RWMutex
	store   map[int64]*model.User // keyed by TelegramID
	saveErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[int64]*model.User)}
}

func (m *memUserRepo) Save(_ context.Context, _ repository.Tx, u *model.User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.TelegramID] = &cp
	return nil
}

func (m *memUserRepo) FindByTelegramID(_ context.Context, _ repository.Tx, tgID int64) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) CountUsers(_ context.Context, _ repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

func (m *memUserRepo) CountInactiveUsers(_ context.Context, _ repository.Tx, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cnt := 0
	for _, u := range m.store {
		if !u.LastSeenAt.After(since) {
			cnt++
		}
	}
	return cnt, nil
}

type memRequestRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Request
	order   []string
	saveErr error
	findErr error
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{store: make(map[string]*model.Request)}
}

func (m *memRequestRepo) Save(_ context.Context, _ repository.Tx, r *model.Request) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[r.ID]; !ok {
		m.order = append(m.order, r.ID)
	}
	cp := *r
	m.store[r.ID] = &cp
	return nil
}

func (m *memRequestRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Request, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.store[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memRequestRepo) ListByUser(_ context.Context, _ repository.Tx, userID string) ([]*model.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Request
	for _, id := range m.order {
		if r := m.store[id]; r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRequestRepo) ListByStatus(_ context.Context, _ repository.Tx, status model.RequestStatus, limit int) ([]*model.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Request
	for _, id := range m.order {
		if r := m.store[id]; r.Status == status {
			cp := *r
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memRequestRepo) ListRecent(_ context.Context, _ repository.Tx, limit int) ([]*model.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Request
	for i := len(m.order) - 1; i >= 0; i-- {
		cp := *m.store[m.order[i]]
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memRequestRepo) CountByStatus(_ context.Context, _ repository.Tx) (map[model.RequestStatus]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[model.RequestStatus]int)
	for _, r := range m.store {
		out[r.Status]++
	}
	return out, nil
}

func (m *memRequestRepo) CountSubmittedSince(_ context.Context, _ repository.Tx, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cnt := 0
	for _, r := range m.store {
		if r.SubmittedAt != nil && r.SubmittedAt.After(since) {
			cnt++
		}
	}
	return cnt, nil
}

type memFileRepo struct {
	mu        sync.RWMutex
	files     []*model.File
	attachErr error
}

func newMemFileRepo() *memFileRepo { return &memFileRepo{} }

func (m *memFileRepo) Attach(_ context.Context, _ repository.Tx, f *model.File) error {
	if m.attachErr != nil {
		return m.attachErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	m.files = append(m.files, &cp)
	return nil
}

func (m *memFileRepo) UpdateLocalPath(_ context.Context, _ repository.Tx, fileID, localPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.files {
		if f.ID == fileID {
			f.LocalPath = localPath
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memFileRepo) ListByRequest(_ context.Context, _ repository.Tx, requestID string) ([]*model.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.File
	for _, f := range m.files {
		if f.RequestID == requestID {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memFileRepo) CountFiles(_ context.Context, _ repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files), nil
}

type memTemplateRepo struct {
	mu    sync.RWMutex
	order []*model.Template
}

func newMemTemplateRepo() *memTemplateRepo { return &memTemplateRepo{} }

func (m *memTemplateRepo) Save(_ context.Context, _ repository.Tx, t *model.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, old := range m.order {
		if old.ID == t.ID {
			cp := *t
			m.order[i] = &cp
			return nil
		}
	}
	cp := *t
	m.order = append(m.order, &cp)
	return nil
}

func (m *memTemplateRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.order {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memTemplateRepo) ListAll(_ context.Context, _ repository.Tx) ([]*model.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Template, 0, len(m.order))
	for _, t := range m.order {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memTemplateRepo) Delete(_ context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.order {
		if t.ID == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type auditEntry struct {
	event   string
	payload string
}

type memAuditRepo struct {
	mu      sync.RWMutex
	entries []auditEntry
}

func newMemAuditRepo() *memAuditRepo { return &memAuditRepo{} }

func (m *memAuditRepo) Append(_ context.Context, _ repository.Tx, event string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{event: event, payload: string(b)})
	return nil
}

func (m *memAuditRepo) ListRecent(_ context.Context, _ repository.Tx, limit int) ([]*model.Audit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Audit
	for i := len(m.entries) - 1; i >= 0; i-- {
		out = append(out, &model.Audit{
			ID:      int64(i + 1),
			Event:   m.entries[i].event,
			Payload: m.entries[i].payload,
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memAuditRepo) events() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.event
	}
	return out
}

type enqueued struct {
	fileID         string
	requestID      string
	telegramFileID string
}

// recorderArchiver captures Enqueue calls instead of downloading anything.
type recorderArchiver struct {
	mu   sync.Mutex
	jobs []enqueued
}

func (r *recorderArchiver) Enqueue(fileID, requestID, telegramFileID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, enqueued{fileID, requestID, telegramFileID})
}
