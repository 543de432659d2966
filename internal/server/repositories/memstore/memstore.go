// Package memstore is an in-memory implementation of the repositories, used
// to exercise services and the sweep without a database. Writes are not
// transactional: a rolled back transaction keeps whatever was written.
package memstore

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/capsules"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/media"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/users"
)

// Operation names accepted by FailOn.
const (
	OpCapsuleCreate  = "capsules.Create"
	OpCapsuleGet     = "capsules.Get"
	OpCapsuleList    = "capsules.List"
	OpCapsuleListDue = "capsules.ListDueUnnotified"
	OpCapsuleMark    = "capsules.MarkNotified"
	OpCapsuleDelete  = "capsules.Delete"
	OpMediaCreate    = "media.Create"
	OpMediaList      = "media.List"
	OpMediaDelete    = "media.Delete"
	OpUserGet        = "users.Get"
)

type Store struct {
	mu       sync.Mutex
	capsules map[string]*models.Capsule
	media    map[string]*models.Media
	users    map[string]*models.User
	fail     map[string]error
	marks    map[string]int
	now      func() time.Time
}

func New() *Store {
	return &Store{
		capsules: map[string]*models.Capsule{},
		media:    map[string]*models.Media{},
		users:    map[string]*models.User{},
		fail:     map[string]error{},
		marks:    map[string]int{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// FailOn makes every later call of op return err. A nil err clears it.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

func (s *Store) failure(op string) error {
	return s.fail[op]
}

func (s *Store) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
}

// PutCapsule stores c as is, bypassing Create.
func (s *Store) PutCapsule(c models.Capsule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capsules[c.ID] = &c
}

// Capsule returns a copy of the stored capsule.
func (s *Store) Capsule(id string) (models.Capsule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.capsules[id]
	if !ok {
		return models.Capsule{}, false
	}
	return *c, true
}

// MarkCalls counts MarkNotified invocations for a capsule.
func (s *Store) MarkCalls(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marks[id]
}

func (s *Store) CountCapsules() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.capsules)
}

func (s *Store) CountMedia() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.media)
}

// Manager satisfies repomanager.RepositoryManager; the DBTX argument is ignored.
type Manager struct {
	Store *Store
}

func NewManager(s *Store) *Manager {
	return &Manager{Store: s}
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *Manager) Capsules(dbx.DBTX) capsules.Repository { return capsuleRepo{m.Store} }

func (m *Manager) Media(dbx.DBTX) media.Repository { return mediaRepo{m.Store} }

func (m *Manager) Users(dbx.DBTX) users.Repository { return userRepo{m.Store} }

type capsuleRepo struct{ s *Store }

func (r capsuleRepo) Create(_ context.Context, c *models.Capsule) (*models.Capsule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpCapsuleCreate); err != nil {
		return nil, err
	}
	now := r.s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	r.s.capsules[c.ID] = &cp
	return c, nil
}

func (r capsuleRepo) GetByIDForUser(_ context.Context, id, userID string) (*models.Capsule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpCapsuleGet); err != nil {
		return nil, err
	}
	c, ok := r.s.capsules[id]
	if !ok || c.UserID != userID {
		return nil, common.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r capsuleRepo) ListByUser(_ context.Context, userID string) ([]*models.Capsule, error) {
	return r.list(OpCapsuleList, func(c *models.Capsule) bool { return c.UserID == userID })
}

func (r capsuleRepo) ListDueUnnotified(_ context.Context, now time.Time) ([]*models.Capsule, error) {
	return r.list(OpCapsuleListDue, func(c *models.Capsule) bool {
		return !c.OpenDate.After(now) && !c.NotificationSent
	})
}

func (r capsuleRepo) list(op string, keep func(*models.Capsule) bool) ([]*models.Capsule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(op); err != nil {
		return nil, err
	}
	out := []*models.Capsule{}
	for _, c := range r.s.capsules {
		if keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenDate.Equal(out[j].OpenDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].OpenDate.Before(out[j].OpenDate)
	})
	return out, nil
}

func (r capsuleRepo) MarkNotified(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.marks[id]++
	if err := r.s.failure(OpCapsuleMark); err != nil {
		return false, err
	}
	c, ok := r.s.capsules[id]
	if !ok || c.NotificationSent {
		return false, nil
	}
	c.NotificationSent = true
	c.UpdatedAt = r.s.now()
	return true, nil
}

func (r capsuleRepo) DeleteForUser(_ context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpCapsuleDelete); err != nil {
		return err
	}
	c, ok := r.s.capsules[id]
	if !ok || c.UserID != userID {
		return common.ErrNotFound
	}
	delete(r.s.capsules, id)
	return nil
}

type mediaRepo struct{ s *Store }

func (r mediaRepo) Create(_ context.Context, m *models.Media) (*models.Media, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpMediaCreate); err != nil {
		return nil, err
	}
	m.CreatedAt = r.s.now()
	cp := *m
	r.s.media[m.ID] = &cp
	return m, nil
}

func (r mediaRepo) ListByCapsule(_ context.Context, capsuleID, userID string) ([]*models.Media, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpMediaList); err != nil {
		return nil, err
	}
	out := []*models.Media{}
	for _, m := range r.s.media {
		if m.CapsuleID == capsuleID && m.UserID == userID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StoredName < out[j].StoredName })
	return out, nil
}

func (r mediaRepo) GetForCapsule(_ context.Context, id, capsuleID, userID string) (*models.Media, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpMediaList); err != nil {
		return nil, err
	}
	m, ok := r.s.media[id]
	if !ok || m.CapsuleID != capsuleID || m.UserID != userID {
		return nil, common.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r mediaRepo) DeleteByCapsule(_ context.Context, capsuleID, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpMediaDelete); err != nil {
		return 0, err
	}
	var n int64
	for id, m := range r.s.media {
		if m.CapsuleID == capsuleID && m.UserID == userID {
			delete(r.s.media, id)
			n++
		}
	}
	return n, nil
}

type userRepo struct{ s *Store }

func (r userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpUserGet); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
