// Package storetest provides an in-memory store with the semantics of the
// PostgreSQL store, for tests that do not need a database.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"booking-requests-api/internal/model"
	"booking-requests-api/internal/store"
)

type Memory struct {
	mu           sync.Mutex
	clock        time.Time
	users        map[string]*model.User
	tokens       map[string]*store.RefreshToken
	appointments map[string]*model.Appointment
	helpRequests map[string]*model.HelpRequest

	// Err, when set, is returned by every call.
	Err error
}

func NewMemory() *Memory {
	return &Memory{
		clock:        time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC),
		users:        map[string]*model.User{},
		tokens:       map[string]*store.RefreshToken{},
		appointments: map[string]*model.Appointment{},
		helpRequests: map[string]*model.HelpRequest{},
	}
}

// tick returns a strictly increasing timestamp so ordering is deterministic.
func (m *Memory) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.emailTaken(u.Email, "") {
		return store.ErrDuplicateEmail
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	now := m.tick()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) emailTaken(email, except string) bool {
	for id, u := range m.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) UserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) UpdateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	cur, ok := m.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	if m.emailTaken(u.Email, u.ID) {
		return store.ErrDuplicateEmail
	}
	cur.Name, cur.Phone, cur.Email = u.Name, u.Phone, u.Email
	cur.UpdatedAt = m.tick()
	u.UpdatedAt = cur.UpdatedAt
	return nil
}

// EnsureAdmin mirrors the upsert of the SQL store.
func (m *Memory) EnsureAdmin(_ context.Context, email, passwordHash, name string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			u.Role = model.RoleAdmin
			cp := *u
			return &cp, nil
		}
	}
	now := m.tick()
	u := &model.User{
		ID: uuid.New().String(), Email: email, PasswordHash: passwordHash, Name: name,
		Role: model.RoleAdmin, CreatedAt: now, UpdatedAt: now,
	}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *Memory) CreateRefreshToken(_ context.Context, id, userID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.tokens[id] = &store.RefreshToken{ID: id, UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt, CreatedAt: m.tick()}
	return nil
}

func (m *Memory) GetRefreshTokenByHash(_ context.Context, tokenHash string) (*store.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, t := range m.tokens {
		if t.TokenHash == tokenHash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) RotateRefreshToken(_ context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	old, ok := m.tokens[oldID]
	if !ok || old.Revoked {
		return store.ErrTokenReused
	}
	old.Revoked = true
	old.ReplacedBy = &newID
	m.tokens[newID] = &store.RefreshToken{ID: newID, UserID: userID, TokenHash: newHash, ExpiresAt: newExpiry, CreatedAt: m.tick()}
	return nil
}

func (m *Memory) RevokeAllRefreshTokens(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

// ActiveTokens counts the user's unrevoked refresh tokens.
func (m *Memory) ActiveTokens(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tokens {
		if t.UserID == userID && !t.Revoked {
			n++
		}
	}
	return n
}

func (m *Memory) CreateAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	now := m.tick()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *Memory) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) ListAppointments(_ context.Context, f model.Filter) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []model.Appointment{}
	for _, a := range m.appointments {
		if matches(f, a.UserID, a.Status) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) SetAppointmentStatus(_ context.Context, id string, r model.Review) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if a.Status != model.StatusPending {
		return nil, store.ErrAlreadyDecided
	}
	at := r.ReviewedAt
	a.Status, a.ReviewedBy, a.ReviewedAt, a.UpdatedBy = r.Status, r.ReviewedBy, &at, "admin"
	a.UpdatedAt = m.tick()
	cp := *a
	return &cp, nil
}

func (m *Memory) CreateHelpRequest(_ context.Context, h *model.HelpRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	now := m.tick()
	h.CreatedAt, h.UpdatedAt = now, now
	cp := *h
	m.helpRequests[h.ID] = &cp
	return nil
}

func (m *Memory) GetHelpRequest(_ context.Context, id string) (*model.HelpRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	h, ok := m.helpRequests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (m *Memory) ListHelpRequests(_ context.Context, f model.Filter) ([]model.HelpRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []model.HelpRequest{}
	for _, h := range m.helpRequests {
		if matches(f, h.UserID, h.Status) {
			out = append(out, *h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) SetHelpRequestStatus(_ context.Context, id string, r model.Review) (*model.HelpRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	h, ok := m.helpRequests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if h.Status != model.StatusPending {
		return nil, store.ErrAlreadyDecided
	}
	at := r.ReviewedAt
	h.Status, h.ReviewedBy, h.ReviewedAt, h.UpdatedBy = r.Status, r.ReviewedBy, &at, "admin"
	h.UpdatedAt = m.tick()
	cp := *h
	return &cp, nil
}

func (m *Memory) Stats(_ context.Context, ownerID string) (*model.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	st := &model.Stats{}
	f := model.Filter{OwnerID: ownerID}
	for _, a := range m.appointments {
		if matches(f, a.UserID, a.Status) {
			st.Appointments.Add(a.Status, 1)
		}
	}
	for _, h := range m.helpRequests {
		if matches(f, h.UserID, h.Status) {
			st.HelpRequests.Add(h.Status, 1)
		}
	}
	return st, nil
}

func matches(f model.Filter, owner string, st model.Status) bool {
	return (f.OwnerID == "" || f.OwnerID == owner) && (f.Status == "" || f.Status == st)
}
