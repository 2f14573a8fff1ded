package store_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-requests-api/internal/model"
	"booking-requests-api/internal/store"
)

func setup(t *testing.T) *store.Store {
	t.Helper()
	_ = godotenv.Load("../../.env")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := store.Open(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	st := store.New(pool)
	_, err = st.Migrate(ctx)
	require.NoError(t, err)
	return st
}

func newUser(t *testing.T, st *store.Store) *model.User {
	t.Helper()
	u := &model.User{
		ID:           uuid.New().String(),
		Email:        fmt.Sprintf("store-%s@test.com", uuid.New().String()[:8]),
		PasswordHash: "hash",
		Name:         "Store User",
		Phone:        "+1234567890",
	}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func newAppointment(t *testing.T, st *store.Store, owner *model.User) *model.Appointment {
	t.Helper()
	a := &model.Appointment{
		ID:             uuid.New().String(),
		UserID:         owner.ID,
		BookerName:     owner.Name,
		BookerPhone:    owner.Phone,
		BookerEmail:    owner.Email,
		AppointeeName:  owner.Name,
		AppointeePhone: owner.Phone,
		AppointeeEmail: owner.Email,
		Relationship:   model.RelationshipSelf,
		Reason:         "checkup",
		Department:     "General Consultation",
		PreferredDate:  time.Now().UTC().AddDate(0, 0, 5).Format("2006-01-02"),
		PreferredTime:  "09:30",
		Status:         model.StatusPending,
	}
	require.NoError(t, st.CreateAppointment(context.Background(), a))
	return a
}

func newHelpRequest(t *testing.T, st *store.Store, owner *model.User) *model.HelpRequest {
	t.Helper()
	h := &model.HelpRequest{
		ID:                uuid.New().String(),
		UserID:            owner.ID,
		Name:              owner.Name,
		Phone:             owner.Phone,
		Email:             owner.Email,
		HelpType:          "Housing Support",
		Urgency:           "High",
		Description:       "need help",
		ContactPreference: model.ContactPhoneCall,
		Status:            model.StatusPending,
	}
	require.NoError(t, st.CreateHelpRequest(context.Background(), h))
	return h
}

func TestUsers(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	u := newUser(t, st)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := st.UserByEmail(ctx, strings.ToUpper(u.Email))
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	dup := *u
	dup.ID = uuid.New().String()
	assert.ErrorIs(t, st.CreateUser(ctx, &dup), store.ErrDuplicateEmail)

	u.Name = "Renamed"
	require.NoError(t, st.UpdateUser(ctx, u))
	got, err = st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	_, err = st.UserByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, store.ErrNotFound)

	missing := *u
	missing.ID = uuid.New().String()
	missing.Email = "missing-" + u.Email
	assert.ErrorIs(t, st.UpdateUser(ctx, &missing), store.ErrNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	st := setup(t)
	ctx := context.Background()

	u := newUser(t, st)
	admin, err := st.EnsureAdmin(ctx, u.Email, "other-hash", "ignored")
	require.NoError(t, err)
	assert.Equal(t, u.ID, admin.ID)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.Equal(t, "hash", admin.PasswordHash)

	email := fmt.Sprintf("admin-%s@test.com", uuid.New().String()[:8])
	fresh, err := st.EnsureAdmin(ctx, email, "hash", "Fresh Admin")
	require.NoError(t, err)
	assert.True(t, fresh.IsAdmin())
	assert.Equal(t, "Fresh Admin", fresh.Name)
}

func TestRefreshTokenRotation(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	u := newUser(t, st)

	oldID, oldHash := uuid.New().String(), uuid.New().String()
	require.NoError(t, st.CreateRefreshToken(ctx, oldID, u.ID, oldHash, time.Now().Add(time.Hour)))

	newID, newHash := uuid.New().String(), uuid.New().String()
	require.NoError(t, st.RotateRefreshToken(ctx, oldID, newID, u.ID, newHash, time.Now().Add(time.Hour)))

	old, err := st.GetRefreshTokenByHash(ctx, oldHash)
	require.NoError(t, err)
	assert.True(t, old.Revoked)
	require.NotNil(t, old.ReplacedBy)
	assert.Equal(t, newID, *old.ReplacedBy)

	// second rotation of the same token loses
	err = st.RotateRefreshToken(ctx, oldID, uuid.New().String(), u.ID, uuid.New().String(), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, store.ErrTokenReused)

	require.NoError(t, st.RevokeAllRefreshTokens(ctx, u.ID))
	cur, err := st.GetRefreshTokenByHash(ctx, newHash)
	require.NoError(t, err)
	assert.True(t, cur.Revoked)

	_, err = st.GetRefreshTokenByHash(ctx, "unknown")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAppointments(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	u := newUser(t, st)

	first := newAppointment(t, st, u)
	second := newAppointment(t, st, u)

	got, err := st.GetAppointment(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Reason, got.Reason)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Nil(t, got.ReviewedAt)

	list, err := st.ListAppointments(ctx, model.Filter{OwnerID: u.ID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	now := time.Now().UTC()
	decided, err := st.SetAppointmentStatus(ctx, first.ID, model.Review{Status: model.StatusApproved, ReviewedBy: "admin-id", ReviewedAt: now})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, decided.Status)
	assert.Equal(t, "admin-id", decided.ReviewedBy)
	require.NotNil(t, decided.ReviewedAt)
	assert.Equal(t, "admin", decided.UpdatedBy)

	_, err = st.SetAppointmentStatus(ctx, first.ID, model.Review{Status: model.StatusRejected, ReviewedBy: "admin-id", ReviewedAt: now})
	assert.ErrorIs(t, err, store.ErrAlreadyDecided)
	_, err = st.SetAppointmentStatus(ctx, uuid.New().String(), model.Review{Status: model.StatusRejected, ReviewedAt: now})
	assert.ErrorIs(t, err, store.ErrNotFound)

	approved, err := st.ListAppointments(ctx, model.Filter{OwnerID: u.ID, Status: model.StatusApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, first.ID, approved[0].ID)

	_, err = st.GetAppointment(ctx, uuid.New().String())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentDecisions(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	h := newHelpRequest(t, st, newUser(t, st))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := model.StatusApproved
			if i%2 == 1 {
				s = model.StatusRejected
			}
			_, err := st.SetHelpRequestStatus(ctx, h.ID, model.Review{Status: s, ReviewedBy: "admin", ReviewedAt: time.Now()})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, store.ErrAlreadyDecided)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestStats(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	u := newUser(t, st)

	newAppointment(t, st, u)
	a := newAppointment(t, st, u)
	newHelpRequest(t, st, u)
	_, err := st.SetAppointmentStatus(ctx, a.ID, model.Review{Status: model.StatusRejected, ReviewedBy: "admin", ReviewedAt: time.Now()})
	require.NoError(t, err)

	s, err := st.Stats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCounts{Total: 2, Pending: 1, Rejected: 1}, s.Appointments)
	assert.Equal(t, model.StatusCounts{Total: 1, Pending: 1}, s.HelpRequests)

	all, err := st.Stats(ctx, "")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, all.Appointments.Total, 2)

	require.NoError(t, st.Ping(ctx))
}
