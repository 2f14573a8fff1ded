package handler_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"

	"booking-requests-api/internal/handler"
	"booking-requests-api/internal/middleware"
	"booking-requests-api/internal/rpc"
	"booking-requests-api/internal/storetest"
)

func recv(t *testing.T, ch <-chan *rpc.Snapshot) *rpc.Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot received")
		return nil
	}
}

func TestSubscribePushesSnapshots(t *testing.T) {
	h, _, _ := setup(t)
	_, ctx := registerUser(t, h)
	_, other := registerUser(t, h)

	ctx, cancel := context.WithCancel(ctx)
	snaps := make(chan *rpc.Snapshot, 8)
	done := make(chan error, 1)
	go func() {
		done <- h.Subscribe(ctx, &rpc.WatchRequest{Kind: "appointments"}, func(s *rpc.Snapshot) error {
			snaps <- s
			return nil
		})
	}()

	first := recv(t, snaps)
	assert.Equal(t, "appointments", first.Kind)
	assert.Empty(t, first.Appointments)

	a := createAppointment(t, h, ctx)
	next := recv(t, snaps)
	require.Len(t, next.Appointments, 1)
	assert.Equal(t, a.ID, next.Appointments[0].ID)

	// another owner's booking does not concern this subscriber
	createAppointment(t, h, other)
	select {
	case s := <-snaps:
		t.Fatalf("unexpected snapshot with %d appointments", len(s.Appointments))
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscribe did not return after cancel")
	}
	assert.Equal(t, 0, h.Hub().Len())
}

func TestSubscribeRejects(t *testing.T) {
	h, _, _ := setup(t)
	_, ctx := registerUser(t, h)
	noop := func(*rpc.Snapshot) error { return nil }

	err := h.Subscribe(ctx, &rpc.WatchRequest{Kind: "appointments", All: true}, noop)
	assert.Equal(t, codes.PermissionDenied, code(err))

	err = h.Subscribe(ctx, &rpc.WatchRequest{Kind: "invoices"}, noop)
	assert.Equal(t, codes.InvalidArgument, code(err))

	err = h.Subscribe(context.Background(), &rpc.WatchRequest{Kind: "appointments"}, noop)
	assert.Equal(t, codes.Unauthenticated, code(err))
}

// ----- over the wire -----

func startServer(t *testing.T) (*rpc.BookingServiceClient, *storetest.Memory) {
	t.Helper()
	st := storetest.NewMemory()
	h := handler.New(st, secret)
	log := zap.NewNop()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.Logging(log, nil),
			middleware.RateLimit(middleware.NewRateLimiter(100, 100)),
			middleware.Auth(secret),
		),
		grpc.ChainStreamInterceptor(
			middleware.StreamLogging(log, nil),
			middleware.StreamAuth(secret),
		),
	)
	rpc.RegisterBookingServiceServer(srv, h)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return rpc.NewBookingServiceClient(conn), st
}

func bearer(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

func TestGRPCEndToEnd(t *testing.T) {
	c, _ := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rr, err := c.Register(ctx, &rpc.RegisterRequest{
		Email: "wire@test.com", Password: "testpass", Name: "Wire User", Phone: "+1234567890",
	})
	require.NoError(t, err)

	_, err = c.ListAppointments(ctx, &rpc.ListRequest{})
	assert.Equal(t, codes.Unauthenticated, code(err))

	authed := bearer(ctx, rr.AccessToken)
	p, err := c.GetProfile(authed)
	require.NoError(t, err)
	assert.Equal(t, "wire@test.com", p.Email)

	_, err = c.CreateAppointment(authed, &rpc.CreateAppointmentRequest{Reason: "x"})
	require.Equal(t, codes.InvalidArgument, code(err))
	assert.Contains(t, violations(err), "department")

	stream, err := c.Watch(authed, &rpc.WatchRequest{Kind: "appointments"})
	require.NoError(t, err)
	first, err := stream.Recv()
	require.NoError(t, err)
	assert.Empty(t, first.Appointments)

	a, err := c.CreateAppointment(authed, bookingForm())
	require.NoError(t, err)
	assert.Equal(t, "Pending", a.Status)

	next, err := stream.Recv()
	require.NoError(t, err)
	require.Len(t, next.Appointments, 1)
	assert.Equal(t, a.ID, next.Appointments[0].ID)

	require.NoError(t, c.Logout(authed))
	_, err = c.Refresh(ctx, &rpc.RefreshRequest{RefreshToken: rr.RefreshToken})
	assert.Equal(t, codes.Unauthenticated, code(err))
}

func TestGRPCAdminFlow(t *testing.T) {
	c, st := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := c.Register(ctx, &rpc.RegisterRequest{
		Email: "requester@test.com", Password: "testpass", Name: "Requester", Phone: "+1234567890",
	})
	require.NoError(t, err)
	_, err = c.Register(ctx, &rpc.RegisterRequest{
		Email: "boss@test.com", Password: "testpass", Name: "Boss", Phone: "+1234567891",
	})
	require.NoError(t, err)
	_, err = st.EnsureAdmin(ctx, "boss@test.com", "", "")
	require.NoError(t, err)

	// the role is read from the token, so log in again after promotion
	admin, err := c.Login(ctx, &rpc.LoginRequest{Email: "boss@test.com", Password: "testpass"})
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Role)

	hr, err := c.CreateHelpRequest(bearer(ctx, user.AccessToken), helpForm())
	require.NoError(t, err)

	_, err = c.AdminListHelpRequests(bearer(ctx, user.AccessToken), &rpc.ListRequest{})
	assert.Equal(t, codes.PermissionDenied, code(err))

	list, err := c.AdminListHelpRequests(bearer(ctx, admin.AccessToken), &rpc.ListRequest{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, list.HelpRequests, 1)

	got, err := c.SetHelpRequestStatus(bearer(ctx, admin.AccessToken), &rpc.SetStatusRequest{ID: hr.ID, Status: "Approved"})
	require.NoError(t, err)
	assert.Equal(t, "Approved", got.Status)

	_, err = c.SetHelpRequestStatus(bearer(ctx, admin.AccessToken), &rpc.SetStatusRequest{ID: hr.ID, Status: "Rejected"})
	assert.Equal(t, codes.FailedPrecondition, code(err))

	stats, err := c.GetStats(bearer(ctx, admin.AccessToken))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.HelpRequests.Approved)
}
