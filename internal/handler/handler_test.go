package handler_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"booking-requests-api/internal/handler"
	"booking-requests-api/internal/middleware"
	"booking-requests-api/internal/model"
	"booking-requests-api/internal/notify"
	"booking-requests-api/internal/rpc"
	"booking-requests-api/internal/storetest"
)

const secret = "handler-test-secret-0123"

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (f *fakeNotifier) Notify(n notify.Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, n)
}

func setup(t *testing.T) (*handler.Handler, *storetest.Memory, *fakeNotifier) {
	t.Helper()
	st := storetest.NewMemory()
	n := &fakeNotifier{}
	return handler.New(st, secret, handler.WithNotifier(n)), st, n
}

func authedCtx(uid string, role model.Role) context.Context {
	return middleware.WithIdentity(context.Background(), middleware.Identity{UserID: uid, Role: role})
}

func code(err error) codes.Code { return status.Code(err) }

func registerUser(t *testing.T, h *handler.Handler) (*rpc.AuthResponse, context.Context) {
	t.Helper()
	email := fmt.Sprintf("test-%s@test.com", uuid.New().String()[:8])
	rr, err := h.Register(context.Background(), &rpc.RegisterRequest{
		Email: email, Password: "testpass123", Name: "Test User", Phone: "+1234567890",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return rr, authedCtx(rr.UserID, model.RoleUser)
}

func registerAdmin(t *testing.T, h *handler.Handler, st *storetest.Memory) context.Context {
	t.Helper()
	rr, _ := registerUser(t, h)
	if _, err := st.EnsureAdmin(context.Background(), rr.Email, "", ""); err != nil {
		t.Fatalf("promote: %v", err)
	}
	return authedCtx(rr.UserID, model.RoleAdmin)
}

func nextWeek() string { return time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02") }

func bookingForm() *rpc.CreateAppointmentRequest {
	return &rpc.CreateAppointmentRequest{
		Relationship:  model.RelationshipSelf,
		Reason:        "annual check",
		Department:    "Medical",
		PreferredDate: nextWeek(),
		PreferredTime: "10:30",
	}
}

func helpForm() *rpc.CreateHelpRequestRequest {
	return &rpc.CreateHelpRequestRequest{
		HelpType:          "Food Assistance",
		Urgency:           "High",
		Description:       "family of four needs groceries",
		ContactPreference: model.ContactEmail,
	}
}

func createAppointment(t *testing.T, h *handler.Handler, ctx context.Context) *rpc.Appointment {
	t.Helper()
	a, err := h.CreateAppointment(ctx, bookingForm())
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return a
}

func createHelpRequest(t *testing.T, h *handler.Handler, ctx context.Context) *rpc.HelpRequest {
	t.Helper()
	hr, err := h.CreateHelpRequest(ctx, helpForm())
	if err != nil {
		t.Fatalf("create help request: %v", err)
	}
	return hr
}

func violations(err error) map[string]string {
	out := map[string]string{}
	for _, d := range status.Convert(err).Details() {
		if br, ok := d.(*errdetails.BadRequest); ok {
			for _, v := range br.GetFieldViolations() {
				out[v.GetField()] = v.GetDescription()
			}
		}
	}
	return out
}

// ----- auth tests -----

func TestRegister(t *testing.T) {
	h, _, _ := setup(t)

	rr, err := h.Register(context.Background(), &rpc.RegisterRequest{
		Email: "  New.User@Example.com ", Password: "secret1", ConfirmPassword: "secret1",
		Name: "New User", Phone: "+44 7700 900123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if rr.UserID == "" || rr.AccessToken == "" || rr.RefreshToken == "" {
		t.Fatalf("incomplete response: %+v", rr)
	}
	if rr.Email != "new.user@example.com" {
		t.Errorf("email not normalized: %q", rr.Email)
	}
	if rr.Role != "user" {
		t.Errorf("role: got %q", rr.Role)
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _, _ := setup(t)

	tests := []struct {
		name  string
		req   *rpc.RegisterRequest
		field string
	}{
		{"empty email", &rpc.RegisterRequest{Email: "", Password: "testpass", Name: "Xy", Phone: "+123"}, "email"},
		{"bad email", &rpc.RegisterRequest{Email: "a@b", Password: "testpass", Name: "Xy", Phone: "+123"}, "email"},
		{"short password", &rpc.RegisterRequest{Email: "a@b.com", Password: "short", Name: "Xy", Phone: "+123"}, "password"},
		{"confirm mismatch", &rpc.RegisterRequest{Email: "a@b.com", Password: "testpass", ConfirmPassword: "other1", Name: "Xy", Phone: "+123"}, "confirm_password"},
		{"short name", &rpc.RegisterRequest{Email: "a@b.com", Password: "testpass", Name: " X ", Phone: "+123"}, "name"},
		{"bad phone", &rpc.RegisterRequest{Email: "a@b.com", Password: "testpass", Name: "Xy", Phone: "0123"}, "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Register(context.Background(), tt.req)
			if code(err) != codes.InvalidArgument {
				t.Fatalf("expected InvalidArgument, got %v", err)
			}
			if _, ok := violations(err)[tt.field]; !ok {
				t.Errorf("expected violation on %s, got %v", tt.field, violations(err))
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	h, _, _ := setup(t)

	req := &rpc.RegisterRequest{Email: "dup@test.com", Password: "testpass", Name: "First", Phone: "+123"}
	if _, err := h.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := h.Register(context.Background(), &rpc.RegisterRequest{
		Email: "DUP@test.com", Password: "testpass", Name: "Second", Phone: "+123",
	})
	if code(err) != codes.AlreadyExists {
		t.Errorf("expected AlreadyExists, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	h, _, _ := setup(t)
	rr, _ := registerUser(t, h)

	lr, err := h.Login(context.Background(), &rpc.LoginRequest{Email: rr.Email, Password: "testpass123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if lr.AccessToken == "" || lr.UserID != rr.UserID {
		t.Fatalf("unexpected login response: %+v", lr)
	}
	if lr.Name != "Test User" {
		t.Errorf("expected name 'Test User', got '%s'", lr.Name)
	}

	_, err = h.Login(context.Background(), &rpc.LoginRequest{Email: rr.Email, Password: "wrongpassword"})
	if code(err) != codes.Unauthenticated {
		t.Errorf("wrong password: expected Unauthenticated, got %v", err)
	}

	_, err = h.Login(context.Background(), &rpc.LoginRequest{Email: "nobody@nowhere.com", Password: "testpass123"})
	if code(err) != codes.Unauthenticated {
		t.Errorf("unknown user: expected Unauthenticated, got %v", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	h, st, _ := setup(t)
	rr, _ := registerUser(t, h)

	next, err := h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: rr.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.RefreshToken == rr.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// replaying the old token revokes the whole family
	_, err = h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: rr.RefreshToken})
	if code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated on reuse, got %v", err)
	}
	if n := st.ActiveTokens(rr.UserID); n != 0 {
		t.Errorf("expected all tokens revoked, %d active", n)
	}
	_, err = h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: next.RefreshToken})
	if code(err) != codes.Unauthenticated {
		t.Errorf("expected rotated token revoked too, got %v", err)
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	h, _, _ := setup(t)
	_, err := h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: "deadbeef"})
	if code(err) != codes.Unauthenticated {
		t.Errorf("expected Unauthenticated, got %v", err)
	}
	_, err = h.Refresh(context.Background(), &rpc.RefreshRequest{})
	if code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	h, st, _ := setup(t)
	rr, ctx := registerUser(t, h)

	if _, err := h.Logout(ctx, &emptypb.Empty{}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if n := st.ActiveTokens(rr.UserID); n != 0 {
		t.Errorf("expected no active tokens, got %d", n)
	}
	if _, err := h.Logout(context.Background(), &emptypb.Empty{}); code(err) != codes.Unauthenticated {
		t.Errorf("expected Unauthenticated without identity, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	h, _, _ := setup(t)
	rr, ctx := registerUser(t, h)
	other, _ := registerUser(t, h)

	p, err := h.GetProfile(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.Email != rr.Email || p.Phone != "+1234567890" {
		t.Errorf("unexpected profile: %+v", p)
	}

	p, err = h.UpdateProfile(ctx, &rpc.UpdateProfileRequest{Name: "Renamed", Phone: "+1987654321", Email: "Renamed@Test.com"})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if p.Name != "Renamed" || p.Email != "renamed@test.com" {
		t.Errorf("profile not updated: %+v", p)
	}

	_, err = h.UpdateProfile(ctx, &rpc.UpdateProfileRequest{Name: "Renamed", Phone: "+1987654321", Email: other.Email})
	if code(err) != codes.AlreadyExists {
		t.Errorf("expected AlreadyExists, got %v", err)
	}
	_, err = h.UpdateProfile(ctx, &rpc.UpdateProfileRequest{Name: "R", Phone: "+1987654321", Email: "x@y.com"})
	if code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

// ----- appointments -----

func TestCreateAppointmentPrefillsSelf(t *testing.T) {
	h, _, _ := setup(t)
	rr, ctx := registerUser(t, h)

	req := bookingForm()
	req.Relationship = ""
	a, err := h.CreateAppointment(ctx, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Status != "Pending" {
		t.Errorf("status: got %s", a.Status)
	}
	if a.Relationship != "Self" {
		t.Errorf("relationship: got %s", a.Relationship)
	}
	if a.AppointeeName != "Test User" || a.AppointeePhone != "+1234567890" || a.AppointeeEmail != rr.Email {
		t.Errorf("appointee not prefilled: %+v", a)
	}
	if a.BookerEmail != rr.Email || a.UserID != rr.UserID {
		t.Errorf("booker not copied: %+v", a)
	}
}

func TestCreateAppointmentForSomeoneElse(t *testing.T) {
	h, _, _ := setup(t)
	_, ctx := registerUser(t, h)

	req := bookingForm()
	req.Relationship = "Family Member"
	_, err := h.CreateAppointment(ctx, req)
	if code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument without appointee, got %v", err)
	}
	v := violations(err)
	if _, ok := v["appointee_name"]; !ok {
		t.Errorf("expected appointee_name violation, got %v", v)
	}

	req.AppointeeName = "Grandma Doe"
	req.AppointeePhone = "+15551234"
	a, err := h.CreateAppointment(ctx, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.AppointeeName != "Grandma Doe" || a.BookerName != "Test User" {
		t.Errorf("unexpected appointment: %+v", a)
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	h, _, _ := setup(t)
	_, ctx := registerUser(t, h)

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	tests := []struct {
		name   string
		mutate func(*rpc.CreateAppointmentRequest)
		field  string
	}{
		{"missing reason", func(r *rpc.CreateAppointmentRequest) { r.Reason = "  " }, "reason"},
		{"bad department", func(r *rpc.CreateAppointmentRequest) { r.Department = "Astrology" }, "department"},
		{"bad relationship", func(r *rpc.CreateAppointmentRequest) { r.Relationship = "Neighbour" }, "relationship"},
		{"past date", func(r *rpc.CreateAppointmentRequest) { r.PreferredDate = yesterday }, "preferred_date"},
		{"bad date", func(r *rpc.CreateAppointmentRequest) { r.PreferredDate = "01/02/2030" }, "preferred_date"},
		{"bad time", func(r *rpc.CreateAppointmentRequest) { r.PreferredTime = "25:00" }, "preferred_time"},
		{"bad appointee email", func(r *rpc.CreateAppointmentRequest) { r.AppointeeEmail = "nope" }, "appointee_email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := bookingForm()
			tt.mutate(req)
			_, err := h.CreateAppointment(ctx, req)
			if code(err) != codes.InvalidArgument {
				t.Fatalf("expected InvalidArgument, got %v", err)
			}
			if _, ok := violations(err)[tt.field]; !ok {
				t.Errorf("expected violation on %s, got %v", tt.field, violations(err))
			}
		})
	}
}

func TestGetAppointmentOwnership(t *testing.T) {
	h, st, _ := setup(t)
	_, owner := registerUser(t, h)
	_, stranger := registerUser(t, h)
	admin := registerAdmin(t, h, st)

	appt := createAppointment(t, h, owner)

	if _, err := h.GetAppointment(owner, &rpc.GetRequest{ID: appt.ID}); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := h.GetAppointment(admin, &rpc.GetRequest{ID: appt.ID}); err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if _, err := h.GetAppointment(stranger, &rpc.GetRequest{ID: appt.ID}); code(err) != codes.NotFound {
		t.Errorf("stranger: expected NotFound, got %v", err)
	}
	if _, err := h.GetAppointment(owner, &rpc.GetRequest{ID: uuid.New().String()}); code(err) != codes.NotFound {
		t.Errorf("missing: expected NotFound, got %v", err)
	}
	if _, err := h.GetAppointment(owner, &rpc.GetRequest{ID: "not-a-uuid"}); code(err) != codes.NotFound {
		t.Errorf("malformed id: expected NotFound, got %v", err)
	}
}

func TestListAppointments(t *testing.T) {
	h, st, _ := setup(t)
	_, ctx := registerUser(t, h)
	_, other := registerUser(t, h)
	admin := registerAdmin(t, h, st)

	first := createAppointment(t, h, ctx)
	second := createAppointment(t, h, ctx)
	createAppointment(t, h, other)

	if _, err := h.SetAppointmentStatus(admin, &rpc.SetStatusRequest{ID: first.ID, Status: "Approved"}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	lr, err := h.ListAppointments(ctx, &rpc.ListRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lr.Appointments) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(lr.Appointments))
	}
	if lr.Appointments[0].ID != second.ID {
		t.Errorf("expected newest first")
	}

	for _, f := range []string{"approved", "APPROVED", "Approved"} {
		lr, err = h.ListAppointments(ctx, &rpc.ListRequest{Status: f})
		if err != nil {
			t.Fatalf("list %s: %v", f, err)
		}
		if len(lr.Appointments) != 1 || lr.Appointments[0].ID != first.ID {
			t.Errorf("filter %q: got %d appointments", f, len(lr.Appointments))
		}
	}

	lr, _ = h.ListAppointments(ctx, &rpc.ListRequest{Status: "all"})
	if len(lr.Appointments) != 2 {
		t.Errorf("all: expected 2, got %d", len(lr.Appointments))
	}
	if _, err := h.ListAppointments(ctx, &rpc.ListRequest{Status: "done"}); code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument for unknown status, got %v", err)
	}
}

// ----- help requests -----

func TestCreateHelpRequestCopiesContact(t *testing.T) {
	h, _, _ := setup(t)
	rr, ctx := registerUser(t, h)

	hr := createHelpRequest(t, h, ctx)
	if hr.Status != "Pending" {
		t.Errorf("status: got %s", hr.Status)
	}
	if hr.Name != "Test User" || hr.Email != rr.Email || hr.Phone != "+1234567890" {
		t.Errorf("contact not copied: %+v", hr)
	}

	bad := helpForm()
	bad.Urgency = "Whenever"
	bad.ContactPreference = "Pigeon"
	_, err := h.CreateHelpRequest(ctx, bad)
	v := violations(err)
	if _, ok := v["urgency"]; !ok {
		t.Errorf("expected urgency violation, got %v", v)
	}
	if _, ok := v["contact_preference"]; !ok {
		t.Errorf("expected contact_preference violation, got %v", v)
	}
}

func TestHelpRequestOwnershipAndList(t *testing.T) {
	h, _, _ := setup(t)
	_, owner := registerUser(t, h)
	_, stranger := registerUser(t, h)

	hr := createHelpRequest(t, h, owner)
	if _, err := h.GetHelpRequest(stranger, &rpc.GetRequest{ID: hr.ID}); code(err) != codes.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
	got, err := h.GetHelpRequest(owner, &rpc.GetRequest{ID: hr.ID})
	if err != nil || got.ID != hr.ID {
		t.Fatalf("owner get: %v", err)
	}

	lr, err := h.ListHelpRequests(stranger, &rpc.ListRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lr.HelpRequests) != 0 {
		t.Errorf("stranger sees %d help requests", len(lr.HelpRequests))
	}
}

// ----- admin -----

func TestAdminOnly(t *testing.T) {
	h, _, _ := setup(t)
	_, ctx := registerUser(t, h)
	appt := createAppointment(t, h, ctx)

	if _, err := h.AdminListAppointments(ctx, &rpc.ListRequest{}); code(err) != codes.PermissionDenied {
		t.Errorf("list: expected PermissionDenied, got %v", err)
	}
	if _, err := h.AdminListHelpRequests(ctx, &rpc.ListRequest{}); code(err) != codes.PermissionDenied {
		t.Errorf("list help: expected PermissionDenied, got %v", err)
	}
	_, err := h.SetAppointmentStatus(ctx, &rpc.SetStatusRequest{ID: appt.ID, Status: "Approved"})
	if code(err) != codes.PermissionDenied {
		t.Errorf("decide: expected PermissionDenied, got %v", err)
	}
	if _, err := h.AdminListAppointments(context.Background(), &rpc.ListRequest{}); code(err) != codes.Unauthenticated {
		t.Errorf("anonymous: expected Unauthenticated, got %v", err)
	}
}

func TestSetAppointmentStatus(t *testing.T) {
	h, st, n := setup(t)
	rr, ctx := registerUser(t, h)
	admin := registerAdmin(t, h, st)
	appt := createAppointment(t, h, ctx)

	all, err := h.AdminListAppointments(admin, &rpc.ListRequest{Status: "pending"})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all.Appointments) != 1 {
		t.Fatalf("expected 1 pending, got %d", len(all.Appointments))
	}

	got, err := h.SetAppointmentStatus(admin, &rpc.SetStatusRequest{ID: appt.ID, Status: "approved"})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.Status != "Approved" || got.ReviewedAt == nil || got.ReviewedBy == "" || got.UpdatedBy != "admin" {
		t.Errorf("review not recorded: %+v", got)
	}

	_, err = h.SetAppointmentStatus(admin, &rpc.SetStatusRequest{ID: appt.ID, Status: "Rejected"})
	if code(err) != codes.FailedPrecondition {
		t.Errorf("second decision: expected FailedPrecondition, got %v", err)
	}

	if len(n.notices) != 1 || n.notices[0].Email != rr.Email || n.notices[0].Status != model.StatusApproved {
		t.Errorf("unexpected notices: %+v", n.notices)
	}
}

func TestSetStatusRejectsBadInput(t *testing.T) {
	h, st, _ := setup(t)
	_, ctx := registerUser(t, h)
	admin := registerAdmin(t, h, st)
	hr := createHelpRequest(t, h, ctx)

	for _, s := range []string{"Pending", "In Progress", "done", ""} {
		_, err := h.SetHelpRequestStatus(admin, &rpc.SetStatusRequest{ID: hr.ID, Status: s})
		if code(err) != codes.InvalidArgument {
			t.Errorf("status %q: expected InvalidArgument, got %v", s, err)
		}
	}
	_, err := h.SetHelpRequestStatus(admin, &rpc.SetStatusRequest{ID: uuid.New().String(), Status: "Rejected"})
	if code(err) != codes.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}

	got, err := h.SetHelpRequestStatus(admin, &rpc.SetStatusRequest{ID: hr.ID, Status: "REJECTED"})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Status != "Rejected" {
		t.Errorf("status: got %s", got.Status)
	}
}

func TestConcurrentDecisionsOneWins(t *testing.T) {
	h, st, _ := setup(t)
	_, ctx := registerUser(t, h)
	admin := registerAdmin(t, h, st)
	appt := createAppointment(t, h, ctx)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		won  int
		lost int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := "Approved"
			if i%2 == 1 {
				s = "Rejected"
			}
			_, err := h.SetAppointmentStatus(admin, &rpc.SetStatusRequest{ID: appt.ID, Status: s})
			mu.Lock()
			defer mu.Unlock()
			switch code(err) {
			case codes.OK:
				won++
			case codes.FailedPrecondition:
				lost++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if won != 1 || lost != 9 {
		t.Errorf("expected exactly one winner, got %d won / %d lost", won, lost)
	}
}

func TestGetStats(t *testing.T) {
	h, st, _ := setup(t)
	_, ctx := registerUser(t, h)
	_, other := registerUser(t, h)
	admin := registerAdmin(t, h, st)

	a := createAppointment(t, h, ctx)
	createAppointment(t, h, ctx)
	createHelpRequest(t, h, ctx)
	createHelpRequest(t, h, other)
	if _, err := h.SetAppointmentStatus(admin, &rpc.SetStatusRequest{ID: a.ID, Status: "Rejected"}); err != nil {
		t.Fatalf("reject: %v", err)
	}

	s, err := h.GetStats(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.Appointments.Total != 2 || s.Appointments.Pending != 1 || s.Appointments.Rejected != 1 {
		t.Errorf("appointment counts: %+v", s.Appointments)
	}
	if s.HelpRequests.Total != 1 {
		t.Errorf("help counts: %+v", s.HelpRequests)
	}

	s, err = h.GetStats(admin, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("admin stats: %v", err)
	}
	if s.HelpRequests.Total != 2 {
		t.Errorf("admin should see global counts, got %+v", s.HelpRequests)
	}
}

func TestInternalErrorsAreHidden(t *testing.T) {
	h, st, _ := setup(t)
	_, ctx := registerUser(t, h)
	st.Err = fmt.Errorf("connection reset by peer")

	_, err := h.ListAppointments(ctx, &rpc.ListRequest{})
	if code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
	if status.Convert(err).Message() != "internal error" {
		t.Errorf("cause leaked: %q", status.Convert(err).Message())
	}
}
