package handler

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"booking-requests-api/internal/middleware"
	"booking-requests-api/internal/model"
	"booking-requests-api/internal/validate"
)

// invalid builds an InvalidArgument error with one BadRequest violation per field.
func invalid(fields []validate.FieldError) error {
	st := status.New(codes.InvalidArgument, "validation failed")
	br := &errdetails.BadRequest{}
	for _, f := range fields {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       f.Field,
			Description: f.Message,
		})
	}
	if d, err := st.WithDetails(br); err == nil {
		return d.Err()
	}
	return st.Err()
}

func invalidField(field, msg string) error {
	return invalid([]validate.FieldError{{Field: field, Message: msg}})
}

// internal logs the cause and hides it from the caller.
func (h *Handler) internal(op string, err error) error {
	h.log.Error(op, zap.Error(err))
	return status.Error(codes.Internal, "internal error")
}

func caller(ctx context.Context) (middleware.Identity, error) {
	id, ok := middleware.IdentityFrom(ctx)
	if !ok {
		return id, status.Error(codes.Unauthenticated, "not authenticated")
	}
	return id, nil
}

func requireAdmin(ctx context.Context) (middleware.Identity, error) {
	id, err := caller(ctx)
	if err != nil {
		return id, err
	}
	if !id.IsAdmin() {
		return id, status.Error(codes.PermissionDenied, "admin only")
	}
	return id, nil
}

func notFound() error { return status.Error(codes.NotFound, "not found") }

// validID rejects malformed ids before they reach the database.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// statusFilter parses a list filter; "" and "all" mean no filter.
func statusFilter(s string) (model.Status, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return "", nil
	}
	st, ok := model.ParseStatus(s)
	if !ok {
		return "", invalidField("status", "must be one of Pending, Approved, Rejected, In Progress or all")
	}
	return st, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
