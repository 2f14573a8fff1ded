package handler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"booking-requests-api/internal/model"
	"booking-requests-api/internal/notify"
	"booking-requests-api/internal/rpc"
	"booking-requests-api/internal/store"
)

func (h *Handler) AdminListAppointments(ctx context.Context, req *rpc.ListRequest) (*rpc.AppointmentList, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	st, err := statusFilter(req.Status)
	if err != nil {
		return nil, err
	}
	return h.listAppointments(ctx, model.Filter{Status: st})
}

func (h *Handler) AdminListHelpRequests(ctx context.Context, req *rpc.ListRequest) (*rpc.HelpRequestList, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	st, err := statusFilter(req.Status)
	if err != nil {
		return nil, err
	}
	return h.listHelpRequests(ctx, model.Filter{Status: st})
}

func (h *Handler) SetAppointmentStatus(ctx context.Context, req *rpc.SetStatusRequest) (*rpc.Appointment, error) {
	review, err := h.review(ctx, req)
	if err != nil {
		return nil, err
	}

	a, err := h.store.SetAppointmentStatus(ctx, req.ID, review)
	if err != nil {
		return nil, h.decisionError("set appointment status", err)
	}
	h.decided(ctx, model.KindAppointment, a.ID, a.UserID, a.Status, review.ReviewedBy)
	if h.notifier != nil {
		h.notifier.Notify(notify.AppointmentNotice(a))
	}
	return toAppointment(a), nil
}

func (h *Handler) SetHelpRequestStatus(ctx context.Context, req *rpc.SetStatusRequest) (*rpc.HelpRequest, error) {
	review, err := h.review(ctx, req)
	if err != nil {
		return nil, err
	}

	hr, err := h.store.SetHelpRequestStatus(ctx, req.ID, review)
	if err != nil {
		return nil, h.decisionError("set help request status", err)
	}
	h.decided(ctx, model.KindHelpRequest, hr.ID, hr.UserID, hr.Status, review.ReviewedBy)
	if h.notifier != nil {
		h.notifier.Notify(notify.HelpRequestNotice(hr))
	}
	return toHelpRequest(hr), nil
}

// review checks the caller and the requested decision.
func (h *Handler) review(ctx context.Context, req *rpc.SetStatusRequest) (model.Review, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return model.Review{}, err
	}
	st, ok := model.ParseStatus(req.Status)
	if !ok || !st.IsDecision() {
		return model.Review{}, invalidField("status", "must be Approved or Rejected")
	}
	if !validID(req.ID) {
		return model.Review{}, notFound()
	}
	return model.Review{Status: st, ReviewedBy: admin.UserID, ReviewedAt: time.Now().UTC()}, nil
}

func (h *Handler) decisionError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFound()
	case errors.Is(err, store.ErrAlreadyDecided):
		return status.Error(codes.FailedPrecondition, "request already decided")
	}
	return h.internal(op, err)
}

func (h *Handler) decided(ctx context.Context, kind model.Kind, id, owner string, st model.Status, admin string) {
	h.log.Info("request decided",
		zap.String("kind", string(kind)),
		zap.String("id", id),
		zap.String("status", string(st)),
		zap.String("admin", admin))
	if h.metrics != nil {
		h.metrics.Decision(string(kind), string(st))
	}
	h.publish(ctx, kind, id, owner, st)
}
