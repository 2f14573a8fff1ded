package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"booking-requests-api/internal/model"
	"booking-requests-api/internal/rpc"
	"booking-requests-api/internal/store"
	"booking-requests-api/internal/validate"
)

func (h *Handler) CreateAppointment(ctx context.Context, req *rpc.CreateAppointmentRequest) (*rpc.Appointment, error) {
	u, err := h.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	trim(&req.AppointeeName, &req.AppointeePhone, &req.AppointeeEmail, &req.Relationship,
		&req.Reason, &req.Department, &req.PreferredDate, &req.PreferredTime, &req.Notes)
	req.AppointeeEmail = normalizeEmail(req.AppointeeEmail)
	if req.Relationship == "" {
		req.Relationship = model.RelationshipSelf
	}
	// booking for oneself: the form is prefilled from the profile
	if req.Relationship == model.RelationshipSelf {
		fill(&req.AppointeeName, u.Name)
		fill(&req.AppointeePhone, u.Phone)
		fill(&req.AppointeeEmail, u.Email)
	}
	if fe := validate.Struct(req); fe != nil {
		return nil, invalid(fe)
	}

	a := &model.Appointment{
		ID:             uuid.New().String(),
		UserID:         u.ID,
		BookerName:     u.Name,
		BookerPhone:    u.Phone,
		BookerEmail:    u.Email,
		AppointeeName:  req.AppointeeName,
		AppointeePhone: req.AppointeePhone,
		AppointeeEmail: req.AppointeeEmail,
		Relationship:   req.Relationship,
		Reason:         req.Reason,
		Department:     req.Department,
		PreferredDate:  req.PreferredDate,
		PreferredTime:  req.PreferredTime,
		Notes:          req.Notes,
		Status:         model.StatusPending,
	}
	if err := h.store.CreateAppointment(ctx, a); err != nil {
		return nil, h.internal("create appointment", err)
	}
	h.publish(ctx, model.KindAppointment, a.ID, a.UserID, a.Status)

	return toAppointment(a), nil
}

func (h *Handler) GetAppointment(ctx context.Context, req *rpc.GetRequest) (*rpc.Appointment, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if !validID(req.ID) {
		return nil, notFound()
	}

	a, err := h.store.GetAppointment(ctx, req.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, h.internal("get appointment", err)
	}
	// ownership: 404 not 403 to hide existence
	if a.UserID != id.UserID && !id.IsAdmin() {
		return nil, notFound()
	}
	return toAppointment(a), nil
}

func (h *Handler) ListAppointments(ctx context.Context, req *rpc.ListRequest) (*rpc.AppointmentList, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	st, err := statusFilter(req.Status)
	if err != nil {
		return nil, err
	}
	return h.listAppointments(ctx, model.Filter{OwnerID: id.UserID, Status: st})
}

func (h *Handler) listAppointments(ctx context.Context, f model.Filter) (*rpc.AppointmentList, error) {
	apts, err := h.store.ListAppointments(ctx, f)
	if err != nil {
		return nil, h.internal("list appointments", err)
	}
	return &rpc.AppointmentList{Appointments: toAppointments(apts)}, nil
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
