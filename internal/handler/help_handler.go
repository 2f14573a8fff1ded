package handler

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/emptypb"

	"booking-requests-api/internal/model"
	"booking-requests-api/internal/rpc"
	"booking-requests-api/internal/store"
	"booking-requests-api/internal/validate"
)

// CreateHelpRequest files a request; the contact details come from the profile.
func (h *Handler) CreateHelpRequest(ctx context.Context, req *rpc.CreateHelpRequestRequest) (*rpc.HelpRequest, error) {
	u, err := h.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	trim(&req.HelpType, &req.Urgency, &req.Description, &req.ContactPreference, &req.AdditionalContact)
	if fe := validate.Struct(req); fe != nil {
		return nil, invalid(fe)
	}

	hr := &model.HelpRequest{
		ID:                uuid.New().String(),
		UserID:            u.ID,
		Name:              u.Name,
		Phone:             u.Phone,
		Email:             u.Email,
		HelpType:          req.HelpType,
		Urgency:           req.Urgency,
		Description:       req.Description,
		ContactPreference: req.ContactPreference,
		AdditionalContact: req.AdditionalContact,
		Status:            model.StatusPending,
	}
	if err := h.store.CreateHelpRequest(ctx, hr); err != nil {
		return nil, h.internal("create help request", err)
	}
	h.publish(ctx, model.KindHelpRequest, hr.ID, hr.UserID, hr.Status)

	return toHelpRequest(hr), nil
}

func (h *Handler) GetHelpRequest(ctx context.Context, req *rpc.GetRequest) (*rpc.HelpRequest, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if !validID(req.ID) {
		return nil, notFound()
	}

	hr, err := h.store.GetHelpRequest(ctx, req.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, h.internal("get help request", err)
	}
	if hr.UserID != id.UserID && !id.IsAdmin() {
		return nil, notFound()
	}
	return toHelpRequest(hr), nil
}

func (h *Handler) ListHelpRequests(ctx context.Context, req *rpc.ListRequest) (*rpc.HelpRequestList, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	st, err := statusFilter(req.Status)
	if err != nil {
		return nil, err
	}
	return h.listHelpRequests(ctx, model.Filter{OwnerID: id.UserID, Status: st})
}

func (h *Handler) listHelpRequests(ctx context.Context, f model.Filter) (*rpc.HelpRequestList, error) {
	hrs, err := h.store.ListHelpRequests(ctx, f)
	if err != nil {
		return nil, h.internal("list help requests", err)
	}
	return &rpc.HelpRequestList{HelpRequests: toHelpRequests(hrs)}, nil
}

// GetStats counts the caller's requests per status; administrators get global counts.
func (h *Handler) GetStats(ctx context.Context, _ *emptypb.Empty) (*rpc.Stats, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	owner := id.UserID
	if id.IsAdmin() {
		owner = ""
	}
	st, err := h.store.Stats(ctx, owner)
	if err != nil {
		return nil, h.internal("stats", err)
	}
	return &rpc.Stats{
		Appointments: toCounts(st.Appointments),
		HelpRequests: toCounts(st.HelpRequests),
	}, nil
}
