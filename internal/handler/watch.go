package handler

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"booking-requests-api/internal/model"
	"booking-requests-api/internal/rpc"
)

// Subscribe sends a snapshot of the requested collection, then a fresh one
// after every change that concerns it, until ctx ends or send fails.
// Snapshots are ordered newest first.
func (h *Handler) Subscribe(ctx context.Context, req *rpc.WatchRequest, send func(*rpc.Snapshot) error) error {
	id, err := caller(ctx)
	if err != nil {
		return err
	}
	kind, ok := model.ParseKind(req.Kind)
	if !ok {
		return invalidField("kind", "must be appointments or help_requests")
	}
	owner := id.UserID
	if req.All {
		if !id.IsAdmin() {
			return status.Error(codes.PermissionDenied, "admin only")
		}
		owner = ""
	}

	// subscribe before the first fetch so no change slips between them
	sub := h.hub.Subscribe(kind, owner)
	defer sub.Close()
	if h.metrics != nil {
		h.metrics.SubscriptionOpened()
		defer h.metrics.SubscriptionClosed()
	}

	for {
		snap, err := h.snapshot(ctx, kind, owner)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := send(snap); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-sub.C():
		}
	}
}

func (h *Handler) Watch(req *rpc.WatchRequest, stream rpc.BookingService_WatchServer) error {
	return h.Subscribe(stream.Context(), req, stream.Send)
}

func (h *Handler) snapshot(ctx context.Context, kind model.Kind, owner string) (*rpc.Snapshot, error) {
	snap := &rpc.Snapshot{Kind: string(kind), SentAt: time.Now().UTC()}
	f := model.Filter{OwnerID: owner}
	switch kind {
	case model.KindAppointment:
		l, err := h.listAppointments(ctx, f)
		if err != nil {
			return nil, err
		}
		snap.Appointments = l.Appointments
	case model.KindHelpRequest:
		l, err := h.listHelpRequests(ctx, f)
		if err != nil {
			return nil, err
		}
		snap.HelpRequests = l.HelpRequests
	}
	return snap, nil
}
