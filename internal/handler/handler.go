package handler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"booking-requests-api/internal/live"
	"booking-requests-api/internal/model"
	"booking-requests-api/internal/notify"
	"booking-requests-api/internal/rpc"
	"booking-requests-api/internal/store"
)

// Store is the persistence the handler needs; *store.Store implements it.
type Store interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id string) (*model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error

	CreateRefreshToken(ctx context.Context, id, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*store.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error

	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointments(ctx context.Context, f model.Filter) ([]model.Appointment, error)
	SetAppointmentStatus(ctx context.Context, id string, r model.Review) (*model.Appointment, error)

	CreateHelpRequest(ctx context.Context, h *model.HelpRequest) error
	GetHelpRequest(ctx context.Context, id string) (*model.HelpRequest, error)
	ListHelpRequests(ctx context.Context, f model.Filter) ([]model.HelpRequest, error)
	SetHelpRequestStatus(ctx context.Context, id string, r model.Review) (*model.HelpRequest, error)

	Stats(ctx context.Context, ownerID string) (*model.Stats, error)
}

type Notifier interface {
	Notify(n notify.Notice)
}

// Recorder receives domain metrics.
type Recorder interface {
	SubscriptionOpened()
	SubscriptionClosed()
	Decision(kind, status string)
}

type Handler struct {
	rpc.UnimplementedBookingServiceServer
	store    Store
	secret   string
	hub      *live.Hub
	events   live.Publisher
	notifier Notifier
	metrics  Recorder
	log      *zap.Logger
}

type Option func(*Handler)

func WithLogger(log *zap.Logger) Option { return func(h *Handler) { h.log = log } }

// WithLive sets the hub subscriptions listen on and the publisher writes
// announce to. They differ when events travel through Redis.
func WithLive(hub *live.Hub, pub live.Publisher) Option {
	return func(h *Handler) { h.hub, h.events = hub, pub }
}

func WithNotifier(n Notifier) Option { return func(h *Handler) { h.notifier = n } }

func WithMetrics(m Recorder) Option { return func(h *Handler) { h.metrics = m } }

func New(st Store, secret string, opts ...Option) *Handler {
	h := &Handler{store: st, secret: secret, log: zap.NewNop()}
	for _, o := range opts {
		o(h)
	}
	if h.hub == nil {
		h.hub = live.NewHub()
	}
	if h.events == nil {
		h.events = h.hub
	}
	return h
}

// Hub exposes the subscription hub, e.g. for a Redis relay.
func (h *Handler) Hub() *live.Hub { return h.hub }

func (h *Handler) publish(ctx context.Context, kind model.Kind, id, owner string, st model.Status) {
	e := live.Event{Kind: kind, ID: id, OwnerID: owner, Status: st, At: time.Now().UTC()}
	if err := h.events.Publish(ctx, e); err != nil {
		h.log.Warn("publish change", zap.String("kind", string(kind)), zap.String("id", id), zap.Error(err))
	}
}
