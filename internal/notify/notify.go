// Package notify tells requesters that an administrator decided their request.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"booking-requests-api/internal/model"
)

const DefaultTimeout = 30 * time.Second

// Channel names, also used as metric labels.
const (
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
	ChannelLog      = "log"
)

var ErrNoAddress = errors.New("no address for channel")

// Sender delivers one message to one address.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Recorder interface {
	Notification(channel string, err error)
}

// Notice is a decided request ready to be announced.
type Notice struct {
	Kind      model.Kind
	RequestID string
	Status    model.Status
	Name      string
	Email     string
	Phone     string
	// Preference is the requester's contact preference; appointments use email.
	Preference string
	Subject    string
	Body       string
}

func AppointmentNotice(a *model.Appointment) Notice {
	return Notice{
		Kind:       model.KindAppointment,
		RequestID:  a.ID,
		Status:     a.Status,
		Name:       a.BookerName,
		Email:      a.BookerEmail,
		Phone:      a.BookerPhone,
		Preference: model.ContactEmail,
		Subject:    fmt.Sprintf("Your appointment request was %s", lower(a.Status)),
		Body: fmt.Sprintf("Hello %s,\n\nYour appointment request for %s (%s on %s at %s) was %s.\n\nReference: %s\n",
			a.BookerName, a.AppointeeName, a.Department, a.PreferredDate, a.PreferredTime, lower(a.Status), a.ID),
	}
}

func HelpRequestNotice(h *model.HelpRequest) Notice {
	return Notice{
		Kind:       model.KindHelpRequest,
		RequestID:  h.ID,
		Status:     h.Status,
		Name:       h.Name,
		Email:      h.Email,
		Phone:      h.Phone,
		Preference: h.ContactPreference,
		Subject:    fmt.Sprintf("Your help request was %s", lower(h.Status)),
		Body: fmt.Sprintf("Hello %s,\n\nYour %s request (%s urgency) was %s.\n\nReference: %s\n",
			h.Name, h.HelpType, h.Urgency, lower(h.Status), h.ID),
	}
}

func lower(s model.Status) string {
	switch s {
	case model.StatusApproved:
		return "approved"
	case model.StatusRejected:
		return "rejected"
	}
	return string(s)
}

// Dispatcher routes notices to a sender by contact preference. A nil sender
// means the channel is not configured and the notice is only logged.
type Dispatcher struct {
	Email    Sender
	SMS      Sender
	WhatsApp Sender

	log     *zap.Logger
	rec     Recorder
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(log *zap.Logger, rec Recorder) *Dispatcher {
	return &Dispatcher{log: log, rec: rec, timeout: DefaultTimeout}
}

// Notify delivers n in the background; failures are logged, never returned.
func (d *Dispatcher) Notify(n Notice) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.Deliver(ctx, n); err != nil {
			d.log.Warn("notification failed",
				zap.String("kind", string(n.Kind)),
				zap.String("id", n.RequestID),
				zap.Error(err))
		}
	}()
}

// Wait blocks until background deliveries finish.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Deliver sends n synchronously, bounded by ctx.
func (d *Dispatcher) Deliver(ctx context.Context, n Notice) error {
	channel, sender, to := d.route(n)
	if sender == nil {
		d.log.Info("notification logged",
			zap.String("kind", string(n.Kind)),
			zap.String("id", n.RequestID),
			zap.String("status", string(n.Status)),
			zap.String("preference", n.Preference))
		d.record(ChannelLog, nil)
		return nil
	}
	if to == "" {
		d.record(channel, ErrNoAddress)
		return fmt.Errorf("%s: %w", channel, ErrNoAddress)
	}

	errc := make(chan error, 1)
	go func() { errc <- sender.Send(ctx, to, n.Subject, n.Body) }()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
		err = ctx.Err()
	}
	d.record(channel, err)
	if err != nil {
		return fmt.Errorf("%s: %w", channel, err)
	}
	d.log.Debug("notification sent", zap.String("channel", channel), zap.String("id", n.RequestID))
	return nil
}

func (d *Dispatcher) route(n Notice) (string, Sender, string) {
	switch n.Preference {
	case model.ContactEmail:
		return ChannelEmail, d.Email, n.Email
	case model.ContactSMS:
		return ChannelSMS, d.SMS, n.Phone
	case model.ContactWhatsApp:
		return ChannelWhatsApp, d.WhatsApp, n.Phone
	}
	return ChannelLog, nil, ""
}

func (d *Dispatcher) record(channel string, err error) {
	if d.rec != nil {
		d.rec.Notification(channel, err)
	}
}
