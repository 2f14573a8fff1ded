package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"booking-requests-api/internal/model"
)

const appointmentCols = `id, user_id, booker_name, booker_phone, booker_email,
	appointee_name, appointee_phone, appointee_email, relationship, reason, department,
	preferred_date, preferred_time, notes, status, reviewed_by, reviewed_at, updated_by,
	created_at, updated_at`

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := row.Scan(&a.ID, &a.UserID, &a.BookerName, &a.BookerPhone, &a.BookerEmail,
		&a.AppointeeName, &a.AppointeePhone, &a.AppointeeEmail, &a.Relationship, &a.Reason, &a.Department,
		&a.PreferredDate, &a.PreferredTime, &a.Notes, &a.Status, &a.ReviewedBy, &a.ReviewedAt, &a.UpdatedBy,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	return s.pool.QueryRow(ctx,
		`INSERT INTO appointments (id, user_id, booker_name, booker_phone, booker_email,
			appointee_name, appointee_phone, appointee_email, relationship, reason, department,
			preferred_date, preferred_time, notes, status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		 RETURNING created_at, updated_at`,
		a.ID, a.UserID, a.BookerName, a.BookerPhone, a.BookerEmail,
		a.AppointeeName, a.AppointeePhone, a.AppointeeEmail, a.Relationship, a.Reason, a.Department,
		a.PreferredDate, a.PreferredTime, a.Notes, a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	return scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
}

// ListAppointments returns the matching appointments, newest first.
func (s *Store) ListAppointments(ctx context.Context, f model.Filter) ([]model.Appointment, error) {
	q, args := filtered(`SELECT `+appointmentCols+` FROM appointments`, f)
	rows, err := s.pool.Query(ctx, q+` ORDER BY created_at DESC, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// SetAppointmentStatus applies an administrator decision to a pending appointment.
func (s *Store) SetAppointmentStatus(ctx context.Context, id string, r model.Review) (*model.Appointment, error) {
	a, err := scanAppointment(s.pool.QueryRow(ctx,
		`UPDATE appointments
		 SET status=$1, reviewed_by=$2, reviewed_at=$3, updated_by='admin', updated_at=NOW()
		 WHERE id=$4 AND status='Pending'
		 RETURNING `+appointmentCols,
		r.Status, r.ReviewedBy, r.ReviewedAt, id,
	))
	if errors.Is(err, ErrNotFound) {
		return nil, s.undecidable(ctx, "appointments", id)
	}
	return a, err
}

// undecidable explains why a conditional status update touched no row.
func (s *Store) undecidable(ctx context.Context, table, id string) error {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrAlreadyDecided
	}
	return ErrNotFound
}

func filtered(q string, f model.Filter) (string, []any) {
	var args []any
	where := ""
	if f.OwnerID != "" {
		args = append(args, f.OwnerID)
		where = ` WHERE user_id = $1`
	}
	if f.Status != "" {
		args = append(args, f.Status)
		if where == "" {
			where = ` WHERE status = $1`
		} else {
			where += ` AND status = $2`
		}
	}
	return q + where, args
}
