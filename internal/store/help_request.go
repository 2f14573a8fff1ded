package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"booking-requests-api/internal/model"
)

const helpRequestCols = `id, user_id, name, phone, email, help_type, urgency, description,
	contact_preference, additional_contact, status, reviewed_by, reviewed_at, updated_by,
	created_at, updated_at`

func scanHelpRequest(row pgx.Row) (*model.HelpRequest, error) {
	h := &model.HelpRequest{}
	err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Phone, &h.Email, &h.HelpType, &h.Urgency, &h.Description,
		&h.ContactPreference, &h.AdditionalContact, &h.Status, &h.ReviewedBy, &h.ReviewedAt, &h.UpdatedBy,
		&h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return h, nil
}

func (s *Store) CreateHelpRequest(ctx context.Context, h *model.HelpRequest) error {
	return s.pool.QueryRow(ctx,
		`INSERT INTO help_requests (id, user_id, name, phone, email, help_type, urgency, description,
			contact_preference, additional_contact, status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 RETURNING created_at, updated_at`,
		h.ID, h.UserID, h.Name, h.Phone, h.Email, h.HelpType, h.Urgency, h.Description,
		h.ContactPreference, h.AdditionalContact, h.Status,
	).Scan(&h.CreatedAt, &h.UpdatedAt)
}

func (s *Store) GetHelpRequest(ctx context.Context, id string) (*model.HelpRequest, error) {
	return scanHelpRequest(s.pool.QueryRow(ctx,
		`SELECT `+helpRequestCols+` FROM help_requests WHERE id = $1`, id))
}

func (s *Store) ListHelpRequests(ctx context.Context, f model.Filter) ([]model.HelpRequest, error) {
	q, args := filtered(`SELECT `+helpRequestCols+` FROM help_requests`, f)
	rows, err := s.pool.Query(ctx, q+` ORDER BY created_at DESC, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.HelpRequest{}
	for rows.Next() {
		h, err := scanHelpRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

func (s *Store) SetHelpRequestStatus(ctx context.Context, id string, r model.Review) (*model.HelpRequest, error) {
	h, err := scanHelpRequest(s.pool.QueryRow(ctx,
		`UPDATE help_requests
		 SET status=$1, reviewed_by=$2, reviewed_at=$3, updated_by='admin', updated_at=NOW()
		 WHERE id=$4 AND status='Pending'
		 RETURNING `+helpRequestCols,
		r.Status, r.ReviewedBy, r.ReviewedAt, id,
	))
	if errors.Is(err, ErrNotFound) {
		return nil, s.undecidable(ctx, "help_requests", id)
	}
	return h, err
}
