package store

import (
	"context"

	"booking-requests-api/internal/model"
)

// Stats counts requests per status. An empty ownerID counts every owner.
func (s *Store) Stats(ctx context.Context, ownerID string) (*model.Stats, error) {
	st := &model.Stats{}
	if err := s.countByStatus(ctx, "appointments", ownerID, &st.Appointments); err != nil {
		return nil, err
	}
	if err := s.countByStatus(ctx, "help_requests", ownerID, &st.HelpRequests); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) countByStatus(ctx context.Context, table, ownerID string, c *model.StatusCounts) error {
	q, args := filtered(`SELECT status, count(*) FROM `+table, model.Filter{OwnerID: ownerID})
	rows, err := s.pool.Query(ctx, q+` GROUP BY status`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status model.Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return err
		}
		c.Add(status, n)
	}
	return rows.Err()
}
