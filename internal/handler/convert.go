package handler

import (
	"booking-requests-api/internal/model"
	"booking-requests-api/internal/rpc"
)

func toProfile(u *model.User) *rpc.Profile {
	return &rpc.Profile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toAppointment(a *model.Appointment) *rpc.Appointment {
	return &rpc.Appointment{
		ID:             a.ID,
		UserID:         a.UserID,
		BookerName:     a.BookerName,
		BookerPhone:    a.BookerPhone,
		BookerEmail:    a.BookerEmail,
		AppointeeName:  a.AppointeeName,
		AppointeePhone: a.AppointeePhone,
		AppointeeEmail: a.AppointeeEmail,
		Relationship:   a.Relationship,
		Reason:         a.Reason,
		Department:     a.Department,
		PreferredDate:  a.PreferredDate,
		PreferredTime:  a.PreferredTime,
		Notes:          a.Notes,
		Status:         string(a.Status),
		ReviewedBy:     a.ReviewedBy,
		ReviewedAt:     a.ReviewedAt,
		UpdatedBy:      a.UpdatedBy,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func toAppointments(in []model.Appointment) []*rpc.Appointment {
	out := make([]*rpc.Appointment, len(in))
	for i := range in {
		out[i] = toAppointment(&in[i])
	}
	return out
}

func toHelpRequest(h *model.HelpRequest) *rpc.HelpRequest {
	return &rpc.HelpRequest{
		ID:                h.ID,
		UserID:            h.UserID,
		Name:              h.Name,
		Phone:             h.Phone,
		Email:             h.Email,
		HelpType:          h.HelpType,
		Urgency:           h.Urgency,
		Description:       h.Description,
		ContactPreference: h.ContactPreference,
		AdditionalContact: h.AdditionalContact,
		Status:            string(h.Status),
		ReviewedBy:        h.ReviewedBy,
		ReviewedAt:        h.ReviewedAt,
		UpdatedBy:         h.UpdatedBy,
		CreatedAt:         h.CreatedAt,
		UpdatedAt:         h.UpdatedAt,
	}
}

func toHelpRequests(in []model.HelpRequest) []*rpc.HelpRequest {
	out := make([]*rpc.HelpRequest, len(in))
	for i := range in {
		out[i] = toHelpRequest(&in[i])
	}
	return out
}

func toCounts(c model.StatusCounts) rpc.StatusCounts {
	return rpc.StatusCounts{
		Total:      c.Total,
		Pending:    c.Pending,
		Approved:   c.Approved,
		Rejected:   c.Rejected,
		InProgress: c.InProgress,
	}
}
