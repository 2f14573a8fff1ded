package rpc

import (
	"encoding/json"
	"time"
)

type RegisterRequest struct {
	Email           string `json:"email" validate:"required,emailaddr"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password,omitempty" validate:"omitempty,eqfield=Password"`
	Name            string `json:"name" validate:"required,personname"`
	Phone           string `json:"phone" validate:"required,phone"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,emailaddr"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse is returned by Register, Login and Refresh.
type AuthResponse struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required,personname"`
	Phone string `json:"phone" validate:"required,phone"`
	Email string `json:"email" validate:"required,emailaddr"`
}

// CreateAppointmentRequest carries the booking form. Booker details are
// taken from the caller's profile; with relationship Self, empty appointee
// fields are filled from it too.
type CreateAppointmentRequest struct {
	AppointeeName  string `json:"appointee_name" validate:"required,personname"`
	AppointeePhone string `json:"appointee_phone" validate:"required,phone"`
	AppointeeEmail string `json:"appointee_email,omitempty" validate:"omitempty,emailaddr"`
	Relationship   string `json:"relationship" validate:"required,relationship"`
	Reason         string `json:"reason" validate:"required,max=500"`
	Department     string `json:"department" validate:"required,department"`
	PreferredDate  string `json:"preferred_date" validate:"required,pdate"`
	PreferredTime  string `json:"preferred_time" validate:"required,ptime"`
	Notes          string `json:"notes,omitempty" validate:"max=2000"`
}

type Appointment struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	BookerName     string     `json:"booker_name"`
	BookerPhone    string     `json:"booker_phone"`
	BookerEmail    string     `json:"booker_email"`
	AppointeeName  string     `json:"appointee_name"`
	AppointeePhone string     `json:"appointee_phone"`
	AppointeeEmail string     `json:"appointee_email,omitempty"`
	Relationship   string     `json:"relationship"`
	Reason         string     `json:"reason"`
	Department     string     `json:"department"`
	PreferredDate  string     `json:"preferred_date"`
	PreferredTime  string     `json:"preferred_time"`
	Notes          string     `json:"notes,omitempty"`
	Status         string     `json:"status"`
	ReviewedBy     string     `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	UpdatedBy      string     `json:"updated_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type CreateHelpRequestRequest struct {
	HelpType          string `json:"help_type" validate:"required,helptype"`
	Urgency           string `json:"urgency" validate:"required,urgency"`
	Description       string `json:"description" validate:"required,max=2000"`
	ContactPreference string `json:"contact_preference" validate:"required,contactpref"`
	AdditionalContact string `json:"additional_contact,omitempty" validate:"max=200"`
}

type HelpRequest struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Name              string     `json:"name"`
	Phone             string     `json:"phone"`
	Email             string     `json:"email"`
	HelpType          string     `json:"help_type"`
	Urgency           string     `json:"urgency"`
	Description       string     `json:"description"`
	ContactPreference string     `json:"contact_preference"`
	AdditionalContact string     `json:"additional_contact,omitempty"`
	Status            string     `json:"status"`
	ReviewedBy        string     `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
	UpdatedBy         string     `json:"updated_by,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type GetRequest struct {
	ID string `json:"id"`
}

// ListRequest filters by status; "" or "all" lists everything.
type ListRequest struct {
	Status string `json:"status,omitempty"`
}

type AppointmentList struct {
	Appointments []*Appointment `json:"appointments"`
}

type HelpRequestList struct {
	HelpRequests []*HelpRequest `json:"help_requests"`
}

type SetStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type StatusCounts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Approved   int `json:"approved"`
	Rejected   int `json:"rejected"`
	InProgress int `json:"in_progress"`
}

type Stats struct {
	Appointments StatusCounts `json:"appointments"`
	HelpRequests StatusCounts `json:"help_requests"`
}

// WatchRequest selects the collection to follow. All asks for every
// owner's records and needs the admin role.
type WatchRequest struct {
	Kind string `json:"kind"`
	All  bool   `json:"all,omitempty"`
}

// Snapshot is the full, newest-first result set pushed on every change.
type Snapshot struct {
	Kind         string         `json:"kind"`
	Appointments []*Appointment `json:"appointments,omitempty"`
	HelpRequests []*HelpRequest `json:"help_requests,omitempty"`
	SentAt       time.Time      `json:"sent_at"`
}

// MarshalJSON always writes the list named by Kind, as [] when empty.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind         string          `json:"kind"`
		Appointments *[]*Appointment `json:"appointments,omitempty"`
		HelpRequests *[]*HelpRequest `json:"help_requests,omitempty"`
		SentAt       time.Time       `json:"sent_at"`
	}{Kind: s.Kind, SentAt: s.SentAt}

	if s.Appointments != nil || s.Kind == "appointments" {
		list := s.Appointments
		if list == nil {
			list = []*Appointment{}
		}
		out.Appointments = &list
	}
	if s.HelpRequests != nil || s.Kind == "help_requests" {
		list := s.HelpRequests
		if list == nil {
			list = []*HelpRequest{}
		}
		out.HelpRequests = &list
	}
	return json.Marshal(out)
}
