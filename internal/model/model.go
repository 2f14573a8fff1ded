package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type Status string

const (
	StatusPending    Status = "Pending"
	StatusApproved   Status = "Approved"
	StatusRejected   Status = "Rejected"
	StatusInProgress Status = "In Progress"
)

var statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusInProgress}

// ParseStatus matches s against the known statuses ignoring case and
// surrounding space. "in_progress" and "in-progress" are accepted too.
func ParseStatus(s string) (Status, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	for _, st := range statuses {
		if strings.ToLower(string(st)) == norm {
			return st, true
		}
	}
	return "", false
}

// IsDecision reports whether an administrator may set st on a pending request.
func (st Status) IsDecision() bool {
	return st == StatusApproved || st == StatusRejected
}

// Kind names the two request collections.
type Kind string

const (
	KindAppointment Kind = "appointments"
	KindHelpRequest Kind = "help_requests"
)

func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "appointments", "appointment":
		return KindAppointment, true
	case "help_requests", "help-requests", "helprequests", "help_request", "help":
		return KindHelpRequest, true
	}
	return "", false
}

// Review records the administrator decision on a request.
type Review struct {
	Status     Status
	ReviewedBy string
	ReviewedAt time.Time
}

type Appointment struct {
	ID             string
	UserID         string
	BookerName     string
	BookerPhone    string
	BookerEmail    string
	AppointeeName  string
	AppointeePhone string
	AppointeeEmail string
	Relationship   string
	Reason         string
	Department     string
	PreferredDate  string
	PreferredTime  string
	Notes          string
	Status         Status
	ReviewedBy     string
	ReviewedAt     *time.Time
	UpdatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type HelpRequest struct {
	ID                string
	UserID            string
	Name              string
	Phone             string
	Email             string
	HelpType          string
	Urgency           string
	Description       string
	ContactPreference string
	AdditionalContact string
	Status            Status
	ReviewedBy        string
	ReviewedAt        *time.Time
	UpdatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Filter scopes list queries. Empty OwnerID means every owner,
// empty Status means every status.
type Filter struct {
	OwnerID string
	Status  Status
}

type StatusCounts struct {
	Total      int
	Pending    int
	Approved   int
	Rejected   int
	InProgress int
}

func (c *StatusCounts) Add(st Status, n int) {
	c.Total += n
	switch st {
	case StatusPending:
		c.Pending += n
	case StatusApproved:
		c.Approved += n
	case StatusRejected:
		c.Rejected += n
	case StatusInProgress:
		c.InProgress += n
	}
}

type Stats struct {
	Appointments StatusCounts
	HelpRequests StatusCounts
}

// Allowed values for the enumerated form fields.
var (
	Relationships = []string{"Self", "Family Member", "Friend", "Colleague", "Other"}

	Departments = []string{
		"General Consultation", "Medical", "Legal", "Educational",
		"Social Services", "Technical Support", "Other",
	}

	HelpTypes = []string{
		"Food Assistance", "Medical Help", "Educational Support", "Financial Aid",
		"Legal Assistance", "Housing Support", "Job Assistance", "Emergency Help", "Other",
	}

	UrgencyLevels = []string{"Low", "Medium", "High", "Emergency"}

	ContactPreferences = []string{"Phone Call", "WhatsApp", "Email", "SMS"}
)

const RelationshipSelf = "Self"

const (
	ContactPhoneCall = "Phone Call"
	ContactWhatsApp  = "WhatsApp"
	ContactEmail     = "Email"
	ContactSMS       = "SMS"
)
