package model

import "time"

type Role string

const (
	RoleCitizen    Role = "citizen"
	RoleWorker     Role = "worker"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super-admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCitizen, RoleWorker, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// User represents any account in the system. Workers are users with
// RoleWorker bound to exactly one department.
type User struct {
	ID           string
	Name         string
	Email        string
	Role         Role
	DepartmentID string // empty for citizens
	IsActive     bool
}

// Point is a WGS84 coordinate pair, longitude first (GeoJSON order)
type Point struct {
	Longitude float64
	Latitude  float64
}

// Image is an uploaded complaint photo reference
type Image struct {
	URL      string
	PublicID string
}

// Complaint is a citizen-filed issue. DepartmentID is derived from the
// category at creation and never changes afterwards. AssignedWorkerID is
// set if and only if the complaint has been assigned (status assigned,
// in_progress or resolved).
type Complaint struct {
	ID               string
	Title            string
	Description      string
	CategoryID       string
	Priority         Priority
	Status           Status
	ReporterID       string
	DepartmentID     string
	AssignedWorkerID string // empty when unassigned
	SLADeadline      *time.Time
	Location         Point
	Address          string
	AreaID           string // empty when outside any known area
	Images           []Image
	CreatedAt        time.Time
	ResolvedAt       *time.Time
}

// StatusLog is an append-only audit trail entry, created on every status
// transition and never mutated.
type StatusLog struct {
	ID          string
	ComplaintID string
	OldStatus   Status
	NewStatus   Status
	ChangedBy   string
	Note        string
	CreatedAt   time.Time
}

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

func (s LeaveStatus) IsValid() bool {
	switch s {
	case LeavePending, LeaveApproved, LeaveRejected:
		return true
	}
	return false
}

// LeaveRequest is a worker's time-off request. StartDate and EndDate are an
// inclusive calendar range. Only approved requests participate in
// assignment eligibility checks.
type LeaveRequest struct {
	ID         string
	WorkerID   string
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
	Status     LeaveStatus
	ApprovedBy string // empty until reviewed
	CreatedAt  time.Time
}

// Covers reports whether day falls inside the inclusive leave range.
// Comparison is by calendar date in UTC.
func (l LeaveRequest) Covers(day time.Time) bool {
	d := truncateToDay(day)
	return !d.Before(truncateToDay(l.StartDate)) && !d.After(truncateToDay(l.EndDate))
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
