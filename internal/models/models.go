package models

import (
	"time"
)

// Role names stored on users
const (
	RoleAdmin     = "admin"
	RoleCommittee = "committee"
)

// User represents an operator of the tracker
type User struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Candidate is a person pursuing the habilitation
type Candidate struct {
	ID               uint       `json:"id"`
	UserID           *uint      `json:"user_id,omitempty"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	Address          string     `json:"address"`
	Department       string     `json:"department"`
	ThesisTitle      string     `json:"thesis_title"`
	ThesisDate       *time.Time `json:"thesis_date,omitempty"`
	ThesisSupervisor string     `json:"thesis_supervisor"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
}

// FullName returns "First Last"
func (c *Candidate) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Application is one candidacy attempt of a candidate
type Application struct {
	ID             uint              `json:"id"`
	CandidateID    uint              `json:"candidate_id"`
	SubmissionDate *time.Time        `json:"submission_date,omitempty"`
	Status         ApplicationStatus `json:"status"`
	CurrentStage   Stage             `json:"current_stage"`
	Progress       int               `json:"progress"`
	Notes          string            `json:"notes"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ApplicationWithCandidate adds the candidate's display fields for listings
type ApplicationWithCandidate struct {
	Application
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Department  string `json:"department"`
	ThesisTitle string `json:"thesis_title"`
}

// Document references a stored file
type Document struct {
	ID            uint             `json:"id"`
	ApplicationID *uint            `json:"application_id,omitempty"`
	CandidateID   *uint            `json:"candidate_id,omitempty"`
	Name          string           `json:"name"`
	Type          string           `json:"type"`
	Path          string           `json:"path"`
	Size          int64            `json:"size"`
	Category      DocumentCategory `json:"category"`
	UploadedAt    time.Time        `json:"uploaded_at"`
}

// EvaluationComments is stored as one JSON column
type EvaluationComments struct {
	Strengths       string `json:"strengths"`
	Weaknesses      string `json:"weaknesses"`
	Recommendation  string `json:"recommendation"`
	GeneralComments string `json:"generalComments"`
}

// Evaluation is one rapporteur's assessment of an application.
// EvaluatorName is captured at assignment time and kept even if the
// rapporteur is later removed.
type Evaluation struct {
	ID             uint               `json:"id"`
	ApplicationID  uint               `json:"application_id"`
	EvaluatorID    *uint              `json:"evaluator_id,omitempty"`
	EvaluatorName  string             `json:"evaluator_name"`
	Score          *int               `json:"score,omitempty"`
	Comments       EvaluationComments `json:"comments"`
	EvaluationDate *time.Time         `json:"evaluation_date,omitempty"`
	Status         EvaluationStatus   `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
}

// Report is the formal output of a rapporteur for an application
type Report struct {
	ID             uint           `json:"id"`
	ApplicationID  uint           `json:"application_id"`
	RapporteurID   *uint          `json:"rapporteur_id,omitempty"`
	SubmissionDate *time.Time     `json:"submission_date,omitempty"`
	Content        string         `json:"content"`
	Recommendation Recommendation `json:"recommendation"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ReportWithDetails is a report joined with rapporteur and candidate names
type ReportWithDetails struct {
	Report
	RapporteurName string `json:"rapporteur_name"`
	Institution    string `json:"institution"`
	CandidateName  string `json:"candidate_name"`
}

// Defense is the scheduled or held defense of a candidate
type Defense struct {
	ID            uint          `json:"id"`
	ApplicationID *uint         `json:"application_id,omitempty"`
	CandidateID   uint          `json:"candidate_id"`
	Date          *time.Time    `json:"date,omitempty"`
	Time          string        `json:"time"`
	Location      string        `json:"location"`
	Jury          string        `json:"jury"`
	Outcome       string        `json:"outcome"`
	Status        DefenseStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// DefenseWithCandidate adds candidate display fields
type DefenseWithCandidate struct {
	Defense
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	ThesisTitle string `json:"thesis_title"`
}

// Meeting is a committee meeting
type Meeting struct {
	ID        uint          `json:"id"`
	Date      *time.Time    `json:"date,omitempty"`
	Time      string        `json:"time"`
	Type      string        `json:"type"`
	Status    MeetingStatus `json:"status"`
	Attendees string        `json:"attendees"`
	Decisions string        `json:"decisions"`
	Minutes   string        `json:"minutes"`
	CreatedAt time.Time     `json:"created_at"`
}

// Rapporteur is an external reviewer
type Rapporteur struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	Institution      string    `json:"institution"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Specialization   string    `json:"specialization"`
	EvaluationsCount int       `json:"evaluations_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// RapporteurWorkload is a rapporteur with the number of open evaluations
type RapporteurWorkload struct {
	Rapporteur
	ActiveEvaluations int `json:"active_evaluations"`
}

// CommissionMember is an internal committee member
type CommissionMember struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        uint      `json:"id"`
	UserID    *uint     `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	Details   string    `json:"details"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats overviews

type CandidateStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

type ApplicationStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Approved   int `json:"approved"`
	Rejected   int `json:"rejected"`
}

type EvaluationStats struct {
	Total        int      `json:"total"`
	Pending      int      `json:"pending"`
	Completed    int      `json:"completed"`
	AverageScore *float64 `json:"average_score"`
}

type ReportStats struct {
	TotalReports int `json:"total_reports"`
	Favorable    int `json:"favorable"`
	Unfavorable  int `json:"unfavorable"`
	WithReserves int `json:"with_reserves"`
}
