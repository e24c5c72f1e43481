package domain

import (
	"time"

	"github.com/google/uuid"
)

// LeadStatus enumerates the pipeline stages a lead can be in.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusLost      LeadStatus = "lost"
	LeadStatusWon       LeadStatus = "won"
)

// Valid reports whether the status is one of the known pipeline stages.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusLost, LeadStatusWon:
		return true
	}
	return false
}

// Lead is a CRM lead owned by a single user. Score is derived from the
// scoring-relevant fields on every write and is never set by callers.
type Lead struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Company           *string    `json:"company"`
	Status            LeadStatus `json:"status"`
	Source            *string    `json:"source,omitempty"`
	EstimatedValue    *float64   `json:"estimated_value,omitempty"`
	ActivitiesLast30d *int       `json:"activities_last_30d,omitempty"`
	LastActivity      *time.Time `json:"last_activity,omitempty"`
	Score             int        `json:"score"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// LeadStats aggregates the dashboard metrics for a user's leads.
type LeadStats struct {
	TotalLeads    int               `json:"totalLeads"`
	AverageScore  int               `json:"averageScore"`
	LeadsByStatus []LeadStatusCount `json:"leadsByStatus"`
}

// LeadStatusCount is one status bucket within LeadStats.
type LeadStatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}
