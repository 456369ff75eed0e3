// Package model holds the canonical Rule, Task and Person shapes that every
// ingestion format converges to. Loosely typed input never crosses this
// boundary: all property values are plain strings by the time they land here.
package model

import "time"

// Priority levels a task can carry. Rules may only assign Low, Medium or High;
// Critical exists on tasks ingested with it.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// Status values a task moves through.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

// Properties is an open key/value bag. Conventional keys are project,
// assignee, time, priority and label, but rules may set anything.
type Properties map[string]string

// Clone returns an independent copy. A nil bag clones to an empty one so
// callers can merge into the result without nil checks.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge copies every entry of other into p, overwriting on key collision.
func (p Properties) Merge(other Properties) {
	for k, v := range other {
		p[k] = v
	}
}

// Rule maps a free-text condition onto a set of property effects.
type Rule struct {
	ID      string     `json:"id"`
	If      string     `json:"if"`
	Then    Properties `json:"then"`
	Enabled bool       `json:"enabled"`
}

// Task is the canonical task record. Dates are stored as the strings they
// were ingested with (ISO dates in practice) and parsed on demand, so a
// malformed date degrades to a non-match rather than a dropped record.
type Task struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	AssignedTo        string     `json:"assignedTo,omitempty"`
	DueDate           string     `json:"dueDate,omitempty"`
	DueTime           string     `json:"dueTime,omitempty"`
	Priority          Priority   `json:"priority,omitempty"`
	Status            Status     `json:"status,omitempty"`
	EstimatedDuration string     `json:"estimatedDuration,omitempty"`
	Category          string     `json:"category,omitempty"`
	Tags              []string   `json:"tags,omitempty"`
	ScheduledFor      string     `json:"scheduledFor,omitempty"`
	OriginalProperties Properties `json:"originalProperties"`
	AppliedProperties  Properties `json:"appliedProperties"`
	AppliedRules       []string   `json:"appliedRules"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// Touch advances the update timestamp. Every mutating caller goes through
// here so UpdatedAt stays honest.
func (t *Task) Touch() {
	t.UpdatedAt = time.Now()
}

// dateLayouts are tried in order when interpreting a stored date string.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006/01/02",
}

// ParseDate interprets a stored date string as a calendar date in loc.
// Returns false for empty or unparseable input.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
		}
	}
	return time.Time{}, false
}

// DueOn returns the task's due date as a calendar date in loc.
func (t *Task) DueOn(loc *time.Location) (time.Time, bool) {
	return ParseDate(t.DueDate, loc)
}

// ScheduledOn returns the task's scheduled date as a calendar date in loc.
func (t *Task) ScheduledOn(loc *time.Location) (time.Time, bool) {
	return ParseDate(t.ScheduledFor, loc)
}

// Person is a known assignee. There is no referential integrity with
// Task.AssignedTo; matching is by name string only.
type Person struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email,omitempty"`
	Role         string   `json:"role,omitempty"`
	Department   string   `json:"department,omitempty"`
	Availability []string `json:"availability,omitempty"`
}
