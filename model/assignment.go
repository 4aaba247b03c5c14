package model

import "time"

// AssignmentContext carries everything a selection strategy may need. It is
// transient; nothing in it is persisted directly.
type AssignmentContext struct {
	InstanceId   string
	ActivityId   string
	ActivityName string
	Strategies   []string
	Groups       []string
	Properties   map[string]any
	Override     *AssignmentOverride
}

// AssignmentOverride is a caller supplied instruction that bypasses the
// configured strategy chain for one activity.
type AssignmentOverride struct {
	Assignee   string   `json:"assignee,omitempty"`
	Group      string   `json:"group,omitempty"`
	Strategies []string `json:"strategies,omitempty"`
}

type StrategyAttempt struct {
	Strategy string `json:"strategy"`
	Reason   string `json:"reason"`
}

// SelectionResult reports the outcome of one cascade run. AssigneeId may be
// empty on success when the task was assigned to a group as a whole.
type SelectionResult struct {
	Success      bool           `json:"success"`
	AssigneeId   string         `json:"assigneeId,omitempty"`
	Group        string         `json:"group,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
}

func NewSelectionFailure(reason string) *SelectionResult {
	return &SelectionResult{Success: false, ErrorMessage: reason}
}

func NewSelectionSuccess(assigneeId string) *SelectionResult {
	return &SelectionResult{Success: true, AssigneeId: assigneeId, Metadata: make(map[string]any)}
}

// RoundRobinEntry is one persisted fairness counter. Entries are keyed by
// (activity name, group-set hash, user); stale users are deactivated, never
// deleted, so historical counts survive group membership churn.
type RoundRobinEntry struct {
	ActivityName    string     `json:"activityName"`
	GroupHash       string     `json:"groupHash"`
	UserId          string     `json:"userId"`
	AssignmentCount int        `json:"assignmentCount"`
	LastAssignedAt  *time.Time `json:"lastAssignedAt,omitempty"`
	Active          bool       `json:"active"`
}
