package model

import "time"

type ExecutionStatus string

const EXECUTION_PENDING ExecutionStatus = "PENDING"
const EXECUTION_IN_PROGRESS ExecutionStatus = "IN_PROGRESS"
const EXECUTION_COMPLETED ExecutionStatus = "COMPLETED"
const EXECUTION_FAILED ExecutionStatus = "FAILED"
const EXECUTION_SKIPPED ExecutionStatus = "SKIPPED"
const EXECUTION_CANCELLED ExecutionStatus = "CANCELLED"

func (s ExecutionStatus) IsOpen() bool {
	return s == EXECUTION_PENDING || s == EXECUTION_IN_PROGRESS
}

// ActivityExecution is one attempt of one activity inside an instance. The
// per-instance execution list is the system of record for route-back
// detection.
type ActivityExecution struct {
	Id              string          `json:"id"`
	InstanceId      string          `json:"instanceId"`
	ActivityId      string          `json:"activityId"`
	ActivityName    string          `json:"activityName"`
	ActivityKind    string          `json:"activityKind"`
	Status          ExecutionStatus `json:"status"`
	AssignedTo      string          `json:"assignedTo,omitempty"`
	AssignedGroup   string          `json:"assignedGroup,omitempty"`
	StartedAt       time.Time       `json:"startedAt"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
	CompletedBy     string          `json:"completedBy,omitempty"`
	InputVariables  map[string]any  `json:"inputVariables,omitempty"`
	OutputVariables map[string]any  `json:"outputVariables,omitempty"`
	ErrorMessage    string          `json:"errorMessage,omitempty"`
	Comments        string          `json:"comments,omitempty"`
}

func (e *ActivityExecution) MarkCompleted(completedBy string, output map[string]any, comments string) {
	now := time.Now()
	e.Status = EXECUTION_COMPLETED
	e.CompletedBy = completedBy
	e.CompletedAt = &now
	e.OutputVariables = output
	e.Comments = comments
}

func (e *ActivityExecution) MarkFailed(errorMessage string) {
	now := time.Now()
	e.Status = EXECUTION_FAILED
	e.CompletedAt = &now
	e.ErrorMessage = errorMessage
}

func (e *ActivityExecution) MarkCancelled() {
	now := time.Now()
	e.Status = EXECUTION_CANCELLED
	e.CompletedAt = &now
}
