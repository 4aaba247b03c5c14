package model

import (
	"fmt"
	"time"
)

type InstanceStatus string

const INSTANCE_RUNNING InstanceStatus = "RUNNING"
const INSTANCE_COMPLETED InstanceStatus = "COMPLETED"
const INSTANCE_FAILED InstanceStatus = "FAILED"
const INSTANCE_CANCELLED InstanceStatus = "CANCELLED"
const INSTANCE_SUSPENDED InstanceStatus = "SUSPENDED"

func (s InstanceStatus) IsTerminal() bool {
	return s == INSTANCE_COMPLETED || s == INSTANCE_FAILED || s == INSTANCE_CANCELLED
}

// allowed status transitions; terminal states have no outgoing edges
var statusTransitions = map[InstanceStatus][]InstanceStatus{
	INSTANCE_RUNNING:   {INSTANCE_COMPLETED, INSTANCE_FAILED, INSTANCE_CANCELLED, INSTANCE_SUSPENDED},
	INSTANCE_SUSPENDED: {INSTANCE_RUNNING, INSTANCE_CANCELLED},
}

type InvalidTransitionError struct {
	From InstanceStatus
	To   InstanceStatus
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// WorkflowInstance is one run of a definition version. Mutate it only through
// the transition methods below; the engine persists instance and execution
// records in one unit.
type WorkflowInstance struct {
	Id                string         `json:"id"`
	DefinitionName    string         `json:"definitionName"`
	DefinitionVersion int            `json:"definitionVersion"`
	Name              string         `json:"name"`
	CorrelationId     string         `json:"correlationId,omitempty"`
	Status            InstanceStatus `json:"status"`
	CurrentActivity   string         `json:"currentActivity"`
	CurrentAssignee   string         `json:"currentAssignee,omitempty"`
	Variables         map[string]any `json:"variables"`
	StartedBy         string         `json:"startedBy"`
	StartedAt         time.Time      `json:"startedAt"`
	CompletedAt       *time.Time     `json:"completedAt,omitempty"`
	RetryCount        int            `json:"retryCount"`
	ErrorMessage      string         `json:"errorMessage,omitempty"`
}

func NewWorkflowInstance(id string, def *WorkflowDefinition, name string, startedBy string, correlationId string, input map[string]any) *WorkflowInstance {
	variables := make(map[string]any)
	for k, v := range input {
		variables[k] = v
	}
	return &WorkflowInstance{
		Id:                id,
		DefinitionName:    def.Name,
		DefinitionVersion: def.Version,
		Name:              name,
		CorrelationId:     correlationId,
		Status:            INSTANCE_RUNNING,
		Variables:         variables,
		StartedBy:         startedBy,
		StartedAt:         time.Now(),
	}
}

func (w *WorkflowInstance) SetCurrentActivity(activityId string, assignee string) error {
	if w.Status.IsTerminal() {
		return InvalidTransitionError{From: w.Status, To: w.Status}
	}
	w.CurrentActivity = activityId
	w.CurrentAssignee = assignee
	return nil
}

func (w *WorkflowInstance) UpdateStatus(status InstanceStatus, errorMessage string) error {
	allowed := false
	for _, to := range statusTransitions[w.Status] {
		if to == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return InvalidTransitionError{From: w.Status, To: status}
	}
	w.Status = status
	w.ErrorMessage = errorMessage
	if status.IsTerminal() {
		now := time.Now()
		w.CompletedAt = &now
	}
	return nil
}

// UpdateVariables merges the given map into the variable bag, later keys
// overwriting earlier ones.
func (w *WorkflowInstance) UpdateVariables(vars map[string]any) {
	if w.Variables == nil {
		w.Variables = make(map[string]any)
	}
	for k, v := range vars {
		w.Variables[k] = v
	}
}

func (w *WorkflowInstance) IncrementRetryCount() {
	w.RetryCount++
}
