package model

import "time"

// WorkflowDefinition is the versioned process graph. A published version is
// immutable; re-publishing under the same name creates the next version.
type WorkflowDefinition struct {
	Name          string        `json:"name"`
	Category      string        `json:"category"`
	Version       int           `json:"version"`
	Active        bool          `json:"active"`
	StartActivity string        `json:"startActivity"`
	Activities    []ActivityDef `json:"activities"`
	CreatedAt     time.Time     `json:"createdAt"`
}

func (wf *WorkflowDefinition) GetActivity(id string) (*ActivityDef, bool) {
	for i := range wf.Activities {
		if wf.Activities[i].Id == id {
			return &wf.Activities[i], true
		}
	}
	return nil, false
}

type ActivityDef struct {
	Id          string            `json:"id"`
	Name        string            `json:"name"`
	Kind        string            `json:"kind"`
	Next        string            `json:"next,omitempty"`
	Conditions  map[string]string `json:"conditions,omitempty"`
	DefaultNext string            `json:"defaultNext,omitempty"`
	Expression  string            `json:"expression,omitempty"`
	EventType   string            `json:"eventType,omitempty"`
	Parameters  map[string]any    `json:"parameters,omitempty"`
	Properties  map[string]any    `json:"properties,omitempty"`
	Assignment  *AssignmentDef    `json:"assignment,omitempty"`
}

// AssignmentDef declares how a human task picks its assignee: an ordered
// strategy chain plus the candidate groups the strategies draw from.
type AssignmentDef struct {
	Strategies []string       `json:"strategies"`
	Groups     []string       `json:"groups,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}
