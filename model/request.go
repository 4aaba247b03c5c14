package model

type StartWorkflowRequest struct {
	DefinitionName string                         `json:"definitionName"`
	Name           string                         `json:"name"`
	StartedBy      string                         `json:"startedBy"`
	CorrelationId  string                         `json:"correlationId,omitempty"`
	Input          map[string]any                 `json:"input,omitempty"`
	Overrides      map[string]*AssignmentOverride `json:"overrides,omitempty"`
}

type StartWorkflowResponse struct {
	InstanceId     string         `json:"instanceId"`
	Status         InstanceStatus `json:"status"`
	NextActivityId string         `json:"nextActivityId,omitempty"`
	NextAssignee   string         `json:"nextAssignee,omitempty"`
}

type ResumeWorkflowRequest struct {
	InstanceId  string                         `json:"instanceId"`
	ActivityId  string                         `json:"activityId"`
	CompletedBy string                         `json:"completedBy"`
	Output      map[string]any                 `json:"output,omitempty"`
	Comments    string                         `json:"comments,omitempty"`
	Overrides   map[string]*AssignmentOverride `json:"overrides,omitempty"`
}

type ResumeWorkflowResponse struct {
	Status         InstanceStatus `json:"status"`
	NextActivityId string         `json:"nextActivityId,omitempty"`
	NextAssignee   string         `json:"nextAssignee,omitempty"`
	Completed      bool           `json:"completed"`
}
