package activity

import (
	"context"
	"fmt"
	"strings"

	"github.com/workwheel/workwheel/model"
)

type Kind string

const KIND_START Kind = "START"
const KIND_END Kind = "END"
const KIND_TASK Kind = "TASK"
const KIND_DECISION Kind = "DECISION"
const KIND_SCRIPT Kind = "SCRIPT"
const KIND_NOTIFY Kind = "NOTIFY"

func ToKind(kind string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(kind)) {
	case "START":
		return KIND_START, nil
	case "END":
		return KIND_END, nil
	case "TASK":
		return KIND_TASK, nil
	case "DECISION":
		return KIND_DECISION, nil
	case "SCRIPT":
		return KIND_SCRIPT, nil
	case "NOTIFY":
		return KIND_NOTIFY, nil
	}
	return "", fmt.Errorf("activity kind %s not found", kind)
}

// ExecutionRequest carries the instance and per-call context into one
// activity execution.
type ExecutionRequest struct {
	Instance *model.WorkflowInstance
	Input    map[string]any
	Override *model.AssignmentOverride
}

// Result is what one activity execution produced. Wait means the activity is
// a human task that now sits Pending until a resume call completes it.
type Result struct {
	Event      string
	Output     map[string]any
	Wait       bool
	Assignment *model.SelectionResult
	End        bool
}

type Activity interface {
	Kind() Kind
	Definition() *model.ActivityDef
	Execute(ctx context.Context, req ExecutionRequest) (*Result, error)
}

type baseActivity struct {
	kind Kind
	def  *model.ActivityDef
}

func newBaseActivity(kind Kind, def *model.ActivityDef) baseActivity {
	return baseActivity{kind: kind, def: def}
}

func (ba *baseActivity) Kind() Kind {
	return ba.kind
}

func (ba *baseActivity) Definition() *model.ActivityDef {
	return ba.def
}
