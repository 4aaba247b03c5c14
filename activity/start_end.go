package activity

import (
	"context"

	"github.com/workwheel/workwheel/model"
)

var _ Activity = new(startActivity)

type startActivity struct {
	baseActivity
}

func NewStartActivity(def *model.ActivityDef) *startActivity {
	return &startActivity{baseActivity: newBaseActivity(KIND_START, def)}
}

func (a *startActivity) Execute(ctx context.Context, req ExecutionRequest) (*Result, error) {
	return &Result{Event: "default", Output: req.Input}, nil
}

var _ Activity = new(endActivity)

type endActivity struct {
	baseActivity
}

func NewEndActivity(def *model.ActivityDef) *endActivity {
	return &endActivity{baseActivity: newBaseActivity(KIND_END, def)}
}

func (a *endActivity) Execute(ctx context.Context, req ExecutionRequest) (*Result, error) {
	return &Result{Event: "default", End: true}, nil
}
