package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
	"github.com/workwheel/workwheel/logger"
	"github.com/workwheel/workwheel/model"
	"go.uber.org/zap"
)

var _ Activity = new(scriptActivity)

// scriptActivity runs a javascript expression with the variable bag bound to
// $ and merges the mutated object back into the variables.
type scriptActivity struct {
	baseActivity
	expression string
}

func NewScriptActivity(def *model.ActivityDef) *scriptActivity {
	return &scriptActivity{
		baseActivity: newBaseActivity(KIND_SCRIPT, def),
		expression:   def.Expression,
	}
}

func (a *scriptActivity) Execute(ctx context.Context, req ExecutionRequest) (*Result, error) {
	logger.Debug("running script activity", zap.String("activity", a.def.Id), zap.String("instance", req.Instance.Id))
	data, err := json.Marshal(req.Instance.Variables)
	if err != nil {
		return nil, err
	}
	script := fmt.Sprintf("var $ = %s;\n%s", data, a.expression)
	vm := goja.New()
	if _, err := vm.RunString(script); err != nil {
		return nil, fmt.Errorf("error executing javascript %w", err)
	}
	val, err := vm.RunString("$")
	if err != nil {
		return nil, fmt.Errorf("error executing javascript %w", err)
	}
	out, err := json.Marshal(val.Export())
	if err != nil {
		return nil, err
	}
	var output map[string]any
	if err := json.Unmarshal(out, &output); err != nil {
		return nil, err
	}
	return &Result{Event: "default", Output: output}, nil
}
