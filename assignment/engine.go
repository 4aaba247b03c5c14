package assignment

import (
	"context"
	"fmt"
	"strings"

	"github.com/workwheel/workwheel/logger"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
	"go.uber.org/zap"
)

const OVERRIDE_STRATEGY = "Override"

// Engine walks an ordered strategy chain until one strategy produces an
// assignee. Every attempt is recorded so an operator can audit why a task
// ended up where it did, or why nobody could be assigned at all.
type Engine struct {
	strategies  map[string]Strategy
	flowStorage persistence.FlowStorage
}

func NewEngine(flowStorage persistence.FlowStorage, strategies ...Strategy) *Engine {
	byName := make(map[string]Strategy, len(strategies))
	for _, strategy := range strategies {
		byName[normalizeStrategyName(strategy.Name())] = strategy
	}
	return &Engine{
		strategies:  byName,
		flowStorage: flowStorage,
	}
}

func (e *Engine) Assign(ctx context.Context, actx *model.AssignmentContext) *model.SelectionResult {
	if actx.Override != nil {
		if actx.Override.Assignee != "" || actx.Override.Group != "" {
			result := model.NewSelectionSuccess(actx.Override.Assignee)
			result.Group = actx.Override.Group
			result.Metadata["winningStrategy"] = OVERRIDE_STRATEGY
			result.Metadata["winningPosition"] = 1
			result.Metadata["attemptedStrategies"] = []string{OVERRIDE_STRATEGY}
			return result
		}
		if len(actx.Override.Strategies) > 0 {
			actx.Strategies = actx.Override.Strategies
		}
	}
	if len(actx.Strategies) == 0 {
		return model.NewSelectionFailure("no strategies provided")
	}
	var attempts []model.StrategyAttempt
	for _, name := range actx.Strategies {
		strategy, ok := e.strategies[normalizeStrategyName(name)]
		if !ok {
			attempts = append(attempts, model.StrategyAttempt{Strategy: name, Reason: "invalid strategy name"})
			continue
		}
		result := e.invoke(ctx, strategy, actx)
		if result.Success {
			attempted := attemptedNames(attempts)
			attempted = append(attempted, name)
			if result.Metadata == nil {
				result.Metadata = make(map[string]any)
			}
			result.Metadata["attemptedStrategies"] = attempted
			result.Metadata["winningStrategy"] = strategy.Name()
			result.Metadata["winningPosition"] = len(attempted)
			logger.Debug("assignee selected",
				zap.String("instance", actx.InstanceId),
				zap.String("activity", actx.ActivityId),
				zap.String("strategy", strategy.Name()),
				zap.String("assignee", result.AssigneeId))
			return result
		}
		attempts = append(attempts, model.StrategyAttempt{Strategy: name, Reason: result.ErrorMessage})
	}
	reasons := make([]string, 0, len(attempts))
	for _, attempt := range attempts {
		reasons = append(reasons, fmt.Sprintf("%s: %s", attempt.Strategy, attempt.Reason))
	}
	failure := model.NewSelectionFailure(fmt.Sprintf("all assignment strategies failed: %s", strings.Join(reasons, "; ")))
	failure.Metadata = map[string]any{
		"attemptedStrategies": attemptedNames(attempts),
		"attempts":            attempts,
	}
	logger.Warn("assignment chain exhausted",
		zap.String("instance", actx.InstanceId),
		zap.String("activity", actx.ActivityId),
		zap.Int("attempted", len(attempts)))
	return failure
}

// invoke shields the cascade from a defective strategy; panics and errors
// become that strategy's failure reason.
func (e *Engine) invoke(ctx context.Context, strategy Strategy, actx *model.AssignmentContext) (result *model.SelectionResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("strategy panicked",
				zap.String("strategy", strategy.Name()),
				zap.String("activity", actx.ActivityId),
				zap.Any("panic", r))
			result = model.NewSelectionFailure(fmt.Sprintf("strategy panicked: %v", r))
		}
	}()
	selected, err := strategy.Select(ctx, actx)
	if err != nil {
		return model.NewSelectionFailure(err.Error())
	}
	if selected == nil {
		return model.NewSelectionFailure("strategy returned no result")
	}
	return selected
}

// IsRouteBackScenario reports whether the activity already has a Completed
// execution in this instance, meaning the flow looped back to it. Lookup
// failures degrade to false: treating a route-back as a first execution is
// cheaper than blocking assignment.
func (e *Engine) IsRouteBackScenario(ctx context.Context, instanceId string, activityId string) bool {
	executions, err := e.flowStorage.GetExecutions(ctx, instanceId)
	if err != nil {
		logger.Warn("route-back lookup failed, assuming first execution",
			zap.String("instance", instanceId),
			zap.String("activity", activityId),
			zap.Error(err))
		return false
	}
	for _, execution := range executions {
		if execution.ActivityId == activityId && execution.Status == model.EXECUTION_COMPLETED {
			return true
		}
	}
	return false
}

func attemptedNames(attempts []model.StrategyAttempt) []string {
	names := make([]string, 0, len(attempts))
	for _, attempt := range attempts {
		names = append(names, attempt.Strategy)
	}
	return names
}
